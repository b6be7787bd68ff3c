package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/shopsmart/backend/config"
	httpDelivery "github.com/shopsmart/backend/internal/delivery/http"
	"github.com/shopsmart/backend/internal/infrastructure/jobapi"
	"github.com/shopsmart/backend/internal/infrastructure/session"
	"github.com/shopsmart/backend/internal/usecase"
	"github.com/shopsmart/backend/pkg/logging"
	"github.com/shopsmart/backend/pkg/shutdown"
)

const shutdownTimeout = 10 * time.Second

// server drains HTTP traffic and then tears down every live session
type server struct {
	http     *http.Server
	sessions *session.Store[*usecase.SearchSession]
}

func (s *server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.sessions.Stop()
	return err
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Server.Environment)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting ShopSmart backend",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"collaborator", cfg.Collaborator.BaseURL,
		"poll_interval", cfg.Polling.Interval,
		"session_ttl", cfg.Sessions.TTL,
		"sites", len(cfg.Sites))

	client := jobapi.NewClient(jobapi.Config{
		BaseURL:     cfg.Collaborator.BaseURL,
		Timeout:     cfg.Collaborator.Timeout,
		SubmitPath:  cfg.Collaborator.SubmitPath,
		StatusPath:  cfg.Collaborator.StatusPath,
		ResultsPath: cfg.Collaborator.ResultsPath,
		ExportPath:  cfg.Collaborator.ExportPath,
	}, logger)

	sessions := session.NewStore[*usecase.SearchSession](cfg.Sessions.TTL, cfg.Sessions.CleanupInterval, logger)

	sessionConfig := usecase.SearchSessionConfig{
		Sites:                cfg.Sites,
		PollInterval:         cfg.Polling.Interval,
		StallLimit:           cfg.Polling.StallLimit,
		MaxConsecutiveErrors: cfg.Polling.MaxConsecutiveErrors,
	}
	newSession := func() *usecase.SearchSession {
		return usecase.NewSearchSession(client, sessionConfig, logger)
	}

	handler := httpDelivery.NewHandler(sessions, newSession, usecase.NewExportRequester(client, logger), cfg.Sites, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &server{
		http: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		sessions: sessions,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		shutdown.Graceful(
			[]os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT},
			srv,
			shutdownTimeout,
			logger,
		)
	}()

	logger.Info("server listening", "addr", srv.http.Addr)

	if err := srv.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
	<-stopped
	logger.Info("server stopped")
}
