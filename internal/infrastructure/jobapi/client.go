package jobapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopsmart/backend/internal/domain"
	"github.com/shopsmart/backend/pkg/logging"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultSubmitPath  = "/api/search"
	defaultStatusPath  = "/api/status"
	defaultResultsPath = "/api/results"
	defaultExportPath  = "/api/export"

	maxErrorBody = 4096
)

// Config configures the job service client
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	SubmitPath  string
	StatusPath  string
	ResultsPath string
	ExportPath  string
	HTTPClient  *http.Client
}

// Client handles communication with the remote comparison job service.
// It performs no retries; callers own the retry policy.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	submitPath  string
	statusPath  string
	resultsPath string
	exportPath  string
	log         *logging.Logger
}

// NewClient creates a new job service client
func NewClient(cfg Config, log *logging.Logger) *Client {
	if log == nil {
		log = logging.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		submitPath:  orDefault(cfg.SubmitPath, defaultSubmitPath),
		statusPath:  orDefault(cfg.StatusPath, defaultStatusPath),
		resultsPath: orDefault(cfg.ResultsPath, defaultResultsPath),
		exportPath:  orDefault(cfg.ExportPath, defaultExportPath),
		log:         log.With("component", "jobapi"),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// doRequest executes an HTTP request and rejects non-2xx responses
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ShopSmart/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCollaborator, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		return nil, &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(excerpt)),
		}
	}

	return resp, nil
}

// SubmitJob starts a comparison job. The service acknowledges immediately
// and gathers listings in the background.
func (c *Client) SubmitJob(ctx context.Context, request domain.SubmitRequest) error {
	c.log.Debug("submitting job", "query", request.Query, "websites", request.Websites)

	resp, err := c.doRequest(ctx, http.MethodPost, c.submitPath, request)
	if err != nil {
		c.log.Warn("submit failed", "query", request.Query, "err", err)
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

// FetchStatus returns the current job status snapshot
func (c *Client) FetchStatus(ctx context.Context) (*domain.JobStatus, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, c.statusPath, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var status domain.JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("%w: failed to decode status: %v", domain.ErrCollaborator, err)
	}
	status.Progress = clampProgress(status.Progress)

	return &status, nil
}

// FetchResults returns the products of the last completed job
func (c *Client) FetchResults(ctx context.Context) (domain.Catalog, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, c.resultsPath, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload []wireProduct
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode results: %v", domain.ErrCollaborator, err)
	}

	catalog, dropped := MapToCatalog(payload)
	if dropped > 0 {
		c.log.Warn("dropped untitled products", "dropped", dropped)
	}
	c.log.Debug("fetched results", "products", len(catalog))

	return catalog, nil
}

// ExportResults asks the service to write the latest results to a file
func (c *Client) ExportResults(ctx context.Context) (*domain.ExportResult, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, c.exportPath, nil)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoResults, statusErr.Body)
		}
		return nil, err
	}
	defer resp.Body.Close()

	var result domain.ExportResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode export response: %v", domain.ErrCollaborator, err)
	}
	if result.Filename == "" {
		return nil, fmt.Errorf("%w: export response has no filename", domain.ErrCollaborator)
	}

	return &result, nil
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
