package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/shopsmart/backend/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig
	Collaborator CollaboratorConfig
	Polling      PollingConfig
	Sessions     SessionsConfig
	RateLimit    RateLimitConfig
	Log          LogConfig
	Sites        []domain.Site
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CollaboratorConfig points at the remote job service
type CollaboratorConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SubmitPath  string        `mapstructure:"submit_path"`
	StatusPath  string        `mapstructure:"status_path"`
	ResultsPath string        `mapstructure:"results_path"`
	ExportPath  string        `mapstructure:"export_path"`
}

// PollingConfig holds job polling configuration
type PollingConfig struct {
	Interval             time.Duration `mapstructure:"interval"`
	StallLimit           int           `mapstructure:"stall_limit"`
	MaxConsecutiveErrors int           `mapstructure:"max_consecutive_errors"`
}

// SessionsConfig holds search session registry configuration
type SessionsConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Option adjusts the viper instance before configuration is read
type Option func(*viper.Viper)

// WithDefault replaces the built-in default for key. Config files and
// environment variables still take precedence.
func WithDefault(key string, value any) Option {
	return func(v *viper.Viper) {
		v.SetDefault(key, value)
	}
}

// Load loads configuration from environment variables and config files
func Load(opts ...Option) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shopsmart/")

	v.SetEnvPrefix("SHOPSMART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for _, opt := range opts {
		opt(v)
	}

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if len(config.Sites) == 0 {
		config.Sites = domain.DefaultSites()
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env into the process environment if present.
// Variables already set are never overridden.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Collaborator defaults
	v.SetDefault("collaborator.base_url", "http://localhost:5000")
	v.SetDefault("collaborator.timeout", "30s")
	v.SetDefault("collaborator.submit_path", "/api/search")
	v.SetDefault("collaborator.status_path", "/api/status")
	v.SetDefault("collaborator.results_path", "/api/results")
	v.SetDefault("collaborator.export_path", "/api/export")

	// Polling defaults
	v.SetDefault("polling.interval", "2s")
	v.SetDefault("polling.stall_limit", 3)
	v.SetDefault("polling.max_consecutive_errors", 0)

	// Session defaults
	v.SetDefault("sessions.ttl", "30m")
	v.SetDefault("sessions.cleanup_interval", "1m")

	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("log.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Collaborator.BaseURL == "" {
		return fmt.Errorf("collaborator base URL is required (set SHOPSMART_COLLABORATOR_BASE_URL)")
	}

	if config.Polling.Interval <= 0 {
		return fmt.Errorf("polling interval must be positive, got: %s", config.Polling.Interval)
	}

	if config.Polling.MaxConsecutiveErrors < 0 {
		return fmt.Errorf("max consecutive errors must not be negative, got: %d", config.Polling.MaxConsecutiveErrors)
	}

	if config.Sessions.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got: %s", config.Sessions.TTL)
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("per-IP rate limit must be positive, got: %d", config.RateLimit.PerIP)
	}

	seen := make(map[string]bool, len(config.Sites))
	for _, site := range config.Sites {
		if site.ID == "" {
			return fmt.Errorf("site id is required (site %q)", site.Name)
		}
		if seen[site.ID] {
			return fmt.Errorf("duplicate site id: %s", site.ID)
		}
		seen[site.ID] = true
	}

	return nil
}
