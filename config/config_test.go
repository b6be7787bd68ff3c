package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopsmart/backend/internal/domain"
)

var envKeys = []string{
	"SHOPSMART_SERVER_PORT",
	"SHOPSMART_SERVER_ENVIRONMENT",
	"SHOPSMART_SERVER_ALLOWED_ORIGINS",
	"SHOPSMART_COLLABORATOR_BASE_URL",
	"SHOPSMART_COLLABORATOR_TIMEOUT",
	"SHOPSMART_COLLABORATOR_STATUS_PATH",
	"SHOPSMART_POLLING_INTERVAL",
	"SHOPSMART_POLLING_STALL_LIMIT",
	"SHOPSMART_POLLING_MAX_CONSECUTIVE_ERRORS",
	"SHOPSMART_SESSIONS_TTL",
	"SHOPSMART_SESSIONS_CLEANUP_INTERVAL",
	"SHOPSMART_RATELIMIT_PER_IP",
	"SHOPSMART_LOG_LEVEL",
}

func cleanupEnv() {
	for _, key := range envKeys {
		os.Unsetenv(key)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Collaborator.BaseURL != "http://localhost:5000" {
			t.Errorf("Collaborator.BaseURL = %s, want http://localhost:5000", cfg.Collaborator.BaseURL)
		}
		if cfg.Collaborator.Timeout != 30*time.Second {
			t.Errorf("Collaborator.Timeout = %v, want 30s", cfg.Collaborator.Timeout)
		}
		if cfg.Collaborator.SubmitPath != "/api/search" || cfg.Collaborator.ExportPath != "/api/export" {
			t.Errorf("Collaborator paths = %+v", cfg.Collaborator)
		}
		if cfg.Polling.Interval != 2*time.Second {
			t.Errorf("Polling.Interval = %v, want 2s", cfg.Polling.Interval)
		}
		if cfg.Polling.StallLimit != 3 {
			t.Errorf("Polling.StallLimit = %d, want 3", cfg.Polling.StallLimit)
		}
		if cfg.Polling.MaxConsecutiveErrors != 0 {
			t.Errorf("Polling.MaxConsecutiveErrors = %d, want 0", cfg.Polling.MaxConsecutiveErrors)
		}
		if cfg.Sessions.TTL != 30*time.Minute {
			t.Errorf("Sessions.TTL = %v, want 30m", cfg.Sessions.TTL)
		}
		if cfg.RateLimit.PerIP != 100 {
			t.Errorf("RateLimit.PerIP = %d, want 100", cfg.RateLimit.PerIP)
		}
		if cfg.Log.Level != "info" {
			t.Errorf("Log.Level = %s, want info", cfg.Log.Level)
		}
		if len(cfg.Sites) != len(domain.DefaultSites()) {
			t.Errorf("len(Sites) = %d, want %d", len(cfg.Sites), len(domain.DefaultSites()))
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SHOPSMART_SERVER_PORT", "9090")
		os.Setenv("SHOPSMART_SERVER_ENVIRONMENT", "production")
		os.Setenv("SHOPSMART_COLLABORATOR_BASE_URL", "http://scraper:5000")
		os.Setenv("SHOPSMART_COLLABORATOR_TIMEOUT", "5s")
		os.Setenv("SHOPSMART_COLLABORATOR_STATUS_PATH", "/v2/status")
		os.Setenv("SHOPSMART_POLLING_INTERVAL", "500ms")
		os.Setenv("SHOPSMART_POLLING_MAX_CONSECUTIVE_ERRORS", "10")
		os.Setenv("SHOPSMART_SESSIONS_TTL", "1h")
		os.Setenv("SHOPSMART_RATELIMIT_PER_IP", "200")
		os.Setenv("SHOPSMART_LOG_LEVEL", "debug")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Collaborator.BaseURL != "http://scraper:5000" {
			t.Errorf("Collaborator.BaseURL = %s, want http://scraper:5000", cfg.Collaborator.BaseURL)
		}
		if cfg.Collaborator.Timeout != 5*time.Second {
			t.Errorf("Collaborator.Timeout = %v, want 5s", cfg.Collaborator.Timeout)
		}
		if cfg.Collaborator.StatusPath != "/v2/status" {
			t.Errorf("Collaborator.StatusPath = %s, want /v2/status", cfg.Collaborator.StatusPath)
		}
		if cfg.Polling.Interval != 500*time.Millisecond {
			t.Errorf("Polling.Interval = %v, want 500ms", cfg.Polling.Interval)
		}
		if cfg.Polling.MaxConsecutiveErrors != 10 {
			t.Errorf("Polling.MaxConsecutiveErrors = %d, want 10", cfg.Polling.MaxConsecutiveErrors)
		}
		if cfg.Sessions.TTL != time.Hour {
			t.Errorf("Sessions.TTL = %v, want 1h", cfg.Sessions.TTL)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
		}
	})

	t.Run("fails validation for non-positive polling interval", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SHOPSMART_POLLING_INTERVAL", "0s")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want error for zero polling interval")
		}
		if !strings.HasPrefix(err.Error(), "invalid configuration: polling interval must be positive") {
			t.Errorf("Load() error = %v", err)
		}
	})

	t.Run("empty env var falls back to the default", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SHOPSMART_COLLABORATOR_BASE_URL", "")
		defer cleanupEnv()

		// viper treats an empty env var as unset, so the default applies
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Collaborator.BaseURL == "" {
			t.Error("Collaborator.BaseURL is empty, want default")
		}
	})
}

func TestLoad_WithDefault(t *testing.T) {
	t.Run("replaces the built-in default", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load(WithDefault("log.level", "warn"))
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Log.Level != "warn" {
			t.Errorf("Log.Level = %s, want warn", cfg.Log.Level)
		}
	})

	t.Run("environment still wins", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SHOPSMART_LOG_LEVEL", "debug")
		defer cleanupEnv()

		cfg, err := Load(WithDefault("log.level", "warn"))
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)
		os.Chdir(t.TempDir())

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)
		os.Chdir(t.TempDir())

		envContent := `
# Comment line
TEST_VAR_1=value1
TEST_VAR_2=value2

# TEST_COMMENTED=should_not_load
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_COMMENTED")
		defer func() {
			os.Unsetenv("TEST_VAR_1")
			os.Unsetenv("TEST_VAR_2")
		}()

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_2") != "value2" {
			t.Errorf("TEST_VAR_2 = %s, want value2", os.Getenv("TEST_VAR_2"))
		}
		if os.Getenv("TEST_COMMENTED") != "" {
			t.Errorf("TEST_COMMENTED should not be loaded from comment")
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)
		os.Chdir(t.TempDir())

		os.Setenv("TEST_OVERRIDE", "existing-value")
		defer os.Unsetenv("TEST_OVERRIDE")

		if err := os.WriteFile(".env", []byte("TEST_OVERRIDE=new-value"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}
	})
}

func validConfig() *Config {
	return &Config{
		Collaborator: CollaboratorConfig{BaseURL: "http://localhost:5000"},
		Polling:      PollingConfig{Interval: 2 * time.Second},
		Sessions:     SessionsConfig{TTL: 30 * time.Minute},
		RateLimit:    RateLimitConfig{PerIP: 100},
		Sites:        domain.DefaultSites(),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing base URL", mutate: func(c *Config) { c.Collaborator.BaseURL = "" }, wantErr: true},
		{name: "negative interval", mutate: func(c *Config) { c.Polling.Interval = -time.Second }, wantErr: true},
		{name: "negative max errors", mutate: func(c *Config) { c.Polling.MaxConsecutiveErrors = -1 }, wantErr: true},
		{name: "negative stall limit disables the check", mutate: func(c *Config) { c.Polling.StallLimit = -1 }},
		{name: "zero session TTL", mutate: func(c *Config) { c.Sessions.TTL = 0 }, wantErr: true},
		{name: "zero rate limit", mutate: func(c *Config) { c.RateLimit.PerIP = 0 }, wantErr: true},
		{name: "site without id", mutate: func(c *Config) { c.Sites = append(c.Sites, domain.Site{Name: "Meesho"}) }, wantErr: true},
		{name: "duplicate site id", mutate: func(c *Config) { c.Sites = append(c.Sites, domain.Site{ID: "amazon", Name: "Amazon IN"}) }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
