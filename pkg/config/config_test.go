package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Download.Workers != 3 {
		t.Errorf("Expected default workers to be 3, got %d", config.Download.Workers)
	}

	if config.Download.MaxAttempts != 3 {
		t.Errorf("Expected default max attempts to be 3, got %d", config.Download.MaxAttempts)
	}

	if config.Download.MinRequestInterval != 500*time.Millisecond {
		t.Errorf("Expected default request interval to be 500ms, got %v", config.Download.MinRequestInterval)
	}

	if config.Download.Root != "downloads" {
		t.Errorf("Expected default download root to be downloads, got %s", config.Download.Root)
	}

	if config.Logging.Level != "info" {
		t.Errorf("Expected default log level to be info, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("OFSCRAPER_COOKIE", "sess=abc; auth_id=42")
	os.Setenv("OFSCRAPER_USER_AGENT", "test-agent")
	os.Setenv("OFSCRAPER_X_BC", "test-bc-token")
	os.Setenv("OFSCRAPER_DOWNLOAD_ROOT", "/tmp/test-downloads")
	os.Setenv("OFSCRAPER_WORKERS", "5")
	os.Setenv("OFSCRAPER_SKIP_TEMPORARY", "TRUE")
	os.Setenv("OFSCRAPER_LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("OFSCRAPER_COOKIE")
		os.Unsetenv("OFSCRAPER_USER_AGENT")
		os.Unsetenv("OFSCRAPER_X_BC")
		os.Unsetenv("OFSCRAPER_DOWNLOAD_ROOT")
		os.Unsetenv("OFSCRAPER_WORKERS")
		os.Unsetenv("OFSCRAPER_SKIP_TEMPORARY")
		os.Unsetenv("OFSCRAPER_LOG_LEVEL")
	}()

	config := DefaultConfig()
	config.LoadFromEnv()

	if config.Account.Cookie != "sess=abc; auth_id=42" {
		t.Errorf("Expected cookie from environment, got %s", config.Account.Cookie)
	}

	if config.Account.UserAgent != "test-agent" {
		t.Errorf("Expected user agent to be test-agent, got %s", config.Account.UserAgent)
	}

	if config.Account.XBC != "test-bc-token" {
		t.Errorf("Expected x-bc to be test-bc-token, got %s", config.Account.XBC)
	}

	if config.Download.Root != "/tmp/test-downloads" {
		t.Errorf("Expected download root to be /tmp/test-downloads, got %s", config.Download.Root)
	}

	if config.Download.Workers != 5 {
		t.Errorf("Expected workers to be 5, got %d", config.Download.Workers)
	}

	if !config.Download.SkipTemporary {
		t.Error("Expected skip temporary to be enabled")
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnvIgnoresInvalidWorkers(t *testing.T) {
	os.Setenv("OFSCRAPER_WORKERS", "not-a-number")
	defer os.Unsetenv("OFSCRAPER_WORKERS")

	config := DefaultConfig()
	config.LoadFromEnv()

	if config.Download.Workers != 3 {
		t.Errorf("Expected workers to keep the default 3, got %d", config.Download.Workers)
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `account:
  cookie: "sess=filecookie"
  user_agent: "file-agent"
download:
  download_root: "/data/of"
  workers: 2
  timeout: 45s
  min_request_interval: 250ms
  skip_temporary: true
logging:
  level: warn
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	if config.Account.Cookie != "sess=filecookie" {
		t.Errorf("Expected cookie from file, got %s", config.Account.Cookie)
	}

	if config.Download.Root != "/data/of" {
		t.Errorf("Expected download root /data/of, got %s", config.Download.Root)
	}

	if config.Download.Workers != 2 {
		t.Errorf("Expected workers to be 2, got %d", config.Download.Workers)
	}

	if !config.Download.SkipTemporary {
		t.Error("Expected skip temporary to be enabled")
	}

	if config.Download.Timeout != 45*time.Second {
		t.Errorf("Expected timeout to be 45s, got %v", config.Download.Timeout)
	}

	if config.Download.MinRequestInterval != 250*time.Millisecond {
		t.Errorf("Expected request interval to be 250ms, got %v", config.Download.MinRequestInterval)
	}

	// Values the file does not mention keep their defaults.
	if config.Download.MaxAttempts != 3 {
		t.Errorf("Expected max attempts to keep the default 3, got %d", config.Download.MaxAttempts)
	}
}

func TestLoadFromFileBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "download:\n  timeout: soon\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(path); err == nil {
		t.Error("Expected an error for an unparseable duration")
	}
}

func TestLoadFromFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("download: [not a mapping"), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(path); err == nil {
		t.Error("Expected an error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:      "empty download root",
			mutate:    func(c *Config) { c.Download.Root = "" },
			wantError: "download root is required",
		},
		{
			name:      "zero workers",
			mutate:    func(c *Config) { c.Download.Workers = 0 },
			wantError: "workers must be positive",
		},
		{
			name:      "too many workers",
			mutate:    func(c *Config) { c.Download.Workers = 50 },
			wantError: "workers should not exceed 10",
		},
		{
			name:      "zero timeout",
			mutate:    func(c *Config) { c.Download.Timeout = 0 },
			wantError: "download timeout must be positive",
		},
		{
			name:      "zero max attempts",
			mutate:    func(c *Config) { c.Download.MaxAttempts = 0 },
			wantError: "max attempts must be positive",
		},
		{
			name:      "negative request interval",
			mutate:    func(c *Config) { c.Download.MinRequestInterval = -time.Second },
			wantError: "min request interval cannot be negative",
		},
		{
			name:      "bad log level",
			mutate:    func(c *Config) { c.Logging.Level = "verbose" },
			wantError: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantError == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantError)
			}
			if !strings.Contains(err.Error(), tt.wantError) {
				t.Errorf("Expected error containing %q, got %v", tt.wantError, err)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	config := DefaultConfig()
	config.Account.Cookie = "sess=save-me"
	config.Download.Workers = 4

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := config.Save(path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat config file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected config file mode 0600, got %v", info.Mode().Perm())
	}

	reloaded := DefaultConfig()
	if err := reloaded.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}

	if reloaded.Account.Cookie != "sess=save-me" {
		t.Errorf("Expected cookie to survive the round trip, got %s", reloaded.Account.Cookie)
	}

	if reloaded.Download.Workers != 4 {
		t.Errorf("Expected workers to be 4, got %d", reloaded.Download.Workers)
	}
}
