package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the scraper
type Config struct {
	// Account credentials and request identity
	Account AccountConfig `yaml:"account" json:"account"`

	// Download pipeline settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// AccountConfig holds the authentication material attached to every request.
// The core never interprets these values; they are consumed by the request
// signer only.
type AccountConfig struct {
	Cookie    string `yaml:"cookie" json:"cookie"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	XBC       string `yaml:"x_bc" json:"x_bc"`
	Proxy     string `yaml:"proxy" json:"proxy"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Root               string        `yaml:"download_root" json:"download_root"`
	Workers            int           `yaml:"workers" json:"workers"`
	Timeout            time.Duration `yaml:"timeout" json:"timeout"`
	MaxAttempts        int           `yaml:"max_attempts" json:"max_attempts"`
	MinRequestInterval time.Duration `yaml:"min_request_interval" json:"min_request_interval"`
	SkipTemporary      bool          `yaml:"skip_temporary" json:"skip_temporary"`
}

// downloadConfigYAML mirrors DownloadConfig with durations as strings, so
// config files can say "30s" or "500ms".
type downloadConfigYAML struct {
	Root               string `yaml:"download_root"`
	Workers            *int   `yaml:"workers"`
	Timeout            string `yaml:"timeout"`
	MaxAttempts        *int   `yaml:"max_attempts"`
	MinRequestInterval string `yaml:"min_request_interval"`
	SkipTemporary      *bool  `yaml:"skip_temporary"`
}

// UnmarshalYAML decodes durations from Go duration strings. Absent fields
// keep the values already present, so defaults survive a partial file.
func (d *DownloadConfig) UnmarshalYAML(value *yaml.Node) error {
	var aux downloadConfigYAML
	if err := value.Decode(&aux); err != nil {
		return err
	}

	if aux.Root != "" {
		d.Root = aux.Root
	}
	if aux.Workers != nil {
		d.Workers = *aux.Workers
	}
	if aux.MaxAttempts != nil {
		d.MaxAttempts = *aux.MaxAttempts
	}
	if aux.SkipTemporary != nil {
		d.SkipTemporary = *aux.SkipTemporary
	}
	if aux.Timeout != "" {
		t, err := time.ParseDuration(aux.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		d.Timeout = t
	}
	if aux.MinRequestInterval != "" {
		t, err := time.ParseDuration(aux.MinRequestInterval)
		if err != nil {
			return fmt.Errorf("invalid min request interval: %w", err)
		}
		d.MinRequestInterval = t
	}
	return nil
}

// MarshalYAML renders durations as strings so a saved file stays readable
// and round-trips through UnmarshalYAML.
func (d DownloadConfig) MarshalYAML() (interface{}, error) {
	workers := d.Workers
	maxAttempts := d.MaxAttempts
	skip := d.SkipTemporary
	return downloadConfigYAML{
		Root:               d.Root,
		Workers:            &workers,
		Timeout:            d.Timeout.String(),
		MaxAttempts:        &maxAttempts,
		MinRequestInterval: d.MinRequestInterval.String(),
		SkipTemporary:      &skip,
	}, nil
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Download: DownloadConfig{
			Root:               "downloads",
			Workers:            3,
			Timeout:            30 * time.Second,
			MaxAttempts:        3,
			MinRequestInterval: 500 * time.Millisecond,
			SkipTemporary:      false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("OFSCRAPER_COOKIE"); v != "" {
		c.Account.Cookie = v
	}
	if v := os.Getenv("OFSCRAPER_USER_AGENT"); v != "" {
		c.Account.UserAgent = v
	}
	if v := os.Getenv("OFSCRAPER_X_BC"); v != "" {
		c.Account.XBC = v
	}
	if v := os.Getenv("OFSCRAPER_PROXY"); v != "" {
		c.Account.Proxy = v
	}
	if v := os.Getenv("OFSCRAPER_DOWNLOAD_ROOT"); v != "" {
		c.Download.Root = v
	}
	if v := os.Getenv("OFSCRAPER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Download.Workers = n
		}
	}
	if v := os.Getenv("OFSCRAPER_SKIP_TEMPORARY"); v != "" {
		c.Download.SkipTemporary = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("OFSCRAPER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".ofscraper.yaml",
		".ofscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "ofscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "ofscraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".ofscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Download.Root == "" {
		errs = append(errs, errors.New("download root is required"))
	}
	if c.Download.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	if c.Download.Workers > 10 {
		errs = append(errs, errors.New("workers should not exceed 10"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.MaxAttempts <= 0 {
		errs = append(errs, errors.New("max attempts must be positive"))
	}
	if c.Download.MinRequestInterval < 0 {
		errs = append(errs, errors.New("min request interval cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Credentials live in this file, keep it private.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Environment variables > .env file > Config file > Defaults
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".ofscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config.LoadFromEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
