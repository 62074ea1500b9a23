package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix shared by all environment overrides, e.g. CHATBACKUP_GRAPH_TOKEN
const EnvPrefix = "chatbackup"

// Config holds all configuration options for the chat backup tool
type Config struct {
	// Graph API access
	Graph GraphConfig `yaml:"graph" json:"graph"`

	// Request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit" split_words:"true"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Transcript rendering
	Render RenderConfig `yaml:"render" json:"render"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// GraphConfig holds Graph API configuration
type GraphConfig struct {
	BaseURL   string        `yaml:"base_url" json:"base_url" split_words:"true"`
	Token     string        `yaml:"token" json:"token"`
	UserAgent string        `yaml:"user_agent" json:"user_agent" split_words:"true"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig holds request pacing configuration. A zero
// RequestsPerMinute disables pacing.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute" split_words:"true"`
	BurstSize         int `yaml:"burst_size" json:"burst_size" split_words:"true"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory" split_words:"true"`
	Stylesheet    string `yaml:"stylesheet" json:"stylesheet"`
}

// RenderConfig holds transcript rendering options
type RenderConfig struct {
	Title        string `yaml:"title" json:"title"`
	SanitizeHTML bool   `yaml:"sanitize_html" json:"sanitize_html" split_words:"true"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Graph: GraphConfig{
			BaseURL:   "https://graph.microsoft.com/beta",
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_13_6) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/77.0.3865.120 Safari/537.36",
			Timeout:   60 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 120,
			BurstSize:         10,
		},
		Output: OutputConfig{
			BaseDirectory: "out",
			Stylesheet:    "../../messages.css",
		},
		Render: RenderConfig{
			Title:        "Chat backup",
			SanitizeHTML: false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv overrides configuration with CHATBACKUP_* environment variables.
// Variables that are not set leave the current value untouched.
func (c *Config) LoadFromEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
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
	home := os.Getenv("HOME")
	locations := []string{
		".chatbackup.yaml",
		".chatbackup.yml",
		filepath.Join(home, ".config", "chatbackup", "config.yaml"),
		filepath.Join(home, ".config", "chatbackup", "config.yml"),
		filepath.Join(home, ".chatbackup.yaml"),
		filepath.Join(home, ".chatbackup.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. The bearer token is not
// checked here since it may still come from a prompt or the credential store.
func (c *Config) Validate() error {
	var errs []error

	if c.Graph.BaseURL == "" {
		errs = append(errs, errors.New("graph base URL is required"))
	} else if u, err := url.Parse(c.Graph.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("graph base URL %q is not an absolute URL", c.Graph.BaseURL))
	}
	if c.Graph.Timeout < 0 {
		errs = append(errs, errors.New("graph timeout cannot be negative"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.RateLimit.RequestsPerMinute > 0 && c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive when rate limiting is enabled"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
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

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if token, ok := flags["token"].(string); ok && token != "" {
		c.Graph.Token = token
	}
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Graph.BaseURL = baseURL
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if rpm, ok := flags["rate-limit"].(int); ok && rpm >= 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if sanitize, ok := flags["sanitize"].(bool); ok {
		c.Render.SanitizeHTML = sanitize
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := flags["log-file"].(string); ok && logFile != "" {
		c.Logging.File = logFile
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".chatbackup.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
