package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the hashtag scraper
type Config struct {
	// Instagram endpoint and identity settings
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Pre-request pacing configuration
	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	// Retry and backoff configuration
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Per-run request budget
	Budget BudgetConfig `yaml:"budget" json:"budget"`

	// Session persistence
	Session SessionConfig `yaml:"session" json:"session"`

	// Warm-up browsing before scraping
	Warmup WarmupConfig `yaml:"warmup" json:"warmup"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds Instagram-specific configuration
type InstagramConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	ProxyURL       string        `yaml:"proxy_url" json:"proxy_url"`
}

// PacingConfig holds the randomized pre-request delay interval
type PacingConfig struct {
	MinDelay time.Duration `yaml:"min_delay" json:"min_delay"`
	MaxDelay time.Duration `yaml:"max_delay" json:"max_delay"`
}

// RetryConfig holds retry and backoff configuration
type RetryConfig struct {
	MaxAttempts       int           `yaml:"max_attempts" json:"max_attempts"`
	BackoffBase       time.Duration `yaml:"backoff_base" json:"backoff_base"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier"`
	BackoffCap        time.Duration `yaml:"backoff_cap" json:"backoff_cap"`
	JitterFactor      float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// BudgetConfig holds the per-run request budget
type BudgetConfig struct {
	MaxPostsPerHashtag     int `yaml:"max_posts_per_hashtag" json:"max_posts_per_hashtag"`
	RequestsPerMinute      int `yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxConsecutiveFailures int `yaml:"max_consecutive_failures" json:"max_consecutive_failures"`
	MaxEmptyPages          int `yaml:"max_empty_pages" json:"max_empty_pages"`
}

// SessionConfig holds session persistence configuration
type SessionConfig struct {
	File string `yaml:"file" json:"file"`
}

// WarmupConfig controls the pre-scrape warm-up browsing behavior
type WarmupConfig struct {
	Enabled  bool          `yaml:"enabled" json:"enabled"`
	Duration time.Duration `yaml:"duration" json:"duration"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	Directory   string `yaml:"directory" json:"directory"`
	PrettyPrint bool   `yaml:"pretty_print" json:"pretty_print"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			BaseURL:        "https://www.instagram.com",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
			RequestTimeout: 30 * time.Second,
		},
		Pacing: PacingConfig{
			MinDelay: 1 * time.Second,
			MaxDelay: 3 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:       3,
			BackoffBase:       5 * time.Second,
			BackoffMultiplier: 2.0,
			BackoffCap:        5 * time.Minute,
			JitterFactor:      0.1,
		},
		Budget: BudgetConfig{
			MaxPostsPerHashtag:     100,
			RequestsPerMinute:      30,
			MaxConsecutiveFailures: 5,
			MaxEmptyPages:          3,
		},
		Session: SessionConfig{
			File: defaultSessionFile(),
		},
		Warmup: WarmupConfig{
			Enabled:  true,
			Duration: 60 * time.Second,
		},
		Output: OutputConfig{
			Directory:   "output",
			PrettyPrint: false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// defaultSessionFile returns the default location of the durable session record
func defaultSessionFile() string {
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return filepath.Join(xdgDataHome, "tagscraper", "session.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(home, ".local", "share", "tagscraper", "session.json")
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if userAgent := os.Getenv("TAGSCRAPER_USER_AGENT"); userAgent != "" {
		c.Instagram.UserAgent = userAgent
	}
	if proxy := os.Getenv("TAGSCRAPER_PROXY_URL"); proxy != "" {
		c.Instagram.ProxyURL = proxy
	}

	if minDelay := os.Getenv("TAGSCRAPER_MIN_DELAY"); minDelay != "" {
		if d, err := time.ParseDuration(minDelay); err == nil && d >= 0 {
			c.Pacing.MinDelay = d
		}
	}
	if maxDelay := os.Getenv("TAGSCRAPER_MAX_DELAY"); maxDelay != "" {
		if d, err := time.ParseDuration(maxDelay); err == nil && d >= 0 {
			c.Pacing.MaxDelay = d
		}
	}

	if maxPosts := os.Getenv("TAGSCRAPER_MAX_POSTS_PER_HASHTAG"); maxPosts != "" {
		var val int
		fmt.Sscanf(maxPosts, "%d", &val)
		if val > 0 {
			c.Budget.MaxPostsPerHashtag = val
		}
	}
	if rpm := os.Getenv("TAGSCRAPER_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.Budget.RequestsPerMinute = val
		}
	}
	if maxRetries := os.Getenv("TAGSCRAPER_MAX_RETRIES"); maxRetries != "" {
		var val int
		fmt.Sscanf(maxRetries, "%d", &val)
		if val > 0 {
			c.Retry.MaxAttempts = val
		}
	}

	if sessionFile := os.Getenv("TAGSCRAPER_SESSION_FILE"); sessionFile != "" {
		c.Session.File = sessionFile
	}

	if outputDir := os.Getenv("TAGSCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}

	if logLevel := os.Getenv("TAGSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
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
	// Check in order of precedence
	locations := []string{
		".tagscraper.yaml",
		".tagscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "tagscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "tagscraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".tagscraper.yaml"),
		filepath.Join(os.Getenv("HOME"), ".tagscraper.yml"),
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

	if c.Instagram.BaseURL == "" {
		errs = append(errs, errors.New("Instagram base URL is required"))
	}
	if c.Instagram.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Pacing.MinDelay < 0 {
		errs = append(errs, errors.New("min delay cannot be negative"))
	}
	if c.Pacing.MaxDelay < c.Pacing.MinDelay {
		errs = append(errs, errors.New("max delay must not be less than min delay"))
	}

	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("max attempts must be positive"))
	}
	if c.Retry.BackoffBase <= 0 {
		errs = append(errs, errors.New("backoff base must be positive"))
	}
	if c.Retry.BackoffMultiplier < 1.0 {
		errs = append(errs, errors.New("backoff multiplier must be at least 1"))
	}
	if c.Retry.BackoffCap < c.Retry.BackoffBase {
		errs = append(errs, errors.New("backoff cap must not be less than backoff base"))
	}
	if c.Retry.JitterFactor < 0 || c.Retry.JitterFactor > 1 {
		errs = append(errs, errors.New("jitter factor must be between 0 and 1"))
	}

	if c.Budget.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.Budget.MaxConsecutiveFailures <= 0 {
		errs = append(errs, errors.New("max consecutive failures must be positive"))
	}
	if c.Budget.MaxEmptyPages <= 0 {
		errs = append(errs, errors.New("max empty pages must be positive"))
	}

	if c.Session.File == "" {
		errs = append(errs, errors.New("session file path is required"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
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

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if maxPosts, ok := flags["max-posts"].(int); ok && maxPosts > 0 {
		c.Budget.MaxPostsPerHashtag = maxPosts
	}
	if rpm, ok := flags["rate-limit"].(int); ok && rpm > 0 {
		c.Budget.RequestsPerMinute = rpm
	}
	if maxRetries, ok := flags["max-retries"].(int); ok && maxRetries > 0 {
		c.Retry.MaxAttempts = maxRetries
	}
	if noWarmup, ok := flags["no-warmup"].(bool); ok && noWarmup {
		c.Warmup.Enabled = false
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tagscraper.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
