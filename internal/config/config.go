package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultDeliveryTimeout = 10
	defaultFetchTimeout    = 15
)

// Config represents the application configuration
type Config struct {
	MinReviewersApproved uint `toml:"min_reviewers_approved" yaml:"min_reviewers_approved" env:"PRN_MIN_REVIEWERS_APPROVED"`
	PRMaxAge             uint `toml:"pr_max_age" yaml:"pr_max_age" env:"PRN_PR_MAX_AGE"`
	NotificationTimeout  uint `toml:"notification_timeout" yaml:"notification_timeout" env:"PRN_NOTIFICATION_TIMEOUT"`
	SleepInterval        uint `toml:"sleep_interval" yaml:"sleep_interval" env:"PRN_SLEEP_INTERVAL" validate:"gt=0"`
	DeliveryTimeout      uint `toml:"delivery_timeout" yaml:"delivery_timeout" env:"PRN_DELIVERY_TIMEOUT"`
	FailOnFetchError     bool `toml:"fail_on_fetch_error" yaml:"fail_on_fetch_error" env:"PRN_FAIL_ON_FETCH_ERROR"`

	Bitbucket Bitbucket `toml:"bitbucket" yaml:"bitbucket"`
	Slack     Slack     `toml:"slack" yaml:"slack"`
	Log       Log       `toml:"log" yaml:"log"`
}

// Bitbucket holds the review server connection
type Bitbucket struct {
	URI            string `toml:"uri" yaml:"uri" env:"PRN_BITBUCKET_URI" validate:"required,url"`
	Username       string `toml:"username" yaml:"username" env:"PRN_BITBUCKET_USERNAME"`
	Password       string `toml:"password" yaml:"password" env:"PRN_BITBUCKET_PASSWORD"`
	TimeoutSeconds uint   `toml:"timeout_seconds" yaml:"timeout_seconds" env:"PRN_BITBUCKET_TIMEOUT"`
}

// Slack holds the chat webhook connection
type Slack struct {
	URI      string `toml:"uri" yaml:"uri" env:"PRN_SLACK_URI"`
	Username string `toml:"username" yaml:"username" env:"PRN_SLACK_USERNAME"`
	Channel  string `toml:"channel" yaml:"channel" env:"PRN_SLACK_CHANNEL"`
}

// Log configures the slog handlers
type Log struct {
	File       string `toml:"file" yaml:"file" env:"PRN_LOG_FILE"`
	Level      string `toml:"level" yaml:"level" env:"PRN_LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `toml:"compress" yaml:"compress"`
	Stdout     bool   `toml:"stdout" yaml:"stdout"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads, overrides from the environment and validates the configuration file.
// Files ending in .yaml or .yml are parsed as YAML, anything else as TOML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse YAML config %q: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse TOML config %q: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("env.Parse: %w", err)
	}

	cfg.normalize()

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return &cfg, nil
}

// ValidateSlack checks the webhook settings needed when notifying through Slack
func (c *Config) ValidateSlack() error {
	if err := validate.Var(c.Slack.URI, "required,url"); err != nil {
		return fmt.Errorf("slack.uri: %w", err)
	}
	if err := validate.Var(c.Slack.Channel, "required"); err != nil {
		return fmt.Errorf("slack.channel: %w", err)
	}
	return nil
}

// MaxAge is the age after which a pull request is reported as too old
func (c *Config) MaxAge() time.Duration {
	return time.Duration(c.PRMaxAge) * 24 * time.Hour
}

// ThrottleInterval is the minimum time between two notifications for the same pull request
func (c *Config) ThrottleInterval() time.Duration {
	return time.Duration(c.NotificationTimeout) * time.Second
}

// PollInterval is the sleep between two cycles
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.SleepInterval) * time.Second
}

func (c *Config) DeliveryTimeoutDuration() time.Duration {
	return time.Duration(c.DeliveryTimeout) * time.Second
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Bitbucket.TimeoutSeconds) * time.Second
}

func (c *Config) normalize() {
	// Trim spaces from Bitbucket credentials
	originalUser := c.Bitbucket.Username
	originalPass := c.Bitbucket.Password
	c.Bitbucket.Username = strings.TrimSpace(c.Bitbucket.Username)
	c.Bitbucket.Password = strings.TrimSpace(c.Bitbucket.Password)
	if c.Bitbucket.Username != originalUser {
		slog.Debug("Trimmed spaces from Bitbucket username in config.")
	}
	if c.Bitbucket.Password != originalPass {
		slog.Debug("Trimmed spaces from Bitbucket password in config.")
	}

	if c.DeliveryTimeout == 0 {
		c.DeliveryTimeout = defaultDeliveryTimeout
	}
	if c.Bitbucket.TimeoutSeconds == 0 {
		c.Bitbucket.TimeoutSeconds = defaultFetchTimeout
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
}
