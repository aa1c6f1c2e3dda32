// Package config loads and validates the static monitor configuration.
// The file is read once at startup; the resulting Config is immutable for
// the process lifetime.
package config

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	alerting "room-monitor/internal/alerting/domain"
)

const (
	defaultHTTPAddr      = ":8080"
	defaultSensorTimeout = 2 * time.Second
	defaultSendTimeout   = 10 * time.Second
)

// Config is the resolved, validated monitor configuration.
type Config struct {
	Room          string
	Sender        string
	Receivers     []string
	TempRange     alerting.Range
	HumidityRange alerting.Range
	Interval      time.Duration
	LogRoot       string

	HTTPAddr   string
	I2CBus     string
	WebhookURL string

	// Environment-provided credentials and hardening knobs.
	SendGridAPIKey string
	DatabaseURL    string
	SensorTimeout  time.Duration
	SendTimeout    time.Duration
	Cooldown       time.Duration
}

type fileConfig struct {
	RootDir       string    `yaml:"root_dir"`
	Room          string    `yaml:"room"`
	Sender        string    `yaml:"sender"`
	Receivers     []string  `yaml:"receivers"`
	TempRange     []float64 `yaml:"temp_range"`
	HumidityRange []float64 `yaml:"humidity_range"`
	Interval      int       `yaml:"interval"`
	HTTPAddr      string    `yaml:"http_addr"`
	I2CBus        string    `yaml:"i2c_bus"`
	WebhookURL    string    `yaml:"webhook_url"`
}

// Load reads the YAML config file at path, applies environment overrides,
// and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg := Config{
		Room:           fc.Room,
		Sender:         fc.Sender,
		Receivers:      fc.Receivers,
		Interval:       time.Duration(fc.Interval) * time.Second,
		LogRoot:        fc.RootDir,
		HTTPAddr:       firstNonEmpty(os.Getenv("HTTP_ADDR"), fc.HTTPAddr, defaultHTTPAddr),
		I2CBus:         firstNonEmpty(os.Getenv("I2C_BUS"), fc.I2CBus),
		WebhookURL:     firstNonEmpty(os.Getenv("ALERT_WEBHOOK_URL"), fc.WebhookURL),
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SensorTimeout:  getenvDuration("SENSOR_READ_TIMEOUT", defaultSensorTimeout),
		SendTimeout:    getenvDuration("ALERT_SEND_TIMEOUT", defaultSendTimeout),
		Cooldown:       getenvDuration("ALERT_RENOTIFY_COOLDOWN", 0),
	}

	if cfg.TempRange, err = parseRange("temp_range", fc.TempRange); err != nil {
		return Config{}, err
	}
	if cfg.HumidityRange, err = parseRange("humidity_range", fc.HumidityRange); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the startup invariants. Any error here is fatal: the
// monitor loop never starts on an invalid configuration.
func (c Config) Validate() error {
	if c.Room == "" {
		return errors.New("config: room is required")
	}
	if c.LogRoot == "" {
		return errors.New("config: root_dir is required")
	}
	if c.Interval <= 0 {
		return errors.New("config: interval must be a positive number of seconds")
	}
	if _, err := mail.ParseAddress(c.Sender); err != nil {
		return fmt.Errorf("config: sender %q is not a valid address: %w", c.Sender, err)
	}
	if len(c.Receivers) == 0 {
		return errors.New("config: at least one receiver is required")
	}
	for _, receiver := range c.Receivers {
		if _, err := mail.ParseAddress(receiver); err != nil {
			return fmt.Errorf("config: receiver %q is not a valid address: %w", receiver, err)
		}
	}
	if err := c.TempRange.Validate(); err != nil {
		return fmt.Errorf("config: temp_range: %w", err)
	}
	if err := c.HumidityRange.Validate(); err != nil {
		return fmt.Errorf("config: humidity_range: %w", err)
	}
	if c.SendGridAPIKey == "" && c.WebhookURL == "" {
		return errors.New("config: SENDGRID_API_KEY or webhook_url is required for alert delivery")
	}
	return nil
}

func parseRange(name string, bounds []float64) (alerting.Range, error) {
	if len(bounds) != 2 {
		return alerting.Range{}, fmt.Errorf("config: %s must be a [min, max] pair, got %d values", name, len(bounds))
	}
	r := alerting.Range{Min: bounds[0], Max: bounds[1]}
	if err := r.Validate(); err != nil {
		return alerting.Range{}, fmt.Errorf("config: %s: %w", name, err)
	}
	return r, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
