// Package config holds the daemon configuration. Values come from defaults,
// then a TOML file, then POWER_SENSOR_* environment variables, then flags;
// later sources win.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sweeney/power-sensor/internal/logic"
)

// Probe kinds.
const (
	ProbeTCP  = "tcp"
	ProbeHTTP = "http"
)

// DefaultConfigPath is where the daemon looks for its config file.
const DefaultConfigPath = "/etc/power-sensor/config.toml"

// Config holds runtime configuration for power-sensor.
type Config struct {
	// Target is the host (or URL for the http probe) of the device on the line.
	Target       string
	Probe        string
	Port         int
	ProbeTimeout time.Duration

	Interval  time.Duration
	Threshold int

	StateDir string

	TelegramToken    string
	TelegramChatID   string
	TelegramThreadID int64
	TelegramAPI      string
	NotifyTimeout    time.Duration

	Broker   string
	HTTPAddr string
	LEDPin   int

	LogDir   string
	LogLevel string

	Timezone   string
	ClockRetry time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Probe:         ProbeTCP,
		Port:          80,
		ProbeTimeout:  2 * time.Second,
		Interval:      3 * time.Second,
		Threshold:     logic.DefaultThreshold,
		StateDir:      "/var/lib/power-sensor",
		NotifyTimeout: 10 * time.Second,
		HTTPAddr:      ":80",
		LEDPin:        -1,
		LogLevel:      "info",
		Timezone:      "Local",
		ClockRetry:    5 * time.Second,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("target is required")
	}

	c.Probe = strings.ToLower(c.Probe)
	switch c.Probe {
	case ProbeTCP:
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("port must be in 1..65535, got %d", c.Port)
		}
	case ProbeHTTP:
		u, err := url.Parse(c.Target)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("http probe target must be an http(s) URL, got %q", c.Target)
		}
	default:
		return fmt.Errorf("unknown probe %q (want %s or %s)", c.Probe, ProbeTCP, ProbeHTTP)
	}

	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if c.Threshold < 1 {
		return fmt.Errorf("threshold must be at least 1, got %d", c.Threshold)
	}
	if c.StateDir == "" {
		return fmt.Errorf("state-dir is required")
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("notify timeout must be positive")
	}
	if c.ClockRetry <= 0 {
		return fmt.Errorf("clock retry must be positive")
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == "") {
		return fmt.Errorf("telegram-token and telegram-chat-id must be set together")
	}
	return nil
}

// NotifyEnabled reports whether a notification destination is configured.
func (c Config) NotifyEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.TelegramToken != "" {
		c.TelegramToken = "*****"
	}
	return c
}

// configSetter applies values while respecting flag precedence.
// It only applies a value if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setOptionalString applies value when present, even if empty.
func (s *configSetter) setOptionalString(flag string, value *string, dst *string) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setInt sets an int from a pointer so that explicit zero or negative values
// (LED pin -1) can be expressed.
func (s *configSetter) setInt(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *configSetter) setInt64(flag string, value *int64, dst *int64) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}
