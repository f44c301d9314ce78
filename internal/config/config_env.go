package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "POWER_SENSOR_"

// envVars maps flag names to their environment variable suffix.
var envVars = map[string]string{
	"target":             "TARGET",
	"probe":              "PROBE",
	"port":               "PORT",
	"probe-timeout":      "PROBE_TIMEOUT",
	"interval":           "INTERVAL",
	"threshold":          "THRESHOLD",
	"state-dir":          "STATE_DIR",
	"telegram-token":     "TELEGRAM_TOKEN",
	"telegram-chat-id":   "TELEGRAM_CHAT_ID",
	"telegram-thread-id": "TELEGRAM_THREAD_ID",
	"telegram-api":       "TELEGRAM_API",
	"notify-timeout":     "NOTIFY_TIMEOUT",
	"broker":             "BROKER",
	"http":               "HTTP",
	"led-pin":            "LED_PIN",
	"log-dir":            "LOG_DIR",
	"log-level":          "LOG_LEVEL",
	"timezone":           "TIMEZONE",
	"clock-retry":        "CLOCK_RETRY",
}

// EnvName returns the environment variable read for the given flag.
func EnvName(flag string) string {
	return EnvPrefix + envVars[flag]
}

// ApplyEnvConfig applies POWER_SENSOR_* environment variables to cfg.
// Explicitly set flags (changed map) take precedence.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(flag string) string { return os.Getenv(EnvName(flag)) }

	s.setString("target", env("target"), &cfg.Target)
	s.setString("probe", env("probe"), &cfg.Probe)
	s.setString("state-dir", env("state-dir"), &cfg.StateDir)
	s.setString("telegram-token", env("telegram-token"), &cfg.TelegramToken)
	s.setString("telegram-chat-id", env("telegram-chat-id"), &cfg.TelegramChatID)
	s.setString("telegram-api", env("telegram-api"), &cfg.TelegramAPI)
	s.setString("broker", env("broker"), &cfg.Broker)
	if v, ok := os.LookupEnv(EnvName("http")); ok {
		s.setOptionalString("http", &v, &cfg.HTTPAddr)
	}
	s.setString("log-dir", env("log-dir"), &cfg.LogDir)
	s.setString("log-level", env("log-level"), &cfg.LogLevel)
	s.setString("timezone", env("timezone"), &cfg.Timezone)

	for _, f := range []struct {
		flag string
		dst  *int
	}{
		{"port", &cfg.Port},
		{"threshold", &cfg.Threshold},
		{"led-pin", &cfg.LEDPin},
	} {
		v := env(f.flag)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvName(f.flag), err)
		}
		s.setInt(f.flag, &n, f.dst)
	}

	if v := env("telegram-thread-id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvName("telegram-thread-id"), err)
		}
		s.setInt64("telegram-thread-id", &n, &cfg.TelegramThreadID)
	}

	for _, f := range []struct {
		flag string
		dst  *time.Duration
	}{
		{"probe-timeout", &cfg.ProbeTimeout},
		{"interval", &cfg.Interval},
		{"notify-timeout", &cfg.NotifyTimeout},
		{"clock-retry", &cfg.ClockRetry},
	} {
		if err := s.setDuration(f.flag, env(f.flag), f.dst); err != nil {
			return err
		}
	}
	return nil
}
