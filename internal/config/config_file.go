package config

import (
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Target       string `toml:"target"`
	Probe        string `toml:"probe"`
	Port         *int   `toml:"port"`
	ProbeTimeout string `toml:"probe_timeout"`

	Interval  string `toml:"interval"`
	Threshold *int   `toml:"threshold"`

	StateDir string `toml:"state_dir"`

	TelegramToken    string `toml:"telegram_token"`
	TelegramChatID   string `toml:"telegram_chat_id"`
	TelegramThreadID *int64 `toml:"telegram_thread_id"`
	TelegramAPI      string `toml:"telegram_api"`
	NotifyTimeout    string `toml:"notify_timeout"`

	Broker   string  `toml:"broker"`
	HTTPAddr *string `toml:"http"`
	LEDPin   *int    `toml:"led_pin"`

	LogDir   string `toml:"log_dir"`
	LogLevel string `toml:"log_level"`

	Timezone   string `toml:"timezone"`
	ClockRetry string `toml:"clock_retry"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
// Unknown keys are rejected so typos don't silently fall back to defaults.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	f, err := os.Open(path)
	if err != nil {
		return fc, err
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("target", fc.Target, &cfg.Target)
	s.setString("probe", fc.Probe, &cfg.Probe)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("telegram-token", fc.TelegramToken, &cfg.TelegramToken)
	s.setString("telegram-chat-id", fc.TelegramChatID, &cfg.TelegramChatID)
	s.setString("telegram-api", fc.TelegramAPI, &cfg.TelegramAPI)
	s.setString("broker", fc.Broker, &cfg.Broker)
	s.setOptionalString("http", fc.HTTPAddr, &cfg.HTTPAddr)
	s.setString("log-dir", fc.LogDir, &cfg.LogDir)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("timezone", fc.Timezone, &cfg.Timezone)

	s.setInt("port", fc.Port, &cfg.Port)
	s.setInt("threshold", fc.Threshold, &cfg.Threshold)
	s.setInt("led-pin", fc.LEDPin, &cfg.LEDPin)
	s.setInt64("telegram-thread-id", fc.TelegramThreadID, &cfg.TelegramThreadID)

	if err := s.setDuration("probe-timeout", fc.ProbeTimeout, &cfg.ProbeTimeout); err != nil {
		return err
	}
	if err := s.setDuration("interval", fc.Interval, &cfg.Interval); err != nil {
		return err
	}
	if err := s.setDuration("notify-timeout", fc.NotifyTimeout, &cfg.NotifyTimeout); err != nil {
		return err
	}
	if err := s.setDuration("clock-retry", fc.ClockRetry, &cfg.ClockRetry); err != nil {
		return err
	}
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
