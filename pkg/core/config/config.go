package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the complete application configuration
type Config struct {
	Service ServiceConfig           `toml:"service"`
	Sources map[string]SourceConfig `toml:"sources"`
	Hotkeys []HotkeyConfig          `toml:"hotkeys"`
}

// ServiceConfig holds general service settings
type ServiceConfig struct {
	Port                      int    `toml:"port"`
	VoicesDir                 string `toml:"voices_dir"`
	DefaultVoice              string `toml:"default_voice"`
	MaxQueueDepth             int    `toml:"max_queue_depth"`
	InterruptOnHigherPriority bool   `toml:"interrupt_on_higher_priority"`
	SourcesDir                string `toml:"sources_dir"`
	HistoryPath               string `toml:"history_path"`
	PiperBinary               string `toml:"piper_binary"`
	LogLevel                  string `toml:"log_level"`
	LogFormat                 string `toml:"log_format"`
}

// SourceConfig holds the settings of a single speech source.
// A nil Filters slice admits everything; Priority nil means the
// default priority of 3.
type SourceConfig struct {
	Voice    string   `toml:"voice"`
	Filters  []string `toml:"filters"`
	Priority *int     `toml:"priority"`
}

// HotkeyConfig binds a global key combination to an action
type HotkeyConfig struct {
	Keys   string `toml:"keys"`
	Action string `toml:"action"`
}

// DefaultPriority is assigned to sources that do not set one
const DefaultPriority = 3

// DefaultSourceName is the fallback source every configuration carries
const DefaultSourceName = "default"

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Port:                      8731,
			VoicesDir:                 "voices",
			MaxQueueDepth:             8,
			InterruptOnHigherPriority: true,
			PiperBinary:               "piper",
			LogLevel:                  "info",
			LogFormat:                 "text",
		},
		Sources: map[string]SourceConfig{
			DefaultSourceName: {},
		},
	}
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault loads the configuration from path, falling back to the
// defaults when the file does not exist
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(os.ExpandEnv(path)); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// GetPriority returns the source's priority, applying the default
func (s SourceConfig) GetPriority() int {
	if s.Priority == nil {
		return DefaultPriority
	}
	return *s.Priority
}

// applyDefaults fills in zero values with sensible defaults
func (c *Config) applyDefaults() {
	if c.Service.Port == 0 {
		c.Service.Port = 8731
	}
	if c.Service.VoicesDir == "" {
		c.Service.VoicesDir = "voices"
	}
	if c.Service.MaxQueueDepth == 0 {
		c.Service.MaxQueueDepth = 8
	}
	if c.Service.PiperBinary == "" {
		c.Service.PiperBinary = "piper"
	}
	if c.Service.LogLevel == "" {
		c.Service.LogLevel = "info"
	}
	if c.Service.LogFormat == "" {
		c.Service.LogFormat = "text"
	}
	if c.Sources == nil {
		c.Sources = make(map[string]SourceConfig)
	}
	if _, ok := c.Sources[DefaultSourceName]; !ok {
		c.Sources[DefaultSourceName] = SourceConfig{}
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}
	if c.Service.MaxQueueDepth < 1 {
		return fmt.Errorf("max_queue_depth must be at least 1, got %d", c.Service.MaxQueueDepth)
	}
	for name, src := range c.Sources {
		if src.Priority != nil && *src.Priority < 0 {
			return fmt.Errorf("source %q: priority must be non-negative, got %d", name, *src.Priority)
		}
	}
	for _, hk := range c.Hotkeys {
		if hk.Keys == "" || hk.Action == "" {
			return fmt.Errorf("hotkey entries require both keys and action")
		}
	}
	return nil
}
