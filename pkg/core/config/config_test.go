package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Service.Port != 8731 {
		t.Errorf("Port = %d, want 8731", cfg.Service.Port)
	}
	if cfg.Service.MaxQueueDepth != 8 {
		t.Errorf("MaxQueueDepth = %d, want 8", cfg.Service.MaxQueueDepth)
	}
	if !cfg.Service.InterruptOnHigherPriority {
		t.Error("InterruptOnHigherPriority should default to true")
	}
	if _, ok := cfg.Sources[DefaultSourceName]; !ok {
		t.Error("default source should always be present")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[service]
port = 9000
voices_dir = "/opt/voices"
default_voice = "de_DE-thorsten-high"
max_queue_depth = 16
interrupt_on_higher_priority = false
log_level = "debug"
log_format = "json"

[sources.editor]
voice = "en_US-amy-medium"
filters = ["^speak:", "urgent"]
priority = 1

[sources.alerts]
priority = 0

[[hotkeys]]
keys = "ctrl+shift+s"
action = "speak-selection"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Service.Port)
	}
	if cfg.Service.VoicesDir != "/opt/voices" {
		t.Errorf("VoicesDir = %q, want /opt/voices", cfg.Service.VoicesDir)
	}
	if cfg.Service.InterruptOnHigherPriority {
		t.Error("InterruptOnHigherPriority should be false")
	}

	editor, ok := cfg.Sources["editor"]
	if !ok {
		t.Fatal("editor source missing")
	}
	if editor.Voice != "en_US-amy-medium" {
		t.Errorf("editor voice = %q", editor.Voice)
	}
	if len(editor.Filters) != 2 {
		t.Errorf("editor filters = %v, want 2 entries", editor.Filters)
	}
	if editor.GetPriority() != 1 {
		t.Errorf("editor priority = %d, want 1", editor.GetPriority())
	}

	alerts := cfg.Sources["alerts"]
	if alerts.GetPriority() != 0 {
		t.Errorf("alerts priority = %d, want 0 (explicit zero must survive)", alerts.GetPriority())
	}

	if _, ok := cfg.Sources[DefaultSourceName]; !ok {
		t.Error("default source should be injected when missing")
	}

	if len(cfg.Hotkeys) != 1 || cfg.Hotkeys[0].Action != "speak-selection" {
		t.Errorf("hotkeys = %v", cfg.Hotkeys)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[service]
default_voice = "de_DE-thorsten-high"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.Port != 8731 {
		t.Errorf("Port = %d, want default 8731", cfg.Service.Port)
	}
	if cfg.Service.MaxQueueDepth != 8 {
		t.Errorf("MaxQueueDepth = %d, want default 8", cfg.Service.MaxQueueDepth)
	}
	if cfg.Service.PiperBinary != "piper" {
		t.Errorf("PiperBinary = %q, want default piper", cfg.Service.PiperBinary)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("Load() should fail for missing file")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := writeConfig(t, `[service`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load() should fail for malformed TOML")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Service.Port != 8731 {
		t.Errorf("Port = %d, want default 8731", cfg.Service.Port)
	}
}

func TestValidate(t *testing.T) {
	negative := -1

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "port too low",
			mutate:  func(c *Config) { c.Service.Port = 0 },
			wantErr: "invalid port",
		},
		{
			name:    "port too high",
			mutate:  func(c *Config) { c.Service.Port = 70000 },
			wantErr: "invalid port",
		},
		{
			name:    "queue depth zero",
			mutate:  func(c *Config) { c.Service.MaxQueueDepth = 0 },
			wantErr: "max_queue_depth",
		},
		{
			name: "negative priority",
			mutate: func(c *Config) {
				c.Sources["bad"] = SourceConfig{Priority: &negative}
			},
			wantErr: "priority must be non-negative",
		},
		{
			name: "hotkey without action",
			mutate: func(c *Config) {
				c.Hotkeys = []HotkeyConfig{{Keys: "ctrl+shift+s"}}
			},
			wantErr: "hotkey",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"100ms", 100 * time.Millisecond, false},
		{"2s", 2 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"bogus", 0, true},
	}

	for _, tt := range tests {
		var d Duration
		err := d.UnmarshalText([]byte(tt.input))
		if (err != nil) != tt.wantErr {
			t.Errorf("UnmarshalText(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && d.Duration != tt.want {
			t.Errorf("UnmarshalText(%q) = %v, want %v", tt.input, d.Duration, tt.want)
		}
	}
}

func TestDuration_MarshalText(t *testing.T) {
	d := Duration{Duration: 250 * time.Millisecond}
	got, err := d.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(got) != "250ms" {
		t.Errorf("MarshalText() = %q, want 250ms", got)
	}
}
