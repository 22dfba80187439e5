// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     logging
// Description: Tests for the structured logger
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	logger := New("test")

	if logger == nil {
		t.Fatal("New() should not return nil")
	}
	if logger.GetLevel() != LevelInfo {
		t.Errorf("New() level = %v, want %v", logger.GetLevel(), LevelInfo)
	}
}

func TestNewWithConfig(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithConfig(Config{
		Level:  LevelError,
		Format: FormatText,
		Output: &buf,
		Name:   "test-logger",
	})

	if logger.GetLevel() != LevelError {
		t.Errorf("NewWithConfig() level = %v, want %v", logger.GetLevel(), LevelError)
	}
	if logger.name != "test-logger" {
		t.Errorf("NewWithConfig() name = %v, want test-logger", logger.name)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithConfig(Config{Level: LevelWarn, Output: &buf, Name: "filter"})

	logger.Debug("debug message")
	logger.Info("info message")
	if buf.Len() != 0 {
		t.Errorf("messages below level should be suppressed, got %q", buf.String())
	}

	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if !strings.Contains(out, "warn message") {
		t.Error("warn message should be logged")
	}
	if !strings.Contains(out, "error message") {
		t.Error("error message should be logged")
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithConfig(Config{Level: LevelInfo, Format: FormatText, Output: &buf, Name: "queue"})

	logger.Info("item enqueued", "priority", 3, "id", "abc")

	out := buf.String()
	if !strings.Contains(out, "[INF]") {
		t.Errorf("text output should contain level tag, got %q", out)
	}
	if !strings.Contains(out, "queue:") {
		t.Errorf("text output should contain logger name, got %q", out)
	}
	if !strings.Contains(out, "id=abc") || !strings.Contains(out, "priority=3") {
		t.Errorf("text output should contain fields, got %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithConfig(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf, Name: "catalog"})

	logger.Info("scan complete", "voices", 4, "error", errors.New("boom"))

	var data map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("output should be valid JSON: %v (%q)", err, buf.String())
	}
	if data["message"] != "scan complete" {
		t.Errorf("message = %v, want scan complete", data["message"])
	}
	if data["logger"] != "catalog" {
		t.Errorf("logger = %v, want catalog", data["logger"])
	}
	if data["voices"] != float64(4) {
		t.Errorf("voices = %v, want 4", data["voices"])
	}
	if data["error"] != "boom" {
		t.Errorf("error field should be stringified, got %v", data["error"])
	}
}

func TestNamed(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithConfig(Config{Level: LevelDebug, Output: &buf, Name: "parent"})

	child := logger.Named("child")
	child.Debug("hello")

	if !strings.Contains(buf.String(), "child:") {
		t.Errorf("named logger should log under its own name, got %q", buf.String())
	}
	if child.GetLevel() != LevelDebug {
		t.Error("named logger should inherit level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"  ERROR  ", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestToFieldsSkipsMalformedPairs(t *testing.T) {
	fields := toFields("a", 1, 42, "not-a-key", "b", 2, "dangling")

	if len(fields) != 2 {
		t.Fatalf("toFields should keep 2 pairs, got %d: %v", len(fields), fields)
	}
	if fields["a"] != 1 || fields["b"] != 2 {
		t.Errorf("unexpected fields: %v", fields)
	}
}
