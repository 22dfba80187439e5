// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     catalog
// Description: Voice model representation and config parsing
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultSampleRate is assumed when a voice config does not declare one
const DefaultSampleRate = 22050

// Voice describes a single installed voice model. A voice is well-formed
// only when both the model file and its config file exist on disk and the
// config parses as JSON.
type Voice struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	ModelPath   string `json:"model_path"`
	ConfigPath  string `json:"config_path"`
	SampleRate  int    `json:"sample_rate"`
}

// voiceConfig mirrors the parts of the piper voice config we care about
type voiceConfig struct {
	Audio struct {
		SampleRate int `json:"sample_rate"`
	} `json:"audio"`
}

// parseSampleRate reads the voice config file and extracts audio.sample_rate,
// falling back to DefaultSampleRate when absent or non-positive
func parseSampleRate(configPath string) (int, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read voice config: %w", err)
	}

	var cfg voiceConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return 0, fmt.Errorf("failed to parse voice config: %w", err)
	}

	if cfg.Audio.SampleRate <= 0 {
		return DefaultSampleRate, nil
	}
	return cfg.Audio.SampleRate, nil
}
