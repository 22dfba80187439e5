// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     synth
// Description: Piper engine driving the piper binary over stdin/stdout
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package synth

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/msto63/mSW/internal/catalog"
)

// PiperEngine opens handles backed by the piper binary
type PiperEngine struct {
	binaryPath string
	espeakData string
}

// NewPiperEngine creates a piper engine. The binary must exist; the
// espeak-ng-data directory is picked up from next to the binary when present.
func NewPiperEngine(binaryPath string) (*PiperEngine, error) {
	if binaryPath == "" {
		return nil, fmt.Errorf("piper binary path is required")
	}

	resolved := binaryPath
	if _, err := os.Stat(resolved); os.IsNotExist(err) {
		// Bare name, try the search path
		found, lookErr := exec.LookPath(binaryPath)
		if lookErr != nil {
			return nil, fmt.Errorf("piper binary not found: %s", binaryPath)
		}
		resolved = found
	}

	espeakData := filepath.Join(filepath.Dir(resolved), "espeak-ng-data")
	if _, err := os.Stat(espeakData); os.IsNotExist(err) {
		espeakData = ""
	}

	return &PiperEngine{
		binaryPath: resolved,
		espeakData: espeakData,
	}, nil
}

// Open validates the voice artifacts and returns a subprocess-backed handle
func (e *PiperEngine) Open(voice catalog.Voice) (Handle, error) {
	if _, err := os.Stat(voice.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", voice.ModelPath)
	}
	if _, err := os.Stat(voice.ConfigPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model config not found: %s", voice.ConfigPath)
	}

	return &piperHandle{
		engine: e,
		voice:  voice,
	}, nil
}

// piperHandle runs the piper binary once per Generate call
type piperHandle struct {
	engine *PiperEngine
	voice  catalog.Voice
}

// Generate synthesizes text through piper and decodes the raw s16le output
// into float32 samples
func (h *piperHandle) Generate(ctx context.Context, text string, speed float64) ([]float32, int, error) {
	args := []string{
		"--model", h.voice.ModelPath,
		"--config", h.voice.ConfigPath,
		"--output_raw",
	}

	// Piper's length_scale is the inverse of the speed factor
	if speed > 0 && speed != 1.0 {
		args = append(args, "--length_scale", fmt.Sprintf("%.3f", 1.0/speed))
	}

	if h.engine.espeakData != "" {
		args = append(args, "--espeak_data", h.engine.espeakData)
	}

	cmd := exec.CommandContext(ctx, h.engine.binaryPath, args...)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Run from the binary's directory so bundled libraries resolve
	cmd.Dir = filepath.Dir(h.engine.binaryPath)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("LD_LIBRARY_PATH=%s", filepath.Dir(h.engine.binaryPath)),
		fmt.Sprintf("DYLD_LIBRARY_PATH=%s", filepath.Dir(h.engine.binaryPath)),
	)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, fmt.Errorf("piper failed: %w, stderr: %s", err, stderr.String())
	}

	return decodePCM16(stdout.Bytes()), h.SampleRate(), nil
}

// SampleRate returns the voice's output sample rate
func (h *piperHandle) SampleRate() int {
	if h.voice.SampleRate > 0 {
		return h.voice.SampleRate
	}
	return catalog.DefaultSampleRate
}

// Close releases resources
func (h *piperHandle) Close() error {
	return nil
}

// decodePCM16 converts little-endian signed 16-bit PCM to float32 in [-1, 1).
// A trailing odd byte is dropped.
func decodePCM16(raw []byte) []float32 {
	samples := make([]float32, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float32(v) / float32(math.MaxInt16+1)
	}
	return samples
}
