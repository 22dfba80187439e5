// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     synth
// Description: Synthesis engine contracts and error taxonomy
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package synth

import (
	"context"
	"errors"

	"github.com/msto63/mSW/internal/catalog"
)

var (
	// ErrVoiceUnavailable indicates the requested voice is not in the catalog
	ErrVoiceUnavailable = errors.New("voice unavailable")

	// ErrTextRejected indicates the text was empty or whitespace-only
	ErrTextRejected = errors.New("text rejected")

	// ErrSynthesisFailed indicates an engine-level synthesis error
	ErrSynthesisFailed = errors.New("synthesis failed")

	// ErrCancelled indicates the caller's cancellation signal fired
	ErrCancelled = errors.New("synthesis cancelled")
)

// Engine loads voices into synthesis handles. Handle creation is expensive
// (model load) and may take seconds.
type Engine interface {
	Open(voice catalog.Voice) (Handle, error)
}

// Handle synthesizes speech for one loaded voice. A handle is not safe for
// concurrent use; the pool serializes calls per handle.
type Handle interface {
	// Generate synthesizes the text at the given speed factor and returns
	// mono float32 samples together with their sample rate.
	Generate(ctx context.Context, text string, speed float64) ([]float32, int, error)
	Close() error
}
