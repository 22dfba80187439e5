// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     synth
// Description: Lazy per-voice handle pool with per-handle serialization
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package synth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/msto63/mSW/internal/catalog"
	"github.com/msto63/mSW/pkg/core/logging"
)

// Pool caches one synthesis handle per voice. Handles are created on first
// demand and retained for process lifetime. Calls on one handle are
// serialized; different voices may synthesize concurrently.
type Pool struct {
	mu      sync.Mutex
	entries map[string]*poolEntry
	engine  Engine
	catalog *catalog.Catalog
	logger  *logging.Logger
	closed  bool
}

// poolEntry pairs a handle with its serialization lock
type poolEntry struct {
	mu     sync.Mutex
	handle Handle
}

// NewPool creates a synthesizer pool over the given engine and catalog
func NewPool(engine Engine, cat *catalog.Catalog, logger *logging.Logger) *Pool {
	if logger == nil {
		logger = logging.New("synth")
	}
	return &Pool{
		entries: make(map[string]*poolEntry),
		engine:  engine,
		catalog: cat,
		logger:  logger,
	}
}

// Synthesize converts text to samples using the named voice. The voice id
// must name a catalog entry; callers resolve defaults beforehand.
func (p *Pool) Synthesize(ctx context.Context, text, voiceID string, speed float64) ([]float32, int, error) {
	if strings.TrimSpace(text) == "" {
		return nil, 0, ErrTextRejected
	}
	if speed <= 0 {
		speed = 1.0
	}

	voice, ok := p.catalog.Get(voiceID)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrVoiceUnavailable, voiceID)
	}

	entry, err := p.entry(voice)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	samples, rate, err := entry.handle.Generate(ctx, text, speed)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ErrCancelled
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	return samples, rate, nil
}

// entry returns the cached handle for a voice, creating it on first use
func (p *Pool) entry(voice catalog.Voice) (*poolEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("pool is shut down")
	}

	if entry, ok := p.entries[voice.ID]; ok {
		return entry, nil
	}

	p.logger.Info("Loading voice model", "voice", voice.ID)
	handle, err := p.engine.Open(voice)
	if err != nil {
		return nil, err
	}

	entry := &poolEntry{handle: handle}
	p.entries[voice.ID] = entry
	return entry, nil
}

// LoadedVoices returns the ids of voices with live handles
func (p *Pool) LoadedVoices() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]string, 0, len(p.entries))
	for id := range p.entries {
		ids = append(ids, id)
	}
	return ids
}

// Close releases all handles. Synthesize fails after Close returns.
func (p *Pool) Close() {
	p.mu.Lock()
	entries := p.entries
	p.entries = make(map[string]*poolEntry)
	p.closed = true
	p.mu.Unlock()

	for id, entry := range entries {
		entry.mu.Lock()
		if err := entry.handle.Close(); err != nil {
			p.logger.Warn("Failed to close voice handle", "voice", id, "error", err)
		}
		entry.mu.Unlock()
	}
}
