// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     audio
// Description: Cancellable audio playback using PortAudio
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/msto63/mSW/pkg/core/logging"
)

// Sink writes float32 samples to the default output device. Cancellation
// is observed between buffers, bounding preemption latency to one buffer
// duration.
type Sink struct {
	mu          sync.Mutex
	channels    int
	bufferSize  int
	initialized bool
	logger      *logging.Logger
}

// SinkConfig holds playback settings
type SinkConfig struct {
	Channels   int
	BufferSize int
}

// DefaultSinkConfig returns mono playback with a 1024-frame buffer
func DefaultSinkConfig() SinkConfig {
	return SinkConfig{
		Channels:   1,
		BufferSize: 1024,
	}
}

// NewSink creates the playback sink and initializes PortAudio once
func NewSink(cfg SinkConfig, logger *logging.Logger) (*Sink, error) {
	if cfg.Channels < 1 {
		cfg.Channels = 1
	}
	if cfg.BufferSize < 64 {
		cfg.BufferSize = 1024
	}
	if logger == nil {
		logger = logging.New("audio")
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	return &Sink{
		channels:    cfg.Channels,
		bufferSize:  cfg.BufferSize,
		initialized: true,
		logger:      logger,
	}, nil
}

// Play blocks until the samples have been written out or the context is
// cancelled. Only one playback runs at a time; the queue worker is the
// single caller.
func (s *Sink) Play(ctx context.Context, samples []float32, sampleRate int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return fmt.Errorf("audio sink is closed")
	}
	if len(samples) == 0 {
		return nil
	}
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	buffer := make([]float32, s.bufferSize)
	stream, err := portaudio.OpenDefaultStream(0, s.channels, float64(sampleRate), s.bufferSize, &buffer)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	defer stream.Stop()

	for position := 0; position < len(samples); position += s.bufferSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for i := 0; i < s.bufferSize; i++ {
			if position+i < len(samples) {
				buffer[i] = samples[position+i]
			} else {
				buffer[i] = 0
			}
		}

		if err := stream.Write(); err != nil {
			return fmt.Errorf("failed to write to stream: %w", err)
		}
	}

	return nil
}

// Close terminates PortAudio. Play fails afterwards.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		s.initialized = false
		if err := portaudio.Terminate(); err != nil {
			s.logger.Warn("Failed to terminate PortAudio", "error", err)
		}
	}
}
