// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     selection
// Description: Best-effort, clipboard-preserving selection capture
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package selection

import (
	"strings"
	"time"

	"github.com/msto63/mSW/pkg/core/logging"
)

const (
	// defaultPollInterval is the spacing between clipboard polls
	defaultPollInterval = 25 * time.Millisecond

	// defaultDeadline bounds the whole wait for the copy to land.
	// Synchronous writers land well under 100ms; lazy renderers push
	// toward 200ms, so 300ms covers both without noticeable latency.
	defaultDeadline = 300 * time.Millisecond
)

// Clipboard abstracts the system clipboard. All calls are marshalled onto
// the UI context by the capturer.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
	Clear() error
}

// KeyInjector emits the platform's copy keystroke sequence
type KeyInjector interface {
	InjectCopy() error
}

// UIContext marshals work onto the single UI thread that owns clipboard
// access. Do blocks until fn has run.
type UIContext interface {
	Do(fn func())
}

// Capturer reads the current OS selection by snapshotting the clipboard,
// injecting a copy keystroke, polling for the result and restoring the
// snapshot. Every step is best-effort: individual failures are logged at
// WARN and the remaining steps still run.
type Capturer struct {
	clipboard    Clipboard
	injector     KeyInjector
	ui           UIContext
	logger       *logging.Logger
	pollInterval time.Duration
	deadline     time.Duration
}

// NewCapturer creates a capturer over the given collaborators
func NewCapturer(clip Clipboard, injector KeyInjector, ui UIContext, logger *logging.Logger) *Capturer {
	if logger == nil {
		logger = logging.New("selection")
	}
	return &Capturer{
		clipboard:    clip,
		injector:     injector,
		ui:           ui,
		logger:       logger,
		pollInterval: defaultPollInterval,
		deadline:     defaultDeadline,
	}
}

// Capture returns the text currently selected in the foreground
// application, or ("", false) when no selection was present. The clipboard
// content is restored before returning.
func (c *Capturer) Capture() (string, bool) {
	snapshot, snapErr := c.read()
	if snapErr != nil {
		c.logger.Warn("Failed to snapshot clipboard", "error", snapErr)
	}

	if err := c.runClipboard(func() error { return c.clipboard.Clear() }); err != nil {
		c.logger.Warn("Failed to clear clipboard", "error", err)
	}

	if err := c.runClipboard(func() error { return c.injector.InjectCopy() }); err != nil {
		c.logger.Warn("Failed to inject copy keystroke", "error", err)
	}

	captured := c.poll()

	c.restore(snapshot, snapErr == nil)

	if strings.TrimSpace(captured) == "" {
		return "", false
	}
	return captured, true
}

// poll watches the clipboard until non-empty content appears or the
// deadline passes. Sleeping off the UI thread keeps its message pump live
// for applications that populate the clipboard lazily.
func (c *Capturer) poll() string {
	deadline := time.Now().Add(c.deadline)
	for {
		time.Sleep(c.pollInterval)

		text, err := c.read()
		if err != nil {
			c.logger.Warn("Failed to read clipboard while polling", "error", err)
		} else if strings.TrimSpace(text) != "" {
			return text
		}

		if time.Now().After(deadline) {
			return ""
		}
	}
}

// restore writes the snapshot back, or clears when the snapshot was empty
func (c *Capturer) restore(snapshot string, haveSnapshot bool) {
	var err error
	if haveSnapshot && snapshot != "" {
		err = c.runClipboard(func() error { return c.clipboard.WriteText(snapshot) })
	} else {
		err = c.runClipboard(func() error { return c.clipboard.Clear() })
	}
	if err != nil {
		c.logger.Warn("Failed to restore clipboard", "error", err)
	}
}

func (c *Capturer) read() (string, error) {
	var text string
	var err error
	c.ui.Do(func() { text, err = c.clipboard.ReadText() })
	return text, err
}

func (c *Capturer) runClipboard(op func() error) error {
	var err error
	c.ui.Do(func() { err = op() })
	return err
}
