// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     selection
// Description: Tests for the selection capture protocol
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package selection

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/msto63/mSW/pkg/core/logging"
)

// inlineUI runs closures on the calling goroutine
type inlineUI struct{}

func (inlineUI) Do(fn func()) { fn() }

type fakeClipboard struct {
	mu      sync.Mutex
	content string
	readErr error
	history []string
}

func (c *fakeClipboard) ReadText() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return "", c.readErr
	}
	return c.content, nil
}

func (c *fakeClipboard) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = text
	c.history = append(c.history, text)
	return nil
}

func (c *fakeClipboard) Clear() error {
	return c.WriteText("")
}

func (c *fakeClipboard) set(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = text
}

func (c *fakeClipboard) current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}

// fakeInjector simulates the source application reacting to the copy chord
type fakeInjector struct {
	clip  *fakeClipboard
	text  string
	delay time.Duration
	err   error
}

func (i *fakeInjector) InjectCopy() error {
	if i.err != nil {
		return i.err
	}
	if i.text == "" {
		return nil
	}
	go func() {
		if i.delay > 0 {
			time.Sleep(i.delay)
		}
		i.clip.set(i.text)
	}()
	return nil
}

func captureLogger(buf *bytes.Buffer) *logging.Logger {
	return logging.NewWithConfig(logging.Config{Level: logging.LevelDebug, Output: buf, Name: "selection"})
}

func newTestCapturer(clip *fakeClipboard, inj KeyInjector, buf *bytes.Buffer) *Capturer {
	c := NewCapturer(clip, inj, inlineUI{}, captureLogger(buf))
	c.pollInterval = 5 * time.Millisecond
	c.deadline = 150 * time.Millisecond
	return c
}

func TestCaptureReturnsSelection(t *testing.T) {
	var buf bytes.Buffer
	clip := &fakeClipboard{content: "previous content"}
	inj := &fakeInjector{clip: clip, text: "selected words"}

	c := newTestCapturer(clip, inj, &buf)

	text, ok := c.Capture()
	if !ok || text != "selected words" {
		t.Errorf("Capture() = (%q, %v), want selected words", text, ok)
	}
	if clip.current() != "previous content" {
		t.Errorf("clipboard = %q, want original restored", clip.current())
	}
}

func TestCaptureLazyPopulation(t *testing.T) {
	var buf bytes.Buffer
	clip := &fakeClipboard{}
	inj := &fakeInjector{clip: clip, text: "late arrival", delay: 60 * time.Millisecond}

	c := newTestCapturer(clip, inj, &buf)

	text, ok := c.Capture()
	if !ok || text != "late arrival" {
		t.Errorf("Capture() = (%q, %v), want late arrival", text, ok)
	}
}

func TestCaptureNoSelection(t *testing.T) {
	var buf bytes.Buffer
	clip := &fakeClipboard{content: "keep me"}
	inj := &fakeInjector{clip: clip}

	c := newTestCapturer(clip, inj, &buf)

	text, ok := c.Capture()
	if ok || text != "" {
		t.Errorf("Capture() = (%q, %v), want absent", text, ok)
	}
	if clip.current() != "keep me" {
		t.Errorf("clipboard = %q, want original restored", clip.current())
	}
}

func TestCaptureWhitespaceOnlyIsAbsent(t *testing.T) {
	var buf bytes.Buffer
	clip := &fakeClipboard{}
	inj := &fakeInjector{clip: clip, text: "   \n\t "}

	c := newTestCapturer(clip, inj, &buf)

	if text, ok := c.Capture(); ok {
		t.Errorf("whitespace-only capture should be absent, got %q", text)
	}
}

func TestCaptureEmptySnapshotRestoresEmpty(t *testing.T) {
	var buf bytes.Buffer
	clip := &fakeClipboard{}
	inj := &fakeInjector{clip: clip, text: "something"}

	c := newTestCapturer(clip, inj, &buf)

	c.Capture()
	if clip.current() != "" {
		t.Errorf("clipboard = %q, want cleared (snapshot was empty)", clip.current())
	}
}

func TestCaptureInjectionFailureIsBestEffort(t *testing.T) {
	var buf bytes.Buffer
	clip := &fakeClipboard{content: "original"}
	inj := &fakeInjector{clip: clip, err: errors.New("no permission")}

	c := newTestCapturer(clip, inj, &buf)

	text, ok := c.Capture()
	if ok || text != "" {
		t.Errorf("Capture() = (%q, %v), want absent", text, ok)
	}
	if !strings.Contains(buf.String(), "inject") {
		t.Errorf("injection failure should be logged, got %q", buf.String())
	}
	if clip.current() != "original" {
		t.Errorf("clipboard = %q, restore must still run after inject failure", clip.current())
	}
}

func TestCaptureReadFailureIsBestEffort(t *testing.T) {
	var buf bytes.Buffer
	clip := &fakeClipboard{readErr: errors.New("clipboard busy")}
	inj := &fakeInjector{clip: clip}

	c := newTestCapturer(clip, inj, &buf)

	if text, ok := c.Capture(); ok {
		t.Errorf("Capture() should be absent on read failure, got %q", text)
	}
	if !strings.Contains(buf.String(), "clipboard") {
		t.Errorf("read failures should be logged, got %q", buf.String())
	}
}

func TestUIThreadRunsWork(t *testing.T) {
	ui := NewUIThread()
	defer ui.Close()

	ran := false
	ui.Do(func() { ran = true })
	if !ran {
		t.Error("Do() should run the closure before returning")
	}
}

func TestUIThreadAfterClose(t *testing.T) {
	ui := NewUIThread()
	ui.Close()

	ran := false
	ui.Do(func() { ran = true })
	if !ran {
		t.Error("Do() after Close should still run the closure")
	}
}
