// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     selection
// Description: Single-threaded UI context for clipboard and input access
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package selection

import (
	"runtime"
	"sync"
)

// UIThread runs submitted closures on one locked OS thread. Clipboard and
// input-injection APIs on several platforms require a stable thread.
type UIThread struct {
	work      chan func()
	closeOnce sync.Once
	done      chan struct{}
}

// NewUIThread starts the UI thread and returns its context
func NewUIThread() *UIThread {
	t := &UIThread{
		work: make(chan func()),
		done: make(chan struct{}),
	}

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		for {
			select {
			case fn := <-t.work:
				fn()
			case <-t.done:
				return
			}
		}
	}()

	return t
}

// Do runs fn on the UI thread and blocks until it returns. After Close,
// fn runs on the caller's thread instead of being dropped.
func (t *UIThread) Do(fn func()) {
	ran := make(chan struct{})
	select {
	case t.work <- func() { fn(); close(ran) }:
		<-ran
	case <-t.done:
		fn()
	}
}

// Close stops the UI thread
func (t *UIThread) Close() {
	t.closeOnce.Do(func() { close(t.done) })
}
