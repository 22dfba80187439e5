// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     selection
// Description: Copy keystroke injection via the OS input primitive
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package selection

import (
	"fmt"
	"runtime"

	"github.com/micmonay/keybd_event"
)

// CopyInjector synthesizes the platform copy chord (ctrl+C, cmd+C on macOS)
type CopyInjector struct {
	kb keybd_event.KeyBonding
}

// NewCopyInjector prepares the key bonding for the copy chord
func NewCopyInjector() (*CopyInjector, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("failed to init key injection: %w", err)
	}

	kb.SetKeys(keybd_event.VK_C)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}

	return &CopyInjector{kb: kb}, nil
}

// InjectCopy presses and releases the copy chord
func (i *CopyInjector) InjectCopy() error {
	if err := i.kb.Launching(); err != nil {
		return fmt.Errorf("failed to inject copy keystroke: %w", err)
	}
	return nil
}
