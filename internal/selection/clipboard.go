// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     selection
// Description: System clipboard adapter
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package selection

import "github.com/atotto/clipboard"

// SystemClipboard talks to the real OS clipboard
type SystemClipboard struct{}

// NewSystemClipboard returns the system clipboard adapter
func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

// ReadText returns the current clipboard text
func (c *SystemClipboard) ReadText() (string, error) {
	return clipboard.ReadAll()
}

// WriteText replaces the clipboard content
func (c *SystemClipboard) WriteText(text string) error {
	return clipboard.WriteAll(text)
}

// Clear empties the clipboard
func (c *SystemClipboard) Clear() error {
	return clipboard.WriteAll("")
}
