// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     tray
// Description: System tray integration using fyne.io/systray
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package tray

import (
	"runtime"

	"fyne.io/systray"
)

// IconState represents the current state for icon coloring
type IconState string

const (
	IconStateIdle     IconState = "idle"     // White - ready
	IconStateSpeaking IconState = "speaking" // Blue - playback active
	IconStateError    IconState = "error"    // Orange - last request failed
)

// Callbacks holds the callback functions for tray events
type Callbacks struct {
	OnSpeakSelection func()
	OnStop           func()
	OnQuit           func()
}

// Tray is the system tray application
type Tray struct {
	onSpeakSelection func()
	onStop           func()
	onQuit           func()

	menuStatus         *systray.MenuItem
	menuVoice          *systray.MenuItem
	menuSpeakSelection *systray.MenuItem
	menuStop           *systray.MenuItem
	menuQuit           *systray.MenuItem

	currentStatus string
	currentVoice  string
	currentIcon   IconState
}

// New creates a new tray application
func New(callbacks Callbacks) *Tray {
	return &Tray{
		onSpeakSelection: callbacks.OnSpeakSelection,
		onStop:           callbacks.OnStop,
		onQuit:           callbacks.OnQuit,
		currentStatus:    "Bereit",
		currentIcon:      IconStateIdle,
	}
}

// Run starts the system tray loop (blocking)
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready
func (t *Tray) onReady() {
	systray.SetIcon(createTextIconBytes(IconStateIdle))
	systray.SetTitle("")
	systray.SetTooltip("mSW Vorlesedienst")

	t.menuStatus = systray.AddMenuItem("Status: "+t.currentStatus, "Aktueller Status")
	t.menuStatus.Disable()

	t.menuVoice = systray.AddMenuItem("Stimme: "+t.voiceLabel(), "Aktuelle Stimme")
	t.menuVoice.Disable()

	systray.AddSeparator()

	shortcut := "Ctrl+Shift+S"
	if runtime.GOOS == "darwin" {
		shortcut = "Menübar-Klick"
	}
	t.menuSpeakSelection = systray.AddMenuItem("Auswahl vorlesen ("+shortcut+")", "Markierten Text vorlesen")
	t.menuStop = systray.AddMenuItem("Stopp", "Wiedergabe stoppen und Warteschlange leeren")

	systray.AddSeparator()

	t.menuQuit = systray.AddMenuItem("Beenden", "Dienst beenden")

	go t.handleClicks()
}

// handleClicks handles menu item clicks
func (t *Tray) handleClicks() {
	for {
		select {
		case <-t.menuSpeakSelection.ClickedCh:
			if t.onSpeakSelection != nil {
				t.onSpeakSelection()
			}
		case <-t.menuStop.ClickedCh:
			if t.onStop != nil {
				t.onStop()
			}
		case <-t.menuQuit.ClickedCh:
			if t.onQuit != nil {
				t.onQuit()
			}
			systray.Quit()
			return
		}
	}
}

// onExit is called when the system tray exits
func (t *Tray) onExit() {
}

// SetStatus updates the status display
func (t *Tray) SetStatus(status string) {
	t.currentStatus = status
	if t.menuStatus != nil {
		t.menuStatus.SetTitle("Status: " + status)
	}
}

// SetVoice updates the voice display
func (t *Tray) SetVoice(voice string) {
	t.currentVoice = voice
	if t.menuVoice != nil {
		t.menuVoice.SetTitle("Stimme: " + t.voiceLabel())
	}
}

func (t *Tray) voiceLabel() string {
	if t.currentVoice == "" {
		return "(keine)"
	}
	return t.currentVoice
}

// SetIconState sets the tray icon based on state
func (t *Tray) SetIconState(state IconState) {
	t.currentIcon = state
	systray.SetIcon(createTextIconBytes(state))
}

// Quit quits the system tray
func (t *Tray) Quit() {
	systray.Quit()
}
