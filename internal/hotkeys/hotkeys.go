// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     hotkeys
// Description: Global hotkey registration and action dispatch
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package hotkeys

import (
	"fmt"
	"runtime"
	"strings"

	"golang.design/x/hotkey"

	"github.com/msto63/mSW/pkg/core/config"
	"github.com/msto63/mSW/pkg/core/logging"
)

// Built-in action names
const (
	ActionSpeakSelection = "speak-selection"
	ActionStop           = "stop"
)

// Manager registers global hotkeys and routes presses to named actions
type Manager struct {
	logger     *logging.Logger
	actions    map[string]func()
	registered []*hotkey.Hotkey
}

// New creates an empty manager
func New(logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.New("hotkeys")
	}
	return &Manager{
		logger:  logger,
		actions: make(map[string]func()),
	}
}

// Bind attaches a callback to an action name
func (m *Manager) Bind(action string, fn func()) {
	m.actions[action] = fn
}

// Start registers all configured hotkeys. A binding that fails to parse
// or register is logged and skipped, the rest stay active.
//
// Note: On macOS, the golang.design/x/hotkey library can cause SIGTRAP
// crashes due to CGO and Objective-C runtime issues, so registration is
// skipped there and the tray menu remains the activation path.
func (m *Manager) Start(bindings []config.HotkeyConfig) error {
	if runtime.GOOS == "darwin" {
		m.logger.Info("Hotkeys disabled on macOS (use the tray menu)")
		return nil
	}

	for _, b := range bindings {
		mods, key, err := parseChord(b.Keys)
		if err != nil {
			m.logger.Warn("Skipping hotkey", "keys", b.Keys, "error", err)
			continue
		}

		fn, ok := m.actions[b.Action]
		if !ok {
			m.logger.Warn("Skipping hotkey with unknown action", "keys", b.Keys, "action", b.Action)
			continue
		}

		hk := hotkey.New(mods, key)
		if err := hk.Register(); err != nil {
			m.logger.Warn("Failed to register hotkey", "keys", b.Keys, "error", err)
			continue
		}
		m.registered = append(m.registered, hk)

		go func(hk *hotkey.Hotkey, action string, fn func()) {
			for range hk.Keydown() {
				m.logger.Debug("Hotkey pressed", "action", action)
				fn()
			}
		}(hk, b.Action, fn)

		m.logger.Info("Hotkey registered", "keys", b.Keys, "action", b.Action)
	}

	return nil
}

// Stop unregisters all hotkeys
func (m *Manager) Stop() {
	for _, hk := range m.registered {
		hk.Unregister()
	}
	m.registered = nil
}

// keyNames maps chord key names to key codes
var keyNames = map[string]hotkey.Key{
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	"space": hotkey.KeySpace,
}

// parseChord parses a chord like "ctrl+shift+s" into modifiers and the
// final key. Only ctrl and shift are accepted as modifiers, those are
// the ones available on every platform.
func parseChord(chord string) ([]hotkey.Modifier, hotkey.Key, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(chord)), "+")
	if len(parts) < 2 {
		return nil, 0, fmt.Errorf("chord %q needs at least one modifier and a key", chord)
	}

	var mods []hotkey.Modifier
	for _, part := range parts[:len(parts)-1] {
		switch strings.TrimSpace(part) {
		case "ctrl":
			mods = append(mods, hotkey.ModCtrl)
		case "shift":
			mods = append(mods, hotkey.ModShift)
		default:
			return nil, 0, fmt.Errorf("unsupported modifier %q in chord %q", part, chord)
		}
	}

	name := strings.TrimSpace(parts[len(parts)-1])
	key, ok := keyNames[name]
	if !ok {
		return nil, 0, fmt.Errorf("unknown key %q in chord %q", name, chord)
	}
	return mods, key, nil
}
