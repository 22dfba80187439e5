// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     catalog
// Description: Hot-reloading voice catalog with atomic index snapshots
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/msto63/mSW/pkg/core/logging"
)

// debounceDelay collapses bursts of filesystem events into a single rescan
const debounceDelay = 100 * time.Millisecond

// Catalog maintains the index of installed voices. The index is rebuilt
// off-line on every scan and published atomically, so readers always see
// either the pre- or post-rescan snapshot and never block during a scan.
type Catalog struct {
	mu           sync.RWMutex
	index        map[string]Voice
	ordered      []Voice
	voicesDir    string
	defaultVoice string
	watcher      *fsnotify.Watcher
	logger       *logging.Logger
	onChange     func(voices []Voice)
	stopCh       chan struct{}
	running      bool
}

// New creates a catalog for the given voices directory and performs the
// initial scan. The directory is created when missing; if that fails the
// catalog starts with an empty index.
func New(voicesDir, defaultVoice string, logger *logging.Logger) *Catalog {
	if logger == nil {
		logger = logging.New("catalog")
	}

	c := &Catalog{
		index:        make(map[string]Voice),
		voicesDir:    voicesDir,
		defaultVoice: defaultVoice,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}

	if err := c.Scan(); err != nil {
		c.logger.Warn("Initial voice scan failed", "dir", voicesDir, "error", err)
	}

	return c
}

// SetOnChange sets the callback invoked after every published rescan
func (c *Catalog) SetOnChange(fn func(voices []Voice)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Scan enumerates the voices directory and publishes a fresh index.
// A malformed config excludes that one voice; a directory-level failure
// leaves the previous index untouched.
func (c *Catalog) Scan() error {
	if err := os.MkdirAll(c.voicesDir, 0755); err != nil {
		return fmt.Errorf("failed to create voices directory: %w", err)
	}

	entries, err := os.ReadDir(c.voicesDir)
	if err != nil {
		return fmt.Errorf("failed to read voices directory: %w", err)
	}

	index := make(map[string]Voice)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".onnx") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".onnx")
		modelPath, err := filepath.Abs(filepath.Join(c.voicesDir, entry.Name()))
		if err != nil {
			c.logger.Warn("Failed to resolve model path", "voice", id, "error", err)
			continue
		}
		configPath := modelPath + ".json"

		if _, err := os.Stat(configPath); err != nil {
			c.logger.Warn("Voice model without config skipped", "voice", id, "config", filepath.Base(configPath))
			continue
		}

		rate, err := parseSampleRate(configPath)
		if err != nil {
			c.logger.Warn("Voice config unreadable, voice skipped", "voice", id, "error", err)
			continue
		}

		index[id] = Voice{
			ID:          id,
			DisplayName: id,
			ModelPath:   modelPath,
			ConfigPath:  configPath,
			SampleRate:  rate,
		}
	}

	ordered := make([]Voice, 0, len(index))
	for _, v := range index {
		ordered = append(ordered, v)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	c.mu.Lock()
	c.index = index
	c.ordered = ordered
	onChange := c.onChange
	c.mu.Unlock()

	c.logger.Info("Voice catalog scanned", "dir", c.voicesDir, "voices", len(index))

	if onChange != nil {
		onChange(ordered)
	}
	return nil
}

// List returns the current snapshot of voices, sorted by id
func (c *Catalog) List() []Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Voice, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Get returns a voice by id
func (c *Catalog) Get(id string) (Voice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.index[id]
	return v, ok
}

// Resolve maps a requested voice id to an effective one. An empty or
// unknown request falls back to the configured default voice; an unknown
// request logs a warning naming both ids. The default is returned even
// when it is itself absent, so the synthesizer surfaces the real failure.
func (c *Catalog) Resolve(requested string) string {
	fallback := c.DefaultVoice()
	if requested == "" {
		return fallback
	}

	if _, ok := c.Get(requested); ok {
		return requested
	}

	c.logger.Warn("Requested voice not installed, using default",
		"requested", requested, "default", fallback)
	return fallback
}

// DefaultVoice returns the configured default voice id
func (c *Catalog) DefaultVoice() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultVoice
}

// SetDefaultVoice changes the default voice id used by Resolve
func (c *Catalog) SetDefaultVoice(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultVoice = id
}

// StartWatching begins observing the voices directory for model or config
// changes. Every relevant event schedules a rescan after a short debounce;
// a newer event resets the pending timer.
func (c *Catalog) StartWatching(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(c.voicesDir); err != nil {
		watcher.Close()
		c.mu.Unlock()
		return fmt.Errorf("failed to watch voices directory: %w", err)
	}

	c.watcher = watcher
	c.running = true
	c.mu.Unlock()

	c.logger.Info("Watching voices directory", "dir", c.voicesDir)
	go c.watchLoop(ctx)
	return nil
}

// watchLoop handles filesystem events until stopped
func (c *Catalog) watchLoop(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		c.running = false
		watcher := c.watcher
		c.watcher = nil
		c.mu.Unlock()
		if watcher != nil {
			watcher.Close()
		}
	}()

	var pending *time.Timer
	var rescan <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stopping voice watcher (context cancelled)")
			return

		case <-c.stopCh:
			c.logger.Info("Stopping voice watcher (stop signal)")
			return

		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if !isVoiceArtifact(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			// Reset the pending rescan instead of stacking new ones
			if pending == nil {
				pending = time.NewTimer(debounceDelay)
				rescan = pending.C
			} else {
				if !pending.Stop() {
					select {
					case <-pending.C:
					default:
					}
				}
				pending.Reset(debounceDelay)
			}

		case <-rescan:
			pending = nil
			rescan = nil
			if err := c.Scan(); err != nil {
				c.logger.Error("Voice rescan failed, keeping previous index", "error", err)
			}

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Error("Watcher error", "error", err)
		}
	}
}

// Close stops the watcher and releases resources
func (c *Catalog) Close() {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()

	if running {
		close(c.stopCh)
	}
}

func isVoiceArtifact(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	return strings.HasSuffix(name, ".onnx") || strings.HasSuffix(name, ".onnx.json")
}
