// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     sources
// Description: Source config store with YAML drop-in overlays
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package sources

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
	"github.com/msto63/mSW/pkg/core/config"
	"github.com/msto63/mSW/pkg/core/logging"
	"gopkg.in/yaml.v3"
)

// debounceDelay collapses bursts of filesystem events into a single reload
const debounceDelay = 100 * time.Millisecond

// Definition is the YAML shape of one drop-in source entry
type Definition struct {
	Voice    string   `yaml:"voice"`
	Filters  []string `yaml:"filters"`
	Priority *int     `yaml:"priority"`
}

// Provider resolves source names to their effective configuration
type Provider interface {
	Lookup(name string) (config.SourceConfig, bool)
}

// Store merges the base sources from the main config with drop-in YAML
// files from a sources directory. Drop-in entries win over base entries
// of the same name.
type Store struct {
	mu      sync.RWMutex
	base    map[string]config.SourceConfig
	overlay map[string]config.SourceConfig
	dir     string
	logger  *logging.Logger
	watcher *fsnotify.Watcher
	running bool
}

// NewStore creates a store over the base sources. When dir is non-empty,
// drop-in files are loaded immediately; a missing directory is not an error.
func NewStore(base map[string]config.SourceConfig, dir string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.New("sources")
	}

	s := &Store{
		base:    base,
		overlay: make(map[string]config.SourceConfig),
		dir:     dir,
		logger:  logger,
	}

	if dir != "" {
		if err := s.Reload(); err != nil {
			s.logger.Warn("Failed to load source drop-ins", "dir", dir, "error", err)
		}
	}
	return s
}

// Reload rescans the drop-in directory. A malformed file is skipped with a
// warning; the rest of the directory still loads.
func (s *Store) Reload() error {
	if s.dir == "" {
		return nil
	}
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(s.dir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("failed to list source files: %w", err)
	}
	ymlFiles, _ := filepath.Glob(filepath.Join(s.dir, "*.yml"))
	files = append(files, ymlFiles...)
	sort.Strings(files)

	overlay := make(map[string]config.SourceConfig)
	for _, file := range files {
		defs, err := loadFile(file)
		if err != nil {
			s.logger.Warn("Failed to load source file", "file", filepath.Base(file), "error", err)
			continue
		}
		for name, def := range defs {
			overlay[name] = config.SourceConfig{
				Voice:    def.Voice,
				Filters:  def.Filters,
				Priority: def.Priority,
			}
		}
	}

	s.mu.Lock()
	s.overlay = overlay
	s.mu.Unlock()

	s.logger.Info("Source drop-ins loaded", "dir", s.dir, "sources", len(overlay))
	return nil
}

// loadFile reads one YAML file mapping source names to definitions
func loadFile(path string) (map[string]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	defs := make(map[string]Definition)
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for name := range defs {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("source with empty name")
		}
	}
	return defs, nil
}

// StartWatching begins observing the drop-in directory for changes. Every
// relevant event schedules a reload after a short debounce; a newer event
// resets the pending timer. Without a directory this is a no-op.
func (s *Store) StartWatching(ctx context.Context) error {
	if s.dir == "" {
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		s.mu.Unlock()
		return fmt.Errorf("failed to watch sources directory: %w", err)
	}

	s.watcher = watcher
	s.running = true
	s.mu.Unlock()

	s.logger.Info("Watching sources directory", "dir", s.dir)
	go s.watchLoop(ctx)
	return nil
}

// watchLoop handles filesystem events until the context is cancelled
func (s *Store) watchLoop(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.running = false
		watcher := s.watcher
		s.watcher = nil
		s.mu.Unlock()
		if watcher != nil {
			watcher.Close()
		}
	}()

	var pending *time.Timer
	var reload <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping sources watcher (context cancelled)")
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !isSourceFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			// Reset the pending reload instead of stacking new ones
			if pending == nil {
				pending = time.NewTimer(debounceDelay)
				reload = pending.C
			} else {
				if !pending.Stop() {
					select {
					case <-pending.C:
					default:
					}
				}
				pending.Reset(debounceDelay)
			}

		case <-reload:
			pending = nil
			reload = nil
			if err := s.Reload(); err != nil {
				s.logger.Error("Source reload failed, keeping previous overlay", "error", err)
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("Watcher error", "error", err)
		}
	}
}

// isSourceFile reports whether a path looks like a source drop-in
func isSourceFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Lookup returns the configuration for a source name, drop-ins first
func (s *Store) Lookup(name string) (config.SourceConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if src, ok := s.overlay[name]; ok {
		return src, true
	}
	src, ok := s.base[name]
	return src, ok
}

// Names returns all known source names, sorted
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.base)+len(s.overlay))
	for name := range s.base {
		seen[name] = struct{}{}
	}
	for name := range s.overlay {
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
