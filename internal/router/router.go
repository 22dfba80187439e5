// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     router
// Description: Source resolution, regex admission filters and voice routing
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package router

import (
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/msto63/mSW/internal/catalog"
	"github.com/msto63/mSW/internal/sources"
	"github.com/msto63/mSW/internal/speech"
	"github.com/msto63/mSW/pkg/core/config"
	"github.com/msto63/mSW/pkg/core/logging"
)

// Enqueuer accepts admitted speech requests
type Enqueuer interface {
	Enqueue(r *speech.Request) string
}

// Router turns raw submissions into speech requests. It resolves the
// source (falling back to default), applies the source's regex filters,
// resolves the effective voice and assigns the source's priority.
type Router struct {
	queue    Enqueuer
	catalog  *catalog.Catalog
	provider sources.Provider
	logger   *logging.Logger

	regexMu    sync.Mutex
	regexCache map[string]*regexp.Regexp
}

// New creates a router over the given queue, catalog and source provider
func New(queue Enqueuer, cat *catalog.Catalog, provider sources.Provider, logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.New("router")
	}
	return &Router{
		queue:      queue,
		catalog:    cat,
		provider:   provider,
		logger:     logger,
		regexCache: make(map[string]*regexp.Regexp),
	}
}

// Submit admits text for speaking. Returns (false, "") when the text is
// empty after trimming, when no source config can be resolved, or when the
// source's filters reject the text. Otherwise the request is enqueued and
// its id returned.
func (r *Router) Submit(text, sourceName, voiceOverride string) (bool, string) {
	if strings.TrimSpace(text) == "" {
		return false, ""
	}

	name, src, ok := r.resolveSource(sourceName)
	if !ok {
		r.logger.Warn("No source config resolvable, submission rejected", "source", sourceName)
		return false, ""
	}

	if !r.admit(text, src.Filters) {
		r.logger.Debug("Text rejected by source filters", "source", name)
		return false, ""
	}

	voiceID := r.resolveVoice(voiceOverride, src)

	req := speech.NewRequest(uuid.NewString(), text, voiceID, src.GetPriority(), name)
	id := r.queue.Enqueue(req)

	r.logger.Debug("Submission admitted",
		"id", id, "source", name, "voice", voiceID, "priority", src.GetPriority())
	return true, id
}

// resolveSource finds the effective source config, falling back to default
func (r *Router) resolveSource(sourceName string) (string, config.SourceConfig, bool) {
	if sourceName != "" {
		if src, ok := r.provider.Lookup(sourceName); ok {
			return sourceName, src, true
		}
	}
	if src, ok := r.provider.Lookup(config.DefaultSourceName); ok {
		return config.DefaultSourceName, src, true
	}
	return "", config.SourceConfig{}, false
}

// resolveVoice applies the override > source > catalog-default precedence
func (r *Router) resolveVoice(voiceOverride string, src config.SourceConfig) string {
	requested := voiceOverride
	if requested == "" {
		requested = src.Voice
	}
	return r.catalog.Resolve(requested)
}

// admit evaluates the source's filters against the text. No filters, or an
// empty list, admit everything. Matching is case-insensitive with no
// implicit anchoring; a pattern that fails to compile counts as
// non-matching but does not disqualify the others.
func (r *Router) admit(text string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}

	for _, pattern := range filters {
		re, err := r.compile(pattern)
		if err != nil {
			r.logger.Warn("Invalid filter pattern skipped", "pattern", pattern, "error", err)
			continue
		}
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// compile returns a cached case-insensitive regex for the pattern
func (r *Router) compile(pattern string) (*regexp.Regexp, error) {
	r.regexMu.Lock()
	defer r.regexMu.Unlock()

	if re, ok := r.regexCache[pattern]; ok {
		return re, nil
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	r.regexCache[pattern] = re
	return re, nil
}
