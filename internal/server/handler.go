// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     server
// Description: HTTP API handlers for the speech service
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/msto63/mSW/internal/catalog"
	"github.com/msto63/mSW/internal/history"
	"github.com/msto63/mSW/pkg/core/logging"
)

// SelectionSource is the source name used for captured selections
const SelectionSource = "speak-selection"

// Submitter admits text into the speech pipeline
type Submitter interface {
	Submit(text, sourceName, voiceOverride string) (bool, string)
}

// QueueControl exposes the queue operations the API needs
type QueueControl interface {
	StopAndClear()
	Depth() int
	Current() string
}

// VoiceLister provides the current voice snapshot
type VoiceLister interface {
	List() []catalog.Voice
}

// VoiceCounter reports how many voice handles are live
type VoiceCounter interface {
	LoadedVoices() []string
}

// SelectionCapturer reads the current OS selection
type SelectionCapturer interface {
	Capture() (string, bool)
}

// Handler serves the JSON API
type Handler struct {
	submitter Submitter
	queue     QueueControl
	voices    VoiceLister
	pool      VoiceCounter
	capturer  SelectionCapturer
	histStore *history.Store
	logger    *logging.Logger
	version   string
}

// HandlerConfig wires the handler's collaborators. Capturer and History
// may be nil; the corresponding endpoints then degrade gracefully.
type HandlerConfig struct {
	Submitter Submitter
	Queue     QueueControl
	Voices    VoiceLister
	Pool      VoiceCounter
	Capturer  SelectionCapturer
	History   *history.Store
	Version   string
}

// NewHandler creates the API handler
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		submitter: cfg.Submitter,
		queue:     cfg.Queue,
		voices:    cfg.Voices,
		pool:      cfg.Pool,
		capturer:  cfg.Capturer,
		histStore: cfg.History,
		logger:    logging.New("api"),
		version:   cfg.Version,
	}
}

// Register attaches all API routes to the mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/speak", h.handleSpeak)
	mux.HandleFunc("/api/speak-selection", h.handleSpeakSelection)
	mux.HandleFunc("/api/voices", h.handleVoices)
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/stop", h.handleStop)
	mux.HandleFunc("/api/history", h.handleHistory)
}

type speakRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
	Voice  string `json:"voice,omitempty"`
}

type speakResponse struct {
	Queued bool    `json:"queued"`
	ID     *string `json:"id"`
}

type speakSelectionRequest struct {
	Voice string `json:"voice,omitempty"`
}

type speakSelectionResponse struct {
	Queued bool    `json:"queued"`
	ID     *string `json:"id,omitempty"`
	Text   string  `json:"text"`
}

type voiceResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SampleRate int    `json:"sampleRate"`
}

type statusResponse struct {
	Running      bool   `json:"running"`
	Playing      bool   `json:"playing"`
	ActiveVoices int    `json:"activeVoices"`
	QueueDepth   int    `json:"queueDepth"`
	Version      string `json:"version,omitempty"`
}

func (h *Handler) handleSpeak(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req speakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	queued, id := h.submitter.Submit(req.Text, req.Source, req.Voice)

	resp := speakResponse{Queued: queued}
	if queued {
		resp.ID = &id
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) handleSpeakSelection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.capturer == nil {
		writeError(w, http.StatusServiceUnavailable, "selection capture is not available")
		return
	}

	var req speakSelectionRequest
	if r.Body != nil {
		// An empty body is fine, the voice override is optional
		json.NewDecoder(r.Body).Decode(&req)
	}

	text, ok := h.capturer.Capture()
	if !ok {
		writeJSON(w, http.StatusOK, speakSelectionResponse{Queued: false, Text: ""})
		return
	}

	queued, id := h.submitter.Submit(text, SelectionSource, req.Voice)

	resp := speakSelectionResponse{Queued: queued, Text: text}
	if queued {
		resp.ID = &id
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) handleVoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	voices := h.voices.List()
	out := make([]voiceResponse, 0, len(voices))
	for _, v := range voices {
		out = append(out, voiceResponse{
			ID:         v.ID,
			Name:       v.DisplayName,
			SampleRate: v.SampleRate,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	active := 0
	if h.pool != nil {
		active = len(h.pool.LoadedVoices())
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Running:      true,
		Playing:      h.queue.Current() != "",
		ActiveVoices: active,
		QueueDepth:   h.queue.Depth(),
		Version:      h.version,
	})
}

func (h *Handler) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	h.queue.StopAndClear()
	writeJSON(w, http.StatusOK, map[string]bool{"stopped": true})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.histStore == nil {
		writeError(w, http.StatusServiceUnavailable, "history is not available")
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	entries, err := h.histStore.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}
	if entries == nil {
		entries = []*history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
