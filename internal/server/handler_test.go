// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     server
// Description: Tests for the HTTP API handlers
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/msto63/mSW/internal/catalog"
	"github.com/msto63/mSW/internal/history"
	"github.com/msto63/mSW/pkg/core/logging"
)

type stubSubmitter struct {
	queued     bool
	id         string
	lastText   string
	lastSource string
	lastVoice  string
}

func (s *stubSubmitter) Submit(text, sourceName, voiceOverride string) (bool, string) {
	s.lastText = text
	s.lastSource = sourceName
	s.lastVoice = voiceOverride
	return s.queued, s.id
}

type stubQueue struct {
	depth   int
	current string
	stopped bool
}

func (q *stubQueue) StopAndClear()   { q.stopped = true }
func (q *stubQueue) Depth() int      { return q.depth }
func (q *stubQueue) Current() string { return q.current }

type stubVoices struct {
	voices []catalog.Voice
}

func (v *stubVoices) List() []catalog.Voice { return v.voices }

type stubPool struct {
	loaded []string
}

func (p *stubPool) LoadedVoices() []string { return p.loaded }

type stubCapturer struct {
	text string
	ok   bool
}

func (c *stubCapturer) Capture() (string, bool) { return c.text, c.ok }

func newTestHandler(t *testing.T, cfg HandlerConfig) *http.ServeMux {
	t.Helper()
	if cfg.Submitter == nil {
		cfg.Submitter = &stubSubmitter{}
	}
	if cfg.Queue == nil {
		cfg.Queue = &stubQueue{}
	}
	if cfg.Voices == nil {
		cfg.Voices = &stubVoices{}
	}
	mux := http.NewServeMux()
	NewHandler(cfg).Register(mux)
	return mux
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestSpeakQueued(t *testing.T) {
	sub := &stubSubmitter{queued: true, id: "req-1"}
	mux := newTestHandler(t, HandlerConfig{Submitter: sub})

	body := strings.NewReader(`{"text":"hallo welt","source":"editor","voice":"amy"}`)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/speak", body))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	var resp speakResponse
	decodeBody(t, rec, &resp)
	if !resp.Queued || resp.ID == nil || *resp.ID != "req-1" {
		t.Errorf("response = %+v, want queued with id req-1", resp)
	}
	if sub.lastSource != "editor" || sub.lastVoice != "amy" {
		t.Errorf("submitter got source=%q voice=%q", sub.lastSource, sub.lastVoice)
	}
}

func TestSpeakRejectedByFilter(t *testing.T) {
	mux := newTestHandler(t, HandlerConfig{Submitter: &stubSubmitter{queued: false}})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/speak",
		strings.NewReader(`{"text":"filtered out"}`)))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"id":null`)) {
		t.Errorf("body = %s, want id null", rec.Body.String())
	}
}

func TestSpeakValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty text", `{"text":""}`},
		{"whitespace text", `{"text":"   \n\t"}`},
		{"missing text", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestHandler(t, HandlerConfig{})
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/speak", strings.NewReader(tt.body)))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if !bytes.Contains(rec.Body.Bytes(), []byte("text is required")) {
				t.Errorf("body = %s, want text-is-required error", rec.Body.String())
			}
		})
	}
}

func TestSpeakInvalidJSON(t *testing.T) {
	mux := newTestHandler(t, HandlerConfig{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/speak", strings.NewReader(`{broken`)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSpeakMethodNotAllowed(t *testing.T) {
	mux := newTestHandler(t, HandlerConfig{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/speak", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestSpeakSelectionCaptured(t *testing.T) {
	sub := &stubSubmitter{queued: true, id: "sel-1"}
	mux := newTestHandler(t, HandlerConfig{
		Submitter: sub,
		Capturer:  &stubCapturer{text: "markierter Text", ok: true},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/speak-selection",
		strings.NewReader(`{"voice":"eva"}`)))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	var resp speakSelectionResponse
	decodeBody(t, rec, &resp)
	if !resp.Queued || resp.Text != "markierter Text" {
		t.Errorf("response = %+v", resp)
	}
	if sub.lastSource != SelectionSource {
		t.Errorf("source = %q, want %q", sub.lastSource, SelectionSource)
	}
	if sub.lastVoice != "eva" {
		t.Errorf("voice override = %q, want eva", sub.lastVoice)
	}
}

func TestSpeakSelectionNothingSelected(t *testing.T) {
	mux := newTestHandler(t, HandlerConfig{Capturer: &stubCapturer{ok: false}})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/speak-selection", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp speakSelectionResponse
	decodeBody(t, rec, &resp)
	if resp.Queued || resp.Text != "" {
		t.Errorf("response = %+v, want queued=false text empty", resp)
	}
}

func TestSpeakSelectionUnavailable(t *testing.T) {
	mux := newTestHandler(t, HandlerConfig{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/speak-selection", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestVoicesSnapshot(t *testing.T) {
	mux := newTestHandler(t, HandlerConfig{
		Voices: &stubVoices{voices: []catalog.Voice{
			{ID: "amy", DisplayName: "amy", SampleRate: 22050},
			{ID: "thorsten", DisplayName: "thorsten", SampleRate: 24000},
		}},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/voices", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var voices []voiceResponse
	decodeBody(t, rec, &voices)
	if len(voices) != 2 {
		t.Fatalf("voices = %d, want 2", len(voices))
	}
	if voices[1].ID != "thorsten" || voices[1].SampleRate != 24000 {
		t.Errorf("voices[1] = %+v", voices[1])
	}
}

func TestVoicesEmpty(t *testing.T) {
	mux := newTestHandler(t, HandlerConfig{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/voices", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("body = %s, want []", rec.Body.String())
	}
}

func TestStatus(t *testing.T) {
	mux := newTestHandler(t, HandlerConfig{
		Queue:   &stubQueue{depth: 3, current: "req-7"},
		Pool:    &stubPool{loaded: []string{"amy", "thorsten"}},
		Version: "1.0.0",
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp statusResponse
	decodeBody(t, rec, &resp)
	if !resp.Running || !resp.Playing || resp.ActiveVoices != 2 || resp.QueueDepth != 3 {
		t.Errorf("response = %+v", resp)
	}
	if resp.Version != "1.0.0" {
		t.Errorf("version = %q, want 1.0.0", resp.Version)
	}
}

func TestStatusWithoutPool(t *testing.T) {
	mux := newTestHandler(t, HandlerConfig{Queue: &stubQueue{depth: 1}})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	var resp statusResponse
	decodeBody(t, rec, &resp)
	if resp.ActiveVoices != 0 {
		t.Errorf("activeVoices = %d, want 0", resp.ActiveVoices)
	}
}

func TestStop(t *testing.T) {
	q := &stubQueue{depth: 5}
	mux := newTestHandler(t, HandlerConfig{Queue: q})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/stop", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !q.stopped {
		t.Error("StopAndClear was not called")
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"stopped":true`)) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHistory(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithConfig(logging.Config{Level: logging.LevelError, Output: &buf, Name: "history"})
	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"), logger)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Record(context.Background(), &history.Entry{ID: id, Text: "t", Outcome: "completed"}); err != nil {
			t.Fatal(err)
		}
	}

	mux := newTestHandler(t, HandlerConfig{History: store})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history?limit=2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var entries []*history.Entry
	decodeBody(t, rec, &entries)
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2 (limit)", len(entries))
	}
}

func TestHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithConfig(logging.Config{Level: logging.LevelError, Output: &buf, Name: "history"})
	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"), logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	mux := newTestHandler(t, HandlerConfig{History: store})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("body = %s, want []", rec.Body.String())
	}
}

func TestHistoryUnavailable(t *testing.T) {
	mux := newTestHandler(t, HandlerConfig{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
