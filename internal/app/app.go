// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     app
// Description: Main application controller wiring all components
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/msto63/mSW/internal/audio"
	"github.com/msto63/mSW/internal/catalog"
	"github.com/msto63/mSW/internal/history"
	"github.com/msto63/mSW/internal/hotkeys"
	"github.com/msto63/mSW/internal/prefs"
	"github.com/msto63/mSW/internal/router"
	"github.com/msto63/mSW/internal/selection"
	"github.com/msto63/mSW/internal/server"
	"github.com/msto63/mSW/internal/sources"
	"github.com/msto63/mSW/internal/speech"
	"github.com/msto63/mSW/internal/synth"
	"github.com/msto63/mSW/internal/tray"
	"github.com/msto63/mSW/pkg/core/config"
	"github.com/msto63/mSW/pkg/core/logging"
)

// Options selects optional desktop integrations
type Options struct {
	EnableTray    bool
	EnableHotkeys bool
	PrefsPath     string
}

// App is the main speech service application
type App struct {
	mu      sync.Mutex
	config  config.Config
	opts    Options
	logger  *logging.Logger
	running bool

	// Components
	prefsStore *prefs.Store
	catalog    *catalog.Catalog
	pool       *synth.Pool
	sink       *audio.Sink
	queue      *speech.Queue
	sources    *sources.Store
	router     *router.Router
	histStore  *history.Store

	// Selection capture
	uiThread *selection.UIThread
	capturer *selection.Capturer

	// Surfaces
	hub     *server.EventHub
	httpSrv *server.Server
	hotkeys *hotkeys.Manager
	trayApp *tray.Tray

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the application and wires all components
func New(cfg config.Config, opts Options) (*App, error) {
	logger := logging.New("msw")

	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		config: cfg,
		opts:   opts,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := a.initComponents(); err != nil {
		cancel()
		a.closeComponents()
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return a, nil
}

// initComponents initializes all components
func (a *App) initComponents() error {
	var err error

	a.prefsStore, err = prefs.NewStore(a.opts.PrefsPath)
	if err != nil {
		a.logger.Warn("Preferences unavailable", "error", err)
		a.prefsStore = nil
	}

	// Voice catalog
	a.catalog = catalog.New(a.config.Service.VoicesDir, a.config.Service.DefaultVoice, logging.New("catalog"))
	if a.prefsStore != nil {
		p, err := a.prefsStore.Load()
		if err != nil {
			a.logger.Warn("Failed to load preferences", "error", err)
		} else if p.Voice != "" {
			a.catalog.SetDefaultVoice(p.Voice)
		}
	}

	// Synthesis
	engine, err := synth.NewPiperEngine(a.config.Service.PiperBinary)
	if err != nil {
		return fmt.Errorf("failed to create speech engine: %w", err)
	}
	a.pool = synth.NewPool(engine, a.catalog, logging.New("synth"))

	// Playback
	a.sink, err = audio.NewSink(audio.DefaultSinkConfig(), logging.New("audio"))
	if err != nil {
		return fmt.Errorf("failed to create audio sink: %w", err)
	}

	// Queue
	a.queue = speech.NewQueue(speech.QueueConfig{
		MaxDepth:                  a.config.Service.MaxQueueDepth,
		InterruptOnHigherPriority: a.config.Service.InterruptOnHigherPriority,
	}, a.pool, a.sink, logging.New("queue"))

	// Routing
	a.sources = sources.NewStore(a.config.Sources, a.config.Service.SourcesDir, logging.New("sources"))
	a.router = router.New(a.queue, a.catalog, a.sources, logging.New("router"))

	// History
	if a.config.Service.HistoryPath != "" {
		a.histStore, err = history.NewStore(a.config.Service.HistoryPath, logging.New("history"))
		if err != nil {
			a.logger.Warn("History unavailable", "error", err)
			a.histStore = nil
		} else {
			a.queue.AddObserver(a.histStore.Observer())
		}
	}

	// Selection capture
	a.uiThread = selection.NewUIThread()
	injector, err := selection.NewCopyInjector()
	if err != nil {
		a.logger.Warn("Selection capture unavailable", "error", err)
	} else {
		a.capturer = selection.NewCapturer(
			selection.NewSystemClipboard(), injector, a.uiThread, logging.New("selection"))
	}

	// Event stream
	a.hub = server.NewEventHub(logging.New("events"))
	a.queue.AddObserver(a.hub.Observer())

	// HTTP API
	handlerCfg := server.HandlerConfig{
		Submitter: a.router,
		Queue:     a.queue,
		Voices:    a.catalog,
		Pool:      a.pool,
		History:   a.histStore,
		Version:   Version,
	}
	if a.capturer != nil {
		handlerCfg.Capturer = a.capturer
	}
	handler := server.NewHandler(handlerCfg)
	srvCfg := server.DefaultConfig()
	srvCfg.Port = a.config.Service.Port
	srvCfg.Version = Version
	a.httpSrv = server.New(srvCfg, handler, a.hub)

	// Desktop integrations
	if a.opts.EnableHotkeys {
		a.hotkeys = hotkeys.New(logging.New("hotkeys"))
		a.hotkeys.Bind(hotkeys.ActionSpeakSelection, func() { a.SpeakSelection() })
		a.hotkeys.Bind(hotkeys.ActionStop, a.queue.StopAndClear)
	}

	if a.opts.EnableTray {
		a.trayApp = tray.New(tray.Callbacks{
			OnSpeakSelection: func() { a.SpeakSelection() },
			OnStop:           a.queue.StopAndClear,
			OnQuit:           a.shutdown,
		})
		a.queue.AddObserver(a.trayObserver())
	}

	return nil
}

// trayObserver mirrors queue state into the tray display
func (a *App) trayObserver() speech.Observer {
	return func(ev speech.Event) {
		switch ev.Type {
		case speech.EventStarted:
			a.trayApp.SetIconState(tray.IconStateSpeaking)
			a.trayApp.SetStatus("Spricht...")
		case speech.EventCompleted, speech.EventCancelled:
			a.trayApp.SetIconState(tray.IconStateIdle)
			a.trayApp.SetStatus("Bereit")
		case speech.EventFailed:
			a.trayApp.SetIconState(tray.IconStateError)
			a.trayApp.SetStatus("Fehler")
		}
	}
}

// Run starts all components. With the tray enabled this blocks inside
// the tray event loop; otherwise it blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("already running")
	}
	a.running = true
	a.mu.Unlock()

	a.logger.Info("Starting mSW", "version", Version)

	if err := a.catalog.StartWatching(a.ctx); err != nil {
		a.logger.Warn("Voice hot-reload unavailable", "error", err)
	}

	if err := a.sources.Reload(); err != nil {
		a.logger.Warn("Failed to load source drop-ins", "error", err)
	}
	if err := a.sources.StartWatching(a.ctx); err != nil {
		a.logger.Warn("Source hot-reload unavailable", "error", err)
	}

	a.httpSrv.StartAsync()

	if a.hotkeys != nil {
		if err := a.hotkeys.Start(a.config.Hotkeys); err != nil {
			a.logger.Warn("Failed to start hotkeys", "error", err)
		}
	}

	if a.trayApp != nil {
		a.trayApp.SetVoice(a.catalog.DefaultVoice())
		// The systray library runs its own event loop
		a.trayApp.Run()
		return nil
	}

	select {
	case <-ctx.Done():
	case <-a.ctx.Done():
	}
	a.shutdown()
	return nil
}

// SpeakSelection captures the current OS selection and submits it
func (a *App) SpeakSelection() (bool, string) {
	if a.capturer == nil {
		a.logger.Warn("Selection capture is not available")
		return false, ""
	}

	text, ok := a.capturer.Capture()
	if !ok {
		return false, ""
	}
	return a.router.Submit(text, server.SelectionSource, "")
}

// SetDefaultVoice changes the default voice and persists the choice
func (a *App) SetDefaultVoice(id string) {
	a.catalog.SetDefaultVoice(id)
	if a.trayApp != nil {
		a.trayApp.SetVoice(id)
	}
	if a.prefsStore != nil {
		if err := a.prefsStore.Save(prefs.Preferences{Voice: id}); err != nil {
			a.logger.Warn("Failed to save preferences", "error", err)
		}
	}
}

// Catalog exposes the voice catalog
func (a *App) Catalog() *catalog.Catalog {
	return a.catalog
}

// shutdown stops all components in reverse start order
func (a *App) shutdown() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	a.mu.Unlock()

	a.logger.Info("Shutting down mSW")

	a.cancel()

	if a.hotkeys != nil {
		a.hotkeys.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpSrv.Stop(ctx); err != nil {
		a.logger.Warn("HTTP shutdown error", "error", err)
	}

	a.queue.Close()
	a.closeComponents()

	if a.trayApp != nil {
		a.trayApp.Quit()
	}
}

// closeComponents releases component resources
func (a *App) closeComponents() {
	if a.catalog != nil {
		a.catalog.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.sink != nil {
		a.sink.Close()
	}
	if a.histStore != nil {
		a.histStore.Close()
	}
	if a.uiThread != nil {
		a.uiThread.Close()
	}
}
