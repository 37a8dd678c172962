package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/scenemap/pkg/errors"
	"github.com/matzehuels/scenemap/pkg/graph"
	"github.com/matzehuels/scenemap/pkg/observability"
	"github.com/matzehuels/scenemap/pkg/pipeline"
	"github.com/matzehuels/scenemap/pkg/scene"
	"github.com/matzehuels/scenemap/pkg/session"
	"github.com/matzehuels/scenemap/pkg/view"
)

// Default server settings.
const (
	DefaultAddr            = "127.0.0.1:8321"
	DefaultShutdownTimeout = 5 * time.Second
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
)

// Config configures a [Server].
type Config struct {
	// Addr is the listen address. Empty means DefaultAddr.
	Addr string

	// ReadTimeout and WriteTimeout bound each request. Zero means the defaults.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Runner loads, builds and renders the scene. Nil means an uncached runner.
	Runner *pipeline.Runner

	// Options names the scene and carries the initial focus, pins, draw
	// toggles and render settings.
	Options pipeline.Options

	// Sessions enables saving and restoring view states. Optional.
	Sessions session.Store

	// SessionTTL is the lifetime of saved sessions. Zero means session.DefaultTTL.
	SessionTTL time.Duration

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler

	// Logger receives request and rescan logs. Nil disables logging.
	Logger *log.Logger
}

// Server hosts one scene map. Every request that reads or changes the view
// holds the server lock, so events are processed one at a time.
type Server struct {
	cfg    Config
	router chi.Router

	mu     sync.Mutex
	src    *pipeline.Source
	forest *scene.Forest
	view   *view.View
}

// New loads the scene, opens the initial view and builds the router.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	cfg.Options.Logger = cfg.Logger
	if err := cfg.Options.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg}
	if err := s.load(ctx, cfg.Options); err != nil {
		return nil, err
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.cfg.Addr }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("serving scene map", "addr", s.cfg.Addr, "scene", s.src.Name)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Rescan reloads the scene file and rebuilds the forest, then reapplies the
// current view state to the new forest. Pins and expansion flags on nodes
// that disappeared are dropped.
func (s *Server) Rescan(ctx context.Context) (err error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		observability.Server().OnRescan(ctx, s.cfg.Options.Scene, time.Since(start), err)
	}()

	state := view.Capture(s.view)
	opts := s.cfg.Options
	opts.State = &state
	opts.Focus, opts.Pin, opts.Expand, opts.Dig, opts.All = "", nil, nil, 0, false
	if err := s.load(ctx, opts); err != nil {
		s.cfg.Logger.Error("rescan failed", "scene", opts.Scene, "err", err)
		return err
	}
	s.cfg.Logger.Info("rescanned scene", "scene", s.src.Name, "nodes", s.forest.Len(), "duration", time.Since(start))
	return nil
}

// load runs the pipeline up to an opened view. The current view is kept when
// any stage fails.
func (s *Server) load(ctx context.Context, opts pipeline.Options) error {
	r := s.cfg.Runner
	src, err := r.Load(ctx, opts)
	if err != nil {
		return err
	}
	forest, _, err := r.Build(ctx, src, opts)
	if err != nil {
		return err
	}
	v, missing, err := r.OpenWithStateInfo(ctx, forest, opts)
	if err != nil {
		return err
	}
	if missing > 0 {
		s.cfg.Logger.Debug("dropped stale view state", "missing", missing)
	}
	s.src, s.forest, s.view = src, forest, v
	return nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/frame", s.handleFrame)
		r.Get("/nodes", s.handleNodes)
		r.Get("/state", s.handleState)

		r.Post("/focus/*", s.nodeAction(func(v *view.View, n *scene.Node) { v.SetExclusiveVisibleRoot(n) }))
		r.Post("/toggle/*", s.nodeAction(func(v *view.View, n *scene.Node) { v.ToggleExpanded(n) }))
		r.Post("/pin/*", s.nodeAction(func(v *view.View, n *scene.Node) { v.Pin(n) }))
		r.Post("/unpin/*", s.nodeAction(func(v *view.View, n *scene.Node) { v.Unpin(n) }))
		r.Post("/dig", s.handleDig)
		r.Post("/pointer", s.handlePointer)
		r.Post("/rescan", s.handleRescan)

		if s.cfg.Sessions != nil {
			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", s.handleListSessions)
				r.Post("/", s.handleSaveSession)
				r.Post("/{id}", s.handleRestoreSession)
				r.Delete("/{id}", s.handleDeleteSession)
			})
		}
	})

	return r
}

// frame returns the current draw request. The caller holds s.mu.
func (s *Server) frame() graph.Frame {
	return graph.FromFrame(s.view.Frame(), s.cfg.Options.Margin)
}

// lookup resolves a handle. The caller holds s.mu.
func (s *Server) lookup(h string) (*scene.Node, error) {
	if err := errors.ValidateHandle(h); err != nil {
		return nil, err
	}
	n, ok := s.forest.Lookup(scene.Handle(h))
	if !ok {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", h)
	}
	return n, nil
}
