package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/scenemap/pkg/buildinfo"
	"github.com/matzehuels/scenemap/pkg/errors"
	"github.com/matzehuels/scenemap/pkg/graph"
	"github.com/matzehuels/scenemap/pkg/observability"
	"github.com/matzehuels/scenemap/pkg/scene"
	"github.com/matzehuels/scenemap/pkg/session"
	"github.com/matzehuels/scenemap/pkg/view"
)

// contentTypes maps output formats to response content types.
var contentTypes = map[string]string{
	graph.FormatSVG:  "image/svg+xml",
	graph.FormatJSON: "application/json",
	graph.FormatDOT:  "text/vnd.graphviz",
	graph.FormatPNG:  "image/png",
	graph.FormatPDF:  "application/pdf",
}

// =============================================================================
// Response Helpers
// =============================================================================

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	respondJSON(w, errors.HTTPStatus(code), errorResponse{
		Error: errors.UserMessage(err),
		Code:  code,
	})
}

// observe reports every request to the server hooks and the logger.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.Server()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, route, status, d)
		s.cfg.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", d,
			"request_id", chimiddleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Read Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

// handleFrame renders the current view. The format query parameter selects
// any pipeline output format and defaults to json.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = graph.FormatJSON
	}

	s.mu.Lock()
	opts := s.cfg.Options
	opts.Formats = []string{format}
	artifacts, err := s.cfg.Runner.Render(r.Context(), s.view, s.src, opts)
	s.mu.Unlock()
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap := graph.FromForest(s.forest, s.src.Name)
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	state := view.Capture(s.view)
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, state)
}

// =============================================================================
// Event Handlers
// =============================================================================

// nodeAction returns a handler applying fn to the node named by the rest of
// the path. Handles may contain slashes; escaped handles are unescaped.
func (s *Server) nodeAction(fn func(*view.View, *scene.Node)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := url.PathUnescape(chi.URLParam(r, "*"))
		if err != nil {
			respondError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid handle"))
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		n, err := s.lookup(h)
		if err != nil {
			respondError(w, err)
			return
		}
		fn(s.view, n)
		respondJSON(w, http.StatusOK, s.frame())
	}
}

type digResponse struct {
	Added []scene.Handle `json:"added"`
	Frame graph.Frame    `json:"frame"`
}

func (s *Server) handleDig(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := digResponse{Added: []scene.Handle{}}
	for _, n := range s.view.DigForConnections() {
		resp.Added = append(resp.Added, n.Context)
	}
	resp.Frame = s.frame()
	respondJSON(w, http.StatusOK, resp)
}

// Pointer event kinds.
const (
	PointerDown = "down"
	PointerDrag = "drag"
	PointerUp   = "up"
)

// PointerRequest is one pointer event in frame coordinates.
type PointerRequest struct {
	Event string  `json:"event"`
	X     float64 `json:"x,omitempty"`  // down
	Y     float64 `json:"y,omitempty"`  // down
	DX    float64 `json:"dx,omitempty"` // drag
	DY    float64 `json:"dy,omitempty"` // drag
}

// PointerResponse reports the node a pointer event hit.
type PointerResponse struct {
	Node    scene.Handle `json:"node,omitempty"`
	Hit     bool         `json:"hit"`     // down: a node was pressed; drag: a root moved
	Clicked bool         `json:"clicked"` // up: the gesture was a click
	Frame   graph.Frame  `json:"frame"`
}

// handlePointer feeds a pointer event to the view. Frame coordinates are
// shifted by the frame margin, so they are translated back to view space
// before hit testing.
func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req PointerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid pointer event"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var resp PointerResponse
	switch req.Event {
	case PointerDown:
		origin := s.view.Frame().Bounds.Min()
		margin := s.cfg.Options.Margin
		p := view.Point{X: req.X - margin + origin.X, Y: req.Y - margin + origin.Y}
		if n, ok := s.view.PressAt(p); ok {
			resp.Node, resp.Hit = n.Context, true
		}
	case PointerDrag:
		resp.Hit = s.view.Drag(req.DX, req.DY)
	case PointerUp:
		if n, ok := s.view.Release(); ok {
			resp.Node, resp.Clicked = n.Context, true
		}
	default:
		respondError(w, errors.New(errors.ErrCodeInvalidInput, "unknown pointer event %q", req.Event))
		return
	}
	resp.Frame = s.frame()
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRescan(w http.ResponseWriter, r *http.Request) {
	if err := s.Rescan(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	respondJSON(w, http.StatusOK, s.frame())
}

// =============================================================================
// Session Handlers
// =============================================================================

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.cfg.Sessions.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if list == nil {
		list = []*session.Session{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	state := view.Capture(s.view)
	sceneHash := s.src.Hash
	s.mu.Unlock()

	sess, err := session.New(s.cfg.Options.Scene, s.cfg.SessionTTL)
	if err != nil {
		respondError(w, err)
		return
	}
	sess.SceneHash = sceneHash
	sess.Touch(state, s.cfg.SessionTTL)
	if err := s.cfg.Sessions.Set(r.Context(), sess); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleRestoreSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.getSession(r)
	if err != nil {
		respondError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if missing := view.Apply(s.view, sess.State); missing > 0 {
		s.cfg.Logger.Debug("restored session with stale handles", "session", sess.ID, "missing", missing)
	}
	respondJSON(w, http.StatusOK, s.frame())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateSessionID(id); err != nil {
		respondError(w, err)
		return
	}
	if err := s.cfg.Sessions.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getSession(r *http.Request) (*session.Session, error) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateSessionID(id); err != nil {
		return nil, err
	}
	sess, err := s.cfg.Sessions.Get(r.Context(), id)
	switch {
	case stderrors.Is(err, session.ErrNotFound):
		return nil, errors.Wrap(errors.ErrCodeSessionNotFound, err, "session %s not found", id)
	case stderrors.Is(err, session.ErrExpired):
		return nil, errors.Wrap(errors.ErrCodeSessionExpired, err, "session %s expired", id)
	case err != nil:
		return nil, err
	}
	return sess, nil
}
