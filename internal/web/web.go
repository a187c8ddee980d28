// Package web exposes the week view, the event store and the editor over
// a small JSON HTTP API.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"weekcal/internal/calendar"
	"weekcal/internal/config"
	"weekcal/internal/editor"
	appLog "weekcal/internal/log"
	"weekcal/internal/model"
	"weekcal/internal/store"
)

// maxBodyBytes caps JSON and ICS request bodies.
const maxBodyBytes = 4 << 20

// EventStore is the part of the store the API reads and mutates.
type EventStore interface {
	BucketByDay(days []time.Time) []store.Bucket
	Get(id string) (model.Event, bool)
	List() []model.Event
	Create(ctx context.Context, d model.Draft) (model.Event, error)
	Update(ctx context.Context, e model.Event) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	Subscribe(fn func(store.Change)) (unsubscribe func())
}

// Server provides HTTP APIs for the week view, events and the editor.
type Server struct {
	cfg    *config.Config
	store  EventStore
	editor *editor.Editor
	loc    *time.Location
	week   calendar.Week
	now    func() time.Time
	mux    *http.ServeMux

	// Rendered /api/week responses keyed by first day of the window.
	// Any store change drops the whole cache.
	weekMu    sync.RWMutex
	weekCache map[string]weekResponse
	weekGen   uint64

	unsubscribe func()
}

// NewServer wires the API around st and ed. loc is the display zone.
func NewServer(cfg *config.Config, st EventStore, ed *editor.Editor, loc *time.Location) *Server {
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		cfg:       cfg,
		store:     st,
		editor:    ed,
		loc:       loc,
		week:      calendar.Week{Start: calendar.ParseWeekStart(cfg.WeekStart)},
		now:       time.Now,
		mux:       http.NewServeMux(),
		weekCache: make(map[string]weekResponse),
	}
	s.unsubscribe = st.Subscribe(func(store.Change) { s.invalidateWeeks() })
	s.registerRoutes()
	return s
}

// Close detaches the server from the store.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="weekcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ListenAndServe serves on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	hs := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/week", s.handleWeek)
	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("GET /api/events/{id}", s.handleGetEvent)
	s.mux.HandleFunc("POST /api/events/{id}/move", s.handleMoveEvent)

	s.mux.HandleFunc("GET /api/editor", s.handleEditorState)
	s.mux.HandleFunc("POST /api/editor/day", s.handleEditorOpenDay)
	s.mux.HandleFunc("POST /api/editor/event", s.handleEditorOpenEvent)
	s.mux.HandleFunc("POST /api/editor/submit", s.handleEditorSubmit)
	s.mux.HandleFunc("POST /api/editor/delete", s.handleEditorDelete)
	s.mux.HandleFunc("POST /api/editor/cancel", s.handleEditorCancel)

	s.mux.HandleFunc("GET /api/export.ics", s.handleExport)
	s.mux.HandleFunc("POST /api/import", s.handleImport)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
