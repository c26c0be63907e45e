// Package api exposes the streaming parser over HTTP for demos and
// integration testing. Clients create a session, feed it deltas, and
// read back the balanced preview plus the segmented view of the buffer
// after every push.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odvcencio/streamdown/pkg/config"
	"github.com/odvcencio/streamdown/pkg/logging"
	"github.com/odvcencio/streamdown/pkg/markdown"
	"github.com/odvcencio/streamdown/pkg/segment"
)

// Server owns the session table and the HTTP surface.
type Server struct {
	cfg    config.ServerConfig
	logger *logging.Logger
	opts   []segment.ReasoningOption

	mu       sync.Mutex
	sessions map[string]*session
}

// session holds the accumulated buffer for one stream.
type session struct {
	mu        sync.Mutex
	id        string
	balancer  *markdown.Balancer
	createdAt time.Time
	updatedAt time.Time
}

// NewServer creates a server. The logger may be nil; segmentation
// options configure custom reasoning tag pairs.
func NewServer(cfg config.ServerConfig, logger *logging.Logger, opts ...segment.ReasoningOption) *Server {
	return &Server{
		cfg:      cfg,
		logger:   logger,
		opts:     opts,
		sessions: make(map[string]*session),
	}
}

// Router builds the chi router for the server.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	router.Get("/healthz", s.handleHealthz)
	router.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/{sessionID}", s.handleGetSession)
		r.Post("/{sessionID}/deltas", s.handlePushDelta)
		r.Delete("/{sessionID}", s.handleDeleteSession)
	})

	return router
}

// Start runs the HTTP server until ctx is cancelled, then shuts it
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	timeout := time.Duration(s.cfg.TimeoutSeconds) * time.Second
	srv := &http.Server{
		Addr:         s.cfg.Bind,
		Handler:      s.Router(),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logInfo("listening", map[string]any{"bind": s.cfg.Bind})

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) getSession(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

func (s *Server) logInfo(eventType string, details map[string]any) {
	if s.logger != nil {
		s.logger.Info(logging.CategoryServer, eventType, "", details)
	}
}

func (s *Server) logError(eventType, message string) {
	if s.logger != nil {
		s.logger.Error(logging.CategoryServer, eventType, message, nil)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	now := time.Now()

	s.mu.Lock()
	s.sessions[id] = &session{
		id:        id,
		balancer:  markdown.NewBalancer(),
		createdAt: now,
		updatedAt: now,
	}
	s.mu.Unlock()

	s.logInfo("session_created", map[string]any{"session_id": id})
	respondJSON(w, sessionCreatedResponse{ID: id, CreatedAt: now})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		respondError(w, http.StatusNotFound, errSessionNotFound)
		return
	}

	raw := drainSession(sess)

	s.logInfo("session_closed", map[string]any{"session_id": id, "raw_len": len(raw)})
	respondJSON(w, map[string]string{"content": raw})
}

// drainSession reads out the raw buffer under the session lock.
func drainSession(sess *session) string {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.balancer.Finalize()
}
