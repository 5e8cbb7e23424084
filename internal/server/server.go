// Package server hosts chat sessions for browsers. Each session is a chat.Controller;
// its events are pushed to the page over Server-Sent Events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tmaxmax/go-sse"

	"github.com/comigor/dermachat-go/internal/chat"
	"github.com/comigor/dermachat-go/internal/config"
	"github.com/comigor/dermachat-go/internal/logger"
)

var (
	unauthorizedType = sse.Type("unauthorized")
	closeType        = sse.Type("close")
)

var (
	errSessionNotFound = errors.New("session not found")
	errShuttingDown    = errors.New("server is shutting down")
)

// Factory builds the controller for a new session. The server passes its own options,
// which must be applied after any the factory sets.
type Factory func(sessionID string, opts ...chat.Option) *chat.Controller

// Server is the browser front end.
type Server struct {
	newSession Factory
	sseSrv     *sse.Server

	mu       sync.Mutex
	sessions map[string]*chat.Controller
	closed   bool
}

// New creates a Server that builds sessions with newSession.
func New(newSession Factory) *Server {
	return &Server{
		newSession: newSession,
		sessions:   make(map[string]*chat.Controller),
		sseSrv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				topics := []string{sse.DefaultTopic}
				if id := s.Req.PathValue("id"); id != "" {
					topics = append(topics, sessionTopic(id))
				}
				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics:      topics,
				}, true
			},
		},
	}
}

func sessionTopic(id string) string {
	return fmt.Sprintf("session-%s", id)
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /api/sessions", s.handleCreate)
	mux.HandleFunc("POST /api/sessions/{id}/messages", s.handleSubmit)
	mux.HandleFunc("GET /api/sessions/{id}/messages", s.handleState)
	mux.HandleFunc("POST /api/sessions/{id}/reset", s.handleReset)
	mux.HandleFunc("GET /api/sessions/{id}/events", s.handleEvents)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDelete)
	return mux
}

func (s *Server) handleCreate(w http.ResponseWriter, _ *http.Request) {
	id := uuid.NewString()
	c := s.newSession(id, chat.WithObserver(s.publisher(id)))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		c.Teardown()
		writeError(w, http.StatusServiceUnavailable, errShuttingDown.Error())
		return
	}
	s.sessions[id] = c
	s.mu.Unlock()

	logger.L.Info("session created", "session", id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	c, err := s.session(r)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}
	if !c.SubmitQuery(body.Query) {
		writeError(w, http.StatusConflict, "session is closed")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": true})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	c, err := s.session(r)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.State())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	c, err := s.session(r)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	c.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if _, err := s.session(r); err != nil {
		writeSessionError(w, err)
		return
	}
	s.sseSrv.ServeHTTP(w, r)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		writeSessionError(w, errShuttingDown)
		return
	}
	c, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, errSessionNotFound.Error())
		return
	}

	c.Teardown()
	c.Wait()
	logger.L.Info("session closed", "session", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) session(r *http.Request) (*chat.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errShuttingDown
	}
	c, ok := s.sessions[r.PathValue("id")]
	if !ok {
		return nil, errSessionNotFound
	}
	return c, nil
}

// publisher forwards controller events to the session topic. Publishing only hands
// the message to the provider, so it does not block the controller.
func (s *Server) publisher(id string) chat.Observer {
	topic := sessionTopic(id)
	return func(e chat.Event) {
		msg, err := eventMessage(e)
		if err != nil {
			logger.L.Error("failed to encode event", "kind", e.Kind.String(), "error", err)
			return
		}
		if err := s.sseSrv.Publish(msg, topic); err != nil {
			logger.L.Debug("failed to publish event", "session", id, "error", err)
		}
	}
}

func eventMessage(e chat.Event) (*sse.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	msg := &sse.Message{Type: sse.Type(e.Kind.String())}
	msg.AppendData(string(data))
	return msg, nil
}

// NotifyUnauthorized tells every open page that the credentials were rejected and the
// user has to sign in again.
func (s *Server) NotifyUnauthorized() {
	msg := &sse.Message{Type: unauthorizedType}
	msg.AppendData(`{"redirect":"/login"}`)
	_ = s.sseSrv.Publish(msg)
}

// Sessions reports how many sessions are open.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown tears down every session and closes the event streams.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	sessions := s.sessions
	s.sessions = make(map[string]*chat.Controller)
	s.mu.Unlock()

	for _, c := range sessions {
		c.Teardown()
	}
	for _, c := range sessions {
		c.Wait()
	}

	e := &sse.Message{Type: closeType}
	e.AppendData("bye")
	_ = s.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.sseSrv.Shutdown(ctx)
}

// ListenAndServe serves s on cfg until ctx is cancelled, then shuts down gracefully.
func ListenAndServe(ctx context.Context, cfg config.ServerConfig, s *Server) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv.RegisterOnShutdown(func() {
		if err := s.Shutdown(context.Background()); err != nil {
			logger.L.Error("failed to shutdown sse server", "error", err)
		}
	})

	serverErrors := make(chan error, 1)
	go func() {
		logger.L.Info("server starting", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		logger.L.Info("start shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.L.Error("graceful shutdown failed", "error", err)
			return srv.Close()
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Debug("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeSessionError(w http.ResponseWriter, err error) {
	status := http.StatusNotFound
	if errors.Is(err, errShuttingDown) {
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, err.Error())
}
