package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/AaronLay10/BrewSim/internal/events"
	"github.com/AaronLay10/BrewSim/internal/session"
	"github.com/AaronLay10/BrewSim/internal/simulation"
)

// Server exposes sessions over HTTP.
type Server struct {
	sessions *session.Registry
	service  string
}

// NewServer creates a server for the given session registry.
func NewServer(sessions *session.Registry, service string) *Server {
	if service == "" {
		service = "brewsim"
	}
	return &Server{sessions: sessions, service: service}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	anyRole := Require(RoleAdmin, RolePlayer)
	adminOnly := Require(RoleAdmin)

	r.Get("/health", s.healthHandler)
	r.Get("/ready", readyHandler)
	r.Get("/metrics", s.metricsHandler)
	r.With(adminOnly).Get("/events", eventsHandler)
	r.With(anyRole).Get("/ws", wsEventsHandler)

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.With(adminOnly).Get("/", s.listSessions)
		r.With(anyRole).Post("/", s.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.With(anyRole).Get("/", s.getSession)
			r.With(adminOnly).Delete("/", s.deleteSession)
			r.With(anyRole).Post("/advance", s.advance)
			r.With(anyRole).Post("/complete", s.complete)
			r.With(anyRole).Get("/results", s.results)
		})
	})
	return r
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   s.service,
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func eventsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, events.Snapshot())
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type CreateSessionRequest struct {
	UserID string `json:"user_id"`
	Kind   string `json:"kind"`
}

// CompleteRequest reports a level result. Score and MaxScore are required.
type CompleteRequest struct {
	Score    *int     `json:"score"`
	MaxScore *int     `json:"max_score"`
	Comments []string `json:"comments"`
}

type ResultsResponse struct {
	SessionID string                  `json:"session_id"`
	Lines     []simulation.ResultLine `json:"lines"`
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	all := s.sessions.All()
	out := make([]session.View, 0, len(all))
	for _, sess := range all {
		out = append(out, sess.View())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.UserID == "" || req.Kind == "" {
		writeError(w, http.StatusBadRequest, "user_id and kind required")
		return
	}

	sess, err := s.sessions.Create(req.UserID, simulation.Kind(req.Kind))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.View())
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, sess.View())
	}
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Remove(chi.URLParam(r, "id")); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) advance(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := sess.Advance(); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) complete(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Score == nil || req.MaxScore == nil {
		writeError(w, http.StatusBadRequest, "score and max_score required")
		return
	}

	result := simulation.SingleScore{Score: *req.Score, MaxScore: *req.MaxScore, Comments: req.Comments}
	if err := sess.CompleteLevel(result); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) results(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	lines, err := sess.Results()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultsResponse{SessionID: sess.ID, Lines: lines})
}

// statusFor maps controller and registry errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, simulation.ErrInvalidScore), errors.Is(err, simulation.ErrConfiguration):
		return http.StatusBadRequest
	case simulation.IsSequencingViolation(err),
		errors.Is(err, session.ErrNotComplete),
		errors.Is(err, session.ErrLevelMismatch):
		return http.StatusConflict
	}
	// scene start failures (e.g. the MQTT broker is unreachable)
	return http.StatusBadGateway
}

func writeSessionError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{OK: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewHTTPServer returns an http.Server for handler on port.
func NewHTTPServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Serve runs srv, using TLS when configured. It blocks until the server
// exits and returns nil after a clean Shutdown.
func Serve(srv *http.Server) error {
	cfg, err := ServerTLSConfig()
	if err != nil {
		return err
	}
	if cfg != nil {
		srv.TLSConfig = cfg
		log.Printf("API listening on %s (TLS)\n", srv.Addr)
		err = srv.ListenAndServeTLS("", "")
	} else {
		log.Printf("API listening on %s\n", srv.Addr)
		err = srv.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
