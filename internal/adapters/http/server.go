// Package http serves the storytelling session over a JSON API: auth,
// story lifecycle, soul mirror, saved-story history, health and metrics.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/tellatale/internal/logging"
	"github.com/aretw0/tellatale/internal/runtime"
	"github.com/aretw0/tellatale/pkg/domain"
	"github.com/aretw0/tellatale/pkg/session"
)

// Server exposes one engine and its recorder over HTTP. The engine hosts a
// single session, matching the one-reader-at-a-time front end.
type Server struct {
	engine   *runtime.Engine
	recorder *session.Recorder
	registry *prometheus.Registry
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithRegistry mounts /metrics for the given registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = registry
	}
}

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler builds the routed handler.
func NewHandler(engine *runtime.Engine, recorder *session.Recorder, opts ...Option) http.Handler {
	s := &Server{
		engine:   engine,
		recorder: recorder,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Post("/auth/register", s.register)
	r.Post("/auth/login", s.login)
	r.Post("/auth/logout", s.logout)

	r.Post("/story", s.startStory)
	r.Get("/story", s.getStory)
	r.Delete("/story", s.resetStory)
	r.Post("/story/choices", s.choose)
	r.Get("/story/soul", s.soul)

	r.Get("/history", s.history)
	r.Get("/history/{storyID}", s.recallStory)
	r.Delete("/history/{storyID}", s.forgetStory)
	r.Post("/history/{storyID}/resume", s.resumeStory)

	return r
}

type credentialsRequest struct {
	Username   string `json:"username"`
	Credential string `json:"credential"`
}

type choiceRequest struct {
	Index int `json:"index"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// writeError maps domain sentinels onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidConfig), errors.Is(err, domain.ErrUnknownChoice):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrNoStory), errors.Is(err, domain.ErrIdentityNotFound),
		errors.Is(err, domain.ErrStoryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrBusy), errors.Is(err, domain.ErrUsernameTaken),
		errors.Is(err, domain.ErrStoryConcluded), errors.Is(err, domain.ErrConfirmRequired):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrSeedGeneration), errors.Is(err, domain.ErrContinuation):
		status = http.StatusBadGateway
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"phase":  string(s.engine.Phase()),
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" || body.Credential == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "username and credential are required"})
		return
	}
	id, err := s.recorder.SignUp(r.Context(), body.Username, body.Credential)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"username": id.Username, "stories": len(id.History)})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	id, err := s.recorder.SignIn(r.Context(), body.Username, body.Credential)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"username": id.Username, "stories": len(id.History)})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.recorder.SignOut()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) startStory(w http.ResponseWriter, r *http.Request) {
	var cfg domain.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := s.engine.Configure(cfg); err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.engine.Start(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.autosave(r)
	s.writeJSON(w, http.StatusCreated, s.engine.Snapshot())
}

func (s *Server) getStory(w http.ResponseWriter, r *http.Request) {
	story := s.engine.Snapshot()
	if story == nil {
		s.writeError(w, domain.ErrNoStory)
		return
	}
	s.writeJSON(w, http.StatusOK, story)
}

func (s *Server) resetStory(w http.ResponseWriter, r *http.Request) {
	confirm := r.URL.Query().Get("confirm") == "true"
	if err := s.engine.Reset(confirm); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) choose(w http.ResponseWriter, r *http.Request) {
	var body choiceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	segment, err := s.engine.Choose(r.Context(), body.Index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.autosave(r)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"segment": segment,
		"soul":    s.engine.Personality(),
	})
}

func (s *Server) soul(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Personality())
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	history, err := s.recorder.History(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, history)
}

func (s *Server) recallStory(w http.ResponseWriter, r *http.Request) {
	saved, err := s.recorder.Recall(r.Context(), chi.URLParam(r, "storyID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

func (s *Server) forgetStory(w http.ResponseWriter, r *http.Request) {
	if err := s.recorder.Forget(r.Context(), chi.URLParam(r, "storyID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resumeStory(w http.ResponseWriter, r *http.Request) {
	saved, err := s.recorder.Recall(r.Context(), chi.URLParam(r, "storyID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.engine.Load(*saved); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

// autosave records the current story after a successful round. Best effort;
// the handler already has its result.
func (s *Server) autosave(r *http.Request) {
	if err := s.recorder.Record(r.Context(), s.engine.Snapshot()); err != nil {
		s.logger.Warn("autosave failed", "err", err)
	}
}
