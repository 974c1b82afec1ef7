// Package http serves the execution transition over a JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/aretw0/transit"
	"github.com/aretw0/transit/internal/logging"
	"github.com/aretw0/transit/pkg/adapters/memory"
	"github.com/aretw0/transit/pkg/domain"
	"github.com/aretw0/transit/pkg/options"
	"github.com/aretw0/transit/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine is what the server needs from the transition engine.
type Engine interface {
	ports.Executor
	Key(cfg *domain.Configuration, platform *domain.Label) string
	Store() ports.ConfigurationStore
}

// Server holds the HTTP handlers.
type Server struct {
	Engine   Engine
	Streams  *StreamManager
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStreams serves /v1/events from sm. Register sm.Hooks() on the engine
// for events to flow.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{Engine: engine}
	for _, opt := range opts {
		opt(server)
	}
	if server.logger == nil {
		server.logger = logging.NewNop()
	}
	if server.Streams == nil {
		server.Streams = NewStreamManager(server.logger)
	}
	if server.gatherer == nil {
		server.gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", server.GetHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/info", server.GetInfo)
		r.Post("/transitions/exec", server.Exec)
		r.Get("/configurations", server.ListConfigurations)
		r.Get("/configurations/*", server.GetConfiguration)
		r.Get("/events", server.SubscribeEvents)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ExecRequest is the body of POST /v1/transitions/exec. Options are applied
// on top of Configuration, or on top of the defaults when it is absent.
type ExecRequest struct {
	Options           []string        `json:"options,omitempty"`
	Configuration     domain.Document `json:"configuration,omitempty"`
	ExecutionPlatform string          `json:"execution_platform,omitempty"`
}

// ExecResponse is the body returned by POST /v1/transitions/exec.
type ExecResponse struct {
	Configuration *domain.Configuration `json:"configuration"`
	Checksum      string                `json:"checksum"`
	Key           string                `json:"key,omitempty"`
	Noop          bool                  `json:"noop"`
	Affected      []string              `json:"affected"`
	Events        []domain.Event        `json:"events"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Exec handles POST /v1/transitions/exec.
func (s *Server) Exec(w http.ResponseWriter, r *http.Request) {
	var body ExecRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	input, err := body.configuration()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var platform *domain.Label
	if body.ExecutionPlatform != "" {
		l := domain.Label(body.ExecutionPlatform)
		platform = &l
	}

	events := memory.NewEventStore()
	out, err := s.Engine.Exec(r.Context(), input, platform, events)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("Exec failed", "error", err)
		}
		s.writeError(w, status, err)
		return
	}

	core, _ := out.Core()
	resp := ExecResponse{
		Configuration: out,
		Checksum:      out.Checksum(),
		Noop:          out == input,
		Affected:      core.AffectedByDynamicTransition,
		Events:        events.Events(),
	}
	if resp.Affected == nil {
		resp.Affected = []string{}
	}
	if resp.Events == nil {
		resp.Events = []domain.Event{}
	}
	if s.Engine.Store() != nil && !resp.Noop {
		resp.Key = s.Engine.Key(input, platform)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (b ExecRequest) configuration() (*domain.Configuration, error) {
	if b.Configuration == nil {
		return options.Parse(domain.FragmentKinds(), b.Options...)
	}
	base, err := domain.FromDocument(b.Configuration)
	if err != nil {
		return nil, err
	}
	return options.Overlay(base, b.Options...)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrMissingFragment), errors.Is(err, domain.ErrUnknownDistinguisher),
		errors.Is(err, transit.ErrNilConfiguration):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// GetConfiguration handles GET /v1/configurations/{key}. The key may be
// path-escaped.
func (s *Server) GetConfiguration(w http.ResponseWriter, r *http.Request) {
	store := s.Engine.Store()
	if store == nil {
		s.writeError(w, http.StatusNotImplemented, errors.New("no configuration store"))
		return
	}
	key, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || key == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid key %q", chi.URLParam(r, "*")))
		return
	}

	cfg, err := store.Load(r.Context(), key)
	if errors.Is(err, domain.ErrConfigurationNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.logger.Error("GetConfiguration failed", "key", key, "error", err)
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, cfg)
}

// ListConfigurations handles GET /v1/configurations.
func (s *Server) ListConfigurations(w http.ResponseWriter, r *http.Request) {
	store := s.Engine.Store()
	if store == nil {
		s.writeError(w, http.StatusNotImplemented, errors.New("no configuration store"))
		return
	}
	keys, err := store.List(r.Context())
	if err != nil {
		s.logger.Error("ListConfigurations failed", "error", err)
		s.writeError(w, statusFor(err), err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"keys": keys})
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /v1/info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	modes := make([]string, 0, len(domain.DistinguisherModes()))
	for _, m := range domain.DistinguisherModes() {
		modes = append(modes, m.String())
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":           "transit-http",
		"version":       transit.Version,
		"distinguisher": modes,
		"options":       options.FlagNames(domain.FragmentKinds()...),
	})
}

// SubscribeEvents handles GET /v1/events (SSE). The optional mode query
// parameter restricts the stream to one distinguisher mode.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	topic := AllTopics
	if q := r.URL.Query().Get("mode"); q != "" {
		mode, err := domain.ParseDistinguisherMode(q)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		topic = mode.String()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to transition events", "topic", topic)
	ch, cancel := s.Streams.Subscribe(topic)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "topic", topic)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: transition\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
