// Package http serves the chat agent over HTTP: a streaming chat endpoint, session
// state inspection and server-sent state diffs.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nullvoyager/voyager"
	"github.com/nullvoyager/voyager/internal/logging"
	"github.com/nullvoyager/voyager/internal/metrics"
	"github.com/nullvoyager/voyager/internal/runtime"
	"github.com/nullvoyager/voyager/pkg/domain"
)

// SessionIDHeader carries the session id of a chat response.
const SessionIDHeader = "X-Session-Id"

// MaxBodyBytes bounds a chat request body.
const MaxBodyBytes = 1 << 20

// Engine runs conversation turns.
type Engine interface {
	ProcessMessage(ctx context.Context, sessionID string, messages []domain.Message, sink runtime.Sink) (*runtime.TurnResult, error)
}

// StateReader loads session state.
type StateReader interface {
	Load(ctx context.Context, sessionID string) (*domain.VoyagerState, error)
}

// Server holds the handlers of the HTTP API.
type Server struct {
	Engine   Engine
	Sessions StateReader
	Streams  *StreamManager

	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics tracks open streams and exposes /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewServer creates a Server.
func NewServer(engine Engine, sessions StateReader, opts ...Option) *Server {
	s := &Server{
		Engine:   engine,
		Sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// Handler returns the router with CORS applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{SessionIDHeader},
		MaxAge:         86400,
	}))

	r.HandleFunc("/agent/chat", s.Chat)
	r.HandleFunc("/agent/chat/{sessionId}", s.Chat)
	r.Get("/agent/state/{sessionId}", s.GetState)
	r.Get("/agent/events/{sessionId}", s.SubscribeEvents)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(RawSpec())
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

// StateChanged broadcasts the diff of a committed state update to event subscribers.
// It matches session.ChangeFunc.
func (s *Server) StateChanged(ctx context.Context, sessionID string, before, after *domain.VoyagerState) {
	diff := domain.Diff(sessionID, before, after)
	if diff == nil {
		return
	}
	b, err := json.Marshal(diff)
	if err != nil {
		s.logger.Error("failed to encode state diff", "session_id", sessionID, "err", err)
		return
	}
	s.Streams.Broadcast(sessionID, string(b))
}

// GetState handles GET /agent/state/{sessionId}.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	state, err := s.Sessions.Load(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("failed to load state", "session_id", sessionID, "err", err)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// SubscribeEvents handles GET /agent/events/{sessionId}.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	events, ok := newEventWriter(w)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	sessionID := chi.URLParam(r, "sessionId")
	watch := parseWatch(r.URL.Query().Get("watch"))

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
	s.streamOpened()
	defer s.streamClosed()

	s.logger.Info("SSE client subscribed", "session_id", sessionID)
	events.raw("ping", "connected")

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !watched(msg, watch) {
				continue
			}
			events.raw("", msg)
		}
	}
}

func parseWatch(q string) map[string]bool {
	if q == "" {
		return nil
	}
	out := map[string]bool{}
	for _, field := range strings.Split(q, ",") {
		if field = strings.TrimSpace(field); field != "" {
			out[field] = true
		}
	}
	return out
}

// watched reports whether the encoded diff touches one of the watched sections.
func watched(msg string, watch map[string]bool) bool {
	var diff domain.StateDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	return (watch["mode"] && diff.Mode != nil) ||
		(watch["preferences"] && diff.Preferences != nil) ||
		(watch["cart"] && diff.Cart != nil)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if spec, err := Spec(); err == nil && spec.Info != nil {
		apiVersion = spec.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "voyager-http",
		"version":     voyager.Version,
		"api_version": apiVersion,
		"time":        time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) streamOpened() {
	if s.metrics != nil {
		s.metrics.ActiveStreams.Inc()
	}
}

func (s *Server) streamClosed() {
	if s.metrics != nil {
		s.metrics.ActiveStreams.Dec()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>NullVoyager API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`
