package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nullvoyager/voyager/internal/runtime"
	"github.com/nullvoyager/voyager/pkg/domain"
)

const msgModelUnavailable = "model unavailable"

// doneEvent closes an SSE chat stream.
type doneEvent struct {
	SessionID string               `json:"sessionId"`
	Steps     int                  `json:"steps"`
	Truncated bool                 `json:"truncated,omitempty"`
	State     *domain.VoyagerState `json:"state,omitempty"`
}

// Chat handles ALL /agent/chat and /agent/chat/{sessionId}.
// The reply is streamed as plain text, or as server-sent events when the client accepts them.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	w.Header().Set(SessionIDHeader, sessionID)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	messages, err := decodeMessages(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		s.logger.Warn("invalid chat request body", "session_id", sessionID, "err", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(messages) == 0 {
		http.Error(w, runtime.ErrNoMessages.Error(), http.StatusBadRequest)
		return
	}

	s.streamOpened()
	defer s.streamClosed()

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		s.chatEvents(w, r, sessionID, messages)
		return
	}
	s.chatText(w, r, sessionID, messages)
}

func (s *Server) chatText(w http.ResponseWriter, r *http.Request, sessionID string, messages []domain.Message) {
	sink := &textSink{w: w}
	sink.flusher, _ = w.(http.Flusher)

	_, err := s.Engine.ProcessMessage(r.Context(), sessionID, messages, sink)
	if err != nil {
		s.turnFailed(r.Context(), sessionID, err)
		if !sink.started {
			http.Error(w, msgModelUnavailable, http.StatusBadGateway)
		}
		return
	}
	sink.start()
}

func (s *Server) chatEvents(w http.ResponseWriter, r *http.Request, sessionID string, messages []domain.Message) {
	events, ok := newEventWriter(w)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	sink := &eventSink{events: events}

	res, err := s.Engine.ProcessMessage(r.Context(), sessionID, messages, sink)
	if err != nil {
		s.turnFailed(r.Context(), sessionID, err)
		if !sink.started {
			http.Error(w, msgModelUnavailable, http.StatusBadGateway)
			return
		}
		_ = events.json("error", map[string]string{"error": msgModelUnavailable})
		return
	}
	sink.started = true
	_ = events.json("done", doneEvent{
		SessionID: sessionID,
		Steps:     res.Steps,
		Truncated: res.Truncated,
		State:     res.State,
	})
}

func (s *Server) turnFailed(ctx context.Context, sessionID string, err error) {
	if errors.Is(err, context.Canceled) {
		s.logger.Info("chat client disconnected", "session_id", sessionID)
		return
	}
	s.logger.Error("chat turn failed", "session_id", sessionID, "err", err)
}

// decodeMessages accepts {"messages": [...]} or a bare list of messages.
func decodeMessages(body io.Reader) ([]domain.Message, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '[' {
		var list []domain.Message
		err := json.Unmarshal(data, &list)
		return list, err
	}
	var req struct {
		Messages []domain.Message `json:"messages"`
	}
	err = json.Unmarshal(data, &req)
	return req.Messages, err
}

// textSink writes assistant text as it arrives. Tool events are not part of the text stream.
type textSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (t *textSink) start() {
	if t.started {
		return
	}
	t.started = true
	t.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	t.w.WriteHeader(http.StatusOK)
}

func (t *textSink) Text(delta string) {
	if delta == "" {
		return
	}
	t.start()
	_, _ = io.WriteString(t.w, delta)
	if t.flusher != nil {
		t.flusher.Flush()
	}
}

func (t *textSink) Tool(domain.ToolInvocation) {}

type eventSink struct {
	events  *eventWriter
	started bool
}

func (e *eventSink) Text(delta string) {
	if delta == "" {
		return
	}
	e.started = true
	_ = e.events.json("text", map[string]string{"text": delta})
}

func (e *eventSink) Tool(inv domain.ToolInvocation) {
	e.started = true
	_ = e.events.json("tool", inv)
}
