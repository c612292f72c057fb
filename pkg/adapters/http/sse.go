package http

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// eventWriter writes server-sent events and flushes after each one.
type eventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newEventWriter(w http.ResponseWriter) (*eventWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &eventWriter{w: w, flusher: flusher}, true
}

func (e *eventWriter) raw(event, data string) {
	if event != "" {
		fmt.Fprintf(e.w, "event: %s\n", event)
	}
	fmt.Fprintf(e.w, "data: %s\n\n", data)
	e.flusher.Flush()
}

func (e *eventWriter) json(event string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e.raw(event, string(b))
	return nil
}
