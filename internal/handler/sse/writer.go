package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Writer writes Server-Sent Events frames and flushes after each one.
// It is not safe for concurrent use; the stream loop is its only caller.
type Writer struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// NewWriter sets the SSE headers and returns a writer. It fails when the
// response cannot be flushed incrementally.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	rc := http.NewResponseController(w)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)

	if err := rc.Flush(); err != nil {
		if errors.Is(err, http.ErrNotSupported) {
			return nil, fmt.Errorf("streaming unsupported: %w", err)
		}
		return nil, fmt.Errorf("initial flush failed: %w", err)
	}

	return &Writer{w: w, rc: rc}, nil
}

// WriteEvent writes one event with a JSON payload. A zero id omits the id line.
func (s *Writer) WriteEvent(id uint64, event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}

	if id > 0 {
		if _, err := fmt.Fprintf(s.w, "id: %d\n", id); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return s.rc.Flush()
}

// WriteKeepAlive writes an SSE comment (: keepalive) and flushes.
// Lines starting with ':' are ignored by EventSource clients.
func (s *Writer) WriteKeepAlive() error {
	if _, err := fmt.Fprint(s.w, ": keepalive\n\n"); err != nil {
		return fmt.Errorf("write keepalive failed: %w", err)
	}
	return s.rc.Flush()
}
