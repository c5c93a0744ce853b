package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
)

var _ output.EventSink = (*Writer)(nil)

var ErrStreamingUnsupported = errors.New("streaming is unsupported by response writer")

const doneFrame = "data: [DONE]\n\n"

// Writer emits the chat stream as server-sent events:
//
//	data: {"content":"..."}
//	data: {"error":"..."}
//	data: [DONE]
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &Writer{w: w, flusher: flusher}, nil
}

func (s *Writer) Delta(content string) error {
	return s.event(struct {
		Content string `json:"content"`
	}{content})
}

func (s *Writer) Error(message string) error {
	return s.event(struct {
		Error string `json:"error"`
	}{message})
}

func (s *Writer) Done() error {
	return s.write(doneFrame)
}

func (s *Writer) event(payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return s.write("data: " + string(raw) + "\n\n")
}

func (s *Writer) write(frame string) error {
	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}
	if _, err := fmt.Fprint(s.w, frame); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
