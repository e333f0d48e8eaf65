package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// sseStream writes server-sent-events frames the chat clients parse
// line-by-line: every frame is `data: <json>\n\n`, the end-of-stream
// sentinel is the literal `data: [DONE]\n\n`. Each frame is flushed
// individually so deltas reach the client without buffering delay.
type sseStream struct {
	w           http.ResponseWriter
	flusher     http.Flusher
	headersSent bool
	sentAny     bool
}

func newSSEStream(w http.ResponseWriter) (*sseStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	return &sseStream{w: w, flusher: flusher}, nil
}

func (s *sseStream) begin() {
	if s.headersSent {
		return
	}
	s.w.Header().Set("Content-Type", "text/event-stream")
	s.w.Header().Set("Cache-Control", "no-cache")
	s.w.Header().Set("Connection", "keep-alive")
	s.headersSent = true
}

func (s *sseStream) writeFrame(payload string) error {
	s.begin()
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteContent forwards one text delta.
func (s *sseStream) WriteContent(content string) error {
	data, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}
	if err := s.writeFrame(string(data)); err != nil {
		return err
	}
	s.sentAny = true
	return nil
}

// WriteError delivers a terminal error as one more frame in the open stream.
func (s *sseStream) WriteError(message string) error {
	data, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return err
	}
	return s.writeFrame(string(data))
}

// WriteDone emits the end-of-stream sentinel.
func (s *sseStream) WriteDone() error {
	return s.writeFrame("[DONE]")
}
