package llm_service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

// sseServer answers every completion request with the given SSE lines.
func sseServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization header = %q", r.Header.Get("Authorization"))
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Request body is not JSON: %v", err)
		}
		if body["stream"] != true {
			t.Errorf("Request did not ask for streaming: %v", body)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n\n", line)
		}
	}))
}

func contentChunk(content string) string {
	return fmt.Sprintf(`data: {"choices":[{"delta":{"content":%q}}]}`, content)
}

func TestStreamChatCompletion(t *testing.T) {
	srv := sseServer(t, []string{
		contentChunk("Hel"),
		contentChunk("lo"),
		`data: {"choices":[{"delta":{}}]}`, // role-only chunk, no content
		contentChunk("!"),
		"data: [DONE]",
	})
	defer srv.Close()

	s := NewOpenAIService(srv.URL, "test-key", "gpt-4o", zap.NewNop())

	var deltas []string
	full, err := s.StreamChatCompletion(context.Background(), []ChatMessage{TextMessage("user", "Hi")}, func(delta string) error {
		deltas = append(deltas, delta)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamChatCompletion error: %v", err)
	}

	if full != "Hello!" {
		t.Errorf("Accumulated answer = %q, want %q", full, "Hello!")
	}
	want := []string{"Hel", "lo", "!"}
	if len(deltas) != len(want) {
		t.Fatalf("Got %d deltas, want %d", len(deltas), len(want))
	}
	for i := range want {
		if deltas[i] != want[i] {
			t.Errorf("Delta %d = %q, want %q", i, deltas[i], want[i])
		}
	}
}

func TestStreamChatCompletionSkipsMalformedChunks(t *testing.T) {
	srv := sseServer(t, []string{
		contentChunk("A"),
		"data: {not json}",
		contentChunk("B"),
		"data: [DONE]",
	})
	defer srv.Close()

	s := NewOpenAIService(srv.URL, "test-key", "gpt-4o", zap.NewNop())

	full, err := s.StreamChatCompletion(context.Background(), []ChatMessage{TextMessage("user", "Hi")}, func(string) error { return nil })
	if err != nil {
		t.Fatalf("StreamChatCompletion error: %v", err)
	}
	if full != "AB" {
		t.Errorf("Accumulated answer = %q, want %q", full, "AB")
	}
}

func TestStreamChatCompletionUpstreamErrorEvent(t *testing.T) {
	srv := sseServer(t, []string{
		contentChunk("partial "),
		`data: {"error":{"message":"The server is overloaded"}}`,
	})
	defer srv.Close()

	s := NewOpenAIService(srv.URL, "test-key", "gpt-4o", zap.NewNop())

	full, err := s.StreamChatCompletion(context.Background(), []ChatMessage{TextMessage("user", "Hi")}, func(string) error { return nil })
	if err == nil {
		t.Fatal("Expected an error for an upstream error event")
	}
	if full != "partial " {
		t.Errorf("Partial accumulation = %q, want %q", full, "partial ")
	}
}

func TestStreamChatCompletionNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	s := NewOpenAIService(srv.URL, "bad-key", "gpt-4o", zap.NewNop())

	_, err := s.StreamChatCompletion(context.Background(), []ChatMessage{TextMessage("user", "Hi")}, func(string) error { return nil })

	var httpErr *OpenAIHttpError
	if !errors.As(err, &httpErr) {
		t.Fatalf("error = %v, want OpenAIHttpError", err)
	}
	if httpErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", httpErr.StatusCode)
	}
	if httpErr.Message != "Incorrect API key provided" {
		t.Errorf("Message = %q", httpErr.Message)
	}
}

func TestStreamChatCompletionConsumerGone(t *testing.T) {
	srv := sseServer(t, []string{
		contentChunk("one"),
		contentChunk("two"),
		contentChunk("three"),
		"data: [DONE]",
	})
	defer srv.Close()

	s := NewOpenAIService(srv.URL, "test-key", "gpt-4o", zap.NewNop())

	gone := errors.New("client disconnected")
	calls := 0
	full, err := s.StreamChatCompletion(context.Background(), []ChatMessage{TextMessage("user", "Hi")}, func(string) error {
		calls++
		if calls == 2 {
			return gone
		}
		return nil
	})

	if !errors.Is(err, gone) {
		t.Fatalf("error = %v, want the consumer's error", err)
	}
	if full != "onetwo" {
		t.Errorf("Accumulation at abandonment = %q, want %q", full, "onetwo")
	}
	if calls != 2 {
		t.Errorf("onDelta called %d times, want 2", calls)
	}
}
