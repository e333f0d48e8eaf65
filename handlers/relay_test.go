package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/senagpt/senagpt/services/llm_service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type storedMessage struct {
	chatID  string
	role    string
	content string
}

type fakeStore struct {
	messages     []storedMessage
	createErr    error
	count        int
	countErr     error
	title        string
	titleErr     error
	updatedTitle string
}

func (s *fakeStore) CreateMessage(ctx context.Context, chatID, role, content string) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.messages = append(s.messages, storedMessage{chatID: chatID, role: role, content: content})
	return nil
}

func (s *fakeStore) MessageCount(ctx context.Context, chatID string) (int, error) {
	return s.count, s.countErr
}

func (s *fakeStore) ChatTitle(ctx context.Context, chatID string) (string, error) {
	return s.title, s.titleErr
}

func (s *fakeStore) UpdateChatTitle(ctx context.Context, chatID, title string) error {
	s.updatedTitle = title
	return nil
}

// sseFrames splits a recorded response body into its frame payloads.
func sseFrames(t *testing.T, body string) []string {
	t.Helper()
	var frames []string
	for _, chunk := range strings.Split(body, "\n\n") {
		if chunk == "" {
			continue
		}
		if !strings.HasPrefix(chunk, "data: ") {
			t.Fatalf("Malformed frame %q", chunk)
		}
		frames = append(frames, strings.TrimPrefix(chunk, "data: "))
	}
	return frames
}

func contentOf(t *testing.T, frame string) string {
	t.Helper()
	var payload map[string]string
	if err := json.Unmarshal([]byte(frame), &payload); err != nil {
		t.Fatalf("Frame %q is not JSON: %v", frame, err)
	}
	return payload["content"]
}

func TestRelayStreamsAndPersists(t *testing.T) {
	chat := &llm_service.MockChatService{
		StreamChatCompletionFunc: func(ctx context.Context, messages []llm_service.ChatMessage, onDelta func(string) error) (string, error) {
			for _, delta := range []string{"Hel", "lo", "!"} {
				if err := onDelta(delta); err != nil {
					return "", err
				}
			}
			return "Hello!", nil
		},
	}
	store := &fakeStore{count: 2, title: "Quartalsbericht"}
	relay := &completionRelay{chat: chat, store: store, logger: discardLogger()}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/chat/completions", nil)
	relay.run(w, r, []llm_service.ChatMessage{llm_service.TextMessage("user", "Hi")}, relayOptions{chatID: "chat-1", titleSource: "Hi"})

	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}

	frames := sseFrames(t, w.Body.String())
	if len(frames) != 4 {
		t.Fatalf("Got %d frames, want 3 deltas plus [DONE]:\n%s", len(frames), w.Body.String())
	}
	for i, want := range []string{"Hel", "lo", "!"} {
		if got := contentOf(t, frames[i]); got != want {
			t.Errorf("Frame %d content = %q, want %q", i, got, want)
		}
	}
	if frames[3] != "[DONE]" {
		t.Errorf("Last frame = %q, want [DONE]", frames[3])
	}

	if len(store.messages) != 1 {
		t.Fatalf("Persisted %d messages, want 1", len(store.messages))
	}
	msg := store.messages[0]
	if msg.chatID != "chat-1" || msg.role != "assistant" || msg.content != "Hello!" {
		t.Errorf("Persisted message = %+v", msg)
	}
}

func TestRelayMidStreamError(t *testing.T) {
	chat := &llm_service.MockChatService{
		StreamChatCompletionFunc: func(ctx context.Context, messages []llm_service.ChatMessage, onDelta func(string) error) (string, error) {
			if err := onDelta("partial"); err != nil {
				return "", err
			}
			return "partial", errors.New("upstream closed the stream")
		},
	}
	store := &fakeStore{}
	relay := &completionRelay{chat: chat, store: store, logger: discardLogger()}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/chat/completions", nil)
	relay.run(w, r, []llm_service.ChatMessage{llm_service.TextMessage("user", "Hi")}, relayOptions{chatID: "chat-1"})

	frames := sseFrames(t, w.Body.String())
	if len(frames) != 2 {
		t.Fatalf("Got %d frames, want delta plus error frame:\n%s", len(frames), w.Body.String())
	}
	if got := contentOf(t, frames[0]); got != "partial" {
		t.Errorf("First frame content = %q, want %q", got, "partial")
	}

	var errFrame map[string]string
	if err := json.Unmarshal([]byte(frames[1]), &errFrame); err != nil {
		t.Fatalf("Error frame is not JSON: %v", err)
	}
	if errFrame["error"] != "upstream closed the stream" {
		t.Errorf("Error frame = %v", errFrame)
	}

	if strings.Contains(w.Body.String(), "[DONE]") {
		t.Error("Stream ended with [DONE] after a mid-stream error")
	}
	if len(store.messages) != 0 {
		t.Errorf("Partial answer was persisted: %+v", store.messages)
	}
}

func TestRelayPreStreamError(t *testing.T) {
	chat := &llm_service.MockChatService{
		StreamChatCompletionFunc: func(ctx context.Context, messages []llm_service.ChatMessage, onDelta func(string) error) (string, error) {
			return "", errors.New("invalid api key")
		},
	}
	store := &fakeStore{}
	relay := &completionRelay{chat: chat, store: store, logger: discardLogger()}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/chat/completions", nil)
	relay.run(w, r, []llm_service.ChatMessage{llm_service.TextMessage("user", "Hi")}, relayOptions{})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json for a pre-stream failure", got)
	}

	var payload map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("Body is not JSON: %v", err)
	}
	if payload["error"] != "invalid api key" {
		t.Errorf("Body = %v", payload)
	}
}

func TestRelayEmptyAnswerIsNotPersisted(t *testing.T) {
	chat := &llm_service.MockChatService{
		StreamChatCompletionFunc: func(ctx context.Context, messages []llm_service.ChatMessage, onDelta func(string) error) (string, error) {
			return "", nil
		},
	}
	store := &fakeStore{}
	relay := &completionRelay{chat: chat, store: store, logger: discardLogger()}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/chat/completions", nil)
	relay.run(w, r, []llm_service.ChatMessage{llm_service.TextMessage("user", "Hi")}, relayOptions{chatID: "chat-1"})

	frames := sseFrames(t, w.Body.String())
	if len(frames) != 1 || frames[0] != "[DONE]" {
		t.Errorf("Frames = %v, want only [DONE]", frames)
	}
	if len(store.messages) != 0 {
		t.Errorf("Empty answer was persisted: %+v", store.messages)
	}
}

func TestRelayTitleInference(t *testing.T) {
	longPrompt := strings.Repeat("Warum ", 20) // well past the title limit

	tests := []struct {
		name        string
		count       int
		title       string
		titleSource string
		wantUpdate  string
	}{
		{
			name:        "First exchange of a fresh chat gets a derived title",
			count:       2,
			title:       "Neuer Chat",
			titleSource: "Wie hoch ist der Umsatz?",
			wantUpdate:  "Wie hoch ist der Umsatz?",
		},
		{
			name:        "Long sources are truncated with an ellipsis",
			count:       2,
			title:       "Neuer Chat",
			titleSource: longPrompt,
			wantUpdate:  string([]rune(longPrompt)[:50]) + "...",
		},
		{
			name:        "Established chats keep their title",
			count:       7,
			title:       "Neuer Chat",
			titleSource: "Noch eine Frage",
			wantUpdate:  "",
		},
		{
			name:        "Renamed chats are never overwritten",
			count:       2,
			title:       "Umsatzanalyse",
			titleSource: "Wie hoch ist der Umsatz?",
			wantUpdate:  "",
		},
		{
			name:       "No title source disables inference",
			count:      2,
			title:      "Neuer Chat",
			wantUpdate: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &llm_service.MockChatService{
				StreamChatCompletionFunc: func(ctx context.Context, messages []llm_service.ChatMessage, onDelta func(string) error) (string, error) {
					if err := onDelta("Antwort"); err != nil {
						return "", err
					}
					return "Antwort", nil
				},
			}
			store := &fakeStore{count: tt.count, title: tt.title}
			relay := &completionRelay{chat: chat, store: store, logger: discardLogger()}

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/chat/completions", nil)
			relay.run(w, r, []llm_service.ChatMessage{llm_service.TextMessage("user", "Hi")}, relayOptions{chatID: "chat-1", titleSource: tt.titleSource})

			if store.updatedTitle != tt.wantUpdate {
				t.Errorf("Updated title = %q, want %q", store.updatedTitle, tt.wantUpdate)
			}
		})
	}
}
