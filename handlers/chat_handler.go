package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/senagpt/senagpt/chatstore"
	"github.com/senagpt/senagpt/services/llm_service"
)

// systemPersona scopes every chat answer; prepended to the caller's
// messages.
const systemPersona = `Du bist Sena GPT, ein hilfreicher KI-Assistent.

Deine Eigenschaften:
- Du antwortest immer auf Deutsch, es sei denn, der Benutzer schreibt explizit in einer anderen Sprache
- Du bist professionell, freundlich und präzise
- Du hilfst bei allgemeinen Fragen, Textverarbeitung, Analysen und kreativen Aufgaben
- Bei sensiblen oder vertraulichen Themen weist du darauf hin, dass du keine echten Unternehmensdaten hast
- Du formatierst deine Antworten übersichtlich mit Markdown wenn sinnvoll`

type incomingMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Messages []incomingMessage `json:"messages"`
	ChatID   string            `json:"chatId"`
}

// ChatCompletionHandler streams a plain (non-document) chat completion.
type ChatCompletionHandler struct {
	logger *slog.Logger
	relay  *completionRelay
}

func NewChatCompletionHandler(chat llm_service.ChatService, store chatstore.Store, logger *slog.Logger) *ChatCompletionHandler {
	return &ChatCompletionHandler{
		logger: logger,
		relay:  &completionRelay{chat: chat, store: store, logger: logger},
	}
}

func (h *ChatCompletionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req chatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Messages) == 0 {
		writeJSONError(w, "Messages are required", http.StatusBadRequest)
		return
	}

	messages := make([]llm_service.ChatMessage, 0, len(req.Messages)+1)
	messages = append(messages, llm_service.TextMessage("system", systemPersona))

	var firstUserMessage string
	for _, m := range req.Messages {
		if firstUserMessage == "" && m.Role == "user" {
			firstUserMessage = m.Content
		}
		messages = append(messages, llm_service.TextMessage(m.Role, m.Content))
	}

	h.relay.run(w, r, messages, relayOptions{chatID: req.ChatID, titleSource: firstUserMessage})
}
