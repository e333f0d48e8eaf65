package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/senagpt/senagpt/chatstore"
	"github.com/senagpt/senagpt/services/llm_service"
)

// completionRelay drives one upstream completion call: it forwards every
// delta to the client as an SSE frame the moment it arrives, accumulates the
// full answer, and on clean completion persists it. One fold over the delta
// sequence produces both effects, so accumulation is testable without a live
// transport.
type completionRelay struct {
	chat   llm_service.ChatService
	store  chatstore.Store
	logger *slog.Logger
}

type relayOptions struct {
	chatID string
	// titleSource is the first user message of the session; when the
	// completed answer turns out to be the session's first assistant
	// reply, the chat title is derived from it. Empty disables title
	// inference.
	titleSource string
}

func (c *completionRelay) run(w http.ResponseWriter, r *http.Request, messages []llm_service.ChatMessage, opts relayOptions) {
	stream, err := newSSEStream(w)
	if err != nil {
		writeJSONError(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	clientGone := false
	fullContent, err := c.chat.StreamChatCompletion(r.Context(), messages, func(delta string) error {
		if werr := stream.WriteContent(delta); werr != nil {
			clientGone = true
			return werr
		}
		return nil
	})

	if err != nil {
		if clientGone {
			// Nothing more can be written; drop the partial answer.
			c.logger.Warn("Client disconnected mid-stream",
				slog.String("chat_id", opts.chatID),
				slog.Int("partial_length", len(fullContent)))
			return
		}
		if !stream.sentAny {
			// Pre-stream failure: the connection is still usable for a
			// normal structured error reply.
			c.logger.Error("Completion failed before streaming started",
				slog.String("chat_id", opts.chatID),
				slog.String("error", err.Error()))
			writeJSONError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		// Mid-stream failure: the stream framing is already committed, so
		// the error travels as one terminal frame. Partial content is not
		// persisted.
		c.logger.Error("Completion failed mid-stream",
			slog.String("chat_id", opts.chatID),
			slog.Int("partial_length", len(fullContent)),
			slog.String("error", err.Error()))
		if werr := stream.WriteError(err.Error()); werr != nil {
			c.logger.Warn("Failed to deliver terminal error frame",
				slog.String("error", werr.Error()))
		}
		return
	}

	c.persist(r.Context(), opts, fullContent)

	if werr := stream.WriteDone(); werr != nil {
		c.logger.Warn("Failed to write stream end sentinel",
			slog.String("error", werr.Error()))
	}
}

// persist saves the accumulated answer as an assistant message and, for the
// session's first assistant reply, derives the chat title. Failures here are
// soft: the answer already reached the client, so they are logged only.
func (c *completionRelay) persist(ctx context.Context, opts relayOptions, fullContent string) {
	if opts.chatID == "" || fullContent == "" {
		return
	}

	if err := c.store.CreateMessage(ctx, opts.chatID, "assistant", fullContent); err != nil {
		c.logger.Error("Failed to persist assistant message",
			slog.String("chat_id", opts.chatID),
			slog.String("error", err.Error()))
		return
	}

	if opts.titleSource == "" {
		return
	}

	count, err := c.store.MessageCount(ctx, opts.chatID)
	if err != nil {
		c.logger.Error("Failed to count chat messages",
			slog.String("chat_id", opts.chatID),
			slog.String("error", err.Error()))
		return
	}
	if count > 2 {
		return
	}

	title, err := c.store.ChatTitle(ctx, opts.chatID)
	if err != nil {
		c.logger.Error("Failed to load chat title",
			slog.String("chat_id", opts.chatID),
			slog.String("error", err.Error()))
		return
	}
	if title != chatstore.DefaultChatTitle {
		return
	}

	if err := c.store.UpdateChatTitle(ctx, opts.chatID, chatstore.DeriveTitle(opts.titleSource)); err != nil {
		c.logger.Error("Failed to update chat title",
			slog.String("chat_id", opts.chatID),
			slog.String("error", err.Error()))
	}
}
