package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/senagpt/senagpt/chatstore"
	"github.com/senagpt/senagpt/services/llm_service"
)

const defaultImagePrompt = "What is in this image?"

type generateImageRequest struct {
	Prompt  string `json:"prompt"`
	ChatID  string `json:"chatId"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
}

// GenerateImageHandler produces one image from a prompt; this is the only
// non-streaming completion endpoint.
type GenerateImageHandler struct {
	logger *slog.Logger
	images llm_service.ImageService
	store  chatstore.Store
}

func NewGenerateImageHandler(images llm_service.ImageService, store chatstore.Store, logger *slog.Logger) *GenerateImageHandler {
	return &GenerateImageHandler{
		logger: logger,
		images: images,
		store:  store,
	}
}

func (h *GenerateImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req generateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Prompt == "" {
		writeJSONError(w, "Prompt is required", http.StatusBadRequest)
		return
	}

	result, err := h.images.GenerateImage(r.Context(), req.Prompt, req.Size, req.Quality)
	if err != nil {
		h.logger.Error("Image generation failed",
			slog.String("error", err.Error()))
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if req.ChatID != "" {
		record, _ := json.Marshal(map[string]string{
			"type":          "image",
			"url":           result.URL,
			"prompt":        req.Prompt,
			"revisedPrompt": result.RevisedPrompt,
		})
		if err := h.store.CreateMessage(r.Context(), req.ChatID, "assistant", string(record)); err != nil {
			h.logger.Error("Failed to persist image message",
				slog.String("chat_id", req.ChatID),
				slog.String("error", err.Error()))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data": map[string]string{
			"url":           result.URL,
			"revisedPrompt": result.RevisedPrompt,
		},
	})
}

type analyzeImageRequest struct {
	ImageURL    string `json:"imageUrl"`
	ImageBase64 string `json:"imageBase64"`
	Prompt      string `json:"prompt"`
	ChatID      string `json:"chatId"`
}

// AnalyzeImageHandler streams a vision completion over one supplied image.
type AnalyzeImageHandler struct {
	logger *slog.Logger
	relay  *completionRelay
}

func NewAnalyzeImageHandler(chat llm_service.ChatService, store chatstore.Store, logger *slog.Logger) *AnalyzeImageHandler {
	return &AnalyzeImageHandler{
		logger: logger,
		relay:  &completionRelay{chat: chat, store: store, logger: logger},
	}
}

func (h *AnalyzeImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req analyzeImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ImageURL == "" && req.ImageBase64 == "" {
		writeJSONError(w, "Image URL or base64 is required", http.StatusBadRequest)
		return
	}

	imageURL := req.ImageURL
	if req.ImageBase64 != "" {
		imageURL = "data:image/jpeg;base64," + req.ImageBase64
	}

	prompt := req.Prompt
	if prompt == "" {
		prompt = defaultImagePrompt
	}

	messages := []llm_service.ChatMessage{
		{
			Role: "user",
			Content: []llm_service.ContentPart{
				llm_service.TextPart(prompt),
				llm_service.ImagePart(imageURL),
			},
		},
	}

	h.relay.run(w, r, messages, relayOptions{chatID: req.ChatID})
}
