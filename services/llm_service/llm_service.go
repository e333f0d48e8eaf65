package llm_service

import "context"

// ChatService streams a chat completion: each text delta is handed to
// onDelta as soon as it arrives, and the accumulated answer is returned when
// the stream ends. If onDelta returns an error (the client went away), the
// relay stops consuming and returns what was accumulated so far.
type ChatService interface {
	StreamChatCompletion(ctx context.Context, messages []ChatMessage, onDelta func(delta string) error) (string, error)
}

// ImageService generates one image from a prompt.
type ImageService interface {
	GenerateImage(ctx context.Context, prompt, size, quality string) (ImageResult, error)
}

type ImageResult struct {
	URL           string
	RevisedPrompt string
}

// ChatMessage is one role-tagged entry in a completion request. Content is
// either a plain string or a []ContentPart for multimodal messages.
type ChatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

func TextMessage(role, text string) ChatMessage {
	return ChatMessage{Role: role, Content: text}
}

func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

func ImagePart(url string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: url}}
}
