package llm_service

import (
	"context"
)

type MockChatService struct {
	StreamChatCompletionFunc func(ctx context.Context, messages []ChatMessage, onDelta func(delta string) error) (string, error)
}

func (m *MockChatService) StreamChatCompletion(ctx context.Context, messages []ChatMessage, onDelta func(delta string) error) (string, error) {
	if m.StreamChatCompletionFunc != nil {
		return m.StreamChatCompletionFunc(ctx, messages, onDelta)
	}
	return "mock response", nil
}

type MockImageService struct {
	GenerateImageFunc func(ctx context.Context, prompt, size, quality string) (ImageResult, error)
}

func (m *MockImageService) GenerateImage(ctx context.Context, prompt, size, quality string) (ImageResult, error) {
	if m.GenerateImageFunc != nil {
		return m.GenerateImageFunc(ctx, prompt, size, quality)
	}
	return ImageResult{URL: "https://example.com/mock.png"}, nil
}
