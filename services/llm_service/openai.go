package llm_service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type OpenAIService struct {
	httpClient *http.Client
	logger     *zap.Logger
	apiURL     string
	apiKey     string
	model      string
}

func NewOpenAIService(apiURL, apiKey, model string, logger *zap.Logger) *OpenAIService {
	return &OpenAIService{
		httpClient: &http.Client{Timeout: 300 * time.Second},
		logger:     logger,
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
	}
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// StreamChatCompletion issues a streaming completion request and relays each
// text delta through onDelta as soon as it is read, with no read-ahead. The
// accumulated answer is returned alongside any terminal error; on a
// mid-stream failure the partial accumulation is still returned so the
// caller can decide what to do with it.
func (s *OpenAIService) StreamChatCompletion(ctx context.Context, messages []ChatMessage, onDelta func(delta string) error) (string, error) {
	requestBody, err := json.Marshal(map[string]interface{}{
		"model":    s.model,
		"messages": messages,
		"stream":   true,
	})
	if err != nil {
		return "", fmt.Errorf("error marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		httpErr := newHTTPError(resp)
		s.logger.Error("OpenAI chat completion request rejected",
			zap.Int("status_code", httpErr.StatusCode),
			zap.String("error_type", httpErr.ErrorType),
			zap.String("error_message", httpErr.Message))
		return "", httpErr
	}

	var fullContent strings.Builder

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}

		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			s.logger.Warn("Skipping malformed stream chunk",
				zap.String("payload", payload),
				zap.Error(err))
			continue
		}

		if chunk.Error != nil {
			s.logger.Error("Upstream error event in completion stream",
				zap.String("error_message", chunk.Error.Message))
			return fullContent.String(), fmt.Errorf("upstream stream error: %s", chunk.Error.Message)
		}

		if len(chunk.Choices) == 0 {
			continue
		}

		content := chunk.Choices[0].Delta.Content
		if content == "" {
			continue
		}

		fullContent.WriteString(content)
		if err := onDelta(content); err != nil {
			s.logger.Warn("Delta consumer gone, abandoning stream",
				zap.Error(err))
			return fullContent.String(), err
		}
	}

	if err := scanner.Err(); err != nil {
		s.logger.Error("Completion stream read failed",
			zap.Int("accumulated_length", fullContent.Len()),
			zap.Error(err))
		return fullContent.String(), fmt.Errorf("error reading completion stream: %w", err)
	}

	return fullContent.String(), nil
}
