package llm_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

type OpenAIImageService struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiURL     string
	apiKey     string
	model      string
}

func NewOpenAIImageService(apiURL, apiKey, model string, logger *slog.Logger) *OpenAIImageService {
	return &OpenAIImageService{
		httpClient: &http.Client{Timeout: 300 * time.Second},
		logger:     logger,
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
	}
}

func (s *OpenAIImageService) GenerateImage(ctx context.Context, prompt, size, quality string) (ImageResult, error) {
	maxRetries := 3
	retryDelay := 5 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, err := s.generateImage(ctx, prompt, size, quality)
		if err == nil {
			return result, nil
		}

		if httpErr, ok := err.(*OpenAIHttpError); ok {
			if httpErr.StatusCode == 429 {
				s.logger.Error("OpenAI Image API quota exceeded",
					slog.String("error_type", httpErr.ErrorType),
					slog.String("error_message", httpErr.Message),
					slog.Int("status_code", httpErr.StatusCode))
				return ImageResult{}, fmt.Errorf("OpenAI Image quota exceeded: %s (Type: %s)", httpErr.Message, httpErr.ErrorType)
			}

			s.logger.Error("OpenAI Image API error",
				slog.Int("attempt", attempt),
				slog.Int("status_code", httpErr.StatusCode),
				slog.String("error_type", httpErr.ErrorType),
				slog.String("error_message", httpErr.Message))
		}

		if attempt == maxRetries {
			s.logger.Error("Error calling OpenAI Image API after multiple attempts",
				slog.Int("attempts", maxRetries),
				slog.String("error", err.Error()))
			return ImageResult{}, fmt.Errorf("failed to call OpenAI Image API after %d attempts: %w", maxRetries, err)
		}

		s.logger.Warn("Attempt failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("retry_delay", retryDelay),
			slog.String("error", err.Error()))

		time.Sleep(retryDelay)
	}

	return ImageResult{}, fmt.Errorf("failed to call OpenAI Image API after exhausting all retry attempts")
}

func (s *OpenAIImageService) generateImage(ctx context.Context, prompt, size, quality string) (ImageResult, error) {
	if size == "" {
		size = "1024x1024"
	}
	if quality == "" {
		quality = "standard"
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model":   s.model,
		"prompt":  prompt,
		"n":       1,
		"size":    size,
		"quality": quality,
	})
	if err != nil {
		return ImageResult{}, fmt.Errorf("error marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return ImageResult{}, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return ImageResult{}, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ImageResult{}, newHTTPError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ImageResult{}, fmt.Errorf("error reading response body: %w", err)
	}

	var result struct {
		Data []struct {
			URL           string `json:"url"`
			RevisedPrompt string `json:"revised_prompt"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return ImageResult{}, fmt.Errorf("error unmarshaling response: %w", err)
	}

	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return ImageResult{}, fmt.Errorf("image URL not found in OpenAI Image API response")
	}

	return ImageResult{
		URL:           result.Data[0].URL,
		RevisedPrompt: result.Data[0].RevisedPrompt,
	}, nil
}
