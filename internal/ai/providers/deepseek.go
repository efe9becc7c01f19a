package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nexerp-ops/procmon-backend-go/internal/ai"
	"github.com/nexerp-ops/procmon-backend-go/internal/config"
	"github.com/sirupsen/logrus"
)

// DeepSeekProvider implements the Advisor interface against an
// OpenAI-compatible chat completions endpoint.
type DeepSeekProvider struct {
	config config.AdvisorConfig
	client *http.Client
	logger *logrus.Logger
}

// NewDeepSeekProvider creates a provider from the advisor configuration.
func NewDeepSeekProvider(cfg config.AdvisorConfig, logger *logrus.Logger) *DeepSeekProvider {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if cfg.URL == "" {
		cfg.URL = "https://api.deepseek.com/v1/chat/completions"
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek-chat"
	}

	return &DeepSeekProvider{
		config: cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (d *DeepSeekProvider) Name() string { return "deepseek" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Advise sends the prompt as a single user message and returns the first
// choice's content.
func (d *DeepSeekProvider) Advise(ctx context.Context, prompt string) (string, error) {
	payload := chatRequest{
		Model: d.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an assistant that tunes process monitoring rules. Answer concisely."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode advisor request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create advisor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.config.APIKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("advisor request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read advisor response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		d.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   truncate(string(data), 200),
		}).Warn("Advisor returned non-OK status")
		return "", fmt.Errorf("advisor returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode advisor response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("advisor error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", ai.ErrEmptyCompletion
	}

	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
