package perception

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sentinel/internal/logging"
)

// LlamaCppAdapter implements Adapter against a llama.cpp server holding
// local GGUF weights. The server speaks the OpenAI-compatible completion
// surface; the reply is extracted from a choices list.
type LlamaCppAdapter struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// LlamaCppConfig holds configuration for the llama.cpp adapter.
type LlamaCppConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultLlamaCppConfig returns sensible defaults.
func DefaultLlamaCppConfig() LlamaCppConfig {
	return LlamaCppConfig{
		BaseURL: "http://127.0.0.1:8080",
		Timeout: 120 * time.Second,
	}
}

// NewLlamaCppAdapter creates an adapter with custom config.
func NewLlamaCppAdapter(config LlamaCppConfig) *LlamaCppAdapter {
	return &LlamaCppAdapter{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		model:   config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

func (a *LlamaCppAdapter) Provider() Provider { return ProviderLlamaCpp }

// Descriptor returns the loaded weights descriptor, or a placeholder
// when the server did not report one.
func (a *LlamaCppAdapter) Descriptor() string {
	if a.model != "" {
		return a.model
	}
	return "<unknown GGUF>"
}

// llamaCppHealth is the server's health probe response.
type llamaCppHealth struct {
	Status string `json:"status"`
}

// Init checks the server health endpoint. A loading server counts as a
// failure so the router moves on instead of blocking on weights.
func (a *LlamaCppAdapter) Init(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("llama.cpp probe: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("llama.cpp server unreachable at %s: %w", a.baseURL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("llama.cpp probe read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("llama.cpp server returned status %d", resp.StatusCode)
	}
	var health llamaCppHealth
	if err := json.Unmarshal(body, &health); err == nil && health.Status != "" && health.Status != "ok" {
		return fmt.Errorf("llama.cpp server not ready: %s", health.Status)
	}
	logging.Perception("[llama.cpp] server ready at %s", a.baseURL)
	return nil
}

// llamaCppRequest is the OpenAI-compatible chat request shape.
type llamaCppRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

// llamaCppResponse carries the reply in a choices list, either as a chat
// message or a bare text completion.
type llamaCppResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends the exchange and extracts the first choice.
func (a *LlamaCppAdapter) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	reqBody := llamaCppRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llama.cpp request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llama.cpp returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed llamaCppResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llama.cpp error: %s", parsed.Error.Message)
	}
	for _, choice := range parsed.Choices {
		if choice.Message.Content != "" {
			return strings.TrimSpace(choice.Message.Content), nil
		}
		if choice.Text != "" {
			return strings.TrimSpace(choice.Text), nil
		}
	}
	return "", fmt.Errorf("llama.cpp reply contained no choices")
}
