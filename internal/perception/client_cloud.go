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

// CloudClient is the remote chat-completion client used for text that
// classifies public. Network and API errors are returned as ordinary
// errors so the interpreter can fall back to the local path; nothing is
// retried here.
type CloudClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// CloudClientConfig holds configuration for the cloud client.
type CloudClientConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultCloudClientConfig returns sensible defaults.
func DefaultCloudClientConfig(apiKey string) CloudClientConfig {
	return CloudClientConfig{
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-3.5-turbo",
		Timeout: 120 * time.Second,
	}
}

// NewCloudClient creates a cloud client with custom config.
func NewCloudClient(config CloudClientConfig) *CloudClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Model == "" {
		config.Model = "gpt-3.5-turbo"
	}
	if config.Timeout <= 0 {
		config.Timeout = 120 * time.Second
	}
	return &CloudClient{
		apiKey:  config.APIKey,
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		model:   config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Configured reports whether an API key is present.
func (c *CloudClient) Configured() bool { return c != nil && c.apiKey != "" }

// Model returns the configured completion model.
func (c *CloudClient) Model() string { return c.model }

// cloudRequest is the chat-completions request shape.
type cloudRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

// cloudResponse is the chat-completions response shape.
type cloudResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends a bare user prompt and returns the completion.
func (c *CloudClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return c.chat(ctx, nil, prompt, maxTokens, 0)
}

// Interpret sends the instruction-to-JSON system prompt with a sanitized
// instruction and returns the raw JSON text of the reply.
func (c *CloudClient) Interpret(ctx context.Context, systemPrompt, sanitizedInstruction string) (string, error) {
	system := []chatMessage{{Role: "system", Content: systemPrompt}}
	return c.chat(ctx, system, sanitizedInstruction, 400, 0)
}

func (c *CloudClient) chat(ctx context.Context, system []chatMessage, userPrompt string, maxTokens int, temperature float64) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("API key not configured")
	}

	messages := append(append([]chatMessage{}, system...), chatMessage{Role: "user", Content: userPrompt})
	reqBody := cloudRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	logging.PerceptionDebug("[cloud] chat: model=%s user_len=%d max_tokens=%d", c.model, len(userPrompt), maxTokens)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed cloudResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
