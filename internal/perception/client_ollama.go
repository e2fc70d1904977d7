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

// OllamaAdapter implements Adapter against a remote ollama daemon.
type OllamaAdapter struct {
	host       string
	model      string
	httpClient *http.Client
}

// OllamaConfig holds configuration for the ollama adapter.
type OllamaConfig struct {
	Host    string
	Model   string
	Timeout time.Duration
}

// DefaultOllamaConfig returns sensible defaults.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		Host:    "http://127.0.0.1:11434",
		Model:   "llama2",
		Timeout: 120 * time.Second,
	}
}

// NewOllamaAdapter creates an adapter with custom config.
func NewOllamaAdapter(config OllamaConfig) *OllamaAdapter {
	if config.Model == "" {
		config.Model = "llama2"
	}
	return &OllamaAdapter{
		host:  strings.TrimRight(config.Host, "/"),
		model: config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

func (a *OllamaAdapter) Provider() Provider { return ProviderOllama }

// Descriptor returns the model name served by the daemon.
func (a *OllamaAdapter) Descriptor() string { return a.model }

// Init checks that the daemon answers its tag listing. No model pull is
// attempted; a daemon without the model will fail at generation time and
// the router keeps the provider anyway.
func (a *OllamaAdapter) Init(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.host+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("ollama probe: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama daemon unreachable at %s: %w", a.host, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama daemon returned status %d", resp.StatusCode)
	}
	logging.Perception("[ollama] daemon reachable at %s, model=%s", a.host, a.model)
	return nil
}

// ollamaRequest is the daemon's chat request shape.
type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  struct {
		Temperature float64 `json:"temperature"`
		NumPredict  int     `json:"num_predict"`
	} `json:"options"`
}

// ollamaResponse is the daemon's chat response shape. The reply lives in
// a direct message field; older builds answer with a choices list.
type ollamaResponse struct {
	Message *struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
	Error string `json:"error"`
}

// Generate sends the two-message exchange and extracts the reply.
func (a *OllamaAdapter) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	reqBody := ollamaRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	reqBody.Options.Temperature = temperature
	reqBody.Options.NumPredict = maxTokens

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.host+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama error: %s", parsed.Error)
	}
	if parsed.Message != nil && parsed.Message.Content != "" {
		return strings.TrimSpace(parsed.Message.Content), nil
	}
	for _, choice := range parsed.Choices {
		if choice.Message.Content != "" {
			return strings.TrimSpace(choice.Message.Content), nil
		}
		if choice.Text != "" {
			return strings.TrimSpace(choice.Text), nil
		}
	}
	return "", fmt.Errorf("ollama reply contained no content")
}
