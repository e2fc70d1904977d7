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

// assistantDelimiter separates the echoed prompt from the reply in
// pipeline generations.
const assistantDelimiter = "Assistant:"

// PipelineAdapter implements Adapter against a pretrained
// text-generation pipeline server. The generation echoes the prompt, so
// the reply is whatever follows the assistant delimiter.
type PipelineAdapter struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// PipelineConfig holds configuration for the pipeline adapter.
type PipelineConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultPipelineConfig returns sensible defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		BaseURL: "http://127.0.0.1:8081",
		Timeout: 120 * time.Second,
	}
}

// NewPipelineAdapter creates an adapter with custom config.
func NewPipelineAdapter(config PipelineConfig) *PipelineAdapter {
	return &PipelineAdapter{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		model:   config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

func (a *PipelineAdapter) Provider() Provider { return ProviderPipeline }

// Descriptor returns the checkpoint descriptor reported at probe time,
// or a placeholder.
func (a *PipelineAdapter) Descriptor() string {
	if a.model != "" {
		return a.model
	}
	return "<unknown checkpoint>"
}

// pipelineInfo is the server's model info response.
type pipelineInfo struct {
	ModelID string `json:"model_id"`
}

// Init probes the pipeline server's info endpoint and picks up the
// checkpoint descriptor when the server reports one.
func (a *PipelineAdapter) Init(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/info", nil)
	if err != nil {
		return fmt.Errorf("pipeline probe: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pipeline server unreachable at %s: %w", a.baseURL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("pipeline probe read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pipeline server returned status %d", resp.StatusCode)
	}
	var info pipelineInfo
	if err := json.Unmarshal(body, &info); err == nil && info.ModelID != "" {
		a.model = info.ModelID
	}
	logging.Perception("[pipeline] server ready at %s, checkpoint=%s", a.baseURL, a.Descriptor())
	return nil
}

// pipelineRequest is the generation request shape.
type pipelineRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		MaxNewTokens int     `json:"max_new_tokens"`
		Temperature  float64 `json:"temperature,omitempty"`
		DoSample     bool    `json:"do_sample"`
	} `json:"parameters"`
}

// pipelineResponse carries the full generation including the echoed
// prompt.
type pipelineResponse struct {
	GeneratedText string `json:"generated_text"`
	Error         string `json:"error"`
}

// Generate flattens the exchange into a single prompt, sends it, and
// discards the echoed prompt from the generation.
func (a *PipelineAdapter) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	prompt := fmt.Sprintf("%s\n\nUser: %s\n%s",
		strings.TrimSpace(systemPrompt), strings.TrimSpace(userPrompt), assistantDelimiter)

	reqBody := pipelineRequest{Inputs: prompt}
	reqBody.Parameters.MaxNewTokens = maxTokens
	reqBody.Parameters.Temperature = temperature
	reqBody.Parameters.DoSample = temperature > 0

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pipeline request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pipeline returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed pipelineResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		// Some servers answer with a single-element array.
		var list []pipelineResponse
		if err2 := json.Unmarshal(body, &list); err2 != nil || len(list) == 0 {
			return "", fmt.Errorf("failed to parse response: %w", err)
		}
		parsed = list[0]
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("pipeline error: %s", parsed.Error)
	}
	generated := parsed.GeneratedText
	if generated == "" {
		return "", fmt.Errorf("pipeline reply contained no generation")
	}
	// Discard the echoed prompt; keep everything after the first
	// assistant delimiter.
	if idx := strings.Index(generated, assistantDelimiter); idx >= 0 {
		generated = generated[idx+len(assistantDelimiter):]
	}
	return strings.TrimSpace(generated), nil
}
