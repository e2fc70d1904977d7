// Package perception implements the inference backends: three local
// provider adapters behind one interface, the router that probes them
// lazily in order and caches the first one that initializes, and the
// cloud chat-completion client used for public text.
package perception

import (
	"context"
	"errors"
)

// Provider identifies one concrete local inference backend.
type Provider string

const (
	// ProviderOllama talks to a remote ollama daemon over its chat API.
	ProviderOllama Provider = "ollama"
	// ProviderLlamaCpp talks to a llama.cpp server exposing the
	// OpenAI-compatible completion surface over local weights.
	ProviderLlamaCpp Provider = "llama_cpp"
	// ProviderPipeline talks to a pretrained text-generation pipeline
	// server; replies echo the prompt and must be split at the
	// assistant delimiter.
	ProviderPipeline Provider = "transformers"
)

// ErrUnavailable is returned by the router when no local backend could
// be initialized.
var ErrUnavailable = errors.New("no local inference backend available")

// Adapter is one interchangeable local inference backend. Init probes
// the backend; Generate produces a single reply. Transport and parse
// failures are returned as errors, never panicked, so the router can
// fall through to the next candidate.
type Adapter interface {
	Provider() Provider

	// Init verifies the backend is reachable and ready. Called once by
	// the router during probing; a failure removes this candidate for
	// the rest of the process (until an explicit re-initialize).
	Init(ctx context.Context) error

	// Generate normalizes a two-message (system, user) exchange into
	// the backend's call shape and extracts a single reply string.
	Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)

	// Descriptor returns a human-readable model descriptor for
	// diagnostics (model name, weights path, endpoint).
	Descriptor() string
}

// chatMessage is the wire shape shared by the chat-style backends.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
