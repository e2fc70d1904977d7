package perception

import (
	"fmt"

	"sentinel/internal/config"
)

// defaultCandidateOrder is probed when no explicit provider list is
// configured.
var defaultCandidateOrder = []Provider{ProviderOllama, ProviderLlamaCpp, ProviderPipeline}

// NewAdapter constructs one adapter kind from config.
func NewAdapter(kind Provider, cfg *config.Config) (Adapter, error) {
	timeout := cfg.LocalTimeout()
	switch kind {
	case ProviderOllama:
		return NewOllamaAdapter(OllamaConfig{
			Host:    cfg.Local.OllamaHost,
			Model:   cfg.Local.Model,
			Timeout: timeout,
		}), nil
	case ProviderLlamaCpp:
		return NewLlamaCppAdapter(LlamaCppConfig{
			BaseURL: cfg.Local.LlamaCppURL,
			Model:   cfg.Local.Model,
			Timeout: timeout,
		}), nil
	case ProviderPipeline:
		return NewPipelineAdapter(PipelineConfig{
			BaseURL: cfg.Local.PipelineURL,
			Timeout: timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s (valid: %s, %s, %s)",
			kind, ProviderOllama, ProviderLlamaCpp, ProviderPipeline)
	}
}

// NewRouterFromConfig builds the router over the configured candidate
// order; unknown names are skipped rather than fatal so one typo does
// not disable the whole chain.
func NewRouterFromConfig(cfg *config.Config) *Router {
	order := defaultCandidateOrder
	if len(cfg.Local.Providers) > 0 {
		order = order[:0:0]
		for _, name := range cfg.Local.Providers {
			order = append(order, Provider(name))
		}
	}

	var adapters []Adapter
	for _, kind := range order {
		adapter, err := NewAdapter(kind, cfg)
		if err != nil {
			continue
		}
		adapters = append(adapters, adapter)
	}
	return NewRouter(adapters...)
}

// NewCloudClientFromConfig builds the cloud client from config.
func NewCloudClientFromConfig(cfg *config.Config) *CloudClient {
	return NewCloudClient(CloudClientConfig{
		APIKey:  cfg.Cloud.APIKey,
		BaseURL: cfg.Cloud.BaseURL,
		Model:   cfg.Cloud.Model,
		Timeout: cfg.CloudTimeout(),
	})
}
