// Package config holds all sentinel configuration. Config is loaded from
// a yaml file, then overlaid with environment variables so deployments
// can keep API keys out of files.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all sentinel configuration.
type Config struct {
	// Core settings
	Name     string `yaml:"name"`
	StateDir string `yaml:"state_dir"`

	// Cloud completion endpoint
	Cloud CloudConfig `yaml:"cloud"`

	// Local inference chain
	Local LocalConfig `yaml:"local"`

	// Privacy pattern bank
	Privacy PrivacyConfig `yaml:"privacy"`

	// HTTP surface
	Server ServerConfig `yaml:"server"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// CloudConfig configures the remote chat-completion client.
type CloudConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	Timeout   string `yaml:"timeout"`
}

// LocalConfig configures the local provider fallback chain.
type LocalConfig struct {
	// Providers is the ordered candidate list. Empty means the default
	// order: ollama, llama_cpp, transformers.
	Providers []string `yaml:"providers"`

	Model       string `yaml:"model"`
	OllamaHost  string `yaml:"ollama_host"`
	LlamaCppURL string `yaml:"llama_cpp_url"`
	PipelineURL string `yaml:"pipeline_url"`
	Timeout     string `yaml:"timeout"`
}

// PrivacyConfig configures the pattern bank extensions.
type PrivacyConfig struct {
	// PatternFile optionally extends the built-in bank with extra
	// regexes. The built-in bank is always active.
	PatternFile   string `yaml:"pattern_file"`
	WatchPatterns bool   `yaml:"watch_patterns"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Name:     "sentinel",
		StateDir: ".sentinel",
		Cloud: CloudConfig{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "gpt-3.5-turbo",
			MaxTokens: 400,
			Timeout:   "120s",
		},
		Local: LocalConfig{
			Model:       "llama2",
			OllamaHost:  "http://127.0.0.1:11434",
			LlamaCppURL: "http://127.0.0.1:8080",
			PipelineURL: "http://127.0.0.1:8081",
			Timeout:     "120s",
		},
		Server: ServerConfig{
			Addr: ":8700",
		},
	}
}

// Load reads a yaml config file and applies environment overrides. A
// missing file is not an error; defaults plus environment apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overlays environment variables onto the config. The names
// match the original deployment surface so existing environments keep
// working.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Cloud.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.Cloud.Model = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Cloud.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.Local.OllamaHost = v
	}
	if v := os.Getenv("LLAMA2_MODEL"); v != "" {
		c.Local.Model = v
	}
	if v := strings.TrimSpace(strings.ToLower(os.Getenv("LLAMA2_PROVIDER"))); v != "" {
		// An explicit provider request collapses the candidate list.
		c.Local.Providers = []string{v}
	}
	if v := os.Getenv("SENTINEL_STATE_DIR"); v != "" {
		c.StateDir = v
	}
	if v := os.Getenv("SENTINEL_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SENTINEL_PATTERN_FILE"); v != "" {
		c.Privacy.PatternFile = v
	}
	if v := os.Getenv("SENTINEL_DEBUG"); v == "1" || strings.EqualFold(v, "true") {
		c.Logging.Debug = true
	}
}

// CloudTimeout returns the parsed cloud timeout, defaulting to two
// minutes when unset or malformed.
func (c *Config) CloudTimeout() time.Duration {
	return parseTimeout(c.Cloud.Timeout)
}

// LocalTimeout returns the parsed local-chain timeout.
func (c *Config) LocalTimeout() time.Duration {
	return parseTimeout(c.Local.Timeout)
}

func parseTimeout(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}
