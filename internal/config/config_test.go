package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("SENTINEL_ADDR", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, "gpt-3.5-turbo", cfg.Cloud.Model)
	require.Equal(t, "http://127.0.0.1:11434", cfg.Local.OllamaHost)
	require.Equal(t, ":8700", cfg.Server.Addr)
}

func TestLoad_YamlOverridesDefaults(t *testing.T) {
	t.Setenv("LLAMA2_PROVIDER", "")
	t.Setenv("SENTINEL_ADDR", "")

	path := filepath.Join(t.TempDir(), "sentinel.yaml")
	content := `
name: custom
local:
  providers: [llama_cpp]
  llama_cpp_url: http://10.0.0.5:9000
server:
  addr: ":9100"
privacy:
  pattern_file: extra.yaml
  watch_patterns: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "custom", cfg.Name)
	require.Equal(t, []string{"llama_cpp"}, cfg.Local.Providers)
	require.Equal(t, "http://10.0.0.5:9000", cfg.Local.LlamaCppURL)
	require.Equal(t, ":9100", cfg.Server.Addr)
	require.True(t, cfg.Privacy.WatchPatterns)
	// Untouched sections keep their defaults.
	require.Equal(t, "https://api.openai.com/v1", cfg.Cloud.BaseURL)
}

func TestLoad_MalformedYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("::: not yaml"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("LLAMA2_PROVIDER", "Transformers")
	t.Setenv("SENTINEL_ADDR", ":7000")
	t.Setenv("SENTINEL_DEBUG", "true")

	cfg := Default()
	cfg.ApplyEnv()

	require.Equal(t, "sk-test", cfg.Cloud.APIKey)
	require.Equal(t, "gpt-4o-mini", cfg.Cloud.Model)
	// An explicit provider request collapses the candidate list and is
	// lowercased.
	require.Equal(t, []string{"transformers"}, cfg.Local.Providers)
	require.Equal(t, ":7000", cfg.Server.Addr)
	require.True(t, cfg.Logging.Debug)
}

func TestTimeouts(t *testing.T) {
	cfg := Default()
	require.Equal(t, 120*time.Second, cfg.CloudTimeout())

	cfg.Local.Timeout = "45s"
	require.Equal(t, 45*time.Second, cfg.LocalTimeout())

	cfg.Local.Timeout = "garbage"
	require.Equal(t, 2*time.Minute, cfg.LocalTimeout())
}
