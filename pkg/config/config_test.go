package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_BuiltinProvidersOnNoFiles(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.True(t, cfg.LLMProviderRegistry.Has("openai"))
	assert.True(t, cfg.LLMProviderRegistry.Has("anthropic"))
	assert.Equal(t, 1, cfg.Worker.PageConcurrency)
	assert.Equal(t, "openai", cfg.Defaults.Provider)
}

func TestInitialize_UserProviderOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEST_OPENAI_KEY", "sk-test-123")

	writeFile(t, dir, "llm-providers.yaml", `
llm_providers:
  openai:
    kind: openai
    model: gpt-4o
    api_key_env: TEST_OPENAI_KEY
    max_output_tokens: 8192
    context_window_tokens: 128000
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	provider, err := cfg.GetLLMProvider("openai")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", provider.Model)
	assert.Equal(t, 8192, provider.MaxOutputTokens)
}

func TestInitialize_InvalidEndpointPoolReferenceFails(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "wikiforge.yaml", `
endpoint_pools:
  not-a-real-provider:
    endpoints:
      - name: primary
        endpoint: https://example.test
`)

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}
