package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEndpoints_FileTakesPriorityOverEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "endpoints.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"file-ep","endpoint":"https://file.example"}]`), 0o600))

	t.Setenv("AZURE_ENDPOINTS_FILE", path)
	t.Setenv("AZURE_ENDPOINTS_JSON", `[{"name":"json-ep","endpoint":"https://json.example"}]`)

	endpoints, err := LoadEndpoints("AZURE", "", "")
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	assert.Equal(t, "file-ep", endpoints[0].Name)
}

func TestLoadEndpoints_ArrayEnvParsesTuples(t *testing.T) {
	t.Setenv("AZURE_ENDPOINTS", "east|https://east.example|key1,west|https://west.example|key2")

	endpoints, err := LoadEndpoints("AZURE", "", "")
	require.NoError(t, err)
	require.Len(t, endpoints, 2)
	assert.Equal(t, "east", endpoints[0].Name)
	assert.Equal(t, "key2", endpoints[1].APIKey)
}

func TestLoadEndpoints_NumberedEnvStopsAtGap(t *testing.T) {
	t.Setenv("AZURE_ENDPOINT_1_URL", "https://one.example")
	t.Setenv("AZURE_ENDPOINT_1_NAME", "one")
	t.Setenv("AZURE_ENDPOINT_3_URL", "https://three.example") // gap at 2, never reached

	endpoints, err := LoadEndpoints("AZURE", "", "")
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	assert.Equal(t, "one", endpoints[0].Name)
}

func TestLoadEndpoints_FallbackSingleEndpoint(t *testing.T) {
	endpoints, err := LoadEndpoints("AZURE", "https://default.example", "key")
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	assert.Equal(t, "default", endpoints[0].Name)
	assert.Equal(t, "key", endpoints[0].APIKey)
}

func TestLoadEndpoints_NoSourceReturnsNil(t *testing.T) {
	endpoints, err := LoadEndpoints("AZURE", "", "")
	require.NoError(t, err)
	assert.Empty(t, endpoints)
}
