package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maurorisonho/Houdinis-sub002/internal/backend/providers"
	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
core:
  default_shots: 4096
logging:
  level: debug
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4096, cfg.Core.DefaultShots)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched values keep their defaults.
	assert.Equal(t, providers.AerSimulatorID, cfg.Core.DefaultBackend)
	assert.Equal(t, 300, cfg.Core.TimeoutSeconds)
	assert.Contains(t, cfg.Backends, "ibm_quantum")
}

func TestLoadInterpolatesEnv(t *testing.T) {
	t.Setenv("HOUDINIS_TEST_ENDPOINT", "https://alt.example.com/v1")

	path := writeConfig(t, `
backends:
  ibm_quantum:
    type: ibmq
    endpoint: ${HOUDINIS_TEST_ENDPOINT}
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://alt.example.com/v1", cfg.Backends["ibm_quantum"].Endpoint)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := NewLoader(NewValidator()).Load("/nonexistent/config.yml")
	require.Error(t, err)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.CONFIG_LOAD_FAILED, code)
}

func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := NewLoader(NewValidator()).LoadWithDefaults("/nonexistent/config.yml")
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Core.DefaultShots)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "core: [not a map")
	_, err := NewLoader(NewValidator()).Load(path)
	require.Error(t, err)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.CONFIG_LOAD_FAILED, code)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, `
core:
  default_shots: 0
`)
	_, err := NewLoader(NewValidator()).Load(path)
	require.Error(t, err)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, code)
}
