package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tendril/internal/config"
	"github.com/aretw0/tendril/pkg/domain"
)

func TestResolvePrecedence(t *testing.T) {
	t.Setenv("TENDRIL_TEST_VAR", "from-env")

	assert.Equal(t, "from-flag", config.Resolve("from-flag", "TENDRIL_TEST_VAR", "fallback"))
	assert.Equal(t, "from-env", config.Resolve("", "TENDRIL_TEST_VAR", "fallback"))

	t.Setenv("TENDRIL_TEST_VAR", "")
	assert.Equal(t, "fallback", config.Resolve("", "TENDRIL_TEST_VAR", "fallback"))
}

func TestWorkspaceRootDefaultsToCwd(t *testing.T) {
	t.Setenv(config.EnvWorkspaceRoot, "")
	assert.Equal(t, ".", config.WorkspaceRoot(""))

	t.Setenv(config.EnvWorkspaceRoot, "/srv/agents")
	assert.Equal(t, "/srv/agents", config.WorkspaceRoot(""))
	assert.Equal(t, "/tmp/w", config.WorkspaceRoot("/tmp/w"))
}

func TestStreamMode(t *testing.T) {
	t.Setenv(config.EnvStreamMode, "")

	mode, err := config.StreamMode("")
	require.NoError(t, err)
	assert.Equal(t, config.StreamModeUpdates, mode)

	mode, err = config.StreamMode("values")
	require.NoError(t, err)
	assert.Equal(t, config.StreamModeValues, mode)

	t.Setenv(config.EnvStreamMode, "values")
	mode, err = config.StreamMode("")
	require.NoError(t, err)
	assert.Equal(t, config.StreamModeValues, mode)

	_, err = config.StreamMode("deltas")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid stream mode")
}

func TestDataDirs(t *testing.T) {
	assert.Equal(t, filepath.Join("w", ".tendril"), config.DataDir("w"))
	assert.Equal(t, filepath.Join("w", ".tendril", "threads"), config.ThreadsDir("w"))
	assert.Equal(t, filepath.Join("w", ".tendril", "prompts"), config.PromptsDir("w"))
}

func TestLoadRunConfigInline(t *testing.T) {
	t.Setenv(config.EnvConfig, "")

	cfg, err := config.LoadRunConfig(`{"configurable": {"thread_id": "t-9", "model": "small"}}`)
	require.NoError(t, err)
	assert.Equal(t, "t-9", cfg.ThreadID())

	cfg, err = config.LoadRunConfig("")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Empty(t, cfg.ThreadID())
}

func TestLoadRunConfigFileWinsOverInline(t *testing.T) {
	t.Setenv(config.EnvConfig, "")

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"configurable": {"thread_id": "from-file"}}`), 0644))

	cfg, err := config.LoadRunConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ThreadID())
}

func TestLoadRunConfigFromEnv(t *testing.T) {
	t.Setenv(config.EnvConfig, `{"configurable": {"thread_id": "from-env"}}`)

	cfg, err := config.LoadRunConfig("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ThreadID())
}

func TestLoadRunConfigRejectsMalformedInline(t *testing.T) {
	t.Setenv(config.EnvConfig, "")

	_, err := config.LoadRunConfig("{not json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config must be a JSON object")
}

func TestLoadRunConfigNullLiteral(t *testing.T) {
	t.Setenv(config.EnvConfig, "")

	cfg, err := config.LoadRunConfig("null")
	require.NoError(t, err)
	require.NotNil(t, cfg)
}

func TestEnsureThreadID(t *testing.T) {
	cfg := domain.RunConfig{}
	id := config.EnsureThreadID(cfg)
	require.NotEmpty(t, id)
	_, err := uuid.Parse(id)
	require.NoError(t, err, "generated thread id should be a UUID")
	assert.Equal(t, id, cfg.ThreadID())

	cfg2 := domain.RunConfig{}
	cfg2.SetThreadID("keep-me")
	assert.Equal(t, "keep-me", config.EnsureThreadID(cfg2))
	assert.Equal(t, "keep-me", cfg2.ThreadID())
}
