package process_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tendril/pkg/adapters/process"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/schema"
)

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifestYAML(t *testing.T) {
	path := writeManifest(t, "agents.yaml", `
graphs:
  deep_agent:
    command: python
    args: ["-m", "agent.serve"]
    env:
      PYTHONUNBUFFERED: "1"
    description: Research agent
  echo:
    command: ./echo.sh
`)

	m, err := process.LoadManifest(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"deep_agent", "echo"}, m.Names())

	cfg, err := m.Resolve("deep_agent")
	require.NoError(t, err)
	assert.Equal(t, "python", cfg.Command)
	assert.Equal(t, []string{"-m", "agent.serve"}, cfg.Args)
	assert.Equal(t, "1", cfg.Env["PYTHONUNBUFFERED"])
	assert.Equal(t, "Research agent", cfg.Description)
}

func TestLoadManifestJSON(t *testing.T) {
	path := writeManifest(t, "agents.json", `{"graphs": {"echo": {"command": "./echo.sh"}}}`)

	m, err := process.LoadManifest(path)
	require.NoError(t, err)

	cfg, err := m.Resolve("echo")
	require.NoError(t, err)
	assert.Equal(t, "./echo.sh", cfg.Command)
}

func TestLoadManifestRejectsMissingCommand(t *testing.T) {
	path := writeManifest(t, "agents.yaml", `
graphs:
  broken:
    args: ["x"]
`)

	_, err := process.LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Contains(t, err.Error(), "command")
}

func TestLoadManifestRejectsWrongTypes(t *testing.T) {
	path := writeManifest(t, "agents.yaml", `
graphs:
  broken:
    command: ok
    env:
      COUNT: 2
`)

	_, err := process.LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "env")

	// The field-level failures survive the graph-name wrapping.
	fields := schema.ValidationErrors(err)
	require.Len(t, fields, 1)
	assert.Contains(t, fields[0].Error(), "env")
}

func TestLoadManifestRejectsEmpty(t *testing.T) {
	path := writeManifest(t, "agents.yaml", "graphs: {}\n")

	_, err := process.LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no graphs")
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := process.LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read manifest")
}

func TestResolveUnknownGraph(t *testing.T) {
	m := &process.Manifest{Graphs: map[string]process.GraphConfig{
		"echo": {Command: "sh"},
	}}

	_, err := m.Resolve("missing")
	require.ErrorIs(t, err, domain.ErrGraphNotFound)
}

func TestExecutorsBuildsRegistry(t *testing.T) {
	m := &process.Manifest{Graphs: map[string]process.GraphConfig{
		"alpha": {Command: "sh"},
		"beta":  {Command: "sh"},
	}}

	reg := m.Executors()
	assert.Equal(t, []string{"alpha", "beta"}, reg.Names())

	exe, err := reg.Resolve("alpha")
	require.NoError(t, err)
	assert.NotNil(t, exe)

	_, err = reg.Resolve("missing")
	assert.ErrorIs(t, err, domain.ErrGraphNotFound)
}

func TestManifestExecutorRunsGraph(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("inline sh fixtures are not portable to windows")
	}

	path := writeManifest(t, "agents.yaml", `
graphs:
  echo:
    command: sh
    args:
      - -c
      - |
        read line
        printf '%s\n' "{\"agent\": {\"messages\": [{\"type\": \"ai\", \"content\": \"$GREETING\"}]}}"
    env:
      GREETING: hello from yaml
`)

	m, err := process.LoadManifest(path)
	require.NoError(t, err)

	exe, err := m.Executor("echo")
	require.NoError(t, err)

	src, err := exe.Invoke(context.Background(), domain.AgentInput{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	}, ports.InvokeOptions{})
	require.NoError(t, err)

	chunks := collect(t, src)
	require.Len(t, chunks, 1)

	node, ok := chunks[0]["agent"].(map[string]any)
	require.True(t, ok)
	messages, ok := node["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	msg, ok := messages[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hello from yaml", msg["content"])
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		spec  string
		path  string
		graph string
	}{
		{"agents.yaml", "agents.yaml", ""},
		{"agents.yaml:deep_agent", "agents.yaml", "deep_agent"},
		{"./graphs/agents.yaml:echo", "./graphs/agents.yaml", "echo"},
		{"C:\\agents.yaml", "C:\\agents.yaml", ""},
		{"C:\\agents.yaml:echo", "C:\\agents.yaml", "echo"},
		{"./serve.sh", "./serve.sh", ""},
		{"agents.yaml:", "agents.yaml:", ""},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			path, graph := process.ParseSpec(tt.spec)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.graph, graph)
		})
	}
}
