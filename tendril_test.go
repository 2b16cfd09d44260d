package tendril_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/testutils"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/runner"
)

func TestVersionIsSet(t *testing.T) {
	assert.NotEmpty(t, strings.TrimSpace(tendril.Version))
}

func TestNewRequiresSpecOrExecutor(t *testing.T) {
	_, err := tendril.New("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent spec")
}

func TestNewWithExecutor(t *testing.T) {
	executor := memory.NewScriptedExecutor(
		[]domain.Chunk{memory.TextChunk("agent", "hi")},
	)

	client, err := tendril.New("", tendril.WithExecutor(executor))
	require.NoError(t, err)

	res, err := client.Ask(context.Background(), "hello", domain.RunConfig{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, res.Status)
	assert.Equal(t, 1, res.Turns)

	// The default stream mode is forwarded on every call.
	calls := executor.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "updates", calls[0].Options.StreamMode)
}

func TestNewStreamModeOption(t *testing.T) {
	executor := memory.NewScriptedExecutor(
		[]domain.Chunk{memory.TextChunk("agent", "hi")},
	)

	client, err := tendril.New("",
		tendril.WithExecutor(executor),
		tendril.WithStreamMode("values"),
	)
	require.NoError(t, err)

	_, err = client.Ask(context.Background(), "hello", domain.RunConfig{})
	require.NoError(t, err)

	calls := executor.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "values", calls[0].Options.StreamMode)
}

func TestClientPausesWithoutPrompter(t *testing.T) {
	executor := memory.NewScriptedExecutor(
		[]domain.Chunk{
			memory.InterruptChunk(
				[]domain.ActionRequest{{Tool: "rm", ToolCallID: "call_1"}},
				nil,
			),
		},
	)

	client, err := tendril.New("", tendril.WithExecutor(executor))
	require.NoError(t, err)

	res, err := client.Ask(context.Background(), "clean up", domain.RunConfig{})
	require.NoError(t, err)
	assert.True(t, res.Paused())
	require.NotNil(t, res.Interrupt)
	require.Len(t, res.Interrupt.ActionRequests, 1)
	assert.Equal(t, "rm", res.Interrupt.ActionRequests[0].Tool)
}

func TestClientResume(t *testing.T) {
	executor := memory.NewScriptedExecutor(
		[]domain.Chunk{
			memory.InterruptChunk(
				[]domain.ActionRequest{{Tool: "rm", ToolCallID: "call_1"}},
				nil,
			),
		},
		[]domain.Chunk{memory.TextChunk("agent", "done")},
	)

	client, err := tendril.New("", tendril.WithExecutor(executor))
	require.NoError(t, err)

	ctx := context.Background()
	res, err := client.Ask(ctx, "clean up", domain.RunConfig{})
	require.NoError(t, err)
	require.True(t, res.Paused())

	res, err = client.Resume(ctx, []domain.Decision{domain.NewDecision(domain.DecisionApprove)}, domain.RunConfig{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, res.Status)

	calls := executor.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "resume", calls[1].Op)
}

func TestClientPrompterDrivesResume(t *testing.T) {
	executor := memory.NewScriptedExecutor(
		[]domain.Chunk{
			memory.InterruptChunk(
				[]domain.ActionRequest{{Tool: "rm", ToolCallID: "call_1"}},
				nil,
			),
		},
		[]domain.Chunk{memory.TextChunk("agent", "done")},
	)

	client, err := tendril.New("",
		tendril.WithExecutor(executor),
		tendril.WithPrompter(runner.AutoApprover()),
	)
	require.NoError(t, err)

	res, err := client.Ask(context.Background(), "clean up", domain.RunConfig{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, res.Status)
	assert.Equal(t, 2, res.Turns)
}

func TestClientThreads(t *testing.T) {
	client, err := tendril.New("", tendril.WithExecutor(memory.NewScriptedExecutor()))
	require.NoError(t, err)

	ctx := context.Background()
	rec, err := client.Threads().LoadOrStart(ctx, "", "graph")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)

	loaded, err := client.Threads().Load(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "graph", loaded.Graph)
}

func TestResolveExecutorManifest(t *testing.T) {
	manifest := testutils.WriteManifest(t, t.TempDir(), "agents.yaml", `graphs:
  graph:
    command: ./agent
    description: default graph
  research:
    command: ./research
`)

	// Default graph.
	_, name, err := tendril.ResolveExecutor(manifest)
	require.NoError(t, err)
	assert.Equal(t, "graph", name)

	// Named graph via the spec suffix.
	_, name, err = tendril.ResolveExecutor(manifest + ":research")
	require.NoError(t, err)
	assert.Equal(t, "research", name)

	// Unknown graph.
	_, _, err = tendril.ResolveExecutor(manifest + ":missing")
	require.Error(t, err)
}

func TestResolveExecutorBareCommand(t *testing.T) {
	_, name, err := tendril.ResolveExecutor("./bin/agent.sh")
	require.NoError(t, err)
	assert.Equal(t, "agent", name)

	_, name, err = tendril.ResolveExecutor("./bin/agent.sh:planner")
	require.NoError(t, err)
	assert.Equal(t, "planner", name)
}
