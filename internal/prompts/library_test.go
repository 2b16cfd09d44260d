package prompts_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tendril/internal/prompts"
	"github.com/aretw0/tendril/internal/testutils"
)

func TestOpenMissingLibrary(t *testing.T) {
	_, err := prompts.Open(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tendril init")
}

func TestGetResolvesPromptWithDefaults(t *testing.T) {
	dir := testutils.SetupPromptLibrary(t, map[string]string{
		"review.md": `---
graph: reviewer
description: Review a diff for regressions
config:
  configurable:
    model: small
---
Review the attached diff and flag risky changes.`,
	})

	lib, err := prompts.Open(dir)
	require.NoError(t, err)

	p, err := lib.Get(context.Background(), "review")
	require.NoError(t, err)

	assert.Equal(t, "review", p.Name)
	assert.Equal(t, "Review the attached diff and flag risky changes.", p.Text)
	assert.Equal(t, "reviewer", p.Graph)
	assert.Equal(t, "Review a diff for regressions", p.Description)

	data, err := json.Marshal(p.Config)
	require.NoError(t, err)
	assert.JSONEq(t, `{"configurable": {"model": "small"}}`, string(data))
}

func TestGetBodyOnlyPrompt(t *testing.T) {
	dir := testutils.SetupPromptLibrary(t, map[string]string{
		"hello.md": "Say hello and nothing else.",
	})

	lib, err := prompts.Open(dir)
	require.NoError(t, err)

	p, err := lib.Get(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "Say hello and nothing else.", p.Text)
	assert.Empty(t, p.Graph)
	assert.Nil(t, p.Config)
}

func TestGetUnknownPrompt(t *testing.T) {
	dir := testutils.SetupPromptLibrary(t, map[string]string{
		"hello.md": "Say hello.",
	})

	lib, err := prompts.Open(dir)
	require.NoError(t, err)

	_, err = lib.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `prompt "nope"`)
}

func TestListPrompts(t *testing.T) {
	dir := testutils.SetupPromptLibrary(t, map[string]string{
		"review.md": `---
description: Review a diff
---
Review this.`,
		"hello.md": "Say hello.",
	})

	lib, err := prompts.Open(dir)
	require.NoError(t, err)

	all, err := lib.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)

	names := make(map[string]string, len(all))
	for _, p := range all {
		names[p.Name] = p.Description
	}
	assert.Equal(t, "Review a diff", names["review"])
	assert.Contains(t, names, "hello")
}

func TestWriteRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	ctx := context.Background()

	err := prompts.Write(ctx, dir, "seed", prompts.Meta{
		Graph:       "demo",
		Description: "Starter prompt",
	}, "Summarize the repository layout.")
	require.NoError(t, err)

	lib, err := prompts.Open(dir)
	require.NoError(t, err)

	p, err := lib.Get(ctx, "seed")
	require.NoError(t, err)
	assert.Equal(t, "demo", p.Graph)
	assert.Equal(t, "Starter prompt", p.Description)
	assert.Equal(t, "Summarize the repository layout.", p.Text)
}
