// Package prompts manages the workspace prompt library: reusable markdown
// prompts with frontmatter under .tendril/prompts, addressed by name.
package prompts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"

	"github.com/aretw0/tendril/pkg/domain"
)

// Meta is the frontmatter of a library prompt. All fields are optional; the
// body alone makes a valid prompt.
type Meta struct {
	// Graph names the graph this prompt targets by default.
	Graph string `json:"graph,omitempty" mapstructure:"graph"`
	// Config carries per-prompt run config defaults, forwarded verbatim.
	Config map[string]any `json:"config,omitempty" mapstructure:"config"`
	// Description is a one-line summary for listings.
	Description string `json:"description,omitempty" mapstructure:"description"`
}

// Prompt is a resolved library prompt: the body text plus launch defaults.
type Prompt struct {
	Name        string
	Text        string
	Graph       string
	Config      domain.RunConfig
	Description string
}

// Library reads prompts from a Loam repository.
type Library struct {
	repo *loam.TypedRepository[Meta]
}

// Open opens the prompt library rooted at dir. The directory must exist;
// `tendril init` creates one.
func Open(dir string) (*Library, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid prompt library path: %w", err)
	}
	if info, err := os.Stat(absPath); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("no prompt library at %s (run 'tendril init' to create one)", dir)
	}

	// Strict mode keeps numeric config values stable across adapters, and
	// read-only mode keeps Loam from sandboxing the workspace.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open prompt library at %s: %w", dir, err)
	}

	return &Library{repo: loam.NewTypedRepository[Meta](repo)}, nil
}

// Get resolves a prompt by name. The name matches the document ID with or
// without its file extension.
func (l *Library) Get(ctx context.Context, name string) (*Prompt, error) {
	doc, err := l.repo.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("prompt %q: %w", name, err)
	}
	return fromDocument(doc.ID, doc.Data, doc.Content), nil
}

// List returns every prompt in the library.
func (l *Library) List(ctx context.Context) ([]Prompt, error) {
	docs, err := l.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}

	prompts := make([]Prompt, 0, len(docs))
	for _, doc := range docs {
		prompts = append(prompts, *fromDocument(doc.ID, doc.Data, doc.Content))
	}
	return prompts, nil
}

func fromDocument(id string, meta Meta, body string) *Prompt {
	p := &Prompt{
		Name:        trimExtension(id),
		Text:        strings.TrimSpace(body),
		Graph:       meta.Graph,
		Description: meta.Description,
	}
	if len(meta.Config) > 0 {
		p.Config = domain.RunConfig(meta.Config)
	}
	return p
}

// trimExtension normalizes document IDs so "review.md" and "review" address
// the same prompt.
func trimExtension(id string) string {
	if ext := filepath.Ext(id); ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Write stores a prompt in the library at dir, creating the directory when
// needed. Used by scaffolding and by tests; the CLI run path only reads.
func Write(ctx context.Context, dir, name string, meta Meta, body string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create prompt library: %w", err)
	}

	repo, err := loam.Init(dir, loam.WithVersioning(false))
	if err != nil {
		return fmt.Errorf("failed to open prompt library at %s: %w", dir, err)
	}

	typed := loam.NewTypedRepository[Meta](repo)
	if err := typed.Save(ctx, &loam.DocumentModel[Meta]{
		ID:      name,
		Content: body,
		Data:    meta,
	}); err != nil {
		return fmt.Errorf("failed to write prompt %q: %w", name, err)
	}
	return nil
}
