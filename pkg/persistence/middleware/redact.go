package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

type redactionMiddleware struct {
	next     ports.ThreadStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks prompt substrings
// matching the patterns before they reach the underlying store.
func NewRedactionMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.ThreadStore) ports.ThreadStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactionMiddleware) Save(ctx context.Context, threadID string, rec *domain.ThreadRecord) error {
	// Clone to avoid side effects on the in-memory record used by the manager.
	cloned := *rec
	for _, p := range m.patterns {
		cloned.LastPrompt = p.ReplaceAllString(cloned.LastPrompt, "***")
	}
	return m.next.Save(ctx, threadID, &cloned)
}

func (m *redactionMiddleware) Load(ctx context.Context, threadID string) (*domain.ThreadRecord, error) {
	return m.next.Load(ctx, threadID)
}

func (m *redactionMiddleware) Delete(ctx context.Context, threadID string) error {
	return m.next.Delete(ctx, threadID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
