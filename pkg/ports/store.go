package ports

import (
	"context"

	"github.com/aretw0/tendril/pkg/domain"
)

// ThreadStore defines the interface for persisting thread bookkeeping.
// Records hold Tendril metadata only; conversational state belongs to the
// executor.
type ThreadStore interface {
	// Save persists the record for a given thread ID.
	Save(ctx context.Context, threadID string, rec *domain.ThreadRecord) error

	// Load retrieves the record for a given thread ID.
	// Returns domain.ErrThreadNotFound if the thread does not exist.
	Load(ctx context.Context, threadID string) (*domain.ThreadRecord, error)

	// Delete removes the record for a given thread ID.
	Delete(ctx context.Context, threadID string) error

	// List returns all known thread IDs.
	List(ctx context.Context) ([]string, error)
}
