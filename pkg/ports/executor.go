package ports

import (
	"context"

	"github.com/aretw0/tendril/pkg/domain"
)

// InvokeOptions carries the per-turn execution context shared by both
// executor entry points. Config is forwarded verbatim; StreamMode selects
// the executor's native streaming granularity ("updates" or "values").
type InvokeOptions struct {
	Config     domain.RunConfig
	StreamMode string
}

// GraphExecutor abstracts the external orchestration engine. Tendril never
// runs agent logic itself; it invokes one of these and observes the result.
type GraphExecutor interface {
	// Invoke starts one turn with the given input state.
	Invoke(ctx context.Context, input domain.AgentInput, opts InvokeOptions) (ChunkStream, error)

	// Resume feeds decisions back into a run paused on an interrupt.
	Resume(ctx context.Context, decisions []domain.Decision, opts InvokeOptions) (ChunkStream, error)
}

// ChunkStream is the executor's native update sequence for a single turn.
// Next blocks until the next chunk is available and returns io.EOF once the
// sequence is exhausted. Close releases the underlying transport and is safe
// to call more than once.
type ChunkStream interface {
	Next(ctx context.Context) (domain.Chunk, error)
	Close() error
}
