package runner

import (
	"context"

	"github.com/aretw0/tendril/pkg/domain"
)

// EventHandler defines the strategy for presenting events to the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type EventHandler interface {
	// HandleEvent presents one canonical event. Errors abort the run.
	HandleEvent(ctx context.Context, ev domain.Event) error

	// SystemOutput presents a meta-message to the user (e.g. status updates).
	// This is distinct from event rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// DecisionPrompter defines the strategy for answering an interrupt.
// Returning a nil decision slice (with nil error) declines to answer and
// leaves the run paused.
type DecisionPrompter interface {
	PromptDecisions(ctx context.Context, intr domain.Interrupt) ([]domain.Decision, error)
}

// PrompterFunc adapts a function to the DecisionPrompter interface.
type PrompterFunc func(ctx context.Context, intr domain.Interrupt) ([]domain.Decision, error)

func (f PrompterFunc) PromptDecisions(ctx context.Context, intr domain.Interrupt) ([]domain.Decision, error) {
	return f(ctx, intr)
}

// AutoApprover approves every pending action without user interaction.
// It is the headless counterpart of the interactive prompter.
func AutoApprover() DecisionPrompter {
	return PrompterFunc(func(ctx context.Context, intr domain.Interrupt) ([]domain.Decision, error) {
		decisions := make([]domain.Decision, 0, len(intr.ActionRequests))
		for range intr.ActionRequests {
			decisions = append(decisions, domain.NewDecision(domain.DecisionApprove))
		}
		return decisions, nil
	})
}
