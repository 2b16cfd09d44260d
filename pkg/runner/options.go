package runner

import (
	"log/slog"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/stream"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithHandler configures the event presentation strategy.
func WithHandler(handler EventHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithPrompter configures the interrupt answering strategy.
func WithPrompter(prompter DecisionPrompter) Option {
	return func(r *Runner) {
		r.Prompter = prompter
	}
}

// WithUnifier configures a custom chunk classifier, e.g. with a different
// side-channel tool set.
func WithUnifier(u *stream.Unifier) Option {
	return func(r *Runner) {
		r.Unifier = u
	}
}

// WithHooks configures the observer callbacks.
func WithHooks(hooks domain.Hooks) Option {
	return func(r *Runner) {
		r.Hooks = hooks
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}
