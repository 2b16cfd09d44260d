package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/tendril/internal/config"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/internal/prompts"
)

// createLogger configures the application logger.
// In verbose mode, it writes to Stderr (to separate from Stdout flow UI).
func createLogger(verbose bool) *slog.Logger {
	if verbose {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

// printSystemMessage prints a standardized system message to stdout.
func printSystemMessage(format string, args ...any) {
	fmt.Printf(">>> %s\n", fmt.Sprintf(format, args...))
}

// resolvedMessage is the outcome of the -m/-f/-p flags. Without any of
// them the CLI enters REPL mode.
type resolvedMessage struct {
	text    string
	oneShot bool
	prompt  *prompts.Prompt
}

// resolveMessage picks the prompt text for a one-shot turn: --message wins,
// then --file, then --prompt from the workspace library.
func resolveMessage(opts RunOptions) (resolvedMessage, error) {
	switch {
	case opts.Message != "":
		return resolvedMessage{text: opts.Message, oneShot: true}, nil

	case opts.File != "":
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return resolvedMessage{}, fmt.Errorf("failed to read prompt file: %w", err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return resolvedMessage{}, fmt.Errorf("prompt file %s is empty", opts.File)
		}
		return resolvedMessage{text: text, oneShot: true}, nil

	case opts.Prompt != "":
		root := config.WorkspaceRoot(opts.Workspace)
		library, err := prompts.Open(config.PromptsDir(root))
		if err != nil {
			return resolvedMessage{}, err
		}
		p, err := library.Get(context.Background(), opts.Prompt)
		if err != nil {
			return resolvedMessage{}, err
		}
		if p.Text == "" {
			return resolvedMessage{}, fmt.Errorf("prompt %q has no body", opts.Prompt)
		}
		return resolvedMessage{text: p.Text, oneShot: true, prompt: p}, nil
	}

	return resolvedMessage{}, nil
}

// isInterrupted reports whether err is user cancellation rather than a
// genuine failure.
func isInterrupted(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, io.EOF)
}

// handleExecutionError maps user interruptions to a clean exit.
func handleExecutionError(err error) error {
	if err == nil {
		return nil
	}
	if isInterrupted(err) {
		return nil // Exit 0 for interruptions
	}
	return err
}
