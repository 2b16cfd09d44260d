package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/aretw0/tendril/internal/presentation/tui"
)

// RunREPL executes the interactive chat loop: read a prompt, run a turn,
// repeat. Ctrl-C cancels the turn in flight; at an idle prompt it exits.
func (s *session) RunREPL() error {
	if !s.opts.JSON {
		if tui.IsTerminal(os.Stdout) {
			tui.PrintBanner()
		}
		printSystemMessage("Graph '%s' ready. Type /h for help, /q to quit.", s.client.Graph())
		printSystemMessage("Thread '%s'.", s.threadID)
	}

	for {
		ctx := s.sm.Context()

		line, err := s.readInput(ctx)
		if err != nil {
			if err == io.EOF {
				s.sayBye()
				return nil
			}
			if ctx.Err() != nil {
				// Ctrl-C at the idle prompt.
				fmt.Printf("\n")
				s.sayBye()
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if s.handleCommand(line) {
				return nil
			}
			continue
		}

		res, err := s.runTurn(ctx, line)
		if err != nil {
			s.sm.CheckRace()
			if s.sm.Context().Err() != nil || isInterrupted(err) {
				s.reportInterrupted()
				s.sm.Reset()
				continue
			}
			return err
		}

		if err := s.reportResult(res); err != nil && !s.opts.JSON {
			printSystemMessage("Error: %v", err)
		}
	}
}

// handleCommand runs one slash command and reports whether the REPL should
// exit.
func (s *session) handleCommand(line string) bool {
	switch line {
	case "/q", "/quit", "/exit":
		s.sayBye()
		return true
	case "/c":
		s.newThread()
	case "/h", "/help":
		s.printHelp()
	default:
		printSystemMessage("Unknown command %q. Type /h for help.", line)
	}
	return false
}

// newThread rotates the conversation to a fresh thread id.
func (s *session) newThread() {
	s.threadID = uuid.NewString()
	s.cfg.SetThreadID(s.threadID)
	if !s.opts.JSON {
		printSystemMessage("Thread '%s' started.", s.threadID)
	}
}

func (s *session) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /c             start a new thread")
	fmt.Println("  /h, /help      show this help")
	fmt.Println("  /q, /quit      exit (also /exit)")
	fmt.Println("Anything else is sent to the graph as a prompt.")
}

func (s *session) sayBye() {
	if !s.opts.JSON {
		printSystemMessage("Bye.")
	}
}
