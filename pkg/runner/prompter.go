package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/tendril/pkg/domain"
)

// InteractivePrompter answers interrupts by asking the user on a terminal.
// It presents one menu per interrupt and produces one decision per pending
// action.
type InteractivePrompter struct {
	source      io.Reader
	interactive bool // true if reading from CONIN$ (Windows) where EOF should be ignored
	Reader      *bufio.Reader
	Writer      io.Writer

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// NewInteractivePrompter creates a prompter for standard terminal IO.
func NewInteractivePrompter(r io.Reader, w io.Writer) *InteractivePrompter {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	p := &InteractivePrompter{Writer: w}

	// Windows Specific: when attached to a terminal we MUST read from CONIN$
	// to keep reads working across graceful signal handling.
	p.source, p.interactive = resolveInputReader(r)
	p.Reader = bufio.NewReader(p.source)

	return p
}

// ReadLine reads one sanitized line of user input, honoring context
// cancellation. REPL loops share the prompter's input pump through it so
// they never compete with the decision menu for stdin.
func (p *InteractivePrompter) ReadLine(ctx context.Context, prompt string) (string, error) {
	return p.readLine(ctx, prompt)
}

// PromptDecisions presents the decision menu and returns one decision per
// pending action. Returning nil decisions means the user chose to leave the
// run paused.
func (p *InteractivePrompter) PromptDecisions(ctx context.Context, intr domain.Interrupt) ([]domain.Decision, error) {
	n := len(intr.ActionRequests)

	for {
		fmt.Fprintf(p.Writer, "\nHow should the %d pending action(s) proceed?\n", n)
		fmt.Fprintln(p.Writer, "  1. approve all")
		fmt.Fprintln(p.Writer, "  2. reject all")
		fmt.Fprintln(p.Writer, "  3. custom decisions (JSON)")
		fmt.Fprintln(p.Writer, "  4. exit (leave paused)")

		choice, err := p.readLine(ctx, "choice> ")
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}

		switch strings.TrimSpace(choice) {
		case "1":
			return uniformDecisions(domain.DecisionApprove, n), nil
		case "2":
			return uniformDecisions(domain.DecisionReject, n), nil
		case "3":
			return p.promptCustom(ctx, n)
		case "4", "q", "quit", "exit":
			return nil, nil
		default:
			fmt.Fprintln(p.Writer, "Please answer 1, 2, 3 or 4.")
		}
	}
}

// promptCustom reads one JSON line holding either a decision list (used
// as-is) or a single decision object (applied to every pending action).
// Unparseable input falls back to rejecting everything, never to approving.
func (p *InteractivePrompter) promptCustom(ctx context.Context, n int) ([]domain.Decision, error) {
	line, err := p.readLine(ctx, "decisions (JSON)> ")
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	decisions, ok := parseCustomDecisions(line, n)
	if !ok {
		fmt.Fprintln(p.Writer, "Could not parse decisions, rejecting all pending actions.")
		return uniformDecisions(domain.DecisionReject, n), nil
	}
	return decisions, nil
}

func (p *InteractivePrompter) readLine(ctx context.Context, prompt string) (string, error) {
	p.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(p.Writer, prompt)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-p.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(p.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (p *InteractivePrompter) initPump() {
	p.startOnce.Do(func() {
		p.inputChan = make(chan inputResult)
		go p.pump()
	})
}

func (p *InteractivePrompter) pump() {
	for {
		text, err := p.Reader.ReadString('\n')

		if text != "" {
			p.inputChan <- inputResult{text: text}
		}

		if err != nil {
			if err == io.EOF {
				if p.interactive {
					// On interactive terminals an EOF usually means a signal
					// interrupted the read, not that the stream ended. Report
					// the failed read but keep the pump alive.
					p.inputChan <- inputResult{err: io.EOF}
					time.Sleep(50 * time.Millisecond)
					continue
				}
				close(p.inputChan)
				return
			}
			p.inputChan <- inputResult{err: err}
			// Backoff to prevent CPU spikes on persistent failure.
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// parseCustomDecisions interprets a JSON line as resume decisions. A list
// is taken verbatim; a single object is replicated once per pending action.
func parseCustomDecisions(line string, n int) ([]domain.Decision, bool) {
	var raw any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil, false
	}

	var decisions []domain.Decision
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			decisions = append(decisions, domain.Decision(obj))
		}
	case map[string]any:
		for i := 0; i < n; i++ {
			d := make(domain.Decision, len(v))
			for k, val := range v {
				d[k] = val
			}
			decisions = append(decisions, d)
		}
	default:
		return nil, false
	}

	for _, d := range decisions {
		if d.Validate() != nil {
			return nil, false
		}
	}
	return decisions, len(decisions) > 0
}

func uniformDecisions(t domain.DecisionType, n int) []domain.Decision {
	decisions := make([]domain.Decision, 0, n)
	for i := 0; i < n; i++ {
		decisions = append(decisions, domain.NewDecision(t))
	}
	return decisions
}

// resolveInputReader attempts to open a platform-specific terminal reader
// (e.g., CONIN$ on Windows) via the lifecycle library. Returns the reader to
// use and whether it is an interactive terminal handled specially.
func resolveInputReader(defaultReader io.Reader) (io.Reader, bool) {
	if r, err := lifecycle.UpgradeTerminal(defaultReader); err == nil && r != defaultReader {
		return r, true
	}
	return defaultReader, false
}
