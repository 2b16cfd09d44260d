package tendril_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
)

// ExampleClient_Stream demonstrates how to consume a run as a channel of
// canonical events, resuming a paused run explicitly. This is the shape
// used by the HTTP and MCP frontends.
func ExampleClient_Stream() {
	executor := memory.NewScriptedExecutor(
		[]domain.Chunk{
			memory.TextChunk("agent", "Checking the file."),
			memory.InterruptChunk(
				[]domain.ActionRequest{{Tool: "delete_file", ToolCallID: "call_1"}},
				[]domain.ReviewConfig{{AllowedDecisions: []string{"approve", "reject"}}},
			),
		},
		[]domain.Chunk{
			memory.TextChunk("agent", "Skipped the deletion."),
		},
	)

	client, err := tendril.New("", tendril.WithExecutor(executor))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	input, err := domain.PrepareInput("clean up the workspace", nil, nil)
	if err != nil {
		log.Fatal(err)
	}

	// First turn: the channel closes after the interrupt event.
	events, err := client.Stream(ctx, input, domain.RunConfig{})
	if err != nil {
		log.Fatal(err)
	}

	var pending *domain.Interrupt
	for ev := range events {
		fmt.Println(ev.Status)
		if ev.Status == domain.StatusInterrupt {
			pending = ev.Interrupt
		}
	}

	// Answer every pending action, then resume the run.
	decisions := make([]domain.Decision, len(pending.ActionRequests))
	for i := range decisions {
		decisions[i] = domain.NewDecision(domain.DecisionReject)
	}

	events, err = client.StreamResume(ctx, decisions, domain.RunConfig{})
	if err != nil {
		log.Fatal(err)
	}
	for ev := range events {
		fmt.Println(ev.Status)
	}
	// Output:
	// streaming
	// interrupt
	// streaming
	// complete
}
