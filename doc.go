/*
Package tendril is a thin client for externally-authored agent graphs. It
launches a graph as a subprocess speaking NDJSON over stdio, normalizes the
graph's heterogeneous stream into a canonical event schema, and drives the
interrupt/resume loop that human-in-the-loop graphs pause on.

# Concept

Tendril treats the agent graph as a black box behind the GraphExecutor port.
The graph owns its conversational state (checkpointing, memory); Tendril owns
the wrapper concerns: input preparation, stream unification, interrupt
normalization, decision collection, and thread bookkeeping. This Hexagonal
Architecture allows the same core to be embedded in any interface: CLI, HTTP
server, or MCP tool.

# Key Features

  - Canonical Events: every native chunk becomes one of streaming, interrupt,
    complete, or error, regardless of the graph's payload shape.
  - Interrupt Normalization: the interrupt payload shapes produced by common
    graph frameworks collapse into one ActionRequest/ReviewConfig form.
  - Resumable Runs: a paused run is resumed with one Decision per pending
    action, from the same process or a later one.
  - Ports and Adapters: process (NDJSON subprocess), memory (scripted),
    file and Redis thread stores, HTTP and MCP frontends.

# Usage

Initialize a Client from an agent spec (a manifest path, a "path:graph"
pair, or a bare executable) or inject your own executor.

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/tendril"
		"github.com/aretw0/tendril/pkg/domain"
		"github.com/aretw0/tendril/pkg/runner"
	)

	func main() {
		client, err := tendril.New("./agents.yaml",
			tendril.WithPrompter(runner.AutoApprover()),
		)
		if err != nil {
			log.Fatal(err)
		}

		cfg := domain.RunConfig{}
		cfg.SetThreadID("thread-1")

		res, err := client.Ask(context.Background(), "hello", cfg)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.Status)
	}

For channel-style consumption use Stream/StreamResume; for custom interrupt
handling implement runner.DecisionPrompter.
*/
package tendril
