/*
Package process runs agent graphs as external commands speaking NDJSON over
stdio.

One command serves one turn: the executor writes a single request line to
the command's stdin, closes it, and reads native update chunks as JSON lines
from its stdout until the command exits. Conversational state lives behind
the command (keyed by configurable.thread_id in the forwarded config), which
is what lets a later resume launch a fresh process.

# Key Entities

  - Executor: a ports.GraphExecutor that launches the configured command.
  - Manifest: the agents.yaml file naming graphs and how to launch them.

A graph is addressed through a manifest entry or directly with a
"path:graph" spec (see ParseSpec).
*/
package process
