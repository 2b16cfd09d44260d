/*
Package runner drives a graph run end to end: it feeds input to the
executor, pipes the unified event stream to an EventHandler, and mediates
interrupt pauses through a DecisionPrompter until the run completes, fails,
or is left paused.

The Runner is presentation-agnostic. TextHandler renders events for a
terminal, JSONHandler emits them as JSON Lines, and custom handlers can be
injected for other frontends.

# Key Entities

  - Runner: The run/resume orchestration loop.
  - EventHandler: The strategy for presenting events.
  - DecisionPrompter: The strategy for answering interrupts.
  - Result: The final outcome of a run.
*/
package runner
