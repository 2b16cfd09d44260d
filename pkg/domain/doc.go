/*
Package domain contains the core domain models for the Tendril wrapper.

It defines the canonical event schema emitted while observing an external
agent-graph executor, the normalized interrupt payload, and the input shapes
fed back into the executor. This package is kept pure and free of external
dependencies like I/O or transport, following Hexagonal Architecture principles.

# Key Entities

  - Event: One canonical unit emitted while observing the executor stream.
  - Interrupt: The normalized human-approval pause payload.
  - ActionRequest / ReviewConfig: The items inside an Interrupt.
  - Decision: A resume instruction (approve, reject, or custom).
  - Chunk: One native update from the executor, prior to unification.
  - AgentInput: The wire input state for a single executor turn.
  - ThreadRecord: Tendril's own bookkeeping for a conversation thread.
*/
package domain
