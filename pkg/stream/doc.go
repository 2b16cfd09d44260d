/*
Package stream unifies the native update stream of an external executor into
the canonical event sequence.

The Unifier consumes chunks in lock-step with the executor, classifies each
one (text content, tool calls, tool results, side-channel payloads, interrupt
markers), and emits zero or more domain Events per chunk. Every consumed
stream ends with exactly one terminal event: complete when the source is
exhausted, error when it fails. Failures never propagate past this boundary
and are never retried.

# Key Entities

  - Unifier: The chunk classifier and event emitter.
  - SerializeToolCalls: Tool-call coercion with an exclusion set.
*/
package stream
