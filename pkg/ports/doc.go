/*
Package ports defines the driven ports (interfaces) for the Tendril wrapper.

These interfaces decouple the event unification core from external
implementations, allowing the wrapper to observe any executor transport and
persist thread bookkeeping in various backends.

# Key Interfaces

  - GraphExecutor: The external engine that owns and runs agent graphs.
  - ChunkStream: The executor's native update sequence for one turn.
  - ThreadStore: Persists Tendril's per-thread bookkeeping records.
  - DistributedLocker: Coordinates thread access across replicas.
*/
package ports
