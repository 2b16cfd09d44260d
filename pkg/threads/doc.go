/*
Package threads implements thread bookkeeping and persistence orchestration.

It provides high-level abstractions for handling concurrent access to thread
records across multiple replicas, integrating local lock reference counting
with distributed locking and long-term storage adapters.
*/
package threads
