// Package cmap provides a concurrent map implementation for the stream coordinator.
//
// This package implements a sharded concurrent map optimized for
// high-throughput keyed storage with the following features:
//
//   - Sharding: Configurable shard count for parallelism
//   - Fine-grained Locking: Per-shard RWMutex for minimal contention
//   - Optimistic Locking: Version-based compare-and-swap updates
//   - Iteration: Safe iteration while holding read locks
//
// Usage:
//
//	m := cmap.NewWithShards[string, *Session](32)
//	m.Set("key", session)
//	val, ok := m.Get("key")
//
// Thread Safety:
//
// All operations are thread-safe. Read operations (Get, Has) use RLock,
// write operations (Set, Delete) use Lock.
//
package cmap
