// Package seqring implements a fixed-capacity, non-blocking broadcast ring
// buffer for trivially copyable values.
//
// Any handle can push; every handle independently replays the stream of
// pushes through its own private cursor, at its own pace. A reader that
// falls more than the ring's capacity behind is lapped by the writers and
// loses data instead of ever stalling a push. No operation blocks, sleeps
// or spins: writers are wait-free (one fetch-add plus two stores), readers
// are lock-free (one seqlock-checked copy), and every outcome is returned
// to the caller immediately.
//
// The ring emulates an infinite stream inside a constant-size allocation by
// packing a per-slot epoch and an in-progress flag into a single atomic
// word. This means a finite number of pushes are supported: after roughly
// 2^63 - size total pushes the packed epochs begin to alias and the
// synchronization breaks down. size refers to the allocation size, which is
// the requested capacity rounded up to a power of two. Note that this
// happens before the write cursor itself overflows.
//
// This is a broadcast structure, not a task queue: delivery is not
// guaranteed, items are not consumed exactly once, and slow readers lose
// data by design. Use a bounded queue where every item must be processed.
package seqring
