package seqring

import (
	"math/bits"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// maxCapacity leaves the top metadata bit free for the in-progress flag.
const maxCapacity uint64 = 1 << 62

// ring is the shared broadcast buffer: a fixed array of slots plus one
// free-running logical write cursor. It is allocated once, never grows, and
// may be shared across any number of writer and reader goroutines: all
// cross-goroutine access to mutable slot state goes through the packed
// metadata word, and the payload cells are only touched under its
// discipline.
type ring[T any] struct {
	mask     uint64
	capacity uint64
	slots    []slot[T]
	_        cpu.CacheLinePad
	write    atomic.Uint64 // next logical position, claimed by fetch-add
	_        cpu.CacheLinePad
}

// newRing allocates a ring of at least the requested capacity, rounded up
// to the next power of two. Every slot starts at epoch 0 with the zero
// value of T as placeholder payload, so no slot is ever observable in an
// undefined state.
func newRing[T any](capacity uint64) (*ring[T], error) {
	if capacity == 0 || capacity > maxCapacity {
		return nil, ErrCapacityOverflow
	}
	capacity = roundUpPowerOfTwo(capacity)

	r := &ring[T]{
		mask:     capacity - 1,
		capacity: capacity,
		slots:    make([]slot[T], capacity),
	}
	// The cursor starts at epoch 1, index 0. The zero-filled slots carry
	// epoch 0, so no real write can share an epoch with the placeholder
	// fill.
	r.write.Store(capacity)
	return r, nil
}

// roundUpPowerOfTwo returns the smallest power of two >= u. u must be >= 1.
func roundUpPowerOfTwo(u uint64) uint64 {
	return 1 << uint(bits.Len64(u-1))
}

// epochOf returns the packed epoch of a logical position: the position with
// its index bits cleared.
func (r *ring[T]) epochOf(pos uint64) uint64 {
	return pos &^ r.mask
}

// push claims the next logical position and publishes v there.
//
// Four steps: claim the position with a fetch-add (the only serialization
// point between writers), mark the slot busy, copy the payload, commit.
// The busy mark warns concurrent readers off the slot before the plain
// copy; the commit store is the moment the value becomes visible. Writers
// never wait: a reader still holding the slot's previous epoch is simply
// lapped and detects the epoch change on its re-check.
func (r *ring[T]) push(v T) {
	pos := r.write.Add(1) - 1
	s := &r.slots[pos&r.mask]
	epoch := r.epochOf(pos)
	s.meta.Store(epoch | busyFlag)
	s.val = v
	s.meta.Store(epoch)
}

// read returns the value at logical position pos if it is committed and has
// not been lapped. On failure it returns the metadata word it observed so
// the caller can classify the miss (stale epoch, newer epoch, or busy).
func (r *ring[T]) read(pos uint64) (T, uint64, bool) {
	var zero T
	s := &r.slots[pos&r.mask]
	want := r.epochOf(pos)

	meta := s.meta.Load()
	if meta != want {
		return zero, meta, false
	}
	v := s.val
	// Seqlock re-check: a writer racing the copy above left either the
	// busy flag or a newer epoch in the word.
	meta = s.meta.Load()
	if meta != want {
		return zero, meta, false
	}
	return v, meta, true
}

// readLatest walks back from the most recently claimed position to the
// newest committed one. It always finds a value: every slot was filled at
// construction, so at worst it lands on placeholder fill.
func (r *ring[T]) readLatest() T {
	pos := r.write.Load() - 1
	for {
		if v, _, ok := r.read(pos); ok {
			return v
		}
		pos--
	}
}
