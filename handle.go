package seqring

import "fmt"

var (
	// ErrEmpty reports that nothing new is committed at the handle's
	// cursor. The cursor is unchanged; the caller may poll again.
	ErrEmpty = fmt.Errorf("seqring: no new data")

	// ErrCapacityOverflow reports a requested capacity that cannot be
	// rounded to a representable power of two.
	ErrCapacityOverflow = fmt.Errorf("seqring: capacity not representable as a power of two")
)

// LaggedError reports that the writers lapped a handle's cursor: Skipped
// entries were overwritten before they could be read. The cursor has
// already been fast-forwarded to the oldest position still readable.
type LaggedError struct {
	Skipped uint64 // entries lost to overwrites
}

func (e LaggedError) Error() string {
	return fmt.Sprintf("seqring: reader lagged, %d entries skipped", e.Skipped)
}

// HandleStats counts read outcomes observed through one handle. The
// counters belong to the handle's owner and are not synchronized; a Clone
// starts from zero.
type HandleStats struct {
	Reads   uint64 // values returned by Next or SkipToNext
	Empty   uint64 // polls that found no new committed data
	Lags    uint64 // lap events detected
	Skipped uint64 // total entries lost across all lap events
}

// Handle is one client of a shared broadcast ring. Pushes act directly on
// the shared ring and are safe from any number of goroutines on any
// handle. Reads consult and advance the handle's own cursor; a handle's
// read methods must not be called concurrently with each other — create a
// Clone per reading goroutine instead.
//
// Clones share the ring but fork the cursor, so every clone independently
// observes the full stream of pushes, subject to lag.
type Handle[T any] struct {
	ring  *ring[T]
	pos   uint64
	stats HandleStats
}

// New creates a broadcast ring of at least the requested capacity, rounded
// up to the next power of two (Size reports the rounded value), and
// returns the first handle on it. The ring lives as long as any handle
// referencing it. New fails only with ErrCapacityOverflow.
func New[T any](capacity uint64) (*Handle[T], error) {
	r, err := newRing[T](capacity)
	if err != nil {
		return nil, err
	}
	return &Handle[T]{ring: r, pos: r.write.Load()}, nil
}

// Size returns the rounded capacity of the shared ring.
func (h *Handle[T]) Size() uint64 {
	return h.ring.capacity
}

// Written returns how many pushes have claimed a position so far,
// including any whose commit is still in flight.
func (h *Handle[T]) Written() uint64 {
	return h.ring.write.Load() - h.ring.capacity
}

// Push publishes v to every current and future handle of this ring. It
// never fails and never blocks: if readers are too slow they lose data
// rather than slowing this call down.
func (h *Handle[T]) Push(v T) {
	h.ring.push(v)
}

// Clone returns a new handle sharing the ring and carrying a copy of the
// current cursor. The two cursors evolve independently from here on.
func (h *Handle[T]) Clone() *Handle[T] {
	return &Handle[T]{ring: h.ring, pos: h.pos}
}

// Stats returns the read-outcome counters accumulated by this handle.
func (h *Handle[T]) Stats() HandleStats {
	return h.stats
}

// Next returns the value at the cursor and advances it by one.
//
// Outcomes:
//   - (v, nil): the next value in the stream.
//   - (zero, ErrEmpty): nothing new is committed at the cursor yet, or a
//     writer is mid-commit right there; the cursor is unchanged.
//   - (zero, LaggedError): the writers lapped this cursor. The cursor has
//     been fast-forwarded to the oldest readable position — at most
//     capacity-1 behind the writers — and calling Next again resumes from
//     there.
//
// Next never blocks and never spins; the only retry it performs is the
// single seqlock re-check inside the slot read.
func (h *Handle[T]) Next() (T, error) {
	var zero T
	v, meta, ok := h.ring.read(h.pos)
	if ok {
		h.pos++
		h.stats.Reads++
		return v, nil
	}
	if meta&busyFlag != 0 || meta < h.ring.epochOf(h.pos) {
		h.stats.Empty++
		return zero, ErrEmpty
	}
	// The slot carries a newer epoch than the cursor expected: lapped.
	next := h.ring.write.Load() - h.ring.capacity + 1
	skipped := next - h.pos
	h.pos = next
	h.stats.Lags++
	h.stats.Skipped += skipped
	return zero, LaggedError{Skipped: skipped}
}

// SkipToNext returns the next readable value, silently absorbing lag:
// where Next would report LaggedError, SkipToNext fast-forwards the cursor
// and keeps looking, doubling its catch-up margin in case the writers move
// faster than the cursor can chase. It returns false when the stream is
// drained (nothing new is committed). It never blocks.
func (h *Handle[T]) SkipToNext() (T, bool) {
	var zero T
	for margin := uint64(1); margin < h.ring.capacity; margin *= 2 {
		v, meta, ok := h.ring.read(h.pos)
		if ok {
			h.pos++
			h.stats.Reads++
			return v, true
		}
		if meta&busyFlag != 0 || meta < h.ring.epochOf(h.pos) {
			h.stats.Empty++
			return zero, false
		}
		next := h.ring.write.Load() - h.ring.capacity + margin
		if next > h.pos {
			h.stats.Skipped += next - h.pos
			h.pos = next
		}
		h.stats.Lags++
	}
	// The margin outran the capacity: writers are lapping faster than the
	// cursor can chase.
	return zero, false
}

// Latest returns the newest committed value without touching the streaming
// cursor. It always returns a value: if the newest claim is still being
// written it falls back one position at a time to the last confirmed
// commit, and on a ring nothing was ever pushed to it returns the zero
// placeholder the slots were filled with. Absent intervening pushes,
// repeated calls return the same value.
func (h *Handle[T]) Latest() T {
	return h.ring.readLatest()
}

// TryLatest probes only the most recently claimed position. It reports
// false while that write is still uncommitted, instead of falling back the
// way Latest does.
func (h *Handle[T]) TryLatest() (T, bool) {
	r := h.ring
	v, _, ok := r.read(r.write.Load() - 1)
	return v, ok
}

// CatchUp repositions the cursor margin entries past the oldest position
// the writers can still overwrite, giving the next read that much headroom
// before it can be lapped again. Entries between the old and new cursor
// are given up.
func (h *Handle[T]) CatchUp(margin uint64) {
	h.pos = h.ring.write.Load() - h.ring.capacity + margin
}
