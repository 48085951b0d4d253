package seqring

import "sync/atomic"

// busyFlag is the in-progress bit of the packed metadata word. While it is
// set, the slot's payload may be half-written and must not be trusted.
const busyFlag uint64 = 1 << 63

// slot is one ring position: a packed metadata word plus the payload cell.
//
// meta packs two fields into one atomically accessed word, so that a single
// load observes epoch and write-state as one consistent snapshot:
//
//	bit  63     in-progress flag
//	bits 62..0  epoch, stored as the logical position with its index bits
//	            cleared (pos &^ mask)
//
// Storing the epoch pre-shifted this way lets one equality compare against
// pos &^ mask check "right epoch and not busy" at once.
//
// val is a plain, non-atomic cell. It is written only between the busy-mark
// and the commit of the writer that claimed this position, and read only
// under the seqlock re-check in ring.read.
type slot[T any] struct {
	meta atomic.Uint64
	val  T
}
