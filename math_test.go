package seqring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundUpPowerOfTwo(t *testing.T) {
	cases := map[uint64]uint64{
		1:    1,
		2:    2,
		3:    4,
		5:    8,
		11:   16,
		15:   16,
		16:   16,
		17:   32,
		28:   32,
		45:   64,
		56:   64,
		100:  128,
		128:  128,
		423:  512,
		1000: 1024,
		2000: 2048,
		1_152_921_504_606_846_000: 1 << 60,
		9_223_372_036_854_000_000: 1 << 63,
	}
	for in, want := range cases {
		assert.Equal(t, want, roundUpPowerOfTwo(in), "roundUpPowerOfTwo(%d)", in)
	}
}

func TestSizeReportsRoundedCapacity(t *testing.T) {
	for _, c := range []struct {
		request uint64
		size    uint64
	}{
		{1, 1},
		{7, 8},
		{100, 128},
		{128, 128},
		{129, 256},
	} {
		h, err := New[int](c.request)
		require.NoError(t, err, "request %d", c.request)
		assert.Equal(t, c.size, h.Size(), "request %d", c.request)
	}
}

func TestCapacityOverflow(t *testing.T) {
	for _, request := range []uint64{0, maxCapacity + 1, 1 << 63, math.MaxUint64} {
		_, err := New[int](request)
		require.ErrorIs(t, err, ErrCapacityOverflow, "request %d", request)
	}
}

// Slot index and epoch are two views of one logical position: the low bits
// select the physical slot, the remaining bits (pre-shifted, index bits
// cleared) are the epoch stored in the metadata word.
func TestSlotAddressing(t *testing.T) {
	h, err := New[int](8)
	require.NoError(t, err)
	r := h.ring

	assert.Equal(t, uint64(7), r.mask)

	for _, c := range []struct {
		pos   uint64
		index uint64
		epoch uint64
	}{
		{0, 0, 0},
		{5, 5, 0},
		{8, 0, 8},
		{13, 5, 8},
		{16, 0, 16},
		{255, 7, 248},
	} {
		assert.Equal(t, c.index, c.pos&r.mask, "index of %d", c.pos)
		assert.Equal(t, c.epoch, r.epochOf(c.pos), "epoch of %d", c.pos)
	}
}

// The busy flag occupies the top bit and never collides with an epoch the
// ring can legally reach.
func TestMetadataPacking(t *testing.T) {
	h, err := New[int](8)
	require.NoError(t, err)
	r := h.ring

	epoch := r.epochOf(maxCapacity - 1)
	assert.Zero(t, epoch&busyFlag, "epoch bled into the busy bit")
	assert.Equal(t, epoch, (epoch|busyFlag)&^busyFlag, "packing is not reversible")
}
