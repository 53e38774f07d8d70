package bitmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitmap_SetGetClear(t *testing.T) {
	bm := New(64)
	require.Equal(t, 64, bm.NumBits())

	bm.Set(0, true)
	bm.Set(33, true)
	require.True(t, bm.Get(0))
	require.True(t, bm.Get(33))
	require.False(t, bm.Get(1))

	bm.Set(33, false)
	require.False(t, bm.Get(33))

	bm.Clear()
	require.False(t, bm.Get(0))
}

func TestBitmap_LShift(t *testing.T) {
	bm := New(40)
	bm.Set(0, true)
	bm.Set(31, true)

	bm.LShift()
	require.False(t, bm.Get(0))
	require.True(t, bm.Get(1))
	require.True(t, bm.Get(32), "shift must carry across block boundaries")

	// Shifting k times moves bit i to bit i+k; bits below k read zero.
	bm2 := New(16)
	bm2.Set(2, true)
	for i := 0; i < 3; i++ {
		bm2.LShift()
	}
	require.True(t, bm2.Get(5))
	for i := 0; i < 3; i++ {
		require.False(t, bm2.Get(i))
	}
}

func TestBitmap_LShiftDiscardsTopBit(t *testing.T) {
	bm := New(8)
	bm.Set(7, true)
	bm.LShift()
	for i := 0; i < 8; i++ {
		require.False(t, bm.Get(i))
	}
}

func TestBitmap_BlocksReversed(t *testing.T) {
	bm := New(64)
	bm.Set(0, true)  // block 0 -> 0x1
	bm.Set(32, true) // block 1 -> 0x1

	bm.Set(33, true)
	blocks := bm.Blocks()
	require.Equal(t, []uint32{0x3, 0x1}, blocks)
}

func TestBitmap_CopyIsIndependent(t *testing.T) {
	bm := New(8)
	bm.Set(3, true)

	dup := bm.Copy()
	bm.Set(3, false)
	require.True(t, dup.Get(3))
}
