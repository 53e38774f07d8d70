package memory

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaksonlabs/carbon/errs"
)

func TestBlock_WriteAdvancesWatermark(t *testing.T) {
	block := NewBlock(16)
	require.Equal(t, 16, block.Size())
	require.Zero(t, block.LastByte())

	require.NoError(t, block.Write(0, []byte{1, 2, 3}))
	require.Equal(t, 3, block.LastByte())

	// Writing below the watermark must not move it backwards.
	require.NoError(t, block.Write(1, []byte{9}))
	require.Equal(t, 3, block.LastByte())

	require.NoError(t, block.Write(8, []byte{7, 7}))
	require.Equal(t, 10, block.LastByte())
}

func TestBlock_WriteOutOfBounds(t *testing.T) {
	block := NewBlock(4)
	err := block.Write(2, []byte{1, 2, 3})
	require.ErrorIs(t, err, errs.ErrOutOfBounds)
}

func TestBlock_ResizeZero(t *testing.T) {
	block := NewBlock(4)
	require.ErrorIs(t, block.Resize(0), errs.ErrZeroResize)
}

func TestBlock_ShrinkTruncatesToWatermark(t *testing.T) {
	block := NewBlock(1024)
	require.NoError(t, block.Write(0, []byte("carbon")))
	block.Shrink()
	require.Equal(t, 6, block.Size())
	require.Equal(t, []byte("carbon"), block.RawData())
}

func TestBlock_CopyIsIndependent(t *testing.T) {
	block := NewBlock(8)
	require.NoError(t, block.Write(0, []byte{1, 2, 3, 4}))

	dup := block.Copy()
	require.Equal(t, block.Size(), dup.Size())
	require.Equal(t, block.LastByte(), dup.LastByte())

	require.NoError(t, block.Write(0, []byte{9}))
	require.Equal(t, byte(1), dup.RawData()[0])
}

func TestBlock_FromReader(t *testing.T) {
	block, err := BlockFromReader(bytes.NewReader([]byte("hello world")), 5)
	require.NoError(t, err)
	require.Equal(t, 5, block.Size())
	require.Equal(t, 5, block.LastByte())
	require.Equal(t, []byte("hello"), block.RawData())

	_, err = BlockFromReader(bytes.NewReader([]byte("ab")), 5)
	require.Error(t, err)
}

func TestBlock_MoveContents(t *testing.T) {
	block := NewBlock(4)
	require.NoError(t, block.Write(0, []byte{1, 2}))

	base := block.MoveContents()
	require.Len(t, base, 4)
	require.Zero(t, block.Size())
	require.Zero(t, block.LastByte())
}
