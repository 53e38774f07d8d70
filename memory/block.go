// Package memory provides the owned byte buffer (Block) and the cursor
// over it (File) that all archive serialization and traversal run on.
//
// A Block is a heap-owned, resizable byte buffer that tracks the position
// one past the last written byte. A File is a positioned cursor over a
// Block with read, write, peek and skip operations plus a bit-packed
// sub-cursor used by the Huffman codec. Neither type is safe for
// concurrent use; read-only Files over a shared Block may be used from
// multiple goroutines as long as the Block is no longer mutated.
package memory

import (
	"fmt"
	"io"

	"github.com/jaksonlabs/carbon/errs"
)

// Block is an owned, resizable byte buffer with a last-written-byte
// watermark.
type Block struct {
	base     []byte
	lastByte int
}

// NewBlock creates a block with the given capacity. All bytes are zero
// and the watermark starts at zero.
func NewBlock(size int) *Block {
	return &Block{base: make([]byte, size)}
}

// BlockFromReader creates a block holding exactly nbytes read from r.
// The watermark covers the whole block.
func BlockFromReader(r io.Reader, nbytes int) (*Block, error) {
	base := make([]byte, nbytes)
	if _, err := io.ReadFull(r, base); err != nil {
		return nil, fmt.Errorf("read %d block bytes: %w", nbytes, err)
	}

	return &Block{base: base, lastByte: nbytes}, nil
}

// Size returns the block length in bytes.
func (b *Block) Size() int {
	return len(b.base)
}

// LastByte returns the watermark, the position one past the last byte
// ever written.
func (b *Block) LastByte() int {
	return b.lastByte
}

// RawData returns the backing buffer. The slice aliases the block;
// callers must not retain it across a Resize.
func (b *Block) RawData() []byte {
	return b.base
}

// Resize grows or truncates the block to newSize bytes. Resizing to zero
// is an error.
func (b *Block) Resize(newSize int) error {
	if newSize == 0 {
		return errs.ErrZeroResize
	}
	if newSize <= cap(b.base) {
		b.base = b.base[:newSize]
	} else {
		grown := make([]byte, newSize)
		copy(grown, b.base)
		b.base = grown
	}
	if b.lastByte > newSize {
		b.lastByte = newSize
	}

	return nil
}

// Write copies data into the block at pos and advances the watermark.
// The target range must lie inside the current block length.
func (b *Block) Write(pos int, data []byte) error {
	if pos+len(data) > len(b.base) {
		return fmt.Errorf("write of %d bytes at %d exceeds block size %d: %w",
			len(data), pos, len(b.base), errs.ErrOutOfBounds)
	}
	copy(b.base[pos:], data)
	if pos+len(data) > b.lastByte {
		b.lastByte = pos + len(data)
	}

	return nil
}

// Copy duplicates the full block contents, preserving length and
// watermark.
func (b *Block) Copy() *Block {
	base := make([]byte, len(b.base))
	copy(base, b.base)

	return &Block{base: base, lastByte: b.lastByte}
}

// Shrink truncates the block to the watermark, dropping reserved but
// never-written tail bytes.
func (b *Block) Shrink() {
	b.base = b.base[:b.lastByte]
}

// MoveContents transfers ownership of the backing buffer to the caller
// and leaves the block empty.
func (b *Block) MoveContents() []byte {
	base := b.base
	b.base = nil
	b.lastByte = 0

	return base
}
