package memory

import (
	"fmt"
	"math"

	"github.com/jaksonlabs/carbon/endian"
	"github.com/jaksonlabs/carbon/errs"
)

// Mode selects whether a File may mutate its backing block.
type Mode uint8

const (
	ModeReadWrite Mode = iota
	ModeReadOnly
)

// File is a positioned cursor over a Block.
//
// In read-write mode writes and skips grow the backing block on demand
// with an amortized doubling strategy. Any number of read-only Files may
// share one Block.
type File struct {
	block *Block
	pos   int
	mode  Mode

	bitMode         bool
	currentReadBit  uint8
	currentWriteBit uint8
	bytesCompleted  int
}

// Open creates a cursor at position zero over the block.
func Open(block *Block, mode Mode) *File {
	return &File{block: block, mode: mode}
}

// Seek moves the cursor to pos.
func (f *File) Seek(pos uint64) error {
	if pos > uint64(f.block.Size()) {
		return fmt.Errorf("seek to %d beyond block size %d: %w", pos, f.block.Size(), errs.ErrOutOfBounds)
	}
	f.pos = int(pos)

	return nil
}

// Rewind moves the cursor back to position zero.
func (f *File) Rewind() {
	f.pos = 0
}

// Tell returns the current cursor position.
func (f *File) Tell() uint64 {
	return uint64(f.pos)
}

// Size returns the size of the backing block.
func (f *File) Size() int {
	return f.block.Size()
}

// RemainSize returns the number of bytes between the cursor and the end
// of the block.
func (f *File) RemainSize() int {
	return f.block.Size() - f.pos
}

// Block returns the backing block.
func (f *File) Block() *Block {
	return f.block
}

// Read returns nbytes starting at the cursor and advances past them. The
// returned slice aliases the block.
func (f *File) Read(nbytes int) ([]byte, error) {
	data, err := f.Peek(nbytes)
	if err != nil {
		return nil, err
	}
	f.pos += nbytes

	return data, nil
}

// Peek returns nbytes starting at the cursor without advancing.
func (f *File) Peek(nbytes int) ([]byte, error) {
	if f.RemainSize() < nbytes {
		return nil, fmt.Errorf("peek of %d bytes at %d exceeds block size %d: %w",
			nbytes, f.pos, f.block.Size(), errs.ErrReadOutOfBounds)
	}

	return f.block.RawData()[f.pos : f.pos+nbytes], nil
}

// Skip advances the cursor by nbytes. In read-write mode skipping past
// the block end reserves the space by growing the block.
func (f *File) Skip(nbytes int) error {
	if f.mode == ModeReadWrite {
		if err := f.ensure(nbytes); err != nil {
			return err
		}
	} else if f.RemainSize() < nbytes {
		return fmt.Errorf("skip of %d bytes at %d exceeds block size %d: %w",
			nbytes, f.pos, f.block.Size(), errs.ErrReadOutOfBounds)
	}
	f.pos += nbytes

	return nil
}

// Write copies data at the cursor and advances past it, growing the
// block if needed. Fails in read-only mode.
func (f *File) Write(data []byte) error {
	if f.mode != ModeReadWrite {
		return errs.ErrWriteProtected
	}
	if err := f.ensure(len(data)); err != nil {
		return err
	}
	if err := f.block.Write(f.pos, data); err != nil {
		return err
	}
	f.pos += len(data)

	return nil
}

func (f *File) ensure(nbytes int) error {
	need := f.pos + nbytes
	if need <= f.block.Size() {
		return nil
	}
	newSize := max(need, f.block.Size()*2)

	return f.block.Resize(newSize)
}

// BeginBitMode transitions the cursor into bit-packed mode at the
// current byte position. Bits of a symbol are written and read
// most-significant-first within a byte; bytes advance low-address-first.
// The cursor stays in bit mode until EndBitMode.
func (f *File) BeginBitMode() error {
	if f.bitMode {
		return fmt.Errorf("bit mode already active: %w", errs.ErrIllegalImpl)
	}
	f.bitMode = true
	f.currentReadBit = 0
	f.currentWriteBit = 0
	f.bytesCompleted = 0

	return nil
}

// WriteBit appends one bit. The first bit of a byte occupies the most
// significant position; a completed byte advances the cursor.
func (f *File) WriteBit(bit bool) error {
	if !f.bitMode {
		return fmt.Errorf("write bit outside bit mode: %w", errs.ErrIllegalImpl)
	}
	if f.mode != ModeReadWrite {
		return errs.ErrWriteProtected
	}
	if f.currentWriteBit == 0 {
		if err := f.ensure(1); err != nil {
			return err
		}
		if err := f.block.Write(f.pos, []byte{0}); err != nil {
			return err
		}
	}
	if bit {
		raw := f.block.RawData()
		raw[f.pos] |= 1 << (7 - f.currentWriteBit)
	}
	f.currentWriteBit++
	if f.currentWriteBit == 8 {
		f.currentWriteBit = 0
		f.pos++
		f.bytesCompleted++
	}

	return nil
}

// ReadBit consumes one bit, mirroring WriteBit's ordering.
func (f *File) ReadBit() (bool, error) {
	if !f.bitMode {
		return false, fmt.Errorf("read bit outside bit mode: %w", errs.ErrIllegalImpl)
	}
	if f.RemainSize() < 1 {
		return false, fmt.Errorf("read bit at %d: %w", f.pos, errs.ErrReadOutOfBounds)
	}
	b := f.block.RawData()[f.pos]
	bit := b&(1<<(7-f.currentReadBit)) != 0
	f.currentReadBit++
	if f.currentReadBit == 8 {
		f.currentReadBit = 0
		f.pos++
		f.bytesCompleted++
	}

	return bit, nil
}

// EndBitMode leaves bit mode, flushing any partial byte (zero-padded) and
// returning the number of bytes produced since BeginBitMode.
func (f *File) EndBitMode() (int, error) {
	if !f.bitMode {
		return 0, fmt.Errorf("end bit mode outside bit mode: %w", errs.ErrIllegalImpl)
	}
	if f.currentWriteBit > 0 || f.currentReadBit > 0 {
		f.pos++
		f.bytesCompleted++
	}
	f.bitMode = false
	f.currentReadBit = 0
	f.currentWriteBit = 0

	return f.bytesCompleted, nil
}

// Typed accessors. The archive format is little-endian on disk; every
// multi-byte value goes through the endian engine.

var engine = endian.GetLittleEndianEngine()

func (f *File) WriteByte(v byte) error {
	return f.Write([]byte{v})
}

func (f *File) WriteUint16(v uint16) error {
	return f.Write(engine.AppendUint16(nil, v))
}

func (f *File) WriteUint32(v uint32) error {
	return f.Write(engine.AppendUint32(nil, v))
}

func (f *File) WriteUint64(v uint64) error {
	return f.Write(engine.AppendUint64(nil, v))
}

func (f *File) ReadByte() (byte, error) {
	data, err := f.Read(1)
	if err != nil {
		return 0, err
	}

	return data[0], nil
}

func (f *File) PeekByte() (byte, error) {
	data, err := f.Peek(1)
	if err != nil {
		return 0, err
	}

	return data[0], nil
}

func (f *File) ReadUint32() (uint32, error) {
	data, err := f.Read(4)
	if err != nil {
		return 0, err
	}

	return engine.Uint32(data), nil
}

func (f *File) ReadUint64() (uint64, error) {
	data, err := f.Read(8)
	if err != nil {
		return 0, err
	}

	return engine.Uint64(data), nil
}

// ReadUint64Slice decodes n consecutive uint64 values.
func (f *File) ReadUint64Slice(n int) ([]uint64, error) {
	data, err := f.Read(n * 8)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = engine.Uint64(data[i*8:])
	}

	return out, nil
}

// ReadUint16Slice decodes n consecutive uint16 values.
func (f *File) ReadUint16Slice(n int) ([]uint16, error) {
	data, err := f.Read(n * 2)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, n)
	for i := range out {
		out[i] = engine.Uint16(data[i*2:])
	}

	return out, nil
}

// ReadUint32Slice decodes n consecutive uint32 values.
func (f *File) ReadUint32Slice(n int) ([]uint32, error) {
	data, err := f.Read(n * 4)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = engine.Uint32(data[i*4:])
	}

	return out, nil
}

// ReadFloat32Slice decodes n consecutive IEEE 754 single values.
func (f *File) ReadFloat32Slice(n int) ([]float32, error) {
	raw, err := f.ReadUint32Slice(n)
	if err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i, bits := range raw {
		out[i] = math.Float32frombits(bits)
	}

	return out, nil
}
