// Package section defines the fixed-size on-disk structures of the
// carbon archive format and their byte-level codecs.
//
// Every structure follows the same pattern: a Bytes method producing the
// exact wire image, and a Parse function validating markers and sizes.
// All multi-byte fields are little-endian.
package section

import (
	"fmt"

	"github.com/jaksonlabs/carbon/endian"
	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
)

var engine = endian.GetLittleEndianEngine()

// FileHeader is the first structure of every archive file.
type FileHeader struct {
	// RootObjectHeaderOffset is the absolute file offset of the record
	// header. Zero marks an unfinished archive and is rejected on open.
	RootObjectHeaderOffset uint64
	// StringIDIndexOffset is the absolute file offset of the optional
	// string-id-to-offset index, or zero if the archive carries none.
	StringIDIndexOffset uint64
}

// Bytes serializes the file header into its wire image.
func (h *FileHeader) Bytes() []byte {
	b := make([]byte, 0, FileHeaderSize)
	b = append(b, Magic...)
	b = append(b, Version)
	b = engine.AppendUint64(b, h.RootObjectHeaderOffset)
	b = engine.AppendUint64(b, h.StringIDIndexOffset)

	return b
}

// ParseFileHeader parses and validates a file header.
func ParseFileHeader(data []byte) (FileHeader, error) {
	if len(data) < FileHeaderSize {
		return FileHeader{}, fmt.Errorf("file header needs %d bytes, got %d: %w",
			FileHeaderSize, len(data), errs.ErrCorrupted)
	}
	if string(data[:len(Magic)]) != Magic {
		return FileHeader{}, fmt.Errorf("bad magic %q: %w", data[:len(Magic)], errs.ErrFormatVersion)
	}
	if data[len(Magic)] != Version {
		return FileHeader{}, fmt.Errorf("unsupported version %d: %w", data[len(Magic)], errs.ErrFormatVersion)
	}

	h := FileHeader{
		RootObjectHeaderOffset: engine.Uint64(data[len(Magic)+1:]),
		StringIDIndexOffset:    engine.Uint64(data[len(Magic)+9:]),
	}
	if h.RootObjectHeaderOffset == 0 {
		return FileHeader{}, fmt.Errorf("zero record header offset: %w", errs.ErrCorrupted)
	}

	return h, nil
}

// RecordHeader precedes the record table.
type RecordHeader struct {
	Flags      uint8
	RecordSize uint64
}

// IsSorted reports whether the record table was written read-optimized.
func (h *RecordHeader) IsSorted() bool {
	return h.Flags&RecordFlagSorted != 0
}

// Bytes serializes the record header into its wire image.
func (h *RecordHeader) Bytes() []byte {
	b := make([]byte, 0, RecordHeaderSize)
	b = append(b, format.MarkerRecordHeader, h.Flags)
	b = engine.AppendUint64(b, h.RecordSize)

	return b
}

// ParseRecordHeader parses and validates a record header.
func ParseRecordHeader(data []byte) (RecordHeader, error) {
	if len(data) < RecordHeaderSize {
		return RecordHeader{}, fmt.Errorf("record header needs %d bytes, got %d: %w",
			RecordHeaderSize, len(data), errs.ErrCorrupted)
	}
	if data[0] != format.MarkerRecordHeader {
		return RecordHeader{}, fmt.Errorf("expected %q got %q: %w",
			format.MarkerRecordHeader, data[0], errs.ErrCorrupted)
	}

	return RecordHeader{Flags: data[1], RecordSize: engine.Uint64(data[2:])}, nil
}
