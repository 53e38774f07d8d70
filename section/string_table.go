package section

import (
	"fmt"

	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
)

// StringTableHeader describes the embedded string dictionary.
type StringTableHeader struct {
	NumEntries uint32
	// Flags carries exactly one codec flag bit (format.FlagCompression*).
	Flags uint8
	// FirstEntry is the absolute file offset of the first string entry.
	FirstEntry uint64
}

// Bytes serializes the string table header into its wire image.
func (h *StringTableHeader) Bytes() []byte {
	b := make([]byte, 0, StringTableHeaderSize)
	b = append(b, format.MarkerStringTable)
	b = engine.AppendUint32(b, h.NumEntries)
	b = append(b, h.Flags)
	b = engine.AppendUint64(b, h.FirstEntry)

	return b
}

// ParseStringTableHeader parses and validates a string table header.
func ParseStringTableHeader(data []byte) (StringTableHeader, error) {
	if len(data) < StringTableHeaderSize {
		return StringTableHeader{}, fmt.Errorf("string table header needs %d bytes, got %d: %w",
			StringTableHeaderSize, len(data), errs.ErrCorrupted)
	}
	if data[0] != format.MarkerStringTable {
		return StringTableHeader{}, fmt.Errorf("expected %q got %q: %w",
			format.MarkerStringTable, data[0], errs.ErrCorrupted)
	}

	return StringTableHeader{
		NumEntries: engine.Uint32(data[1:]),
		Flags:      data[5],
		FirstEntry: engine.Uint64(data[6:]),
	}, nil
}

// StringEntryHeader precedes each entry of the on-disk string list. The
// entries form a singly linked list terminated by NextEntryOff == 0.
type StringEntryHeader struct {
	NextEntryOff uint64
	StringID     uint64
	StringLen    uint32
}

// Bytes serializes the string entry header into its wire image.
func (h *StringEntryHeader) Bytes() []byte {
	b := make([]byte, 0, StringEntryHeaderSize)
	b = append(b, format.MarkerStringEntry)
	b = engine.AppendUint64(b, h.NextEntryOff)
	b = engine.AppendUint64(b, h.StringID)
	b = engine.AppendUint32(b, h.StringLen)

	return b
}

// ParseStringEntryHeader parses and validates a string entry header.
func ParseStringEntryHeader(data []byte) (StringEntryHeader, error) {
	if len(data) < StringEntryHeaderSize {
		return StringEntryHeader{}, fmt.Errorf("string entry header needs %d bytes, got %d: %w",
			StringEntryHeaderSize, len(data), errs.ErrCorrupted)
	}
	if data[0] != format.MarkerStringEntry {
		return StringEntryHeader{}, fmt.Errorf("expected %q got %q: %w",
			format.MarkerStringEntry, data[0], errs.ErrCorrupted)
	}

	return StringEntryHeader{
		NextEntryOff: engine.Uint64(data[1:]),
		StringID:     engine.Uint64(data[9:]),
		StringLen:    engine.Uint32(data[17:]),
	}, nil
}
