package section

import (
	"fmt"

	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
)

// ObjectArrayHeader starts the object-array property group of an object.
type ObjectArrayHeader struct {
	NumEntries uint8
}

// Bytes serializes the object-array group header into its wire image.
func (h *ObjectArrayHeader) Bytes() []byte {
	return []byte{format.MarkerObjectArrayProp, h.NumEntries}
}

// ParseObjectArrayHeader parses and validates an object-array group
// header.
func ParseObjectArrayHeader(data []byte) (ObjectArrayHeader, error) {
	if len(data) < ObjectArrayHeaderSize {
		return ObjectArrayHeader{}, fmt.Errorf("object-array header needs %d bytes, got %d: %w",
			ObjectArrayHeaderSize, len(data), errs.ErrCorrupted)
	}
	if data[0] != format.MarkerObjectArrayProp {
		return ObjectArrayHeader{}, fmt.Errorf("expected %q got %q: %w",
			format.MarkerObjectArrayProp, data[0], errs.ErrCorrupted)
	}

	return ObjectArrayHeader{NumEntries: data[1]}, nil
}

// ColumnGroupHeader starts the column group of one object-array key.
type ColumnGroupHeader struct {
	NumColumns uint32
	NumObjects uint32
}

// Bytes serializes the column group header into its wire image.
func (h *ColumnGroupHeader) Bytes() []byte {
	b := make([]byte, 0, ColumnGroupHeaderSize)
	b = append(b, format.MarkerColumnGroup)
	b = engine.AppendUint32(b, h.NumColumns)
	b = engine.AppendUint32(b, h.NumObjects)

	return b
}

// ParseColumnGroupHeader parses and validates a column group header.
func ParseColumnGroupHeader(data []byte) (ColumnGroupHeader, error) {
	if len(data) < ColumnGroupHeaderSize {
		return ColumnGroupHeader{}, fmt.Errorf("column group header needs %d bytes, got %d: %w",
			ColumnGroupHeaderSize, len(data), errs.ErrCorrupted)
	}
	if data[0] != format.MarkerColumnGroup {
		return ColumnGroupHeader{}, fmt.Errorf("expected %q got %q: %w",
			format.MarkerColumnGroup, data[0], errs.ErrCorrupted)
	}

	return ColumnGroupHeader{
		NumColumns: engine.Uint32(data[1:]),
		NumObjects: engine.Uint32(data[5:]),
	}, nil
}

// ColumnHeader starts one type-partitioned column inside a column group.
type ColumnHeader struct {
	ColumnName uint64
	ValueType  byte
	NumEntries uint32
}

// Bytes serializes the column header into its wire image.
func (h *ColumnHeader) Bytes() []byte {
	b := make([]byte, 0, ColumnHeaderSize)
	b = append(b, format.MarkerColumn)
	b = engine.AppendUint64(b, h.ColumnName)
	b = append(b, h.ValueType)
	b = engine.AppendUint32(b, h.NumEntries)

	return b
}

// ParseColumnHeader parses and validates a column header.
func ParseColumnHeader(data []byte) (ColumnHeader, error) {
	if len(data) < ColumnHeaderSize {
		return ColumnHeader{}, fmt.Errorf("column header needs %d bytes, got %d: %w",
			ColumnHeaderSize, len(data), errs.ErrCorrupted)
	}
	if data[0] != format.MarkerColumn {
		return ColumnHeader{}, fmt.Errorf("expected %q got %q: %w",
			format.MarkerColumn, data[0], errs.ErrCorrupted)
	}

	return ColumnHeader{
		ColumnName: engine.Uint64(data[1:]),
		ValueType:  data[9],
		NumEntries: engine.Uint32(data[10:]),
	}, nil
}
