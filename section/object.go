package section

import (
	"fmt"
	"math/bits"

	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
)

// NumPropGroups is the number of slots in the fixed property group
// schedule: thirteen primitive groups followed by thirteen array groups.
const NumPropGroups = 2 * format.NumFieldTypes

// ObjectFlags is the 32-bit group presence mask of one object. Bit i is
// set iff the object carries the i-th group of the schedule.
type ObjectFlags uint32

// GroupSlot returns the schedule slot of the basic type, primitive or
// array flavor.
func GroupSlot(t format.FieldType, isArray bool) int {
	if isArray {
		return format.NumFieldTypes + int(t)
	}

	return int(t)
}

// Set marks the group of the given slot as present.
func (f *ObjectFlags) Set(slot int) {
	*f |= 1 << slot
}

// Has reports whether the group of the given slot is present.
func (f ObjectFlags) Has(slot int) bool {
	return f&(1<<slot) != 0
}

// Count returns the number of present groups, which equals the length of
// the object's group offset vector.
func (f ObjectFlags) Count() int {
	return bits.OnesCount32(uint32(f))
}

// ObjectHeader starts every serialized object.
type ObjectHeader struct {
	ObjectID uint64
	Flags    ObjectFlags
}

// Bytes serializes the object header into its wire image.
func (h *ObjectHeader) Bytes() []byte {
	b := make([]byte, 0, ObjectHeaderSize)
	b = append(b, format.MarkerObjectBegin)
	b = engine.AppendUint64(b, h.ObjectID)
	b = engine.AppendUint32(b, uint32(h.Flags))

	return b
}

// ParseObjectHeader parses and validates an object header.
func ParseObjectHeader(data []byte) (ObjectHeader, error) {
	if len(data) < ObjectHeaderSize {
		return ObjectHeader{}, fmt.Errorf("object header needs %d bytes, got %d: %w",
			ObjectHeaderSize, len(data), errs.ErrCorrupted)
	}
	if data[0] != format.MarkerObjectBegin {
		return ObjectHeader{}, fmt.Errorf("expected %q got %q: %w",
			format.MarkerObjectBegin, data[0], errs.ErrCorrupted)
	}

	return ObjectHeader{
		ObjectID: engine.Uint64(data[1:]),
		Flags:    ObjectFlags(engine.Uint32(data[9:])),
	}, nil
}

// PropHeader starts every property group payload.
type PropHeader struct {
	Marker     byte
	NumEntries uint32
}

// Bytes serializes the property group header into its wire image.
func (h *PropHeader) Bytes() []byte {
	b := make([]byte, 0, PropHeaderSize)
	b = append(b, h.Marker)
	b = engine.AppendUint32(b, h.NumEntries)

	return b
}

// ParsePropHeader parses a property group header and checks its marker
// against want.
func ParsePropHeader(data []byte, want byte) (PropHeader, error) {
	if len(data) < PropHeaderSize {
		return PropHeader{}, fmt.Errorf("prop header needs %d bytes, got %d: %w",
			PropHeaderSize, len(data), errs.ErrCorrupted)
	}
	if data[0] != want {
		return PropHeader{}, fmt.Errorf("expected %q got %q: %w", want, data[0], errs.ErrCorrupted)
	}

	return PropHeader{Marker: data[0], NumEntries: engine.Uint32(data[1:])}, nil
}
