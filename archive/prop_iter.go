package archive

import (
	"fmt"

	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
	"github.com/jaksonlabs/carbon/memory"
	"github.com/jaksonlabs/carbon/section"
)

// PropIter walks the property groups of one object in the fixed 26-slot
// schedule order, filtered by a mask. Iteration is a read-only scan of
// the record table; the iterator never mutates the archive buffer.
type PropIter struct {
	archive *Archive
	obj     *Object
	mask    Mask
	slot    int
}

// Group is one step of a property iteration: a value vector for the 25
// value-bearing groups, or a collection iterator for the object-array
// group.
type Group struct {
	Values     *ValueVector
	Collection *CollectionIter
}

// PropIter starts a property iteration over the archive's root object.
func (a *Archive) PropIter(mask Mask) (*PropIter, error) {
	root, err := a.Root()
	if err != nil {
		return nil, err
	}

	return PropIterFromObject(root, mask), nil
}

// PropIterFromObject starts a property iteration over one object.
func PropIterFromObject(obj *Object, mask Mask) *PropIter {
	return &PropIter{archive: obj.archive, obj: obj, mask: mask}
}

// Object returns the object under iteration.
func (it *PropIter) Object() *Object {
	return it.obj
}

// Next advances to the next mask-enabled group present in the object.
// It returns nil once all slots are exhausted.
func (it *PropIter) Next() (*Group, error) {
	for it.slot < section.NumPropGroups {
		slot := it.slot
		it.slot++

		if !it.obj.flags.Has(slot) {
			continue
		}
		if it.obj.offsets[slot] == 0 {
			return nil, fmt.Errorf("present group %d has zero offset: %w", slot, errs.ErrCorrupted)
		}

		t := format.FieldType(slot % format.NumFieldTypes)
		isArray := slot >= format.NumFieldTypes
		if !it.mask.includes(t, isArray) {
			continue
		}

		if slot == section.GroupSlot(format.TypeObject, true) {
			coll, err := newCollectionIter(it.obj)
			if err != nil {
				return nil, err
			}

			return &Group{Collection: coll}, nil
		}

		vv, err := newValueVector(it.obj, t, isArray)
		if err != nil {
			return nil, err
		}

		return &Group{Values: vv}, nil
	}

	return nil, nil
}

// ValueVector exposes the keys and typed values of one property group.
type ValueVector struct {
	archive *Archive
	mf      *memory.File
	ownerID uint64
	t       format.FieldType
	isArray bool
	keys    []uint64

	// valuesOff is the block position where the group's value region
	// begins (fixed values, or the concatenated arrays after the lengths
	// column).
	valuesOff uint64
	// objOffsets holds the record-relative object offsets of an objects
	// group.
	objOffsets []uint64
	// lengths holds the per-array element counts of an array group.
	lengths []uint32
}

func newValueVector(obj *Object, t format.FieldType, isArray bool) (*ValueVector, error) {
	slot := section.GroupSlot(t, isArray)

	mf := obj.archive.recordFile()
	if err := obj.archive.seekRecord(mf, obj.offsets[slot]); err != nil {
		return nil, err
	}

	marker := format.PropMarker(t)
	if isArray {
		marker = format.ArrayPropMarker(t)
	}
	data, err := mf.Read(section.PropHeaderSize)
	if err != nil {
		return nil, err
	}
	header, err := section.ParsePropHeader(data, marker)
	if err != nil {
		return nil, err
	}

	vv := &ValueVector{
		archive: obj.archive,
		mf:      mf,
		ownerID: obj.id,
		t:       t,
		isArray: isArray,
	}
	n := int(header.NumEntries)
	if vv.keys, err = mf.ReadUint64Slice(n); err != nil {
		return nil, err
	}

	switch {
	case !isArray && t == format.TypeObject:
		if vv.objOffsets, err = mf.ReadUint64Slice(n); err != nil {
			return nil, err
		}
	case isArray:
		if vv.lengths, err = mf.ReadUint32Slice(n); err != nil {
			return nil, err
		}
		vv.valuesOff = mf.Tell()
	default:
		vv.valuesOff = mf.Tell()
	}

	return vv, nil
}

// Len returns the number of key/value pairs in the group.
func (v *ValueVector) Len() int {
	return len(v.keys)
}

// BasicType returns the group's basic value type.
func (v *ValueVector) BasicType() format.FieldType {
	return v.t
}

// IsArray reports whether the group holds arrays.
func (v *ValueVector) IsArray() bool {
	return v.isArray
}

// ObjectID returns the id of the object owning the group.
func (v *ValueVector) ObjectID() uint64 {
	return v.ownerID
}

// Keys returns the group's keys in their on-disk (insertion) order.
func (v *ValueVector) Keys() []uint64 {
	return v.keys
}

func (v *ValueVector) check(t format.FieldType, wantArray bool) error {
	if v.t != t || v.isArray != wantArray {
		return fmt.Errorf("group holds %s (array=%v), requested %s (array=%v): %w",
			v.t, v.isArray, t, wantArray, errs.ErrTypeMismatch)
	}

	return nil
}

// readTypedScalars reads n values of type t at the cursor of mf.
func readTypedScalars(mf *memory.File, t format.FieldType, n int) (any, error) {
	switch t {
	case format.TypeNull:
		// Null scalars have no payload outside column entries, where a
		// uint32 count stands in.
		return mf.ReadUint32Slice(n)
	case format.TypeBool, format.TypeUint8:
		data, err := mf.Read(n)
		if err != nil {
			return nil, err
		}
		out := make([]uint8, n)
		copy(out, data)

		return out, nil
	case format.TypeInt8:
		data, err := mf.Read(n)
		if err != nil {
			return nil, err
		}
		out := make([]int8, n)
		for i, b := range data {
			out[i] = int8(b)
		}

		return out, nil
	case format.TypeInt16:
		raw, err := mf.ReadUint16Slice(n)
		if err != nil {
			return nil, err
		}
		out := make([]int16, n)
		for i, u := range raw {
			out[i] = int16(u)
		}

		return out, nil
	case format.TypeUint16:
		return mf.ReadUint16Slice(n)
	case format.TypeInt32:
		raw, err := mf.ReadUint32Slice(n)
		if err != nil {
			return nil, err
		}
		out := make([]int32, n)
		for i, u := range raw {
			out[i] = int32(u)
		}

		return out, nil
	case format.TypeUint32:
		return mf.ReadUint32Slice(n)
	case format.TypeInt64:
		raw, err := mf.ReadUint64Slice(n)
		if err != nil {
			return nil, err
		}
		out := make([]int64, n)
		for i, u := range raw {
			out[i] = int64(u)
		}

		return out, nil
	case format.TypeUint64, format.TypeString:
		return mf.ReadUint64Slice(n)
	case format.TypeFloat:
		return mf.ReadFloat32Slice(n)
	default:
		return nil, fmt.Errorf("scalar type %s: %w", t, errs.ErrNoType)
	}
}

func (v *ValueVector) fixedValues(t format.FieldType) (any, error) {
	if err := v.check(t, false); err != nil {
		return nil, err
	}
	if err := v.mf.Seek(v.valuesOff); err != nil {
		return nil, err
	}

	return readTypedScalars(v.mf, t, len(v.keys))
}

// Bools returns the values of a boolean group.
func (v *ValueVector) Bools() ([]format.Bool, error) {
	vals, err := v.fixedValues(format.TypeBool)
	if err != nil {
		return nil, err
	}

	return vals.([]uint8), nil
}

// Int8s returns the values of an int8 group.
func (v *ValueVector) Int8s() ([]int8, error) {
	vals, err := v.fixedValues(format.TypeInt8)
	if err != nil {
		return nil, err
	}

	return vals.([]int8), nil
}

// Int16s returns the values of an int16 group.
func (v *ValueVector) Int16s() ([]int16, error) {
	vals, err := v.fixedValues(format.TypeInt16)
	if err != nil {
		return nil, err
	}

	return vals.([]int16), nil
}

// Int32s returns the values of an int32 group.
func (v *ValueVector) Int32s() ([]int32, error) {
	vals, err := v.fixedValues(format.TypeInt32)
	if err != nil {
		return nil, err
	}

	return vals.([]int32), nil
}

// Int64s returns the values of an int64 group.
func (v *ValueVector) Int64s() ([]int64, error) {
	vals, err := v.fixedValues(format.TypeInt64)
	if err != nil {
		return nil, err
	}

	return vals.([]int64), nil
}

// Uint8s returns the values of a uint8 group.
func (v *ValueVector) Uint8s() ([]uint8, error) {
	vals, err := v.fixedValues(format.TypeUint8)
	if err != nil {
		return nil, err
	}

	return vals.([]uint8), nil
}

// Uint16s returns the values of a uint16 group.
func (v *ValueVector) Uint16s() ([]uint16, error) {
	vals, err := v.fixedValues(format.TypeUint16)
	if err != nil {
		return nil, err
	}

	return vals.([]uint16), nil
}

// Uint32s returns the values of a uint32 group.
func (v *ValueVector) Uint32s() ([]uint32, error) {
	vals, err := v.fixedValues(format.TypeUint32)
	if err != nil {
		return nil, err
	}

	return vals.([]uint32), nil
}

// Uint64s returns the values of a uint64 group.
func (v *ValueVector) Uint64s() ([]uint64, error) {
	vals, err := v.fixedValues(format.TypeUint64)
	if err != nil {
		return nil, err
	}

	return vals.([]uint64), nil
}

// Floats returns the values of a number group.
func (v *ValueVector) Floats() ([]float32, error) {
	vals, err := v.fixedValues(format.TypeFloat)
	if err != nil {
		return nil, err
	}

	return vals.([]float32), nil
}

// Strings returns the string ids of a string group.
func (v *ValueVector) Strings() ([]uint64, error) {
	vals, err := v.fixedValues(format.TypeString)
	if err != nil {
		return nil, err
	}

	return vals.([]uint64), nil
}

// ObjectAt materializes the i-th nested object of an objects group.
func (v *ValueVector) ObjectAt(i int) (*Object, error) {
	if err := v.check(format.TypeObject, false); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(v.objOffsets) {
		return nil, fmt.Errorf("object index %d of %d: %w", i, len(v.objOffsets), errs.ErrOutOfBounds)
	}

	return v.archive.readObject(v.objOffsets[i])
}

// ArrayLengths returns the per-key element counts of an array group.
func (v *ValueVector) ArrayLengths() ([]uint32, error) {
	if !v.isArray {
		return nil, fmt.Errorf("group %s is not an array group: %w", v.t, errs.ErrTypeMismatch)
	}

	return v.lengths, nil
}

// arrayAt seeks to the i-th array of the group and reads its values.
// The arrays are concatenated; the start is the prefix sum of the
// preceding lengths.
func (v *ValueVector) arrayAt(t format.FieldType, i int) (any, error) {
	if err := v.check(t, true); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(v.lengths) {
		return nil, fmt.Errorf("array index %d of %d: %w", i, len(v.lengths), errs.ErrOutOfBounds)
	}

	var skip uint64
	for k := 0; k < i; k++ {
		skip += uint64(v.lengths[k]) * uint64(format.ValueSize(t))
	}
	if err := v.mf.Seek(v.valuesOff + skip); err != nil {
		return nil, err
	}

	return readTypedScalars(v.mf, t, int(v.lengths[i]))
}

// BoolArrayAt returns the i-th boolean array.
func (v *ValueVector) BoolArrayAt(i int) ([]format.Bool, error) {
	vals, err := v.arrayAt(format.TypeBool, i)
	if err != nil {
		return nil, err
	}

	return vals.([]uint8), nil
}

// Int8ArrayAt returns the i-th int8 array.
func (v *ValueVector) Int8ArrayAt(i int) ([]int8, error) {
	vals, err := v.arrayAt(format.TypeInt8, i)
	if err != nil {
		return nil, err
	}

	return vals.([]int8), nil
}

// Int16ArrayAt returns the i-th int16 array.
func (v *ValueVector) Int16ArrayAt(i int) ([]int16, error) {
	vals, err := v.arrayAt(format.TypeInt16, i)
	if err != nil {
		return nil, err
	}

	return vals.([]int16), nil
}

// Int32ArrayAt returns the i-th int32 array.
func (v *ValueVector) Int32ArrayAt(i int) ([]int32, error) {
	vals, err := v.arrayAt(format.TypeInt32, i)
	if err != nil {
		return nil, err
	}

	return vals.([]int32), nil
}

// Int64ArrayAt returns the i-th int64 array.
func (v *ValueVector) Int64ArrayAt(i int) ([]int64, error) {
	vals, err := v.arrayAt(format.TypeInt64, i)
	if err != nil {
		return nil, err
	}

	return vals.([]int64), nil
}

// Uint8ArrayAt returns the i-th uint8 array.
func (v *ValueVector) Uint8ArrayAt(i int) ([]uint8, error) {
	vals, err := v.arrayAt(format.TypeUint8, i)
	if err != nil {
		return nil, err
	}

	return vals.([]uint8), nil
}

// Uint16ArrayAt returns the i-th uint16 array.
func (v *ValueVector) Uint16ArrayAt(i int) ([]uint16, error) {
	vals, err := v.arrayAt(format.TypeUint16, i)
	if err != nil {
		return nil, err
	}

	return vals.([]uint16), nil
}

// Uint32ArrayAt returns the i-th uint32 array.
func (v *ValueVector) Uint32ArrayAt(i int) ([]uint32, error) {
	vals, err := v.arrayAt(format.TypeUint32, i)
	if err != nil {
		return nil, err
	}

	return vals.([]uint32), nil
}

// Uint64ArrayAt returns the i-th uint64 array.
func (v *ValueVector) Uint64ArrayAt(i int) ([]uint64, error) {
	vals, err := v.arrayAt(format.TypeUint64, i)
	if err != nil {
		return nil, err
	}

	return vals.([]uint64), nil
}

// FloatArrayAt returns the i-th number array.
func (v *ValueVector) FloatArrayAt(i int) ([]float32, error) {
	vals, err := v.arrayAt(format.TypeFloat, i)
	if err != nil {
		return nil, err
	}

	return vals.([]float32), nil
}

// StringArrayAt returns the string ids of the i-th string array.
func (v *ValueVector) StringArrayAt(i int) ([]uint64, error) {
	vals, err := v.arrayAt(format.TypeString, i)
	if err != nil {
		return nil, err
	}

	return vals.([]uint64), nil
}
