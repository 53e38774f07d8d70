package archive

import (
	"fmt"
	"strings"

	"github.com/jaksonlabs/carbon/format"
)

// Policy is the return value of every enter hook. Exclude skips the
// entire subtree of the hook's scope, including inner hooks and the
// matching leave hook.
type Policy int

const (
	PolicyInclude Policy = iota
	PolicyExclude
)

// PathEntry is one scope of the visitor's path stack.
type PathEntry struct {
	ContainerObjectID uint64
	Key               uint64
	Idx               uint32
}

// Path is the visitor's current path, outermost scope first. Hooks must
// not retain it beyond the call.
type Path []PathEntry

// VisitorDesc configures a traversal.
type VisitorDesc struct {
	// Mask selects the property groups to traverse; zero means MaskAny.
	Mask Mask
}

// Visitor is the callback table driving a depth-first traversal of the
// record table. Every field is optional; nil hooks are skipped and nil
// enter hooks default to PolicyInclude.
type Visitor struct {
	BeforeVisitStarts func(a *Archive, capture any)
	AfterVisitEnds    func(a *Archive, capture any)

	VisitRootObject func(a *Archive, id uint64, capture any)

	BeforeObjectVisit func(a *Archive, path Path, parentID, valueID uint64, objectIdx, numObjects uint32, key uint64, capture any) Policy
	AfterObjectVisit  func(a *Archive, path Path, id uint64, objectIdx, numObjects uint32, capture any)

	FirstPropTypeGroup func(a *Archive, path Path, id uint64, keys []uint64, t format.FieldType, isArray bool, numPairs uint32, capture any)
	NextPropTypeGroup  func(a *Archive, path Path, id uint64, keys []uint64, t format.FieldType, isArray bool, numPairs uint32, capture any)

	VisitInt8Pairs   func(a *Archive, path Path, id uint64, keys []uint64, values []int8, capture any)
	VisitInt16Pairs  func(a *Archive, path Path, id uint64, keys []uint64, values []int16, capture any)
	VisitInt32Pairs  func(a *Archive, path Path, id uint64, keys []uint64, values []int32, capture any)
	VisitInt64Pairs  func(a *Archive, path Path, id uint64, keys []uint64, values []int64, capture any)
	VisitUint8Pairs  func(a *Archive, path Path, id uint64, keys []uint64, values []uint8, capture any)
	VisitUint16Pairs func(a *Archive, path Path, id uint64, keys []uint64, values []uint16, capture any)
	VisitUint32Pairs func(a *Archive, path Path, id uint64, keys []uint64, values []uint32, capture any)
	VisitUint64Pairs func(a *Archive, path Path, id uint64, keys []uint64, values []uint64, capture any)
	VisitFloatPairs  func(a *Archive, path Path, id uint64, keys []uint64, values []float32, capture any)
	VisitStringPairs func(a *Archive, path Path, id uint64, keys []uint64, values []uint64, capture any)
	VisitBoolPairs   func(a *Archive, path Path, id uint64, keys []uint64, values []format.Bool, capture any)
	VisitNullPairs   func(a *Archive, path Path, id uint64, keys []uint64, capture any)

	VisitEnterInt8ArrayPairs func(a *Archive, path Path, id uint64, keys []uint64, numPairs uint32, capture any) Policy
	VisitEnterInt8ArrayPair  func(a *Archive, path Path, id uint64, key uint64, entryIdx, numElems uint32, capture any)
	VisitInt8ArrayPair       func(a *Archive, path Path, id uint64, key uint64, entryIdx, maxEntries uint32, values []int8, capture any)
	VisitLeaveInt8ArrayPair  func(a *Archive, path Path, id uint64, pairIdx, numPairs uint32, capture any)
	VisitLeaveInt8ArrayPairs func(a *Archive, path Path, id uint64, capture any)

	VisitEnterInt16ArrayPairs func(a *Archive, path Path, id uint64, keys []uint64, numPairs uint32, capture any) Policy
	VisitEnterInt16ArrayPair  func(a *Archive, path Path, id uint64, key uint64, entryIdx, numElems uint32, capture any)
	VisitInt16ArrayPair       func(a *Archive, path Path, id uint64, key uint64, entryIdx, maxEntries uint32, values []int16, capture any)
	VisitLeaveInt16ArrayPair  func(a *Archive, path Path, id uint64, pairIdx, numPairs uint32, capture any)
	VisitLeaveInt16ArrayPairs func(a *Archive, path Path, id uint64, capture any)

	VisitEnterInt32ArrayPairs func(a *Archive, path Path, id uint64, keys []uint64, numPairs uint32, capture any) Policy
	VisitEnterInt32ArrayPair  func(a *Archive, path Path, id uint64, key uint64, entryIdx, numElems uint32, capture any)
	VisitInt32ArrayPair       func(a *Archive, path Path, id uint64, key uint64, entryIdx, maxEntries uint32, values []int32, capture any)
	VisitLeaveInt32ArrayPair  func(a *Archive, path Path, id uint64, pairIdx, numPairs uint32, capture any)
	VisitLeaveInt32ArrayPairs func(a *Archive, path Path, id uint64, capture any)

	VisitEnterInt64ArrayPairs func(a *Archive, path Path, id uint64, keys []uint64, numPairs uint32, capture any) Policy
	VisitEnterInt64ArrayPair  func(a *Archive, path Path, id uint64, key uint64, entryIdx, numElems uint32, capture any)
	VisitInt64ArrayPair       func(a *Archive, path Path, id uint64, key uint64, entryIdx, maxEntries uint32, values []int64, capture any)
	VisitLeaveInt64ArrayPair  func(a *Archive, path Path, id uint64, pairIdx, numPairs uint32, capture any)
	VisitLeaveInt64ArrayPairs func(a *Archive, path Path, id uint64, capture any)

	VisitEnterUint8ArrayPairs func(a *Archive, path Path, id uint64, keys []uint64, numPairs uint32, capture any) Policy
	VisitEnterUint8ArrayPair  func(a *Archive, path Path, id uint64, key uint64, entryIdx, numElems uint32, capture any)
	VisitUint8ArrayPair       func(a *Archive, path Path, id uint64, key uint64, entryIdx, maxEntries uint32, values []uint8, capture any)
	VisitLeaveUint8ArrayPair  func(a *Archive, path Path, id uint64, pairIdx, numPairs uint32, capture any)
	VisitLeaveUint8ArrayPairs func(a *Archive, path Path, id uint64, capture any)

	VisitEnterUint16ArrayPairs func(a *Archive, path Path, id uint64, keys []uint64, numPairs uint32, capture any) Policy
	VisitEnterUint16ArrayPair  func(a *Archive, path Path, id uint64, key uint64, entryIdx, numElems uint32, capture any)
	VisitUint16ArrayPair       func(a *Archive, path Path, id uint64, key uint64, entryIdx, maxEntries uint32, values []uint16, capture any)
	VisitLeaveUint16ArrayPair  func(a *Archive, path Path, id uint64, pairIdx, numPairs uint32, capture any)
	VisitLeaveUint16ArrayPairs func(a *Archive, path Path, id uint64, capture any)

	VisitEnterUint32ArrayPairs func(a *Archive, path Path, id uint64, keys []uint64, numPairs uint32, capture any) Policy
	VisitEnterUint32ArrayPair  func(a *Archive, path Path, id uint64, key uint64, entryIdx, numElems uint32, capture any)
	VisitUint32ArrayPair       func(a *Archive, path Path, id uint64, key uint64, entryIdx, maxEntries uint32, values []uint32, capture any)
	VisitLeaveUint32ArrayPair  func(a *Archive, path Path, id uint64, pairIdx, numPairs uint32, capture any)
	VisitLeaveUint32ArrayPairs func(a *Archive, path Path, id uint64, capture any)

	VisitEnterUint64ArrayPairs func(a *Archive, path Path, id uint64, keys []uint64, numPairs uint32, capture any) Policy
	VisitEnterUint64ArrayPair  func(a *Archive, path Path, id uint64, key uint64, entryIdx, numElems uint32, capture any)
	VisitUint64ArrayPair       func(a *Archive, path Path, id uint64, key uint64, entryIdx, maxEntries uint32, values []uint64, capture any)
	VisitLeaveUint64ArrayPair  func(a *Archive, path Path, id uint64, pairIdx, numPairs uint32, capture any)
	VisitLeaveUint64ArrayPairs func(a *Archive, path Path, id uint64, capture any)

	VisitEnterFloatArrayPairs func(a *Archive, path Path, id uint64, keys []uint64, numPairs uint32, capture any) Policy
	VisitEnterFloatArrayPair  func(a *Archive, path Path, id uint64, key uint64, entryIdx, numElems uint32, capture any)
	VisitFloatArrayPair       func(a *Archive, path Path, id uint64, key uint64, entryIdx, maxEntries uint32, values []float32, capture any)
	VisitLeaveFloatArrayPair  func(a *Archive, path Path, id uint64, pairIdx, numPairs uint32, capture any)
	VisitLeaveFloatArrayPairs func(a *Archive, path Path, id uint64, capture any)

	VisitEnterStringArrayPairs func(a *Archive, path Path, id uint64, keys []uint64, numPairs uint32, capture any) Policy
	VisitEnterStringArrayPair  func(a *Archive, path Path, id uint64, key uint64, entryIdx, numElems uint32, capture any)
	VisitStringArrayPair       func(a *Archive, path Path, id uint64, key uint64, entryIdx, maxEntries uint32, values []uint64, capture any)
	VisitLeaveStringArrayPair  func(a *Archive, path Path, id uint64, pairIdx, numPairs uint32, capture any)
	VisitLeaveStringArrayPairs func(a *Archive, path Path, id uint64, capture any)

	VisitEnterBoolArrayPairs func(a *Archive, path Path, id uint64, keys []uint64, numPairs uint32, capture any) Policy
	VisitEnterBoolArrayPair  func(a *Archive, path Path, id uint64, key uint64, entryIdx, numElems uint32, capture any)
	VisitBoolArrayPair       func(a *Archive, path Path, id uint64, key uint64, entryIdx, maxEntries uint32, values []format.Bool, capture any)
	VisitLeaveBoolArrayPair  func(a *Archive, path Path, id uint64, pairIdx, numPairs uint32, capture any)
	VisitLeaveBoolArrayPairs func(a *Archive, path Path, id uint64, capture any)

	VisitEnterNullArrayPairs func(a *Archive, path Path, id uint64, keys []uint64, numPairs uint32, capture any) Policy
	VisitEnterNullArrayPair  func(a *Archive, path Path, id uint64, key uint64, entryIdx, numElems uint32, capture any)
	VisitNullArrayPair       func(a *Archive, path Path, id uint64, key uint64, entryIdx, maxEntries, numNulls uint32, capture any)
	VisitLeaveNullArrayPair  func(a *Archive, path Path, id uint64, pairIdx, numPairs uint32, capture any)
	VisitLeaveNullArrayPairs func(a *Archive, path Path, id uint64, capture any)

	BeforeVisitObjectArray func(a *Archive, path Path, id, key uint64, capture any) Policy
	// BeforeVisitObjectArrayObjects may set entries of skip, indexed by
	// logical position within the column group, to suppress those
	// objects' traversal.
	BeforeVisitObjectArrayObjects         func(skip []bool, a *Archive, path Path, id, key uint64, objectIDs []uint64, capture any)
	BeforeVisitObjectArrayObjectProperty  func(a *Archive, path Path, id, key, columnName uint64, t format.FieldType, capture any) Policy
	BeforeObjectArrayObjectPropertyObject func(a *Archive, path Path, id, key, nestedObjectID, columnName, objectID uint64, capture any) Policy

	VisitObjectArrayObjectPropertyInt8   func(a *Archive, path Path, id, key, nestedObjectID, columnName uint64, values []int8, capture any)
	VisitObjectArrayObjectPropertyInt16  func(a *Archive, path Path, id, key, nestedObjectID, columnName uint64, values []int16, capture any)
	VisitObjectArrayObjectPropertyInt32  func(a *Archive, path Path, id, key, nestedObjectID, columnName uint64, values []int32, capture any)
	VisitObjectArrayObjectPropertyInt64  func(a *Archive, path Path, id, key, nestedObjectID, columnName uint64, values []int64, capture any)
	VisitObjectArrayObjectPropertyUint8  func(a *Archive, path Path, id, key, nestedObjectID, columnName uint64, values []uint8, capture any)
	VisitObjectArrayObjectPropertyUint16 func(a *Archive, path Path, id, key, nestedObjectID, columnName uint64, values []uint16, capture any)
	VisitObjectArrayObjectPropertyUint32 func(a *Archive, path Path, id, key, nestedObjectID, columnName uint64, values []uint32, capture any)
	VisitObjectArrayObjectPropertyUint64 func(a *Archive, path Path, id, key, nestedObjectID, columnName uint64, values []uint64, capture any)
	VisitObjectArrayObjectPropertyFloat  func(a *Archive, path Path, id, key, nestedObjectID, columnName uint64, values []float32, capture any)
	VisitObjectArrayObjectPropertyString func(a *Archive, path Path, id, key, nestedObjectID, columnName uint64, values []uint64, capture any)
	VisitObjectArrayObjectPropertyBool   func(a *Archive, path Path, id, key, nestedObjectID, columnName uint64, values []format.Bool, capture any)
	VisitObjectArrayObjectPropertyNull   func(a *Archive, path Path, id, key, nestedObjectID, columnName uint64, nullCounts []uint32, capture any)
}

// Visit drives a depth-first traversal of the archive with the given
// callback table.
func (a *Archive) Visit(desc VisitorDesc, v *Visitor, capture any) error {
	mask := desc.Mask
	if mask == 0 {
		mask = MaskAny
	}
	root, err := a.Root()
	if err != nil {
		return err
	}

	d := &driver{archive: a, v: v, mask: mask, capture: capture}
	if v.BeforeVisitStarts != nil {
		v.BeforeVisitStarts(a, capture)
	}
	if v.VisitRootObject != nil {
		v.VisitRootObject(a, root.ID(), capture)
	}
	if err := d.iterateProps(root, 0, 0); err != nil {
		return err
	}
	if v.AfterVisitEnds != nil {
		v.AfterVisitEnds(a, capture)
	}

	return nil
}

type driver struct {
	archive *Archive
	v       *Visitor
	mask    Mask
	capture any
	path    Path
}

// typedArrayHooks bundles the five hooks of one typed-array group so a
// single generic walker serves all eleven value types.
type typedArrayHooks[T any] struct {
	enterPairs func(a *Archive, path Path, id uint64, keys []uint64, numPairs uint32, capture any) Policy
	enterPair  func(a *Archive, path Path, id uint64, key uint64, entryIdx, numElems uint32, capture any)
	pair       func(a *Archive, path Path, id uint64, key uint64, entryIdx, maxEntries uint32, values []T, capture any)
	leavePair  func(a *Archive, path Path, id uint64, pairIdx, numPairs uint32, capture any)
	leavePairs func(a *Archive, path Path, id uint64, capture any)
}

func visitTypedArrays[T any](d *driver, vv *ValueVector, h typedArrayHooks[T], at func(i int) ([]T, error)) error {
	keys := vv.Keys()
	id := vv.ObjectID()
	numPairs := uint32(len(keys))

	policy := PolicyInclude
	if h.enterPairs != nil {
		policy = h.enterPairs(d.archive, d.path, id, keys, numPairs, d.capture)
	}
	if policy == PolicyExclude {
		return nil
	}

	for i, key := range keys {
		values, err := at(i)
		if err != nil {
			return err
		}
		if h.enterPair != nil {
			h.enterPair(d.archive, d.path, id, key, uint32(i), uint32(len(values)), d.capture)
		}
		if h.pair != nil {
			h.pair(d.archive, d.path, id, key, uint32(i), numPairs, values, d.capture)
		}
		if h.leavePair != nil {
			h.leavePair(d.archive, d.path, id, uint32(i), numPairs, d.capture)
		}
	}
	if h.leavePairs != nil {
		h.leavePairs(d.archive, d.path, id, d.capture)
	}

	return nil
}

func (d *driver) iterateProps(obj *Object, parentKey uint64, parentIdx uint32) error {
	d.path = append(d.path, PathEntry{ContainerObjectID: obj.ID(), Key: parentKey, Idx: parentIdx})
	defer func() { d.path = d.path[:len(d.path)-1] }()

	it := PropIterFromObject(obj, d.mask)
	first := true
	for {
		group, err := it.Next()
		if err != nil {
			return err
		}
		if group == nil {
			return nil
		}
		if group.Collection != nil {
			if err := d.visitObjectArrays(group.Collection); err != nil {
				return err
			}
			continue
		}

		vv := group.Values
		keys := vv.Keys()
		numPairs := uint32(len(keys))
		id := vv.ObjectID()

		if first {
			if d.v.FirstPropTypeGroup != nil {
				d.v.FirstPropTypeGroup(d.archive, d.path, id, keys, vv.BasicType(), vv.IsArray(), numPairs, d.capture)
			}
		} else if d.v.NextPropTypeGroup != nil {
			d.v.NextPropTypeGroup(d.archive, d.path, id, keys, vv.BasicType(), vv.IsArray(), numPairs, d.capture)
		}
		first = false

		if err := d.visitValueGroup(vv); err != nil {
			return err
		}
	}
}

func (d *driver) visitValueGroup(vv *ValueVector) error {
	v := d.v
	keys := vv.Keys()
	id := vv.ObjectID()

	if vv.BasicType() == format.TypeObject {
		for i := range keys {
			child, err := vv.ObjectAt(i)
			if err != nil {
				return err
			}
			policy := PolicyInclude
			if v.BeforeObjectVisit != nil {
				policy = v.BeforeObjectVisit(d.archive, d.path, id, child.ID(),
					uint32(i), uint32(len(keys)), keys[i], d.capture)
			}
			if policy == PolicyExclude {
				continue
			}
			if err := d.iterateProps(child, keys[i], uint32(i)); err != nil {
				return err
			}
			if v.AfterObjectVisit != nil {
				v.AfterObjectVisit(d.archive, d.path, child.ID(), uint32(i), uint32(len(keys)), d.capture)
			}
		}

		return nil
	}

	if vv.BasicType() == format.TypeNull {
		if !vv.IsArray() {
			if v.VisitNullPairs != nil {
				v.VisitNullPairs(d.archive, d.path, id, keys, d.capture)
			}

			return nil
		}

		return d.visitNullArrays(vv)
	}

	if !vv.IsArray() {
		return d.visitScalarPairs(vv)
	}

	return d.visitArrayPairs(vv)
}

func (d *driver) visitScalarPairs(vv *ValueVector) error {
	v := d.v
	keys := vv.Keys()
	id := vv.ObjectID()

	switch vv.BasicType() {
	case format.TypeInt8:
		if v.VisitInt8Pairs != nil {
			values, err := vv.Int8s()
			if err != nil {
				return err
			}
			v.VisitInt8Pairs(d.archive, d.path, id, keys, values, d.capture)
		}
	case format.TypeInt16:
		if v.VisitInt16Pairs != nil {
			values, err := vv.Int16s()
			if err != nil {
				return err
			}
			v.VisitInt16Pairs(d.archive, d.path, id, keys, values, d.capture)
		}
	case format.TypeInt32:
		if v.VisitInt32Pairs != nil {
			values, err := vv.Int32s()
			if err != nil {
				return err
			}
			v.VisitInt32Pairs(d.archive, d.path, id, keys, values, d.capture)
		}
	case format.TypeInt64:
		if v.VisitInt64Pairs != nil {
			values, err := vv.Int64s()
			if err != nil {
				return err
			}
			v.VisitInt64Pairs(d.archive, d.path, id, keys, values, d.capture)
		}
	case format.TypeUint8:
		if v.VisitUint8Pairs != nil {
			values, err := vv.Uint8s()
			if err != nil {
				return err
			}
			v.VisitUint8Pairs(d.archive, d.path, id, keys, values, d.capture)
		}
	case format.TypeUint16:
		if v.VisitUint16Pairs != nil {
			values, err := vv.Uint16s()
			if err != nil {
				return err
			}
			v.VisitUint16Pairs(d.archive, d.path, id, keys, values, d.capture)
		}
	case format.TypeUint32:
		if v.VisitUint32Pairs != nil {
			values, err := vv.Uint32s()
			if err != nil {
				return err
			}
			v.VisitUint32Pairs(d.archive, d.path, id, keys, values, d.capture)
		}
	case format.TypeUint64:
		if v.VisitUint64Pairs != nil {
			values, err := vv.Uint64s()
			if err != nil {
				return err
			}
			v.VisitUint64Pairs(d.archive, d.path, id, keys, values, d.capture)
		}
	case format.TypeFloat:
		if v.VisitFloatPairs != nil {
			values, err := vv.Floats()
			if err != nil {
				return err
			}
			v.VisitFloatPairs(d.archive, d.path, id, keys, values, d.capture)
		}
	case format.TypeString:
		if v.VisitStringPairs != nil {
			values, err := vv.Strings()
			if err != nil {
				return err
			}
			v.VisitStringPairs(d.archive, d.path, id, keys, values, d.capture)
		}
	case format.TypeBool:
		if v.VisitBoolPairs != nil {
			values, err := vv.Bools()
			if err != nil {
				return err
			}
			v.VisitBoolPairs(d.archive, d.path, id, keys, values, d.capture)
		}
	}

	return nil
}

func (d *driver) visitArrayPairs(vv *ValueVector) error {
	v := d.v

	switch vv.BasicType() {
	case format.TypeInt8:
		return visitTypedArrays(d, vv, typedArrayHooks[int8]{
			v.VisitEnterInt8ArrayPairs, v.VisitEnterInt8ArrayPair, v.VisitInt8ArrayPair,
			v.VisitLeaveInt8ArrayPair, v.VisitLeaveInt8ArrayPairs,
		}, vv.Int8ArrayAt)
	case format.TypeInt16:
		return visitTypedArrays(d, vv, typedArrayHooks[int16]{
			v.VisitEnterInt16ArrayPairs, v.VisitEnterInt16ArrayPair, v.VisitInt16ArrayPair,
			v.VisitLeaveInt16ArrayPair, v.VisitLeaveInt16ArrayPairs,
		}, vv.Int16ArrayAt)
	case format.TypeInt32:
		return visitTypedArrays(d, vv, typedArrayHooks[int32]{
			v.VisitEnterInt32ArrayPairs, v.VisitEnterInt32ArrayPair, v.VisitInt32ArrayPair,
			v.VisitLeaveInt32ArrayPair, v.VisitLeaveInt32ArrayPairs,
		}, vv.Int32ArrayAt)
	case format.TypeInt64:
		return visitTypedArrays(d, vv, typedArrayHooks[int64]{
			v.VisitEnterInt64ArrayPairs, v.VisitEnterInt64ArrayPair, v.VisitInt64ArrayPair,
			v.VisitLeaveInt64ArrayPair, v.VisitLeaveInt64ArrayPairs,
		}, vv.Int64ArrayAt)
	case format.TypeUint8:
		return visitTypedArrays(d, vv, typedArrayHooks[uint8]{
			v.VisitEnterUint8ArrayPairs, v.VisitEnterUint8ArrayPair, v.VisitUint8ArrayPair,
			v.VisitLeaveUint8ArrayPair, v.VisitLeaveUint8ArrayPairs,
		}, vv.Uint8ArrayAt)
	case format.TypeUint16:
		return visitTypedArrays(d, vv, typedArrayHooks[uint16]{
			v.VisitEnterUint16ArrayPairs, v.VisitEnterUint16ArrayPair, v.VisitUint16ArrayPair,
			v.VisitLeaveUint16ArrayPair, v.VisitLeaveUint16ArrayPairs,
		}, vv.Uint16ArrayAt)
	case format.TypeUint32:
		return visitTypedArrays(d, vv, typedArrayHooks[uint32]{
			v.VisitEnterUint32ArrayPairs, v.VisitEnterUint32ArrayPair, v.VisitUint32ArrayPair,
			v.VisitLeaveUint32ArrayPair, v.VisitLeaveUint32ArrayPairs,
		}, vv.Uint32ArrayAt)
	case format.TypeUint64:
		return visitTypedArrays(d, vv, typedArrayHooks[uint64]{
			v.VisitEnterUint64ArrayPairs, v.VisitEnterUint64ArrayPair, v.VisitUint64ArrayPair,
			v.VisitLeaveUint64ArrayPair, v.VisitLeaveUint64ArrayPairs,
		}, vv.Uint64ArrayAt)
	case format.TypeFloat:
		return visitTypedArrays(d, vv, typedArrayHooks[float32]{
			v.VisitEnterFloatArrayPairs, v.VisitEnterFloatArrayPair, v.VisitFloatArrayPair,
			v.VisitLeaveFloatArrayPair, v.VisitLeaveFloatArrayPairs,
		}, vv.FloatArrayAt)
	case format.TypeString:
		return visitTypedArrays(d, vv, typedArrayHooks[uint64]{
			v.VisitEnterStringArrayPairs, v.VisitEnterStringArrayPair, v.VisitStringArrayPair,
			v.VisitLeaveStringArrayPair, v.VisitLeaveStringArrayPairs,
		}, vv.StringArrayAt)
	case format.TypeBool:
		return visitTypedArrays(d, vv, typedArrayHooks[format.Bool]{
			v.VisitEnterBoolArrayPairs, v.VisitEnterBoolArrayPair, v.VisitBoolArrayPair,
			v.VisitLeaveBoolArrayPair, v.VisitLeaveBoolArrayPairs,
		}, vv.BoolArrayAt)
	}

	return nil
}

func (d *driver) visitNullArrays(vv *ValueVector) error {
	v := d.v
	keys := vv.Keys()
	id := vv.ObjectID()
	numPairs := uint32(len(keys))

	policy := PolicyInclude
	if v.VisitEnterNullArrayPairs != nil {
		policy = v.VisitEnterNullArrayPairs(d.archive, d.path, id, keys, numPairs, d.capture)
	}
	if policy == PolicyExclude {
		return nil
	}

	lengths, err := vv.ArrayLengths()
	if err != nil {
		return err
	}
	for i, key := range keys {
		if v.VisitEnterNullArrayPair != nil {
			v.VisitEnterNullArrayPair(d.archive, d.path, id, key, uint32(i), lengths[i], d.capture)
		}
		if v.VisitNullArrayPair != nil {
			v.VisitNullArrayPair(d.archive, d.path, id, key, uint32(i), numPairs, lengths[i], d.capture)
		}
		if v.VisitLeaveNullArrayPair != nil {
			v.VisitLeaveNullArrayPair(d.archive, d.path, id, uint32(i), numPairs, d.capture)
		}
	}
	if v.VisitLeaveNullArrayPairs != nil {
		v.VisitLeaveNullArrayPairs(d.archive, d.path, id, d.capture)
	}

	return nil
}

func (d *driver) visitObjectArrays(coll *CollectionIter) error {
	v := d.v
	keys := coll.Keys()
	ownerID := coll.ObjectID()

	skipGroups := make([]bool, len(keys))
	if v.BeforeVisitObjectArray != nil {
		for i, key := range keys {
			skipGroups[i] = v.BeforeVisitObjectArray(d.archive, d.path, ownerID, key, d.capture) == PolicyExclude
		}
	}

	groupIdx := 0
	for {
		group, err := coll.NextColumnGroup()
		if err != nil {
			return err
		}
		if group == nil {
			return nil
		}
		if skipGroups[groupIdx] {
			groupIdx++
			continue
		}
		groupKey := keys[groupIdx]

		objectIDs := group.ObjectIDs()
		skipObjects := make([]bool, len(objectIDs))
		if v.BeforeVisitObjectArrayObjects != nil {
			v.BeforeVisitObjectArrayObjects(skipObjects, d.archive, d.path, ownerID, groupKey, objectIDs, d.capture)
		}

		for {
			col, err := group.NextColumn()
			if err != nil {
				return err
			}
			if col == nil {
				break
			}
			if err := d.visitColumn(col, ownerID, groupKey, uint32(groupIdx), objectIDs, skipObjects); err != nil {
				return err
			}
		}
		groupIdx++
	}
}

func (d *driver) visitColumn(col *ColumnIter, ownerID, groupKey uint64, groupIdx uint32, objectIDs []uint64, skipObjects []bool) error {
	v := d.v

	if v.BeforeVisitObjectArrayObjectProperty != nil {
		policy := v.BeforeVisitObjectArrayObjectProperty(d.archive, d.path, ownerID, groupKey,
			col.Name(), col.FieldType(), d.capture)
		if policy == PolicyExclude {
			return nil
		}
	}

	positions := col.Positions()
	entryIdx := 0
	for {
		entry, err := col.NextEntry()
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		pos := positions[entryIdx]
		entryIdx++
		if int(pos) < len(skipObjects) && skipObjects[pos] {
			continue
		}
		nestedID := objectIDs[pos]

		if col.FieldType() == format.TypeObject {
			objIter, err := entry.Objects()
			if err != nil {
				return err
			}
			for {
				child, err := objIter.NextObject()
				if err != nil {
					return err
				}
				if child == nil {
					break
				}
				policy := PolicyInclude
				if v.BeforeObjectArrayObjectPropertyObject != nil {
					policy = v.BeforeObjectArrayObjectPropertyObject(d.archive, d.path, ownerID, groupKey,
						nestedID, col.Name(), child.ID(), d.capture)
				}
				if policy == PolicyExclude {
					continue
				}
				if err := d.iterateProps(child, groupKey, groupIdx); err != nil {
					return err
				}
			}
			continue
		}

		values, err := entry.Values()
		if err != nil {
			return err
		}
		d.dispatchColumnEntry(col.FieldType(), ownerID, groupKey, nestedID, col.Name(), values)
	}
}

func (d *driver) dispatchColumnEntry(t format.FieldType, ownerID, groupKey, nestedID, columnName uint64, values any) {
	v := d.v
	switch t {
	case format.TypeInt8:
		if v.VisitObjectArrayObjectPropertyInt8 != nil {
			v.VisitObjectArrayObjectPropertyInt8(d.archive, d.path, ownerID, groupKey, nestedID, columnName, values.([]int8), d.capture)
		}
	case format.TypeInt16:
		if v.VisitObjectArrayObjectPropertyInt16 != nil {
			v.VisitObjectArrayObjectPropertyInt16(d.archive, d.path, ownerID, groupKey, nestedID, columnName, values.([]int16), d.capture)
		}
	case format.TypeInt32:
		if v.VisitObjectArrayObjectPropertyInt32 != nil {
			v.VisitObjectArrayObjectPropertyInt32(d.archive, d.path, ownerID, groupKey, nestedID, columnName, values.([]int32), d.capture)
		}
	case format.TypeInt64:
		if v.VisitObjectArrayObjectPropertyInt64 != nil {
			v.VisitObjectArrayObjectPropertyInt64(d.archive, d.path, ownerID, groupKey, nestedID, columnName, values.([]int64), d.capture)
		}
	case format.TypeUint8:
		if v.VisitObjectArrayObjectPropertyUint8 != nil {
			v.VisitObjectArrayObjectPropertyUint8(d.archive, d.path, ownerID, groupKey, nestedID, columnName, values.([]uint8), d.capture)
		}
	case format.TypeUint16:
		if v.VisitObjectArrayObjectPropertyUint16 != nil {
			v.VisitObjectArrayObjectPropertyUint16(d.archive, d.path, ownerID, groupKey, nestedID, columnName, values.([]uint16), d.capture)
		}
	case format.TypeUint32:
		if v.VisitObjectArrayObjectPropertyUint32 != nil {
			v.VisitObjectArrayObjectPropertyUint32(d.archive, d.path, ownerID, groupKey, nestedID, columnName, values.([]uint32), d.capture)
		}
	case format.TypeUint64:
		if v.VisitObjectArrayObjectPropertyUint64 != nil {
			v.VisitObjectArrayObjectPropertyUint64(d.archive, d.path, ownerID, groupKey, nestedID, columnName, values.([]uint64), d.capture)
		}
	case format.TypeFloat:
		if v.VisitObjectArrayObjectPropertyFloat != nil {
			v.VisitObjectArrayObjectPropertyFloat(d.archive, d.path, ownerID, groupKey, nestedID, columnName, values.([]float32), d.capture)
		}
	case format.TypeString:
		if v.VisitObjectArrayObjectPropertyString != nil {
			v.VisitObjectArrayObjectPropertyString(d.archive, d.path, ownerID, groupKey, nestedID, columnName, values.([]uint64), d.capture)
		}
	case format.TypeBool:
		if v.VisitObjectArrayObjectPropertyBool != nil {
			v.VisitObjectArrayObjectPropertyBool(d.archive, d.path, ownerID, groupKey, nestedID, columnName, values.([]format.Bool), d.capture)
		}
	case format.TypeNull:
		if v.VisitObjectArrayObjectPropertyNull != nil {
			v.VisitObjectArrayObjectPropertyNull(d.archive, d.path, ownerID, groupKey, nestedID, columnName, values.([]uint32), d.capture)
		}
	}
}

// PathString renders a visitor path. With a query handle, keys resolve
// to their strings; without one the raw ids are printed.
func PathString(path Path, q *Query) string {
	var sb strings.Builder
	sb.WriteByte('/')
	if len(path) == 0 {
		return sb.String()
	}
	for _, entry := range path[1:] {
		if q != nil {
			if name, err := q.FetchString(entry.Key); err == nil {
				fmt.Fprintf(&sb, "%s/", name)
				continue
			}
		}
		fmt.Fprintf(&sb, "'%d'[%d]/", entry.Key, entry.Idx)
	}

	return sb.String()
}
