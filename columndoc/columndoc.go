// Package columndoc holds the columnar pre-serialization model the
// archive writer consumes: a document tree transposed into per-type
// key/value columns, plus the string dictionary collecting every string
// literal of the document.
package columndoc

import (
	"github.com/jaksonlabs/carbon/format"
	"github.com/jaksonlabs/carbon/strdic"
)

// Doc is a complete pre-serialization model.
type Doc struct {
	Dict *strdic.Dictionary
	Root *Obj
	// ReadOptimized is threaded into the record header's sorted flag.
	ReadOptimized bool
}

// Obj is one object of the model, partitioned into the 26 property
// groups of the archive schedule. Within each group, keys and values
// are parallel vectors in document order.
type Obj struct {
	NullKeys []uint64

	BoolKeys []uint64
	BoolVals []format.Bool

	Int8Keys []uint64
	Int8Vals []int8

	Int16Keys []uint64
	Int16Vals []int16

	Int32Keys []uint64
	Int32Vals []int32

	Int64Keys []uint64
	Int64Vals []int64

	Uint8Keys []uint64
	Uint8Vals []uint8

	Uint16Keys []uint64
	Uint16Vals []uint16

	Uint32Keys []uint64
	Uint32Vals []uint32

	Uint64Keys []uint64
	Uint64Vals []uint64

	FloatKeys []uint64
	FloatVals []float32

	StringKeys []uint64
	StringVals []uint64

	ObjKeys []uint64
	ObjVals []*Obj

	// Null arrays store only their lengths, a bag of nulls.
	NullArrayKeys []uint64
	NullArrayLens []uint32

	BoolArrayKeys []uint64
	BoolArrayVals [][]format.Bool

	Int8ArrayKeys []uint64
	Int8ArrayVals [][]int8

	Int16ArrayKeys []uint64
	Int16ArrayVals [][]int16

	Int32ArrayKeys []uint64
	Int32ArrayVals [][]int32

	Int64ArrayKeys []uint64
	Int64ArrayVals [][]int64

	Uint8ArrayKeys []uint64
	Uint8ArrayVals [][]uint8

	Uint16ArrayKeys []uint64
	Uint16ArrayVals [][]uint16

	Uint32ArrayKeys []uint64
	Uint32ArrayVals [][]uint32

	Uint64ArrayKeys []uint64
	Uint64ArrayVals [][]uint64

	FloatArrayKeys []uint64
	FloatArrayVals [][]float32

	StringArrayKeys []uint64
	StringArrayVals [][]uint64

	// ObjectArrays holds one column group per object-array property.
	ObjectArrays []ColumnGroup
}

// ColumnGroup is the column-partitioned representation of one
// object-array property.
type ColumnGroup struct {
	Key     uint64
	Columns []*Column
}

// Column is one type-specific slice of a column group. Positions[i] is
// the index in the logical object array that Entries[i] belongs to.
//
// The concrete type of an entry depends on Type: []format.Bool, []int8,
// []int16, []int32, []int64, []uint8, []uint16, []uint32, []uint64
// (uint64 values and string ids alike), []float32, []*Obj for object
// columns, and []uint32 null counts for null columns.
type Column struct {
	Key       uint64
	Type      format.FieldType
	Positions []uint32
	Entries   []any
}

// HasProps reports whether the object carries any property at all.
func (o *Obj) HasProps() bool {
	return len(o.NullKeys) > 0 || len(o.BoolKeys) > 0 || len(o.Int8Keys) > 0 ||
		len(o.Int16Keys) > 0 || len(o.Int32Keys) > 0 || len(o.Int64Keys) > 0 ||
		len(o.Uint8Keys) > 0 || len(o.Uint16Keys) > 0 || len(o.Uint32Keys) > 0 ||
		len(o.Uint64Keys) > 0 || len(o.FloatKeys) > 0 || len(o.StringKeys) > 0 ||
		len(o.ObjKeys) > 0 || len(o.NullArrayKeys) > 0 || len(o.BoolArrayKeys) > 0 ||
		len(o.Int8ArrayKeys) > 0 || len(o.Int16ArrayKeys) > 0 || len(o.Int32ArrayKeys) > 0 ||
		len(o.Int64ArrayKeys) > 0 || len(o.Uint8ArrayKeys) > 0 || len(o.Uint16ArrayKeys) > 0 ||
		len(o.Uint32ArrayKeys) > 0 || len(o.Uint64ArrayKeys) > 0 || len(o.FloatArrayKeys) > 0 ||
		len(o.StringArrayKeys) > 0 || len(o.ObjectArrays) > 0
}

// column returns the column of the group keyed (key, type), creating it
// on first use so column order follows first appearance.
func (g *ColumnGroup) column(key uint64, t format.FieldType) *Column {
	for _, c := range g.Columns {
		if c.Key == key && c.Type == t {
			return c
		}
	}
	c := &Column{Key: key, Type: t}
	g.Columns = append(g.Columns, c)

	return c
}
