package archive

import (
	"fmt"

	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
	"github.com/jaksonlabs/carbon/section"
)

// CollectionIter enumerates the object-array properties of one object as
// <key, column group> pairs in key order.
type CollectionIter struct {
	archive   *Archive
	ownerID   uint64
	keys      []uint64
	groupOffs []uint64
	idx       int
}

func newCollectionIter(obj *Object) (*CollectionIter, error) {
	slot := section.GroupSlot(format.TypeObject, true)

	mf := obj.archive.recordFile()
	if err := obj.archive.seekRecord(mf, obj.offsets[slot]); err != nil {
		return nil, err
	}
	data, err := mf.Read(section.ObjectArrayHeaderSize)
	if err != nil {
		return nil, err
	}
	header, err := section.ParseObjectArrayHeader(data)
	if err != nil {
		return nil, err
	}

	it := &CollectionIter{archive: obj.archive, ownerID: obj.id}
	n := int(header.NumEntries)
	if it.keys, err = mf.ReadUint64Slice(n); err != nil {
		return nil, err
	}
	if it.groupOffs, err = mf.ReadUint64Slice(n); err != nil {
		return nil, err
	}

	return it, nil
}

// Keys returns the object-array property keys.
func (it *CollectionIter) Keys() []uint64 {
	return it.keys
}

// ObjectID returns the id of the object owning the collection.
func (it *CollectionIter) ObjectID() uint64 {
	return it.ownerID
}

// NextColumnGroup opens the next column group, or nil when exhausted.
func (it *CollectionIter) NextColumnGroup() (*ColumnGroupIter, error) {
	if it.idx >= len(it.groupOffs) {
		return nil, nil
	}
	off := it.groupOffs[it.idx]
	it.idx++

	return newColumnGroupIter(it.archive, off)
}

// ColumnGroupIter walks the typed columns of one object-array key.
type ColumnGroupIter struct {
	archive    *Archive
	objectIDs  []uint64
	columnOffs []uint64
	idx        int
}

func newColumnGroupIter(a *Archive, off uint64) (*ColumnGroupIter, error) {
	mf := a.recordFile()
	if err := a.seekRecord(mf, off); err != nil {
		return nil, err
	}
	data, err := mf.Read(section.ColumnGroupHeaderSize)
	if err != nil {
		return nil, err
	}
	header, err := section.ParseColumnGroupHeader(data)
	if err != nil {
		return nil, err
	}

	g := &ColumnGroupIter{archive: a}
	if g.objectIDs, err = mf.ReadUint64Slice(int(header.NumObjects)); err != nil {
		return nil, err
	}
	if g.columnOffs, err = mf.ReadUint64Slice(int(header.NumColumns)); err != nil {
		return nil, err
	}

	return g, nil
}

// ObjectIDs returns the synthetic ids assigned to the logical array
// positions of the group.
func (g *ColumnGroupIter) ObjectIDs() []uint64 {
	return g.objectIDs
}

// NumColumns returns the number of typed columns in the group.
func (g *ColumnGroupIter) NumColumns() int {
	return len(g.columnOffs)
}

// NextColumn opens the next column, or nil when exhausted.
func (g *ColumnGroupIter) NextColumn() (*ColumnIter, error) {
	if g.idx >= len(g.columnOffs) {
		return nil, nil
	}
	off := g.columnOffs[g.idx]
	g.idx++

	return newColumnIter(g.archive, off)
}

// ColumnIter walks the entries of one typed column.
type ColumnIter struct {
	archive   *Archive
	name      uint64
	t         format.FieldType
	entryOffs []uint64
	positions []uint32
	idx       int
}

func newColumnIter(a *Archive, off uint64) (*ColumnIter, error) {
	mf := a.recordFile()
	if err := a.seekRecord(mf, off); err != nil {
		return nil, err
	}
	data, err := mf.Read(section.ColumnHeaderSize)
	if err != nil {
		return nil, err
	}
	header, err := section.ParseColumnHeader(data)
	if err != nil {
		return nil, err
	}
	t, ok := format.FieldTypeOfMarker(header.ValueType)
	if !ok {
		return nil, fmt.Errorf("column value type %q: %w", header.ValueType, errs.ErrNoType)
	}

	c := &ColumnIter{archive: a, name: header.ColumnName, t: t}
	n := int(header.NumEntries)
	if c.entryOffs, err = mf.ReadUint64Slice(n); err != nil {
		return nil, err
	}
	if c.positions, err = mf.ReadUint32Slice(n); err != nil {
		return nil, err
	}

	return c, nil
}

// Name returns the column's key id.
func (c *ColumnIter) Name() uint64 {
	return c.name
}

// FieldType returns the column's element type.
func (c *ColumnIter) FieldType() format.FieldType {
	return c.t
}

// Positions returns the logical array position of each entry.
func (c *ColumnIter) Positions() []uint32 {
	return c.positions
}

// NumEntries returns the number of entries.
func (c *ColumnIter) NumEntries() int {
	return len(c.entryOffs)
}

// NextEntry opens the next entry, or nil when exhausted.
func (c *ColumnIter) NextEntry() (*EntryIter, error) {
	if c.idx >= len(c.entryOffs) {
		return nil, nil
	}
	off := c.entryOffs[c.idx]
	c.idx++

	return newEntryIter(c.archive, c.t, off)
}

// EntryIter exposes the values of one column entry.
type EntryIter struct {
	archive *Archive
	t       format.FieldType
	n       uint32
	// dataOff is the record-relative offset of the first value.
	dataOff uint64
}

func newEntryIter(a *Archive, t format.FieldType, off uint64) (*EntryIter, error) {
	mf := a.recordFile()
	if err := a.seekRecord(mf, off); err != nil {
		return nil, err
	}
	n, err := mf.ReadUint32()
	if err != nil {
		return nil, err
	}

	return &EntryIter{
		archive: a,
		t:       t,
		n:       n,
		dataOff: mf.Tell() + uint64(section.RecordHeaderSize),
	}, nil
}

// Len returns the number of values in the entry.
func (e *EntryIter) Len() int {
	return int(e.n)
}

// FieldType returns the entry's element type.
func (e *EntryIter) FieldType() format.FieldType {
	return e.t
}

// Values reads the entry's values as the typed slice matching the
// column type ([]int32, []uint64, []float32, ...; []uint32 null counts
// for null columns). Object entries are read with Objects instead.
func (e *EntryIter) Values() (any, error) {
	if e.t == format.TypeObject {
		return nil, fmt.Errorf("object entries have no scalar values: %w", errs.ErrTypeMismatch)
	}
	mf := e.archive.recordFile()
	if err := e.archive.seekRecord(mf, e.dataOff); err != nil {
		return nil, err
	}

	return readTypedScalars(mf, e.t, int(e.n))
}

// Objects walks the sibling chain of an object-typed entry.
func (e *EntryIter) Objects() (*ObjectIter, error) {
	if e.t != format.TypeObject {
		return nil, fmt.Errorf("column type %s: %w", e.t, errs.ErrTypeMismatch)
	}

	return &ObjectIter{archive: e.archive, remaining: e.n, nextOff: e.dataOff}, nil
}

// ObjectIter walks sibling objects linked through their next-object
// offsets.
type ObjectIter struct {
	archive   *Archive
	remaining uint32
	nextOff   uint64
}

// NextObject materializes the next sibling, or nil at the chain's end.
func (o *ObjectIter) NextObject() (*Object, error) {
	if o.remaining == 0 || o.nextOff == 0 {
		return nil, nil
	}
	obj, err := o.archive.readObject(o.nextOff)
	if err != nil {
		return nil, err
	}
	o.remaining--
	o.nextOff = obj.nextOff

	return obj, nil
}
