package archive

import (
	"github.com/jaksonlabs/carbon/section"
)

// Object is the reader-side view of one serialized object: its id, its
// group presence flags, the record-relative offsets of its present
// groups and the offset of its next sibling in an object chain.
type Object struct {
	archive *Archive
	id      uint64
	flags   section.ObjectFlags
	offsets [section.NumPropGroups]uint64
	nextOff uint64
}

// readObject materializes an object's header and offset vector at the
// record-relative offset off.
func (a *Archive) readObject(off uint64) (*Object, error) {
	mf := a.recordFile()
	if err := a.seekRecord(mf, off); err != nil {
		return nil, err
	}

	data, err := mf.Read(section.ObjectHeaderSize)
	if err != nil {
		return nil, err
	}
	header, err := section.ParseObjectHeader(data)
	if err != nil {
		return nil, err
	}

	obj := &Object{archive: a, id: header.ObjectID, flags: header.Flags}
	for slot := 0; slot < section.NumPropGroups; slot++ {
		if !header.Flags.Has(slot) {
			continue
		}
		obj.offsets[slot], err = mf.ReadUint64()
		if err != nil {
			return nil, err
		}
	}
	obj.nextOff, err = mf.ReadUint64()
	if err != nil {
		return nil, err
	}

	return obj, nil
}

// Root materializes the root object of the record table.
func (a *Archive) Root() (*Object, error) {
	return a.readObject(rootObjectOff())
}

// ID returns the object's unique 64-bit identifier.
func (o *Object) ID() uint64 {
	return o.id
}

// Flags returns the group presence mask.
func (o *Object) Flags() section.ObjectFlags {
	return o.flags
}

// GroupOffset returns the record-relative offset of the group in the
// given slot, or zero when absent.
func (o *Object) GroupOffset(slot int) uint64 {
	return o.offsets[slot]
}
