package archive

import (
	"fmt"
	"math"
	"os"

	"github.com/jaksonlabs/carbon/columndoc"
	"github.com/jaksonlabs/carbon/compress"
	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
	"github.com/jaksonlabs/carbon/memory"
	"github.com/jaksonlabs/carbon/section"
)

const initialBlockSize = 1024

// FromJSON parses a JSON document and serializes it into an in-memory
// archive image.
func FromJSON(data []byte, opts ...Option) (*memory.Block, error) {
	doc, err := columndoc.FromJSON(data)
	if err != nil {
		return nil, err
	}

	return FromModel(doc, opts...)
}

// FromModel serializes a columnar document model into an in-memory
// archive image: file header, string table, record header and record
// tree. The returned block is shrunk to its exact size; write it to disk
// with WriteFile or stream it anywhere.
func FromModel(doc *columndoc.Doc, opts ...Option) (*memory.Block, error) {
	o := newOptions(opts)

	gen, err := newOIDGenerator(o.owner)
	if err != nil {
		return nil, err
	}

	block := memory.NewBlock(initialBlockSize)
	s := &serializer{
		mf:  memory.Open(block, memory.ModeReadWrite),
		oid: gen,
	}
	if err := s.run(doc, o.compression); err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrArchiveSerialize, err)
	}

	block.Shrink()
	o.logger.Debugw("archive serialized",
		"size", block.Size(),
		"strings", doc.Dict.Len(),
		"compression", o.compression.String(),
	)

	return block, nil
}

// WriteFile stores a serialized archive image to disk.
func WriteFile(path string, block *memory.Block) error {
	if err := os.WriteFile(path, block.RawData(), 0o644); err != nil {
		return fmt.Errorf("%w: %s", errs.ErrOpenWrite, err)
	}

	return nil
}

// serializer carries the state of one archive serialization run.
type serializer struct {
	mf  *memory.File
	oid *oidGenerator
	// recordOff is the absolute offset of the record header; every offset
	// inside the record table is stored relative to it.
	recordOff uint64
}

func (s *serializer) run(doc *columndoc.Doc, compression format.CompressionType) error {
	if doc.Root == nil {
		return fmt.Errorf("document has no root object: %w", errs.ErrIllegalArg)
	}
	if err := s.mf.Skip(section.FileHeaderSize); err != nil {
		return err
	}
	if err := s.writeStringTable(doc, compression); err != nil {
		return err
	}

	s.recordOff = s.mf.Tell()
	if err := s.mf.Skip(section.RecordHeaderSize); err != nil {
		return err
	}

	fileHeader := section.FileHeader{RootObjectHeaderOffset: s.recordOff}
	if err := s.patchBytes(0, fileHeader.Bytes()); err != nil {
		return err
	}

	if _, err := s.writeObject(doc.Root); err != nil {
		return err
	}

	var flags uint8
	if doc.ReadOptimized {
		flags |= section.RecordFlagSorted
	}
	recordHeader := section.RecordHeader{
		Flags:      flags,
		RecordSize: s.mf.Tell() - (s.recordOff + uint64(section.RecordHeaderSize)),
	}

	return s.patchBytes(s.recordOff, recordHeader.Bytes())
}

// patchBytes writes data at a previously reserved position and returns
// the cursor to where it was.
func (s *serializer) patchBytes(at uint64, data []byte) error {
	pos := s.mf.Tell()
	if err := s.mf.Seek(at); err != nil {
		return err
	}
	if err := s.mf.Write(data); err != nil {
		return err
	}

	return s.mf.Seek(pos)
}

func (s *serializer) patchUint64(at, v uint64) error {
	var buf [8]byte
	engine.PutUint64(buf[:], v)

	return s.patchBytes(at, buf[:])
}

func (s *serializer) writeStringTable(doc *columndoc.Doc, compression format.CompressionType) error {
	strings, ids := doc.Dict.Contents()

	compressor, err := compress.ByType(compression)
	if err != nil {
		return err
	}

	headerPos := s.mf.Tell()
	if err := s.mf.Skip(section.StringTableHeaderSize); err != nil {
		return err
	}
	if err := compressor.BuildAndStore(s.mf, strings); err != nil {
		return err
	}

	firstEntry := s.mf.Tell()
	for i, str := range strings {
		entryPos := s.mf.Tell()
		if err := s.mf.Skip(section.StringEntryHeaderSize); err != nil {
			return err
		}
		if err := compressor.EncodeString(s.mf, str); err != nil {
			return err
		}

		header := section.StringEntryHeader{
			StringID:  ids[i],
			StringLen: uint32(len(str)),
		}
		if i+1 < len(strings) {
			header.NextEntryOff = s.mf.Tell()
		}
		if err := s.patchBytes(entryPos, header.Bytes()); err != nil {
			return err
		}
	}

	tableHeader := section.StringTableHeader{
		NumEntries: uint32(len(strings)),
		Flags:      compression.FlagBit(),
		FirstEntry: firstEntry,
	}

	return s.patchBytes(headerPos, tableHeader.Bytes())
}

// objectFlags derives the 26-bit group presence mask of one object.
func objectFlags(obj *columndoc.Obj) section.ObjectFlags {
	var f section.ObjectFlags
	set := func(t format.FieldType, isArray bool, n int) {
		if n > 0 {
			f.Set(section.GroupSlot(t, isArray))
		}
	}
	set(format.TypeNull, false, len(obj.NullKeys))
	set(format.TypeBool, false, len(obj.BoolKeys))
	set(format.TypeInt8, false, len(obj.Int8Keys))
	set(format.TypeInt16, false, len(obj.Int16Keys))
	set(format.TypeInt32, false, len(obj.Int32Keys))
	set(format.TypeInt64, false, len(obj.Int64Keys))
	set(format.TypeUint8, false, len(obj.Uint8Keys))
	set(format.TypeUint16, false, len(obj.Uint16Keys))
	set(format.TypeUint32, false, len(obj.Uint32Keys))
	set(format.TypeUint64, false, len(obj.Uint64Keys))
	set(format.TypeFloat, false, len(obj.FloatKeys))
	set(format.TypeString, false, len(obj.StringKeys))
	set(format.TypeObject, false, len(obj.ObjKeys))
	set(format.TypeNull, true, len(obj.NullArrayKeys))
	set(format.TypeBool, true, len(obj.BoolArrayKeys))
	set(format.TypeInt8, true, len(obj.Int8ArrayKeys))
	set(format.TypeInt16, true, len(obj.Int16ArrayKeys))
	set(format.TypeInt32, true, len(obj.Int32ArrayKeys))
	set(format.TypeInt64, true, len(obj.Int64ArrayKeys))
	set(format.TypeUint8, true, len(obj.Uint8ArrayKeys))
	set(format.TypeUint16, true, len(obj.Uint16ArrayKeys))
	set(format.TypeUint32, true, len(obj.Uint32ArrayKeys))
	set(format.TypeUint64, true, len(obj.Uint64ArrayKeys))
	set(format.TypeFloat, true, len(obj.FloatArrayKeys))
	set(format.TypeString, true, len(obj.StringArrayKeys))
	set(format.TypeObject, true, len(obj.ObjectArrays))

	return f
}

// writeObject serializes one object and returns the position of its
// next-object slot so a caller building a sibling chain can patch it.
func (s *serializer) writeObject(obj *columndoc.Obj) (uint64, error) {
	flags := objectFlags(obj)

	headerOff := s.mf.Tell()
	if err := s.mf.Skip(section.ObjectHeaderSize); err != nil {
		return 0, err
	}
	if err := s.mf.Skip(flags.Count() * 8); err != nil {
		return 0, err
	}
	nextSlot := s.mf.Tell()
	if err := s.mf.WriteUint64(0); err != nil {
		return 0, err
	}

	var offs [section.NumPropGroups]uint64
	if err := s.writePrimitiveProps(obj, &offs); err != nil {
		return 0, err
	}
	if err := s.writeArrayProps(obj, &offs); err != nil {
		return 0, err
	}
	if err := s.writeObjectArrayProps(obj, &offs); err != nil {
		return 0, err
	}

	if err := s.mf.WriteByte(format.MarkerObjectEnd); err != nil {
		return 0, err
	}
	objectEnd := s.mf.Tell()

	oid, err := s.oid.New()
	if err != nil {
		return 0, err
	}
	header := section.ObjectHeader{ObjectID: oid, Flags: flags}

	if err := s.mf.Seek(headerOff); err != nil {
		return 0, err
	}
	if err := s.mf.Write(header.Bytes()); err != nil {
		return 0, err
	}
	for slot := 0; slot < section.NumPropGroups; slot++ {
		if !flags.Has(slot) {
			continue
		}
		if err := s.mf.WriteUint64(offs[slot]); err != nil {
			return 0, err
		}
	}

	return nextSlot, s.mf.Seek(objectEnd)
}

func (s *serializer) writeKeys(keys []uint64) error {
	for _, key := range keys {
		if err := s.mf.WriteUint64(key); err != nil {
			return err
		}
	}

	return nil
}

// writeScalars writes one homogeneous value slice in wire order.
func (s *serializer) writeScalars(vals any) error {
	switch v := vals.(type) {
	case []uint8: // covers format.Bool and uint8 alike
		return s.mf.Write(v)
	case []int8:
		buf := make([]byte, len(v))
		for i, x := range v {
			buf[i] = byte(x)
		}

		return s.mf.Write(buf)
	case []int16:
		for _, x := range v {
			if err := s.mf.WriteUint16(uint16(x)); err != nil {
				return err
			}
		}
	case []uint16:
		for _, x := range v {
			if err := s.mf.WriteUint16(x); err != nil {
				return err
			}
		}
	case []int32:
		for _, x := range v {
			if err := s.mf.WriteUint32(uint32(x)); err != nil {
				return err
			}
		}
	case []uint32:
		for _, x := range v {
			if err := s.mf.WriteUint32(x); err != nil {
				return err
			}
		}
	case []int64:
		for _, x := range v {
			if err := s.mf.WriteUint64(uint64(x)); err != nil {
				return err
			}
		}
	case []uint64:
		for _, x := range v {
			if err := s.mf.WriteUint64(x); err != nil {
				return err
			}
		}
	case []float32:
		for _, x := range v {
			if err := s.mf.WriteUint32(math.Float32bits(x)); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("value slice %T: %w", vals, errs.ErrNoType)
	}

	return nil
}

// writeFixedProp writes a fixed primitive group: header, keys, values.
// Null groups pass nil values and store keys only.
func (s *serializer) writeFixedProp(offs *[section.NumPropGroups]uint64, t format.FieldType, keys []uint64, vals any) error {
	if len(keys) == 0 {
		return nil
	}
	start := s.mf.Tell()
	header := section.PropHeader{Marker: format.PropMarker(t), NumEntries: uint32(len(keys))}
	if err := s.mf.Write(header.Bytes()); err != nil {
		return err
	}
	if err := s.writeKeys(keys); err != nil {
		return err
	}
	if vals != nil {
		if err := s.writeScalars(vals); err != nil {
			return err
		}
	}
	offs[section.GroupSlot(t, false)] = start - s.recordOff

	return nil
}

func (s *serializer) writePrimitiveProps(obj *columndoc.Obj, offs *[section.NumPropGroups]uint64) error {
	if err := s.writeFixedProp(offs, format.TypeNull, obj.NullKeys, nil); err != nil {
		return err
	}
	if err := s.writeFixedProp(offs, format.TypeBool, obj.BoolKeys, obj.BoolVals); err != nil {
		return err
	}
	if err := s.writeFixedProp(offs, format.TypeInt8, obj.Int8Keys, obj.Int8Vals); err != nil {
		return err
	}
	if err := s.writeFixedProp(offs, format.TypeInt16, obj.Int16Keys, obj.Int16Vals); err != nil {
		return err
	}
	if err := s.writeFixedProp(offs, format.TypeInt32, obj.Int32Keys, obj.Int32Vals); err != nil {
		return err
	}
	if err := s.writeFixedProp(offs, format.TypeInt64, obj.Int64Keys, obj.Int64Vals); err != nil {
		return err
	}
	if err := s.writeFixedProp(offs, format.TypeUint8, obj.Uint8Keys, obj.Uint8Vals); err != nil {
		return err
	}
	if err := s.writeFixedProp(offs, format.TypeUint16, obj.Uint16Keys, obj.Uint16Vals); err != nil {
		return err
	}
	if err := s.writeFixedProp(offs, format.TypeUint32, obj.Uint32Keys, obj.Uint32Vals); err != nil {
		return err
	}
	if err := s.writeFixedProp(offs, format.TypeUint64, obj.Uint64Keys, obj.Uint64Vals); err != nil {
		return err
	}
	if err := s.writeFixedProp(offs, format.TypeFloat, obj.FloatKeys, obj.FloatVals); err != nil {
		return err
	}
	if err := s.writeFixedProp(offs, format.TypeString, obj.StringKeys, obj.StringVals); err != nil {
		return err
	}

	return s.writeObjectProp(obj, offs)
}

// writeObjectProp writes the variable-length objects group: header,
// keys, a reserved offset column, then the nested objects themselves.
func (s *serializer) writeObjectProp(obj *columndoc.Obj, offs *[section.NumPropGroups]uint64) error {
	if len(obj.ObjKeys) == 0 {
		return nil
	}
	start := s.mf.Tell()
	header := section.PropHeader{Marker: format.MarkerPropObject, NumEntries: uint32(len(obj.ObjKeys))}
	if err := s.mf.Write(header.Bytes()); err != nil {
		return err
	}
	if err := s.writeKeys(obj.ObjKeys); err != nil {
		return err
	}

	offSlot := s.mf.Tell()
	if err := s.mf.Skip(len(obj.ObjVals) * 8); err != nil {
		return err
	}
	for i, child := range obj.ObjVals {
		childOff := s.mf.Tell() - s.recordOff
		if err := s.patchUint64(offSlot+uint64(i*8), childOff); err != nil {
			return err
		}
		if _, err := s.writeObject(child); err != nil {
			return err
		}
	}
	offs[section.GroupSlot(format.TypeObject, false)] = start - s.recordOff

	return nil
}

// writeArrayProp writes an array primitive group: header, keys, lengths,
// then the concatenated values. For null arrays the lengths are the
// values.
func (s *serializer) writeArrayProp(offs *[section.NumPropGroups]uint64, t format.FieldType, keys []uint64, lengths []uint32, concat func() error) error {
	if len(keys) == 0 {
		return nil
	}
	start := s.mf.Tell()
	header := section.PropHeader{Marker: format.ArrayPropMarker(t), NumEntries: uint32(len(keys))}
	if err := s.mf.Write(header.Bytes()); err != nil {
		return err
	}
	if err := s.writeKeys(keys); err != nil {
		return err
	}
	if err := s.writeScalars(lengths); err != nil {
		return err
	}
	if concat != nil {
		if err := concat(); err != nil {
			return err
		}
	}
	offs[section.GroupSlot(t, true)] = start - s.recordOff

	return nil
}

func arrayLengths[T any](vals [][]T) []uint32 {
	lengths := make([]uint32, len(vals))
	for i, arr := range vals {
		lengths[i] = uint32(len(arr))
	}

	return lengths
}

func concatScalars[T any](s *serializer, vals [][]T) func() error {
	return func() error {
		for _, arr := range vals {
			if err := s.writeScalars(arr); err != nil {
				return err
			}
		}

		return nil
	}
}

func (s *serializer) writeArrayProps(obj *columndoc.Obj, offs *[section.NumPropGroups]uint64) error {
	if err := s.writeArrayProp(offs, format.TypeNull, obj.NullArrayKeys, obj.NullArrayLens, nil); err != nil {
		return err
	}
	if err := s.writeArrayProp(offs, format.TypeBool, obj.BoolArrayKeys,
		arrayLengths(obj.BoolArrayVals), concatScalars(s, obj.BoolArrayVals)); err != nil {
		return err
	}
	if err := s.writeArrayProp(offs, format.TypeInt8, obj.Int8ArrayKeys,
		arrayLengths(obj.Int8ArrayVals), concatScalars(s, obj.Int8ArrayVals)); err != nil {
		return err
	}
	if err := s.writeArrayProp(offs, format.TypeInt16, obj.Int16ArrayKeys,
		arrayLengths(obj.Int16ArrayVals), concatScalars(s, obj.Int16ArrayVals)); err != nil {
		return err
	}
	if err := s.writeArrayProp(offs, format.TypeInt32, obj.Int32ArrayKeys,
		arrayLengths(obj.Int32ArrayVals), concatScalars(s, obj.Int32ArrayVals)); err != nil {
		return err
	}
	if err := s.writeArrayProp(offs, format.TypeInt64, obj.Int64ArrayKeys,
		arrayLengths(obj.Int64ArrayVals), concatScalars(s, obj.Int64ArrayVals)); err != nil {
		return err
	}
	if err := s.writeArrayProp(offs, format.TypeUint8, obj.Uint8ArrayKeys,
		arrayLengths(obj.Uint8ArrayVals), concatScalars(s, obj.Uint8ArrayVals)); err != nil {
		return err
	}
	if err := s.writeArrayProp(offs, format.TypeUint16, obj.Uint16ArrayKeys,
		arrayLengths(obj.Uint16ArrayVals), concatScalars(s, obj.Uint16ArrayVals)); err != nil {
		return err
	}
	if err := s.writeArrayProp(offs, format.TypeUint32, obj.Uint32ArrayKeys,
		arrayLengths(obj.Uint32ArrayVals), concatScalars(s, obj.Uint32ArrayVals)); err != nil {
		return err
	}
	if err := s.writeArrayProp(offs, format.TypeUint64, obj.Uint64ArrayKeys,
		arrayLengths(obj.Uint64ArrayVals), concatScalars(s, obj.Uint64ArrayVals)); err != nil {
		return err
	}
	if err := s.writeArrayProp(offs, format.TypeFloat, obj.FloatArrayKeys,
		arrayLengths(obj.FloatArrayVals), concatScalars(s, obj.FloatArrayVals)); err != nil {
		return err
	}

	return s.writeArrayProp(offs, format.TypeString, obj.StringArrayKeys,
		arrayLengths(obj.StringArrayVals), concatScalars(s, obj.StringArrayVals))
}

func (s *serializer) writeObjectArrayProps(obj *columndoc.Obj, offs *[section.NumPropGroups]uint64) error {
	groups := obj.ObjectArrays
	if len(groups) == 0 {
		return nil
	}
	start := s.mf.Tell()

	header := section.ObjectArrayHeader{NumEntries: uint8(len(groups))}
	if err := s.mf.Write(header.Bytes()); err != nil {
		return err
	}
	for _, group := range groups {
		if err := s.mf.WriteUint64(group.Key); err != nil {
			return err
		}
	}

	groupOffSlot := s.mf.Tell()
	if err := s.mf.Skip(len(groups) * 8); err != nil {
		return err
	}

	for i, group := range groups {
		groupOff := s.mf.Tell() - s.recordOff

		var maxPos uint32
		for _, col := range group.Columns {
			for _, pos := range col.Positions {
				if pos > maxPos {
					maxPos = pos
				}
			}
		}
		groupHeader := section.ColumnGroupHeader{
			NumColumns: uint32(len(group.Columns)),
			NumObjects: maxPos + 1,
		}
		if err := s.mf.Write(groupHeader.Bytes()); err != nil {
			return err
		}
		for j := uint32(0); j < groupHeader.NumObjects; j++ {
			oid, err := s.oid.New()
			if err != nil {
				return err
			}
			if err := s.mf.WriteUint64(oid); err != nil {
				return err
			}
		}
		if err := s.patchUint64(groupOffSlot+uint64(i*8), groupOff); err != nil {
			return err
		}

		colOffSlot := s.mf.Tell()
		if err := s.mf.Skip(len(group.Columns) * 8); err != nil {
			return err
		}
		for k, col := range group.Columns {
			colOff := s.mf.Tell() - s.recordOff
			if err := s.patchUint64(colOffSlot+uint64(k*8), colOff); err != nil {
				return err
			}
			if err := s.writeColumn(col); err != nil {
				return err
			}
		}
	}
	offs[section.GroupSlot(format.TypeObject, true)] = start - s.recordOff

	return nil
}

func (s *serializer) writeColumn(col *columndoc.Column) error {
	header := section.ColumnHeader{
		ColumnName: col.Key,
		ValueType:  format.ArrayPropMarker(col.Type),
		NumEntries: uint32(len(col.Entries)),
	}
	if err := s.mf.Write(header.Bytes()); err != nil {
		return err
	}

	entryOffSlot := s.mf.Tell()
	if err := s.mf.Skip(len(col.Entries) * 8); err != nil {
		return err
	}
	if err := s.writeScalars(col.Positions); err != nil {
		return err
	}

	for i, entry := range col.Entries {
		entryOff := s.mf.Tell() - s.recordOff
		if err := s.patchUint64(entryOffSlot+uint64(i*8), entryOff); err != nil {
			return err
		}
		if err := s.writeColumnEntry(col.Type, entry); err != nil {
			return err
		}
	}

	return nil
}

// writeColumnEntry writes one column entry: its value count, then the
// values. Object entries serialize their objects back to back, chained
// through each object's next-object slot.
func (s *serializer) writeColumnEntry(t format.FieldType, entry any) error {
	if t == format.TypeObject {
		objs, ok := entry.([]*columndoc.Obj)
		if !ok {
			return fmt.Errorf("object column entry %T: %w", entry, errs.ErrNoType)
		}
		if err := s.mf.WriteUint32(uint32(len(objs))); err != nil {
			return err
		}
		var prevSlot uint64
		for _, child := range objs {
			if prevSlot != 0 {
				if err := s.patchUint64(prevSlot, s.mf.Tell()-s.recordOff); err != nil {
					return err
				}
			}
			slot, err := s.writeObject(child)
			if err != nil {
				return err
			}
			prevSlot = slot
		}

		return nil
	}

	n, err := scalarLen(entry)
	if err != nil {
		return err
	}
	if err := s.mf.WriteUint32(uint32(n)); err != nil {
		return err
	}

	return s.writeScalars(entry)
}

func scalarLen(vals any) (int, error) {
	switch v := vals.(type) {
	case []uint8:
		return len(v), nil
	case []int8:
		return len(v), nil
	case []int16:
		return len(v), nil
	case []uint16:
		return len(v), nil
	case []int32:
		return len(v), nil
	case []uint32:
		return len(v), nil
	case []int64:
		return len(v), nil
	case []uint64:
		return len(v), nil
	case []float32:
		return len(v), nil
	default:
		return 0, fmt.Errorf("value slice %T: %w", vals, errs.ErrNoType)
	}
}
