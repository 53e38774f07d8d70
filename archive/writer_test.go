package archive

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaksonlabs/carbon/columndoc"
	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
	"github.com/jaksonlabs/carbon/memory"
	"github.com/jaksonlabs/carbon/section"
)

// openArchive serializes a JSON document into a temp file and opens it.
func openArchive(t *testing.T, doc string, opts ...Option) *Archive {
	t.Helper()

	block, err := FromJSON([]byte(doc), opts...)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "test.carbon")
	require.NoError(t, WriteFile(path, block))

	a, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return a
}

func TestWriter_FileHeaderAndMagic(t *testing.T) {
	block, err := FromJSON([]byte(`{"a": 7}`))
	require.NoError(t, err)

	data := block.RawData()
	require.Equal(t, section.Magic, string(data[:len(section.Magic)]))
	require.Equal(t, section.Version, data[len(section.Magic)])

	header, err := section.ParseFileHeader(data)
	require.NoError(t, err)
	require.NotZero(t, header.RootObjectHeaderOffset)

	// The record header sits exactly at the recorded offset.
	require.Equal(t, format.MarkerRecordHeader, data[header.RootObjectHeaderOffset])
	// The root object follows the record header.
	require.Equal(t, format.MarkerObjectBegin,
		data[header.RootObjectHeaderOffset+uint64(section.RecordHeaderSize)])
}

func TestWriter_SingleIntScenario(t *testing.T) {
	a := openArchive(t, `{"a": 7}`)

	info := a.Info()
	require.Equal(t, uint32(1), info.NumEmbeddedStrings)
	require.Equal(t, format.CompressionNone, info.Compression)

	root, err := a.Root()
	require.NoError(t, err)
	require.Equal(t, 1, root.Flags().Count())
	require.True(t, root.Flags().Has(section.GroupSlot(format.TypeInt32, false)))

	it := PropIterFromObject(root, MaskAny)
	group, err := it.Next()
	require.NoError(t, err)
	require.NotNil(t, group)
	require.NotNil(t, group.Values)

	vv := group.Values
	require.Equal(t, format.TypeInt32, vv.BasicType())
	require.False(t, vv.IsArray())
	require.Equal(t, []uint64{1}, vv.Keys(), "first dictionary id is 1")

	values, err := vv.Int32s()
	require.NoError(t, err)
	require.Equal(t, []int32{7}, values)

	group, err = it.Next()
	require.NoError(t, err)
	require.Nil(t, group, "single group object must finish after one step")
}

func TestWriter_EmptyObject(t *testing.T) {
	a := openArchive(t, `{}`)

	root, err := a.Root()
	require.NoError(t, err)
	require.Zero(t, root.Flags().Count())

	it := PropIterFromObject(root, MaskAny)
	group, err := it.Next()
	require.NoError(t, err)
	require.Nil(t, group, "empty object iterates straight to done")
}

func TestWriter_NestedObjectScenario(t *testing.T) {
	a := openArchive(t, `{"o": {"x": true}}`)

	it, err := a.PropIter(MaskAny)
	require.NoError(t, err)
	group, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, format.TypeObject, group.Values.BasicType())

	nested, err := group.Values.ObjectAt(0)
	require.NoError(t, err)
	require.True(t, nested.Flags().Has(section.GroupSlot(format.TypeBool, false)))

	nestedIt := PropIterFromObject(nested, MaskAny)
	nestedGroup, err := nestedIt.Next()
	require.NoError(t, err)
	require.Equal(t, format.TypeBool, nestedGroup.Values.BasicType())

	bools, err := nestedGroup.Values.Bools()
	require.NoError(t, err)
	require.Equal(t, []format.Bool{1}, bools)

	require.NotEqual(t, nested.ID(), (mustRoot(t, a)).ID(), "object ids are unique")
}

func mustRoot(t *testing.T, a *Archive) *Object {
	t.Helper()
	root, err := a.Root()
	require.NoError(t, err)

	return root
}

func TestWriter_HomogeneousArrayScenario(t *testing.T) {
	a := openArchive(t, `{"xs": [1, 2, 3]}`)

	it, err := a.PropIter(MaskAny)
	require.NoError(t, err)
	group, err := it.Next()
	require.NoError(t, err)

	vv := group.Values
	require.Equal(t, format.TypeInt32, vv.BasicType())
	require.True(t, vv.IsArray())

	lengths, err := vv.ArrayLengths()
	require.NoError(t, err)
	require.Equal(t, []uint32{3}, lengths)

	values, err := vv.Int32ArrayAt(0)
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2, 3}, values)
}

func TestWriter_MultipleArraysSharePrefixSums(t *testing.T) {
	a := openArchive(t, `{"xs": [1, 2], "ys": [3], "zs": [4, 5, 6]}`)

	it, err := a.PropIter(MaskAny)
	require.NoError(t, err)
	group, err := it.Next()
	require.NoError(t, err)

	vv := group.Values
	require.Equal(t, 3, vv.Len())

	first, err := vv.Int32ArrayAt(0)
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2}, first)

	second, err := vv.Int32ArrayAt(1)
	require.NoError(t, err)
	require.Equal(t, []int32{3}, second)

	third, err := vv.Int32ArrayAt(2)
	require.NoError(t, err)
	require.Equal(t, []int32{4, 5, 6}, third)
}

func TestWriter_NullArrayWithZeroLength(t *testing.T) {
	a := openArchive(t, `{"empty": []}`)

	it, err := a.PropIter(MaskAny)
	require.NoError(t, err)
	group, err := it.Next()
	require.NoError(t, err)

	vv := group.Values
	require.Equal(t, format.TypeNull, vv.BasicType())
	require.True(t, vv.IsArray())

	lengths, err := vv.ArrayLengths()
	require.NoError(t, err)
	require.Equal(t, []uint32{0}, lengths)
}

func TestWriter_HeterogeneousObjectArrayScenario(t *testing.T) {
	a := openArchive(t, `{"items": [{"n": 1}, {"s": "x"}]}`)

	it, err := a.PropIter(MaskAny)
	require.NoError(t, err)
	group, err := it.Next()
	require.NoError(t, err)
	require.NotNil(t, group.Collection)

	coll := group.Collection
	require.Len(t, coll.Keys(), 1)

	cg, err := coll.NextColumnGroup()
	require.NoError(t, err)
	require.Len(t, cg.ObjectIDs(), 2, "num_objects = 1 + max(position)")
	require.Equal(t, 2, cg.NumColumns())

	colN, err := cg.NextColumn()
	require.NoError(t, err)
	require.Equal(t, format.TypeInt32, colN.FieldType())
	require.Equal(t, []uint32{0}, colN.Positions())
	require.Equal(t, 1, colN.NumEntries())

	entry, err := colN.NextEntry()
	require.NoError(t, err)
	require.Equal(t, 1, entry.Len())
	values, err := entry.Values()
	require.NoError(t, err)
	require.Equal(t, []int32{1}, values)

	colS, err := cg.NextColumn()
	require.NoError(t, err)
	require.Equal(t, format.TypeString, colS.FieldType())
	require.Equal(t, []uint32{1}, colS.Positions())

	entryS, err := colS.NextEntry()
	require.NoError(t, err)
	strVals, err := entryS.Values()
	require.NoError(t, err)
	require.Len(t, strVals.([]uint64), 1)

	done, err := cg.NextColumn()
	require.NoError(t, err)
	require.Nil(t, done)

	// Every position lies inside the logical array.
	for _, pos := range colN.Positions() {
		require.Less(t, pos, uint32(len(cg.ObjectIDs())))
	}
}

func TestWriter_ObjectArrayWithNestedObjects(t *testing.T) {
	a := openArchive(t, `{"rows": [{"o": {"k": 1}}, {"o": {"k": 2}}]}`)

	it, err := a.PropIter(MaskAny)
	require.NoError(t, err)
	group, err := it.Next()
	require.NoError(t, err)

	cg, err := group.Collection.NextColumnGroup()
	require.NoError(t, err)
	col, err := cg.NextColumn()
	require.NoError(t, err)
	require.Equal(t, format.TypeObject, col.FieldType())
	require.Equal(t, 2, col.NumEntries())

	var seen []int32
	for {
		entry, err := col.NextEntry()
		require.NoError(t, err)
		if entry == nil {
			break
		}
		objIter, err := entry.Objects()
		require.NoError(t, err)
		for {
			child, err := objIter.NextObject()
			require.NoError(t, err)
			if child == nil {
				break
			}
			childIt := PropIterFromObject(child, MaskAny)
			childGroup, err := childIt.Next()
			require.NoError(t, err)
			values, err := childGroup.Values.Int32s()
			require.NoError(t, err)
			seen = append(seen, values...)
		}
	}
	require.Equal(t, []int32{1, 2}, seen)
}

func TestWriter_SiblingObjectChain(t *testing.T) {
	a := openArchive(t, `{"rows": [{"o": [{"k": 1}, {"k": 2}, {"k": 3}]}]}`)

	it, err := a.PropIter(MaskAny)
	require.NoError(t, err)
	group, err := it.Next()
	require.NoError(t, err)

	cg, err := group.Collection.NextColumnGroup()
	require.NoError(t, err)
	col, err := cg.NextColumn()
	require.NoError(t, err)

	entry, err := col.NextEntry()
	require.NoError(t, err)
	require.Equal(t, 3, entry.Len())

	objIter, err := entry.Objects()
	require.NoError(t, err)
	var count int
	for {
		child, err := objIter.NextObject()
		require.NoError(t, err)
		if child == nil {
			break
		}
		count++
	}
	require.Equal(t, 3, count, "next-object chain links all siblings of the entry")
}

func TestWriter_AllCompressors(t *testing.T) {
	doc := `{"title": "back to the future", "year": 1985, "tags": ["scifi", "time travel"]}`

	for _, ct := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionHuffman,
		format.CompressionZstd,
		format.CompressionLZ4,
		format.CompressionS2,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			a := openArchive(t, doc, WithCompressor(ct))
			require.Equal(t, ct, a.Info().Compression)

			q, err := a.Query()
			require.NoError(t, err)
			defer q.Close()

			title, err := q.FetchString(2)
			require.NoError(t, err)
			require.Equal(t, "back to the future", title)
		})
	}
}

func TestOpen_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.carbon")
	block := memory.NewBlock(64)
	require.NoError(t, block.Write(0, []byte("definitely not a carbon archive........")))
	require.NoError(t, WriteFile(path, block))

	_, err := Open(path)
	require.ErrorIs(t, err, errs.ErrFormatVersion)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.carbon"))
	require.ErrorIs(t, err, errs.ErrOpenRead)
}

func TestWriter_RecordSizeMatchesBlock(t *testing.T) {
	block, err := FromJSON([]byte(`{"a": 1, "b": {"c": [1, 2]}}`))
	require.NoError(t, err)

	data := block.RawData()
	fileHeader, err := section.ParseFileHeader(data)
	require.NoError(t, err)
	recordHeader, err := section.ParseRecordHeader(data[fileHeader.RootObjectHeaderOffset:])
	require.NoError(t, err)

	expected := uint64(len(data)) - fileHeader.RootObjectHeaderOffset - uint64(section.RecordHeaderSize)
	require.Equal(t, expected, recordHeader.RecordSize)
}

func TestWriter_ReadOptimizedFlag(t *testing.T) {
	doc, err := columndoc.FromJSON([]byte(`{"a": 1}`))
	require.NoError(t, err)
	doc.ReadOptimized = true

	block, err := FromModel(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sorted.carbon")
	require.NoError(t, WriteFile(path, block))
	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()

	require.True(t, a.Info().RecordReadOptimized)
}
