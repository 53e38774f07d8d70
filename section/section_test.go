package section

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
)

func TestFileHeader_RoundTrip(t *testing.T) {
	h := FileHeader{RootObjectHeaderOffset: 1234, StringIDIndexOffset: 0}
	data := h.Bytes()
	require.Len(t, data, FileHeaderSize)

	parsed, err := ParseFileHeader(data)
	require.NoError(t, err)
	require.Equal(t, h, parsed)
}

func TestFileHeader_Validation(t *testing.T) {
	h := FileHeader{RootObjectHeaderOffset: 10}
	data := h.Bytes()

	bad := append([]byte{}, data...)
	bad[0] = 'X'
	_, err := ParseFileHeader(bad)
	require.ErrorIs(t, err, errs.ErrFormatVersion)

	bad = append([]byte{}, data...)
	bad[len(Magic)] = 99
	_, err = ParseFileHeader(bad)
	require.ErrorIs(t, err, errs.ErrFormatVersion)

	zero := (&FileHeader{}).Bytes()
	_, err = ParseFileHeader(zero)
	require.ErrorIs(t, err, errs.ErrCorrupted)
}

func TestRecordHeader_RoundTrip(t *testing.T) {
	h := RecordHeader{Flags: RecordFlagSorted, RecordSize: 4096}
	parsed, err := ParseRecordHeader(h.Bytes())
	require.NoError(t, err)
	require.Equal(t, h, parsed)
	require.True(t, parsed.IsSorted())

	_, err = ParseRecordHeader([]byte("xxxxxxxxxx"))
	require.ErrorIs(t, err, errs.ErrCorrupted)
}

func TestStringTableHeaders_RoundTrip(t *testing.T) {
	h := StringTableHeader{NumEntries: 7, Flags: format.FlagCompressionHuffman, FirstEntry: 99}
	parsed, err := ParseStringTableHeader(h.Bytes())
	require.NoError(t, err)
	require.Equal(t, h, parsed)

	e := StringEntryHeader{NextEntryOff: 1000, StringID: 42, StringLen: 11}
	parsedEntry, err := ParseStringEntryHeader(e.Bytes())
	require.NoError(t, err)
	require.Equal(t, e, parsedEntry)
}

func TestObjectHeader_RoundTrip(t *testing.T) {
	var flags ObjectFlags
	flags.Set(GroupSlot(format.TypeInt32, false))
	flags.Set(GroupSlot(format.TypeString, true))
	require.Equal(t, 2, flags.Count())
	require.True(t, flags.Has(int(format.TypeInt32)))
	require.True(t, flags.Has(format.NumFieldTypes+int(format.TypeString)))

	h := ObjectHeader{ObjectID: 77, Flags: flags}
	parsed, err := ParseObjectHeader(h.Bytes())
	require.NoError(t, err)
	require.Equal(t, h, parsed)
}

func TestGroupSlot_Schedule(t *testing.T) {
	require.Equal(t, 0, GroupSlot(format.TypeNull, false))
	require.Equal(t, 12, GroupSlot(format.TypeObject, false))
	require.Equal(t, 13, GroupSlot(format.TypeNull, true))
	require.Equal(t, 25, GroupSlot(format.TypeObject, true))
	require.Equal(t, 26, NumPropGroups)
}

func TestPropHeader_MarkerMismatch(t *testing.T) {
	h := PropHeader{Marker: format.MarkerPropInt32, NumEntries: 3}
	parsed, err := ParsePropHeader(h.Bytes(), format.MarkerPropInt32)
	require.NoError(t, err)
	require.Equal(t, h, parsed)

	_, err = ParsePropHeader(h.Bytes(), format.MarkerPropInt64)
	require.ErrorIs(t, err, errs.ErrCorrupted)
}

func TestColumnHeaders_RoundTrip(t *testing.T) {
	oa := ObjectArrayHeader{NumEntries: 3}
	parsedOA, err := ParseObjectArrayHeader(oa.Bytes())
	require.NoError(t, err)
	require.Equal(t, oa, parsedOA)

	cg := ColumnGroupHeader{NumColumns: 2, NumObjects: 5}
	parsedCG, err := ParseColumnGroupHeader(cg.Bytes())
	require.NoError(t, err)
	require.Equal(t, cg, parsedCG)

	col := ColumnHeader{ColumnName: 9, ValueType: format.MarkerPropInt32Array, NumEntries: 4}
	parsedCol, err := ParseColumnHeader(col.Bytes())
	require.NoError(t, err)
	require.Equal(t, col, parsedCol)
}
