package archive

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaksonlabs/carbon/format"
)

func TestVisit_CollectsScalarsAndArrays(t *testing.T) {
	a := openArchive(t, `{"n": 7, "s": "x", "b": true, "z": null, "xs": [1, 2, 3]}`)

	var (
		ints    []int32
		strs    []uint64
		bools   []format.Bool
		nulls   int
		arrays  [][]int32
		started bool
		ended   bool
		rootID  uint64
	)

	v := &Visitor{
		BeforeVisitStarts: func(*Archive, any) { started = true },
		AfterVisitEnds:    func(*Archive, any) { ended = true },
		VisitRootObject:   func(_ *Archive, id uint64, _ any) { rootID = id },
		VisitInt32Pairs: func(_ *Archive, _ Path, _ uint64, _ []uint64, values []int32, _ any) {
			ints = append(ints, values...)
		},
		VisitStringPairs: func(_ *Archive, _ Path, _ uint64, _ []uint64, values []uint64, _ any) {
			strs = append(strs, values...)
		},
		VisitBoolPairs: func(_ *Archive, _ Path, _ uint64, _ []uint64, values []format.Bool, _ any) {
			bools = append(bools, values...)
		},
		VisitNullPairs: func(_ *Archive, _ Path, _ uint64, keys []uint64, _ any) {
			nulls += len(keys)
		},
		VisitInt32ArrayPair: func(_ *Archive, _ Path, _ uint64, _ uint64, _, _ uint32, values []int32, _ any) {
			arrays = append(arrays, values)
		},
	}
	require.NoError(t, a.Visit(VisitorDesc{}, v, nil))

	require.True(t, started)
	require.True(t, ended)
	require.NotZero(t, rootID)
	require.Equal(t, []int32{7}, ints)
	require.Len(t, strs, 1)
	require.Equal(t, []format.Bool{1}, bools)
	require.Equal(t, 1, nulls)
	require.Equal(t, [][]int32{{1, 2, 3}}, arrays)
}

func TestVisit_FirstAndNextGroupHooks(t *testing.T) {
	a := openArchive(t, `{"n": 1, "s": "x", "b": true}`)

	var firsts, nexts int
	v := &Visitor{
		FirstPropTypeGroup: func(_ *Archive, _ Path, _ uint64, _ []uint64, _ format.FieldType, _ bool, _ uint32, _ any) {
			firsts++
		},
		NextPropTypeGroup: func(_ *Archive, _ Path, _ uint64, _ []uint64, _ format.FieldType, _ bool, _ uint32, _ any) {
			nexts++
		},
	}
	require.NoError(t, a.Visit(VisitorDesc{}, v, nil))

	// Three groups in one object: bool, int32, string.
	require.Equal(t, 1, firsts)
	require.Equal(t, 2, nexts)
}

func TestVisit_MaskFiltersGroups(t *testing.T) {
	a := openArchive(t, `{"n": 1, "s": "x"}`)

	var ints, strs int
	v := &Visitor{
		VisitInt32Pairs: func(_ *Archive, _ Path, _ uint64, _ []uint64, values []int32, _ any) {
			ints += len(values)
		},
		VisitStringPairs: func(_ *Archive, _ Path, _ uint64, _ []uint64, values []uint64, _ any) {
			strs += len(values)
		},
	}
	require.NoError(t, a.Visit(VisitorDesc{Mask: MaskPrimitives | MaskInt32}, v, nil))

	require.Equal(t, 1, ints)
	require.Zero(t, strs, "string group is masked out")
}

func TestVisit_NestedObjectPolicyAndPath(t *testing.T) {
	a := openArchive(t, `{"keep": {"k": 1}, "drop": {"k": 2}}`)

	q, err := a.Query()
	require.NoError(t, err)
	defer q.Close()

	dropID, ok := lookupID(t, q, "drop")
	require.True(t, ok)

	var seen []int32
	var afterVisits int
	var depths []int
	v := &Visitor{
		BeforeObjectVisit: func(_ *Archive, _ Path, _, _ uint64, _, _ uint32, key uint64, _ any) Policy {
			if key == dropID {
				return PolicyExclude
			}
			return PolicyInclude
		},
		AfterObjectVisit: func(_ *Archive, _ Path, _ uint64, _, _ uint32, _ any) {
			afterVisits++
		},
		VisitInt32Pairs: func(_ *Archive, path Path, _ uint64, _ []uint64, values []int32, _ any) {
			seen = append(seen, values...)
			depths = append(depths, len(path))
		},
	}
	require.NoError(t, a.Visit(VisitorDesc{}, v, nil))

	require.Equal(t, []int32{1}, seen, "excluded subtree is fully skipped")
	require.Equal(t, 1, afterVisits, "leave hook is skipped for excluded scopes")
	require.Equal(t, []int{2}, depths, "nested object sits one scope below the root")
}

// lookupID resolves a string to its dictionary id through the query.
func lookupID(t *testing.T, q *Query, s string) (uint64, bool) {
	t.Helper()

	ids, err := q.FindIDs(PredEquals(s), nil, 1)
	require.NoError(t, err)
	if len(ids) == 0 {
		return 0, false
	}

	return ids[0], true
}

func TestVisit_ObjectArrayHooks(t *testing.T) {
	a := openArchive(t, `{"items": [{"n": 1}, {"s": "x"}, {"n": 2}]}`)

	var colInts []int32
	var colStrs int
	var objectIDs []uint64
	v := &Visitor{
		BeforeVisitObjectArrayObjects: func(_ []bool, _ *Archive, _ Path, _, _ uint64, ids []uint64, _ any) {
			objectIDs = append(objectIDs, ids...)
		},
		VisitObjectArrayObjectPropertyInt32: func(_ *Archive, _ Path, _, _, _, _ uint64, values []int32, _ any) {
			colInts = append(colInts, values...)
		},
		VisitObjectArrayObjectPropertyString: func(_ *Archive, _ Path, _, _, _, _ uint64, values []uint64, _ any) {
			colStrs += len(values)
		},
	}
	require.NoError(t, a.Visit(VisitorDesc{}, v, nil))

	require.Equal(t, []int32{1, 2}, colInts)
	require.Equal(t, 1, colStrs)
	require.Len(t, objectIDs, 3, "one synthetic id per logical array position")
}

func TestVisit_ObjectArraySkipMask(t *testing.T) {
	a := openArchive(t, `{"items": [{"n": 1}, {"n": 2}, {"n": 3}]}`)

	var colInts []int32
	v := &Visitor{
		BeforeVisitObjectArrayObjects: func(skip []bool, _ *Archive, _ Path, _, _ uint64, _ []uint64, _ any) {
			skip[1] = true
		},
		VisitObjectArrayObjectPropertyInt32: func(_ *Archive, _ Path, _, _, _, _ uint64, values []int32, _ any) {
			colInts = append(colInts, values...)
		},
	}
	require.NoError(t, a.Visit(VisitorDesc{}, v, nil))

	require.Equal(t, []int32{1, 3}, colInts, "masked positions are suppressed")
}

func TestVisit_ObjectArrayColumnPolicy(t *testing.T) {
	a := openArchive(t, `{"items": [{"n": 1, "m": 2}]}`)

	q, err := a.Query()
	require.NoError(t, err)
	defer q.Close()
	mID, ok := lookupID(t, q, "m")
	require.True(t, ok)

	var colInts []int32
	v := &Visitor{
		BeforeVisitObjectArrayObjectProperty: func(_ *Archive, _ Path, _, _, columnName uint64, _ format.FieldType, _ any) Policy {
			if columnName == mID {
				return PolicyExclude
			}
			return PolicyInclude
		},
		VisitObjectArrayObjectPropertyInt32: func(_ *Archive, _ Path, _, _, _, _ uint64, values []int32, _ any) {
			colInts = append(colInts, values...)
		},
	}
	require.NoError(t, a.Visit(VisitorDesc{}, v, nil))

	require.Equal(t, []int32{1}, colInts, "excluded column is skipped")
}

func TestPathString(t *testing.T) {
	a := openArchive(t, `{"outer": {"inner": 1}}`)

	q, err := a.Query()
	require.NoError(t, err)
	defer q.Close()

	var rendered string
	v := &Visitor{
		VisitInt32Pairs: func(_ *Archive, path Path, _ uint64, _ []uint64, _ []int32, _ any) {
			rendered = PathString(path, q)
		},
	}
	require.NoError(t, a.Visit(VisitorDesc{}, v, nil))
	require.Equal(t, "/outer/", rendered)

	require.Equal(t, "/", PathString(nil, nil))
}
