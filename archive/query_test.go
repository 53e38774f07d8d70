package archive

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
)

func newQuery(t *testing.T, doc string, opts ...Option) *Query {
	t.Helper()

	a := openArchive(t, doc, opts...)
	q, err := a.Query()
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })

	return q
}

const movieDoc = `{
	"title": "back to the future",
	"sub": "its about time",
	"year": 1985,
	"tags": ["scifi", "time travel", "delorean"]
}`

func TestQuery_FetchString(t *testing.T) {
	q := newQuery(t, movieDoc)

	for id, want := range map[uint64]string{
		1: "title",
		2: "back to the future",
		5: "year",
		7: "scifi",
		9: "delorean",
	} {
		got, err := q.FetchString(id)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestQuery_FetchStringNullSentinel(t *testing.T) {
	q := newQuery(t, `{"a": 1}`)

	got, err := q.FetchString(format.NullEncodedString)
	require.NoError(t, err)
	require.Equal(t, NullText, got, "id 0 resolves to the null sentinel, not a table entry")
}

func TestQuery_FetchStringNotFound(t *testing.T) {
	q := newQuery(t, `{"a": 1}`)

	_, err := q.FetchString(999)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestStridIter_VisitsExactlyNumEntries(t *testing.T) {
	q := newQuery(t, movieDoc)

	want := int(q.Archive().Info().NumEmbeddedStrings)
	it := q.ScanStrids()
	defer it.Close()

	var total int
	seen := map[uint64]bool{}
	for {
		chunk, err := it.Next()
		require.NoError(t, err)
		if chunk == nil {
			break
		}
		for _, info := range chunk {
			require.False(t, seen[info.ID], "ids are unique per archive")
			seen[info.ID] = true
			require.NotZero(t, info.Offset)
		}
		total += len(chunk)
	}
	require.Equal(t, want, total, "linked list visits exactly num_entries nodes")
}

func TestQuery_FindIDs(t *testing.T) {
	q := newQuery(t, movieDoc)

	ids, err := q.FindIDs(PredContains("time"), nil, -1)
	require.NoError(t, err)
	// "its about time" and "time travel".
	require.ElementsMatch(t, []uint64{4, 8}, ids)

	ids, err = q.FindIDs(PredEquals("scifi"), nil, -1)
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, ids)
}

func TestQuery_FindIDsLimit(t *testing.T) {
	q := newQuery(t, movieDoc)

	ids, err := q.FindIDs(PredContains("t"), nil, 2)
	require.NoError(t, err)
	require.Len(t, ids, 2, "search stops at the limit")

	ids, err = q.FindIDs(PredContains("t"), nil, 0)
	require.NoError(t, err)
	require.Empty(t, ids)

	pred := PredContains("t")
	pred.Limit = 1
	ids, err = q.FindIDs(pred, nil, 5)
	require.NoError(t, err)
	require.Len(t, ids, 1, "predicate limit clips the caller limit")
}

func TestQuery_FindIDsPredicateFailure(t *testing.T) {
	q := newQuery(t, movieDoc)

	_, err := q.FindIDs(Pred{Limit: -1, Eval: func([]string, any) ([]int, error) {
		return nil, errs.ErrIllegalArg
	}}, nil, -1)
	require.ErrorIs(t, err, errs.ErrPredEvalFailed)

	_, err = q.FindIDs(Pred{}, nil, -1)
	require.ErrorIs(t, err, errs.ErrIllegalArg)
}

func TestQuery_WithHuffmanCodec(t *testing.T) {
	q := newQuery(t, movieDoc, WithCompressor(format.CompressionHuffman))

	got, err := q.FetchString(2)
	require.NoError(t, err)
	require.Equal(t, "back to the future", got)

	ids, err := q.FindIDs(PredEquals("delorean"), nil, -1)
	require.NoError(t, err)
	require.Equal(t, []uint64{9}, ids)
}

func TestQuery_WithMmap(t *testing.T) {
	q := newQuery(t, movieDoc, WithMmap())

	got, err := q.FetchString(7)
	require.NoError(t, err)
	require.Equal(t, "scifi", got)
}

func TestIOContext_ConcurrentReads(t *testing.T) {
	a := openArchive(t, movieDoc)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q, err := a.Query()
			if err != nil {
				t.Error(err)
				return
			}
			defer q.Close()
			for j := 0; j < 20; j++ {
				s, err := q.FetchString(2)
				if err != nil || s != "back to the future" {
					t.Errorf("got %q, err %v", s, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
