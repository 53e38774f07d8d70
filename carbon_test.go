package carbon

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaksonlabs/carbon/archive"
	"github.com/jaksonlabs/carbon/format"
)

func TestEndToEnd_RoundTrip(t *testing.T) {
	doc := `{
		"title": "back to the future",
		"year": 1985,
		"rating": 8.5,
		"classic": true,
		"sequel": null,
		"tags": ["scifi", "time travel"],
		"cast": [
			{"name": "marty", "age": 17},
			{"name": "doc", "inventions": ["flux capacitor", "time circuits"]}
		]
	}`

	for _, ct := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionHuffman,
		format.CompressionZstd,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			block, err := FromJSON([]byte(doc), archive.WithCompressor(ct))
			require.NoError(t, err)

			path := filepath.Join(t.TempDir(), "movie.carbon")
			require.NoError(t, StoreFile(path, block))

			a, err := Open(path)
			require.NoError(t, err)
			defer a.Close()
			require.Equal(t, ct, a.Info().Compression)

			q, err := a.Query()
			require.NoError(t, err)
			defer q.Close()

			rendered, err := archive.ToJSON(q)
			require.NoError(t, err)

			var got, want any
			require.NoError(t, json.Unmarshal(rendered, &got), "rendered: %s", rendered)
			require.NoError(t, json.Unmarshal([]byte(doc), &want))
			require.Equal(t, want, got)
		})
	}
}

func TestEndToEnd_QueryAndCache(t *testing.T) {
	block, err := FromJSON([]byte(`{"hello": "world", "nested": {"hello": "again"}}`))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "hello.carbon")
	require.NoError(t, StoreFile(path, block))

	a, err := Open(path, archive.WithMmap())
	require.NoError(t, err)
	defer a.Close()

	q, err := a.Query()
	require.NoError(t, err)
	defer q.Close()

	ids, err := q.FindIDs(archive.PredEquals("world"), nil, -1)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	cache := archive.NewLRUCache(q)
	for i := 0; i < 3; i++ {
		s, err := cache.Get(ids[0])
		require.NoError(t, err)
		require.Equal(t, "world", s)
	}
	stats := cache.Stats()
	require.Equal(t, uint64(2), stats.Hits)
	require.Equal(t, uint64(1), stats.Misses)
}

func TestParseJSON_ModelOnly(t *testing.T) {
	doc, err := ParseJSON([]byte(`{"a": 1}`))
	require.NoError(t, err)
	require.NotNil(t, doc.Root)
	require.Equal(t, 1, doc.Dict.Len())
}
