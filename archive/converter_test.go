package archive

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaksonlabs/carbon/format"
)

// jsonRoundTrip converts a document to an archive and back, comparing
// the result structurally against the expected JSON.
func jsonRoundTrip(t *testing.T, doc, want string, opts ...Option) {
	t.Helper()

	q := newQuery(t, doc, opts...)

	rendered, err := ToJSON(q)
	require.NoError(t, err)

	var got, expected any
	require.NoError(t, json.Unmarshal(rendered, &got), "rendered: %s", rendered)
	require.NoError(t, json.Unmarshal([]byte(want), &expected))
	require.Equal(t, expected, got, "rendered: %s", rendered)
}

func TestToJSON_Scalars(t *testing.T) {
	jsonRoundTrip(t,
		`{"a": 7, "s": "x", "b": true, "f": false, "z": null, "r": 1.5}`,
		`{"a": 7, "s": "x", "b": true, "f": false, "z": null, "r": 1.5}`)
}

func TestToJSON_NestedObjects(t *testing.T) {
	jsonRoundTrip(t,
		`{"o": {"x": true, "deep": {"n": 42}}}`,
		`{"o": {"x": true, "deep": {"n": 42}}}`)
}

func TestToJSON_Arrays(t *testing.T) {
	jsonRoundTrip(t,
		`{"xs": [1, 2, 3], "ss": ["a", "b"], "ns": [null, null], "empty": []}`,
		`{"xs": [1, 2, 3], "ss": ["a", "b"], "ns": [null, null], "empty": []}`)
}

func TestToJSON_ObjectArray(t *testing.T) {
	jsonRoundTrip(t,
		`{"items": [{"n": 1}, {"s": "x"}]}`,
		`{"items": [{"n": 1}, {"s": "x"}]}`)
}

func TestToJSON_ObjectArrayWithArrays(t *testing.T) {
	jsonRoundTrip(t,
		`{"rows": [{"xs": [1, 2]}, {"xs": [3, 4]}]}`,
		`{"rows": [{"xs": [1, 2]}, {"xs": [3, 4]}]}`)
}

func TestToJSON_WithHuffman(t *testing.T) {
	jsonRoundTrip(t,
		`{"title": "back to the future", "tags": ["scifi", "classic"]}`,
		`{"title": "back to the future", "tags": ["scifi", "classic"]}`,
		WithCompressor(format.CompressionHuffman))
}

func TestDump_ContainsStructure(t *testing.T) {
	q := newQuery(t, `{"a": 7, "items": [{"n": 1}]}`, WithCompressor(format.CompressionHuffman))

	var buf bytes.Buffer
	require.NoError(t, q.Archive().Dump(&buf, q))

	out := buf.String()
	require.Contains(t, out, "string table")
	require.Contains(t, out, `"a"`)
	require.Contains(t, out, "record tree")
	require.Contains(t, out, "int32 group")
	require.Contains(t, out, "column group")
	require.Contains(t, out, "[marker: d]")
}
