package compress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
	"github.com/jaksonlabs/carbon/memory"
)

// buildForDecode runs the writer-side build into a scratch memory file
// and feeds the produced dictionary to a fresh reader-side codec.
func buildForDecode(t *testing.T, corpus []string) (*HuffmanCompressor, *HuffmanCompressor) {
	t.Helper()

	writer := NewHuffmanCompressor()
	mf := memory.Open(memory.NewBlock(64), memory.ModeReadWrite)
	require.NoError(t, writer.BuildAndStore(mf, corpus))

	reader := NewHuffmanCompressor()
	require.NoError(t, reader.ReadExtra(mf.Block().RawData()[:mf.Tell()]))

	return writer, reader
}

func encodeOne(t *testing.T, c *HuffmanCompressor, s string) []byte {
	t.Helper()

	mf := memory.Open(memory.NewBlock(64), memory.ModeReadWrite)
	require.NoError(t, c.EncodeString(mf, s))

	return mf.Block().RawData()[:mf.Tell()]
}

func TestHuffman_RoundTripTwoLetters(t *testing.T) {
	writer, reader := buildForDecode(t, []string{"aaaaa", "b"})

	payload := encodeOne(t, writer, "abab")
	decoded, err := reader.DecodeString(bytes.NewReader(payload), 4)
	require.NoError(t, err)
	require.Equal(t, "abab", string(decoded))
}

func TestHuffman_RarerLetterGetsLongerCode(t *testing.T) {
	var freqs [256]uint64
	freqs['a'] = 5
	freqs['b'] = 2
	freqs['c'] = 1

	table := buildCodeTable(&freqs)
	require.Len(t, table, 3)

	bits := map[byte]int{}
	for _, entry := range table {
		require.Len(t, entry.blocks, 1)
		n := 0
		for i := 31; i >= 0; i-- {
			if entry.blocks[0]&(1<<uint(i)) != 0 {
				n = i + 1
				break
			}
		}
		bits[entry.letter] = n
	}
	require.Less(t, bits['a'], bits['c'])
	require.Less(t, bits['a'], bits['b'])
}

func TestHuffman_DictionarySerialization(t *testing.T) {
	writer := NewHuffmanCompressor()
	mf := memory.Open(memory.NewBlock(64), memory.ModeReadWrite)
	require.NoError(t, writer.BuildAndStore(mf, []string{"aaaaa", "b"}))

	entries, err := parseDictEntries(mf.Block().RawData()[:mf.Tell()])
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.Contains(t, []byte{'a', 'b'}, e.letter)
		require.Len(t, e.code, 1)
	}
}

func TestHuffman_SingleLetterAlphabet(t *testing.T) {
	writer := NewHuffmanCompressor()
	mf := memory.Open(memory.NewBlock(64), memory.ModeReadWrite)
	require.NoError(t, writer.BuildAndStore(mf, []string{"aaa"}))

	entries, err := parseDictEntries(mf.Block().RawData()[:mf.Tell()])
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, byte('a'), entries[0].letter)
	require.Len(t, entries[0].code, 1, "single-letter code must serialize with nbytes_prefix=1")

	reader := NewHuffmanCompressor()
	require.NoError(t, reader.ReadExtra(mf.Block().RawData()[:mf.Tell()]))

	payload := encodeOne(t, writer, "aaa")
	decoded, err := reader.DecodeString(bytes.NewReader(payload), 3)
	require.NoError(t, err)
	require.Equal(t, "aaa", string(decoded))
}

func TestHuffman_RoundTripLargeAlphabet(t *testing.T) {
	corpus := []string{
		"the quick brown fox jumps over the lazy dog",
		"pack my box with five dozen liquor jugs",
		strings.Repeat("abcdefgh", 16),
	}
	writer, reader := buildForDecode(t, corpus)

	for _, s := range corpus {
		payload := encodeOne(t, writer, s)
		decoded, err := reader.DecodeString(bytes.NewReader(payload), uint32(len(s)))
		require.NoError(t, err)
		require.Equal(t, s, string(decoded))
	}
}

func TestHuffman_EmptyString(t *testing.T) {
	writer, reader := buildForDecode(t, []string{"abc"})

	payload := encodeOne(t, writer, "")
	decoded, err := reader.DecodeString(bytes.NewReader(payload), 0)
	require.NoError(t, err)
	require.Empty(t, decoded)
}

func TestHuffman_UnknownLetterFails(t *testing.T) {
	writer, _ := buildForDecode(t, []string{"aaa"})

	mf := memory.Open(memory.NewBlock(64), memory.ModeReadWrite)
	require.ErrorIs(t, writer.EncodeString(mf, "z"), errs.ErrHuffman)
}

func TestHuffman_DecodeWithoutDictionary(t *testing.T) {
	c := NewHuffmanCompressor()
	_, err := c.DecodeString(bytes.NewReader([]byte{0, 0, 0, 0}), 1)
	require.ErrorIs(t, err, errs.ErrIllegalImpl)
}

func TestHuffman_DumpDict(t *testing.T) {
	writer := NewHuffmanCompressor()
	mf := memory.Open(memory.NewBlock(64), memory.ModeReadWrite)
	require.NoError(t, writer.BuildAndStore(mf, []string{"ab"}))
	end := mf.Tell()

	mf.Rewind()
	var buf bytes.Buffer
	require.NoError(t, writer.DumpDict(&buf, mf))
	require.Equal(t, end, mf.Tell())
	require.Contains(t, buf.String(), "[letter: 'a']")
	require.Contains(t, buf.String(), "[letter: 'b']")
	require.Contains(t, buf.String(), string(format.MarkerHuffmanDictEntry))
}
