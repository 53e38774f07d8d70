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

func TestByType_AllVariants(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionHuffman,
		format.CompressionZstd,
		format.CompressionLZ4,
		format.CompressionS2,
	} {
		c, err := ByType(ct)
		require.NoError(t, err, ct.String())
		require.Equal(t, ct, c.Type())
	}

	_, err := ByType(format.CompressionType(0x7f))
	require.ErrorIs(t, err, errs.ErrNoCompressor)
}

func TestByFlags(t *testing.T) {
	c, err := ByFlags(format.FlagCompressionHuffman)
	require.NoError(t, err)
	require.Equal(t, format.CompressionHuffman, c.Type())

	c, err = ByFlags(format.FlagCompressionZstd)
	require.NoError(t, err)
	require.Equal(t, format.CompressionZstd, c.Type())

	_, err = ByFlags(0)
	require.ErrorIs(t, err, errs.ErrNoCompressor)
}

func TestStringCodecs_RoundTrip(t *testing.T) {
	samples := []string{
		"",
		"a",
		"hello carbon",
		strings.Repeat("columnar archive ", 64),
	}

	for _, ct := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionHuffman,
		format.CompressionZstd,
		format.CompressionLZ4,
		format.CompressionS2,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			writer, err := ByType(ct)
			require.NoError(t, err)

			extra := memory.Open(memory.NewBlock(64), memory.ModeReadWrite)
			require.NoError(t, writer.BuildAndStore(extra, samples))

			reader, err := ByType(ct)
			require.NoError(t, err)
			require.NoError(t, reader.ReadExtra(extra.Block().RawData()[:extra.Tell()]))

			for _, sample := range samples {
				mf := memory.Open(memory.NewBlock(64), memory.ModeReadWrite)
				require.NoError(t, writer.EncodeString(mf, sample))

				payload := mf.Block().RawData()[:mf.Tell()]
				decoded, err := reader.DecodeString(bytes.NewReader(payload), uint32(len(sample)))
				require.NoError(t, err)
				require.Equal(t, sample, string(decoded))
			}
		})
	}
}

func TestBlockCodecs_RoundTrip(t *testing.T) {
	payload := []byte(strings.Repeat("columnar archive of json documents ", 100))

	codecs := map[string]Codec{
		"zstd": NewZstdCompressor(),
		"lz4":  NewLZ4Compressor(),
		"s2":   NewS2Compressor(),
	}
	for name, codec := range codecs {
		t.Run(name, func(t *testing.T) {
			compressed, err := codec.Compress(payload)
			require.NoError(t, err)
			require.Less(t, len(compressed), len(payload), "repetitive payload must shrink")

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, payload, decompressed)
		})
	}
}
