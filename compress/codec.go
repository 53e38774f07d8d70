package compress

import (
	"fmt"
	"io"

	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
	"github.com/jaksonlabs/carbon/memory"
)

// Codec provides block compression and decompression. It is the backend
// of the block-based string table codecs (Zstd, LZ4, S2); the returned
// slices are owned by the caller and inputs are never modified.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// Compressor is the pluggable string table codec of an archive. One
// instance belongs to exactly one archive: BuildAndStore may capture
// per-archive state (the Huffman dictionary), and ReadExtra restores that
// state on the reader side.
//
// The wire contract: BuildAndStore emits the codec-private extra region
// between the string table header and the first string entry;
// EncodeString emits the payload of one entry at the cursor;
// DecodeString reads one payload from r and returns exactly strLen
// decoded bytes.
type Compressor interface {
	// Type returns the codec identity; its flag bit goes into the string
	// table header.
	Type() format.CompressionType

	// BuildAndStore derives codec state from the complete set of unique
	// strings and serializes the codec-private extra bytes into mf.
	BuildAndStore(mf *memory.File, strings []string) error

	// EncodeString writes one string's payload at the cursor.
	EncodeString(mf *memory.File, s string) error

	// DecodeString reads one payload from r and returns the decoded
	// string bytes, which are exactly strLen long.
	DecodeString(r io.Reader, strLen uint32) ([]byte, error)

	// ReadExtra restores decoder state from the serialized extra region.
	ReadExtra(data []byte) error

	// DumpDict writes a human-readable rendering of the codec-private
	// region at the cursor of mf to w.
	DumpDict(w io.Writer, mf *memory.File) error
}

// ByType creates a fresh string table codec of the given type.
func ByType(t format.CompressionType) (Compressor, error) {
	switch t {
	case format.CompressionNone:
		return &NoneCompressor{}, nil
	case format.CompressionHuffman:
		return NewHuffmanCompressor(), nil
	case format.CompressionZstd:
		return newBlockCompressor(format.CompressionZstd, NewZstdCompressor()), nil
	case format.CompressionLZ4:
		return newBlockCompressor(format.CompressionLZ4, NewLZ4Compressor()), nil
	case format.CompressionS2:
		return newBlockCompressor(format.CompressionS2, NewS2Compressor()), nil
	default:
		return nil, fmt.Errorf("compression type %d: %w", t, errs.ErrNoCompressor)
	}
}

// ByFlags creates the codec selected by the string table header flag
// byte. Exactly one codec bit must be set.
func ByFlags(flags uint8) (Compressor, error) {
	for _, t := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionHuffman,
		format.CompressionZstd,
		format.CompressionLZ4,
		format.CompressionS2,
	} {
		if flags&t.FlagBit() != 0 {
			return ByType(t)
		}
	}

	return nil, fmt.Errorf("codec flags 0x%02x: %w", flags, errs.ErrNoCompressor)
}
