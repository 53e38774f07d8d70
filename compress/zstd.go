package compress

// ZstdCompressor provides Zstandard block compression for string table
// entries. It favors compression ratio over speed, which fits archives
// written once and scanned many times.
//
// Two backends exist: a pure-Go backend (klauspost/compress, default)
// and a cgo backend (valyala/gozstd) selected with the "gozstd" build
// tag. Both produce standard Zstd frames and are wire compatible.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
