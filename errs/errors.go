// Package errs defines the sentinel errors shared across the carbon
// packages. Fallible operations return one of these sentinels, usually
// wrapped with fmt.Errorf("...: %w", err) to attach call-site detail;
// callers classify with errors.Is.
package errs

import "errors"

// Resource errors.
var (
	ErrNullPtr    = errors.New("null pointer")
	ErrMalloc     = errors.New("memory allocation failed")
	ErrRealloc    = errors.New("memory reallocation failed")
	ErrZeroResize = errors.New("resize to zero size")
)

// IO errors.
var (
	ErrOpenRead         = errors.New("cannot open file for reading")
	ErrOpenWrite        = errors.New("cannot open file for writing")
	ErrReadOutOfBounds  = errors.New("read out of bounds")
	ErrWriteProtected   = errors.New("memory file is write-protected")
	ErrArchiveOpen      = errors.New("cannot open archive")
	ErrArchiveSerialize = errors.New("cannot serialize archive")
)

// Format errors.
var (
	ErrFormatVersion = errors.New("unsupported file format or version")
	ErrCorrupted     = errors.New("corrupted data")
	ErrNoType        = errors.New("unknown type marker")
	ErrNoCompressor  = errors.New("unsupported compressor")
	ErrHuffman       = errors.New("no huffman code mapping for letter")
)

// Logic errors.
var (
	ErrOutOfBounds    = errors.New("index out of bounds")
	ErrIllegalArg     = errors.New("illegal argument")
	ErrIllegalImpl    = errors.New("illegal implementation")
	ErrNotFound       = errors.New("not found")
	ErrNotImplemented = errors.New("not implemented")
	ErrTypeMismatch   = errors.New("type mismatch")
)

// Domain errors.
var (
	ErrJSONParse        = errors.New("json parse error")
	ErrBulkCreate       = errors.New("bulk creation failed")
	ErrOutOfObjectIDs   = errors.New("thread run out of object ids")
	ErrDecompressFailed = errors.New("decompression failed")
	ErrPredEvalFailed   = errors.New("predicate evaluation failed")
	ErrScanFailed       = errors.New("string id scan failed")
)
