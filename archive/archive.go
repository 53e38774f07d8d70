// Package archive implements the carbon archive itself: the writer that
// serializes a columnar document model into the on-disk format, the
// reader that opens and validates archives, the record-table iterators,
// the visitor driver and the string query layer.
package archive

import (
	"fmt"
	"os"

	mmapgo "github.com/edsrzf/mmap-go"
	"go.uber.org/zap"

	"github.com/jaksonlabs/carbon/compress"
	"github.com/jaksonlabs/carbon/endian"
	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
	"github.com/jaksonlabs/carbon/memory"
	"github.com/jaksonlabs/carbon/section"
)

var engine = endian.GetLittleEndianEngine()

// Info describes an opened archive.
type Info struct {
	StringTableSize     uint64
	RecordTableSize     uint64
	NumEmbeddedStrings  uint32
	RecordReadOptimized bool
	Compression         format.CompressionType
}

// stringTable is the reader-side descriptor of the embedded string
// dictionary.
type stringTable struct {
	compressor    compress.Compressor
	firstEntryOff uint64
	numEntries    uint32
	flags         uint8
}

// Archive is an opened, immutable carbon archive. The record table is
// held in memory; string lookups seek the underlying file through
// mutex-protected IO contexts.
type Archive struct {
	path        string
	stringTable stringTable
	recordFlags uint8
	recordOff   uint64 // absolute file offset of the record header
	recordBlock *memory.Block
	info        Info

	useMmap bool
	mapped  mmapgo.MMap
	logger  *zap.SugaredLogger
}

// Option configures opening and writing archives.
type Option func(*options)

type options struct {
	compression format.CompressionType
	useMmap     bool
	owner       uint16
	logger      *zap.SugaredLogger
}

func newOptions(opts []Option) *options {
	o := &options{
		compression: format.CompressionNone,
		logger:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// WithCompressor selects the string table codec of a written archive.
func WithCompressor(t format.CompressionType) Option {
	return func(o *options) { o.compression = t }
}

// WithMmap makes the reader memory-map the archive file for string
// lookups instead of seeking a file descriptor.
func WithMmap() Option {
	return func(o *options) { o.useMmap = true }
}

// WithOwner sets the id partition the writer stamps into generated
// object ids.
func WithOwner(owner uint16) Option {
	return func(o *options) { o.owner = owner }
}

// WithLogger attaches a logger; without one the archive stays silent.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *options) { o.logger = logger }
}

// Open opens and validates an archive file, materializing the string
// table descriptor and loading the record table into memory.
func Open(path string, opts ...Option) (*Archive, error) {
	o := newOptions(opts)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrOpenRead, err)
	}
	defer file.Close()

	a := &Archive{path: path, useMmap: o.useMmap, logger: o.logger}
	if err := a.load(file); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if o.useMmap {
		a.mapped, err = mmapgo.Map(file, mmapgo.RDONLY, 0)
		if err != nil {
			return nil, fmt.Errorf("mmap %s: %w", path, err)
		}
	}

	a.logger.Debugw("archive opened",
		"path", path,
		"compression", a.info.Compression.String(),
		"strings", a.info.NumEmbeddedStrings,
		"record_table_size", a.info.RecordTableSize,
	)

	return a, nil
}

func (a *Archive) load(file *os.File) error {
	headerBuf := make([]byte, section.FileHeaderSize)
	if _, err := file.ReadAt(headerBuf, 0); err != nil {
		return fmt.Errorf("read file header: %w", err)
	}
	fileHeader, err := section.ParseFileHeader(headerBuf)
	if err != nil {
		return err
	}
	a.recordOff = fileHeader.RootObjectHeaderOffset

	tableBuf := make([]byte, section.StringTableHeaderSize)
	if _, err := file.ReadAt(tableBuf, int64(section.FileHeaderSize)); err != nil {
		return fmt.Errorf("read string table header: %w", err)
	}
	tableHeader, err := section.ParseStringTableHeader(tableBuf)
	if err != nil {
		return err
	}

	compressor, err := compress.ByFlags(tableHeader.Flags)
	if err != nil {
		return err
	}

	// The codec-private extra region sits between the string table header
	// and the first entry.
	extraStart := uint64(section.FileHeaderSize + section.StringTableHeaderSize)
	extraEnd := tableHeader.FirstEntry
	if tableHeader.NumEntries == 0 || extraEnd < extraStart {
		extraEnd = extraStart
	}
	extra := make([]byte, extraEnd-extraStart)
	if len(extra) > 0 {
		if _, err := file.ReadAt(extra, int64(extraStart)); err != nil {
			return fmt.Errorf("read codec extra region: %w", err)
		}
	}
	if err := compressor.ReadExtra(extra); err != nil {
		return err
	}

	a.stringTable = stringTable{
		compressor:    compressor,
		firstEntryOff: tableHeader.FirstEntry,
		numEntries:    tableHeader.NumEntries,
		flags:         tableHeader.Flags,
	}

	recordBuf := make([]byte, section.RecordHeaderSize)
	if _, err := file.ReadAt(recordBuf, int64(a.recordOff)); err != nil {
		return fmt.Errorf("read record header: %w", err)
	}
	recordHeader, err := section.ParseRecordHeader(recordBuf)
	if err != nil {
		return err
	}
	a.recordFlags = recordHeader.Flags

	if _, err := file.Seek(int64(a.recordOff)+int64(section.RecordHeaderSize), 0); err != nil {
		return fmt.Errorf("seek record table: %w", err)
	}
	a.recordBlock, err = memory.BlockFromReader(file, int(recordHeader.RecordSize))
	if err != nil {
		return err
	}
	if a.recordBlock.Size() == 0 || a.recordBlock.RawData()[0] != format.MarkerObjectBegin {
		return fmt.Errorf("record table does not start with an object: %w", errs.ErrCorrupted)
	}

	end, err := file.Seek(0, 2)
	if err != nil {
		return fmt.Errorf("seek file end: %w", err)
	}
	a.info = Info{
		StringTableSize:     a.recordOff - uint64(section.FileHeaderSize),
		RecordTableSize:     uint64(end) - a.recordOff,
		NumEmbeddedStrings:  tableHeader.NumEntries,
		RecordReadOptimized: recordHeader.IsSorted(),
		Compression:         compressor.Type(),
	}

	return nil
}

// Info returns the archive description computed at open time.
func (a *Archive) Info() Info {
	return a.info
}

// Path returns the file path the archive was opened from.
func (a *Archive) Path() string {
	return a.path
}

// Close releases the record table and any mapped memory. IO contexts
// created from the archive hold their own file handles and stay usable
// until closed themselves.
func (a *Archive) Close() error {
	a.recordBlock = nil
	if a.mapped != nil {
		mapped := a.mapped
		a.mapped = nil

		return mapped.Unmap()
	}

	return nil
}

// recordFile opens a fresh read-only cursor over the record table.
// Iterators create private cursors so they never disturb each other.
func (a *Archive) recordFile() *memory.File {
	return memory.Open(a.recordBlock, memory.ModeReadOnly)
}

// seekRecord positions mf at a record-table offset. Stored offsets are
// relative to the record header; the in-memory block starts right after
// it.
func (a *Archive) seekRecord(mf *memory.File, off uint64) error {
	if off < uint64(section.RecordHeaderSize) {
		return fmt.Errorf("record offset %d inside record header: %w", off, errs.ErrCorrupted)
	}

	return mf.Seek(off - uint64(section.RecordHeaderSize))
}

// rootObjectOff is the record-relative offset of the root object header.
func rootObjectOff() uint64 {
	return uint64(section.RecordHeaderSize)
}
