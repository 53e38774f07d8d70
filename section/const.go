package section

// Magic is the 9-byte file magic at offset zero of every archive.
const Magic = "MP/CARBON"

// Version is the archive format version this implementation writes and
// accepts.
const Version uint8 = 1

// Fixed header sizes in bytes.
const (
	FileHeaderSize        = len(Magic) + 1 + 8 + 8 // magic, version, root offset, id-index offset
	StringTableHeaderSize = 1 + 4 + 1 + 8          // marker, num entries, flags, first entry
	StringEntryHeaderSize = 1 + 8 + 8 + 4          // marker, next entry, string id, string length
	RecordHeaderSize      = 1 + 1 + 8              // marker, flags, record size
	ObjectHeaderSize      = 1 + 8 + 4              // marker, object id, flags
	PropHeaderSize        = 1 + 4                  // marker, num entries
	ObjectArrayHeaderSize = 1 + 1                  // marker, num entries
	ColumnGroupHeaderSize = 1 + 4 + 4              // marker, num columns, num objects
	ColumnHeaderSize      = 1 + 8 + 1 + 4          // marker, column name, value type, num entries
)

// Record header flag bits.
const (
	RecordFlagSorted uint8 = 1 << 0 // record table was built read-optimized
)
