package archive

import (
	"fmt"

	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/section"
)

// stridVectorCap is the maximum number of entries one Next call yields.
const stridVectorCap = 10000

// StridInfo locates one string of the embedded table: its id, its
// decoded length and the absolute file offset of its encoded payload.
type StridInfo struct {
	ID     uint64
	StrLen uint32
	Offset uint64
}

// StridIter produces chunks of StridInfo triples by walking the on-disk
// string entry list.
type StridIter struct {
	query     *Query
	nextOff   uint64
	remaining uint32
	open      bool
}

// ScanStrids starts a scan over the archive's string entries.
func (q *Query) ScanStrids() *StridIter {
	return &StridIter{
		query:     q,
		nextOff:   q.archive.stringTable.firstEntryOff,
		remaining: q.archive.stringTable.numEntries,
		open:      true,
	}
}

// Next returns the next chunk of string locations, nil when the list is
// exhausted. The linked list must terminate after exactly the number of
// entries the table header declares; early termination is corruption.
func (it *StridIter) Next() ([]StridInfo, error) {
	if !it.open || it.remaining == 0 {
		return nil, nil
	}

	chunk := make([]StridInfo, 0, min(int(it.remaining), stridVectorCap))
	ctx := it.query.ctx
	ctx.Lock()
	defer ctx.Unlock()

	var buf [section.StringEntryHeaderSize]byte
	for len(chunk) < stridVectorCap && it.remaining > 0 {
		if it.nextOff == 0 {
			return nil, fmt.Errorf("string list ended %d entries early: %w", it.remaining, errs.ErrCorrupted)
		}
		if err := ctx.ReadAt(buf[:], it.nextOff); err != nil {
			return nil, fmt.Errorf("%w: %s", errs.ErrScanFailed, err)
		}
		header, err := section.ParseStringEntryHeader(buf[:])
		if err != nil {
			return nil, err
		}
		chunk = append(chunk, StridInfo{
			ID:     header.StringID,
			StrLen: header.StringLen,
			Offset: it.nextOff + uint64(section.StringEntryHeaderSize),
		})
		it.nextOff = header.NextEntryOff
		it.remaining--
	}

	return chunk, nil
}

// Close ends the scan; subsequent Next calls return nil.
func (it *StridIter) Close() {
	it.open = false
}
