package archive

import (
	"fmt"
	"strings"

	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
)

// NullText is the rendering of the reserved null string id.
const NullText = "null"

// Query is the string resolution layer of an archive. It owns one IO
// context; share a query across goroutines only through the context's
// lock discipline, or give each goroutine its own query.
type Query struct {
	archive *Archive
	ctx     *IOContext
}

// Query creates a query handle with a fresh IO context.
func (a *Archive) Query() (*Query, error) {
	ctx, err := a.NewIOContext()
	if err != nil {
		return nil, err
	}

	return &Query{archive: a, ctx: ctx}, nil
}

// Archive returns the archive the query reads from.
func (q *Query) Archive() *Archive {
	return q.archive
}

// Close releases the query's IO context.
func (q *Query) Close() error {
	return q.ctx.Close()
}

// FetchString resolves a string id by scanning the string entry list.
// Id zero resolves to the null sentinel without touching the table.
func (q *Query) FetchString(id uint64) (string, error) {
	if id == format.NullEncodedString {
		return NullText, nil
	}

	it := q.ScanStrids()
	defer it.Close()
	for {
		chunk, err := it.Next()
		if err != nil {
			return "", err
		}
		if chunk == nil {
			return "", fmt.Errorf("string id %d: %w", id, errs.ErrNotFound)
		}
		for _, info := range chunk {
			if info.ID == id {
				return q.decodeAt(info.Offset, info.StrLen)
			}
		}
	}
}

// decodeAt decodes one string payload at an absolute file offset under
// the IO lock.
func (q *Query) decodeAt(offset uint64, strLen uint32) (string, error) {
	q.ctx.Lock()
	defer q.ctx.Unlock()

	data, err := q.archive.stringTable.compressor.DecodeString(q.ctx.SectionAt(offset), strLen)
	if err != nil {
		return "", fmt.Errorf("%w: %s", errs.ErrDecompressFailed, err)
	}

	return string(data), nil
}

// FetchStrings decodes a batch of located strings under one IO lock
// acquisition.
func (q *Query) FetchStrings(infos []StridInfo) ([]string, error) {
	if len(infos) == 0 {
		return nil, nil
	}

	q.ctx.Lock()
	defer q.ctx.Unlock()

	out := make([]string, len(infos))
	for i, info := range infos {
		data, err := q.archive.stringTable.compressor.DecodeString(q.ctx.SectionAt(info.Offset), info.StrLen)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", errs.ErrDecompressFailed, err)
		}
		out[i] = string(data)
	}

	return out, nil
}

// Pred is a user predicate over decoded strings. Eval returns the
// indexes of the matching strings of one chunk. A negative Limit means
// the predicate imposes none.
type Pred struct {
	Limit int64
	Eval  func(strings []string, capture any) ([]int, error)
}

// PredEquals matches strings equal to needle.
func PredEquals(needle string) Pred {
	return Pred{
		Limit: -1,
		Eval: func(candidates []string, _ any) ([]int, error) {
			var idxs []int
			for i, s := range candidates {
				if s == needle {
					idxs = append(idxs, i)
				}
			}

			return idxs, nil
		},
	}
}

// PredContains matches strings containing needle.
func PredContains(needle string) Pred {
	return Pred{
		Limit: -1,
		Eval: func(candidates []string, _ any) ([]int, error) {
			var idxs []int
			for i, s := range candidates {
				if strings.Contains(s, needle) {
					idxs = append(idxs, i)
				}
			}

			return idxs, nil
		},
	}
}

// FindIDs streams the string table through the predicate and returns
// the ids of matching strings. The effective limit is the smaller of
// the predicate's own limit and the argument; negative means unlimited.
func (q *Query) FindIDs(pred Pred, capture any, limit int64) ([]uint64, error) {
	if pred.Eval == nil {
		return nil, fmt.Errorf("predicate has no eval function: %w", errs.ErrIllegalArg)
	}
	effective := pred.Limit
	if effective < 0 {
		effective = limit
	} else if limit >= 0 && limit < effective {
		effective = limit
	}
	if effective == 0 {
		return nil, nil
	}

	var result []uint64
	it := q.ScanStrids()
	defer it.Close()
	for {
		chunk, err := it.Next()
		if err != nil {
			return nil, err
		}
		if chunk == nil {
			return result, nil
		}

		decoded, err := q.FetchStrings(chunk)
		if err != nil {
			return nil, err
		}
		idxs, err := pred.Eval(decoded, capture)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", errs.ErrPredEvalFailed, err)
		}
		for _, idx := range idxs {
			if idx < 0 || idx >= len(chunk) {
				return nil, fmt.Errorf("predicate index %d of %d: %w", idx, len(chunk), errs.ErrOutOfBounds)
			}
			result = append(result, chunk[idx].ID)
			if effective > 0 && int64(len(result)) == effective {
				return result, nil
			}
		}
	}
}
