package archive

import (
	"fmt"
	"io"
	"strings"

	"github.com/jaksonlabs/carbon/format"
	"github.com/jaksonlabs/carbon/memory"
	"github.com/jaksonlabs/carbon/section"
)

// Dump writes a human-readable rendering of the archive to w: file
// layout, the string table (including the codec dictionary), and the
// record tree. Intended for inspection tooling, not for machine
// consumption.
func (a *Archive) Dump(w io.Writer, q *Query) error {
	info := a.Info()
	fmt.Fprintf(w, "# carbon archive %s\n", a.path)
	fmt.Fprintf(w, "magic: %q, version: %d\n", section.Magic, section.Version)
	fmt.Fprintf(w, "record header offset: 0x%x\n", a.recordOff)
	fmt.Fprintf(w, "string table: %d entries, %d bytes, codec %s\n",
		info.NumEmbeddedStrings, info.StringTableSize, info.Compression)
	fmt.Fprintf(w, "record table: %d bytes, read-optimized: %v\n\n",
		info.RecordTableSize, info.RecordReadOptimized)

	if err := a.dumpStringTable(w, q); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n# record tree\n")
	root, err := a.Root()
	if err != nil {
		return err
	}

	return a.dumpObject(w, q, root, 0)
}

func (a *Archive) dumpStringTable(w io.Writer, q *Query) error {
	fmt.Fprintf(w, "# string table\n")

	if a.info.Compression == format.CompressionHuffman {
		// The dictionary sits between the table header and the first entry.
		extraOff := uint64(section.FileHeaderSize + section.StringTableHeaderSize)
		extraLen := a.stringTable.firstEntryOff - extraOff
		if a.stringTable.numEntries > 0 && extraLen > 0 {
			buf := make([]byte, extraLen)
			q.ctx.Lock()
			err := q.ctx.ReadAt(buf, extraOff)
			q.ctx.Unlock()
			if err != nil {
				return err
			}
			block := memory.NewBlock(int(extraLen))
			if err := block.Write(0, buf); err != nil {
				return err
			}
			if err := a.stringTable.compressor.DumpDict(w, memory.Open(block, memory.ModeReadOnly)); err != nil {
				return err
			}
		}
	}

	it := q.ScanStrids()
	defer it.Close()
	for {
		chunk, err := it.Next()
		if err != nil {
			return err
		}
		if chunk == nil {
			return nil
		}
		decoded, err := q.FetchStrings(chunk)
		if err != nil {
			return err
		}
		for i, info := range chunk {
			fmt.Fprintf(w, "0x%08x [id: %d] [len: %d] %q\n", info.Offset, info.ID, info.StrLen, decoded[i])
		}
	}
}

func (a *Archive) dumpObject(w io.Writer, q *Query, obj *Object, depth int) error {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s[object id: %d] [groups: %d]\n", indent, obj.ID(), obj.Flags().Count())

	it := PropIterFromObject(obj, MaskAny)
	for {
		group, err := it.Next()
		if err != nil {
			return err
		}
		if group == nil {
			return nil
		}

		if group.Collection != nil {
			if err := a.dumpObjectArrays(w, q, group.Collection, depth+1); err != nil {
				return err
			}
			continue
		}

		vv := group.Values
		fmt.Fprintf(w, "%s  [%s group] [array: %v] [pairs: %d] keys: %s\n",
			indent, vv.BasicType(), vv.IsArray(), vv.Len(), a.keyList(q, vv.Keys()))

		if vv.BasicType() == format.TypeObject && !vv.IsArray() {
			for i := range vv.Keys() {
				child, err := vv.ObjectAt(i)
				if err != nil {
					return err
				}
				if err := a.dumpObject(w, q, child, depth+2); err != nil {
					return err
				}
			}
		}
	}
}

func (a *Archive) dumpObjectArrays(w io.Writer, q *Query, coll *CollectionIter, depth int) error {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s[object-array group] keys: %s\n", indent, a.keyList(q, coll.Keys()))

	for {
		group, err := coll.NextColumnGroup()
		if err != nil {
			return err
		}
		if group == nil {
			return nil
		}
		fmt.Fprintf(w, "%s  [column group] [objects: %d] [columns: %d]\n",
			indent, len(group.ObjectIDs()), group.NumColumns())
		for {
			col, err := group.NextColumn()
			if err != nil {
				return err
			}
			if col == nil {
				break
			}
			fmt.Fprintf(w, "%s    [column %s] [type: %s] [entries: %d] positions: %v\n",
				indent, a.keyList(q, []uint64{col.Name()}), col.FieldType(), col.NumEntries(), col.Positions())
		}
	}
}

func (a *Archive) keyList(q *Query, keys []uint64) string {
	parts := make([]string, len(keys))
	for i, key := range keys {
		if q != nil {
			if name, err := q.FetchString(key); err == nil {
				parts[i] = fmt.Sprintf("%q", name)
				continue
			}
		}
		parts[i] = fmt.Sprintf("#%d", key)
	}

	return strings.Join(parts, ", ")
}
