package archive

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
)

// ToJSON renders the archive back to JSON text, resolving every string
// id through the query. Properties appear in the type-partitioned group
// order of the record table, which is how the archive stores them; the
// original document order within an object is not retained across type
// boundaries.
func ToJSON(q *Query) ([]byte, error) {
	root, err := q.archive.Root()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := writeObjectJSON(&buf, q, root); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func writeObjectJSON(buf *bytes.Buffer, q *Query, obj *Object) error {
	buf.WriteByte('{')
	first := true
	comma := func() {
		if !first {
			buf.WriteString(", ")
		}
		first = false
	}

	it := PropIterFromObject(obj, MaskAny)
	for {
		group, err := it.Next()
		if err != nil {
			return err
		}
		if group == nil {
			break
		}
		if group.Collection != nil {
			if err := writeObjectArraysJSON(buf, q, group.Collection, comma); err != nil {
				return err
			}
			continue
		}
		if err := writeValueGroupJSON(buf, q, group.Values, comma); err != nil {
			return err
		}
	}
	buf.WriteByte('}')

	return nil
}

func writeKeyJSON(buf *bytes.Buffer, q *Query, key uint64) error {
	name, err := q.FetchString(key)
	if err != nil {
		return err
	}
	buf.WriteString(strconv.Quote(name))
	buf.WriteString(": ")

	return nil
}

func writeValueGroupJSON(buf *bytes.Buffer, q *Query, vv *ValueVector, comma func()) error {
	keys := vv.Keys()
	t := vv.BasicType()

	if !vv.IsArray() && t == format.TypeObject {
		for i, key := range keys {
			comma()
			if err := writeKeyJSON(buf, q, key); err != nil {
				return err
			}
			child, err := vv.ObjectAt(i)
			if err != nil {
				return err
			}
			if err := writeObjectJSON(buf, q, child); err != nil {
				return err
			}
		}

		return nil
	}

	if t == format.TypeNull {
		if !vv.IsArray() {
			for _, key := range keys {
				comma()
				if err := writeKeyJSON(buf, q, key); err != nil {
					return err
				}
				buf.WriteString("null")
			}

			return nil
		}
		lengths, err := vv.ArrayLengths()
		if err != nil {
			return err
		}
		for i, key := range keys {
			comma()
			if err := writeKeyJSON(buf, q, key); err != nil {
				return err
			}
			writeNullsJSON(buf, lengths[i])
		}

		return nil
	}

	for i, key := range keys {
		comma()
		if err := writeKeyJSON(buf, q, key); err != nil {
			return err
		}

		var vals any
		var err error
		if vv.IsArray() {
			vals, err = vv.arrayAt(t, i)
		} else {
			var all any
			all, err = vv.fixedValues(t)
			if err == nil {
				vals = scalarAt(all, i)
			}
		}
		if err != nil {
			return err
		}
		if vv.IsArray() {
			if err := writeScalarsJSON(buf, q, t, vals, true); err != nil {
				return err
			}
		} else if err := writeScalarsJSON(buf, q, t, vals, false); err != nil {
			return err
		}
	}

	return nil
}

// scalarAt slices out the i-th value of a typed slice as a one-element
// slice of the same type.
func scalarAt(vals any, i int) any {
	switch v := vals.(type) {
	case []uint8:
		return v[i : i+1]
	case []int8:
		return v[i : i+1]
	case []int16:
		return v[i : i+1]
	case []uint16:
		return v[i : i+1]
	case []int32:
		return v[i : i+1]
	case []uint32:
		return v[i : i+1]
	case []int64:
		return v[i : i+1]
	case []uint64:
		return v[i : i+1]
	case []float32:
		return v[i : i+1]
	default:
		return nil
	}
}

func writeNullsJSON(buf *bytes.Buffer, count uint32) {
	buf.WriteByte('[')
	for i := uint32(0); i < count; i++ {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString("null")
	}
	buf.WriteByte(']')
}

// writeScalarsJSON renders a typed value slice. With asArray false the
// slice must hold exactly one value, rendered bare.
func writeScalarsJSON(buf *bytes.Buffer, q *Query, t format.FieldType, vals any, asArray bool) error {
	var parts []string
	switch t {
	case format.TypeBool:
		for _, x := range vals.([]uint8) {
			switch x {
			case format.NullBool:
				parts = append(parts, "null")
			case 0:
				parts = append(parts, "false")
			default:
				parts = append(parts, "true")
			}
		}
	case format.TypeInt8:
		for _, x := range vals.([]int8) {
			parts = append(parts, intJSON(int64(x), x == format.NullInt8))
		}
	case format.TypeInt16:
		for _, x := range vals.([]int16) {
			parts = append(parts, intJSON(int64(x), x == format.NullInt16))
		}
	case format.TypeInt32:
		for _, x := range vals.([]int32) {
			parts = append(parts, intJSON(int64(x), x == format.NullInt32))
		}
	case format.TypeInt64:
		for _, x := range vals.([]int64) {
			parts = append(parts, intJSON(x, x == format.NullInt64))
		}
	case format.TypeUint8:
		for _, x := range vals.([]uint8) {
			parts = append(parts, uintJSON(uint64(x), x == format.NullUint8))
		}
	case format.TypeUint16:
		for _, x := range vals.([]uint16) {
			parts = append(parts, uintJSON(uint64(x), x == format.NullUint16))
		}
	case format.TypeUint32:
		for _, x := range vals.([]uint32) {
			parts = append(parts, uintJSON(uint64(x), x == format.NullUint32))
		}
	case format.TypeUint64:
		for _, x := range vals.([]uint64) {
			parts = append(parts, uintJSON(x, x == format.NullUint64))
		}
	case format.TypeFloat:
		for _, x := range vals.([]float32) {
			if x != x { // NaN is the float null sentinel
				parts = append(parts, "null")
			} else {
				parts = append(parts, strconv.FormatFloat(float64(x), 'g', -1, 32))
			}
		}
	case format.TypeString:
		for _, id := range vals.([]uint64) {
			if id == format.NullEncodedString {
				parts = append(parts, "null")
				continue
			}
			s, err := q.FetchString(id)
			if err != nil {
				return err
			}
			parts = append(parts, strconv.Quote(s))
		}
	default:
		return fmt.Errorf("json rendering of %s values: %w", t, errs.ErrNoType)
	}

	if !asArray {
		if len(parts) != 1 {
			return fmt.Errorf("scalar rendering of %d values: %w", len(parts), errs.ErrIllegalImpl)
		}
		buf.WriteString(parts[0])

		return nil
	}
	buf.WriteByte('[')
	for i, part := range parts {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(part)
	}
	buf.WriteByte(']')

	return nil
}

func intJSON(v int64, isNull bool) string {
	if isNull {
		return "null"
	}

	return strconv.FormatInt(v, 10)
}

func uintJSON(v uint64, isNull bool) string {
	if isNull {
		return "null"
	}

	return strconv.FormatUint(v, 10)
}

// jsonFragment is one reassembled property of an object-array element.
type jsonFragment struct {
	key  uint64
	body []byte
}

// writeObjectArraysJSON reassembles each object-array property from its
// column groups: element p combines the entries every column holds at
// position p. Single-value entries render bare; multi-value entries
// render as arrays (the column format does not distinguish a scalar
// from a one-element array).
func writeObjectArraysJSON(buf *bytes.Buffer, q *Query, coll *CollectionIter, comma func()) error {
	keys := coll.Keys()
	groupIdx := 0
	for {
		group, err := coll.NextColumnGroup()
		if err != nil {
			return err
		}
		if group == nil {
			return nil
		}

		numObjects := len(group.ObjectIDs())
		elements := make([][]jsonFragment, numObjects)
		for {
			col, err := group.NextColumn()
			if err != nil {
				return err
			}
			if col == nil {
				break
			}
			positions := col.Positions()
			entryIdx := 0
			for {
				entry, err := col.NextEntry()
				if err != nil {
					return err
				}
				if entry == nil {
					break
				}
				pos := positions[entryIdx]
				entryIdx++

				body, err := renderEntryJSON(q, col.FieldType(), entry)
				if err != nil {
					return err
				}
				elements[pos] = append(elements[pos], jsonFragment{key: col.Name(), body: body})
			}
		}

		comma()
		if err := writeKeyJSON(buf, q, keys[groupIdx]); err != nil {
			return err
		}
		buf.WriteByte('[')
		for p, fragments := range elements {
			if p > 0 {
				buf.WriteString(", ")
			}
			buf.WriteByte('{')
			for i, fragment := range fragments {
				if i > 0 {
					buf.WriteString(", ")
				}
				if err := writeKeyJSON(buf, q, fragment.key); err != nil {
					return err
				}
				buf.Write(fragment.body)
			}
			buf.WriteByte('}')
		}
		buf.WriteByte(']')
		groupIdx++
	}
}

func renderEntryJSON(q *Query, t format.FieldType, entry *EntryIter) ([]byte, error) {
	var buf bytes.Buffer

	switch t {
	case format.TypeObject:
		objIter, err := entry.Objects()
		if err != nil {
			return nil, err
		}
		var bodies [][]byte
		for {
			child, err := objIter.NextObject()
			if err != nil {
				return nil, err
			}
			if child == nil {
				break
			}
			var childBuf bytes.Buffer
			if err := writeObjectJSON(&childBuf, q, child); err != nil {
				return nil, err
			}
			bodies = append(bodies, childBuf.Bytes())
		}
		if len(bodies) == 1 {
			return bodies[0], nil
		}
		buf.WriteByte('[')
		for i, body := range bodies {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.Write(body)
		}
		buf.WriteByte(']')
	case format.TypeNull:
		vals, err := entry.Values()
		if err != nil {
			return nil, err
		}
		counts := vals.([]uint32)
		if len(counts) == 1 && counts[0] == 1 {
			buf.WriteString("null")
		} else {
			var total uint32
			for _, c := range counts {
				total += c
			}
			writeNullsJSON(&buf, total)
		}
	default:
		vals, err := entry.Values()
		if err != nil {
			return nil, err
		}
		if err := writeScalarsJSON(&buf, q, t, vals, entry.Len() != 1); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}
