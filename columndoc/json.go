package columndoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
	"github.com/jaksonlabs/carbon/strdic"
)

// jsonObject is a parsed JSON object with document key order preserved.
// Values are nil, bool, json.Number, string, []any or *jsonObject.
type jsonObject struct {
	keys []string
	vals []any
}

// FromJSON parses a JSON document into the columnar model. The top
// level value must be an object; all strings (keys and values) are
// dictionary-encoded during the build.
func FromJSON(data []byte) (*Doc, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrJSONParse, err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, fmt.Errorf("top-level value must be an object: %w", errs.ErrJSONParse)
	}
	root, err := parseObject(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after document: %w", errs.ErrJSONParse)
	}

	b := &builder{dict: strdic.New()}
	obj, err := b.buildObj(root)
	if err != nil {
		return nil, err
	}

	return &Doc{Dict: b.dict, Root: obj}, nil
}

func parseObject(dec *json.Decoder) (*jsonObject, error) {
	obj := &jsonObject{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", errs.ErrJSONParse, err)
		}
		if delim, ok := tok.(json.Delim); ok && delim == '}' {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %w", errs.ErrJSONParse)
		}
		tok, err = dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", errs.ErrJSONParse, err)
		}
		val, err := parseValue(dec, tok)
		if err != nil {
			return nil, err
		}
		obj.keys = append(obj.keys, key)
		obj.vals = append(obj.vals, val)
	}
}

func parseArray(dec *json.Decoder) ([]any, error) {
	arr := []any{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", errs.ErrJSONParse, err)
		}
		if delim, ok := tok.(json.Delim); ok && delim == ']' {
			return arr, nil
		}
		val, err := parseValue(dec, tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
}

func parseValue(dec *json.Decoder, tok json.Token) (any, error) {
	if delim, ok := tok.(json.Delim); ok {
		switch delim {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q: %w", delim, errs.ErrJSONParse)
		}
	}

	return tok, nil
}

type builder struct {
	dict *strdic.Dictionary
}

func (b *builder) buildObj(src *jsonObject) (*Obj, error) {
	obj := &Obj{}
	for i, key := range src.keys {
		keyID, err := b.dict.Insert(key)
		if err != nil {
			return nil, err
		}
		if err := b.addProp(obj, keyID, src.vals[i]); err != nil {
			return nil, fmt.Errorf("property %q: %w", key, err)
		}
	}

	return obj, nil
}

func (b *builder) addProp(obj *Obj, keyID uint64, val any) error {
	switch v := val.(type) {
	case nil:
		obj.NullKeys = append(obj.NullKeys, keyID)
	case bool:
		obj.BoolKeys = append(obj.BoolKeys, keyID)
		obj.BoolVals = append(obj.BoolVals, boolValue(v))
	case string:
		id, err := b.dict.Insert(v)
		if err != nil {
			return err
		}
		obj.StringKeys = append(obj.StringKeys, keyID)
		obj.StringVals = append(obj.StringVals, id)
	case json.Number:
		num, err := parseNumber(v)
		if err != nil {
			return err
		}
		switch num.t {
		case format.TypeInt32:
			obj.Int32Keys = append(obj.Int32Keys, keyID)
			obj.Int32Vals = append(obj.Int32Vals, int32(num.i))
		case format.TypeInt64:
			obj.Int64Keys = append(obj.Int64Keys, keyID)
			obj.Int64Vals = append(obj.Int64Vals, num.i)
		case format.TypeUint64:
			obj.Uint64Keys = append(obj.Uint64Keys, keyID)
			obj.Uint64Vals = append(obj.Uint64Vals, num.u)
		default:
			obj.FloatKeys = append(obj.FloatKeys, keyID)
			obj.FloatVals = append(obj.FloatVals, num.f)
		}
	case *jsonObject:
		child, err := b.buildObj(v)
		if err != nil {
			return err
		}
		obj.ObjKeys = append(obj.ObjKeys, keyID)
		obj.ObjVals = append(obj.ObjVals, child)
	case []any:
		return b.addArrayProp(obj, keyID, v)
	default:
		return fmt.Errorf("unsupported json value %T: %w", val, errs.ErrBulkCreate)
	}

	return nil
}

func (b *builder) addArrayProp(obj *Obj, keyID uint64, arr []any) error {
	if allNulls(arr) {
		obj.NullArrayKeys = append(obj.NullArrayKeys, keyID)
		obj.NullArrayLens = append(obj.NullArrayLens, uint32(len(arr)))

		return nil
	}
	if hasObjects(arr) {
		group, err := b.buildColumnGroup(keyID, arr)
		if err != nil {
			return err
		}
		obj.ObjectArrays = append(obj.ObjectArrays, group)

		return nil
	}

	t, values, err := b.primitiveArray(arr)
	if err != nil {
		return err
	}
	switch t {
	case format.TypeBool:
		obj.BoolArrayKeys = append(obj.BoolArrayKeys, keyID)
		obj.BoolArrayVals = append(obj.BoolArrayVals, values.([]format.Bool))
	case format.TypeInt32:
		obj.Int32ArrayKeys = append(obj.Int32ArrayKeys, keyID)
		obj.Int32ArrayVals = append(obj.Int32ArrayVals, values.([]int32))
	case format.TypeInt64:
		obj.Int64ArrayKeys = append(obj.Int64ArrayKeys, keyID)
		obj.Int64ArrayVals = append(obj.Int64ArrayVals, values.([]int64))
	case format.TypeUint64:
		obj.Uint64ArrayKeys = append(obj.Uint64ArrayKeys, keyID)
		obj.Uint64ArrayVals = append(obj.Uint64ArrayVals, values.([]uint64))
	case format.TypeFloat:
		obj.FloatArrayKeys = append(obj.FloatArrayKeys, keyID)
		obj.FloatArrayVals = append(obj.FloatArrayVals, values.([]float32))
	case format.TypeString:
		obj.StringArrayKeys = append(obj.StringArrayKeys, keyID)
		obj.StringArrayVals = append(obj.StringArrayVals, values.([]uint64))
	default:
		return fmt.Errorf("array type %s: %w", t, errs.ErrBulkCreate)
	}

	return nil
}

// buildColumnGroup transposes an array of objects into per-key,
// per-type columns. The entry at logical position p holds the values
// the p-th element carries for that key.
func (b *builder) buildColumnGroup(keyID uint64, arr []any) (ColumnGroup, error) {
	group := ColumnGroup{Key: keyID}
	for pos, e := range arr {
		elem, ok := e.(*jsonObject)
		if !ok {
			return ColumnGroup{}, fmt.Errorf("object array mixes objects with %T: %w", e, errs.ErrBulkCreate)
		}
		for i, key := range elem.keys {
			colKey, err := b.dict.Insert(key)
			if err != nil {
				return ColumnGroup{}, err
			}
			t, entry, err := b.columnEntry(elem.vals[i])
			if err != nil {
				return ColumnGroup{}, fmt.Errorf("property %q: %w", key, err)
			}
			col := group.column(colKey, t)
			col.Positions = append(col.Positions, uint32(pos))
			col.Entries = append(col.Entries, entry)
		}
	}

	return group, nil
}

// columnEntry converts one element property into a typed column entry.
func (b *builder) columnEntry(val any) (format.FieldType, any, error) {
	switch v := val.(type) {
	case nil:
		return format.TypeNull, []uint32{1}, nil
	case bool:
		return format.TypeBool, []format.Bool{boolValue(v)}, nil
	case string:
		id, err := b.dict.Insert(v)
		if err != nil {
			return 0, nil, err
		}

		return format.TypeString, []uint64{id}, nil
	case json.Number:
		num, err := parseNumber(v)
		if err != nil {
			return 0, nil, err
		}
		switch num.t {
		case format.TypeInt32:
			return format.TypeInt32, []int32{int32(num.i)}, nil
		case format.TypeInt64:
			return format.TypeInt64, []int64{num.i}, nil
		case format.TypeUint64:
			return format.TypeUint64, []uint64{num.u}, nil
		default:
			return format.TypeFloat, []float32{num.f}, nil
		}
	case *jsonObject:
		child, err := b.buildObj(v)
		if err != nil {
			return 0, nil, err
		}

		return format.TypeObject, []*Obj{child}, nil
	case []any:
		if allNulls(v) {
			return format.TypeNull, []uint32{uint32(len(v))}, nil
		}
		if hasObjects(v) {
			objs := make([]*Obj, 0, len(v))
			for _, e := range v {
				elem, ok := e.(*jsonObject)
				if !ok {
					return 0, nil, fmt.Errorf("object array mixes objects with %T: %w", e, errs.ErrBulkCreate)
				}
				child, err := b.buildObj(elem)
				if err != nil {
					return 0, nil, err
				}
				objs = append(objs, child)
			}

			return format.TypeObject, objs, nil
		}

		return b.primitiveArray(v)
	default:
		return 0, nil, fmt.Errorf("unsupported json value %T: %w", val, errs.ErrBulkCreate)
	}
}

// primitiveArray promotes a heterogeneous-but-primitive JSON array into
// one typed value slice. Numeric members promote to the widest member
// type (floats win); null members take the promoted type's sentinel.
func (b *builder) primitiveArray(arr []any) (format.FieldType, any, error) {
	var hasBool, hasString, hasNumber, hasFloat bool
	var hasNegative bool
	var needsUint64, needsInt64 bool

	for _, e := range arr {
		switch v := e.(type) {
		case nil:
		case bool:
			hasBool = true
		case string:
			hasString = true
		case json.Number:
			hasNumber = true
			num, err := parseNumber(v)
			if err != nil {
				return 0, nil, err
			}
			switch num.t {
			case format.TypeFloat:
				hasFloat = true
			case format.TypeUint64:
				needsUint64 = true
			case format.TypeInt64:
				needsInt64 = true
			default:
				if num.i < 0 {
					hasNegative = true
				}
			}
		case []any, *jsonObject:
			return 0, nil, fmt.Errorf("nested %T in primitive array: %w", e, errs.ErrBulkCreate)
		default:
			return 0, nil, fmt.Errorf("unsupported json value %T: %w", e, errs.ErrBulkCreate)
		}
	}

	mixed := (hasBool && (hasString || hasNumber)) || (hasString && hasNumber)
	if mixed {
		return 0, nil, fmt.Errorf("array mixes incompatible value types: %w", errs.ErrBulkCreate)
	}
	if needsUint64 && (hasNegative || needsInt64) && !hasFloat {
		return 0, nil, fmt.Errorf("array mixes uint64 and negative values: %w", errs.ErrBulkCreate)
	}

	switch {
	case hasBool:
		out := make([]format.Bool, len(arr))
		for i, e := range arr {
			if e == nil {
				out[i] = format.NullBool
			} else {
				out[i] = boolValue(e.(bool))
			}
		}

		return format.TypeBool, out, nil
	case hasString:
		out := make([]uint64, len(arr))
		for i, e := range arr {
			if e == nil {
				out[i] = format.NullEncodedString
				continue
			}
			id, err := b.dict.Insert(e.(string))
			if err != nil {
				return 0, nil, err
			}
			out[i] = id
		}

		return format.TypeString, out, nil
	case hasFloat:
		out := make([]float32, len(arr))
		for i, e := range arr {
			if e == nil {
				out[i] = format.NullFloat()
				continue
			}
			num, err := parseNumber(e.(json.Number))
			if err != nil {
				return 0, nil, err
			}
			out[i] = num.float()
		}

		return format.TypeFloat, out, nil
	case needsUint64:
		out := make([]uint64, len(arr))
		for i, e := range arr {
			if e == nil {
				out[i] = format.NullUint64
				continue
			}
			num, err := parseNumber(e.(json.Number))
			if err != nil {
				return 0, nil, err
			}
			if num.t == format.TypeUint64 {
				out[i] = num.u
			} else {
				out[i] = uint64(num.i)
			}
		}

		return format.TypeUint64, out, nil
	case needsInt64:
		out := make([]int64, len(arr))
		for i, e := range arr {
			if e == nil {
				out[i] = format.NullInt64
				continue
			}
			num, err := parseNumber(e.(json.Number))
			if err != nil {
				return 0, nil, err
			}
			out[i] = num.i
		}

		return format.TypeInt64, out, nil
	case hasNumber:
		out := make([]int32, len(arr))
		for i, e := range arr {
			if e == nil {
				out[i] = format.NullInt32
				continue
			}
			num, err := parseNumber(e.(json.Number))
			if err != nil {
				return 0, nil, err
			}
			out[i] = int32(num.i)
		}

		return format.TypeInt32, out, nil
	default:
		return 0, nil, fmt.Errorf("array holds no typable value: %w", errs.ErrBulkCreate)
	}
}

func allNulls(arr []any) bool {
	for _, e := range arr {
		if e != nil {
			return false
		}
	}

	return true
}

func hasObjects(arr []any) bool {
	for _, e := range arr {
		if _, ok := e.(*jsonObject); ok {
			return true
		}
	}

	return false
}

func boolValue(v bool) format.Bool {
	if v {
		return 1
	}

	return 0
}

// number is one classified JSON number.
type number struct {
	t format.FieldType
	i int64
	u uint64
	f float32
}

func (n number) float() float32 {
	switch n.t {
	case format.TypeFloat:
		return n.f
	case format.TypeUint64:
		return float32(n.u)
	default:
		return float32(n.i)
	}
}

// parseNumber classifies a JSON number into the smallest fitting member
// of {int32, int64, uint64, float32}. Null sentinels are excluded from
// the usable ranges.
func parseNumber(n json.Number) (number, error) {
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		switch {
		case i >= math.MinInt32 && i <= format.LimitInt32Max:
			return number{t: format.TypeInt32, i: i}, nil
		case i <= format.LimitInt64Max:
			return number{t: format.TypeInt64, i: i}, nil
		default:
			return number{t: format.TypeUint64, u: uint64(i)}, nil
		}
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		if u > format.LimitUint64Max {
			return number{}, fmt.Errorf("value %s collides with the uint64 null sentinel: %w",
				n.String(), errs.ErrIllegalArg)
		}

		return number{t: format.TypeUint64, u: u}, nil
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return number{}, fmt.Errorf("%w: %s", errs.ErrJSONParse, err)
	}

	return number{t: format.TypeFloat, f: float32(f)}, nil
}
