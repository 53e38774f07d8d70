package archive

import "github.com/jaksonlabs/carbon/format"

// Mask selects which property groups iterators and visitors traverse.
type Mask uint16

const (
	MaskPrimitives Mask = 1 << 1
	MaskArrays     Mask = 1 << 2

	MaskInt8    Mask = 1 << 3
	MaskInt16   Mask = 1 << 4
	MaskInt32   Mask = 1 << 5
	MaskInt64   Mask = 1 << 6
	MaskUint8   Mask = 1 << 7
	MaskUint16  Mask = 1 << 8
	MaskUint32  Mask = 1 << 9
	MaskUint64  Mask = 1 << 10
	MaskNumber  Mask = 1 << 11
	MaskString  Mask = 1 << 12
	MaskBoolean Mask = 1 << 13
	MaskNull    Mask = 1 << 14
	MaskObject  Mask = 1 << 15

	// MaskInteger selects all eight integer types.
	MaskInteger = MaskInt8 | MaskInt16 | MaskInt32 | MaskInt64 |
		MaskUint8 | MaskUint16 | MaskUint32 | MaskUint64

	// MaskAny selects everything.
	MaskAny = MaskPrimitives | MaskArrays | MaskInteger |
		MaskNumber | MaskString | MaskBoolean | MaskNull | MaskObject
)

var typeMasks = [format.NumFieldTypes]Mask{
	format.TypeNull:   MaskNull,
	format.TypeBool:   MaskBoolean,
	format.TypeInt8:   MaskInt8,
	format.TypeInt16:  MaskInt16,
	format.TypeInt32:  MaskInt32,
	format.TypeInt64:  MaskInt64,
	format.TypeUint8:  MaskUint8,
	format.TypeUint16: MaskUint16,
	format.TypeUint32: MaskUint32,
	format.TypeUint64: MaskUint64,
	format.TypeFloat:  MaskNumber,
	format.TypeString: MaskString,
	format.TypeObject: MaskObject,
}

// includes reports whether the mask selects the group of the given type
// and flavor.
func (m Mask) includes(t format.FieldType, isArray bool) bool {
	flavor := MaskPrimitives
	if isArray {
		flavor = MaskArrays
	}

	return m&flavor != 0 && m&typeMasks[t] != 0
}
