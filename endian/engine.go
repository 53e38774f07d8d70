// Package endian provides the byte order engine used for all archive
// encoding and decoding.
//
// Carbon archives are little-endian on disk. The EndianEngine interface
// combines ByteOrder and AppendByteOrder from encoding/binary so callers
// can both read in place and append without temporary buffers.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary
// into a single interface. It is satisfied by binary.LittleEndian and
// binary.BigEndian; instances are immutable and safe for concurrent use.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine, the wire order
// of the carbon archive format.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// CheckEndianness determines the host's native byte order.
func CheckEndianness() binary.ByteOrder {
	var i uint16 = 0x0100

	// For little-endian hosts the LSB (0x00) sits at the lowest address.
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host matches the wire order.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}
