// Package hash wraps the xxHash64 function used for string bucketing.
package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Sum computes the xxHash64 of the given string.
func Sum(data string) uint64 {
	return xxhash.Sum64String(data)
}

// SumID computes the xxHash64 of a 64-bit identifier, used to spread
// string ids over cache buckets.
func SumID(id uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], id)

	return xxhash.Sum64(buf[:])
}
