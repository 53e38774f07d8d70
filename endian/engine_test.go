package endian

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetLittleEndianEngine(t *testing.T) {
	engine := GetLittleEndianEngine()
	require.Equal(t, binary.LittleEndian, engine)

	buf := engine.AppendUint32(nil, 0x11223344)
	require.Equal(t, []byte{0x44, 0x33, 0x22, 0x11}, buf)
	require.Equal(t, uint32(0x11223344), engine.Uint32(buf))
}

func TestCheckEndianness(t *testing.T) {
	order := CheckEndianness()
	require.Contains(t, []binary.ByteOrder{binary.LittleEndian, binary.BigEndian}, order)
	require.Equal(t, order == binary.LittleEndian, IsNativeLittleEndian())
}
