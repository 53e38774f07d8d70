package archive

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaksonlabs/carbon/errs"
	"github.com/jaksonlabs/carbon/format"
)

func TestOIDGenerator_Partitioning(t *testing.T) {
	gen, err := newOIDGenerator(5)
	require.NoError(t, err)

	first, err := gen.New()
	require.NoError(t, err)
	require.Equal(t, uint64(5), first>>oidLocalBits)
	require.Equal(t, uint64(1), first&maxOIDLocal)

	second, err := gen.New()
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = newOIDGenerator(maxOIDOwner + 1)
	require.ErrorIs(t, err, errs.ErrIllegalArg)
}

func TestOIDGenerator_Exhaustion(t *testing.T) {
	gen, err := newOIDGenerator(0)
	require.NoError(t, err)
	gen.next = maxOIDLocal

	_, err = gen.New()
	require.NoError(t, err)
	_, err = gen.New()
	require.ErrorIs(t, err, errs.ErrOutOfObjectIDs)
}

func TestMask_Composition(t *testing.T) {
	require.True(t, MaskAny.includes(format.TypeInt32, false))
	require.True(t, MaskAny.includes(format.TypeString, true))

	m := MaskPrimitives | MaskInteger
	require.True(t, m.includes(format.TypeInt8, false))
	require.True(t, m.includes(format.TypeUint64, false))
	require.False(t, m.includes(format.TypeInt8, true), "arrays flavor not selected")
	require.False(t, m.includes(format.TypeString, false), "string bit not selected")

	require.Equal(t, MaskInt8|MaskInt16|MaskInt32|MaskInt64|
		MaskUint8|MaskUint16|MaskUint32|MaskUint64, MaskInteger)
}
