package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSum_Deterministic(t *testing.T) {
	require.Equal(t, Sum("carbon"), Sum("carbon"))
	require.NotEqual(t, Sum("carbon"), Sum("carbo"))
	require.NotZero(t, Sum(""))
}

func TestSumID_Spreads(t *testing.T) {
	require.Equal(t, SumID(42), SumID(42))
	require.NotEqual(t, SumID(1), SumID(2))
}
