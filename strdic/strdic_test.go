package strdic

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaksonlabs/carbon/errs"
)

func TestDictionary_InsertAssignsSequentialIDs(t *testing.T) {
	d := New()

	idA, err := d.Insert("a")
	require.NoError(t, err)
	require.Equal(t, uint64(1), idA, "id 0 is reserved for the null string")

	idB, err := d.Insert("b")
	require.NoError(t, err)
	require.Equal(t, uint64(2), idB)

	again, err := d.Insert("a")
	require.NoError(t, err)
	require.Equal(t, idA, again, "insert must be idempotent")
	require.Equal(t, 2, d.Len())
}

func TestDictionary_Locate(t *testing.T) {
	d := New()
	id, err := d.Insert("carbon")
	require.NoError(t, err)

	got, ok := d.Locate("carbon")
	require.True(t, ok)
	require.Equal(t, id, got)

	_, ok = d.Locate("missing")
	require.False(t, ok)
}

func TestDictionary_ContentsPreserveInsertionOrder(t *testing.T) {
	d := New()
	want := []string{"z", "a", "m", "b"}
	for _, s := range want {
		_, err := d.Insert(s)
		require.NoError(t, err)
	}

	strings, ids := d.Contents()
	require.Equal(t, want, strings)
	require.Equal(t, []uint64{1, 2, 3, 4}, ids)
}

func TestDictionary_OwnerPartitioning(t *testing.T) {
	d, err := NewWithOwner(3)
	require.NoError(t, err)

	id, err := d.Insert("x")
	require.NoError(t, err)
	require.Equal(t, uint64(3), id>>LocalBits)
	require.Equal(t, uint64(1), id&MaxLocal)

	_, err = NewWithOwner(MaxOwner + 1)
	require.ErrorIs(t, err, errs.ErrIllegalArg)
}

func TestDictionary_ManyStrings(t *testing.T) {
	d := New()
	for i := 0; i < 1000; i++ {
		_, err := d.Insert(fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
	}
	require.Equal(t, 1000, d.Len())

	id, ok := d.Locate("key-999")
	require.True(t, ok)
	require.Equal(t, uint64(1000), id)
}
