package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/glox/lang/value"
)

func TestTableSetGetDelete(t *testing.T) {
	h := value.NewHeap()
	var tbl value.Table

	k1 := h.NewString("alpha")
	k2 := h.NewString("beta")

	assert.True(t, tbl.Set(k1, value.Number(1)))
	assert.True(t, tbl.Set(k2, value.Number(2)))
	// re-setting an existing key reports it is not new
	assert.False(t, tbl.Set(k1, value.Number(11)))

	v, ok := tbl.Get(k1)
	require.True(t, ok)
	assert.Equal(t, value.Number(11), v)

	v, ok = tbl.Get(k2)
	require.True(t, ok)
	assert.Equal(t, value.Number(2), v)

	_, ok = tbl.Get(h.NewString("gamma"))
	assert.False(t, ok)
}

func TestTableDeleteLeavesTombstoneProbedPast(t *testing.T) {
	h := value.NewHeap()
	var tbl value.Table

	// force every key into the same small table so collisions are likely,
	// exercising the tombstone-skip-on-probe path.
	keys := make([]*value.String, 0, 6)
	for i := 0; i < 6; i++ {
		k := h.NewString(string(rune('a' + i)))
		keys = append(keys, k)
		tbl.Set(k, value.Number(float64(i)))
	}

	require.True(t, tbl.Delete(keys[2]))
	// deleting twice reports false the second time
	assert.False(t, tbl.Delete(keys[2]))

	// every other key must still be found despite probing past the
	// tombstone left at keys[2]'s bucket
	for i, k := range keys {
		if i == 2 {
			continue
		}
		v, ok := tbl.Get(k)
		require.True(t, ok, "key %d missing after tombstone delete", i)
		assert.Equal(t, value.Number(float64(i)), v)
	}

	// re-inserting a deleted key reports it as new again and stores the new
	// value (here the load check counts the tombstone, so this insert also
	// grows the table from 8 to 16 buckets)
	assert.True(t, tbl.Set(keys[2], value.Number(99)))
	v, ok := tbl.Get(keys[2])
	require.True(t, ok)
	assert.Equal(t, value.Number(99), v)
}

func TestTableAddAllCopiesLiveEntriesOnly(t *testing.T) {
	h := value.NewHeap()
	var src, dst value.Table

	k1, k2 := h.NewString("one"), h.NewString("two")
	src.Set(k1, value.Number(1))
	src.Set(k2, value.Number(2))
	src.Delete(k2)

	src.AddAll(&dst)

	_, ok := dst.Get(k1)
	assert.True(t, ok)
	_, ok = dst.Get(k2)
	assert.False(t, ok, "deleted entry must not be copied")
}

func TestTableGrowsPastLoadFactor(t *testing.T) {
	h := value.NewHeap()
	var tbl value.Table

	const n = 200
	for i := 0; i < n; i++ {
		k := h.NewString(string(rune(i)) + "-key")
		tbl.Set(k, value.Number(float64(i)))
	}
	assert.Equal(t, n, tbl.Count())

	for i := 0; i < n; i++ {
		k := h.NewString(string(rune(i)) + "-key")
		v, ok := tbl.Get(k)
		require.True(t, ok)
		assert.Equal(t, value.Number(float64(i)), v)
	}
}

func TestFindStringReturnsCanonicalInstance(t *testing.T) {
	h := value.NewHeap()
	a := h.NewString("shared")
	b := h.NewString("shared")
	assert.Same(t, a, b, "two interned strings with equal content must share identity")

	c := h.NewString("different")
	assert.NotSame(t, a, c)
}
