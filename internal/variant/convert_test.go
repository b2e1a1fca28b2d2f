package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsIntTruncatesTowardZero(t *testing.T) {
	assert.Equal(t, int64(2), NewFloat(2.9).AsInt())
	assert.Equal(t, int64(-2), NewFloat(-2.9).AsInt())
	assert.Equal(t, int64(1), NewBool(true).AsInt())
	assert.Equal(t, int64(42), NewString("42").AsInt())
	assert.Equal(t, int64(3), NewString("3.7").AsInt())
	assert.Equal(t, int64(12), NewString("12abc").AsInt())
	assert.Equal(t, int64(0), NewString("abc").AsInt())
}

func TestAsBool(t *testing.T) {
	assert.False(t, Nil.AsBool())
	assert.False(t, NewInt(0).AsBool())
	assert.True(t, NewInt(-1).AsBool())
	assert.False(t, NewString("").AsBool())
	assert.True(t, NewString("x").AsBool())
	assert.False(t, NewArray(&Array{}).AsBool())
	assert.True(t, NewArray(NewArrayOf(Nil)).AsBool())
	assert.False(t, NewPackedByteArray(nil).AsBool())
}

func TestAsStringFormatting(t *testing.T) {
	assert.Equal(t, "7", NewInt(7).AsString())
	assert.Equal(t, "1.0", NewFloat(1).AsString())
	assert.Equal(t, "2.5", NewFloat(2.5).AsString())
	assert.Equal(t, "true", NewBool(true).AsString())
	assert.Equal(t, "raw text", NewString("raw text").AsString())
	assert.Equal(t, "Vector2(1.0, 2.0)", NewVector2(Vector2{X: 1, Y: 2}).AsString())
	assert.Equal(t, `[1, "two"]`, NewArray(NewArrayOf(NewInt(1), NewString("two"))).AsString())
}

func TestConvertChecked(t *testing.T) {
	t.Run("numeric", func(t *testing.T) {
		v, err := Convert(NewFloat(3.9), KindInt)
		require.NoError(t, err)
		assert.Equal(t, int64(3), v.Int())
	})

	t.Run("packed to array and back", func(t *testing.T) {
		arr, err := Convert(NewPackedInt32Array([]int32{1, 2, 3}), KindArray)
		require.NoError(t, err)
		require.Equal(t, KindArray, arr.Kind())
		assert.Equal(t, 3, arr.Array().Size())

		back, err := Convert(arr, KindPackedInt32Array)
		require.NoError(t, err)
		assert.Equal(t, []int32{1, 2, 3}, back.PackedInt32Array())
	})

	t.Run("failure returns default and error", func(t *testing.T) {
		v, err := Convert(NewVector2(Vector2{X: 1}), KindInt)
		assert.ErrorIs(t, err, ErrTypeMismatch)
		assert.Equal(t, int64(0), v.Int())
	})

	t.Run("identity", func(t *testing.T) {
		v, err := Convert(NewRID(5), KindRID)
		require.NoError(t, err)
		assert.Equal(t, RID(5), v.RID())
	})
}

func TestEqualsValueSemantics(t *testing.T) {
	assert.True(t, NewInt(3).Equals(NewFloat(3)))
	assert.True(t, NewFloat(3).Equals(NewInt(3)))
	assert.False(t, NewInt(3).Equals(NewFloat(3.5)))
	assert.False(t, NewString("3").Equals(NewInt(3)))

	a1 := NewArray(NewArrayOf(NewInt(1), NewString("x")))
	a2 := NewArray(NewArrayOf(NewInt(1), NewString("x")))
	assert.True(t, a1.Equals(a2), "distinct storage, equal contents")

	d1 := NewDictionary(NewDictionaryOf(NewString("k"), NewInt(1)))
	d2 := NewDictionary(NewDictionaryOf(NewString("k"), NewInt(1)))
	assert.True(t, d1.Equals(d2))
}

func TestHashConsistentWithEquals(t *testing.T) {
	assert.Equal(t, NewInt(7).Hash(), NewFloat(7).Hash())
	assert.Equal(t,
		NewArray(NewArrayOf(NewInt(1))).Hash(),
		NewArray(NewArrayOf(NewFloat(1))).Hash())
}

func TestDuplicate(t *testing.T) {
	inner := NewArrayOf(NewInt(1))
	outer := NewArray(NewArrayOf(NewArray(inner)))

	shallow := outer.Duplicate(false)
	shallow.Array().Get(0).Array().Set(0, NewInt(99))
	assert.Equal(t, int64(99), inner.Get(0).Int(), "shallow shares nested containers")

	deep := outer.Duplicate(true)
	deep.Array().Get(0).Array().Set(0, NewInt(7))
	assert.Equal(t, int64(99), inner.Get(0).Int(), "deep detaches nested containers")
}

func TestDictionaryOps(t *testing.T) {
	d := &Dictionary{}
	d.Set(NewString("a"), NewInt(1))
	d.Set(NewString("b"), NewInt(2))
	d.Set(NewString("a"), NewInt(3)) // replace keeps position

	require.Equal(t, 2, d.Size())
	k, v := d.KeyValueAt(0)
	assert.Equal(t, "a", k.String())
	assert.Equal(t, int64(3), v.Int())

	_, ok := d.TryGet(NewString("missing"))
	assert.False(t, ok, "lookup miss is a signal, not an error")

	got, err := d.Get(NewString("b"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Int())
	_, err = d.Get(NewString("missing"))
	assert.ErrorIs(t, err, ErrNotFound)

	assert.True(t, d.Remove(NewString("a")))
	assert.False(t, d.Remove(NewString("a")))
	assert.Equal(t, []Variant{NewString("b")}, d.Keys().elems)
}

func TestArrayOps(t *testing.T) {
	a := &Array{}
	assert.Equal(t, 1, a.Add(NewInt(10)))
	a.Insert(0, NewInt(5))
	assert.Equal(t, int64(5), a.Get(0).Int())
	assert.Equal(t, 1, a.IndexOf(NewInt(10)))
	assert.Equal(t, -1, a.IndexOf(NewInt(11)))

	a.Resize(4)
	assert.Equal(t, 4, a.Size())
	assert.True(t, a.Get(3).IsNil())

	a.RemoveAt(0)
	assert.Equal(t, int64(10), a.Get(0).Int())
}
