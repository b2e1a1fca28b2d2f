package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestFromCty(t *testing.T) {
	v, err := FromCty(cty.NumberIntVal(42))
	require.NoError(t, err)
	assert.Equal(t, KindInt, v.Kind())
	assert.Equal(t, int64(42), v.Int())

	v, err = FromCty(cty.NumberFloatVal(1.5))
	require.NoError(t, err)
	assert.Equal(t, KindFloat, v.Kind())

	v, err = FromCty(cty.StringVal("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", v.String())

	v, err = FromCty(cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.StringVal("a")}))
	require.NoError(t, err)
	require.Equal(t, KindArray, v.Kind())
	assert.Equal(t, 2, v.Array().Size())

	v, err = FromCty(cty.ObjectVal(map[string]cty.Value{"k": cty.True}))
	require.NoError(t, err)
	require.Equal(t, KindDictionary, v.Kind())
	got, ok := v.Dictionary().TryGet(NewString("k"))
	require.True(t, ok)
	assert.True(t, got.Bool())

	v, err = FromCty(cty.NullVal(cty.String))
	require.NoError(t, err)
	assert.True(t, v.IsNil())
}

func TestToCtyRejectsIdentityKinds(t *testing.T) {
	for _, v := range []Variant{
		NewRID(1),
		NewObject(2),
		NewCallable(Callable{Kind: CallableDelegate}),
		NewSignal(Signal{Target: 1, Name: "s"}),
	} {
		_, err := ToCty(v)
		assert.ErrorIs(t, err, ErrTypeMismatch, "kind %s", v.Kind())
	}
}

func TestCtyRoundTrip(t *testing.T) {
	src := NewDictionary(NewDictionaryOf(
		NewString("n"), NewInt(3),
		NewString("list"), NewArray(NewArrayOf(NewFloat(0.5), NewString("s"))),
	))

	cv, err := ToCty(src)
	require.NoError(t, err)

	back, err := FromCty(cv)
	require.NoError(t, err)
	require.Equal(t, KindDictionary, back.Kind())

	n, ok := back.Dictionary().TryGet(NewString("n"))
	require.True(t, ok)
	assert.Equal(t, int64(3), n.AsInt())
}
