package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageConstructDestroy(t *testing.T) {
	var s Storage
	require.False(t, s.IsConstructed())

	NewCopyInto(&s, NewInt(42))
	require.True(t, s.IsConstructed())
	assert.Equal(t, int64(42), s.Value().Int())

	s.Destroy()
	assert.False(t, s.IsConstructed())
}

func TestStorageDoubleConstructPanics(t *testing.T) {
	var s Storage
	NewCopyInto(&s, NewBool(true))
	defer s.Destroy()

	assert.Panics(t, func() { NewCopyInto(&s, NewBool(false)) })
}

func TestStorageDoubleDestroyPanics(t *testing.T) {
	var s Storage
	NewCopyInto(&s, NewString("x"))
	s.Destroy()

	assert.Panics(t, func() { s.Destroy() })
}

func TestStorageReadUnconstructedPanics(t *testing.T) {
	var s Storage
	assert.Panics(t, func() { _ = s.Value() })
}

func TestDefaultConstruct(t *testing.T) {
	for k := KindNil; k < kindMax; k++ {
		var s Storage
		NewDefaultInto(&s, k)
		assert.Equal(t, k, s.Value().Kind(), "kind %s", k)
		s.Destroy()
	}
}

// Construct/destroy pairs must be net zero under repeated iteration: any
// drift in the live counter is a leak on some path.
func TestConstructDestroyIsNetZero(t *testing.T) {
	samples := []Variant{
		Nil,
		NewBool(true),
		NewInt(-7),
		NewFloat(2.5),
		NewString("boundary"),
		NewVector2(Vector2{X: 1, Y: 2}),
		NewVector3(Vector3{X: 1, Y: 2, Z: 3}),
		NewStringName("ready"),
		NewNodePath("root/child"),
		NewRID(11),
		NewObject(99),
		NewPackedByteArray([]byte{1, 2, 3}),
		NewPackedInt64Array([]int64{-1, 0, 1}),
		NewPackedStringArray([]string{"a", "b"}),
		NewArray(NewArrayOf(NewInt(1), NewString("two"))),
		NewDictionary(NewDictionaryOf(NewString("k"), NewInt(1))),
		NewCallable(Callable{Kind: CallableMethod, Target: 4, Name: "poke"}),
		NewSignal(Signal{Target: 4, Name: "done"}),
	}

	before := LiveCount()
	for i := 0; i < 100; i++ {
		for _, v := range samples {
			var s Storage
			NewCopyInto(&s, v)
			_ = s.Value()
			s.Destroy()
		}
	}
	assert.Equal(t, before, LiveCount())
}
