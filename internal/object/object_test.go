package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/scriptbridge/internal/variant"
)

func TestDBLifecycle(t *testing.T) {
	db := NewDB()
	o := db.NewObject("Node")
	require.NotZero(t, o.ID())
	assert.Same(t, o, db.Get(o.ID()))
	assert.Equal(t, 1, db.Count())

	var hooked *Object
	db.SetFreeHook(func(freed *Object) { hooked = freed })

	o.Free()
	assert.Same(t, o, hooked)
	assert.Nil(t, db.Get(o.ID()))
	assert.Equal(t, 0, db.Count())
	assert.True(t, o.IsDestroyed())
}

func TestDoubleFreePanics(t *testing.T) {
	db := NewDB()
	o := db.NewObject("Node")
	o.Free()
	assert.Panics(t, func() { o.Free() })
}

func TestRefCounting(t *testing.T) {
	db := NewDB()
	rc := db.NewRefCounted("Resource")
	assert.Equal(t, int32(1), rc.RefCount())

	assert.False(t, rc.InitRef(), "already referenced")
	assert.True(t, rc.Reference())
	assert.Equal(t, int32(2), rc.RefCount())

	assert.False(t, rc.Unreference())
	assert.True(t, rc.Unreference(), "last reference reports zero")
	assert.Equal(t, int32(0), rc.RefCount())

	assert.False(t, rc.Reference(), "dead object takes no new references")
	assert.Panics(t, func() { rc.Unreference() }, "underflow")
}

func TestSignals(t *testing.T) {
	db := NewDB()
	o := db.NewObject("Button")

	var got []variant.Variant
	id := o.Connect("pressed", func(args []variant.Variant) { got = args })

	o.EmitSignal("pressed", variant.NewInt(7))
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].Int())

	o.Disconnect("pressed", id)
	got = nil
	o.EmitSignal("pressed", variant.NewInt(8))
	assert.Nil(t, got)
}

func TestObjectString(t *testing.T) {
	db := NewDB()
	o := db.NewObject("Sprite")
	assert.Contains(t, o.String(), "Sprite:")
}
