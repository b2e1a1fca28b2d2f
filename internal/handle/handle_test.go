package handle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocResolve(t *testing.T) {
	tbl := NewTable()

	target := &struct{ name string }{name: "wrapper"}
	h := tbl.Alloc(target, Strong)
	require.True(t, h.IsValid())
	assert.True(t, h.IsStrong())

	got, err := tbl.Resolve(h)
	require.NoError(t, err)
	assert.Same(t, target, got)
	assert.Equal(t, 1, tbl.Count())
}

func TestReleaseInvalidatesHandle(t *testing.T) {
	tbl := NewTable()
	h := tbl.Alloc("x", Strong)

	tbl.Release(h)
	assert.Equal(t, 0, tbl.Count())
	assert.True(t, tbl.IsReleased(h))

	_, err := tbl.Resolve(h)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestDoubleReleasePanics(t *testing.T) {
	tbl := NewTable()
	h := tbl.Alloc("x", Strong)
	tbl.Release(h)

	assert.Panics(t, func() { tbl.Release(h) })
}

func TestReleaseZeroHandlePanics(t *testing.T) {
	tbl := NewTable()
	assert.Panics(t, func() { tbl.Release(Handle{}) })
}

func TestWeakHandleIsWriteOnly(t *testing.T) {
	tbl := NewTable()
	h := tbl.Alloc("x", Weak)
	require.True(t, h.IsValid())
	assert.False(t, h.IsStrong())

	// Weak handles may be stored and released, never dereferenced natively.
	assert.Panics(t, func() { _, _ = tbl.Resolve(h) })
	tbl.Release(h)
	assert.Equal(t, 0, tbl.Count())
}

func TestZeroHandleResolvesToInvalid(t *testing.T) {
	tbl := NewTable()
	_, err := tbl.Resolve(Handle{strength: Strong})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestConcurrentAllocRelease(t *testing.T) {
	tbl := NewTable()

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := tbl.Alloc(struct{}{}, Strong)
			_, err := tbl.Resolve(h)
			assert.NoError(t, err)
			tbl.Release(h)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, tbl.Count())
}
