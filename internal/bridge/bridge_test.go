package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/vk/scriptbridge/internal/classdb"
	"github.com/vk/scriptbridge/internal/handle"
	"github.com/vk/scriptbridge/internal/object"
	"github.com/vk/scriptbridge/internal/variant"
)

type fakeRuntime struct {
	mu         sync.Mutex
	created    []string
	preSetup   []any
	failCreate bool
}

func (r *fakeRuntime) CreateManagedForBinding(typeName string, id variant.ObjectID) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return nil, errors.New("managed construction failed")
	}
	w := fmt.Sprintf("wrapper:%s:%d", typeName, id)
	r.created = append(r.created, w)
	return w, nil
}

func (r *fakeRuntime) PreSetup(target any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preSetup = append(r.preSetup, target)
	return nil
}

type fakeScript struct {
	handles *handle.Table
	h       handle.Handle
	state   atomic.Int32

	deleteOwner  bool
	removeScript bool

	disposedCalls int
	baseRefCalls  []bool
	connected     []string
}

func newFakeScript(handles *handle.Table) *fakeScript {
	return &fakeScript{handles: handles, h: handles.Alloc("script", handle.Strong)}
}

func (s *fakeScript) GCHandle() handle.Handle { return s.h }

func (s *fakeScript) State() object.DisposeState {
	return object.DisposeState(s.state.Load())
}

func (s *fakeScript) Disposed() {
	s.state.Store(int32(object.StateDisposing))
	s.handles.Release(s.h)
	s.disposedCalls++
	s.state.Store(int32(object.StateUnbound))
}

func (s *fakeScript) DisposedBaseRef(isFinalizer bool) (bool, bool) {
	s.baseRefCalls = append(s.baseRefCalls, isFinalizer)
	return s.deleteOwner, s.removeScript
}

func (s *fakeScript) ConnectEventSignal(signal string) {
	s.connected = append(s.connected, signal)
}

func newBridge(t *testing.T) (*Coordinator, *object.DB, *handle.Table, *fakeRuntime) {
	t.Helper()
	classes := classdb.New()
	classes.Register(&classdb.ClassDef{Name: "Object"})
	classes.Register(&classdb.ClassDef{Name: "Node", Extends: "Object"})
	classes.Register(&classdb.ClassDef{Name: "Sprite", Extends: "Node"})
	classes.Register(&classdb.ClassDef{Name: "RefCounted", Extends: "Object", RefCounted: true})
	classes.Register(&classdb.ClassDef{Name: "Resource", Extends: "RefCounted"})

	objects := object.NewDB()
	handles := handle.NewTable()
	runtime := &fakeRuntime{}
	c := NewCoordinator(context.Background(), objects, classes, handles, runtime)
	return c, objects, handles, runtime
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	b, err := r.Bind(1, "Sprite")
	require.NoError(t, err)
	assert.Equal(t, "Sprite", b.TypeName)
	assert.False(t, b.Inited)

	_, err = r.Bind(1, "Sprite")
	assert.ErrorIs(t, err, ErrAlreadyBound)

	got, ok := r.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, variant.ObjectID(1), got.ObjectID)

	r.Unbind(1)
	_, ok = r.Lookup(1)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Count())
}

func TestTieNativeManaged(t *testing.T) {
	c, objects, handles, _ := newBridge(t)
	obj := objects.NewObject("Sprite")

	h := handles.Alloc("wrapper", handle.Strong)
	require.NoError(t, c.TieNativeManaged(obj, h))
	assert.Equal(t, h, c.BindingHandle(obj))

	b, ok := c.Registry().Lookup(obj.ID())
	require.True(t, ok)
	assert.True(t, b.Inited)
	assert.Equal(t, "Sprite", b.TypeName)

	err := c.TieNativeManaged(obj, handles.Alloc("other", handle.Strong))
	assert.ErrorIs(t, err, ErrAlreadyBound)
}

func TestTieSyntheticReference(t *testing.T) {
	c, objects, handles, _ := newBridge(t)
	rc := objects.NewRefCounted("Resource")
	require.Equal(t, int32(1), rc.RefCount())

	require.NoError(t, c.TieNativeManaged(&rc.Object, handles.Alloc("wrapper", handle.Strong)))
	assert.Equal(t, int32(2), rc.RefCount(), "binding holds exactly one synthetic reference")
}

func TestTieInvalidHandlePanics(t *testing.T) {
	c, objects, _, _ := newBridge(t)
	obj := objects.NewObject("Sprite")
	assert.Panics(t, func() { _ = c.TieNativeManaged(obj, handle.Handle{}) })
}

func TestTieManagedWithPreSetup(t *testing.T) {
	c, objects, handles, runtime := newBridge(t)
	obj := objects.NewObject("Sprite")

	h := handles.Alloc("wrapper", handle.Strong)
	require.NoError(t, c.TieManagedWithPreSetup(obj, h))
	assert.Equal(t, []any{"wrapper"}, runtime.preSetup)
	assert.Equal(t, h, c.BindingHandle(obj))
}

func TestTieUserManaged(t *testing.T) {
	c, objects, handles, _ := newBridge(t)
	obj := objects.NewObject("Sprite")
	si := newFakeScript(handles)

	h := handles.Alloc("wrapper", handle.Strong)
	require.NoError(t, c.TieUserManaged(obj, h, "PlayerSprite", si))
	assert.Same(t, si, obj.ScriptInstance())
	assert.Equal(t, si.GCHandle(), c.ScriptInstanceHandle(obj))

	b, _ := c.Registry().Lookup(obj.ID())
	assert.Equal(t, "PlayerSprite", b.TypeName)
}

func TestObjectDisposed(t *testing.T) {
	c, objects, handles, _ := newBridge(t)
	obj := objects.NewObject("Sprite")
	h := handles.Alloc("wrapper", handle.Strong)
	require.NoError(t, c.TieNativeManaged(obj, h))

	c.ObjectDisposed(obj)
	assert.True(t, handles.IsReleased(h))

	b, ok := c.Registry().Lookup(obj.ID())
	require.True(t, ok, "record removal is driven by native destruction, not disposal")
	assert.False(t, b.Inited)

	// Re-entry finds nothing to release.
	assert.NotPanics(t, func() { c.ObjectDisposed(obj) })

	obj.Free()
	_, ok = c.Registry().Lookup(obj.ID())
	assert.False(t, ok)
}

func TestObjectDisposedWithScriptInstance(t *testing.T) {
	c, objects, handles, _ := newBridge(t)
	obj := objects.NewObject("Sprite")
	si := newFakeScript(handles)
	require.NoError(t, c.TieUserManaged(obj, handles.Alloc("wrapper", handle.Strong), "PlayerSprite", si))

	c.ObjectDisposed(obj)
	assert.Equal(t, 1, si.disposedCalls)
	assert.True(t, handles.IsReleased(si.h), "script instance released its own handle")
	assert.Nil(t, obj.ScriptInstance())

	b, _ := c.Registry().Lookup(obj.ID())
	assert.True(t, b.Inited, "script path leaves the registry alone")
}

func TestObjectDisposedWhileDisposing(t *testing.T) {
	c, objects, handles, _ := newBridge(t)
	obj := objects.NewObject("Sprite")
	si := newFakeScript(handles)
	obj.SetScriptInstance(si)
	si.state.Store(int32(object.StateDisposing))

	c.ObjectDisposed(obj)
	assert.Equal(t, 0, si.disposedCalls, "re-entrant disposal is a no-op")
	assert.NotNil(t, obj.ScriptInstance())
}

func TestRefCountedManagedLifetime(t *testing.T) {
	c, objects, handles, _ := newBridge(t)
	rc := objects.NewRefCounted("Resource")
	h := handles.Alloc("wrapper", handle.Strong)
	require.NoError(t, c.TieNativeManaged(&rc.Object, h))
	require.Equal(t, int32(2), rc.RefCount())

	// Dropping every real reference leaves the synthetic one.
	require.False(t, rc.Unreference())
	assert.Equal(t, int32(1), rc.RefCount())
	assert.False(t, rc.IsDestroyed())

	// The finalizer removes the synthetic reference; the object dies and the
	// binding collapses through the destruction hook.
	c.RefCountedDisposed(rc, true)
	assert.True(t, rc.IsDestroyed())
	assert.True(t, handles.IsReleased(h))
	assert.Equal(t, 0, c.Registry().Count())
	assert.Equal(t, 0, handles.Count())
}

func TestRefCountedOutlivesWrapper(t *testing.T) {
	c, objects, handles, _ := newBridge(t)
	rc := objects.NewRefCounted("Resource")
	require.True(t, rc.Reference(), "a second real reference")

	h := handles.Alloc("wrapper", handle.Strong)
	require.NoError(t, c.TieNativeManaged(&rc.Object, h))
	require.Equal(t, int32(3), rc.RefCount())

	c.RefCountedDisposed(rc, true)
	assert.False(t, rc.IsDestroyed())
	assert.Equal(t, int32(2), rc.RefCount())
	assert.True(t, handles.IsReleased(h))

	b, ok := c.Registry().Lookup(rc.ID())
	require.True(t, ok)
	assert.False(t, b.Inited)
}

func TestRefCountedDisposedScriptDelegation(t *testing.T) {
	t.Run("delete owner", func(t *testing.T) {
		c, objects, handles, _ := newBridge(t)
		rc := objects.NewRefCounted("Resource")
		si := newFakeScript(handles)
		si.deleteOwner = true
		rc.SetScriptInstance(si)

		c.RefCountedDisposed(rc, true)
		assert.Equal(t, []bool{true}, si.baseRefCalls)
		assert.True(t, rc.IsDestroyed())
	})

	t.Run("remove script instance", func(t *testing.T) {
		c, objects, handles, _ := newBridge(t)
		rc := objects.NewRefCounted("Resource")
		si := newFakeScript(handles)
		si.removeScript = true
		rc.SetScriptInstance(si)

		c.RefCountedDisposed(rc, false)
		assert.False(t, rc.IsDestroyed())
		assert.Nil(t, rc.ScriptInstance())
	})

	t.Run("neither", func(t *testing.T) {
		c, objects, handles, _ := newBridge(t)
		rc := objects.NewRefCounted("Resource")
		si := newFakeScript(handles)
		rc.SetScriptInstance(si)

		c.RefCountedDisposed(rc, false)
		assert.False(t, rc.IsDestroyed())
		assert.NotNil(t, rc.ScriptInstance())
		assert.Equal(t, int32(1), rc.RefCount(), "delegated disposal never touches the count")
	})
}

func TestCreateOrRebindFresh(t *testing.T) {
	c, objects, handles, _ := newBridge(t)
	obj := objects.NewObject("Sprite")

	h, err := c.CreateOrRebind(obj, handle.Handle{})
	require.NoError(t, err)
	target, err := handles.Resolve(h)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("wrapper:Sprite:%d", obj.ID()), target)

	b, _ := c.Registry().Lookup(obj.ID())
	assert.True(t, b.Inited)
	assert.Equal(t, h, b.Handle)
}

func TestCreateOrRebindReplacesHandle(t *testing.T) {
	c, objects, handles, _ := newBridge(t)
	rc := objects.NewRefCounted("Resource")
	h0 := handles.Alloc("old wrapper", handle.Strong)
	require.NoError(t, c.TieNativeManaged(&rc.Object, h0))
	require.Equal(t, int32(2), rc.RefCount())

	h1, err := c.CreateOrRebind(&rc.Object, h0)
	require.NoError(t, err)
	assert.NotEqual(t, h0, h1)
	assert.True(t, handles.IsReleased(h0))
	assert.Equal(t, int32(2), rc.RefCount(), "the synthetic reference survives a rebind")
	assert.Equal(t, 1, handles.Count(), "never two live strong handles per record")
}

func TestCreateOrRebindStalePanics(t *testing.T) {
	c, objects, handles, _ := newBridge(t)
	obj := objects.NewObject("Sprite")
	h0 := handles.Alloc("wrapper", handle.Strong)
	require.NoError(t, c.TieNativeManaged(obj, h0))

	stale := handles.Alloc("stale", handle.Strong)
	assert.Panics(t, func() { _, _ = c.CreateOrRebind(obj, stale) })
	assert.Panics(t, func() { _, _ = c.CreateOrRebind(obj, handle.Handle{}) })

	b, _ := c.Registry().Lookup(obj.ID())
	assert.True(t, b.Inited, "a stale rebind mutates nothing")
	assert.Equal(t, h0, b.Handle)
	assert.False(t, handles.IsReleased(h0))
}

func TestCreateOrRebindTypeMismatch(t *testing.T) {
	c, objects, _, _ := newBridge(t)
	obj := objects.NewObject("Sprite")
	_, err := c.Registry().Bind(obj.ID(), "Resource")
	require.NoError(t, err)

	_, err = c.CreateOrRebind(obj, handle.Handle{})
	assert.ErrorIs(t, err, variant.ErrTypeMismatch)

	b, ok := c.Registry().Lookup(obj.ID())
	require.True(t, ok)
	assert.False(t, b.Inited)
	assert.Equal(t, "Resource", b.TypeName, "failed rebind leaves the record untouched")
}

func TestCreateOrRebindRuntimeFailure(t *testing.T) {
	c, objects, handles, runtime := newBridge(t)
	runtime.failCreate = true
	obj := objects.NewObject("Sprite")

	_, err := c.CreateOrRebind(obj, handle.Handle{})
	assert.Error(t, err)
	assert.Equal(t, 0, handles.Count())
}

func TestNewScriptResource(t *testing.T) {
	c, _, handles, _ := newBridge(t)

	obj, h, err := c.NewScriptResource("Resource", "Resource")
	require.NoError(t, err)
	rc := obj.AsRefCounted()
	require.NotNil(t, rc)
	assert.Equal(t, int32(2), rc.RefCount(), "initial reference plus the synthetic one")
	assert.Equal(t, h, c.BindingHandle(obj))
	assert.False(t, handles.IsReleased(h))

	_, _, err = c.NewScriptResource("Sprite", "Resource")
	assert.ErrorIs(t, err, variant.ErrTypeMismatch)
}

func TestWeakRef(t *testing.T) {
	c, objects, _, _ := newBridge(t)
	rc := objects.NewRefCounted("Resource")

	w := c.WeakRef(&rc.Object)
	assert.Equal(t, int32(1), rc.RefCount(), "weak reference takes no reference")

	got := w.GetRef()
	require.Equal(t, variant.KindObject, got.Kind())
	assert.Equal(t, rc.ID(), got.ObjectID())

	rc.Free()
	assert.True(t, w.GetRef().IsNil())
}

func TestConnectEventSignal(t *testing.T) {
	c, objects, handles, _ := newBridge(t)
	obj := objects.NewObject("Sprite")
	si := newFakeScript(handles)
	obj.SetScriptInstance(si)

	c.ConnectEventSignal(obj, "frame_changed")
	assert.Equal(t, []string{"frame_changed"}, si.connected)

	scriptless := objects.NewObject("Node")
	assert.NotPanics(t, func() { c.ConnectEventSignal(scriptless, "renamed") })
}

func TestFilters(t *testing.T) {
	c, objects, handles, _ := newBridge(t)
	sprite := objects.NewObject("Sprite")
	node := objects.NewObject("Node")
	res := objects.NewRefCounted("Resource")
	require.NoError(t, c.TieUserManaged(sprite, handles.Alloc("w", handle.Strong), "PlayerSprite", nil))

	arr := variant.NewArrayOf(
		variant.NewObject(sprite.ID()),
		variant.NewObject(node.ID()),
		variant.NewObject(res.ID()),
		variant.NewInt(7),
		variant.NewObject(9999),
	)

	nodes := c.FilterByNative(arr, "Node")
	require.Equal(t, 2, nodes.Size())
	assert.Equal(t, sprite.ID(), nodes.Get(0).ObjectID())
	assert.Equal(t, node.ID(), nodes.Get(1).ObjectID())

	scripted := c.FilterByScripted(arr, "PlayerSprite")
	require.Equal(t, 1, scripted.Size())
	assert.Equal(t, sprite.ID(), scripted.Get(0).ObjectID())
}

func TestConcurrentDisposeRebind(t *testing.T) {
	c, objects, handles, _ := newBridge(t)
	obj := objects.NewObject("Sprite")

	for i := 0; i < 200; i++ {
		prior, err := c.CreateOrRebind(obj, c.BindingHandle(obj))
		require.NoError(t, err)

		var g errgroup.Group
		g.Go(func() error {
			c.ObjectDisposed(obj)
			return nil
		})
		g.Go(func() error {
			// Losing the race to the disposal above trips the stale guard;
			// that fatal response is the contract, so the loser just stops.
			defer func() { _ = recover() }()
			_, _ = c.CreateOrRebind(obj, prior)
			return nil
		})
		require.NoError(t, g.Wait())

		b, ok := c.Registry().Lookup(obj.ID())
		require.True(t, ok)
		if b.Inited {
			assert.False(t, handles.IsReleased(b.Handle), "initialized record never holds a released handle")
			assert.Equal(t, 1, handles.Count(), "never two live strong handles for one record")
			c.ObjectDisposed(obj)
		}
		assert.Equal(t, 0, handles.Count())
	}
}
