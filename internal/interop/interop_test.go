package interop

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/scriptbridge/internal/bridge"
	"github.com/vk/scriptbridge/internal/callable"
	"github.com/vk/scriptbridge/internal/classdb"
	"github.com/vk/scriptbridge/internal/handle"
	"github.com/vk/scriptbridge/internal/object"
	"github.com/vk/scriptbridge/internal/variant"
)

type nopRuntime struct{}

func (nopRuntime) CreateManagedForBinding(typeName string, id variant.ObjectID) (any, error) {
	return typeName, nil
}

func (nopRuntime) PreSetup(any) error { return nil }

type nopInvoker struct{}

func (nopInvoker) Invoke(context.Context, variant.Callable, []variant.Variant) (variant.Variant, error) {
	return variant.Nil, nil
}

func newTable(t *testing.T) *Table {
	t.Helper()
	ctx := context.Background()
	handles := handle.NewTable()
	coord := bridge.NewCoordinator(ctx, object.NewDB(), classdb.New(), handles, nopRuntime{})
	return NewTable(Deps{
		Coordinator: coord,
		Dispatcher:  callable.NewDispatcher(nopInvoker{}),
		Awaiters:    callable.NewAwaiterTable(handles, nil),
	})
}

// The managed side binds by name at load time; renaming or dropping an
// entry point is a breaking change and must show up here.
func TestEntryPointNames(t *testing.T) {
	want := []string{
		"array_filter_native",
		"array_filter_scripted",
		"awaiter_cancel",
		"awaiter_complete",
		"awaiter_connect",
		"binding_handle",
		"bytes2var",
		"call_deferred",
		"callable_marshal_data",
		"connect_event_signal",
		"create_or_rebind",
		"flush_deferred",
		"new_script_resource",
		"object_disposed",
		"refcounted_disposed",
		"script_instance_handle",
		"str2var",
		"tie_managed_with_presetup",
		"tie_native_managed",
		"tie_user_managed",
		"var2bytes",
		"var2str",
		"variant_as_bool",
		"variant_as_float",
		"variant_as_int",
		"variant_as_string",
		"variant_convert",
		"variant_destroy",
		"variant_duplicate",
		"variant_equals",
		"variant_hash",
		"variant_new_copy",
		"variant_new_default",
		"variant_stringify",
		"weakref",
	}

	table := newTable(t)
	if diff := cmp.Diff(want, table.Names()); diff != "" {
		t.Fatalf("entry-point names changed (-want +got):\n%s", diff)
	}
}

func TestLookup(t *testing.T) {
	table := newTable(t)

	fn, ok := table.Lookup("variant_as_int")
	require.True(t, ok)
	asInt, ok := fn.(func(variant.Variant) int64)
	require.True(t, ok)
	assert.Equal(t, int64(3), asInt(variant.NewFloat(3.9)))

	_, ok = table.Lookup("no_such_entry")
	assert.False(t, ok)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	table := newTable(t)
	assert.Panics(t, func() { table.register("var2str", variant.WriteString) })
	assert.Panics(t, func() { table.register("brand_new", nil) })
}
