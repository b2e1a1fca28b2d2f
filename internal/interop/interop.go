// Package interop exposes the bridge as a flat table of named entry points.
// The managed side binds to entries by name at load time, so the name set is
// a stable contract; a test pins it.
package interop

import (
	"fmt"
	"sort"

	"github.com/vk/scriptbridge/internal/bridge"
	"github.com/vk/scriptbridge/internal/callable"
	"github.com/vk/scriptbridge/internal/variant"
)

// Table maps entry-point names to their functions. Entries are registered
// once at construction; the table is read-only afterwards.
type Table struct {
	entries map[string]any
}

// Deps are the bridge components the table fronts.
type Deps struct {
	Coordinator *bridge.Coordinator
	Dispatcher  *callable.Dispatcher
	Awaiters    *callable.AwaiterTable
}

// NewTable builds the full entry-point table.
func NewTable(d Deps) *Table {
	t := &Table{entries: make(map[string]any)}

	c := d.Coordinator
	t.register("object_disposed", c.ObjectDisposed)
	t.register("refcounted_disposed", c.RefCountedDisposed)
	t.register("create_or_rebind", c.CreateOrRebind)
	t.register("tie_native_managed", c.TieNativeManaged)
	t.register("tie_user_managed", c.TieUserManaged)
	t.register("tie_managed_with_presetup", c.TieManagedWithPreSetup)
	t.register("script_instance_handle", c.ScriptInstanceHandle)
	t.register("binding_handle", c.BindingHandle)
	t.register("connect_event_signal", c.ConnectEventSignal)
	t.register("weakref", c.WeakRef)
	t.register("new_script_resource", c.NewScriptResource)
	t.register("array_filter_native", c.FilterByNative)
	t.register("array_filter_scripted", c.FilterByScripted)

	t.register("callable_marshal_data", callable.ExtractMarshalData)
	t.register("call_deferred", d.Dispatcher.CallDeferred)
	t.register("flush_deferred", d.Dispatcher.Flush)
	t.register("awaiter_connect", d.Awaiters.Connect)
	t.register("awaiter_complete", d.Awaiters.Complete)
	t.register("awaiter_cancel", d.Awaiters.Cancel)

	t.register("variant_new_copy", variant.NewCopyInto)
	t.register("variant_new_default", variant.NewDefaultInto)
	t.register("variant_destroy", (*variant.Storage).Destroy)
	t.register("variant_as_bool", variant.Variant.AsBool)
	t.register("variant_as_int", variant.Variant.AsInt)
	t.register("variant_as_float", variant.Variant.AsFloat)
	t.register("variant_as_string", variant.Variant.AsString)
	t.register("variant_convert", variant.Convert)
	t.register("variant_equals", variant.Variant.Equals)
	t.register("variant_hash", variant.Variant.Hash)
	t.register("variant_duplicate", variant.Variant.Duplicate)
	t.register("var2bytes", variant.EncodeBytes)
	t.register("bytes2var", variant.DecodeBytes)
	t.register("var2str", variant.WriteString)
	t.register("str2var", variant.ParseOrDiagnostic)
	t.register("variant_stringify", variant.Stringify)

	return t
}

func (t *Table) register(name string, fn any) {
	if fn == nil {
		panic(fmt.Sprintf("interop: nil entry point %q", name))
	}
	if _, ok := t.entries[name]; ok {
		panic(fmt.Sprintf("interop: duplicate entry point %q", name))
	}
	t.entries[name] = fn
}

// Lookup returns the named entry point.
func (t *Table) Lookup(name string) (any, bool) {
	fn, ok := t.entries[name]
	return fn, ok
}

// Names returns every entry-point name, sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
