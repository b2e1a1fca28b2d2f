package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/scriptbridge/internal/bridge"
	"github.com/vk/scriptbridge/internal/callable"
	"github.com/vk/scriptbridge/internal/classdb"
	"github.com/vk/scriptbridge/internal/cli"
	"github.com/vk/scriptbridge/internal/ctxlog"
	"github.com/vk/scriptbridge/internal/handle"
	"github.com/vk/scriptbridge/internal/interop"
	"github.com/vk/scriptbridge/internal/object"
	"github.com/vk/scriptbridge/internal/variant"
)

// main is the entrypoint for the scriptbridge harness.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) error {
	config, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := newLogger(config)
	slog.SetDefault(logger)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	classes, err := loadClasses(ctx, config.ManifestsPath)
	if err != nil {
		return err
	}

	handles := handle.NewTable()
	objects := object.NewDB()
	coordinator := bridge.NewCoordinator(ctx, objects, classes, handles, &demoRuntime{})
	dispatcher := callable.NewDispatcher(&demoInvoker{})
	awaiters := callable.NewAwaiterTable(handles, func(_ handle.Handle, args []variant.Variant, canceled bool) {
		logger.Info("Continuation resumed.", "args", variant.Stringify(args...), "canceled", canceled)
	})
	table := interop.NewTable(interop.Deps{
		Coordinator: coordinator,
		Dispatcher:  dispatcher,
		Awaiters:    awaiters,
	})

	if config.DumpTable {
		for _, name := range table.Names() {
			fmt.Fprintln(outW, name)
		}
		return nil
	}

	return smoke(ctx, outW, coordinator, dispatcher, awaiters, objects, handles)
}

func newLogger(config *cli.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: config.Level()}
	if config.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// loadClasses loads the user's manifests and fills in the demo classes the
// smoke scenario relies on.
func loadClasses(ctx context.Context, path string) (*classdb.DB, error) {
	db := classdb.New()
	if path != "" {
		loaded, err := classdb.LoadDir(ctx, path)
		if err != nil {
			return nil, err
		}
		db = loaded
	}
	builtins := []*classdb.ClassDef{
		{Name: "Object"},
		{Name: "Node", Extends: "Object"},
		{Name: "RefCounted", Extends: "Object", RefCounted: true},
		{Name: "Resource", Extends: "RefCounted"},
	}
	for _, def := range builtins {
		if db.Lookup(def.Name) == nil {
			db.Register(def)
		}
	}
	return db, nil
}

// smoke runs the built-in end-to-end scenario: instantiate, tie, exchange
// values, await a signal, dispose, and prove nothing leaked.
func smoke(ctx context.Context, outW io.Writer, coordinator *bridge.Coordinator, dispatcher *callable.Dispatcher, awaiters *callable.AwaiterTable, objects *object.DB, handles *handle.Table) error {
	obj, h, err := coordinator.NewScriptResource("Resource", "Resource")
	if err != nil {
		return err
	}
	fmt.Fprintf(outW, "tied %s to %s\n", obj, h)

	v := variant.NewDictionary(variant.NewDictionaryOf(
		variant.NewString("speed"), variant.NewFloat(1.5),
		variant.NewString("frames"), variant.NewPackedInt32Array([]int32{1, 2, 3}),
	))
	data, err := variant.EncodeBytes(v, false)
	if err != nil {
		return err
	}
	back := variant.DecodeBytes(data, false)
	fmt.Fprintf(outW, "round-trip %s -> %d bytes -> equal=%v\n", variant.WriteString(v), len(data), back.Equals(v))

	continuation := handles.Alloc("continuation", handle.Strong)
	id, err := awaiters.Connect(obj, "changed", continuation)
	if err != nil {
		return err
	}
	obj.EmitSignal("changed", variant.NewInt(42))
	fmt.Fprintf(outW, "awaiter %d settled, pending=%d\n", id, awaiters.Pending())

	dispatcher.CallDeferred(callable.NewMethod(obj.ID(), "touch"), []variant.Variant{variant.NewBool(true)})
	dispatcher.Flush(ctx)

	rc := obj.AsRefCounted()
	rc.Unreference()
	coordinator.RefCountedDisposed(rc, false)

	fmt.Fprintf(outW, "live handles=%d bindings=%d objects=%d\n",
		handles.Count(), coordinator.Registry().Count(), objects.Count())
	return nil
}

// demoRuntime stands in for the managed runtime: wrappers are plain records.
type demoRuntime struct{}

func (demoRuntime) CreateManagedForBinding(typeName string, id variant.ObjectID) (any, error) {
	return fmt.Sprintf("wrapper:%s:%d", typeName, id), nil
}

func (demoRuntime) PreSetup(any) error { return nil }

// demoInvoker logs instead of executing; the harness has no script VM.
type demoInvoker struct{}

func (demoInvoker) Invoke(ctx context.Context, c variant.Callable, args []variant.Variant) (variant.Variant, error) {
	ctxlog.FromContext(ctx).Info("Invoked callable.", "kind", c.Kind.String(), "name", c.Name, "args", len(args))
	return variant.Nil, nil
}
