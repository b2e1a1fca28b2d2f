// Package callable unifies the managed-facing callable variants behind one
// native abstraction: delegate-backed calls, one-shot signal-await
// continuations, persistent event-dispatch adapters, and plain bound
// methods. Dispatch is by explicit tag; the closed set is rejected at the
// edges, not probed by comparator identity.
package callable

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/scriptbridge/internal/ctxlog"
	"github.com/vk/scriptbridge/internal/handle"
	"github.com/vk/scriptbridge/internal/variant"
)

var (
	// ErrUnsupported marks a callable outside the closed variant set.
	ErrUnsupported = errors.New("unsupported callable")

	// ErrCallFailed wraps invocation failures surfaced to scripts.
	ErrCallFailed = errors.New("call failed")
)

// Invoker executes callables. The managed runtime implements delegate
// dispatch; the native engine implements method dispatch.
type Invoker interface {
	Invoke(ctx context.Context, c variant.Callable, args []variant.Variant) (variant.Variant, error)
}

// NewDelegate wraps a managed function handle as a callable value.
func NewDelegate(h handle.Handle) variant.Callable {
	return variant.Callable{Kind: variant.CallableDelegate, Delegate: h}
}

// NewSignalAwaiter builds the one-shot continuation callable for a signal.
func NewSignalAwaiter(target variant.ObjectID, signal string) variant.Callable {
	return variant.Callable{Kind: variant.CallableSignalAwaiter, Target: target, Name: signal}
}

// NewEventSignal builds the persistent event adapter callable for a signal.
func NewEventSignal(target variant.ObjectID, signal string) variant.Callable {
	return variant.Callable{Kind: variant.CallableEventSignal, Target: target, Name: signal}
}

// NewMethod binds a native object's method by name.
func NewMethod(target variant.ObjectID, method string) variant.Callable {
	return variant.Callable{Kind: variant.CallableMethod, Target: target, Name: method}
}

// MarshalData is the payload a callable exposes for crossing the boundary.
// Exactly one of the delegate handle or the target/name pair is meaningful,
// selected by Kind.
type MarshalData struct {
	Kind     variant.CallableKind
	Delegate handle.Handle
	Target   variant.ObjectID
	Name     string
}

// ExtractMarshalData dispatches on the callable's tag and returns its
// payload. Anything outside the closed set is unsupported, never a guess.
func ExtractMarshalData(c variant.Callable) (MarshalData, error) {
	switch c.Kind {
	case variant.CallableDelegate:
		return MarshalData{Kind: c.Kind, Delegate: c.Delegate}, nil
	case variant.CallableSignalAwaiter, variant.CallableEventSignal, variant.CallableMethod:
		return MarshalData{Kind: c.Kind, Target: c.Target, Name: c.Name}, nil
	default:
		return MarshalData{}, fmt.Errorf("callable kind %s: %w", c.Kind, ErrUnsupported)
	}
}

// Invoke executes the callable synchronously through inv.
func Invoke(ctx context.Context, inv Invoker, c variant.Callable, args []variant.Variant) (variant.Variant, error) {
	if !c.IsValid() {
		return variant.Nil, fmt.Errorf("invoke invalid callable: %w", ErrCallFailed)
	}
	ret, err := inv.Invoke(ctx, c, args)
	if err != nil {
		return variant.Nil, fmt.Errorf("invoke %s %q: %w", c.Kind, c.Name, errors.Join(ErrCallFailed, err))
	}
	return ret, nil
}

type deferredCall struct {
	c    variant.Callable
	args []variant.Variant
}

// Dispatcher queues deferred invocations for the engine loop to drain.
type Dispatcher struct {
	inv Invoker

	mu    chan struct{} // 1-slot semaphore; Flush must not hold a sync.Mutex across user code
	queue []deferredCall
}

// NewDispatcher creates a dispatcher executing through inv.
func NewDispatcher(inv Invoker) *Dispatcher {
	d := &Dispatcher{inv: inv, mu: make(chan struct{}, 1)}
	d.mu <- struct{}{}
	return d
}

// CallDeferred queues the invocation instead of executing it.
func (d *Dispatcher) CallDeferred(c variant.Callable, args []variant.Variant) {
	<-d.mu
	d.queue = append(d.queue, deferredCall{c: c, args: args})
	d.mu <- struct{}{}
}

// Flush executes every queued call in order. Calls queued during the flush
// run in the next flush. Invocation errors are logged, not propagated:
// deferred callers are long gone.
func (d *Dispatcher) Flush(ctx context.Context) {
	<-d.mu
	batch := d.queue
	d.queue = nil
	d.mu <- struct{}{}

	logger := ctxlog.FromContext(ctx)
	for _, call := range batch {
		if _, err := Invoke(ctx, d.inv, call.c, call.args); err != nil {
			logger.Warn("Deferred call failed.", "kind", call.c.Kind.String(), "name", call.c.Name, "error", err)
		}
	}
}

// Pending returns the queued call count.
func (d *Dispatcher) Pending() int {
	<-d.mu
	n := len(d.queue)
	d.mu <- struct{}{}
	return n
}
