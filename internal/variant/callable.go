package variant

import "github.com/vk/scriptbridge/internal/handle"

// CallableKind discriminates the closed set of callable variants. An
// explicit tag replaces the host glue's comparator-function-pointer
// dispatch, which could collide for independent but identical comparators.
type CallableKind uint8

const (
	// CallableInvalid is the zero, unbound callable.
	CallableInvalid CallableKind = iota
	// CallableDelegate wraps a managed function reference through a handle.
	CallableDelegate
	// CallableSignalAwaiter is a one-shot continuation waiting on a native
	// signal.
	CallableSignalAwaiter
	// CallableEventSignal is a persistent event-dispatch adapter.
	CallableEventSignal
	// CallableMethod binds a native object's method by name.
	CallableMethod
)

func (k CallableKind) String() string {
	switch k {
	case CallableDelegate:
		return "Delegate"
	case CallableSignalAwaiter:
		return "SignalAwaiter"
	case CallableEventSignal:
		return "EventSignal"
	case CallableMethod:
		return "Method"
	default:
		return "Invalid"
	}
}

// Callable is the payload of a callable value. Which fields are meaningful
// depends on Kind: Delegate carries only the handle, the signal-backed
// kinds carry target + name, Method carries target + method name.
type Callable struct {
	Kind     CallableKind
	Delegate handle.Handle
	Target   ObjectID
	Name     string
}

// Equal compares two callables by variant tag and payload, never by
// identity of any wrapper.
func (c Callable) Equal(o Callable) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case CallableDelegate:
		return c.Delegate == o.Delegate
	case CallableSignalAwaiter, CallableEventSignal, CallableMethod:
		return c.Target == o.Target && c.Name == o.Name
	default:
		return true
	}
}

// IsValid reports whether the callable is bound to anything.
func (c Callable) IsValid() bool { return c.Kind != CallableInvalid }

// Signal is the payload of a signal value: a native object identity plus a
// signal name.
type Signal struct {
	Target ObjectID
	Name   string
}

// Equal compares by payload.
func (s Signal) Equal(o Signal) bool { return s == o }
