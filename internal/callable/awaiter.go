package callable

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vk/scriptbridge/internal/handle"
	"github.com/vk/scriptbridge/internal/object"
	"github.com/vk/scriptbridge/internal/variant"
)

// ErrBadAwaiter is returned for a Connect with no source or no continuation.
var ErrBadAwaiter = errors.New("bad awaiter")

// CorrelationID identifies a pending awaiter across the boundary.
type CorrelationID uint64

// Completer resumes (or abandons, when canceled) a managed continuation.
// It runs before the continuation handle is released, so the target is
// still resolvable.
type Completer func(continuation handle.Handle, args []variant.Variant, canceled bool)

type awaiter struct {
	source       *object.Object
	signal       string
	connID       uint64
	continuation handle.Handle
}

// AwaiterTable tracks one-shot signal continuations. Each entry completes
// exactly once, by signal fire or by cancellation, whichever wins; the loser
// finds the entry gone and does nothing. The continuation handle is
// released exactly once, after the completer runs.
type AwaiterTable struct {
	handles  *handle.Table
	complete Completer

	mu      sync.Mutex
	nextID  CorrelationID
	pending map[CorrelationID]*awaiter
}

// NewAwaiterTable creates a table resuming continuations through complete.
func NewAwaiterTable(handles *handle.Table, complete Completer) *AwaiterTable {
	return &AwaiterTable{
		handles:  handles,
		complete: complete,
		pending:  make(map[CorrelationID]*awaiter),
	}
}

// Connect registers a continuation for the next emission of the source's
// signal. The table takes ownership of the continuation handle.
func (at *AwaiterTable) Connect(source *object.Object, signal string, continuation handle.Handle) (CorrelationID, error) {
	if source == nil {
		return 0, fmt.Errorf("awaiter: nil source: %w", ErrBadAwaiter)
	}
	if !continuation.IsValid() {
		return 0, fmt.Errorf("awaiter: invalid continuation handle: %w", ErrBadAwaiter)
	}

	at.mu.Lock()
	defer at.mu.Unlock()

	at.nextID++
	id := at.nextID
	a := &awaiter{source: source, signal: signal, continuation: continuation}
	at.pending[id] = a
	// Registering the connection under the table lock is safe: EmitSignal
	// runs handlers outside the object lock, so the handler's reentry into
	// the table cannot deadlock.
	a.connID = source.Connect(signal, func(args []variant.Variant) {
		at.Complete(id, args)
	})
	return id, nil
}

// Complete resumes the continuation with the signal's arguments. Unknown or
// already-settled ids are a no-op.
func (at *AwaiterTable) Complete(id CorrelationID, args []variant.Variant) {
	at.settle(id, args, false)
}

// Cancel abandons a pending awaiter without resuming it. Idempotent.
func (at *AwaiterTable) Cancel(id CorrelationID) {
	at.settle(id, nil, true)
}

func (at *AwaiterTable) settle(id CorrelationID, args []variant.Variant, canceled bool) {
	at.mu.Lock()
	a, ok := at.pending[id]
	if ok {
		delete(at.pending, id)
	}
	at.mu.Unlock()
	if !ok {
		return
	}

	a.source.Disconnect(a.signal, a.connID)
	if at.complete != nil {
		at.complete(a.continuation, args, canceled)
	}
	at.handles.Release(a.continuation)
}

// Pending returns the number of unsettled awaiters.
func (at *AwaiterTable) Pending() int {
	at.mu.Lock()
	defer at.mu.Unlock()
	return len(at.pending)
}
