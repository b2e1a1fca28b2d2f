package variant

import (
	"fmt"
	"sync/atomic"
)

// live counts constructed-but-not-destroyed storage slots. Construct and
// destroy must pair exactly once per slot on every path, so a net drift
// here is a leak (or a double destroy caught earlier by the panic).
var live atomic.Int64

// LiveCount returns the number of currently constructed storage slots.
func LiveCount() int64 { return live.Load() }

// Storage is a caller-owned slot for a marshalled value. The native side
// constructs into it in place; the caller destroys it exactly once. There
// is no automatic cleanup and no partial construction: the slot is either
// fully constructed or uninitialized.
type Storage struct {
	v           Variant
	constructed bool
}

// NewCopyInto copy-constructs v into dst. dst must be uninitialized.
func NewCopyInto(dst *Storage, v Variant) {
	if dst == nil {
		panic("variant: NewCopyInto into nil storage")
	}
	if dst.constructed {
		panic("variant: construct into already constructed storage")
	}
	dst.v = v
	dst.constructed = true
	live.Add(1)
}

// NewDefaultInto default-constructs a value of kind k into dst.
func NewDefaultInto(dst *Storage, k Kind) {
	NewCopyInto(dst, NewDefault(k))
}

// Destroy tears down the slot. Destroying twice, or destroying an
// unconstructed slot, is a lifetime bug and panics.
func (s *Storage) Destroy() {
	if !s.constructed {
		panic("variant: destroy of unconstructed storage")
	}
	s.constructed = false
	s.v = Variant{}
	live.Add(-1)
}

// Value returns the constructed value.
func (s *Storage) Value() Variant {
	if !s.constructed {
		panic("variant: read of unconstructed storage")
	}
	return s.v
}

// IsConstructed reports whether the slot currently holds a value.
func (s *Storage) IsConstructed() bool { return s.constructed }

func (s *Storage) String() string {
	if !s.constructed {
		return "storage(uninitialized)"
	}
	return fmt.Sprintf("storage(%s)", s.v.kind)
}
