package bridge

import (
	"github.com/vk/scriptbridge/internal/object"
	"github.com/vk/scriptbridge/internal/variant"
)

// WeakRef observes a native object without keeping it alive. GetRef goes
// through the instance database on every call, so a freed target reads as
// Nil instead of a dangling identity.
type WeakRef struct {
	db *object.DB
	id variant.ObjectID
}

// WeakRef builds a weak reference to the object. Ref-counted targets do not
// gain a reference.
func (c *Coordinator) WeakRef(obj *object.Object) *WeakRef {
	return &WeakRef{db: c.objects, id: obj.ID()}
}

// GetRef returns the target as an object variant, or Nil once the target is
// destroyed.
func (w *WeakRef) GetRef() variant.Variant {
	if w.db.Get(w.id) == nil {
		return variant.Nil
	}
	return variant.NewObject(w.id)
}
