package variant

import "fmt"

// Dictionary is the key-ordered dynamic map: iteration follows insertion
// order, matching the host container. Dictionary variants share storage;
// Duplicate detaches.
type Dictionary struct {
	entries []dictEntry
}

type dictEntry struct {
	key   Variant
	value Variant
}

// NewDictionaryOf builds a dictionary from alternating key/value pairs.
func NewDictionaryOf(pairs ...Variant) *Dictionary {
	if len(pairs)%2 != 0 {
		panic("variant: NewDictionaryOf requires key/value pairs")
	}
	d := &Dictionary{}
	for i := 0; i < len(pairs); i += 2 {
		d.Set(pairs[i], pairs[i+1])
	}
	return d
}

// Size returns the entry count.
func (d *Dictionary) Size() int { return len(d.entries) }

func (d *Dictionary) find(key Variant) int {
	for i := range d.entries {
		if d.entries[i].key.Equals(key) {
			return i
		}
	}
	return -1
}

// TryGet returns the value for key. A miss is a not-found signal, not an
// exception: the bool is the caller-visible result, the value is Nil.
func (d *Dictionary) TryGet(key Variant) (Variant, bool) {
	if i := d.find(key); i >= 0 {
		return d.entries[i].value, true
	}
	return Nil, false
}

// Get returns the value for key, or ErrNotFound on a miss. The error form
// of TryGet, for callers propagating the miss instead of branching on it.
func (d *Dictionary) Get(key Variant) (Variant, error) {
	if i := d.find(key); i >= 0 {
		return d.entries[i].value, nil
	}
	return Nil, fmt.Errorf("dictionary key %s: %w", WriteString(key), ErrNotFound)
}

// Set inserts or replaces the value for key, preserving insertion order.
func (d *Dictionary) Set(key, value Variant) {
	if i := d.find(key); i >= 0 {
		d.entries[i].value = value
		return
	}
	d.entries = append(d.entries, dictEntry{key: key, value: value})
}

// Contains reports whether key is present.
func (d *Dictionary) Contains(key Variant) bool { return d.find(key) >= 0 }

// Remove deletes key and reports whether it was present.
func (d *Dictionary) Remove(key Variant) bool {
	i := d.find(key)
	if i < 0 {
		return false
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	return true
}

// Clear removes all entries.
func (d *Dictionary) Clear() { d.entries = nil }

// Keys returns the keys in insertion order.
func (d *Dictionary) Keys() *Array {
	out := &Array{elems: make([]Variant, len(d.entries))}
	for i, e := range d.entries {
		out.elems[i] = e.key
	}
	return out
}

// Values returns the values in insertion order.
func (d *Dictionary) Values() *Array {
	out := &Array{elems: make([]Variant, len(d.entries))}
	for i, e := range d.entries {
		out.elems[i] = e.value
	}
	return out
}

// KeyValueAt returns the pair at position i in insertion order.
func (d *Dictionary) KeyValueAt(i int) (key, value Variant) {
	e := d.entries[i]
	return e.key, e.value
}

// Duplicate copies the dictionary; deep also duplicates nested containers.
func (d *Dictionary) Duplicate(deep bool) *Dictionary {
	out := &Dictionary{entries: make([]dictEntry, len(d.entries))}
	for i, e := range d.entries {
		if deep {
			out.entries[i] = dictEntry{key: e.key.Duplicate(true), value: e.value.Duplicate(true)}
		} else {
			out.entries[i] = e
		}
	}
	return out
}

// Equals compares entry-wise, order-sensitively, by value semantics.
func (d *Dictionary) Equals(o *Dictionary) bool {
	if d == o {
		return true
	}
	if len(d.entries) != len(o.entries) {
		return false
	}
	for i := range d.entries {
		if !d.entries[i].key.Equals(o.entries[i].key) ||
			!d.entries[i].value.Equals(o.entries[i].value) {
			return false
		}
	}
	return true
}
