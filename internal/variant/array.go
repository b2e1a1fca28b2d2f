package variant

// Array is the ordered dynamic container. Array variants share the
// underlying storage; Duplicate detaches.
type Array struct {
	elems []Variant
}

// NewArrayOf builds an array from the given elements.
func NewArrayOf(elems ...Variant) *Array {
	return &Array{elems: elems}
}

// Size returns the element count.
func (a *Array) Size() int { return len(a.elems) }

// Get returns the element at index i. Out-of-range access is a caller bug.
func (a *Array) Get(i int) Variant { return a.elems[i] }

// Set replaces the element at index i.
func (a *Array) Set(i int, v Variant) { a.elems[i] = v }

// Add appends an element and returns the new size.
func (a *Array) Add(v Variant) int {
	a.elems = append(a.elems, v)
	return len(a.elems)
}

// Insert places v at index i, shifting later elements.
func (a *Array) Insert(i int, v Variant) {
	a.elems = append(a.elems, Variant{})
	copy(a.elems[i+1:], a.elems[i:])
	a.elems[i] = v
}

// RemoveAt deletes the element at index i.
func (a *Array) RemoveAt(i int) {
	a.elems = append(a.elems[:i], a.elems[i+1:]...)
}

// IndexOf returns the index of the first element equal to v, or -1.
func (a *Array) IndexOf(v Variant) int {
	for i, e := range a.elems {
		if e.Equals(v) {
			return i
		}
	}
	return -1
}

// Resize grows (with Nil) or shrinks the array to n elements.
func (a *Array) Resize(n int) {
	if n < 0 {
		n = 0
	}
	for len(a.elems) < n {
		a.elems = append(a.elems, Variant{})
	}
	a.elems = a.elems[:n]
}

// Duplicate copies the array; deep also duplicates nested containers.
func (a *Array) Duplicate(deep bool) *Array {
	out := &Array{elems: make([]Variant, len(a.elems))}
	for i, e := range a.elems {
		if deep {
			out.elems[i] = e.Duplicate(true)
		} else {
			out.elems[i] = e
		}
	}
	return out
}

// Equals compares element-wise by value semantics.
func (a *Array) Equals(o *Array) bool {
	if a == o {
		return true
	}
	if len(a.elems) != len(o.elems) {
		return false
	}
	for i := range a.elems {
		if !a.elems[i].Equals(o.elems[i]) {
			return false
		}
	}
	return true
}
