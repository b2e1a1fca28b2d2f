// Package classdb is the read-mostly class database service the bridge
// consumes by name: class hierarchy checks, method and signal lookup, and
// instantiation. It is injected into the bridge rather than reached into as
// a process-wide singleton, so embedders and tests control exactly what the
// managed side can see.
package classdb

import (
	"fmt"
	"sync"

	"github.com/vk/scriptbridge/internal/object"
	"github.com/vk/scriptbridge/internal/variant"
)

// MethodDef describes one callable method of a class.
type MethodDef struct {
	Name    string
	Args    []string
	Returns string
}

// SignalDef describes one signal a class can emit.
type SignalDef struct {
	Name string
	Args []string
}

// ClassDef is one native class: name, parent, ownership kind, members.
type ClassDef struct {
	Name       string
	Extends    string
	RefCounted bool
	Methods    map[string]*MethodDef
	Signals    map[string]*SignalDef
	Constants  map[string]variant.Variant
}

// DB holds the registered classes. Writes happen at load time; lookups are
// concurrent afterwards.
type DB struct {
	mu      sync.RWMutex
	classes map[string]*ClassDef
}

// New creates an empty class database.
func New() *DB {
	return &DB{classes: make(map[string]*ClassDef)}
}

// Register adds a class definition. Registering the same name twice is a
// wiring bug and panics, matching registry conventions elsewhere.
func (db *DB) Register(def *ClassDef) {
	if def.Name == "" {
		panic("classdb: class with empty name")
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, exists := db.classes[def.Name]; exists {
		panic(fmt.Sprintf("classdb: class %q already registered", def.Name))
	}
	if def.Methods == nil {
		def.Methods = make(map[string]*MethodDef)
	}
	if def.Signals == nil {
		def.Signals = make(map[string]*SignalDef)
	}
	if def.Constants == nil {
		def.Constants = make(map[string]variant.Variant)
	}
	db.classes[def.Name] = def
}

// Lookup returns the class definition, or nil if unknown.
func (db *DB) Lookup(name string) *ClassDef {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.classes[name]
}

// IsParentClass reports whether parent equals child or appears on child's
// inheritance chain.
func (db *DB) IsParentClass(child, parent string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for name := child; name != ""; {
		if name == parent {
			return true
		}
		def := db.classes[name]
		if def == nil {
			return false
		}
		name = def.Extends
	}
	return false
}

// IsRefCounted reports whether the class or any ancestor is ref-counted.
func (db *DB) IsRefCounted(name string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for name != "" {
		def := db.classes[name]
		if def == nil {
			return false
		}
		if def.RefCounted {
			return true
		}
		name = def.Extends
	}
	return false
}

// Method resolves a method by name along the inheritance chain.
func (db *DB) Method(class, name string) *MethodDef {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for class != "" {
		def := db.classes[class]
		if def == nil {
			return nil
		}
		if m, ok := def.Methods[name]; ok {
			return m
		}
		class = def.Extends
	}
	return nil
}

// Signal resolves a signal by name along the inheritance chain.
func (db *DB) Signal(class, name string) *SignalDef {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for class != "" {
		def := db.classes[class]
		if def == nil {
			return nil
		}
		if s, ok := def.Signals[name]; ok {
			return s
		}
		class = def.Extends
	}
	return nil
}

// Constant resolves a class constant along the inheritance chain.
func (db *DB) Constant(class, name string) (variant.Variant, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for class != "" {
		def := db.classes[class]
		if def == nil {
			return variant.Nil, false
		}
		if c, ok := def.Constants[name]; ok {
			return c, true
		}
		class = def.Extends
	}
	return variant.Nil, false
}

// Instantiate creates a native instance of the class in objDB, picking the
// ownership kind from the class hierarchy. Unknown classes fail.
func (db *DB) Instantiate(objDB *object.DB, class string) (*object.Object, error) {
	if db.Lookup(class) == nil {
		return nil, fmt.Errorf("classdb: instantiate %q: %w", class, ErrUnknownClass)
	}
	if db.IsRefCounted(class) {
		return &objDB.NewRefCounted(class).Object, nil
	}
	return objDB.NewObject(class), nil
}
