// Package variant implements the value marshalling protocol of the bridge:
// a closed set of value kinds that cross the native/managed boundary by
// value, with an explicit construct-in-caller-storage / destroy contract,
// the host value system's coercion and equality rules, and stable text and
// binary codecs.
package variant

import "fmt"

// Kind discriminates the closed set of marshallable value kinds.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindVector2
	KindVector3
	KindStringName
	KindNodePath
	KindRID
	KindObject
	KindPackedByteArray
	KindPackedInt32Array
	KindPackedInt64Array
	KindPackedFloat32Array
	KindPackedFloat64Array
	KindPackedStringArray
	KindPackedVector2Array
	KindPackedVector3Array
	KindArray
	KindDictionary
	KindCallable
	KindSignal

	kindMax // keep last
)

var kindNames = [...]string{
	KindNil:                "Nil",
	KindBool:               "Bool",
	KindInt:                "Int",
	KindFloat:              "Float",
	KindString:             "String",
	KindVector2:            "Vector2",
	KindVector3:            "Vector3",
	KindStringName:         "StringName",
	KindNodePath:           "NodePath",
	KindRID:                "RID",
	KindObject:             "Object",
	KindPackedByteArray:    "PackedByteArray",
	KindPackedInt32Array:   "PackedInt32Array",
	KindPackedInt64Array:   "PackedInt64Array",
	KindPackedFloat32Array: "PackedFloat32Array",
	KindPackedFloat64Array: "PackedFloat64Array",
	KindPackedStringArray:  "PackedStringArray",
	KindPackedVector2Array: "PackedVector2Array",
	KindPackedVector3Array: "PackedVector3Array",
	KindArray:              "Array",
	KindDictionary:         "Dictionary",
	KindCallable:           "Callable",
	KindSignal:             "Signal",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// RID is an opaque resource identifier owned by the native engine.
type RID uint64

// ObjectID is the stable identity of a native object. The variant layer
// never dereferences it; resolution goes through the object database.
type ObjectID uint64

// Variant is a tagged dynamic value. The zero Variant is Nil.
//
// Container kinds (Array, Dictionary) hold shared references, matching the
// host value system: copy-constructing a variant shares the container,
// Duplicate makes a new one.
type Variant struct {
	kind Kind
	data any
}

// Nil is the nil variant.
var Nil = Variant{}

// Kind returns the value's kind tag.
func (v Variant) Kind() Kind { return v.kind }

// IsNil reports whether the variant holds no value.
func (v Variant) IsNil() bool { return v.kind == KindNil }

// Constructors. One per kind; the per-field accessor explosion of the host
// glue collapses into these plus the As* coercions.

func NewBool(b bool) Variant      { return Variant{kind: KindBool, data: b} }
func NewInt(i int64) Variant      { return Variant{kind: KindInt, data: i} }
func NewFloat(f float64) Variant  { return Variant{kind: KindFloat, data: f} }
func NewString(s string) Variant  { return Variant{kind: KindString, data: s} }
func NewVector2(v Vector2) Variant { return Variant{kind: KindVector2, data: v} }
func NewVector3(v Vector3) Variant { return Variant{kind: KindVector3, data: v} }

// NewStringName interns nothing; the host's string-name pooling is not part
// of the marshalling contract, only the distinct kind tag is.
func NewStringName(s string) Variant { return Variant{kind: KindStringName, data: s} }
func NewNodePath(s string) Variant   { return Variant{kind: KindNodePath, data: s} }
func NewRID(r RID) Variant           { return Variant{kind: KindRID, data: r} }
func NewObject(id ObjectID) Variant  { return Variant{kind: KindObject, data: id} }

func NewPackedByteArray(b []byte) Variant       { return Variant{kind: KindPackedByteArray, data: b} }
func NewPackedInt32Array(a []int32) Variant     { return Variant{kind: KindPackedInt32Array, data: a} }
func NewPackedInt64Array(a []int64) Variant     { return Variant{kind: KindPackedInt64Array, data: a} }
func NewPackedFloat32Array(a []float32) Variant { return Variant{kind: KindPackedFloat32Array, data: a} }
func NewPackedFloat64Array(a []float64) Variant { return Variant{kind: KindPackedFloat64Array, data: a} }
func NewPackedStringArray(a []string) Variant   { return Variant{kind: KindPackedStringArray, data: a} }
func NewPackedVector2Array(a []Vector2) Variant { return Variant{kind: KindPackedVector2Array, data: a} }
func NewPackedVector3Array(a []Vector3) Variant { return Variant{kind: KindPackedVector3Array, data: a} }

func NewArray(a *Array) Variant           { return Variant{kind: KindArray, data: a} }
func NewDictionary(d *Dictionary) Variant { return Variant{kind: KindDictionary, data: d} }
func NewCallable(c Callable) Variant      { return Variant{kind: KindCallable, data: c} }
func NewSignal(s Signal) Variant          { return Variant{kind: KindSignal, data: s} }

// NewDefault returns the default value of a kind, the equivalent of
// default-constructing into caller storage.
func NewDefault(k Kind) Variant {
	switch k {
	case KindNil:
		return Nil
	case KindBool:
		return NewBool(false)
	case KindInt:
		return NewInt(0)
	case KindFloat:
		return NewFloat(0)
	case KindString:
		return NewString("")
	case KindVector2:
		return NewVector2(Vector2{})
	case KindVector3:
		return NewVector3(Vector3{})
	case KindStringName:
		return NewStringName("")
	case KindNodePath:
		return NewNodePath("")
	case KindRID:
		return NewRID(0)
	case KindObject:
		return NewObject(0)
	case KindPackedByteArray:
		return NewPackedByteArray(nil)
	case KindPackedInt32Array:
		return NewPackedInt32Array(nil)
	case KindPackedInt64Array:
		return NewPackedInt64Array(nil)
	case KindPackedFloat32Array:
		return NewPackedFloat32Array(nil)
	case KindPackedFloat64Array:
		return NewPackedFloat64Array(nil)
	case KindPackedStringArray:
		return NewPackedStringArray(nil)
	case KindPackedVector2Array:
		return NewPackedVector2Array(nil)
	case KindPackedVector3Array:
		return NewPackedVector3Array(nil)
	case KindArray:
		return NewArray(&Array{})
	case KindDictionary:
		return NewDictionary(&Dictionary{})
	case KindCallable:
		return NewCallable(Callable{})
	case KindSignal:
		return NewSignal(Signal{})
	default:
		panic(fmt.Sprintf("variant: default of unknown %s", k))
	}
}

// Raw accessors. Each panics on a kind mismatch: these are for callers that
// already dispatched on Kind. Coercing access goes through the As* family.

func (v Variant) Bool() bool       { return v.expect(KindBool).(bool) }
func (v Variant) Int() int64       { return v.expect(KindInt).(int64) }
func (v Variant) Float() float64   { return v.expect(KindFloat).(float64) }
func (v Variant) Vector2() Vector2 { return v.expect(KindVector2).(Vector2) }
func (v Variant) Vector3() Vector3 { return v.expect(KindVector3).(Vector3) }
func (v Variant) RID() RID         { return v.expect(KindRID).(RID) }
func (v Variant) ObjectID() ObjectID { return v.expect(KindObject).(ObjectID) }

func (v Variant) String() string {
	switch v.kind {
	case KindString, KindStringName, KindNodePath:
		return v.data.(string)
	}
	panic(fmt.Sprintf("variant: String() on %s", v.kind))
}

func (v Variant) PackedByteArray() []byte       { return v.expect(KindPackedByteArray).([]byte) }
func (v Variant) PackedInt32Array() []int32     { return v.expect(KindPackedInt32Array).([]int32) }
func (v Variant) PackedInt64Array() []int64     { return v.expect(KindPackedInt64Array).([]int64) }
func (v Variant) PackedFloat32Array() []float32 { return v.expect(KindPackedFloat32Array).([]float32) }
func (v Variant) PackedFloat64Array() []float64 { return v.expect(KindPackedFloat64Array).([]float64) }
func (v Variant) PackedStringArray() []string   { return v.expect(KindPackedStringArray).([]string) }
func (v Variant) PackedVector2Array() []Vector2 { return v.expect(KindPackedVector2Array).([]Vector2) }
func (v Variant) PackedVector3Array() []Vector3 { return v.expect(KindPackedVector3Array).([]Vector3) }

func (v Variant) Array() *Array           { return v.expect(KindArray).(*Array) }
func (v Variant) Dictionary() *Dictionary { return v.expect(KindDictionary).(*Dictionary) }
func (v Variant) Callable() Callable      { return v.expect(KindCallable).(Callable) }
func (v Variant) Signal() Signal          { return v.expect(KindSignal).(Signal) }

func (v Variant) expect(k Kind) any {
	if v.kind != k {
		panic(fmt.Sprintf("variant: %s accessor on %s", k, v.kind))
	}
	return v.data
}

// Duplicate returns a copy of the value. Shallow duplication copies one
// container level; deep recurses into nested arrays and dictionaries.
// Packed arrays always copy their backing storage.
func (v Variant) Duplicate(deep bool) Variant {
	switch v.kind {
	case KindPackedByteArray:
		return NewPackedByteArray(cloneSlice(v.data.([]byte)))
	case KindPackedInt32Array:
		return NewPackedInt32Array(cloneSlice(v.data.([]int32)))
	case KindPackedInt64Array:
		return NewPackedInt64Array(cloneSlice(v.data.([]int64)))
	case KindPackedFloat32Array:
		return NewPackedFloat32Array(cloneSlice(v.data.([]float32)))
	case KindPackedFloat64Array:
		return NewPackedFloat64Array(cloneSlice(v.data.([]float64)))
	case KindPackedStringArray:
		return NewPackedStringArray(cloneSlice(v.data.([]string)))
	case KindPackedVector2Array:
		return NewPackedVector2Array(cloneSlice(v.data.([]Vector2)))
	case KindPackedVector3Array:
		return NewPackedVector3Array(cloneSlice(v.data.([]Vector3)))
	case KindArray:
		return NewArray(v.Array().Duplicate(deep))
	case KindDictionary:
		return NewDictionary(v.Dictionary().Duplicate(deep))
	default:
		// Scalars and opaque ids are value types already.
		return v
	}
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
