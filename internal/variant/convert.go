package variant

import (
	"fmt"
	"strconv"
	"strings"
)

// Coercions follow the host value system's rules; scripts depend on the
// exact behavior (truncation toward zero, text formatting), so these are
// the contract surface, not a convenience layer.

// AsBool booleanizes the value: zero/empty is false, anything else true.
func (v Variant) AsBool() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.data.(bool)
	case KindInt:
		return v.data.(int64) != 0
	case KindFloat:
		return v.data.(float64) != 0
	case KindString, KindStringName, KindNodePath:
		return v.data.(string) != ""
	case KindVector2:
		return v.data.(Vector2) != Vector2{}
	case KindVector3:
		return v.data.(Vector3) != Vector3{}
	case KindRID:
		return v.data.(RID) != 0
	case KindObject:
		return v.data.(ObjectID) != 0
	case KindArray:
		return v.Array().Size() != 0
	case KindDictionary:
		return v.Dictionary().Size() != 0
	case KindCallable:
		return v.Callable().IsValid()
	case KindSignal:
		return v.Signal() != Signal{}
	default:
		return packedLen(v) != 0
	}
}

// AsInt coerces to an integer. Floats truncate toward zero; strings parse
// leniently and fall back to 0, matching the host's to_int.
func (v Variant) AsInt() int64 {
	switch v.kind {
	case KindBool:
		if v.data.(bool) {
			return 1
		}
		return 0
	case KindInt:
		return v.data.(int64)
	case KindFloat:
		return int64(v.data.(float64))
	case KindString, KindStringName:
		return parseIntLenient(v.data.(string))
	default:
		return 0
	}
}

// AsFloat coerces to a float.
func (v Variant) AsFloat() float64 {
	switch v.kind {
	case KindBool:
		if v.data.(bool) {
			return 1
		}
		return 0
	case KindInt:
		return float64(v.data.(int64))
	case KindFloat:
		return v.data.(float64)
	case KindString, KindStringName:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v.data.(string)), 64)
		return f
	default:
		return 0
	}
}

// AsString formats the value with the host's text rules. Identical to the
// text codec's rendering; see stringify.go.
func (v Variant) AsString() string {
	return v.writeString()
}

// AsStringName returns the value as a string-name variant payload.
func (v Variant) AsStringName() string {
	switch v.kind {
	case KindString, KindStringName, KindNodePath:
		return v.data.(string)
	default:
		return v.AsString()
	}
}

// AsVector2 returns the vector or the zero vector for foreign kinds.
func (v Variant) AsVector2() Vector2 {
	if v.kind == KindVector2 {
		return v.data.(Vector2)
	}
	return Vector2{}
}

// AsVector3 returns the vector or the zero vector for foreign kinds.
func (v Variant) AsVector3() Vector3 {
	if v.kind == KindVector3 {
		return v.data.(Vector3)
	}
	return Vector3{}
}

// AsArray converts to the dynamic array: packed arrays promote element by
// element, everything else yields an empty array.
func (v Variant) AsArray() *Array {
	switch v.kind {
	case KindArray:
		return v.Array()
	case KindPackedByteArray:
		return promote(v.data.([]byte), func(b byte) Variant { return NewInt(int64(b)) })
	case KindPackedInt32Array:
		return promote(v.data.([]int32), func(i int32) Variant { return NewInt(int64(i)) })
	case KindPackedInt64Array:
		return promote(v.data.([]int64), NewInt)
	case KindPackedFloat32Array:
		return promote(v.data.([]float32), func(f float32) Variant { return NewFloat(float64(f)) })
	case KindPackedFloat64Array:
		return promote(v.data.([]float64), NewFloat)
	case KindPackedStringArray:
		return promote(v.data.([]string), NewString)
	case KindPackedVector2Array:
		return promote(v.data.([]Vector2), NewVector2)
	case KindPackedVector3Array:
		return promote(v.data.([]Vector3), NewVector3)
	default:
		return &Array{}
	}
}

func promote[T any](s []T, f func(T) Variant) *Array {
	out := &Array{elems: make([]Variant, len(s))}
	for i, e := range s {
		out.elems[i] = f(e)
	}
	return out
}

// Convert is the checked conversion entry point: it returns the coerced
// value, or the target kind's default plus ErrTypeMismatch when the source
// cannot be represented.
func Convert(v Variant, to Kind) (Variant, error) {
	if v.kind == to {
		return v, nil
	}
	switch to {
	case KindNil:
		return Nil, nil
	case KindBool:
		return NewBool(v.AsBool()), nil
	case KindInt:
		if !isNumericish(v.kind) {
			return NewDefault(to), convertErr(v.kind, to)
		}
		return NewInt(v.AsInt()), nil
	case KindFloat:
		if !isNumericish(v.kind) {
			return NewDefault(to), convertErr(v.kind, to)
		}
		return NewFloat(v.AsFloat()), nil
	case KindString:
		return NewString(v.AsString()), nil
	case KindStringName:
		return NewStringName(v.AsStringName()), nil
	case KindNodePath:
		switch v.kind {
		case KindString, KindStringName:
			return NewNodePath(v.data.(string)), nil
		}
		return NewDefault(to), convertErr(v.kind, to)
	case KindArray:
		switch v.kind {
		case KindPackedByteArray, KindPackedInt32Array, KindPackedInt64Array,
			KindPackedFloat32Array, KindPackedFloat64Array, KindPackedStringArray,
			KindPackedVector2Array, KindPackedVector3Array:
			return NewArray(v.AsArray()), nil
		}
		return NewDefault(to), convertErr(v.kind, to)
	case KindPackedByteArray:
		return demote(v, to, func(e Variant) byte { return byte(e.AsInt()) }, NewPackedByteArray)
	case KindPackedInt32Array:
		return demote(v, to, func(e Variant) int32 { return int32(e.AsInt()) }, NewPackedInt32Array)
	case KindPackedInt64Array:
		return demote(v, to, func(e Variant) int64 { return e.AsInt() }, NewPackedInt64Array)
	case KindPackedFloat32Array:
		return demote(v, to, func(e Variant) float32 { return float32(e.AsFloat()) }, NewPackedFloat32Array)
	case KindPackedFloat64Array:
		return demote(v, to, func(e Variant) float64 { return e.AsFloat() }, NewPackedFloat64Array)
	case KindPackedStringArray:
		return demote(v, to, func(e Variant) string { return e.AsString() }, NewPackedStringArray)
	case KindPackedVector2Array:
		return demote(v, to, func(e Variant) Vector2 { return e.AsVector2() }, NewPackedVector2Array)
	case KindPackedVector3Array:
		return demote(v, to, func(e Variant) Vector3 { return e.AsVector3() }, NewPackedVector3Array)
	default:
		return NewDefault(to), convertErr(v.kind, to)
	}
}

func demote[T any](v Variant, to Kind, f func(Variant) T, wrap func([]T) Variant) (Variant, error) {
	if v.kind != KindArray {
		return NewDefault(to), convertErr(v.kind, to)
	}
	a := v.Array()
	out := make([]T, a.Size())
	for i := range out {
		out[i] = f(a.Get(i))
	}
	return wrap(out), nil
}

func isNumericish(k Kind) bool {
	switch k {
	case KindNil, KindBool, KindInt, KindFloat, KindString, KindStringName:
		return true
	}
	return false
}

func convertErr(from, to Kind) error {
	return fmt.Errorf("cannot convert %s to %s: %w", from, to, ErrTypeMismatch)
}

func parseIntLenient(s string) int64 {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	// Salvage a leading integer prefix, the way the host's to_int does.
	end := 0
	for end < len(s) && (s[end] == '-' && end == 0 || s[end] >= '0' && s[end] <= '9') {
		end++
	}
	if end > 0 {
		if i, err := strconv.ParseInt(s[:end], 10, 64); err == nil {
			return i
		}
	}
	return 0
}

func packedLen(v Variant) int {
	switch v.kind {
	case KindPackedByteArray:
		return len(v.data.([]byte))
	case KindPackedInt32Array:
		return len(v.data.([]int32))
	case KindPackedInt64Array:
		return len(v.data.([]int64))
	case KindPackedFloat32Array:
		return len(v.data.([]float32))
	case KindPackedFloat64Array:
		return len(v.data.([]float64))
	case KindPackedStringArray:
		return len(v.data.([]string))
	case KindPackedVector2Array:
		return len(v.data.([]Vector2))
	case KindPackedVector3Array:
		return len(v.data.([]Vector3))
	default:
		return 0
	}
}
