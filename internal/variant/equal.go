package variant

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// Equals compares by the host value system's equality semantics, never by
// storage identity. Int and Float compare numerically across kinds; all
// other cross-kind comparisons are false.
func (v Variant) Equals(o Variant) bool {
	if v.kind != o.kind {
		// The one sanctioned cross-kind case.
		if v.kind == KindInt && o.kind == KindFloat {
			return float64(v.data.(int64)) == o.data.(float64)
		}
		if v.kind == KindFloat && o.kind == KindInt {
			return v.data.(float64) == float64(o.data.(int64))
		}
		return false
	}

	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.data.(bool) == o.data.(bool)
	case KindInt:
		return v.data.(int64) == o.data.(int64)
	case KindFloat:
		return v.data.(float64) == o.data.(float64)
	case KindString, KindStringName, KindNodePath:
		return v.data.(string) == o.data.(string)
	case KindVector2:
		return v.data.(Vector2) == o.data.(Vector2)
	case KindVector3:
		return v.data.(Vector3) == o.data.(Vector3)
	case KindRID:
		return v.data.(RID) == o.data.(RID)
	case KindObject:
		return v.data.(ObjectID) == o.data.(ObjectID)
	case KindPackedByteArray:
		return slicesEqual(v.data.([]byte), o.data.([]byte))
	case KindPackedInt32Array:
		return slicesEqual(v.data.([]int32), o.data.([]int32))
	case KindPackedInt64Array:
		return slicesEqual(v.data.([]int64), o.data.([]int64))
	case KindPackedFloat32Array:
		return slicesEqual(v.data.([]float32), o.data.([]float32))
	case KindPackedFloat64Array:
		return slicesEqual(v.data.([]float64), o.data.([]float64))
	case KindPackedStringArray:
		return slicesEqual(v.data.([]string), o.data.([]string))
	case KindPackedVector2Array:
		return slicesEqual(v.data.([]Vector2), o.data.([]Vector2))
	case KindPackedVector3Array:
		return slicesEqual(v.data.([]Vector3), o.data.([]Vector3))
	case KindArray:
		return v.Array().Equals(o.Array())
	case KindDictionary:
		return v.Dictionary().Equals(o.Dictionary())
	case KindCallable:
		return v.Callable().Equal(o.Callable())
	case KindSignal:
		return v.Signal().Equal(o.Signal())
	default:
		return false
	}
}

func slicesEqual[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Hash returns a value hash consistent with Equals: equal values hash
// equal, including the int/float numeric case.
func (v Variant) Hash() uint32 {
	h := fnv.New32a()
	v.hashInto(h.Write)
	return h.Sum32()
}

func (v Variant) hashInto(write func([]byte) (int, error)) {
	var buf [8]byte

	tag := func(k Kind) {
		buf[0] = byte(k)
		write(buf[:1])
	}
	u64 := func(u uint64) {
		binary.LittleEndian.PutUint64(buf[:], u)
		write(buf[:8])
	}
	f64 := func(f float64) { u64(math.Float64bits(f)) }
	str := func(s string) { write([]byte(s)) }

	switch v.kind {
	case KindNil:
		tag(KindNil)
	case KindBool:
		tag(KindBool)
		if v.data.(bool) {
			u64(1)
		} else {
			u64(0)
		}
	case KindInt:
		// Ints hash as their float value so that 1 and 1.0 collide, the
		// same way they compare equal.
		tag(KindFloat)
		f64(float64(v.data.(int64)))
	case KindFloat:
		tag(KindFloat)
		f64(v.data.(float64))
	case KindString, KindStringName, KindNodePath:
		tag(v.kind)
		str(v.data.(string))
	case KindVector2:
		tag(KindVector2)
		vec := v.data.(Vector2)
		f64(vec.X)
		f64(vec.Y)
	case KindVector3:
		tag(KindVector3)
		vec := v.data.(Vector3)
		f64(vec.X)
		f64(vec.Y)
		f64(vec.Z)
	case KindRID:
		tag(KindRID)
		u64(uint64(v.data.(RID)))
	case KindObject:
		tag(KindObject)
		u64(uint64(v.data.(ObjectID)))
	case KindPackedByteArray:
		tag(v.kind)
		write(v.data.([]byte))
	case KindPackedInt32Array:
		tag(v.kind)
		for _, e := range v.data.([]int32) {
			u64(uint64(e))
		}
	case KindPackedInt64Array:
		tag(v.kind)
		for _, e := range v.data.([]int64) {
			u64(uint64(e))
		}
	case KindPackedFloat32Array:
		tag(v.kind)
		for _, e := range v.data.([]float32) {
			f64(float64(e))
		}
	case KindPackedFloat64Array:
		tag(v.kind)
		for _, e := range v.data.([]float64) {
			f64(e)
		}
	case KindPackedStringArray:
		tag(v.kind)
		for _, e := range v.data.([]string) {
			str(e)
			write([]byte{0})
		}
	case KindPackedVector2Array:
		tag(v.kind)
		for _, e := range v.data.([]Vector2) {
			f64(e.X)
			f64(e.Y)
		}
	case KindPackedVector3Array:
		tag(v.kind)
		for _, e := range v.data.([]Vector3) {
			f64(e.X)
			f64(e.Y)
			f64(e.Z)
		}
	case KindArray:
		tag(KindArray)
		for _, e := range v.Array().elems {
			e.hashInto(write)
		}
	case KindDictionary:
		tag(KindDictionary)
		for _, e := range v.Dictionary().entries {
			e.key.hashInto(write)
			e.value.hashInto(write)
		}
	case KindCallable:
		tag(KindCallable)
		c := v.Callable()
		u64(uint64(c.Kind))
		u64(uint64(c.Target))
		str(c.Name)
	case KindSignal:
		tag(KindSignal)
		s := v.Signal()
		u64(uint64(s.Target))
		str(s.Name)
	}
}
