package variant

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Binary codec: the host's native encoding for variant-like values.
// Little-endian throughout; every value is a 4-byte kind tag followed by a
// kind-specific payload, with counted containers length-prefixed by a
// uint32. The layout is a persisted/transmissible format and must stay
// stable across compatible versions.
//
// Values carrying process-local identity do not encode: RID always fails,
// Object fails unless full-object mode is on (it then encodes its instance
// id), and callables/signals never encode — a delegate handle is only
// meaningful inside the process that allocated it.

// EncodeBytes serializes v. fullObjects permits encoding object references
// by instance id.
func EncodeBytes(v Variant, fullObjects bool) ([]byte, error) {
	var out []byte
	out, err := appendVariant(out, v, fullObjects)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeBytes deserializes one value. Malformed or truncated input yields a
// diagnostic String variant, matching the text decoder's recoverable
// behavior. allowObjects gates object references on the way in as
// fullObjects gates them on the way out.
func DecodeBytes(data []byte, allowObjects bool) Variant {
	v, rest, err := decodeVariant(data, allowObjects)
	if err == nil && len(rest) != 0 {
		err = fmt.Errorf("%d trailing bytes", len(rest))
	}
	if err != nil {
		return NewString(fmt.Sprintf("Not enough bytes for decoding bytes, or invalid format: %v.", err))
	}
	return v
}

func appendVariant(out []byte, v Variant, fullObjects bool) ([]byte, error) {
	out = appendU32(out, uint32(v.kind))

	switch v.kind {
	case KindNil:
		return out, nil
	case KindBool:
		if v.data.(bool) {
			return appendU32(out, 1), nil
		}
		return appendU32(out, 0), nil
	case KindInt:
		return appendU64(out, uint64(v.data.(int64))), nil
	case KindFloat:
		return appendU64(out, math.Float64bits(v.data.(float64))), nil
	case KindString, KindStringName, KindNodePath:
		return appendString(out, v.data.(string)), nil
	case KindVector2:
		vec := v.data.(Vector2)
		out = appendU64(out, math.Float64bits(vec.X))
		return appendU64(out, math.Float64bits(vec.Y)), nil
	case KindVector3:
		vec := v.data.(Vector3)
		out = appendU64(out, math.Float64bits(vec.X))
		out = appendU64(out, math.Float64bits(vec.Y))
		return appendU64(out, math.Float64bits(vec.Z)), nil
	case KindRID:
		return nil, fmt.Errorf("encode %s: %w", v.kind, ErrUnencodable)
	case KindObject:
		if !fullObjects {
			return nil, fmt.Errorf("encode %s without full objects: %w", v.kind, ErrUnencodable)
		}
		return appendU64(out, uint64(v.data.(ObjectID))), nil
	case KindCallable, KindSignal:
		return nil, fmt.Errorf("encode %s: %w", v.kind, ErrUnencodable)
	case KindPackedByteArray:
		b := v.data.([]byte)
		out = appendU32(out, uint32(len(b)))
		return append(out, b...), nil
	case KindPackedInt32Array:
		a := v.data.([]int32)
		out = appendU32(out, uint32(len(a)))
		for _, e := range a {
			out = appendU32(out, uint32(e))
		}
		return out, nil
	case KindPackedInt64Array:
		a := v.data.([]int64)
		out = appendU32(out, uint32(len(a)))
		for _, e := range a {
			out = appendU64(out, uint64(e))
		}
		return out, nil
	case KindPackedFloat32Array:
		a := v.data.([]float32)
		out = appendU32(out, uint32(len(a)))
		for _, e := range a {
			out = appendU32(out, math.Float32bits(e))
		}
		return out, nil
	case KindPackedFloat64Array:
		a := v.data.([]float64)
		out = appendU32(out, uint32(len(a)))
		for _, e := range a {
			out = appendU64(out, math.Float64bits(e))
		}
		return out, nil
	case KindPackedStringArray:
		a := v.data.([]string)
		out = appendU32(out, uint32(len(a)))
		for _, e := range a {
			out = appendString(out, e)
		}
		return out, nil
	case KindPackedVector2Array:
		a := v.data.([]Vector2)
		out = appendU32(out, uint32(len(a)))
		for _, e := range a {
			out = appendU64(out, math.Float64bits(e.X))
			out = appendU64(out, math.Float64bits(e.Y))
		}
		return out, nil
	case KindPackedVector3Array:
		a := v.data.([]Vector3)
		out = appendU32(out, uint32(len(a)))
		for _, e := range a {
			out = appendU64(out, math.Float64bits(e.X))
			out = appendU64(out, math.Float64bits(e.Y))
			out = appendU64(out, math.Float64bits(e.Z))
		}
		return out, nil
	case KindArray:
		a := v.Array()
		out = appendU32(out, uint32(a.Size()))
		var err error
		for _, e := range a.elems {
			out, err = appendVariant(out, e, fullObjects)
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	case KindDictionary:
		d := v.Dictionary()
		out = appendU32(out, uint32(d.Size()))
		var err error
		for _, e := range d.entries {
			if out, err = appendVariant(out, e.key, fullObjects); err != nil {
				return nil, err
			}
			if out, err = appendVariant(out, e.value, fullObjects); err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("encode unknown kind %d: %w", v.kind, ErrUnencodable)
	}
}

func decodeVariant(data []byte, allowObjects bool) (Variant, []byte, error) {
	tag, data, err := readU32(data)
	if err != nil {
		return Nil, nil, err
	}
	if tag >= uint32(kindMax) {
		return Nil, nil, fmt.Errorf("unknown kind tag %d", tag)
	}
	k := Kind(tag)

	switch k {
	case KindNil:
		return Nil, data, nil
	case KindBool:
		u, rest, err := readU32(data)
		if err != nil {
			return Nil, nil, err
		}
		return NewBool(u != 0), rest, nil
	case KindInt:
		u, rest, err := readU64(data)
		if err != nil {
			return Nil, nil, err
		}
		return NewInt(int64(u)), rest, nil
	case KindFloat:
		u, rest, err := readU64(data)
		if err != nil {
			return Nil, nil, err
		}
		return NewFloat(math.Float64frombits(u)), rest, nil
	case KindString, KindStringName, KindNodePath:
		s, rest, err := readString(data)
		if err != nil {
			return Nil, nil, err
		}
		return Variant{kind: k, data: s}, rest, nil
	case KindVector2:
		fs, rest, err := readFloats(data, 2)
		if err != nil {
			return Nil, nil, err
		}
		return NewVector2(Vector2{X: fs[0], Y: fs[1]}), rest, nil
	case KindVector3:
		fs, rest, err := readFloats(data, 3)
		if err != nil {
			return Nil, nil, err
		}
		return NewVector3(Vector3{X: fs[0], Y: fs[1], Z: fs[2]}), rest, nil
	case KindObject:
		if !allowObjects {
			return Nil, nil, fmt.Errorf("object reference without allow-objects")
		}
		u, rest, err := readU64(data)
		if err != nil {
			return Nil, nil, err
		}
		return NewObject(ObjectID(u)), rest, nil
	case KindRID, KindCallable, KindSignal:
		return Nil, nil, fmt.Errorf("kind %s is not decodable", k)
	case KindPackedByteArray:
		n, rest, err := readU32(data)
		if err != nil {
			return Nil, nil, err
		}
		if uint32(len(rest)) < n {
			return Nil, nil, fmt.Errorf("short byte array")
		}
		b := make([]byte, n)
		copy(b, rest[:n])
		return NewPackedByteArray(b), rest[n:], nil
	case KindPackedInt32Array:
		return decodeCounted(data, func(d []byte) (int32, []byte, error) {
			u, rest, err := readU32(d)
			return int32(u), rest, err
		}, NewPackedInt32Array)
	case KindPackedInt64Array:
		return decodeCounted(data, func(d []byte) (int64, []byte, error) {
			u, rest, err := readU64(d)
			return int64(u), rest, err
		}, NewPackedInt64Array)
	case KindPackedFloat32Array:
		return decodeCounted(data, func(d []byte) (float32, []byte, error) {
			u, rest, err := readU32(d)
			return math.Float32frombits(u), rest, err
		}, NewPackedFloat32Array)
	case KindPackedFloat64Array:
		return decodeCounted(data, func(d []byte) (float64, []byte, error) {
			u, rest, err := readU64(d)
			return math.Float64frombits(u), rest, err
		}, NewPackedFloat64Array)
	case KindPackedStringArray:
		return decodeCounted(data, readString, NewPackedStringArray)
	case KindPackedVector2Array:
		return decodeCounted(data, func(d []byte) (Vector2, []byte, error) {
			fs, rest, err := readFloats(d, 2)
			if err != nil {
				return Vector2{}, nil, err
			}
			return Vector2{X: fs[0], Y: fs[1]}, rest, nil
		}, NewPackedVector2Array)
	case KindPackedVector3Array:
		return decodeCounted(data, func(d []byte) (Vector3, []byte, error) {
			fs, rest, err := readFloats(d, 3)
			if err != nil {
				return Vector3{}, nil, err
			}
			return Vector3{X: fs[0], Y: fs[1], Z: fs[2]}, rest, nil
		}, NewPackedVector3Array)
	case KindArray:
		n, rest, err := readU32(data)
		if err != nil {
			return Nil, nil, err
		}
		arr := &Array{}
		for i := uint32(0); i < n; i++ {
			var e Variant
			e, rest, err = decodeVariant(rest, allowObjects)
			if err != nil {
				return Nil, nil, err
			}
			arr.Add(e)
		}
		return NewArray(arr), rest, nil
	case KindDictionary:
		n, rest, err := readU32(data)
		if err != nil {
			return Nil, nil, err
		}
		d := &Dictionary{}
		for i := uint32(0); i < n; i++ {
			var key, val Variant
			key, rest, err = decodeVariant(rest, allowObjects)
			if err != nil {
				return Nil, nil, err
			}
			val, rest, err = decodeVariant(rest, allowObjects)
			if err != nil {
				return Nil, nil, err
			}
			d.Set(key, val)
		}
		return NewDictionary(d), rest, nil
	default:
		return Nil, nil, fmt.Errorf("unhandled kind tag %d", tag)
	}
}

func decodeCounted[T any](data []byte, read func([]byte) (T, []byte, error), wrap func([]T) Variant) (Variant, []byte, error) {
	n, rest, err := readU32(data)
	if err != nil {
		return Nil, nil, err
	}
	// Every element costs at least 4 encoded bytes, so an honest count can
	// never exceed the remaining input. Rejecting the count up front keeps a
	// malformed prefix from sizing the allocation.
	if uint64(n)*4 > uint64(len(rest)) {
		return Nil, nil, fmt.Errorf("packed array count %d exceeds %d remaining bytes", n, len(rest))
	}
	out := make([]T, 0, n)
	for i := uint32(0); i < n; i++ {
		var e T
		e, rest, err = read(rest)
		if err != nil {
			return Nil, nil, err
		}
		out = append(out, e)
	}
	return wrap(out), rest, nil
}

func appendU32(out []byte, u uint32) []byte {
	return binary.LittleEndian.AppendUint32(out, u)
}

func appendU64(out []byte, u uint64) []byte {
	return binary.LittleEndian.AppendUint64(out, u)
}

func appendString(out []byte, s string) []byte {
	out = appendU32(out, uint32(len(s)))
	return append(out, s...)
}

func readU32(data []byte) (uint32, []byte, error) {
	if len(data) < 4 {
		return 0, nil, fmt.Errorf("short read: want 4 bytes, have %d", len(data))
	}
	return binary.LittleEndian.Uint32(data), data[4:], nil
}

func readU64(data []byte) (uint64, []byte, error) {
	if len(data) < 8 {
		return 0, nil, fmt.Errorf("short read: want 8 bytes, have %d", len(data))
	}
	return binary.LittleEndian.Uint64(data), data[8:], nil
}

func readString(data []byte) (string, []byte, error) {
	n, rest, err := readU32(data)
	if err != nil {
		return "", nil, err
	}
	if uint32(len(rest)) < n {
		return "", nil, fmt.Errorf("short string: want %d bytes, have %d", n, len(rest))
	}
	return string(rest[:n]), rest[n:], nil
}

func readFloats(data []byte, n int) ([]float64, []byte, error) {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		u, rest, err := readU64(data)
		if err != nil {
			return nil, nil, err
		}
		out[i] = math.Float64frombits(u)
		data = rest
	}
	return out, data, nil
}
