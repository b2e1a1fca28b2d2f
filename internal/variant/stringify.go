package variant

import (
	"fmt"
	"strconv"
	"strings"
)

// Text rendering. AsString gives the display form scripts see (raw text for
// strings); WriteString gives the literal form of the text codec, where
// strings are quoted so Parse can round-trip. Container elements always use
// the literal form.

// WriteString renders the value as a parseable literal.
func WriteString(v Variant) string {
	var b strings.Builder
	writeLiteral(&b, v)
	return b.String()
}

func (v Variant) writeString() string {
	switch v.kind {
	case KindString, KindStringName, KindNodePath:
		return v.data.(string)
	}
	var b strings.Builder
	writeLiteral(&b, v)
	return b.String()
}

// Stringify concatenates the display forms of all values, the host's str()
// helper.
func Stringify(vals ...Variant) string {
	var b strings.Builder
	for _, v := range vals {
		b.WriteString(v.writeString())
	}
	return b.String()
}

func writeLiteral(b *strings.Builder, v Variant) {
	switch v.kind {
	case KindNil:
		b.WriteString("null")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.data.(bool)))
	case KindInt:
		b.WriteString(strconv.FormatInt(v.data.(int64), 10))
	case KindFloat:
		b.WriteString(formatFloat(v.data.(float64)))
	case KindString:
		b.WriteString(strconv.Quote(v.data.(string)))
	case KindStringName:
		b.WriteByte('&')
		b.WriteString(strconv.Quote(v.data.(string)))
	case KindNodePath:
		b.WriteByte('^')
		b.WriteString(strconv.Quote(v.data.(string)))
	case KindVector2:
		vec := v.data.(Vector2)
		fmt.Fprintf(b, "Vector2(%s, %s)", formatFloat(vec.X), formatFloat(vec.Y))
	case KindVector3:
		vec := v.data.(Vector3)
		fmt.Fprintf(b, "Vector3(%s, %s, %s)", formatFloat(vec.X), formatFloat(vec.Y), formatFloat(vec.Z))
	case KindRID:
		fmt.Fprintf(b, "RID(%d)", uint64(v.data.(RID)))
	case KindObject:
		fmt.Fprintf(b, "Object(%d)", uint64(v.data.(ObjectID)))
	case KindPackedByteArray:
		writePacked(b, "PackedByteArray", v.data.([]byte), func(e byte) string { return strconv.Itoa(int(e)) })
	case KindPackedInt32Array:
		writePacked(b, "PackedInt32Array", v.data.([]int32), func(e int32) string { return strconv.Itoa(int(e)) })
	case KindPackedInt64Array:
		writePacked(b, "PackedInt64Array", v.data.([]int64), func(e int64) string { return strconv.FormatInt(e, 10) })
	case KindPackedFloat32Array:
		writePacked(b, "PackedFloat32Array", v.data.([]float32), func(e float32) string { return formatFloat(float64(e)) })
	case KindPackedFloat64Array:
		writePacked(b, "PackedFloat64Array", v.data.([]float64), formatFloat)
	case KindPackedStringArray:
		writePacked(b, "PackedStringArray", v.data.([]string), strconv.Quote)
	case KindPackedVector2Array:
		writePacked(b, "PackedVector2Array", v.data.([]Vector2), func(e Vector2) string {
			return fmt.Sprintf("Vector2(%s, %s)", formatFloat(e.X), formatFloat(e.Y))
		})
	case KindPackedVector3Array:
		writePacked(b, "PackedVector3Array", v.data.([]Vector3), func(e Vector3) string {
			return fmt.Sprintf("Vector3(%s, %s, %s)", formatFloat(e.X), formatFloat(e.Y), formatFloat(e.Z))
		})
	case KindArray:
		b.WriteByte('[')
		for i, e := range v.Array().elems {
			if i > 0 {
				b.WriteString(", ")
			}
			writeLiteral(b, e)
		}
		b.WriteByte(']')
	case KindDictionary:
		d := v.Dictionary()
		if d.Size() == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{ ")
		for i, e := range d.entries {
			if i > 0 {
				b.WriteString(", ")
			}
			writeLiteral(b, e.key)
			b.WriteString(": ")
			writeLiteral(b, e.value)
		}
		b.WriteString(" }")
	case KindCallable:
		c := v.Callable()
		switch c.Kind {
		case CallableDelegate:
			b.WriteString("Callable(Delegate)")
		case CallableInvalid:
			b.WriteString("Callable()")
		default:
			fmt.Fprintf(b, "Callable(%s, %d, %q)", c.Kind, uint64(c.Target), c.Name)
		}
	case KindSignal:
		s := v.Signal()
		fmt.Fprintf(b, "Signal(%d, %q)", uint64(s.Target), s.Name)
	}
}

func writePacked[T any](b *strings.Builder, name string, s []T, f func(T) string) {
	b.WriteString(name)
	b.WriteByte('(')
	for i, e := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f(e))
	}
	b.WriteByte(')')
}

// formatFloat keeps a decimal point on integral values so a float never
// reads back as an int.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eENI") {
		s += ".0"
	}
	return s
}
