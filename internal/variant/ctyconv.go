package variant

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// cty bridge: class manifests declare constants as cty values, and the CLI
// renders bridge values back out. Only data kinds convert; identity kinds
// (objects, resources, callables, signals) have no cty representation.

// FromCty converts a cty value into a variant. Whole numbers become Int,
// everything else numeric becomes Float; lists/sets/tuples become Array;
// maps and objects become Dictionary keyed by string.
func FromCty(v cty.Value) (Variant, error) {
	if v.IsNull() {
		return Nil, nil
	}
	if !v.IsKnown() {
		return Nil, fmt.Errorf("unknown cty value: %w", ErrTypeMismatch)
	}

	ty := v.Type()
	switch {
	case ty == cty.Bool:
		return NewBool(v.True()), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if i, acc := bf.Int64(); acc == 0 {
			return NewInt(i), nil
		}
		f, _ := bf.Float64()
		return NewFloat(f), nil
	case ty == cty.String:
		return NewString(v.AsString()), nil
	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		arr := &Array{}
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			conv, err := FromCty(ev)
			if err != nil {
				return Nil, err
			}
			arr.Add(conv)
		}
		return NewArray(arr), nil
	case ty.IsMapType() || ty.IsObjectType():
		d := &Dictionary{}
		for it := v.ElementIterator(); it.Next(); {
			kv, ev := it.Element()
			conv, err := FromCty(ev)
			if err != nil {
				return Nil, err
			}
			d.Set(NewString(kv.AsString()), conv)
		}
		return NewDictionary(d), nil
	default:
		return Nil, fmt.Errorf("cty type %s: %w", ty.FriendlyName(), ErrTypeMismatch)
	}
}

// ToCty converts a variant into a cty value. Packed arrays become number or
// string lists; dictionary keys must stringify.
func ToCty(v Variant) (cty.Value, error) {
	switch v.kind {
	case KindNil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case KindBool:
		return cty.BoolVal(v.data.(bool)), nil
	case KindInt:
		return cty.NumberIntVal(v.data.(int64)), nil
	case KindFloat:
		return cty.NumberFloatVal(v.data.(float64)), nil
	case KindString, KindStringName, KindNodePath:
		return cty.StringVal(v.data.(string)), nil
	case KindVector2:
		vec := v.data.(Vector2)
		return cty.TupleVal([]cty.Value{cty.NumberFloatVal(vec.X), cty.NumberFloatVal(vec.Y)}), nil
	case KindVector3:
		vec := v.data.(Vector3)
		return cty.TupleVal([]cty.Value{
			cty.NumberFloatVal(vec.X), cty.NumberFloatVal(vec.Y), cty.NumberFloatVal(vec.Z),
		}), nil
	case KindPackedByteArray, KindPackedInt32Array, KindPackedInt64Array,
		KindPackedFloat32Array, KindPackedFloat64Array, KindPackedStringArray,
		KindPackedVector2Array, KindPackedVector3Array:
		return ToCty(NewArray(v.AsArray()))
	case KindArray:
		a := v.Array()
		if a.Size() == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, a.Size())
		for i := range elems {
			ev, err := ToCty(a.Get(i))
			if err != nil {
				return cty.NilVal, err
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	case KindDictionary:
		d := v.Dictionary()
		if d.Size() == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, d.Size())
		for i := 0; i < d.Size(); i++ {
			k, val := d.KeyValueAt(i)
			cv, err := ToCty(val)
			if err != nil {
				return cty.NilVal, err
			}
			attrs[k.AsString()] = cv
		}
		return cty.ObjectVal(attrs), nil
	default:
		return cty.NilVal, fmt.Errorf("variant kind %s has no cty form: %w", v.kind, ErrTypeMismatch)
	}
}
