package variant

import (
	"fmt"
	"strconv"
)

// Parse decodes the literal form produced by WriteString. It accepts every
// kind the writer emits except callables and signals, which have no stable
// textual identity.
func Parse(src string) (Variant, error) {
	p := &parser{src: src, line: 1}
	v, err := p.parseValue()
	if err != nil {
		return Nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Nil, p.errf("unexpected trailing input")
	}
	return v, nil
}

// ParseOrDiagnostic decodes src; on failure the result is a diagnostic
// String variant carrying the parse error, not a hard failure. Scripts get
// a value either way.
func ParseOrDiagnostic(src string) Variant {
	v, err := Parse(src)
	if err != nil {
		return NewString(fmt.Sprintf("Parse error at line %d: %v.", errLine(err), err))
	}
	return v
}

type parser struct {
	src  string
	pos  int
	line int
}

type parseError struct {
	line int
	msg  string
}

func (e *parseError) Error() string { return e.msg }

func errLine(err error) int {
	if pe, ok := err.(*parseError); ok {
		return pe.line
	}
	return 1
}

func (p *parser) errf(format string, args ...any) error {
	return &parseError{line: p.line, msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '\n' {
			p.line++
		} else if c != ' ' && c != '\t' && c != '\r' {
			return
		}
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		return p.errf("expected %q", string(c))
	}
	p.pos++
	return nil
}

func (p *parser) parseValue() (Variant, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == 0:
		return Nil, p.errf("unexpected end of input")
	case c == '"':
		s, err := p.parseQuoted()
		if err != nil {
			return Nil, err
		}
		return NewString(s), nil
	case c == '&':
		p.pos++
		s, err := p.parseQuoted()
		if err != nil {
			return Nil, err
		}
		return NewStringName(s), nil
	case c == '^':
		p.pos++
		s, err := p.parseQuoted()
		if err != nil {
			return Nil, err
		}
		return NewNodePath(s), nil
	case c == '[':
		return p.parseArray()
	case c == '{':
		return p.parseDictionary()
	case c == '-' || c >= '0' && c <= '9':
		return p.parseNumber()
	default:
		return p.parseIdent()
	}
}

func (p *parser) parseQuoted() (string, error) {
	p.skipSpace()
	if p.peek() != '"' {
		return "", p.errf("expected string")
	}
	start := p.pos
	p.pos++
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
			continue
		case '"':
			p.pos++
			s, err := strconv.Unquote(p.src[start:p.pos])
			if err != nil {
				return "", p.errf("bad string literal")
			}
			return s, nil
		case '\n':
			return "", p.errf("unterminated string")
		}
		p.pos++
	}
	return "", p.errf("unterminated string")
}

func (p *parser) parseNumber() (Variant, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	isFloat := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		if c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-' {
			// +/- only continue a number inside an exponent.
			if (c == '+' || c == '-') && p.pos > start {
				prev := p.src[p.pos-1]
				if prev != 'e' && prev != 'E' {
					break
				}
			}
			isFloat = isFloat || c == '.' || c == 'e' || c == 'E'
			p.pos++
			continue
		}
		break
	}
	text := p.src[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Nil, p.errf("bad float %q", text)
		}
		return NewFloat(f), nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Nil, p.errf("bad integer %q", text)
	}
	return NewInt(i), nil
}

func (p *parser) parseArray() (Variant, error) {
	p.pos++ // consume '['
	arr := &Array{}
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return NewArray(arr), nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return Nil, err
		}
		arr.Add(v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return NewArray(arr), nil
		default:
			return Nil, p.errf("expected ',' or ']' in array")
		}
	}
}

func (p *parser) parseDictionary() (Variant, error) {
	p.pos++ // consume '{'
	d := &Dictionary{}
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return NewDictionary(d), nil
	}
	for {
		k, err := p.parseValue()
		if err != nil {
			return Nil, err
		}
		if err := p.expect(':'); err != nil {
			return Nil, err
		}
		v, err := p.parseValue()
		if err != nil {
			return Nil, err
		}
		d.Set(k, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return NewDictionary(d), nil
		default:
			return Nil, p.errf("expected ',' or '}' in dictionary")
		}
	}
}

func (p *parser) parseIdent() (Variant, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' {
			p.pos++
			continue
		}
		break
	}
	name := p.src[start:p.pos]
	switch name {
	case "null", "nil":
		return Nil, nil
	case "true":
		return NewBool(true), nil
	case "false":
		return NewBool(false), nil
	case "":
		return Nil, p.errf("unexpected character %q", string(p.peek()))
	}

	args, err := p.parseCtorArgs(name)
	if err != nil {
		return Nil, err
	}

	switch name {
	case "Vector2":
		if len(args) != 2 {
			return Nil, p.errf("Vector2 wants 2 arguments")
		}
		return NewVector2(Vector2{X: args[0].AsFloat(), Y: args[1].AsFloat()}), nil
	case "Vector3":
		if len(args) != 3 {
			return Nil, p.errf("Vector3 wants 3 arguments")
		}
		return NewVector3(Vector3{X: args[0].AsFloat(), Y: args[1].AsFloat(), Z: args[2].AsFloat()}), nil
	case "RID":
		if len(args) != 1 {
			return Nil, p.errf("RID wants 1 argument")
		}
		return NewRID(RID(args[0].AsInt())), nil
	case "Object":
		if len(args) != 1 {
			return Nil, p.errf("Object wants 1 argument")
		}
		return NewObject(ObjectID(args[0].AsInt())), nil
	case "PackedByteArray":
		return ctorPacked(args, func(e Variant) byte { return byte(e.AsInt()) }, NewPackedByteArray), nil
	case "PackedInt32Array":
		return ctorPacked(args, func(e Variant) int32 { return int32(e.AsInt()) }, NewPackedInt32Array), nil
	case "PackedInt64Array":
		return ctorPacked(args, func(e Variant) int64 { return e.AsInt() }, NewPackedInt64Array), nil
	case "PackedFloat32Array":
		return ctorPacked(args, func(e Variant) float32 { return float32(e.AsFloat()) }, NewPackedFloat32Array), nil
	case "PackedFloat64Array":
		return ctorPacked(args, func(e Variant) float64 { return e.AsFloat() }, NewPackedFloat64Array), nil
	case "PackedStringArray":
		return ctorPacked(args, func(e Variant) string { return e.AsString() }, NewPackedStringArray), nil
	case "PackedVector2Array":
		return ctorPacked(args, func(e Variant) Vector2 { return e.AsVector2() }, NewPackedVector2Array), nil
	case "PackedVector3Array":
		return ctorPacked(args, func(e Variant) Vector3 { return e.AsVector3() }, NewPackedVector3Array), nil
	default:
		return Nil, p.errf("unknown constructor %q", name)
	}
}

func (p *parser) parseCtorArgs(name string) ([]Variant, error) {
	if err := p.expect('('); err != nil {
		return nil, p.errf("expected '(' after %q", name)
	}
	var args []Variant
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return args, nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return args, nil
		default:
			return nil, p.errf("expected ',' or ')' in %s", name)
		}
	}
}

func ctorPacked[T any](args []Variant, f func(Variant) T, wrap func([]T) Variant) Variant {
	out := make([]T, len(args))
	for i, a := range args {
		out[i] = f(a)
	}
	return wrap(out)
}
