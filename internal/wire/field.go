// Package wire implements the length-prefixed, null-delimited field
// codec used on the wire between a TWS API client and this gateway.
package wire

import "strconv"

// FieldKind tags the variant held by a Field.
type FieldKind uint8

const (
	KindAbsent FieldKind = iota
	KindString
	KindInt
	KindFloat
	KindBool
)

// Field is one positional value in a message body. It is a closed sum
// type rather than an interface{} so callers can't smuggle an
// unsupported Go type onto the wire.
type Field struct {
	kind FieldKind
	str  string
	i    int64
	f    float64
	b    bool
}

func Str(s string) Field   { return Field{kind: KindString, str: s} }
func Int(i int64) Field    { return Field{kind: KindInt, i: i} }
func IntV(i int) Field     { return Field{kind: KindInt, i: int64(i)} }
func Float(f float64) Field { return Field{kind: KindFloat, f: f} }
func Bool(b bool) Field    { return Field{kind: KindBool, b: b} }
func Absent() Field        { return Field{kind: KindAbsent} }

// render returns the textual form written onto the wire for f,
// per the rules in spec.md §4.1: integers/floats in natural decimal
// form, booleans as "1"/"0", absent/empty fields as the empty string.
func (f Field) render() string {
	switch f.kind {
	case KindString:
		return f.str
	case KindInt:
		return strconv.FormatInt(f.i, 10)
	case KindFloat:
		return strconv.FormatFloat(f.f, 'g', -1, 64)
	case KindBool:
		if f.b {
			return "1"
		}
		return "0"
	default: // KindAbsent
		return ""
	}
}
