package schema

import (
	"math/big"

	"rfr/internal/codec"
)

// FieldValueKind is the discriminant of the FieldValue tagged union. The
// exact integer assignments are normative (§3.4).
type FieldValueKind byte

const (
	FieldValueF64  FieldValueKind = 0
	FieldValueI64  FieldValueKind = 1
	FieldValueU64  FieldValueKind = 2
	FieldValueI128 FieldValueKind = 3
	FieldValueU128 FieldValueKind = 4
	FieldValueBool FieldValueKind = 5
	FieldValueStr  FieldValueKind = 6
)

// FieldValue is a tagged union over the scalar kinds a callsite or dynamic
// field emission may carry. Exactly one of the typed accessors is
// meaningful, selected by Kind.
type FieldValue struct {
	Kind FieldValueKind
	f64  float64
	i64  int64
	u64  uint64
	i128 *big.Int
	u128 *big.Int
	b    bool
	str  string
}

func NewFieldValueF64(v float64) FieldValue  { return FieldValue{Kind: FieldValueF64, f64: v} }
func NewFieldValueI64(v int64) FieldValue    { return FieldValue{Kind: FieldValueI64, i64: v} }
func NewFieldValueU64(v uint64) FieldValue   { return FieldValue{Kind: FieldValueU64, u64: v} }
func NewFieldValueI128(v *big.Int) FieldValue {
	return FieldValue{Kind: FieldValueI128, i128: v}
}
func NewFieldValueU128(v *big.Int) FieldValue {
	return FieldValue{Kind: FieldValueU128, u128: v}
}
func NewFieldValueBool(v bool) FieldValue { return FieldValue{Kind: FieldValueBool, b: v} }
func NewFieldValueStr(v string) FieldValue { return FieldValue{Kind: FieldValueStr, str: v} }

func (v FieldValue) F64() float64   { return v.f64 }
func (v FieldValue) I64() int64     { return v.i64 }
func (v FieldValue) U64() uint64    { return v.u64 }
func (v FieldValue) I128() *big.Int { return v.i128 }
func (v FieldValue) U128() *big.Int { return v.u128 }
func (v FieldValue) Bool() bool     { return v.b }
func (v FieldValue) Str() string    { return v.str }

// Equal reports whether two field values have the same kind and payload.
func (v FieldValue) Equal(o FieldValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case FieldValueF64:
		return v.f64 == o.f64
	case FieldValueI64:
		return v.i64 == o.i64
	case FieldValueU64:
		return v.u64 == o.u64
	case FieldValueI128:
		return v.i128.Cmp(o.i128) == 0
	case FieldValueU128:
		return v.u128.Cmp(o.u128) == 0
	case FieldValueBool:
		return v.b == o.b
	case FieldValueStr:
		return v.str == o.str
	default:
		return false
	}
}

func (v FieldValue) Encode(buf []byte) []byte {
	buf = codec.AppendUvarint(buf, uint64(v.Kind))
	switch v.Kind {
	case FieldValueF64:
		return codec.AppendF64(buf, v.f64)
	case FieldValueI64:
		return codec.AppendVarint(buf, v.i64)
	case FieldValueU64:
		return codec.AppendUvarint(buf, v.u64)
	case FieldValueI128:
		return codec.AppendVarint128(buf, v.i128)
	case FieldValueU128:
		return codec.AppendUvarint128(buf, v.u128)
	case FieldValueBool:
		return codec.AppendBool(buf, v.b)
	case FieldValueStr:
		return codec.AppendString(buf, v.str)
	default:
		return buf
	}
}

func DecodeFieldValue(buf []byte) (FieldValue, int, error) {
	tag, n1, err := codec.ConsumeUvarint(buf)
	if err != nil {
		return FieldValue{}, 0, err
	}
	rest := buf[n1:]
	switch FieldValueKind(tag) {
	case FieldValueF64:
		f, n2, err := codec.ConsumeF64(rest)
		return NewFieldValueF64(f), n1 + n2, err
	case FieldValueI64:
		i, n2, err := codec.ConsumeVarint(rest)
		return NewFieldValueI64(i), n1 + n2, err
	case FieldValueU64:
		u, n2, err := codec.ConsumeUvarint(rest)
		return NewFieldValueU64(u), n1 + n2, err
	case FieldValueI128:
		i, n2, err := codec.ConsumeVarint128(rest)
		return NewFieldValueI128(i), n1 + n2, err
	case FieldValueU128:
		u, n2, err := codec.ConsumeUvarint128(rest)
		return NewFieldValueU128(u), n1 + n2, err
	case FieldValueBool:
		b, n2, err := codec.ConsumeBool(rest)
		return NewFieldValueBool(b), n1 + n2, err
	case FieldValueStr:
		s, n2, err := codec.ConsumeString(rest)
		return NewFieldValueStr(s), n1 + n2, err
	default:
		return FieldValue{}, 0, codec.ErrUnknownVariant(tag)
	}
}

// FieldEntry pairs a dynamic field's name with its value.
type FieldEntry struct {
	Name  string
	Value FieldValue
}

func (e FieldEntry) Encode(buf []byte) []byte {
	buf = codec.AppendString(buf, e.Name)
	return e.Value.Encode(buf)
}

func DecodeFieldEntry(buf []byte) (FieldEntry, int, error) {
	name, n1, err := codec.ConsumeString(buf)
	if err != nil {
		return FieldEntry{}, 0, err
	}
	val, n2, err := DecodeFieldValue(buf[n1:])
	if err != nil {
		return FieldEntry{}, 0, err
	}
	return FieldEntry{Name: name, Value: val}, n1 + n2, nil
}
