package schema

import "rfr/internal/codec"

// ParentKind is the discriminant of the Parent tagged union. Unlike the
// record-data discriminants in §3.6, the spec does not pin exact integers
// for Parent; these assignments are this implementation's choice.
type ParentKind byte

const (
	ParentCurrent  ParentKind = 0
	ParentRoot     ParentKind = 1
	ParentExplicit ParentKind = 2
)

// Parent identifies where a Span or Event attaches in the implicit
// (Current), detached (Root), or explicit (a named iid) hierarchy.
type Parent struct {
	Kind     ParentKind
	Explicit InstrumentationID
}

func ParentCurrentValue() Parent { return Parent{Kind: ParentCurrent} }
func ParentRootValue() Parent    { return Parent{Kind: ParentRoot} }
func ParentExplicitValue(iid InstrumentationID) Parent {
	return Parent{Kind: ParentExplicit, Explicit: iid}
}

func (p Parent) Encode(buf []byte) []byte {
	buf = codec.AppendUvarint(buf, uint64(p.Kind))
	if p.Kind == ParentExplicit {
		buf = EncodeInstrumentationID(buf, p.Explicit)
	}
	return buf
}

func DecodeParent(buf []byte) (Parent, int, error) {
	tag, n1, err := codec.ConsumeUvarint(buf)
	if err != nil {
		return Parent{}, 0, err
	}
	switch ParentKind(tag) {
	case ParentCurrent:
		return ParentCurrentValue(), n1, nil
	case ParentRoot:
		return ParentRootValue(), n1, nil
	case ParentExplicit:
		iid, n2, err := DecodeInstrumentationID(buf[n1:])
		if err != nil {
			return Parent{}, 0, err
		}
		return ParentExplicitValue(iid), n1 + n2, nil
	default:
		return Parent{}, 0, codec.ErrUnknownVariant(tag)
	}
}

// Span is an instrumented interval of execution that may be entered and
// exited multiple times between creation and close (§3.5).
type Span struct {
	IID              InstrumentationID
	CallsiteID       CallsiteID
	Parent           Parent
	ConstFieldValues []FieldValue
	DynamicFields    []FieldEntry
}

func (s Span) Encode(buf []byte) []byte {
	buf = EncodeInstrumentationID(buf, s.IID)
	buf = EncodeCallsiteID(buf, s.CallsiteID)
	buf = s.Parent.Encode(buf)
	buf = codec.AppendSeq(buf, s.ConstFieldValues, func(b []byte, v FieldValue) []byte { return v.Encode(b) })
	buf = codec.AppendSeq(buf, s.DynamicFields, func(b []byte, v FieldEntry) []byte { return v.Encode(b) })
	return buf
}

func DecodeSpan(buf []byte) (Span, int, error) {
	iid, n1, err := DecodeInstrumentationID(buf)
	if err != nil {
		return Span{}, 0, err
	}
	off := n1
	cid, n2, err := DecodeCallsiteID(buf[off:])
	if err != nil {
		return Span{}, 0, err
	}
	off += n2
	parent, n3, err := DecodeParent(buf[off:])
	if err != nil {
		return Span{}, 0, err
	}
	off += n3
	constVals, n4, err := codec.ConsumeSeq(buf[off:], DecodeFieldValue)
	if err != nil {
		return Span{}, 0, err
	}
	off += n4
	dynFields, n5, err := codec.ConsumeSeq(buf[off:], DecodeFieldEntry)
	if err != nil {
		return Span{}, 0, err
	}
	off += n5
	return Span{
		IID:              iid,
		CallsiteID:       cid,
		Parent:           parent,
		ConstFieldValues: constVals,
		DynamicFields:    dynFields,
	}, off, nil
}
