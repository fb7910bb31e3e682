package schema

import "rfr/internal/codec"

// ObjectKind is the discriminant of the Object tagged union stored in a
// sub-chunk's object table. The spec names the container (§3.7) but leaves
// the exact tag assignment to the implementation (see DESIGN.md); only
// Span and Task carry an iid that records can reference.
type ObjectKind byte

const (
	ObjectSpanKind ObjectKind = 0
	ObjectTaskKind ObjectKind = 1
)

// Object is one entry of a sub-chunk's object table: the declaration of a
// Span or Task that records in the same sub-chunk may reference by iid.
type Object struct {
	Kind ObjectKind
	Span Span
	Task Task
}

func NewObjectSpan(s Span) Object { return Object{Kind: ObjectSpanKind, Span: s} }
func NewObjectTask(t Task) Object { return Object{Kind: ObjectTaskKind, Task: t} }

// IID returns the instrumentation id the object declares.
func (o Object) IID() InstrumentationID {
	if o.Kind == ObjectTaskKind {
		return o.Task.IID
	}
	return o.Span.IID
}

func (o Object) Encode(buf []byte) []byte {
	buf = codec.AppendUvarint(buf, uint64(o.Kind))
	switch o.Kind {
	case ObjectSpanKind:
		return o.Span.Encode(buf)
	case ObjectTaskKind:
		return o.Task.Encode(buf)
	default:
		return buf
	}
}

func DecodeObject(buf []byte) (Object, int, error) {
	tag, n1, err := codec.ConsumeUvarint(buf)
	if err != nil {
		return Object{}, 0, err
	}
	rest := buf[n1:]
	switch ObjectKind(tag) {
	case ObjectSpanKind:
		s, n2, err := DecodeSpan(rest)
		return NewObjectSpan(s), n1 + n2, err
	case ObjectTaskKind:
		t, n2, err := DecodeTask(rest)
		return NewObjectTask(t), n1 + n2, err
	default:
		return Object{}, 0, codec.ErrUnknownVariant(tag)
	}
}
