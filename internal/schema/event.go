package schema

import "rfr/internal/codec"

// Event represents a point in time (§3.5).
type Event struct {
	CallsiteID       CallsiteID
	Parent           Parent
	ConstFieldValues []FieldValue
	DynamicFields    []FieldEntry
}

func (e Event) Encode(buf []byte) []byte {
	buf = EncodeCallsiteID(buf, e.CallsiteID)
	buf = e.Parent.Encode(buf)
	buf = codec.AppendSeq(buf, e.ConstFieldValues, func(b []byte, v FieldValue) []byte { return v.Encode(b) })
	buf = codec.AppendSeq(buf, e.DynamicFields, func(b []byte, v FieldEntry) []byte { return v.Encode(b) })
	return buf
}

func DecodeEvent(buf []byte) (Event, int, error) {
	cid, n1, err := DecodeCallsiteID(buf)
	if err != nil {
		return Event{}, 0, err
	}
	off := n1
	parent, n2, err := DecodeParent(buf[off:])
	if err != nil {
		return Event{}, 0, err
	}
	off += n2
	constVals, n3, err := codec.ConsumeSeq(buf[off:], DecodeFieldValue)
	if err != nil {
		return Event{}, 0, err
	}
	off += n3
	dynFields, n4, err := codec.ConsumeSeq(buf[off:], DecodeFieldEntry)
	if err != nil {
		return Event{}, 0, err
	}
	off += n4
	return Event{
		CallsiteID:       cid,
		Parent:           parent,
		ConstFieldValues: constVals,
		DynamicFields:    dynFields,
	}, off, nil
}
