package schema

import (
	"math/big"
	"testing"
)

func TestCallsiteRoundTrip(t *testing.T) {
	c := Callsite{
		CallsiteID: 42,
		Level:      LevelInfo,
		Kind:       KindSpan,
		ConstFields: []FieldEntry{
			{Name: "target", Value: NewFieldValueStr("my_crate::module")},
			{Name: "line", Value: NewFieldValueU64(17)},
		},
		ConstFieldNames: []string{"count"},
	}
	buf := c.Encode(nil)
	got, n, err := DecodeCallsite(buf)
	if err != nil {
		t.Fatalf("DecodeCallsite: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("consumed %d, want %d", n, len(buf))
	}
	if got.CallsiteID != c.CallsiteID || got.Level != c.Level || got.Kind != c.Kind {
		t.Fatalf("mismatch: %+v vs %+v", got, c)
	}
	if len(got.ConstFields) != 2 || !got.ConstFields[1].Value.Equal(c.ConstFields[1].Value) {
		t.Fatalf("const fields mismatch: %+v", got.ConstFields)
	}
}

func TestFieldValueAllKinds(t *testing.T) {
	vals := []FieldValue{
		NewFieldValueF64(3.25),
		NewFieldValueI64(-7),
		NewFieldValueU64(7),
		NewFieldValueI128(big.NewInt(-12345)),
		NewFieldValueU128(big.NewInt(12345)),
		NewFieldValueBool(true),
		NewFieldValueStr("hello"),
	}
	for i, v := range vals {
		buf := v.Encode(nil)
		if buf[0] != byte(i) {
			t.Fatalf("kind %d: discriminant byte = %d, want %d", i, buf[0], i)
		}
		got, n, err := DecodeFieldValue(buf)
		if err != nil {
			t.Fatalf("kind %d: decode: %v", i, err)
		}
		if n != len(buf) || !got.Equal(v) {
			t.Fatalf("kind %d: roundtrip mismatch", i)
		}
	}
}

func TestSpanRoundTrip(t *testing.T) {
	s := Span{
		IID:              1,
		CallsiteID:       2,
		Parent:           ParentExplicitValue(99),
		ConstFieldValues: []FieldValue{NewFieldValueU64(5)},
		DynamicFields:    []FieldEntry{{Name: "x", Value: NewFieldValueBool(false)}},
	}
	buf := s.Encode(nil)
	got, n, err := DecodeSpan(buf)
	if err != nil {
		t.Fatalf("DecodeSpan: %v", err)
	}
	if n != len(buf) || got.IID != s.IID || got.Parent != s.Parent {
		t.Fatalf("mismatch: %+v vs %+v", got, s)
	}
}

func TestParentCurrentRoot(t *testing.T) {
	for _, p := range []Parent{ParentCurrentValue(), ParentRootValue()} {
		buf := p.Encode(nil)
		got, n, err := DecodeParent(buf)
		if err != nil || got != p || n != len(buf) {
			t.Fatalf("mismatch for %+v: got %+v/%d/%v", p, got, n, err)
		}
	}
}

func TestTaskRoundTrip(t *testing.T) {
	ctx := TaskID(7)
	task := Task{
		IID:        1,
		CallsiteID: 2,
		TaskID:     3,
		TaskName:   "worker-0",
		TaskKind:   TaskKindOtherValue("custom-executor"),
		Context:    &ctx,
	}
	buf := task.Encode(nil)
	got, n, err := DecodeTask(buf)
	if err != nil {
		t.Fatalf("DecodeTask: %v", err)
	}
	if n != len(buf) || got.TaskName != task.TaskName || got.TaskKind.Other != "custom-executor" {
		t.Fatalf("mismatch: %+v vs %+v", got, task)
	}
	if got.Context == nil || *got.Context != ctx {
		t.Fatalf("context mismatch: %+v", got.Context)
	}
}

func TestTaskKindFixedVariants(t *testing.T) {
	for _, tag := range []TaskKindTag{TaskKindTask, TaskKindLocal, TaskKindBlocking, TaskKindBlockOn} {
		k := TaskKind{Tag: tag}
		buf := k.Encode(nil)
		got, n, err := DecodeTaskKind(buf)
		if err != nil || got.Tag != tag || n != len(buf) {
			t.Fatalf("tag %d: got %+v/%d/%v", tag, got, n, err)
		}
	}
}

func TestWakerRoundTrip(t *testing.T) {
	w := Waker{TaskID: 5}
	buf := w.Encode(nil)
	got, n, err := DecodeWaker(buf)
	if err != nil || got.TaskID != w.TaskID || got.Context != nil || n != len(buf) {
		t.Fatalf("got %+v/%d/%v", got, n, err)
	}
}

func TestRecordDataDiscriminants(t *testing.T) {
	cases := []struct {
		data RecordData
		tag  RecordDataTag
	}{
		{NewRecordSpanNew(1), RecordSpanNew},
		{NewRecordSpanEnter(1), RecordSpanEnter},
		{NewRecordSpanExit(1), RecordSpanExit},
		{NewRecordSpanClose(1), RecordSpanClose},
		{NewRecordEvent(Event{CallsiteID: 1, Parent: ParentCurrentValue()}), RecordEvent},
		{NewRecordNewTask(1), RecordNewTask},
		{NewRecordTaskPollStart(1), RecordTaskPollStart},
		{NewRecordTaskPollEnd(1), RecordTaskPollEnd},
		{NewRecordTaskDrop(1), RecordTaskDrop},
		{NewRecordWakerWake(Waker{TaskID: 1}), RecordWakerWake},
		{NewRecordWakerWakeByRef(Waker{TaskID: 1}), RecordWakerWakeByRef},
		{NewRecordWakerClone(Waker{TaskID: 1}), RecordWakerClone},
		{NewRecordWakerDrop(Waker{TaskID: 1}), RecordWakerDrop},
	}
	for _, c := range cases {
		buf := c.data.Encode(nil)
		if buf[0] != byte(c.tag) {
			t.Fatalf("tag %v: discriminant byte = %d, want %d", c.tag, buf[0], c.tag)
		}
		got, n, err := DecodeRecordData(buf)
		if err != nil {
			t.Fatalf("tag %v: decode: %v", c.tag, err)
		}
		if n != len(buf) || got.Tag != c.tag {
			t.Fatalf("tag %v: roundtrip mismatch: %+v", c.tag, got)
		}
	}
}

func TestRecordRoundTrip(t *testing.T) {
	r := Record{
		Meta: RecordMeta{Timestamp: 123456},
		Data: NewRecordSpanEnter(7),
	}
	buf := r.Encode(nil)
	got, n, err := DecodeRecord(buf)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if n != len(buf) || got.Meta.Timestamp != r.Meta.Timestamp || got.Data.IID != r.Data.IID {
		t.Fatalf("mismatch: %+v vs %+v", got, r)
	}
}

func TestObjectRoundTrip(t *testing.T) {
	span := Span{IID: 9, CallsiteID: 1, Parent: ParentCurrentValue()}
	obj := NewObjectSpan(span)
	buf := obj.Encode(nil)
	got, n, err := DecodeObject(buf)
	if err != nil || n != len(buf) || got.IID() != span.IID {
		t.Fatalf("got %+v/%d/%v", got, n, err)
	}
}

func TestUnknownVariantError(t *testing.T) {
	buf := []byte{99}
	if _, _, err := DecodeRecordData(buf); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}
