package format

import "testing"

func TestParseValid(t *testing.T) {
	cases := []struct {
		in   string
		want Identifier
	}{
		{"rfr-s/1.0.0", Identifier{Variant: "rfr-s", Major: 1, Minor: 0, Patch: 0}},
		{"rfr-c/1.2.3", Identifier{Variant: "rfr-c", Major: 1, Minor: 2, Patch: 3}},
		{"rfc-cm/0.0.0", Identifier{Variant: "rfc-cm", Major: 0, Minor: 0, Patch: 0}},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("Parse(%q) = %+v, want %+v", c.in, got, c.want)
		}
		if got.String() != c.in {
			t.Fatalf("String() = %q, want %q", got.String(), c.in)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	cases := []string{
		"",
		"rfr-s",            // missing version
		"rfr-s/1.0",        // too few components
		"rfr-s/1.0.0.0",    // too many components
		"rfr-s/01.0.0",     // leading zero
		"toolongvariant/1.0.0",
		"rfr-s/1.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0.0", // over length
		"rfr/s/1.0.0", // extra slash after variant
	}
	for _, c := range cases {
		if _, err := Parse(c); err != ErrMalformedIdentifier {
			t.Errorf("Parse(%q): got err %v, want ErrMalformedIdentifier", c, err)
		}
	}
}

func TestValidateUnsupportedFormat(t *testing.T) {
	id, err := Parse("rfr-x/1.0.0")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := Validate(id, VariantStreaming, 1); err != ErrUnsupportedFormat {
		t.Errorf("got %v, want ErrUnsupportedFormat", err)
	}
}

func TestValidateUnsupportedVersion(t *testing.T) {
	id, err := Parse("rfr-s/2.0.0")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := Validate(id, VariantStreaming, 1); err != ErrUnsupportedVersion {
		t.Errorf("got %v, want ErrUnsupportedVersion", err)
	}
}

func TestValidateForwardCompatibleMinor(t *testing.T) {
	id, err := Parse("rfr-s/1.9.9")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := Validate(id, VariantStreaming, 1); err != nil {
		t.Errorf("expected newer minor/patch to validate, got %v", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	id := Identifier{Variant: VariantChunk, Major: 1, Minor: 0, Patch: 0}
	buf := id.Encode(nil)
	got, n, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != len(buf) || got != id {
		t.Fatalf("roundtrip mismatch: got %+v/%d, want %+v/%d", got, n, id, len(buf))
	}
}

func TestDecodeAndValidate(t *testing.T) {
	id := Identifier{Variant: VariantMeta, Major: 1, Minor: 3, Patch: 0}
	buf := id.Encode(nil)
	got, n, err := DecodeAndValidate(buf, VariantMeta, 1)
	if err != nil {
		t.Fatalf("DecodeAndValidate: %v", err)
	}
	if n != len(buf) || got != id {
		t.Fatalf("mismatch: got %+v/%d", got, n)
	}
}

func TestDecodeAndValidateWrongVariant(t *testing.T) {
	id := Identifier{Variant: VariantCallsites, Major: 1, Minor: 0, Patch: 0}
	buf := id.Encode(nil)
	if _, _, err := DecodeAndValidate(buf, VariantMeta, 1); err != ErrUnsupportedFormat {
		t.Fatalf("got %v, want ErrUnsupportedFormat", err)
	}
}
