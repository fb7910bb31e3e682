// Package format implements the format-identifier protocol: a short
// printable-ASCII string at the head of every recording artifact that
// names which schema variant and version follows.
package format

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"rfr/internal/codec"
)

// Allocated variants used by the core (§4.3).
const (
	VariantStreaming = "rfr-s"
	VariantChunk     = "rfr-c"
	VariantMeta      = "rfc-cm"
	VariantCallsites = "rfc-cc"
)

const maxIdentifierLen = 24

var (
	ErrUnsupportedFormat   = errors.New("format: unsupported variant")
	ErrUnsupportedVersion  = errors.New("format: unsupported version")
	ErrMalformedIdentifier = errors.New("format: malformed identifier")
)

// Identifier is a parsed `variant/major.minor.patch` format identifier.
type Identifier struct {
	Variant string
	Major   int
	Minor   int
	Patch   int
}

// String renders the identifier in its canonical wire form.
func (id Identifier) String() string {
	return fmt.Sprintf("%s/%d.%d.%d", id.Variant, id.Major, id.Minor, id.Patch)
}

// Encode appends the identifier as a Codec-encoded length-prefixed string.
func (id Identifier) Encode(buf []byte) []byte {
	return codec.AppendString(buf, id.String())
}

// Decode consumes a Codec-encoded format identifier from the front of buf.
func Decode(buf []byte) (Identifier, int, error) {
	s, n, err := codec.ConsumeString(buf)
	if err != nil {
		return Identifier{}, 0, err
	}
	id, err := Parse(s)
	if err != nil {
		return Identifier{}, 0, err
	}
	return id, n, nil
}

// Parse validates and decomposes a format identifier string per the §4.3
// grammar: `variant ("/" major "." minor "." patch)`, variant 1-8 printable
// ASCII characters excluding '/', each numeric component a decimal integer
// with no leading zeros except "0" itself, total length at most 24 bytes.
func Parse(s string) (Identifier, error) {
	if len(s) == 0 || len(s) > maxIdentifierLen {
		return Identifier{}, ErrMalformedIdentifier
	}
	variant, rest, ok := strings.Cut(s, "/")
	if !ok || len(variant) < 1 || len(variant) > 8 {
		return Identifier{}, ErrMalformedIdentifier
	}
	for _, r := range variant {
		if r < 0x20 || r > 0x7e {
			return Identifier{}, ErrMalformedIdentifier
		}
	}
	parts := strings.Split(rest, ".")
	if len(parts) != 3 {
		return Identifier{}, ErrMalformedIdentifier
	}
	nums := make([]int, 3)
	for i, p := range parts {
		if len(p) == 0 || (len(p) > 1 && p[0] == '0') {
			return Identifier{}, ErrMalformedIdentifier
		}
		for _, ch := range p {
			if ch < '0' || ch > '9' {
				return Identifier{}, ErrMalformedIdentifier
			}
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Identifier{}, ErrMalformedIdentifier
		}
		nums[i] = n
	}
	return Identifier{Variant: variant, Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Validate checks a decoded identifier against an expected variant and
// major version, per §4.3's compatibility rule: an unknown variant is
// ErrUnsupportedFormat, a known variant with an incompatible major version
// is ErrUnsupportedVersion. A newer minor/patch is accepted.
func Validate(id Identifier, wantVariant string, wantMajor int) error {
	if id.Variant != wantVariant {
		return ErrUnsupportedFormat
	}
	if id.Major != wantMajor {
		return ErrUnsupportedVersion
	}
	return nil
}

// DecodeAndValidate decodes a format identifier from buf and validates it
// against wantVariant/wantMajor in one step, returning the number of bytes
// consumed.
func DecodeAndValidate(buf []byte, wantVariant string, wantMajor int) (Identifier, int, error) {
	id, n, err := Decode(buf)
	if err != nil {
		return Identifier{}, 0, err
	}
	if err := Validate(id, wantVariant, wantMajor); err != nil {
		return Identifier{}, 0, err
	}
	return id, n, nil
}
