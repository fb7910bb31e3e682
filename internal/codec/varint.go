package codec

import "math/big"

// maxVarintBytesU64 is the most continuation bytes a valid 64-bit unsigned
// varint can use: ceil(64/7) = 10.
const maxVarintBytesU64 = 10

// maxVarintBytesU128 is the most continuation bytes a valid 128-bit unsigned
// varint can use: ceil(128/7) = 19.
const maxVarintBytesU128 = 19

// AppendUvarint appends v to buf as an unsigned LEB128-style varint: 7
// payload bits per byte, low-to-high, with the top bit of each byte set
// except on the final byte.
func AppendUvarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// ConsumeUvarint decodes an unsigned varint from the head of buf, returning
// the value and the number of bytes consumed.
func ConsumeUvarint(buf []byte) (uint64, int, error) {
	var v uint64
	var shift uint
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if i >= maxVarintBytesU64 {
			return 0, 0, ErrOverlongVarint
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, ErrTruncatedInput
}

// zigzagEncode maps signed integers to unsigned so that small-magnitude
// values (positive or negative) encode in few bytes: 0,-1,1,-2,2 -> 0,1,2,3,4.
func zigzagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func zigzagDecode(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

// AppendVarint appends v to buf as a zigzag-encoded signed varint.
func AppendVarint(buf []byte, v int64) []byte {
	return AppendUvarint(buf, zigzagEncode(v))
}

// ConsumeVarint decodes a zigzag-encoded signed varint.
func ConsumeVarint(buf []byte) (int64, int, error) {
	u, n, err := ConsumeUvarint(buf)
	if err != nil {
		return 0, 0, err
	}
	return zigzagDecode(u), n, nil
}

// AppendUvarint128 appends an arbitrary-magnitude unsigned value (up to 128
// bits) as a varint. v must be non-negative and fit in 128 bits; callers are
// expected to have constructed v from a uint128-shaped source (the schema
// package's U128 field-value kind).
func AppendUvarint128(buf []byte, v *big.Int) []byte {
	if v.Sign() == 0 {
		return append(buf, 0)
	}
	rest := new(big.Int).Set(v)
	mask := big.NewInt(0x7f)
	for rest.Sign() != 0 {
		low := new(big.Int).And(rest, mask)
		rest.Rsh(rest, 7)
		b := byte(low.Uint64())
		if rest.Sign() != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
	}
	return buf
}

// ConsumeUvarint128 decodes a varint into an arbitrary-magnitude unsigned
// big.Int, returning the value and bytes consumed.
func ConsumeUvarint128(buf []byte) (*big.Int, int, error) {
	v := new(big.Int)
	shift := uint(0)
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if i >= maxVarintBytesU128 {
			return nil, 0, ErrOverlongVarint
		}
		chunk := new(big.Int).Lsh(big.NewInt(int64(b&0x7f)), shift)
		v.Or(v, chunk)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
		shift += 7
	}
	return nil, 0, ErrTruncatedInput
}

// AppendVarint128 zigzag-encodes a signed 128-bit value (represented as a
// big.Int, which may be negative) and appends it as a varint.
func AppendVarint128(buf []byte, v *big.Int) []byte {
	var u big.Int
	if v.Sign() < 0 {
		// zigzag: (v << 1) XOR (v >> 127), computed on the two's-complement
		// bit pattern is awkward with big.Int's sign-magnitude form, so we
		// use the equivalent arithmetic definition directly:
		// negative v -> u = (-v)*2 - 1 ; non-negative v -> u = v*2.
		neg := new(big.Int).Neg(v)
		u.Lsh(neg, 1)
		u.Sub(&u, big.NewInt(1))
	} else {
		u.Lsh(v, 1)
	}
	return AppendUvarint128(buf, &u)
}

// ConsumeVarint128 decodes a zigzag-encoded signed 128-bit varint.
func ConsumeVarint128(buf []byte) (*big.Int, int, error) {
	u, n, err := ConsumeUvarint128(buf)
	if err != nil {
		return nil, 0, err
	}
	v := new(big.Int)
	if u.Bit(0) == 1 {
		// odd -> negative: v = -(u+1)/2
		tmp := new(big.Int).Add(u, big.NewInt(1))
		tmp.Rsh(tmp, 1)
		v.Neg(tmp)
	} else {
		v.Rsh(u, 1)
	}
	return v, n, nil
}
