package datatypes

import "github.com/pkg/errors"

var ErrInvalidBCD = errors.New("Invalid BCD value")

// IntToBCD packs the lowest digits of v into BCD nibbles.
func IntToBCD(v uint32, digits int) uint32 {
	var bcd uint32
	for i := 0; i < digits; i++ {
		bcd |= (v % 10) << uint(4*i)
		v /= 10
	}
	return bcd
}

// BCDToInt unpacks digits BCD nibbles. Any nibble above 9 is an error.
func BCDToInt(bcd uint32, digits int) (uint32, error) {
	var v, mult uint32 = 0, 1
	for i := 0; i < digits; i++ {
		nibble := (bcd >> uint(4*i)) & 0xF
		if nibble > 9 {
			return 0, ErrInvalidBCD
		}
		v += nibble * mult
		mult *= 10
	}
	return v, nil
}

func SwapEndianWord(w uint32) uint32 {
	return ((w & 0x00FF) << 8) | ((w & 0xFF00) >> 8)
}

func SwapEndianDWord(dw uint32) uint32 {
	return ((dw & 0x000000FF) << 24) |
		((dw & 0x0000FF00) << 8) |
		((dw & 0x00FF0000) >> 8) |
		((dw & 0xFF000000) >> 24)
}
