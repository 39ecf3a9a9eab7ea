package datatypes

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrOffsetOutOfRange = errors.New("Operator offset out of range")

// Offset is a byte.bit address inside a memory area.
type Offset struct {
	Byte int
	Bit  int
}

func OffsetFromPointer(p uint32) Offset {
	return Offset{
		Byte: int((p & 0x00FFFFF8) >> 3),
		Bit:  int(p & 7),
	}
}

func (o Offset) Pointer() uint32 {
	return ((uint32(o.Byte) << 3) & 0x00FFFFF8) | (uint32(o.Bit) & 7)
}

// Add sums two offsets, carrying bits into bytes.
func (o Offset) Add(other Offset) Offset {
	bits := o.Byte*8 + o.Bit + other.Byte*8 + other.Bit
	return Offset{Byte: bits / 8, Bit: bits % 8}
}

func (o Offset) String() string {
	return fmt.Sprintf("%d.%d", o.Byte, o.Bit)
}

// ByteArray is a big endian byte addressable memory area.
type ByteArray []byte

func (b ByteArray) Fetch(off Offset, width int) (uint32, error) {
	n := off.Byte
	if n < 0 || n+max(width/8, 1) > len(b) {
		return 0, errors.Wrap(ErrOffsetOutOfRange, "fetch")
	}
	switch width {
	case 1:
		return uint32(b[n]>>uint(off.Bit)) & 1, nil
	case 8:
		return uint32(b[n]), nil
	case 16:
		return uint32(b[n])<<8 | uint32(b[n+1]), nil
	case 32:
		return uint32(b[n])<<24 | uint32(b[n+1])<<16 |
			uint32(b[n+2])<<8 | uint32(b[n+3]), nil
	}
	return 0, errors.Errorf("fetch: invalid width %d", width)
}

func (b ByteArray) Store(off Offset, width int, value uint32) error {
	n := off.Byte
	if n < 0 || n+max(width/8, 1) > len(b) {
		return errors.Wrap(ErrOffsetOutOfRange, "store")
	}
	switch width {
	case 1:
		if value != 0 {
			b[n] |= 1 << uint(off.Bit)
		} else {
			b[n] &^= 1 << uint(off.Bit)
		}
	case 8:
		b[n] = byte(value)
	case 16:
		b[n] = byte(value >> 8)
		b[n+1] = byte(value)
	case 32:
		b[n] = byte(value >> 24)
		b[n+1] = byte(value >> 16)
		b[n+2] = byte(value >> 8)
		b[n+3] = byte(value)
	default:
		return errors.Errorf("store: invalid width %d", width)
	}
	return nil
}

// Clear zeroes the whole area.
func (b ByteArray) Clear() {
	for i := range b {
		b[i] = 0
	}
}
