package datatypes

import "fmt"

// Cell is a fixed width (1 to 32 bit) register value.
// value&mask == value holds after every mutation.
type Cell struct {
	value uint32
	mask  uint32
}

func MakeCell(width int) Cell {
	if width <= 0 || width > 32 {
		panic("invalid cell width")
	}
	return Cell{mask: uint32((uint64(1) << width) - 1)}
}

// NewAccu returns a 32 bit accumulator register.
func NewAccu() *Cell {
	c := MakeCell(32)
	return &c
}

func (c *Cell) Width() int {
	w := 0
	for m := c.mask; m != 0; m >>= 1 {
		w++
	}
	return w
}

func (c *Cell) Get() uint32 { return c.value }

func (c *Cell) Set(v uint32) { c.value = v & c.mask }

func (c *Cell) CopyFrom(other *Cell) { c.value = other.value & c.mask }

func (c *Cell) GetByte() uint32  { return c.value & 0xFF }
func (c *Cell) GetWord() uint32  { return c.value & 0xFFFF }
func (c *Cell) GetDWord() uint32 { return c.value }

func (c *Cell) SetByte(v uint32) {
	c.value = ((c.value & 0xFFFFFF00) | (v & 0xFF)) & c.mask
}

func (c *Cell) SetWord(v uint32) {
	c.value = ((c.value & 0xFFFF0000) | (v & 0xFFFF)) & c.mask
}

func (c *Cell) SetDWord(v uint32) { c.value = v & c.mask }

func (c *Cell) SignedByte() int32  { return int32(int8(c.value)) }
func (c *Cell) SignedWord() int32  { return int32(int16(c.value)) }
func (c *Cell) SignedDWord() int32 { return int32(c.value) }

func (c *Cell) Float() float64 { return DWordToFloat(c.value) }

func (c *Cell) SetFloat(f float64) { c.Set(FloatToDWord(f)) }

func (c *Cell) GetBit(n int) uint8 { return uint8((c.value >> uint(n)) & 1) }

func (c *Cell) SetBit(n int) { c.value = (c.value | (1 << uint(n))) & c.mask }

func (c *Cell) ClearBit(n int) { c.value &^= 1 << uint(n) }

func (c *Cell) SetBitValue(n int, v uint8) {
	if v != 0 {
		c.SetBit(n)
	} else {
		c.ClearBit(n)
	}
}

func (c *Cell) Hex() string {
	switch c.mask {
	case 0xFF:
		return fmt.Sprintf("%02X", c.value)
	case 0xFFFF:
		return fmt.Sprintf("%04X", c.value)
	case 0xFFFFFFFF:
		return fmt.Sprintf("%08X", c.value)
	}
	return fmt.Sprintf("%X", c.value)
}

// AddressRegister is AR1/AR2: a 32 bit pointer register.
type AddressRegister struct {
	Cell
}

func NewAddressRegister() *AddressRegister {
	return &AddressRegister{Cell: MakeCell(32)}
}

func (ar *AddressRegister) PointerString() string {
	return FormatPointer(ar.GetDWord())
}
