package awlsim

import (
	"awlsim/datatypes"

	"github.com/pkg/errors"
)

const counterMax = 999

// Counter is one up/down counter in the range 0..999.
type Counter struct {
	index int
	value uint32

	prevSet  uint8
	prevUp   uint8
	prevDown uint8
	prevFR   uint8
}

func (c *Counter) Index() int { return c.index }

// Get returns the counter status bit.
func (c *Counter) Get() uint8 {
	if c.value != 0 {
		return 1
	}
	return 0
}

func (c *Counter) ValueBin() uint32 { return c.value }

func (c *Counter) ValueBCD() uint32 { return datatypes.IntToBCD(c.value, 3) }

// Set loads the BCD value of accu1 on a positive VKE edge.
func (c *Counter) Set(vke uint8, accu1 uint32) error {
	if vke == 1 && c.prevSet == 0 {
		bcd := accu1 & 0xFFFF
		if bcd > 0x999 {
			return ErrInvalidBCD
		}
		v, err := datatypes.BCDToInt(bcd, 3)
		if err != nil {
			return err
		}
		c.value = v
	}
	c.prevSet = vke
	return nil
}

func (c *Counter) Reset() { c.value = 0 }

// Enable runs FR on the counter.
func (c *Counter) Enable(vke uint8) {
	if vke == 1 && c.prevFR == 0 {
		c.prevSet = 0
		c.prevUp = 0
		c.prevDown = 0
	}
	c.prevFR = vke
}

func (c *Counter) Up(vke uint8) {
	if vke == 1 && c.prevUp == 0 && c.value < counterMax {
		c.value++
	}
	c.prevUp = vke
}

func (c *Counter) Down(vke uint8) {
	if vke == 1 && c.prevDown == 0 && c.value > 0 {
		c.value--
	}
	c.prevDown = vke
}

// counterAt is the counter referenced by a resolved Z operator.
func (cpu *CPU) counterAt(op *Operator) (*Counter, error) {
	if op.Type != OpMemZ {
		return nil, errors.Errorf("Invalid operator type. Got %s, but expected Z.", op.Type)
	}
	return cpu.Counter(op.Offset.Byte)
}
