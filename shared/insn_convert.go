package awlsim

import (
	"math"

	"awlsim/datatypes"
)

// BCD words carry three digits and a sign nibble, BCD dwords seven.
const (
	bcdWordDigits  = 3
	bcdDWordDigits = 7
)

func bcdToInt(bcd uint32, digits int) (int64, error) {
	v, err := datatypes.BCDToInt(bcd, digits)
	if err != nil {
		return 0, err
	}
	if bcd&(0x8<<(4*uint(digits))) != 0 {
		return -int64(v), nil
	}
	return int64(v), nil
}

func intToBCD(v int64, digits int) uint32 {
	sign := uint32(0)
	if v < 0 {
		sign = 0xF
		v = -v
	}
	return sign<<(4*uint(digits)) | datatypes.IntToBCD(uint32(v), digits)
}

func runBTI(cpu *CPU, insn *Instruction) error {
	a1 := cpu.accu1()
	v, err := bcdToInt(a1.GetWord(), bcdWordDigits)
	if err != nil {
		return err
	}
	a1.SetWord(uint32(v))
	return nil
}

func runITB(cpu *CPU, insn *Instruction) error {
	a1 := cpu.accu1()
	v := int64(a1.SignedWord())
	if v > 999 || v < -999 {
		s := cpu.stw()
		s.OV, s.OS = 1, 1
		return nil
	}
	a1.SetWord(intToBCD(v, bcdWordDigits))
	cpu.stw().OV = 0
	return nil
}

func runBTD(cpu *CPU, insn *Instruction) error {
	a1 := cpu.accu1()
	v, err := bcdToInt(a1.GetDWord(), bcdDWordDigits)
	if err != nil {
		return err
	}
	a1.SetDWord(uint32(v))
	return nil
}

func runDTB(cpu *CPU, insn *Instruction) error {
	a1 := cpu.accu1()
	v := int64(a1.SignedDWord())
	if v > 9999999 || v < -9999999 {
		s := cpu.stw()
		s.OV, s.OS = 1, 1
		return nil
	}
	a1.SetDWord(intToBCD(v, bcdDWordDigits))
	cpu.stw().OV = 0
	return nil
}

func runITD(cpu *CPU, insn *Instruction) error {
	a1 := cpu.accu1()
	a1.SetDWord(uint32(a1.SignedWord()))
	return nil
}

func runDTR(cpu *CPU, insn *Instruction) error {
	a1 := cpu.accu1()
	a1.SetFloat(float64(a1.SignedDWord()))
	return nil
}

func runNEGI(cpu *CPU, insn *Instruction) error {
	a1 := cpu.accu1()
	r := -int64(a1.SignedWord())
	a1.SetWord(uint32(r))
	cpu.stw().setIntResult(r, math.MinInt16, math.MaxInt16)
	return nil
}

func runNEGD(cpu *CPU, insn *Instruction) error {
	a1 := cpu.accu1()
	r := -int64(a1.SignedDWord())
	a1.SetDWord(uint32(r))
	cpu.stw().setIntResult(r, math.MinInt32, math.MaxInt32)
	return nil
}

func runNEGR(cpu *CPU, insn *Instruction) error {
	a1 := cpu.accu1()
	a1.Set(a1.Get() ^ 0x80000000)
	cpu.stw().SetForFloatingPoint(a1.Get())
	return nil
}

// roundHandler converts the REAL in accu1 to DINT. Out of range values
// set OV and OS and leave accu1 alone.
func roundHandler(round func(float64) float64) insnDesc {
	return insnDesc{
		nrOps: ops(0),
		run: func(cpu *CPU, insn *Instruction) error {
			a1 := cpu.accu1()
			s := cpu.stw()
			if datatypes.IsNaN(a1.Get()) {
				s.OV, s.OS = 1, 1
				return nil
			}
			r := round(a1.Float())
			if r > math.MaxInt32 || r < math.MinInt32 {
				s.OV, s.OS = 1, 1
				return nil
			}
			a1.SetDWord(uint32(int32(r)))
			return nil
		},
	}
}

func accuMap(f func(a1 *datatypes.Cell)) insnDesc {
	return insnDesc{
		nrOps: ops(0),
		run: func(cpu *CPU, insn *Instruction) error {
			f(cpu.accu1())
			return nil
		},
	}
}

func convertHandlers() map[InsnType]insnDesc {
	return map[InsnType]insnDesc{
		InsnBTI:   {nrOps: ops(0), run: runBTI},
		InsnITB:   {nrOps: ops(0), run: runITB},
		InsnBTD:   {nrOps: ops(0), run: runBTD},
		InsnDTB:   {nrOps: ops(0), run: runDTB},
		InsnITD:   {nrOps: ops(0), run: runITD},
		InsnDTR:   {nrOps: ops(0), run: runDTR},
		InsnNEGI:  {nrOps: ops(0), run: runNEGI},
		InsnNEGD:  {nrOps: ops(0), run: runNEGD},
		InsnNEGR:  {nrOps: ops(0), run: runNEGR},
		InsnINVI:  accuMap(func(a1 *datatypes.Cell) { a1.SetWord(^a1.GetWord()) }),
		InsnINVD:  accuMap(func(a1 *datatypes.Cell) { a1.SetDWord(^a1.GetDWord()) }),
		InsnTAW:   accuMap(func(a1 *datatypes.Cell) { a1.SetWord(datatypes.SwapEndianWord(a1.GetWord())) }),
		InsnTAD:   accuMap(func(a1 *datatypes.Cell) { a1.SetDWord(datatypes.SwapEndianDWord(a1.GetDWord())) }),
		InsnRND:   roundHandler(math.RoundToEven),
		InsnTRUNC: roundHandler(math.Trunc),
		InsnRNDP:  roundHandler(math.Ceil),
		InsnRNDN:  roundHandler(math.Floor),
	}
}
