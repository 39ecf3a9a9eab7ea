package awlsim

import (
	"math"

	"awlsim/datatypes"

	"github.com/pkg/errors"
)

// setIntResult sets A1, A0, OV and OS from the unwrapped result r of an
// integer operation with the result range [lo, hi].
func (s *StatusWord) setIntResult(r, lo, hi int64) {
	switch {
	case r > hi:
		s.A1, s.A0, s.OV, s.OS = 0, 1, 1, 1
	case r < lo:
		s.A1, s.A0, s.OV, s.OS = 1, 0, 1, 1
	case r == 0:
		s.A1, s.A0, s.OV = 0, 0, 0
	case r < 0:
		s.A1, s.A0, s.OV = 0, 1, 0
	default:
		s.A1, s.A0, s.OV = 1, 0, 0
	}
}

// popAccus moves accu3 and accu4 down after a two operand operation.
func (cpu *CPU) popAccus() {
	if len(cpu.accus) == 4 {
		cpu.accus[1].CopyFrom(cpu.accus[2])
		cpu.accus[2].CopyFrom(cpu.accus[3])
	}
}

type intOp func(a2, a1 int64) (result int64, ok bool)

// intArith builds the 16 bit (+I, -I, ...) and 32 bit (+D, -D, ...)
// operations. ok false means division by zero.
func intArith(dword bool, op intOp) insnDesc {
	lo, hi := int64(math.MinInt16), int64(math.MaxInt16)
	if dword {
		lo, hi = math.MinInt32, math.MaxInt32
	}
	return insnDesc{
		nrOps: ops(0),
		run: func(cpu *CPU, insn *Instruction) error {
			a1, a2 := cpu.accu1(), cpu.accu2()
			var x2, x1 int64
			if dword {
				x2, x1 = int64(a2.SignedDWord()), int64(a1.SignedDWord())
			} else {
				x2, x1 = int64(a2.SignedWord()), int64(a1.SignedWord())
			}
			s := cpu.stw()
			cpu.popAccus()
			r, ok := op(x2, x1)
			if !ok {
				s.setOverflow()
				return nil
			}
			if dword {
				a1.SetDWord(uint32(r))
			} else {
				a1.SetWord(uint32(r))
			}
			s.setIntResult(r, lo, hi)
			return nil
		},
	}
}

func add(a2, a1 int64) (int64, bool) { return a2 + a1, true }
func sub(a2, a1 int64) (int64, bool) { return a2 - a1, true }
func mul(a2, a1 int64) (int64, bool) { return a2 * a1, true }

func div(a2, a1 int64) (int64, bool) {
	if a1 == 0 {
		return 0, false
	}
	return a2 / a1, true
}

func mod(a2, a1 int64) (int64, bool) {
	if a1 == 0 {
		return 0, false
	}
	return a2 % a1, true
}

// runMulInt is *I: the product of the low words lands in all of accu1.
func runMulInt(cpu *CPU, insn *Instruction) error {
	a1, a2 := cpu.accu1(), cpu.accu2()
	r := int64(a2.SignedWord()) * int64(a1.SignedWord())
	a1.SetDWord(uint32(int32(r)))
	cpu.popAccus()
	cpu.stw().setIntResult(r, math.MinInt16, math.MaxInt16)
	return nil
}

// runDivInt is /I: quotient in the low word, remainder in the high word.
func runDivInt(cpu *CPU, insn *Instruction) error {
	a1, a2 := cpu.accu1(), cpu.accu2()
	x2, x1 := int64(a2.SignedWord()), int64(a1.SignedWord())
	s := cpu.stw()
	cpu.popAccus()
	if x1 == 0 {
		s.setOverflow()
		return nil
	}
	quo, rem := x2/x1, x2%x1
	a1.SetDWord((uint32(rem)&0xFFFF)<<16 | uint32(quo)&0xFFFF)
	s.setIntResult(quo, math.MinInt16, math.MaxInt16)
	return nil
}

// runAddConst is "+ <constant>" and leaves the status word alone.
func runAddConst(cpu *CPU, insn *Instruction) error {
	op := insn.op0()
	a1 := cpu.accu1()
	if op.Width == 32 {
		a1.SetDWord(uint32(a1.SignedDWord() + int32(op.Value)))
		return nil
	}
	a1.SetWord(uint32(a1.SignedWord() + int32(int16(op.Value))))
	return nil
}

func realArith(op func(f2, f1 float64) float64) insnDesc {
	return insnDesc{
		nrOps: ops(0),
		run: func(cpu *CPU, insn *Instruction) error {
			a1, a2 := cpu.accu1(), cpu.accu2()
			r := op(a2.Float(), a1.Float())
			a1.SetFloat(r)
			cpu.popAccus()
			cpu.stw().SetForFloatingPoint(datatypes.RawFloatToDWord(r))
			return nil
		},
	}
}

// realFunc builds the single operand REAL functions on accu1.
func realFunc(f func(x float64) float64) insnDesc {
	return insnDesc{
		nrOps: ops(0),
		run: func(cpu *CPU, insn *Instruction) error {
			a1 := cpu.accu1()
			if datatypes.IsNaN(a1.Get()) {
				a1.Set(datatypes.NNaNDWord)
				cpu.stw().SetForFloatingPoint(a1.Get())
				return nil
			}
			r := f(a1.Float())
			a1.SetFloat(r)
			// Flags see the result before denormals are flushed.
			cpu.stw().SetForFloatingPoint(datatypes.RawFloatToDWord(r))
			return nil
		},
	}
}

// tan is infinite at odd multiples of pi/2.
func tan(x float64) float64 {
	r := math.Remainder(x, 2*math.Pi)
	switch {
	case math.Abs(r-math.Pi/2) < 1e-6:
		return math.Inf(1)
	case math.Abs(r+math.Pi/2) < 1e-6:
		return math.Inf(-1)
	}
	return math.Tan(x)
}

func runABS(cpu *CPU, insn *Instruction) error {
	a1 := cpu.accu1()
	a1.Set(a1.Get() & 0x7FFFFFFF)
	return nil
}

var errAddConstWidth = errors.New("Invalid operator width. Expected a 16 or 32 bit constant.")

func arithHandlers() map[InsnType]insnDesc {
	return map[InsnType]insnDesc{
		InsnPLI: intArith(false, add),
		InsnMII: intArith(false, sub),
		InsnMUI: {nrOps: ops(0), run: runMulInt},
		InsnDII: {nrOps: ops(0), run: runDivInt},
		InsnPL: {
			nrOps: ops(1),
			check: func(insn *Instruction) error {
				if err := insn.op0().checkType(OpImm); err != nil {
					return err
				}
				if w := insn.op0().Width; w != 16 && w != 32 {
					return errAddConstWidth
				}
				return nil
			},
			run: runAddConst,
		},
		InsnPLD:  intArith(true, add),
		InsnMID:  intArith(true, sub),
		InsnMUD:  intArith(true, mul),
		InsnDID:  intArith(true, div),
		InsnMOD:  intArith(true, mod),
		InsnPLR:  realArith(func(f2, f1 float64) float64 { return f2 + f1 }),
		InsnMIR:  realArith(func(f2, f1 float64) float64 { return f2 - f1 }),
		InsnMUR:  realArith(func(f2, f1 float64) float64 { return f2 * f1 }),
		InsnDIR:  realArith(func(f2, f1 float64) float64 { return f2 / f1 }),
		InsnABS:  {nrOps: ops(0), run: runABS},
		InsnSQR:  realFunc(func(x float64) float64 { return x * x }),
		InsnSQRT: realFunc(math.Sqrt),
		InsnEXP:  realFunc(math.Exp),
		InsnLN:   realFunc(math.Log),
		InsnSIN:  realFunc(math.Sin),
		InsnCOS:  realFunc(math.Cos),
		InsnTAN:  realFunc(tan),
		InsnASIN: realFunc(math.Asin),
		InsnACOS: realFunc(math.Acos),
		InsnATAN: realFunc(math.Atan),
	}
}
