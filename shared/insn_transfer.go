package awlsim

import "github.com/pkg/errors"

var loadOperTypes = []OperType{
	OpImm, OpImmReal, OpImmS5T, OpImmTime, OpImmPtr, OpImmStr,
	OpMemE, OpMemA, OpMemM, OpMemL, OpMemVL, OpMemDB, OpMemDI, OpMemInterfDB, OpMemPE,
	OpMemT, OpMemZ, OpMemSTW, OpVirtAccu, OpVirtAR,
}

var storeOperTypes = []OperType{
	OpMemE, OpMemA, OpMemM, OpMemL, OpMemVL, OpMemDB, OpMemDI, OpMemInterfDB, OpMemPA,
	OpMemSTW, OpVirtAccu, OpVirtAR,
}

// checkWordOps allows byte, word and dword operators plus timers and
// counters.
func checkWordOps(types ...OperType) func(*Instruction) error {
	return func(insn *Instruction) error {
		for _, op := range insn.Ops {
			if err := op.checkType(types...); err != nil {
				return err
			}
			if isNumbered(op) || op.Type == OpIndirect {
				continue
			}
			if err := op.checkWidth(8, 16, 32); err != nil {
				return err
			}
		}
		return nil
	}
}

// pushAccu shifts the accus up by one and loads value into accu1.
func (cpu *CPU) pushAccu(value uint32) {
	for i := len(cpu.accus) - 1; i > 0; i-- {
		cpu.accus[i].CopyFrom(cpu.accus[i-1])
	}
	cpu.accu1().Set(value)
}

// loadHandler builds L and LC. Timers and counters load their value in
// binary (L) or BCD/S5T (LC) form.
func loadHandler(bcd bool) insnDesc {
	types := loadOperTypes
	if bcd {
		types = []OperType{OpMemT, OpMemZ}
	}
	return insnDesc{
		nrOps: ops(1),
		check: checkWordOps(types...),
		run: func(cpu *CPU, insn *Instruction) error {
			op, err := cpu.resolve(insn.op0(), false)
			if err != nil {
				return err
			}
			var value uint32
			switch op.Type {
			case OpMemT:
				t, err := cpu.timerAt(op)
				if err != nil {
					return err
				}
				if bcd {
					value = t.TimevalS5T()
				} else {
					value = t.TimevalBin()
				}
			case OpMemZ:
				c, err := cpu.counterAt(op)
				if err != nil {
					return err
				}
				if bcd {
					value = c.ValueBCD()
				} else {
					value = c.ValueBin()
				}
			default:
				if bcd {
					return errors.Errorf("Invalid operator type. Got %s, but expected [T Z].", op.Type)
				}
				if err := op.checkWidth(8, 16, 32); err != nil {
					return err
				}
				if value, err = cpu.fetchDirect(op); err != nil {
					return err
				}
			}
			cpu.pushAccu(value)
			return nil
		},
	}
}

func runTransfer(cpu *CPU, insn *Instruction) error {
	var value uint32
	if cpu.mcrIsOn() {
		value = cpu.accu1().Get()
	}
	return cpu.store(insn.op0(), value, 8, 16, 32)
}

func larHandler(nr int) insnDesc {
	return insnDesc{
		nrOps: ops(0, 1),
		check: checkAll(
			checkOpTypes(OpImm, OpImmPtr, OpMemM, OpMemL, OpMemVL, OpMemDB, OpMemDI, OpMemInterfDB, OpVirtAR),
			checkOpWidths(32),
		),
		run: func(cpu *CPU, insn *Instruction) error {
			ar, _ := cpu.AR(nr)
			if len(insn.Ops) == 0 {
				ar.Set(cpu.accu1().Get())
				return nil
			}
			value, err := cpu.fetch(insn.op0(), 32)
			if err != nil {
				return err
			}
			ar.Set(value)
			return nil
		},
	}
}

func tarHandler(nr int) insnDesc {
	return insnDesc{
		nrOps: ops(0, 1),
		check: checkAll(
			checkOpTypes(OpMemM, OpMemL, OpMemVL, OpMemDB, OpMemDI, OpMemInterfDB, OpVirtAR),
			checkOpWidths(32),
		),
		run: func(cpu *CPU, insn *Instruction) error {
			ar, _ := cpu.AR(nr)
			if len(insn.Ops) == 0 {
				cpu.pushAccu(ar.Get())
				return nil
			}
			return cpu.store(insn.op0(), ar.Get(), 32)
		},
	}
}

// incARHandler builds +AR1 and +AR2. The offset is accu1-L or a
// pointer constant.
func incARHandler(nr int) insnDesc {
	return insnDesc{
		nrOps: ops(0, 1),
		check: checkOpTypes(OpImmPtr),
		run: func(cpu *CPU, insn *Instruction) error {
			ar, _ := cpu.AR(nr)
			var off uint32
			if len(insn.Ops) == 0 {
				off = uint32(cpu.accu1().SignedWord())
			} else {
				off = insn.op0().Value & uint32(AddressMask)
			}
			v := ar.Get()
			ar.Set((v & uint32(AreaMask)) | ((v + off) & uint32(AddressMask)))
			return nil
		},
	}
}

func accuHandler(run func(cpu *CPU)) insnDesc {
	return insnDesc{
		nrOps: ops(0),
		run: func(cpu *CPU, insn *Instruction) error {
			run(cpu)
			return nil
		},
	}
}

func runTAK(cpu *CPU) {
	a1, a2 := cpu.accu1(), cpu.accu2()
	v := a1.Get()
	a1.CopyFrom(a2)
	a2.Set(v)
}

func runPOP(cpu *CPU) {
	for i := 0; i < len(cpu.accus)-1; i++ {
		cpu.accus[i].CopyFrom(cpu.accus[i+1])
	}
}

func runENT(cpu *CPU) {
	if len(cpu.accus) == 4 {
		cpu.accus[3].CopyFrom(cpu.accus[2])
		cpu.accus[2].CopyFrom(cpu.accus[1])
	}
}

func runLEAVE(cpu *CPU) {
	if len(cpu.accus) == 4 {
		cpu.accus[1].CopyFrom(cpu.accus[2])
		cpu.accus[2].CopyFrom(cpu.accus[3])
	}
}

func runTAR(cpu *CPU) {
	v := cpu.ar[0].Get()
	cpu.ar[0].CopyFrom(&cpu.ar[1].Cell)
	cpu.ar[1].Set(v)
}

func incHandler(sign int32) insnDesc {
	return insnDesc{
		nrOps: ops(1),
		check: checkAll(checkOpTypes(OpImm), func(insn *Instruction) error {
			if v := int16(insn.op0().Value); v < 0 || v > 255 {
				return errors.Errorf("Increment/decrement value %d out of range. Expected 0-255.", v)
			}
			return nil
		}),
		run: func(cpu *CPU, insn *Instruction) error {
			a1 := cpu.accu1()
			a1.SetByte(uint32(int32(a1.GetByte()) + sign*int32(insn.op0().Value)))
			return nil
		},
	}
}

// wordLogicHandler builds UW, OW, ... The second operand is accu2 or an
// immediate.
func wordLogicHandler(dword bool, op func(a, b uint32) uint32) insnDesc {
	width := 16
	if dword {
		width = 32
	}
	return insnDesc{
		nrOps: ops(0, 1),
		check: checkAll(checkOpTypes(OpImm), checkOpWidths(width)),
		run: func(cpu *CPU, insn *Instruction) error {
			a1 := cpu.accu1()
			var b uint32
			if len(insn.Ops) == 1 {
				b = insn.op0().Value
			} else {
				b = cpu.accu2().Get()
			}
			var r uint32
			if dword {
				r = op(a1.GetDWord(), b)
				a1.SetDWord(r)
			} else {
				r = op(a1.GetWord(), b) & 0xFFFF
				a1.SetWord(r)
			}
			s := cpu.stw()
			s.A1, s.A0, s.OV = 0, 0, 0
			if r != 0 {
				s.A1 = 1
			}
			return nil
		},
	}
}

// shiftFunc shifts v by 1 <= n <= width and returns the last bit
// shifted out.
type shiftFunc func(v uint32, n uint) (result uint32, out uint8)

func shiftHandler(width uint, dword bool, f shiftFunc) insnDesc {
	return insnDesc{
		nrOps: ops(0, 1),
		check: checkOpTypes(OpImm),
		run: func(cpu *CPU, insn *Instruction) error {
			var n uint
			if len(insn.Ops) == 1 {
				n = uint(insn.op0().Value & 0xFF)
			} else {
				n = uint(cpu.accu2().GetByte())
			}
			if n == 0 {
				return nil
			}
			if n > width {
				n = width
			}
			a1 := cpu.accu1()
			var r uint32
			var out uint8
			if dword {
				r, out = f(a1.GetDWord(), n)
				a1.SetDWord(r)
			} else {
				r, out = f(a1.GetWord(), n)
				a1.SetWord(r)
			}
			s := cpu.stw()
			s.A1, s.A0, s.OV = out, 0, 0
			return nil
		},
	}
}

func shl(width uint) shiftFunc {
	mask := uint32(1<<width - 1)
	return func(v uint32, n uint) (uint32, uint8) {
		return (v << n) & mask, uint8((v >> (width - n)) & 1)
	}
}

func shr(v uint32, n uint) (uint32, uint8) {
	return v >> n, uint8((v >> (n - 1)) & 1)
}

func sshr(width uint) shiftFunc {
	return func(v uint32, n uint) (uint32, uint8) {
		sv := int64(int32(v << (32 - width)) >> (32 - width))
		return uint32(sv>>n) & uint32(1<<width-1), uint8((sv >> (n - 1)) & 1)
	}
}

func rotl(v uint32, n uint) (uint32, uint8) {
	r := v<<(n%32) | v>>((32-n%32)%32)
	return r, uint8(r & 1)
}

func rotr(v uint32, n uint) (uint32, uint8) {
	r := v>>(n%32) | v<<((32-n%32)%32)
	return r, uint8(r >> 31)
}

func runRLDA(cpu *CPU) {
	a1, s := cpu.accu1(), cpu.stw()
	v := a1.Get()
	a1.Set(v<<1 | uint32(s.A1))
	s.A1, s.A0, s.OV = uint8(v>>31), 0, 0
}

func runRRDA(cpu *CPU) {
	a1, s := cpu.accu1(), cpu.stw()
	v := a1.Get()
	a1.Set(v>>1 | uint32(s.A1)<<31)
	s.A1, s.A0, s.OV = uint8(v&1), 0, 0
}

var nopDesc = insnDesc{
	nrOps: ops(0, 1),
	check: checkOpTypes(OpImm),
	run:   func(cpu *CPU, insn *Instruction) error { return nil },
}

func transferHandlers() map[InsnType]insnDesc {
	return map[InsnType]insnDesc{
		InsnL:  loadHandler(false),
		InsnLC: loadHandler(true),
		InsnT: {
			nrOps: ops(1),
			check: checkWordOps(storeOperTypes...),
			run:   runTransfer,
		},
		InsnLAR1:   larHandler(1),
		InsnLAR2:   larHandler(2),
		InsnTAR1:   tarHandler(1),
		InsnTAR2:   tarHandler(2),
		InsnTAR:    accuHandler(runTAR),
		InsnINCAR1: incARHandler(1),
		InsnINCAR2: incARHandler(2),
		InsnTAK:    accuHandler(runTAK),
		InsnPUSH:   accuHandler(func(cpu *CPU) { cpu.pushAccu(cpu.accu1().Get()) }),
		InsnPOP:    accuHandler(runPOP),
		InsnENT:    accuHandler(runENT),
		InsnLEAVE:  accuHandler(runLEAVE),
		InsnINC:    incHandler(1),
		InsnDEC:    incHandler(-1),
		InsnUW:     wordLogicHandler(false, func(a, b uint32) uint32 { return a & b }),
		InsnOW:     wordLogicHandler(false, func(a, b uint32) uint32 { return a | b }),
		InsnXOW:    wordLogicHandler(false, func(a, b uint32) uint32 { return a ^ b }),
		InsnUD:     wordLogicHandler(true, func(a, b uint32) uint32 { return a & b }),
		InsnOD:     wordLogicHandler(true, func(a, b uint32) uint32 { return a | b }),
		InsnXOD:    wordLogicHandler(true, func(a, b uint32) uint32 { return a ^ b }),
		InsnSSI:    shiftHandler(16, false, sshr(16)),
		InsnSSD:    shiftHandler(32, true, sshr(32)),
		InsnSLW:    shiftHandler(16, false, shl(16)),
		InsnSRW:    shiftHandler(16, false, shr),
		InsnSLD:    shiftHandler(32, true, shl(32)),
		InsnSRD:    shiftHandler(32, true, shr),
		InsnRLD:    shiftHandler(32, true, rotl),
		InsnRRD:    shiftHandler(32, true, rotr),
		InsnRLDA:   accuHandler(runRLDA),
		InsnRRDA:   accuHandler(runRRDA),
		InsnBLD:    nopDesc,
		InsnNOP:    nopDesc,
	}
}
