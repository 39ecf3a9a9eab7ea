package awlsim

func (cpu *CPU) jumpTo(insn *Instruction) {
	cpu.relativeJump = insn.op0().LabelIndex - insn.Index
}

var checkLabel = checkOpTypes(OpLblRef)

// jumpHandler builds a conditional jump. after runs whether or not the
// jump is taken.
func jumpHandler(cond func(s *StatusWord) bool, after func(s *StatusWord)) insnDesc {
	return insnDesc{
		nrOps: ops(1),
		check: checkLabel,
		run: func(cpu *CPU, insn *Instruction) error {
			s := cpu.stw()
			if cond(s) {
				cpu.jumpTo(insn)
			}
			if after != nil {
				after(s)
			}
			return nil
		},
	}
}

// endChain is the status update of the VKE dependent jumps.
func endChain(s *StatusWord) { s.OR, s.STA, s.VKE, s.NER = 0, 1, 1, 0 }

func endBIEChain(s *StatusWord) { s.OR, s.NER = 0, 0 }

// runSPL jumps into the list of SPA instructions following it, or to
// its label when accu1 is past the end of the list.
func runSPL(cpu *CPU, insn *Instruction) error {
	insns := cpu.top().Block.Insns
	count := 0
	for i := insn.Index + 1; i < len(insns) && insns[i].Type == InsnSPA; i++ {
		count++
	}
	lookup := int(cpu.accu1().GetByte())
	if lookup >= count {
		cpu.jumpTo(insn)
		return nil
	}
	cpu.relativeJump = lookup + 1
	return nil
}

func runLOOP(cpu *CPU, insn *Instruction) error {
	a1 := cpu.accu1()
	v := (a1.GetWord() - 1) & 0xFFFF
	a1.SetWord(v)
	if v != 0 {
		cpu.jumpTo(insn)
	}
	return nil
}

func jumpHandlers() map[InsnType]insnDesc {
	always := func(s *StatusWord) bool { return true }
	return map[InsnType]insnDesc{
		InsnSPA:  jumpHandler(always, nil),
		InsnSPL:  {nrOps: ops(1), check: checkLabel, run: runSPL},
		InsnSPB:  jumpHandler(func(s *StatusWord) bool { return s.VKE == 1 }, endChain),
		InsnSPBN: jumpHandler(func(s *StatusWord) bool { return s.VKE == 0 }, endChain),
		InsnSPBB: jumpHandler(func(s *StatusWord) bool {
			s.BIE = s.VKE
			return s.VKE == 1
		}, endChain),
		InsnSPBNB: jumpHandler(func(s *StatusWord) bool {
			s.BIE = s.VKE
			return s.VKE == 0
		}, endChain),
		InsnSPBI:  jumpHandler(func(s *StatusWord) bool { return s.BIE == 1 }, endBIEChain),
		InsnSPBIN: jumpHandler(func(s *StatusWord) bool { return s.BIE == 0 }, endBIEChain),
		InsnSPO:   jumpHandler(func(s *StatusWord) bool { return s.OV == 1 }, nil),
		InsnSPS:   jumpHandler(func(s *StatusWord) bool { return s.OS == 1 }, func(s *StatusWord) { s.OS = 0 }),
		InsnSPZ:   jumpHandler(func(s *StatusWord) bool { return s.condition(OpMemSTWZ) == 1 }, nil),
		InsnSPN:   jumpHandler(func(s *StatusWord) bool { return s.condition(OpMemSTWNZ) == 1 }, nil),
		InsnSPP:   jumpHandler(func(s *StatusWord) bool { return s.condition(OpMemSTWPOS) == 1 }, nil),
		InsnSPM:   jumpHandler(func(s *StatusWord) bool { return s.condition(OpMemSTWNEG) == 1 }, nil),
		InsnSPPZ:  jumpHandler(func(s *StatusWord) bool { return s.condition(OpMemSTWPOSZ) == 1 }, nil),
		InsnSPMZ:  jumpHandler(func(s *StatusWord) bool { return s.condition(OpMemSTWNEGZ) == 1 }, nil),
		InsnSPU:   jumpHandler(func(s *StatusWord) bool { return s.condition(OpMemSTWUO) == 1 }, nil),
		InsnLOOP:  {nrOps: ops(1), check: checkLabel, run: runLOOP},
	}
}
