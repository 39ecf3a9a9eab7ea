package awlsim

// timerStart builds SI, SV, SE, SS and SA.
func timerStart(start func(t *Timer, vke uint8) error) insnDesc {
	return insnDesc{
		nrOps: ops(1),
		check: checkOpTypes(OpMemT),
		run: func(cpu *CPU, insn *Instruction) error {
			op, err := cpu.resolve(insn.op0(), false)
			if err != nil {
				return err
			}
			t, err := cpu.timerAt(op)
			if err != nil {
				return err
			}
			s := cpu.stw()
			if err := start(t, s.VKE); err != nil {
				return err
			}
			s.OR, s.NER = 0, 0
			return nil
		},
	}
}

// counterCount builds ZV and ZR.
func counterCount(count func(c *Counter, vke uint8)) insnDesc {
	return insnDesc{
		nrOps: ops(1),
		check: checkOpTypes(OpMemZ),
		run: func(cpu *CPU, insn *Instruction) error {
			op, err := cpu.resolve(insn.op0(), false)
			if err != nil {
				return err
			}
			c, err := cpu.counterAt(op)
			if err != nil {
				return err
			}
			s := cpu.stw()
			count(c, s.VKE)
			s.OR, s.NER = 0, 0
			return nil
		},
	}
}

// runFR enables a timer or a counter.
func runFR(cpu *CPU, insn *Instruction) error {
	op, err := cpu.resolve(insn.op0(), false)
	if err != nil {
		return err
	}
	s := cpu.stw()
	if op.Type == OpMemT {
		t, err := cpu.timerAt(op)
		if err != nil {
			return err
		}
		t.Enable(s.VKE)
	} else {
		c, err := cpu.counterAt(op)
		if err != nil {
			return err
		}
		c.Enable(s.VKE)
	}
	s.OR, s.NER = 0, 0
	return nil
}

func timerHandlers() map[InsnType]insnDesc {
	return map[InsnType]insnDesc{
		InsnSI: timerStart((*Timer).Pulse),
		InsnSV: timerStart((*Timer).ExtendedPulse),
		InsnSE: timerStart((*Timer).OnDelay),
		InsnSS: timerStart((*Timer).RetentiveOnDelay),
		InsnSA: timerStart((*Timer).OffDelay),
		InsnFR: {nrOps: ops(1), check: checkOpTypes(OpMemT, OpMemZ), run: runFR},
		InsnZV: counterCount((*Counter).Up),
		InsnZR: counterCount((*Counter).Down),
	}
}
