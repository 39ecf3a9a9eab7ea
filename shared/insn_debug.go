package awlsim

import (
	"time"

	"awlsim/datatypes"

	"github.com/pkg/errors"
)

// sleepSlice is the granularity of __SLEEP.
const sleepSlice = 50 * time.Millisecond

func assertHandler(pred func(a, b uint32) bool, op string) insnDesc {
	return insnDesc{
		nrOps: ops(2),
		run: func(cpu *CPU, insn *Instruction) error {
			a, err := cpu.fetch(insn.Ops[0])
			if err != nil {
				return err
			}
			b, err := cpu.fetch(insn.Ops[1])
			if err != nil {
				return err
			}
			if !pred(a, b) {
				return errors.Wrapf(ErrAssertionFailed, "0x%X %s 0x%X", a, op, b)
			}
			cpu.stw().NER = 0
			return nil
		},
	}
}

func floatEqual(a, b uint32) bool {
	if datatypes.IsNaN(a) || datatypes.IsNaN(b) {
		return datatypes.IsNaN(a) && datatypes.IsNaN(b)
	}
	return datatypes.FloatEqual(datatypes.DWordToFloat(a), datatypes.DWordToFloat(b))
}

// runSleep waits in slices, keeping the clock and the screen fresh.
func runSleep(cpu *CPU, insn *Instruction) error {
	ms, err := cpu.fetch(insn.op0())
	if err != nil {
		return err
	}
	if limit := cpu.Config.CycleTimeLimit; limit > 0 && float64(ms)/1000 >= limit {
		return errors.New("__SLEEP time exceed cycle time limit")
	}
	for left := time.Duration(ms) * time.Millisecond; left > 0; left -= sleepSlice {
		time.Sleep(min(left, sleepSlice))
		cpu.updateClock()
		cpu.ScreenUpdate.call()
		if err := cpu.checkCycleTime(); err != nil {
			return err
		}
	}
	return nil
}

func runSTWRST(cpu *CPU, insn *Instruction) error {
	cpu.stw().Reset()
	return nil
}

// runSSPEC changes a CPU spec: 0 is the number of accus, 1 the cycle
// time limit in milliseconds.
func runSSPEC(cpu *CPU, insn *Instruction) error {
	id, err := cpu.fetch(insn.Ops[0])
	if err != nil {
		return err
	}
	value, err := cpu.fetch(insn.Ops[1])
	if err != nil {
		return err
	}
	switch id {
	case 0:
		return cpu.Specs.SetNrAccus(int(value))
	case 1:
		cpu.Config.CycleTimeLimit = float64(value) / 1000
		return nil
	}
	return errors.Errorf("Unsupported __SSPEC id %d", id)
}

func runFeature(cpu *CPU, insn *Instruction) error {
	target, err := cpu.fetch(insn.Ops[0])
	if err != nil {
		return err
	}
	if target != 0 {
		return errors.Errorf("Unsupported __FEATURE target %d", target)
	}
	if len(insn.Ops) == 2 {
		value, err := cpu.fetch(insn.Ops[1])
		if err != nil {
			return err
		}
		if err := cpu.Specs.SetNrAccus(int(value)); err != nil {
			return err
		}
	}
	cpu.accu1().Set(uint32(cpu.Specs.NrAccus()))
	return nil
}

func debugHandlers() map[InsnType]insnDesc {
	return map[InsnType]insnDesc{
		InsnAssertEQ:  assertHandler(func(a, b uint32) bool { return a == b }, "=="),
		InsnAssertEQR: assertHandler(floatEqual, "==R"),
		InsnAssertNE:  assertHandler(func(a, b uint32) bool { return a != b }, "<>"),
		InsnAssertGT:  assertHandler(func(a, b uint32) bool { return a > b }, ">"),
		InsnAssertLT:  assertHandler(func(a, b uint32) bool { return a < b }, "<"),
		InsnAssertGE:  assertHandler(func(a, b uint32) bool { return a >= b }, ">="),
		InsnAssertLE:  assertHandler(func(a, b uint32) bool { return a <= b }, "<="),
		InsnSleep:     {nrOps: ops(1), run: runSleep},
		InsnSTWRST:    {nrOps: ops(0), run: runSTWRST},
		InsnSSPEC:     {nrOps: ops(2), run: runSSPEC},
		InsnFeature:   {nrOps: ops(1, 2), run: runFeature},
	}
}
