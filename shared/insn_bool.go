package awlsim

import "awlsim/datatypes"

var bitOperTypes = []OperType{
	OpMemE, OpMemA, OpMemM, OpMemL, OpMemVL, OpMemDB, OpMemDI, OpMemInterfDB,
}

var boolOperTypes = append(append([]OperType{}, bitOperTypes...),
	OpMemT, OpMemZ, OpMemSTW,
	OpMemSTWZ, OpMemSTWNZ, OpMemSTWPOS, OpMemSTWNEG, OpMemSTWPOSZ, OpMemSTWNEGZ, OpMemSTWUO,
)

// isNumbered reports operators that read timer or counter status.
func isNumbered(op *Operator) bool {
	switch {
	case op.Type == OpMemT || op.Type == OpMemZ:
		return true
	case op.Type == OpMemInterfDB && op.RefType != datatypes.TypeVoid:
		return true
	}
	return false
}

func checkBitOps(types ...OperType) func(*Instruction) error {
	return func(insn *Instruction) error {
		for _, op := range insn.Ops {
			if err := op.checkType(types...); err != nil {
				return err
			}
			if isNumbered(op) || op.Type == OpIndirect {
				continue
			}
			if err := op.checkWidth(1); err != nil {
				return err
			}
		}
		return nil
	}
}

// fetchBool reads a bit operator, or the status of a timer or counter.
func (cpu *CPU) fetchBool(op *Operator) (uint8, error) {
	direct, err := cpu.resolve(op, false)
	if err != nil {
		return 0, err
	}
	if direct.Type != OpMemT && direct.Type != OpMemZ {
		if err := direct.checkWidth(1); err != nil {
			return 0, err
		}
	}
	v, err := cpu.fetchDirect(direct)
	return uint8(v & 1), err
}

func (cpu *CPU) stw() *StatusWord { return &cpu.top().Status }

// chainHandler builds U, UN, X, ... from the way the fetched bit is
// folded into the running VKE.
func chainHandler(invert bool, combine func(s *StatusWord, bit uint8)) insnDesc {
	return insnDesc{
		nrOps: ops(1),
		check: checkBitOps(boolOperTypes...),
		run: func(cpu *CPU, insn *Instruction) error {
			bit, err := cpu.fetchBool(insn.op0())
			if err != nil {
				return err
			}
			s := cpu.stw()
			s.STA = bit
			if invert {
				bit ^= 1
			}
			combine(s, bit)
			s.NER = 1
			return nil
		},
	}
}

func andChain(s *StatusWord, bit uint8) {
	if s.NER == 1 {
		s.VKE = (s.VKE & bit) | s.OR
	} else {
		s.VKE = bit | s.OR
	}
}

func orChain(s *StatusWord, bit uint8) {
	s.OR = 0
	if s.NER == 1 {
		s.VKE |= bit
	} else {
		s.VKE = bit
	}
}

func xorChain(s *StatusWord, bit uint8) {
	s.OR = 0
	if s.NER == 1 {
		s.VKE ^= bit
	} else {
		s.VKE = bit
	}
}

func parenOpenHandler(typ InsnType) insnDesc {
	return insnDesc{
		nrOps: ops(0),
		run: func(cpu *CPU, insn *Instruction) error {
			cse := cpu.top()
			s := &cse.Status
			if err := cse.ParenStack.Push(ParenStackElem{InsnType: typ, NER: s.NER, VKE: s.VKE, OR: s.OR}); err != nil {
				return err
			}
			s.OR, s.STA, s.NER = 0, 1, 0
			return nil
		},
	}
}

func runParenClose(cpu *CPU, insn *Instruction) error {
	cse := cpu.top()
	s := &cse.Status
	pse, err := cse.ParenStack.Pop()
	if err != nil {
		return err
	}
	switch pse.InsnType {
	case InsnUNB, InsnONB, InsnXNB:
		s.VKE ^= 1
	}
	switch pse.InsnType {
	case InsnUB, InsnUNB:
		if pse.NER == 1 {
			s.VKE = (s.VKE & pse.VKE) | pse.OR
		}
	case InsnOB, InsnONB:
		if pse.NER == 1 {
			s.VKE |= pse.VKE
		}
	case InsnXB, InsnXNB:
		if pse.NER == 1 {
			s.VKE ^= pse.VKE
		}
	}
	s.OR, s.STA, s.NER = pse.OR, 1, 1
	return nil
}

func runAssign(cpu *CPU, insn *Instruction) error {
	s := cpu.stw()
	value := s.VKE
	if !cpu.mcrIsOn() {
		value = 0
	}
	if err := cpu.store(insn.op0(), uint32(value), 1); err != nil {
		return err
	}
	s.OR, s.STA, s.NER = 0, s.VKE, 0
	return nil
}

// setResetHandler builds S and R. On timers and counters they start
// respectively reset the timer or counter.
func setResetHandler(set bool) insnDesc {
	types := bitOperTypes
	if set {
		types = append(append([]OperType{}, types...), OpMemZ)
	} else {
		types = append(append([]OperType{}, types...), OpMemT, OpMemZ)
	}
	return insnDesc{
		nrOps: ops(1),
		check: checkBitOps(types...),
		run: func(cpu *CPU, insn *Instruction) error {
			s := cpu.stw()
			op, err := cpu.resolve(insn.op0(), true)
			if err != nil {
				return err
			}
			switch op.Type {
			case OpMemT:
				t, err := cpu.timerAt(op)
				if err != nil {
					return err
				}
				if s.VKE == 1 {
					t.Reset()
				}
				s.OR, s.NER = 0, 0
				return nil
			case OpMemZ:
				c, err := cpu.counterAt(op)
				if err != nil {
					return err
				}
				if set {
					if err := c.Set(s.VKE, cpu.accu1().Get()); err != nil {
						return err
					}
				} else if s.VKE == 1 {
					c.Reset()
				}
				s.OR, s.NER = 0, 0
				return nil
			}
			if s.VKE == 1 && cpu.mcrIsOn() {
				var value uint32
				if set {
					value = 1
				}
				if err := cpu.store(op, value, 1); err != nil {
					return err
				}
			}
			s.OR, s.STA, s.NER = 0, s.VKE, 0
			return nil
		},
	}
}

// edgeHandler builds FP and FN. The operator is the edge memory bit.
func edgeHandler(positive bool) insnDesc {
	return insnDesc{
		nrOps: ops(1),
		check: checkBitOps(bitOperTypes...),
		run: func(cpu *CPU, insn *Instruction) error {
			s := cpu.stw()
			mem, err := cpu.fetchBool(insn.op0())
			if err != nil {
				return err
			}
			var vke uint8
			if positive {
				vke = s.VKE &^ mem & 1
			} else {
				vke = (s.VKE ^ 1) & mem
			}
			if err := cpu.store(insn.op0(), uint32(s.VKE), 1); err != nil {
				return err
			}
			s.VKE = vke
			s.OR, s.STA, s.NER = 0, vke, 1
			return nil
		},
	}
}

func statusHandler(run func(s *StatusWord)) insnDesc {
	return insnDesc{
		nrOps: ops(0),
		run: func(cpu *CPU, insn *Instruction) error {
			run(cpu.stw())
			return nil
		},
	}
}

func boolHandlers() map[InsnType]insnDesc {
	orDesc := chainHandler(false, orChain)
	orDesc.nrOps = ops(0, 1)
	runOr := orDesc.run
	orDesc.run = func(cpu *CPU, insn *Instruction) error {
		if len(insn.Ops) == 1 {
			return runOr(cpu, insn)
		}
		s := cpu.stw()
		s.OR, s.STA, s.NER = s.VKE, 1, 0
		return nil
	}
	return map[InsnType]insnDesc{
		InsnU:    chainHandler(false, andChain),
		InsnUN:   chainHandler(true, andChain),
		InsnO:    orDesc,
		InsnON:   chainHandler(true, orChain),
		InsnX:    chainHandler(false, xorChain),
		InsnXN:   chainHandler(true, xorChain),
		InsnUB:   parenOpenHandler(InsnUB),
		InsnUNB:  parenOpenHandler(InsnUNB),
		InsnOB:   parenOpenHandler(InsnOB),
		InsnONB:  parenOpenHandler(InsnONB),
		InsnXB:   parenOpenHandler(InsnXB),
		InsnXNB:  parenOpenHandler(InsnXNB),
		InsnBEND: {nrOps: ops(0), run: runParenClose},
		InsnASSIGN: {
			nrOps: ops(1),
			check: checkBitOps(append(append([]OperType{}, bitOperTypes...), OpMemSTW)...),
			run:   runAssign,
		},
		InsnS:  setResetHandler(true),
		InsnR:  setResetHandler(false),
		InsnFP: edgeHandler(true),
		InsnFN: edgeHandler(false),
		InsnNOT: statusHandler(func(s *StatusWord) {
			s.VKE ^= 1
			s.STA = 1
		}),
		InsnSET: statusHandler(func(s *StatusWord) {
			s.OR, s.STA, s.VKE, s.NER = 0, 1, 1, 0
		}),
		InsnCLR: statusHandler(func(s *StatusWord) {
			s.OR, s.STA, s.VKE, s.NER = 0, 0, 0, 0
		}),
		InsnSAVE: statusHandler(func(s *StatusWord) {
			s.BIE = s.VKE
		}),
	}
}
