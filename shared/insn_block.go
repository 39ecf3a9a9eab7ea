package awlsim

import "github.com/pkg/errors"

// codeBlock looks up the block referenced by a resolved block operator.
func (cpu *CPU) codeBlock(op *Operator) (*Block, error) {
	nr := int(op.Value)
	var (
		b  *Block
		ok bool
	)
	switch op.Type {
	case OpBlkFC:
		if b, ok = cpu.fcs[nr]; !ok {
			return nil, errors.Errorf("Called FC %d does not exist", nr)
		}
	case OpBlkFB:
		if b, ok = cpu.fbs[nr]; !ok {
			return nil, errors.Errorf("Called FB %d does not exist", nr)
		}
	case OpBlkSFC:
		if b, ok = cpu.sfcs[nr]; !ok {
			return nil, errors.Errorf("SFC %d not implemented, yet", nr)
		}
	case OpBlkSFB:
		if b, ok = cpu.sfbs[nr]; !ok {
			return nil, errors.Errorf("SFB %d not implemented, yet", nr)
		}
	default:
		return nil, errors.Errorf("Invalid CALL operand %s", op)
	}
	return b, nil
}

// instanceDBFor checks that the DB referenced by op is an instance of b.
func (cpu *CPU) instanceDBFor(b *Block, op *Operator) (*DB, error) {
	op, err := cpu.resolve(op, false)
	if err != nil {
		return nil, err
	}
	if op.Type != OpBlkDB {
		return nil, errors.Errorf("Invalid instance DB operand %s", op)
	}
	db, ok := cpu.dbs[int(op.Value)]
	if !ok {
		return nil, errors.Errorf("Instance DB %d does not exist", op.Value)
	}
	if db.FB != b {
		return nil, errors.Errorf("%s is not an instance DB of %s", db, b)
	}
	return db, nil
}

func checkCall(insn *Instruction) error {
	op := insn.op0()
	if err := op.checkType(OpBlkFC, OpBlkSFC, OpBlkFB, OpBlkSFB); err != nil {
		return err
	}
	switch op.Type {
	case OpBlkFC, OpBlkSFC:
		if len(insn.Ops) != 1 {
			return errors.Errorf("CALL of %s takes no instance DB", op)
		}
	case OpBlkFB, OpBlkSFB:
		if len(insn.Ops) != 2 {
			return errors.Errorf("CALL of %s requires an instance DB", op)
		}
		return insn.Ops[1].checkType(OpBlkDB)
	}
	return nil
}

func runCALL(cpu *CPU, insn *Instruction) error {
	op, err := cpu.resolve(insn.op0(), false)
	if err != nil {
		return err
	}
	b, err := cpu.codeBlock(op)
	if err != nil {
		return err
	}
	var db *DB
	if b.Kind == BlockFB || b.Kind == BlockSFB {
		if len(insn.Ops) != 2 {
			return errors.Errorf("CALL of %s requires an instance DB", b)
		}
		if db, err = cpu.instanceDBFor(b, insn.Ops[1]); err != nil {
			return err
		}
	}
	s := cpu.stw()
	s.OS, s.OR, s.STA, s.NER = 0, 0, 1, 0
	return cpu.callBlock(b, db, insn.Params)
}

// rawCall is UC and CC: no parameters, and an FB runs on the DI
// register of the caller.
func (cpu *CPU) rawCall(insn *Instruction) error {
	op, err := cpu.resolve(insn.op0(), false)
	if err != nil {
		return err
	}
	b, err := cpu.codeBlock(op)
	if err != nil {
		return err
	}
	var db *DB
	if b.Kind == BlockFB || b.Kind == BlockSFB {
		if db = cpu.top().InstanceDB; db == nil {
			return errors.Errorf("%s called without an opened instance DB", b)
		}
	}
	return cpu.callBlock(b, db, nil)
}

var checkRawCall = checkOpTypes(OpBlkFC, OpBlkFB, OpBlkSFC, OpBlkSFB)

func runUC(cpu *CPU, insn *Instruction) error {
	s := cpu.stw()
	s.OS, s.OR, s.STA, s.NER = 0, 0, 1, 0
	return cpu.rawCall(insn)
}

func runCC(cpu *CPU, insn *Instruction) error {
	s := cpu.stw()
	call := s.VKE == 1
	s.OS, s.OR, s.STA, s.VKE, s.NER = 0, 0, 1, 1, 0
	if !call {
		return nil
	}
	return cpu.rawCall(insn)
}

// endBlock moves the instruction pointer past the end of the block.
func (cpu *CPU) endBlock() {
	cse := cpu.top()
	s := &cse.Status
	s.OS, s.OR, s.STA, s.NER = 0, 0, 1, 0
	cpu.relativeJump = len(cse.Block.Insns) - cse.IP
}

func runBE(cpu *CPU, insn *Instruction) error {
	cpu.endBlock()
	return nil
}

func runBEB(cpu *CPU, insn *Instruction) error {
	s := cpu.stw()
	if s.VKE == 1 {
		cpu.endBlock()
		return nil
	}
	s.OS, s.OR, s.STA, s.VKE, s.NER = 0, 0, 1, 1, 0
	return nil
}

func runAUF(cpu *CPU, insn *Instruction) error {
	op, err := cpu.resolve(insn.op0(), false)
	if err != nil {
		return err
	}
	switch op.Type {
	case OpBlkDB:
		return cpu.openDB(int(op.Value), false)
	case OpBlkDI:
		return cpu.openDB(int(op.Value), true)
	}
	return errors.Errorf("Invalid DB reference in AUF: %s", op)
}

func runTDB(cpu *CPU, insn *Instruction) error {
	cse := cpu.top()
	cse.InstanceDB, cpu.globDB = cpu.globDB, cse.InstanceDB
	return nil
}

func runMCRB(cpu *CPU, insn *Instruction) error {
	cse := cpu.top()
	if err := cse.MCRStack.Push(cse.Status.VKE); err != nil {
		return err
	}
	cse.Status.OR, cse.Status.NER = 0, 0
	return nil
}

func runBMCR(cpu *CPU, insn *Instruction) error {
	cse := cpu.top()
	if err := cse.MCRStack.Pop(); err != nil {
		return err
	}
	cse.Status.OR, cse.Status.NER = 0, 0
	return nil
}

func mcrActivate(on bool) insnDesc {
	return insnDesc{
		nrOps: ops(0),
		run: func(cpu *CPU, insn *Instruction) error {
			cpu.mcrActive = on
			return nil
		},
	}
}

func blockHandlers() map[InsnType]insnDesc {
	return map[InsnType]insnDesc{
		InsnCALL: {nrOps: ops(1, 2), check: checkCall, run: runCALL},
		InsnUC:   {nrOps: ops(1), check: checkRawCall, run: runUC},
		InsnCC:   {nrOps: ops(1), check: checkRawCall, run: runCC},
		InsnBE:   {nrOps: ops(0), run: runBE},
		InsnBEA:  {nrOps: ops(0), run: runBE},
		InsnBEB:  {nrOps: ops(0), run: runBEB},
		InsnAUF:  {nrOps: ops(1), check: checkOpTypes(OpBlkDB, OpBlkDI), run: runAUF},
		InsnTDB:  {nrOps: ops(0), run: runTDB},
		InsnMCRB: {nrOps: ops(0), run: runMCRB},
		InsnBMCR: {nrOps: ops(0), run: runBMCR},
		InsnMCRA: mcrActivate(true),
		InsnMCRD: mcrActivate(false),
	}
}
