package awlsim

import (
	"awlsim/datatypes"

	"github.com/pkg/errors"
)

// resolve turns indirect and call by reference operators into direct
// ones. Other operators are returned as they are.
func (cpu *CPU) resolve(op *Operator, store bool) (*Operator, error) {
	switch {
	case op.Type == OpIndirect:
		return cpu.resolveIndirect(op, store)
	case op.Type == OpMemInterfDB && op.RefType != datatypes.TypeVoid:
		nr, err := cpu.fetchDirect(&Operator{Type: OpMemInterfDB, Width: 16, Offset: op.Offset})
		if err != nil {
			return nil, err
		}
		return numberedOperator(refOperType(op.RefType), nr), nil
	}
	return op, nil
}

// numberedOperator builds a timer, counter or block operator.
func numberedOperator(t OperType, nr uint32) *Operator {
	op := &Operator{Type: t, Width: 16}
	switch t {
	case OpMemT, OpMemZ:
		op.Offset.Byte = int(nr)
	default:
		op.Value = nr
	}
	return op
}

func (cpu *CPU) resolveIndirect(op *Operator, store bool) (*Operator, error) {
	ind := op.Indirect
	var pointer uint64
	if ind.AR == 0 {
		off := ind.Offset
		switch off.Type {
		case OpMemM, OpMemL, OpMemDB, OpMemDI, OpMemInterfDB:
		default:
			return nil, errors.New("Offset operator in indirect access is not a valid memory offset.")
		}
		if ind.Area > AreaMask {
			if off.Width != 8 && off.Width != 16 && off.Width != 32 {
				return nil, errors.New("Offset operator in indirect access is not of 8, 16 or 32 bit width.")
			}
		} else if off.Width != 32 {
			return nil, errors.New("Offset operator in indirect access is not of 32 bit width.")
		}
		v, err := cpu.fetchDirect(off)
		if err != nil {
			return nil, err
		}
		pointer = ind.Area | (uint64(v) & AddressMask)
	} else {
		if ind.Offset.Type != OpImmPtr {
			return nil, errors.New("Offset operator in register-indirect access is not a pointer immediate.")
		}
		ar, err := cpu.AR(ind.AR)
		if err != nil {
			return nil, err
		}
		sum := uint64(ar.Get()) + uint64(ind.Offset.Value)
		if ind.Area == AreaNone {
			pointer = sum & 0xFFFFFFFF
		} else {
			pointer = (sum & AddressMask) | ind.Area
		}
	}

	area := pointer & ExtAreaMask
	t, ok := area2optype(area, store)
	if !ok {
		return nil, errors.Errorf("Invalid area code (%X hex) in indirect addressing", area>>AreaShift)
	}
	if area > AreaMask {
		return numberedOperator(t, uint32(pointer&AddressMask)), nil
	}
	direct := &Operator{
		Type:     t,
		Width:    op.Width,
		Offset:   datatypes.OffsetFromPointer(uint32(pointer)),
		Extended: op.Extended,
	}
	if direct.Width != 1 && direct.Offset.Bit != 0 {
		return nil, errors.Errorf("Bit offset (lowest three bits) in %d-bit indirect addressing is not zero. (Computed offset is: %s)",
			direct.Width, direct.Offset)
	}
	return direct, nil
}

// fetch reads the value of op. With widths given, the resolved
// operator must have one of them.
func (cpu *CPU) fetch(op *Operator, widths ...int) (uint32, error) {
	direct, err := cpu.resolve(op, false)
	if err != nil {
		return 0, err
	}
	if len(widths) > 0 {
		if err := direct.checkWidth(widths...); err != nil {
			return 0, err
		}
	}
	return cpu.fetchDirect(direct)
}

func (cpu *CPU) dbFor(op *Operator) (*DB, error) {
	if op.Type == OpMemDB {
		if op.Value > 0 {
			if err := cpu.openDB(int(op.Value), false); err != nil {
				return nil, err
			}
		}
		if cpu.globDB == nil {
			return nil, errors.New("No global DB is opened")
		}
		return cpu.globDB, nil
	}
	cse := cpu.top()
	if op.Type == OpMemDI {
		if cse.InstanceDB == nil {
			return nil, errors.New("No instance DB is opened")
		}
		return cse.InstanceDB, nil
	}
	if cse.InterfaceDB == nil {
		return nil, errors.Errorf("%s has no interface DB", cse.Block)
	}
	return cse.InterfaceDB, nil
}

func (cpu *CPU) parentLocalData() (datatypes.ByteArray, error) {
	p := cpu.parent()
	if p == nil {
		return nil, errors.New("No parent local data (VL) available")
	}
	return p.LocalData, nil
}

func (cpu *CPU) fetchDirect(op *Operator) (uint32, error) {
	switch op.Type {
	case OpImm, OpImmReal, OpImmS5T, OpImmTime, OpImmPtr, OpImmStr,
		OpBlkFC, OpBlkSFC, OpBlkFB, OpBlkSFB, OpBlkDB, OpBlkDI:
		return op.Value, nil
	case OpMemE:
		return cpu.Inputs.Fetch(op.Offset, op.Width)
	case OpMemA:
		return cpu.Outputs.Fetch(op.Offset, op.Width)
	case OpMemM:
		return cpu.Flags.Fetch(op.Offset, op.Width)
	case OpMemL:
		return cpu.top().LocalData.Fetch(op.Offset, op.Width)
	case OpMemVL:
		data, err := cpu.parentLocalData()
		if err != nil {
			return 0, err
		}
		return data.Fetch(op.Offset, op.Width)
	case OpMemDB, OpMemDI, OpMemInterfDB:
		db, err := cpu.dbFor(op)
		if err != nil {
			return 0, err
		}
		return db.Fetch(op.Offset, op.Width)
	case OpMemT:
		t, err := cpu.Timer(op.Offset.Byte)
		if err != nil {
			return 0, err
		}
		return uint32(t.Get()), nil
	case OpMemZ:
		c, err := cpu.Counter(op.Offset.Byte)
		if err != nil {
			return 0, err
		}
		return uint32(c.Get()), nil
	case OpMemPE:
		if h := cpu.PeripheralHook; h.Read != nil {
			if v, ok := h.Read(h.Data, op.Width, op.Offset.Byte); ok {
				return v, nil
			}
		}
		return cpu.Inputs.Fetch(op.Offset, op.Width)
	case OpMemSTW:
		stw := &cpu.top().Status
		if op.Width == 16 {
			return stw.Word(), nil
		}
		bit, err := stw.Bit(op.Offset.Bit)
		return uint32(bit), err
	case OpMemSTWZ, OpMemSTWNZ, OpMemSTWPOS, OpMemSTWNEG,
		OpMemSTWPOSZ, OpMemSTWNEGZ, OpMemSTWUO:
		return uint32(cpu.top().Status.condition(op.Type)), nil
	case OpVirtAccu:
		accu, err := cpu.Accu(int(op.Value))
		if err != nil {
			return 0, err
		}
		return accu.Get(), nil
	case OpVirtAR:
		ar, err := cpu.AR(int(op.Value))
		if err != nil {
			return 0, err
		}
		return ar.Get(), nil
	}
	return 0, errors.Errorf("Invalid fetch request: %s", op)
}

// store writes value to op. MCR gating is done by the instructions.
func (cpu *CPU) store(op *Operator, value uint32, widths ...int) error {
	direct, err := cpu.resolve(op, true)
	if err != nil {
		return err
	}
	if len(widths) > 0 {
		if err := direct.checkWidth(widths...); err != nil {
			return err
		}
	}
	return cpu.storeDirect(direct, value)
}

func (cpu *CPU) storeDirect(op *Operator, value uint32) error {
	switch op.Type {
	case OpMemE:
		if cpu.inCycle {
			return errors.New("Can't store to E")
		}
		return cpu.Inputs.Store(op.Offset, op.Width, value)
	case OpMemA:
		return cpu.Outputs.Store(op.Offset, op.Width, value)
	case OpMemM:
		return cpu.Flags.Store(op.Offset, op.Width, value)
	case OpMemL:
		return cpu.top().LocalData.Store(op.Offset, op.Width, value)
	case OpMemVL:
		data, err := cpu.parentLocalData()
		if err != nil {
			return err
		}
		return data.Store(op.Offset, op.Width, value)
	case OpMemDB, OpMemDI, OpMemInterfDB:
		db, err := cpu.dbFor(op)
		if err != nil {
			return err
		}
		return db.Store(op.Offset, op.Width, value)
	case OpMemPA:
		if err := cpu.Outputs.Store(op.Offset, op.Width, value); err != nil {
			return err
		}
		if h := cpu.PeripheralHook; h.Write != nil {
			h.Write(h.Data, op.Width, op.Offset.Byte, value)
		}
		return nil
	case OpMemSTW:
		stw := &cpu.top().Status
		if op.Width == 16 {
			stw.SetWord(value)
			return nil
		}
		if op.Offset.Bit < 0 || op.Offset.Bit >= StwNrBits {
			return errors.Errorf("Status word bit store '%d' out of range", op.Offset.Bit)
		}
		*stw.bits()[op.Offset.Bit] = uint8(value & 1)
		return nil
	case OpVirtAccu:
		accu, err := cpu.Accu(int(op.Value))
		if err != nil {
			return err
		}
		accu.Set(value)
		return nil
	case OpVirtAR:
		ar, err := cpu.AR(int(op.Value))
		if err != nil {
			return err
		}
		ar.Set(value)
		return nil
	}
	if op.isImmediate() {
		return errors.Errorf("Can't store to immediate %s", op)
	}
	return errors.Errorf("Invalid store request: %s", op)
}

// openDB makes DB nr the global DB or, with di set, the instance DB of
// the running activation.
func (cpu *CPU) openDB(nr int, di bool) error {
	db, ok := cpu.dbs[nr]
	if !ok {
		return errors.Errorf("Datablock %d does not exist", nr)
	}
	if di {
		cpu.top().InstanceDB = db
	} else {
		cpu.globDB = db
	}
	return nil
}
