package awlsim

import (
	"awlsim/datatypes"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// boundParam is an outbound parameter: the callee field is copied to
// rvalue when the callee returns.
type boundParam struct {
	field  *InterfaceField
	rvalue *Operator
}

// CallStackElem is one block activation.
type CallStackElem struct {
	Status     StatusWord
	ParenStack ParenStack
	MCRStack   MCRStack
	IP         int
	LocalData  datatypes.ByteArray
	Block      *Block
	// InstanceDB is the DI register of this activation.
	InstanceDB *DB
	// InterfaceDB holds the interface fields: the instance DB of an
	// FB or the bounce DB of an FC. nil for OBs.
	InterfaceDB *DB

	outbound []boundParam
	depth    int
}

func (cse *CallStackElem) insn() *Instruction {
	if cse.IP < 0 || cse.IP >= len(cse.Block.Insns) {
		return nil
	}
	return cse.Block.Insns[cse.IP]
}

func (cse *CallStackElem) done() bool { return cse.IP >= len(cse.Block.Insns) }

func (cpu *CPU) top() *CallStackElem {
	if len(cpu.callStack) == 0 {
		return nil
	}
	return cpu.callStack[len(cpu.callStack)-1]
}

// parent is the caller of the running activation, or nil.
func (cpu *CPU) parent() *CallStackElem {
	if len(cpu.callStack) < 2 {
		return nil
	}
	return cpu.callStack[len(cpu.callStack)-2]
}

func (cpu *CPU) pushBlock(b *Block, instanceDB, interfaceDB *DB, outbound []boundParam) *CallStackElem {
	depth := len(cpu.callStack)
	cse := &CallStackElem{
		LocalData:   cpu.localData.get(depth),
		Block:       b,
		InstanceDB:  instanceDB,
		InterfaceDB: interfaceDB,
		outbound:    outbound,
		depth:       depth,
	}
	cpu.callStack = append(cpu.callStack, cse)
	if cpu.Config.Trace {
		logrus.WithFields(logrus.Fields{"block": b.String(), "depth": depth}).Debug("enter block")
	}
	return cse
}

// popBlock ends the running activation and copies its outbound
// parameters into the caller's context.
func (cpu *CPU) popBlock() error {
	cse := cpu.top()
	cpu.BlockExit.call()
	cpu.callStack = cpu.callStack[:len(cpu.callStack)-1]
	if cpu.Config.Trace {
		logrus.WithFields(logrus.Fields{"block": cse.Block.String(), "depth": cse.depth}).Debug("exit block")
	}
	defer cpu.localData.put(cse.depth, cse.LocalData)
	if caller := cpu.top(); caller != nil {
		caller.Status.BIE = cse.Status.BIE
	}
	if err := cpu.storeOutbound(cse.InterfaceDB, cse.outbound); err != nil {
		return err
	}
	if cse.Block.Kind == BlockFC {
		cpu.releaseBounceDB(cse.Block, cse.InterfaceDB)
	}
	return nil
}

func (cpu *CPU) storeOutbound(iface *DB, outbound []boundParam) error {
	for _, p := range outbound {
		value, err := iface.Fetch(p.field.Layout.Offset, p.field.Layout.Width)
		if err != nil {
			return err
		}
		if err := cpu.store(p.rvalue, value, p.field.Layout.Width); err != nil {
			return errors.Wrapf(err, "Parameter '%s'", p.field.Name)
		}
	}
	return nil
}

// bindParams copies the inbound parameters into iface and returns the
// outbound ones. Values are fetched in the caller's context.
func (cpu *CPU) bindParams(b *Block, iface *DB, params []ParamAssign) ([]boundParam, error) {
	var outbound []boundParam
	for _, p := range params {
		field, ok := b.Interface.Field(p.Name)
		if !ok || field.Kind == FieldStat || field.Kind == FieldTemp {
			return nil, errors.Errorf("Parameter '%s' is not declared in the interface of %s", p.Name, b)
		}
		if field.Type.IsCallByRef() {
			nr, err := cpu.referencedNumber(field, p.RValue)
			if err != nil {
				return nil, err
			}
			if err := iface.Store(field.Layout.Offset, field.Layout.Width, nr); err != nil {
				return nil, err
			}
			continue
		}
		if field.Kind.Inbound() {
			value, err := cpu.fetch(p.RValue, field.Layout.Width)
			if err != nil {
				return nil, errors.Wrapf(err, "Parameter '%s'", p.Name)
			}
			if err := iface.Store(field.Layout.Offset, field.Layout.Width, value); err != nil {
				return nil, err
			}
		}
		if field.Kind.Outbound() {
			outbound = append(outbound, boundParam{field: field, rvalue: p.RValue})
		}
	}
	return outbound, nil
}

var refTypeOperators = map[datatypes.TypeID]OperType{
	datatypes.TypeTimer:   OpMemT,
	datatypes.TypeCounter: OpMemZ,
	datatypes.TypeBlockDB: OpBlkDB,
	datatypes.TypeBlockFB: OpBlkFB,
	datatypes.TypeBlockFC: OpBlkFC,
}

// referencedNumber is the block, timer or counter number passed to a
// call by reference parameter.
func (cpu *CPU) referencedNumber(field *InterfaceField, rvalue *Operator) (uint32, error) {
	want := refTypeOperators[field.Type.Type]
	if rvalue.Type == OpMemInterfDB && refOperType(rvalue.RefType) == want {
		return cpu.fetch(rvalue, 16)
	}
	if rvalue.Type != want {
		return 0, errors.Errorf("Parameter '%s' of type %s can not be assigned from '%s'",
			field.Name, field.Type, rvalue)
	}
	switch want {
	case OpMemT, OpMemZ:
		return uint32(rvalue.Offset.Byte), nil
	}
	return rvalue.Value, nil
}

// callBlock runs CALL for code blocks and system blocks.
func (cpu *CPU) callBlock(b *Block, instanceDB *DB, params []ParamAssign) error {
	caller := cpu.top()
	var iface *DB
	switch b.Kind {
	case BlockFB, BlockSFB:
		iface = instanceDB
	case BlockFC:
		iface = cpu.acquireBounceDB(b)
		instanceDB = caller.InstanceDB
	case BlockSFC:
		iface = &DB{Index: -b.Index, FB: b, StructInstance: NewStructInstance(b.Interface.Struct)}
		instanceDB = caller.InstanceDB
	}
	if b.Kind == BlockFC || b.Kind == BlockSFC {
		if want := b.Interface.ParamCount(); len(params) != want {
			return errors.Errorf("Call to %s: %d parameters given, but %d are declared", b, len(params), want)
		}
	}
	outbound, err := cpu.bindParams(b, iface, params)
	if err != nil {
		return err
	}
	if b.IsSystem() {
		if err := b.system(cpu, iface.StructInstance); err != nil {
			return err
		}
		return cpu.storeOutbound(iface, outbound)
	}
	cpu.pushBlock(b, instanceDB, iface, outbound)
	return nil
}
