package awlsim

import (
	"fmt"

	"awlsim/datatypes"

	"github.com/pkg/errors"
)

type OperType int

const (
	OpImm OperType = iota
	OpImmReal
	OpImmS5T
	OpImmTime
	OpImmPtr
	OpImmStr

	OpMemE  // inputs
	OpMemA  // outputs
	OpMemM  // flags
	OpMemL  // local data
	OpMemVL // parent local data
	OpMemDB // global DB
	OpMemDI // instance DB
	OpMemT
	OpMemZ
	OpMemPA
	OpMemPE

	OpMemSTW
	OpMemSTWZ
	OpMemSTWNZ
	OpMemSTWPOS
	OpMemSTWNEG
	OpMemSTWPOSZ
	OpMemSTWNEGZ
	OpMemSTWUO

	// Interface field of the running FB or FC.
	OpMemInterfDB

	OpLblRef
	OpBlkFC
	OpBlkSFC
	OpBlkFB
	OpBlkSFB
	OpBlkDB
	OpBlkDI

	OpNamedLocal
	OpIndirect

	OpVirtAccu
	OpVirtAR

	OpUnspec
)

var operTypeNames = map[OperType]string{
	OpImm:         "IMMEDIATE",
	OpImmReal:     "REAL",
	OpImmS5T:      "S5T",
	OpImmTime:     "TIME",
	OpImmPtr:      "POINTER",
	OpImmStr:      "STRING",
	OpMemE:        "E",
	OpMemA:        "A",
	OpMemM:        "M",
	OpMemL:        "L",
	OpMemVL:       "VL",
	OpMemDB:       "DB",
	OpMemDI:       "DI",
	OpMemT:        "T",
	OpMemZ:        "Z",
	OpMemPA:       "PA",
	OpMemPE:       "PE",
	OpMemSTW:      "STW",
	OpMemSTWZ:     "==0",
	OpMemSTWNZ:    "<>0",
	OpMemSTWPOS:   ">0",
	OpMemSTWNEG:   "<0",
	OpMemSTWPOSZ:  ">=0",
	OpMemSTWNEGZ:  "<=0",
	OpMemSTWUO:    "UO",
	OpMemInterfDB: "__INTERFACE_DB",
	OpLblRef:      "LABEL",
	OpBlkFC:       "BLOCK_FC",
	OpBlkSFC:      "BLOCK_SFC",
	OpBlkFB:       "BLOCK_FB",
	OpBlkSFB:      "BLOCK_SFB",
	OpBlkDB:       "BLOCK_DB",
	OpBlkDI:       "BLOCK_DI",
	OpNamedLocal:  "#LOCAL",
	OpIndirect:    "__INDIRECT",
	OpVirtAccu:    "__ACCU",
	OpVirtAR:      "__AR",
	OpUnspec:      "UNSPEC",
}

func (t OperType) String() string {
	if name, ok := operTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("OPER(%d)", int(t))
}

// Area codes of the pointer format. The extended areas use bits 24-39.
const (
	AreaNone uint64 = 0
	AreaP    uint64 = uint64(datatypes.PointerAreaP)
	AreaE    uint64 = uint64(datatypes.PointerAreaE)
	AreaA    uint64 = uint64(datatypes.PointerAreaA)
	AreaM    uint64 = uint64(datatypes.PointerAreaM)
	AreaDB   uint64 = uint64(datatypes.PointerAreaDB)
	AreaDI   uint64 = uint64(datatypes.PointerAreaDI)
	AreaL    uint64 = uint64(datatypes.PointerAreaL)
	AreaVL   uint64 = uint64(datatypes.PointerAreaVL)

	ExtAreaT     uint64 = 0x01FF000000
	ExtAreaZ     uint64 = 0x02FF000000
	ExtAreaBlkDB uint64 = 0x03FF000000
	ExtAreaBlkFB uint64 = 0x04FF000000
	ExtAreaBlkFC uint64 = 0x05FF000000

	AreaMask    uint64 = 0x00FF000000
	ExtAreaMask uint64 = 0xFFFF000000
	AreaShift          = 24
	AddressMask uint64 = 0x00FFFFFF
)

var area2optypeFetch = map[uint64]OperType{
	AreaP:        OpMemPE,
	AreaE:        OpMemE,
	AreaA:        OpMemA,
	AreaM:        OpMemM,
	AreaDB:       OpMemDB,
	AreaDI:       OpMemDI,
	AreaL:        OpMemL,
	AreaVL:       OpMemVL,
	ExtAreaT:     OpMemT,
	ExtAreaZ:     OpMemZ,
	ExtAreaBlkDB: OpBlkDB,
	ExtAreaBlkFB: OpBlkFB,
	ExtAreaBlkFC: OpBlkFC,
}

var optype2area = func() map[OperType]uint64 {
	m := make(map[OperType]uint64, len(area2optypeFetch)+2)
	for area, t := range area2optypeFetch {
		m[t] = area
	}
	m[OpMemPA] = AreaP
	m[OpUnspec] = AreaNone
	return m
}()

func area2optype(area uint64, store bool) (OperType, bool) {
	if store && area == AreaP {
		return OpMemPA, true
	}
	t, ok := area2optypeFetch[area]
	return t, ok
}

// IndirectRef is the run time part of "[...]" operands.
// AR is 0 for memory-indirect access, otherwise 1 or 2.
type IndirectRef struct {
	Area   uint64
	AR     int
	Offset *Operator
}

// Operator is one translated instruction operand.
type Operator struct {
	Type  OperType
	Width int
	// Immediate value, block or register number.
	Value  uint32
	Offset datatypes.Offset

	Label      string
	LabelIndex int

	// OpNamedLocal: the interface field name.
	Name string
	// Set on interface operators of call by reference types.
	RefType datatypes.TypeID

	Indirect *IndirectRef
	Extended bool
	// Position of the owning instruction in its block.
	InsnIndex int
}

func (op *Operator) isImmediate() bool {
	switch op.Type {
	case OpImm, OpImmReal, OpImmS5T, OpImmTime, OpImmPtr, OpImmStr:
		return true
	}
	return false
}

func (op *Operator) checkWidth(widths ...int) error {
	if op.Type == OpNamedLocal {
		return nil
	}
	for _, w := range widths {
		if op.Width == w {
			return nil
		}
	}
	return errors.Errorf("Invalid operator width. Got %d, but expected %v.", op.Width, widths)
}

func (op *Operator) checkType(types ...OperType) error {
	for _, t := range types {
		if op.Type == t {
			return nil
		}
	}
	if op.Type == OpIndirect {
		// Area spanning: the area comes from the address register.
		if op.Indirect.Area == AreaNone {
			return nil
		}
		for _, t := range types {
			if ft, ok := area2optype(op.Indirect.Area, false); ok && ft == t {
				return nil
			}
			if st, ok := area2optype(op.Indirect.Area, true); ok && st == t {
				return nil
			}
		}
	}
	if op.Type == OpNamedLocal {
		return nil
	}
	if op.Type == OpMemInterfDB && op.RefType != datatypes.TypeVoid {
		for _, t := range types {
			if refOperType(op.RefType) == t {
				return nil
			}
		}
	}
	return errors.Errorf("Invalid operator type. Got %s, but expected %v.", op.Type, types)
}

// refOperType is the operator a call by reference parameter stands for.
func refOperType(t datatypes.TypeID) OperType {
	switch t {
	case datatypes.TypeTimer:
		return OpMemT
	case datatypes.TypeCounter:
		return OpMemZ
	case datatypes.TypeBlockDB:
		return OpBlkDB
	case datatypes.TypeBlockFB:
		return OpBlkFB
	case datatypes.TypeBlockFC:
		return OpBlkFC
	}
	return OpUnspec
}

var memPrefixes = map[OperType][4]string{
	OpMemE:  {"E", "EB", "EW", "ED"},
	OpMemA:  {"A", "AB", "AW", "AD"},
	OpMemM:  {"M", "MB", "MW", "MD"},
	OpMemL:  {"L", "LB", "LW", "LD"},
	OpMemVL: {"V", "VB", "VW", "VD"},
	OpMemDB: {"DBX", "DBB", "DBW", "DBD"},
	OpMemDI: {"DIX", "DIB", "DIW", "DID"},
	OpMemPE: {"", "PEB", "PEW", "PED"},
	OpMemPA: {"", "PAB", "PAW", "PAD"},
}

func widthIndex(width int) int {
	switch width {
	case 8:
		return 1
	case 16:
		return 2
	case 32:
		return 3
	}
	return 0
}

func (op *Operator) String() string {
	if prefixes, ok := memPrefixes[op.Type]; ok {
		var db string
		if op.Type == OpMemDB && op.Value > 0 {
			db = fmt.Sprintf("DB%d.", op.Value)
		}
		if op.Width == 1 {
			return fmt.Sprintf("%s%s %d.%d", db, prefixes[0], op.Offset.Byte, op.Offset.Bit)
		}
		return fmt.Sprintf("%s%s %d", db, prefixes[widthIndex(op.Width)], op.Offset.Byte)
	}
	switch op.Type {
	case OpImm:
		switch op.Width {
		case 1:
			return datatypes.FormatBool(op.Value)
		case 8:
			return datatypes.FormatHexByte(op.Value)
		case 16:
			return datatypes.FormatInt(op.Value)
		}
		return datatypes.FormatDInt(op.Value)
	case OpImmReal:
		return datatypes.FormatReal(op.Value)
	case OpImmS5T:
		if s, err := datatypes.FormatS5T(op.Value); err == nil {
			return s
		}
		return "S5T#?"
	case OpImmTime:
		return datatypes.FormatTime(op.Value)
	case OpImmPtr:
		return datatypes.FormatPointer(op.Value)
	case OpImmStr:
		return datatypes.FormatString(op.Value, op.Width/8)
	case OpMemT:
		return fmt.Sprintf("T %d", op.Offset.Byte)
	case OpMemZ:
		return fmt.Sprintf("Z %d", op.Offset.Byte)
	case OpMemSTW:
		if op.Width == 16 {
			return "STW"
		}
		return "__STW " + stwBitNames[op.Offset.Bit]
	case OpMemSTWZ, OpMemSTWNZ, OpMemSTWPOS, OpMemSTWNEG,
		OpMemSTWPOSZ, OpMemSTWNEGZ, OpMemSTWUO:
		return op.Type.String()
	case OpMemInterfDB:
		return fmt.Sprintf("__INTERFACE_DB %d.%d (%d bit)", op.Offset.Byte, op.Offset.Bit, op.Width)
	case OpLblRef:
		return op.Label
	case OpBlkFC:
		return fmt.Sprintf("FC %d", op.Value)
	case OpBlkSFC:
		return fmt.Sprintf("SFC %d", op.Value)
	case OpBlkFB:
		return fmt.Sprintf("FB %d", op.Value)
	case OpBlkSFB:
		return fmt.Sprintf("SFB %d", op.Value)
	case OpBlkDB:
		return fmt.Sprintf("DB %d", op.Value)
	case OpBlkDI:
		return fmt.Sprintf("DI %d", op.Value)
	case OpNamedLocal:
		return "#" + op.Name
	case OpIndirect:
		return op.indirectString()
	case OpVirtAccu:
		return fmt.Sprintf("__ACCU %d", op.Value)
	case OpVirtAR:
		return fmt.Sprintf("__AR %d", op.Value)
	case OpUnspec:
		return "__UNSPEC"
	}
	return op.Type.String()
}

func (op *Operator) indirectString() string {
	ind := op.Indirect
	var prefix string
	if t, ok := area2optype(ind.Area, false); ok {
		if prefixes, ok := memPrefixes[t]; ok {
			prefix = prefixes[widthIndex(op.Width)] + " "
		} else {
			prefix = t.String() + " "
		}
	}
	if ind.AR == 0 {
		return fmt.Sprintf("%s[%s]", prefix, ind.Offset)
	}
	return fmt.Sprintf("%s[AR%d,%s]", prefix, ind.AR, ind.Offset)
}

// MakePointer returns the area spanning pointer to a direct memory operator.
func (op *Operator) MakePointer() (uint32, error) {
	area, ok := optype2area[op.Type]
	if !ok || area > AreaMask {
		return 0, errors.Errorf("Could not transform operator '%s' into a pointer.", op)
	}
	return uint32(area) | op.Offset.Pointer(), nil
}
