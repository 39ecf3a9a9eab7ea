package awlsim

import (
	"fmt"

	"awlsim/datatypes"
	"awlsim/shared/parser"

	"github.com/pkg/errors"
)

type BlockKind int

const (
	BlockOB BlockKind = iota
	BlockFC
	BlockFB
	BlockSFC
	BlockSFB
)

var blockKindNames = map[BlockKind]string{
	BlockOB:  "OB",
	BlockFC:  "FC",
	BlockFB:  "FB",
	BlockSFC: "SFC",
	BlockSFB: "SFB",
}

func (k BlockKind) String() string { return blockKindNames[k] }

type FieldKind int

const (
	FieldIn FieldKind = iota
	FieldOut
	FieldInOut
	FieldStat
	FieldTemp
)

var fieldKindNames = map[FieldKind]string{
	FieldIn:    "VAR_INPUT",
	FieldOut:   "VAR_OUTPUT",
	FieldInOut: "VAR_IN_OUT",
	FieldStat:  "VAR",
	FieldTemp:  "VAR_TEMP",
}

func (k FieldKind) String() string { return fieldKindNames[k] }

// Inbound fields receive the caller's value on CALL; outbound fields
// are copied back when the callee returns.
func (k FieldKind) Inbound() bool  { return k == FieldIn || k == FieldInOut }
func (k FieldKind) Outbound() bool { return k == FieldOut || k == FieldInOut }

type InterfaceField struct {
	Name    string
	Kind    FieldKind
	Type    datatypes.DataType
	Init    uint32
	HasInit bool
	// Layout in Struct or TempStruct.
	Layout *StructField
}

// BlockInterface is the declared variable set of a code block.
type BlockInterface struct {
	Fields     []*InterfaceField
	Struct     *Struct
	TempStruct *Struct
	byName     map[string]*InterfaceField
}

func newBlockInterface() *BlockInterface {
	return &BlockInterface{
		Struct:     NewStruct(),
		TempStruct: NewStruct(),
		byName:     make(map[string]*InterfaceField),
	}
}

func (bi *BlockInterface) Field(name string) (*InterfaceField, bool) {
	f, ok := bi.byName[name]
	return f, ok
}

// ParamCount is the number of parameters a CALL must assign.
func (bi *BlockInterface) ParamCount() int {
	n := 0
	for _, f := range bi.Fields {
		if f.Kind != FieldStat && f.Kind != FieldTemp {
			n++
		}
	}
	return n
}

func (bi *BlockInterface) add(kind FieldKind, raw parser.RawDataField) error {
	if _, exists := bi.byName[raw.Name]; exists {
		return errors.Errorf("Interface field '%s' is declared multiple times", raw.Name)
	}
	dt, err := datatypes.MakeByName(raw.TypeTokens)
	if err != nil {
		return err
	}
	field := &InterfaceField{Name: raw.Name, Kind: kind, Type: dt}
	if raw.ValueTokens != nil {
		if field.Init, err = dt.ParseMatchingImmediate(raw.ValueTokens); err != nil {
			return err
		}
		field.HasInit = true
	}
	s := bi.Struct
	if kind == FieldTemp {
		s = bi.TempStruct
	}
	if field.Layout, err = s.AddFieldNaturallyAligned(raw.Name, dt); err != nil {
		return err
	}
	bi.Fields = append(bi.Fields, field)
	bi.byName[raw.Name] = field
	return nil
}

var retValTokens = []string{"VOID"}

func buildInterface(kind BlockKind, raw *parser.RawCodeBlock) (*BlockInterface, error) {
	bi := newBlockInterface()
	if kind == BlockOB {
		if len(raw.VarsIn)+len(raw.VarsOut)+len(raw.VarsInOut)+len(raw.VarsStatic) > 0 {
			return nil, errors.New("OBs can only have VAR_TEMP variables")
		}
	}
	isFC := kind == BlockFC || kind == BlockSFC
	if isFC && len(raw.VarsStatic) > 0 {
		return nil, errors.New("FCs can not have static variables")
	}
	sections := []struct {
		kind   FieldKind
		fields []parser.RawDataField
	}{
		{FieldIn, raw.VarsIn},
		{FieldOut, raw.VarsOut},
	}
	for _, sec := range sections {
		for _, f := range sec.fields {
			if err := bi.add(sec.kind, f); err != nil {
				return nil, err
			}
		}
	}
	if isFC {
		retType := raw.RetTypeTokens
		if retType == nil {
			retType = retValTokens
		}
		dt, err := datatypes.MakeByName(retType)
		if err != nil {
			return nil, err
		}
		if dt.Type != datatypes.TypeVoid {
			if err := bi.add(FieldOut, parser.RawDataField{Name: "RET_VAL", TypeTokens: retType}); err != nil {
				return nil, err
			}
		}
	}
	sections = []struct {
		kind   FieldKind
		fields []parser.RawDataField
	}{
		{FieldInOut, raw.VarsInOut},
		{FieldStat, raw.VarsStatic},
		{FieldTemp, raw.VarsTemp},
	}
	for _, sec := range sections {
		for _, f := range sec.fields {
			if err := bi.add(sec.kind, f); err != nil {
				return nil, err
			}
		}
	}
	return bi, nil
}

// SystemBlockFunc implements an SFC or SFB. It runs with the callee's
// interface instance bound as the interface DB.
type SystemBlockFunc func(cpu *CPU, iface *StructInstance) error

type Block struct {
	Kind      BlockKind
	Index     int
	Name      string
	Insns     []*Instruction
	Labels    map[string]int
	Interface *BlockInterface

	system SystemBlockFunc
}

func (b *Block) String() string { return fmt.Sprintf("%s %d", b.Kind, b.Index) }

func (b *Block) IsSystem() bool { return b.system != nil }

// translateBlock builds a code block from its raw form.
func (cpu *CPU) translateBlock(kind BlockKind, raw *parser.RawCodeBlock, dialect Mnemonics) (*Block, error) {
	iface, err := buildInterface(kind, raw)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %d", blockKindNames[kind], raw.Index)
	}
	b := &Block{
		Kind:      kind,
		Index:     raw.Index,
		Labels:    make(map[string]int),
		Interface: iface,
	}
	if name, ok := raw.Descriptors["NAME"]; ok && len(name) > 0 {
		b.Name = name[0]
	}
	trans := &insnTranslator{dialect: dialect, extended: cpu.Config.ExtendedInsns, raw: raw}
	for i, rawInsn := range raw.Insns {
		insn, err := trans.translate(rawInsn, i)
		if err != nil {
			return nil, &SimulationError{Line: rawInsn.LineNr, Insn: rawInsn.String(), Err: err}
		}
		if insn.Label != "" {
			if _, dup := b.Labels[insn.Label]; dup {
				return nil, &SimulationError{Line: rawInsn.LineNr, Insn: rawInsn.String(),
					Err: errors.Errorf("Duplicate label '%s'", insn.Label)}
			}
			b.Labels[insn.Label] = i
		}
		b.Insns = append(b.Insns, insn)
	}
	for _, insn := range b.Insns {
		if err := b.link(insn); err != nil {
			return nil, insnError(insn, err)
		}
		if err := insn.checkStatic(); err != nil {
			return nil, insnError(insn, err)
		}
	}
	return b, nil
}

// link resolves label references and symbolic locals of insn.
func (b *Block) link(insn *Instruction) error {
	for i, op := range insn.Ops {
		resolved, err := b.resolveOperator(op)
		if err != nil {
			return err
		}
		insn.Ops[i] = resolved
	}
	for i := range insn.Params {
		resolved, err := b.resolveOperator(insn.Params[i].RValue)
		if err != nil {
			return err
		}
		insn.Params[i].RValue = resolved
	}
	return nil
}

func (b *Block) resolveOperator(op *Operator) (*Operator, error) {
	switch op.Type {
	case OpLblRef:
		idx, ok := b.Labels[op.Label]
		if !ok {
			return nil, errors.Errorf("Referenced label '%s' not found", op.Label)
		}
		op.LabelIndex = idx
	case OpNamedLocal:
		return b.resolveNamedLocal(op)
	case OpIndirect:
		off, err := b.resolveOperator(op.Indirect.Offset)
		if err != nil {
			return nil, err
		}
		op.Indirect.Offset = off
	}
	return op, nil
}

func (b *Block) resolveNamedLocal(op *Operator) (*Operator, error) {
	field, ok := b.Interface.Field(op.Name)
	if !ok {
		return nil, errors.Errorf("Symbolic local '#%s' is not declared in the interface of %s", op.Name, b)
	}
	resolved := &Operator{
		Width:     field.Layout.Width,
		Offset:    field.Layout.Offset,
		Name:      op.Name,
		Extended:  op.Extended,
		InsnIndex: op.InsnIndex,
	}
	if field.Kind == FieldTemp {
		resolved.Type = OpMemL
		return resolved, nil
	}
	resolved.Type = OpMemInterfDB
	if field.Type.IsCallByRef() {
		resolved.RefType = field.Type.Type
	}
	return resolved, nil
}
