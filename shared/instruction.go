package awlsim

import (
	"fmt"
	"strings"

	"awlsim/shared/parser"

	"github.com/pkg/errors"
)

type InsnHandler func(cpu *CPU, insn *Instruction) error

// insnDesc holds the allowed operand counts of a mnemonic, an optional
// translation time check and the run handler.
type insnDesc struct {
	nrOps []int
	check func(insn *Instruction) error
	run   InsnHandler
}

// Instruction is a translated instruction line.
type Instruction struct {
	Type   InsnType
	Name   string
	Label  string
	Ops    []*Operator
	Params []ParamAssign
	LineNr int
	Index  int

	run InsnHandler
}

func (insn *Instruction) String() string {
	var b strings.Builder
	if insn.Label != "" {
		b.WriteString(insn.Label)
		b.WriteString(": ")
	}
	b.WriteString(insn.Name)
	for i, op := range insn.Ops {
		if i == 0 {
			b.WriteString(" ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(op.String())
	}
	if len(insn.Params) > 0 {
		b.WriteString(" (")
		for i, p := range insn.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s := %s", p.Name, p.RValue)
		}
		b.WriteString(")")
	}
	return b.String()
}

func (insn *Instruction) Run(cpu *CPU) error { return insn.run(cpu, insn) }

// op0 is a shorthand for the first operator.
func (insn *Instruction) op0() *Operator { return insn.Ops[0] }

func ops(n ...int) []int { return n }

var insnTable = insnHandlers()

func insnHandlers() map[InsnType]insnDesc {
	table := make(map[InsnType]insnDesc, insnNrTypes)
	for _, group := range []map[InsnType]insnDesc{
		boolHandlers(),
		compareHandlers(),
		arithHandlers(),
		convertHandlers(),
		jumpHandlers(),
		transferHandlers(),
		blockHandlers(),
		timerHandlers(),
		debugHandlers(),
	} {
		for t, desc := range group {
			table[t] = desc
		}
	}
	return table
}

func checkOpTypes(types ...OperType) func(*Instruction) error {
	return func(insn *Instruction) error {
		for _, op := range insn.Ops {
			if err := op.checkType(types...); err != nil {
				return err
			}
		}
		return nil
	}
}

func checkOpWidths(widths ...int) func(*Instruction) error {
	return func(insn *Instruction) error {
		for _, op := range insn.Ops {
			if op.Type == OpIndirect || op.Type == OpNamedLocal {
				continue
			}
			if err := op.checkWidth(widths...); err != nil {
				return err
			}
		}
		return nil
	}
}

func checkAll(checks ...func(*Instruction) error) func(*Instruction) error {
	return func(insn *Instruction) error {
		for _, check := range checks {
			if err := check(insn); err != nil {
				return err
			}
		}
		return nil
	}
}

// insnTranslator turns raw instructions of one block into instructions.
type insnTranslator struct {
	dialect  Mnemonics
	extended bool
	raw      *parser.RawCodeBlock
}

func (t *insnTranslator) operTranslator() *operTranslator {
	return &operTranslator{
		dialect:  t.dialect,
		extended: t.extended,
		hasLabel: t.raw.HasLabel,
	}
}

func (t *insnTranslator) translate(raw parser.RawInsn, index int) (*Instruction, error) {
	typ, ok := LookupInsn(raw.Name, t.dialect)
	if !ok {
		return nil, errors.Errorf("Cannot translate instruction: '%s'", raw.Name)
	}
	if typ.IsExtended() && !t.extended {
		return nil, ErrExtendedDisabled
	}
	desc, ok := insnTable[typ]
	if !ok {
		return nil, errors.Errorf("Instruction '%s' not implemented, yet", raw.Name)
	}
	opers, params, err := t.operTranslator().Translate(raw.Ops, typ == InsnCALL)
	if err != nil {
		return nil, err
	}
	insn := &Instruction{
		Type:   typ,
		Name:   strings.ToUpper(raw.Name),
		Label:  raw.Label,
		Ops:    opers,
		Params: params,
		LineNr: raw.LineNr,
		Index:  index,
		run:    desc.run,
	}
	for _, op := range opers {
		op.InsnIndex = index
	}
	if err := insn.checkOpCount(desc.nrOps); err != nil {
		return nil, err
	}
	return insn, nil
}

func (insn *Instruction) checkOpCount(counts []int) error {
	for _, n := range counts {
		if len(insn.Ops) == n {
			return nil
		}
	}
	return errors.Errorf("Invalid number of operators. Expected %v, but got %d.", counts, len(insn.Ops))
}

// checkStatic runs the translation time operator checks, after labels
// and symbolic locals are resolved.
func (insn *Instruction) checkStatic() error {
	desc := insnTable[insn.Type]
	if desc.check == nil {
		return nil
	}
	return desc.check(insn)
}
