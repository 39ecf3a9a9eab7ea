package awlsim

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"awlsim/datatypes"

	"github.com/pkg/errors"
)

// opDesc is a constant operand table entry. fields is the number of
// tokens the operand takes; needAddr entries read their address from the
// second token.
type opDesc struct {
	typ      OperType
	width    int
	value    uint32
	bit      int
	fields   int
	needAddr bool
}

func addr(t OperType, width int) opDesc {
	return opDesc{typ: t, width: width, fields: 2, needAddr: true}
}

func stwCond(t OperType) opDesc {
	return opDesc{typ: t, width: 1, fields: 1}
}

func stwBit(bit int) opDesc {
	return opDesc{typ: OpMemSTW, width: 1, bit: bit, fields: 1}
}

func realConst(f float64) opDesc {
	return opDesc{typ: OpImmReal, width: 32, value: datatypes.RawFloatToDWord(f), fields: 1}
}

func dwordConst(dw uint32) opDesc {
	return opDesc{typ: OpImmReal, width: 32, value: dw, fields: 1}
}

var constOperTabDE = map[string]opDesc{
	"==0": stwCond(OpMemSTWZ),
	"<>0": stwCond(OpMemSTWNZ),
	">0":  stwCond(OpMemSTWPOS),
	"<0":  stwCond(OpMemSTWNEG),
	">=0": stwCond(OpMemSTWPOSZ),
	"<=0": stwCond(OpMemSTWNEGZ),
	"UO":  stwCond(OpMemSTWUO),
	"OV":  stwBit(StwOV),
	"OS":  stwBit(StwOS),
	"BIE": stwBit(StwBIE),

	"E":  addr(OpMemE, 1),
	"EB": addr(OpMemE, 8),
	"EW": addr(OpMemE, 16),
	"ED": addr(OpMemE, 32),
	"A":  addr(OpMemA, 1),
	"AB": addr(OpMemA, 8),
	"AW": addr(OpMemA, 16),
	"AD": addr(OpMemA, 32),
	"L":  addr(OpMemL, 1),
	"LB": addr(OpMemL, 8),
	"LW": addr(OpMemL, 16),
	"LD": addr(OpMemL, 32),
	"M":  addr(OpMemM, 1),
	"MB": addr(OpMemM, 8),
	"MW": addr(OpMemM, 16),
	"MD": addr(OpMemM, 32),
	"T":  addr(OpMemT, 16),
	"Z":  addr(OpMemZ, 16),

	"FC":  addr(OpBlkFC, 16),
	"SFC": addr(OpBlkSFC, 16),
	"FB":  addr(OpBlkFB, 16),
	"SFB": addr(OpBlkSFB, 16),
	"DB":  addr(OpBlkDB, 16),
	"DI":  addr(OpBlkDI, 16),

	"DBX": addr(OpMemDB, 1),
	"DBB": addr(OpMemDB, 8),
	"DBW": addr(OpMemDB, 16),
	"DBD": addr(OpMemDB, 32),
	"DIX": addr(OpMemDI, 1),
	"DIB": addr(OpMemDI, 8),
	"DIW": addr(OpMemDI, 16),
	"DID": addr(OpMemDI, 32),

	"PEB": addr(OpMemPE, 8),
	"PEW": addr(OpMemPE, 16),
	"PED": addr(OpMemPE, 32),
	"PAB": addr(OpMemPA, 8),
	"PAW": addr(OpMemPA, 16),
	"PAD": addr(OpMemPA, 32),

	"STW": {typ: OpMemSTW, width: 16, fields: 1},

	"__STW":  {typ: OpMemSTW, width: 1, fields: 2, needAddr: true},
	"__ACCU": addr(OpVirtAccu, 32),
	"__AR":   addr(OpVirtAR, 32),

	"__CNST_PI":   realConst(math.Pi),
	"__CNST_E":    realConst(math.E),
	"__CNST_PINF": dwordConst(datatypes.PosInfDWord),
	"__CNST_NINF": dwordConst(datatypes.NegInfDWord),
	"__CNST_PNAN": dwordConst(datatypes.PNaNDWord),
	"__CNST_NNAN": dwordConst(datatypes.NNaNDWord),

	"B": {typ: OpUnspec, width: 8, fields: 1},
	"W": {typ: OpUnspec, width: 16, fields: 1},
	"D": {typ: OpUnspec, width: 32, fields: 1},
}

var operEnglish2German = map[string]string{
	"I":   "E",
	"IB":  "EB",
	"IW":  "EW",
	"ID":  "ED",
	"Q":   "A",
	"QB":  "AB",
	"QW":  "AW",
	"QD":  "AD",
	"C":   "Z",
	"BR":  "BIE",
	"PIB": "PEB",
	"PIW": "PEW",
	"PID": "PED",
	"PQB": "PAB",
	"PQW": "PAW",
	"PQD": "PAD",
}

var constOperTabEN = func() map[string]opDesc {
	m := make(map[string]opDesc, len(constOperTabDE))
	renamed := make(map[string]bool)
	for en, de := range operEnglish2German {
		m[en] = constOperTabDE[de]
		renamed[de] = true
	}
	for de, desc := range constOperTabDE {
		if !renamed[de] {
			m[de] = desc
		}
	}
	return m
}()

var qualifiedDBRe = regexp.MustCompile(`^DB(\d+)\.(DB[XBWD])$`)

// ParamAssign is one "name := value" item of a CALL.
type ParamAssign struct {
	Name   string
	RValue *Operator
}

type operTranslator struct {
	dialect  Mnemonics
	extended bool
	hasLabel func(string) bool
}

func (t *operTranslator) constTable() map[string]opDesc {
	if t.dialect == MnemonicsEN {
		return constOperTabEN
	}
	return constOperTabDE
}

// Translate converts an operand token list into operators. For CALL
// a parenthesized parameter list follows the operators.
func (t *operTranslator) Translate(tokens []string, withParams bool) ([]*Operator, []ParamAssign, error) {
	var params []ParamAssign
	if withParams {
		for i, tok := range tokens {
			if tok != "(" {
				continue
			}
			var err error
			params, err = t.translateParams(tokens[i+1:])
			if err != nil {
				return nil, nil, err
			}
			tokens = tokens[:i]
			break
		}
	}
	ops, err := t.translateList(tokens)
	if err != nil {
		return nil, nil, err
	}
	return ops, params, nil
}

func (t *operTranslator) translateList(tokens []string) ([]*Operator, error) {
	var ops []*Operator
	for len(tokens) > 0 {
		op, fields, err := t.translateOne(tokens)
		if err != nil {
			return nil, err
		}
		if len(tokens) > fields {
			if tokens[fields] != "," {
				return nil, errors.New("Missing comma in operator list")
			}
			fields++
			if len(tokens) <= fields {
				return nil, errors.New("Trailing comma")
			}
		}
		ops = append(ops, op)
		tokens = tokens[fields:]
	}
	return ops, nil
}

func (t *operTranslator) translateParams(tokens []string) ([]ParamAssign, error) {
	if len(tokens) == 0 {
		return nil, errors.New("Missing closing parenthesis")
	}
	end := -1
	for i, tok := range tokens {
		if tok == ")" {
			end = i
		}
	}
	if end < 0 {
		return nil, errors.New("Missing closing parenthesis")
	}
	if end != len(tokens)-1 {
		return nil, errors.New("Trailing character after closing parenthesis")
	}
	tokens = tokens[:end]
	var params []ParamAssign
	for len(tokens) > 0 {
		if len(tokens) < 1 || tokens[0] == ":=" || tokens[0] == "," {
			return nil, errors.New("Invalid parameter assignment")
		}
		if len(tokens) < 2 || tokens[1] != ":=" {
			return nil, errors.New("Missing assignment operator (:=) in parameter assignment")
		}
		name := tokens[0]
		if len(tokens) < 3 || tokens[2] == "," {
			return nil, errors.New("No R-Value in parameter assignment")
		}
		rvalue, fields, err := t.translateOne(tokens[2:])
		if err != nil {
			return nil, err
		}
		params = append(params, ParamAssign{Name: name, RValue: rvalue})
		tokens = tokens[2+fields:]
		if len(tokens) > 0 {
			if tokens[0] != "," {
				return nil, errors.New("Missing comma in parameter list")
			}
			tokens = tokens[1:]
			if len(tokens) == 0 {
				return nil, errors.New("Trailing comma")
			}
		}
	}
	return params, nil
}

func (t *operTranslator) translateOne(tokens []string) (*Operator, int, error) {
	tok := tokens[0]
	if t.hasLabel != nil && t.hasLabel(tok) {
		return &Operator{Type: OpLblRef, Label: tok}, 1, nil
	}

	extended := strings.HasPrefix(tok, "__")
	if extended && !t.extended {
		return nil, 0, ErrExtendedDisabled
	}

	upper := strings.ToUpper(tok)
	if desc, ok := t.constTable()[upper]; ok {
		op := &Operator{
			Type:     desc.typ,
			Width:    desc.width,
			Value:    desc.value,
			Offset:   datatypes.Offset{Bit: desc.bit},
			Extended: extended,
		}
		if len(tokens) > 1 && tokens[1] == "[" {
			return t.translateIndirect(op, tokens)
		}
		if op.Type == OpUnspec {
			return nil, 0, errors.New("Missing indirect addressing operator")
		}
		if desc.needAddr {
			if err := t.translateAddress(op, tokens[1:]); err != nil {
				return nil, 0, err
			}
		}
		return op, desc.fields, nil
	}

	if m := qualifiedDBRe.FindStringSubmatch(upper); m != nil {
		dbNr, err := strconv.Atoi(m[1])
		if err != nil || dbNr <= 0 || dbNr > 0xFFFF {
			return nil, 0, errors.Errorf("Invalid DB number in operator %s", tok)
		}
		desc := constOperTabDE[m[2]]
		op := &Operator{Type: OpMemDB, Width: desc.width, Value: uint32(dbNr)}
		if err := t.translateAddress(op, tokens[1:]); err != nil {
			return nil, 0, err
		}
		return op, 2, nil
	}

	if strings.HasPrefix(tok, "#") {
		if len(tok) < 2 {
			return nil, 0, errors.Errorf("Cannot parse operand: %s", tok)
		}
		return &Operator{Type: OpNamedLocal, Name: tok[1:]}, 1, nil
	}

	return parseImmediateOperator(tokens)
}

func parseImmediateOperator(tokens []string) (*Operator, int, error) {
	tok := tokens[0]
	imm := func(t OperType, width int, v uint32, fields int) (*Operator, int, error) {
		return &Operator{Type: t, Width: width, Value: v}, fields, nil
	}

	if v, ok, err := datatypes.ParseInt(tok); ok {
		if err != nil {
			return nil, 0, err
		}
		return imm(OpImm, 16, uint32(v)&0xFFFF, 1)
	}
	if v, ok := datatypes.ParseReal(tok); ok {
		return imm(OpImmReal, 32, v, 1)
	}
	if v, ok, err := datatypes.ParseS5T(tok); ok {
		if err != nil {
			return nil, 0, err
		}
		return imm(OpImmS5T, 16, v, 1)
	}
	if v, ok, err := datatypes.ParseTime(tok); ok {
		if err != nil {
			return nil, 0, err
		}
		return imm(OpImmTime, 32, v, 1)
	}
	for _, parse := range []func(string) (bool, error){datatypes.ParseTOD, datatypes.ParseDT, datatypes.ParseDate} {
		if ok, err := parse(tok); ok {
			return nil, 0, err
		}
	}
	if v, fields, err := datatypes.ParsePointer(tokens); fields > 0 {
		if err != nil {
			return nil, 0, err
		}
		return imm(OpImmPtr, 32, v, fields)
	}
	if v, ok, err := datatypes.ParseBin(tok); ok {
		if err != nil {
			return nil, 0, err
		}
		width := 16
		if v > 0xFFFF {
			width = 32
		}
		return imm(OpImm, width, v, 1)
	}
	if v, fields, err := datatypes.ParseByteArray(tokens); fields > 0 {
		if err != nil {
			return nil, 0, err
		}
		width := 16
		if fields == 9 {
			width = 32
		}
		return imm(OpImm, width, v, fields)
	}
	if v, ok, err := datatypes.ParseHexByte(tok); ok {
		if err != nil {
			return nil, 0, err
		}
		return imm(OpImm, 8, v, 1)
	}
	if v, ok, err := datatypes.ParseHexWord(tok); ok {
		if err != nil {
			return nil, 0, err
		}
		return imm(OpImm, 16, v, 1)
	}
	if v, ok, err := datatypes.ParseHexDWord(tok); ok {
		if err != nil {
			return nil, 0, err
		}
		return imm(OpImm, 32, v, 1)
	}
	if v, ok, err := datatypes.ParseDInt(tok); ok {
		if err != nil {
			return nil, 0, err
		}
		return imm(OpImm, 32, v, 1)
	}
	if v, ok, err := datatypes.ParseBCDWord(tok); ok {
		if err != nil {
			return nil, 0, err
		}
		return imm(OpImm, 16, v, 1)
	}
	if v, ok, err := datatypes.ParseString(tok); ok {
		if err != nil {
			return nil, 0, err
		}
		return imm(OpImmStr, 8*(len(tok)-2), v, 1)
	}
	return nil, 0, errors.Errorf("Cannot parse operand: %s", tok)
}

func (t *operTranslator) translateAddress(op *Operator, tokens []string) error {
	if len(tokens) < 1 {
		return errors.New("Missing address operator")
	}
	tok := tokens[0]
	switch op.Type {
	case OpMemSTW:
		bit, err := strconv.Atoi(tok)
		if err != nil {
			bit, err = StwBitByName(tok)
			if err != nil {
				return err
			}
		}
		if bit < 0 || bit >= StwNrBits {
			return errors.New("Invalid bit address")
		}
		op.Offset = datatypes.Offset{Bit: bit}
		return nil
	case OpBlkFC, OpBlkSFC, OpBlkFB, OpBlkSFB, OpBlkDB, OpBlkDI, OpVirtAccu, OpVirtAR:
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 || n > 0xFFFF {
			return errors.New("Invalid word address")
		}
		op.Value = uint32(n)
		return nil
	}

	if op.Width == 1 {
		byteStr, bitStr, found := strings.Cut(tok, ".")
		if !found {
			return errors.New("Invalid bit address")
		}
		byteOff, err1 := strconv.Atoi(byteStr)
		bitOff, err2 := strconv.Atoi(bitStr)
		if err1 != nil || err2 != nil || byteOff < 0 || bitOff < 0 {
			return errors.New("Invalid bit address")
		}
		if bitOff > 7 {
			return errors.Errorf("Invalid bit offset %d. Biggest possible bit offset is 7.", bitOff)
		}
		op.Offset = datatypes.Offset{Byte: byteOff, Bit: bitOff}
		return nil
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		switch op.Width {
		case 8:
			return errors.New("Invalid byte address")
		case 16:
			return errors.New("Invalid word address")
		}
		return errors.New("Invalid doubleword address")
	}
	op.Offset = datatypes.Offset{Byte: n}
	return nil
}

// translateIndirect handles "<area> [AR1,P#x.y]" and "<area> [<operator>]".
func (t *operTranslator) translateIndirect(base *Operator, tokens []string) (*Operator, int, error) {
	if len(tokens) >= 3 {
		switch strings.ToUpper(tokens[2]) {
		case "AR1", "AR2":
			return t.translateRegisterIndirect(base, tokens)
		}
	}

	end := -1
	for i := 2; i < len(tokens); i++ {
		if tokens[i] == "]" {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, 0, errors.New("Missing closing brackets in indirect addressing operator")
	}
	inner := tokens[2:end]
	if len(inner) == 0 {
		return nil, 0, errors.New("Invalid indirect addressing operator")
	}
	offset, fields, err := t.translateOne(inner)
	if err != nil {
		return nil, 0, err
	}
	if fields != len(inner) {
		return nil, 0, errors.New("Invalid indirect addressing operator format. AR1/AR2 missing?")
	}
	if offset.Type == OpIndirect {
		return nil, 0, errors.New("Only direct operators supported inside of indirect operator brackets.")
	}
	area, ok := optype2area[base.Type]
	if !ok {
		return nil, 0, errors.New("Invalid memory area type in indirect addressing operator")
	}
	if area == AreaNone {
		return nil, 0, errors.New("No memory area code specified in indirect addressing operator")
	}
	if offset.Type != OpNamedLocal {
		want := 32
		switch base.Type {
		case OpMemT, OpMemZ, OpBlkDB, OpBlkFB, OpBlkFC:
			want = 16
		}
		if offset.Width != want {
			return nil, 0, errors.Errorf("Offset operator in indirect addressing operator has invalid width. Got %d bit, but expected %d bit.", offset.Width, want)
		}
	}
	op := &Operator{
		Type:     OpIndirect,
		Width:    base.Width,
		Indirect: &IndirectRef{Area: area, Offset: offset},
		Extended: base.Extended,
	}
	return op, end + 1, nil
}

func (t *operTranslator) translateRegisterIndirect(base *Operator, tokens []string) (*Operator, int, error) {
	if len(tokens) < 4 || tokens[3] != "," {
		return nil, 0, errors.New("Missing comma in register-indirect addressing operator")
	}
	if len(tokens) < 5 {
		return nil, 0, errors.New("Invalid offset pointer in register indirect addressing operator")
	}
	ptr, fields, err := datatypes.ParsePointer(tokens[4:])
	if err != nil || fields != 1 {
		if fields == 2 {
			return nil, 0, errors.New("Area internal pointer not allowed as indirect addressing offset pointer.")
		}
		return nil, 0, errors.New("Invalid offset pointer in register indirect addressing operator")
	}
	if len(tokens) < 6 || tokens[5] != "]" {
		return nil, 0, errors.New("Missing closing brackets in register indirect addressing operator")
	}
	area, ok := optype2area[base.Type]
	if !ok || area > AreaMask {
		return nil, 0, errors.New("Invalid memory area type in register indirect addressing operator")
	}
	ar := 1
	if strings.ToUpper(tokens[2]) == "AR2" {
		ar = 2
	}
	op := &Operator{
		Type:  OpIndirect,
		Width: base.Width,
		Indirect: &IndirectRef{
			Area:   area,
			AR:     ar,
			Offset: &Operator{Type: OpImmPtr, Width: 32, Value: ptr},
		},
		Extended: base.Extended,
	}
	return op, 6, nil
}
