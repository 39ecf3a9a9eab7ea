package awlsim

import (
	"testing"

	"awlsim/datatypes"

	"github.com/pkg/errors"
)

func translate(t *testing.T, dialect Mnemonics, tokens ...string) *Operator {
	t.Helper()
	trans := &operTranslator{dialect: dialect, extended: true}
	ops, _, err := trans.Translate(tokens, false)
	if err != nil {
		t.Fatalf("%q: %v", tokens, err)
	}
	if len(ops) != 1 {
		t.Fatalf("%q: got %d operators", tokens, len(ops))
	}
	return ops[0]
}

func TestTranslateDirect(t *testing.T) {
	tests := []struct {
		dialect Mnemonics
		tokens  []string
		typ     OperType
		width   int
		offset  datatypes.Offset
		str     string
	}{
		{MnemonicsDE, []string{"E", "0.0"}, OpMemE, 1, datatypes.Offset{}, "E 0.0"},
		{MnemonicsEN, []string{"I", "1.2"}, OpMemE, 1, datatypes.Offset{Byte: 1, Bit: 2}, "E 1.2"},
		{MnemonicsDE, []string{"A", "4.7"}, OpMemA, 1, datatypes.Offset{Byte: 4, Bit: 7}, "A 4.7"},
		{MnemonicsEN, []string{"QW", "2"}, OpMemA, 16, datatypes.Offset{Byte: 2}, "AW 2"},
		{MnemonicsDE, []string{"MW", "10"}, OpMemM, 16, datatypes.Offset{Byte: 10}, "MW 10"},
		{MnemonicsDE, []string{"LD", "4"}, OpMemL, 32, datatypes.Offset{Byte: 4}, "LD 4"},
		{MnemonicsDE, []string{"DIB", "3"}, OpMemDI, 8, datatypes.Offset{Byte: 3}, "DIB 3"},
		{MnemonicsDE, []string{"PEW", "256"}, OpMemPE, 16, datatypes.Offset{Byte: 256}, "PEW 256"},
		{MnemonicsEN, []string{"PQB", "8"}, OpMemPA, 8, datatypes.Offset{Byte: 8}, "PAB 8"},
		{MnemonicsDE, []string{"T", "5"}, OpMemT, 16, datatypes.Offset{Byte: 5}, "T 5"},
		{MnemonicsEN, []string{"C", "7"}, OpMemZ, 16, datatypes.Offset{Byte: 7}, "Z 7"},
		{MnemonicsDE, []string{"STW"}, OpMemSTW, 16, datatypes.Offset{}, "STW"},
		{MnemonicsDE, []string{"OV"}, OpMemSTW, 1, datatypes.Offset{Bit: StwOV}, "__STW OV"},
		{MnemonicsEN, []string{"BR"}, OpMemSTW, 1, datatypes.Offset{Bit: StwBIE}, "__STW BIE"},
		{MnemonicsDE, []string{"__STW", "VKE"}, OpMemSTW, 1, datatypes.Offset{Bit: StwVKE}, "__STW VKE"},
		{MnemonicsDE, []string{"==0"}, OpMemSTWZ, 1, datatypes.Offset{}, "==0"},
		{MnemonicsDE, []string{"UO"}, OpMemSTWUO, 1, datatypes.Offset{}, "UO"},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			op := translate(t, tt.dialect, tt.tokens...)
			check(t, op.Type, tt.typ)
			check(t, op.Width, tt.width)
			check(t, op.Offset, tt.offset)
			check(t, op.String(), tt.str)
		})
	}
}

func TestTranslateQualifiedDB(t *testing.T) {
	op := translate(t, MnemonicsDE, "DB3.DBW", "4")
	check(t, op.Type, OpMemDB)
	check(t, op.Value, uint32(3))
	check(t, op.Width, 16)
	check(t, op.Offset, datatypes.Offset{Byte: 4})
	check(t, op.String(), "DB3.DBW 4")

	trans := &operTranslator{dialect: MnemonicsDE}
	_, _, err := trans.Translate([]string{"DB0.DBX", "0.0"}, false)
	check(t, err.Error(), "Invalid DB number in operator DB0.DBX")
}

func TestTranslateImmediates(t *testing.T) {
	tests := []struct {
		tokens []string
		typ    OperType
		width  int
		value  uint32
	}{
		{[]string{"5"}, OpImm, 16, 5},
		{[]string{"-1"}, OpImm, 16, 0xFFFF},
		{[]string{"L#-2"}, OpImm, 32, 0xFFFFFFFE},
		{[]string{"B#16#12"}, OpImm, 8, 0x12},
		{[]string{"W#16#BEEF"}, OpImm, 16, 0xBEEF},
		{[]string{"DW#16#12345678"}, OpImm, 32, 0x12345678},
		{[]string{"2#1010"}, OpImm, 16, 0xA},
		{[]string{"2#1_0000_0000_0000_0000"}, OpImm, 32, 0x10000},
		{[]string{"C#999"}, OpImm, 16, 0x999},
		{[]string{"B#(", "1", ",", "2", ")"}, OpImm, 16, 0x0102},
		{[]string{"1.5"}, OpImmReal, 32, 0x3FC00000},
		{[]string{"S5T#2S"}, OpImmS5T, 16, 0x0200},
		{[]string{"T#1S"}, OpImmTime, 32, 1000},
		{[]string{"P#2.0"}, OpImmPtr, 32, 16},
		{[]string{"P#M", "10.0"}, OpImmPtr, 32, datatypes.PointerAreaM | 80},
		{[]string{"'AB'"}, OpImmStr, 16, 0x4142},
		{[]string{"__CNST_PINF"}, OpImmReal, 32, datatypes.PosInfDWord},
	}
	for _, tt := range tests {
		op := translate(t, MnemonicsDE, tt.tokens...)
		check(t, op.Type, tt.typ)
		check(t, op.Width, tt.width)
		check(t, op.Value, tt.value)
	}
}

func TestTranslateIndirect(t *testing.T) {
	op := translate(t, MnemonicsDE, "MW", "[", "MD", "20", "]")
	check(t, op.Type, OpIndirect)
	check(t, op.Width, 16)
	check(t, op.Indirect.Area, AreaM)
	check(t, op.Indirect.AR, 0)
	check(t, op.Indirect.Offset.Type, OpMemM)
	check(t, op.String(), "MW [MD 20]")

	op = translate(t, MnemonicsDE, "M", "[", "AR1", ",", "P#2.0", "]")
	check(t, op.Width, 1)
	check(t, op.Indirect.AR, 1)
	check(t, op.Indirect.Offset.Value, uint32(16))
	check(t, op.String(), "M [AR1,P#2.0]")

	op = translate(t, MnemonicsDE, "W", "[", "AR2", ",", "P#0.0", "]")
	check(t, op.Indirect.Area, AreaNone)
	check(t, op.Indirect.AR, 2)

	op = translate(t, MnemonicsDE, "T", "[", "MW", "2", "]")
	check(t, op.Indirect.Area, ExtAreaT)
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		name     string
		extended bool
		tokens   []string
		msg      string
	}{
		{"bit offset", true, []string{"E", "0.8"}, "Invalid bit offset 8. Biggest possible bit offset is 7."},
		{"bit address", true, []string{"M", "1"}, "Invalid bit address"},
		{"word address", true, []string{"MW", "x"}, "Invalid word address"},
		{"missing address", true, []string{"MB"}, "Missing address operator"},
		{"comma", true, []string{"MW", "0", "1"}, "Missing comma in operator list"},
		{"trailing comma", true, []string{"1", ","}, "Trailing comma"},
		{"unknown", true, []string{"FOO"}, "Cannot parse operand: FOO"},
		{"offset width", true, []string{"MW", "[", "MW", "0", "]"},
			"Offset operator in indirect addressing operator has invalid width. Got 16 bit, but expected 32 bit."},
		{"area pointer", true, []string{"M", "[", "AR1", ",", "P#M", "2.0", "]"},
			"Area internal pointer not allowed as indirect addressing offset pointer."},
		{"brackets", true, []string{"MW", "[", "MD", "0"},
			"Missing closing brackets in indirect addressing operator"},
		{"unspec", true, []string{"D"}, "Missing indirect addressing operator"},
		{"tod", true, []string{"TOD#1:2:3"}, "TIME_OF_DAY# not implemented, yet"},
		{"extended", false, []string{"__ACCU", "1"}, ErrExtendedDisabled.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trans := &operTranslator{dialect: MnemonicsDE, extended: tt.extended}
			_, _, err := trans.Translate(tt.tokens, false)
			if err == nil {
				t.Fatalf("%q translated", tt.tokens)
			}
			check(t, err.Error(), tt.msg)
		})
	}
}

func TestTranslateParams(t *testing.T) {
	trans := &operTranslator{dialect: MnemonicsDE}
	ops, params, err := trans.Translate(
		[]string{"FC", "1", "(", "A", ":=", "MW", "0", ",", "B", ":=", "5", ")"}, true)
	check(t, err, nil)
	check(t, len(ops), 1)
	check(t, ops[0].Type, OpBlkFC)
	check(t, ops[0].Value, uint32(1))
	check(t, len(params), 2)
	check(t, params[0].Name, "A")
	check(t, params[0].RValue.String(), "MW 0")
	check(t, params[1].RValue.Value, uint32(5))

	ops, _, err = trans.Translate([]string{"FB", "2", ",", "DB", "3"}, true)
	check(t, err, nil)
	check(t, len(ops), 2)
	check(t, ops[1].Type, OpBlkDB)

	bad := []struct {
		tokens []string
		msg    string
	}{
		{[]string{"FC", "1", "(", "A", "MW", "0", ")"}, "Missing assignment operator (:=) in parameter assignment"},
		{[]string{"FC", "1", "(", "A", ":=", ")"}, "No R-Value in parameter assignment"},
		{[]string{"FC", "1", "(", "A", ":=", "1", ",", ")"}, "Trailing comma"},
		{[]string{"FC", "1", "(", "A", ":=", "1"}, "Missing closing parenthesis"},
		{[]string{"FC", "1", "(", ")", "X"}, "Trailing character after closing parenthesis"},
	}
	for _, tt := range bad {
		_, _, err := trans.Translate(tt.tokens, true)
		if err == nil {
			t.Errorf("%q translated", tt.tokens)
			continue
		}
		check(t, err.Error(), tt.msg)
	}
}

func TestTranslateLabelsAndLocals(t *testing.T) {
	trans := &operTranslator{
		dialect:  MnemonicsDE,
		hasLabel: func(s string) bool { return s == "M1" },
	}
	ops, _, err := trans.Translate([]string{"M1"}, false)
	check(t, err, nil)
	check(t, ops[0].Type, OpLblRef)
	check(t, ops[0].Label, "M1")

	ops, _, err = trans.Translate([]string{"#COUNT"}, false)
	check(t, err, nil)
	check(t, ops[0].Type, OpNamedLocal)
	check(t, ops[0].Name, "COUNT")
}

func TestMakePointer(t *testing.T) {
	op := translate(t, MnemonicsDE, "M", "10.0")
	ptr, err := op.MakePointer()
	check(t, err, nil)
	check(t, ptr, uint32(0x83000050))

	op = translate(t, MnemonicsDE, "T", "1")
	_, err = op.MakePointer()
	if err == nil {
		t.Errorf("timer operator became a pointer")
	}
}

func TestMnemonicsTables(t *testing.T) {
	typ, ok := LookupInsn("a", MnemonicsEN)
	check(t, ok, true)
	check(t, typ, InsnU)
	typ, ok = LookupInsn("U", MnemonicsDE)
	check(t, ok, true)
	check(t, typ, InsnU)
	_, ok = LookupInsn("U", MnemonicsEN)
	check(t, ok, false)

	typ, _ = LookupInsn("SE", MnemonicsEN)
	check(t, typ, InsnSV)
	typ, _ = LookupInsn("SD", MnemonicsEN)
	check(t, typ, InsnSE)
	check(t, InsnSPA.String(), "SPA")
	check(t, InsnAssertEQ.IsExtended(), true)
	check(t, InsnNOP.IsExtended(), false)

	m, err := ParseMnemonics("EN")
	check(t, err, nil)
	check(t, m, MnemonicsEN)
	_, err = ParseMnemonics("fr")
	check(t, errors.Cause(err).Error(), "Invalid mnemonics type: fr")
}
