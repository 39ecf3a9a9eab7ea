package parser

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func check(t *testing.T, a1 any, a2 any) {
	t.Helper()
	if a1 != a2 {
		t.Errorf("%[1]v (a %[1]T) != %[2]v (a %[2]T)", a1, a2)
	}
}

func TestFlatLayout(t *testing.T) {
	tree, err := Parse("U E 0.0\n= A 0.0 // drive the lamp\nBE\n")
	check(t, err, nil)
	ob, ok := tree.OBs[1]
	if !ok {
		t.Fatalf("flat source did not end up in OB 1")
	}
	check(t, len(ob.Insns), 3)
	check(t, ob.Insns[0].Name, "U")
	if !reflect.DeepEqual(ob.Insns[0].Ops, []string{"E", "0.0"}) {
		t.Errorf("bad operands %v", ob.Insns[0].Ops)
	}
	check(t, ob.Insns[1].Name, "=")
	check(t, ob.Insns[1].LineNr, 2)
	check(t, ob.Insns[2].LineNr, 3)
}

func TestSemicolonsAndLabels(t *testing.T) {
	tree, err := Parse("L 1; T MW 0\nM1: L MW 0\n + 1\nSPA M1")
	check(t, err, nil)
	ob := tree.OBs[1]
	check(t, len(ob.Insns), 5)
	check(t, ob.Insns[2].Label, "M1")
	check(t, ob.Insns[2].Name, "L")
	check(t, ob.HasLabel("M1"), true)
	check(t, ob.HasLabel("M2"), false)
	check(t, ob.Insns[4].LineNr, 4)
}

func TestIndirectTokens(t *testing.T) {
	tree, err := Parse("L MW [AR1,P#2.0]\n")
	check(t, err, nil)
	want := []string{"MW", "[", "AR1", ",", "P#2.0", "]"}
	if got := tree.OBs[1].Insns[0].Ops; !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

const blockSource = `
DATA_BLOCK DB 1
	TITLE = Globals
	STRUCT
		A : INT;
		B : BOOL;
	END_STRUCT;
BEGIN
	A := 42;
	C := 1;
END_DATA_BLOCK

FUNCTION_BLOCK FB 2
	VAR_INPUT
		IN1 : BOOL;
	END_VAR
	VAR
		CNT : INT := 5;
	END_VAR
	VAR_TEMP
		T1 : DWORD;
	END_VAR
BEGIN
NETWORK
TITLE = first
	U #IN1
	= M 0.0
END_FUNCTION_BLOCK

DATA_BLOCK DB 2
	FB 2
BEGIN
END_DATA_BLOCK

FUNCTION FC 3 : VOID
	VAR_IN_OUT
		X : INT;
	END_VAR
BEGIN
	CALL FC 4 (
		A := M 1.0,
		B := #X
	)
END_FUNCTION

ORGANIZATION_BLOCK OB 1
BEGIN
	CALL FB 2, DB 2
END_ORGANIZATION_BLOCK
`

func TestBlocks(t *testing.T) {
	tree, err := Parse(blockSource)
	check(t, err, nil)

	db1 := tree.DBs[1]
	check(t, db1.IsInstanceDB(), false)
	check(t, len(db1.Fields), 3)
	check(t, db1.Fields[0].Name, "A")
	if !reflect.DeepEqual(db1.Fields[0].ValueTokens, []string{"42"}) {
		t.Errorf("A value %v", db1.Fields[0].ValueTokens)
	}
	check(t, db1.Fields[2].TypeTokens == nil, true)
	if !reflect.DeepEqual(db1.Descriptors["TITLE"], []string{"Globals"}) {
		t.Errorf("title %v", db1.Descriptors["TITLE"])
	}

	fb := tree.FBs[2]
	check(t, len(fb.VarsIn), 1)
	check(t, len(fb.VarsStatic), 1)
	if !reflect.DeepEqual(fb.VarsStatic[0].ValueTokens, []string{"5"}) {
		t.Errorf("CNT init %v", fb.VarsStatic[0].ValueTokens)
	}
	check(t, len(fb.VarsTemp), 1)
	check(t, len(fb.Insns), 2)

	db2 := tree.DBs[2]
	check(t, db2.IsInstanceDB(), true)
	check(t, *db2.FB, FBRef{Name: "FB", Number: 2})

	fc := tree.FCs[3]
	if !reflect.DeepEqual(fc.RetTypeTokens, []string{"VOID"}) {
		t.Errorf("FC return type %v", fc.RetTypeTokens)
	}
	check(t, len(fc.Insns), 1)
	wantOps := []string{"FC", "4", "(", "A", ":=", "M", "1.0", ",", "B", ":=", "#X", ")"}
	if got := fc.Insns[0].Ops; !reflect.DeepEqual(got, wantOps) {
		t.Errorf("got %q, want %q", got, wantOps)
	}

	ob := tree.OBs[1]
	wantCall := []string{"FB", "2", ",", "DB", "2"}
	if got := ob.Insns[0].Ops; !reflect.DeepEqual(got, wantCall) {
		t.Errorf("got %q, want %q", got, wantCall)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{"quote", "L \"abc\n", 2, "Unterminated quote"},
		{"parens", "CALL FC 1 (\nA := M 0.0\n", 3, "Unterminated parenthesis pair"},
		{"standalone label", "M1:\n", 1, "Invalid standalone label"},
		{"invalid label", "L1234X: NOP 0\n", 1, "Invalid label"},
		{"unknown statement", "ORGANIZATION_BLOCK OB 1\nBEGIN\nEND_ORGANIZATION_BLOCK\nFOO\n", 4, "Unknown statement"},
		{"db name", "DATA_BLOCK FB 1\nORGANIZATION_BLOCK OB 1\n", 1, "Invalid DB name"},
		{"db number", "DATA_BLOCK DB x\nORGANIZATION_BLOCK OB 1\n", 1, "Invalid DB number"},
		{"fc colon", "FUNCTION FC 1 VOID\nORGANIZATION_BLOCK OB 1\n", 1, "Missing colon after FC number"},
		{"fc type", "FUNCTION FC 1 :\nORGANIZATION_BLOCK OB 1\n", 1, "Missing FC return type"},
		{"missing token", "FUNCTION_BLOCK FB\nORGANIZATION_BLOCK OB 1\n", 1, "Missing token"},
		{"ob header", "ORGANIZATION_BLOCK OB 1\nVAR_INPUT\n", 2, "In OB header: Unknown token: VAR_INPUT"},
		{"descriptor", "ORGANIZATION_BLOCK OB 1\nTITLE foo\n", 2, "Invalid header format: Missing '=' or ':' character."},
		{"descriptor twice", "ORGANIZATION_BLOCK OB 1\nTITLE = a\nTITLE = b\n", 3, "Header 'TITLE' specified multiple times."},
		{"fb binding", "DATA_BLOCK DB 1\nFB 1 2\nORGANIZATION_BLOCK OB 1\n", 2, "Invalid FB/SFB binding"},
		{"var section", "ORGANIZATION_BLOCK OB 1\nVAR_TEMP\nX INT\n", 3, "In variable section: Unknown tokens"},
		{"temp init", "ORGANIZATION_BLOCK OB 1\nVAR_TEMP\nX : INT := 1\n", 3, "In variable section: Initial value not allowed"},
		{"db body", "DATA_BLOCK DB 1\nBEGIN\nX = 1\nEND_DATA_BLOCK\nORGANIZATION_BLOCK OB 1\n", 3, "In DB: Unknown tokens"},
		{"missing end", "ORGANIZATION_BLOCK OB 1\nBEGIN\nNOP 0\n", 4, "Missing END_ORGANIZATION_BLOCK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Parse(tt.src)
			check(t, tree == nil, true)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			check(t, perr.Line, tt.line)
			check(t, perr.Err.Error(), tt.msg)
			if !strings.HasPrefix(err.Error(), "Parser ERROR at AWL line ") {
				t.Errorf("bad message %q", err.Error())
			}
		})
	}
}

func TestSourceRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	check(t, WriteSource(&buf, "// Ünterprogramm\nL 1\r\nT MW 0\n"), nil)
	raw := buf.Bytes()
	check(t, raw[3], byte(0xDC))
	check(t, bytes.Count(raw, []byte("\r\n")), 3)

	text, err := ReadSource(bytes.NewReader(raw))
	check(t, err, nil)
	check(t, text, "// Ünterprogramm\r\nL 1\r\nT MW 0\r\n")

	tree, err := Parse(text)
	check(t, err, nil)
	check(t, len(tree.OBs[1].Insns), 2)
}
