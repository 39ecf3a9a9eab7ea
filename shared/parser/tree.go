package parser

import (
	"regexp"
	"strings"
)

// RawInsn is one untranslated instruction line.
type RawInsn struct {
	LineNr int
	Label  string
	Name   string
	Ops    []string
}

var labelRe = regexp.MustCompile(`^[_a-zA-Z][_0-9a-zA-Z]{0,3}$`)

// IsValidLabel checks a label or label reference without its colon.
func IsValidLabel(s string) bool {
	return labelRe.MatchString(s)
}

func (insn RawInsn) HasLabel() bool { return insn.Label != "" }

func (insn RawInsn) String() string {
	var b strings.Builder
	if insn.HasLabel() {
		b.WriteString(insn.Label)
		b.WriteString(":")
	}
	b.WriteString("\t")
	b.WriteString(insn.Name)
	for _, op := range insn.Ops {
		b.WriteString(" ")
		b.WriteString(op)
	}
	return b.String()
}

// RawDataField is a declared variable or DB field. ValueTokens and
// TypeTokens are nil when not given.
type RawDataField struct {
	Name        string
	ValueTokens []string
	TypeTokens  []string
}

var descriptorNames = []string{"TITLE", "AUTHOR", "FAMILY", "NAME", "VERSION"}

func isDescriptor(name string) bool {
	for _, d := range descriptorNames {
		if d == name {
			return true
		}
	}
	return false
}

type Descriptors map[string][]string

func (d Descriptors) add(tokens []string) error {
	name := strings.ToUpper(tokens[0])
	if len(tokens) < 2 || (tokens[1] != "=" && tokens[1] != ":") {
		return errorf("Invalid header format: Missing '=' or ':' character.")
	}
	if _, exists := d[name]; exists {
		return errorf("Header '%s' specified multiple times.", name)
	}
	d[name] = tokens[2:]
	return nil
}

type RawCodeBlock struct {
	Index       int
	Descriptors Descriptors
	Insns       []RawInsn

	VarsIn     []RawDataField
	VarsOut    []RawDataField
	VarsInOut  []RawDataField
	VarsStatic []RawDataField
	VarsTemp   []RawDataField

	// FC only.
	RetTypeTokens []string
}

func newCodeBlock(index int) *RawCodeBlock {
	return &RawCodeBlock{Index: index, Descriptors: Descriptors{}}
}

func (blk *RawCodeBlock) HasLabel(s string) bool {
	if !IsValidLabel(s) {
		return false
	}
	for _, insn := range blk.Insns {
		if insn.Label == s {
			return true
		}
	}
	return false
}

// FBRef is the FB or SFB an instance DB is bound to.
type FBRef struct {
	Name   string // "FB" or "SFB"
	Number int
}

type RawDB struct {
	Index       int
	Descriptors Descriptors
	Fields      []RawDataField
	FB          *FBRef
}

func (db *RawDB) IsInstanceDB() bool { return db.FB != nil }

func (db *RawDB) FieldByName(name string) *RawDataField {
	for i := range db.Fields {
		if db.Fields[i].Name == name {
			return &db.Fields[i]
		}
	}
	return nil
}

type ParseTree struct {
	DBs map[int]*RawDB
	FBs map[int]*RawCodeBlock
	FCs map[int]*RawCodeBlock
	OBs map[int]*RawCodeBlock
}

func newParseTree() *ParseTree {
	return &ParseTree{
		DBs: make(map[int]*RawDB),
		FBs: make(map[int]*RawCodeBlock),
		FCs: make(map[int]*RawCodeBlock),
		OBs: make(map[int]*RawCodeBlock),
	}
}
