package parser

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Parser ERROR at AWL line %d:\n%s", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func errorf(format string, args ...any) error {
	return errors.Errorf(format, args...)
}

type state int

const (
	stateGlobal state = iota
	stateDBHdr
	stateDBHdrStruct
	stateDB
	stateFBHdr
	stateFBHdrVar
	stateFBHdrVarIn
	stateFBHdrVarOut
	stateFBHdrVarInOut
	stateFBHdrVarTemp
	stateFB
	stateFCHdr
	stateFCHdrVarIn
	stateFCHdrVarOut
	stateFCHdrVarInOut
	stateFCHdrVarTemp
	stateFC
	stateOBHdr
	stateOBHdrVarTemp
	stateOB
)

// varSection describes a declaration section: where its fields go, the
// keyword that closes it and the header state to return to.
type varSection struct {
	fields  func(p *Parser) *[]RawDataField
	end     string
	mayInit bool
	back    state
}

var varSections = map[state]varSection{
	stateDBHdrStruct: {func(p *Parser) *[]RawDataField { return &p.curDB.Fields }, "END_STRUCT", true, stateDBHdr},

	stateFBHdrVar:      {func(p *Parser) *[]RawDataField { return &p.curBlock.VarsStatic }, "END_VAR", true, stateFBHdr},
	stateFBHdrVarIn:    {func(p *Parser) *[]RawDataField { return &p.curBlock.VarsIn }, "END_VAR", true, stateFBHdr},
	stateFBHdrVarOut:   {func(p *Parser) *[]RawDataField { return &p.curBlock.VarsOut }, "END_VAR", true, stateFBHdr},
	stateFBHdrVarInOut: {func(p *Parser) *[]RawDataField { return &p.curBlock.VarsInOut }, "END_VAR", true, stateFBHdr},
	stateFBHdrVarTemp:  {func(p *Parser) *[]RawDataField { return &p.curBlock.VarsTemp }, "END_VAR", false, stateFBHdr},

	stateFCHdrVarIn:    {func(p *Parser) *[]RawDataField { return &p.curBlock.VarsIn }, "END_VAR", false, stateFCHdr},
	stateFCHdrVarOut:   {func(p *Parser) *[]RawDataField { return &p.curBlock.VarsOut }, "END_VAR", false, stateFCHdr},
	stateFCHdrVarInOut: {func(p *Parser) *[]RawDataField { return &p.curBlock.VarsInOut }, "END_VAR", false, stateFCHdr},
	stateFCHdrVarTemp:  {func(p *Parser) *[]RawDataField { return &p.curBlock.VarsTemp }, "END_VAR", false, stateFCHdr},

	stateOBHdrVarTemp: {func(p *Parser) *[]RawDataField { return &p.curBlock.VarsTemp }, "END_VAR", false, stateOBHdr},
}

// Header keyword -> next state, per block header.
var headerSections = map[state]map[string]state{
	stateDBHdr: {
		"BEGIN":  stateDB,
		"STRUCT": stateDBHdrStruct,
	},
	stateFBHdr: {
		"BEGIN":      stateFB,
		"VAR":        stateFBHdrVar,
		"VAR_INPUT":  stateFBHdrVarIn,
		"VAR_OUTPUT": stateFBHdrVarOut,
		"VAR_IN_OUT": stateFBHdrVarInOut,
		"VAR_TEMP":   stateFBHdrVarTemp,
	},
	stateFCHdr: {
		"BEGIN":      stateFC,
		"VAR_INPUT":  stateFCHdrVarIn,
		"VAR_OUTPUT": stateFCHdrVarOut,
		"VAR_IN_OUT": stateFCHdrVarInOut,
		"VAR_TEMP":   stateFCHdrVarTemp,
	},
	stateOBHdr: {
		"BEGIN":    stateOB,
		"VAR_TEMP": stateOBHdrVarTemp,
	},
}

var headerNames = map[state]string{
	stateDBHdr: "DB header",
	stateFBHdr: "FB header",
	stateFCHdr: "FC header",
	stateOBHdr: "OB header",
}

var bodyEnd = map[state]string{
	stateDB: "END_DATA_BLOCK",
	stateFB: "END_FUNCTION_BLOCK",
	stateFC: "END_FUNCTION",
	stateOB: "END_ORGANIZATION_BLOCK",
}

type Parser struct {
	state      state
	flatLayout bool
	lineNr     int
	tree       *ParseTree
	curDB      *RawDB
	curBlock   *RawCodeBlock
}

func (p *Parser) inHeaderOrGlobal() bool {
	if p.flatLayout {
		return false
	}
	if _, ok := varSections[p.state]; ok {
		return true
	}
	_, ok := headerSections[p.state]
	return ok || p.state == stateGlobal
}

type tokenizer struct {
	tokens    []string
	cur       []byte
	inComment bool
	inQuote   bool
	inParens  bool
	startLine int
}

func (t *tokenizer) reset() {
	*t = tokenizer{}
}

func (t *tokenizer) tokenEnd() {
	tok := strings.TrimSpace(string(t.cur))
	if tok != "" {
		t.tokens = append(t.tokens, tok)
	}
	t.cur = t.cur[:0]
}

func (t *tokenizer) haveLabel() bool {
	return len(t.tokens) > 0 && len(t.tokens[0]) > 1 && strings.HasSuffix(t.tokens[0], ":")
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	}
	return false
}

func (p *Parser) tokenize(data string) error {
	p.lineNr = 1
	var t tokenizer
	for i := 0; i < len(data); i++ {
		c := data[i]
		if t.inComment {
			if c == '\n' {
				t.inComment = false
				p.lineNr++
			}
			continue
		}
		if len(t.tokens) == 0 && len(t.cur) == 0 {
			t.startLine = p.lineNr
		}
		if c == '"' {
			t.inQuote = !t.inQuote
		}
		if t.inQuote {
			t.cur = append(t.cur, c)
			if c == '\n' {
				p.lineNr++
			}
			continue
		}
		if c == ';' {
			if err := p.parseTokens(&t); err != nil {
				return err
			}
			continue
		}
		if c == '/' && i+1 < len(data) && data[i+1] == '/' {
			if err := p.parseTokens(&t); err != nil {
				return err
			}
			t.inComment = true
			continue
		}
		if len(t.tokens) > 0 {
			if c == '(' && (!t.haveLabel() || len(t.tokens) >= 2) {
				t.inParens = true
				t.cur = append(t.cur, c)
				t.tokenEnd()
				continue
			}
			if t.inParens && c == ')' {
				t.inParens = false
				t.tokenEnd()
				t.tokens = append(t.tokens, ")")
				continue
			}
			if c == ',' || c == '[' || c == ']' {
				t.tokenEnd()
				t.tokens = append(t.tokens, string(c))
				continue
			}
			if p.inHeaderOrGlobal() && (c == '=' || c == ':') {
				t.tokenEnd()
				if c == ':' && i+1 < len(data) && data[i+1] == '=' {
					t.tokens = append(t.tokens, ":=")
					i++
				} else {
					t.tokens = append(t.tokens, string(c))
				}
				continue
			}
		}
		if c == '\n' {
			if !t.inParens {
				if err := p.parseTokens(&t); err != nil {
					return err
				}
			}
			p.lineNr++
			continue
		}
		if isSpace(c) {
			t.tokenEnd()
		} else {
			t.cur = append(t.cur, c)
		}
	}
	if t.inQuote {
		return errorf("Unterminated quote")
	}
	if t.inParens {
		return errorf("Unterminated parenthesis pair")
	}
	if err := p.parseTokens(&t); err != nil {
		return err
	}
	if !p.flatLayout && p.state != stateGlobal {
		return errorf("Missing %s", p.pendingEnd())
	}
	return nil
}

func (p *Parser) pendingEnd() string {
	if vs, ok := varSections[p.state]; ok {
		return vs.end
	}
	switch p.state {
	case stateDBHdr, stateDB:
		return bodyEnd[stateDB]
	case stateFBHdr, stateFB:
		return bodyEnd[stateFB]
	case stateFCHdr, stateFC:
		return bodyEnd[stateFC]
	}
	return bodyEnd[stateOB]
}

func (p *Parser) parseTokens(t *tokenizer) error {
	t.tokenEnd()
	tokens := t.tokens
	line := t.startLine
	t.reset()
	if len(tokens) == 0 {
		return nil
	}
	saved := p.lineNr
	p.lineNr = line
	err := p.parseStatement(tokens)
	if err == nil {
		p.lineNr = saved
	}
	return err
}

func (p *Parser) parseStatement(tokens []string) error {
	if p.state == stateGlobal || p.flatLayout {
		return p.parseGlobal(tokens)
	}
	if vs, ok := varSections[p.state]; ok {
		return p.parseVar(tokens, vs)
	}
	if _, ok := headerSections[p.state]; ok {
		return p.parseHeader(tokens)
	}
	if p.state == stateDB {
		return p.parseDBBody(tokens)
	}
	return p.parseCodeBody(tokens)
}

func parseBlockNumber(tokens []string, kind string) (int, error) {
	if len(tokens) < 3 {
		return 0, errorf("Missing token")
	}
	if strings.ToUpper(tokens[1]) != kind {
		return 0, errorf("Invalid %s name", kind)
	}
	n, err := strconv.Atoi(tokens[2])
	if err != nil {
		return 0, errorf("Invalid %s number", kind)
	}
	return n, nil
}

func (p *Parser) parseGlobal(tokens []string) error {
	if p.flatLayout {
		ob, ok := p.tree.OBs[1]
		if !ok {
			ob = newCodeBlock(1)
			p.tree.OBs[1] = ob
		}
		p.curBlock = ob
		return p.addInsn(tokens)
	}
	switch strings.ToUpper(tokens[0]) {
	case "DATA_BLOCK":
		n, err := parseBlockNumber(tokens, "DB")
		if err != nil {
			return err
		}
		p.curDB = &RawDB{Index: n, Descriptors: Descriptors{}}
		p.tree.DBs[n] = p.curDB
		p.state = stateDBHdr
	case "FUNCTION_BLOCK":
		n, err := parseBlockNumber(tokens, "FB")
		if err != nil {
			return err
		}
		p.curBlock = newCodeBlock(n)
		p.tree.FBs[n] = p.curBlock
		p.state = stateFBHdr
	case "FUNCTION":
		n, err := parseBlockNumber(tokens, "FC")
		if err != nil {
			return err
		}
		if len(tokens) < 4 {
			return errorf("Missing token")
		}
		if tokens[3] != ":" {
			return errorf("Missing colon after FC number")
		}
		if len(tokens) < 5 {
			return errorf("Missing FC return type")
		}
		p.curBlock = newCodeBlock(n)
		p.curBlock.RetTypeTokens = slices.Clone(tokens[4:])
		p.tree.FCs[n] = p.curBlock
		p.state = stateFCHdr
	case "ORGANIZATION_BLOCK":
		n, err := parseBlockNumber(tokens, "OB")
		if err != nil {
			return err
		}
		p.curBlock = newCodeBlock(n)
		p.tree.OBs[n] = p.curBlock
		p.state = stateOBHdr
	default:
		return errorf("Unknown statement")
	}
	return nil
}

func (p *Parser) addInsn(tokens []string) error {
	insn := RawInsn{LineNr: p.lineNr}
	if strings.HasSuffix(tokens[0], ":") {
		if len(tokens) <= 1 {
			return errorf("Invalid standalone label")
		}
		label := strings.TrimSuffix(tokens[0], ":")
		if !IsValidLabel(label) {
			return errorf("Invalid label")
		}
		insn.Label = label
		tokens = tokens[1:]
	}
	if len(tokens) == 0 {
		return errorf("No instruction name")
	}
	insn.Name = tokens[0]
	if len(tokens) > 1 {
		insn.Ops = slices.Clone(tokens[1:])
	}
	p.curBlock.Insns = append(p.curBlock.Insns, insn)
	return nil
}

func (p *Parser) descriptors() Descriptors {
	if p.state == stateDBHdr {
		return p.curDB.Descriptors
	}
	return p.curBlock.Descriptors
}

func (p *Parser) parseHeader(tokens []string) error {
	name := strings.ToUpper(tokens[0])
	if next, ok := headerSections[p.state][name]; ok {
		p.state = next
		return nil
	}
	if isDescriptor(name) {
		return p.descriptors().add(tokens)
	}
	if p.state == stateDBHdr && (name == "FB" || name == "SFB") {
		if len(tokens) != 2 {
			return errorf("Invalid FB/SFB binding")
		}
		n, err := strconv.Atoi(tokens[1])
		if err != nil {
			return errorf("Invalid FB/SFB binding")
		}
		p.curDB.FB = &FBRef{Name: name, Number: n}
		return nil
	}
	return errorf("In %s: Unknown token: %s", headerNames[p.state], name)
}

func (p *Parser) parseVar(tokens []string, vs varSection) error {
	if strings.ToUpper(tokens[0]) == vs.end {
		p.state = vs.back
		return nil
	}
	colonIdx := slices.Index(tokens, ":")
	assignIdx := slices.Index(tokens, ":=")
	if colonIdx != 1 {
		return errorf("In variable section: Unknown tokens")
	}
	field := RawDataField{Name: tokens[0]}
	switch {
	case assignIdx < 0:
		field.TypeTokens = slices.Clone(tokens[2:])
	case !vs.mayInit:
		return errorf("In variable section: Initial value not allowed")
	case assignIdx > colonIdx+1:
		field.TypeTokens = slices.Clone(tokens[2:assignIdx])
		field.ValueTokens = slices.Clone(tokens[assignIdx+1:])
	default:
		return errorf("In variable section: Unknown tokens")
	}
	fields := vs.fields(p)
	*fields = append(*fields, field)
	return nil
}

func (p *Parser) parseDBBody(tokens []string) error {
	if strings.ToUpper(tokens[0]) == bodyEnd[stateDB] {
		p.state = stateGlobal
		return nil
	}
	if len(tokens) < 3 || tokens[1] != ":=" {
		return errorf("In DB: Unknown tokens")
	}
	value := slices.Clone(tokens[2:])
	if field := p.curDB.FieldByName(tokens[0]); field != nil {
		field.ValueTokens = value
	} else {
		p.curDB.Fields = append(p.curDB.Fields, RawDataField{
			Name:        tokens[0],
			ValueTokens: value,
		})
	}
	return nil
}

func (p *Parser) parseCodeBody(tokens []string) error {
	name := strings.ToUpper(tokens[0])
	if name == bodyEnd[p.state] {
		p.state = stateGlobal
		return nil
	}
	if name == "NETWORK" || name == "TITLE" {
		return nil
	}
	return p.addInsn(tokens)
}

var orgBlockRe = regexp.MustCompile(`(?m)^\s*ORGANIZATION_BLOCK\s+`)

// Parse builds the raw tree of an AWL source text. A source without any
// ORGANIZATION_BLOCK is a flat instruction list that goes into OB 1.
func Parse(data string) (*ParseTree, error) {
	p := &Parser{
		state:      stateGlobal,
		flatLayout: !orgBlockRe.MatchString(data),
		tree:       newParseTree(),
	}
	if err := p.tokenize(data); err != nil {
		return nil, &ParseError{Line: p.lineNr, Err: err}
	}
	return p.tree, nil
}

func ParseFile(name string) (*ParseTree, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open AWL source")
	}
	defer f.Close()
	data, err := ReadSource(f)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
