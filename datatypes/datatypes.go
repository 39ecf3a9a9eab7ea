package datatypes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type TypeID int

const (
	TypeVoid TypeID = iota
	TypeBool
	TypeByte
	TypeWord
	TypeDWord
	TypeInt
	TypeDInt
	TypeReal
	TypeS5T
	TypeTime
	TypeDate
	TypeDT
	TypeTOD
	TypeChar
	TypeArray
	TypeTimer
	TypeCounter
	TypeBlockDB
	TypeBlockFB
	TypeBlockFC
	TypeDBX
	TypeOBX
	TypeFCX
	TypeSFCX
	TypeFBX
	TypeSFBX
	TypeUDTX
	TypeVATX
)

var name2type = map[string]TypeID{
	"VOID":          TypeVoid,
	"BOOL":          TypeBool,
	"BYTE":          TypeByte,
	"WORD":          TypeWord,
	"DWORD":         TypeDWord,
	"INT":           TypeInt,
	"DINT":          TypeDInt,
	"REAL":          TypeReal,
	"S5TIME":        TypeS5T,
	"TIME":          TypeTime,
	"DATE":          TypeDate,
	"DATE_AND_TIME": TypeDT,
	"TIME_OF_DAY":   TypeTOD,
	"CHAR":          TypeChar,
	"ARRAY":         TypeArray,
	"TIMER":         TypeTimer,
	"COUNTER":       TypeCounter,
	"BLOCK_DB":      TypeBlockDB,
	"BLOCK_FB":      TypeBlockFB,
	"BLOCK_FC":      TypeBlockFC,
	"DB":            TypeDBX,
	"OB":            TypeOBX,
	"FC":            TypeFCX,
	"SFC":           TypeSFCX,
	"FB":            TypeFBX,
	"SFB":           TypeSFBX,
	"UDT":           TypeUDTX,
	"VAT":           TypeVATX,
}

var type2name = func() map[TypeID]string {
	m := make(map[TypeID]string, len(name2type))
	for name, t := range name2type {
		m[t] = name
	}
	return m
}()

// Bit widths. -1 means the width depends on the referenced block.
var type2width = map[TypeID]int{
	TypeVoid:    0,
	TypeBool:    1,
	TypeByte:    8,
	TypeWord:    16,
	TypeDWord:   32,
	TypeInt:     16,
	TypeDInt:    32,
	TypeReal:    32,
	TypeS5T:     16,
	TypeTime:    32,
	TypeDate:    16,
	TypeDT:      64,
	TypeTOD:     32,
	TypeChar:    8,
	TypeArray:   -1,
	TypeTimer:   16,
	TypeCounter: 16,
	TypeBlockDB: 16,
	TypeBlockFB: 16,
	TypeBlockFC: 16,
	TypeDBX:     -1,
	TypeOBX:     0,
	TypeFCX:     0,
	TypeSFCX:    0,
	TypeFBX:     -1,
	TypeSFBX:    -1,
	TypeUDTX:    -1,
	TypeVATX:    0,
}

// DataType is a named PLC type with its bit width and signedness.
type DataType struct {
	Type   TypeID
	Width  int
	Signed bool
	Index  int // block number for DB n, FB n, ...
}

func isIndexedType(t TypeID) bool {
	switch t {
	case TypeDBX, TypeOBX, TypeFCX, TypeSFCX, TypeFBX, TypeSFBX, TypeUDTX:
		return true
	}
	return false
}

func MakeType(t TypeID) DataType {
	return DataType{
		Type:   t,
		Width:  type2width[t],
		Signed: t == TypeInt || t == TypeDInt || t == TypeReal,
	}
}

// MakeByName builds a type from its declaration tokens, e.g. ["INT"] or ["FB", "3"].
func MakeByName(tokens []string) (DataType, error) {
	if len(tokens) == 0 {
		return DataType{}, errors.New("Invalid data type name: None")
	}
	t, ok := name2type[strings.ToUpper(tokens[0])]
	if !ok {
		return DataType{}, errors.Errorf("Invalid data type name: %s", tokens[0])
	}
	dt := MakeType(t)
	switch {
	case t == TypeArray:
		return DataType{}, errors.New("ARRAYs not supported, yet")
	case isIndexedType(t):
		if len(tokens) < 2 {
			return DataType{}, errors.Errorf("Invalid '%s' block data type", tokens[0])
		}
		index, ok, err := ParseInt(tokens[1])
		if !ok || err != nil {
			return DataType{}, errors.Errorf("Invalid '%s' block data type index", tokens[0])
		}
		dt.Index = int(index)
	}
	return dt, nil
}

func (dt DataType) String() string {
	if isIndexedType(dt.Type) {
		return fmt.Sprintf("%s %d", type2name[dt.Type], dt.Index)
	}
	if name, ok := type2name[dt.Type]; ok {
		return name
	}
	return "TYPE(" + strconv.Itoa(int(dt.Type)) + ")"
}

// IsCallByRef reports whether parameters of this type pass the referenced
// number instead of a fetched value.
func (dt DataType) IsCallByRef() bool {
	switch dt.Type {
	case TypeTimer, TypeCounter, TypeBlockDB, TypeBlockFB, TypeBlockFC:
		return true
	}
	return false
}

func blockNumber(tokens []string, prefixes ...string) (uint32, bool) {
	for _, p := range prefixes {
		if strings.ToUpper(tokens[0]) == p {
			v, ok, err := ParseInt(tokens[1])
			if ok && err == nil {
				return uint32(v) & 0xFFFF, true
			}
		}
	}
	return 0, false
}

// ParseMatchingImmediate parses an initial value constrained by the type.
func (dt DataType) ParseMatchingImmediate(tokens []string) (uint32, error) {
	var (
		value uint32
		ok    bool
		err   error
	)
	switch len(tokens) {
	case 9, 5:
		if (len(tokens) == 9 && dt.Type == TypeDWord) ||
			(len(tokens) == 5 && dt.Type == TypeWord) {
			var fields int
			value, fields, err = ParseByteArray(tokens)
			ok = fields > 0
		}
	case 2:
		switch dt.Type {
		case TypeTimer:
			value, ok = blockNumber(tokens, "T")
		case TypeCounter:
			value, ok = blockNumber(tokens, "C", "Z")
		case TypeBlockDB:
			value, ok = blockNumber(tokens, "DB")
		case TypeBlockFB:
			value, ok = blockNumber(tokens, "FB")
		case TypeBlockFC:
			value, ok = blockNumber(tokens, "FC")
		}
	case 1:
		tok := tokens[0]
		switch dt.Type {
		case TypeBool:
			value, ok = ParseBool(tok)
		case TypeByte:
			value, ok, err = ParseHexByte(tok)
		case TypeWord:
			if value, ok, err = ParseBin(tok); !ok {
				if value, ok, err = ParseHexWord(tok); !ok {
					value, ok, err = ParseBCDWord(tok)
				}
			}
		case TypeDWord:
			if value, ok, err = ParseBin(tok); !ok {
				value, ok, err = ParseHexDWord(tok)
			}
		case TypeInt:
			var v int32
			v, ok, err = ParseInt(tok)
			value = uint32(v) & 0xFFFF
		case TypeDInt:
			value, ok, err = ParseDInt(tok)
		case TypeReal:
			value, ok = ParseReal(tok)
		case TypeS5T:
			value, ok, err = ParseS5T(tok)
		case TypeTime:
			value, ok, err = ParseTime(tok)
		case TypeChar:
			value, ok, err = ParseChar(tok)
		}
	}
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errors.Errorf("Immediate value '%s' does not match data type '%s'",
			strings.Join(tokens, " "), dt)
	}
	return value, nil
}
