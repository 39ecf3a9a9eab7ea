package datatypes

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Literal parsers return ok=false when the token does not have the
// literal's shape. A token of the right shape with a bad value is an error.

var ErrInvalidImmediate = errors.New("Invalid immediate")

// Pointer area codes in bits 24-31.
const (
	PointerAreaP  uint32 = 0x80000000
	PointerAreaE  uint32 = 0x81000000
	PointerAreaA  uint32 = 0x82000000
	PointerAreaM  uint32 = 0x83000000
	PointerAreaDB uint32 = 0x84000000
	PointerAreaDI uint32 = 0x85000000
	PointerAreaL  uint32 = 0x86000000
	PointerAreaVL uint32 = 0x87000000

	PointerAreaMask uint32 = 0xFF000000
)

var pointerPrefixArea = map[string]uint32{
	"P":   PointerAreaP,
	"E":   PointerAreaE,
	"I":   PointerAreaE,
	"A":   PointerAreaA,
	"Q":   PointerAreaA,
	"M":   PointerAreaM,
	"DBX": PointerAreaDB,
	"DIX": PointerAreaDI,
	"L":   PointerAreaL,
}

func ParseBool(tok string) (uint32, bool) {
	switch strings.ToUpper(strings.TrimSpace(tok)) {
	case "TRUE":
		return 1, true
	case "FALSE":
		return 0, true
	}
	return 0, false
}

// ParseInt parses a plain 16 bit signed decimal.
func ParseInt(tok string) (int32, bool, error) {
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	if v > 32767 || v < -32768 {
		return 0, true, errors.New("16-bit immediate overflow")
	}
	return int32(v), true, nil
}

// ParseDInt parses L#<dec>.
func ParseDInt(tok string) (uint32, bool, error) {
	t := strings.ToUpper(tok)
	if !strings.HasPrefix(t, "L#") {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(t[2:], 10, 64)
	if err != nil {
		return 0, true, ErrInvalidImmediate
	}
	if v > 2147483647 || v < -2147483648 {
		return 0, true, errors.New("32-bit immediate overflow")
	}
	return uint32(v), true, nil
}

// ParseBCDWord parses C#<1-3 digits>.
func ParseBCDWord(tok string) (uint32, bool, error) {
	t := strings.ToUpper(tok)
	if !strings.HasPrefix(t, "C#") {
		return 0, false, nil
	}
	digits := t[2:]
	if len(digits) < 1 || len(digits) > 3 {
		return 0, true, errors.New("Invalid C# immediate")
	}
	var v uint32
	for _, ch := range digits {
		if ch < '0' || ch > '9' {
			return 0, true, errors.New("Invalid C# immediate")
		}
		v = v<<4 | uint32(ch-'0')
	}
	return v, true, nil
}

// ParseReal parses a floating point literal into its folded dword.
func ParseReal(tok string) (uint32, bool) {
	if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
		return 0, false
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return 0, false
		}
	}
	return FloatToDWord(f), true
}

// ParseS5T parses S5T#<time> into an S5TIME word.
func ParseS5T(tok string) (uint32, bool, error) {
	t := strings.ToUpper(tok)
	if !strings.HasPrefix(t, "S5T#") {
		return 0, false, nil
	}
	seconds, err := ParseGenericTime(t[4:])
	if err != nil {
		return 0, true, err
	}
	s5t, err := SecondsToS5T(seconds)
	return uint32(s5t), true, err
}

// ParseTime parses T#<time> into milliseconds.
func ParseTime(tok string) (uint32, bool, error) {
	t := strings.ToUpper(tok)
	if !strings.HasPrefix(t, "T#") {
		return 0, false, nil
	}
	body, neg := t[2:], false
	if strings.HasPrefix(body, "-") {
		body, neg = body[1:], true
	}
	seconds, err := ParseGenericTime(body)
	if err != nil {
		return 0, true, err
	}
	msec := int64(seconds * 1000)
	if msec > 0x7FFFFFFF {
		return 0, true, errors.New("T# time too big")
	}
	if neg {
		msec = -msec
	}
	return uint32(msec), true, nil
}

func ParseTOD(tok string) (bool, error) {
	t := strings.ToUpper(tok)
	if !strings.HasPrefix(t, "TOD#") && !strings.HasPrefix(t, "TIME_OF_DAY#") {
		return false, nil
	}
	return true, errors.New("TIME_OF_DAY# not implemented, yet")
}

func ParseDate(tok string) (bool, error) {
	if !strings.HasPrefix(strings.ToUpper(tok), "D#") {
		return false, nil
	}
	return true, errors.New("D# not implemented, yet")
}

func ParseDT(tok string) (bool, error) {
	t := strings.ToUpper(tok)
	if !strings.HasPrefix(t, "DT#") && !strings.HasPrefix(t, "DATE_AND_TIME#") {
		return false, nil
	}
	return true, errors.New("DATE_AND_TIME# not implemented, yet")
}

func parsePointerOffset(s string) (uint32, error) {
	byteStr, bitStr, found := strings.Cut(s, ".")
	if !found {
		return 0, errors.New("Invalid pointer offset")
	}
	byteOff, err1 := strconv.Atoi(byteStr)
	bitOff, err2 := strconv.Atoi(bitStr)
	if err1 != nil || err2 != nil ||
		bitOff < 0 || bitOff > 7 || byteOff < 0 || byteOff > 0x1FFFFF {
		return 0, errors.New("Invalid pointer offset")
	}
	return uint32(byteOff)<<3 | uint32(bitOff), nil
}

// ParsePointer parses P#x.y (one field) or P#<area> x.y (two fields).
// fields is 0 if tokens do not start a pointer.
func ParsePointer(tokens []string) (ptr uint32, fields int, err error) {
	if len(tokens) == 0 {
		return 0, 0, nil
	}
	prefix := strings.ToUpper(tokens[0])
	if !strings.HasPrefix(prefix, "P#") {
		return 0, 0, nil
	}
	prefix = prefix[2:]
	if area, ok := pointerPrefixArea[prefix]; ok {
		if len(tokens) < 2 {
			return 0, 2, errors.New("Invalid pointer immediate")
		}
		off, err := parsePointerOffset(tokens[1])
		return off | area, 2, err
	}
	off, err := parsePointerOffset(prefix)
	return off, 1, err
}

// ParseBin parses 2#<bits> with optional '_' separators.
func ParseBin(tok string) (uint32, bool, error) {
	t := strings.ToUpper(tok)
	if !strings.HasPrefix(t, "2#") {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(strings.ReplaceAll(t[2:], "_", ""), 2, 64)
	if err != nil || v > 0xFFFFFFFF {
		return 0, true, ErrInvalidImmediate
	}
	return uint32(v), true, nil
}

// ParseByteArray parses the tokenized B#(a,b) or B#(a,b,c,d) forms.
// fields is 0 if tokens do not start a byte array; otherwise 5 or 9.
func ParseByteArray(tokens []string) (value uint32, fields int, err error) {
	if len(tokens) == 0 || !strings.HasPrefix(strings.ToUpper(tokens[0]), "B#(") {
		return 0, 0, nil
	}
	var nrBytes int
	switch {
	case len(tokens) >= 5 && tokens[2] == "," && tokens[4] == ")":
		nrBytes, fields = 2, 5
	case len(tokens) >= 9 && tokens[2] == "," && tokens[4] == "," &&
		tokens[6] == "," && tokens[8] == ")":
		nrBytes, fields = 4, 9
	default:
		return 0, 1, ErrInvalidImmediate
	}
	for i := 0; i < nrBytes; i++ {
		b, err := strconv.Atoi(tokens[1+2*i])
		if err != nil || b < 0 || b > 0xFF {
			return 0, fields, ErrInvalidImmediate
		}
		value = value<<8 | uint32(b)
	}
	return value, fields, nil
}

func parseHex(tok, prefix string, limit uint64) (uint32, bool, error) {
	t := strings.ToUpper(tok)
	if !strings.HasPrefix(t, prefix) {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(t[len(prefix):], 16, 64)
	if err != nil || v > limit {
		return 0, true, ErrInvalidImmediate
	}
	return uint32(v), true, nil
}

func ParseHexByte(tok string) (uint32, bool, error) {
	return parseHex(tok, "B#16#", 0xFF)
}

func ParseHexWord(tok string) (uint32, bool, error) {
	return parseHex(tok, "W#16#", 0xFFFF)
}

func ParseHexDWord(tok string) (uint32, bool, error) {
	return parseHex(tok, "DW#16#", 0xFFFFFFFF)
}

func parseQuoted(tok string, maxLen int) (uint32, bool, error) {
	if len(tok) < 2 || !strings.HasPrefix(tok, "'") || !strings.HasSuffix(tok, "'") {
		return 0, false, nil
	}
	body := tok[1 : len(tok)-1]
	if len(body) > maxLen {
		return 0, true, errors.Errorf("String too long (>%d characters)", maxLen)
	}
	var v uint32
	for i := 0; i < len(body); i++ {
		v = v<<8 | uint32(body[i])
	}
	return v, true, nil
}

// ParseString parses a quoted string of up to four characters.
func ParseString(tok string) (uint32, bool, error) { return parseQuoted(tok, 4) }

func ParseChar(tok string) (uint32, bool, error) { return parseQuoted(tok, 1) }
