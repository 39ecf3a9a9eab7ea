package datatypes

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

func check(t *testing.T, a1 any, a2 any) {
	t.Helper()
	if a1 != a2 {
		t.Errorf("%[1]v (a %[1]T) != %[2]v (a %[2]T)", a1, a2)
	}
}

func TestBCD(t *testing.T) {
	check(t, IntToBCD(123, 3), uint32(0x123))
	check(t, IntToBCD(1234, 3), uint32(0x234))
	check(t, IntToBCD(9999999, 7), uint32(0x9999999))

	v, err := BCDToInt(0x987, 3)
	check(t, err, nil)
	check(t, v, uint32(987))

	_, err = BCDToInt(0x1A3, 3)
	check(t, errors.Is(err, ErrInvalidBCD), true)

	check(t, SwapEndianWord(0x1234), uint32(0x3412))
	check(t, SwapEndianDWord(0x12345678), uint32(0x78563412))
}

func TestS5T(t *testing.T) {
	tests := []struct {
		seconds float64
		s5t     uint16
	}{
		{0, 0x0000},
		{2, 0x0200},
		{9.99, 0x0999},
		{50, 0x1500},
		{500, 0x2500},
		{9990, 0x3999},
	}
	for _, tt := range tests {
		s5t, err := SecondsToS5T(tt.seconds)
		check(t, err, nil)
		check(t, s5t, tt.s5t)

		back, err := S5TToSeconds(tt.s5t)
		check(t, err, nil)
		if math.Abs(back-tt.seconds) > 1e-9 {
			t.Errorf("%04X decodes to %f, want %f", tt.s5t, back, tt.seconds)
		}
	}

	_, err := SecondsToS5T(10000)
	if err == nil {
		t.Errorf("10000s fit into S5TIME")
	}
	_, err = SecondsToS5T(-1)
	if err == nil {
		t.Errorf("negative time fit into S5TIME")
	}
	_, err = S5TToSeconds(0x0A00)
	check(t, err.Error(), "Invalid S5T value: 0A00")
}

func TestParseGenericTime(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"2S", 2, true},
		{"1M30S", 90, true},
		{"2s500ms", 2.5, true},
		{"1D1H", 90000, true},
		{"", 0, true},
		{"S", 0, false},
		{"5X", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGenericTime(tt.in)
			check(t, err == nil, tt.ok)
			if tt.ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestFloatFolding(t *testing.T) {
	check(t, FloatToDWord(1.0), uint32(0x3F800000))
	check(t, FloatToDWord(-2.5), uint32(0xC0200000))
	check(t, FloatToDWord(math.NaN()), NNaNDWord)
	check(t, FloatToDWord(1e-40), uint32(0))
	check(t, FloatToDWord(math.Inf(1)), PosInfDWord)
	check(t, FloatToDWord(math.Inf(-1)), NegInfDWord)

	check(t, IsNaN(PNaNDWord), true)
	check(t, IsNaN(PosInfDWord), false)
	check(t, IsInf(NegInfDWord), true)
	check(t, IsPosNegZero(0x80000000), true)
	check(t, IsPosNegZero(1), false)
	check(t, DWordToFloat(0x40200000), 2.5)
	check(t, FloatEqual(0.1+0.2, 0.3), true)
}

func TestOffset(t *testing.T) {
	off := OffsetFromPointer(0x83000053)
	check(t, off, Offset{Byte: 10, Bit: 3})
	check(t, off.Pointer(), uint32(0x53))
	check(t, off.String(), "10.3")
	check(t, Offset{10, 6}.Add(Offset{0, 3}), Offset{11, 1})
	check(t, Offset{10, 0}.Add(Offset{2, 0}), Offset{12, 0})
}

func TestByteArray(t *testing.T) {
	mem := make(ByteArray, 8)

	check(t, mem.Store(Offset{0, 0}, 32, 0x12345678), nil)
	check(t, mem[0], byte(0x12))
	check(t, mem[3], byte(0x78))

	v, err := mem.Fetch(Offset{1, 0}, 16)
	check(t, err, nil)
	check(t, v, uint32(0x3456))

	check(t, mem.Store(Offset{4, 5}, 1, 1), nil)
	check(t, mem[4], byte(0x20))
	v, _ = mem.Fetch(Offset{4, 5}, 1)
	check(t, v, uint32(1))
	check(t, mem.Store(Offset{4, 5}, 1, 0), nil)
	check(t, mem[4], byte(0))

	_, err = mem.Fetch(Offset{6, 0}, 32)
	check(t, errors.Is(err, ErrOffsetOutOfRange), true)
	err = mem.Store(Offset{8, 0}, 8, 1)
	check(t, errors.Is(err, ErrOffsetOutOfRange), true)

	mem.Clear()
	v, _ = mem.Fetch(Offset{0, 0}, 32)
	check(t, v, uint32(0))
}

func TestFormat(t *testing.T) {
	s5t, err := FormatS5T(0x0200)
	check(t, err, nil)

	tests := []struct {
		got, want string
	}{
		{FormatBool(1), "TRUE"},
		{FormatBool(0), "FALSE"},
		{FormatInt(0xFFFF), "-1"},
		{FormatDInt(0xFFFFFFFB), "L#-5"},
		{FormatHexByte(0x1AB), "B#16#AB"},
		{FormatHexWord(0xBEEF), "W#16#BEEF"},
		{FormatHexDWord(0xCAFE), "DW#16#0000CAFE"},
		{FormatBin(5), "2#0101"},
		{FormatBin(0xA5), "2#1010_0101"},
		{FormatBCD(0x123), "C#123"},
		{FormatReal(0x3F800000), "1.0"},
		{FormatReal(0x40200000), "2.5"},
		{FormatReal(PosInfDWord), "Inf"},
		{FormatReal(NNaNDWord), "NaN"},
		{FormatTime(1500), "T#1S500MS"},
		{FormatTime(0), "T#0MS"},
		{FormatTime(0xFFFFFC18), "T#-1S"},
		{s5t, "S5T#2S"},
		{FormatPointer(0x83000000 | 26), "P#M 3.2"},
		{FormatPointer(8), "P#1.0"},
		{FormatPointer(0x84000010), "P#DBX 2.0"},
		{FormatString(0x4142, 2), "'AB'"},
	}
	for _, tt := range tests {
		check(t, tt.got, tt.want)
	}
}

func TestParseImmediates(t *testing.T) {
	type parseFunc func(string) (uint32, bool, error)
	tests := []struct {
		name  string
		parse parseFunc
		in    string
		want  uint32
		ok    bool
		err   bool
	}{
		{"dint", ParseDInt, "L#-5", 0xFFFFFFFB, true, false},
		{"dint overflow", ParseDInt, "L#2147483648", 0, true, true},
		{"dint shape", ParseDInt, "5", 0, false, false},
		{"bcd", ParseBCDWord, "C#123", 0x123, true, false},
		{"bcd digits", ParseBCDWord, "C#1234", 0, true, true},
		{"hex byte", ParseHexByte, "B#16#7f", 0x7F, true, false},
		{"hex word", ParseHexWord, "W#16#BEEF", 0xBEEF, true, false},
		{"hex word big", ParseHexWord, "W#16#10000", 0, true, true},
		{"hex dword", ParseHexDWord, "DW#16#DEADBEEF", 0xDEADBEEF, true, false},
		{"bin", ParseBin, "2#1010_0101", 0xA5, true, false},
		{"s5t", ParseS5T, "S5T#2S", 0x0200, true, false},
		{"time", ParseTime, "T#1S500MS", 1500, true, false},
		{"time negative", ParseTime, "T#-1S", 0xFFFFFC18, true, false},
		{"string", ParseString, "'AB'", 0x4142, true, false},
		{"string long", ParseString, "'ABCDE'", 0, true, true},
		{"char", ParseChar, "'x'", 'x', true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := tt.parse(tt.in)
			check(t, ok, tt.ok)
			check(t, err != nil, tt.err)
			if !tt.err {
				check(t, got, tt.want)
			}
		})
	}

	v, ok, err := ParseInt("-32768")
	check(t, err, nil)
	check(t, ok, true)
	check(t, v, int32(-32768))
	_, ok, err = ParseInt("32768")
	check(t, ok, true)
	check(t, err.Error(), "16-bit immediate overflow")

	b, ok := ParseBool("true")
	check(t, ok, true)
	check(t, b, uint32(1))

	r, ok := ParseReal("2.5")
	check(t, ok, true)
	check(t, r, uint32(0x40200000))
	_, ok = ParseReal("0x10")
	check(t, ok, false)

	ok, err = ParseTOD("TOD#1:2:3")
	check(t, ok, true)
	check(t, err.Error(), "TIME_OF_DAY# not implemented, yet")
}

func TestParsePointer(t *testing.T) {
	ptr, fields, err := ParsePointer([]string{"P#M", "3.2"})
	check(t, err, nil)
	check(t, fields, 2)
	check(t, ptr, PointerAreaM|26)

	ptr, fields, err = ParsePointer([]string{"P#2.0"})
	check(t, err, nil)
	check(t, fields, 1)
	check(t, ptr, uint32(16))

	_, fields, _ = ParsePointer([]string{"MW", "0"})
	check(t, fields, 0)

	_, _, err = ParsePointer([]string{"P#1.8"})
	if err == nil {
		t.Errorf("bit offset 8 accepted")
	}
}

func TestParseByteArray(t *testing.T) {
	v, fields, err := ParseByteArray([]string{"B#(", "1", ",", "2", ")"})
	check(t, err, nil)
	check(t, fields, 5)
	check(t, v, uint32(0x0102))

	v, fields, err = ParseByteArray([]string{"B#(", "1", ",", "2", ",", "3", ",", "255", ")"})
	check(t, err, nil)
	check(t, fields, 9)
	check(t, v, uint32(0x010203FF))

	_, _, err = ParseByteArray([]string{"B#(", "256", ",", "2", ")"})
	check(t, errors.Is(err, ErrInvalidImmediate), true)
}

func TestDataTypes(t *testing.T) {
	dt, err := MakeByName([]string{"int"})
	check(t, err, nil)
	check(t, dt.Type, TypeInt)
	check(t, dt.Width, 16)
	check(t, dt.Signed, true)
	check(t, dt.String(), "INT")

	dt, err = MakeByName([]string{"FB", "3"})
	check(t, err, nil)
	check(t, dt.Index, 3)
	check(t, dt.String(), "FB 3")

	_, err = MakeByName([]string{"FLOAT"})
	check(t, err.Error(), "Invalid data type name: FLOAT")
	_, err = MakeByName([]string{"ARRAY"})
	check(t, err.Error(), "ARRAYs not supported, yet")

	timer, _ := MakeByName([]string{"TIMER"})
	check(t, timer.IsCallByRef(), true)
	check(t, dt.IsCallByRef(), false)
}

func TestParseMatchingImmediate(t *testing.T) {
	tests := []struct {
		typ    string
		tokens []string
		want   uint32
	}{
		{"BOOL", []string{"TRUE"}, 1},
		{"BYTE", []string{"B#16#12"}, 0x12},
		{"WORD", []string{"W#16#1234"}, 0x1234},
		{"WORD", []string{"C#99"}, 0x99},
		{"WORD", []string{"B#(", "1", ",", "2", ")"}, 0x0102},
		{"DWORD", []string{"2#1111"}, 0xF},
		{"INT", []string{"-1"}, 0xFFFF},
		{"DINT", []string{"L#100000"}, 100000},
		{"REAL", []string{"1.0"}, 0x3F800000},
		{"S5TIME", []string{"S5T#2S"}, 0x0200},
		{"TIME", []string{"T#2S"}, 2000},
		{"CHAR", []string{"'A'"}, 'A'},
		{"TIMER", []string{"T", "5"}, 5},
		{"COUNTER", []string{"Z", "7"}, 7},
		{"BLOCK_DB", []string{"DB", "9"}, 9},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			dt, err := MakeByName([]string{tt.typ})
			check(t, err, nil)
			got, err := dt.ParseMatchingImmediate(tt.tokens)
			check(t, err, nil)
			check(t, got, tt.want)
		})
	}

	dt := MakeType(TypeInt)
	_, err := dt.ParseMatchingImmediate([]string{"W#16#1"})
	check(t, err.Error(), "Immediate value 'W#16#1' does not match data type 'INT'")
}

func TestCells(t *testing.T) {
	accu := NewAccu()
	accu.Set(0x12345678)
	check(t, accu.GetWord(), uint32(0x5678))
	accu.SetWord(0xFFFF)
	check(t, accu.Get(), uint32(0x1234FFFF))
	check(t, accu.SignedWord(), int32(-1))
	accu.SetByte(0x01)
	check(t, accu.Get(), uint32(0x1234FF01))

	word := MakeCell(16)
	word.Set(0x12345)
	check(t, word.Get(), uint32(0x2345))
	check(t, word.Hex(), "2345")

	bit := MakeCell(1)
	bit.SetBit(0)
	check(t, bit.GetBit(0), uint8(1))
	bit.ClearBit(0)
	check(t, bit.Get(), uint32(0))

	accu.SetFloat(2.5)
	check(t, accu.Get(), uint32(0x40200000))
	check(t, accu.Float(), 2.5)

	ar := NewAddressRegister()
	ar.Set(PointerAreaM | 0x50)
	check(t, ar.PointerString(), "P#M 10.0")
}

func TestFormatParseRoundTrip(t *testing.T) {
	type parseFunc func(string) (uint32, bool, error)
	s5t := func(v uint32) string {
		s, err := FormatS5T(v)
		if err != nil {
			return err.Error()
		}
		return s
	}
	intParse := func(s string) (uint32, bool, error) {
		v, ok, err := ParseInt(s)
		return uint32(v), ok, err
	}
	tests := []struct {
		in     string
		parse  parseFunc
		format func(uint32) string
		want   string
	}{
		{"W#16#00FF", ParseHexWord, FormatHexWord, "W#16#00FF"},
		{"w#16#ab", ParseHexWord, FormatHexWord, "W#16#00AB"},
		{"B#16#0A", ParseHexByte, FormatHexByte, "B#16#0A"},
		{"DW#16#DEADBEEF", ParseHexDWord, FormatHexDWord, "DW#16#DEADBEEF"},
		{"2#1010_1010", ParseBin, FormatBin, "2#1010_1010"},
		{"2#0000_1111", ParseBin, FormatBin, "2#1111"},
		{"C#123", ParseBCDWord, FormatBCD, "C#123"},
		{"S5T#1H2M3S", ParseS5T, s5t, "S5T#1H2M"},
		{"S5T#2S", ParseS5T, s5t, "S5T#2S"},
		{"S5T#120MS", ParseS5T, s5t, "S5T#120MS"},
		{"T#1D2H3M4S", ParseTime, FormatTime, "T#1D2H3M4S"},
		{"T#2H3M4S500MS", ParseTime, FormatTime, "T#2H3M4S500MS"},
		{"T#-90S", ParseTime, FormatTime, "T#-1M30S"},
		{"L#-100000", ParseDInt, FormatDInt, "L#-100000"},
		{"-5", intParse, FormatInt, "-5"},
	}
	for _, tt := range tests {
		v, ok, err := tt.parse(tt.in)
		if !ok || err != nil {
			t.Errorf("parse %q: ok %v, err %v", tt.in, ok, err)
			continue
		}
		if got := tt.format(v); got != tt.want {
			t.Errorf("%q formats as %q, want %q", tt.in, got, tt.want)
		}
	}
}
