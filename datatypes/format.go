package datatypes

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

func FormatBool(v uint32) string {
	if v != 0 {
		return "TRUE"
	}
	return "FALSE"
}

func FormatInt(v uint32) string { return strconv.Itoa(int(int16(v))) }

func FormatDInt(v uint32) string { return fmt.Sprintf("L#%d", int32(v)) }

func FormatHexByte(v uint32) string { return fmt.Sprintf("B#16#%02X", v&0xFF) }

func FormatHexWord(v uint32) string { return fmt.Sprintf("W#16#%04X", v&0xFFFF) }

func FormatHexDWord(v uint32) string { return fmt.Sprintf("DW#16#%08X", v) }

// FormatBin prints the significant bits, grouped by four from the right.
func FormatBin(v uint32) string {
	bits := strconv.FormatUint(uint64(v), 2)
	if pad := len(bits) % 4; pad != 0 {
		bits = strings.Repeat("0", 4-pad) + bits
	}
	var groups []string
	for i := 0; i < len(bits); i += 4 {
		groups = append(groups, bits[i:i+4])
	}
	return "2#" + strings.Join(groups, "_")
}

func FormatBCD(v uint32) string {
	return "C#" + strconv.FormatUint(uint64(v&0xFFF), 16)
}

func FormatReal(dw uint32) string {
	f := float64(math.Float32frombits(dw))
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 32)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func formatDuration(prefix string, msec int64) string {
	var b strings.Builder
	b.WriteString(prefix)
	if msec < 0 {
		b.WriteString("-")
		msec = -msec
	}
	if msec == 0 {
		b.WriteString("0MS")
		return b.String()
	}
	units := []struct {
		suffix string
		ms     int64
	}{
		{"D", 86400000}, {"H", 3600000}, {"M", 60000}, {"S", 1000}, {"MS", 1},
	}
	for _, u := range units {
		if n := msec / u.ms; n > 0 {
			fmt.Fprintf(&b, "%d%s", n, u.suffix)
			msec %= u.ms
		}
	}
	return b.String()
}

func FormatTime(v uint32) string {
	return formatDuration("T#", int64(int32(v)))
}

func FormatS5T(s5t uint32) (string, error) {
	seconds, err := S5TToSeconds(uint16(s5t))
	if err != nil {
		return "", err
	}
	return formatDuration("S5T#", int64(math.Round(seconds*1000))), nil
}

var pointerAreaNames = map[uint32]string{
	PointerAreaP:  "P",
	PointerAreaE:  "E",
	PointerAreaA:  "A",
	PointerAreaM:  "M",
	PointerAreaDB: "DBX",
	PointerAreaDI: "DIX",
	PointerAreaL:  "L",
	PointerAreaVL: "V",
}

func FormatPointer(p uint32) string {
	off := OffsetFromPointer(p)
	area := p & PointerAreaMask
	if area == 0 {
		return fmt.Sprintf("P#%d.%d", off.Byte, off.Bit)
	}
	name, ok := pointerAreaNames[area]
	if !ok {
		name = fmt.Sprintf("(%02X)", area>>24)
	}
	return fmt.Sprintf("P#%s %d.%d", name, off.Byte, off.Bit)
}

func FormatString(v uint32, length int) string {
	buf := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return "'" + string(buf) + "'"
}
