package datatypes

import "math"

const (
	PosInfDWord uint32 = 0x7F800000
	NegInfDWord uint32 = 0xFF800000
	PNaNDWord   uint32 = 0x7FFFFFFF
	NNaNDWord   uint32 = 0xFFFFFFFF
)

var (
	PosInfFloat = math.Inf(1)
	NegInfFloat = math.Inf(-1)
)

// RawFloatToDWord converts to the IEEE-754 single precision bit pattern.
func RawFloatToDWord(f float64) uint32 {
	return math.Float32bits(float32(f))
}

// FloatToDWord converts like RawFloatToDWord, but with the CPU's folding:
// denormals become zero and every NaN becomes all-ones.
func FloatToDWord(f float64) uint32 {
	dw := RawFloatToDWord(f)
	noSign := dw & 0x7FFFFFFF
	if IsDenormal(f) || (noSign != 0 && noSign < 0x00800000) {
		return 0
	}
	if noSign > PosInfDWord {
		return NNaNDWord
	}
	return dw
}

func DWordToFloat(dw uint32) float64 {
	return float64(math.Float32frombits(dw))
}

// IsNaN reports whether dw holds a positive or negative NaN.
func IsNaN(dw uint32) bool {
	return dw&0x7FFFFFFF > PosInfDWord
}

func IsInf(dw uint32) bool {
	return dw&0x7FFFFFFF == PosInfDWord
}

func IsPosNegZero(dw uint32) bool {
	return dw&0x7FFFFFFF == 0
}

// IsDenormal reports whether f is nonzero but too small for a normalized
// single precision float.
func IsDenormal(f float64) bool {
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return math.Abs(f) < math.SmallestNonzeroFloat32*(1<<23)
}

func FloatEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.000001
}
