package awlsim

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Status word bit numbers.
const (
	StwNER = iota
	StwVKE
	StwSTA
	StwOR
	StwOS
	StwOV
	StwA0
	StwA1
	StwBIE

	StwNrBits
)

var stwBitNames = [StwNrBits]string{"/ER", "VKE", "STA", "OR", "OS", "OV", "A0", "A1", "BIE"}

// StwBitByName accepts the German and the English bit names.
func StwBitByName(name string) (int, error) {
	switch strings.ToUpper(name) {
	case "/FC":
		return StwNER, nil
	case "RLO":
		return StwVKE, nil
	case "CC0":
		return StwA0, nil
	case "CC1":
		return StwA1, nil
	case "BR":
		return StwBIE, nil
	}
	for i, n := range stwBitNames {
		if n == strings.ToUpper(name) {
			return i, nil
		}
	}
	return 0, errors.Errorf("Invalid status word bit name: %s", name)
}

// StatusWord holds the nine condition bits as 0/1 values.
type StatusWord struct {
	NER uint8
	VKE uint8
	STA uint8
	OR  uint8
	OS  uint8
	OV  uint8
	A0  uint8
	A1  uint8
	BIE uint8
}

func (s *StatusWord) Reset() { *s = StatusWord{} }

func (s *StatusWord) bits() [StwNrBits]*uint8 {
	return [StwNrBits]*uint8{&s.NER, &s.VKE, &s.STA, &s.OR, &s.OS, &s.OV, &s.A0, &s.A1, &s.BIE}
}

func (s *StatusWord) Bit(n int) (uint8, error) {
	if n < 0 || n >= StwNrBits {
		return 0, errors.Errorf("Status word bit fetch '%d' out of range", n)
	}
	return *s.bits()[n], nil
}

func (s *StatusWord) Word() uint32 {
	var w uint32
	for i, b := range s.bits() {
		w |= uint32(*b&1) << uint(i)
	}
	return w
}

func (s *StatusWord) SetWord(w uint32) {
	for i, b := range s.bits() {
		*b = uint8((w >> uint(i)) & 1)
	}
}

// SetForFloatingPoint sets A1, A0, OV and OS from a REAL result.
func (s *StatusWord) SetForFloatingPoint(dw uint32) {
	noSign := dw & 0x7FFFFFFF
	switch {
	case noSign == 0:
		s.A1, s.A0, s.OV = 0, 0, 0
	case noSign < 0x00800000:
		s.A1, s.A0, s.OV, s.OS = 0, 0, 1, 1
	case noSign == 0x7F800000:
		if dw&0x80000000 != 0 {
			s.A1, s.A0, s.OV, s.OS = 0, 1, 1, 1
		} else {
			s.A1, s.A0, s.OV, s.OS = 1, 0, 1, 1
		}
	case noSign > 0x7F800000:
		s.A1, s.A0, s.OV, s.OS = 1, 1, 1, 1
	case dw&0x80000000 != 0:
		s.A1, s.A0, s.OV = 0, 1, 0
	default:
		s.A1, s.A0, s.OV = 1, 0, 0
	}
}

// setOverflow marks an unrecoverable arithmetic condition.
func (s *StatusWord) setOverflow() {
	s.A1, s.A0, s.OV, s.OS = 1, 1, 1, 1
}

func (s *StatusWord) String() string {
	parts := make([]string, 0, StwNrBits)
	bits := s.bits()
	for i := StwNrBits - 1; i >= 0; i-- {
		parts = append(parts, fmt.Sprintf("%s:%d", stwBitNames[i], *bits[i]))
	}
	return strings.Join(parts, " ")
}

// condition evaluates one of the A1/A0 result conditions (==0, <>0, ...).
func (s *StatusWord) condition(t OperType) uint8 {
	var ok bool
	switch t {
	case OpMemSTWZ:
		ok = s.A1 == 0 && s.A0 == 0
	case OpMemSTWNZ:
		ok = s.A1 != s.A0
	case OpMemSTWPOS:
		ok = s.A1 == 1 && s.A0 == 0
	case OpMemSTWNEG:
		ok = s.A1 == 0 && s.A0 == 1
	case OpMemSTWPOSZ:
		ok = s.A0 == 0
	case OpMemSTWNEGZ:
		ok = s.A1 == 0
	case OpMemSTWUO:
		ok = s.A1 == 1 && s.A0 == 1
	}
	if ok {
		return 1
	}
	return 0
}
