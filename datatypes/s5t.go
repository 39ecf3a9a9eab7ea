package datatypes

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// S5T timebase codes, stored in bits 12-13 of an S5TIME word.
const (
	TB10MS = iota
	TB100MS
	TB1S
	TB10S
)

const (
	TBShift = 12
	TBMask  = 0x3
)

var s5tBase2Sec = [4]float64{0.01, 0.1, 1.0, 10.0}

func S5TBaseSeconds(timebase int) float64 {
	return s5tBase2Sec[timebase&TBMask]
}

// S5TForBase encodes seconds as three BCD digits of the given timebase,
// without the timebase bits.
func S5TForBase(seconds float64, timebase int) uint16 {
	var units int
	switch timebase & TBMask {
	case TB10MS:
		units = int(math.RoundToEven(seconds * 100))
	case TB100MS:
		units = int(math.RoundToEven(seconds * 10))
	case TB1S:
		units = int(seconds)
	case TB10S:
		units = int(math.RoundToEven(seconds)) / 10
	}
	return uint16(IntToBCD(uint32(units), 3))
}

func SecondsToS5T(seconds float64) (uint16, error) {
	var tb int
	switch {
	case seconds < 0.0:
		return 0, errors.Errorf("Cannot convert %f seconds to S5T", seconds)
	case seconds <= 9.99:
		tb = TB10MS
	case seconds <= 99.9:
		tb = TB100MS
	case seconds <= 999.0:
		tb = TB1S
	case seconds <= 9990.0:
		tb = TB10S
	default:
		return 0, errors.Errorf("Cannot convert %f seconds to S5T", seconds)
	}
	return uint16(tb<<TBShift) | S5TForBase(seconds, tb), nil
}

func S5TToSeconds(s5t uint16) (float64, error) {
	a, b, c := s5t&0xF, (s5t>>4)&0xF, (s5t>>8)&0xF
	if s5t&^(TBMask<<TBShift) > 0x999 || a > 9 || b > 9 || c > 9 {
		return 0, errors.Errorf("Invalid S5T value: %04X", s5t)
	}
	base := S5TBaseSeconds(int(s5t>>TBShift) & TBMask)
	return base * float64(int(a)+int(b)*10+int(c)*100), nil
}

var timeUnits = []struct {
	suffix string
	mult   float64
}{
	{"MS", 0.001},
	{"S", 1.0},
	{"M", 60.0},
	{"H", 3600.0},
	{"D", 86400.0},
}

// ParseGenericTime parses the "1H2M3S500MS" body of S5T# and T# literals.
func ParseGenericTime(s string) (float64, error) {
	p := strings.ToUpper(s)
	seconds := 0.0
	for p != "" {
		mult := 0.0
		for _, u := range timeUnits {
			if strings.HasSuffix(p, u.suffix) {
				mult = u.mult
				p = p[:len(p)-len(u.suffix)]
				break
			}
		}
		if mult == 0.0 || p == "" {
			return 0, errors.New("Invalid time")
		}
		end := len(p)
		for end > 0 && p[end-1] >= '0' && p[end-1] <= '9' {
			end--
		}
		if end == len(p) {
			return 0, errors.New("Invalid time")
		}
		num := 0
		for _, ch := range p[end:] {
			num = num*10 + int(ch-'0')
		}
		p = p[:end]
		seconds += float64(num) * mult
	}
	return seconds, nil
}
