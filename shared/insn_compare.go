package awlsim

import "awlsim/datatypes"

type cmpKind int

const (
	cmpInt cmpKind = iota
	cmpDInt
	cmpReal
)

// compare orders accu2 against accu1: -1 less, 0 equal, 1 greater.
// ok is false for unordered REAL values.
func (cpu *CPU) compare(kind cmpKind) (cmp int, ok bool) {
	a1, a2 := cpu.accu1(), cpu.accu2()
	switch kind {
	case cmpInt:
		return order(float64(a2.SignedWord()), float64(a1.SignedWord())), true
	case cmpDInt:
		return order(float64(a2.SignedDWord()), float64(a1.SignedDWord())), true
	}
	if datatypes.IsNaN(a1.Get()) || datatypes.IsNaN(a2.Get()) {
		return 0, false
	}
	f1, f2 := a1.Float(), a2.Float()
	if datatypes.FloatEqual(f1, f2) {
		return 0, true
	}
	return order(f2, f1), true
}

func order(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareHandler(kind cmpKind, pred func(cmp int) bool) insnDesc {
	return insnDesc{
		nrOps: ops(0),
		run: func(cpu *CPU, insn *Instruction) error {
			s := cpu.stw()
			cmp, ok := cpu.compare(kind)
			switch {
			case !ok:
				s.A1, s.A0, s.OV, s.OS = 1, 1, 1, 1
				s.VKE = 0
			default:
				switch cmp {
				case 0:
					s.A1, s.A0 = 0, 0
				case -1:
					s.A1, s.A0 = 0, 1
				case 1:
					s.A1, s.A0 = 1, 0
				}
				s.OV = 0
				s.VKE = 0
				if pred(cmp) {
					s.VKE = 1
				}
			}
			s.OR, s.STA, s.NER = 0, s.VKE, 1
			return nil
		},
	}
}

var (
	cmpEQ = func(c int) bool { return c == 0 }
	cmpNE = func(c int) bool { return c != 0 }
	cmpGT = func(c int) bool { return c > 0 }
	cmpLT = func(c int) bool { return c < 0 }
	cmpGE = func(c int) bool { return c >= 0 }
	cmpLE = func(c int) bool { return c <= 0 }
)

func compareHandlers() map[InsnType]insnDesc {
	return map[InsnType]insnDesc{
		InsnEQI: compareHandler(cmpInt, cmpEQ),
		InsnNEI: compareHandler(cmpInt, cmpNE),
		InsnGTI: compareHandler(cmpInt, cmpGT),
		InsnLTI: compareHandler(cmpInt, cmpLT),
		InsnGEI: compareHandler(cmpInt, cmpGE),
		InsnLEI: compareHandler(cmpInt, cmpLE),
		InsnEQD: compareHandler(cmpDInt, cmpEQ),
		InsnNED: compareHandler(cmpDInt, cmpNE),
		InsnGTD: compareHandler(cmpDInt, cmpGT),
		InsnLTD: compareHandler(cmpDInt, cmpLT),
		InsnGED: compareHandler(cmpDInt, cmpGE),
		InsnLED: compareHandler(cmpDInt, cmpLE),
		InsnEQR: compareHandler(cmpReal, cmpEQ),
		InsnNER: compareHandler(cmpReal, cmpNE),
		InsnGTR: compareHandler(cmpReal, cmpGT),
		InsnLTR: compareHandler(cmpReal, cmpLT),
		InsnGER: compareHandler(cmpReal, cmpGE),
		InsnLER: compareHandler(cmpReal, cmpLE),
	}
}
