package awlsim

import (
	"time"

	"awlsim/shared/parser"
)

type systemBlock struct {
	kind  BlockKind
	index int
	name  string
	iface parser.RawCodeBlock
	run   SystemBlockFunc
}

func field(name string, typ ...string) parser.RawDataField {
	return parser.RawDataField{Name: name, TypeTokens: typ}
}

var systemBlocks = []systemBlock{
	{
		kind:  BlockSFC,
		index: 47,
		name:  "WAIT",
		iface: parser.RawCodeBlock{VarsIn: []parser.RawDataField{field("WT", "INT")}},
		run:   sfcWait,
	},
	{
		kind:  BlockSFC,
		index: 64,
		name:  "TIME_TCK",
		iface: parser.RawCodeBlock{RetTypeTokens: []string{"TIME"}},
		run:   sfcTimeTick,
	},
}

// sfcWait busy waits WT microseconds.
func sfcWait(cpu *CPU, iface *StructInstance) error {
	wt, err := iface.FieldData("WT")
	if err != nil {
		return err
	}
	us := int16(wt)
	if us > 0 {
		end := time.Now().Add(time.Duration(us) * time.Microsecond)
		for time.Now().Before(end) {
		}
	}
	cpu.updateClock()
	cpu.stw().BIE = 1
	return nil
}

// sfcTimeTick returns the virtual clock in milliseconds.
func sfcTimeTick(cpu *CPU, iface *StructInstance) error {
	ms := uint32(int64(cpu.now*1000)) & 0x7FFFFFFF
	return iface.SetFieldData("RET_VAL", ms)
}

// installSystemBlocks builds the SFC/SFB tables. The interfaces are
// fixed, so a build failure is a bug.
func (cpu *CPU) installSystemBlocks() {
	cpu.sfcs = make(map[int]*Block)
	cpu.sfbs = make(map[int]*Block)
	for i := range systemBlocks {
		sb := &systemBlocks[i]
		bi, err := buildInterface(sb.kind, &sb.iface)
		if err != nil {
			panic(err)
		}
		b := &Block{
			Kind:      sb.kind,
			Index:     sb.index,
			Name:      sb.name,
			Labels:    map[string]int{},
			Interface: bi,
			system:    sb.run,
		}
		if sb.kind == BlockSFC {
			cpu.sfcs[sb.index] = b
		} else {
			cpu.sfbs[sb.index] = b
		}
	}
}
