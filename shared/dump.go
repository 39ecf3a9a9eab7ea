package awlsim

import (
	"fmt"
	"io"
	"strings"

	"awlsim/datatypes"

	"github.com/k0kubun/pp/v3"
)

func dumpMem(b *strings.Builder, prefix string, mem datatypes.ByteArray, n int) {
	n = min(n, len(mem))
	pad := strings.Repeat(" ", len(prefix))
	for row := 0; row < n; row += 16 {
		if row == 0 {
			b.WriteString(prefix)
		} else {
			b.WriteString(pad)
		}
		for i := row; i < min(row+16, n); i++ {
			if i > row {
				b.WriteByte(' ')
			}
			fmt.Fprintf(b, "%02X", mem[i])
		}
		b.WriteByte('\n')
	}
	if n == 0 {
		b.WriteString(prefix + "-\n")
	}
}

func dbName(db *DB) string {
	if db == nil {
		return "None"
	}
	return db.String()
}

// Dump is a text snapshot of the CPU state. The status word and the
// activation lines are only filled in during a cycle.
func (cpu *CPU) Dump() string {
	cse := cpu.top()
	var b strings.Builder
	b.WriteString("S7-CPU dump:\n")
	if cse != nil {
		fmt.Fprintf(&b, "    STW:  %s\n", cse.Status.String())
	}
	accus := make([]string, len(cpu.accus))
	for i, a := range cpu.accus {
		accus[i] = fmt.Sprintf("%08X", a.Get())
	}
	fmt.Fprintf(&b, "   ACCU:  %s\n", strings.Join(accus, "  "))
	fmt.Fprintf(&b, "     AR:  %08X  %08X\n", cpu.ar[0].Get(), cpu.ar[1].Get())
	dumpMem(&b, "      M:  ", cpu.Flags, 32)
	dumpMem(&b, "    PAE:  ", cpu.Inputs, 32)
	dumpMem(&b, "    PAA:  ", cpu.Outputs, 32)
	fmt.Fprintf(&b, " GlobDB:  %s\n", dbName(cpu.globDB))

	if cse == nil {
		b.WriteString(" CStack:  Empty\n")
	} else {
		pstack := "Empty"
		if n := cse.ParenStack.Len(); n > 0 {
			elems := make([]string, n)
			for i, e := range cse.ParenStack.elems {
				elems[i] = fmt.Sprintf("(insn=%q VKE=%d OR=%d)", e.InsnType.String(), e.VKE, e.OR)
			}
			pstack = strings.Join(elems, " ")
		}
		fmt.Fprintf(&b, " PStack:  %s\n", pstack)
		frames := make([]string, len(cpu.callStack))
		for i, c := range cpu.callStack {
			frames[i] = c.Block.String()
		}
		fmt.Fprintf(&b, " CStack:  depth:%d  stack: %s\n", len(cpu.callStack), strings.Join(frames, " => "))
		dumpMem(&b, "      L:  ", cse.LocalData, 16)
		fmt.Fprintf(&b, " InstDB:  %s\n", dbName(cse.InstanceDB))
		if insn := cse.insn(); insn != nil {
			fmt.Fprintf(&b, "  insn.:  IP:%d  line:%d  %s\n", cse.IP, insn.LineNr, insn)
		} else {
			fmt.Fprintf(&b, "  insn.:  IP:%d  -\n", cse.IP)
		}
	}
	fmt.Fprintf(&b, "  Speed:  %d insn/s  ctAvg:%.04fs  ctMax:%.04fs",
		int64(cpu.Stats.InsnPerSecond+0.5), cpu.Stats.AvgCycleTime, cpu.Stats.MaxCycleTime)
	return b.String()
}

// Snapshot is the exported register and stack state, for PrettyDump.
type Snapshot struct {
	Status    string
	Accus     []uint32
	AR        [2]uint32
	GlobalDB  string
	CallStack []string
	Stats     Stats
}

func (cpu *CPU) Snapshot() Snapshot {
	s := Snapshot{GlobalDB: dbName(cpu.globDB), Stats: cpu.Stats}
	for _, a := range cpu.accus {
		s.Accus = append(s.Accus, a.Get())
	}
	s.AR = [2]uint32{cpu.ar[0].Get(), cpu.ar[1].Get()}
	for _, c := range cpu.callStack {
		s.CallStack = append(s.CallStack, c.Block.String())
	}
	if cse := cpu.top(); cse != nil {
		s.Status = cse.Status.String()
	}
	return s
}

func (cpu *CPU) PrettyDump(w io.Writer) error {
	_, err := pp.Fprintln(w, cpu.Snapshot())
	return err
}
