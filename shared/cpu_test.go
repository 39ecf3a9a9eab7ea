package awlsim

import (
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"awlsim/datatypes"
	"awlsim/shared/parser"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	logrus.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func check(t *testing.T, a1 any, a2 any) {
	t.Helper()
	if a1 != a2 {
		t.Errorf("%[1]v (a %[1]T) != %[2]v (a %[2]T)", a1, a2)
	}
}

func testConfig() Config {
	config := DefaultConfig()
	config.ExtendedInsns = true
	config.Seed = 1
	return config
}

func load(src string, config Config) (*CPU, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	specs := DefaultSpecs()
	if err := specs.SetMnemonics(MnemonicsDE); err != nil {
		return nil, err
	}
	cpu := NewCPU(specs, config)
	if err := cpu.Load(tree); err != nil {
		return nil, err
	}
	return cpu, nil
}

func mustLoad(t *testing.T, src string) *CPU {
	t.Helper()
	cpu, err := load(src, testConfig())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return cpu
}

func runCycle(t *testing.T, cpu *CPU) {
	t.Helper()
	if err := cpu.RunCycle(); err != nil {
		t.Fatalf("cycle: %v", err)
	}
}

// run loads src and runs one cycle.
func run(t *testing.T, src string) *CPU {
	t.Helper()
	cpu := mustLoad(t, src)
	runCycle(t, cpu)
	return cpu
}

func memWord(t *testing.T, mem datatypes.ByteArray, b int) uint32 {
	t.Helper()
	v, err := mem.Fetch(datatypes.Offset{Byte: b}, 16)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func memDWord(t *testing.T, mem datatypes.ByteArray, b int) uint32 {
	t.Helper()
	v, err := mem.Fetch(datatypes.Offset{Byte: b}, 32)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestInputToOutput(t *testing.T) {
	cpu := mustLoad(t, "U E 0.0\n= A 0.0\n")
	cpu.Inputs[0] = 0x01
	runCycle(t, cpu)
	check(t, cpu.Outputs[0], byte(0x01))

	cpu.Inputs[0] = 0x00
	runCycle(t, cpu)
	check(t, cpu.Outputs[0], byte(0x00))
	check(t, cpu.Stats.CycleCount, int64(2))
	check(t, cpu.Stats.InsnCount, int64(4))
	check(t, len(cpu.CallStack()), 0)
}

func TestEnglishMnemonics(t *testing.T) {
	tree, err := parser.Parse("A I 0.0\nAN I 0.1\n= Q 0.0\n")
	check(t, err, nil)
	cpu := NewCPU(nil, testConfig())
	check(t, cpu.Load(tree), nil)
	check(t, cpu.Specs.DetectedMnemonics(), MnemonicsEN)

	cpu.Inputs[0] = 0x01
	runCycle(t, cpu)
	check(t, cpu.Outputs[0], byte(0x01))
	cpu.Inputs[0] = 0x03
	runCycle(t, cpu)
	check(t, cpu.Outputs[0], byte(0x00))
}

const ob1 = "ORGANIZATION_BLOCK OB 1\nBEGIN\nNOP 0\nEND_ORGANIZATION_BLOCK\n"

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"no OB1", "ORGANIZATION_BLOCK OB 35\nBEGIN\nNOP 0\nEND_ORGANIZATION_BLOCK\n", ErrNoOB1.Error()},
		{"unknown insn", "FOO M 0.0\n", "Cannot translate instruction: 'FOO'"},
		{"op count", "U\n", "Invalid number of operators. Expected [1], but got 0."},
		{"label missing", "SPA M1\n", "Cannot parse operand: M1"},
		{"duplicate label", "M1: NOP 0\nM1: NOP 0\n", "Duplicate label 'M1'"},
		{"symbol", "L #X\n", "Symbolic local '#X' is not declared in the interface of OB 1"},
		{"oper width", "U MW 0\n", "Invalid operator width. Got 16, but expected [1]."},
		{"store imm", "T 5\n", "Invalid operator type."},
		{"inc range", "INC 256\n", "Increment/decrement value 256 out of range. Expected 0-255."},
		{"ob vars", "ORGANIZATION_BLOCK OB 1\nVAR_INPUT\nX : INT;\nEND_VAR\nBEGIN\nNOP 0\nEND_ORGANIZATION_BLOCK\n",
			"OBs can only have VAR_TEMP variables"},
		{"fc statics", ob1 + "FUNCTION FC 1 : VOID\nVAR\nX : INT;\nEND_VAR\nBEGIN\nNOP 0\nEND_FUNCTION\n",
			"FCs can not have static variables"},
		{"db init", ob1 + "DATA_BLOCK DB 1\nSTRUCT\nA : INT;\nEND_STRUCT;\nBEGIN\nEND_DATA_BLOCK\n",
			"DB 1: field 'A' has no initial value"},
		{"db value", ob1 + "DATA_BLOCK DB 1\nSTRUCT\nA : INT;\nEND_STRUCT;\nBEGIN\nA := W#16#1;\nEND_DATA_BLOCK\n",
			"Immediate value 'W#16#1' does not match data type 'INT'"},
		{"instance fb", ob1 + "DATA_BLOCK DB 2\nFB 9\nBEGIN\nEND_DATA_BLOCK\n",
			"Instance DB 2 references FB 9, but FB 9 does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(tt.src, testConfig())
			if err == nil {
				t.Fatalf("program loaded")
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("%q does not contain %q", err.Error(), tt.msg)
			}
		})
	}

	_, err := load("NOP 0\nFOO M 0.0\n", testConfig())
	var simErr *SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("not a SimulationError: %v", err)
	}
	check(t, simErr.Line, 2)

	_, err = load("__STWRST\n", DefaultConfig())
	check(t, errors.Is(err, ErrExtendedDisabled), true)
}

func TestCycleTimeLimit(t *testing.T) {
	config := testConfig()
	config.CycleTimeLimit = 0.01
	cpu, err := load("NOP 0\nM1: NOP 0\nSPA M1\n", config)
	check(t, err, nil)
	err = cpu.RunCycle()
	check(t, errors.Is(err, ErrCycleTimeExceeded), true)

	var simErr *SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("not a SimulationError: %v", err)
	}
	if simErr.Line != 2 && simErr.Line != 3 {
		t.Errorf("error on line %d", simErr.Line)
	}
	if !strings.HasPrefix(simErr.Dump, "S7-CPU dump:") {
		t.Errorf("bad dump %q", simErr.Dump)
	}
	check(t, strings.Contains(err.Error(), "Cycle time exceed 0.010 seconds"), true)
}

func TestRunErrorLine(t *testing.T) {
	cpu := mustLoad(t, "NOP 0\nCALL FC 9\n")
	err := cpu.RunCycle()
	var simErr *SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("not a SimulationError: %v", err)
	}
	check(t, simErr.Line, 2)
	check(t, simErr.Err.Error(), "Called FC 9 does not exist")
	check(t, err.Error(), "[line 2] CALL FC 9: Called FC 9 does not exist")
}

func TestStartupOB(t *testing.T) {
	cpu := mustLoad(t, `
ORGANIZATION_BLOCK OB 100
BEGIN
	L 7
	T MW 0
END_ORGANIZATION_BLOCK

ORGANIZATION_BLOCK OB 1
BEGIN
	L MW 0
	+ 1
	T MW 0
END_ORGANIZATION_BLOCK
`)
	check(t, cpu.Startup(), nil)
	check(t, memWord(t, cpu.Flags, 0), uint32(7))
	runCycle(t, cpu)
	runCycle(t, cpu)
	check(t, memWord(t, cpu.Flags, 0), uint32(9))
}

func TestSpecs(t *testing.T) {
	specs := DefaultSpecs()
	cpu := NewCPU(specs, testConfig())
	check(t, len(cpu.accus), 2)
	check(t, specs.SetNrAccus(4), nil)
	check(t, len(cpu.accus), 4)
	check(t, specs.SetNrAccus(3).Error(), "Invalid number of accus")

	check(t, specs.SetNrFlags(16), nil)
	check(t, len(cpu.Flags), 16)
	check(t, specs.SetNrTimers(-1).Error(), "Invalid number of timers: -1")

	_, err := cpu.Accu(5)
	check(t, err.Error(), "Invalid ACCU offset 5")
	_, err = cpu.AR(0)
	check(t, err.Error(), "Invalid AR offset 0")
	_, err = cpu.Timer(2048)
	check(t, err.Error(), "Fetched invalid timer 2048")
}

func TestPeripheralHook(t *testing.T) {
	cpu := mustLoad(t, "L PEW 4\nT PAW 6\nL PEW 8\nT MW 0\n")
	var written []uint32
	cpu.PeripheralHook = PeripheralHook{
		Read: func(data any, width, offset int) (uint32, bool) {
			if offset == 4 {
				return 0xBEEF, true
			}
			return 0, false
		},
		Write: func(data any, width, offset int, value uint32) {
			check(t, width, 16)
			check(t, offset, 6)
			written = append(written, value)
		},
	}
	check(t, cpu.Inputs.Store(datatypes.Offset{Byte: 8}, 16, 0x1234), nil)
	runCycle(t, cpu)
	check(t, len(written), 1)
	check(t, written[0], uint32(0xBEEF))
	check(t, memWord(t, cpu.Outputs, 6), uint32(0xBEEF))
	check(t, memWord(t, cpu.Flags, 0), uint32(0x1234))
}

func TestStoreToInputs(t *testing.T) {
	cpu := mustLoad(t, "SET\n= E 0.0\n")
	err := cpu.RunCycle()
	check(t, strings.Contains(err.Error(), "Can't store to E"), true)
}

func TestHooks(t *testing.T) {
	cpu := mustLoad(t, "ORGANIZATION_BLOCK OB 1\nBEGIN\nCALL FC 1\nEND_ORGANIZATION_BLOCK\n"+
		"FUNCTION FC 1 : VOID\nBEGIN\nNOP 0\nEND_FUNCTION\n")
	var cycles, blocks, insns int
	cpu.CycleExit = Hook{Fn: func(data any) { cycles += data.(int) }, Data: 1}
	cpu.BlockExit = Hook{Fn: func(any) { blocks++ }}
	cpu.PostInsn = Hook{Fn: func(any) { insns++ }}
	runCycle(t, cpu)
	check(t, cycles, 1)
	check(t, blocks, 2)
	check(t, insns, 2)
}

func TestDump(t *testing.T) {
	cpu := run(t, "L 5\nT MB 0\n")
	dump := cpu.Dump()
	check(t, strings.HasPrefix(dump, "S7-CPU dump:\n"), true)
	check(t, strings.Contains(dump, "   ACCU:  00000005  00000000\n"), true)
	check(t, strings.Contains(dump, "      M:  05 00"), true)
	check(t, strings.Contains(dump, " CStack:  Empty\n"), true)

	snap := cpu.Snapshot()
	check(t, snap.Accus[0], uint32(5))
	check(t, snap.GlobalDB, "None")
	check(t, len(snap.CallStack), 0)

	var b strings.Builder
	check(t, cpu.PrettyDump(&b), nil)
	check(t, b.Len() > 0, true)
}

func TestSysClock(t *testing.T) {
	cpu := mustLoad(t, "CALL SFC 47 (WT := 2000)\nCALL SFC 64 (RET_VAL := MD 0)\nU BIE\n= M 4.0\n")
	runCycle(t, cpu)
	if ms := memDWord(t, cpu.Flags, 0); ms < 2 || ms > 0x7FFFFFFF {
		t.Errorf("TIME_TCK returned %d ms", ms)
	}
	check(t, cpu.Flags[4]&1, byte(1))

	cpu = mustLoad(t, "CALL SFC 99\n")
	err := cpu.RunCycle()
	check(t, strings.Contains(err.Error(), "SFC 99 not implemented, yet"), true)
}

func TestSleep(t *testing.T) {
	start := time.Now()
	cpu := mustLoad(t, "__SLEEP 60\n")
	updates := 0
	cpu.ScreenUpdate = Hook{Fn: func(any) { updates++ }}
	runCycle(t, cpu)
	if time.Since(start) < 60*time.Millisecond {
		t.Errorf("__SLEEP returned early")
	}
	check(t, updates, 2)

	config := testConfig()
	config.CycleTimeLimit = 0.05
	cpu, err := load("__SLEEP 100\n", config)
	check(t, err, nil)
	err = cpu.RunCycle()
	check(t, strings.Contains(err.Error(), "__SLEEP time exceed cycle time limit"), true)
}
