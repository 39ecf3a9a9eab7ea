package awlsim

import (
	"math/rand"
	"time"

	"awlsim/datatypes"
	"awlsim/shared/parser"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Hook is a synchronous notification with an opaque user token.
type Hook struct {
	Fn   func(data any)
	Data any
}

func (h Hook) call() {
	if h.Fn != nil {
		h.Fn(h.Data)
	}
}

// PeripheralHook handles direct peripheral access (PE/PA). Read returns
// false when it does not serve the address; the process image is used
// then.
type PeripheralHook struct {
	Read  func(data any, width, offset int) (uint32, bool)
	Write func(data any, width, offset int, value uint32)
	Data  any
}

type Stats struct {
	CycleCount    int64
	InsnCount     int64
	MinCycleTime  float64
	MaxCycleTime  float64
	AvgCycleTime  float64
	InsnPerSecond float64

	speedInsns int64
	speedStart float64
}

const speedInterval = 50

type CPU struct {
	Specs  *Specs
	Config Config

	accus    []*datatypes.Cell
	ar       [2]*datatypes.AddressRegister
	timers   []*Timer
	counters []*Counter

	Flags   datatypes.ByteArray
	Inputs  datatypes.ByteArray
	Outputs datatypes.ByteArray

	obs  map[int]*Block
	fcs  map[int]*Block
	fbs  map[int]*Block
	sfcs map[int]*Block
	sfbs map[int]*Block
	dbs  map[int]*DB
	// Released bounce DBs, keyed by FC number.
	bouncePool map[int][]*DB

	globDB    *DB
	callStack []*CallStackElem
	mcrActive bool
	// Instruction pointer delta of the running instruction.
	relativeJump int
	inCycle      bool

	epoch        time.Time
	now          float64
	cycleStart   float64
	insnCountMod int
	sinceCheck   int
	rng          *rand.Rand

	Stats     Stats
	localData localArena

	CycleExit      Hook
	BlockExit      Hook
	PostInsn       Hook
	ScreenUpdate   Hook
	PeripheralHook PeripheralHook
}

func NewCPU(specs *Specs, config Config) *CPU {
	if specs == nil {
		specs = DefaultSpecs()
	}
	cpu := &CPU{Specs: specs, Config: config}
	specs.cpu = cpu
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cpu.rng = rand.New(rand.NewSource(seed))
	cpu.Reset()
	return cpu
}

// Reallocate resizes the register file and memory areas to the specs.
// Areas of unchanged size are kept unless force is set.
func (cpu *CPU) Reallocate(force bool) {
	s := cpu.Specs
	if force || len(cpu.accus) != s.nrAccus {
		cpu.accus = make([]*datatypes.Cell, s.nrAccus)
		for i := range cpu.accus {
			cpu.accus[i] = datatypes.NewAccu()
		}
	}
	if force || cpu.ar[0] == nil {
		cpu.ar = [2]*datatypes.AddressRegister{datatypes.NewAddressRegister(), datatypes.NewAddressRegister()}
	}
	if force || len(cpu.timers) != s.nrTimers {
		cpu.timers = make([]*Timer, s.nrTimers)
		for i := range cpu.timers {
			cpu.timers[i] = newTimer(cpu, i)
		}
	}
	if force || len(cpu.counters) != s.nrCounters {
		cpu.counters = make([]*Counter, s.nrCounters)
		for i := range cpu.counters {
			cpu.counters[i] = &Counter{index: i}
		}
	}
	resize := func(area *datatypes.ByteArray, n int) {
		if force || len(*area) != n {
			*area = make(datatypes.ByteArray, n)
		}
	}
	resize(&cpu.Flags, s.nrFlags)
	resize(&cpu.Inputs, s.nrInputs)
	resize(&cpu.Outputs, s.nrOutputs)
	if force || cpu.localData.size != s.nrLocalbytes {
		cpu.localData.reset(s.nrLocalbytes)
	}
}

// Reset drops all blocks and clears the CPU state.
func (cpu *CPU) Reset() {
	cpu.obs = make(map[int]*Block)
	cpu.fcs = make(map[int]*Block)
	cpu.fbs = make(map[int]*Block)
	cpu.dbs = make(map[int]*DB)
	cpu.bouncePool = make(map[int][]*DB)
	cpu.installSystemBlocks()
	cpu.Reallocate(true)
	cpu.globDB = nil
	cpu.callStack = nil
	cpu.mcrActive = false
	cpu.inCycle = false
	cpu.relativeJump = 1
	cpu.Stats = Stats{}
	cpu.epoch = time.Now()
	cpu.now = 0
	cpu.rollInsnCountMod()
}

func (cpu *CPU) rollInsnCountMod() {
	cpu.insnCountMod = cpu.rng.Intn(128) + 1
	cpu.sinceCheck = 0
}

func (cpu *CPU) updateClock() {
	cpu.now = time.Since(cpu.epoch).Seconds()
}

// Now is the virtual clock in seconds since the last reset.
func (cpu *CPU) Now() float64 { return cpu.now }

func (cpu *CPU) Accu(n int) (*datatypes.Cell, error) {
	if n < 1 || n > len(cpu.accus) {
		return nil, errors.Errorf("Invalid ACCU offset %d", n)
	}
	return cpu.accus[n-1], nil
}

func (cpu *CPU) AR(n int) (*datatypes.AddressRegister, error) {
	if n < 1 || n > 2 {
		return nil, errors.Errorf("Invalid AR offset %d", n)
	}
	return cpu.ar[n-1], nil
}

func (cpu *CPU) accu1() *datatypes.Cell { return cpu.accus[0] }
func (cpu *CPU) accu2() *datatypes.Cell { return cpu.accus[1] }

func (cpu *CPU) Timer(n int) (*Timer, error) {
	if n < 0 || n >= len(cpu.timers) {
		return nil, errors.Errorf("Fetched invalid timer %d", n)
	}
	return cpu.timers[n], nil
}

func (cpu *CPU) Counter(n int) (*Counter, error) {
	if n < 0 || n >= len(cpu.counters) {
		return nil, errors.Errorf("Fetched invalid counter %d", n)
	}
	return cpu.counters[n], nil
}

func (cpu *CPU) DB(n int) (*DB, bool) {
	db, ok := cpu.dbs[n]
	return db, ok
}

// OB returns a loaded organization block.
func (cpu *CPU) OB(n int) (*Block, bool) {
	b, ok := cpu.obs[n]
	return b, ok
}

func (cpu *CPU) FC(n int) (*Block, bool) {
	b, ok := cpu.fcs[n]
	return b, ok
}

func (cpu *CPU) FB(n int) (*Block, bool) {
	b, ok := cpu.fbs[n]
	return b, ok
}

// CallStack returns the live activations, innermost last.
func (cpu *CPU) CallStack() []*CallStackElem { return cpu.callStack }

func (cpu *CPU) GlobalDB() *DB { return cpu.globDB }

// Load resets the CPU and installs the blocks of tree.
func (cpu *CPU) Load(tree *parser.ParseTree) error {
	cpu.Reset()
	if cpu.Specs.Mnemonics() == MnemonicsAuto {
		cpu.Specs.detected = detectMnemonics(tree, cpu.Config.ExtendedInsns)
	}
	dialect := cpu.Specs.Dialect()

	for _, src := range []struct {
		kind   BlockKind
		blocks map[int]*parser.RawCodeBlock
		dst    map[int]*Block
	}{
		{BlockFC, tree.FCs, cpu.fcs},
		{BlockFB, tree.FBs, cpu.fbs},
		{BlockOB, tree.OBs, cpu.obs},
	} {
		for nr, raw := range src.blocks {
			b, err := cpu.translateBlock(src.kind, raw, dialect)
			if err != nil {
				return err
			}
			src.dst[nr] = b
		}
	}
	if _, ok := cpu.obs[1]; !ok {
		return ErrNoOB1
	}
	for nr, raw := range tree.DBs {
		db, err := cpu.translateDB(raw)
		if err != nil {
			return err
		}
		cpu.dbs[nr] = db
	}
	logrus.WithFields(logrus.Fields{
		"OBs":       len(cpu.obs),
		"FBs":       len(cpu.fbs),
		"FCs":       len(cpu.fcs),
		"DBs":       len(cpu.dbs),
		"mnemonics": dialect.String(),
	}).Info("program loaded")
	return nil
}

// detectMnemonics scores how well each dialect translates the program.
func detectMnemonics(tree *parser.ParseTree, extended bool) Mnemonics {
	score := func(dialect Mnemonics) int {
		n := 0
		for _, blocks := range []map[int]*parser.RawCodeBlock{tree.OBs, tree.FBs, tree.FCs} {
			for _, raw := range blocks {
				trans := &operTranslator{dialect: dialect, extended: extended, hasLabel: raw.HasLabel}
				for _, insn := range raw.Insns {
					typ, ok := LookupInsn(insn.Name, dialect)
					if !ok {
						continue
					}
					n++
					if _, _, err := trans.Translate(insn.Ops, typ == InsnCALL); err == nil {
						n++
					}
				}
			}
		}
		return n
	}
	if score(MnemonicsEN) >= score(MnemonicsDE) {
		return MnemonicsEN
	}
	return MnemonicsDE
}

var startupOBs = []int{100, 101, 102}

// Startup runs the first present startup OB.
func (cpu *CPU) Startup() error {
	for _, nr := range startupOBs {
		if ob, ok := cpu.obs[nr]; ok {
			return cpu.runBlock(ob)
		}
	}
	logrus.Warn("No startup OB (OB 100, 101 or 102) found")
	return nil
}

// RunCycle runs one scan cycle of OB 1.
func (cpu *CPU) RunCycle() error {
	ob, ok := cpu.obs[1]
	if !ok {
		return ErrNoOB1
	}
	return cpu.runBlock(ob)
}

func (cpu *CPU) runBlock(b *Block) error {
	cpu.updateClock()
	cpu.cycleStart = cpu.now
	cpu.callStack = cpu.callStack[:0]
	cpu.mcrActive = false
	cpu.inCycle = true
	defer func() { cpu.inCycle = false }()

	cpu.pushBlock(b, nil, nil, nil)
	for len(cpu.callStack) > 0 {
		cse := cpu.top()
		if cse.done() {
			if err := cpu.popBlock(); err != nil {
				return cpu.fail(nil, err)
			}
			continue
		}
		insn := cse.Block.Insns[cse.IP]
		if cpu.Config.Trace {
			logrus.WithFields(logrus.Fields{
				"block": cse.Block.String(),
				"ip":    cse.IP,
				"insn":  insn.String(),
				"line":  insn.LineNr,
			}).Debug("run")
		}
		cpu.relativeJump = 1
		if err := insn.Run(cpu); err != nil {
			return cpu.fail(insn, err)
		}
		cpu.PostInsn.call()
		cse.IP += cpu.relativeJump
		cpu.Stats.InsnCount++

		cpu.sinceCheck++
		if cpu.sinceCheck >= cpu.insnCountMod {
			cpu.rollInsnCountMod()
			if err := cpu.checkCycleTime(); err != nil {
				return cpu.fail(insn, err)
			}
		}
	}
	cpu.CycleExit.call()
	cpu.updateStats()
	return nil
}

func (cpu *CPU) checkCycleTime() error {
	cpu.updateClock()
	if limit := cpu.Config.CycleTimeLimit; limit > 0 && cpu.now-cpu.cycleStart > limit {
		return &cycleTimeError{limit: limit}
	}
	return nil
}

func (cpu *CPU) fail(insn *Instruction, err error) error {
	serr := insnError(insn, err)
	var simErr *SimulationError
	if errors.As(serr, &simErr) && simErr.Dump == "" {
		simErr.Dump = cpu.Dump()
	}
	logrus.WithFields(logrus.Fields{"cycle": cpu.Stats.CycleCount}).Error(serr)
	return serr
}

func (cpu *CPU) updateStats() {
	cpu.updateClock()
	st := &cpu.Stats
	cycleTime := cpu.now - cpu.cycleStart
	st.CycleCount++
	if st.CycleCount == 1 || cycleTime < st.MinCycleTime {
		st.MinCycleTime = cycleTime
	}
	if cycleTime > st.MaxCycleTime {
		st.MaxCycleTime = cycleTime
	}
	st.AvgCycleTime += (cycleTime - st.AvgCycleTime) / float64(st.CycleCount)
	if st.CycleCount%speedInterval == 0 {
		if elapsed := cpu.now - st.speedStart; elapsed > 0 {
			st.InsnPerSecond = float64(st.InsnCount-st.speedInsns) / elapsed
		}
		st.speedInsns = st.InsnCount
		st.speedStart = cpu.now
	}
}

// mcrIsOn reports whether conditional stores may write their value.
func (cpu *CPU) mcrIsOn() bool {
	return !cpu.mcrActive || cpu.top().MCRStack.On()
}
