package awlsim

import (
	"math"

	"awlsim/datatypes"

	"github.com/pkg/errors"
)

// Timer is one S5 timer. Time is measured on the CPU's virtual clock.
type Timer struct {
	cpu   *CPU
	index int

	running  bool
	status   uint8
	prevVKE  uint8
	prevFR   uint8
	timebase int
	deadline float64
	// onDeadline is the status to take when the timer elapses.
	onDeadline uint8
}

func newTimer(cpu *CPU, index int) *Timer {
	return &Timer{cpu: cpu, index: index}
}

func (t *Timer) Index() int { return t.index }

func (t *Timer) Running() bool { return t.running }

func (t *Timer) Reset() {
	t.running = false
	t.status = 0
	t.deadline = 0
	t.timebase = 0
}

func (t *Timer) checkDeadline() {
	if t.running && t.cpu.now >= t.deadline {
		t.running = false
		t.status = t.onDeadline
	}
}

// Get returns the timer status bit.
func (t *Timer) Get() uint8 {
	t.checkDeadline()
	return t.status
}

func (t *Timer) remaining() float64 {
	t.checkDeadline()
	if !t.running {
		return 0
	}
	return math.Max(t.deadline-t.cpu.now, 0)
}

// TimevalBin is the remaining time in units of the running timebase.
func (t *Timer) TimevalBin() uint32 {
	return uint32(math.Round(t.remaining() / datatypes.S5TBaseSeconds(t.timebase)))
}

// TimevalS5T is the remaining time as S5TIME including the timebase.
func (t *Timer) TimevalS5T() uint32 {
	s5t := datatypes.S5TForBase(t.remaining(), t.timebase)
	return uint32(s5t) | uint32(t.timebase)<<datatypes.TBShift
}

func (t *Timer) start(onDeadline uint8) error {
	s5t := uint16(t.cpu.accu1().GetWord())
	seconds, err := datatypes.S5TToSeconds(s5t)
	if err != nil {
		return errors.Errorf("Invalid S5T value: %04X", s5t)
	}
	t.timebase = int(s5t>>datatypes.TBShift) & datatypes.TBMask
	t.deadline = t.cpu.now + seconds
	t.onDeadline = onDeadline
	t.running = true
	return nil
}

func (t *Timer) edge(vke uint8) (positive, negative bool) {
	return vke == 1 && t.prevVKE == 0, vke == 0 && t.prevVKE == 1
}

// Pulse runs SI.
func (t *Timer) Pulse(vke uint8) error {
	pos, _ := t.edge(vke)
	switch {
	case pos:
		t.status = 1
		if err := t.start(0); err != nil {
			return err
		}
	case vke == 0:
		t.checkDeadline()
		t.running = false
		t.status = 0
	}
	t.prevVKE = vke
	return nil
}

// ExtendedPulse runs SV.
func (t *Timer) ExtendedPulse(vke uint8) error {
	if pos, _ := t.edge(vke); pos {
		t.status = 1
		if err := t.start(0); err != nil {
			return err
		}
	}
	t.prevVKE = vke
	return nil
}

// OnDelay runs SE.
func (t *Timer) OnDelay(vke uint8) error {
	pos, _ := t.edge(vke)
	switch {
	case pos:
		if err := t.start(1); err != nil {
			return err
		}
	case vke == 0:
		t.running = false
		t.status = 0
	}
	t.prevVKE = vke
	return nil
}

// RetentiveOnDelay runs SS.
func (t *Timer) RetentiveOnDelay(vke uint8) error {
	if pos, _ := t.edge(vke); pos {
		if err := t.start(1); err != nil {
			return err
		}
	}
	t.prevVKE = vke
	return nil
}

// OffDelay runs SA.
func (t *Timer) OffDelay(vke uint8) error {
	pos, neg := t.edge(vke)
	switch {
	case pos:
		t.checkDeadline()
		t.status = 1
		t.running = false
	case neg:
		t.status = 1
		if err := t.start(0); err != nil {
			return err
		}
	}
	t.prevVKE = vke
	return nil
}

// Enable runs FR: a positive edge forgets the previous start VKE, so the
// next start instruction sees an edge again.
func (t *Timer) Enable(vke uint8) {
	if vke == 1 && t.prevFR == 0 {
		t.prevVKE = 0
	}
	t.prevFR = vke
}

// timerAt is the timer referenced by a resolved T operator.
func (cpu *CPU) timerAt(op *Operator) (*Timer, error) {
	if op.Type != OpMemT {
		return nil, errors.Errorf("Invalid operator type. Got %s, but expected T.", op.Type)
	}
	return cpu.Timer(op.Offset.Byte)
}
