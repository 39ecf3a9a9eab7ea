package awlsim

import (
	"strings"

	"github.com/pkg/errors"
)

type Mnemonics int

const (
	MnemonicsAuto Mnemonics = iota
	MnemonicsEN
	MnemonicsDE
)

func (m Mnemonics) String() string {
	switch m {
	case MnemonicsEN:
		return "en"
	case MnemonicsDE:
		return "de"
	}
	return "auto"
}

func ParseMnemonics(s string) (Mnemonics, error) {
	switch strings.ToLower(s) {
	case "auto":
		return MnemonicsAuto, nil
	case "en":
		return MnemonicsEN, nil
	case "de":
		return MnemonicsDE, nil
	}
	return MnemonicsAuto, errors.Errorf("Invalid mnemonics type: %s", s)
}

// Specs is the hardware configuration of a CPU. Changing a value of a
// Specs attached to a CPU reallocates the affected memory.
type Specs struct {
	cpu *CPU

	nrAccus      int
	nrTimers     int
	nrCounters   int
	nrFlags      int
	nrInputs     int
	nrOutputs    int
	nrLocalbytes int
	mnemonics    Mnemonics
	detected     Mnemonics
}

func DefaultSpecs() *Specs {
	return &Specs{
		nrAccus:      2,
		nrTimers:     2048,
		nrCounters:   2048,
		nrFlags:      8192,
		nrInputs:     8192,
		nrOutputs:    8192,
		nrLocalbytes: 1024,
		mnemonics:    MnemonicsAuto,
		detected:     MnemonicsDE,
	}
}

func (s *Specs) changed() {
	if s.cpu != nil {
		s.cpu.Reallocate(false)
	}
}

func (s *Specs) NrAccus() int      { return s.nrAccus }
func (s *Specs) NrTimers() int     { return s.nrTimers }
func (s *Specs) NrCounters() int   { return s.nrCounters }
func (s *Specs) NrFlags() int      { return s.nrFlags }
func (s *Specs) NrInputs() int     { return s.nrInputs }
func (s *Specs) NrOutputs() int    { return s.nrOutputs }
func (s *Specs) NrLocalbytes() int { return s.nrLocalbytes }
func (s *Specs) Mnemonics() Mnemonics {
	return s.mnemonics
}

// DetectedMnemonics is the dialect picked by the last load in auto mode.
func (s *Specs) DetectedMnemonics() Mnemonics { return s.detected }

// Dialect returns the mnemonic set instructions are translated with.
func (s *Specs) Dialect() Mnemonics {
	if s.mnemonics == MnemonicsAuto {
		return s.detected
	}
	return s.mnemonics
}

func (s *Specs) SetNrAccus(n int) error {
	if n != 2 && n != 4 {
		return errors.New("Invalid number of accus")
	}
	s.nrAccus = n
	s.changed()
	return nil
}

func setCount(dst *int, n int, what string) error {
	if n < 0 {
		return errors.Errorf("Invalid number of %s: %d", what, n)
	}
	*dst = n
	return nil
}

func (s *Specs) SetNrTimers(n int) error {
	if err := setCount(&s.nrTimers, n, "timers"); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *Specs) SetNrCounters(n int) error {
	if err := setCount(&s.nrCounters, n, "counters"); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *Specs) SetNrFlags(n int) error {
	if err := setCount(&s.nrFlags, n, "flag bytes"); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *Specs) SetNrInputs(n int) error {
	if err := setCount(&s.nrInputs, n, "input bytes"); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *Specs) SetNrOutputs(n int) error {
	if err := setCount(&s.nrOutputs, n, "output bytes"); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *Specs) SetNrLocalbytes(n int) error {
	if err := setCount(&s.nrLocalbytes, n, "local bytes"); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *Specs) SetMnemonics(m Mnemonics) error {
	if m < MnemonicsAuto || m > MnemonicsDE {
		return errors.Errorf("Invalid mnemonics type %d", m)
	}
	s.mnemonics = m
	if m != MnemonicsAuto {
		s.detected = m
	}
	s.changed()
	return nil
}

// Config holds the run options of a CPU.
type Config struct {
	// CycleTimeLimit in seconds.
	CycleTimeLimit float64
	ExtendedInsns  bool
	Trace          bool
	// Seed for the time check interval PRNG. 0 seeds from the clock.
	Seed int64
}

func DefaultConfig() Config {
	return Config{CycleTimeLimit: 5.0}
}
