package awlsim

import (
	"fmt"

	"awlsim/datatypes"

	"github.com/pkg/errors"
)

var (
	ErrNoOB1               = errors.New("No OB1 defined")
	ErrParenStackOverflow  = errors.New("Parenthesis stack overflow")
	ErrParenStackUnderflow = errors.New("Parenthesis stack underflow")
	ErrMCRStackOverflow    = errors.New("MCR stack overflow")
	ErrMCRStackUnderflow   = errors.New("MCR stack underflow")
	ErrCycleTimeExceeded   = errors.New("Cycle time exceed")
	ErrAssertionFailed     = errors.New("Assertion failed")
	ErrExtendedDisabled    = errors.New("Extended instructions/operands are disabled")
	ErrInvalidBCD          = datatypes.ErrInvalidBCD
)

// SimulationError is raised while translating or running instructions.
// Line is 0 when no source line is known.
type SimulationError struct {
	Line int
	Insn string
	Err  error
	Dump string
}

func (e *SimulationError) Error() string {
	switch {
	case e.Line > 0 && e.Insn != "":
		return fmt.Sprintf("[line %d] %s: %v", e.Line, e.Insn, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("[line %d] %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *SimulationError) Unwrap() error { return e.Err }

// insnError attaches the instruction context to err, once.
func insnError(insn *Instruction, err error) error {
	if err == nil {
		return nil
	}
	var serr *SimulationError
	if errors.As(err, &serr) {
		return err
	}
	if insn == nil {
		return &SimulationError{Err: err}
	}
	return &SimulationError{Line: insn.LineNr, Insn: insn.String(), Err: err}
}

// cycleTimeError reports the exceeded limit while still matching
// ErrCycleTimeExceeded.
type cycleTimeError struct {
	limit float64
}

func (e *cycleTimeError) Error() string {
	return fmt.Sprintf("Cycle time exceed %.3f seconds", e.limit)
}

func (e *cycleTimeError) Is(target error) bool { return target == ErrCycleTimeExceeded }
