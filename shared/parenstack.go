package awlsim

const (
	parenStackCap = 7
	mcrStackCap   = 8
)

// ParenStackElem saves the chain state at an opening "U(", "O(", ...
type ParenStackElem struct {
	InsnType InsnType
	NER      uint8
	VKE      uint8
	OR       uint8
}

type ParenStack struct {
	elems []ParenStackElem
}

func (p *ParenStack) Push(e ParenStackElem) error {
	if len(p.elems) >= parenStackCap {
		return ErrParenStackOverflow
	}
	p.elems = append(p.elems, e)
	return nil
}

func (p *ParenStack) Pop() (ParenStackElem, error) {
	if len(p.elems) == 0 {
		return ParenStackElem{}, ErrParenStackUnderflow
	}
	e := p.elems[len(p.elems)-1]
	p.elems = p.elems[:len(p.elems)-1]
	return e, nil
}

func (p *ParenStack) Len() int { return len(p.elems) }

func (p *ParenStack) Reset() { p.elems = p.elems[:0] }

// MCRStack records the VKE saved by each "MCR(".
type MCRStack struct {
	vke []uint8
}

func (m *MCRStack) Push(vke uint8) error {
	if len(m.vke) >= mcrStackCap {
		return ErrMCRStackOverflow
	}
	m.vke = append(m.vke, vke)
	return nil
}

func (m *MCRStack) Pop() error {
	if len(m.vke) == 0 {
		return ErrMCRStackUnderflow
	}
	m.vke = m.vke[:len(m.vke)-1]
	return nil
}

// On reports whether all open MCR zones are powered.
func (m *MCRStack) On() bool {
	for _, v := range m.vke {
		if v == 0 {
			return false
		}
	}
	return true
}

func (m *MCRStack) Len() int { return len(m.vke) }

func (m *MCRStack) Reset() { m.vke = m.vke[:0] }
