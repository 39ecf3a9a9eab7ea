package awlsim

import "awlsim/datatypes"

// localArena hands out one local data buffer per call depth. A buffer
// is returned on block exit and reused by the next activation at the
// same depth, as long as the local data size did not change meanwhile.
type localArena struct {
	size   int
	free   []datatypes.ByteArray
	allocs int
}

func (a *localArena) reset(size int) {
	a.size = size
	a.free = nil
}

func (a *localArena) get(depth int) datatypes.ByteArray {
	if depth < len(a.free) && a.free[depth] != nil {
		buf := a.free[depth]
		a.free[depth] = nil
		return buf
	}
	a.allocs++
	return make(datatypes.ByteArray, a.size)
}

func (a *localArena) put(depth int, buf datatypes.ByteArray) {
	if len(buf) != a.size {
		return
	}
	for len(a.free) <= depth {
		a.free = append(a.free, nil)
	}
	a.free[depth] = buf
}
