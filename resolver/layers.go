package resolver

import (
	"github.com/Alia5/splitkb/matrix"
)

type layerEntry struct {
	pos   matrix.Position
	layer uint8
}

// layerStack records held layer keys in press order. The active layer is
// the most recently pressed one still held, or 0.
type layerStack struct {
	entries [tableSize]layerEntry
	n       int
}

// push records a held layer key. There is at most one entry per unified
// slot, so the stack cannot overflow.
func (s *layerStack) push(pos matrix.Position, layer uint8) {
	if s.n == len(s.entries) {
		return
	}
	s.entries[s.n] = layerEntry{pos: pos, layer: layer}
	s.n++
}

// remove drops the entry pushed by pos wherever it sits. Removing an entry
// that is not there is a no-op.
func (s *layerStack) remove(pos matrix.Position) {
	for i := s.n - 1; i >= 0; i-- {
		if s.entries[i].pos == pos {
			copy(s.entries[i:s.n], s.entries[i+1:s.n])
			s.n--
			s.entries[s.n] = layerEntry{}
			return
		}
	}
}

func (s *layerStack) top() uint8 {
	if s.n == 0 {
		return 0
	}
	return s.entries[s.n-1].layer
}
