// Package split carries the key state of the secondary half to the primary
// half and folds it into the unified matrix.
//
// On the wire each tracked key is one byte, row in the high nibble and
// column in the low nibble. 0xFF marks an empty slot, so rows and columns
// must both be below 16.
package split

import (
	"errors"
	"fmt"

	"github.com/Alia5/splitkb/board"
	"github.com/Alia5/splitkb/matrix"
)

// Empty marks a stream slot without a key.
const Empty byte = 0xFF

// ErrOutOfRange is returned when a position does not fit the packed byte.
var ErrOutOfRange = errors.New("position does not fit in a packed byte")

// Stream is the remote half's key state: one packed position per slot.
type Stream [board.KeyBudget]byte

// EmptyStream returns a stream with every slot empty.
func EmptyStream() Stream {
	var s Stream
	for i := range s {
		s[i] = Empty
	}
	return s
}

// Pack encodes p as (row << 4) | col.
func Pack(p matrix.Position) (byte, error) {
	if p.Row >= 16 || p.Col >= 16 {
		return Empty, fmt.Errorf("pack %s: %w", p, ErrOutOfRange)
	}
	b := p.Row<<4 | p.Col
	if b == Empty {
		// r15c15 collides with the empty marker
		return Empty, fmt.Errorf("pack %s: %w", p, ErrOutOfRange)
	}
	return b, nil
}

// Unpack decodes a packed byte. ok is false for the empty marker.
func Unpack(b byte) (p matrix.Position, ok bool) {
	if b == Empty {
		return matrix.NoPosition, false
	}
	return matrix.Position{Row: b >> 4, Col: b & 0x0F}, true
}

// Contains reports whether b is present in any slot.
func (s *Stream) Contains(b byte) bool {
	for _, v := range s {
		if v == b {
			return true
		}
	}
	return false
}

// Len returns the number of non-empty slots.
func (s *Stream) Len() int {
	n := 0
	for _, v := range s {
		if v != Empty {
			n++
		}
	}
	return n
}
