// Package sim runs a keyboard half on a host: a virtual matrix driven from
// the terminal stands in for the row and column lines.
package sim

import (
	"context"
	"sync"

	"github.com/Alia5/splitkb/board"
	"github.com/Alia5/splitkb/matrix"
)

// Pins is a virtual key matrix. Closed contacts read active on their column
// while their row is driven. Safe for concurrent use.
type Pins struct {
	mu     sync.Mutex
	closed [board.Rows][board.Cols]bool
	active [board.Rows]bool
	edge   chan struct{}
}

var _ matrix.Pins = (*Pins)(nil)

func NewPins() *Pins {
	return &Pins{edge: make(chan struct{}, 1)}
}

// Press closes the contact at p.
func (p *Pins) Press(pos matrix.Position) {
	p.set(pos, true)
	select {
	case p.edge <- struct{}{}:
	default:
	}
}

// Release opens the contact at p.
func (p *Pins) Release(pos matrix.Position) {
	p.set(pos, false)
}

// Toggle flips the contact at p and returns its new state.
func (p *Pins) Toggle(pos matrix.Position) bool {
	p.mu.Lock()
	closed := int(pos.Row) < board.Rows && int(pos.Col) < board.Cols && !p.closed[pos.Row][pos.Col]
	p.mu.Unlock()
	if closed {
		p.Press(pos)
	} else {
		p.Release(pos)
	}
	return closed
}

// Closed reports whether the contact at p is closed.
func (p *Pins) Closed(pos matrix.Position) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(pos.Row) >= board.Rows || int(pos.Col) >= board.Cols {
		return false
	}
	return p.closed[pos.Row][pos.Col]
}

func (p *Pins) set(pos matrix.Position, closed bool) {
	if int(pos.Row) >= board.Rows || int(pos.Col) >= board.Cols {
		return
	}
	p.mu.Lock()
	p.closed[pos.Row][pos.Col] = closed
	p.mu.Unlock()
}

func (p *Pins) SetRow(i int, active bool) {
	p.mu.Lock()
	p.active[i] = active
	p.mu.Unlock()
}

func (p *Pins) Col(i int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for r := range p.active {
		if p.active[r] && p.closed[r][i] {
			return true
		}
	}
	return false
}

func (p *Pins) WaitAnyCol(ctx context.Context) error {
	for c := 0; c < board.Cols; c++ {
		if p.Col(c) {
			return nil
		}
	}
	select {
	case <-p.edge:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
