package matrix

import (
	"fmt"
	"time"

	"github.com/Alia5/splitkb/board"
	"github.com/Alia5/splitkb/keycode"
)

// Position is a row/column pair in a matrix.
type Position struct {
	Row uint8
	Col uint8
}

// NoPosition marks an empty slot in fixed-size tables.
var NoPosition = Position{Row: 255, Col: 255}

// Valid reports whether p is not the sentinel.
func (p Position) Valid() bool {
	return p != NoPosition
}

func (p Position) String() string {
	if !p.Valid() {
		return "r-c-"
	}
	return fmt.Sprintf("r%dc%d", p.Row, p.Col)
}

// KeyState is the debounced state of a tracked position.
type KeyState uint8

const (
	Released KeyState = iota
	Pressed
)

func (s KeyState) String() string {
	if s == Pressed {
		return "pressed"
	}
	return "released"
}

// Key is one tracked position. Code is resolved once, when the position is
// first observed pressed, and held for the lifetime of the press.
type Key struct {
	Code     keycode.Keycode
	Position Position
	State    KeyState
	LastSeen time.Time
}

// EmptyKey is the value of a free table slot.
var EmptyKey = Key{Position: NoPosition}

// Table is the fixed-capacity set of keys tracked by one half.
// Free slots hold EmptyKey.
type Table [board.KeyBudget]Key

// NewTable returns a table with all slots free.
func NewTable() Table {
	var t Table
	t.Clear()
	return t
}

// Clear frees every slot.
func (t *Table) Clear() {
	for i := range t {
		t[i] = EmptyKey
	}
}

// Find returns the slot holding p, or -1.
func (t *Table) Find(p Position) int {
	for i := range t {
		if t[i].Position == p {
			return i
		}
	}
	return -1
}

// Free returns the first free slot, or -1 when the table is full.
func (t *Table) Free() int {
	return t.Find(NoPosition)
}

// Len returns the number of occupied slots.
func (t *Table) Len() int {
	n := 0
	for i := range t {
		if t[i].Position.Valid() {
			n++
		}
	}
	return n
}

// Pressed reports whether p is tracked and pressed.
func (t *Table) Pressed(p Position) bool {
	i := t.Find(p)
	return i >= 0 && t[i].State == Pressed
}

// Same reports whether t and o track the same positions in the same states
// and slots. Timestamps are ignored.
func (t *Table) Same(o *Table) bool {
	for i := range t {
		if t[i].Position != o[i].Position || t[i].State != o[i].State || t[i].Code != o[i].Code {
			return false
		}
	}
	return true
}
