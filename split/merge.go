package split

import (
	"log/slog"

	"github.com/Alia5/splitkb/board"
	"github.com/Alia5/splitkb/matrix"
)

// Positions is the remote half's key set in unified coordinates.
// Empty slots hold matrix.NoPosition.
type Positions [board.KeyBudget]matrix.Position

// Merger maps remote streams into the unified matrix. The remote half's
// columns are shifted by the local column count so positions from the two
// halves never collide.
type Merger struct {
	localCols uint8
	logger    *slog.Logger
	malformed uint64
}

// NewMerger returns a merger offsetting remote columns by localCols.
func NewMerger(localCols uint8, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{localCols: localCols, logger: logger}
}

// Merge decodes s into unified positions. Slots whose packed row or column
// lies outside the half's matrix are ignored.
func (m *Merger) Merge(s Stream) Positions {
	var out Positions
	for i, b := range s {
		out[i] = matrix.NoPosition
		p, ok := Unpack(b)
		if !ok {
			continue
		}
		if p.Row >= board.Rows || p.Col >= board.Cols {
			m.malformed++
			m.logger.Debug("Ignoring malformed remote key", "slot", i, "byte", b)
			continue
		}
		out[i] = matrix.Position{Row: p.Row, Col: p.Col + m.localCols}
	}
	return out
}

// Malformed returns how many slots were ignored so far.
func (m *Merger) Malformed() uint64 {
	return m.malformed
}

// Encoder builds the outgoing stream of the secondary half from its
// tracked-key table. A held key keeps its slot across updates.
type Encoder struct {
	last Stream
}

// NewEncoder returns an encoder starting from an empty stream.
func NewEncoder() *Encoder {
	return &Encoder{last: EmptyStream()}
}

// Update folds the pressed keys of t into the stream and reports whether it
// changed since the previous call.
func (e *Encoder) Update(t matrix.Table) (Stream, bool) {
	next := e.last

	// clear released or vanished keys
	for i, b := range next {
		p, ok := Unpack(b)
		if ok && !t.Pressed(p) {
			next[i] = Empty
		}
	}

	for _, k := range t {
		if !k.Position.Valid() || k.State != matrix.Pressed {
			continue
		}
		b, err := Pack(k.Position)
		if err != nil || next.Contains(b) {
			continue
		}
		for i := range next {
			if next[i] == Empty {
				next[i] = b
				break
			}
		}
	}

	changed := next != e.last
	e.last = next
	return next, changed
}
