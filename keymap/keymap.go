// Package keymap holds the layered position to keycode table.
package keymap

import (
	"errors"
	"fmt"

	"github.com/Alia5/splitkb/board"
	"github.com/Alia5/splitkb/keycode"
	"github.com/Alia5/splitkb/mailbox"
	"github.com/Alia5/splitkb/matrix"
)

// ErrShape is returned when a keymap file does not match the board.
var ErrShape = errors.New("keymap shape does not match board")

// Keymap is indexed [layer][row][unified col]. It is immutable once the
// keyboard runs.
type Keymap [board.Layers][board.Rows][board.UnifiedCols]keycode.Keycode

// At returns the keycode at p on layer. Out of range lookups yield None.
func (k *Keymap) At(layer uint8, p matrix.Position) keycode.Keycode {
	if int(layer) >= board.Layers || int(p.Row) >= board.Rows || int(p.Col) >= board.UnifiedCols {
		return keycode.None
	}
	return k[layer][p.Row][p.Col]
}

// Validate checks that every layer key selects an existing layer.
func (k *Keymap) Validate() error {
	var errs []error
	for l := range k {
		for r := range k[l] {
			for c, kc := range k[l][r] {
				n, ok := keycode.LayerIndex(kc)
				if ok && int(n) >= board.Layers {
					errs = append(errs, fmt.Errorf("layer %d r%dc%d: %s selects layer %d, board has %d", l, r, c, kc, n, board.Layers))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// Layered resolves positions under the layer held in a shared cell.
// The scanner and the resolver share one Layered so both see the same
// active layer.
type Layered struct {
	Map   *Keymap
	Layer *mailbox.Cell[uint8]
}

// Lookup implements matrix.Lookup.
func (l Layered) Lookup(p matrix.Position) keycode.Keycode {
	return l.Map.At(l.Layer.Get(), p)
}

var _ matrix.Lookup = Layered{}
