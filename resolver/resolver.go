// Package resolver turns the unified set of held positions into keyboard
// reports.
//
// Each position's keycode is fixed when it is first seen pressed. Layer
// keys push onto a stack and the most recent held one selects the active
// layer. Modifier keys set bits in the report mask. Plain keys take the
// first free of six report slots; a press that finds every slot taken is
// retried while it stays held.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Alia5/splitkb/board"
	"github.com/Alia5/splitkb/keycode"
	"github.com/Alia5/splitkb/keymap"
	"github.com/Alia5/splitkb/mailbox"
	"github.com/Alia5/splitkb/matrix"
	"github.com/Alia5/splitkb/report"
	"github.com/Alia5/splitkb/split"
)

const tableSize = 2 * board.KeyBudget

// Sink accepts finished reports for transport to the host.
type Sink interface {
	Send(ctx context.Context, r report.Report) error
}

// Options configures a Resolver.
type Options struct {
	Keymap *keymap.Keymap
	// Layer is the active layer shared with the scanner's lookup.
	Layer *mailbox.Cell[uint8]
	// ScannerCodes marks local codes as resolved by the scanner. Local keys
	// then keep the scanner's code, even None, and are never looked up here.
	ScannerCodes bool
	Sink         Sink
	Logger       *slog.Logger
}

// Stats counts resolver events.
type Stats struct {
	Forwarded  uint64
	Dropped    uint64
	SinkErrors uint64
}

type entry struct {
	key matrix.Key
	// applied is set once the press took effect on the report or layer.
	applied bool
	dropped bool
}

// Resolver owns the unified key table, the layer stack and the report.
// It is driven by a single task; only Stats may be called concurrently.
type Resolver struct {
	keymap       *keymap.Keymap
	layer        *mailbox.Cell[uint8]
	scannerCodes bool
	sink         Sink
	logger       *slog.Logger

	// local slots [0, KeyBudget), remote slots [KeyBudget, 2*KeyBudget)
	table  [tableSize]entry
	layers layerStack
	report report.Report
	last   report.Report

	forwarded  atomic.Uint64
	dropped    atomic.Uint64
	sinkErrors atomic.Uint64
}

// New returns a resolver with an empty table and layer 0 active.
func New(o Options) *Resolver {
	r := &Resolver{
		keymap:       o.Keymap,
		layer:        o.Layer,
		scannerCodes: o.ScannerCodes,
		sink:         o.Sink,
		logger:       o.Logger,
	}
	if r.keymap == nil {
		r.keymap = &keymap.Keymap{}
	}
	if r.layer == nil {
		r.layer = mailbox.NewCell[uint8](0)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	for i := range r.table {
		r.table[i].key = matrix.EmptyKey
	}
	r.layer.Set(0)
	return r
}

// ApplyLocal folds a snapshot of the local scanner table into the unified
// table. Keys absent from t, or marked released in it, are released.
func (r *Resolver) ApplyLocal(t matrix.Table) {
	var pressed [board.KeyBudget]matrix.Key
	n := 0
	for _, k := range t {
		if k.Position.Valid() && k.State == matrix.Pressed {
			pressed[n] = k
			n++
		}
	}
	r.apply(r.table[:board.KeyBudget], pressed[:n], !r.scannerCodes)
}

// ApplyRemote folds the merged remote positions into the unified table.
// Presence means pressed, absence of a previously present position means
// released.
func (r *Resolver) ApplyRemote(ps split.Positions) {
	var pressed [board.KeyBudget]matrix.Key
	n := 0
	for _, p := range ps {
		if !p.Valid() {
			continue
		}
		pressed[n] = matrix.Key{Position: p, State: matrix.Pressed}
		n++
	}
	r.apply(r.table[board.KeyBudget:], pressed[:n], true)
}

// apply folds pressed into region. With lookup set, new keys take their
// code from the keymap at the active layer instead of from the key.
func (r *Resolver) apply(region []entry, pressed []matrix.Key, lookup bool) {
	// releases first so their slots are free for new presses
	for i := range region {
		e := &region[i]
		if !e.key.Position.Valid() || holds(pressed, e.key.Position) {
			continue
		}
		e.key.State = matrix.Released
		r.release(e)
		e.key = matrix.EmptyKey
		e.applied = false
		e.dropped = false
	}

	for _, k := range pressed {
		if find(region, k.Position) >= 0 {
			continue
		}
		i := find(region, matrix.NoPosition)
		if i < 0 {
			// more positions than slots; only malformed input gets here
			r.logger.Debug("Unified table full, ignoring position", "pos", k.Position)
			continue
		}
		code := k.Code
		if lookup {
			code = r.keymap.At(r.layer.Get(), k.Position)
		}
		region[i] = entry{key: matrix.Key{
			Code:     code,
			Position: k.Position,
			State:    matrix.Pressed,
			LastSeen: k.LastSeen,
		}}
	}
}

func holds(keys []matrix.Key, p matrix.Position) bool {
	for _, k := range keys {
		if k.Position == p {
			return true
		}
	}
	return false
}

func find(region []entry, p matrix.Position) int {
	for i := range region {
		if region[i].key.Position == p {
			return i
		}
	}
	return -1
}

// press applies a pending press. It leaves e unapplied when a plain key
// finds every report slot taken.
func (r *Resolver) press(e *entry) {
	code := e.key.Code
	switch keycode.Classify(code) {
	case keycode.ClassLayer:
		n, _ := keycode.LayerIndex(code)
		if int(n) >= board.Layers {
			r.logger.Debug("Ignoring layer key for undefined layer", "pos", e.key.Position, "layer", n)
			break
		}
		r.layers.push(e.key.Position, n)
		r.setLayer()
	case keycode.ClassModifier:
		r.report.Modifiers |= keycode.ModifierBit(code)
	case keycode.ClassKey:
		if code == keycode.None {
			break
		}
		if !r.report.Contains(code) && !r.report.Insert(code) {
			if !e.dropped {
				e.dropped = true
				r.dropped.Add(1)
				r.logger.Debug("Rollover limit reached, holding press", "pos", e.key.Position, "code", code)
			}
			return
		}
	case keycode.ClassCombo, keycode.ClassMacro, keycode.ClassMouse:
		// reserved classes have no behaviour yet
	}
	e.applied = true
}

func (r *Resolver) release(e *entry) {
	if !e.applied {
		return
	}
	code := e.key.Code
	switch keycode.Classify(code) {
	case keycode.ClassLayer:
		r.layers.remove(e.key.Position)
		r.setLayer()
	case keycode.ClassModifier:
		bit := keycode.ModifierBit(code)
		if !r.heldBy(e, func(o keycode.Keycode) bool {
			return keycode.Classify(o) == keycode.ClassModifier && keycode.ModifierBit(o) == bit
		}) {
			r.report.Modifiers &^= bit
		}
	case keycode.ClassKey:
		if !r.heldBy(e, func(o keycode.Keycode) bool { return o == code }) {
			r.report.Remove(code)
		}
	}
}

// heldBy reports whether an applied entry other than e matches.
func (r *Resolver) heldBy(e *entry, match func(keycode.Keycode) bool) bool {
	for i := range r.table {
		o := &r.table[i]
		if o == e || !o.applied || !o.key.Position.Valid() {
			continue
		}
		if match(o.key.Code) {
			return true
		}
	}
	return false
}

func (r *Resolver) setLayer() {
	n := r.layers.top()
	if r.layer.Get() != n {
		r.logger.Debug("Active layer changed", "layer", n)
	}
	r.layer.Set(n)
}

// Resolve applies every pending press, then forwards the report if it
// differs from the last forwarded one. A failed send still counts as
// forwarded; reports are never retried.
func (r *Resolver) Resolve(ctx context.Context) (bool, error) {
	for i := range r.table {
		e := &r.table[i]
		if e.key.Position.Valid() && e.key.State == matrix.Pressed && !e.applied {
			r.press(e)
		}
	}

	if r.report == r.last {
		return false, nil
	}
	r.last = r.report
	r.forwarded.Add(1)
	if r.sink == nil {
		return true, nil
	}
	if err := r.sink.Send(ctx, r.report); err != nil {
		r.sinkErrors.Add(1)
		return true, fmt.Errorf("forwarding report: %w", err)
	}
	return true, nil
}

// Report returns the current report.
func (r *Resolver) Report() report.Report {
	return r.report
}

// Layer returns the active layer.
func (r *Resolver) Layer() uint8 {
	return r.layers.top()
}

// Stats returns the event counters.
func (r *Resolver) Stats() Stats {
	return Stats{
		Forwarded:  r.forwarded.Load(),
		Dropped:    r.dropped.Load(),
		SinkErrors: r.sinkErrors.Load(),
	}
}

// Held returns the number of positions in the unified table.
func (r *Resolver) Held() int {
	n := 0
	for i := range r.table {
		if r.table[i].key.Position.Valid() {
			n++
		}
	}
	return n
}
