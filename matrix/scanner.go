// Package matrix scans a key matrix and debounces what it sees.
//
// Debounce is refresh based: every scan that samples a position closed
// refreshes its LastSeen timestamp, and a key is released only after a full
// silent window. A bouncing contact keeps refreshing and is never released
// mid-bounce.
package matrix

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Alia5/splitkb/board"
	"github.com/Alia5/splitkb/keycode"
)

// Pins is the electrical side of one half's matrix.
type Pins interface {
	// SetRow drives row i active or inactive.
	SetRow(i int, active bool)
	// Col samples column i under the currently active row.
	Col(i int) bool
	// WaitAnyCol blocks until any column goes active or ctx is done.
	WaitAnyCol(ctx context.Context) error
}

// Lookup resolves the keycode of a position under the active layer.
type Lookup interface {
	Lookup(p Position) keycode.Keycode
}

// Options configures a Scanner. The zero value is usable.
type Options struct {
	// Lookup resolves keycodes at first observation. Keys keep Code None
	// when nil and the resolver looks them up itself.
	Lookup Lookup
	// Sleep waits for row settle. Defaults to time.Sleep.
	Sleep  func(time.Duration)
	Logger *slog.Logger
}

// Stats counts capacity events.
type Stats struct {
	Dropped   uint64
	IdleWaits uint64
}

// Scanner owns the tracked-key table of one half. Only Stats may be called
// concurrently with the scan task.
type Scanner struct {
	pins   Pins
	lookup Lookup
	sleep  func(time.Duration)
	logger *slog.Logger

	table      Table
	emptySince time.Time
	dropped    atomic.Uint64
	idleWaits  atomic.Uint64
}

// NewScanner returns a scanner with an empty table.
func NewScanner(pins Pins, o Options) *Scanner {
	s := &Scanner{
		pins:   pins,
		lookup: o.Lookup,
		sleep:  o.Sleep,
		logger: o.Logger,
		table:  NewTable(),
	}
	if s.sleep == nil {
		s.sleep = time.Sleep
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Scan drives every row in turn and records each closed contact as pressed
// at now. Positions not seen are left untouched.
func (s *Scanner) Scan(now time.Time) {
	for r := 0; r < board.Rows; r++ {
		s.pins.SetRow(r, true)
		s.sleep(board.SettleDelay)
		for c := 0; c < board.Cols; c++ {
			if s.pins.Col(c) {
				s.observe(Position{Row: uint8(r), Col: uint8(c)}, now)
			}
		}
		s.pins.SetRow(r, false)
	}

	if s.table.Len() > 0 {
		s.emptySince = time.Time{}
	} else if s.emptySince.IsZero() {
		s.emptySince = now
	}
}

func (s *Scanner) observe(p Position, now time.Time) {
	if i := s.table.Find(p); i >= 0 {
		s.table[i].State = Pressed
		s.table[i].LastSeen = now
		return
	}

	i := s.table.Free()
	if i < 0 {
		s.dropped.Add(1)
		s.logger.Debug("Tracked-key table full, dropping press", "pos", p)
		return
	}
	s.table[i] = Key{
		Code:     s.resolve(p),
		Position: p,
		State:    Pressed,
		LastSeen: now,
	}
}

func (s *Scanner) resolve(p Position) keycode.Keycode {
	if s.lookup == nil {
		return keycode.None
	}
	return s.lookup.Lookup(p)
}

// Debounce releases every pressed key not refreshed within board.Debounce.
func (s *Scanner) Debounce(now time.Time) {
	for i := range s.table {
		k := &s.table[i]
		if !k.Position.Valid() || k.State != Pressed {
			continue
		}
		if !now.Before(k.LastSeen.Add(board.Debounce)) {
			k.State = Released
		}
	}
}

// Purge frees the slots of released keys. The scan task calls it once the
// release has been published.
func (s *Scanner) Purge() {
	for i := range s.table {
		if s.table[i].Position.Valid() && s.table[i].State == Released {
			s.table[i] = EmptyKey
		}
	}
}

// Snapshot returns a copy of the tracked-key table.
func (s *Scanner) Snapshot() Table {
	return s.table
}

// Stats returns the capacity counters.
func (s *Scanner) Stats() Stats {
	return Stats{Dropped: s.dropped.Load(), IdleWaits: s.idleWaits.Load()}
}

// Idle reports whether the table has been empty for at least board.IdleAfter.
func (s *Scanner) Idle(now time.Time) bool {
	return !s.emptySince.IsZero() && now.Sub(s.emptySince) >= board.IdleAfter
}

// WaitIdle drives all rows and waits for any column edge, bounded by
// board.IdleTimeout. Whichever comes first ends the wait; an expired
// timeout is not an error.
func (s *Scanner) WaitIdle(ctx context.Context) error {
	s.idleWaits.Add(1)

	waitCtx, cancel := context.WithTimeout(ctx, board.IdleTimeout)
	defer cancel()

	for r := 0; r < board.Rows; r++ {
		s.pins.SetRow(r, true)
	}
	defer func() {
		for r := 0; r < board.Rows; r++ {
			s.pins.SetRow(r, false)
		}
	}()

	err := s.pins.WaitAnyCol(waitCtx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
