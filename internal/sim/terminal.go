package sim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"
	"unicode"

	"github.com/Alia5/splitkb/matrix"
	"golang.org/x/term"
)

// ErrQuit is returned by Terminal.Run when the user quits.
var ErrQuit = errors.New("sim: quit")

// Layout maps terminal keys to the half's matrix, one string per row.
var Layout = [...]string{
	"qwert",
	"asdfg",
	"zxcvb",
	"12345",
}

// Terminal turns keystrokes into contact closures. A lower case key taps
// its position for the hold time; the upper case key latches it until
// pressed again. Ctrl-C or Ctrl-D quits.
type Terminal struct {
	pins   *Pins
	hold   time.Duration
	logger *slog.Logger
	keys   map[rune]matrix.Position
}

func NewTerminal(pins *Pins, hold time.Duration, logger *slog.Logger) *Terminal {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Terminal{pins: pins, hold: hold, logger: logger, keys: map[rune]matrix.Position{}}
	for r, row := range Layout {
		for c, ch := range row {
			t.keys[ch] = matrix.Position{Row: uint8(r), Col: uint8(c)}
		}
	}
	return t
}

// Run reads keys from in until ctx is done or the user quits. A terminal
// is switched to raw mode for the duration.
func (t *Terminal) Run(ctx context.Context, in *os.File) error {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		old, err := term.MakeRaw(fd)
		if err != nil {
			return err
		}
		defer func() { _ = term.Restore(fd, old) }()
	}
	t.logger.Info("Terminal matrix ready", "rows", Layout, "quit", "ctrl-c")

	errCh := make(chan error, 1)
	go func() { errCh <- t.Feed(in) }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Feed handles keystrokes from r until it ends or the user quits.
func (t *Terminal) Feed(r io.Reader) error {
	buf := make([]byte, 1)
	for {
		if _, err := r.Read(buf); err != nil {
			if errors.Is(err, io.EOF) {
				return ErrQuit
			}
			return err
		}
		if !t.Key(rune(buf[0])) {
			return ErrQuit
		}
	}
}

// Key handles one keystroke. It returns false when the user quits.
func (t *Terminal) Key(ch rune) bool {
	if ch == 0x03 || ch == 0x04 {
		return false
	}

	latch := false
	if d := unshiftDigit(ch); d != ch {
		ch, latch = d, true
	}
	if unicode.IsUpper(ch) {
		ch, latch = unicode.ToLower(ch), true
	}
	pos, ok := t.keys[ch]
	if !ok {
		return true
	}

	if latch {
		closed := t.pins.Toggle(pos)
		t.logger.Debug("Latched key", "pos", pos, "closed", closed)
		return true
	}
	t.pins.Press(pos)
	time.AfterFunc(t.hold, func() { t.pins.Release(pos) })
	return true
}

// unshiftDigit maps the shifted thumb row keys of a US layout back to
// their digits.
func unshiftDigit(ch rune) rune {
	switch ch {
	case '!':
		return '1'
	case '@':
		return '2'
	case '#':
		return '3'
	case '$':
		return '4'
	case '%':
		return '5'
	}
	return ch
}
