// Package firmware wires the scanner, the split merge and the resolver into
// the tasks that run one keyboard half.
package firmware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Alia5/splitkb/board"
	"github.com/Alia5/splitkb/keymap"
	"github.com/Alia5/splitkb/mailbox"
	"github.com/Alia5/splitkb/matrix"
	"github.com/Alia5/splitkb/resolver"
	"github.com/Alia5/splitkb/split"
)

// Role selects which tasks a half runs.
type Role string

const (
	// Primary scans, receives the remote stream and talks to the host.
	Primary Role = "primary"
	// Secondary scans and sends its stream to the primary half.
	Secondary Role = "secondary"
)

// Uplink carries the secondary half's stream to the primary half.
type Uplink interface {
	SendStream(ctx context.Context, s split.Stream) error
}

// Config describes one half.
type Config struct {
	Role   Role
	Pins   matrix.Pins
	Keymap *keymap.Keymap
	// Sink receives reports on the primary half.
	Sink resolver.Sink
	// Uplink sends streams on the secondary half.
	Uplink Uplink
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Keyboard owns the shared state of one half and runs its tasks.
type Keyboard struct {
	// Local carries scanner snapshots.
	Local *mailbox.Mailbox[matrix.Table]
	// Remote carries streams received from the secondary half.
	Remote *mailbox.Mailbox[split.Stream]
	// Layer is the active layer.
	Layer *mailbox.Cell[uint8]

	role     Role
	logger   *slog.Logger
	now      func() time.Time
	scanner  *matrix.Scanner
	resolver *resolver.Resolver
	merger   *split.Merger
	encoder  *split.Encoder
	uplink   Uplink

	localRx  *mailbox.Receiver[matrix.Table]
	remoteRx *mailbox.Receiver[split.Stream]
}

// New builds a keyboard half. Receivers are registered here so no snapshot
// published after New is missed.
func New(cfg Config) (*Keyboard, error) {
	if cfg.Pins == nil {
		return nil, errors.New("firmware: pins are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Keymap == nil {
		cfg.Keymap = keymap.Default()
	}

	k := &Keyboard{
		Local:  mailbox.New(matrix.NewTable(), 2),
		Remote: mailbox.New(split.EmptyStream(), 1),
		Layer:  mailbox.NewCell[uint8](0),
		role:   cfg.Role,
		logger: cfg.Logger,
		now:    cfg.Now,
	}

	var err error
	if k.localRx, err = k.Local.Receiver(); err != nil {
		return nil, fmt.Errorf("registering local receiver: %w", err)
	}

	switch cfg.Role {
	case Primary:
		k.scanner = matrix.NewScanner(cfg.Pins, matrix.Options{
			Lookup: keymap.Layered{Map: cfg.Keymap, Layer: k.Layer},
			Logger: cfg.Logger.With("task", "scan"),
		})
		k.resolver = resolver.New(resolver.Options{
			Keymap:       cfg.Keymap,
			Layer:        k.Layer,
			ScannerCodes: true,
			Sink:         cfg.Sink,
			Logger:       cfg.Logger.With("task", "resolve"),
		})
		k.merger = split.NewMerger(board.Cols, cfg.Logger.With("task", "merge"))
		if k.remoteRx, err = k.Remote.Receiver(); err != nil {
			return nil, fmt.Errorf("registering remote receiver: %w", err)
		}
	case Secondary:
		if cfg.Uplink == nil {
			return nil, errors.New("firmware: secondary half needs an uplink")
		}
		k.scanner = matrix.NewScanner(cfg.Pins, matrix.Options{
			Logger: cfg.Logger.With("task", "scan"),
		})
		k.encoder = split.NewEncoder()
		k.uplink = cfg.Uplink
	default:
		return nil, fmt.Errorf("firmware: unknown role %q", cfg.Role)
	}
	return k, nil
}

// Run starts the tasks of the configured role and blocks until ctx is
// cancelled or a task fails.
func (k *Keyboard) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := []func(context.Context) error{k.scanTask}
	if k.role == Primary {
		tasks = append(tasks, k.resolveTask)
	} else {
		tasks = append(tasks, k.uplinkTask)
	}

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for _, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := task(ctx); err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}()
	}

	k.logger.Info("Keyboard half running", "role", k.role)
	wg.Wait()
	return firstErr
}

// Stats reports the scanner and resolver counters. It is safe to call
// while Run is active; the resolver counters are zero on a secondary half.
func (k *Keyboard) Stats() (matrix.Stats, resolver.Stats) {
	var rs resolver.Stats
	if k.resolver != nil {
		rs = k.resolver.Stats()
	}
	return k.scanner.Stats(), rs
}
