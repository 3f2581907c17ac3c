package firmware

import (
	"context"
	"time"

	"github.com/Alia5/splitkb/board"
	"github.com/Alia5/splitkb/matrix"
)

// scanTask owns the scanner. Each tick it scans, debounces, publishes the
// table when it changed and frees released slots.
func (k *Keyboard) scanTask(ctx context.Context) error {
	ticker := time.NewTicker(board.HousekeepingTick)
	defer ticker.Stop()

	last := matrix.NewTable()
	for {
		now := k.now()
		k.scanner.Scan(now)
		k.scanner.Debounce(now)

		snap := k.scanner.Snapshot()
		if !snap.Same(&last) {
			k.Local.Publish(snap)
			last = snap
		}
		k.scanner.Purge()

		if k.scanner.Idle(now) {
			if err := k.scanner.WaitIdle(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				k.logger.Warn("Idle wait failed", "error", err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// resolveTask waits for whichever mailbox changes first, applies both and
// forwards the report.
func (k *Keyboard) resolveTask(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-k.localRx.Ready():
		case <-k.remoteRx.Ready():
		}

		if t, ok := k.localRx.Try(); ok {
			k.resolver.ApplyLocal(t)
		}
		if s, ok := k.remoteRx.Try(); ok {
			k.resolver.ApplyRemote(k.merger.Merge(s))
		}
		if _, err := k.resolver.Resolve(ctx); err != nil {
			k.logger.Warn("Failed to forward report", "error", err)
		}
	}
}

// uplinkTask encodes local snapshots and sends the stream when it changed.
func (k *Keyboard) uplinkTask(ctx context.Context) error {
	for {
		t, err := k.localRx.Changed(ctx)
		if err != nil {
			return nil
		}
		s, changed := k.encoder.Update(t)
		if !changed {
			continue
		}
		if err := k.uplink.SendStream(ctx, s); err != nil {
			k.logger.Warn("Failed to send stream", "error", err)
		}
	}
}
