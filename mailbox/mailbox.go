// Package mailbox provides the two sharing primitives used between tasks:
// a latest-value Mailbox with independent receivers and an exclusive Cell.
package mailbox

import (
	"context"
	"errors"
	"sync"
)

// ErrTooManyReceivers is returned when every receiver slot is taken.
var ErrTooManyReceivers = errors.New("mailbox: receiver capacity exhausted")

// Mailbox is a single-slot, overwrite-on-write channel. Writers never block;
// a slow receiver misses intermediate values and always sees the latest.
type Mailbox[T any] struct {
	mu        sync.Mutex
	value     T
	version   uint64
	receivers []*Receiver[T]
	capacity  int
}

// New returns a mailbox holding initial, serving at most receivers readers.
func New[T any](initial T, receivers int) *Mailbox[T] {
	return &Mailbox[T]{
		value:     initial,
		receivers: make([]*Receiver[T], 0, receivers),
		capacity:  receivers,
	}
}

// Publish overwrites the slot and wakes every receiver.
func (m *Mailbox[T]) Publish(v T) {
	m.mu.Lock()
	m.value = v
	m.version++
	rs := m.receivers
	m.mu.Unlock()

	for _, r := range rs {
		select {
		case r.signal <- struct{}{}:
		default:
		}
	}
}

// Get returns the latest value without affecting any receiver.
func (m *Mailbox[T]) Get() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

// Receiver registers a new reader. The reader starts caught up with the
// current value; only later publishes count as changes.
func (m *Mailbox[T]) Receiver() (*Receiver[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.receivers) >= m.capacity {
		return nil, ErrTooManyReceivers
	}
	r := &Receiver[T]{
		m:      m,
		seen:   m.version,
		signal: make(chan struct{}, 1),
	}
	m.receivers = append(m.receivers, r)
	return r, nil
}

// Receiver tracks which version of a mailbox one reader has seen.
// A Receiver belongs to a single task.
type Receiver[T any] struct {
	m      *Mailbox[T]
	seen   uint64
	signal chan struct{}
}

// Try returns the latest value if it is newer than the last one this
// receiver took.
func (r *Receiver[T]) Try() (T, bool) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.version == r.seen {
		var zero T
		return zero, false
	}
	r.seen = r.m.version
	return r.m.value, true
}

// Changed blocks until a value newer than the last one taken is available.
func (r *Receiver[T]) Changed(ctx context.Context) (T, error) {
	for {
		if v, ok := r.Try(); ok {
			return v, nil
		}
		select {
		case <-r.signal:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Ready fires after a publish. It may fire without a newer value being
// available, so callers follow it with Try.
func (r *Receiver[T]) Ready() <-chan struct{} {
	return r.signal
}
