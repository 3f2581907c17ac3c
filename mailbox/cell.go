package mailbox

import "sync"

// Cell is a mutex guarded value. Critical sections are a few field
// reads or writes, so Get and Set never hold the lock for long.
type Cell[T any] struct {
	mu    sync.Mutex
	value T
}

// NewCell returns a cell holding v.
func NewCell[T any](v T) *Cell[T] {
	return &Cell[T]{value: v}
}

func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	c.mu.Unlock()
}

// Update runs fn with exclusive access to the value.
func (c *Cell[T]) Update(fn func(*T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.value)
}
