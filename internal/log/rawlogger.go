package log

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// RawLogger dumps link frames.
type RawLogger interface {
	// Log records one frame. in is true for frames received from the
	// other half.
	Log(in bool, data []byte)
}

type rawLogger struct {
	w   io.Writer
	mu  sync.Mutex
	now func() time.Time
}

// NewRaw returns a RawLogger writing to w. A nil w discards everything.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w, now: time.Now}
}

// Log writes one line: timestamp, direction, length and hex bytes.
func (r *rawLogger) Log(in bool, data []byte) {
	if len(data) == 0 || r.w == nil {
		return
	}

	dir := "TX"
	if in {
		dir = "RX"
	}
	line := fmt.Sprintf("%s %s frame: %d bytes, hex: % x\n",
		r.now().Format("2006/01/02 15:04:05.000"),
		dir,
		len(data),
		data)

	r.mu.Lock()
	_, _ = io.WriteString(r.w, line)
	r.mu.Unlock()
}
