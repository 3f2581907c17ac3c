//go:build linux

package sink

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Alia5/splitkb/report"
	"golang.org/x/sys/unix"
)

// DefaultGadgetPath is the first HID function of a configfs USB gadget.
const DefaultGadgetPath = "/dev/hidg0"

// gadgetWriteTimeout keeps a write from blocking when no host reads the
// gadget.
const gadgetWriteTimeout = 5 * time.Millisecond

// Gadget writes reports to a Linux USB HID gadget device.
type Gadget struct {
	f *os.File
}

// OpenGadget opens path non-blocking so writes honour deadlines.
func OpenGadget(path string) (*Gadget, error) {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open gadget %s: %w", path, err)
	}
	return &Gadget{f: os.NewFile(uintptr(fd), path)}, nil
}

func (g *Gadget) Send(ctx context.Context, r report.Report) error {
	deadline := time.Now().Add(gadgetWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = g.f.SetWriteDeadline(deadline)
	if _, err := g.f.Write(r.BuildReport()); err != nil {
		return fmt.Errorf("write gadget: %w", err)
	}
	return nil
}

func (g *Gadget) Close() error {
	return g.f.Close()
}
