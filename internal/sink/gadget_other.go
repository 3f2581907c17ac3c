//go:build !linux

package sink

import (
	"context"
	"errors"

	"github.com/Alia5/splitkb/report"
)

const DefaultGadgetPath = "/dev/hidg0"

// Gadget is only available on Linux.
type Gadget struct{}

func OpenGadget(path string) (*Gadget, error) {
	return nil, errors.New("USB HID gadget is only supported on linux")
}

func (g *Gadget) Send(context.Context, report.Report) error {
	return errors.New("USB HID gadget is only supported on linux")
}

func (g *Gadget) Close() error { return nil }
