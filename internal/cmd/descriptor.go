package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Alia5/splitkb/report"
)

// Descriptor writes the HID report descriptor, e.g. into a configfs
// gadget's functions/hid.usb0/report_desc.
type Descriptor struct {
	Out    string    `arg:"" optional:"" type:"path" help:"Destination file; stdout when omitted"`
	Writer io.Writer `kong:"-"`
}

func (d *Descriptor) Run(logger *slog.Logger) error {
	w := d.Writer
	if d.Out != "" {
		f, err := os.OpenFile(d.Out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open %s: %w", d.Out, err)
		}
		defer f.Close()
		w = f
	}
	if w == nil {
		w = os.Stdout
	}

	if _, err := w.Write(report.Descriptor); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}
	logger.Debug("Wrote HID report descriptor", "bytes", len(report.Descriptor), "reportLength", report.Size)
	return nil
}
