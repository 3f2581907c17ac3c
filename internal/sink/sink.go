// Package sink delivers keyboard reports to the host side.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Alia5/splitkb/internal/log"
	"github.com/Alia5/splitkb/report"
)

// Log writes every report to a logger and the raw frame log.
type Log struct {
	logger    *slog.Logger
	rawLogger log.RawLogger
}

func NewLog(logger *slog.Logger, rawLogger log.RawLogger) *Log {
	if rawLogger == nil {
		rawLogger = log.NewRaw(nil)
	}
	return &Log{logger: logger, rawLogger: rawLogger}
}

func (l *Log) Send(_ context.Context, r report.Report) error {
	l.logger.Info("Report", "modifiers", fmt.Sprintf("0x%02X", r.Modifiers), "keys", keyNames(r))
	l.rawLogger.Log(false, r.BuildReport())
	return nil
}

func keyNames(r report.Report) []string {
	var out []string
	for _, kc := range r.Keycodes {
		if kc != 0 {
			out = append(out, kc.String())
		}
	}
	return out
}

// Writer writes each report as 8 raw bytes.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (s *Writer) Send(_ context.Context, r report.Report) error {
	b, err := r.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := s.w.Write(b); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Sender is the contract shared by every sink.
type Sender interface {
	Send(ctx context.Context, r report.Report) error
}

// Tee sends each report to every sink and joins their errors.
type Tee []Sender

func (t Tee) Send(ctx context.Context, r report.Report) error {
	var errs []error
	for _, s := range t {
		if err := s.Send(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
