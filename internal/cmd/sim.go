package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Alia5/splitkb/firmware"
	"github.com/Alia5/splitkb/internal/link"
	"github.com/Alia5/splitkb/internal/log"
	"github.com/Alia5/splitkb/internal/sim"
	"github.com/Alia5/splitkb/internal/sink"
	"github.com/Alia5/splitkb/keymap"
	"github.com/Alia5/splitkb/resolver"
)

// Sim runs one keyboard half with the terminal as its matrix.
type Sim struct {
	Role        string            `help:"Which half to run" enum:"primary,secondary" default:"primary" env:"SPLITKB_ROLE"`
	Listen      string            `help:"Address the primary half listens on" default:":4242" env:"SPLITKB_LISTEN"`
	Connect     string            `help:"Address of the primary half" default:"127.0.0.1:4242" env:"SPLITKB_CONNECT"`
	PairingKey  string            `help:"Shared key for the encrypted link; empty sends plain frames" env:"SPLITKB_PAIRING_KEY"`
	DialTimeout time.Duration     `help:"Timeout for connecting to the primary half" default:"5s" env:"SPLITKB_DIAL_TIMEOUT"`
	UseSerial   bool              `help:"Use a UART link instead of TCP" name:"use-serial" env:"SPLITKB_USE_SERIAL"`
	Serial      link.SerialConfig `embed:"" prefix:"serial."`
	KeymapFile  string            `help:"Keymap file (yaml or toml)" name:"keymap-file" type:"path" env:"SPLITKB_KEYMAP"`
	Gadget      bool              `help:"Forward reports to a USB HID gadget" env:"SPLITKB_GADGET"`
	GadgetPath  string            `help:"Gadget device; /dev/hidg0 when empty" name:"gadget-path" env:"SPLITKB_GADGET_PATH"`
	ReportFile  string            `help:"Append every report as 8 raw bytes to this file" name:"report-file" type:"path" env:"SPLITKB_REPORT_FILE"`
	Hold        time.Duration     `help:"How long a tapped key stays closed" default:"40ms"`
}

// Run is called by Kong when the sim command is executed.
func (s *Sim) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Start(ctx, logger, rawLogger)
}

// Start runs the half until ctx is done or the terminal quits.
func (s *Sim) Start(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	km := keymap.Default()
	if s.KeymapFile != "" {
		var err error
		if km, err = keymap.LoadFile(s.KeymapFile); err != nil {
			return err
		}
		logger.Info("Loaded keymap", "file", s.KeymapFile)
	}

	var key []byte
	if s.PairingKey != "" {
		var err error
		if key, err = link.DeriveKey(s.PairingKey); err != nil {
			return err
		}
	}

	pins := sim.NewPins()
	cfg := firmware.Config{
		Role:   firmware.Role(s.Role),
		Pins:   pins,
		Keymap: km,
		Logger: logger,
	}

	var closers []func() error
	defer func() {
		for _, c := range closers {
			_ = c()
		}
	}()

	var serve func(*firmware.Keyboard) error
	switch cfg.Role {
	case firmware.Primary:
		sk, closeSinks, err := s.sink(logger, rawLogger)
		if err != nil {
			return err
		}
		closers = append(closers, closeSinks)
		cfg.Sink = sk
		serve = func(kb *firmware.Keyboard) error { return s.serveLink(ctx, kb, key, logger, rawLogger) }
	case firmware.Secondary:
		client, err := s.uplink(ctx, key, rawLogger)
		if err != nil {
			return err
		}
		closers = append(closers, client.Close)
		cfg.Uplink = client
		serve = func(*firmware.Keyboard) error { <-ctx.Done(); return nil }
	}

	kb, err := firmware.New(cfg)
	if err != nil {
		return err
	}

	errCh := make(chan error, 3)
	go func() { errCh <- kb.Run(ctx) }()
	go func() { errCh <- serve(kb) }()
	go func() {
		term := sim.NewTerminal(pins, s.Hold, logger)
		errCh <- term.Run(ctx, os.Stdin)
	}()

	err = <-errCh
	cancel()
	scan, res := kb.Stats()
	logger.Info("Keyboard half stopped",
		"scanDropped", scan.Dropped,
		"idleWaits", scan.IdleWaits,
		"forwarded", res.Forwarded,
		"rolloverDropped", res.Dropped,
		"sinkErrors", res.SinkErrors,
	)
	if errors.Is(err, sim.ErrQuit) {
		return nil
	}
	return err
}

func (s *Sim) sink(logger *slog.Logger, rawLogger log.RawLogger) (resolver.Sink, func() error, error) {
	sinks := sink.Tee{sink.NewLog(logger, rawLogger)}
	var closers []io.Closer
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
		return errors.Join(errs...)
	}

	if s.ReportFile != "" {
		f, err := os.OpenFile(s.ReportFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open report file: %w", err)
		}
		closers = append(closers, f)
		sinks = append(sinks, sink.NewWriter(f))
		logger.Info("Writing reports to file", "file", s.ReportFile)
	}

	if s.Gadget {
		path := s.GadgetPath
		if path == "" {
			path = sink.DefaultGadgetPath
		}
		g, err := sink.OpenGadget(path)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		closers = append(closers, g)
		sinks = append(sinks, g)
		logger.Info("Forwarding reports to USB gadget", "device", path)
	}
	return sinks, closeAll, nil
}

func (s *Sim) serveLink(ctx context.Context, kb *firmware.Keyboard, key []byte, logger *slog.Logger, rawLogger log.RawLogger) error {
	if s.UseSerial {
		port, err := link.OpenSerial(s.Serial)
		if err != nil {
			return err
		}
		logger.Info("Waiting for secondary half on serial", "device", s.Serial.Address)
		return link.ServeSerial(ctx, port, kb.Remote, logger, rawLogger)
	}

	srv := link.NewServer(s.Listen, key, kb.Remote, logger, rawLogger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		_ = srv.Close()
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (s *Sim) uplink(ctx context.Context, key []byte, rawLogger log.RawLogger) (*link.Client, error) {
	if s.UseSerial {
		port, err := link.OpenSerial(s.Serial)
		if err != nil {
			return nil, err
		}
		return link.NewClient(port, rawLogger), nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, s.DialTimeout)
	defer cancel()
	client, err := link.Dial(dialCtx, s.Connect, key, rawLogger)
	if err != nil {
		return nil, fmt.Errorf("connect to primary half at %s: %w", s.Connect, err)
	}
	return client, nil
}
