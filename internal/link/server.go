package link

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/Alia5/splitkb/internal/log"
	"github.com/Alia5/splitkb/split"
)

// Publisher receives decoded streams. *mailbox.Mailbox[split.Stream]
// satisfies it.
type Publisher interface {
	Publish(split.Stream)
}

// Server accepts the secondary half on the primary half. Only one
// secondary is served at a time; a new connection replaces the old one.
type Server struct {
	listenAddr string
	key        []byte
	pub        Publisher
	logger     *slog.Logger
	rawLogger  log.RawLogger

	mu     sync.Mutex
	ln     net.Listener
	active net.Conn
	wg     sync.WaitGroup
}

// NewServer returns a server publishing into pub. A nil key disables the
// handshake and encryption.
func NewServer(listenAddr string, key []byte, pub Publisher, logger *slog.Logger, rawLogger log.RawLogger) *Server {
	if rawLogger == nil {
		rawLogger = log.NewRaw(nil)
	}
	return &Server{
		listenAddr: listenAddr,
		key:        key,
		pub:        pub,
		logger:     logger,
		rawLogger:  rawLogger,
	}
}

// ListenAndServe listens on the configured address and serves until Close.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listenAddr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Close.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.logger.Info("Split link listening", "addr", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if isExpectedDisconnect(err) {
				s.logger.Info("Split link stopped")
				s.wg.Wait()
				return nil
			}
			s.logger.Error("Accept error", "error", err)
			continue
		}
		s.logger.Info("Secondary half connected", "remote", conn.RemoteAddr())

		s.mu.Lock()
		if s.active != nil {
			s.logger.Info("Replacing previous secondary connection", "remote", s.active.RemoteAddr())
			_ = s.active.Close()
		}
		s.active = conn
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

// Addr returns the listening address once serving.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Close stops the listener and drops the active connection.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		_ = s.active.Close()
	}
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}

func (s *Server) handle(conn net.Conn) {
	defer func() {
		s.mu.Lock()
		if s.active == conn {
			s.active = nil
		}
		s.mu.Unlock()
		_ = conn.Close()
	}()

	var rw net.Conn = conn
	if s.key != nil {
		br := bufio.NewReader(conn)
		clientNonce, serverNonce, err := ServerHandshake(br, conn, s.key)
		if err != nil {
			s.logger.Warn("Split link handshake failed", "remote", conn.RemoteAddr(), "error", err)
			return
		}
		sc, err := WrapConn(conn, DeriveSessionKey(s.key, serverNonce, clientNonce), false)
		if err != nil {
			s.logger.Error("Failed to secure split link", "error", err)
			return
		}
		rw = sc
	}

	err := ServeStream(rw, s.publisherFor(conn), s.logger, s.rawLogger)
	if err != nil && !isExpectedDisconnect(err) {
		s.logger.Warn("Split link read failed", "remote", conn.RemoteAddr(), "error", err)
	}
	s.logger.Info("Secondary half disconnected", "remote", conn.RemoteAddr())
}

// connPublisher forwards streams only while conn is the active secondary,
// so a replaced connection cannot overwrite its successor's state.
type connPublisher struct {
	s    *Server
	conn net.Conn
}

func (s *Server) publisherFor(conn net.Conn) Publisher {
	return connPublisher{s: s, conn: conn}
}

func (p connPublisher) Publish(st split.Stream) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if p.s.active != p.conn {
		return
	}
	p.s.pub.Publish(st)
}

// ServeStream publishes every stream framed on r until r fails. Bad frames
// are skipped. When it returns, an empty stream is published so no remote
// key stays held.
func ServeStream(r io.Reader, pub Publisher, logger *slog.Logger, rawLogger log.RawLogger) error {
	defer pub.Publish(split.EmptyStream())
	if rawLogger == nil {
		rawLogger = log.NewRaw(nil)
	}

	br := bufio.NewReader(r)
	for {
		payload, err := ReadFrame(br)
		if errors.Is(err, ErrBadFrame) {
			logger.Debug("Skipping bad frame", "error", err)
			continue
		}
		if isTimeout(err) {
			// serial ports report idle lines as read timeouts
			continue
		}
		if err != nil {
			return err
		}
		rawLogger.Log(true, payload)
		pub.Publish(DecodeStream(payload))
	}
}

// ServeSerial runs ServeStream on a serial port until ctx is done.
func ServeSerial(ctx context.Context, port io.ReadCloser, pub Publisher, logger *slog.Logger, rawLogger log.RawLogger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- ServeStream(port, pub, logger, rawLogger)
	}()

	select {
	case <-ctx.Done():
		_ = port.Close()
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}
