package link

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/Alia5/splitkb/internal/log"
	"github.com/Alia5/splitkb/split"
)

// writeTimeout bounds one stream write so a stalled link cannot hold the
// uplink task.
const writeTimeout = 100 * time.Millisecond

type deadlineWriter interface {
	SetWriteDeadline(t time.Time) error
}

// Client sends the secondary half's streams. It implements firmware.Uplink.
type Client struct {
	mu        sync.Mutex
	w         io.WriteCloser
	rawLogger log.RawLogger
}

// NewClient sends frames over w, for example a serial port.
func NewClient(w io.WriteCloser, rawLogger log.RawLogger) *Client {
	if rawLogger == nil {
		rawLogger = log.NewRaw(nil)
	}
	return &Client{w: w, rawLogger: rawLogger}
}

// Dial connects to the primary half. A nil key skips the handshake.
func Dial(ctx context.Context, addr string, key []byte, rawLogger log.RawLogger) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial primary half: %w", err)
	}
	if key == nil {
		return NewClient(conn, rawLogger), nil
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	clientNonce, serverNonce, err := ClientHandshake(bufio.NewReader(conn), conn, key)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("handshake: %w", err)
	}
	_ = conn.SetDeadline(time.Time{})

	sc, err := WrapConn(conn, DeriveSessionKey(key, serverNonce, clientNonce), true)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return NewClient(sc, rawLogger), nil
}

// SendStream frames and writes s.
func (c *Client) SendStream(ctx context.Context, s split.Stream) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if dw, ok := c.w.(deadlineWriter); ok {
		deadline := time.Now().Add(writeTimeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		_ = dw.SetWriteDeadline(deadline)
	}

	frame := EncodeStream(s)
	if _, err := c.w.Write(frame); err != nil {
		return fmt.Errorf("send stream: %w", err)
	}
	c.rawLogger.Log(false, s[:])
	return nil
}

func (c *Client) Close() error {
	return c.w.Close()
}
