// Package link carries key streams from the secondary half to the primary
// half over TCP or a UART.
//
// Every stream travels in a frame: 0xA5, payload length, payload, then the
// XOR of the payload bytes.
package link

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/Alia5/splitkb/split"
)

const (
	frameStart = 0xA5
	// maxPayload bounds a frame so a corrupt length byte cannot stall the
	// reader for long.
	maxPayload = 32
)

// ErrBadFrame is returned for frames with a wrong length or checksum.
var ErrBadFrame = errors.New("link: bad frame")

// EncodeFrame wraps payload in a frame.
func EncodeFrame(payload []byte) ([]byte, error) {
	if len(payload) > maxPayload {
		return nil, fmt.Errorf("%w: payload of %d bytes", ErrBadFrame, len(payload))
	}
	b := make([]byte, 0, len(payload)+3)
	b = append(b, frameStart, byte(len(payload)))
	b = append(b, payload...)
	return append(b, checksum(payload)), nil
}

// ReadFrame reads the next frame and returns its payload. Bytes before a
// start marker are skipped so a serial reader resynchronises after noise.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == frameStart {
			break
		}
	}

	n, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if int(n) > maxPayload {
		return nil, fmt.Errorf("%w: length %d", ErrBadFrame, n)
	}
	buf := make([]byte, int(n)+1)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	payload, sum := buf[:n], buf[n]
	if checksum(payload) != sum {
		return nil, fmt.Errorf("%w: checksum 0x%02X, want 0x%02X", ErrBadFrame, sum, checksum(payload))
	}
	return payload, nil
}

func checksum(p []byte) byte {
	var x byte
	for _, b := range p {
		x ^= b
	}
	return x
}

// EncodeStream frames a key stream.
func EncodeStream(s split.Stream) []byte {
	b, _ := EncodeFrame(s[:])
	return b
}

// DecodeStream turns a frame payload into a stream. Missing slots are
// empty and extra bytes are ignored.
func DecodeStream(payload []byte) split.Stream {
	s := split.EmptyStream()
	copy(s[:], payload)
	return s
}
