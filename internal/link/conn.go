package link

import (
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrReplay is returned when a packet repeats or predates one already read.
var ErrReplay = errors.New("replayed packet")

// maxPacket bounds one sealed packet: a frame plus nonce and tag.
const maxPacket = 256

// Conn seals every Write into one ChaCha20-Poly1305 packet:
// length[2] + nonce[12] + ciphertext. The first nonce byte carries the
// direction so both halves can share the session key.
type Conn struct {
	net.Conn
	aead    cipher.AEAD
	dir     byte
	sendCtr uint64
	// recvNext is the lowest counter a peer packet may still carry.
	recvNext uint64
	recvBuf  bytes.Buffer
	mu      sync.Mutex
}

// WrapConn secures conn with sessionKey. isClient selects the direction
// byte used for outgoing nonces.
func WrapConn(conn net.Conn, sessionKey []byte, isClient bool) (*Conn, error) {
	aead, err := chacha20poly1305.New(sessionKey)
	if err != nil {
		return nil, err
	}
	c := &Conn{Conn: conn, aead: aead, dir: 's'}
	if isClient {
		c.dir = 'c'
	}
	return c, nil
}

func (s *Conn) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nonce := make([]byte, chacha20poly1305.NonceSize)
	nonce[0] = s.dir
	binary.BigEndian.PutUint64(nonce[4:], s.sendCtr)
	s.sendCtr++

	sealed := s.aead.Seal(nil, nonce, p, nil)
	pkt := make([]byte, 2, 2+len(nonce)+len(sealed))
	binary.BigEndian.PutUint16(pkt, uint16(len(nonce)+len(sealed)))
	pkt = append(pkt, nonce...)
	pkt = append(pkt, sealed...)
	if len(pkt) > maxPacket {
		return 0, fmt.Errorf("link: packet of %d bytes too large", len(pkt))
	}

	if _, err := s.Conn.Write(pkt); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *Conn) Read(p []byte) (int, error) {
	if s.recvBuf.Len() == 0 {
		var hdr [2]byte
		if _, err := io.ReadFull(s.Conn, hdr[:]); err != nil {
			return 0, err
		}
		length := int(binary.BigEndian.Uint16(hdr[:]))
		if length > maxPacket || length < chacha20poly1305.NonceSize {
			return 0, io.ErrUnexpectedEOF
		}

		pkt := make([]byte, length)
		if _, err := io.ReadFull(s.Conn, pkt); err != nil {
			return 0, err
		}
		nonce, sealed := pkt[:chacha20poly1305.NonceSize], pkt[chacha20poly1305.NonceSize:]
		if nonce[0] == s.dir {
			return 0, fmt.Errorf("link: packet reflected back")
		}
		pt, err := s.aead.Open(nil, nonce, sealed, nil)
		if err != nil {
			return 0, err
		}
		ctr := binary.BigEndian.Uint64(nonce[4:])
		if ctr < s.recvNext {
			return 0, fmt.Errorf("link: %w: counter %d, expected at least %d", ErrReplay, ctr, s.recvNext)
		}
		s.recvNext = ctr + 1
		s.recvBuf.Write(pt)
	}
	return s.recvBuf.Read(p)
}
