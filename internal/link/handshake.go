package link

import (
	"bufio"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
)

const (
	handshakeMagic = "SKB1\x00"
	nonceSize      = 32
	authContext    = "splitkb-auth-v1"
	acceptReply    = "OK\x00"
	rejectReply    = "NO\x00"
)

// ErrUnauthorized is returned when the two halves hold different keys.
var ErrUnauthorized = errors.New("link: pairing key mismatch")

func clientMAC(key, nonce []byte) []byte {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write([]byte(authContext))
	_, _ = mac.Write(nonce)
	return mac.Sum(nil)
}

// ClientHandshake proves knowledge of key to the primary half and returns
// both nonces.
//
// Sends: magic + client_nonce[32] + hmac[32]. Expects: "OK\0" + server_nonce[32].
func ClientHandshake(r *bufio.Reader, w io.Writer, key []byte) (clientNonce, serverNonce []byte, err error) {
	if len(key) == 0 {
		return nil, nil, errors.New("handshake: missing key")
	}
	clientNonce = make([]byte, nonceSize)
	if _, err := rand.Read(clientNonce); err != nil {
		return nil, nil, fmt.Errorf("generate client nonce: %w", err)
	}

	msg := append([]byte(handshakeMagic), clientNonce...)
	msg = append(msg, clientMAC(key, clientNonce)...)
	if _, err := w.Write(msg); err != nil {
		return nil, nil, fmt.Errorf("write handshake: %w", err)
	}

	reply := make([]byte, len(acceptReply))
	if _, err := io.ReadFull(r, reply); err != nil {
		return nil, nil, fmt.Errorf("read handshake reply: %w", err)
	}
	switch string(reply) {
	case acceptReply:
	case rejectReply:
		return nil, nil, ErrUnauthorized
	default:
		return nil, nil, fmt.Errorf("invalid handshake reply %q", reply)
	}

	serverNonce = make([]byte, nonceSize)
	if _, err := io.ReadFull(r, serverNonce); err != nil {
		return nil, nil, fmt.Errorf("read server nonce: %w", err)
	}
	return clientNonce, serverNonce, nil
}

// ServerHandshake checks the secondary half's proof and answers with the
// server nonce. A wrong proof is answered with "NO\0".
func ServerHandshake(r *bufio.Reader, w io.Writer, key []byte) (clientNonce, serverNonce []byte, err error) {
	if len(key) == 0 {
		return nil, nil, errors.New("handshake: missing key")
	}

	magic := make([]byte, len(handshakeMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, nil, fmt.Errorf("read handshake magic: %w", err)
	}
	if string(magic) != handshakeMagic {
		return nil, nil, fmt.Errorf("invalid handshake magic %q", magic)
	}

	clientNonce = make([]byte, nonceSize)
	if _, err := io.ReadFull(r, clientNonce); err != nil {
		return nil, nil, fmt.Errorf("read client nonce: %w", err)
	}
	proof := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, proof); err != nil {
		return nil, nil, fmt.Errorf("read client auth: %w", err)
	}
	if !hmac.Equal(proof, clientMAC(key, clientNonce)) {
		_, _ = w.Write([]byte(rejectReply))
		return nil, nil, ErrUnauthorized
	}

	serverNonce = make([]byte, nonceSize)
	if _, err := rand.Read(serverNonce); err != nil {
		return nil, nil, fmt.Errorf("generate server nonce: %w", err)
	}
	if _, err := w.Write(append([]byte(acceptReply), serverNonce...)); err != nil {
		return nil, nil, fmt.Errorf("write handshake reply: %w", err)
	}
	return clientNonce, serverNonce, nil
}
