package link

import (
	"crypto/pbkdf2"
	"crypto/rand"
	"crypto/sha256"
	"errors"
)

const (
	generatedKeyLength = 16
	base62             = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	pbkdf2Iterations   = 100000
	pbkdf2Salt         = "splitkb-link-v1"
	sessionContext     = "splitkb-session-v1"
)

// GenerateKey returns a random 16 character base62 pairing key.
func GenerateKey() (string, error) {
	raw := make([]byte, generatedKeyLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	key := make([]byte, generatedKeyLength)
	for i, b := range raw {
		key[i] = base62[int(b)%len(base62)]
	}
	return string(key), nil
}

// DeriveKey stretches a pairing key to 32 bytes.
func DeriveKey(pairingKey string) ([]byte, error) {
	if pairingKey == "" {
		return nil, errors.New("link: pairing key cannot be empty")
	}
	return pbkdf2.Key(sha256.New, pairingKey, []byte(pbkdf2Salt), pbkdf2Iterations, 32)
}

// DeriveSessionKey mixes both nonces into a per connection key.
func DeriveSessionKey(key, serverNonce, clientNonce []byte) []byte {
	h := sha256.New()
	h.Write(key)
	h.Write(serverNonce)
	h.Write(clientNonce)
	h.Write([]byte(sessionContext))
	return h.Sum(nil)
}
