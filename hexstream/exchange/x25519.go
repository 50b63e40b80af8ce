// Package exchange agrees on hexstream session keys between two parties using
// ephemeral X25519 and HKDF-SHA256.
//
// The output is key material for hexstream.New; the cipher still applies its
// own working-key derivation on top.
package exchange

import (
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/curve25519"
)

var ErrInvalidPublicKey = errors.New("exchange: invalid X25519 public key")

// KeyPair is an ephemeral X25519 keypair.
type KeyPair struct {
	Public  [32]byte
	Private [32]byte
}

// Generate creates a fresh keypair from crypto/rand.
func Generate() (KeyPair, error) {
	return GenerateFrom(rand.Reader)
}

// GenerateFrom creates a keypair reading the private scalar from r.
func GenerateFrom(r io.Reader) (KeyPair, error) {
	var kp KeyPair
	if _, err := io.ReadFull(r, kp.Private[:]); err != nil {
		return KeyPair{}, err
	}
	// Clamp per RFC 7748.
	kp.Private[0] &= 248
	kp.Private[31] &= 127
	kp.Private[31] |= 64

	curve25519.ScalarBaseMult(&kp.Public, &kp.Private)
	return kp, nil
}

// SharedSecret computes the raw X25519 shared secret. It must go through
// DeriveKeys before use.
func SharedSecret(private, peerPublic [32]byte) ([]byte, error) {
	var zero [32]byte
	if peerPublic == zero {
		return nil, ErrInvalidPublicKey
	}
	shared, err := curve25519.X25519(private[:], peerPublic[:])
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	return shared, nil
}
