package exchange

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/TheusHen/hexstream/hexstream"
)

const sessionInfo = "hexstream-session"

// Keys holds one key string per direction, each Bits/8 bytes long.
type Keys struct {
	Initiator string // initiator -> responder
	Responder string // responder -> initiator
	Bits      int
}

// Send returns the key this side encrypts with.
func (k Keys) Send(initiator bool) string {
	if initiator {
		return k.Initiator
	}
	return k.Responder
}

// Recv returns the key this side decrypts with.
func (k Keys) Recv(initiator bool) string {
	return k.Send(!initiator)
}

// DeriveKeys expands the shared secret into per-direction key material.
// psk is mixed in as the HKDF salt, so both sides must hold the same
// passphrase to end up with matching keys. The info string binds both
// public keys in initiator-then-responder order.
func DeriveKeys(shared []byte, psk string, initiatorPub, responderPub [32]byte, bits int) (Keys, error) {
	if !hexstream.ValidBits(bits) {
		return Keys{}, fmt.Errorf("%w: got %d", hexstream.ErrInvalidKeyLength, bits)
	}
	n := bits / 8

	info := make([]byte, 0, len(sessionInfo)+64)
	info = append(info, sessionInfo...)
	info = append(info, initiatorPub[:]...)
	info = append(info, responderPub[:]...)

	var salt []byte
	if psk != "" {
		salt = []byte(psk)
	}
	r := hkdf.New(sha256.New, shared, salt, info)
	material := make([]byte, 2*n)
	if _, err := io.ReadFull(r, material); err != nil {
		return Keys{}, err
	}
	return Keys{
		Initiator: string(material[:n]),
		Responder: string(material[n:]),
		Bits:      bits,
	}, nil
}
