package wire

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/TheusHen/hexstream/hexstream"
)

// Version is the handshake protocol version.
const Version = 1

// ChallengeSize is the length of a handshake challenge in bytes.
const ChallengeSize = 32

var (
	ErrHelloVersion   = errors.New("wire: unsupported hello version")
	ErrHelloBits      = errors.New("wire: hello has unsupported key size")
	ErrHelloPublicKey = errors.New("wire: hello public key must be 32 bytes")
	ErrHelloChallenge = errors.New("wire: hello challenge must be 32 bytes")
)

// Hello opens the handshake in both directions. The responder's Hello also
// carries Proof: the initiator's challenge sealed under the responder's send
// key.
type Hello struct {
	Version   int    `json:"version"`
	Bits      int    `json:"bits"`
	PublicKey []byte `json:"public_key"`
	Challenge []byte `json:"challenge"`
	Proof     string `json:"proof,omitempty"`
}

// NewHello builds a Hello with a fresh random challenge.
func NewHello(bits int, pub [32]byte) (Hello, error) {
	challenge := make([]byte, ChallengeSize)
	if _, err := rand.Read(challenge); err != nil {
		return Hello{}, err
	}
	return Hello{
		Version:   Version,
		Bits:      bits,
		PublicKey: append([]byte(nil), pub[:]...),
		Challenge: challenge,
	}, nil
}

// Validate checks the fields every Hello must carry.
func (h Hello) Validate() error {
	if h.Version != Version {
		return fmt.Errorf("%w: %d", ErrHelloVersion, h.Version)
	}
	if !hexstream.ValidBits(h.Bits) {
		return fmt.Errorf("%w: %d", ErrHelloBits, h.Bits)
	}
	if len(h.PublicKey) != 32 {
		return ErrHelloPublicKey
	}
	if len(h.Challenge) != ChallengeSize {
		return ErrHelloChallenge
	}
	return nil
}

// Key returns PublicKey as an array. Call Validate first.
func (h Hello) Key() [32]byte {
	var k [32]byte
	copy(k[:], h.PublicKey)
	return k
}

func EncodeHello(h Hello) ([]byte, error) {
	return json.Marshal(h)
}

func DecodeHello(b []byte) (Hello, error) {
	var h Hello
	if err := json.Unmarshal(b, &h); err != nil {
		return Hello{}, err
	}
	if err := h.Validate(); err != nil {
		return Hello{}, err
	}
	return h, nil
}

// Proof answers the responder's challenge.
type Proof struct {
	Sealed string `json:"sealed"`
}

func EncodeProof(p Proof) ([]byte, error) {
	return json.Marshal(p)
}

func DecodeProof(b []byte) (Proof, error) {
	var p Proof
	if err := json.Unmarshal(b, &p); err != nil {
		return Proof{}, err
	}
	return p, nil
}
