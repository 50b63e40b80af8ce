package hexstream

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/TheusHen/hexstream/hexstream/rijndael"
)

const (
	// NonceSize is the number of counter block bytes fixed for a whole message.
	NonceSize = 8
	// NonceHexLen is the length of the nonce token on the wire.
	NonceHexLen = 2 * NonceSize
	// ChunkSize is the number of plaintext bytes covered by one keystream block.
	ChunkSize = rijndael.BlockSize
	// ChunkHexLen is the length of a full chunk token on the wire.
	ChunkHexLen = 2 * ChunkSize
)

// counterBlock seeds the keystream.
//
//	bytes 0..7:  nonce, least significant byte first
//	bytes 8..15: block index, most significant byte first
//
// The two halves use opposite byte orders; existing ciphertexts depend on it.
type counterBlock [rijndael.BlockSize]byte

func newCounterBlock(nonce uint64) counterBlock {
	var cb counterBlock
	binary.LittleEndian.PutUint64(cb[:NonceSize], nonce)
	return cb
}

func (cb *counterBlock) setIndex(b uint64) {
	binary.BigEndian.PutUint64(cb[NonceSize:], b)
}

func (cb *counterBlock) nonceHex() string {
	return hex.EncodeToString(cb[:NonceSize])
}

func parseNonce(tok string) (counterBlock, error) {
	var cb counterBlock
	if len(tok) != NonceHexLen {
		return cb, fmt.Errorf("%w: nonce has %d hex characters, want %d", ErrMalformedCiphertext, len(tok), NonceHexLen)
	}
	if _, err := hex.Decode(cb[:NonceSize], []byte(tok)); err != nil {
		return cb, fmt.Errorf("%w: nonce: %v", ErrMalformedCiphertext, err)
	}
	return cb, nil
}

// keystream returns the keystream block for chunk b.
func (cb *counterBlock) keystream(s rijndael.Schedule, b uint64) [rijndael.BlockSize]byte {
	cb.setIndex(b)
	return s.Encrypt([rijndael.BlockSize]byte(*cb))
}
