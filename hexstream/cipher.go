package hexstream

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/benbjohnson/clock"

	"github.com/TheusHen/hexstream/hexstream/rijndael"
)

var (
	ErrInvalidKeyLength    = errors.New("hexstream: key length must be 128, 192 or 256 bits")
	ErrMalformedCiphertext = errors.New("hexstream: malformed ciphertext")
)

// Config selects the key size and the pluggable parts of a Cipher.
type Config struct {
	Bits   int         // 128, 192 or 256
	Clock  clock.Clock // nonce source; nil uses the wall clock
	Derive Deriver     // working key derivation; nil uses SelfKeyed
}

// DefaultConfig returns a 256-bit configuration on the wall clock.
func DefaultConfig() Config {
	return Config{
		Bits:   256,
		Clock:  clock.New(),
		Derive: SelfKeyed,
	}
}

// ValidBits reports whether bits is a supported key size.
func ValidBits(bits int) bool {
	return bits == 128 || bits == 192 || bits == 256
}

// Cipher encrypts and decrypts messages under one key.
// It is immutable after New and safe for concurrent use.
type Cipher struct {
	bits     int
	clock    clock.Clock
	schedule rijndael.Schedule
}

// New derives the working key from the first Bits/8 bytes of key and expands
// its schedule once for all later calls.
func New(key string, cfg Config) (*Cipher, error) {
	if !ValidBits(cfg.Bits) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeyLength, cfg.Bits)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Derive == nil {
		cfg.Derive = SelfKeyed
	}

	n := cfg.Bits / 8
	derived, err := cfg.Derive(rawKey(key, n))
	if err != nil {
		return nil, err
	}
	if len(derived) != n {
		return nil, fmt.Errorf("%w: deriver returned %d bytes, want %d", ErrInvalidKeyLength, len(derived), n)
	}
	schedule, err := rijndael.ExpandKey(derived)
	if err != nil {
		return nil, err
	}
	return &Cipher{bits: cfg.Bits, clock: cfg.Clock, schedule: schedule}, nil
}

// Bits returns the key size in bits.
func (c *Cipher) Bits() int { return c.bits }

// Clock returns the nonce source.
func (c *Cipher) Clock() clock.Clock { return c.clock }

// WithClock returns a Cipher sharing c's key schedule but taking nonces from
// clk.
func (c *Cipher) WithClock(clk clock.Clock) *Cipher {
	return &Cipher{bits: c.bits, clock: clk, schedule: c.schedule}
}

// Seal encrypts plaintext with a nonce taken from the cipher's clock.
func (c *Cipher) Seal(plaintext string) string {
	return c.seal([]byte(plaintext))
}

// SealBytes is Seal for binary payloads.
func (c *Cipher) SealBytes(plaintext []byte) string {
	return c.seal(plaintext)
}

func (c *Cipher) seal(plaintext []byte) string {
	cb := newCounterBlock(uint64(c.clock.Now().UnixMilli()))

	nChunks := (len(plaintext) + ChunkSize - 1) / ChunkSize
	var sb strings.Builder
	sb.Grow(NonceHexLen + nChunks*(ChunkHexLen+1))
	sb.WriteString(cb.nonceHex())

	var tok [ChunkHexLen]byte
	var buf [ChunkSize]byte
	for b := 0; b < nChunks; b++ {
		chunk := plaintext[b*ChunkSize:]
		if len(chunk) > ChunkSize {
			chunk = chunk[:ChunkSize]
		}
		ks := cb.keystream(c.schedule, uint64(b))
		for i := range chunk {
			buf[i] = chunk[i] ^ ks[i]
		}
		n := hex.Encode(tok[:], buf[:len(chunk)])
		sb.WriteByte(' ')
		sb.Write(tok[:n])
	}
	return sb.String()
}

// Open decrypts a ciphertext produced by Seal or Encrypt.
func (c *Cipher) Open(ciphertext string) (string, error) {
	pt, err := c.OpenBytes(ciphertext)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

// OpenBytes is Open for binary payloads.
func (c *Cipher) OpenBytes(ciphertext string) ([]byte, error) {
	tokens := strings.Split(ciphertext, " ")
	cb, err := parseNonce(tokens[0])
	if err != nil {
		return nil, err
	}
	chunks := tokens[1:]

	out := make([]byte, 0, len(chunks)*ChunkSize)
	var buf [ChunkSize]byte
	for k, tok := range chunks {
		if err := checkChunkToken(tok, k == len(chunks)-1); err != nil {
			return nil, fmt.Errorf("%w (token %d)", err, k+1)
		}
		n, err := hex.Decode(buf[:], []byte(tok))
		if err != nil {
			return nil, fmt.Errorf("%w: token %d: %v", ErrMalformedCiphertext, k+1, err)
		}
		ks := cb.keystream(c.schedule, uint64(k))
		for i := 0; i < n; i++ {
			out = append(out, buf[i]^ks[i])
		}
	}
	return out, nil
}

// checkChunkToken enforces the shapes Seal produces: every token but the last
// covers a full chunk, and no token is empty or has an odd length.
func checkChunkToken(tok string, last bool) error {
	switch {
	case len(tok) == 0:
		return fmt.Errorf("%w: empty token", ErrMalformedCiphertext)
	case len(tok) > ChunkHexLen:
		return fmt.Errorf("%w: token has %d hex characters, max %d", ErrMalformedCiphertext, len(tok), ChunkHexLen)
	case len(tok)%2 != 0:
		return fmt.Errorf("%w: odd-length token", ErrMalformedCiphertext)
	case !last && len(tok) != ChunkHexLen:
		return fmt.Errorf("%w: short token before the final chunk", ErrMalformedCiphertext)
	}
	return nil
}
