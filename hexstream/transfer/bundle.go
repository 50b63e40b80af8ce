package transfer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

var (
	ErrBundleTooLarge = errors.New("transfer: bundle exceeds maximum size")
	ErrBundleInvalid  = errors.New("transfer: malformed bundle")
)

const (
	// MaxBundleSize caps an encoded bundle read from the network.
	MaxBundleSize = 256 << 20

	bundleMagic   = "HXSB"
	bundleVersion = 1
	hashSize      = 32

	bundleHeaderSize = 4 + 1 + 16 + 8 + hashSize + 4
	chunkHeaderSize  = 4 + 1 + hashSize + 4
)

// SealedChunk is one chunk's ciphertext in hexstream wire format.
type SealedChunk struct {
	Index      int
	Compressed bool
	Hash       []byte // SHA-256 of the plaintext chunk
	Ciphertext string
}

// Bundle is a sealed payload ready to store or send.
type Bundle struct {
	ID     uuid.UUID
	Size   int64  // plaintext bytes
	Root   []byte // Merkle root over chunk hashes
	Chunks []SealedChunk
}

// EncodedSize returns the length of Encode's output.
func (b *Bundle) EncodedSize() int {
	size := bundleHeaderSize
	for _, c := range b.Chunks {
		size += chunkHeaderSize + len(c.Ciphertext)
	}
	return size
}

// Encode serializes the bundle.
// Format:
//
//	4 bytes: magic "HXSB"
//	1 byte: version
//	16 bytes: bundle ID
//	8 bytes: plaintext size
//	32 bytes: Merkle root
//	4 bytes: chunk count
//	For each chunk:
//		4 bytes: index
//		1 byte: flags (bit 0 = compressed)
//		32 bytes: plaintext hash
//		4 bytes: ciphertext length
//		N bytes: ciphertext
func (b *Bundle) Encode() ([]byte, error) {
	if len(b.Root) != hashSize {
		return nil, fmt.Errorf("%w: root is %d bytes", ErrBundleInvalid, len(b.Root))
	}
	size := b.EncodedSize()
	if size > MaxBundleSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrBundleTooLarge, size)
	}

	buf := make([]byte, 0, size)
	buf = append(buf, bundleMagic...)
	buf = append(buf, bundleVersion)
	buf = append(buf, b.ID[:]...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(b.Size))
	buf = append(buf, b.Root...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b.Chunks)))

	for _, c := range b.Chunks {
		if len(c.Hash) != hashSize {
			return nil, fmt.Errorf("%w: chunk %d hash is %d bytes", ErrBundleInvalid, c.Index, len(c.Hash))
		}
		buf = binary.BigEndian.AppendUint32(buf, uint32(c.Index))
		var flags byte
		if c.Compressed {
			flags |= 1
		}
		buf = append(buf, flags)
		buf = append(buf, c.Hash...)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.Ciphertext)))
		buf = append(buf, c.Ciphertext...)
	}
	return buf, nil
}

// DecodeBundle parses Encode's output. Ciphertexts are not opened.
func DecodeBundle(data []byte) (*Bundle, error) {
	if len(data) < bundleHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrBundleInvalid, len(data))
	}
	if string(data[:4]) != bundleMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrBundleInvalid)
	}
	if data[4] != bundleVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBundleInvalid, data[4])
	}
	off := 5

	b := &Bundle{}
	copy(b.ID[:], data[off:off+16])
	off += 16
	b.Size = int64(binary.BigEndian.Uint64(data[off:]))
	off += 8
	b.Root = append([]byte(nil), data[off:off+hashSize]...)
	off += hashSize
	count := int(binary.BigEndian.Uint32(data[off:]))
	off += 4

	if count > (len(data)-off)/chunkHeaderSize {
		return nil, fmt.Errorf("%w: %d chunks cannot fit", ErrBundleInvalid, count)
	}
	b.Chunks = make([]SealedChunk, 0, count)
	for i := 0; i < count; i++ {
		if off+chunkHeaderSize > len(data) {
			return nil, fmt.Errorf("%w: truncated at chunk %d", ErrBundleInvalid, i)
		}
		c := SealedChunk{Index: int(binary.BigEndian.Uint32(data[off:]))}
		off += 4
		c.Compressed = data[off]&1 != 0
		off++
		c.Hash = append([]byte(nil), data[off:off+hashSize]...)
		off += hashSize
		n := int(binary.BigEndian.Uint32(data[off:]))
		off += 4
		if n > len(data)-off {
			return nil, fmt.Errorf("%w: truncated at chunk %d", ErrBundleInvalid, i)
		}
		c.Ciphertext = string(data[off : off+n])
		off += n
		b.Chunks = append(b.Chunks, c)
	}
	if off != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrBundleInvalid, len(data)-off)
	}
	return b, nil
}

// WriteBundle writes a length-prefixed bundle.
func WriteBundle(w io.Writer, b *Bundle) error {
	data, err := b.Encode()
	if err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadBundle reads one bundle written by WriteBundle.
func ReadBundle(r io.Reader) (*Bundle, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxBundleSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrBundleTooLarge, n)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return DecodeBundle(data)
}
