// Package erasure protects sealed bundles with Reed-Solomon parity so a
// receiver can rebuild them after losing shards.
package erasure

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/reedsolomon"
)

var (
	ErrTooManyLost   = errors.New("erasure: too many shards lost, cannot recover")
	ErrInvalidConfig = errors.New("erasure: invalid data/parity configuration")
	ErrCorrupt       = errors.New("erasure: shards are inconsistent")
)

// lengthHeader prefixes the payload so Decode can strip padding on its own.
const lengthHeader = 8

// Codec splits payloads into data and parity shards.
type Codec struct {
	enc          reedsolomon.Encoder
	dataShards   int
	parityShards int
}

// New creates a codec that survives the loss of up to parity shards.
func New(data, parity int) (*Codec, error) {
	if data <= 0 || parity <= 0 {
		return nil, fmt.Errorf("%w: %d+%d", ErrInvalidConfig, data, parity)
	}
	enc, err := reedsolomon.New(data, parity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &Codec{enc: enc, dataShards: data, parityShards: parity}, nil
}

func (c *Codec) DataShards() int { return c.dataShards }

func (c *Codec) ParityShards() int { return c.parityShards }

func (c *Codec) TotalShards() int { return c.dataShards + c.parityShards }

// Encode returns TotalShards equally sized shards carrying payload.
func (c *Codec) Encode(payload []byte) ([][]byte, error) {
	buf := make([]byte, lengthHeader+len(payload))
	binary.BigEndian.PutUint64(buf, uint64(len(payload)))
	copy(buf[lengthHeader:], payload)

	shards, err := c.enc.Split(buf)
	if err != nil {
		return nil, err
	}
	if err := c.enc.Encode(shards); err != nil {
		return nil, err
	}
	return shards, nil
}

// Decode rebuilds the payload. Missing shards are passed as nil and are
// filled in place.
func (c *Codec) Decode(shards [][]byte) ([]byte, error) {
	if len(shards) != c.TotalShards() {
		return nil, fmt.Errorf("%w: got %d shards, want %d", ErrInvalidConfig, len(shards), c.TotalShards())
	}
	if err := c.enc.Reconstruct(shards); err != nil {
		if errors.Is(err, reedsolomon.ErrTooFewShards) {
			return nil, ErrTooManyLost
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	ok, err := c.enc.Verify(shards)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !ok {
		return nil, ErrCorrupt
	}

	joined := make([]byte, 0, len(shards[0])*c.dataShards)
	for _, s := range shards[:c.dataShards] {
		joined = append(joined, s...)
	}
	n := binary.BigEndian.Uint64(joined)
	if n > uint64(len(joined)-lengthHeader) {
		return nil, fmt.Errorf("%w: length header %d exceeds %d bytes", ErrCorrupt, n, len(joined)-lengthHeader)
	}
	return joined[lengthHeader : lengthHeader+int(n)], nil
}

// ShardSize returns the size of each shard for a payload of n bytes.
func (c *Codec) ShardSize(n int) int {
	total := lengthHeader + n
	return (total + c.dataShards - 1) / c.dataShards
}

// Overhead returns the storage overhead ratio (e.g. 1.4 for 10+4).
func (c *Codec) Overhead() float64 {
	return float64(c.TotalShards()) / float64(c.dataShards)
}
