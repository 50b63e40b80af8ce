package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/TheusHen/hexstream/hexstream"
)

var ErrIntegrityCheckFailed = errors.New("transfer: integrity check failed")

// Config tunes how payloads are cut and sealed.
type Config struct {
	ChunkSize   int              // plaintext bytes per chunk
	Compression CompressionLevel // CompressionNone disables compression
	Workers     int              // chunks sealed or opened concurrently
}

// DefaultConfig returns 64 KiB chunks, fast compression and one worker per
// CPU.
func DefaultConfig() Config {
	return Config{
		ChunkSize:   DefaultChunkSize,
		Compression: CompressionFast,
		Workers:     runtime.GOMAXPROCS(0),
	}
}

// Stats counts what a Sealer has processed.
type Stats struct {
	PlainBytes  atomic.Int64
	StoredBytes atomic.Int64 // after compression, before sealing
	Sealed      atomic.Int64
	Opened      atomic.Int64
}

// CompressionRatio returns plain / stored bytes.
func (s *Stats) CompressionRatio() float64 {
	stored := s.StoredBytes.Load()
	if stored == 0 {
		return 1.0
	}
	return float64(s.PlainBytes.Load()) / float64(stored)
}

// Sealer turns payloads into bundles and back with one cipher.
type Sealer struct {
	cipher  *hexstream.Cipher
	cfg     Config
	chunker *Chunker
	stats   Stats
}

// NewSealer prepares a sealer. Chunks are sealed in parallel, so the cipher's
// clock is wrapped in a MonotonicClock unless it already is one; otherwise
// chunks sealed in the same millisecond would share a nonce.
func NewSealer(c *hexstream.Cipher, cfg Config) *Sealer {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if _, ok := c.Clock().(*hexstream.MonotonicClock); !ok {
		c = c.WithClock(hexstream.NewMonotonicClock(c.Clock()))
	}
	return &Sealer{cipher: c, cfg: cfg, chunker: NewChunker(cfg.ChunkSize)}
}

func (s *Sealer) Stats() *Stats { return &s.stats }

// Seal splits, compresses and seals data.
func (s *Sealer) Seal(ctx context.Context, data []byte) (*Bundle, error) {
	chunks := s.chunker.Split(data)
	sealed := make([]SealedChunk, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, c := range chunks {
		i, c := i, c // per-iteration copy (go 1.22 loopvar semantics)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			body, compressed := maybeCompress(c.Data, s.cfg.Compression)
			sealed[i] = SealedChunk{
				Index:      c.Index,
				Compressed: compressed,
				Hash:       c.Hash,
				Ciphertext: s.cipher.SealBytes(body),
			}
			s.stats.StoredBytes.Add(int64(len(body)))
			s.stats.Sealed.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.stats.PlainBytes.Add(int64(len(data)))

	hashes := make([][]byte, len(chunks))
	for i, c := range chunks {
		hashes[i] = c.Hash
	}
	return &Bundle{
		ID:     uuid.New(),
		Size:   int64(len(data)),
		Root:   rootOf(hashes),
		Chunks: sealed,
	}, nil
}

// Open decrypts a bundle and checks every chunk hash, the chunk order and the
// Merkle root.
func (s *Sealer) Open(ctx context.Context, b *Bundle) ([]byte, error) {
	plain := make([]Chunk, len(b.Chunks))
	for i, c := range b.Chunks {
		if c.Index != i {
			return nil, fmt.Errorf("%w: chunk %d in position %d", ErrIntegrityCheckFailed, c.Index, i)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, c := range b.Chunks {
		i, c := i, c // per-iteration copy (go 1.22 loopvar semantics)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			body, err := s.cipher.OpenBytes(c.Ciphertext)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", c.Index, err)
			}
			if c.Compressed {
				if body, err = Decompress(body); err != nil {
					return fmt.Errorf("%w: chunk %d: %v", ErrIntegrityCheckFailed, c.Index, err)
				}
			}
			hash := HashChunk(body)
			if !bytes.Equal(hash, c.Hash) {
				return fmt.Errorf("%w: chunk %d hash mismatch", ErrIntegrityCheckFailed, c.Index)
			}
			plain[i] = Chunk{Index: c.Index, Data: body, Hash: hash}
			s.stats.Opened.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hashes := make([][]byte, len(plain))
	for i, c := range plain {
		hashes[i] = c.Hash
	}
	if !bytes.Equal(rootOf(hashes), b.Root) {
		return nil, fmt.Errorf("%w: merkle root mismatch", ErrIntegrityCheckFailed)
	}
	out := Reassemble(plain)
	if int64(len(out)) != b.Size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrIntegrityCheckFailed, len(out), b.Size)
	}
	return out, nil
}
