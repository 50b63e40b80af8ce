package transfer

import (
	"io"
	"sort"
)

// DefaultChunkSize is 64 KiB: one sealed chunk stays well under a wire frame.
const DefaultChunkSize = 64 * 1024

// Chunker splits data into fixed-size chunks.
type Chunker struct {
	chunkSize int
}

func NewChunker(chunkSize int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Chunker{chunkSize: chunkSize}
}

func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Chunk is a slice of the payload with its SHA-256 hash.
type Chunk struct {
	Index int
	Data  []byte
	Hash  []byte
}

// Split cuts data into chunks. The chunks alias data.
func (c *Chunker) Split(data []byte) []Chunk {
	chunks := make([]Chunk, 0, (len(data)+c.chunkSize-1)/c.chunkSize)
	for i := 0; i < len(data); i += c.chunkSize {
		end := min(i+c.chunkSize, len(data))
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Data:  data[i:end],
			Hash:  HashChunk(data[i:end]),
		})
	}
	return chunks
}

// SplitReader reads r to the end and chunks it.
func (c *Chunker) SplitReader(r io.Reader) ([]Chunk, error) {
	var chunks []Chunk
	for {
		buf := make([]byte, c.chunkSize)
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			chunks = append(chunks, Chunk{
				Index: len(chunks),
				Data:  buf[:n],
				Hash:  HashChunk(buf[:n]),
			})
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return chunks, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// Reassemble concatenates chunks in index order.
func Reassemble(chunks []Chunk) []byte {
	sorted := make([]Chunk, len(chunks))
	copy(sorted, chunks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	size := 0
	for _, c := range sorted {
		size += len(c.Data)
	}
	out := make([]byte, 0, size)
	for _, c := range sorted {
		out = append(out, c.Data...)
	}
	return out
}
