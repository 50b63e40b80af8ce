package transfer

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
)

var (
	ErrCompressionFailed   = errors.New("transfer: compression failed")
	ErrDecompressionFailed = errors.New("transfer: decompression failed")
)

// CompressionLevel controls the speed/ratio tradeoff.
type CompressionLevel int

const (
	CompressionNone    CompressionLevel = iota // store chunks as-is
	CompressionFast                            // fastest, lower ratio
	CompressionDefault                         // balanced
	CompressionBest                            // best ratio, slower
)

func (l CompressionLevel) String() string {
	switch l {
	case CompressionNone:
		return "none"
	case CompressionFast:
		return "fast"
	case CompressionDefault:
		return "default"
	case CompressionBest:
		return "best"
	default:
		return "unknown"
	}
}

// ParseCompressionLevel maps a config name to a level.
func ParseCompressionLevel(s string) (CompressionLevel, error) {
	for l := CompressionNone; l <= CompressionBest; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, errors.New("transfer: unknown compression level " + s)
}

var compressorPool = sync.Pool{
	New: func() any { return lz4.NewWriter(nil) },
}

var decompressorPool = sync.Pool{
	New: func() any { return lz4.NewReader(nil) },
}

// Compress lz4-frames data at the given level.
func Compress(data []byte, level CompressionLevel) ([]byte, error) {
	var buf bytes.Buffer
	w := compressorPool.Get().(*lz4.Writer)
	defer compressorPool.Put(w)
	w.Reset(&buf)

	var opt lz4.Option
	switch level {
	case CompressionFast:
		opt = lz4.CompressionLevelOption(lz4.Fast)
	case CompressionBest:
		opt = lz4.CompressionLevelOption(lz4.Level9)
	default:
		opt = lz4.CompressionLevelOption(lz4.Level4)
	}
	if err := w.Apply(opt); err != nil {
		return nil, ErrCompressionFailed
	}
	if _, err := w.Write(data); err != nil {
		return nil, ErrCompressionFailed
	}
	if err := w.Close(); err != nil {
		return nil, ErrCompressionFailed
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	r := decompressorPool.Get().(*lz4.Reader)
	defer decompressorPool.Put(r)
	r.Reset(bytes.NewReader(data))

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, ErrDecompressionFailed
	}
	return buf.Bytes(), nil
}

// maybeCompress returns the compressed form only when it is smaller.
func maybeCompress(data []byte, level CompressionLevel) ([]byte, bool) {
	if level == CompressionNone || len(data) == 0 {
		return data, false
	}
	packed, err := Compress(data, level)
	if err != nil || len(packed) >= len(data) {
		return data, false
	}
	return packed, true
}
