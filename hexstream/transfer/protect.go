package transfer

import (
	"github.com/TheusHen/hexstream/hexstream/transfer/erasure"
)

// Protect encodes a bundle into data+parity shards; any parity of them may
// be lost.
func Protect(b *Bundle, data, parity int) ([][]byte, error) {
	codec, err := erasure.New(data, parity)
	if err != nil {
		return nil, err
	}
	encoded, err := b.Encode()
	if err != nil {
		return nil, err
	}
	return codec.Encode(encoded)
}

// Recover rebuilds a bundle from shards, with lost shards set to nil.
func Recover(shards [][]byte, data, parity int) (*Bundle, error) {
	codec, err := erasure.New(data, parity)
	if err != nil {
		return nil, err
	}
	encoded, err := codec.Decode(shards)
	if err != nil {
		return nil, err
	}
	return DecodeBundle(encoded)
}
