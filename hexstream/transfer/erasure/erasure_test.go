package erasure

import (
	"bytes"
	"errors"
	"testing"
)

func TestRoundTripWithLoss(t *testing.T) {
	codec, err := New(10, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	payload := []byte("7b68e5cf8b010000 a1b2c3d4e5f60718293a4b5c6d7e8f90 0011")

	shards, err := codec.Encode(payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(shards) != 14 {
		t.Fatalf("expected 14 shards, got %d", len(shards))
	}
	for i, s := range shards {
		if len(s) != codec.ShardSize(len(payload)) {
			t.Fatalf("shard %d: size %d, want %d", i, len(s), codec.ShardSize(len(payload)))
		}
	}

	// Lose as many shards as there is parity.
	shards[0], shards[5], shards[10], shards[13] = nil, nil, nil, nil

	got, err := codec.Decode(shards)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("recovered payload does not match")
	}
}

func TestEmptyPayload(t *testing.T) {
	codec, _ := New(4, 2)
	shards, err := codec.Encode(nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := codec.Decode(shards)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty payload, got %d bytes", len(got))
	}
}

func TestTooManyLost(t *testing.T) {
	codec, _ := New(10, 4)
	shards, _ := codec.Encode(make([]byte, 1024))
	for i := 0; i < 5; i++ {
		shards[i] = nil
	}
	if _, err := codec.Decode(shards); !errors.Is(err, ErrTooManyLost) {
		t.Fatalf("expected ErrTooManyLost, got %v", err)
	}
}

func TestCorruptShard(t *testing.T) {
	codec, _ := New(4, 2)
	shards, _ := codec.Encode(bytes.Repeat([]byte("x"), 256))
	shards[1][3] ^= 0xff
	if _, err := codec.Decode(shards); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	for _, cfg := range [][2]int{{0, 2}, {4, 0}, {-1, 1}, {200, 100}} {
		if _, err := New(cfg[0], cfg[1]); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("New(%d, %d): expected ErrInvalidConfig, got %v", cfg[0], cfg[1], err)
		}
	}
	codec, _ := New(4, 2)
	if _, err := codec.Decode(make([][]byte, 5)); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for wrong shard count, got %v", err)
	}
}

func TestOverhead(t *testing.T) {
	codec, _ := New(10, 4)
	if got := codec.Overhead(); got != 1.4 {
		t.Fatalf("expected 1.4, got %f", got)
	}
}
