package rijndael

import (
	"bytes"
	"crypto/aes"
	"encoding/hex"
	"errors"
	"math/rand"
	"testing"
)

func mustHex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("DecodeString(%q): %v", s, err)
	}
	return b
}

func TestEncryptZeroVector(t *testing.T) {
	s, err := ExpandKey(make([]byte, 16))
	if err != nil {
		t.Fatalf("ExpandKey: %v", err)
	}
	out := s.Encrypt([BlockSize]byte{})
	if got := hex.EncodeToString(out[:]); got != "66e94bd4ef8a2c3b884cfa59ca342b2e" {
		t.Fatalf("zero key/zero block: got %s", got)
	}
}

// FIPS-197 Appendix C example vectors.
func TestEncryptFIPS197(t *testing.T) {
	plaintext := "00112233445566778899aabbccddeeff"
	cases := []struct {
		name   string
		key    string
		want   string
		rounds int
	}{
		{"AES-128", "000102030405060708090a0b0c0d0e0f", "69c4e0d86a7b0430d8cdb78070b4c55a", 10},
		{"AES-192", "000102030405060708090a0b0c0d0e0f1011121314151617", "dda97ca4864cdfe06eaf70a0ec0d7191", 12},
		{"AES-256", "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f", "8ea2b7ca516745bfeafc49904b496089", 14},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := ExpandKey(mustHex(t, tc.key))
			if err != nil {
				t.Fatalf("ExpandKey: %v", err)
			}
			if s.Rounds() != tc.rounds {
				t.Fatalf("Rounds: got %d, want %d", s.Rounds(), tc.rounds)
			}
			out := make([]byte, BlockSize)
			s.EncryptBlock(out, mustHex(t, plaintext))
			if got := hex.EncodeToString(out); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

// FIPS-197 Appendix A.1 expansion of a 128-bit key.
func TestExpandKeyAppendixA(t *testing.T) {
	s, err := ExpandKey(mustHex(t, "2b7e151628aed2a6abf7158809cf4f3c"))
	if err != nil {
		t.Fatalf("ExpandKey: %v", err)
	}
	if len(s) != 44 {
		t.Fatalf("schedule length: got %d, want 44", len(s))
	}
	checks := map[int]string{
		4:  "a0fafe17",
		5:  "88542cb1",
		10: "5935807a",
		43: "b6630ca6",
	}
	for i, want := range checks {
		if got := hex.EncodeToString(s[i][:]); got != want {
			t.Fatalf("w[%d]: got %s, want %s", i, got, want)
		}
	}
}

func TestExpandKeyLengths(t *testing.T) {
	for _, n := range []int{16, 24, 32} {
		s, err := ExpandKey(make([]byte, n))
		if err != nil {
			t.Fatalf("ExpandKey(%d): %v", n, err)
		}
		if want := 4 * (Rounds(n/4) + 1); len(s) != want {
			t.Fatalf("ExpandKey(%d): %d words, want %d", n, len(s), want)
		}
	}
	for _, n := range []int{0, 8, 15, 17, 20, 28, 33, 64} {
		if _, err := ExpandKey(make([]byte, n)); !errors.Is(err, ErrKeySize) {
			t.Fatalf("ExpandKey(%d): expected ErrKeySize, got %v", n, err)
		}
	}
}

func TestEncryptMatchesStdlib(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{16, 24, 32} {
		for i := 0; i < 64; i++ {
			key := make([]byte, n)
			rng.Read(key)
			src := make([]byte, BlockSize)
			rng.Read(src)

			ref, err := aes.NewCipher(key)
			if err != nil {
				t.Fatalf("aes.NewCipher: %v", err)
			}
			want := make([]byte, BlockSize)
			ref.Encrypt(want, src)

			s, err := ExpandKey(key)
			if err != nil {
				t.Fatalf("ExpandKey: %v", err)
			}
			got := make([]byte, BlockSize)
			s.EncryptBlock(got, src)

			if !bytes.Equal(got, want) {
				t.Fatalf("key %x block %x: got %x, want %x", key, src, got, want)
			}
		}
	}
}

func TestXtime(t *testing.T) {
	// FIPS-197 section 4.2.1: {57} * {02} = {ae}, {ae} * {02} = {47}.
	if got := xtime(0x57); got != 0xae {
		t.Fatalf("xtime(57): got %02x", got)
	}
	if got := xtime(0xae); got != 0x47 {
		t.Fatalf("xtime(ae): got %02x", got)
	}
}

func BenchmarkEncrypt(b *testing.B) {
	s, _ := ExpandKey(make([]byte, 32))
	var block [BlockSize]byte
	b.SetBytes(BlockSize)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		block = s.Encrypt(block)
	}
}
