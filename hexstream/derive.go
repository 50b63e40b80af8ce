package hexstream

import (
	"github.com/TheusHen/hexstream/hexstream/rijndael"
)

// Deriver turns raw key material of 16, 24 or 32 bytes into the working
// cipher key. The returned key must have the same length as raw.
type Deriver func(raw []byte) ([]byte, error)

// SelfKeyed derives the working key by encrypting the first 16 bytes of raw
// under raw's own key schedule. For 24 and 32 byte keys the 16-byte result is
// extended by repeating its leading bytes.
func SelfKeyed(raw []byte) ([]byte, error) {
	schedule, err := rijndael.ExpandKey(raw)
	if err != nil {
		return nil, err
	}
	var in [rijndael.BlockSize]byte
	copy(in[:], raw)
	derived := schedule.Encrypt(in)

	key := make([]byte, len(raw))
	n := copy(key, derived[:])
	copy(key[n:], derived[:len(raw)-n])
	return key, nil
}

// rawKey takes the first n bytes of the key string, zero-padding short keys.
func rawKey(key string, n int) []byte {
	raw := make([]byte, n)
	copy(raw, key)
	return raw
}
