package rijndael

import (
	"errors"
	"fmt"
)

var ErrKeySize = errors.New("rijndael: key must be 16, 24 or 32 bytes")

// Word is one 32-bit column of the key schedule.
type Word [4]byte

// Schedule is an expanded key: 4*(Nr+1) words, four per round key.
type Schedule []Word

// Rounds returns the number of rounds Nr for a key of nk words.
func Rounds(nk int) int { return nk + 6 }

// Rounds returns Nr for this schedule.
func (s Schedule) Rounds() int { return len(s)/4 - 1 }

// ExpandKey runs the Rijndael key expansion over a 16, 24 or 32 byte key.
func ExpandKey(key []byte) (Schedule, error) {
	nk := len(key) / 4
	if len(key)%4 != 0 || (nk != 4 && nk != 6 && nk != 8) {
		return nil, fmt.Errorf("%w: got %d", ErrKeySize, len(key))
	}
	total := 4 * (Rounds(nk) + 1)

	w := make(Schedule, total)
	for i := 0; i < nk; i++ {
		copy(w[i][:], key[4*i:4*i+4])
	}

	for i := nk; i < total; i++ {
		temp := w[i-1]
		if i%nk == 0 {
			temp = subWord(rotWord(temp))
			temp[0] ^= rcon[i/nk]
		} else if nk > 6 && i%nk == 4 {
			temp = subWord(temp)
		}
		for j := 0; j < 4; j++ {
			w[i][j] = w[i-nk][j] ^ temp[j]
		}
	}
	return w, nil
}

func rotWord(w Word) Word {
	return Word{w[1], w[2], w[3], w[0]}
}

func subWord(w Word) Word {
	return Word{sbox[w[0]], sbox[w[1]], sbox[w[2]], sbox[w[3]]}
}
