package rijndael

// BlockSize is the Rijndael block size used by AES, in bytes.
const BlockSize = 16

// state is the 4x4 cipher state stored column-major: byte i sits at
// row i%4, column i/4, which is exactly the input byte order.
type state [BlockSize]byte

// Encrypt runs the full forward cipher over one block using the schedule.
// The schedule must come from ExpandKey.
func (s Schedule) Encrypt(block [BlockSize]byte) [BlockSize]byte {
	nr := s.Rounds()
	st := state(block)

	st.addRoundKey(s, 0)
	for round := 1; round < nr; round++ {
		st.subBytes()
		st.shiftRows()
		st.mixColumns()
		st.addRoundKey(s, round)
	}

	// The final round has no MixColumns.
	st.subBytes()
	st.shiftRows()
	st.addRoundKey(s, nr)

	return [BlockSize]byte(st)
}

// EncryptBlock encrypts src into dst. Both must be at least BlockSize bytes.
func (s Schedule) EncryptBlock(dst, src []byte) {
	var in [BlockSize]byte
	copy(in[:], src[:BlockSize])
	out := s.Encrypt(in)
	copy(dst[:BlockSize], out[:])
}

func (st *state) addRoundKey(s Schedule, round int) {
	for c := 0; c < 4; c++ {
		w := s[round*4+c]
		for r := 0; r < 4; r++ {
			st[r+4*c] ^= w[r]
		}
	}
}

func (st *state) subBytes() {
	for i := range st {
		st[i] = sbox[st[i]]
	}
}

// shiftRows rotates row r left by r positions.
func (st *state) shiftRows() {
	old := *st
	for r := 1; r < 4; r++ {
		for c := 0; c < 4; c++ {
			st[r+4*c] = old[r+4*((c+r)%4)]
		}
	}
}

// mixColumns multiplies every column by the fixed MDS matrix
//
//	02 03 01 01
//	01 02 03 01
//	01 01 02 03
//	03 01 01 02
func (st *state) mixColumns() {
	for c := 0; c < 4; c++ {
		a0, a1, a2, a3 := st[4*c], st[4*c+1], st[4*c+2], st[4*c+3]
		d0, d1, d2, d3 := xtime(a0), xtime(a1), xtime(a2), xtime(a3)

		st[4*c] = d0 ^ (d1 ^ a1) ^ a2 ^ a3
		st[4*c+1] = a0 ^ d1 ^ (d2 ^ a2) ^ a3
		st[4*c+2] = a0 ^ a1 ^ d2 ^ (d3 ^ a3)
		st[4*c+3] = (d0 ^ a0) ^ a1 ^ a2 ^ d3
	}
}
