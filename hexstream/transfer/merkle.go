package transfer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	ErrMerkleEmpty      = errors.New("merkle: no chunks provided")
	ErrMerkleProofFail  = errors.New("merkle: proof verification failed")
	ErrMerkleIndexRange = errors.New("merkle: chunk index out of range")
)

// MerkleTree commits to an ordered list of chunk hashes.
type MerkleTree struct {
	leaves int
	nodes  [][]byte // complete binary tree, root at 0, leaves at [n-1, 2n-2]
}

// BuildMerkleTree builds a tree over chunk hashes, padding the leaf level to
// a power of two with the hash of the empty string.
func BuildMerkleTree(chunkHashes [][]byte) (*MerkleTree, error) {
	if len(chunkHashes) == 0 {
		return nil, ErrMerkleEmpty
	}
	n := 1
	for n < len(chunkHashes) {
		n *= 2
	}
	empty := sha256.Sum256(nil)

	nodes := make([][]byte, 2*n-1)
	for i := 0; i < n; i++ {
		if i < len(chunkHashes) {
			nodes[n-1+i] = chunkHashes[i]
		} else {
			nodes[n-1+i] = empty[:]
		}
	}
	for i := n - 2; i >= 0; i-- {
		nodes[i] = hashPair(nodes[2*i+1], nodes[2*i+2])
	}
	return &MerkleTree{leaves: n, nodes: nodes}, nil
}

func (m *MerkleTree) Root() []byte { return m.nodes[0] }

func (m *MerkleTree) RootHex() string { return hex.EncodeToString(m.nodes[0]) }

// Proof carries the sibling hashes from a leaf up to the root.
type Proof struct {
	ChunkIndex int
	ChunkHash  []byte
	Siblings   [][]byte
	IsLeft     []bool // sibling sits on the left
}

func (m *MerkleTree) GenerateProof(chunkIndex int) (Proof, error) {
	if chunkIndex < 0 || chunkIndex >= m.leaves {
		return Proof{}, ErrMerkleIndexRange
	}
	p := Proof{
		ChunkIndex: chunkIndex,
		ChunkHash:  append([]byte(nil), m.nodes[m.leaves-1+chunkIndex]...),
	}
	for idx := m.leaves - 1 + chunkIndex; idx > 0; idx = (idx - 1) / 2 {
		sibling := idx + 1
		if idx%2 == 0 {
			sibling = idx - 1
		}
		p.Siblings = append(p.Siblings, m.nodes[sibling])
		p.IsLeft = append(p.IsLeft, idx%2 == 0)
	}
	return p, nil
}

func VerifyProof(proof Proof, expectedRoot []byte) error {
	current := proof.ChunkHash
	for i, sibling := range proof.Siblings {
		if proof.IsLeft[i] {
			current = hashPair(sibling, current)
		} else {
			current = hashPair(current, sibling)
		}
	}
	if !bytes.Equal(current, expectedRoot) {
		return ErrMerkleProofFail
	}
	return nil
}

// HashChunk returns the SHA-256 of a chunk.
func HashChunk(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

func hashPair(left, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// rootOf returns the Merkle root over hashes, or the hash of the empty string
// when there are none.
func rootOf(hashes [][]byte) []byte {
	if len(hashes) == 0 {
		return HashChunk(nil)
	}
	tree, _ := BuildMerkleTree(hashes)
	return tree.Root()
}
