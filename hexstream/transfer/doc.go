// Package transfer seals large payloads into bundles of hexstream ciphertexts.
//
// A payload is split into chunks, each chunk is optionally lz4-compressed and
// sealed on its own, and a Merkle tree over the plaintext chunk hashes lets
// the receiver check the reassembled result. Bundles have a compact binary
// encoding and can be spread over Reed-Solomon shards for lossy links.
package transfer
