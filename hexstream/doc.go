// Package hexstream encrypts and decrypts text with a counter-style stream
// construction over the Rijndael block cipher and renders the result as
// space-separated hex tokens.
//
// Wire format:
//
//	<16 hex nonce> <hex chunk 0> <hex chunk 1> ... <hex chunk n>
//
// The nonce is the encryption time in milliseconds; each chunk token covers up
// to 16 plaintext bytes (32 hex characters).
//
// The working key is not the caller's key material: it is derived by running
// the cipher over the raw key under its own schedule (see SelfKeyed). This
// derivation and the counter layout are kept bit-compatible with existing
// ciphertexts and are not a recommendation for new designs.
//
// Two APIs are provided:
//   - Encrypt and Decrypt keep the legacy contract and return "" on failure
//   - New, Seal and Open report ErrInvalidKeyLength and ErrMalformedCiphertext
package hexstream
