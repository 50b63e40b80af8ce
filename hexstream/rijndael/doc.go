// Package rijndael implements the forward direction of the Rijndael block cipher
// with a 128-bit block, as standardized by AES (FIPS-197).
//
// The package is deliberately small:
//   - Static S-box and round-constant tables (no runtime initialization)
//   - One generalized key expansion for 4, 6 and 8-word keys
//   - A single-block encryption over a flat 16-byte column-major state
//
// Only encryption is provided. The hexstream construction runs the cipher in a
// counter style, so the inverse transform is never needed.
package rijndael
