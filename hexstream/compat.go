package hexstream

// Encrypt seals plaintext under key using the wall clock for the nonce.
// It returns "" when bits is not 128, 192 or 256.
func Encrypt(plaintext, key string, bits int) string {
	c, err := New(key, Config{Bits: bits})
	if err != nil {
		return ""
	}
	return c.Seal(plaintext)
}

// Decrypt opens a ciphertext produced by Encrypt.
// It returns "" when bits is invalid or the ciphertext is malformed; use
// New and Open to tell those cases apart.
func Decrypt(ciphertext, key string, bits int) string {
	c, err := New(key, Config{Bits: bits})
	if err != nil {
		return ""
	}
	pt, err := c.Open(ciphertext)
	if err != nil {
		return ""
	}
	return pt
}
