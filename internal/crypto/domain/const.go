package domain

// Algorithm represents the AEAD algorithm used for payload and key wrapping.
//
// Both supported algorithms provide Authenticated Encryption with Associated
// Data with 256-bit keys, 12-byte nonces, and 16-byte authentication tags.
// AESGCM is preferred on CPUs with AES-NI; ChaCha20 is preferred on platforms
// without hardware AES acceleration.
type Algorithm string

const (
	// AESGCM is AES-256 in Galois/Counter Mode.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// Valid reports whether the algorithm is one of the supported AEAD ciphers.
func (a Algorithm) Valid() bool {
	return a == AESGCM || a == ChaCha20
}
