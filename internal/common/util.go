package common

import "crypto/rand"

// GenerateRandByteArray returns size bytes from the system CSPRNG.
// crypto/rand.Read never returns an error on supported platforms, so a
// failure here is treated as unrecoverable.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray overwrites b with zeros. Use it on passphrases and keys
// once they are no longer needed. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
