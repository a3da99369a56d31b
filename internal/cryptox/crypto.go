// Package cryptox holds the journal's cryptographic primitives: passphrase
// based key derivation, AES-256-GCM field encryption, the tagged Field codec
// and the Session that owns the unlocked key.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltSize is the length of the persisted key-derivation salt.
	SaltSize = 16
	// KeySize yields AES-256.
	KeySize = 32
	// NonceSize is the GCM standard nonce length.
	NonceSize = 12
	// Iterations is the PBKDF2 work factor.
	Iterations = 100_000
)

// GenerateSalt returns SaltSize random bytes.
func GenerateSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// DeriveKey stretches passphrase with PBKDF2-HMAC-SHA256. The result is
// deterministic for identical inputs and sized for AES-256-GCM.
func DeriveKey(passphrase, salt []byte) []byte {
	return pbkdf2.Key(passphrase, salt, Iterations, KeySize, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptText seals plaintext under key with a fresh random nonce and returns
// it in the "enc:<iv>:<ciphertext>" form. Two calls with the same input never
// produce the same output.
func EncryptText(plaintext string, key []byte) (string, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return "", fmt.Errorf("cipher init: %w", err)
	}

	nonce := common.GenerateRandByteArray(NonceSize)
	ciphertext := aesgcm.Seal(nil, nonce, []byte(plaintext), nil)

	return EncryptedField{IV: nonce, Ciphertext: ciphertext}.String(), nil
}

// DecryptText reverses EncryptText. Values that are not in encrypted form are
// returned unchanged. Authentication failures (wrong key, tampered data) are
// reported as common.ErrDecryption and never yield partial plaintext.
func DecryptText(encoded string, key []byte) (string, error) {
	switch f := ParseField(encoded).(type) {
	case PlainField:
		return string(f), nil
	case EncryptedField:
		return f.Open(key)
	default:
		return encoded, nil
	}
}

// Open authenticates and decrypts the field with key.
func (f EncryptedField) Open(key []byte) (string, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	if len(f.IV) != aesgcm.NonceSize() {
		return "", fmt.Errorf("%w: bad nonce length", common.ErrDecryption)
	}

	plaintext, err := aesgcm.Open(nil, f.IV, f.Ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return string(plaintext), nil
}
