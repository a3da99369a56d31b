package cryptox

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := []byte("fixed-salt-16byt")

	key1 := DeriveKey([]byte("correct-horse"), salt)
	key2 := DeriveKey([]byte("correct-horse"), salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}
	require.Len(t, key1, KeySize)
}

func TestDeriveKey_DifferentInputs(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveKey(password, []byte("salt-1"))
	key2 := DeriveKey(password, []byte("salt-2"))
	key3 := DeriveKey([]byte("other-password"), []byte("salt-1"))

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
	if bytes.Equal(key1, key3) {
		t.Errorf("expected different results for different passphrases, got same")
	}
}

func TestGenerateSalt_Length(t *testing.T) {
	s1 := GenerateSalt()
	s2 := GenerateSalt()
	require.Len(t, s1, SaltSize)
	require.NotEqual(t, s1, s2)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := DeriveKey([]byte("k"), GenerateSalt())

	for _, plain := range []string{"", "secret", "многобайтовый текст ✓", strings.Repeat("x", 10_000), "enc:looks:like"} {
		enc, err := EncryptText(plain, key)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(enc, "enc:"))

		got, err := DecryptText(enc, key)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}
}

func TestEncryptText_NonDeterministic(t *testing.T) {
	key := DeriveKey([]byte("k"), GenerateSalt())

	a, err := EncryptText("same input", key)
	require.NoError(t, err)
	b, err := EncryptText("same input", key)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecryptText_WrongKeyFails(t *testing.T) {
	salt := GenerateSalt()
	keyA := DeriveKey([]byte("passphrase-a"), salt)
	keyB := DeriveKey([]byte("passphrase-b"), salt)

	enc, err := EncryptText("secret", keyA)
	require.NoError(t, err)

	got, err := DecryptText(enc, keyB)
	require.ErrorIs(t, err, common.ErrDecryption)
	assert.Empty(t, got)
}

func TestDecryptText_PassThrough(t *testing.T) {
	key := DeriveKey([]byte("k"), GenerateSalt())

	for _, s := range []string{"hello", "", "enc:", "enc:only-one-part", "enc:a:b:c", "enc:!!!:???"} {
		got, err := DecryptText(s, key)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestDecryptText_TamperedCiphertext(t *testing.T) {
	key := DeriveKey([]byte("k"), GenerateSalt())
	enc, err := EncryptText("secret", key)
	require.NoError(t, err)

	f := ParseField(enc).(EncryptedField)
	f.Ciphertext[0] ^= 0xff

	_, err = DecryptText(f.String(), key)
	require.ErrorIs(t, err, common.ErrDecryption)
}

func TestParseField(t *testing.T) {
	key := DeriveKey([]byte("k"), GenerateSalt())
	enc, err := EncryptText("x", key)
	require.NoError(t, err)

	tests := []struct {
		name      string
		in        string
		encrypted bool
	}{
		{"plain", "just text", false},
		{"prefix only", "enc:", false},
		{"one segment", "enc:QUJD", false},
		{"three segments", "enc:QUJD:QUJD:QUJD", false},
		{"not base64", "enc:###:QUJD", false},
		{"envelope", enc, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.encrypted, IsEncrypted(tt.in))
			if !tt.encrypted {
				assert.Equal(t, PlainField(tt.in), ParseField(tt.in))
			}
		})
	}
}
