package cryptox

import (
	"encoding/base64"
	"strings"
)

const encPrefix = "enc:"

// Field is a stored string value that is either plaintext or an AEAD
// envelope. Use a type switch on the result of ParseField instead of probing
// prefixes by hand.
type Field interface {
	isField()
}

// PlainField is a value stored without encryption.
type PlainField string

// EncryptedField is an AES-GCM envelope. Its String form is
// "enc:" + base64(IV) + ":" + base64(Ciphertext).
type EncryptedField struct {
	IV         []byte
	Ciphertext []byte
}

func (PlainField) isField()     {}
func (EncryptedField) isField() {}

func (f EncryptedField) String() string {
	return encPrefix + base64.StdEncoding.EncodeToString(f.IV) + ":" + base64.StdEncoding.EncodeToString(f.Ciphertext)
}

// ParseField classifies s. Only strings with the exact envelope shape (prefix,
// two non-empty base64 segments, no extra separators) become EncryptedField;
// anything else is PlainField.
func ParseField(s string) Field {
	rest, ok := strings.CutPrefix(s, encPrefix)
	if !ok {
		return PlainField(s)
	}

	parts := strings.Split(rest, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return PlainField(s)
	}

	iv, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return PlainField(s)
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return PlainField(s)
	}

	return EncryptedField{IV: iv, Ciphertext: ct}
}

// IsEncrypted reports whether s has the encrypted envelope shape.
func IsEncrypted(s string) bool {
	_, ok := ParseField(s).(EncryptedField)
	return ok
}
