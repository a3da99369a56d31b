package cryptox

import (
	"sync"

	"github.com/dmitrijs2005/gophjournal/internal/common"
)

// Session owns the unlocked key for the lifetime of a process. It is the only
// holder of the key: callers seal and open values through it and never read
// the key back. The zero value is a locked session.
type Session struct {
	mu  sync.RWMutex
	key []byte
}

// NewSession returns a locked session.
func NewSession() *Session {
	return &Session{}
}

// Unlock installs a copy of key, replacing (and wiping) any previous key.
func (s *Session) Unlock(key []byte) {
	k := make([]byte, len(key))
	copy(k, key)

	s.mu.Lock()
	defer s.mu.Unlock()
	common.WipeByteArray(s.key)
	s.key = k
}

// Lock wipes and forgets the key.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	common.WipeByteArray(s.key)
	s.key = nil
}

// Unlocked reports whether a key is present.
func (s *Session) Unlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key != nil
}

// Seal encrypts value when the session is unlocked and the value is not
// already an envelope. A locked session passes the value through.
func (s *Session) Seal(value string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return value, nil
	}
	if _, ok := ParseField(value).(EncryptedField); ok {
		return value, nil
	}
	return EncryptText(value, s.key)
}

// Open decrypts an envelope when unlocked. Plain values and locked sessions
// pass through unchanged. On failure the original value is returned together
// with the error so callers can keep showing ciphertext.
func (s *Session) Open(value string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return value, nil
	}

	f, ok := ParseField(value).(EncryptedField)
	if !ok {
		return value, nil
	}
	plain, err := f.Open(s.key)
	if err != nil {
		return value, err
	}
	return plain, nil
}
