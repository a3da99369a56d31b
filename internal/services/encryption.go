// Package services contains the journal's application services. They layer
// encryption, media housekeeping and change notification over the raw
// repositories.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/cryptox"
	"github.com/dmitrijs2005/gophjournal/internal/dbx"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"github.com/dmitrijs2005/gophjournal/internal/repositories/metadata"
)

// Sentinel is the known plaintext sealed with the derived key when
// encryption is enabled. Decrypting it back proves a passphrase.
const Sentinel = "journal-encryption-sentinel-v1"

const (
	keyEnabled  = "encryption_enabled"
	keySalt     = "encryption_salt"
	keySentinel = "encryption_sentinel"
	keyHint     = "encryption_hint"
)

// EncryptionStatus describes the persisted encryption state. Hint is
// readable while the session is locked.
type EncryptionStatus struct {
	Enabled bool
	Hint    string
}

// EncryptionService manages the passphrase lifecycle.
//
// Contract:
//   - Enable: derive a key from a new passphrase, persist salt, sentinel and
//     hint in one transaction and unlock the session. Existing rows are not
//     rewritten.
//   - Disable: forget all persisted state and lock the session. Rows already
//     sealed stay sealed and become unreadable.
//   - VerifyPassphrase: return the derived key, or nil on any failure.
//   - Unlock / Lock: install or wipe the session key.
type EncryptionService interface {
	Status(ctx context.Context) (EncryptionStatus, error)
	Enable(ctx context.Context, passphrase []byte, hint string) error
	Disable(ctx context.Context) error
	VerifyPassphrase(ctx context.Context, passphrase []byte) []byte
	Unlock(ctx context.Context, passphrase []byte) error
	Lock()
	Unlocked() bool
}

type encryptionService struct {
	db      *sql.DB
	session *cryptox.Session
	log     logging.Logger
}

// NewEncryptionService binds the service to the database holding the
// metadata table and to the process session.
func NewEncryptionService(db *sql.DB, session *cryptox.Session, log logging.Logger) EncryptionService {
	return &encryptionService{db: db, session: session, log: log}
}

func (s *encryptionService) getMetadataRepo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (s *encryptionService) Status(ctx context.Context) (EncryptionStatus, error) {
	repo := s.getMetadataRepo(s.db)

	enabled, err := repo.Get(ctx, keyEnabled)
	if err != nil {
		return EncryptionStatus{}, err
	}
	hint, err := repo.Get(ctx, keyHint)
	if err != nil {
		return EncryptionStatus{}, err
	}

	return EncryptionStatus{Enabled: string(enabled) == "1", Hint: string(hint)}, nil
}

func (s *encryptionService) Enable(ctx context.Context, passphrase []byte, hint string) error {
	st, err := s.Status(ctx)
	if err != nil {
		return err
	}
	if st.Enabled {
		return common.ErrEncryptionAlreadyEnabled
	}

	salt := cryptox.GenerateSalt()
	key := cryptox.DeriveKey(passphrase, salt)
	defer common.WipeByteArray(key)

	sentinel, err := cryptox.EncryptText(Sentinel, key)
	if err != nil {
		return fmt.Errorf("seal sentinel: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.getMetadataRepo(tx)
		if err := repo.Set(ctx, keySalt, salt); err != nil {
			return err
		}
		if err := repo.Set(ctx, keySentinel, []byte(sentinel)); err != nil {
			return err
		}
		if hint != "" {
			if err := repo.Set(ctx, keyHint, []byte(hint)); err != nil {
				return err
			}
		} else if err := repo.Delete(ctx, keyHint); err != nil {
			return err
		}
		return repo.Set(ctx, keyEnabled, []byte("1"))
	})
	if err != nil {
		return fmt.Errorf("persist encryption state: %w", err)
	}

	s.session.Unlock(key)
	s.log.Info(ctx, "encryption enabled")
	return nil
}

func (s *encryptionService) Disable(ctx context.Context) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.getMetadataRepo(tx).Delete(ctx, keyEnabled, keySalt, keySentinel, keyHint)
	})
	if err != nil {
		return fmt.Errorf("clear encryption state: %w", err)
	}

	s.session.Lock()
	s.log.Info(ctx, "encryption disabled")
	return nil
}

// VerifyPassphrase never says why it failed.
func (s *encryptionService) VerifyPassphrase(ctx context.Context, passphrase []byte) []byte {
	repo := s.getMetadataRepo(s.db)

	salt, err := repo.Get(ctx, keySalt)
	if err != nil || len(salt) == 0 {
		return nil
	}
	sealed, err := repo.Get(ctx, keySentinel)
	if err != nil || len(sealed) == 0 {
		return nil
	}

	key := cryptox.DeriveKey(passphrase, salt)

	f, ok := cryptox.ParseField(string(sealed)).(cryptox.EncryptedField)
	if !ok {
		common.WipeByteArray(key)
		return nil
	}
	plain, err := f.Open(key)
	if err != nil || subtle.ConstantTimeCompare([]byte(plain), []byte(Sentinel)) != 1 {
		common.WipeByteArray(key)
		return nil
	}
	return key
}

func (s *encryptionService) Unlock(ctx context.Context, passphrase []byte) error {
	st, err := s.Status(ctx)
	if err != nil {
		return err
	}
	if !st.Enabled {
		return common.ErrEncryptionNotEnabled
	}

	key := s.VerifyPassphrase(ctx, passphrase)
	if key == nil {
		s.log.Warn(ctx, "unlock rejected")
		return common.ErrIncorrectPassphrase
	}
	defer common.WipeByteArray(key)

	s.session.Unlock(key)
	return nil
}

func (s *encryptionService) Lock() {
	s.session.Lock()
}

func (s *encryptionService) Unlocked() bool {
	return s.session.Unlocked()
}
