// Package common defines shared sentinel errors and small helpers used across
// the journal layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Encryption errors. ErrIncorrectPassphrase deliberately carries no detail
	// about why verification failed.
	ErrDecryption               = errors.New("decryption failed")
	ErrIncorrectPassphrase      = errors.New("incorrect passphrase")
	ErrEncryptionNotEnabled     = errors.New("encryption is not enabled")
	ErrEncryptionAlreadyEnabled = errors.New("encryption is already enabled")
	ErrSessionLocked            = errors.New("session is locked")

	// Media errors.
	ErrInvalidMediaPath = errors.New("invalid media path")
	ErrMediaUnsupported = errors.New("media storage is not supported")

	// Import errors.
	ErrInvalidImport     = errors.New("invalid import file")
	ErrUnsupportedFormat = errors.New("unsupported import format")

	// Validation errors.
	ErrInvalidTag = errors.New("invalid tag")
)
