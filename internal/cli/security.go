package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophjournal/internal/common"
)

const minPassphraseLen = 8

// getPassphrase is a test seam over GetPassphrase.
var getPassphrase = GetPassphrase

// Encrypt turns on encryption for entries written from now on.
func (a *App) Encrypt(ctx context.Context, _ []string) error {
	st, err := a.encryption.Status(ctx)
	if err != nil {
		return err
	}
	if st.Enabled {
		return common.ErrEncryptionAlreadyEnabled
	}

	pass, err := getPassphrase("New passphrase", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)
	if len(pass) < minPassphraseLen {
		return fmt.Errorf("passphrase must be at least %d characters", minPassphraseLen)
	}

	again, err := getPassphrase("Repeat passphrase", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(again)
	if !bytes.Equal(pass, again) {
		return errors.New("passphrases do not match")
	}

	hint, err := GetSimpleText(a.reader, "Hint (optional, stored in plain text)", a.out)
	if err != nil {
		return err
	}

	if err := a.encryption.Enable(ctx, pass, hint); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Encryption enabled. Existing entries stay readable; new text and tags are encrypted.")
	fmt.Fprintln(a.out, "There is no recovery if you forget the passphrase.")
	return nil
}

// DisableEncryption forgets the passphrase. Entries sealed with it stay
// sealed.
func (a *App) DisableEncryption(ctx context.Context, _ []string) error {
	st, err := a.encryption.Status(ctx)
	if err != nil {
		return err
	}
	if !st.Enabled {
		return common.ErrEncryptionNotEnabled
	}
	if !a.encryption.Unlocked() {
		if err := a.unlock(ctx); err != nil {
			return err
		}
	}
	fmt.Fprintln(a.out, "Entries written while encryption was on will become unreadable.")
	if !Confirm(a.reader, "Disable encryption?", a.out) {
		return nil
	}
	if err := a.encryption.Disable(ctx); err != nil {
		return err
	}
	a.search.Invalidate()
	fmt.Fprintln(a.out, "Encryption disabled.")
	return nil
}

// Lock wipes the key and drops decrypted search data.
func (a *App) Lock(ctx context.Context, _ []string) error {
	st, err := a.encryption.Status(ctx)
	if err != nil {
		return err
	}
	if !st.Enabled {
		return common.ErrEncryptionNotEnabled
	}
	a.encryption.Lock()
	a.search.Invalidate()
	fmt.Fprintln(a.out, "Journal locked.")
	return nil
}

func (a *App) Unlock(ctx context.Context, _ []string) error {
	if a.encryption.Unlocked() {
		fmt.Fprintln(a.out, "Journal is already unlocked.")
		return nil
	}
	if err := a.unlock(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Journal unlocked.")
	return nil
}

func (a *App) unlock(ctx context.Context) error {
	pass, err := getPassphrase("Passphrase", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	if err := a.encryption.Unlock(ctx, pass); err != nil {
		return err
	}
	a.search.Invalidate()
	return nil
}
