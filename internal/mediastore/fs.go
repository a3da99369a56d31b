package mediastore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const probeFile = ".probe"

// fsBackend stores blobs as files under MediaDir of an afero filesystem.
type fsBackend struct {
	fs     afero.Fs
	scheme string
	root   string
}

func (b *fsBackend) file(name string) string {
	return filepath.Join(MediaDir, name)
}

func (b *fsBackend) put(_ context.Context, name string, r io.Reader) (int64, error) {
	f, err := b.fs.OpenFile(b.file(name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = b.fs.Remove(b.file(name))
		return 0, err
	}
	return n, nil
}

func (b *fsBackend) open(_ context.Context, name string) (*Handle, error) {
	f, err := b.fs.Open(b.file(name))
	if err != nil {
		return nil, err
	}
	return &Handle{
		URL:    b.scheme + "://" + filepath.ToSlash(filepath.Join(b.root, MediaDir, name)),
		Reader: f,
	}, nil
}

func (b *fsBackend) remove(_ context.Context, name string) error {
	err := b.fs.Remove(b.file(name))
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// probe checks that MediaDir can be created and written.
func (b *fsBackend) probe() error {
	if err := b.fs.MkdirAll(MediaDir, 0o700); err != nil {
		return err
	}
	p := b.file(probeFile)
	if err := afero.WriteFile(b.fs, p, []byte("ok"), 0o600); err != nil {
		return err
	}
	return b.fs.Remove(p)
}

func newMemoryBackend() *fsBackend {
	b := &fsBackend{fs: afero.NewMemMapFs(), scheme: "mem", root: "/"}
	_ = b.fs.MkdirAll(MediaDir, 0o700)
	return b
}
