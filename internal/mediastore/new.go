package mediastore

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"github.com/spf13/afero"
)

// Options selects and configures the backend.
type Options struct {
	Backend string // local, memory or s3
	Root    string // data directory for the local backend
	S3      S3Options
}

// New builds a Store for o. A local tier that fails its write probe is
// replaced by an in-memory one and the store reports IsSupported false.
func New(ctx context.Context, o Options, log logging.Logger) (*Store, error) {
	switch o.Backend {
	case BackendLocal, "":
		root, err := filepath.Abs(o.Root)
		if err != nil {
			return nil, err
		}
		b := &fsBackend{fs: afero.NewBasePathFs(afero.NewOsFs(), root), scheme: "file", root: root}
		if err := b.probe(); err != nil {
			log.Warn(ctx, "media directory unavailable, keeping media in memory", "root", root, "error", err)
			return &Store{backend: newMemoryBackend(), supported: false, log: log}, nil
		}
		return &Store{backend: b, supported: true, log: log}, nil

	case BackendMemory:
		return &Store{backend: newMemoryBackend(), supported: false, log: log}, nil

	case BackendS3:
		b, err := newS3Backend(ctx, o.S3)
		if err != nil {
			return nil, fmt.Errorf("s3 media backend: %w", err)
		}
		return &Store{backend: b, supported: true, log: log}, nil

	default:
		return nil, fmt.Errorf("unknown media backend %q", o.Backend)
	}
}

// NewFsStore builds a Store over an arbitrary afero filesystem.
func NewFsStore(fs afero.Fs, log logging.Logger) (*Store, error) {
	b := &fsBackend{fs: fs, scheme: "file", root: "/"}
	if err := b.probe(); err != nil {
		return nil, err
	}
	return &Store{backend: b, supported: true, log: log}, nil
}
