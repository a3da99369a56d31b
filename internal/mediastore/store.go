package mediastore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"github.com/dmitrijs2005/gophjournal/internal/models"
	"github.com/google/uuid"
)

// MediaDir is the fixed logical directory every media path starts with.
const MediaDir = "journal-media"

// chunkSize is the read window used while base64-encoding a blob.
const chunkSize = 8 * 1024

const (
	BackendLocal  = "local"
	BackendMemory = "memory"
	BackendS3     = "s3"
)

// backend is implemented by each storage tier. Names are bare filenames.
type backend interface {
	put(ctx context.Context, name string, r io.Reader) (int64, error)
	open(ctx context.Context, name string) (*Handle, error)
	remove(ctx context.Context, name string) error
}

// Handle is a short-lived reference to a stored blob. The caller must call
// Release when done with it.
type Handle struct {
	Path   string
	URL    string
	Reader io.ReadCloser
}

func (h *Handle) Release() error {
	if h == nil || h.Reader == nil {
		return nil
	}
	err := h.Reader.Close()
	h.Reader = nil
	return err
}

type Store struct {
	backend   backend
	supported bool
	log       logging.Logger
}

// IsSupported reports whether blobs outlive the current process.
func (s *Store) IsSupported() bool {
	return s.supported
}

// NewFilename returns a fresh random filename with an extension matching mime.
func NewFilename(mime string) string {
	return uuid.NewString() + models.ExtensionFor(mime)
}

// MediaPath joins MediaDir and filename.
func MediaPath(filename string) string {
	return MediaDir + "/" + filename
}

// SplitPath validates a media path and returns its filename.
func SplitPath(path string) (string, error) {
	dir, name, ok := strings.Cut(path, "/")
	if !ok || dir != MediaDir || name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidMediaPath, path)
	}
	return name, nil
}

// SaveMediaFile writes r under MediaDir and returns the resulting path and
// the number of bytes written.
func (s *Store) SaveMediaFile(ctx context.Context, r io.Reader, filename string) (string, int64, error) {
	path := MediaPath(filename)
	if _, err := SplitPath(path); err != nil {
		return "", 0, err
	}

	n, err := s.backend.put(ctx, filename, r)
	if err != nil {
		return "", 0, fmt.Errorf("save media %s: %w", path, err)
	}

	s.log.Debug(ctx, "media saved", "path", path, "size", n)
	return path, n, nil
}

// OpenMedia resolves path into a Handle for playback or display.
func (s *Store) OpenMedia(ctx context.Context, path string) (*Handle, error) {
	name, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	h, err := s.backend.open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open media %s: %w", path, err)
	}
	h.Path = path
	return h, nil
}

// ReadMediaAsBase64 reads the whole blob and returns it base64-encoded. The
// blob is consumed in fixed-size windows so memory stays bounded by the
// encoded output.
func (s *Store) ReadMediaAsBase64(ctx context.Context, path string) (string, error) {
	h, err := s.OpenMedia(ctx, path)
	if err != nil {
		return "", err
	}
	defer h.Release()

	var sb strings.Builder
	enc := base64.NewEncoder(base64.StdEncoding, &sb)

	buf := make([]byte, chunkSize)
	for {
		n, rerr := h.Reader.Read(buf)
		if n > 0 {
			if _, err := enc.Write(buf[:n]); err != nil {
				return "", err
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return "", fmt.Errorf("read media %s: %w", path, rerr)
		}
	}

	if err := enc.Close(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// DeleteMediaFile removes the blob. A missing blob is not an error.
func (s *Store) DeleteMediaFile(ctx context.Context, path string) error {
	name, err := SplitPath(path)
	if err != nil {
		return err
	}

	if err := s.backend.remove(ctx, name); err != nil {
		return fmt.Errorf("delete media %s: %w", path, err)
	}
	return nil
}
