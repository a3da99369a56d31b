package transfer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"github.com/dmitrijs2005/gophjournal/internal/mediastore"
	"github.com/dmitrijs2005/gophjournal/internal/models"
	"github.com/olebedev/when"
	"github.com/spf13/afero"
)

// EntryStore is the part of the entry service the reconciler drives.
type EntryStore interface {
	GetAllEntries(ctx context.Context) ([]models.Entry, error)
	AddEntry(ctx context.Context, e *models.Entry) (int64, error)
	CreatedAtKeys(ctx context.Context) (map[string]struct{}, error)
}

// MediaStore is the part of the media blob store the reconciler drives.
type MediaStore interface {
	SaveMediaFile(ctx context.Context, r io.Reader, filename string) (string, int64, error)
	ReadMediaAsBase64(ctx context.Context, path string) (string, error)
	DeleteMediaFile(ctx context.Context, path string) error
}

// Reconciler exports entries to the versioned JSON envelope and merges
// native, Day One and markdown files back in.
type Reconciler struct {
	entries EntryStore
	media   MediaStore
	fs      afero.Fs
	log     logging.Logger
	now     func() time.Time
	loc     *time.Location
	dates   *when.Parser
}

// NewReconciler wires the reconciler. media may be nil, in which case
// exports carry no attachments and imports are text-only.
func NewReconciler(entries EntryStore, media MediaStore, log logging.Logger) *Reconciler {
	return &Reconciler{
		entries: entries,
		media:   media,
		fs:      afero.NewOsFs(),
		log:     log,
		now:     time.Now,
		loc:     time.Local,
		dates:   newWhen(),
	}
}

// WithFs replaces the filesystem ImportFile reads from.
func (r *Reconciler) WithFs(fs afero.Fs) *Reconciler {
	r.fs = fs
	return r
}

// pendingMedia is an attachment decoded from an import row but not yet
// written.
type pendingMedia struct {
	kind     models.MediaKind
	mime     string
	duration float64
	data     []byte
}

func decodePayload(b64 string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode media payload: %w", err)
	}
	return data, nil
}

// restoreMedia writes every pending attachment under a fresh name and links
// it to e. Blobs are never shared between entries. If any write fails the
// entry is downgraded to text-only and the blobs already written for it are
// removed.
func (r *Reconciler) restoreMedia(ctx context.Context, e *models.Entry, pending []pendingMedia) {
	if len(pending) == 0 {
		return
	}
	if r.media == nil {
		r.log.Warn(ctx, "media store unavailable, importing text only", "created_at", e.CreatedKey())
		return
	}

	var written []string
	var audio, video *models.MediaRef
	var images []models.ImageRef

	for _, p := range pending {
		path, size, err := r.media.SaveMediaFile(ctx, bytes.NewReader(p.data), mediastore.NewFilename(p.mime))
		if err != nil {
			r.log.Warn(ctx, "media restore failed, importing text only", "created_at", e.CreatedKey(), "error", err)
			for _, w := range written {
				_ = r.media.DeleteMediaFile(ctx, w)
			}
			return
		}
		written = append(written, path)

		switch p.kind {
		case models.MediaImage:
			images = append(images, models.ImageRef{Path: path, MimeType: p.mime, Size: size})
		case models.MediaAudio:
			audio = &models.MediaRef{Path: path, MimeType: p.mime, Duration: p.duration, Size: size}
		case models.MediaVideo:
			video = &models.MediaRef{Path: path, MimeType: p.mime, Duration: p.duration, Size: size}
		}
	}

	e.Audio, e.Video, e.Images = audio, video, images
}

// importRow is one candidate entry. err marks a row that could not be
// mapped.
type importRow struct {
	entry models.Entry
	media []pendingMedia
	err   error
}

// merge inserts rows whose createdAt is new and counts the rest.
func (r *Reconciler) merge(ctx context.Context, rows []importRow, source string) (ImportResult, error) {
	res := ImportResult{Source: source}

	seen, err := r.entries.CreatedAtKeys(ctx)
	if err != nil {
		return res, fmt.Errorf("load existing entries: %w", err)
	}

	for i, row := range rows {
		if row.err != nil {
			res.Errors++
			r.log.Warn(ctx, "import row rejected", "row", i, "error", row.err)
			continue
		}

		e := row.entry
		key := e.CreatedKey()
		if _, dup := seen[key]; dup {
			res.Skipped++
			continue
		}

		r.restoreMedia(ctx, &e, row.media)

		if _, err := r.entries.AddEntry(ctx, &e); err != nil {
			res.Errors++
			r.log.Warn(ctx, "import row failed", "row", i, "error", err)
			continue
		}
		seen[key] = struct{}{}
		res.Imported++
	}

	r.log.Info(ctx, "import finished", "source", source,
		"imported", res.Imported, "skipped", res.Skipped, "errors", res.Errors)
	return res, nil
}
