package transfer

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/models"
)

// ExportFilter narrows an export. Zero values disable a condition; From and
// To are inclusive.
type ExportFilter struct {
	Tag  string
	From time.Time
	To   time.Time
}

// Export builds an envelope of every live entry matching f. Attachments are
// inlined as base64; an attachment that cannot be read is left out and the
// entry is still exported.
func (r *Reconciler) Export(ctx context.Context, f ExportFilter) (*Envelope, error) {
	all, err := r.entries.GetAllEntries(ctx)
	if err != nil {
		return nil, err
	}

	q := models.EntryQuery{Tag: models.NormalizeTag(f.Tag), From: f.From, To: f.To}
	env := &Envelope{
		ExportedAt: models.FormatTimestamp(r.now()),
		Version:    ExportVersion,
		Entries:    []ExportEntry{},
	}

	for _, e := range all {
		if !q.Matches(e) {
			continue
		}
		env.Entries = append(env.Entries, r.exportEntry(ctx, e))
	}
	return env, nil
}

func (r *Reconciler) readMedia(ctx context.Context, path string) (string, bool) {
	if r.media == nil {
		return "", false
	}
	b64, err := r.media.ReadMediaAsBase64(ctx, path)
	if err != nil {
		r.log.Warn(ctx, "export left out unreadable media", "path", path, "error", err)
		return "", false
	}
	return b64, true
}

func (r *Reconciler) exportEntry(ctx context.Context, e models.Entry) ExportEntry {
	out := ExportEntry{
		ID:        e.ID,
		CreatedAt: models.FormatTimestamp(e.CreatedAt),
		UpdatedAt: models.FormatTimestamp(e.UpdatedAt),
		Text:      e.Text,
		Tags:      e.Tags,
		Starred:   e.Starred,
		PromptID:  e.PromptID,
		AIInsight: e.AIInsight,
	}

	for _, img := range e.Images {
		if b64, ok := r.readMedia(ctx, img.Path); ok {
			out.Images = append(out.Images, ExportImage{MimeType: img.MimeType, Size: img.Size, Base64: b64})
		}
	}
	if e.Audio != nil {
		if b64, ok := r.readMedia(ctx, e.Audio.Path); ok {
			out.Audio = &ExportMedia{MimeType: e.Audio.MimeType, Duration: e.Audio.Duration, Size: e.Audio.Size, Base64: b64}
		}
	}
	if e.Video != nil {
		if b64, ok := r.readMedia(ctx, e.Video.Path); ok {
			out.Video = &ExportMedia{MimeType: e.Video.MimeType, Duration: e.Video.Duration, Size: e.Video.Size, Base64: b64}
		}
	}
	return out
}

// WriteExport encodes the export as indented JSON.
func (r *Reconciler) WriteExport(ctx context.Context, w io.Writer, f ExportFilter) (int, error) {
	env, err := r.Export(ctx, f)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return 0, err
	}
	return len(env.Entries), nil
}
