package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/models"
	"github.com/spf13/afero"
)

// ImportFile reads path and imports it.
func (r *Reconciler) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read %s: %w", path, err)
	}
	return r.Import(ctx, data, filepath.Ext(path))
}

// Import dispatches on ext (".json", ".md", ".markdown", ".txt") and falls
// back to sniffing the content.
func (r *Reconciler) Import(ctx context.Context, data []byte, ext string) (ImportResult, error) {
	switch strings.ToLower(ext) {
	case ".json":
		return r.importJSON(ctx, data)
	case ".md", ".markdown", ".txt":
		return r.importMarkdown(ctx, data)
	}

	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.HasPrefix(trimmed, []byte("{")):
		return r.importJSON(ctx, data)
	case len(trimmed) > 0 && utf8.Valid(trimmed):
		return r.importMarkdown(ctx, data)
	default:
		return ImportResult{}, common.ErrUnsupportedFormat
	}
}

func (r *Reconciler) importJSON(ctx context.Context, data []byte) (ImportResult, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", common.ErrInvalidImport, err)
	}

	raw, ok := top["entries"]
	if !ok {
		return ImportResult{}, fmt.Errorf("%w: missing entries", common.ErrInvalidImport)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return ImportResult{}, fmt.Errorf("%w: entries must be an array", common.ErrInvalidImport)
	}

	if isDayOne(items) {
		return r.merge(ctx, mapRows(items, r.dayOneRow), SourceDayOne)
	}
	return r.merge(ctx, mapRows(items, r.nativeRow), SourceNative)
}

// isDayOne reports whether any row carries creationDate.
func isDayOne(items []json.RawMessage) bool {
	for _, it := range items {
		var probe map[string]json.RawMessage
		if json.Unmarshal(it, &probe) != nil {
			continue
		}
		if _, ok := probe["creationDate"]; ok {
			return true
		}
	}
	return false
}

func mapRows(items []json.RawMessage, fn func(json.RawMessage) importRow) []importRow {
	rows := make([]importRow, len(items))
	for i, it := range items {
		rows[i] = fn(it)
	}
	return rows
}

func parseRequired(name, v string) (time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return time.Time{}, fmt.Errorf("missing %s", name)
	}
	t, err := models.ParseTimestamp(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad %s: %w", name, err)
	}
	return t, nil
}

func parseOptional(v string, def time.Time) time.Time {
	if t, err := models.ParseTimestamp(v); err == nil {
		return t
	}
	return def
}

func (r *Reconciler) nativeRow(raw json.RawMessage) importRow {
	var in ExportEntry
	if err := json.Unmarshal(raw, &in); err != nil {
		return importRow{err: err}
	}

	created, err := parseRequired("createdAt", in.CreatedAt)
	if err != nil {
		return importRow{err: err}
	}

	row := importRow{entry: models.Entry{
		CreatedAt: created,
		UpdatedAt: parseOptional(in.UpdatedAt, created),
		Text:      in.Text,
		Tags:      models.NormalizeTags(in.Tags),
		Starred:   in.Starred,
		PromptID:  in.PromptID,
		AIInsight: in.AIInsight,
	}}

	var errs []error
	add := func(kind models.MediaKind, mime, b64 string, duration float64) {
		if b64 == "" {
			return
		}
		data, err := decodePayload(b64)
		if err != nil {
			errs = append(errs, err)
			return
		}
		row.media = append(row.media, pendingMedia{kind: kind, mime: mime, duration: duration, data: data})
	}

	for _, img := range in.Images {
		add(models.MediaImage, img.MimeType, img.Base64, 0)
	}
	if in.Audio != nil {
		add(models.MediaAudio, in.Audio.MimeType, in.Audio.Base64, in.Audio.Duration)
	}
	if in.Video != nil {
		add(models.MediaVideo, in.Video.MimeType, in.Video.Base64, in.Video.Duration)
	}

	// a bad payload downgrades the row to text-only
	if len(errs) > 0 {
		row.media = nil
	}
	return row
}

func (r *Reconciler) dayOneRow(raw json.RawMessage) importRow {
	var in dayOneEntry
	if err := json.Unmarshal(raw, &in); err != nil {
		return importRow{err: err}
	}

	created, err := parseRequired("creationDate", in.CreationDate)
	if err != nil {
		return importRow{err: err}
	}

	starred := false
	if in.Starred != nil {
		starred = *in.Starred
	}

	return importRow{entry: models.Entry{
		CreatedAt: created,
		UpdatedAt: parseOptional(in.ModifiedDate, created),
		Text:      in.Text,
		Tags:      models.NormalizeTags(in.Tags),
		Starred:   starred,
	}}
}

var errEmptyFile = errors.New("file is empty")
