package transfer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/cryptox"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"github.com/dmitrijs2005/gophjournal/internal/mediastore"
	"github.com/dmitrijs2005/gophjournal/internal/models"
	"github.com/dmitrijs2005/gophjournal/internal/services"
	"github.com/dmitrijs2005/gophjournal/internal/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)

type journal struct {
	entries services.EntryService
	media   *mediastore.Store
	rec     *Reconciler
}

func newJournal(t *testing.T) *journal {
	t.Helper()
	ctx := context.Background()
	log := logging.NewNopLogger()

	db, err := storage.InitDatabase(ctx, filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	media, err := mediastore.NewFsStore(afero.NewMemMapFs(), log)
	require.NoError(t, err)

	es := services.NewEntryService(db, cryptox.NewSession(), log,
		services.WithClock(func() time.Time { return now }), services.WithMediaStore(media))

	rec := NewReconciler(es, media, log)
	rec.now = func() time.Time { return now }
	rec.loc = time.UTC
	return &journal{entries: es, media: media, rec: rec}
}

func (j *journal) add(t *testing.T, text string, created time.Time, tags ...string) int64 {
	t.Helper()
	id, err := j.entries.AddEntry(context.Background(), &models.Entry{Text: text, CreatedAt: created, Tags: tags})
	require.NoError(t, err)
	return id
}

func exportBytes(t *testing.T, j *journal, f ExportFilter) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := j.rec.WriteExport(context.Background(), &buf, f)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestExportImport_RoundTripWithMedia(t *testing.T) {
	ctx := context.Background()
	src := newJournal(t)

	id, dropped, err := src.entries.AddEntryWithMedia(ctx,
		&models.Entry{Text: "beach day", CreatedAt: now.Add(-time.Hour), Tags: []string{"summer"}},
		[]services.Attachment{
			{Reader: strings.NewReader("waves"), MimeType: "audio/webm", Duration: 4.5},
			{Reader: strings.NewReader("photo"), MimeType: "image/jpeg"},
		})
	require.NoError(t, err)
	require.Zero(t, dropped)
	_, err = src.entries.ToggleStarEntry(ctx, id, false)
	require.NoError(t, err)
	src.add(t, "quiet evening", now.Add(-2*time.Hour))

	data := exportBytes(t, src, ExportFilter{})

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, 2, env.Version)
	assert.Equal(t, "2024-04-10T12:00:00.000Z", env.ExportedAt)
	require.Len(t, env.Entries, 2)
	require.NotNil(t, env.Entries[0].Audio)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("waves")), env.Entries[0].Audio.Base64)

	dst := newJournal(t)
	res, err := dst.rec.Import(ctx, data, ".json")
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 2, Source: SourceNative}, res)

	all, err := dst.entries.GetAllEntries(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	got := all[0]
	assert.Equal(t, "beach day", got.Text)
	assert.Equal(t, []string{"summer"}, got.Tags)
	assert.True(t, got.Starred)
	assert.Equal(t, now.Add(-time.Hour), got.CreatedAt)

	require.NotNil(t, got.Audio)
	require.Len(t, got.Images, 1)
	assert.Equal(t, 4.5, got.Audio.Duration)
	assert.True(t, strings.HasPrefix(got.Audio.Path, "journal-media/"))
	assert.True(t, strings.HasSuffix(got.Audio.Path, ".webm"))
	assert.True(t, strings.HasSuffix(got.Images[0].Path, ".jpg"))

	b64, err := dst.media.ReadMediaAsBase64(ctx, got.Images[0].Path)
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("photo")), b64)
}

func TestImport_Idempotent(t *testing.T) {
	ctx := context.Background()
	src := newJournal(t)
	for i := 0; i < 5; i++ {
		src.add(t, "entry", now.Add(-time.Duration(i)*time.Hour))
	}
	data := exportBytes(t, src, ExportFilter{})

	dst := newJournal(t)
	first, err := dst.rec.Import(ctx, data, ".json")
	require.NoError(t, err)
	assert.Equal(t, 5, first.Imported)

	second, err := dst.rec.Import(ctx, data, ".json")
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 0, Skipped: 5, Source: SourceNative}, second)

	// importing back into the source skips everything as well
	back, err := src.rec.Import(ctx, data, ".json")
	require.NoError(t, err)
	assert.Equal(t, 5, back.Skipped)
}

func TestImport_DuplicatesWithinFileAndBadRows(t *testing.T) {
	data := []byte(`{"version":2,"entries":[
		{"createdAt":"2024-01-01T08:00:00.000Z","text":"a"},
		{"createdAt":"2024-01-01T08:00:00Z","text":"same instant"},
		{"text":"no date"},
		{"createdAt":"yesterday-ish","text":"bad date"},
		"not an object",
		{"createdAt":"2024-01-02T08:00:00.000Z","text":"b","tags":["Big Trip","big_trip"]}
	]}`)

	j := newJournal(t)
	res, err := j.rec.Import(context.Background(), data, ".json")
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 2, Skipped: 1, Errors: 3, Source: SourceNative}, res)

	tags, err := j.entries.GetAllTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"big-trip"}, tags)
}

func TestImport_SkipsOnlyLiveDuplicates(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)
	id := j.add(t, "deleted later", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, j.entries.DeleteEntry(ctx, id))

	res, err := j.rec.Import(ctx, []byte(`{"entries":[{"createdAt":"2024-01-01T08:00:00.000Z","text":"again"}]}`), ".json")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
}

func TestImport_MalformedFileIsFatal(t *testing.T) {
	j := newJournal(t)
	for _, in := range []string{`{`, `[]`, `{"entries":{}}`, `{"entries":null}`, `{"version":2}`} {
		_, err := j.rec.Import(context.Background(), []byte(in), ".json")
		require.ErrorIs(t, err, common.ErrInvalidImport, in)
	}
}

func TestImport_BadMediaPayloadImportsTextOnly(t *testing.T) {
	j := newJournal(t)
	data := []byte(`{"entries":[{"createdAt":"2024-01-01T08:00:00.000Z","text":"t",
		"audio":{"mimeType":"audio/webm","duration":1,"size":3,"base64":"@@not-base64@@"},
		"images":[{"mimeType":"image/png","size":1,"base64":"AA=="}]}]}`)

	res, err := j.rec.Import(context.Background(), data, ".json")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	all, err := j.entries.GetAllEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Nil(t, all[0].Audio)
	assert.Empty(t, all[0].Images)
}

func TestImport_DayOne(t *testing.T) {
	data := []byte(`{"metadata":{"version":"1.0"},"entries":[
		{"creationDate":"2023-05-01T07:30:00Z","modifiedDate":"2023-05-02T09:00:00Z","text":"Morning run","tags":["Running Club","health!"],"starred":true},
		{"creationDate":"2023-05-03T21:00:00Z","text":"Late notes"},
		{"text":"missing date"}
	]}`)

	j := newJournal(t)
	res, err := j.rec.Import(context.Background(), data, ".json")
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 2, Errors: 1, Source: SourceDayOne}, res)

	all, err := j.entries.GetAllEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)

	late, run := all[0], all[1]
	assert.Equal(t, "Late notes", late.Text)
	assert.False(t, late.Starred)
	assert.Empty(t, late.Tags)
	assert.Equal(t, late.CreatedAt, late.UpdatedAt)

	assert.Equal(t, []string{"running-club", "health"}, run.Tags)
	assert.True(t, run.Starred)
	assert.Equal(t, time.Date(2023, 5, 2, 9, 0, 0, 0, time.UTC), run.UpdatedAt)
}

func TestImport_Markdown(t *testing.T) {
	md := "# My journal\n\n" +
		"## 2024-01-15\nFirst day.\n\nSecond paragraph.\n\n" +
		"## Notes from 2024-02-01 09:30\nMeeting notes.\n\n" +
		"```\n## 2024-03-01 not a heading\n```\n\n" +
		"## 3/4/2024\nDateparse heading.\n\n" +
		"## Yesterday\nRelative heading.\n\n" +
		"## Thoughts on things\nUndated.\n"

	j := newJournal(t)
	res, err := j.rec.Import(context.Background(), []byte(md), ".md")
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 5, Source: SourceMarkdown}, res)

	all, err := j.entries.GetAllEntries(context.Background())
	require.NoError(t, err)
	byText := map[string]models.Entry{}
	for _, e := range all {
		byText[e.Text] = e
	}

	jan := byText["First day.\n\nSecond paragraph."]
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), jan.CreatedAt)

	feb, ok := byText["Meeting notes.\n\n```\n## 2024-03-01 not a heading\n```"]
	require.True(t, ok, "fenced heading stays in the section body")
	assert.Equal(t, time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC), feb.CreatedAt)

	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), byText["Dateparse heading."].CreatedAt)

	rel := byText["Relative heading."].CreatedAt
	assert.Equal(t, now.AddDate(0, 0, -1).Format("2006-01-02"), rel.Format("2006-01-02"))

	undated, ok := byText["Thoughts on things\n\nUndated."]
	require.True(t, ok, "undated heading text is kept")
	assert.Equal(t, now.Add(4*time.Millisecond), undated.CreatedAt)
}

func TestImport_MarkdownWithoutHeadings(t *testing.T) {
	j := newJournal(t)
	res, err := j.rec.Import(context.Background(), []byte("\n  just a thought\n"), ".txt")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	all, err := j.entries.GetAllEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "just a thought", all[0].Text)
	assert.Equal(t, now, all[0].CreatedAt)

	_, err = j.rec.Import(context.Background(), []byte("   \n"), ".md")
	require.ErrorIs(t, err, common.ErrInvalidImport)
}

func TestImport_SniffsContent(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)

	res, err := j.rec.Import(ctx, []byte(`{"entries":[{"createdAt":"2024-01-01T00:00:00Z","text":"x"}]}`), "")
	require.NoError(t, err)
	assert.Equal(t, SourceNative, res.Source)

	res, err = j.rec.Import(ctx, []byte("## 2024-01-02\nhello"), ".log")
	require.NoError(t, err)
	assert.Equal(t, SourceMarkdown, res.Source)

	_, err = j.rec.Import(ctx, []byte{0xff, 0xfe, 0x00}, ".bin")
	require.ErrorIs(t, err, common.ErrUnsupportedFormat)
}

func TestImportFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/inbox/day.markdown", []byte("## 2024-01-05\nwritten elsewhere"), 0o600))

	j := newJournal(t)
	j.rec.WithFs(fs)

	res, err := j.rec.ImportFile(context.Background(), "/inbox/day.markdown")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	_, err = j.rec.ImportFile(context.Background(), "/inbox/missing.json")
	require.Error(t, err)
}

func TestExport_FilterAndUnreadableMedia(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)

	id, _, err := j.entries.AddEntryWithMedia(ctx,
		&models.Entry{Text: "with photo", CreatedAt: now.AddDate(0, 0, -1), Tags: []string{"trip"}},
		[]services.Attachment{{Reader: strings.NewReader("img"), MimeType: "image/png"}})
	require.NoError(t, err)
	j.add(t, "old trip", now.AddDate(0, 0, -30), "trip")
	j.add(t, "not a trip", now)

	e, err := j.entries.GetEntry(ctx, id)
	require.NoError(t, err)
	require.NoError(t, j.media.DeleteMediaFile(ctx, e.Images[0].Path))

	env, err := j.rec.Export(ctx, ExportFilter{Tag: "Trip", From: now.AddDate(0, 0, -7)})
	require.NoError(t, err)
	require.Len(t, env.Entries, 1)
	assert.Equal(t, "with photo", env.Entries[0].Text)
	assert.Empty(t, env.Entries[0].Images, "unreadable media is left out")
}

func TestImport_IdenticalMediaGetsSeparateBlobs(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)

	img := base64.StdEncoding.EncodeToString([]byte("same picture"))
	data := []byte(`{"version":2,"entries":[
		{"createdAt":"2024-04-01T08:00:00.000Z","text":"first","images":[{"mimeType":"image/jpeg","base64":"` + img + `"}]},
		{"createdAt":"2024-04-02T08:00:00.000Z","text":"second","images":[{"mimeType":"image/jpeg","base64":"` + img + `"}]}
	]}`)

	res, err := j.rec.Import(ctx, data, ".json")
	require.NoError(t, err)
	require.Equal(t, 2, res.Imported)

	all, err := j.entries.GetAllEntries(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	second, first := all[0], all[1]
	require.Len(t, first.Images, 1)
	require.Len(t, second.Images, 1)
	assert.NotEqual(t, first.Images[0].Path, second.Images[0].Path)

	none := []models.ImageRef{}
	_, err = j.entries.UpdateEntry(ctx, second.ID, services.EntryPatch{Images: &none})
	require.NoError(t, err)

	b64, err := j.media.ReadMediaAsBase64(ctx, first.Images[0].Path)
	require.NoError(t, err)
	assert.Equal(t, img, b64)
}
