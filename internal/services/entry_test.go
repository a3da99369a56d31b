package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func add(t *testing.T, f *fixture, text string, created time.Time, tags ...string) int64 {
	t.Helper()
	id, err := f.entries.AddEntry(context.Background(), &models.Entry{Text: text, CreatedAt: created, Tags: tags})
	require.NoError(t, err)
	return id
}

func ids(es []models.Entry) []int64 {
	out := make([]int64, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}

func TestAddEntry_DefaultsAndNormalizes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	e := &models.Entry{Text: "hello", Tags: []string{"Deep Work", "deep_work", "!!"}}
	id, err := f.entries.AddEntry(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, id, e.ID)

	got, err := f.entries.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, t0, got.CreatedAt)
	assert.Equal(t, t0, got.UpdatedAt)
	assert.Equal(t, []string{"deep-work"}, got.Tags)
}

func TestGetEntries_DescendingWithLimit(t *testing.T) {
	f := newFixture(t)
	a := add(t, f, "a", t0.Add(-3*time.Hour))
	b := add(t, f, "b", t0.Add(-2*time.Hour))
	c := add(t, f, "c", t0.Add(-1*time.Hour))

	got, err := f.entries.GetEntries(context.Background(), models.EntryQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{c, b}, ids(got))

	got, err = f.entries.GetEntries(context.Background(), models.EntryQuery{Limit: 2, Before: got[1].CreatedAt})
	require.NoError(t, err)
	assert.Equal(t, []int64{a}, ids(got))
}

func TestGetEntries_PaginationCompleteness(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.crypto.Enable(ctx, []byte("pw"), ""))

	for i := 0; i < 23; i++ {
		tags := []string{"all"}
		if i%3 == 0 {
			tags = append(tags, "third")
		}
		add(t, f, "entry", t0.Add(-time.Duration(i)*time.Minute), tags...)
	}

	for _, tag := range []string{"", "third"} {
		var pages []models.Entry
		q := models.EntryQuery{Limit: 4, Tag: tag}
		for {
			page, err := f.entries.GetEntries(ctx, q)
			require.NoError(t, err)
			pages = append(pages, page...)
			if len(page) < q.Limit {
				break
			}
			q.Before = page[len(page)-1].CreatedAt
		}

		all, err := f.entries.GetAllEntries(ctx)
		require.NoError(t, err)
		var want []int64
		for _, e := range all {
			if tag == "" || e.HasTag(tag) {
				want = append(want, e.ID)
			}
		}
		assert.Equal(t, want, ids(pages), "tag %q", tag)
	}
}

func TestGetEntries_DateRange(t *testing.T) {
	f := newFixture(t)
	add(t, f, "old", t0.AddDate(0, 0, -10))
	mid := add(t, f, "mid", t0.AddDate(0, 0, -5))
	add(t, f, "new", t0)

	got, err := f.entries.GetEntries(context.Background(), models.EntryQuery{
		From: t0.AddDate(0, 0, -6),
		To:   t0.AddDate(0, 0, -1),
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{mid}, ids(got))
}

func TestDeleteEntry_SoftDeleteInvisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	keep := add(t, f, "keep", t0.Add(-time.Hour), "shared")
	gone := add(t, f, "gone", t0.Add(-2*time.Hour), "shared", "unique")

	f.clock.Advance(time.Minute)
	require.NoError(t, f.entries.DeleteEntry(ctx, gone))

	all, err := f.entries.GetAllEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{keep}, ids(all))

	n, err := f.entries.GetEntryCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tags, err := f.entries.GetAllTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"shared"}, tags)

	page, err := f.entries.GetEntries(ctx, models.EntryQuery{Limit: 10, Tag: "unique"})
	require.NoError(t, err)
	assert.Empty(t, page)

	_, err = f.entries.GetEntry(ctx, gone)
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.ErrorIs(t, f.entries.DeleteEntry(ctx, gone), common.ErrorNotFound)
}

// Scenario: tag "work" renamed to "career" advances updatedAt.
func TestRenameTagInAllEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id := add(t, f, "one two three", t0)
	tags := []string{"work"}
	_, err := f.entries.UpdateEntry(ctx, id, EntryPatch{Tags: &tags})
	require.NoError(t, err)
	other := add(t, f, "untouched", t0.Add(-time.Hour), "home")

	f.clock.Advance(time.Hour)
	n, err := f.entries.RenameTagInAllEntries(ctx, "work", "career")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e, err := f.entries.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, e.Tags, "career")
	assert.NotContains(t, e.Tags, "work")
	assert.True(t, e.UpdatedAt.After(t0))

	o, err := f.entries.GetEntry(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, t0, o.UpdatedAt)

	_, err = f.entries.RenameTagInAllEntries(ctx, "career", "!!!")
	require.ErrorIs(t, err, common.ErrInvalidTag)
}

func TestRenameTag_MergesIntoExisting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := add(t, f, "x", t0, "job", "career")

	_, err := f.entries.RenameTagInAllEntries(ctx, "job", "career")
	require.NoError(t, err)

	e, err := f.entries.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"career"}, e.Tags)
}

func TestRemoveTagFromAllEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.crypto.Enable(ctx, []byte("pw"), ""))
	a := add(t, f, "a", t0, "x", "y")
	add(t, f, "b", t0.Add(-time.Hour), "y")

	f.clock.Advance(time.Minute)
	n, err := f.entries.RemoveTagFromAllEntries(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e, err := f.entries.GetEntry(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, e.Tags)
	assert.Equal(t, t0.Add(time.Minute), e.UpdatedAt)

	tags, err := f.entries.GetAllTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, tags)
}

func TestToggleStarAndAI_DoNotTouchUpdatedAt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := add(t, f, "star me", t0)
	add(t, f, "plain", t0.Add(-time.Hour))

	f.clock.Advance(time.Hour)
	starred, err := f.entries.ToggleStarEntry(ctx, id, false)
	require.NoError(t, err)
	assert.True(t, starred)

	ins := &models.AIInsight{Sentiment: models.SentimentPositive, Intensity: 0.5, Summary: "s", AnalyzedAt: t0}
	require.NoError(t, f.entries.UpdateEntryAI(ctx, id, ins))

	e, err := f.entries.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.True(t, e.Starred)
	assert.Equal(t, t0, e.UpdatedAt)
	require.NotNil(t, e.AIInsight)
	assert.Equal(t, "s", e.AIInsight.Summary)

	list, err := f.entries.GetStarredEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, ids(list))

	starred, err = f.entries.ToggleStarEntry(ctx, id, true)
	require.NoError(t, err)
	assert.False(t, starred)
	list, err = f.entries.GetStarredEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGetOnThisDayEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	y1 := add(t, f, "one year ago", t0.AddDate(-1, 0, 0))
	y3 := add(t, f, "three years ago", t0.AddDate(-3, 0, 0).Add(2*time.Hour))
	add(t, f, "today", t0)
	add(t, f, "yesterday last year", t0.AddDate(-1, 0, -1))

	got, err := f.entries.GetOnThisDayEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{y3, y1}, ids(got))
}

func TestUpdateEntry_PatchAndMediaCleanup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, dropped, err := f.entries.AddEntryWithMedia(ctx, &models.Entry{Text: "voice memo"}, []Attachment{
		{Reader: strings.NewReader("audio"), MimeType: "audio/webm", Duration: 3},
		{Reader: strings.NewReader("img"), MimeType: "image/png"},
	})
	require.NoError(t, err)
	assert.Zero(t, dropped)

	e, err := f.entries.GetEntry(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, e.Audio)
	require.Len(t, e.Images, 1)
	assert.EqualValues(t, 5, e.Audio.Size)
	assert.Equal(t, 3.0, e.Audio.Duration)
	assert.True(t, strings.HasSuffix(e.Audio.Path, ".webm"))
	audioPath, imgPath := e.Audio.Path, e.Images[0].Path

	f.clock.Advance(time.Minute)
	text := "edited"
	updated, err := f.entries.UpdateEntry(ctx, id, EntryPatch{Text: &text, ClearAudio: true})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)
	assert.Nil(t, updated.Audio)
	assert.Equal(t, t0.Add(time.Minute), updated.UpdatedAt)
	assert.Equal(t, []string{audioPath}, f.media.deleted)
	assert.Contains(t, f.media.blobs, imgPath)

	require.NoError(t, f.entries.DeleteEntry(ctx, id))
	assert.Contains(t, f.media.blobs, imgPath, "soft delete keeps blobs")
}

func TestAddEntryWithMedia_FailedWriteStillSaves(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.media.saveErr = errDiskFull

	id, dropped, err := f.entries.AddEntryWithMedia(ctx, &models.Entry{Text: "text only"}, []Attachment{
		{Reader: strings.NewReader("a"), MimeType: "audio/webm"},
		{Reader: strings.NewReader("b"), MimeType: "application/pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)

	e, err := f.entries.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "text only", e.Text)
	assert.Nil(t, e.Audio)
	assert.Empty(t, e.Images)
}

func TestAttachMedia_ReplacesClip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := add(t, f, "clip", t0)

	e, err := f.entries.AttachMedia(ctx, id, Attachment{Reader: strings.NewReader("v1"), MimeType: "video/mp4"})
	require.NoError(t, err)
	first := e.Video.Path

	e, err = f.entries.AttachMedia(ctx, id, Attachment{Reader: strings.NewReader("v2"), MimeType: "video/mp4"})
	require.NoError(t, err)
	assert.NotEqual(t, first, e.Video.Path)
	assert.Equal(t, []string{first}, f.media.deleted)
}

func TestOnChange_FiresOnMutations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	calls := 0
	f.entries.OnChange(func() { calls++ })

	id := add(t, f, "x", t0)
	_, err := f.entries.ToggleStarEntry(ctx, id, false)
	require.NoError(t, err)
	require.NoError(t, f.entries.DeleteEntry(ctx, id))
	assert.Equal(t, 3, calls)
}

func TestCreatedAtKeys(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	add(t, f, "a", t0)
	gone := add(t, f, "b", t0.Add(-time.Hour))
	require.NoError(t, f.entries.DeleteEntry(ctx, gone))

	keys, err := f.entries.CreatedAtKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"2024-06-15T10:00:00.000Z": {}}, keys)
}
