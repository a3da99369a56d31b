package models

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Work", "work"},
		{"  deep work ", "deep-work"},
		{"c++ & go!", "c-go"},
		{"snake_case", "snake-case"},
		{"---", ""},
		{"abcdefghijklmnopqrstuvwxyz0123456789", "abcdefghijklmnopqrstuvwxyz0123"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTag(tt.in))
		})
	}
}

func TestNormalizeTags_DedupeAndCap(t *testing.T) {
	in := []string{"A", "a", "", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}
	got := NormalizeTags(in)
	require.Len(t, got, MaxTagsPerEntry)
	assert.Equal(t, "a", got[0])
	assert.Equal(t, "b", got[1])
	assert.NotContains(t, got, "k")

	assert.NotNil(t, NormalizeTags(nil))
}

func TestNormalizeTags_KeepsSealedTagsVerbatim(t *testing.T) {
	key := cryptox.DeriveKey([]byte("pass"), make([]byte, cryptox.SaltSize))
	sealed, err := cryptox.EncryptText("private", key)
	require.NoError(t, err)

	got := NormalizeTags([]string{sealed, "Open Tag", sealed})
	assert.Equal(t, []string{sealed, "open-tag"}, got)
}

func TestTimestamp_RoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 5, 7, 8, 9, 123456789, time.FixedZone("x", 3600))
	s := FormatTimestamp(ts)
	assert.Equal(t, "2024-03-05T06:08:09.123Z", s)

	back, err := ParseTimestamp(s)
	require.NoError(t, err)
	assert.True(t, back.Equal(ts.Truncate(time.Millisecond)))

	other, err := ParseTimestamp("2024-03-05T08:08:09+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05T06:08:09.000Z", FormatTimestamp(other))

	_, err = ParseTimestamp("yesterday")
	require.Error(t, err)
}

func TestEntryQuery_Matches(t *testing.T) {
	base := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	e := Entry{CreatedAt: base, Tags: []string{"work"}}

	assert.True(t, EntryQuery{}.Matches(e))
	assert.False(t, EntryQuery{Before: base}.Matches(e))
	assert.True(t, EntryQuery{Before: base.Add(time.Millisecond)}.Matches(e))
	assert.True(t, EntryQuery{From: base, To: base}.Matches(e))
	assert.False(t, EntryQuery{From: base.Add(time.Second)}.Matches(e))
	assert.False(t, EntryQuery{Tag: "home"}.Matches(e))

	e.Deleted = true
	assert.False(t, EntryQuery{}.Matches(e))
}

func TestMediaHelpers(t *testing.T) {
	assert.Equal(t, MediaAudio, KindOf("audio/webm;codecs=opus"))
	assert.Equal(t, MediaImage, KindOf("IMAGE/PNG"))
	assert.Equal(t, MediaUnknown, KindOf("text/plain"))
	assert.Equal(t, ".webm", ExtensionFor("audio/webm;codecs=opus"))
	assert.Equal(t, ".bin", ExtensionFor("application/x-foo"))
	assert.Equal(t, "image/jpeg", MimeTypeFor(".JPEG"))

	e := Entry{
		Audio:  &MediaRef{Path: "journal-media/a.webm"},
		Images: []ImageRef{{Path: "journal-media/p.png"}, {Path: ""}},
	}
	assert.Equal(t, []string{"journal-media/a.webm", "journal-media/p.png"}, e.MediaPaths())
}
