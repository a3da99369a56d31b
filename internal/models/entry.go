// Package models defines the journal's data model: entries, media
// references, AI annotations and the tag grammar.
package models

import (
	"strings"
	"time"
)

// TimestampLayout is the canonical stored form of entry timestamps. All
// values are UTC with millisecond precision so lexical order is
// chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in the canonical stored form.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts the canonical form and any RFC 3339 variant.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC().Truncate(time.Millisecond), nil
}

// Entry is one journal record. Text and Tags hold plaintext after the entry
// service decrypts them; at the repository layer they may hold envelopes.
type Entry struct {
	ID        int64      `json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Text      string     `json:"text"`
	Tags      []string   `json:"tags"`
	PromptID  string     `json:"promptId,omitempty"`
	Audio     *MediaRef  `json:"audio,omitempty"`
	Video     *MediaRef  `json:"video,omitempty"`
	Images    []ImageRef `json:"images,omitempty"`
	Deleted   bool       `json:"deleted"`
	Starred   bool       `json:"starred"`
	AIInsight *AIInsight `json:"aiInsight,omitempty"`
}

// CreatedKey is the import deduplication key: the canonical createdAt string.
func (e Entry) CreatedKey() string {
	return FormatTimestamp(e.CreatedAt)
}

// HasTag reports whether tag is among the entry's tags.
func (e Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MediaPaths lists every media path the entry references.
func (e Entry) MediaPaths() []string {
	var paths []string
	if e.Audio != nil && e.Audio.Path != "" {
		paths = append(paths, e.Audio.Path)
	}
	if e.Video != nil && e.Video.Path != "" {
		paths = append(paths, e.Video.Path)
	}
	for _, img := range e.Images {
		if img.Path != "" {
			paths = append(paths, img.Path)
		}
	}
	return paths
}

// EntryQuery filters a page of entries. Zero values disable a filter.
// Before is an exclusive createdAt cursor; From and To are inclusive bounds.
type EntryQuery struct {
	Limit  int
	Before time.Time
	Tag    string
	From   time.Time
	To     time.Time
}

// Matches reports whether e satisfies every set filter except Limit.
func (q EntryQuery) Matches(e Entry) bool {
	if e.Deleted {
		return false
	}
	if !q.Before.IsZero() && !e.CreatedAt.Before(q.Before) {
		return false
	}
	if !q.From.IsZero() && e.CreatedAt.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && e.CreatedAt.After(q.To) {
		return false
	}
	if q.Tag != "" && !e.HasTag(q.Tag) {
		return false
	}
	return true
}
