package models

import (
	"strings"

	"github.com/dmitrijs2005/gophjournal/internal/cryptox"
)

const (
	// MaxTagLength bounds a single tag.
	MaxTagLength = 30
	// MaxTagsPerEntry bounds the tag set of one entry.
	MaxTagsPerEntry = 10
)

// NormalizeTag lowercases tag, turns whitespace and underscores into hyphens,
// drops anything outside [a-z0-9-] and truncates to MaxTagLength. The result
// may be empty.
func NormalizeTag(tag string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(tag)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ', r == '_', r == '\t':
			b.WriteRune('-')
		}
	}

	s := strings.Trim(b.String(), "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	if len(s) > MaxTagLength {
		s = strings.TrimRight(s[:MaxTagLength], "-")
	}
	return s
}

// NormalizeTags applies NormalizeTag, drops empties and duplicates, keeps the
// first occurrence order and caps the set at MaxTagsPerEntry. Sealed tags
// are kept verbatim. It never returns nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		n := t
		if !cryptox.IsEncrypted(t) {
			n = NormalizeTag(t)
		}
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
		if len(out) == MaxTagsPerEntry {
			break
		}
	}
	return out
}
