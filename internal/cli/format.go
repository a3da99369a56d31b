package cli

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophjournal/internal/cryptox"
	"github.com/dmitrijs2005/gophjournal/internal/models"
)

const (
	previewRunes = 60
	dateLayout   = "2006-01-02 15:04"
	lockedText   = "[locked]"
)

// displayText hides sealed text behind a placeholder.
func displayText(s string) string {
	if cryptox.IsEncrypted(s) {
		return lockedText
	}
	return s
}

func displayTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if cryptox.IsEncrypted(t) {
			out = append(out, lockedText)
			continue
		}
		out = append(out, "#"+t)
	}
	return out
}

func preview(s string) string {
	s = displayText(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " …"
	}
	if utf8.RuneCountInString(s) > previewRunes {
		r := []rune(s)
		s = string(r[:previewRunes]) + "…"
	}
	return s
}

func printSummary(w io.Writer, e models.Entry) {
	star := " "
	if e.Starred {
		star = "*"
	}
	line := fmt.Sprintf("#%-5d %s %s %s", e.ID, e.CreatedAt.Local().Format(dateLayout), star, preview(e.Text))
	if len(e.Tags) > 0 {
		line += "  " + strings.Join(displayTags(e.Tags), " ")
	}
	fmt.Fprintln(w, line)
}

func printSummaries(w io.Writer, es []models.Entry, empty string) {
	if len(es) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	for _, e := range es {
		printSummary(w, e)
	}
}

func printEntry(w io.Writer, e models.Entry, mediaURL func(path string) string) {
	fmt.Fprintf(w, "#%d  %s", e.ID, e.CreatedAt.Local().Format(dateLayout))
	if e.Starred {
		fmt.Fprint(w, "  (starred)")
	}
	fmt.Fprintln(w)
	if !e.UpdatedAt.Equal(e.CreatedAt) {
		fmt.Fprintf(w, "edited %s\n", e.UpdatedAt.Local().Format(dateLayout))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, displayText(e.Text))
	fmt.Fprintln(w)

	if len(e.Tags) > 0 {
		fmt.Fprintln(w, "Tags:", strings.Join(displayTags(e.Tags), " "))
	}
	if e.Audio != nil {
		fmt.Fprintf(w, "Audio: %s (%.0fs) %s\n", e.Audio.MimeType, e.Audio.Duration, mediaURL(e.Audio.Path))
	}
	if e.Video != nil {
		fmt.Fprintf(w, "Video: %s (%.0fs) %s\n", e.Video.MimeType, e.Video.Duration, mediaURL(e.Video.Path))
	}
	for _, img := range e.Images {
		fmt.Fprintf(w, "Image: %s %s\n", img.MimeType, mediaURL(img.Path))
	}
	if ai := e.AIInsight; ai != nil {
		fmt.Fprintf(w, "Mood: %s (%.1f)\n", ai.Sentiment, ai.Intensity)
		if ai.Summary != "" {
			fmt.Fprintln(w, "Summary:", ai.Summary)
		}
		if len(ai.SuggestedTags) > 0 {
			fmt.Fprintln(w, "Suggested tags:", strings.Join(ai.SuggestedTags, ", "))
		}
	}
}
