package transfer

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/models"
	"github.com/olebedev/when"
	whencommon "github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var isoDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?)?`)

var isoLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func newWhen() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(whencommon.All...)
	return w
}

type section struct {
	heading string
	body    string
}

// splitSections cuts src at ATX level-2 headings ("## ..."). Headings inside
// code blocks are not boundaries. Text before the first heading is dropped.
func splitSections(src []byte) []section {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	type mark struct {
		lineStart int
		bodyStart int
		heading   string
	}
	var marks []mark

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 2 || h.Lines().Len() == 0 {
			continue
		}

		lines := h.Lines()
		first, last := lines.At(0), lines.At(lines.Len()-1)

		lineStart := bytes.LastIndexByte(src[:first.Start], '\n') + 1
		if !bytes.HasPrefix(bytes.TrimLeft(src[lineStart:first.Start], " "), []byte("##")) {
			continue // setext heading
		}

		bodyStart := len(src)
		if i := bytes.IndexByte(src[last.Stop:], '\n'); i >= 0 {
			bodyStart = last.Stop + i + 1
		}

		var hb strings.Builder
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			hb.Write(seg.Value(src))
		}
		marks = append(marks, mark{lineStart: lineStart, bodyStart: bodyStart, heading: strings.TrimSpace(hb.String())})
	}

	sections := make([]section, len(marks))
	for i, m := range marks {
		end := len(src)
		if i+1 < len(marks) {
			end = marks[i+1].lineStart
		}
		body := ""
		if m.bodyStart < end {
			body = strings.TrimSpace(string(src[m.bodyStart:end]))
		}
		sections[i] = section{heading: m.heading, body: body}
	}
	return sections
}

// headingDate finds a date in a heading: an ISO date first, then any format
// dateparse knows, then natural language relative to base.
func (r *Reconciler) headingDate(heading string, base time.Time) (time.Time, bool) {
	if m := isoDate.FindString(heading); m != "" {
		for _, layout := range isoLayouts {
			if t, err := time.ParseInLocation(layout, m, r.loc); err == nil {
				return t, true
			}
		}
	}

	if t, err := dateparse.ParseIn(heading, r.loc); err == nil {
		return t, true
	}

	if res, err := r.dates.Parse(heading, base.In(r.loc)); err == nil && res != nil {
		return res.Time, true
	}
	return time.Time{}, false
}

func (r *Reconciler) importMarkdown(ctx context.Context, data []byte) (ImportResult, error) {
	now := r.now()
	sections := splitSections(data)

	if len(sections) == 0 {
		body := strings.TrimSpace(string(data))
		if body == "" {
			return ImportResult{}, fmt.Errorf("%w: %v", common.ErrInvalidImport, errEmptyFile)
		}
		row := importRow{entry: models.Entry{CreatedAt: now, Text: body}}
		return r.merge(ctx, []importRow{row}, SourceMarkdown)
	}

	rows := make([]importRow, 0, len(sections))
	for i, s := range sections {
		created, ok := r.headingDate(s.heading, now)
		if !ok {
			// keep undated sections distinct from each other
			created = now.Add(time.Duration(i) * time.Millisecond)
			r.log.Debug(ctx, "heading has no date, using import time", "section", i)
		}

		text := s.body
		if !ok && s.heading != "" {
			text = strings.TrimSpace(s.heading + "\n\n" + s.body)
		}
		rows = append(rows, importRow{entry: models.Entry{CreatedAt: created, Text: text}})
	}
	return r.merge(ctx, rows, SourceMarkdown)
}
