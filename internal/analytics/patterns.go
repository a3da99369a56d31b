package analytics

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/cryptox"
	"github.com/dmitrijs2005/gophjournal/internal/insight"
	"github.com/dmitrijs2005/gophjournal/internal/models"
)

type Patterns struct {
	ByWeekday      [7]int
	ByHour         [24]int
	BusiestWeekday time.Weekday
	// Sentiments counts entries per AIInsight sentiment; unannotated entries
	// are not counted.
	Sentiments map[string]int
}

// ComputePatterns buckets entries by local weekday and hour.
func ComputePatterns(es []models.Entry, loc *time.Location) Patterns {
	p := Patterns{Sentiments: map[string]int{}}
	for _, e := range live(es) {
		t := e.CreatedAt.In(loc)
		p.ByWeekday[t.Weekday()]++
		p.ByHour[t.Hour()]++
		if e.AIInsight != nil && e.AIInsight.Sentiment != "" {
			p.Sentiments[e.AIInsight.Sentiment]++
		}
	}
	for wd := range p.ByWeekday {
		if p.ByWeekday[wd] > p.ByWeekday[p.BusiestWeekday] {
			p.BusiestWeekday = time.Weekday(wd)
		}
	}
	return p
}

type Digest struct {
	From       time.Time
	To         time.Time
	Entries    int
	Words      int
	ActiveDays int
	TopTags    []TagCount
	Sentiments map[string]int
	Narrative  string
}

// WeeklyDigest covers the seven calendar days ending today. The narrative is
// requested from s when it is non-nil; a failing summarizer leaves it empty.
func WeeklyDigest(ctx context.Context, es []models.Entry, now time.Time, s insight.Summarizer) Digest {
	loc := now.Location()
	y, m, d := now.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, -6)

	var week []models.Entry
	for _, e := range live(es) {
		if !e.CreatedAt.Before(from) && !e.CreatedAt.After(now) {
			week = append(week, e)
		}
	}

	st := ComputeStats(week, now)
	dg := Digest{
		From:       from,
		To:         now,
		Entries:    st.TotalEntries,
		Words:      st.TotalWords,
		ActiveDays: st.ActiveDays,
		TopTags:    TopTags(week, 5),
		Sentiments: ComputePatterns(week, loc).Sentiments,
	}

	if s == nil || len(week) == 0 {
		return dg
	}

	texts := make([]string, 0, len(week))
	for _, e := range week {
		if e.Text != "" && !cryptox.IsEncrypted(e.Text) {
			texts = append(texts, e.Text)
		}
	}
	if len(texts) == 0 {
		return dg
	}

	if narrative, err := s.Summarize(ctx, texts); err == nil {
		dg.Narrative = narrative
	}
	return dg
}
