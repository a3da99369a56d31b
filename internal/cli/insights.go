package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/analytics"
)

func (a *App) Search(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	es, err := a.search.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	printSummaries(a.out, es, "No matches.")
	return nil
}

func (a *App) Stats(ctx context.Context, _ []string) error {
	es, err := a.entries.GetAllEntries(ctx)
	if err != nil {
		return err
	}
	s := analytics.ComputeStats(es, a.now())

	fmt.Fprintf(a.out, "Entries:        %d (%d starred)\n", s.TotalEntries, s.Starred)
	fmt.Fprintf(a.out, "Words:          %d (avg %d)\n", s.TotalWords, s.AverageWords)
	fmt.Fprintf(a.out, "Active days:    %d\n", s.ActiveDays)
	fmt.Fprintf(a.out, "Current streak: %d\n", s.CurrentStreak)
	fmt.Fprintf(a.out, "Longest streak: %d\n", s.LongestStreak)
	printTopTags(a, s.TopTags)
	return nil
}

func printTopTags(a *App, tags []analytics.TagCount) {
	if len(tags) == 0 {
		return
	}
	parts := make([]string, 0, len(tags))
	for _, tc := range tags {
		parts = append(parts, fmt.Sprintf("#%s (%d)", tc.Tag, tc.Count))
	}
	fmt.Fprintln(a.out, "Top tags:      ", strings.Join(parts, ", "))
}

func printSentiments(a *App, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %d", k, counts[k]))
	}
	fmt.Fprintln(a.out, "Moods:         ", strings.Join(parts, ", "))
}

func (a *App) Patterns(ctx context.Context, _ []string) error {
	es, err := a.entries.GetAllEntries(ctx)
	if err != nil {
		return err
	}
	p := analytics.ComputePatterns(es, a.now().Location())

	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		fmt.Fprintf(a.out, "%-9s %s %d\n", wd, strings.Repeat("#", p.ByWeekday[wd]), p.ByWeekday[wd])
	}

	peak := 0
	for h, n := range p.ByHour {
		if n > p.ByHour[peak] {
			peak = h
		}
	}
	fmt.Fprintf(a.out, "Busiest day: %s, busiest hour: %02d:00\n", p.BusiestWeekday, peak)
	printSentiments(a, p.Sentiments)
	return nil
}

func (a *App) Digest(ctx context.Context, _ []string) error {
	es, err := a.entries.GetAllEntries(ctx)
	if err != nil {
		return err
	}
	d := analytics.WeeklyDigest(ctx, es, a.now(), a.summarizer)

	fmt.Fprintf(a.out, "Week of %s to %s\n", d.From.Format("Jan 2"), d.To.Format("Jan 2"))
	fmt.Fprintf(a.out, "Entries: %d, words: %d, active days: %d\n", d.Entries, d.Words, d.ActiveDays)
	printTopTags(a, d.TopTags)
	printSentiments(a, d.Sentiments)
	if d.Narrative != "" {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, d.Narrative)
	}
	return nil
}

// Prompt shows today's prompt and offers to answer it right away.
func (a *App) Prompt(ctx context.Context, args []string) error {
	p := analytics.DailyPrompt(a.now(), a.config.CustomPrompts)
	fmt.Fprintln(a.out, p.Text)
	if !Confirm(a.reader, "Write about it now?", a.out) {
		return nil
	}
	return a.writeEntry(ctx, p.ID, args)
}
