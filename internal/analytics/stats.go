package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/models"
)

// topTagLimit caps TopTags in Stats.
const topTagLimit = 10

type TagCount struct {
	Tag   string
	Count int
}

type Stats struct {
	TotalEntries  int
	TotalWords    int
	AverageWords  int
	CurrentStreak int
	LongestStreak int
	ActiveDays    int
	Starred       int
	TopTags       []TagCount
}

// day is a calendar date independent of time zone arithmetic.
type day struct {
	y int
	m time.Month
	d int
}

func dayOf(t time.Time, loc *time.Location) day {
	y, m, d := t.In(loc).Date()
	return day{y, m, d}
}

func (d day) addDays(n int) day {
	t := time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return day{t.Year(), t.Month(), t.Day()}
}

func (d day) before(o day) bool {
	if d.y != o.y {
		return d.y < o.y
	}
	if d.m != o.m {
		return d.m < o.m
	}
	return d.d < o.d
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func live(es []models.Entry) []models.Entry {
	out := make([]models.Entry, 0, len(es))
	for _, e := range es {
		if !e.Deleted {
			out = append(out, e)
		}
	}
	return out
}

// ComputeStats summarizes es as of now. Calendar days are taken in now's
// location.
func ComputeStats(es []models.Entry, now time.Time) Stats {
	es = live(es)
	st := Stats{TotalEntries: len(es)}

	days := map[day]struct{}{}
	for _, e := range es {
		st.TotalWords += WordCount(e.Text)
		if e.Starred {
			st.Starred++
		}
		days[dayOf(e.CreatedAt, now.Location())] = struct{}{}
	}
	if st.TotalEntries > 0 {
		st.AverageWords = st.TotalWords / st.TotalEntries
	}

	st.ActiveDays = len(days)
	st.CurrentStreak = currentStreak(days, dayOf(now, now.Location()))
	st.LongestStreak = longestStreak(days)
	st.TopTags = TopTags(es, topTagLimit)
	return st
}

// currentStreak counts consecutive days ending today, or ending yesterday
// when nothing has been written today yet.
func currentStreak(days map[day]struct{}, today day) int {
	cur := today
	if _, ok := days[cur]; !ok {
		cur = cur.addDays(-1)
	}
	n := 0
	for {
		if _, ok := days[cur]; !ok {
			return n
		}
		n++
		cur = cur.addDays(-1)
	}
}

func longestStreak(days map[day]struct{}) int {
	sorted := make([]day, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].before(sorted[j]) })

	best, run := 0, 0
	for i, d := range sorted {
		if i > 0 && sorted[i-1].addDays(1) == d {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// TopTags returns the n most used tags, most frequent first, ties by name.
func TopTags(es []models.Entry, n int) []TagCount {
	counts := map[string]int{}
	for _, e := range es {
		if e.Deleted {
			continue
		}
		for _, t := range e.Tags {
			counts[t]++
		}
	}

	out := make([]TagCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, TagCount{Tag: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
