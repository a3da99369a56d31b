// Package search keeps an in-memory full-text index over decrypted entries.
// The index is never persisted and is rebuilt wholesale by its owner.
package search

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/dmitrijs2005/gophjournal/internal/models"
)

const (
	textBoost = 2.0
	tagBoost  = 1.0

	exactWeight  = 1.0
	prefixWeight = 0.5
	fuzzyWeight  = 0.3

	// fuzzyMinLen is the shortest query term matched with edit distance.
	fuzzyMinLen = 3
	// fuzzyRatio bounds edit distance as a fraction of the term length.
	fuzzyRatio = 0.2
)

type field int

const (
	fieldText field = iota
	fieldTags
)

// Document is the indexed projection of an entry.
type Document struct {
	ID        int64
	Text      string
	Tags      string
	CreatedAt time.Time
}

// DocumentOf projects e. Tags are space-joined.
func DocumentOf(e models.Entry) Document {
	return Document{ID: e.ID, Text: e.Text, Tags: strings.Join(e.Tags, " "), CreatedAt: e.CreatedAt}
}

type postings map[int64][2]int

type Index struct {
	mu    sync.RWMutex
	docs  map[int64]Document
	terms map[string]postings
}

func NewIndex() *Index {
	return &Index{docs: map[int64]Document{}, terms: map[string]postings{}}
}

// IndexEntries clears the index and adds every entry.
func (ix *Index) IndexEntries(es []models.Entry) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.docs = make(map[int64]Document, len(es))
	ix.terms = map[string]postings{}
	for _, e := range es {
		ix.add(DocumentOf(e))
	}
}

// Add indexes e, replacing any previous version with the same id.
func (ix *Index) Add(e models.Entry) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.remove(e.ID)
	ix.add(DocumentOf(e))
}

// Remove drops id. Removing an absent id is a no-op.
func (ix *Index) Remove(id int64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.remove(id)
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

func (ix *Index) add(d Document) {
	ix.docs[d.ID] = d
	ix.addField(d.ID, fieldText, d.Text)
	ix.addField(d.ID, fieldTags, d.Tags)
}

func (ix *Index) addField(id int64, f field, s string) {
	for _, tok := range Tokenize(s) {
		p, ok := ix.terms[tok]
		if !ok {
			p = postings{}
			ix.terms[tok] = p
		}
		tf := p[id]
		tf[f]++
		p[id] = tf
	}
}

func (ix *Index) remove(id int64) {
	d, ok := ix.docs[id]
	if !ok {
		return
	}
	delete(ix.docs, id)
	for _, tok := range append(Tokenize(d.Text), Tokenize(d.Tags)...) {
		p, ok := ix.terms[tok]
		if !ok {
			continue
		}
		delete(p, id)
		if len(p) == 0 {
			delete(ix.terms, tok)
		}
	}
}

// termWeight scores how well an indexed term matches a query term.
func termWeight(query, term string) float64 {
	if term == query {
		return exactWeight
	}
	if strings.HasPrefix(term, query) {
		return prefixWeight
	}
	if len([]rune(query)) < fuzzyMinLen {
		return 0
	}
	maxDist := int(float64(len([]rune(query))) * fuzzyRatio)
	if maxDist < 1 {
		maxDist = 1
	}
	diff := len([]rune(term)) - len([]rune(query))
	if diff > maxDist || -diff > maxDist {
		return 0
	}
	d := levenshtein.ComputeDistance(query, term)
	if d > maxDist {
		return 0
	}
	return fuzzyWeight / float64(d)
}

// Search returns matching ids, best first. Query terms are OR-combined and
// may match exactly, as a prefix or within a small edit distance. Text hits
// outweigh tag hits; ties go to the newer entry. A blank query matches
// nothing.
func (ix *Index) Search(query string) []int64 {
	qterms := Tokenize(query)
	if len(qterms) == 0 {
		return []int64{}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	scores := map[int64]float64{}
	for _, q := range qterms {
		for term, p := range ix.terms {
			w := termWeight(q, term)
			if w == 0 {
				continue
			}
			for id, tf := range p {
				scores[id] += w * (textBoost*float64(tf[fieldText]) + tagBoost*float64(tf[fieldTags]))
			}
		}
	}

	ids := make([]int64, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		ca, cb := ix.docs[a].CreatedAt, ix.docs[b].CreatedAt
		if !ca.Equal(cb) {
			return ca.After(cb)
		}
		return a > b
	})
	return ids
}
