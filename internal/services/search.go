package services

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"github.com/dmitrijs2005/gophjournal/internal/models"
	"github.com/dmitrijs2005/gophjournal/internal/search"
)

// SearchService answers free-text queries from an in-memory index that is
// rebuilt from the decrypted entry set. Mutations mark the index stale; a
// debounced refresh rebuilds it in the background and Search rebuilds it on
// demand when it is still stale.
type SearchService interface {
	Search(ctx context.Context, query string) ([]models.Entry, error)
	Rebuild(ctx context.Context) error
	Invalidate()
}

type searchService struct {
	entries EntryService
	index   *search.Index
	log     logging.Logger

	debounced func(func())

	mu    sync.Mutex
	gen   uint64
	built uint64
	ready bool
	cache map[int64]models.Entry
}

// NewSearchService subscribes to entry changes. A zero delay disables the
// background refresh.
func NewSearchService(es EntryService, delay time.Duration, log logging.Logger) SearchService {
	s := &searchService{entries: es, index: search.NewIndex(), log: log}
	if delay > 0 {
		s.debounced = debounce.New(delay)
	}
	es.OnChange(s.markStale)
	return s
}

func (s *searchService) markStale() {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()

	if s.debounced != nil {
		s.debounced(func() {
			if err := s.Rebuild(context.Background()); err != nil {
				s.log.Warn(context.Background(), "search refresh failed", "error", err)
			}
		})
	}
}

func (s *searchService) fresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready && s.built == s.gen
}

// Rebuild reloads every live entry and reindexes it. A result loaded while
// the index was invalidated or marked stale again is discarded.
func (s *searchService) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	all, err := s.entries.GetAllEntries(ctx)
	if err != nil {
		return err
	}

	cache := make(map[int64]models.Entry, len(all))
	for _, e := range all {
		cache[e.ID] = e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		s.log.Debug(ctx, "search index rebuild superseded", "documents", len(all))
		return nil
	}
	s.index.IndexEntries(all)
	s.cache = cache
	s.built = gen
	s.ready = true

	s.log.Debug(ctx, "search index rebuilt", "documents", len(all))
	return nil
}

// Invalidate drops the index and its decrypted copies, e.g. on lock.
func (s *searchService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.index.IndexEntries(nil)
	s.cache = nil
	s.ready = false
}

func (s *searchService) Search(ctx context.Context, query string) ([]models.Entry, error) {
	if !s.fresh() {
		if err := s.Rebuild(ctx); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.index.Search(query)
	out := make([]models.Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.cache[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}
