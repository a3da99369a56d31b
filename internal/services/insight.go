package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophjournal/internal/insight"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
)

// InsightService annotates saved entries through an optional Analyzer.
// Annotation is a side channel: it never blocks or fails a save.
type InsightService interface {
	Enabled() bool
	AnalyzeEntry(ctx context.Context, id int64) error
	AnalyzeAsync(ctx context.Context, id int64) <-chan error
}

type insightService struct {
	entries  EntryService
	analyzer insight.Analyzer
	log      logging.Logger
}

// NewInsightService accepts a nil analyzer, in which case every call is a
// no-op.
func NewInsightService(es EntryService, analyzer insight.Analyzer, log logging.Logger) InsightService {
	return &insightService{entries: es, analyzer: analyzer, log: log}
}

func (s *insightService) Enabled() bool {
	return s.analyzer != nil
}

func (s *insightService) AnalyzeEntry(ctx context.Context, id int64) error {
	if s.analyzer == nil {
		return nil
	}

	e, err := s.entries.GetEntry(ctx, id)
	if err != nil {
		return err
	}

	ins, err := s.analyzer.Analyze(ctx, e.Text)
	if err != nil {
		return fmt.Errorf("analyze entry %d: %w", id, err)
	}

	return s.entries.UpdateEntryAI(ctx, id, ins)
}

// AnalyzeAsync runs AnalyzeEntry in a goroutine. Failures are logged and
// delivered on the returned channel, which is closed afterwards.
func (s *insightService) AnalyzeAsync(ctx context.Context, id int64) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		if err := s.AnalyzeEntry(ctx, id); err != nil {
			s.log.Warn(ctx, "entry analysis failed", "entry_id", id, "error", err)
			done <- err
		}
	}()
	return done
}
