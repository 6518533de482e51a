// Package stats aggregates processing counters for the dashboard endpoint.
package stats

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/omkarspace/Doc-Check/constants"
	"github.com/omkarspace/Doc-Check/internal/repository"
)

// Statistics is the dashboard payload: document and batch counts bucketed by
// status plus a per-type breakdown.
type Statistics struct {
	TotalDocuments   int64            `json:"total_documents"`
	DocumentsByState map[string]int64 `json:"documents_by_status"`
	DocumentsByType  map[string]int64 `json:"documents_by_type"`
	BatchesByState   map[string]int64 `json:"batches_by_status"`
	SuccessRate      float64          `json:"success_rate"`
}

type Service struct {
	docs    repository.DocumentRepository
	batches repository.BatchRepository
	logger  *slog.Logger
}

func NewService(docs repository.DocumentRepository, batches repository.BatchRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, batches: batches, logger: logger}
}

// Collect runs the three count queries concurrently and derives the totals.
func (s *Service) Collect(ctx context.Context) (*Statistics, error) {
	var (
		byStatus map[string]int64
		byType   map[string]int64
		batches  map[string]int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byStatus, err = s.docs.CountByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		byType, err = s.docs.CountByType(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		batches, err = s.batches.CountByStatus(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int64
	for _, n := range byStatus {
		total += n
	}
	completed := byStatus[string(constants.DocumentCompleted)]
	failed := byStatus[string(constants.DocumentFailed)]

	rate := 0.0
	if completed+failed > 0 {
		rate = float64(completed) / float64(completed+failed)
	}

	return &Statistics{
		TotalDocuments:   total,
		DocumentsByState: byStatus,
		DocumentsByType:  byType,
		BatchesByState:   batches,
		SuccessRate:      rate,
	}, nil
}
