package scheduling

import (
	"context"
	"log"
	"time"

	"github.com/asimaster/pricerank/internal/domain/ranking"
	"github.com/asimaster/pricerank/internal/domain/shared"
)

// Sweeper deletes rankings and crawl logs older than the retention horizon.
// Deletes run in batches, each in its own transaction, until a batch comes
// back short: a crash mid-sweep loses no progress.
type Sweeper struct {
	rankings  ranking.RankingRepository
	crawlLogs ranking.CrawlLogRepository
	clock     shared.Clock

	retentionDays int
	batchSize     int
}

func NewSweeper(rankings ranking.RankingRepository, crawlLogs ranking.CrawlLogRepository, clock shared.Clock, retentionDays, batchSize int) *Sweeper {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if retentionDays <= 0 {
		retentionDays = 30
	}
	if batchSize <= 0 {
		batchSize = 10000
	}
	return &Sweeper{
		rankings:      rankings,
		crawlLogs:     crawlLogs,
		clock:         clock,
		retentionDays: retentionDays,
		batchSize:     batchSize,
	}
}

// Sweep removes everything older than the horizon and reports totals
func (s *Sweeper) Sweep(ctx context.Context) error {
	cutoff := s.clock.Now().AddDate(0, 0, -s.retentionDays)

	rankingsDeleted, err := s.sweepBatches(ctx, cutoff, s.rankings.DeleteOlderThan)
	if err != nil {
		return err
	}
	logsDeleted, err := s.sweepBatches(ctx, cutoff, s.crawlLogs.DeleteOlderThan)
	if err != nil {
		return err
	}

	log.Printf("[sweep] retention sweep done: rankings=%d crawl_logs=%d cutoff=%s",
		rankingsDeleted, logsDeleted, cutoff.Format(time.RFC3339))
	return nil
}

func (s *Sweeper) sweepBatches(ctx context.Context, cutoff time.Time, del func(context.Context, time.Time, int) (int, error)) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := del(ctx, cutoff, s.batchSize)
		if err != nil {
			return total, err
		}
		total += n
		if n < s.batchSize {
			return total, nil
		}
	}
}
