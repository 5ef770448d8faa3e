package scheduling_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asimaster/pricerank/internal/adapters/persistence"
	"github.com/asimaster/pricerank/internal/application/scheduling"
	"github.com/asimaster/pricerank/internal/domain/ranking"
	"github.com/asimaster/pricerank/internal/domain/shared"
	"github.com/asimaster/pricerank/test/helpers"
)

func TestSweeper_DeletesPastRetentionInBatches(t *testing.T) {
	db := helpers.NewTestDB(t)
	rankings := persistence.NewGormRankingRepository(db)
	crawlLogs := persistence.NewGormCrawlLogRepository(db)
	clock := shared.NewMockClock(time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC))
	ctx := context.Background()

	old := clock.Now().AddDate(0, 0, -31)
	fresh := clock.Now().AddDate(0, 0, -5)

	rows := make([]*ranking.Ranking, 0, 28)
	for i := 0; i < 25; i++ {
		rows = append(rows, &ranking.Ranking{KeywordID: 1, Rank: i + 1, CrawledAt: old})
	}
	for i := 0; i < 3; i++ {
		rows = append(rows, &ranking.Ranking{KeywordID: 1, Rank: i + 1, CrawledAt: fresh})
	}
	require.NoError(t, rankings.InsertBatch(ctx, rows))

	require.NoError(t, crawlLogs.Append(ctx, &ranking.CrawlLog{KeywordID: 1, Status: "success", CreatedAt: old}))
	require.NoError(t, crawlLogs.Append(ctx, &ranking.CrawlLog{KeywordID: 1, Status: "success", CreatedAt: fresh}))

	// 25 old rows with batch size 10: three batches for rankings
	sweeper := scheduling.NewSweeper(rankings, crawlLogs, clock, 30, 10)
	require.NoError(t, sweeper.Sweep(ctx))

	latest, err := rankings.LatestByKeywords(ctx, []int{1})
	require.NoError(t, err)
	assert.Len(t, latest[1], 3)

	last, err := crawlLogs.LastCreatedAt(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(fresh))

	// Idempotent on a clean table
	require.NoError(t, sweeper.Sweep(ctx))
}

func TestSweeper_HonoursContextCancellation(t *testing.T) {
	db := helpers.NewTestDB(t)
	rankings := persistence.NewGormRankingRepository(db)
	crawlLogs := persistence.NewGormCrawlLogRepository(db)
	clock := shared.NewMockClock(time.Now().UTC())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sweeper := scheduling.NewSweeper(rankings, crawlLogs, clock, 30, 10)
	assert.Error(t, sweeper.Sweep(ctx))
}
