package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asimaster/pricerank/internal/adapters/persistence"
	"github.com/asimaster/pricerank/internal/domain/catalog"
	"github.com/asimaster/pricerank/internal/domain/ranking"
	"github.com/asimaster/pricerank/test/helpers"
)

func TestCrawlLogRepository_StatsSince(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCrawlLogRepository(db)
	keywords := persistence.NewGormKeywordRepository(db, 5)
	ctx := context.Background()

	mine := seedProduct(t, db, 1)
	theirs := seedProduct(t, db, 2)
	kwMine := &catalog.Keyword{ProductID: mine.ID, Text: "텀블러", SortMode: catalog.SortRelevance, IsActive: true}
	require.NoError(t, keywords.Save(ctx, kwMine))
	kwTheirs := &catalog.Keyword{ProductID: theirs.ID, Text: "보온병", SortMode: catalog.SortRelevance, IsActive: true}
	require.NoError(t, keywords.Save(ctx, kwTheirs))

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entries := []*ranking.CrawlLog{
		{KeywordID: kwMine.ID, Status: "success", DurationMs: 1000, CreatedAt: now.Add(-time.Hour)},
		{KeywordID: kwMine.ID, Status: "success", DurationMs: 3000, CreatedAt: now.Add(-time.Hour)},
		{KeywordID: kwMine.ID, Status: "failed", DurationMs: 2000, CreatedAt: now.Add(-time.Hour)},
		// Other tenant
		{KeywordID: kwTheirs.ID, Status: "success", DurationMs: 9000, CreatedAt: now.Add(-time.Hour)},
		// Outside the window
		{KeywordID: kwMine.ID, Status: "failed", DurationMs: 500, CreatedAt: now.Add(-48 * time.Hour)},
	}
	for _, e := range entries {
		require.NoError(t, repo.Append(ctx, e))
	}

	stats, err := repo.StatsSince(ctx, 1, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Success)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2000, stats.AvgDurationMs)

	// tenantID <= 0 spans all tenants
	global, err := repo.StatsSince(ctx, 0, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, global.Success)
	assert.Equal(t, 1, global.Failed)
}

func TestCrawlLogRepository_LastCreatedAt(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCrawlLogRepository(db)
	ctx := context.Background()

	latest, err := repo.LastCreatedAt(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	newest := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Append(ctx, &ranking.CrawlLog{KeywordID: 1, Status: "success", CreatedAt: newest.Add(-time.Hour)}))
	require.NoError(t, repo.Append(ctx, &ranking.CrawlLog{KeywordID: 1, Status: "success", CreatedAt: newest}))

	latest, err = repo.LastCreatedAt(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.Equal(newest))
}

func TestCrawlLogRepository_DeleteOlderThan(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCrawlLogRepository(db)
	ctx := context.Background()

	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, repo.Append(ctx, &ranking.CrawlLog{KeywordID: 1, Status: "success", CreatedAt: cutoff.AddDate(0, 0, -31)}))
	}
	require.NoError(t, repo.Append(ctx, &ranking.CrawlLog{KeywordID: 1, Status: "success", CreatedAt: cutoff.Add(time.Hour)}))

	n, err := repo.DeleteOlderThan(ctx, cutoff, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.DeleteOlderThan(ctx, cutoff, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	latest, err := repo.LastCreatedAt(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.After(cutoff))
}
