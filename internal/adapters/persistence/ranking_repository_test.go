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

func TestRankingRepository_LatestByKeywords(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormRankingRepository(db)
	ctx := context.Background()

	older := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.InsertBatch(ctx, []*ranking.Ranking{
		{KeywordID: 1, Rank: 1, ListingID: "a", Price: 1000, CrawledAt: older},
		{KeywordID: 1, Rank: 2, ListingID: "b", Price: 1200, CrawledAt: older},
		{KeywordID: 1, Rank: 1, ListingID: "b", Price: 1100, CrawledAt: newer},
		{KeywordID: 2, Rank: 1, ListingID: "c", Price: 900, CrawledAt: older},
	}))

	latest, err := repo.LatestByKeywords(ctx, []int{1, 2, 3})
	require.NoError(t, err)

	// Keyword 1: only the newer crawl survives
	require.Len(t, latest[1], 1)
	assert.Equal(t, "b", latest[1][0].ListingID)
	assert.Equal(t, 1100, latest[1][0].Price)

	// Keyword 2: its single crawl is the latest
	require.Len(t, latest[2], 1)

	// Keyword 3: never crawled
	assert.Empty(t, latest[3])
}

func TestRankingRepository_DeleteOlderThan(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormRankingRepository(db)
	ctx := context.Background()

	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	old := cutoff.AddDate(0, 0, -40)
	fresh := cutoff.Add(time.Hour)

	rows := make([]*ranking.Ranking, 0, 7)
	for i := 0; i < 5; i++ {
		rows = append(rows, &ranking.Ranking{KeywordID: 1, Rank: i + 1, CrawledAt: old})
	}
	rows = append(rows,
		&ranking.Ranking{KeywordID: 1, Rank: 1, CrawledAt: fresh},
		&ranking.Ranking{KeywordID: 1, Rank: 2, CrawledAt: fresh})
	require.NoError(t, repo.InsertBatch(ctx, rows))

	// Bounded batches
	n, err := repo.DeleteOlderThan(ctx, cutoff, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.DeleteOlderThan(ctx, cutoff, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.DeleteOlderThan(ctx, cutoff, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Fresh rows stayed
	latest, err := repo.LatestByKeywords(ctx, []int{1})
	require.NoError(t, err)
	assert.Len(t, latest[1], 2)
}

func TestRankingRepository_SetRelevanceByListing(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormRankingRepository(db)
	keywords := persistence.NewGormKeywordRepository(db, 5)
	ctx := context.Background()

	mine := seedProduct(t, db, 1)
	other := seedProduct(t, db, 1)
	kwMine := &catalog.Keyword{ProductID: mine.ID, Text: "텀블러", SortMode: catalog.SortRelevance, IsActive: true}
	require.NoError(t, keywords.Save(ctx, kwMine))
	kwOther := &catalog.Keyword{ProductID: other.ID, Text: "텀블러", SortMode: catalog.SortRelevance, IsActive: true}
	require.NoError(t, keywords.Save(ctx, kwOther))

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.InsertBatch(ctx, []*ranking.Ranking{
		{KeywordID: kwMine.ID, Rank: 1, ListingID: "l-1", IsRelevant: true, CrawledAt: now},
		{KeywordID: kwOther.ID, Rank: 1, ListingID: "l-1", IsRelevant: true, CrawledAt: now},
	}))

	require.NoError(t, repo.SetRelevanceByListing(ctx, mine.ID, "l-1", false, ranking.ReasonManualBlacklist))

	latest, err := repo.LatestByKeywords(ctx, []int{kwMine.ID, kwOther.ID})
	require.NoError(t, err)

	// Only the blacklisting product's rows flip
	require.Len(t, latest[kwMine.ID], 1)
	assert.False(t, latest[kwMine.ID][0].IsRelevant)
	assert.Equal(t, ranking.ReasonManualBlacklist, latest[kwMine.ID][0].RelevanceReason)

	require.Len(t, latest[kwOther.ID], 1)
	assert.True(t, latest[kwOther.ID][0].IsRelevant)
}

func TestRankingRepository_DistinctBrandsAndCategories(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormRankingRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.InsertBatch(ctx, []*ranking.Ranking{
		{KeywordID: 1, Rank: 1, Brand: "Samsung", Maker: "삼성전자", Category1: "디지털", Category2: "냉장고", CrawledAt: now},
		{KeywordID: 1, Rank: 2, Brand: "samsung", Category1: "디지털", CrawledAt: now},
		{KeywordID: 1, Rank: 3, CrawledAt: now},
	}))

	brands, err := repo.DistinctBrands(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"samsung", "삼성전자"}, brands)

	categories, err := repo.DistinctCategories(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"디지털", "냉장고"}, categories)
}

func TestCrawlWriter_AtomicKeywordWrite(t *testing.T) {
	db := helpers.NewTestDB(t)
	writer := persistence.NewGormCrawlWriter(db)
	keywords := persistence.NewGormKeywordRepository(db, 5)
	products := persistence.NewGormProductRepository(db)
	crawlLogs := persistence.NewGormCrawlLogRepository(db)
	rankings := persistence.NewGormRankingRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, 1)
	kw := &catalog.Keyword{ProductID: product.ID, Text: "텀블러", SortMode: catalog.SortRelevance, IsActive: true}
	require.NoError(t, keywords.Save(ctx, kw))

	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	err := writer.PersistKeywordCrawl(ctx, &ranking.KeywordCrawlWrite{
		KeywordID:  kw.ID,
		Status:     "success",
		DurationMs: 1800,
		CrawledAt:  at,
		Rows: []*ranking.Ranking{
			{KeywordID: kw.ID, Rank: 1, ListingID: "comp-1", Price: 18000, IsRelevant: true, CrawledAt: at},
		},
		PriceUpdate: &ranking.SellingPriceUpdate{ProductID: product.ID, Price: 19500},
	})
	require.NoError(t, err)

	latest, err := rankings.LatestByKeywords(ctx, []int{kw.ID})
	require.NoError(t, err)
	assert.Len(t, latest[kw.ID], 1)

	reloaded, err := keywords.FindByID(ctx, kw.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.CrawlSuccess, reloaded.LastStatus)
	require.NotNil(t, reloaded.LastCrawledAt)

	updated, err := products.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 19500, updated.SellingPrice)

	logs, err := crawlLogs.ListByTenant(ctx, 1, 0, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "success", logs[0].Status)
	assert.Equal(t, 1800, logs[0].DurationMs)
}
