package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asimaster/pricerank/internal/adapters/persistence"
	"github.com/asimaster/pricerank/internal/application/export"
	"github.com/asimaster/pricerank/internal/domain/catalog"
	"github.com/asimaster/pricerank/internal/domain/ranking"
	"github.com/asimaster/pricerank/test/helpers"
)

func TestWriteTenantCSV(t *testing.T) {
	db := helpers.NewTestDB(t)
	ctx := context.Background()

	tenants := persistence.NewGormTenantRepository(db)
	products := persistence.NewGormProductRepository(db)
	keywords := persistence.NewGormKeywordRepository(db, 5)
	costItems := persistence.NewGormCostItemRepository(db)
	rankings := persistence.NewGormRankingRepository(db)
	blacklists := persistence.NewGormBlacklistRepository(db)

	tenant := &catalog.Tenant{Name: "멋진스토어", CrawlIntervalMinutes: 60}
	require.NoError(t, tenants.Save(ctx, tenant))

	product := &catalog.Product{
		TenantID:     tenant.ID,
		Name:         "텀블러",
		Category:     "주방용품",
		SellingPrice: 20000,
		CostPrice:    8000,
		OwnListingID: "own-1",
		PriceLocked:  true,
		IsActive:     true,
	}
	require.NoError(t, products.Save(ctx, product))

	kw := &catalog.Keyword{ProductID: product.ID, Text: "텀블러 500ml", SortMode: catalog.SortRelevance, IsPrimary: true, IsActive: true}
	require.NoError(t, keywords.Save(ctx, kw))

	require.NoError(t, costItems.Save(ctx, &catalog.CostItem{
		ProductID: product.ID, Name: "판매수수료", Type: catalog.CostPercent, Value: 5.5,
	}))

	crawledAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, rankings.InsertBatch(ctx, []*ranking.Ranking{
		{KeywordID: kw.ID, Rank: 1, Price: 18000, ShippingFee: 500, ListingID: "comp-1", IsRelevant: true, CrawledAt: crawledAt},
		{KeywordID: kw.ID, Rank: 2, Price: 15000, ListingID: "comp-2", IsRelevant: true, CrawledAt: crawledAt},
		{KeywordID: kw.ID, Rank: 3, Price: 19500, ListingID: "own-1", IsOwnStore: true, IsRelevant: true, RelevanceReason: ranking.ReasonMyProduct, CrawledAt: crawledAt},
		{KeywordID: kw.ID, Rank: 4, Price: 9000, ListingID: "comp-3", IsRelevant: false, CrawledAt: crawledAt},
	}))

	// comp-2 is blacklisted, so comp-1's total of 18,500 is the lowest
	require.NoError(t, blacklists.Add(ctx, &ranking.BlacklistEntry{ProductID: product.ID, ListingID: "comp-2"}))

	var buf bytes.Buffer
	require.NoError(t, export.NewService(products, keywords, costItems, rankings, blacklists).
		WriteTenantCSV(ctx, tenant.ID, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{
		"name", "category", "selling_price", "lowest_total", "gap", "gap_pct",
		"rank", "margin", "margin_pct", "status", "price_locked",
	}, rows[0])

	// gap 1500/18500 = 8.1%; margin 20000-8000-1100 = 10900 (54.5%)
	assert.Equal(t, []string{
		"텀블러", "주방용품", "20000", "18500", "1500", "8.1",
		"3", "10900", "54.5", "losing", "Y",
	}, rows[1])
}

func TestCompetitiveStatusBuckets(t *testing.T) {
	db := helpers.NewTestDB(t)
	ctx := context.Background()

	tenants := persistence.NewGormTenantRepository(db)
	products := persistence.NewGormProductRepository(db)
	keywords := persistence.NewGormKeywordRepository(db, 5)
	costItems := persistence.NewGormCostItemRepository(db)
	rankings := persistence.NewGormRankingRepository(db)
	blacklists := persistence.NewGormBlacklistRepository(db)
	svc := export.NewService(products, keywords, costItems, rankings, blacklists)

	tenant := &catalog.Tenant{Name: "상태가게", CrawlIntervalMinutes: 60}
	require.NoError(t, tenants.Save(ctx, tenant))

	crawledAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name       string
		selling    int
		competitor int // 0 means no competitor seen
		want       string
	}{
		{"수세미", 10000, 12000, "winning"},
		{"행주", 10000, 9800, "close"}, // 2.0% above
		{"고무장갑", 10000, 9000, "losing"},
		{"도마", 10000, 0, "winning"}, // nothing to lose to
	}
	for _, c := range cases {
		p := &catalog.Product{TenantID: tenant.ID, Name: c.name, SellingPrice: c.selling, IsActive: true}
		require.NoError(t, products.Save(ctx, p))
		kw := &catalog.Keyword{ProductID: p.ID, Text: c.name, SortMode: catalog.SortRelevance, IsPrimary: true, IsActive: true}
		require.NoError(t, keywords.Save(ctx, kw))
		if c.competitor > 0 {
			require.NoError(t, rankings.InsertBatch(ctx, []*ranking.Ranking{
				{KeywordID: kw.ID, Rank: 1, Price: c.competitor, ListingID: "c-" + c.name, IsRelevant: true, CrawledAt: crawledAt},
			}))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, svc.WriteTenantCSV(ctx, tenant.ID, &buf))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(cases)+1)

	statusByName := make(map[string]string)
	for _, row := range rows[1:] {
		statusByName[row[0]] = row[9]
	}
	for _, c := range cases {
		assert.Equal(t, c.want, statusByName[c.name], c.name)
	}
}
