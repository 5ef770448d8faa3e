package crawl_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asimaster/pricerank/internal/adapters/persistence"
	"github.com/asimaster/pricerank/internal/application/crawl"
	"github.com/asimaster/pricerank/internal/domain/catalog"
	"github.com/asimaster/pricerank/internal/domain/ranking"
	"github.com/asimaster/pricerank/internal/domain/shared"
	"github.com/asimaster/pricerank/test/helpers"
)

// fakeSearchClient serves a fixed listing set and counts searches per keyword
type fakeSearchClient struct {
	mu       sync.Mutex
	searches map[string]int
	listings []*ranking.Listing
	err      error
}

func (f *fakeSearchClient) Search(ctx context.Context, keyword string, sort catalog.SortMode) ([]*ranking.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches[keyword]++
	if f.err != nil {
		return nil, f.err
	}
	// Fresh copies so the pipeline's per-product mutation stays isolated
	out := make([]*ranking.Listing, len(f.listings))
	for i, l := range f.listings {
		c := *l
		out[i] = &c
	}
	return out, nil
}

func (f *fakeSearchClient) FetchShipping(ctx context.Context, listingURL string) (int, ranking.ShippingFeeType) {
	return 0, ranking.ShippingFree
}

func (f *fakeSearchClient) totalSearches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.searches {
		n += c
	}
	return n
}

// fakeAlertChecker records the product state at check time
type fakeAlertChecker struct {
	mu     sync.Mutex
	checks []checkedProduct
}

type checkedProduct struct {
	productID    int
	sellingPrice int
	keywordCount int
}

func (f *fakeAlertChecker) CheckProduct(ctx context.Context, tenant *catalog.Tenant, product *catalog.Product, keywords []*catalog.Keyword) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks = append(f.checks, checkedProduct{
		productID:    product.ID,
		sellingPrice: product.SellingPrice,
		keywordCount: len(keywords),
	})
	return nil
}

type fixture struct {
	tenants   *persistence.GormTenantRepository
	products  *persistence.GormProductRepository
	keywords  *persistence.GormKeywordRepository
	rankings  *persistence.GormRankingRepository
	crawlLogs *persistence.GormCrawlLogRepository

	tenant  *catalog.Tenant
	product *catalog.Product
	kw1     *catalog.Keyword
	kw2     *catalog.Keyword

	client  *fakeSearchClient
	alerts  *fakeAlertChecker
	clock   *shared.MockClock
	subject *crawl.Coordinator
}

func newFixture(t *testing.T) *fixture {
	db := helpers.NewTestDB(t)
	ctx := context.Background()

	f := &fixture{
		tenants:   persistence.NewGormTenantRepository(db),
		products:  persistence.NewGormProductRepository(db),
		keywords:  persistence.NewGormKeywordRepository(db, 5),
		rankings:  persistence.NewGormRankingRepository(db),
		crawlLogs: persistence.NewGormCrawlLogRepository(db),
		client: &fakeSearchClient{
			searches: make(map[string]int),
			listings: []*ranking.Listing{
				{Rank: 1, Title: "텀블러 500ml", Price: 18000, Mall: "경쟁몰", ListingID: "comp-1", URL: "u-1"},
				{Rank: 2, Title: "텀블러 500ml", Price: 19500, Mall: "멋진스토어", ListingID: "own-1", URL: "u-2"},
			},
		},
		alerts: &fakeAlertChecker{},
		clock:  shared.NewMockClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)),
	}

	f.tenant = &catalog.Tenant{Name: "멋진스토어", OwnStoreLabel: "멋진스토어", CrawlIntervalMinutes: 60}
	require.NoError(t, f.tenants.Save(ctx, f.tenant))

	f.product = &catalog.Product{
		TenantID:     f.tenant.ID,
		Name:         "텀블러",
		SellingPrice: 20000,
		OwnListingID: "own-1",
		IsActive:     true,
	}
	require.NoError(t, f.products.Save(ctx, f.product))

	f.kw1 = &catalog.Keyword{ProductID: f.product.ID, Text: "텀블러 500ml", SortMode: catalog.SortRelevance, IsPrimary: true, IsActive: true}
	require.NoError(t, f.keywords.Save(ctx, f.kw1))
	f.kw2 = &catalog.Keyword{ProductID: f.product.ID, Text: "  텀블러 500ML ", SortMode: catalog.SortRelevance, IsActive: true}
	require.NoError(t, f.keywords.Save(ctx, f.kw2))

	f.subject = crawl.NewCoordinator(
		f.tenants, f.products, f.keywords,
		persistence.NewGormBlacklistRepository(db),
		persistence.NewGormIncludeOverrideRepository(db),
		persistence.NewGormShippingOverrideRepository(db),
		persistence.NewGormCrawlWriter(db),
		f.client, f.alerts, f.clock,
		crawl.Config{MaxRetries: 2, Concurrency: 2, ShippingConcurrency: 2})
	return f
}

func TestCoordinator_CrawlProduct_Pipeline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	summaries, err := f.subject.CrawlProduct(ctx, f.product.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	for _, s := range summaries {
		assert.True(t, s.Success)
		assert.Equal(t, 2, s.ItemsCount)
	}

	// Equivalent keywords share one marketplace call
	assert.Equal(t, 1, f.client.totalSearches())

	// Both keywords received the identical listing set
	latest, err := f.rankings.LatestByKeywords(ctx, []int{f.kw1.ID, f.kw2.ID})
	require.NoError(t, err)
	require.Len(t, latest[f.kw1.ID], 2)
	require.Len(t, latest[f.kw2.ID], 2)

	for _, row := range latest[f.kw1.ID] {
		switch row.ListingID {
		case "comp-1":
			assert.True(t, row.IsRelevant)
			assert.False(t, row.IsOwnStore)
		case "own-1":
			// Own listing: excluded from competitors, flagged as own store
			assert.False(t, row.IsRelevant)
			assert.Equal(t, ranking.ReasonMyProduct, row.RelevanceReason)
			assert.True(t, row.IsOwnStore)
		default:
			t.Fatalf("unexpected listing %q", row.ListingID)
		}
	}

	// The own listing reported 19500, so the selling price follows
	updated, err := f.products.FindByID(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 19500, updated.SellingPrice)

	// Keyword status and crawl log reflect the run
	kw, err := f.keywords.FindByID(ctx, f.kw1.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.CrawlSuccess, kw.LastStatus)
	require.NotNil(t, kw.LastCrawledAt)

	logs, err := f.crawlLogs.ListByTenant(ctx, f.tenant.ID, 0, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	// The alert check saw the product once, with the updated price
	require.Len(t, f.alerts.checks, 1)
	assert.Equal(t, f.product.ID, f.alerts.checks[0].productID)
	assert.Equal(t, 19500, f.alerts.checks[0].sellingPrice)
	assert.Equal(t, 2, f.alerts.checks[0].keywordCount)
}

func TestCoordinator_CrawlTenant_SharesSearchAcrossProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A second product of the same tenant tracking the same keyword text
	other := &catalog.Product{
		TenantID:     f.tenant.ID,
		Name:         "텀블러 미니",
		SellingPrice: 15000,
		IsActive:     true,
	}
	require.NoError(t, f.products.Save(ctx, other))
	otherKw := &catalog.Keyword{ProductID: other.ID, Text: "텀블러 500ml", SortMode: catalog.SortRelevance, IsPrimary: true, IsActive: true}
	require.NoError(t, f.keywords.Save(ctx, otherKw))

	stats, err := f.subject.CrawlTenant(ctx, f.tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, &crawl.TenantRunStats{Total: 3, Success: 3}, stats)

	// One marketplace call serves all three keywords across both products
	assert.Equal(t, 1, f.client.totalSearches())

	latest, err := f.rankings.LatestByKeywords(ctx, []int{f.kw1.ID, f.kw2.ID, otherKw.ID})
	require.NoError(t, err)
	require.Len(t, latest[f.kw1.ID], 2)
	require.Len(t, latest[f.kw2.ID], 2)
	require.Len(t, latest[otherKw.ID], 2)

	// Relevance is still judged per product: own-1 belongs to the tenant, so
	// it is excluded for the second product as well
	for _, row := range latest[otherKw.ID] {
		if row.ListingID == "own-1" {
			assert.False(t, row.IsRelevant)
			assert.Equal(t, ranking.ReasonMyProduct, row.RelevanceReason)
		}
	}
}

func TestCoordinator_CrawlTenant_Stats(t *testing.T) {
	f := newFixture(t)

	stats, err := f.subject.CrawlTenant(context.Background(), f.tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, &crawl.TenantRunStats{Total: 2, Success: 2}, stats)
}

func TestCoordinator_FetchFailureIsRecorded(t *testing.T) {
	f := newFixture(t)
	f.client.err = context.DeadlineExceeded
	ctx := context.Background()

	summaries, err := f.subject.CrawlProduct(ctx, f.product.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	for _, s := range summaries {
		assert.False(t, s.Success)
		assert.NotEmpty(t, s.Error)
	}

	// Retries exhausted: MaxRetries attempts per search bucket
	assert.Equal(t, 2, f.client.totalSearches())

	kw, err := f.keywords.FindByID(ctx, f.kw1.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.CrawlFailed, kw.LastStatus)

	// No ranking rows were written
	latest, err := f.rankings.LatestByKeywords(ctx, []int{f.kw1.ID})
	require.NoError(t, err)
	assert.Empty(t, latest[f.kw1.ID])
}

func TestCoordinator_NoActiveKeywords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Deactivate via direct save
	f.kw2.IsActive = false
	require.NoError(t, f.keywords.Save(ctx, f.kw2))
	f.kw1.IsActive = false
	require.NoError(t, f.keywords.Save(ctx, f.kw1))

	summaries, err := f.subject.CrawlProduct(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.Equal(t, 0, f.client.totalSearches())
}
