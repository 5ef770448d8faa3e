package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asimaster/pricerank/internal/adapters/httpapi"
	"github.com/asimaster/pricerank/internal/adapters/persistence"
	"github.com/asimaster/pricerank/internal/application/crawl"
	"github.com/asimaster/pricerank/internal/application/export"
	"github.com/asimaster/pricerank/internal/application/health"
	"github.com/asimaster/pricerank/internal/application/keywords"
	"github.com/asimaster/pricerank/internal/domain/catalog"
	"github.com/asimaster/pricerank/internal/domain/ranking"
	"github.com/asimaster/pricerank/internal/domain/shared"
	"github.com/asimaster/pricerank/internal/infrastructure/database"
	"github.com/asimaster/pricerank/test/helpers"
)

type apiFixture struct {
	handler  http.Handler
	tenants  *persistence.GormTenantRepository
	products *persistence.GormProductRepository
	keywords *persistence.GormKeywordRepository
	rankings *persistence.GormRankingRepository
	clock    *shared.MockClock
}

func newAPIFixture(t *testing.T) *apiFixture {
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	tenants := persistence.NewGormTenantRepository(db)
	products := persistence.NewGormProductRepository(db)
	kws := persistence.NewGormKeywordRepository(db, 5)
	costItems := persistence.NewGormCostItemRepository(db)
	costPresets := persistence.NewGormCostPresetRepository(db)
	rankings := persistence.NewGormRankingRepository(db)
	crawlLogs := persistence.NewGormCrawlLogRepository(db)
	blacklists := persistence.NewGormBlacklistRepository(db)
	includes := persistence.NewGormIncludeOverrideRepository(db)
	shipOverrides := persistence.NewGormShippingOverrideRepository(db)
	alerts := persistence.NewGormAlertRepository(db)
	alertSettings := persistence.NewGormAlertSettingRepository(db)
	subscriptions := persistence.NewGormPushSubscriptionRepository(db)

	server := httpapi.NewServer(httpapi.ServerDeps{
		Status:        crawl.NewStatusReader(kws, crawlLogs, clock),
		Health:        health.NewService(database.NewPinger(db), crawlLogs, func() bool { return true }, clock),
		Exporter:      export.NewService(products, kws, costItems, rankings, blacklists),
		Suggester:     keywords.NewSuggester(nil),
		Tenants:       tenants,
		Products:      products,
		Keywords:      kws,
		CostItems:     costItems,
		CostPresets:   costPresets,
		Rankings:      rankings,
		Blacklists:    blacklists,
		Includes:      includes,
		ShipOverrides: shipOverrides,
		Alerts:        alerts,
		AlertSettings: alertSettings,
		Subscriptions: subscriptions,
	})
	return &apiFixture{
		handler:  server.Routes(),
		tenants:  tenants,
		products: products,
		keywords: kws,
		rankings: rankings,
		clock:    clock,
	}
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) seedProduct(t *testing.T) *catalog.Product {
	t.Helper()
	ctx := context.Background()
	tenant := &catalog.Tenant{Name: "멋진스토어", CrawlIntervalMinutes: 60}
	require.NoError(t, f.tenants.Save(ctx, tenant))
	product := &catalog.Product{TenantID: tenant.ID, Name: "텀블러", SellingPrice: 20000, IsActive: true}
	require.NoError(t, f.products.Save(ctx, product))
	return product
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "healthy", report["status"])
}

func TestTenantLifecycle(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/users/", map[string]interface{}{
		"name": "멋진스토어", "own_store_label": "멋진스토어", "crawl_interval_minutes": 60,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created catalog.Tenant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	rec = f.do(t, http.MethodGet, "/users/"+strconv.Itoa(created.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPut, "/users/"+strconv.Itoa(created.ID), map[string]interface{}{
		"name": "더멋진스토어", "crawl_interval_minutes": 120,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated catalog.Tenant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "더멋진스토어", updated.Name)
	assert.Equal(t, 120, updated.CrawlIntervalMinutes)

	rec = f.do(t, http.MethodDelete, "/users/"+strconv.Itoa(created.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/users/"+strconv.Itoa(created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTenant_Validation(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/users/", map[string]interface{}{"own_store_label": "이름없음"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateProduct_RejectsNegativeCost(t *testing.T) {
	f := newAPIFixture(t)
	product := f.seedProduct(t)

	rec := f.do(t, http.MethodPost, "/products/", map[string]interface{}{
		"tenant_id": product.TenantID, "name": "보온병", "cost_price": -1, "selling_price": 15000,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKeywordEndpoints_CapAndPrimary(t *testing.T) {
	f := newAPIFixture(t)
	product := f.seedProduct(t)
	base := "/products/" + strconv.Itoa(product.ID) + "/keywords"

	rec := f.do(t, http.MethodPost, base, map[string]interface{}{"text": "텀블러 500ml", "is_primary": true})
	require.Equal(t, http.StatusCreated, rec.Code)
	var primary catalog.Keyword
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &primary))

	for i := 0; i < 4; i++ {
		rec = f.do(t, http.MethodPost, base, map[string]interface{}{"text": "텀블러 " + strconv.Itoa(i)})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	// Sixth active keyword goes over the cap
	rec = f.do(t, http.MethodPost, base, map[string]interface{}{"text": "텀블러 초과분"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, base, map[string]interface{}{"text": "텀블러", "sort_mode": "cheapest"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The primary keyword cannot be deleted
	rec = f.do(t, http.MethodDelete, "/keywords/"+strconv.Itoa(primary.ID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlacklistRetroAppliesRelevance(t *testing.T) {
	f := newAPIFixture(t)
	product := f.seedProduct(t)
	ctx := context.Background()

	kw := &catalog.Keyword{ProductID: product.ID, Text: "텀블러", SortMode: catalog.SortRelevance, IsPrimary: true, IsActive: true}
	require.NoError(t, f.keywords.Save(ctx, kw))
	require.NoError(t, f.rankings.InsertBatch(ctx, []*ranking.Ranking{
		{KeywordID: kw.ID, Rank: 1, Price: 18000, ListingID: "comp-1", IsRelevant: true, CrawledAt: f.clock.Now()},
	}))

	rec := f.do(t, http.MethodPost, "/products/"+strconv.Itoa(product.ID)+"/blacklist",
		map[string]interface{}{"listing_id": "comp-1", "mall": "경쟁몰"})
	require.Equal(t, http.StatusCreated, rec.Code)

	latest, err := f.rankings.LatestByKeywords(ctx, []int{kw.ID})
	require.NoError(t, err)
	require.Len(t, latest[kw.ID], 1)
	assert.False(t, latest[kw.ID][0].IsRelevant)
	assert.Equal(t, ranking.ReasonManualBlacklist, latest[kw.ID][0].RelevanceReason)

	// Removing the entry reclassifies the listing instead of leaving the
	// manual verdict behind
	rec = f.do(t, http.MethodDelete, "/products/"+strconv.Itoa(product.ID)+"/blacklist/comp-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	latest, err = f.rankings.LatestByKeywords(ctx, []int{kw.ID})
	require.NoError(t, err)
	require.Len(t, latest[kw.ID], 1)
	assert.True(t, latest[kw.ID][0].IsRelevant)
	assert.Equal(t, ranking.ReasonNone, latest[kw.ID][0].RelevanceReason)
}

func TestIncludeOverrideRemovalRestoresAutomaticVerdict(t *testing.T) {
	f := newAPIFixture(t)
	product := f.seedProduct(t)
	ctx := context.Background()

	// Floor at 50% of the 20000 selling price, so an 8000 total is filtered
	minPct := 50.0
	product.PriceFilterMinPct = &minPct
	require.NoError(t, f.products.Save(ctx, product))

	kw := &catalog.Keyword{ProductID: product.ID, Text: "텀블러", SortMode: catalog.SortRelevance, IsPrimary: true, IsActive: true}
	require.NoError(t, f.keywords.Save(ctx, kw))
	require.NoError(t, f.rankings.InsertBatch(ctx, []*ranking.Ranking{
		{KeywordID: kw.ID, Rank: 1, Price: 8000, ListingID: "cheap-1",
			IsRelevant: false, RelevanceReason: ranking.ReasonPriceFilterMin, CrawledAt: f.clock.Now()},
	}))

	rec := f.do(t, http.MethodPost, "/products/"+strconv.Itoa(product.ID)+"/include-overrides",
		map[string]interface{}{"listing_id": "cheap-1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	latest, err := f.rankings.LatestByKeywords(ctx, []int{kw.ID})
	require.NoError(t, err)
	require.Len(t, latest[kw.ID], 1)
	assert.True(t, latest[kw.ID][0].IsRelevant)
	assert.Equal(t, ranking.ReasonIncludedOverride, latest[kw.ID][0].RelevanceReason)

	rec = f.do(t, http.MethodDelete, "/products/"+strconv.Itoa(product.ID)+"/include-overrides/cheap-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The price filter takes over again once the override is gone
	latest, err = f.rankings.LatestByKeywords(ctx, []int{kw.ID})
	require.NoError(t, err)
	require.Len(t, latest[kw.ID], 1)
	assert.False(t, latest[kw.ID][0].IsRelevant)
	assert.Equal(t, ranking.ReasonPriceFilterMin, latest[kw.ID][0].RelevanceReason)
}

func TestShippingOverrideUpdatesRankings(t *testing.T) {
	f := newAPIFixture(t)
	product := f.seedProduct(t)
	ctx := context.Background()

	kw := &catalog.Keyword{ProductID: product.ID, Text: "텀블러", SortMode: catalog.SortRelevance, IsPrimary: true, IsActive: true}
	require.NoError(t, f.keywords.Save(ctx, kw))
	require.NoError(t, f.rankings.InsertBatch(ctx, []*ranking.Ranking{
		{KeywordID: kw.ID, Rank: 1, Price: 18000, ListingID: "comp-1", IsRelevant: true, CrawledAt: f.clock.Now()},
	}))

	rec := f.do(t, http.MethodPut, "/products/"+strconv.Itoa(product.ID)+"/shipping-overrides",
		map[string]interface{}{"listing_id": "comp-1", "fee": 3000})
	require.Equal(t, http.StatusOK, rec.Code)

	latest, err := f.rankings.LatestByKeywords(ctx, []int{kw.ID})
	require.NoError(t, err)
	require.Len(t, latest[kw.ID], 1)
	assert.Equal(t, 3000, latest[kw.ID][0].ShippingFee)

	rec = f.do(t, http.MethodPut, "/products/"+strconv.Itoa(product.ID)+"/shipping-overrides",
		map[string]interface{}{"listing_id": "comp-1", "fee": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportEndpointStreamsCSV(t *testing.T) {
	f := newAPIFixture(t)
	product := f.seedProduct(t)

	rec := f.do(t, http.MethodGet, "/users/"+strconv.Itoa(product.TenantID)+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Body.String(), "name,category,selling_price")
	assert.Contains(t, rec.Body.String(), "텀블러")
}

func TestSuggestEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/keywords/suggest?name="+url.QueryEscape("삼성 냉장고 870L")+"&count=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Keywords []keywords.Suggestion `json:"keywords"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Keywords)
	assert.LessOrEqual(t, len(payload.Keywords), 3)

	rec = f.do(t, http.MethodGet, "/keywords/suggest", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
