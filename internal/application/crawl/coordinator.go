package crawl

import (
	"context"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/asimaster/pricerank/internal/domain/catalog"
	"github.com/asimaster/pricerank/internal/domain/ranking"
	"github.com/asimaster/pricerank/internal/domain/shared"
)

// Config bounds the fetch phase of a crawl run
type Config struct {
	MaxRetries          int
	DelayMin            time.Duration
	DelayMax            time.Duration
	Concurrency         int
	ShippingConcurrency int
}

// KeywordSummary is the per-keyword outcome reported to callers of
// CrawlProduct.
type KeywordSummary struct {
	KeywordID  int    `json:"keyword_id"`
	Keyword    string `json:"keyword"`
	ItemsCount int    `json:"items_count"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// TenantRunStats aggregates a tenant-wide run
type TenantRunStats struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// AlertChecker is invoked per product after its keywords have been persisted
type AlertChecker interface {
	CheckProduct(ctx context.Context, tenant *catalog.Tenant, product *catalog.Product, keywords []*catalog.Keyword) error
}

// Coordinator owns crawl runs. It guarantees at most one active run per
// tenant and per product (fail-fast locks), a bounded parallel fetch phase
// and a strictly serial persist phase.
type Coordinator struct {
	tenants       catalog.TenantRepository
	products      catalog.ProductRepository
	keywords      catalog.KeywordRepository
	blacklists    ranking.BlacklistRepository
	includes      ranking.IncludeOverrideRepository
	shipOverrides ranking.ShippingOverrideRepository
	writer        ranking.CrawlWriter
	client        ranking.SearchClient
	alerts        AlertChecker
	clock         shared.Clock
	cfg           Config

	tenantLocks  *scopeLocks
	productLocks *scopeLocks
}

// NewCoordinator wires a coordinator. alerts may be nil to disable the alert
// engine (used by some tests).
func NewCoordinator(
	tenants catalog.TenantRepository,
	products catalog.ProductRepository,
	keywords catalog.KeywordRepository,
	blacklists ranking.BlacklistRepository,
	includes ranking.IncludeOverrideRepository,
	shipOverrides ranking.ShippingOverrideRepository,
	writer ranking.CrawlWriter,
	client ranking.SearchClient,
	alerts AlertChecker,
	clock shared.Clock,
	cfg Config,
) *Coordinator {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	return &Coordinator{
		tenants:       tenants,
		products:      products,
		keywords:      keywords,
		blacklists:    blacklists,
		includes:      includes,
		shipOverrides: shipOverrides,
		writer:        writer,
		client:        client,
		alerts:        alerts,
		clock:         clock,
		cfg:           cfg,
		tenantLocks:   newScopeLocks("tenant"),
		productLocks:  newScopeLocks("product"),
	}
}

// CrawlProduct runs one on-demand crawl for a single product. A concurrent
// run for the same product fails fast with AlreadyRunningError; a concurrent
// tenant-wide run is tolerated (keyword dedup and the serial persist phase
// keep the overlap harmless).
func (c *Coordinator) CrawlProduct(ctx context.Context, productID int) ([]KeywordSummary, error) {
	if err := c.productLocks.Acquire(productID); err != nil {
		return nil, err
	}
	defer c.productLocks.Release(productID)

	product, err := c.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	tenant, err := c.tenants.FindByID(ctx, product.TenantID)
	if err != nil {
		return nil, err
	}
	keywords, err := c.keywords.ListActiveByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(keywords) == 0 {
		return nil, nil
	}

	plan, err := c.buildPlan(ctx, tenant, keywords)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, plan)
}

// CrawlTenant runs the full tenant on the scheduler's behalf
func (c *Coordinator) CrawlTenant(ctx context.Context, tenantID int) (*TenantRunStats, error) {
	if err := c.tenantLocks.Acquire(tenantID); err != nil {
		return nil, err
	}
	defer c.tenantLocks.Release(tenantID)

	tenant, err := c.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	keywords, err := c.keywords.ListActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	stats := &TenantRunStats{}
	if len(keywords) == 0 {
		return stats, nil
	}

	plan, err := c.buildPlan(ctx, tenant, keywords)
	if err != nil {
		return nil, err
	}
	summaries, err := c.run(ctx, plan)
	if err != nil {
		return nil, err
	}
	for _, s := range summaries {
		stats.Total++
		if s.Success {
			stats.Success++
		} else {
			stats.Failed++
		}
	}
	return stats, nil
}

// run executes the fetch and persist phases for a built plan and triggers
// the alert engine per product.
func (c *Coordinator) run(ctx context.Context, plan *runPlan) ([]KeywordSummary, error) {
	runID := uuid.NewString()[:8]
	log.Printf("[crawl %s] run start: tenant=%d keywords=%d searches=%d",
		runID, plan.tenant.ID, countKeywords(plan), len(plan.buckets))

	c.fetch(ctx, plan)
	summaries := c.persist(ctx, plan, runID)

	if c.alerts != nil {
		c.checkAlerts(ctx, plan, runID)
	}

	log.Printf("[crawl %s] run done", runID)
	return summaries, nil
}

// fetch fans the buckets out under the concurrency semaphore. Each bucket
// sleeps a uniform random jitter, then calls the marketplace with a bounded
// retry loop. Fetches never touch the database.
func (c *Coordinator) fetch(ctx context.Context, plan *runPlan) {
	enricher := newShippingEnricher(c.client, c.cfg.ShippingConcurrency, c.clock)
	sem := semaphore.NewWeighted(int64(c.cfg.Concurrency))

	done := make(chan struct{})
	for _, b := range plan.buckets {
		if err := sem.Acquire(ctx, 1); err != nil {
			b.fetchErr = err
			continue
		}
		go func(b *bucket) {
			defer sem.Release(1)
			c.fetchBucket(ctx, b, enricher)
		}(b)
	}
	go func() {
		// Draining the full weight waits for every in-flight fetch
		sem.Acquire(context.Background(), int64(c.cfg.Concurrency))
		close(done)
	}()
	<-done
}

func (c *Coordinator) fetchBucket(ctx context.Context, b *bucket, enricher *shippingEnricher) {
	start := c.clock.Now()
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		c.clock.Sleep(c.jitter())

		listings, err := c.client.Search(ctx, b.text, b.sortMode)
		if err == nil {
			enricher.Enrich(ctx, listings)
			b.listings = listings
			b.fetchErr = nil
			break
		}
		b.fetchErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < c.cfg.MaxRetries {
			log.Printf("[crawl] retry %d/%d for %q: %v", attempt, c.cfg.MaxRetries, b.text, err)
		}
	}
	b.durationMs = int(c.clock.Now().Sub(start) / time.Millisecond)
}

func (c *Coordinator) jitter() time.Duration {
	min, max := c.cfg.DelayMin, c.cfg.DelayMax
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// persist walks the fetched buckets sequentially (the single-writer
// invariant), committing one transaction per keyword. A persistence failure
// for one keyword is logged and skipped; the run continues.
func (c *Coordinator) persist(ctx context.Context, plan *runPlan, runID string) []KeywordSummary {
	var summaries []KeywordSummary
	for _, b := range plan.buckets {
		for _, kw := range b.keywords {
			summary := c.persistKeyword(ctx, plan, b, kw)
			if summary.Error != "" && !summary.Success {
				log.Printf("[crawl %s] keyword %d (%q) failed: %s", runID, kw.ID, kw.Text, summary.Error)
			}
			summaries = append(summaries, summary)
		}
	}
	return summaries
}

func (c *Coordinator) persistKeyword(ctx context.Context, plan *runPlan, b *bucket, kw *catalog.Keyword) KeywordSummary {
	now := c.clock.Now()
	write := &ranking.KeywordCrawlWrite{
		KeywordID:  kw.ID,
		DurationMs: b.durationMs,
		CrawledAt:  now,
	}

	if b.fetchErr != nil {
		write.Status = string(catalog.CrawlFailed)
		write.ErrorMessage = b.fetchErr.Error()
	} else {
		write.Status = string(catalog.CrawlSuccess)
		product := plan.products[kw.ProductID]
		write.Rows, write.PriceUpdate = c.buildRows(plan, product, kw, b.listings, now)
		if write.PriceUpdate != nil {
			// Keep the in-memory product in sync so the alert check that
			// follows compares against the updated price.
			product.SellingPrice = write.PriceUpdate.Price
		}
	}

	if err := c.writer.PersistKeywordCrawl(ctx, write); err != nil {
		return KeywordSummary{KeywordID: kw.ID, Keyword: kw.Text, Success: false, Error: err.Error()}
	}

	summary := KeywordSummary{
		KeywordID:  kw.ID,
		Keyword:    kw.Text,
		ItemsCount: len(write.Rows),
		Success:    b.fetchErr == nil,
	}
	if b.fetchErr != nil {
		summary.Error = b.fetchErr.Error()
	}
	return summary
}

// buildRows converts the bucket's listings into ranking rows for one
// keyword, applying shipping overrides, the relevance classifier and the
// own-price auto-update.
func (c *Coordinator) buildRows(plan *runPlan, product *catalog.Product, kw *catalog.Keyword, listings []*ranking.Listing, now time.Time) ([]*ranking.Ranking, *ranking.SellingPriceUpdate) {
	rc := plan.relevanceContext(product.ID)
	overrides := plan.shipOverrides[product.ID]

	var priceUpdate *ranking.SellingPriceUpdate
	rows := make([]*ranking.Ranking, 0, len(listings))
	for _, l := range listings {
		// Work on a copy: the listing is shared by every keyword in the
		// bucket but overrides are per product.
		item := *l
		if fee, ok := overrides[item.ListingID]; ok {
			item.ShippingFee = fee
			if fee > 0 {
				item.ShippingFeeType = ranking.ShippingPaid
			} else {
				item.ShippingFeeType = ranking.ShippingFree
			}
		}

		relevant, reason := ranking.Classify(&item, product, rc)

		// The only implicit catalog mutation in the pipeline: the tenant's
		// own listing reports a different non-zero price.
		if item.ListingID != "" && item.ListingID == product.OwnListingID &&
			item.Price != 0 && item.Price != product.SellingPrice {
			priceUpdate = &ranking.SellingPriceUpdate{ProductID: product.ID, Price: item.Price}
		}

		rows = append(rows, &ranking.Ranking{
			KeywordID:       kw.ID,
			Rank:            item.Rank,
			Title:           item.Title,
			Price:           item.Price,
			HighPrice:       item.HighPrice,
			Mall:            item.Mall,
			ListingID:       item.ListingID,
			URL:             item.URL,
			ImageURL:        item.ImageURL,
			Brand:           item.Brand,
			Maker:           item.Maker,
			ProductType:     item.ProductType,
			Category1:       item.Category1,
			Category2:       item.Category2,
			Category3:       item.Category3,
			Category4:       item.Category4,
			ShippingFee:     item.ShippingFee,
			ShippingFeeType: item.ShippingFeeType,
			IsOwnStore:      isOwnStore(item.Mall, plan.tenant.OwnStoreLabel),
			IsRelevant:      relevant,
			RelevanceReason: reason,
			CrawledAt:       now,
		})
	}
	return rows, priceUpdate
}

func isOwnStore(mall, label string) bool {
	if label == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(mall), strings.TrimSpace(label))
}

// checkAlerts invokes the alert engine once per product that had keywords in
// this run. Engine failures are logged, never propagated.
func (c *Coordinator) checkAlerts(ctx context.Context, plan *runPlan, runID string) {
	byProduct := make(map[int][]*catalog.Keyword)
	for _, b := range plan.buckets {
		for _, kw := range b.keywords {
			byProduct[kw.ProductID] = append(byProduct[kw.ProductID], kw)
		}
	}
	for productID, keywords := range byProduct {
		product := plan.products[productID]
		if product == nil {
			continue
		}
		if err := c.alerts.CheckProduct(ctx, plan.tenant, product, keywords); err != nil {
			log.Printf("[crawl %s] alert check failed for product %d: %v", runID, productID, err)
		}
	}
}

func countKeywords(plan *runPlan) int {
	n := 0
	for _, b := range plan.buckets {
		n += len(b.keywords)
	}
	return n
}
