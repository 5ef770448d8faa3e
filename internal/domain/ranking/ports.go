package ranking

import (
	"context"
	"time"

	"github.com/asimaster/pricerank/internal/domain/catalog"
)

// SearchClient is the marketplace-facing port: one-shot keyword search plus
// the per-listing shipping-page scrape. Implementations are safe for
// concurrent use.
type SearchClient interface {
	// Search returns the top listings for the keyword in marketplace order.
	// Failure kinds: missing credentials, non-2xx status, empty result set.
	Search(ctx context.Context, keyword string, sort catalog.SortMode) ([]*Listing, error)
	// FetchShipping scrapes the shipping fee from a listing's product page.
	// URLs outside the allowed marketplace-store host set return (0, unknown);
	// parse failures return (0, error).
	FetchShipping(ctx context.Context, listingURL string) (int, ShippingFeeType)
}

// RankChange holds the own-store minimum rank at the two most recent distinct
// crawl instants of one keyword.
type RankChange struct {
	KeywordID    int
	CurrentAt    time.Time
	CurrentRank  int
	PreviousAt   time.Time
	PreviousRank int
}

// DailyLow is one sparkline point: the per-day minimum of price+shipping_fee
type DailyLow struct {
	Day   time.Time
	Total int
}

// CrawlStats aggregates CrawlLog rows for the status and health endpoints
type CrawlStats struct {
	Success       int
	Failed        int
	AvgDurationMs int
}

// SellingPriceUpdate is the own-price auto-update observed during a crawl,
// applied in the same transaction as the keyword's ranking rows.
type SellingPriceUpdate struct {
	ProductID int
	Price     int
}

// KeywordCrawlWrite is everything persisted for one keyword in one run: the
// ranking rows, the keyword status mutation, the crawl log row and an
// optional selling-price update. The writer commits it as one transaction so
// a failure for one keyword never invalidates the rest of the run.
type KeywordCrawlWrite struct {
	KeywordID    int
	Status       string
	ErrorMessage string
	DurationMs   int
	CrawledAt    time.Time
	Rows         []*Ranking
	PriceUpdate  *SellingPriceUpdate
}

// CrawlWriter persists one keyword's crawl outcome atomically
type CrawlWriter interface {
	PersistKeywordCrawl(ctx context.Context, w *KeywordCrawlWrite) error
}

// RankingRepository defines persistence for ranking rows and the batched
// read-side queries the alert engine and reports consume.
type RankingRepository interface {
	// InsertBatch appends all rows of one keyword crawl in order
	InsertBatch(ctx context.Context, rows []*Ranking) error
	// LatestByKeywords returns, per keyword, the rows sharing
	// MAX(crawled_at) for that keyword.
	LatestByKeywords(ctx context.Context, keywordIDs []int) (map[int][]*Ranking, error)
	// OwnRankingsSince returns own-store rows (is_own_store or a registered
	// own listing id) for the keyword set, newest first.
	OwnRankingsSince(ctx context.Context, keywordIDs []int, ownListingIDs []string, since time.Time) ([]*Ranking, error)
	// DailyLowestTotals returns the per-day minimum relevant total over the
	// window, excluding blacklisted listings.
	DailyLowestTotals(ctx context.Context, keywordIDs []int, since time.Time) ([]DailyLow, error)
	// DeleteOlderThan removes at most limit rows crawled before the cutoff
	// and reports how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int, error)
	// DistinctBrands returns lowercase distinct brand and maker values
	DistinctBrands(ctx context.Context) ([]string, error)
	// DistinctCategories returns lowercase distinct category1..4 values
	DistinctCategories(ctx context.Context) ([]string, error)
	// ListByProductListing returns extant rows of the product's keywords
	// matching the listing id, oldest first.
	ListByProductListing(ctx context.Context, productID int, listingID string) ([]*Ranking, error)
	// SetRelevanceByListing retro-applies a relevance verdict to extant rows
	// of the product's keywords matching the listing id.
	SetRelevanceByListing(ctx context.Context, productID int, listingID string, relevant bool, reason Reason) error
	// UpdateRelevance sets the relevance verdict on one row
	UpdateRelevance(ctx context.Context, rankingID int, relevant bool, reason Reason) error
	// SetShippingFeeByListing retro-applies a shipping override to extant
	// rows of the product's keywords matching the listing id.
	SetShippingFeeByListing(ctx context.Context, productID int, listingID string, fee int) error
}

// CrawlLogRepository defines persistence for the append-only crawl log
type CrawlLogRepository interface {
	Append(ctx context.Context, log *CrawlLog) error
	// StatsSince aggregates log rows for one tenant; tenantID <= 0 spans all
	// tenants (used by the health rollup).
	StatsSince(ctx context.Context, tenantID int, since time.Time) (*CrawlStats, error)
	// LastCreatedAt returns the newest log instant across all tenants, or nil
	// when no crawl ever ran.
	LastCreatedAt(ctx context.Context) (*time.Time, error)
	ListByTenant(ctx context.Context, tenantID, offset, limit int) ([]*CrawlLog, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// BlacklistRepository defines persistence for per-product blacklist entries
type BlacklistRepository interface {
	ListByProduct(ctx context.Context, productID int) ([]*BlacklistEntry, error)
	// MapByProducts returns listing-id sets per product in one batched query
	MapByProducts(ctx context.Context, productIDs []int) (map[int]map[string]bool, error)
	Add(ctx context.Context, entry *BlacklistEntry) error
	Remove(ctx context.Context, productID int, listingID string) error
}

// IncludeOverrideRepository defines persistence for include-overrides
type IncludeOverrideRepository interface {
	ListByProduct(ctx context.Context, productID int) ([]*IncludeOverride, error)
	MapByProducts(ctx context.Context, productIDs []int) (map[int]map[string]bool, error)
	Add(ctx context.Context, override *IncludeOverride) error
	Remove(ctx context.Context, productID int, listingID string) error
}

// ShippingOverrideRepository defines persistence for shipping overrides
type ShippingOverrideRepository interface {
	ListByProduct(ctx context.Context, productID int) ([]*ShippingOverride, error)
	// MapByProducts returns listing-id→fee maps per product in one query
	MapByProducts(ctx context.Context, productIDs []int) (map[int]map[string]int, error)
	Upsert(ctx context.Context, override *ShippingOverride) error
	Remove(ctx context.Context, productID int, listingID string) error
}
