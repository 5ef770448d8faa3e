package ranking

import "time"

// Ranking is one persisted row per (keyword, crawl instant, listing position).
// Rows are immutable after write except for the retro-applied relevance and
// shipping-fee corrections triggered by blacklist/override edits.
type Ranking struct {
	ID              int
	KeywordID       int
	Rank            int
	Title           string
	Price           int
	HighPrice       int
	Mall            string
	ListingID       string
	URL             string
	ImageURL        string
	Brand           string
	Maker           string
	ProductType     string
	Category1       string
	Category2       string
	Category3       string
	Category4       string
	ShippingFee     int
	ShippingFeeType ShippingFeeType
	IsOwnStore      bool
	IsRelevant      bool
	RelevanceReason Reason
	CrawledAt       time.Time
}

// Total is the row's effective competitor price
func (r *Ranking) Total() int {
	return r.Price + r.ShippingFee
}

// BlacklistEntry suppresses a listing from competitor stats for one product
type BlacklistEntry struct {
	ID        int
	ProductID int
	ListingID string
	Title     string // denormalized for display
	Mall      string // denormalized for display
	CreatedAt time.Time
}

// IncludeOverride forces a listing to count as a competitor, bypassing the
// automatic filters.
type IncludeOverride struct {
	ID        int
	ProductID int
	ListingID string
	CreatedAt time.Time
}

// ShippingOverride pins a listing's shipping fee for one product, replacing
// the scraped value at write time.
type ShippingOverride struct {
	ID        int
	ProductID int
	ListingID string
	Fee       int
	CreatedAt time.Time
}

// CrawlLog is one append-only record per keyword crawl attempt
type CrawlLog struct {
	ID           int
	KeywordID    int
	Status       string
	ErrorMessage string
	DurationMs   int
	CreatedAt    time.Time
}
