package catalog

import (
	"strings"
	"time"
)

// SortMode selects the marketplace search ordering for a keyword
type SortMode string

const (
	SortRelevance SortMode = "relevance"
	SortPriceAsc  SortMode = "price_asc"
)

// CrawlStatus is the outcome of a keyword's most recent crawl
type CrawlStatus string

const (
	CrawlPending CrawlStatus = "pending"
	CrawlSuccess CrawlStatus = "success"
	CrawlFailed  CrawlStatus = "failed"
)

// Keyword is one search term registered under a product. At most
// MaxKeywordsPerProduct may be active per product; the primary keyword cannot
// be deleted.
type Keyword struct {
	ID            int
	ProductID     int
	Text          string
	SortMode      SortMode
	IsPrimary     bool
	IsActive      bool
	LastCrawledAt *time.Time
	LastStatus    CrawlStatus
	CreatedAt     time.Time
}

// DedupKey identifies keywords that share a marketplace search. Two keywords
// with the same key receive identical listing sets within one run.
func (k *Keyword) DedupKey() string {
	return strings.ToLower(strings.TrimSpace(k.Text)) + "\x00" + string(k.SortMode)
}
