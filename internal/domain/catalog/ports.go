package catalog

import (
	"context"
	"time"
)

// MaxKeywordsPerProduct is the default active-keyword limit; configurable via
// MAX_KEYWORDS_PER_PRODUCT.
const MaxKeywordsPerProduct = 5

// TenantRepository defines persistence for tenants
type TenantRepository interface {
	FindByID(ctx context.Context, id int) (*Tenant, error)
	ListAll(ctx context.Context) ([]*Tenant, error)
	Save(ctx context.Context, tenant *Tenant) error
	Delete(ctx context.Context, id int) error
}

// ProductRepository defines persistence for catalog products
type ProductRepository interface {
	FindByID(ctx context.Context, id int) (*Product, error)
	FindByIDs(ctx context.Context, ids []int) (map[int]*Product, error)
	ListActiveByTenant(ctx context.Context, tenantID int) ([]*Product, error)
	Save(ctx context.Context, product *Product) error
	// UpdateSellingPrice applies the own-price auto-update observed during a
	// crawl without touching other fields.
	UpdateSellingPrice(ctx context.Context, productID, sellingPrice int) error
	Delete(ctx context.Context, id int) error
}

// KeywordRepository defines persistence for search keywords
type KeywordRepository interface {
	FindByID(ctx context.Context, id int) (*Keyword, error)
	ListActiveByProduct(ctx context.Context, productID int) ([]*Keyword, error)
	ListActiveByTenant(ctx context.Context, tenantID int) ([]*Keyword, error)
	CountActiveByProduct(ctx context.Context, productID int) (int, error)
	// LatestCrawledAt returns the most recent LastCrawledAt across the
	// tenant's keywords, or nil if the tenant was never crawled.
	LatestCrawledAt(ctx context.Context, tenantID int) (*time.Time, error)
	// MarkCrawled records the outcome of one crawl attempt on the keyword.
	MarkCrawled(ctx context.Context, keywordID int, status CrawlStatus, at time.Time) error
	Save(ctx context.Context, keyword *Keyword) error
	Delete(ctx context.Context, id int) error
}
