package catalog

import "time"

// Tenant is a business account monitoring its products on the marketplace.
// There is no authentication; the integer id identifies the tenant.
type Tenant struct {
	ID                   int
	Name                 string
	OwnStoreLabel        string // storefront identity on the marketplace, matched against listing malls
	CrawlIntervalMinutes int    // 0 disables scheduling
	CreatedAt            time.Time
}

// SchedulingEnabled reports whether the scheduler should consider this tenant
func (t *Tenant) SchedulingEnabled() bool {
	return t.CrawlIntervalMinutes > 0
}

// Due reports whether the tenant's next crawl is due, given the most recent
// keyword crawl instant. A tenant that has never been crawled is always due.
func (t *Tenant) Due(lastCrawledAt *time.Time, now time.Time) bool {
	if !t.SchedulingEnabled() {
		return false
	}
	if lastCrawledAt == nil {
		return true
	}
	interval := time.Duration(t.CrawlIntervalMinutes) * time.Minute
	return now.Sub(*lastCrawledAt) >= interval
}
