package crawl

import (
	"context"
	"time"

	"github.com/asimaster/pricerank/internal/domain/catalog"
	"github.com/asimaster/pricerank/internal/domain/ranking"
	"github.com/asimaster/pricerank/internal/domain/shared"
)

// TenantStatus is the crawl-status payload for one tenant
type TenantStatus struct {
	TotalKeywords  int `json:"total_keywords"`
	Last24hSuccess int `json:"last_24h_success"`
	Last24hFailed  int `json:"last_24h_failed"`
	AvgDurationMs  int `json:"avg_duration_ms"`
}

// StatusReader serves the crawl status and log read side
type StatusReader struct {
	keywords  catalog.KeywordRepository
	crawlLogs ranking.CrawlLogRepository
	clock     shared.Clock
}

func NewStatusReader(keywords catalog.KeywordRepository, crawlLogs ranking.CrawlLogRepository, clock shared.Clock) *StatusReader {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &StatusReader{keywords: keywords, crawlLogs: crawlLogs, clock: clock}
}

// TenantStatus aggregates keyword count and 24-hour crawl-log stats
func (r *StatusReader) TenantStatus(ctx context.Context, tenantID int) (*TenantStatus, error) {
	keywords, err := r.keywords.ListActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	stats, err := r.crawlLogs.StatsSince(ctx, tenantID, r.clock.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	return &TenantStatus{
		TotalKeywords:  len(keywords),
		Last24hSuccess: stats.Success,
		Last24hFailed:  stats.Failed,
		AvgDurationMs:  stats.AvgDurationMs,
	}, nil
}

// Logs returns a page of the tenant's crawl log, newest first
func (r *StatusReader) Logs(ctx context.Context, tenantID, offset, limit int) ([]*ranking.CrawlLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return r.crawlLogs.ListByTenant(ctx, tenantID, offset, limit)
}
