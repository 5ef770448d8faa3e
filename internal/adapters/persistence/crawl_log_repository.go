package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/asimaster/pricerank/internal/domain/ranking"
)

// GormCrawlLogRepository implements CrawlLogRepository using GORM
type GormCrawlLogRepository struct {
	db *gorm.DB
}

// NewGormCrawlLogRepository creates a new GORM crawl log repository
func NewGormCrawlLogRepository(db *gorm.DB) *GormCrawlLogRepository {
	return &GormCrawlLogRepository{db: db}
}

// Append persists one crawl log row
func (r *GormCrawlLogRepository) Append(ctx context.Context, entry *ranking.CrawlLog) error {
	model := crawlLogEntityToModel(entry)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		return fmt.Errorf("failed to append crawl log: %w", result.Error)
	}
	entry.ID = model.ID
	return nil
}

// StatsSince aggregates log rows since the cutoff; tenantID <= 0 spans all
// tenants.
func (r *GormCrawlLogRepository) StatsSince(ctx context.Context, tenantID int, since time.Time) (*ranking.CrawlStats, error) {
	type row struct {
		Status string
		Count  int
		AvgMs  float64
	}
	query := r.db.WithContext(ctx).
		Model(&CrawlLogModel{}).
		Select("status, COUNT(*) AS count, AVG(duration_ms) AS avg_ms").
		Where("crawl_logs.created_at >= ?", since).
		Group("status")
	if tenantID > 0 {
		query = query.
			Joins("JOIN keywords ON keywords.id = crawl_logs.keyword_id").
			Joins("JOIN products ON products.id = keywords.product_id").
			Where("products.tenant_id = ?", tenantID)
	}

	var rows []row
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate crawl logs: %w", err)
	}

	stats := &ranking.CrawlStats{}
	weightedMs, total := 0.0, 0
	for _, rr := range rows {
		switch rr.Status {
		case "success":
			stats.Success = rr.Count
		case "failed":
			stats.Failed = rr.Count
		}
		weightedMs += rr.AvgMs * float64(rr.Count)
		total += rr.Count
	}
	if total > 0 {
		stats.AvgDurationMs = int(weightedMs / float64(total))
	}
	return stats, nil
}

// LastCreatedAt returns the newest log instant across all tenants
func (r *GormCrawlLogRepository) LastCreatedAt(ctx context.Context) (*time.Time, error) {
	var latest *time.Time
	result := r.db.WithContext(ctx).
		Model(&CrawlLogModel{}).
		Select("MAX(created_at)").
		Scan(&latest)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to read last crawl log time: %w", result.Error)
	}
	return latest, nil
}

// ListByTenant returns a page of the tenant's crawl log, newest first
func (r *GormCrawlLogRepository) ListByTenant(ctx context.Context, tenantID, offset, limit int) ([]*ranking.CrawlLog, error) {
	var models []CrawlLogModel
	result := r.db.WithContext(ctx).
		Joins("JOIN keywords ON keywords.id = crawl_logs.keyword_id").
		Joins("JOIN products ON products.id = keywords.product_id").
		Where("products.tenant_id = ?", tenantID).
		Order("crawl_logs.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list crawl logs: %w", result.Error)
	}

	logs := make([]*ranking.CrawlLog, 0, len(models))
	for i := range models {
		logs = append(logs, crawlLogModelToEntity(&models[i]))
	}
	return logs, nil
}

// DeleteOlderThan removes at most limit rows created before the cutoff
func (r *GormCrawlLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	victims := r.db.Model(&CrawlLogModel{}).
		Select("id").
		Where("created_at < ?", cutoff).
		Limit(limit)

	result := r.db.WithContext(ctx).
		Where("id IN (?)", victims).
		Delete(&CrawlLogModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old crawl logs: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

func crawlLogModelToEntity(model *CrawlLogModel) *ranking.CrawlLog {
	return &ranking.CrawlLog{
		ID:           model.ID,
		KeywordID:    model.KeywordID,
		Status:       model.Status,
		ErrorMessage: model.ErrorMessage,
		DurationMs:   model.DurationMs,
		CreatedAt:    model.CreatedAt,
	}
}

func crawlLogEntityToModel(entry *ranking.CrawlLog) *CrawlLogModel {
	return &CrawlLogModel{
		ID:           entry.ID,
		KeywordID:    entry.KeywordID,
		Status:       entry.Status,
		ErrorMessage: entry.ErrorMessage,
		DurationMs:   entry.DurationMs,
		CreatedAt:    entry.CreatedAt,
	}
}
