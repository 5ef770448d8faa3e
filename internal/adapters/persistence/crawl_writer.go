package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/asimaster/pricerank/internal/domain/ranking"
)

// GormCrawlWriter implements CrawlWriter: everything one keyword produced in
// one run (ranking rows, the keyword status mutation, the crawl log row and
// an optional selling-price update) commits in a single transaction.
type GormCrawlWriter struct {
	db *gorm.DB
}

// NewGormCrawlWriter creates a new GORM crawl writer
func NewGormCrawlWriter(db *gorm.DB) *GormCrawlWriter {
	return &GormCrawlWriter{db: db}
}

// PersistKeywordCrawl commits one keyword's crawl outcome atomically
func (w *GormCrawlWriter) PersistKeywordCrawl(ctx context.Context, write *ranking.KeywordCrawlWrite) error {
	return w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(write.Rows) > 0 {
			models := make([]RankingModel, 0, len(write.Rows))
			for _, row := range write.Rows {
				models = append(models, *rankingEntityToModel(row))
			}
			if err := tx.Create(&models).Error; err != nil {
				return fmt.Errorf("failed to insert rankings: %w", err)
			}
		}

		if err := tx.Model(&KeywordModel{}).
			Where("id = ?", write.KeywordID).
			Updates(map[string]interface{}{
				"last_crawled_at": write.CrawledAt,
				"last_status":     write.Status,
			}).Error; err != nil {
			return fmt.Errorf("failed to update keyword status: %w", err)
		}

		logModel := &CrawlLogModel{
			KeywordID:    write.KeywordID,
			Status:       write.Status,
			ErrorMessage: write.ErrorMessage,
			DurationMs:   write.DurationMs,
			CreatedAt:    write.CrawledAt,
		}
		if err := tx.Create(logModel).Error; err != nil {
			return fmt.Errorf("failed to append crawl log: %w", err)
		}

		if write.PriceUpdate != nil {
			if err := tx.Model(&ProductModel{}).
				Where("id = ?", write.PriceUpdate.ProductID).
				Update("selling_price", write.PriceUpdate.Price).Error; err != nil {
				return fmt.Errorf("failed to update selling price: %w", err)
			}
		}
		return nil
	})
}
