package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/asimaster/pricerank/internal/domain/catalog"
	"github.com/asimaster/pricerank/internal/domain/shared"
)

// GormKeywordRepository implements KeywordRepository using GORM
type GormKeywordRepository struct {
	db *gorm.DB

	// active-keyword cap per product, MAX_KEYWORDS_PER_PRODUCT
	maxPerProduct int
}

// NewGormKeywordRepository creates a new GORM keyword repository
func NewGormKeywordRepository(db *gorm.DB, maxPerProduct int) *GormKeywordRepository {
	if maxPerProduct <= 0 {
		maxPerProduct = catalog.MaxKeywordsPerProduct
	}
	return &GormKeywordRepository{db: db, maxPerProduct: maxPerProduct}
}

// FindByID retrieves a keyword by ID
func (r *GormKeywordRepository) FindByID(ctx context.Context, id int) (*catalog.Keyword, error) {
	var model KeywordModel
	result := r.db.WithContext(ctx).First(&model, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("keyword", id)
		}
		return nil, fmt.Errorf("failed to find keyword: %w", result.Error)
	}
	return keywordModelToEntity(&model), nil
}

// ListActiveByProduct retrieves the product's active keywords
func (r *GormKeywordRepository) ListActiveByProduct(ctx context.Context, productID int) ([]*catalog.Keyword, error) {
	var models []KeywordModel
	result := r.db.WithContext(ctx).
		Where("product_id = ? AND is_active = ?", productID, true).
		Order("id").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list keywords: %w", result.Error)
	}
	return keywordModelsToEntities(models), nil
}

// ListActiveByTenant retrieves every active keyword under the tenant's
// active products.
func (r *GormKeywordRepository) ListActiveByTenant(ctx context.Context, tenantID int) ([]*catalog.Keyword, error) {
	var models []KeywordModel
	result := r.db.WithContext(ctx).
		Joins("JOIN products ON products.id = keywords.product_id").
		Where("products.tenant_id = ? AND products.is_active = ? AND keywords.is_active = ?", tenantID, true, true).
		Order("keywords.id").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list tenant keywords: %w", result.Error)
	}
	return keywordModelsToEntities(models), nil
}

// CountActiveByProduct counts the product's active keywords
func (r *GormKeywordRepository) CountActiveByProduct(ctx context.Context, productID int) (int, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&KeywordModel{}).
		Where("product_id = ? AND is_active = ?", productID, true).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count keywords: %w", result.Error)
	}
	return int(count), nil
}

// LatestCrawledAt returns the tenant's most recent keyword crawl instant
func (r *GormKeywordRepository) LatestCrawledAt(ctx context.Context, tenantID int) (*time.Time, error) {
	var latest *time.Time
	result := r.db.WithContext(ctx).
		Model(&KeywordModel{}).
		Joins("JOIN products ON products.id = keywords.product_id").
		Where("products.tenant_id = ?", tenantID).
		Select("MAX(keywords.last_crawled_at)").
		Scan(&latest)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to read latest crawl time: %w", result.Error)
	}
	return latest, nil
}

// MarkCrawled records the outcome of one crawl attempt on the keyword
func (r *GormKeywordRepository) MarkCrawled(ctx context.Context, keywordID int, status catalog.CrawlStatus, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&KeywordModel{}).
		Where("id = ?", keywordID).
		Updates(map[string]interface{}{
			"last_crawled_at": at,
			"last_status":     string(status),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark keyword crawled: %w", result.Error)
	}
	return nil
}

// Save creates or updates a keyword, enforcing the per-product cap and the
// single-primary rule on create.
func (r *GormKeywordRepository) Save(ctx context.Context, keyword *catalog.Keyword) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if keyword.ID == 0 && keyword.IsActive {
			var count int64
			if err := tx.Model(&KeywordModel{}).
				Where("product_id = ? AND is_active = ?", keyword.ProductID, true).
				Count(&count).Error; err != nil {
				return fmt.Errorf("failed to count keywords: %w", err)
			}
			if int(count) >= r.maxPerProduct {
				return catalog.NewKeywordLimitError(keyword.ProductID, r.maxPerProduct)
			}
		}
		if keyword.IsPrimary {
			if err := tx.Model(&KeywordModel{}).
				Where("product_id = ? AND id <> ?", keyword.ProductID, keyword.ID).
				Update("is_primary", false).Error; err != nil {
				return fmt.Errorf("failed to demote primary keyword: %w", err)
			}
		}

		model := keywordEntityToModel(keyword)
		if err := tx.Save(model).Error; err != nil {
			return fmt.Errorf("failed to save keyword: %w", err)
		}
		keyword.ID = model.ID
		return nil
	})
}

// Delete removes a keyword; the primary keyword is undeletable
func (r *GormKeywordRepository) Delete(ctx context.Context, id int) error {
	var model KeywordModel
	result := r.db.WithContext(ctx).First(&model, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return shared.NewNotFoundError("keyword", id)
		}
		return fmt.Errorf("failed to find keyword: %w", result.Error)
	}
	if model.IsPrimary {
		return catalog.NewPrimaryKeywordError(id)
	}
	if err := r.db.WithContext(ctx).Delete(&KeywordModel{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete keyword: %w", err)
	}
	return nil
}

func keywordModelToEntity(model *KeywordModel) *catalog.Keyword {
	return &catalog.Keyword{
		ID:            model.ID,
		ProductID:     model.ProductID,
		Text:          model.Text,
		SortMode:      catalog.SortMode(model.SortMode),
		IsPrimary:     model.IsPrimary,
		IsActive:      model.IsActive,
		LastCrawledAt: model.LastCrawledAt,
		LastStatus:    catalog.CrawlStatus(model.LastStatus),
		CreatedAt:     model.CreatedAt,
	}
}

func keywordModelsToEntities(models []KeywordModel) []*catalog.Keyword {
	keywords := make([]*catalog.Keyword, 0, len(models))
	for i := range models {
		keywords = append(keywords, keywordModelToEntity(&models[i]))
	}
	return keywords
}

func keywordEntityToModel(keyword *catalog.Keyword) *KeywordModel {
	return &KeywordModel{
		ID:            keyword.ID,
		ProductID:     keyword.ProductID,
		Text:          keyword.Text,
		SortMode:      string(keyword.SortMode),
		IsPrimary:     keyword.IsPrimary,
		IsActive:      keyword.IsActive,
		LastCrawledAt: keyword.LastCrawledAt,
		LastStatus:    string(keyword.LastStatus),
		CreatedAt:     keyword.CreatedAt,
	}
}
