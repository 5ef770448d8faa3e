package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asimaster/pricerank/internal/domain/ranking"
)

// GormBlacklistRepository implements BlacklistRepository using GORM
type GormBlacklistRepository struct {
	db *gorm.DB
}

// NewGormBlacklistRepository creates a new GORM blacklist repository
func NewGormBlacklistRepository(db *gorm.DB) *GormBlacklistRepository {
	return &GormBlacklistRepository{db: db}
}

// ListByProduct retrieves the product's blacklist entries
func (r *GormBlacklistRepository) ListByProduct(ctx context.Context, productID int) ([]*ranking.BlacklistEntry, error) {
	var models []BlacklistModel
	result := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list blacklist: %w", result.Error)
	}

	entries := make([]*ranking.BlacklistEntry, 0, len(models))
	for i := range models {
		entries = append(entries, blacklistModelToEntity(&models[i]))
	}
	return entries, nil
}

// MapByProducts returns listing-id sets per product in one batched query
func (r *GormBlacklistRepository) MapByProducts(ctx context.Context, productIDs []int) (map[int]map[string]bool, error) {
	out := make(map[int]map[string]bool, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	var models []BlacklistModel
	result := r.db.WithContext(ctx).Where("product_id IN ?", productIDs).Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to map blacklist: %w", result.Error)
	}
	for i := range models {
		m := models[i]
		if out[m.ProductID] == nil {
			out[m.ProductID] = make(map[string]bool)
		}
		out[m.ProductID][m.ListingID] = true
	}
	return out, nil
}

// Add inserts a blacklist entry; inserting the same listing twice is a no-op
func (r *GormBlacklistRepository) Add(ctx context.Context, entry *ranking.BlacklistEntry) error {
	model := &BlacklistModel{
		ProductID: entry.ProductID,
		ListingID: entry.ListingID,
		Title:     entry.Title,
		Mall:      entry.Mall,
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model)
	if result.Error != nil {
		return fmt.Errorf("failed to add blacklist entry: %w", result.Error)
	}
	entry.ID = model.ID
	return nil
}

// Remove deletes the entry matching (product, listing)
func (r *GormBlacklistRepository) Remove(ctx context.Context, productID int, listingID string) error {
	result := r.db.WithContext(ctx).
		Where("product_id = ? AND listing_id = ?", productID, listingID).
		Delete(&BlacklistModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove blacklist entry: %w", result.Error)
	}
	return nil
}

func blacklistModelToEntity(model *BlacklistModel) *ranking.BlacklistEntry {
	return &ranking.BlacklistEntry{
		ID:        model.ID,
		ProductID: model.ProductID,
		ListingID: model.ListingID,
		Title:     model.Title,
		Mall:      model.Mall,
		CreatedAt: model.CreatedAt,
	}
}
