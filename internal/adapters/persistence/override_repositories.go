package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asimaster/pricerank/internal/domain/ranking"
)

// GormIncludeOverrideRepository implements IncludeOverrideRepository using GORM
type GormIncludeOverrideRepository struct {
	db *gorm.DB
}

// NewGormIncludeOverrideRepository creates a new GORM include-override repository
func NewGormIncludeOverrideRepository(db *gorm.DB) *GormIncludeOverrideRepository {
	return &GormIncludeOverrideRepository{db: db}
}

// ListByProduct retrieves the product's include-overrides
func (r *GormIncludeOverrideRepository) ListByProduct(ctx context.Context, productID int) ([]*ranking.IncludeOverride, error) {
	var models []IncludeOverrideModel
	result := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list include overrides: %w", result.Error)
	}

	overrides := make([]*ranking.IncludeOverride, 0, len(models))
	for i := range models {
		m := models[i]
		overrides = append(overrides, &ranking.IncludeOverride{
			ID:        m.ID,
			ProductID: m.ProductID,
			ListingID: m.ListingID,
			CreatedAt: m.CreatedAt,
		})
	}
	return overrides, nil
}

// MapByProducts returns listing-id sets per product in one batched query
func (r *GormIncludeOverrideRepository) MapByProducts(ctx context.Context, productIDs []int) (map[int]map[string]bool, error) {
	out := make(map[int]map[string]bool, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	var models []IncludeOverrideModel
	result := r.db.WithContext(ctx).Where("product_id IN ?", productIDs).Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to map include overrides: %w", result.Error)
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

// Add inserts an include-override; duplicates are a no-op
func (r *GormIncludeOverrideRepository) Add(ctx context.Context, override *ranking.IncludeOverride) error {
	model := &IncludeOverrideModel{
		ProductID: override.ProductID,
		ListingID: override.ListingID,
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model)
	if result.Error != nil {
		return fmt.Errorf("failed to add include override: %w", result.Error)
	}
	override.ID = model.ID
	return nil
}

// Remove deletes the override matching (product, listing)
func (r *GormIncludeOverrideRepository) Remove(ctx context.Context, productID int, listingID string) error {
	result := r.db.WithContext(ctx).
		Where("product_id = ? AND listing_id = ?", productID, listingID).
		Delete(&IncludeOverrideModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove include override: %w", result.Error)
	}
	return nil
}

// GormShippingOverrideRepository implements ShippingOverrideRepository using GORM
type GormShippingOverrideRepository struct {
	db *gorm.DB
}

// NewGormShippingOverrideRepository creates a new GORM shipping-override repository
func NewGormShippingOverrideRepository(db *gorm.DB) *GormShippingOverrideRepository {
	return &GormShippingOverrideRepository{db: db}
}

// ListByProduct retrieves the product's shipping overrides
func (r *GormShippingOverrideRepository) ListByProduct(ctx context.Context, productID int) ([]*ranking.ShippingOverride, error) {
	var models []ShippingOverrideModel
	result := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list shipping overrides: %w", result.Error)
	}

	overrides := make([]*ranking.ShippingOverride, 0, len(models))
	for i := range models {
		m := models[i]
		overrides = append(overrides, &ranking.ShippingOverride{
			ID:        m.ID,
			ProductID: m.ProductID,
			ListingID: m.ListingID,
			Fee:       m.Fee,
			CreatedAt: m.CreatedAt,
		})
	}
	return overrides, nil
}

// MapByProducts returns listing-id→fee maps per product in one query
func (r *GormShippingOverrideRepository) MapByProducts(ctx context.Context, productIDs []int) (map[int]map[string]int, error) {
	out := make(map[int]map[string]int, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	var models []ShippingOverrideModel
	result := r.db.WithContext(ctx).Where("product_id IN ?", productIDs).Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to map shipping overrides: %w", result.Error)
	}
	for i := range models {
		m := models[i]
		if out[m.ProductID] == nil {
			out[m.ProductID] = make(map[string]int)
		}
		out[m.ProductID][m.ListingID] = m.Fee
	}
	return out, nil
}

// Upsert creates or updates the fee for (product, listing)
func (r *GormShippingOverrideRepository) Upsert(ctx context.Context, override *ranking.ShippingOverride) error {
	model := &ShippingOverrideModel{
		ProductID: override.ProductID,
		ListingID: override.ListingID,
		Fee:       override.Fee,
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "listing_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"fee"}),
		}).
		Create(model)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert shipping override: %w", result.Error)
	}
	override.ID = model.ID
	return nil
}

// Remove deletes the override matching (product, listing)
func (r *GormShippingOverrideRepository) Remove(ctx context.Context, productID int, listingID string) error {
	result := r.db.WithContext(ctx).
		Where("product_id = ? AND listing_id = ?", productID, listingID).
		Delete(&ShippingOverrideModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove shipping override: %w", result.Error)
	}
	return nil
}
