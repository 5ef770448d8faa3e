package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/asimaster/pricerank/internal/domain/catalog"
	"github.com/asimaster/pricerank/internal/domain/shared"
)

// GormCostItemRepository implements CostItemRepository using GORM
type GormCostItemRepository struct {
	db *gorm.DB
}

// NewGormCostItemRepository creates a new GORM cost item repository
func NewGormCostItemRepository(db *gorm.DB) *GormCostItemRepository {
	return &GormCostItemRepository{db: db}
}

// ListByProduct retrieves the product's cost items in display order
func (r *GormCostItemRepository) ListByProduct(ctx context.Context, productID int) ([]*catalog.CostItem, error) {
	var models []CostItemModel
	result := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("sort_order, id").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list cost items: %w", result.Error)
	}
	return costItemModelsToEntities(models), nil
}

// MapByProducts returns cost items per product in one batched query
func (r *GormCostItemRepository) MapByProducts(ctx context.Context, productIDs []int) (map[int][]*catalog.CostItem, error) {
	out := make(map[int][]*catalog.CostItem, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	var models []CostItemModel
	result := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("product_id, sort_order, id").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to map cost items: %w", result.Error)
	}
	for i := range models {
		entity := costItemModelToEntity(&models[i])
		out[entity.ProductID] = append(out[entity.ProductID], entity)
	}
	return out, nil
}

// Save creates or updates a cost item
func (r *GormCostItemRepository) Save(ctx context.Context, item *catalog.CostItem) error {
	model := costItemEntityToModel(item)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save cost item: %w", result.Error)
	}
	item.ID = model.ID
	return nil
}

// ReplaceForProduct swaps the product's full item list atomically, used when
// applying a cost preset.
func (r *GormCostItemRepository) ReplaceForProduct(ctx context.Context, productID int, items []*catalog.CostItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&CostItemModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear cost items: %w", err)
		}
		for i, item := range items {
			model := costItemEntityToModel(item)
			model.ID = 0
			model.ProductID = productID
			model.SortOrder = i
			if err := tx.Create(model).Error; err != nil {
				return fmt.Errorf("failed to insert cost item: %w", err)
			}
			item.ID = model.ID
		}
		return nil
	})
}

// Delete removes a cost item by id
func (r *GormCostItemRepository) Delete(ctx context.Context, id int) error {
	result := r.db.WithContext(ctx).Delete(&CostItemModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete cost item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("cost item", id)
	}
	return nil
}

func costItemModelToEntity(model *CostItemModel) *catalog.CostItem {
	return &catalog.CostItem{
		ID:        model.ID,
		ProductID: model.ProductID,
		Name:      model.Name,
		Type:      catalog.CostType(model.Type),
		Value:     model.Value,
		SortOrder: model.SortOrder,
		CreatedAt: model.CreatedAt,
	}
}

func costItemModelsToEntities(models []CostItemModel) []*catalog.CostItem {
	items := make([]*catalog.CostItem, 0, len(models))
	for i := range models {
		items = append(items, costItemModelToEntity(&models[i]))
	}
	return items
}

func costItemEntityToModel(item *catalog.CostItem) *CostItemModel {
	return &CostItemModel{
		ID:        item.ID,
		ProductID: item.ProductID,
		Name:      item.Name,
		Type:      string(item.Type),
		Value:     item.Value,
		SortOrder: item.SortOrder,
		CreatedAt: item.CreatedAt,
	}
}

// GormCostPresetRepository implements CostPresetRepository using GORM
type GormCostPresetRepository struct {
	db *gorm.DB
}

// NewGormCostPresetRepository creates a new GORM cost preset repository
func NewGormCostPresetRepository(db *gorm.DB) *GormCostPresetRepository {
	return &GormCostPresetRepository{db: db}
}

// ListByTenant retrieves the tenant's cost presets
func (r *GormCostPresetRepository) ListByTenant(ctx context.Context, tenantID int) ([]*catalog.CostPreset, error) {
	var models []CostPresetModel
	result := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list cost presets: %w", result.Error)
	}

	presets := make([]*catalog.CostPreset, 0, len(models))
	for i := range models {
		entity, err := costPresetModelToEntity(&models[i])
		if err != nil {
			return nil, fmt.Errorf("failed to convert cost preset %d: %w", models[i].ID, err)
		}
		presets = append(presets, entity)
	}
	return presets, nil
}

// Save creates or updates a cost preset
func (r *GormCostPresetRepository) Save(ctx context.Context, preset *catalog.CostPreset) error {
	items, err := json.Marshal(preset.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal preset items: %w", err)
	}
	model := &CostPresetModel{
		ID:       preset.ID,
		TenantID: preset.TenantID,
		Name:     preset.Name,
		Items:    string(items),
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save cost preset: %w", err)
	}
	preset.ID = model.ID
	return nil
}

// Delete removes a cost preset by id
func (r *GormCostPresetRepository) Delete(ctx context.Context, id int) error {
	result := r.db.WithContext(ctx).Delete(&CostPresetModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete cost preset: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("cost preset", id)
	}
	return nil
}

func costPresetModelToEntity(model *CostPresetModel) (*catalog.CostPreset, error) {
	var items []catalog.CostPresetItem
	if model.Items != "" {
		if err := json.Unmarshal([]byte(model.Items), &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preset items: %w", err)
		}
	}
	return &catalog.CostPreset{
		ID:        model.ID,
		TenantID:  model.TenantID,
		Name:      model.Name,
		Items:     items,
		CreatedAt: model.CreatedAt,
	}, nil
}
