package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/asimaster/pricerank/internal/domain/catalog"
	"github.com/asimaster/pricerank/internal/domain/shared"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GORM product repository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID retrieves a product by ID
func (r *GormProductRepository) FindByID(ctx context.Context, id int) (*catalog.Product, error) {
	var model ProductModel
	result := r.db.WithContext(ctx).First(&model, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("product", id)
		}
		return nil, fmt.Errorf("failed to find product: %w", result.Error)
	}
	return productModelToEntity(&model)
}

// FindByIDs retrieves products keyed by id in one query
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []int) (map[int]*catalog.Product, error) {
	products := make(map[int]*catalog.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	var models []ProductModel
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find products: %w", result.Error)
	}
	for i := range models {
		entity, err := productModelToEntity(&models[i])
		if err != nil {
			return nil, fmt.Errorf("failed to convert product %d: %w", models[i].ID, err)
		}
		products[entity.ID] = entity
	}
	return products, nil
}

// ListActiveByTenant retrieves the tenant's active products
func (r *GormProductRepository) ListActiveByTenant(ctx context.Context, tenantID int) ([]*catalog.Product, error) {
	var models []ProductModel
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("id").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list products: %w", result.Error)
	}

	products := make([]*catalog.Product, 0, len(models))
	for i := range models {
		entity, err := productModelToEntity(&models[i])
		if err != nil {
			return nil, fmt.Errorf("failed to convert product %d: %w", models[i].ID, err)
		}
		products = append(products, entity)
	}
	return products, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	model, err := productEntityToModel(product)
	if err != nil {
		return fmt.Errorf("failed to convert product to model: %w", err)
	}
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save product: %w", result.Error)
	}
	product.ID = model.ID
	return nil
}

// UpdateSellingPrice applies the own-price auto-update without touching
// other fields.
func (r *GormProductRepository) UpdateSellingPrice(ctx context.Context, productID, sellingPrice int) error {
	result := r.db.WithContext(ctx).
		Model(&ProductModel{}).
		Where("id = ?", productID).
		Update("selling_price", sellingPrice)
	if result.Error != nil {
		return fmt.Errorf("failed to update selling price: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("product", productID)
	}
	return nil
}

// Delete removes a product and cascades to its keywords and rankings
func (r *GormProductRepository) Delete(ctx context.Context, id int) error {
	result := r.db.WithContext(ctx).Delete(&ProductModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("product", id)
	}
	return nil
}

func productModelToEntity(model *ProductModel) (*catalog.Product, error) {
	var specKeywords []string
	if model.SpecKeywords != "" {
		if err := json.Unmarshal([]byte(model.SpecKeywords), &specKeywords); err != nil {
			return nil, fmt.Errorf("failed to unmarshal spec keywords: %w", err)
		}
	}
	return &catalog.Product{
		ID:                model.ID,
		TenantID:          model.TenantID,
		Name:              model.Name,
		Category:          model.Category,
		CostPrice:         model.CostPrice,
		SellingPrice:      model.SellingPrice,
		OwnListingID:      model.OwnListingID,
		ModelCode:         model.ModelCode,
		SpecKeywords:      specKeywords,
		PriceFilterMinPct: model.PriceFilterMinPct,
		PriceFilterMaxPct: model.PriceFilterMaxPct,
		PriceLocked:       model.PriceLocked,
		IsActive:          model.IsActive,
		CreatedAt:         model.CreatedAt,
	}, nil
}

func productEntityToModel(product *catalog.Product) (*ProductModel, error) {
	specKeywords := ""
	if len(product.SpecKeywords) > 0 {
		data, err := json.Marshal(product.SpecKeywords)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal spec keywords: %w", err)
		}
		specKeywords = string(data)
	}
	return &ProductModel{
		ID:                product.ID,
		TenantID:          product.TenantID,
		Name:              product.Name,
		Category:          product.Category,
		CostPrice:         product.CostPrice,
		SellingPrice:      product.SellingPrice,
		OwnListingID:      product.OwnListingID,
		ModelCode:         product.ModelCode,
		SpecKeywords:      specKeywords,
		PriceFilterMinPct: product.PriceFilterMinPct,
		PriceFilterMaxPct: product.PriceFilterMaxPct,
		PriceLocked:       product.PriceLocked,
		IsActive:          product.IsActive,
		CreatedAt:         product.CreatedAt,
	}, nil
}
