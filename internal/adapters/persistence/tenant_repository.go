package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/asimaster/pricerank/internal/domain/catalog"
	"github.com/asimaster/pricerank/internal/domain/shared"
)

// GormTenantRepository implements TenantRepository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GORM tenant repository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// FindByID retrieves a tenant by ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id int) (*catalog.Tenant, error) {
	var model TenantModel
	result := r.db.WithContext(ctx).First(&model, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("tenant", id)
		}
		return nil, fmt.Errorf("failed to find tenant: %w", result.Error)
	}
	return tenantModelToEntity(&model), nil
}

// ListAll retrieves every tenant
func (r *GormTenantRepository) ListAll(ctx context.Context) ([]*catalog.Tenant, error) {
	var models []TenantModel
	result := r.db.WithContext(ctx).Order("id").Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", result.Error)
	}

	tenants := make([]*catalog.Tenant, 0, len(models))
	for i := range models {
		tenants = append(tenants, tenantModelToEntity(&models[i]))
	}
	return tenants, nil
}

// Save creates or updates a tenant
func (r *GormTenantRepository) Save(ctx context.Context, tenant *catalog.Tenant) error {
	model := tenantEntityToModel(tenant)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save tenant: %w", result.Error)
	}
	tenant.ID = model.ID
	return nil
}

// Delete removes a tenant; the schema cascades to everything it owns
func (r *GormTenantRepository) Delete(ctx context.Context, id int) error {
	result := r.db.WithContext(ctx).Delete(&TenantModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete tenant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("tenant", id)
	}
	return nil
}

func tenantModelToEntity(model *TenantModel) *catalog.Tenant {
	return &catalog.Tenant{
		ID:                   model.ID,
		Name:                 model.Name,
		OwnStoreLabel:        model.OwnStoreLabel,
		CrawlIntervalMinutes: model.CrawlIntervalMinutes,
		CreatedAt:            model.CreatedAt,
	}
}

func tenantEntityToModel(tenant *catalog.Tenant) *TenantModel {
	return &TenantModel{
		ID:                   tenant.ID,
		Name:                 tenant.Name,
		OwnStoreLabel:        tenant.OwnStoreLabel,
		CrawlIntervalMinutes: tenant.CrawlIntervalMinutes,
		CreatedAt:            tenant.CreatedAt,
	}
}
