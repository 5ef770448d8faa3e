package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asimaster/pricerank/internal/domain/alert"
	"github.com/asimaster/pricerank/internal/domain/shared"
)

// GormAlertRepository implements alert.Repository using GORM
type GormAlertRepository struct {
	db *gorm.DB
}

// NewGormAlertRepository creates a new GORM alert repository
func NewGormAlertRepository(db *gorm.DB) *GormAlertRepository {
	return &GormAlertRepository{db: db}
}

// Insert persists a new alert
func (r *GormAlertRepository) Insert(ctx context.Context, a *alert.Alert) error {
	model, err := alertEntityToModel(a)
	if err != nil {
		return fmt.Errorf("failed to convert alert to model: %w", err)
	}
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		return fmt.Errorf("failed to insert alert: %w", result.Error)
	}
	a.ID = model.ID
	return nil
}

// HasRecentUnread reports whether an unread alert of the same kind exists for
// the product since the cutoff.
func (r *GormAlertRepository) HasRecentUnread(ctx context.Context, tenantID, productID int, kind alert.Kind, since time.Time) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&AlertModel{}).
		Where("tenant_id = ? AND product_id = ? AND kind = ? AND is_read = ? AND created_at >= ?",
			tenantID, productID, string(kind), false, since).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check recent alerts: %w", result.Error)
	}
	return count > 0, nil
}

// ListByTenant returns a page of the tenant's alerts, newest first
func (r *GormAlertRepository) ListByTenant(ctx context.Context, tenantID, offset, limit int) ([]*alert.Alert, error) {
	var models []AlertModel
	result := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", result.Error)
	}

	alerts := make([]*alert.Alert, 0, len(models))
	for i := range models {
		entity, err := alertModelToEntity(&models[i])
		if err != nil {
			return nil, fmt.Errorf("failed to convert alert %d: %w", models[i].ID, err)
		}
		alerts = append(alerts, entity)
	}
	return alerts, nil
}

// MarkRead flips the read flag; the alert must belong to the tenant
func (r *GormAlertRepository) MarkRead(ctx context.Context, tenantID, alertID int) error {
	result := r.db.WithContext(ctx).
		Model(&AlertModel{}).
		Where("id = ? AND tenant_id = ?", alertID, tenantID).
		Update("is_read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark alert read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("alert", alertID)
	}
	return nil
}

func alertModelToEntity(model *AlertModel) (*alert.Alert, error) {
	var payload map[string]interface{}
	if model.Payload != "" {
		if err := json.Unmarshal([]byte(model.Payload), &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}
	return &alert.Alert{
		ID:        model.ID,
		TenantID:  model.TenantID,
		ProductID: model.ProductID,
		Kind:      alert.Kind(model.Kind),
		Title:     model.Title,
		Body:      model.Body,
		Payload:   payload,
		IsRead:    model.IsRead,
		CreatedAt: model.CreatedAt,
	}, nil
}

func alertEntityToModel(a *alert.Alert) (*AlertModel, error) {
	payload := ""
	if a.Payload != nil {
		data, err := json.Marshal(a.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		payload = string(data)
	}
	return &AlertModel{
		ID:        a.ID,
		TenantID:  a.TenantID,
		ProductID: a.ProductID,
		Kind:      string(a.Kind),
		Title:     a.Title,
		Body:      a.Body,
		Payload:   payload,
		IsRead:    a.IsRead,
		CreatedAt: a.CreatedAt,
	}, nil
}

// GormAlertSettingRepository implements alert.SettingRepository using GORM
type GormAlertSettingRepository struct {
	db *gorm.DB
}

// NewGormAlertSettingRepository creates a new GORM alert setting repository
func NewGormAlertSettingRepository(db *gorm.DB) *GormAlertSettingRepository {
	return &GormAlertSettingRepository{db: db}
}

// Get returns the tenant's setting for the kind, or nil if none exists
func (r *GormAlertSettingRepository) Get(ctx context.Context, tenantID int, kind alert.Kind) (*alert.Setting, error) {
	var model AlertSettingModel
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND kind = ?", tenantID, string(kind)).
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get alert setting: %w", result.Error)
	}
	return &alert.Setting{
		ID:        model.ID,
		TenantID:  model.TenantID,
		Kind:      alert.Kind(model.Kind),
		Enabled:   model.Enabled,
		Threshold: model.Threshold,
		CreatedAt: model.CreatedAt,
	}, nil
}

// Upsert creates or updates the setting for (tenant, kind)
func (r *GormAlertSettingRepository) Upsert(ctx context.Context, s *alert.Setting) error {
	model := &AlertSettingModel{
		TenantID:  s.TenantID,
		Kind:      string(s.Kind),
		Enabled:   s.Enabled,
		Threshold: s.Threshold,
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"enabled", "threshold"}),
		}).
		Create(model)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert alert setting: %w", result.Error)
	}
	s.ID = model.ID
	return nil
}

// GormPushSubscriptionRepository implements alert.SubscriptionRepository using GORM
type GormPushSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormPushSubscriptionRepository creates a new GORM push subscription repository
func NewGormPushSubscriptionRepository(db *gorm.DB) *GormPushSubscriptionRepository {
	return &GormPushSubscriptionRepository{db: db}
}

// ListByTenant retrieves the tenant's subscriptions
func (r *GormPushSubscriptionRepository) ListByTenant(ctx context.Context, tenantID int) ([]*alert.PushSubscription, error) {
	var models []PushSubscriptionModel
	result := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list push subscriptions: %w", result.Error)
	}

	subs := make([]*alert.PushSubscription, 0, len(models))
	for i := range models {
		m := models[i]
		subs = append(subs, &alert.PushSubscription{
			ID:        m.ID,
			TenantID:  m.TenantID,
			Endpoint:  m.Endpoint,
			P256dh:    m.P256dh,
			Auth:      m.Auth,
			CreatedAt: m.CreatedAt,
		})
	}
	return subs, nil
}

// Save upserts by (tenant, endpoint): re-registering a browser refreshes keys
func (r *GormPushSubscriptionRepository) Save(ctx context.Context, sub *alert.PushSubscription) error {
	var existing PushSubscriptionModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND endpoint = ?", sub.TenantID, sub.Endpoint).
		First(&existing).Error
	if err == nil {
		sub.ID = existing.ID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up push subscription: %w", err)
	}

	model := &PushSubscriptionModel{
		ID:       sub.ID,
		TenantID: sub.TenantID,
		Endpoint: sub.Endpoint,
		P256dh:   sub.P256dh,
		Auth:     sub.Auth,
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save push subscription: %w", err)
	}
	sub.ID = model.ID
	return nil
}

// Delete removes a subscription by id
func (r *GormPushSubscriptionRepository) Delete(ctx context.Context, id int) error {
	result := r.db.WithContext(ctx).Delete(&PushSubscriptionModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete push subscription: %w", result.Error)
	}
	return nil
}

// DeleteByEndpoint removes the tenant's subscription for one endpoint
func (r *GormPushSubscriptionRepository) DeleteByEndpoint(ctx context.Context, tenantID int, endpoint string) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND endpoint = ?", tenantID, endpoint).
		Delete(&PushSubscriptionModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete push subscription: %w", result.Error)
	}
	return nil
}
