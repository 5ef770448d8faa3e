package alert

import (
	"context"
	"time"
)

// Repository defines persistence for alerts
type Repository interface {
	Insert(ctx context.Context, a *Alert) error
	// HasRecentUnread reports whether an unread alert of the same kind exists
	// for the product since the cutoff. Such an alert suppresses new ones.
	HasRecentUnread(ctx context.Context, tenantID, productID int, kind Kind, since time.Time) (bool, error)
	ListByTenant(ctx context.Context, tenantID, offset, limit int) ([]*Alert, error)
	MarkRead(ctx context.Context, tenantID, alertID int) error
}

// SettingRepository defines persistence for alert settings
type SettingRepository interface {
	// Get returns the tenant's setting for the kind, or nil if none exists
	// (callers treat nil as enabled).
	Get(ctx context.Context, tenantID int, kind Kind) (*Setting, error)
	Upsert(ctx context.Context, s *Setting) error
}

// SubscriptionRepository defines persistence for push subscriptions
type SubscriptionRepository interface {
	ListByTenant(ctx context.Context, tenantID int) ([]*PushSubscription, error)
	Save(ctx context.Context, sub *PushSubscription) error
	Delete(ctx context.Context, id int) error
	DeleteByEndpoint(ctx context.Context, tenantID int, endpoint string) error
}

// PushSender delivers an encrypted payload to one subscription endpoint.
// Implementations report gone endpoints via SubscriptionGoneError so callers
// can drop the subscription.
type PushSender interface {
	Send(ctx context.Context, sub *PushSubscription, title, body string, data map[string]interface{}) error
}
