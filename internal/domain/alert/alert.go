package alert

import "time"

// Kind identifies a business alert condition
type Kind string

const (
	KindPriceUndercut Kind = "price_undercut"
	KindRankDrop      Kind = "rank_drop"
)

// Alert is one notification emitted by the alert engine
type Alert struct {
	ID        int
	TenantID  int
	ProductID *int
	Kind      Kind
	Title     string
	Body      string
	Payload   map[string]interface{}
	IsRead    bool
	CreatedAt time.Time
}

// Setting enables or disables one alert kind for a tenant, with an optional
// numeric threshold. Absence of a setting means enabled with no threshold.
type Setting struct {
	ID        int
	TenantID  int
	Kind      Kind
	Enabled   bool
	Threshold *float64
	CreatedAt time.Time
}

// PushSubscription is one web-push endpoint registered by a tenant's browser
type PushSubscription struct {
	ID        int
	TenantID  int
	Endpoint  string
	P256dh    string
	Auth      string
	CreatedAt time.Time
}
