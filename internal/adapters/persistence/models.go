package persistence

import (
	"time"
)

// TenantModel represents the tenants table
type TenantModel struct {
	ID                   int       `gorm:"column:id;primaryKey;autoIncrement"`
	Name                 string    `gorm:"column:name;not null"`
	OwnStoreLabel        string    `gorm:"column:own_store_label"`
	CrawlIntervalMinutes int       `gorm:"column:crawl_interval_minutes;not null;default:0"`
	CreatedAt            time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (TenantModel) TableName() string {
	return "tenants"
}

// ProductModel represents the products table
type ProductModel struct {
	ID                int          `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID          int          `gorm:"column:tenant_id;index;not null"`
	Tenant            *TenantModel `gorm:"foreignKey:TenantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name              string       `gorm:"column:name;not null"`
	Category          string       `gorm:"column:category"`
	CostPrice         int          `gorm:"column:cost_price;not null;default:0"`
	SellingPrice      int          `gorm:"column:selling_price;not null;default:0"`
	OwnListingID      string       `gorm:"column:own_listing_id;index"`
	ModelCode         string       `gorm:"column:model_code"`
	SpecKeywords      string       `gorm:"column:spec_keywords;type:text"` // JSON array as text
	PriceFilterMinPct *float64     `gorm:"column:price_filter_min_pct"`
	PriceFilterMaxPct *float64     `gorm:"column:price_filter_max_pct"`
	PriceLocked       bool         `gorm:"column:price_locked;not null;default:false"`
	IsActive          bool         `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time    `gorm:"column:created_at;not null;autoCreateTime"`
}

func (ProductModel) TableName() string {
	return "products"
}

// KeywordModel represents the keywords table
type KeywordModel struct {
	ID            int           `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID     int           `gorm:"column:product_id;index;not null;uniqueIndex:ux_keywords_product_text"`
	Product       *ProductModel `gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Text          string        `gorm:"column:text;not null;uniqueIndex:ux_keywords_product_text"`
	SortMode      string        `gorm:"column:sort_mode;not null;default:'relevance'"`
	IsPrimary     bool          `gorm:"column:is_primary;not null;default:false"`
	IsActive      bool          `gorm:"column:is_active;not null;default:true"`
	LastCrawledAt *time.Time    `gorm:"column:last_crawled_at"`
	LastStatus    string        `gorm:"column:last_status;not null;default:'pending'"`
	CreatedAt     time.Time     `gorm:"column:created_at;not null;autoCreateTime"`
}

func (KeywordModel) TableName() string {
	return "keywords"
}

// RankingModel represents the rankings table
type RankingModel struct {
	ID              int           `gorm:"column:id;primaryKey;autoIncrement"`
	KeywordID       int           `gorm:"column:keyword_id;not null;index:ix_rankings_keyword_crawled,priority:1"`
	Keyword         *KeywordModel `gorm:"foreignKey:KeywordID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Rank            int           `gorm:"column:rank;not null"`
	Title           string        `gorm:"column:title;not null"`
	Price           int           `gorm:"column:price;not null"`
	HighPrice       int           `gorm:"column:high_price;not null;default:0"`
	Mall            string        `gorm:"column:mall"`
	ListingID       string        `gorm:"column:listing_id;index"`
	URL             string        `gorm:"column:url;type:text"`
	ImageURL        string        `gorm:"column:image_url;type:text"`
	Brand           string        `gorm:"column:brand"`
	Maker           string        `gorm:"column:maker"`
	ProductType     string        `gorm:"column:product_type"`
	Category1       string        `gorm:"column:category1"`
	Category2       string        `gorm:"column:category2"`
	Category3       string        `gorm:"column:category3"`
	Category4       string        `gorm:"column:category4"`
	ShippingFee     int           `gorm:"column:shipping_fee;not null;default:0"`
	ShippingFeeType string        `gorm:"column:shipping_fee_type;not null;default:'unknown'"`
	IsOwnStore      bool          `gorm:"column:is_own_store;not null;default:false"`
	IsRelevant      bool          `gorm:"column:is_relevant;not null;default:true"`
	RelevanceReason string        `gorm:"column:relevance_reason"`
	CrawledAt       time.Time     `gorm:"column:crawled_at;not null;index:ix_rankings_keyword_crawled,priority:2"`
}

func (RankingModel) TableName() string {
	return "rankings"
}

// CrawlLogModel represents the crawl_logs table
type CrawlLogModel struct {
	ID           int           `gorm:"column:id;primaryKey;autoIncrement"`
	KeywordID    int           `gorm:"column:keyword_id;index;not null"`
	Keyword      *KeywordModel `gorm:"foreignKey:KeywordID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Status       string        `gorm:"column:status;not null"`
	ErrorMessage string        `gorm:"column:error_message;type:text"`
	DurationMs   int           `gorm:"column:duration_ms;not null;default:0"`
	CreatedAt    time.Time     `gorm:"column:created_at;not null;index;autoCreateTime"`
}

func (CrawlLogModel) TableName() string {
	return "crawl_logs"
}

// BlacklistModel represents the blacklist_entries table
type BlacklistModel struct {
	ID        int           `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID int           `gorm:"column:product_id;index;not null;uniqueIndex:ux_blacklist_product_listing"`
	Product   *ProductModel `gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ListingID string        `gorm:"column:listing_id;index;not null;uniqueIndex:ux_blacklist_product_listing"`
	Title     string        `gorm:"column:title"`
	Mall      string        `gorm:"column:mall"`
	CreatedAt time.Time     `gorm:"column:created_at;not null;autoCreateTime"`
}

func (BlacklistModel) TableName() string {
	return "blacklist_entries"
}

// IncludeOverrideModel represents the include_overrides table
type IncludeOverrideModel struct {
	ID        int           `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID int           `gorm:"column:product_id;index;not null;uniqueIndex:ux_include_product_listing"`
	Product   *ProductModel `gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ListingID string        `gorm:"column:listing_id;index;not null;uniqueIndex:ux_include_product_listing"`
	CreatedAt time.Time     `gorm:"column:created_at;not null;autoCreateTime"`
}

func (IncludeOverrideModel) TableName() string {
	return "include_overrides"
}

// ShippingOverrideModel represents the shipping_overrides table
type ShippingOverrideModel struct {
	ID        int           `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID int           `gorm:"column:product_id;index;not null;uniqueIndex:ux_shipover_product_listing"`
	Product   *ProductModel `gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ListingID string        `gorm:"column:listing_id;index;not null;uniqueIndex:ux_shipover_product_listing"`
	Fee       int           `gorm:"column:fee;not null;default:0"`
	CreatedAt time.Time     `gorm:"column:created_at;not null;autoCreateTime"`
}

func (ShippingOverrideModel) TableName() string {
	return "shipping_overrides"
}

// AlertModel represents the alerts table
type AlertModel struct {
	ID        int          `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID  int          `gorm:"column:tenant_id;index;not null"`
	Tenant    *TenantModel `gorm:"foreignKey:TenantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ProductID *int         `gorm:"column:product_id;index"`
	Kind      string       `gorm:"column:kind;not null"`
	Title     string       `gorm:"column:title;not null"`
	Body      string       `gorm:"column:body;type:text"`
	Payload   string       `gorm:"column:payload;type:text"` // JSON as text
	IsRead    bool         `gorm:"column:is_read;not null;default:false"`
	CreatedAt time.Time    `gorm:"column:created_at;not null;index;autoCreateTime"`
}

func (AlertModel) TableName() string {
	return "alerts"
}

// AlertSettingModel represents the alert_settings table
type AlertSettingModel struct {
	ID        int          `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID  int          `gorm:"column:tenant_id;not null;uniqueIndex:ux_alert_settings_tenant_kind"`
	Tenant    *TenantModel `gorm:"foreignKey:TenantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Kind      string       `gorm:"column:kind;not null;uniqueIndex:ux_alert_settings_tenant_kind"`
	Enabled   bool         `gorm:"column:enabled;not null;default:true"`
	Threshold *float64     `gorm:"column:threshold"`
	CreatedAt time.Time    `gorm:"column:created_at;not null;autoCreateTime"`
}

func (AlertSettingModel) TableName() string {
	return "alert_settings"
}

// PushSubscriptionModel represents the push_subscriptions table
type PushSubscriptionModel struct {
	ID        int          `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID  int          `gorm:"column:tenant_id;index;not null"`
	Tenant    *TenantModel `gorm:"foreignKey:TenantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Endpoint  string       `gorm:"column:endpoint;type:text;not null"`
	P256dh    string       `gorm:"column:p256dh;not null"`
	Auth      string       `gorm:"column:auth;not null"`
	CreatedAt time.Time    `gorm:"column:created_at;not null;autoCreateTime"`
}

func (PushSubscriptionModel) TableName() string {
	return "push_subscriptions"
}

// CostItemModel represents the cost_items table
type CostItemModel struct {
	ID        int           `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID int           `gorm:"column:product_id;index;not null"`
	Product   *ProductModel `gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name      string        `gorm:"column:name;not null"`
	Type      string        `gorm:"column:type;not null"` // 'percent' | 'fixed'
	Value     float64       `gorm:"column:value;not null;default:0"`
	SortOrder int           `gorm:"column:sort_order;not null;default:0"`
	CreatedAt time.Time     `gorm:"column:created_at;not null;autoCreateTime"`
}

func (CostItemModel) TableName() string {
	return "cost_items"
}

// CostPresetModel represents the cost_presets table
type CostPresetModel struct {
	ID        int          `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID  int          `gorm:"column:tenant_id;index;not null"`
	Tenant    *TenantModel `gorm:"foreignKey:TenantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name      string       `gorm:"column:name;not null"`
	Items     string       `gorm:"column:items;type:text;not null"` // JSON array as text
	CreatedAt time.Time    `gorm:"column:created_at;not null;autoCreateTime"`
}

func (CostPresetModel) TableName() string {
	return "cost_presets"
}

// AllModels lists every model for AutoMigrate, parents before children
func AllModels() []interface{} {
	return []interface{}{
		&TenantModel{},
		&ProductModel{},
		&KeywordModel{},
		&RankingModel{},
		&CrawlLogModel{},
		&BlacklistModel{},
		&IncludeOverrideModel{},
		&ShippingOverrideModel{},
		&AlertModel{},
		&AlertSettingModel{},
		&PushSubscriptionModel{},
		&CostItemModel{},
		&CostPresetModel{},
	}
}
