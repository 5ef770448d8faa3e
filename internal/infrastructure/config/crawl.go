package config

import "time"

// CrawlConfig bounds the crawl pipeline
type CrawlConfig struct {
	// Per-keyword fetch attempts
	MaxRetries int `mapstructure:"max_retries" validate:"min=1"`

	// Jitter bounds between fetches
	RequestDelayMin time.Duration `mapstructure:"request_delay_min"`
	RequestDelayMax time.Duration `mapstructure:"request_delay_max"`

	// Semaphore sizes
	Concurrency         int `mapstructure:"concurrency" validate:"min=1"`
	ShippingConcurrency int `mapstructure:"shipping_concurrency" validate:"min=1"`

	// Default tenant interval when unset (minutes)
	DefaultIntervalMin int `mapstructure:"default_interval_min"`
}

// SchedulerConfig holds the tick period and retention parameters
type SchedulerConfig struct {
	CheckIntervalMin int `mapstructure:"check_interval_min" validate:"min=1"`
	RetentionDays    int `mapstructure:"retention_days" validate:"min=1"`
	CleanupBatchSize int `mapstructure:"cleanup_batch_size" validate:"min=1"`
}

// CatalogConfig holds catalog-level limits
type CatalogConfig struct {
	// Active-keyword cap per product, enforced at keyword creation
	MaxKeywordsPerProduct int `mapstructure:"max_keywords_per_product" validate:"min=1"`
}
