package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "pricerank"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "pricerank"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Marketplace defaults
	if cfg.Marketplace.SearchURL == "" {
		cfg.Marketplace.SearchURL = "https://openapi.naver.com/v1/search/shop.json"
	}
	if cfg.Marketplace.SearchTimeout == 0 {
		cfg.Marketplace.SearchTimeout = 10 * time.Second
	}
	if cfg.Marketplace.ShippingTimeout == 0 {
		cfg.Marketplace.ShippingTimeout = 8 * time.Second
	}
	if cfg.Marketplace.RateLimit.Requests == 0 {
		cfg.Marketplace.RateLimit.Requests = 5
	}
	if cfg.Marketplace.RateLimit.Burst == 0 {
		cfg.Marketplace.RateLimit.Burst = 5
	}

	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	// Crawl defaults
	if cfg.Crawl.MaxRetries == 0 {
		cfg.Crawl.MaxRetries = 3
	}
	if cfg.Crawl.RequestDelayMin == 0 {
		cfg.Crawl.RequestDelayMin = 2 * time.Second
	}
	if cfg.Crawl.RequestDelayMax == 0 {
		cfg.Crawl.RequestDelayMax = 5 * time.Second
	}
	if cfg.Crawl.Concurrency == 0 {
		cfg.Crawl.Concurrency = 5
	}
	if cfg.Crawl.ShippingConcurrency == 0 {
		cfg.Crawl.ShippingConcurrency = 3
	}
	if cfg.Crawl.DefaultIntervalMin == 0 {
		cfg.Crawl.DefaultIntervalMin = 60
	}

	// Scheduler defaults
	if cfg.Scheduler.CheckIntervalMin == 0 {
		cfg.Scheduler.CheckIntervalMin = 10
	}
	if cfg.Scheduler.RetentionDays == 0 {
		cfg.Scheduler.RetentionDays = 30
	}
	if cfg.Scheduler.CleanupBatchSize == 0 {
		cfg.Scheduler.CleanupBatchSize = 10000
	}

	// Catalog defaults
	if cfg.Catalog.MaxKeywordsPerProduct == 0 {
		cfg.Catalog.MaxKeywordsPerProduct = 5
	}

	// Alert defaults
	if cfg.Alert.DedupHours == 0 {
		cfg.Alert.DedupHours = 24
	}
}
