package config

import "time"

// MarketplaceConfig holds the marketplace search API and shipping scraper
// configuration. The client id and secret are mandatory: the service refuses
// to start without them.
type MarketplaceConfig struct {
	ClientID     string `mapstructure:"client_id" validate:"required"`
	ClientSecret string `mapstructure:"client_secret" validate:"required"`

	// Search endpoint URL
	SearchURL string `mapstructure:"search_url" validate:"required,url"`

	// Per-call timeouts
	SearchTimeout   time.Duration `mapstructure:"search_timeout"`
	ShippingTimeout time.Duration `mapstructure:"shipping_timeout"`

	// Rate limiting settings
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Maximum requests per second
	Requests int `mapstructure:"requests" validate:"min=1"`

	// Burst size for token bucket
	Burst int `mapstructure:"burst" validate:"min=1"`
}
