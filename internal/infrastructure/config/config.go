package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the main configuration struct combining all sub-configs
type Config struct {
	Database    DatabaseConfig    `mapstructure:"database"`
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
	Server      ServerConfig      `mapstructure:"server"`
	Crawl       CrawlConfig       `mapstructure:"crawl"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Alert       AlertConfig       `mapstructure:"alert"`
	Push        PushConfig        `mapstructure:"push"`
}

// envBindings maps the flat operational environment variables onto config
// keys. These are the knobs operators actually set; everything else comes
// from the config file or defaults.
var envBindings = map[string]string{
	"CRAWL_DEFAULT_INTERVAL_MIN": "crawl.default_interval_min",
	"CRAWL_MAX_RETRIES":          "crawl.max_retries",
	"CRAWL_CONCURRENCY":          "crawl.concurrency",
	"CRAWL_SHIPPING_CONCURRENCY": "crawl.shipping_concurrency",
	"SCHEDULER_CHECK_INTERVAL_MIN": "scheduler.check_interval_min",
	"DATA_RETENTION_DAYS":          "scheduler.retention_days",
	"CLEANUP_BATCH_SIZE":           "scheduler.cleanup_batch_size",
	"ALERT_DEDUP_HOURS":            "alert.dedup_hours",
	"MAX_KEYWORDS_PER_PRODUCT":     "catalog.max_keywords_per_product",
	"VAPID_PUBLIC_KEY":             "push.vapid_public_key",
	"VAPID_PRIVATE_KEY":            "push.vapid_private_key",
	"VAPID_CLAIM_EMAIL":            "push.claim_email",
	"NAVER_CLIENT_ID":              "marketplace.client_id",
	"NAVER_CLIENT_SECRET":          "marketplace.client_secret",
}

// secondEnvBindings are environment variables expressed in seconds, converted
// to durations before unmarshalling.
var secondEnvBindings = map[string]string{
	"CRAWL_REQUEST_DELAY_MIN": "crawl.request_delay_min",
	"CRAWL_REQUEST_DELAY_MAX": "crawl.request_delay_max",
	"CRAWL_API_TIMEOUT":       "marketplace.search_timeout",
	"CRAWL_SHIPPING_TIMEOUT":  "marketplace.shipping_timeout",
}

// LoadConfig loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. Config file (config.yaml)
// 3. Defaults (lowest priority)
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	v := viper.New()

	// Set config file details
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/pricerank")
	}

	// Enable environment variable reading
	v.SetEnvPrefix("PRICERANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - don't error if missing)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we'll use env vars and defaults
	}

	// Special handling for DATABASE_URL environment variable
	// This allows users to set the full connection string without prefix
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		v.Set("database.url", dbURL)
	}

	// Flat operational env vars
	for env, key := range envBindings {
		if val := os.Getenv(env); val != "" {
			v.Set(key, val)
		}
	}
	for env, key := range secondEnvBindings {
		if val := os.Getenv(env); val != "" {
			secs, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", env, err)
			}
			v.Set(key, time.Duration(secs*float64(time.Second)))
		}
	}

	// Create config struct and unmarshal
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	SetDefaults(&cfg)

	// Validate configuration
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// MustLoadConfig loads configuration and panics on error (for use in main.go)
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
