package cli

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/asimaster/pricerank/internal/adapters/api"
	"github.com/asimaster/pricerank/internal/adapters/persistence"
	"github.com/asimaster/pricerank/internal/adapters/push"
	"github.com/asimaster/pricerank/internal/application/alerting"
	"github.com/asimaster/pricerank/internal/application/crawl"
	"github.com/asimaster/pricerank/internal/application/export"
	"github.com/asimaster/pricerank/internal/application/keywords"
	"github.com/asimaster/pricerank/internal/application/scheduling"
	"github.com/asimaster/pricerank/internal/domain/shared"
	"github.com/asimaster/pricerank/internal/infrastructure/config"
	"github.com/asimaster/pricerank/internal/infrastructure/database"
)

// app is the assembled dependency graph shared by the CLI commands. Each
// command builds one, uses what it needs and closes it on the way out.
type app struct {
	cfg   *config.Config
	db    *gorm.DB
	clock shared.Clock

	tenants       *persistence.GormTenantRepository
	products      *persistence.GormProductRepository
	keywords      *persistence.GormKeywordRepository
	costItems     *persistence.GormCostItemRepository
	costPresets   *persistence.GormCostPresetRepository
	rankings      *persistence.GormRankingRepository
	crawlLogs     *persistence.GormCrawlLogRepository
	blacklists    *persistence.GormBlacklistRepository
	includes      *persistence.GormIncludeOverrideRepository
	shipOverrides *persistence.GormShippingOverrideRepository
	alerts        *persistence.GormAlertRepository
	alertSettings *persistence.GormAlertSettingRepository
	subscriptions *persistence.GormPushSubscriptionRepository

	client      *api.MarketplaceClient
	pushSender  *push.WebPushSender
	engine      *alerting.Engine
	coordinator *crawl.Coordinator
	status      *crawl.StatusReader
	sweeper     *scheduling.Sweeper
	exporter    *export.Service
	suggester   *keywords.Suggester
}

func newApp(cfg *config.Config) (*app, error) {
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	clock := shared.NewRealClock()

	a := &app{
		cfg:   cfg,
		db:    db,
		clock: clock,

		tenants:       persistence.NewGormTenantRepository(db),
		products:      persistence.NewGormProductRepository(db),
		keywords:      persistence.NewGormKeywordRepository(db, cfg.Catalog.MaxKeywordsPerProduct),
		costItems:     persistence.NewGormCostItemRepository(db),
		costPresets:   persistence.NewGormCostPresetRepository(db),
		rankings:      persistence.NewGormRankingRepository(db),
		crawlLogs:     persistence.NewGormCrawlLogRepository(db),
		blacklists:    persistence.NewGormBlacklistRepository(db),
		includes:      persistence.NewGormIncludeOverrideRepository(db),
		shipOverrides: persistence.NewGormShippingOverrideRepository(db),
		alerts:        persistence.NewGormAlertRepository(db),
		alertSettings: persistence.NewGormAlertSettingRepository(db),
		subscriptions: persistence.NewGormPushSubscriptionRepository(db),
	}

	a.client = api.NewMarketplaceClient(api.ClientConfig{
		ClientID:          cfg.Marketplace.ClientID,
		ClientSecret:      cfg.Marketplace.ClientSecret,
		SearchURL:         cfg.Marketplace.SearchURL,
		SearchTimeout:     cfg.Marketplace.SearchTimeout,
		ShippingTimeout:   cfg.Marketplace.ShippingTimeout,
		RateLimitRequests: cfg.Marketplace.RateLimit.Requests,
		RateLimitBurst:    cfg.Marketplace.RateLimit.Burst,
	})
	a.pushSender = push.NewWebPushSender(
		cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.ClaimEmail)

	a.engine = alerting.NewEngine(
		a.alerts, a.alertSettings, a.subscriptions, a.pushSender,
		a.rankings, a.blacklists, clock,
		time.Duration(cfg.Alert.DedupHours)*time.Hour)

	writer := persistence.NewGormCrawlWriter(db)
	a.coordinator = crawl.NewCoordinator(
		a.tenants, a.products, a.keywords,
		a.blacklists, a.includes, a.shipOverrides,
		writer, a.client, a.engine, clock,
		crawl.Config{
			MaxRetries:          cfg.Crawl.MaxRetries,
			DelayMin:            cfg.Crawl.RequestDelayMin,
			DelayMax:            cfg.Crawl.RequestDelayMax,
			Concurrency:         cfg.Crawl.Concurrency,
			ShippingConcurrency: cfg.Crawl.ShippingConcurrency,
		})

	a.status = crawl.NewStatusReader(a.keywords, a.crawlLogs, clock)
	a.sweeper = scheduling.NewSweeper(
		a.rankings, a.crawlLogs, clock,
		cfg.Scheduler.RetentionDays, cfg.Scheduler.CleanupBatchSize)
	a.exporter = export.NewService(a.products, a.keywords, a.costItems, a.rankings, a.blacklists)
	a.suggester = keywords.NewSuggester(keywords.NewDictionaryCache(a.rankings, clock))

	return a, nil
}

func (a *app) Close() {
	if err := database.Close(a.db); err != nil {
		fmt.Printf("warning: failed to close database: %v\n", err)
	}
}
