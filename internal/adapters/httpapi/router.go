package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/asimaster/pricerank/internal/application/crawl"
	"github.com/asimaster/pricerank/internal/application/export"
	"github.com/asimaster/pricerank/internal/application/health"
	"github.com/asimaster/pricerank/internal/application/keywords"
	"github.com/asimaster/pricerank/internal/domain/alert"
	"github.com/asimaster/pricerank/internal/domain/catalog"
	"github.com/asimaster/pricerank/internal/domain/ranking"
)

// Server bundles the application services behind the HTTP surface. Handlers
// stay thin: parse, delegate, map errors.
type Server struct {
	coordinator *crawl.Coordinator
	status      *crawl.StatusReader
	health      *health.Service
	exporter    *export.Service
	suggester   *keywords.Suggester

	tenants       catalog.TenantRepository
	products      catalog.ProductRepository
	keywords      catalog.KeywordRepository
	costItems     catalog.CostItemRepository
	costPresets   catalog.CostPresetRepository
	rankings      ranking.RankingRepository
	blacklists    ranking.BlacklistRepository
	includes      ranking.IncludeOverrideRepository
	shipOverrides ranking.ShippingOverrideRepository
	alerts        alert.Repository
	alertSettings alert.SettingRepository
	subscriptions alert.SubscriptionRepository
}

// ServerDeps lists everything the HTTP surface needs
type ServerDeps struct {
	Coordinator *crawl.Coordinator
	Status      *crawl.StatusReader
	Health      *health.Service
	Exporter    *export.Service
	Suggester   *keywords.Suggester

	Tenants       catalog.TenantRepository
	Products      catalog.ProductRepository
	Keywords      catalog.KeywordRepository
	CostItems     catalog.CostItemRepository
	CostPresets   catalog.CostPresetRepository
	Rankings      ranking.RankingRepository
	Blacklists    ranking.BlacklistRepository
	Includes      ranking.IncludeOverrideRepository
	ShipOverrides ranking.ShippingOverrideRepository
	Alerts        alert.Repository
	AlertSettings alert.SettingRepository
	Subscriptions alert.SubscriptionRepository
}

// NewServer wires the handler set
func NewServer(deps ServerDeps) *Server {
	return &Server{
		coordinator:   deps.Coordinator,
		status:        deps.Status,
		health:        deps.Health,
		exporter:      deps.Exporter,
		suggester:     deps.Suggester,
		tenants:       deps.Tenants,
		products:      deps.Products,
		keywords:      deps.Keywords,
		costItems:     deps.CostItems,
		costPresets:   deps.CostPresets,
		rankings:      deps.Rankings,
		blacklists:    deps.Blacklists,
		includes:      deps.Includes,
		shipOverrides: deps.ShipOverrides,
		alerts:        deps.Alerts,
		alertSettings: deps.AlertSettings,
		subscriptions: deps.Subscriptions,
	}
}

// Routes builds the chi router for the whole API
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/crawl", func(r chi.Router) {
		r.Post("/product/{id}", s.handleCrawlProduct)
		r.Post("/user/{id}", s.handleCrawlTenant)
		r.Get("/status/{id}", s.handleCrawlStatus)
		r.Get("/logs/{id}", s.handleCrawlLogs)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", s.handleCreateTenant)
		r.Get("/{id}", s.handleGetTenant)
		r.Put("/{id}", s.handleUpdateTenant)
		r.Delete("/{id}", s.handleDeleteTenant)
		r.Get("/{id}/products", s.handleListProducts)
		r.Get("/{id}/alerts", s.handleListAlerts)
		r.Post("/{id}/alerts/{alertID}/read", s.handleMarkAlertRead)
		r.Put("/{id}/alert-settings", s.handleUpsertAlertSetting)
		r.Post("/{id}/push-subscriptions", s.handleSavePushSubscription)
		r.Delete("/{id}/push-subscriptions", s.handleDeletePushSubscription)
		r.Get("/{id}/export", s.handleExportCSV)
		r.Get("/{id}/cost-presets", s.handleListCostPresets)
		r.Post("/{id}/cost-presets", s.handleSaveCostPreset)
	})

	r.Route("/products", func(r chi.Router) {
		r.Post("/", s.handleCreateProduct)
		r.Get("/{id}", s.handleGetProduct)
		r.Put("/{id}", s.handleUpdateProduct)
		r.Delete("/{id}", s.handleDeleteProduct)
		r.Get("/{id}/keywords", s.handleListKeywords)
		r.Post("/{id}/keywords", s.handleCreateKeyword)
		r.Get("/{id}/margin", s.handleGetMargin)
		r.Get("/{id}/cost-items", s.handleListCostItems)
		r.Put("/{id}/cost-items", s.handleReplaceCostItems)
		r.Get("/{id}/blacklist", s.handleListBlacklist)
		r.Post("/{id}/blacklist", s.handleAddBlacklist)
		r.Delete("/{id}/blacklist/{listingID}", s.handleRemoveBlacklist)
		r.Post("/{id}/include-overrides", s.handleAddIncludeOverride)
		r.Delete("/{id}/include-overrides/{listingID}", s.handleRemoveIncludeOverride)
		r.Put("/{id}/shipping-overrides", s.handleUpsertShippingOverride)
		r.Delete("/{id}/shipping-overrides/{listingID}", s.handleRemoveShippingOverride)
	})

	r.Delete("/keywords/{id}", s.handleDeleteKeyword)
	r.Get("/keywords/suggest", s.handleSuggestKeywords)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}
