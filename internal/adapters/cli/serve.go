package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/asimaster/pricerank/internal/adapters/httpapi"
	"github.com/asimaster/pricerank/internal/application/health"
	"github.com/asimaster/pricerank/internal/application/scheduling"
	"github.com/asimaster/pricerank/internal/infrastructure/config"
	"github.com/asimaster/pricerank/internal/infrastructure/database"
)

// NewServeCommand creates the serve command: the long-running service with
// the scheduler and the HTTP API.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the monitoring service (scheduler + HTTP API)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoadConfig(configPath)
			return runServe(cfg)
		},
	}
}

func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	scheduler := scheduling.NewScheduler(
		app.tenants, app.keywords, app.coordinator, app.sweeper, app.clock,
		scheduling.Config{
			CheckInterval:    time.Duration(cfg.Scheduler.CheckIntervalMin) * time.Minute,
			RetentionDays:    cfg.Scheduler.RetentionDays,
			CleanupBatchSize: cfg.Scheduler.CleanupBatchSize,
		})
	scheduler.Start(ctx)
	defer scheduler.Stop()

	healthSvc := health.NewService(
		database.NewPinger(app.db), app.crawlLogs, scheduler.Running, app.clock)

	server := httpapi.NewServer(httpapi.ServerDeps{
		Coordinator: app.coordinator,
		Status:      app.status,
		Health:      healthSvc,
		Exporter:    app.exporter,
		Suggester:   app.suggester,

		Tenants:       app.tenants,
		Products:      app.products,
		Keywords:      app.keywords,
		CostItems:     app.costItems,
		CostPresets:   app.costPresets,
		Rankings:      app.rankings,
		Blacklists:    app.blacklists,
		Includes:      app.includes,
		ShipOverrides: app.shipOverrides,
		Alerts:        app.alerts,
		AlertSettings: app.alertSettings,
		Subscriptions: app.subscriptions,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[serve] listening on %s", cfg.Server.Address)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("[serve] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[serve] shutdown: %v", err)
	}
	return nil
}
