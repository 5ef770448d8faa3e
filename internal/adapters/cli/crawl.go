package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/asimaster/pricerank/internal/infrastructure/config"
)

// NewCrawlCommand creates the crawl command group for one-off runs
func NewCrawlCommand() *cobra.Command {
	crawlCmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run a one-off crawl outside the scheduler",
	}
	crawlCmd.AddCommand(newCrawlUserCommand())
	crawlCmd.AddCommand(newCrawlProductCommand())
	return crawlCmd
}

func newCrawlUserCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "user <id>",
		Short: "Crawl every active keyword of one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			cfg := config.MustLoadConfig(configPath)
			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := app.coordinator.CrawlTenant(context.Background(), id)
			if err != nil {
				return err
			}
			fmt.Printf("Crawled %d keywords: %d succeeded, %d failed\n",
				stats.Total, stats.Success, stats.Failed)
			return nil
		},
	}
}

func newCrawlProductCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Crawl every active keyword of one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid product id %q", args[0])
			}

			cfg := config.MustLoadConfig(configPath)
			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			summaries, err := app.coordinator.CrawlProduct(context.Background(), id)
			if err != nil {
				return err
			}
			for _, s := range summaries {
				if s.Success {
					fmt.Printf("  %-30s %3d items\n", s.Keyword, s.ItemsCount)
				} else {
					fmt.Printf("  %-30s failed: %s\n", s.Keyword, s.Error)
				}
			}
			return nil
		},
	}
}
