package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asimaster/pricerank/internal/infrastructure/config"
)

// NewSweepCommand creates the sweep command: a one-off retention sweep,
// useful after lowering the retention window.
func NewSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete ranking rows and crawl logs past the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoadConfig(configPath)
			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.sweeper.Sweep(context.Background()); err != nil {
				return err
			}
			fmt.Println("Retention sweep complete")
			return nil
		},
	}
}
