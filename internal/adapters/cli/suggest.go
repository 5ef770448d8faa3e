package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asimaster/pricerank/internal/infrastructure/config"
)

// NewSuggestCommand creates the suggest command: generate search keywords
// for a product name without registering anything.
func NewSuggestCommand() *cobra.Command {
	var store string
	var count int

	suggestCmd := &cobra.Command{
		Use:   "suggest <product-name>",
		Short: "Suggest search keywords for a product name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoadConfig(configPath)
			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			suggestions := app.suggester.Suggest(context.Background(), args[0], store, count)
			if len(suggestions) == 0 {
				fmt.Println("No keyword suggestions")
				return nil
			}
			for _, s := range suggestions {
				fmt.Printf("  %-40s %-8s %d\n", s.Keyword, s.Level, s.Score)
			}
			return nil
		},
	}

	suggestCmd.Flags().StringVar(&store, "store", "", "Store label to strip from the product name")
	suggestCmd.Flags().IntVar(&count, "count", 0, "Maximum suggestions (default 5)")

	return suggestCmd
}
