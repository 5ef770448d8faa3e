package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pricerank",
		Short: "Price and rank monitoring service for marketplace sellers",
		Long: `pricerank tracks where a seller's products stand in marketplace search
results: who undercuts them, where they rank, and when either changes.

Examples:
  pricerank serve
  pricerank crawl user 3
  pricerank crawl product 42
  pricerank sweep
  pricerank suggest "스테인리스 보온병 500ml" --store "멋진스토어"`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: search ./configs and /etc/pricerank)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewCrawlCommand())
	rootCmd.AddCommand(NewSweepCommand())
	rootCmd.AddCommand(NewSuggestCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
