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
		Use:   "stockcore",
		Short: "StockCore - transactional inventory engine",
		Long: `StockCore manages the stock movement ledger, balance and batch caches,
pricing, and the document workflow of a point-of-sale backend.

Examples:
  stockcore migrate
  stockcore cache rebuild
  stockcore stock list --location MAIN
  stockcore stock movements --location MAIN --product 42
  stockcore stock expiring --location MAIN --days 30
  stockcore serve`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: config.yaml in ., ./configs, /etc/stockcore)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	rootCmd.AddCommand(NewMigrateCommand())
	rootCmd.AddCommand(NewCacheCommand())
	rootCmd.AddCommand(NewStockCommand())
	rootCmd.AddCommand(NewServeCommand())

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
