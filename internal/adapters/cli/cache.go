package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	appinventory "github.com/andrescamacho/stockcore-go/internal/application/inventory"
	"github.com/andrescamacho/stockcore-go/internal/domain/shared"
)

// NewCacheCommand creates the cache command with subcommands
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the balance and batch caches",
		Long:  `The balance and batch caches are derived from the movement ledger and can be rebuilt at any time.`,
	}

	cmd.AddCommand(newCacheRebuildCommand())

	return cmd
}

// newCacheRebuildCommand re-derives every cache row from the ledger
func newCacheRebuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild all cache rows from the movement ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			refresher := appinventory.NewRefreshService(a.uow, a.logger, shared.NewRealClock())
			if err := refresher.RebuildAll(cmd.Context()); err != nil {
				return fmt.Errorf("cache rebuild failed: %w", err)
			}

			fmt.Println("Cache rebuild complete")
			return nil
		},
	}
}
