package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/stockcore-go/internal/infrastructure/database"
)

// NewMigrateCommand creates the migrate command
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database schema migrations",
		Long:  `Create or update the database schema for all StockCore tables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := database.AutoMigrate(a.db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Println("Schema migration complete")
			return nil
		},
	}
}
