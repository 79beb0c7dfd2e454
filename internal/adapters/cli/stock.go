package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/stockcore-go/internal/domain/inventory"
)

// NewStockCommand creates the stock command with subcommands
func NewStockCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Inspect stock balances, movements and batches",
	}

	cmd.AddCommand(newStockListCommand())
	cmd.AddCommand(newStockMovementsCommand())
	cmd.AddCommand(newStockExpiringCommand())

	return cmd
}

// newStockListCommand lists balance cache rows for one location
func newStockListCommand() *cobra.Command {
	var locationCode string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stock balances for a location",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			location, err := a.repos.Locations.FindByCode(ctx, locationCode)
			if err != nil {
				return err
			}

			items, err := a.repos.Items.ListByLocation(ctx, location.ID)
			if err != nil {
				return fmt.Errorf("failed to list stock: %w", err)
			}

			if len(items) == 0 {
				fmt.Println("No stock found")
				return nil
			}

			fmt.Printf("%-10s %14s %14s %14s %12s\n",
				"PRODUCT", "ON HAND", "RESERVED", "AVAILABLE", "AVG COST")
			for _, item := range items {
				fmt.Printf("%-10d %14s %14s %14s %12s\n",
					item.ProductID,
					item.CurrentQty.String(),
					item.ReservedQty.String(),
					item.AvailableQty().String(),
					item.AvgCost.StringFixed(4),
				)
			}
			fmt.Printf("\nTotal: %d products\n", len(items))

			return nil
		},
	}

	cmd.Flags().StringVar(&locationCode, "location", "", "Location code (required)")
	_ = cmd.MarkFlagRequired("location")

	return cmd
}

// newStockMovementsCommand lists ledger entries
func newStockMovementsCommand() *cobra.Command {
	var (
		locationCode string
		productID    uint
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "movements",
		Short: "List stock movements, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			opts := inventory.DefaultQueryOptions()
			opts.OrderBy = "movement_date DESC"
			opts.Limit = limit

			if locationCode != "" {
				location, err := a.repos.Locations.FindByCode(ctx, locationCode)
				if err != nil {
					return err
				}
				opts.LocationID = &location.ID
			}
			if productID > 0 {
				opts.ProductID = &productID
			}

			movements, err := a.repos.Movements.Query(ctx, opts)
			if err != nil {
				return fmt.Errorf("failed to query movements: %w", err)
			}

			if len(movements) == 0 {
				fmt.Println("No movements found")
				return nil
			}

			fmt.Printf("%-20s %-15s %-10s %12s %12s %-20s\n",
				"DATE", "TYPE", "PRODUCT", "QUANTITY", "COST", "SOURCE")
			for _, m := range movements {
				source := fmt.Sprintf("%s %s", m.Source().Kind, m.Source().Number)
				fmt.Printf("%-20s %-15s %-10d %12s %12s %-20s\n",
					m.MovementDate().Format("2006-01-02 15:04:05"),
					m.Type().String(),
					m.ProductID(),
					m.Quantity().String(),
					m.CostPrice().StringFixed(4),
					truncate(source, 20),
				)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&locationCode, "location", "", "Filter by location code")
	cmd.Flags().UintVar(&productID, "product", 0, "Filter by product ID")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of movements to show")

	return cmd
}

// newStockExpiringCommand lists batches expiring within a horizon
func newStockExpiringCommand() *cobra.Command {
	var (
		locationCode string
		days         int
	)

	cmd := &cobra.Command{
		Use:   "expiring",
		Short: "List batches expiring within the given number of days",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			location, err := a.repos.Locations.FindByCode(ctx, locationCode)
			if err != nil {
				return err
			}

			cutoff := time.Now().UTC().AddDate(0, 0, days)
			batches, err := a.repos.Batches.ListExpiring(ctx, location.ID, cutoff)
			if err != nil {
				return fmt.Errorf("failed to list expiring batches: %w", err)
			}

			if len(batches) == 0 {
				fmt.Println("No expiring batches found")
				return nil
			}

			fmt.Printf("%-10s %-20s %-12s %14s %12s\n",
				"PRODUCT", "BATCH", "EXPIRY", "REMAINING", "COST")
			for _, b := range batches {
				expiry := ""
				if b.ExpiryDate != nil {
					expiry = b.ExpiryDate.Format("2006-01-02")
				}
				fmt.Printf("%-10d %-20s %-12s %14s %12s\n",
					b.ProductID,
					truncate(b.BatchNumber, 20),
					expiry,
					b.RemainingQty.String(),
					b.CostPrice.StringFixed(4),
				)
			}
			fmt.Printf("\nTotal: %d batches\n", len(batches))

			return nil
		},
	}

	cmd.Flags().StringVar(&locationCode, "location", "", "Location code (required)")
	cmd.Flags().IntVar(&days, "days", 30, "Expiry horizon in days")
	_ = cmd.MarkFlagRequired("location")

	return cmd
}
