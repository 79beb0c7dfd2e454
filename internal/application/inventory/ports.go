package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/stockcore-go/internal/domain/ports"
	"github.com/andrescamacho/stockcore-go/internal/domain/pricing"
)

// SalePriceResolver is the slice of the pricing resolver the movement
// processor needs: resolving a selling price for a sale without one.
type SalePriceResolver interface {
	SalePrice(ctx context.Context, r ports.Repos, locationID, productID uint, customer *pricing.Customer, quantity decimal.Decimal, date time.Time) (decimal.Decimal, string, error)
}

// MarkupUpdater receives cost-change propagation: when the weighted
// average cost of a pair moves beyond the threshold, markup-method base
// prices are recomputed inside the same transaction.
type MarkupUpdater interface {
	UpdateMarkupPrices(ctx context.Context, r ports.Repos, locationID, productID uint, newCost decimal.Decimal) error
}

// MetricsRecorder receives movement processing outcomes. A no-op
// implementation is used when metrics are disabled.
type MetricsRecorder interface {
	MovementProcessed(movementType, result string)
	ReservationChanged(operation, result string)
}

// NopMetrics is the no-op MetricsRecorder
type NopMetrics struct{}

func (NopMetrics) MovementProcessed(string, string) {}
func (NopMetrics) ReservationChanged(string, string) {}
