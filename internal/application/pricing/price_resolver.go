package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andrescamacho/stockcore-go/internal/domain/inventory"
	"github.com/andrescamacho/stockcore-go/internal/domain/pricing"
	"github.com/andrescamacho/stockcore-go/internal/domain/ports"
	"github.com/andrescamacho/stockcore-go/internal/domain/shared"
)

// Request describes one price resolution
type Request struct {
	LocationID uint
	ProductID  uint
	Customer   *pricing.Customer
	Quantity   decimal.Decimal
	Date       time.Time
}

// Resolution is the outcome of a price resolution: the selling price and
// the source tier that produced it
type Resolution struct {
	Price    decimal.Decimal
	Source   string
	RecordID uint
}

// PriceResolver resolves selling prices through the fixed tier order:
// promotions, group prices, step prices, the base price, and finally a
// markup over cost. Resolution is read-only and deterministic for a given
// store state.
type PriceResolver struct {
	uow    ports.UnitOfWork
	logger *zap.Logger
}

// NewPriceResolver creates a price resolver
func NewPriceResolver(uow ports.UnitOfWork, logger *zap.Logger) *PriceResolver {
	return &PriceResolver{uow: uow, logger: logger}
}

// Resolve resolves the selling price through the tier order inside the
// caller's transaction scope
func (p *PriceResolver) Resolve(ctx context.Context, r ports.Repos, req Request) (*Resolution, error) {
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("quantity must be positive, got %s", req.Quantity)
	}
	if req.Date.IsZero() {
		req.Date = time.Now()
	}

	// Tier 1: promotions, cheapest first, priority breaking ties
	promotions, err := r.Prices.FindActivePromotions(ctx, req.LocationID, req.ProductID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to read promotions: %w", err)
	}
	for _, promo := range promotions {
		if promo.AppliesTo(req.Date, req.Quantity, req.Customer) {
			return &Resolution{
				Price:    shared.RoundCurrency(promo.PromotionalPrice),
				Source:   pricing.SourcePromotion,
				RecordID: promo.ID,
			}, nil
		}
	}

	// Tier 2: customer group prices
	if req.Customer != nil && req.Customer.PriceGroup != "" {
		groupPrices, err := r.Prices.FindGroupPrices(ctx, req.LocationID, req.ProductID, req.Customer.PriceGroup, req.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to read group prices: %w", err)
		}
		if len(groupPrices) > 0 {
			best := groupPrices[0]
			return &Resolution{
				Price:    shared.RoundCurrency(best.Price),
				Source:   pricing.SourceGroupPrice,
				RecordID: best.ID,
			}, nil
		}
	}

	// Tier 3: quantity-break prices, largest threshold not above quantity
	stepPrices, err := r.Prices.FindStepPrices(ctx, req.LocationID, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to read step prices: %w", err)
	}
	for _, step := range stepPrices {
		if req.Quantity.GreaterThanOrEqual(step.MinQuantity) {
			return &Resolution{
				Price:    shared.RoundCurrency(step.Price),
				Source:   pricing.SourceStepPrice,
				RecordID: step.ID,
			}, nil
		}
	}

	// Tier 4: the base price
	base, err := r.Prices.FindBasePrice(ctx, req.LocationID, req.ProductID)
	if err != nil {
		var notFound *pricing.ErrPriceNotFound
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read base price: %w", err)
		}
	} else {
		price, err := p.effectiveBasePrice(ctx, r, base, req.LocationID, req.ProductID)
		if err != nil {
			return nil, err
		}
		if price.IsPositive() {
			return &Resolution{Price: price, Source: pricing.SourceBasePrice, RecordID: base.ID}, nil
		}
	}

	// Tier 5: cost plus the location's default markup
	location, err := r.Locations.FindByID(ctx, req.LocationID)
	if err != nil {
		return nil, fmt.Errorf("location %d not found: %w", req.LocationID, err)
	}
	cost := p.currentCost(ctx, r, req.LocationID, req.ProductID)
	if cost.IsPositive() && location.DefaultMarkupPercentage.IsPositive() {
		return &Resolution{
			Price:  shared.ApplyMarkup(cost, location.DefaultMarkupPercentage),
			Source: pricing.SourceCostMarkup,
		}, nil
	}

	return &Resolution{Price: decimal.Zero, Source: pricing.SourceNone}, nil
}

// SalePrice implements the movement processor's resolver port
func (p *PriceResolver) SalePrice(ctx context.Context, r ports.Repos, locationID, productID uint, customer *pricing.Customer, quantity decimal.Decimal, date time.Time) (decimal.Decimal, string, error) {
	resolution, err := p.Resolve(ctx, r, Request{
		LocationID: locationID,
		ProductID:  productID,
		Customer:   customer,
		Quantity:   quantity,
		Date:       date,
	})
	if err != nil {
		return decimal.Zero, "", err
	}
	return resolution.Price, resolution.Source, nil
}

// ResolveStandalone opens its own read transaction and resolves
func (p *PriceResolver) ResolveStandalone(ctx context.Context, req Request) (*Resolution, error) {
	var resolution *Resolution
	err := p.uow.Execute(ctx, func(ctx context.Context, r ports.Repos) error {
		var err error
		resolution, err = p.Resolve(ctx, r, req)
		return err
	})
	return resolution, err
}

// BarcodeResolution extends a resolution with the packaging conversion of
// the scanned barcode
type BarcodeResolution struct {
	Resolution
	ProductID        uint
	PackagingUnit    string
	ConversionFactor decimal.Decimal
	UnitPrice        decimal.Decimal
}

// ResolveBarcode resolves the price of a scanned barcode. A barcode bound
// to a packaging uses the packaging price when one exists; the unit price
// is the pack price divided by the conversion factor.
func (p *PriceResolver) ResolveBarcode(ctx context.Context, r ports.Repos, code string, locationID uint, customer *pricing.Customer, quantity decimal.Decimal, date time.Time) (*BarcodeResolution, error) {
	barcode, err := r.Prices.FindBarcode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("barcode %s not found: %w", code, err)
	}

	if barcode.HasPackaging() {
		pack, err := r.Prices.FindPackagingPrice(ctx, locationID, barcode.PackagingUnit, barcode.ProductID)
		if err == nil && pack.EffectivePrice.IsPositive() {
			packPrice := shared.RoundCurrency(pack.EffectivePrice)
			return &BarcodeResolution{
				Resolution: Resolution{
					Price:    packPrice,
					Source:   pricing.SourcePackaging,
					RecordID: pack.ID,
				},
				ProductID:        barcode.ProductID,
				PackagingUnit:    barcode.PackagingUnit,
				ConversionFactor: barcode.ConversionFactor,
				UnitPrice:        shared.RoundCurrency(packPrice.Div(barcode.ConversionFactor)),
			}, nil
		}
		// No packaging price: fall back to the unit resolution scaled by
		// the conversion factor
		unit, err := p.Resolve(ctx, r, Request{
			LocationID: locationID,
			ProductID:  barcode.ProductID,
			Customer:   customer,
			Quantity:   quantity.Mul(barcode.ConversionFactor),
			Date:       date,
		})
		if err != nil {
			return nil, err
		}
		return &BarcodeResolution{
			Resolution: Resolution{
				Price:    shared.RoundCurrency(unit.Price.Mul(barcode.ConversionFactor)),
				Source:   unit.Source,
				RecordID: unit.RecordID,
			},
			ProductID:        barcode.ProductID,
			PackagingUnit:    barcode.PackagingUnit,
			ConversionFactor: barcode.ConversionFactor,
			UnitPrice:        unit.Price,
		}, nil
	}

	unit, err := p.Resolve(ctx, r, Request{
		LocationID: locationID,
		ProductID:  barcode.ProductID,
		Customer:   customer,
		Quantity:   quantity,
		Date:       date,
	})
	if err != nil {
		return nil, err
	}
	return &BarcodeResolution{
		Resolution:       *unit,
		ProductID:        barcode.ProductID,
		ConversionFactor: decimal.NewFromInt(1),
		UnitPrice:        unit.Price,
	}, nil
}

// UpdateMarkupPrices recomputes the effective price of every active
// markup-method base price for the pair from the new cost. Implements the
// movement processor's cost-change propagation port.
func (p *PriceResolver) UpdateMarkupPrices(ctx context.Context, r ports.Repos, locationID, productID uint, newCost decimal.Decimal) error {
	prices, err := r.Prices.ListMarkupBasePrices(ctx, locationID, productID)
	if err != nil {
		return fmt.Errorf("failed to list markup prices: %w", err)
	}
	if len(prices) == 0 {
		return nil
	}

	location, err := r.Locations.FindByID(ctx, locationID)
	if err != nil {
		return fmt.Errorf("location %d not found: %w", locationID, err)
	}

	for _, price := range prices {
		updated := price.ComputeEffective(newCost, location.DefaultMarkupPercentage)
		if updated.Equal(price.EffectivePrice) {
			continue
		}
		p.logger.Info("markup price recomputed",
			zap.Uint("location", locationID),
			zap.Uint("product", productID),
			zap.String("old", price.EffectivePrice.String()),
			zap.String("new", updated.String()))
		price.EffectivePrice = updated
		if err := r.Prices.SaveBasePrice(ctx, price); err != nil {
			return fmt.Errorf("failed to save recomputed price: %w", err)
		}
	}
	return nil
}

// effectiveBasePrice returns the selling price of a base price record,
// recomputing cost-derived methods from the current cost when the cached
// effective price is stale or missing
func (p *PriceResolver) effectiveBasePrice(ctx context.Context, r ports.Repos, base *pricing.BasePrice, locationID, productID uint) (decimal.Decimal, error) {
	if base.Method == pricing.PriceMethodFixed {
		return shared.RoundCurrency(base.BasePrice), nil
	}
	if base.EffectivePrice.IsPositive() {
		return shared.RoundCurrency(base.EffectivePrice), nil
	}
	location, err := r.Locations.FindByID(ctx, locationID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("location %d not found: %w", locationID, err)
	}
	cost := p.currentCost(ctx, r, locationID, productID)
	return base.ComputeEffective(cost, location.DefaultMarkupPercentage), nil
}

// currentCost reads the pair's cost from the balance cache: average cost,
// then last purchase cost, then zero
func (p *PriceResolver) currentCost(ctx context.Context, r ports.Repos, locationID, productID uint) decimal.Decimal {
	item, err := r.Items.Find(ctx, locationID, productID)
	if err != nil {
		var notFound *inventory.ErrItemNotFound
		if !errors.As(err, &notFound) {
			p.logger.Warn("cost lookup failed", zap.Uint("location", locationID), zap.Uint("product", productID), zap.Error(err))
		}
		return decimal.Zero
	}
	if item.AvgCost.IsPositive() {
		return item.AvgCost
	}
	if item.LastPurchaseCost != nil && item.LastPurchaseCost.IsPositive() {
		return *item.LastPurchaseCost
	}
	return decimal.Zero
}
