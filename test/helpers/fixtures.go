package helpers

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/stockcore-go/internal/domain/catalog"
	"github.com/andrescamacho/stockcore-go/internal/domain/ports"
)

// SeedLocation creates and persists a location with sensible defaults
func SeedLocation(t *testing.T, r ports.Repos, code string, opts ...func(*catalog.Location)) *catalog.Location {
	t.Helper()

	location, err := catalog.NewLocation(code, "Location "+code, false,
		decimal.NewFromInt(30), catalog.BatchTrackingOptional)
	if err != nil {
		t.Fatalf("failed to build location: %v", err)
	}
	for _, opt := range opts {
		opt(location)
	}
	if err := r.Locations.Save(context.Background(), location); err != nil {
		t.Fatalf("failed to save location: %v", err)
	}
	return location
}

// SeedProduct creates and persists an active product
func SeedProduct(t *testing.T, r ports.Repos, code string, opts ...func(*catalog.Product)) *catalog.Product {
	t.Helper()

	product, err := catalog.NewProduct(code, "Product "+code, "pcs",
		catalog.UnitTypePiece, "STANDARD", decimal.NewFromInt(20))
	if err != nil {
		t.Fatalf("failed to build product: %v", err)
	}
	if err := product.SetLifecycleStatus(catalog.LifecycleActive); err != nil {
		t.Fatalf("failed to activate product: %v", err)
	}
	for _, opt := range opts {
		opt(product)
	}
	if err := r.Products.Save(context.Background(), product); err != nil {
		t.Fatalf("failed to save product: %v", err)
	}
	return product
}
