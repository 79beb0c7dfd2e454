package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/stockcore-go/internal/domain/inventory"
)

func TestItem_AvailableQty(t *testing.T) {
	item := &inventory.Item{
		CurrentQty:  decimal.NewFromInt(10),
		ReservedQty: decimal.NewFromInt(3),
	}

	assert.True(t, item.AvailableQty().Equal(decimal.NewFromInt(7)))
}

func TestItem_CanFulfill(t *testing.T) {
	item := &inventory.Item{
		CurrentQty:  decimal.NewFromInt(10),
		ReservedQty: decimal.NewFromInt(3),
	}

	assert.True(t, item.CanFulfill(decimal.NewFromInt(7), false))
	assert.False(t, item.CanFulfill(decimal.NewFromInt(8), false))
	// Negative stock policy overrides availability
	assert.True(t, item.CanFulfill(decimal.NewFromInt(100), true))
}

func TestItem_Shortage(t *testing.T) {
	item := &inventory.Item{
		CurrentQty:  decimal.NewFromInt(5),
		ReservedQty: decimal.NewFromInt(2),
	}

	assert.True(t, item.Shortage(decimal.NewFromInt(10)).Equal(decimal.NewFromInt(7)))
	assert.True(t, item.Shortage(decimal.NewFromInt(2)).IsZero())
}

func TestItem_ReserveAndRelease(t *testing.T) {
	item := &inventory.Item{
		CurrentQty:  decimal.NewFromInt(10),
		ReservedQty: decimal.Zero,
	}

	require.NoError(t, item.Reserve(decimal.NewFromInt(4)))
	assert.True(t, item.ReservedQty.Equal(decimal.NewFromInt(4)))

	require.NoError(t, item.Release(decimal.NewFromInt(3)))
	assert.True(t, item.ReservedQty.Equal(decimal.NewFromInt(1)))
}

func TestItem_ReleaseMoreThanReserved(t *testing.T) {
	item := &inventory.Item{
		ReservedQty: decimal.NewFromInt(1),
	}

	err := item.Release(decimal.NewFromInt(2))
	assert.Error(t, err)
	assert.True(t, item.ReservedQty.Equal(decimal.NewFromInt(1)), "reservation unchanged on failure")
}

func TestItem_ReserveRejectsNonPositive(t *testing.T) {
	item := &inventory.Item{}

	assert.Error(t, item.Reserve(decimal.Zero))
	assert.Error(t, item.Release(decimal.NewFromInt(-1)))
}
