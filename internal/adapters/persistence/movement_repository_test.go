package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/stockcore-go/internal/adapters/persistence"
	"github.com/andrescamacho/stockcore-go/internal/domain/inventory"
	"github.com/andrescamacho/stockcore-go/internal/domain/shared"
	"github.com/andrescamacho/stockcore-go/test/helpers"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newMovement(t *testing.T, locationID, productID uint, movementType inventory.MovementType, qty, cost string, salePrice *decimal.Decimal, at time.Time) *inventory.Movement {
	t.Helper()
	source, err := inventory.NewSource(inventory.SourceKindSale, "S-0001")
	require.NoError(t, err)
	m, err := inventory.NewMovement(
		locationID, productID, movementType,
		dec(qty), dec(cost), salePrice,
		"", nil, source, "",
		shared.NewOperationContext("tester", at), at,
	)
	require.NoError(t, err)
	return m
}

func TestMovementRepository_CreateAndFindByID(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormMovementRepository(db)
	ctx := context.Background()

	price := dec("15")
	movement := newMovement(t, 1, 2, inventory.MovementTypeOut, "4", "10", &price, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, movement))

	found, err := repo.FindByID(ctx, movement.ID())
	require.NoError(t, err)
	assert.Equal(t, movement.ID(), found.ID())
	assert.Equal(t, inventory.MovementTypeOut, found.Type())
	assert.True(t, found.Quantity().Equal(dec("4")))
	require.NotNil(t, found.SalePrice())
	assert.True(t, found.SalePrice().Equal(price))
	require.NotNil(t, found.ProfitMargin())
	assert.True(t, found.ProfitMargin().Equal(dec("33.33")))
}

func TestMovementRepository_FindByID_NotFound(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormMovementRepository(db)

	_, err := repo.FindByID(context.Background(), inventory.NewMovementID())

	var notFound *inventory.ErrMovementNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestMovementRepository_QueryFilters(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormMovementRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newMovement(t, 1, 1, inventory.MovementTypeIn, "10", "5", nil, base)))
	require.NoError(t, repo.Create(ctx, newMovement(t, 1, 1, inventory.MovementTypeOut, "3", "5", nil, base.AddDate(0, 0, 1))))
	require.NoError(t, repo.Create(ctx, newMovement(t, 1, 2, inventory.MovementTypeIn, "7", "2", nil, base.AddDate(0, 0, 2))))
	require.NoError(t, repo.Create(ctx, newMovement(t, 2, 1, inventory.MovementTypeIn, "1", "1", nil, base.AddDate(0, 0, 3))))

	locationID := uint(1)
	productID := uint(1)
	movements, err := repo.Query(ctx, inventory.QueryOptions{LocationID: &locationID, ProductID: &productID})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, inventory.MovementTypeIn, movements[0].Type(), "default order is oldest first")

	movementType := inventory.MovementTypeOut
	movements, err = repo.Query(ctx, inventory.QueryOptions{LocationID: &locationID, MovementType: &movementType})
	require.NoError(t, err)
	require.Len(t, movements, 1)

	cutoff := base.AddDate(0, 0, 2)
	movements, err = repo.Query(ctx, inventory.QueryOptions{StartDate: &cutoff})
	require.NoError(t, err)
	assert.Len(t, movements, 2)

	movements, err = repo.Query(ctx, inventory.QueryOptions{OrderBy: "movement_date DESC", Limit: 1})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, uint(2), movements[0].LocationID(), "newest movement first")

	count, err := repo.Count(ctx, inventory.QueryOptions{LocationID: &locationID})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMovementRepository_ProfitSummary(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormMovementRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	price := dec("15")
	require.NoError(t, repo.Create(ctx, newMovement(t, 1, 1, inventory.MovementTypeOut, "4", "10", &price, now)))
	require.NoError(t, repo.Create(ctx, newMovement(t, 1, 1, inventory.MovementTypeOut, "2", "10", &price, now)))
	// Incoming and priceless movements stay out of the aggregation
	require.NoError(t, repo.Create(ctx, newMovement(t, 1, 1, inventory.MovementTypeIn, "10", "10", nil, now)))
	require.NoError(t, repo.Create(ctx, newMovement(t, 1, 1, inventory.MovementTypeOut, "1", "10", nil, now)))

	summary, err := repo.ProfitSummary(ctx, inventory.QueryOptions{})
	require.NoError(t, err)
	assert.True(t, summary.SoldQty.Equal(dec("6")))
	assert.True(t, summary.Revenue.Equal(dec("90")))
	assert.True(t, summary.Cost.Equal(dec("60")))
	assert.True(t, summary.Profit.Equal(dec("30")))
	assert.True(t, summary.MarginPercentage.Equal(dec("33.33")))
}

func TestMovementRepository_ListKeys(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormMovementRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, newMovement(t, 1, 1, inventory.MovementTypeIn, "1", "1", nil, now)))
	require.NoError(t, repo.Create(ctx, newMovement(t, 1, 1, inventory.MovementTypeIn, "2", "1", nil, now)))
	require.NoError(t, repo.Create(ctx, newMovement(t, 1, 2, inventory.MovementTypeIn, "3", "1", nil, now)))
	require.NoError(t, repo.Create(ctx, newMovement(t, 2, 1, inventory.MovementTypeIn, "4", "1", nil, now)))

	keys, err := repo.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []inventory.ItemKey{
		{LocationID: 1, ProductID: 1},
		{LocationID: 1, ProductID: 2},
		{LocationID: 2, ProductID: 1},
	}, keys)
}

func TestMovementRepository_FindBySource(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormMovementRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	source, err := inventory.NewSource(inventory.SourceKindDeliveryReceipt, "DR-000042")
	require.NoError(t, err)
	opCtx := shared.NewOperationContext("tester", now)

	for _, qty := range []string{"5", "3"} {
		m, err := inventory.NewMovement(1, 1, inventory.MovementTypeIn,
			dec(qty), dec("2"), nil, "", nil, source, "", opCtx, now)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, m))
	}
	require.NoError(t, repo.Create(ctx, newMovement(t, 1, 1, inventory.MovementTypeOut, "1", "2", nil, now)))

	movements, err := repo.FindBySource(ctx, source)
	require.NoError(t, err)
	assert.Len(t, movements, 2)
}
