package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/stockcore-go/internal/domain/inventory"
	"github.com/andrescamacho/stockcore-go/test/helpers"
)

func TestRefreshItem_DeletesRowWithoutMovements(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	location := helpers.SeedLocation(t, env.repos, "MAIN")
	product := helpers.SeedProduct(t, env.repos, "P001")

	// A stale cache row with no ledger backing it
	require.NoError(t, env.repos.Items.Upsert(ctx, &inventory.Item{
		LocationID: location.ID, ProductID: product.ID,
		CurrentQty: dec("99"), AvgCost: dec("1"), UpdatedAt: time.Now().UTC(),
	}))

	item, err := env.refresher.RefreshItem(ctx, env.repos, location.ID, product.ID)
	require.NoError(t, err)
	assert.Nil(t, item)

	_, err = env.repos.Items.Find(ctx, location.ID, product.ID)
	var notFound *inventory.ErrItemNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestRebuildAll_RederivesCorruptedCaches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	location := helpers.SeedLocation(t, env.repos, "MAIN")
	plain := helpers.SeedProduct(t, env.repos, "P001")
	batched := helpers.SeedProduct(t, env.repos, "P002")

	receive(t, env, location.ID, plain.ID, "10", "5", "", nil)
	receive(t, env, location.ID, batched.ID, "4", "2", "B1", nil)

	// Corrupt both caches behind the ledger's back
	require.NoError(t, env.repos.Items.Upsert(ctx, &inventory.Item{
		LocationID: location.ID, ProductID: plain.ID,
		CurrentQty: dec("0"), AvgCost: dec("0"), UpdatedAt: time.Now().UTC(),
	}))
	require.NoError(t, env.repos.Items.Delete(ctx, location.ID, batched.ID))

	require.NoError(t, env.refresher.RebuildAll(ctx))

	item, err := env.repos.Items.Find(ctx, location.ID, plain.ID)
	require.NoError(t, err)
	assert.True(t, item.CurrentQty.Equal(dec("10")), "expected 10 but got %s", item.CurrentQty)
	assert.True(t, item.AvgCost.Equal(dec("5")))

	item, err = env.repos.Items.Find(ctx, location.ID, batched.ID)
	require.NoError(t, err)
	assert.True(t, item.CurrentQty.Equal(dec("4")))
}
