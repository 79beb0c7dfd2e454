package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/stockcore-go/internal/adapters/persistence"
	"github.com/andrescamacho/stockcore-go/internal/domain/inventory"
	"github.com/andrescamacho/stockcore-go/test/helpers"
)

func seedBatch(t *testing.T, repo *persistence.GormBatchRepository, number string, expiry *time.Time, received time.Time, remaining string) {
	t.Helper()
	require.NoError(t, repo.Upsert(context.Background(), &inventory.Batch{
		LocationID:   1,
		ProductID:    1,
		BatchNumber:  number,
		ExpiryDate:   expiry,
		ReceivedQty:  dec(remaining),
		RemainingQty: dec(remaining),
		CostPrice:    dec("2"),
		ReceivedDate: received,
		UpdatedAt:    received,
	}))
}

func TestBatchRepository_ListAvailableFIFO(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormBatchRepository(db)
	now := time.Now().UTC()
	near := now.AddDate(0, 0, 5)
	far := now.AddDate(0, 0, 30)

	// Inserted out of order; nil expiry must sort last
	seedBatch(t, repo, "NOEXP", nil, now.AddDate(0, 0, -10), "5")
	seedBatch(t, repo, "FAR", &far, now.AddDate(0, 0, -2), "5")
	seedBatch(t, repo, "NEAR", &near, now.AddDate(0, 0, -1), "5")
	seedBatch(t, repo, "EMPTY", &near, now.AddDate(0, 0, -5), "0")

	batches, err := repo.ListAvailable(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, batches, 3, "consumed batches are excluded")
	assert.Equal(t, "NEAR", batches[0].BatchNumber)
	assert.Equal(t, "FAR", batches[1].BatchNumber)
	assert.Equal(t, "NOEXP", batches[2].BatchNumber)
}

func TestBatchRepository_UpsertReplacesRow(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormBatchRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()
	expiry := now.AddDate(0, 1, 0)

	seedBatch(t, repo, "B1", &expiry, now, "10")
	require.NoError(t, repo.Upsert(ctx, &inventory.Batch{
		LocationID: 1, ProductID: 1, BatchNumber: "B1", ExpiryDate: &expiry,
		ReceivedQty: dec("10"), RemainingQty: dec("4"),
		CostPrice: dec("2"), ReceivedDate: now, UpdatedAt: now,
	}))

	batch, err := repo.Find(ctx, inventory.BatchKey{
		LocationID: 1, ProductID: 1, BatchNumber: "B1", ExpiryDate: &expiry,
	})
	require.NoError(t, err)
	assert.True(t, batch.RemainingQty.Equal(dec("4")))

	batches, err := repo.ListAvailable(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, batches, 1, "upsert must not create a second row")
}

func TestBatchRepository_FindDistinguishesExpiry(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormBatchRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()
	expiry := now.AddDate(0, 1, 0)

	// Same batch number with and without an expiry are distinct rows
	seedBatch(t, repo, "B1", &expiry, now, "10")
	seedBatch(t, repo, "B1", nil, now, "3")

	withExpiry, err := repo.Find(ctx, inventory.BatchKey{
		LocationID: 1, ProductID: 1, BatchNumber: "B1", ExpiryDate: &expiry,
	})
	require.NoError(t, err)
	assert.True(t, withExpiry.RemainingQty.Equal(dec("10")))

	withoutExpiry, err := repo.Find(ctx, inventory.BatchKey{
		LocationID: 1, ProductID: 1, BatchNumber: "B1",
	})
	require.NoError(t, err)
	assert.True(t, withoutExpiry.RemainingQty.Equal(dec("3")))

	_, err = repo.Find(ctx, inventory.BatchKey{
		LocationID: 1, ProductID: 1, BatchNumber: "GHOST",
	})
	var notFound *inventory.ErrBatchNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestBatchRepository_ListExpiring(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormBatchRepository(db)
	now := time.Now().UTC()
	soon := now.AddDate(0, 0, 3)
	later := now.AddDate(0, 0, 10)
	far := now.AddDate(0, 0, 60)

	seedBatch(t, repo, "LATER", &later, now, "5")
	seedBatch(t, repo, "SOON", &soon, now, "5")
	seedBatch(t, repo, "FAR", &far, now, "5")
	seedBatch(t, repo, "NOEXP", nil, now, "5")

	batches, err := repo.ListExpiring(context.Background(), 1, now.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "SOON", batches[0].BatchNumber)
	assert.Equal(t, "LATER", batches[1].BatchNumber)
}

func TestItemRepository_UpsertAndList(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormItemRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Upsert(ctx, &inventory.Item{
		LocationID: 1, ProductID: 1, CurrentQty: dec("10"), AvgCost: dec("5"), UpdatedAt: now,
	}))
	require.NoError(t, repo.Upsert(ctx, &inventory.Item{
		LocationID: 1, ProductID: 2, CurrentQty: dec("3"), AvgCost: dec("2"), UpdatedAt: now,
	}))
	// Second upsert for the same pair replaces the row
	require.NoError(t, repo.Upsert(ctx, &inventory.Item{
		LocationID: 1, ProductID: 1, CurrentQty: dec("7"), AvgCost: dec("5.5"), UpdatedAt: now,
	}))

	item, err := repo.Find(ctx, 1, 1)
	require.NoError(t, err)
	assert.True(t, item.CurrentQty.Equal(dec("7")))
	assert.True(t, item.AvgCost.Equal(dec("5.5")))

	items, err := repo.ListByLocation(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	require.NoError(t, repo.Delete(ctx, 1, 1))
	_, err = repo.Find(ctx, 1, 1)
	var notFound *inventory.ErrItemNotFound
	assert.ErrorAs(t, err, &notFound)
}
