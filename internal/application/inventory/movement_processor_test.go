package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinventory "github.com/andrescamacho/stockcore-go/internal/application/inventory"
	"github.com/andrescamacho/stockcore-go/internal/domain/catalog"
	"github.com/andrescamacho/stockcore-go/internal/domain/inventory"
	"github.com/andrescamacho/stockcore-go/internal/domain/shared"
	"github.com/andrescamacho/stockcore-go/test/helpers"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sourceOf(t *testing.T, kind inventory.SourceKind, number string) inventory.Source {
	t.Helper()
	source, err := inventory.NewSource(kind, number)
	require.NoError(t, err)
	return source
}

// receive records a stock receipt and fails the test when it is rejected
func receive(t *testing.T, env *testEnv, locationID, productID uint, qty, cost, batch string, expiry *time.Time) shared.Result {
	t.Helper()
	res := env.processor.CreateIncoming(context.Background(), opCtxNow(), appinventory.IncomingParams{
		LocationID:  locationID,
		ProductID:   productID,
		Quantity:    dec(qty),
		CostPrice:   dec(cost),
		Source:      sourceOf(t, inventory.SourceKindPurchaseOrder, "PO-1001"),
		BatchNumber: batch,
		ExpiryDate:  expiry,
	})
	require.True(t, res.OK, "receipt failed: %s", res.Message)
	return res
}

func TestCreateIncoming_RecordsMovementAndRefreshesBalance(t *testing.T) {
	env := newTestEnv(t)
	location := helpers.SeedLocation(t, env.repos, "MAIN")
	product := helpers.SeedProduct(t, env.repos, "P001")

	res := receive(t, env, location.ID, product.ID, "10", "5.00", "", nil)

	assert.Equal(t, shared.CodeOK, res.Code)
	assert.NotEmpty(t, res.Data["movement_id"])
	assert.True(t, dec(res.Data["current_qty"].(string)).Equal(dec("10")))
	assert.True(t, dec(res.Data["avg_cost"].(string)).Equal(dec("5")))

	item, err := env.repos.Items.Find(context.Background(), location.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, item.CurrentQty.Equal(dec("10")))
	require.NotNil(t, item.LastPurchaseCost)
	assert.True(t, item.LastPurchaseCost.Equal(dec("5")))

	movements, err := env.repos.Movements.FindForKey(context.Background(), location.ID, product.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, inventory.MovementTypeIn, movements[0].Type())
}

func TestCreateIncoming_WeightedAverageCost(t *testing.T) {
	env := newTestEnv(t)
	location := helpers.SeedLocation(t, env.repos, "MAIN")
	product := helpers.SeedProduct(t, env.repos, "P001")

	receive(t, env, location.ID, product.ID, "10", "5.00", "", nil)
	res := receive(t, env, location.ID, product.ID, "5", "7.00", "", nil)

	// (10*5 + 5*7) / 15 rounded to four places
	avg := dec(res.Data["avg_cost"].(string))
	assert.True(t, avg.Equal(dec("5.6667")), "expected 5.6667, got %s", avg)
	assert.True(t, dec(res.Data["current_qty"].(string)).Equal(dec("15")))
}

func TestCreateIncoming_Rejections(t *testing.T) {
	env := newTestEnv(t)
	location := helpers.SeedLocation(t, env.repos, "MAIN")
	product := helpers.SeedProduct(t, env.repos, "P001")
	ctx := context.Background()
	source := sourceOf(t, inventory.SourceKindPurchaseOrder, "PO-1001")

	tests := []struct {
		name     string
		params   appinventory.IncomingParams
		wantCode string
	}{
		{
			name: "zero quantity",
			params: appinventory.IncomingParams{
				LocationID: location.ID, ProductID: product.ID,
				Quantity: decimal.Zero, CostPrice: dec("5"), Source: source,
			},
			wantCode: shared.CodeInvalidQuantity,
		},
		{
			name: "negative cost",
			params: appinventory.IncomingParams{
				LocationID: location.ID, ProductID: product.ID,
				Quantity: dec("1"), CostPrice: dec("-1"), Source: source,
			},
			wantCode: shared.CodeValidation,
		},
		{
			name: "unknown location",
			params: appinventory.IncomingParams{
				LocationID: 9999, ProductID: product.ID,
				Quantity: dec("1"), CostPrice: dec("5"), Source: source,
			},
			wantCode: shared.CodeValidation,
		},
		{
			name: "unknown product",
			params: appinventory.IncomingParams{
				LocationID: location.ID, ProductID: 9999,
				Quantity: dec("1"), CostPrice: dec("5"), Source: source,
			},
			wantCode: shared.CodeValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.processor.CreateIncoming(ctx, opCtxNow(), tt.params)
			assert.False(t, res.OK)
			assert.Equal(t, tt.wantCode, res.Code)
		})
	}

	movements, err := env.repos.Movements.FindForKey(ctx, location.ID, product.ID)
	require.NoError(t, err)
	assert.Empty(t, movements, "rejected receipts must not reach the ledger")
}

func TestCreateIncoming_BlockedProduct(t *testing.T) {
	env := newTestEnv(t)
	location := helpers.SeedLocation(t, env.repos, "MAIN")
	product := helpers.SeedProduct(t, env.repos, "P001", func(p *catalog.Product) {
		p.PurchaseBlocked = true
	})

	res := env.processor.CreateIncoming(context.Background(), opCtxNow(), appinventory.IncomingParams{
		LocationID: location.ID, ProductID: product.ID,
		Quantity: dec("1"), CostPrice: dec("5"),
		Source: sourceOf(t, inventory.SourceKindPurchaseOrder, "PO-1001"),
	})

	assert.False(t, res.OK)
	assert.Equal(t, shared.CodeValidation, res.Code)
	assert.NotEmpty(t, res.Data["validation_code"])
}

func TestCreateIncoming_AutoGeneratesBatchNumber(t *testing.T) {
	env := newTestEnv(t)
	location := helpers.SeedLocation(t, env.repos, "MAIN")
	product := helpers.SeedProduct(t, env.repos, "P001", func(p *catalog.Product) {
		require.NoError(t, p.EnableBatchTracking())
	})

	res := receive(t, env, location.ID, product.ID, "10", "5.00", "", nil)

	batch := res.Data["batch_number"].(string)
	assert.Contains(t, batch, "AUTO_P001_")
	assert.Contains(t, batch, "_MAIN")

	batches, err := env.repos.Batches.ListAvailable(context.Background(), location.ID, product.ID)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, batch, batches[0].BatchNumber)
	assert.True(t, batches[0].IsUnknownBatch)
	assert.True(t, batches[0].RemainingQty.Equal(dec("10")))
}

func TestCreateOutgoing_AllocatesFIFOAcrossBatches(t *testing.T) {
	env := newTestEnv(t)
	location := helpers.SeedLocation(t, env.repos, "MAIN")
	product := helpers.SeedProduct(t, env.repos, "P001", func(p *catalog.Product) {
		require.NoError(t, p.EnableBatchTracking())
	})

	near := time.Now().UTC().AddDate(0, 0, 10)
	far := time.Now().UTC().AddDate(0, 0, 30)
	// Received in reverse order so FIFO must sort by expiry, not insertion
	receive(t, env, location.ID, product.ID, "10", "6.00", "B2", &far)
	receive(t, env, location.ID, product.ID, "10", "5.00", "B1", &near)

	res := env.processor.CreateOutgoing(context.Background(), opCtxNow(), appinventory.OutgoingParams{
		LocationID: location.ID,
		ProductID:  product.ID,
		Quantity:   dec("15"),
		Source:     sourceOf(t, inventory.SourceKindSale, "S-0001"),
	})
	require.True(t, res.OK, res.Message)

	allocations := res.Data["allocations"].([]map[string]interface{})
	require.Len(t, allocations, 2)
	assert.Equal(t, "B1", allocations[0]["batch_number"])
	assert.True(t, dec(allocations[0]["quantity"].(string)).Equal(dec("10")))
	assert.True(t, dec(allocations[0]["cost_price"].(string)).Equal(dec("5")))
	assert.Equal(t, "B2", allocations[1]["batch_number"])
	assert.True(t, dec(allocations[1]["quantity"].(string)).Equal(dec("5")))
	assert.True(t, dec(allocations[1]["cost_price"].(string)).Equal(dec("6")))

	// B1 is consumed, B2 keeps the remainder
	batches, err := env.repos.Batches.ListAvailable(context.Background(), location.ID, product.ID)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "B2", batches[0].BatchNumber)
	assert.True(t, batches[0].RemainingQty.Equal(dec("5")))

	assert.True(t, dec(res.Data["current_qty"].(string)).Equal(dec("5")))
}

func TestCreateOutgoing_ManualBatchSkipsFIFO(t *testing.T) {
	env := newTestEnv(t)
	location := helpers.SeedLocation(t, env.repos, "MAIN")
	product := helpers.SeedProduct(t, env.repos, "P001", func(p *catalog.Product) {
		require.NoError(t, p.EnableBatchTracking())
	})

	near := time.Now().UTC().AddDate(0, 0, 10)
	far := time.Now().UTC().AddDate(0, 0, 30)
	receive(t, env, location.ID, product.ID, "10", "5.00", "B1", &near)
	receive(t, env, location.ID, product.ID, "10", "6.00", "B2", &far)

	res := env.processor.CreateOutgoing(context.Background(), opCtxNow(), appinventory.OutgoingParams{
		LocationID:  location.ID,
		ProductID:   product.ID,
		Quantity:    dec("4"),
		Source:      sourceOf(t, inventory.SourceKindSale, "S-0002"),
		BatchNumber: "B2",
		ExpiryDate:  &far,
	})
	require.True(t, res.OK, res.Message)

	allocations := res.Data["allocations"].([]map[string]interface{})
	require.Len(t, allocations, 1)
	assert.Equal(t, "B2", allocations[0]["batch_number"])
	// The named batch's stored cost, not the FIFO head's
	assert.True(t, dec(allocations[0]["cost_price"].(string)).Equal(dec("6")))

	b2, err := env.repos.Batches.Find(context.Background(), inventory.BatchKey{
		LocationID: location.ID, ProductID: product.ID, BatchNumber: "B2", ExpiryDate: &far,
	})
	require.NoError(t, err)
	assert.True(t, b2.RemainingQty.Equal(dec("6")))
}

func TestCreateOutgoing_InsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	location := helpers.SeedLocation(t, env.repos, "MAIN")
	product := helpers.SeedProduct(t, env.repos, "P001")

	receive(t, env, location.ID, product.ID, "10", "5.00", "", nil)

	res := env.processor.CreateOutgoing(context.Background(), opCtxNow(), appinventory.OutgoingParams{
		LocationID: location.ID,
		ProductID:  product.ID,
		Quantity:   dec("15"),
		Source:     sourceOf(t, inventory.SourceKindSale, "S-0001"),
	})

	assert.False(t, res.OK)
	assert.Equal(t, inventory.CodeInsufficientStock, res.Code)
	assert.Equal(t, "10", res.Data["available"])
	assert.Equal(t, "5", res.Data["shortage"])

	// Rolled back: the receipt is the only ledger entry and the balance holds
	movements, err := env.repos.Movements.FindForKey(context.Background(), location.ID, product.ID)
	require.NoError(t, err)
	assert.Len(t, movements, 1)
	item, err := env.repos.Items.Find(context.Background(), location.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, item.CurrentQty.Equal(dec("10")))
}

func TestCreateOutgoing_InsufficientBatchStock(t *testing.T) {
	env := newTestEnv(t)
	location := helpers.SeedLocation(t, env.repos, "MAIN")
	product := helpers.SeedProduct(t, env.repos, "P001", func(p *catalog.Product) {
		require.NoError(t, p.EnableBatchTracking())
	})

	expiry := time.Now().UTC().AddDate(0, 0, 10)
	receive(t, env, location.ID, product.ID, "3", "5.00", "B1", &expiry)

	res := env.processor.CreateOutgoing(context.Background(), opCtxNow(), appinventory.OutgoingParams{
		LocationID: location.ID,
		ProductID:  product.ID,
		Quantity:   dec("5"),
		Source:     sourceOf(t, inventory.SourceKindSale, "S-0001"),
	})

	assert.False(t, res.OK)
	assert.Equal(t, inventory.CodeInsufficientBatchStock, res.Code)
	assert.Equal(t, "3", res.Data["available"])
}

func TestCreateOutgoing_NegativeStockAllowed(t *testing.T) {
	env := newTestEnv(t)
	location := helpers.SeedLocation(t, env.repos, "POS1", func(l *catalog.Location) {
		l.AllowNegativeStock = true
	})
	product := helpers.SeedProduct(t, env.repos, "P001")

	res := env.processor.CreateOutgoing(context.Background(), opCtxNow(), appinventory.OutgoingParams{
		LocationID: location.ID,
		ProductID:  product.ID,
		Quantity:   dec("5"),
		Source:     sourceOf(t, inventory.SourceKindSale, "S-0001"),
	})

	require.True(t, res.OK, res.Message)
	assert.True(t, dec(res.Data["current_qty"].(string)).Equal(dec("-5")))
}

func TestCreateTransfer_MovesStockBetweenLocations(t *testing.T) {
	env := newTestEnv(t)
	from := helpers.SeedLocation(t, env.repos, "MAIN")
	to := helpers.SeedLocation(t, env.repos, "POS1")
	product := helpers.SeedProduct(t, env.repos, "P001")

	receive(t, env, from.ID, product.ID, "10", "4.00", "", nil)

	res := env.processor.CreateTransfer(context.Background(), opCtxNow(), appinventory.TransferParams{
		FromLocationID: from.ID,
		ToLocationID:   to.ID,
		ProductID:      product.ID,
		Quantity:       dec("6"),
		Source:         sourceOf(t, inventory.SourceKindTransfer, "TR-0001"),
	})
	require.True(t, res.OK, res.Message)

	assert.NotEmpty(t, res.Data["transfer_ref"])
	assert.Equal(t, 1, res.Data["legs"])
	assert.Len(t, res.Data["movement_ids"], 2)

	source, err := env.repos.Items.Find(context.Background(), from.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, source.CurrentQty.Equal(dec("4")))

	dest, err := env.repos.Items.Find(context.Background(), to.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, dest.CurrentQty.Equal(dec("6")))

	outLegs, err := env.repos.Movements.FindForKey(context.Background(), from.ID, product.ID)
	require.NoError(t, err)
	inLegs, err := env.repos.Movements.FindForKey(context.Background(), to.ID, product.ID)
	require.NoError(t, err)

	var ref string
	for _, m := range outLegs {
		if m.Type() == inventory.MovementTypeTransferOut {
			ref = m.TransferRef()
			require.NotNil(t, m.CounterpartLocationID())
			assert.Equal(t, to.ID, *m.CounterpartLocationID())
		}
	}
	require.NotEmpty(t, ref)
	require.Len(t, inLegs, 1)
	assert.Equal(t, inventory.MovementTypeTransferIn, inLegs[0].Type())
	assert.Equal(t, ref, inLegs[0].TransferRef())
}

func TestCreateTransfer_CarriesBatches(t *testing.T) {
	env := newTestEnv(t)
	from := helpers.SeedLocation(t, env.repos, "MAIN")
	to := helpers.SeedLocation(t, env.repos, "POS1")
	product := helpers.SeedProduct(t, env.repos, "P001", func(p *catalog.Product) {
		require.NoError(t, p.EnableBatchTracking())
	})

	expiry := time.Now().UTC().AddDate(0, 0, 20)
	receive(t, env, from.ID, product.ID, "10", "4.00", "B1", &expiry)

	res := env.processor.CreateTransfer(context.Background(), opCtxNow(), appinventory.TransferParams{
		FromLocationID: from.ID,
		ToLocationID:   to.ID,
		ProductID:      product.ID,
		Quantity:       dec("6"),
		Source:         sourceOf(t, inventory.SourceKindTransfer, "TR-0001"),
	})
	require.True(t, res.OK, res.Message)

	origin, err := env.repos.Batches.Find(context.Background(), inventory.BatchKey{
		LocationID: from.ID, ProductID: product.ID, BatchNumber: "B1", ExpiryDate: &expiry,
	})
	require.NoError(t, err)
	assert.True(t, origin.RemainingQty.Equal(dec("4")))

	dest, err := env.repos.Batches.Find(context.Background(), inventory.BatchKey{
		LocationID: to.ID, ProductID: product.ID, BatchNumber: "B1", ExpiryDate: &expiry,
	})
	require.NoError(t, err)
	assert.True(t, dest.RemainingQty.Equal(dec("6")))
	assert.True(t, dest.CostPrice.Equal(dec("4")))
}

func TestCreateTransfer_CarriesCostIntoDestinationAverage(t *testing.T) {
	env := newTestEnv(t)
	from := helpers.SeedLocation(t, env.repos, "MAIN")
	to := helpers.SeedLocation(t, env.repos, "POS1")
	product := helpers.SeedProduct(t, env.repos, "P001")
	ctx := context.Background()

	receive(t, env, from.ID, product.ID, "10", "4.00", "", nil)

	res := env.processor.CreateTransfer(ctx, opCtxNow(), appinventory.TransferParams{
		FromLocationID: from.ID,
		ToLocationID:   to.ID,
		ProductID:      product.ID,
		Quantity:       dec("6"),
		Source:         sourceOf(t, inventory.SourceKindTransfer, "TR-0001"),
	})
	require.True(t, res.OK, res.Message)

	dest, err := env.repos.Items.Find(ctx, to.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, dest.AvgCost.Equal(dec("4")),
		"expected destination avg cost 4 but got %s", dest.AvgCost)

	// Issues at the destination are costed from the carried average
	out := env.processor.CreateOutgoing(ctx, opCtxNow(), appinventory.OutgoingParams{
		LocationID: to.ID,
		ProductID:  product.ID,
		Quantity:   dec("2"),
		Source:     sourceOf(t, inventory.SourceKindSale, "S-0001"),
	})
	require.True(t, out.OK, out.Message)
	allocations := out.Data["allocations"].([]map[string]interface{})
	require.Len(t, allocations, 1)
	assert.True(t, dec(allocations[0]["cost_price"].(string)).Equal(dec("4")),
		"expected outgoing cost 4 but got %s", allocations[0]["cost_price"])
}

func TestCreateTransfer_BlendsDestinationAverage(t *testing.T) {
	env := newTestEnv(t)
	from := helpers.SeedLocation(t, env.repos, "MAIN")
	to := helpers.SeedLocation(t, env.repos, "POS1")
	product := helpers.SeedProduct(t, env.repos, "P001")
	ctx := context.Background()

	receive(t, env, from.ID, product.ID, "10", "4.00", "", nil)
	receive(t, env, to.ID, product.ID, "10", "6.00", "", nil)

	res := env.processor.CreateTransfer(ctx, opCtxNow(), appinventory.TransferParams{
		FromLocationID: from.ID,
		ToLocationID:   to.ID,
		ProductID:      product.ID,
		Quantity:       dec("10"),
		Source:         sourceOf(t, inventory.SourceKindTransfer, "TR-0001"),
	})
	require.True(t, res.OK, res.Message)

	// (10*6 + 10*4) / 20 = 5
	dest, err := env.repos.Items.Find(ctx, to.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, dest.AvgCost.Equal(dec("5")),
		"expected blended avg cost 5 but got %s", dest.AvgCost)
}

func TestCreateTransfer_Rejections(t *testing.T) {
	env := newTestEnv(t)
	location := helpers.SeedLocation(t, env.repos, "MAIN")
	product := helpers.SeedProduct(t, env.repos, "P001")
	source := sourceOf(t, inventory.SourceKindTransfer, "TR-0001")

	res := env.processor.CreateTransfer(context.Background(), opCtxNow(), appinventory.TransferParams{
		FromLocationID: location.ID,
		ToLocationID:   location.ID,
		ProductID:      product.ID,
		Quantity:       dec("1"),
		Source:         source,
	})
	assert.False(t, res.OK)
	assert.Equal(t, shared.CodeValidation, res.Code)

	res = env.processor.CreateTransfer(context.Background(), opCtxNow(), appinventory.TransferParams{
		FromLocationID: location.ID,
		ToLocationID:   9999,
		ProductID:      product.ID,
		Quantity:       dec("1"),
		Source:         source,
	})
	assert.False(t, res.OK)
	assert.Equal(t, shared.CodeValidation, res.Code)
}

func TestCreateAdjustment_PositiveAndNegative(t *testing.T) {
	env := newTestEnv(t)
	location := helpers.SeedLocation(t, env.repos, "MAIN")
	product := helpers.SeedProduct(t, env.repos, "P001")
	ctx := context.Background()
	cost := dec("2.50")

	res := env.processor.CreateAdjustment(ctx, opCtxNow(), appinventory.AdjustmentParams{
		LocationID: location.ID,
		ProductID:  product.ID,
		SignedQty:  dec("5"),
		Reason:     "found during stocktake",
		CostPrice:  &cost,
	})
	require.True(t, res.OK, res.Message)
	assert.Equal(t, inventory.MovementTypeAdjustmentIn.String(), res.Data["type"])
	assert.Equal(t, appinventory.CostSourceManual, res.Data["cost_source"])
	assert.True(t, dec(res.Data["current_qty"].(string)).Equal(dec("5")))

	res = env.processor.CreateAdjustment(ctx, opCtxNow(), appinventory.AdjustmentParams{
		LocationID: location.ID,
		ProductID:  product.ID,
		SignedQty:  dec("-2"),
		Reason:     "damaged",
	})
	require.True(t, res.OK, res.Message)
	assert.Equal(t, inventory.MovementTypeAdjustmentOut.String(), res.Data["type"])
	assert.True(t, dec(res.Data["current_qty"].(string)).Equal(dec("3")))
}

func TestCreateAdjustment_Validation(t *testing.T) {
	env := newTestEnv(t)
	location := helpers.SeedLocation(t, env.repos, "MAIN")
	product := helpers.SeedProduct(t, env.repos, "P001")
	ctx := context.Background()

	res := env.processor.CreateAdjustment(ctx, opCtxNow(), appinventory.AdjustmentParams{
		LocationID: location.ID, ProductID: product.ID,
		SignedQty: decimal.Zero, Reason: "noop",
	})
	assert.Equal(t, shared.CodeInvalidQuantity, res.Code)

	res = env.processor.CreateAdjustment(ctx, opCtxNow(), appinventory.AdjustmentParams{
		LocationID: location.ID, ProductID: product.ID,
		SignedQty: dec("1"),
	})
	assert.Equal(t, shared.CodeValidation, res.Code)

	res = env.processor.CreateAdjustment(ctx, opCtxNow(), appinventory.AdjustmentParams{
		LocationID: location.ID, ProductID: product.ID,
		SignedQty: dec("-5"), Reason: "shrinkage",
	})
	assert.Equal(t, inventory.CodeInsufficientStock, res.Code)
}

func TestCreateAdjustment_CycleCountSource(t *testing.T) {
	env := newTestEnv(t)
	location := helpers.SeedLocation(t, env.repos, "MAIN")
	product := helpers.SeedProduct(t, env.repos, "P001")
	cost := dec("1")

	res := env.processor.CreateAdjustment(context.Background(), opCtxNow(), appinventory.AdjustmentParams{
		LocationID: location.ID,
		ProductID:  product.ID,
		SignedQty:  dec("3"),
		Reason:     "quarterly count",
		CostPrice:  &cost,
		CycleCount: true,
	})
	require.True(t, res.OK, res.Message)

	movements, err := env.repos.Movements.FindForKey(context.Background(), location.ID, product.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, inventory.SourceKindCycleCount, movements[0].Source().Kind)
}

func TestReverse_RestoresBalance(t *testing.T) {
	env := newTestEnv(t)
	location := helpers.SeedLocation(t, env.repos, "MAIN")
	product := helpers.SeedProduct(t, env.repos, "P001")
	ctx := context.Background()

	res := receive(t, env, location.ID, product.ID, "10", "5.00", "", nil)
	movementID, err := inventory.ParseMovementID(res.Data["movement_id"].(string))
	require.NoError(t, err)

	rev := env.processor.Reverse(ctx, opCtxNow(), movementID, "wrong delivery")
	require.True(t, rev.OK, rev.Message)
	assert.Equal(t, movementID.String(), rev.Data["reversed_movement_id"])
	assert.True(t, dec(rev.Data["current_qty"].(string)).Equal(decimal.Zero))

	movements, err := env.repos.Movements.FindForKey(ctx, location.ID, product.ID)
	require.NoError(t, err)
	require.Len(t, movements, 2)

	var reversal *inventory.Movement
	for _, m := range movements {
		if m.Source().Kind == inventory.SourceKindReversal {
			reversal = m
		}
	}
	require.NotNil(t, reversal)
	assert.Equal(t, inventory.MovementTypeOut, reversal.Type())
	assert.True(t, reversal.CostPrice().Equal(dec("5")))
}

func TestReverse_RejectsReversingAReversal(t *testing.T) {
	env := newTestEnv(t)
	location := helpers.SeedLocation(t, env.repos, "MAIN")
	product := helpers.SeedProduct(t, env.repos, "P001")
	ctx := context.Background()

	res := receive(t, env, location.ID, product.ID, "10", "5.00", "", nil)
	movementID, err := inventory.ParseMovementID(res.Data["movement_id"].(string))
	require.NoError(t, err)

	rev := env.processor.Reverse(ctx, opCtxNow(), movementID, "wrong delivery")
	require.True(t, rev.OK, rev.Message)

	reversalID, err := inventory.ParseMovementID(rev.Data["movement_id"].(string))
	require.NoError(t, err)

	again := env.processor.Reverse(ctx, opCtxNow(), reversalID, "undo the undo")
	assert.False(t, again.OK)
	assert.Equal(t, shared.CodeValidation, again.Code)
}

func TestReverse_UnknownMovement(t *testing.T) {
	env := newTestEnv(t)

	res := env.processor.Reverse(context.Background(), opCtxNow(), inventory.NewMovementID(), "nothing there")

	assert.False(t, res.OK)
	assert.Equal(t, shared.CodeItemNotFound, res.Code)
}

func TestReverse_TransferLegRestoresOneSide(t *testing.T) {
	env := newTestEnv(t)
	from := helpers.SeedLocation(t, env.repos, "MAIN")
	to := helpers.SeedLocation(t, env.repos, "POS1")
	product := helpers.SeedProduct(t, env.repos, "P001")
	ctx := context.Background()

	receive(t, env, from.ID, product.ID, "10", "4.00", "", nil)
	res := env.processor.CreateTransfer(ctx, opCtxNow(), appinventory.TransferParams{
		FromLocationID: from.ID,
		ToLocationID:   to.ID,
		ProductID:      product.ID,
		Quantity:       dec("6"),
		Source:         sourceOf(t, inventory.SourceKindTransfer, "TR-0001"),
	})
	require.True(t, res.OK, res.Message)

	inLegs, err := env.repos.Movements.FindForKey(ctx, to.ID, product.ID)
	require.NoError(t, err)
	require.Len(t, inLegs, 1)

	// Reversing the incoming leg compensates with a plain OUT record
	rev := env.processor.Reverse(ctx, opCtxNow(), inLegs[0].ID(), "mis-scanned destination")
	require.True(t, rev.OK, rev.Message)
	assert.True(t, dec(rev.Data["current_qty"].(string)).Equal(decimal.Zero))

	// The source side is untouched
	source, err := env.repos.Items.Find(ctx, from.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, source.CurrentQty.Equal(dec("4")))
}
