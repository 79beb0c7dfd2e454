package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"github.com/cucumber/messages/go/v21"
	"github.com/shopspring/decimal"

	appinventory "github.com/andrescamacho/stockcore-go/internal/application/inventory"
	"github.com/andrescamacho/stockcore-go/internal/domain/catalog"
	"github.com/andrescamacho/stockcore-go/internal/domain/inventory"
)

// Given steps

func (s *suiteContext) aLocation(code string) error {
	return s.declareLocation(code, false)
}

func (s *suiteContext) aLocationAllowingNegativeStock(code string) error {
	return s.declareLocation(code, true)
}

func (s *suiteContext) declareLocation(code string, allowNegative bool) error {
	location, err := catalog.NewLocation(code, "Location "+code, allowNegative,
		decimal.NewFromInt(30), catalog.BatchTrackingOptional)
	if err != nil {
		return err
	}
	if err := s.repos.Locations.Save(context.Background(), location); err != nil {
		return err
	}
	s.locations[code] = location
	return nil
}

func (s *suiteContext) aProduct(code string) error {
	return s.declareProduct(code, false)
}

func (s *suiteContext) aBatchTrackedProduct(code string) error {
	return s.declareProduct(code, true)
}

func (s *suiteContext) declareProduct(code string, trackBatches bool) error {
	product, err := catalog.NewProduct(code, "Product "+code, "pcs",
		catalog.UnitTypePiece, "STANDARD", decimal.NewFromInt(20))
	if err != nil {
		return err
	}
	if err := product.SetLifecycleStatus(catalog.LifecycleActive); err != nil {
		return err
	}
	if trackBatches {
		if err := product.EnableBatchTracking(); err != nil {
			return err
		}
	}
	if err := s.repos.Products.Save(context.Background(), product); err != nil {
		return err
	}
	s.products[code] = product
	return nil
}

// When steps

func (s *suiteContext) iReceiveUnits(qty int, productCode, locationCode, cost string) error {
	return s.receive(qty, productCode, locationCode, cost, "", 0)
}

func (s *suiteContext) iReceiveUnitsInBatch(qty int, productCode, locationCode, cost, batch string, expiryDays int) error {
	return s.receive(qty, productCode, locationCode, cost, batch, expiryDays)
}

func (s *suiteContext) receive(qty int, productCode, locationCode, cost, batch string, expiryDays int) error {
	location, err := s.location(locationCode)
	if err != nil {
		return err
	}
	product, err := s.product(productCode)
	if err != nil {
		return err
	}
	source, err := inventory.NewSource(inventory.SourceKindPurchaseOrder, "PO-1001")
	if err != nil {
		return err
	}

	params := appinventory.IncomingParams{
		LocationID:  location.ID,
		ProductID:   product.ID,
		Quantity:    decimal.NewFromInt(int64(qty)),
		CostPrice:   dec(cost),
		Source:      source,
		BatchNumber: batch,
	}
	if expiryDays > 0 {
		expiry := time.Now().UTC().AddDate(0, 0, expiryDays)
		params.ExpiryDate = &expiry
	}

	s.lastResult = s.processor.CreateIncoming(context.Background(), s.opCtx("bdd"), params)
	return nil
}

func (s *suiteContext) iIssueUnits(qty int, productCode, locationCode string) error {
	location, err := s.location(locationCode)
	if err != nil {
		return err
	}
	product, err := s.product(productCode)
	if err != nil {
		return err
	}
	source, err := inventory.NewSource(inventory.SourceKindSale, "S-0001")
	if err != nil {
		return err
	}

	s.lastResult = s.processor.CreateOutgoing(context.Background(), s.opCtx("bdd"), appinventory.OutgoingParams{
		LocationID: location.ID,
		ProductID:  product.ID,
		Quantity:   decimal.NewFromInt(int64(qty)),
		Source:     source,
	})
	return nil
}

func (s *suiteContext) iTransferUnits(qty int, productCode, fromCode, toCode string) error {
	from, err := s.location(fromCode)
	if err != nil {
		return err
	}
	to, err := s.location(toCode)
	if err != nil {
		return err
	}
	product, err := s.product(productCode)
	if err != nil {
		return err
	}
	source, err := inventory.NewSource(inventory.SourceKindTransfer, "TR-0001")
	if err != nil {
		return err
	}

	s.lastResult = s.processor.CreateTransfer(context.Background(), s.opCtx("bdd"), appinventory.TransferParams{
		FromLocationID: from.ID,
		ToLocationID:   to.ID,
		ProductID:      product.ID,
		Quantity:       decimal.NewFromInt(int64(qty)),
		Source:         source,
	})
	return nil
}

// Then steps

func (s *suiteContext) theOperationShouldSucceed() error {
	if !s.lastResult.OK {
		return fmt.Errorf("expected success but got %s: %s", s.lastResult.Code, s.lastResult.Message)
	}
	return nil
}

func (s *suiteContext) theOperationShouldFailWithCode(code string) error {
	if s.lastResult.OK {
		return fmt.Errorf("expected failure with code %s but the operation succeeded", code)
	}
	if s.lastResult.Code != code {
		return fmt.Errorf("expected code %s but got %s: %s", code, s.lastResult.Code, s.lastResult.Message)
	}
	return nil
}

func (s *suiteContext) theBalanceShouldBe(productCode, locationCode, expected string) error {
	location, err := s.location(locationCode)
	if err != nil {
		return err
	}
	product, err := s.product(productCode)
	if err != nil {
		return err
	}

	balance := decimal.Zero
	item, err := s.repos.Items.Find(context.Background(), location.ID, product.ID)
	if err != nil {
		var notFound *inventory.ErrItemNotFound
		if !errors.As(err, &notFound) {
			return err
		}
	} else {
		balance = item.CurrentQty
	}

	if !balance.Equal(dec(expected)) {
		return fmt.Errorf("expected balance %s but got %s", expected, balance)
	}
	return nil
}

func (s *suiteContext) theAverageCostShouldBe(productCode, locationCode, expected string) error {
	location, err := s.location(locationCode)
	if err != nil {
		return err
	}
	product, err := s.product(productCode)
	if err != nil {
		return err
	}

	item, err := s.repos.Items.Find(context.Background(), location.ID, product.ID)
	if err != nil {
		return err
	}
	if !item.AvgCost.Equal(dec(expected)) {
		return fmt.Errorf("expected average cost %s but got %s", expected, item.AvgCost)
	}
	return nil
}

type batchAllocation struct {
	batch    string
	quantity decimal.Decimal
	cost     decimal.Decimal
}

func allocationFromRow(row *messages.PickleTableRow) batchAllocation {
	return batchAllocation{
		batch:    row.Cells[0].Value,
		quantity: dec(row.Cells[1].Value),
		cost:     dec(row.Cells[2].Value),
	}
}

func (s *suiteContext) theIssueShouldConsumeBatches(table *godog.Table) error {
	raw, ok := s.lastResult.Data["allocations"].([]map[string]interface{})
	if !ok {
		return fmt.Errorf("last result carries no allocations")
	}

	expected := make([]batchAllocation, 0, len(table.Rows)-1)
	for _, row := range table.Rows[1:] {
		expected = append(expected, allocationFromRow(row))
	}
	if len(raw) != len(expected) {
		return fmt.Errorf("expected %d allocations but got %d", len(expected), len(raw))
	}
	for i, want := range expected {
		got := batchAllocation{
			batch:    raw[i]["batch_number"].(string),
			quantity: dec(raw[i]["quantity"].(string)),
			cost:     dec(raw[i]["cost_price"].(string)),
		}
		if got.batch != want.batch {
			return fmt.Errorf("allocation %d: expected batch %s but got %s", i+1, want.batch, got.batch)
		}
		if !got.quantity.Equal(want.quantity) {
			return fmt.Errorf("allocation %d: expected quantity %s but got %s", i+1, want.quantity, got.quantity)
		}
		if !got.cost.Equal(want.cost) {
			return fmt.Errorf("allocation %d: expected cost %s but got %s", i+1, want.cost, got.cost)
		}
	}
	return nil
}

func (s *suiteContext) batchShouldHaveUnitsRemaining(batchNumber, locationCode string, remaining int) error {
	location, err := s.location(locationCode)
	if err != nil {
		return err
	}

	for _, product := range s.products {
		batches, err := s.repos.Batches.ListAvailable(context.Background(), location.ID, product.ID)
		if err != nil {
			return err
		}
		for _, batch := range batches {
			if batch.BatchNumber == batchNumber {
				if !batch.RemainingQty.Equal(decimal.NewFromInt(int64(remaining))) {
					return fmt.Errorf("expected %d units remaining in %s but got %s",
						remaining, batchNumber, batch.RemainingQty)
				}
				return nil
			}
		}
	}
	return fmt.Errorf("batch %s not found at %s", batchNumber, locationCode)
}

// Register steps

func registerStockMovementSteps(sc *godog.ScenarioContext, s *suiteContext) {
	sc.Step(`^a location "([^"]*)"$`, s.aLocation)
	sc.Step(`^a location "([^"]*)" that allows negative stock$`, s.aLocationAllowingNegativeStock)
	sc.Step(`^a product "([^"]*)"$`, s.aProduct)
	sc.Step(`^a batch tracked product "([^"]*)"$`, s.aBatchTrackedProduct)
	sc.Step(`^I receive (\d+) units of "([^"]*)" at "([^"]*)" costing ([0-9.]+)$`, s.iReceiveUnits)
	sc.Step(`^I receive (\d+) units of "([^"]*)" at "([^"]*)" costing ([0-9.]+) in batch "([^"]*)" expiring in (\d+) days$`, s.iReceiveUnitsInBatch)
	sc.Step(`^I issue (\d+) units of "([^"]*)" from "([^"]*)"$`, s.iIssueUnits)
	sc.Step(`^I transfer (\d+) units of "([^"]*)" from "([^"]*)" to "([^"]*)"$`, s.iTransferUnits)
	sc.Step(`^the operation should succeed$`, s.theOperationShouldSucceed)
	sc.Step(`^the operation should fail with code "([^"]*)"$`, s.theOperationShouldFailWithCode)
	sc.Step(`^the balance of "([^"]*)" at "([^"]*)" should be (-?[0-9.]+)$`, s.theBalanceShouldBe)
	sc.Step(`^the average cost of "([^"]*)" at "([^"]*)" should be ([0-9.]+)$`, s.theAverageCostShouldBe)
	sc.Step(`^the issue should consume batches:$`, s.theIssueShouldConsumeBatches)
	sc.Step(`^batch "([^"]*)" at "([^"]*)" should have (\d+) units remaining$`, s.batchShouldHaveUnitsRemaining)
}
