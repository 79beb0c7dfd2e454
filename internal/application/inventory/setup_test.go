package inventory_test

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/andrescamacho/stockcore-go/internal/adapters/persistence"
	appinventory "github.com/andrescamacho/stockcore-go/internal/application/inventory"
	"github.com/andrescamacho/stockcore-go/internal/domain/catalog"
	"github.com/andrescamacho/stockcore-go/internal/domain/ports"
	"github.com/andrescamacho/stockcore-go/internal/domain/shared"
	"github.com/andrescamacho/stockcore-go/test/helpers"
)

// testEnv wires the processor and services against an in-memory database
type testEnv struct {
	repos     ports.Repos
	uow       *persistence.GormUnitOfWork
	refresher *appinventory.RefreshService
	processor *appinventory.MovementProcessor
	service   *appinventory.InventoryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := helpers.NewTestDB(t)
	repos := persistence.NewRepos(db)
	uow := persistence.NewGormUnitOfWork(db)
	logger := zap.NewNop()
	clock := shared.NewRealClock()

	refresher := appinventory.NewRefreshService(uow, logger, clock)
	processor := appinventory.NewMovementProcessor(
		uow, refresher, catalog.NewPolicyValidator(), nil, nil, nil, logger, clock)
	service := appinventory.NewInventoryService(uow, nil, logger, clock)

	return &testEnv{
		repos:     repos,
		uow:       uow,
		refresher: refresher,
		processor: processor,
		service:   service,
	}
}

func opCtxAt(ts time.Time) shared.OperationContext {
	return shared.NewOperationContext("tester", ts)
}

func opCtxNow() shared.OperationContext {
	return opCtxAt(time.Now().UTC())
}
