package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/andrescamacho/stockcore-go/internal/adapters/persistence"
	appapproval "github.com/andrescamacho/stockcore-go/internal/application/approval"
	appdocument "github.com/andrescamacho/stockcore-go/internal/application/document"
	appinventory "github.com/andrescamacho/stockcore-go/internal/application/inventory"
	appnumbering "github.com/andrescamacho/stockcore-go/internal/application/numbering"
	"github.com/andrescamacho/stockcore-go/internal/domain/catalog"
	"github.com/andrescamacho/stockcore-go/internal/domain/document"
	"github.com/andrescamacho/stockcore-go/internal/domain/ports"
	"github.com/andrescamacho/stockcore-go/internal/domain/shared"
	"github.com/andrescamacho/stockcore-go/internal/infrastructure/database"
)

// suiteContext wires the full application stack against an in-memory
// database and is shared by all step definitions
type suiteContext struct {
	db        *gorm.DB
	repos     ports.Repos
	processor *appinventory.MovementProcessor
	service   *appdocument.DocumentService
	engine    *appapproval.ApprovalEngine

	locations map[string]*catalog.Location
	products  map[string]*catalog.Product

	docType    *document.DocumentType
	documentID uint

	lastResult shared.Result
}

func (s *suiteContext) reset() error {
	db, err := database.NewTestConnection()
	if err != nil {
		return fmt.Errorf("failed to open test database: %w", err)
	}
	s.db = db
	s.repos = persistence.NewRepos(db)

	uow := persistence.NewGormUnitOfWork(db)
	logger := zap.NewNop()
	clock := shared.NewRealClock()

	numberingSvc := appnumbering.NewNumberingService(uow, logger, clock)
	refresher := appinventory.NewRefreshService(uow, logger, clock)
	s.processor = appinventory.NewMovementProcessor(
		uow, refresher, catalog.NewPolicyValidator(), nil, nil, nil, logger, clock)
	s.service = appdocument.NewDocumentService(uow, numberingSvc, s.processor, logger, clock)
	s.engine = appapproval.NewApprovalEngine(uow, s.service, logger, clock)

	s.locations = make(map[string]*catalog.Location)
	s.products = make(map[string]*catalog.Product)
	s.docType = nil
	s.documentID = 0
	s.lastResult = shared.Result{}
	return nil
}

func (s *suiteContext) opCtx(actor string) shared.OperationContext {
	return shared.NewOperationContext(actor, time.Now().UTC())
}

func (s *suiteContext) location(code string) (*catalog.Location, error) {
	location, ok := s.locations[code]
	if !ok {
		return nil, fmt.Errorf("location %q was not declared", code)
	}
	return location, nil
}

func (s *suiteContext) product(code string) (*catalog.Product, error) {
	product, ok := s.products[code]
	if !ok {
		return nil, fmt.Errorf("product %q was not declared", code)
	}
	return product, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// InitializeSuite registers every step definition against one shared
// context so features can mix inventory and document steps freely
func InitializeSuite(sc *godog.ScenarioContext) {
	s := &suiteContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, s.reset()
	})

	registerStockMovementSteps(sc, s)
	registerDocumentWorkflowSteps(sc, s)
}
