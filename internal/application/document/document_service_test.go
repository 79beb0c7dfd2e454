package document_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andrescamacho/stockcore-go/internal/adapters/persistence"
	appapproval "github.com/andrescamacho/stockcore-go/internal/application/approval"
	appdocument "github.com/andrescamacho/stockcore-go/internal/application/document"
	appinventory "github.com/andrescamacho/stockcore-go/internal/application/inventory"
	appnumbering "github.com/andrescamacho/stockcore-go/internal/application/numbering"
	"github.com/andrescamacho/stockcore-go/internal/domain/catalog"
	"github.com/andrescamacho/stockcore-go/internal/domain/document"
	"github.com/andrescamacho/stockcore-go/internal/domain/numbering"
	"github.com/andrescamacho/stockcore-go/internal/domain/ports"
	"github.com/andrescamacho/stockcore-go/internal/domain/shared"
	"github.com/andrescamacho/stockcore-go/test/helpers"
)

type docEnv struct {
	repos    ports.Repos
	service  *appdocument.DocumentService
	engine   *appapproval.ApprovalEngine
	location *catalog.Location
	product  *catalog.Product
}

func newDocEnv(t *testing.T) *docEnv {
	t.Helper()

	db := helpers.NewTestDB(t)
	repos := persistence.NewRepos(db)
	uow := persistence.NewGormUnitOfWork(db)
	logger := zap.NewNop()
	clock := shared.NewRealClock()

	numberingSvc := appnumbering.NewNumberingService(uow, logger, clock)
	refresher := appinventory.NewRefreshService(uow, logger, clock)
	processor := appinventory.NewMovementProcessor(
		uow, refresher, catalog.NewPolicyValidator(), nil, nil, nil, logger, clock)
	service := appdocument.NewDocumentService(uow, numberingSvc, processor, logger, clock)
	engine := appapproval.NewApprovalEngine(uow, service, logger, clock)

	location := helpers.SeedLocation(t, repos, "MAIN")
	product := helpers.SeedProduct(t, repos, "P001")

	return &docEnv{repos: repos, service: service, engine: engine, location: location, product: product}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func opCtx(actor string) shared.OperationContext {
	return shared.NewOperationContext(actor, time.Now().UTC())
}

// seedReceiptWorkflow declares a delivery receipt type whose received
// status books the lines into stock and whose cancellation undoes them
func seedReceiptWorkflow(t *testing.T, env *docEnv) *document.DocumentType {
	t.Helper()

	docType := &document.DocumentType{
		TypeKey: "delivery_receipt",
		Name:    "Delivery Receipt",
		Kind:    document.KindDeliveryReceipt,
		Statuses: []document.StatusConfig{
			{Status: "draft", IsInitial: true, AllowsEditing: true},
			{Status: "received", AllowsEditing: true, CreatesInventoryMovements: true, AutoCorrectMovementsOnEdit: true},
			{Status: "cancelled", IsFinal: true, IsCancellation: true, ReversesInventoryMovements: true},
		},
		Transitions: []document.Transition{
			{FromStatus: "draft", ToStatus: "received"},
			{FromStatus: "draft", ToStatus: "cancelled"},
			{FromStatus: "received", ToStatus: "cancelled"},
		},
	}
	require.NoError(t, env.repos.DocumentTypes.Save(context.Background(), docType))
	seedSequence(t, env, "delivery_receipt", "DR-")
	return docType
}

func seedSequence(t *testing.T, env *docEnv, documentType, prefix string) {
	t.Helper()
	require.NoError(t, env.repos.Numbering.Save(context.Background(), &numbering.Config{
		DocumentType:  documentType,
		NumberingType: numbering.NumberingTypeInternal,
		Prefix:        prefix,
		DigitsCount:   6,
	}))
}

func TestCreate_AllocatesNumberAndComputesTotals(t *testing.T) {
	env := newDocEnv(t)
	seedReceiptWorkflow(t, env)
	ctx := context.Background()

	res := env.service.Create(ctx, opCtx("anna"), appdocument.CreateParams{
		TypeKey:      "delivery_receipt",
		LocationID:   env.location.ID,
		SupplierCode: "SUP-7",
		Lines: []appdocument.LineParams{
			{ProductID: env.product.ID, Quantity: dec("5"), UnitPrice: dec("10")},
			{ProductID: env.product.ID, Quantity: dec("2"), UnitPrice: dec("7.50"), DiscountPercent: dec("10")},
		},
	})
	require.True(t, res.OK, res.Message)

	assert.Equal(t, "DR-000001", res.Data["document_number"])
	assert.Equal(t, "draft", res.Data["status"])
	// 5*10 + 2*7.50*0.9 = 63.50; VAT at 20% excluded = 12.70
	assert.True(t, dec(res.Data["total_amount"].(string)).Equal(dec("63.50")))
	assert.True(t, dec(res.Data["total_vat"].(string)).Equal(dec("12.70")))

	doc, err := env.service.GetByNumber(ctx, env.repos, "DR-000001")
	require.NoError(t, err)
	require.Len(t, doc.Lines, 2)
	assert.Equal(t, 1, doc.Lines[0].LineNumber)
	assert.Equal(t, 2, doc.Lines[1].LineNumber)
	assert.True(t, doc.Lines[1].LineTotal.Equal(dec("13.50")))
}

func TestCreate_VATIncludedCarvesOut(t *testing.T) {
	env := newDocEnv(t)
	seedReceiptWorkflow(t, env)

	res := env.service.Create(context.Background(), opCtx("anna"), appdocument.CreateParams{
		TypeKey:     "delivery_receipt",
		LocationID:  env.location.ID,
		VATIncluded: true,
		Lines: []appdocument.LineParams{
			{ProductID: env.product.ID, Quantity: dec("1"), UnitPrice: dec("120")},
		},
	})
	require.True(t, res.OK, res.Message)

	// 120 gross at 20% included: VAT = 120*20/120 = 20
	assert.True(t, dec(res.Data["total_amount"].(string)).Equal(dec("120")))
	assert.True(t, dec(res.Data["total_vat"].(string)).Equal(dec("20")))
}

func TestCreate_Rejections(t *testing.T) {
	env := newDocEnv(t)
	seedReceiptWorkflow(t, env)
	ctx := context.Background()

	res := env.service.Create(ctx, opCtx("anna"), appdocument.CreateParams{
		TypeKey: "ghost", LocationID: env.location.ID,
		Lines: []appdocument.LineParams{{ProductID: env.product.ID, Quantity: dec("1"), UnitPrice: dec("1")}},
	})
	assert.Equal(t, shared.CodeValidation, res.Code)

	res = env.service.Create(ctx, opCtx("anna"), appdocument.CreateParams{
		TypeKey: "delivery_receipt", LocationID: env.location.ID,
	})
	assert.Equal(t, shared.CodeValidation, res.Code)

	res = env.service.Create(ctx, opCtx("anna"), appdocument.CreateParams{
		TypeKey: "delivery_receipt", LocationID: env.location.ID,
		Lines: []appdocument.LineParams{{ProductID: 9999, Quantity: dec("1"), UnitPrice: dec("1")}},
	})
	assert.Equal(t, shared.CodeValidation, res.Code)

	// The failed creations rolled back their number allocations
	res = env.service.Create(ctx, opCtx("anna"), appdocument.CreateParams{
		TypeKey: "delivery_receipt", LocationID: env.location.ID,
		Lines: []appdocument.LineParams{{ProductID: env.product.ID, Quantity: dec("1"), UnitPrice: dec("1")}},
	})
	require.True(t, res.OK, res.Message)
	assert.Equal(t, "DR-000001", res.Data["document_number"])
}

func createDraft(t *testing.T, env *docEnv) uint {
	t.Helper()
	res := env.service.Create(context.Background(), opCtx("anna"), appdocument.CreateParams{
		TypeKey:    "delivery_receipt",
		LocationID: env.location.ID,
		Lines: []appdocument.LineParams{
			{ProductID: env.product.ID, Quantity: dec("5"), UnitPrice: dec("10")},
		},
	})
	require.True(t, res.OK, res.Message)
	return res.Data["document_id"].(uint)
}

func TestLineEditing_OnEditableStatus(t *testing.T) {
	env := newDocEnv(t)
	seedReceiptWorkflow(t, env)
	docID := createDraft(t, env)
	ctx := context.Background()

	res := env.service.AddLine(ctx, opCtx("anna"), docID, appdocument.LineParams{
		ProductID: env.product.ID, Quantity: dec("3"), UnitPrice: dec("4"),
	})
	require.True(t, res.OK, res.Message)
	assert.Equal(t, 2, res.Data["line_number"])
	assert.True(t, dec(res.Data["total_amount"].(string)).Equal(dec("62")))

	res = env.service.UpdateLine(ctx, opCtx("anna"), docID, 1, appdocument.LineParams{
		Quantity: dec("6"), UnitPrice: dec("10"),
	})
	require.True(t, res.OK, res.Message)
	assert.True(t, dec(res.Data["total_amount"].(string)).Equal(dec("72")))

	res = env.service.RemoveLine(ctx, opCtx("anna"), docID, 2)
	require.True(t, res.OK, res.Message)
	assert.True(t, dec(res.Data["total_amount"].(string)).Equal(dec("60")))

	doc, err := env.service.Get(ctx, env.repos, docID)
	require.NoError(t, err)
	require.Len(t, doc.Lines, 1)
	assert.True(t, doc.Lines[0].Quantity.Equal(dec("6")))

	res = env.service.UpdateLine(ctx, opCtx("anna"), docID, 9, appdocument.LineParams{Quantity: dec("1")})
	assert.Equal(t, document.CodeLineNotFound, res.Code)
}

func TestLineEditing_BlockedOnFinalStatus(t *testing.T) {
	env := newDocEnv(t)
	seedReceiptWorkflow(t, env)
	docID := createDraft(t, env)
	ctx := context.Background()

	require.True(t, env.engine.ExecuteTransition(ctx, opCtx("anna"), docID, "cancelled", "").OK)

	res := env.service.AddLine(ctx, opCtx("anna"), docID, appdocument.LineParams{
		ProductID: env.product.ID, Quantity: dec("1"), UnitPrice: dec("1"),
	})
	assert.False(t, res.OK)
	assert.Equal(t, document.CodeEditNotAllowed, res.Code)
}

func TestTransition_CreatesMovementsFromLines(t *testing.T) {
	env := newDocEnv(t)
	seedReceiptWorkflow(t, env)
	docID := createDraft(t, env)
	ctx := context.Background()

	res := env.engine.ExecuteTransition(ctx, opCtx("anna"), docID, "received", "")
	require.True(t, res.OK, res.Message)

	item, err := env.repos.Items.Find(ctx, env.location.ID, env.product.ID)
	require.NoError(t, err)
	assert.True(t, item.CurrentQty.Equal(dec("5")))
	assert.True(t, item.AvgCost.Equal(dec("10")), "line price becomes the receipt cost")
}

func TestTransition_CancellationReversesMovements(t *testing.T) {
	env := newDocEnv(t)
	seedReceiptWorkflow(t, env)
	docID := createDraft(t, env)
	ctx := context.Background()

	require.True(t, env.engine.ExecuteTransition(ctx, opCtx("anna"), docID, "received", "").OK)
	res := env.engine.ExecuteTransition(ctx, opCtx("anna"), docID, "cancelled", "wrong supplier")
	require.True(t, res.OK, res.Message)

	item, err := env.repos.Items.Find(ctx, env.location.ID, env.product.ID)
	require.NoError(t, err)
	assert.True(t, item.CurrentQty.IsZero(), "cancellation must compensate the receipt")
}

func TestLineEditing_AutoCorrectsBookedStock(t *testing.T) {
	env := newDocEnv(t)
	seedReceiptWorkflow(t, env)
	docID := createDraft(t, env)
	ctx := context.Background()

	require.True(t, env.engine.ExecuteTransition(ctx, opCtx("anna"), docID, "received", "").OK)

	// Raising the booked quantity writes a compensating adjustment
	res := env.service.UpdateLine(ctx, opCtx("anna"), docID, 1, appdocument.LineParams{
		Quantity: dec("8"), UnitPrice: dec("10"),
	})
	require.True(t, res.OK, res.Message)
	assert.NotNil(t, res.Data["correction"])

	item, err := env.repos.Items.Find(ctx, env.location.ID, env.product.ID)
	require.NoError(t, err)
	assert.True(t, item.CurrentQty.Equal(dec("8")), "expected 8, got %s", item.CurrentQty)

	// Lowering it adjusts back down
	res = env.service.UpdateLine(ctx, opCtx("anna"), docID, 1, appdocument.LineParams{
		Quantity: dec("6"), UnitPrice: dec("10"),
	})
	require.True(t, res.OK, res.Message)

	item, err = env.repos.Items.Find(ctx, env.location.ID, env.product.ID)
	require.NoError(t, err)
	assert.True(t, item.CurrentQty.Equal(dec("6")), "expected 6, got %s", item.CurrentQty)
}

func seedRequestWorkflow(t *testing.T, env *docEnv) {
	t.Helper()

	docType := &document.DocumentType{
		TypeKey: "purchase_request",
		Name:    "Purchase Request",
		Kind:    document.KindPurchaseRequest,
		Statuses: []document.StatusConfig{
			{Status: "draft", IsInitial: true, AllowsEditing: true},
			{Status: "approved", IsFinal: true},
		},
		Transitions: []document.Transition{
			{FromStatus: "draft", ToStatus: "approved"},
		},
	}
	require.NoError(t, env.repos.DocumentTypes.Save(context.Background(), docType))
	seedSequence(t, env, "purchase_request", "PR-")

	orderType := &document.DocumentType{
		TypeKey: "purchase_order",
		Name:    "Purchase Order",
		Kind:    document.KindPurchaseOrder,
		Statuses: []document.StatusConfig{
			{Status: "draft", IsInitial: true, AllowsEditing: true},
			{Status: "closed", IsFinal: true},
		},
		Transitions: []document.Transition{
			{FromStatus: "draft", ToStatus: "closed"},
		},
	}
	require.NoError(t, env.repos.DocumentTypes.Save(context.Background(), orderType))
	seedSequence(t, env, "purchase_order", "PO-")
}

func TestConvertRequestToOrder(t *testing.T) {
	env := newDocEnv(t)
	seedRequestWorkflow(t, env)
	ctx := context.Background()

	created := env.service.Create(ctx, opCtx("anna"), appdocument.CreateParams{
		TypeKey:      "purchase_request",
		LocationID:   env.location.ID,
		SupplierCode: "SUP-7",
		UrgencyLevel: document.UrgencyHigh,
		RequestedBy:  "anna",
		Lines: []appdocument.LineParams{
			{ProductID: env.product.ID, Quantity: dec("5"), UnitPrice: dec("10")},
			{ProductID: env.product.ID, Quantity: dec("2"), UnitPrice: dec("3")},
		},
	})
	require.True(t, created.OK, created.Message)
	requestID := created.Data["document_id"].(uint)

	res := env.service.ConvertRequestToOrder(ctx, opCtx("boris"), requestID, "purchase_order")
	require.True(t, res.OK, res.Message)
	assert.Equal(t, "PO-000001", res.Data["order_number"])

	order, err := env.service.Get(ctx, env.repos, res.Data["order_id"].(uint))
	require.NoError(t, err)
	assert.Equal(t, document.KindPurchaseOrder, order.Kind)
	assert.Equal(t, "draft", order.Status)
	assert.Equal(t, "SUP-7", order.SupplierCode)
	require.Len(t, order.Lines, 2)
	assert.True(t, order.TotalAmount.Equal(dec("56")))

	request, err := env.service.Get(ctx, env.repos, requestID)
	require.NoError(t, err)
	require.NotNil(t, request.ConvertedToOrderID)
	assert.Equal(t, order.ID, *request.ConvertedToOrderID)

	// A request converts at most once
	res = env.service.ConvertRequestToOrder(ctx, opCtx("boris"), requestID, "purchase_order")
	assert.False(t, res.OK)
	assert.Equal(t, shared.CodeValidation, res.Code)
}

func TestConvertRequestToOrder_OnlyRequestsConvert(t *testing.T) {
	env := newDocEnv(t)
	seedReceiptWorkflow(t, env)
	seedRequestWorkflow(t, env)
	docID := createDraft(t, env)

	res := env.service.ConvertRequestToOrder(context.Background(), opCtx("anna"), docID, "purchase_order")

	assert.False(t, res.OK)
	assert.Equal(t, shared.CodeValidation, res.Code)
}
