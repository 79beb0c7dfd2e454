package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appinventory "github.com/andrescamacho/stockcore-go/internal/application/inventory"
	appnumbering "github.com/andrescamacho/stockcore-go/internal/application/numbering"
	"github.com/andrescamacho/stockcore-go/internal/domain/document"
	"github.com/andrescamacho/stockcore-go/internal/domain/inventory"
	"github.com/andrescamacho/stockcore-go/internal/domain/ports"
	"github.com/andrescamacho/stockcore-go/internal/domain/shared"
)

var errRollback = errors.New("rollback")

// CreateParams describes a new document
type CreateParams struct {
	TypeKey      string
	LocationID   uint
	SupplierCode string
	VATIncluded  bool
	Lines        []LineParams

	// Purchase-request fields
	UrgencyLevel document.UrgencyLevel
	RequestedBy  string
}

// LineParams describes one line of a document
type LineParams struct {
	ProductID       uint
	Quantity        decimal.Decimal
	Unit            string
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	BatchNumber     string
	ExpiryDate      *time.Time
}

// DocumentService manages document lifecycle outside of status
// transitions: creation with number allocation, line editing under the
// status editing policy, and conversion of requests into orders. It also
// implements the approval engine's inventory effects, bridging entered
// statuses to movement processor calls inside the engine's transaction.
type DocumentService struct {
	uow       ports.UnitOfWork
	numbering *appnumbering.NumberingService
	processor *appinventory.MovementProcessor
	logger    *zap.Logger
	clock     shared.Clock
}

// NewDocumentService creates a document service
func NewDocumentService(
	uow ports.UnitOfWork,
	numbering *appnumbering.NumberingService,
	processor *appinventory.MovementProcessor,
	logger *zap.Logger,
	clock shared.Clock,
) *DocumentService {
	return &DocumentService{
		uow:       uow,
		numbering: numbering,
		processor: processor,
		logger:    logger,
		clock:     clock,
	}
}

// Create allocates a document number, builds the document in its type's
// initial status, computes totals and persists it atomically
func (s *DocumentService) Create(ctx context.Context, opCtx shared.OperationContext, params CreateParams) shared.Result {
	var res shared.Result
	err := s.uow.Execute(ctx, func(ctx context.Context, r ports.Repos) error {
		res = s.createTx(ctx, r, opCtx, params)
		if !res.OK {
			return errRollback
		}
		return nil
	})
	if err != nil && !errors.Is(err, errRollback) {
		s.logger.Error("document creation failed", zap.Error(err))
		return shared.Fail(shared.CodeInternalError, "transaction failed: %v", err)
	}
	return res
}

func (s *DocumentService) createTx(ctx context.Context, r ports.Repos, opCtx shared.OperationContext, params CreateParams) shared.Result {
	docType, err := r.DocumentTypes.FindByKey(ctx, params.TypeKey)
	if err != nil {
		return shared.Fail(shared.CodeValidation, "document type %q not found", params.TypeKey)
	}
	if _, err := r.Locations.FindByID(ctx, params.LocationID); err != nil {
		return shared.Fail(shared.CodeValidation, "location %d not found", params.LocationID)
	}
	if len(params.Lines) == 0 {
		return shared.Fail(shared.CodeValidation, "document requires at least one line")
	}

	locationID := params.LocationID
	number, err := s.numbering.NextNumberTx(ctx, r, docType.TypeKey, &locationID, opCtx.Actor)
	if err != nil {
		return shared.Fail(shared.CodeValidation, "number allocation failed: %v", err)
	}

	now := s.clock.Now()
	doc := &document.Document{
		DocumentNumber: number,
		DocumentDate:   opCtx.Timestamp,
		DocumentTypeID: docType.ID,
		Kind:           docType.Kind,
		Status:         docType.InitialStatus(),
		SupplierCode:   params.SupplierCode,
		LocationID:     params.LocationID,
		VATIncluded:    params.VATIncluded,
		UrgencyLevel:   params.UrgencyLevel,
		RequestedBy:    params.RequestedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if doc.Kind == document.KindPurchaseRequest && doc.UrgencyLevel == "" {
		doc.UrgencyLevel = document.UrgencyNormal
	}

	for i, lp := range params.Lines {
		line, res := s.buildLine(ctx, r, doc, i+1, lp)
		if !res.OK {
			return res
		}
		doc.Lines = append(doc.Lines, *line)
	}
	doc.RecomputeTotals()

	if err := r.Documents.Save(ctx, doc); err != nil {
		return shared.Fail(shared.CodeInternalError, "failed to save document: %v", err)
	}

	s.logger.Info("document created",
		zap.String("number", doc.DocumentNumber),
		zap.String("kind", doc.Kind.String()),
		zap.String("status", doc.Status),
		zap.Int("lines", len(doc.Lines)))

	return shared.Ok(map[string]interface{}{
		"document_id":     doc.ID,
		"document_number": doc.DocumentNumber,
		"status":          doc.Status,
		"total_amount":    doc.TotalAmount.String(),
		"total_vat":       doc.TotalVAT.String(),
	})
}

// buildLine validates and prices one line from its params
func (s *DocumentService) buildLine(ctx context.Context, r ports.Repos, doc *document.Document, lineNumber int, lp LineParams) (*document.Line, shared.Result) {
	product, err := r.Products.FindByID(ctx, lp.ProductID)
	if err != nil {
		return nil, shared.Fail(shared.CodeValidation, "product %d not found", lp.ProductID)
	}

	line := document.Line{
		LineNumber:      lineNumber,
		ProductID:       lp.ProductID,
		Quantity:        lp.Quantity,
		Unit:            lp.Unit,
		UnitPrice:       lp.UnitPrice,
		DiscountPercent: lp.DiscountPercent,
		BatchNumber:     lp.BatchNumber,
	}
	line.ExpiryDate = lp.ExpiryDate
	if line.Unit == "" {
		line.Unit = product.UnitType.String()
	}
	if err := line.Validate(); err != nil {
		return nil, shared.Fail(shared.CodeValidation, "line %d: %v", lineNumber, err)
	}
	line.ComputeTotal(product.TaxRate, doc.VATIncluded)
	return &line, shared.Ok(nil)
}

// AddLine appends a line to a document whose status allows editing
func (s *DocumentService) AddLine(ctx context.Context, opCtx shared.OperationContext, documentID uint, lp LineParams) shared.Result {
	return s.editLines(ctx, opCtx, documentID, func(ctx context.Context, r ports.Repos, doc *document.Document) (decimal.Decimal, uint, shared.Result) {
		line, res := s.buildLine(ctx, r, doc, doc.NextLineNumber(), lp)
		if !res.OK {
			return decimal.Zero, 0, res
		}
		doc.Lines = append(doc.Lines, *line)
		return line.Quantity, line.ProductID, shared.Ok(map[string]interface{}{"line_number": line.LineNumber})
	})
}

// UpdateLine replaces the quantity, price and discount of an existing line
func (s *DocumentService) UpdateLine(ctx context.Context, opCtx shared.OperationContext, documentID uint, lineNumber int, lp LineParams) shared.Result {
	return s.editLines(ctx, opCtx, documentID, func(ctx context.Context, r ports.Repos, doc *document.Document) (decimal.Decimal, uint, shared.Result) {
		line := doc.LineByNumber(lineNumber)
		if line == nil {
			return decimal.Zero, 0, shared.Fail(document.CodeLineNotFound, "line %d not found", lineNumber)
		}
		delta := lp.Quantity.Sub(line.Quantity)

		product, err := r.Products.FindByID(ctx, line.ProductID)
		if err != nil {
			return decimal.Zero, 0, shared.Fail(shared.CodeValidation, "product %d not found", line.ProductID)
		}
		line.Quantity = lp.Quantity
		if !lp.UnitPrice.IsZero() {
			line.UnitPrice = lp.UnitPrice
		}
		line.DiscountPercent = lp.DiscountPercent
		if err := line.Validate(); err != nil {
			return decimal.Zero, 0, shared.Fail(shared.CodeValidation, "line %d: %v", lineNumber, err)
		}
		line.ComputeTotal(product.TaxRate, doc.VATIncluded)
		return delta, line.ProductID, shared.Ok(map[string]interface{}{"line_number": lineNumber})
	})
}

// RemoveLine deletes a line from a document whose status allows editing
func (s *DocumentService) RemoveLine(ctx context.Context, opCtx shared.OperationContext, documentID uint, lineNumber int) shared.Result {
	return s.editLines(ctx, opCtx, documentID, func(ctx context.Context, r ports.Repos, doc *document.Document) (decimal.Decimal, uint, shared.Result) {
		line := doc.LineByNumber(lineNumber)
		if line == nil {
			return decimal.Zero, 0, shared.Fail(document.CodeLineNotFound, "line %d not found", lineNumber)
		}
		delta := line.Quantity.Neg()
		productID := line.ProductID
		kept := doc.Lines[:0]
		for _, l := range doc.Lines {
			if l.LineNumber != lineNumber {
				kept = append(kept, l)
			}
		}
		doc.Lines = kept
		return delta, productID, shared.Ok(map[string]interface{}{"line_number": lineNumber})
	})
}

// editLines runs one line mutation under the document lock and the status
// editing policy, recomputes totals and applies the auto-correct policy:
// when the current status already created movements and is configured to
// auto-correct, the quantity delta becomes a compensating adjustment.
func (s *DocumentService) editLines(
	ctx context.Context,
	opCtx shared.OperationContext,
	documentID uint,
	mutate func(ctx context.Context, r ports.Repos, doc *document.Document) (decimal.Decimal, uint, shared.Result),
) shared.Result {
	var res shared.Result
	err := s.uow.Execute(ctx, func(ctx context.Context, r ports.Repos) error {
		doc, err := r.Documents.FindForUpdate(ctx, documentID)
		if err != nil {
			var notFound *document.ErrDocumentNotFound
			if errors.As(err, &notFound) {
				res = shared.Fail(document.CodeDocumentNotFound, "document %d not found", documentID)
				return errRollback
			}
			return err
		}
		docType, err := r.DocumentTypes.FindByID(ctx, doc.DocumentTypeID)
		if err != nil {
			return err
		}
		statusCfg, err := docType.StatusConfigFor(doc.Status)
		if err != nil {
			return err
		}
		if !statusCfg.AllowsEditing {
			res = shared.FailData(document.CodeEditNotAllowed,
				"document "+doc.DocumentNumber+" cannot be edited in status "+doc.Status,
				map[string]interface{}{"status": doc.Status})
			return errRollback
		}

		delta, productID, mres := mutate(ctx, r, doc)
		if !mres.OK {
			res = mres
			return errRollback
		}

		doc.RecomputeTotals()
		doc.UpdatedAt = s.clock.Now()
		if err := r.Documents.Save(ctx, doc); err != nil {
			return err
		}

		if statusCfg.AutoCorrectMovementsOnEdit && !delta.IsZero() {
			correction := s.processor.CreateAdjustmentTx(ctx, r, opCtx, appinventory.AdjustmentParams{
				LocationID: doc.LocationID,
				ProductID:  productID,
				SignedQty:  delta,
				Reason:     fmt.Sprintf("line correction on document %s", doc.DocumentNumber),
			})
			if !correction.OK {
				res = shared.FailData(correction.Code,
					"line saved but correction failed: "+correction.Message, correction.Data)
				return errRollback
			}
			mres = mres.WithData("correction", correction.Data)
		}

		res = mres.
			WithData("total_amount", doc.TotalAmount.String()).
			WithData("total_vat", doc.TotalVAT.String())
		return nil
	})
	if err != nil && !errors.Is(err, errRollback) {
		s.logger.Error("line edit failed", zap.Uint("document", documentID), zap.Error(err))
		return shared.Fail(shared.CodeInternalError, "transaction failed: %v", err)
	}
	return res
}

// ConvertRequestToOrder builds a purchase order from an approved purchase
// request, copying its lines and linking the two. A request converts at
// most once.
func (s *DocumentService) ConvertRequestToOrder(ctx context.Context, opCtx shared.OperationContext, requestID uint, orderTypeKey string) shared.Result {
	var res shared.Result
	err := s.uow.Execute(ctx, func(ctx context.Context, r ports.Repos) error {
		request, err := r.Documents.FindForUpdate(ctx, requestID)
		if err != nil {
			var notFound *document.ErrDocumentNotFound
			if errors.As(err, &notFound) {
				res = shared.Fail(document.CodeDocumentNotFound, "document %d not found", requestID)
				return errRollback
			}
			return err
		}
		if request.Kind != document.KindPurchaseRequest {
			res = shared.Fail(shared.CodeValidation, "document %s is not a purchase request", request.DocumentNumber)
			return errRollback
		}
		if request.ConvertedToOrderID != nil {
			res = shared.FailData(shared.CodeValidation,
				"request "+request.DocumentNumber+" was already converted",
				map[string]interface{}{"order_id": *request.ConvertedToOrderID})
			return errRollback
		}

		orderType, err := r.DocumentTypes.FindByKey(ctx, orderTypeKey)
		if err != nil {
			res = shared.Fail(shared.CodeValidation, "document type %q not found", orderTypeKey)
			return errRollback
		}
		if orderType.Kind != document.KindPurchaseOrder {
			res = shared.Fail(shared.CodeValidation, "type %q does not produce purchase orders", orderTypeKey)
			return errRollback
		}

		locationID := request.LocationID
		number, err := s.numbering.NextNumberTx(ctx, r, orderType.TypeKey, &locationID, opCtx.Actor)
		if err != nil {
			res = shared.Fail(shared.CodeValidation, "number allocation failed: %v", err)
			return errRollback
		}

		now := s.clock.Now()
		order := &document.Document{
			DocumentNumber: number,
			DocumentDate:   opCtx.Timestamp,
			DocumentTypeID: orderType.ID,
			Kind:           orderType.Kind,
			Status:         orderType.InitialStatus(),
			SupplierCode:   request.SupplierCode,
			LocationID:     request.LocationID,
			VATIncluded:    request.VATIncluded,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		for _, line := range request.Lines {
			copied := line
			copied.ID = 0
			copied.DocumentID = 0
			order.Lines = append(order.Lines, copied)
		}
		order.RecomputeTotals()

		if err := r.Documents.Save(ctx, order); err != nil {
			return err
		}
		request.ConvertedToOrderID = &order.ID
		request.UpdatedAt = now
		if err := r.Documents.Save(ctx, request); err != nil {
			return err
		}

		s.logger.Info("purchase request converted",
			zap.String("request", request.DocumentNumber),
			zap.String("order", order.DocumentNumber))

		res = shared.Ok(map[string]interface{}{
			"order_id":     order.ID,
			"order_number": order.DocumentNumber,
			"request_id":   request.ID,
		})
		return nil
	})
	if err != nil && !errors.Is(err, errRollback) {
		s.logger.Error("request conversion failed", zap.Uint("request", requestID), zap.Error(err))
		return shared.Fail(shared.CodeInternalError, "transaction failed: %v", err)
	}
	return res
}

// sourceFor maps a document to the ledger source its movements carry
func sourceFor(doc *document.Document) (inventory.Source, error) {
	switch doc.Kind {
	case document.KindPurchaseOrder:
		return inventory.NewSource(inventory.SourceKindPurchaseOrder, doc.DocumentNumber)
	case document.KindDeliveryReceipt:
		return inventory.NewSource(inventory.SourceKindDeliveryReceipt, doc.DocumentNumber)
	default:
		return inventory.Source{}, fmt.Errorf("document kind %s produces no movements", doc.Kind)
	}
}

// CreateMovements implements the approval engine's inventory effects:
// entering a movement-creating status turns every line into an incoming
// movement at the document's location
func (s *DocumentService) CreateMovements(ctx context.Context, r ports.Repos, opCtx shared.OperationContext, doc *document.Document) shared.Result {
	source, err := sourceFor(doc)
	if err != nil {
		return shared.Fail(shared.CodeValidation, "%v", err)
	}

	var movementIDs []interface{}
	for _, line := range doc.Lines {
		lineRes := s.processor.CreateIncomingTx(ctx, r, opCtx, appinventory.IncomingParams{
			LocationID:  doc.LocationID,
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			CostPrice:   line.UnitPrice,
			Source:      source,
			BatchNumber: line.BatchNumber,
			ExpiryDate:  line.ExpiryDate,
			Reason:      fmt.Sprintf("receipt from %s line %d", doc.DocumentNumber, line.LineNumber),
		})
		if !lineRes.OK {
			return shared.FailData(lineRes.Code,
				fmt.Sprintf("line %d: %s", line.LineNumber, lineRes.Message), lineRes.Data)
		}
		if lineRes.Data != nil {
			movementIDs = append(movementIDs, lineRes.Data["movement_id"])
		}
	}
	return shared.Ok(map[string]interface{}{"movement_ids": movementIDs})
}

// ReverseMovements implements the approval engine's inventory effects:
// entering a reversing status compensates every movement the document
// wrote
func (s *DocumentService) ReverseMovements(ctx context.Context, r ports.Repos, opCtx shared.OperationContext, doc *document.Document) shared.Result {
	source, err := sourceFor(doc)
	if err != nil {
		return shared.Fail(shared.CodeValidation, "%v", err)
	}
	return s.processor.ReverseBySourceTx(ctx, r, opCtx, source,
		fmt.Sprintf("document %s cancelled", doc.DocumentNumber))
}

// Get retrieves a document with its lines
func (s *DocumentService) Get(ctx context.Context, r ports.Repos, documentID uint) (*document.Document, error) {
	return r.Documents.FindByID(ctx, documentID)
}

// GetByNumber retrieves a document by its number
func (s *DocumentService) GetByNumber(ctx context.Context, r ports.Repos, number string) (*document.Document, error) {
	return r.Documents.FindByNumber(ctx, number)
}
