package approval

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/andrescamacho/stockcore-go/internal/domain/approval"
	"github.com/andrescamacho/stockcore-go/internal/domain/document"
	"github.com/andrescamacho/stockcore-go/internal/domain/ports"
	"github.com/andrescamacho/stockcore-go/internal/domain/shared"
)

// errRollback aborts the transaction when a transition produced a failed
// result
var errRollback = errors.New("rollback")

// InventoryEffects is the hook the engine invokes when an entered status
// creates or reverses inventory movements. It runs inside the engine's
// transaction: a failed effect rolls back the status change and the audit
// entry together.
type InventoryEffects interface {
	CreateMovements(ctx context.Context, r ports.Repos, opCtx shared.OperationContext, doc *document.Document) shared.Result
	ReverseMovements(ctx context.Context, r ports.Repos, opCtx shared.OperationContext, doc *document.Document) shared.Result
}

// TransitionOption is one transition the acting user may execute now
type TransitionOption struct {
	ToStatus       string
	RuleID         uint
	IsFinal        bool
	IsCancellation bool
}

// ApprovalEngine executes document status transitions under the
// type-declared workflow and the matching approval rules. Every executed
// transition writes exactly one audit log entry in the same transaction
// as the status change and its inventory side effects.
type ApprovalEngine struct {
	uow     ports.UnitOfWork
	effects InventoryEffects
	logger  *zap.Logger
	clock   shared.Clock
}

// NewApprovalEngine creates an approval engine. Effects may be nil when
// no status of any configured type touches inventory.
func NewApprovalEngine(uow ports.UnitOfWork, effects InventoryEffects, logger *zap.Logger, clock shared.Clock) *ApprovalEngine {
	return &ApprovalEngine{uow: uow, effects: effects, logger: logger, clock: clock}
}

// AvailableTransitions lists the transitions the actor may execute on the
// document in its current status
func (e *ApprovalEngine) AvailableTransitions(ctx context.Context, r ports.Repos, documentID uint, actor string) ([]TransitionOption, error) {
	doc, err := r.Documents.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	docType, err := r.DocumentTypes.FindByID(ctx, doc.DocumentTypeID)
	if err != nil {
		return nil, err
	}

	var rules []*approval.Rule
	if docType.RequiresApproval {
		rules, err = r.ApprovalRules.FindForTransition(ctx, docType.ID, doc.Status)
		if err != nil {
			return nil, err
		}
	}

	var options []TransitionOption
	for _, tr := range docType.Transitions {
		if tr.FromStatus != doc.Status {
			continue
		}
		cfg, err := docType.StatusConfigFor(tr.ToStatus)
		if err != nil {
			continue
		}
		option := TransitionOption{
			ToStatus:       tr.ToStatus,
			IsFinal:        cfg.IsFinal,
			IsCancellation: cfg.IsCancellation,
		}
		if !docType.RequiresApproval {
			options = append(options, option)
			continue
		}
		if rule := matchRule(rules, doc, tr.ToStatus, actor); rule != nil {
			option.RuleID = rule.ID
			options = append(options, option)
		}
	}
	return options, nil
}

// ExecuteTransition moves the document to the target status. The status
// change, the side effects of entering the status and the audit entry
// commit atomically; any failure leaves the document untouched.
func (e *ApprovalEngine) ExecuteTransition(ctx context.Context, opCtx shared.OperationContext, documentID uint, toStatus, comments string) shared.Result {
	var res shared.Result
	err := e.uow.Execute(ctx, func(ctx context.Context, r ports.Repos) error {
		res = e.ExecuteTransitionTx(ctx, r, opCtx, documentID, toStatus, comments)
		if !res.OK {
			return errRollback
		}
		return nil
	})
	if err != nil && !errors.Is(err, errRollback) {
		e.logger.Error("transition transaction failed",
			zap.Uint("document", documentID), zap.String("to", toStatus), zap.Error(err))
		return shared.Fail(shared.CodeInternalError, "transaction failed: %v", err)
	}
	return res
}

// ExecuteTransitionTx is ExecuteTransition inside an existing transaction
// scope
func (e *ApprovalEngine) ExecuteTransitionTx(ctx context.Context, r ports.Repos, opCtx shared.OperationContext, documentID uint, toStatus, comments string) shared.Result {
	doc, err := r.Documents.FindForUpdate(ctx, documentID)
	if err != nil {
		var notFound *document.ErrDocumentNotFound
		if errors.As(err, &notFound) {
			return shared.Fail(document.CodeDocumentNotFound, "document %d not found", documentID)
		}
		return shared.Fail(shared.CodeInternalError, "failed to read document: %v", err)
	}
	docType, err := r.DocumentTypes.FindByID(ctx, doc.DocumentTypeID)
	if err != nil {
		return shared.Fail(shared.CodeInternalError, "document type %d not found: %v", doc.DocumentTypeID, err)
	}

	if !docType.AllowsTransition(doc.Status, toStatus) {
		return shared.FailData(approval.CodeInvalidTransition,
			"transition "+doc.Status+" -> "+toStatus+" is not declared by type "+docType.TypeKey,
			map[string]interface{}{"from": doc.Status, "to": toStatus})
	}

	var ruleID *uint
	if docType.RequiresApproval {
		rule, failure := e.authorize(ctx, r, docType, doc, toStatus, opCtx.Actor)
		if !failure.OK {
			return failure
		}
		ruleID = &rule.ID
	}

	statusCfg, err := docType.StatusConfigFor(toStatus)
	if err != nil {
		return shared.Fail(approval.CodeInvalidTransition, "%v", err)
	}

	fromStatus := doc.Status

	if statusCfg.CreatesInventoryMovements {
		if e.effects == nil {
			return shared.Fail(approval.CodeSideEffectFailed,
				"status %s creates movements but no inventory effects are wired", toStatus)
		}
		if effectRes := e.effects.CreateMovements(ctx, r, opCtx, doc); !effectRes.OK {
			return shared.FailData(approval.CodeSideEffectFailed,
				"inventory movements failed: "+effectRes.Message,
				map[string]interface{}{"cause_code": effectRes.Code, "cause_data": effectRes.Data})
		}
	}
	if statusCfg.ReversesInventoryMovements {
		if e.effects == nil {
			return shared.Fail(approval.CodeSideEffectFailed,
				"status %s reverses movements but no inventory effects are wired", toStatus)
		}
		if effectRes := e.effects.ReverseMovements(ctx, r, opCtx, doc); !effectRes.OK {
			return shared.FailData(approval.CodeSideEffectFailed,
				"inventory reversal failed: "+effectRes.Message,
				map[string]interface{}{"cause_code": effectRes.Code, "cause_data": effectRes.Data})
		}
	}

	if err := r.Documents.SetStatus(ctx, doc.ID, toStatus); err != nil {
		return shared.Fail(shared.CodeInternalError, "failed to update status: %v", err)
	}

	entry := &approval.LogEntry{
		DocumentID:  doc.ID,
		Actor:       opCtx.Actor,
		FromStatus:  fromStatus,
		ToStatus:    toStatus,
		RuleID:      ruleID,
		Comments:    comments,
		Correlation: opCtx.CorrelationID,
		Timestamp:   e.clock.Now(),
	}
	if err := entry.Validate(); err != nil {
		return shared.Fail(shared.CodeInternalError, "%v", err)
	}
	if err := r.ApprovalLogs.Create(ctx, entry); err != nil {
		return shared.Fail(shared.CodeInternalError, "failed to write approval log: %v", err)
	}

	e.logger.Info("document transition executed",
		zap.Uint("document", doc.ID),
		zap.String("number", doc.DocumentNumber),
		zap.String("from", fromStatus),
		zap.String("to", toStatus),
		zap.String("actor", opCtx.Actor))

	data := map[string]interface{}{
		"document_id": doc.ID,
		"from":        fromStatus,
		"to":          toStatus,
		"is_final":    statusCfg.IsFinal,
	}
	if ruleID != nil {
		data["rule_id"] = *ruleID
	}
	return shared.Ok(data)
}

// Reject moves the document to its cancellation status, when one is
// declared and reachable from the current status
func (e *ApprovalEngine) Reject(ctx context.Context, opCtx shared.OperationContext, documentID uint, comments string) shared.Result {
	var res shared.Result
	err := e.uow.Execute(ctx, func(ctx context.Context, r ports.Repos) error {
		doc, err := r.Documents.FindByID(ctx, documentID)
		if err != nil {
			return err
		}
		docType, err := r.DocumentTypes.FindByID(ctx, doc.DocumentTypeID)
		if err != nil {
			return err
		}
		cancellation := docType.CancellationStatus()
		if cancellation == "" {
			res = shared.Fail(approval.CodeInvalidTransition,
				"document type %s declares no cancellation status", docType.TypeKey)
			return errRollback
		}
		res = e.ExecuteTransitionTx(ctx, r, opCtx, documentID, cancellation, comments)
		if !res.OK {
			return errRollback
		}
		return nil
	})
	if err != nil && !errors.Is(err, errRollback) {
		return shared.Fail(shared.CodeInternalError, "rejection failed: %v", err)
	}
	return res
}

// History returns the audit trail of a document, oldest first
func (e *ApprovalEngine) History(ctx context.Context, r ports.Repos, documentID uint) ([]*approval.LogEntry, error) {
	return r.ApprovalLogs.FindByDocument(ctx, documentID)
}

// authorize resolves the rule authorizing the transition. Failure codes
// distinguish why: no rule covers the transition at all, no matching rule
// admits the actor, or the actor's rules exclude the amount.
func (e *ApprovalEngine) authorize(ctx context.Context, r ports.Repos, docType *document.DocumentType, doc *document.Document, toStatus, actor string) (*approval.Rule, shared.Result) {
	rules, err := r.ApprovalRules.FindForTransition(ctx, docType.ID, doc.Status)
	if err != nil {
		return nil, shared.Fail(shared.CodeInternalError, "failed to read approval rules: %v", err)
	}

	var candidates []*approval.Rule
	for _, rule := range rules {
		if rule.IsActive && rule.ToStatus == toStatus {
			candidates = append(candidates, rule)
		}
	}
	if len(candidates) == 0 {
		return nil, shared.FailData(approval.CodeNoRule,
			"no approval rule covers "+doc.Status+" -> "+toStatus+" for type "+docType.TypeKey,
			map[string]interface{}{"from": doc.Status, "to": toStatus})
	}

	// Candidates are priority-ordered; the first full match wins
	actorAllowed := false
	for _, rule := range candidates {
		if rule.Matches(doc.Status, doc.TotalAmount, actor) {
			return rule, shared.Ok(nil)
		}
		if rule.AllowsActor(actor) {
			actorAllowed = true
		}
	}
	if actorAllowed {
		return nil, shared.FailData(approval.CodeAmountOutOfRange,
			"document total "+doc.TotalAmount.String()+" is outside the actor's approval range",
			map[string]interface{}{"amount": doc.TotalAmount.String(), "actor": actor})
	}
	return nil, shared.FailData(approval.CodePermissionDenied,
		"actor "+actor+" is not in any approver set for "+doc.Status+" -> "+toStatus,
		map[string]interface{}{"actor": actor, "from": doc.Status, "to": toStatus})
}

// matchRule finds the highest priority rule fully matching the transition
func matchRule(rules []*approval.Rule, doc *document.Document, toStatus, actor string) *approval.Rule {
	for _, rule := range rules {
		if rule.ToStatus == toStatus && rule.Matches(doc.Status, doc.TotalAmount, actor) {
			return rule
		}
	}
	return nil
}
