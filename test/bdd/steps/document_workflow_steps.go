package steps

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	appdocument "github.com/andrescamacho/stockcore-go/internal/application/document"
	"github.com/andrescamacho/stockcore-go/internal/domain/approval"
	"github.com/andrescamacho/stockcore-go/internal/domain/document"
	"github.com/andrescamacho/stockcore-go/internal/domain/numbering"
)

// Given steps

func (s *suiteContext) aDeliveryReceiptWorkflow(prefix string) error {
	docType := &document.DocumentType{
		TypeKey: "delivery_receipt",
		Name:    "Delivery Receipt",
		Kind:    document.KindDeliveryReceipt,
		Statuses: []document.StatusConfig{
			{Status: "draft", IsInitial: true, AllowsEditing: true},
			{Status: "received", CreatesInventoryMovements: true},
			{Status: "cancelled", IsFinal: true, IsCancellation: true, ReversesInventoryMovements: true},
		},
		Transitions: []document.Transition{
			{FromStatus: "draft", ToStatus: "received"},
			{FromStatus: "draft", ToStatus: "cancelled"},
			{FromStatus: "received", ToStatus: "cancelled"},
		},
	}
	if err := s.repos.DocumentTypes.Save(context.Background(), docType); err != nil {
		return err
	}
	s.docType = docType

	return s.repos.Numbering.Save(context.Background(), &numbering.Config{
		DocumentType:  "delivery_receipt",
		NumberingType: numbering.NumberingTypeInternal,
		Prefix:        prefix,
		DigitsCount:   6,
	})
}

func (s *suiteContext) transitionRequiresApproval(to, approver string, maxAmount int) error {
	if s.docType == nil {
		return fmt.Errorf("no document workflow was declared")
	}

	s.docType.RequiresApproval = true
	if err := s.repos.DocumentTypes.Save(context.Background(), s.docType); err != nil {
		return err
	}

	return s.repos.ApprovalRules.Save(context.Background(), &approval.Rule{
		DocumentTypeID: s.docType.ID,
		FromStatus:     "draft",
		ToStatus:       to,
		MinAmount:      decimal.Zero,
		MaxAmount:      decimal.NewFromInt(int64(maxAmount)),
		ApproverSet:    []string{approver},
		Priority:       10,
		IsActive:       true,
	})
}

func (s *suiteContext) aReceiptWithLines(qty int, productCode, price string) error {
	if err := s.iCreateReceipt(qty, productCode, price); err != nil {
		return err
	}
	if !s.lastResult.OK {
		return fmt.Errorf("failed to create receipt: %s", s.lastResult.Message)
	}
	return nil
}

// When steps

func (s *suiteContext) iCreateReceipt(qty int, productCode, price string) error {
	location, err := s.location("MAIN")
	if err != nil {
		return err
	}
	product, err := s.product(productCode)
	if err != nil {
		return err
	}

	s.lastResult = s.service.Create(context.Background(), s.opCtx("bdd"), appdocument.CreateParams{
		TypeKey:    "delivery_receipt",
		LocationID: location.ID,
		Lines: []appdocument.LineParams{
			{ProductID: product.ID, Quantity: decimal.NewFromInt(int64(qty)), UnitPrice: dec(price)},
		},
	})
	if s.lastResult.OK {
		s.documentID = s.lastResult.Data["document_id"].(uint)
	}
	return nil
}

func (s *suiteContext) actorMovesDocumentTo(actor, to string) error {
	if s.documentID == 0 {
		return fmt.Errorf("no document was created")
	}
	s.lastResult = s.engine.ExecuteTransition(context.Background(), s.opCtx(actor), s.documentID, to, "")
	return nil
}

// Then steps

func (s *suiteContext) theDocumentShouldBeCreatedAs(number, status string) error {
	if !s.lastResult.OK {
		return fmt.Errorf("document creation failed: %s", s.lastResult.Message)
	}
	if got := s.lastResult.Data["document_number"]; got != number {
		return fmt.Errorf("expected document number %s but got %v", number, got)
	}
	if got := s.lastResult.Data["status"]; got != status {
		return fmt.Errorf("expected status %s but got %v", status, got)
	}
	return nil
}

func (s *suiteContext) theDocumentTotalShouldBe(expected string) error {
	raw, ok := s.lastResult.Data["total_amount"].(string)
	if !ok {
		return fmt.Errorf("last result carries no total amount")
	}
	if !dec(raw).Equal(dec(expected)) {
		return fmt.Errorf("expected total %s but got %s", expected, raw)
	}
	return nil
}

func (s *suiteContext) theTransitionShouldSucceed() error {
	if !s.lastResult.OK {
		return fmt.Errorf("expected transition to succeed but got %s: %s",
			s.lastResult.Code, s.lastResult.Message)
	}
	return nil
}

func (s *suiteContext) theTransitionShouldFailWithCode(code string) error {
	if s.lastResult.OK {
		return fmt.Errorf("expected transition to fail with %s but it succeeded", code)
	}
	if s.lastResult.Code != code {
		return fmt.Errorf("expected code %s but got %s: %s", code, s.lastResult.Code, s.lastResult.Message)
	}
	return nil
}

// Register steps

func registerDocumentWorkflowSteps(sc *godog.ScenarioContext, s *suiteContext) {
	sc.Step(`^a delivery receipt workflow with sequence prefix "([^"]*)"$`, s.aDeliveryReceiptWorkflow)
	sc.Step(`^the transition to "([^"]*)" requires approval by "([^"]*)" for amounts up to (\d+)$`, s.transitionRequiresApproval)
	sc.Step(`^a receipt with (\d+) units of "([^"]*)" at price ([0-9.]+)$`, s.aReceiptWithLines)
	sc.Step(`^I create a receipt with (\d+) units of "([^"]*)" at price ([0-9.]+)$`, s.iCreateReceipt)
	sc.Step(`^"([^"]*)" moves the document to "([^"]*)"$`, s.actorMovesDocumentTo)
	sc.Step(`^the document should be created as "([^"]*)" in status "([^"]*)"$`, s.theDocumentShouldBeCreatedAs)
	sc.Step(`^the document total should be ([0-9.]+)$`, s.theDocumentTotalShouldBe)
	sc.Step(`^the transition should succeed$`, s.theTransitionShouldSucceed)
	sc.Step(`^the transition should fail with code "([^"]*)"$`, s.theTransitionShouldFailWithCode)
}
