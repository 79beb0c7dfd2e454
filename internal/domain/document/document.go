package document

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/stockcore-go/internal/domain/shared"
)

// UrgencyLevel classifies how urgent a purchase request is
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "LOW"
	UrgencyNormal   UrgencyLevel = "NORMAL"
	UrgencyHigh     UrgencyLevel = "HIGH"
	UrgencyCritical UrgencyLevel = "CRITICAL"
)

// IsValid checks if the urgency level is valid
func (u UrgencyLevel) IsValid() bool {
	switch u {
	case UrgencyLow, UrgencyNormal, UrgencyHigh, UrgencyCritical:
		return true
	default:
		return false
	}
}

// Document is the shared header of purchase requests, purchase orders and
// delivery receipts. The concrete sort is the Kind discriminant; workflow
// behavior comes from the document type, not from subclassing.
type Document struct {
	ID             uint
	DocumentNumber string
	DocumentDate   time.Time
	DocumentTypeID uint
	Kind           DocumentKind
	Status         string
	SupplierCode   string
	LocationID     uint
	VATIncluded    bool
	TotalAmount    decimal.Decimal
	TotalVAT       decimal.Decimal
	Lines          []Line

	// Purchase-request fields
	UrgencyLevel UrgencyLevel
	RequestedBy  string

	// ConvertedToOrderID points to the order a request was converted into.
	// The reverse direction (order -> originating request) is a query.
	ConvertedToOrderID *uint

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Line is one document line. (Document, LineNumber) is unique; LineTotal
// and VATAmount are computed, never stored by the caller.
type Line struct {
	ID              uint
	DocumentID      uint
	LineNumber      int
	ProductID       uint
	Quantity        decimal.Decimal
	Unit            string
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	BatchNumber     string
	ExpiryDate      *time.Time
	LineTotal       decimal.Decimal
	VATAmount       decimal.Decimal
}

// Validate checks the line invariants
func (l *Line) Validate() error {
	if l.LineNumber <= 0 {
		return &ErrInvalidDocument{Field: "line_number", Reason: "line number must be positive"}
	}
	if l.ProductID == 0 {
		return &ErrInvalidDocument{Field: "product", Reason: "product is required"}
	}
	if l.Quantity.LessThanOrEqual(decimal.Zero) {
		return &ErrInvalidDocument{Field: "quantity", Reason: fmt.Sprintf("quantity must be positive, got %s", l.Quantity)}
	}
	if l.UnitPrice.IsNegative() {
		return &ErrInvalidDocument{Field: "unit_price", Reason: "unit price cannot be negative"}
	}
	if l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return &ErrInvalidDocument{Field: "discount_percent", Reason: fmt.Sprintf("discount must be within [0,100], got %s", l.DiscountPercent)}
	}
	return nil
}

// ComputeTotal derives the line total and VAT amount. The total is
// quantity * unit price * (1 - discount%). With VAT excluded the VAT is
// total * rate/100; with VAT included it is carved out of the total as
// total * rate / (100 + rate).
func (l *Line) ComputeTotal(taxRate decimal.Decimal, vatIncluded bool) {
	one := decimal.NewFromInt(1)
	gross := l.Quantity.Mul(l.UnitPrice).Mul(one.Sub(shared.Percent(l.DiscountPercent)))
	l.LineTotal = shared.RoundCurrency(gross)

	if taxRate.IsZero() {
		l.VATAmount = decimal.Zero
		return
	}
	if vatIncluded {
		hundred := decimal.NewFromInt(100)
		l.VATAmount = shared.RoundCurrency(l.LineTotal.Mul(taxRate).Div(hundred.Add(taxRate)))
	} else {
		l.VATAmount = shared.RoundCurrency(l.LineTotal.Mul(shared.Percent(taxRate)))
	}
}

// RecomputeTotals refreshes the cached document totals from its lines
func (d *Document) RecomputeTotals() {
	total := decimal.Zero
	vat := decimal.Zero
	for i := range d.Lines {
		total = total.Add(d.Lines[i].LineTotal)
		vat = vat.Add(d.Lines[i].VATAmount)
	}
	d.TotalAmount = shared.RoundCurrency(total)
	d.TotalVAT = shared.RoundCurrency(vat)
}

// LineByNumber returns the line with the given number, nil when absent
func (d *Document) LineByNumber(n int) *Line {
	for i := range d.Lines {
		if d.Lines[i].LineNumber == n {
			return &d.Lines[i]
		}
	}
	return nil
}

// NextLineNumber returns the next free line number
func (d *Document) NextLineNumber() int {
	max := 0
	for i := range d.Lines {
		if d.Lines[i].LineNumber > max {
			max = d.Lines[i].LineNumber
		}
	}
	return max + 1
}

// String returns a human-readable representation
func (d *Document) String() string {
	return fmt.Sprintf("Document[%s %s, status=%s, total=%s]",
		d.Kind, d.DocumentNumber, d.Status, d.TotalAmount)
}
