package document_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/stockcore-go/internal/domain/document"
)

func TestLine_ComputeTotal_VATExcluded(t *testing.T) {
	line := &document.Line{
		Quantity:  decimal.NewFromInt(10),
		UnitPrice: decimal.NewFromInt(5),
	}

	line.ComputeTotal(decimal.NewFromInt(20), false)

	assert.True(t, line.LineTotal.Equal(decimal.NewFromInt(50)), "got %s", line.LineTotal)
	assert.True(t, line.VATAmount.Equal(decimal.NewFromInt(10)), "got %s", line.VATAmount)
}

func TestLine_ComputeTotal_VATIncluded(t *testing.T) {
	line := &document.Line{
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: decimal.NewFromInt(120),
	}

	line.ComputeTotal(decimal.NewFromInt(20), true)

	// VAT carved out of the gross total: 120 * 20 / 120 = 20
	assert.True(t, line.LineTotal.Equal(decimal.NewFromInt(120)), "got %s", line.LineTotal)
	assert.True(t, line.VATAmount.Equal(decimal.NewFromInt(20)), "got %s", line.VATAmount)
}

func TestLine_ComputeTotal_Discount(t *testing.T) {
	line := &document.Line{
		Quantity:        decimal.NewFromInt(4),
		UnitPrice:       decimal.NewFromInt(25),
		DiscountPercent: decimal.NewFromInt(10),
	}

	line.ComputeTotal(decimal.Zero, false)

	assert.True(t, line.LineTotal.Equal(decimal.NewFromInt(90)), "got %s", line.LineTotal)
	assert.True(t, line.VATAmount.IsZero())
}

func TestLine_Validate(t *testing.T) {
	valid := &document.Line{LineNumber: 1, ProductID: 2, Quantity: decimal.NewFromInt(1)}
	assert.NoError(t, valid.Validate())

	zeroQty := &document.Line{LineNumber: 1, ProductID: 2, Quantity: decimal.Zero}
	assert.Error(t, zeroQty.Validate())

	noProduct := &document.Line{LineNumber: 1, Quantity: decimal.NewFromInt(1)}
	assert.Error(t, noProduct.Validate())

	overDiscount := &document.Line{
		LineNumber: 1, ProductID: 2,
		Quantity:        decimal.NewFromInt(1),
		DiscountPercent: decimal.NewFromInt(101),
	}
	assert.Error(t, overDiscount.Validate())
}

func TestDocument_RecomputeTotals(t *testing.T) {
	doc := &document.Document{
		Lines: []document.Line{
			{LineTotal: decimal.NewFromFloat(10.50), VATAmount: decimal.NewFromFloat(2.10)},
			{LineTotal: decimal.NewFromFloat(4.25), VATAmount: decimal.NewFromFloat(0.85)},
		},
	}

	doc.RecomputeTotals()

	assert.True(t, doc.TotalAmount.Equal(decimal.NewFromFloat(14.75)), "got %s", doc.TotalAmount)
	assert.True(t, doc.TotalVAT.Equal(decimal.NewFromFloat(2.95)), "got %s", doc.TotalVAT)
}

func TestDocument_LineNumbers(t *testing.T) {
	doc := &document.Document{
		Lines: []document.Line{
			{LineNumber: 1},
			{LineNumber: 3},
		},
	}

	assert.NotNil(t, doc.LineByNumber(3))
	assert.Nil(t, doc.LineByNumber(2))
	assert.Equal(t, 4, doc.NextLineNumber())

	empty := &document.Document{}
	assert.Equal(t, 1, empty.NextLineNumber())
}
