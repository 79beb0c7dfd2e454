package numbering_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/stockcore-go/internal/domain/numbering"
)

func TestConfig_FormatInternal(t *testing.T) {
	config := &numbering.Config{
		NumberingType: numbering.NumberingTypeInternal,
		Prefix:        "PO-",
		DigitsCount:   6,
	}

	assert.Equal(t, "PO-000042", config.Format(42))
	assert.Equal(t, "PO-1000000", config.Format(1000000), "overflow widens instead of truncating")
}

func TestConfig_FormatFiscal(t *testing.T) {
	config := &numbering.Config{
		NumberingType: numbering.NumberingTypeFiscal,
	}

	assert.Equal(t, "0000000007", config.Format(7))
}

func TestConfig_Validate(t *testing.T) {
	valid := &numbering.Config{
		DocumentType:  "purchase_order",
		NumberingType: numbering.NumberingTypeInternal,
		Prefix:        "PO-",
		DigitsCount:   6,
	}
	assert.NoError(t, valid.Validate())

	missingType := &numbering.Config{
		NumberingType: numbering.NumberingTypeInternal,
		DigitsCount:   6,
	}
	assert.Error(t, missingType.Validate())

	fiscalWithPrefix := &numbering.Config{
		DocumentType:  "receipt",
		NumberingType: numbering.NumberingTypeFiscal,
		Prefix:        "R-",
	}
	assert.Error(t, fiscalWithPrefix.Validate())

	zeroDigits := &numbering.Config{
		DocumentType:  "purchase_order",
		NumberingType: numbering.NumberingTypeInternal,
	}
	assert.Error(t, zeroDigits.Validate())
}
