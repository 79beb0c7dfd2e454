package numbering

import "fmt"

// NumberingType selects the output format of a configuration
type NumberingType string

const (
	// NumberingTypeFiscal formats exactly ten digits, zero-padded, no prefix
	NumberingTypeFiscal NumberingType = "fiscal"

	// NumberingTypeInternal formats {prefix}{zero-padded number}
	NumberingTypeInternal NumberingType = "internal"
)

// IsValid checks if the numbering type is valid
func (t NumberingType) IsValid() bool {
	return t == NumberingTypeFiscal || t == NumberingTypeInternal
}

// String returns the string representation of the numbering type
func (t NumberingType) String() string {
	return string(t)
}

// FiscalDigits is the fixed width of fiscal numbers
const FiscalDigits = 10

// Config is one numbering sequence. Selection order when allocating:
// user preference, then location assignment, then the type default.
type Config struct {
	ID            uint
	DocumentType  string
	NumberingType NumberingType
	Prefix        string
	DigitsCount   int
	CurrentNumber int64
	MaxNumber     int64 // zero means unbounded
	ResetYearly   bool
	LastResetYear int

	// Scoping: nil means the type default; a location or user binds the
	// configuration to that scope
	LocationID *uint
	UserName   string
}

// Format renders a sequence value per the configuration's numbering type
func (c *Config) Format(n int64) string {
	switch c.NumberingType {
	case NumberingTypeFiscal:
		return fmt.Sprintf("%0*d", FiscalDigits, n)
	default:
		return fmt.Sprintf("%s%0*d", c.Prefix, c.DigitsCount, n)
	}
}

// Validate checks the configuration invariants
func (c *Config) Validate() error {
	if c.DocumentType == "" {
		return fmt.Errorf("numbering config requires a document type")
	}
	if !c.NumberingType.IsValid() {
		return fmt.Errorf("invalid numbering type: %s", c.NumberingType)
	}
	if c.NumberingType == NumberingTypeInternal && c.DigitsCount <= 0 {
		return fmt.Errorf("internal numbering requires a positive digits count")
	}
	if c.NumberingType == NumberingTypeFiscal && c.Prefix != "" {
		return fmt.Errorf("fiscal numbering does not allow a prefix")
	}
	if c.CurrentNumber < 0 {
		return fmt.Errorf("current number cannot be negative")
	}
	return nil
}
