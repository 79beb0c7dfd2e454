package numbering

import "fmt"

// Result codes produced by the numbering service
const (
	CodeConfigNotFound    = "NUMBERING_CONFIG_NOT_FOUND"
	CodeSequenceExhausted = "SEQUENCE_EXHAUSTED"
)

// ErrConfigNotFound represents errors when no configuration matches
type ErrConfigNotFound struct {
	DocumentType string
}

func (e *ErrConfigNotFound) Error() string {
	return fmt.Sprintf("numbering configuration not found for document type %q", e.DocumentType)
}

// ErrSequenceExhausted represents errors when the sequence passed its
// configured maximum
type ErrSequenceExhausted struct {
	DocumentType string
	MaxNumber    int64
}

func (e *ErrSequenceExhausted) Error() string {
	return fmt.Sprintf("numbering sequence exhausted for %q: max=%d", e.DocumentType, e.MaxNumber)
}
