package document

import "fmt"

// Result codes produced by the document components
const (
	CodeDocumentNotFound = "DOCUMENT_NOT_FOUND"
	CodeEditNotAllowed   = "EDIT_NOT_ALLOWED"
	CodeLineNotFound     = "LINE_NOT_FOUND"
)

// ErrInvalidDocument represents validation errors for documents and lines
type ErrInvalidDocument struct {
	Field  string
	Reason string
}

func (e *ErrInvalidDocument) Error() string {
	return fmt.Sprintf("invalid document: %s - %s", e.Field, e.Reason)
}

// ErrDocumentNotFound represents errors when a document cannot be found
type ErrDocumentNotFound struct {
	ID     uint
	Number string
}

func (e *ErrDocumentNotFound) Error() string {
	if e.Number != "" {
		return fmt.Sprintf("document not found: number=%s", e.Number)
	}
	return fmt.Sprintf("document not found: id=%d", e.ID)
}

// ErrDocumentTypeNotFound represents errors when a document type cannot
// be found
type ErrDocumentTypeNotFound struct {
	ID      uint
	TypeKey string
}

func (e *ErrDocumentTypeNotFound) Error() string {
	if e.TypeKey != "" {
		return fmt.Sprintf("document type not found: key=%s", e.TypeKey)
	}
	return fmt.Sprintf("document type not found: id=%d", e.ID)
}

// ErrStatusNotAllowed represents errors when a status is not declared by
// the document type
type ErrStatusNotAllowed struct {
	TypeKey string
	Status  string
}

func (e *ErrStatusNotAllowed) Error() string {
	return fmt.Sprintf("status %q is not declared by document type %q", e.Status, e.TypeKey)
}
