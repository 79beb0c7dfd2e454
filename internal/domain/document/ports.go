package document

import "context"

// DocumentRepository defines persistence operations for documents and
// their lines. Lines are owned: saving a document persists its lines,
// deleting it cascades.
type DocumentRepository interface {
	// Save creates or updates a document with its lines
	Save(ctx context.Context, doc *Document) error

	// FindByID retrieves a document with its lines
	FindByID(ctx context.Context, id uint) (*Document, error)

	// FindByNumber retrieves a document by its document number
	FindByNumber(ctx context.Context, number string) (*Document, error)

	// FindForUpdate retrieves the document holding a row-level lock
	FindForUpdate(ctx context.Context, id uint) (*Document, error)

	// SetStatus updates only the status column
	SetStatus(ctx context.Context, id uint, status string) error

	// ListByKind retrieves documents of one kind, newest first
	ListByKind(ctx context.Context, kind DocumentKind, limit, offset int) ([]*Document, error)
}

// DocumentTypeRepository defines persistence operations for document
// types with their status and transition configuration
type DocumentTypeRepository interface {
	Save(ctx context.Context, t *DocumentType) error
	FindByID(ctx context.Context, id uint) (*DocumentType, error)
	FindByKey(ctx context.Context, typeKey string) (*DocumentType, error)
}
