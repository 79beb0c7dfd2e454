package approval

import "context"

// RuleRepository defines persistence operations for approval rules
type RuleRepository interface {
	Save(ctx context.Context, rule *Rule) error

	// FindForTransition retrieves active rules of the document type for
	// the from-status, ordered by priority descending
	FindForTransition(ctx context.Context, documentTypeID uint, fromStatus string) ([]*Rule, error)

	// FindForType retrieves all active rules of the document type
	FindForType(ctx context.Context, documentTypeID uint) ([]*Rule, error)
}

// LogRepository defines persistence operations for the approval audit
// trail. Entries are append-only.
type LogRepository interface {
	Create(ctx context.Context, entry *LogEntry) error
	FindByDocument(ctx context.Context, documentID uint) ([]*LogEntry, error)
}
