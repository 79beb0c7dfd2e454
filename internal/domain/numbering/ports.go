package numbering

import "context"

// ConfigRepository defines persistence operations for numbering
// configurations. Allocation locks the configuration row.
type ConfigRepository interface {
	Save(ctx context.Context, config *Config) error

	// FindByID retrieves a configuration
	FindByID(ctx context.Context, id uint) (*Config, error)

	// FindForUpdate retrieves the configuration holding a row-level
	// exclusive lock for the rest of the enclosing transaction
	FindForUpdate(ctx context.Context, id uint) (*Config, error)

	// Select resolves the configuration for an allocation: user preference
	// first, then location assignment, then the type default.
	Select(ctx context.Context, documentType string, locationID *uint, userName string) (*Config, error)
}
