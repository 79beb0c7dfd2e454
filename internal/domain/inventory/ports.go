package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// MovementRepository defines persistence operations for the movement
// ledger. The ledger is append-only: there is no update or delete.
type MovementRepository interface {
	// Create appends a new movement record
	Create(ctx context.Context, movement *Movement) error

	// FindByID retrieves a movement by its ID
	FindByID(ctx context.Context, id MovementID) (*Movement, error)

	// FindForKey retrieves all movements for one (location, product) pair
	// ordered by movement date then creation time
	FindForKey(ctx context.Context, locationID, productID uint) ([]*Movement, error)

	// FindForBatch retrieves all movements for one batch key
	FindForBatch(ctx context.Context, locationID, productID uint, batchNumber string, expiryDate *time.Time) ([]*Movement, error)

	// FindBySource retrieves all movements written by one source document
	FindBySource(ctx context.Context, source Source) ([]*Movement, error)

	// Query retrieves movements matching the options
	Query(ctx context.Context, opts QueryOptions) ([]*Movement, error)

	// Count returns the number of movements matching the options
	Count(ctx context.Context, opts QueryOptions) (int, error)

	// ProfitSummary aggregates sold quantity, revenue, cost and profit
	// over outgoing movements matching the options
	ProfitSummary(ctx context.Context, opts QueryOptions) (*ProfitSummary, error)

	// ListKeys returns every distinct (location, product) pair present in
	// the ledger, for full cache rebuilds
	ListKeys(ctx context.Context) ([]ItemKey, error)
}

// ItemKey identifies one balance cache row
type ItemKey struct {
	LocationID uint
	ProductID  uint
}

// BatchKey identifies one batch cache row
type BatchKey struct {
	LocationID  uint
	ProductID   uint
	BatchNumber string
	ExpiryDate  *time.Time
}

// QueryOptions defines filtering and pagination for movement queries
type QueryOptions struct {
	LocationID   *uint
	ProductID    *uint
	MovementType *MovementType
	SourceKind   *SourceKind
	SourceNumber *string
	BatchNumber  *string
	StartDate    *time.Time
	EndDate      *time.Time

	Limit  int
	Offset int

	// OrderBy is "movement_date ASC" or "movement_date DESC" (default ASC)
	OrderBy string
}

// DefaultQueryOptions returns default query options
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		Limit:   100,
		Offset:  0,
		OrderBy: "movement_date ASC",
	}
}

// ProfitSummary aggregates sale results over a set of outgoing movements.
// The margin is derived from the summed revenue and cost, and reported as
// zero when revenue is not positive.
type ProfitSummary struct {
	SoldQty          decimal.Decimal
	Revenue          decimal.Decimal
	Cost             decimal.Decimal
	Profit           decimal.Decimal
	MarginPercentage decimal.Decimal
}

// ItemRepository defines persistence operations for balance caches
type ItemRepository interface {
	// Find retrieves the balance cache row, or ErrItemNotFound
	Find(ctx context.Context, locationID, productID uint) (*Item, error)

	// FindForUpdate retrieves the row holding a row-level exclusive lock
	// for the rest of the enclosing transaction
	FindForUpdate(ctx context.Context, locationID, productID uint) (*Item, error)

	// Upsert creates or replaces the row
	Upsert(ctx context.Context, item *Item) error

	// Delete removes the row
	Delete(ctx context.Context, locationID, productID uint) error

	// ListByLocation retrieves all rows for one location
	ListByLocation(ctx context.Context, locationID uint) ([]*Item, error)
}

// BatchRepository defines persistence operations for batch caches
type BatchRepository interface {
	// Find retrieves one batch cache row, or ErrBatchNotFound
	Find(ctx context.Context, key BatchKey) (*Batch, error)

	// FindForUpdate retrieves the row holding a row-level exclusive lock
	FindForUpdate(ctx context.Context, key BatchKey) (*Batch, error)

	// FindAvailable retrieves all batches with remaining quantity for one
	// (location, product) pair in FIFO order, locking each row
	FindAvailable(ctx context.Context, locationID, productID uint) ([]*Batch, error)

	// ListAvailable is FindAvailable without row locks, for read-side
	// availability checks
	ListAvailable(ctx context.Context, locationID, productID uint) ([]*Batch, error)

	// Upsert creates or replaces the row
	Upsert(ctx context.Context, batch *Batch) error

	// Delete removes the row
	Delete(ctx context.Context, key BatchKey) error

	// ListExpiring retrieves batches whose expiry falls before the cutoff
	ListExpiring(ctx context.Context, locationID uint, cutoff time.Time) ([]*Batch, error)
}
