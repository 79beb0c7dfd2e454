package catalog

import "context"

// LocationRepository defines persistence operations for locations
type LocationRepository interface {
	Save(ctx context.Context, location *Location) error
	FindByID(ctx context.Context, id uint) (*Location, error)
	FindByCode(ctx context.Context, code string) (*Location, error)
	List(ctx context.Context) ([]*Location, error)
}

// ProductRepository defines persistence operations for products
type ProductRepository interface {
	Save(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id uint) (*Product, error)
	FindByCode(ctx context.Context, code string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
}
