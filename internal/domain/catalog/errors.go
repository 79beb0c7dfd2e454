package catalog

import "fmt"

// ErrInvalidEntity represents validation errors for catalog entities
type ErrInvalidEntity struct {
	Entity string
	Field  string
	Reason string
}

func (e *ErrInvalidEntity) Error() string {
	return fmt.Sprintf("invalid %s: %s - %s", e.Entity, e.Field, e.Reason)
}

// ErrLocationNotFound represents errors when a location cannot be found
type ErrLocationNotFound struct {
	ID   uint
	Code string
}

func (e *ErrLocationNotFound) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("location not found: code=%s", e.Code)
	}
	return fmt.Sprintf("location not found: id=%d", e.ID)
}

// ErrProductNotFound represents errors when a product cannot be found
type ErrProductNotFound struct {
	ID   uint
	Code string
}

func (e *ErrProductNotFound) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("product not found: code=%s", e.Code)
	}
	return fmt.Sprintf("product not found: id=%d", e.ID)
}
