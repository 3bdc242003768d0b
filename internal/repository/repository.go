// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.
package repository

import (
	"context"
	"errors"

	"docvault/internal/model"
)

var (
	// ErrNotFound is returned when a row addressed by key does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInvalidReference is returned when a foreign key does not resolve.
	ErrInvalidReference = errors.New("invalid reference")
)

// UserRepository persists identities.
type UserRepository interface {
	// Create inserts a user. Returns ErrDuplicate when the email is taken.
	Create(ctx context.Context, u *model.User) (*model.User, error)
	// FindByEmail looks up a user by lowercase email.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// FindByID looks up a user by id.
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// CategoryRepository persists the shared category list.
type CategoryRepository interface {
	// List returns every category ordered by name ascending.
	List(ctx context.Context) ([]model.Category, error)
	// Create inserts a category. Returns ErrDuplicate when the name is taken.
	Create(ctx context.Context, c *model.Category) (*model.Category, error)
	// FindByID returns ErrNotFound when the category does not exist.
	FindByID(ctx context.Context, id int64) (*model.Category, error)
}

// DocumentRepository defines data access for documents using SQL queries only.
// Persistence only; no business rules.
// Every returned document has its Category joined.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	// Returns ErrInvalidReference when the category or owner does not exist.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id int64) (*model.Document, error)

	// List returns one page of documents and the total row count for the filter.
	List(ctx context.Context, f DocumentFilter) (*PageResult[model.Document], error)

	// Update applies the non-nil fields of ch and returns the stored row.
	Update(ctx context.Context, id int64, ch DocumentChanges) (*model.Document, error)

	// Delete removes a document by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id int64) error
}

// DocumentFilter selects one page of a user's documents.
type DocumentFilter struct {
	UserID     int64
	CategoryID *int64
	// Search is matched case-insensitively as a substring of the name.
	Search string
	PageQuery
}

// DocumentChanges lists the columns to overwrite; nil means keep.
type DocumentChanges struct {
	Name        *string
	CategoryID  *int64
	Description *string
}

// Empty reports whether no column would change.
func (c DocumentChanges) Empty() bool {
	return c.Name == nil && c.CategoryID == nil && c.Description == nil
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
