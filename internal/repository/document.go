package repository

import (
	"context"

	"studydocs/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here, strictly persistence operations. There is no update:
// a document's storage location never changes after creation.
type DocumentRepository interface {
	// Create inserts a new document record.
	// Returns the stored document (may include values set by the DB).
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, or sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns a paginated list of documents and total rows count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Document], error)

	// ListByOwner returns every document belonging to the given student, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Document, error)

	// Delete removes a document by ID. It returns sql.ErrNoRows if no row was deleted.
	Delete(ctx context.Context, id string) error
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
