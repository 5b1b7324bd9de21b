package service

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"bookshelf-api/internal/domains/library/model"
	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/query"
)

type Service interface {
	// Read (authenticated)
	ListLibraries(ctx context.Context, actor permission.Identity, params url.Values, page query.Page) ([]model.Library, int, error)
	GetLibrary(ctx context.Context, actor permission.Identity, id uuid.UUID) (*model.LibraryDetail, error)

	// Admin
	CreateLibrary(ctx context.Context, actor permission.Identity, req model.CreateLibraryRequest) (*model.Library, error)
	DeleteLibrary(ctx context.Context, actor permission.Identity, id uuid.UUID) error
	AssignLibrarian(ctx context.Context, actor permission.Identity, id uuid.UUID, req model.AssignLibrarianRequest) (*model.Librarian, error)

	// Membership (library.change)
	AddBooks(ctx context.Context, actor permission.Identity, id uuid.UUID, req model.AddBooksRequest) error
	RemoveBook(ctx context.Context, actor permission.Identity, id, bookID uuid.UUID) error
}
