package repository

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"bookshelf-api/internal/domains/library/model"
	"bookshelf-api/internal/shared/query"
)

type Repository interface {
	Create(ctx context.Context, name string) (*model.Library, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*model.LibraryDetail, error)
	List(ctx context.Context, params url.Values, page query.Page) ([]model.Library, int, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// UpsertLibrarian tạo librarian cho library hoặc đổi tên librarian hiện tại
	UpsertLibrarian(ctx context.Context, libraryID uuid.UUID, name string) (*model.Librarian, error)

	// AddBooks chạy trong một transaction: thiếu bất kỳ book nào → không thêm gì cả.
	// Book đã có trong library được bỏ qua
	AddBooks(ctx context.Context, libraryID uuid.UUID, bookIDs []uuid.UUID) error
	RemoveBook(ctx context.Context, libraryID, bookID uuid.UUID) error
}

var ListSpec = query.Spec{
	Filters: []query.Filter{
		{Param: "name", Column: "l.name", Match: query.Contains},
	},
	SearchParam:   "search",
	SearchColumns: []string{"l.name"},
	OrderParam:    "ordering",
	Orderable: map[string]string{
		"name":       "l.name",
		"created_at": "l.created_at",
	},
	DefaultOrder: "name",
	TieBreaker:   "l.id",
}
