package repository

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"bookshelf-api/internal/domains/user/model"
	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/query"
)

type RepositoryInterface interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	// GetByID cache-aside theo key user:<id>
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// GetByEmail so sánh case-insensitive
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, params url.Values, page query.Page) ([]model.User, int, error)

	// ExistsByEmail case-insensitive, bỏ qua excludeID (uuid.Nil = không loại trừ)
	ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	UpdateProfile(ctx context.Context, u *model.User) (*model.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role permission.Role) (*model.User, error)
}

// ListSpec cho GET /admin/users
var ListSpec = query.Spec{
	Filters: []query.Filter{
		{Param: "username", Column: "username", Match: query.Contains},
		{Param: "email", Column: "email", Match: query.Contains},
		{Param: "role", Column: "role", Match: query.Exact},
	},
	SearchParam:   "search",
	SearchColumns: []string{"username", "email", "first_name", "last_name"},
	OrderParam:    "ordering",
	Orderable: map[string]string{
		"username":   "username",
		"email":      "email",
		"created_at": "created_at",
	},
	DefaultOrder: "username",
	TieBreaker:   "id",
}
