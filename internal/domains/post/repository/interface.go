package repository

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"bookshelf-api/internal/domains/post/model"
	"bookshelf-api/internal/shared/query"
)

// =====================================================
// POST REPOSITORY INTERFACE
// =====================================================

type RepositoryInterface interface {
	Create(ctx context.Context, p *model.Post) (*model.Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	List(ctx context.Context, params url.Values, page query.Page) ([]model.Post, int, error)
	// Update chỉ ghi title/content/published_date, author_id không bao giờ đổi
	Update(ctx context.Context, p *model.Post) (*model.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Comments
	CreateComment(ctx context.Context, c *model.Comment) (*model.Comment, error)
	// GetComment scope theo post: comment của post khác → ErrCommentNotFound
	GetComment(ctx context.Context, postID, commentID uuid.UUID) (*model.Comment, error)
	ListComments(ctx context.Context, postID uuid.UUID, page query.Page) ([]model.Comment, int, error)
	UpdateComment(ctx context.Context, c *model.Comment) (*model.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID uuid.UUID) error
}

// ListSpec whitelist filter/search/ordering cho GET /posts
var ListSpec = query.Spec{
	Filters: []query.Filter{
		{Param: "author", Column: "u.username", Match: query.Contains},
		{Param: "title", Column: "p.title", Match: query.Contains},
	},
	SearchParam:   "search",
	SearchColumns: []string{"p.title", "p.content"},
	OrderParam:    "ordering",
	Orderable: map[string]string{
		"created_at":     "p.created_at",
		"updated_at":     "p.updated_at",
		"published_date": "p.published_date",
		"title":          "p.title",
	},
	DefaultOrder: "-created_at",
	TieBreaker:   "p.id",
}
