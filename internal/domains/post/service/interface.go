package service

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"bookshelf-api/internal/domains/post/model"
	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/query"
)

// =====================================================
// POST SERVICE INTERFACE
// =====================================================

type ServiceInterface interface {
	// ========================================
	// POSTS
	// ========================================

	CreatePost(ctx context.Context, actor permission.Identity, req model.CreatePostRequest) (*model.Post, error)
	GetPost(ctx context.Context, id uuid.UUID) (*model.Post, error)
	ListPosts(ctx context.Context, params url.Values, page query.Page) ([]model.Post, int, error)
	UpdatePost(ctx context.Context, actor permission.Identity, id uuid.UUID, req model.UpdatePostRequest, partial bool) (*model.Post, error)
	DeletePost(ctx context.Context, actor permission.Identity, id uuid.UUID) error

	// AuthorizePostWrite kiểm tra quyền sửa/xoá post trước khi handler đọc payload,
	// để non-owner luôn nhận 403 bất kể payload có hợp lệ hay không
	AuthorizePostWrite(ctx context.Context, actor permission.Identity, id uuid.UUID) (*model.Post, error)

	// ========================================
	// COMMENTS
	// ========================================

	ListComments(ctx context.Context, postID uuid.UUID, page query.Page) ([]model.Comment, int, error)
	CreateComment(ctx context.Context, actor permission.Identity, postID uuid.UUID, req model.CommentRequest) (*model.Comment, error)
	UpdateComment(ctx context.Context, actor permission.Identity, postID, commentID uuid.UUID, req model.CommentRequest) (*model.Comment, error)
	DeleteComment(ctx context.Context, actor permission.Identity, postID, commentID uuid.UUID) error
	AuthorizeCommentWrite(ctx context.Context, actor permission.Identity, postID, commentID uuid.UUID) (*model.Comment, error)
}
