package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookshelf-api/internal/domains/post/model"
	"bookshelf-api/internal/domains/post/repository"
	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/query"
	"bookshelf-api/internal/shared/utils"
)

// ownerRule: chỉ owner hoặc admin được sửa/xoá post và comment
var ownerRule = permission.OwnerOr(permission.RoleAdmin)

type PostService struct {
	repo repository.RepositoryInterface
	now  func() time.Time
}

func NewPostService(repo repository.RepositoryInterface) ServiceInterface {
	return NewPostServiceWithClock(repo, time.Now)
}

// NewPostServiceWithClock - clock dùng làm published_date mặc định
func NewPostServiceWithClock(repo repository.RepositoryInterface, now func() time.Time) *PostService {
	return &PostService{repo: repo, now: now}
}

// =====================================================
// CREATE POST
// =====================================================

func (s *PostService) CreatePost(ctx context.Context, actor permission.Identity, req model.CreatePostRequest) (*model.Post, error) {
	// Step 1: chỉ user đã đăng nhập
	if err := permission.Authorize(actor, permission.LoggedIn, uuid.Nil); err != nil {
		return nil, err
	}

	// Step 2: sanitize + validate
	req.Title = utils.SanitizeText(req.Title, model.MaxTitleLength)
	req.Content = strings.TrimSpace(req.Content)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	published := s.now().UTC()
	if req.PublishedDate != nil {
		published = req.PublishedDate.UTC()
	}

	// Step 3: author luôn là identity hiện tại, không nhận từ payload
	return s.repo.Create(ctx, &model.Post{
		Title:         req.Title,
		Content:       req.Content,
		AuthorID:      actor.UserID,
		PublishedDate: published,
	})
}

func (s *PostService) GetPost(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PostService) ListPosts(ctx context.Context, params url.Values, page query.Page) ([]model.Post, int, error) {
	return s.repo.List(ctx, params, page)
}

// =====================================================
// UPDATE / DELETE POST
// =====================================================

// AuthorizePostWrite: anonymous → 401, post không tồn tại → 404, không phải owner/admin → 403
func (s *PostService) AuthorizePostWrite(ctx context.Context, actor permission.Identity, id uuid.UUID) (*model.Post, error) {
	if err := permission.Authorize(actor, permission.LoggedIn, uuid.Nil); err != nil {
		return nil, err
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := permission.Authorize(actor, ownerRule, post.AuthorID); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) UpdatePost(
	ctx context.Context,
	actor permission.Identity,
	id uuid.UUID,
	req model.UpdatePostRequest,
	partial bool,
) (*model.Post, error) {
	post, err := s.AuthorizePostWrite(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := utils.SanitizeText(*req.Title, model.MaxTitleLength)
		req.Title = &title
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		req.Content = &content
	}
	if err := req.Validate(partial); err != nil {
		return nil, err
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.PublishedDate != nil {
		post.PublishedDate = req.PublishedDate.UTC()
	}

	return s.repo.Update(ctx, post)
}

func (s *PostService) DeletePost(ctx context.Context, actor permission.Identity, id uuid.UUID) error {
	if _, err := s.AuthorizePostWrite(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// =====================================================
// COMMENTS
// =====================================================

func (s *PostService) ListComments(ctx context.Context, postID uuid.UUID, page query.Page) ([]model.Comment, int, error) {
	if _, err := s.repo.GetByID(ctx, postID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListComments(ctx, postID, page)
}

func (s *PostService) CreateComment(
	ctx context.Context,
	actor permission.Identity,
	postID uuid.UUID,
	req model.CommentRequest,
) (*model.Comment, error) {
	if err := permission.Authorize(actor, permission.LoggedIn, uuid.Nil); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	req.Content = strings.TrimSpace(req.Content)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.repo.CreateComment(ctx, &model.Comment{
		PostID:   postID,
		AuthorID: actor.UserID,
		Content:  req.Content,
	})
}

func (s *PostService) AuthorizeCommentWrite(
	ctx context.Context,
	actor permission.Identity,
	postID, commentID uuid.UUID,
) (*model.Comment, error) {
	if err := permission.Authorize(actor, permission.LoggedIn, uuid.Nil); err != nil {
		return nil, err
	}

	comment, err := s.repo.GetComment(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}

	if err := permission.Authorize(actor, ownerRule, comment.AuthorID); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *PostService) UpdateComment(
	ctx context.Context,
	actor permission.Identity,
	postID, commentID uuid.UUID,
	req model.CommentRequest,
) (*model.Comment, error) {
	comment, err := s.AuthorizeCommentWrite(ctx, actor, postID, commentID)
	if err != nil {
		return nil, err
	}

	req.Content = strings.TrimSpace(req.Content)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	comment.Content = req.Content
	return s.repo.UpdateComment(ctx, comment)
}

func (s *PostService) DeleteComment(ctx context.Context, actor permission.Identity, postID, commentID uuid.UUID) error {
	if _, err := s.AuthorizeCommentWrite(ctx, actor, postID, commentID); err != nil {
		return err
	}
	return s.repo.DeleteComment(ctx, postID, commentID)
}
