package service

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"bookshelf-api/internal/domains/author/model"
	"bookshelf-api/internal/domains/author/repository"
	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/query"
	"bookshelf-api/internal/shared/utils"
)

type ServiceInterface interface {
	Create(ctx context.Context, actor permission.Identity, req model.CreateAuthorRequest) (*model.Author, error)
	Get(ctx context.Context, id uuid.UUID) (*model.AuthorDetail, error)
	List(ctx context.Context, params url.Values, page query.Page) ([]model.Author, int, error)
	// Update: partial=true cho PATCH, false cho PUT
	Update(ctx context.Context, actor permission.Identity, id uuid.UUID, req model.UpdateAuthorRequest, partial bool) (*model.Author, error)
	Delete(ctx context.Context, actor permission.Identity, id uuid.UUID) error
}

// Author writes chỉ cần đăng nhập
var writeRule = permission.LoggedIn

type authorService struct {
	repo repository.RepositoryInterface
}

func NewAuthorService(repo repository.RepositoryInterface) ServiceInterface {
	return &authorService{repo: repo}
}

func (s *authorService) Create(ctx context.Context, actor permission.Identity, req model.CreateAuthorRequest) (*model.Author, error) {
	if err := permission.Authorize(actor, writeRule, uuid.Nil); err != nil {
		return nil, err
	}

	req.Name = utils.SanitizeText(req.Name, model.MaxNameLength)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, &model.Author{Name: req.Name})
}

func (s *authorService) Get(ctx context.Context, id uuid.UUID) (*model.AuthorDetail, error) {
	return s.repo.GetDetail(ctx, id)
}

func (s *authorService) List(ctx context.Context, params url.Values, page query.Page) ([]model.Author, int, error) {
	return s.repo.List(ctx, params, page)
}

func (s *authorService) Update(
	ctx context.Context,
	actor permission.Identity,
	id uuid.UUID,
	req model.UpdateAuthorRequest,
	partial bool,
) (*model.Author, error) {
	if err := permission.Authorize(actor, writeRule, uuid.Nil); err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := utils.SanitizeText(*req.Name, model.MaxNameLength)
		req.Name = &name
	}
	if err := req.Validate(partial); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		current.Name = *req.Name
	}
	return s.repo.Update(ctx, current)
}

func (s *authorService) Delete(ctx context.Context, actor permission.Identity, id uuid.UUID) error {
	if err := permission.Authorize(actor, writeRule, uuid.Nil); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
