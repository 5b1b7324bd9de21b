package service

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"bookshelf-api/internal/domains/library/model"
	"bookshelf-api/internal/domains/library/repository"
	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/query"
	"bookshelf-api/internal/shared/utils"
	"bookshelf-api/pkg/logger"
)

var (
	readRule       = permission.LoggedIn
	adminRule      = permission.RoleIn(permission.RoleAdmin)
	membershipRule = permission.Requires(permission.LibraryChange)
)

type libraryService struct {
	repo repository.Repository
}

func NewService(repo repository.Repository) Service {
	return &libraryService{repo: repo}
}

func (s *libraryService) ListLibraries(ctx context.Context, actor permission.Identity, params url.Values, page query.Page) ([]model.Library, int, error) {
	if err := permission.Authorize(actor, readRule, uuid.Nil); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, params, page)
}

func (s *libraryService) GetLibrary(ctx context.Context, actor permission.Identity, id uuid.UUID) (*model.LibraryDetail, error) {
	if err := permission.Authorize(actor, readRule, uuid.Nil); err != nil {
		return nil, err
	}
	return s.repo.GetDetail(ctx, id)
}

func (s *libraryService) CreateLibrary(ctx context.Context, actor permission.Identity, req model.CreateLibraryRequest) (*model.Library, error) {
	if err := permission.Authorize(actor, adminRule, uuid.Nil); err != nil {
		return nil, err
	}

	req.Name = utils.SanitizeText(req.Name, model.MaxNameLength)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, req.Name)
}

func (s *libraryService) DeleteLibrary(ctx context.Context, actor permission.Identity, id uuid.UUID) error {
	if err := permission.Authorize(actor, adminRule, uuid.Nil); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logger.Info("library deleted", map[string]interface{}{"library_id": id.String(), "actor_id": actor.UserID.String()})
	return nil
}

func (s *libraryService) AssignLibrarian(
	ctx context.Context,
	actor permission.Identity,
	id uuid.UUID,
	req model.AssignLibrarianRequest,
) (*model.Librarian, error) {
	if err := permission.Authorize(actor, adminRule, uuid.Nil); err != nil {
		return nil, err
	}

	req.Name = utils.SanitizeText(req.Name, model.MaxNameLength)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.repo.UpsertLibrarian(ctx, id, req.Name)
}

func (s *libraryService) AddBooks(ctx context.Context, actor permission.Identity, id uuid.UUID, req model.AddBooksRequest) error {
	if err := permission.Authorize(actor, membershipRule, uuid.Nil); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	return s.repo.AddBooks(ctx, id, req.ParsedBookIDs())
}

func (s *libraryService) RemoveBook(ctx context.Context, actor permission.Identity, id, bookID uuid.UUID) error {
	if err := permission.Authorize(actor, membershipRule, uuid.Nil); err != nil {
		return err
	}
	return s.repo.RemoveBook(ctx, id, bookID)
}
