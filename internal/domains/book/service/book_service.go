package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"bookshelf-api/internal/domains/book/model"
	"bookshelf-api/internal/domains/book/repository"
	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/query"
	"bookshelf-api/internal/shared/utils"
)

// MaxExportRows giới hạn số dòng của một file export
const MaxExportRows = 5000

type ServiceInterface interface {
	Create(ctx context.Context, actor permission.Identity, req model.CreateBookRequest) (*model.Book, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Book, error)
	List(ctx context.Context, params url.Values, page query.Page) ([]model.Book, int, error)
	Update(ctx context.Context, actor permission.Identity, id uuid.UUID, req model.UpdateBookRequest, partial bool) (*model.Book, error)
	Delete(ctx context.Context, actor permission.Identity, id uuid.UUID) error
	// Export build file xlsx từ cùng filter/search/ordering của List
	Export(ctx context.Context, actor permission.Identity, params url.Values) (*excelize.File, error)
}

var writeRule = permission.LoggedIn

type BookService struct {
	repo repository.RepositoryInterface
	now  func() time.Time
}

func NewBookService(repo repository.RepositoryInterface) ServiceInterface {
	return NewBookServiceWithClock(repo, time.Now)
}

// NewBookServiceWithClock cho phép inject clock (publication_year được so với năm hiện tại)
func NewBookServiceWithClock(repo repository.RepositoryInterface, now func() time.Time) *BookService {
	return &BookService{repo: repo, now: now}
}

func (s *BookService) currentYear() int {
	return s.now().Year()
}

func (s *BookService) Create(ctx context.Context, actor permission.Identity, req model.CreateBookRequest) (*model.Book, error) {
	if err := permission.Authorize(actor, writeRule, uuid.Nil); err != nil {
		return nil, err
	}

	req.Title = utils.SanitizeText(req.Title, model.MaxTitleLength)
	if err := req.Validate(s.currentYear()); err != nil {
		return nil, err
	}

	authorID := uuid.MustParse(req.AuthorID)
	if err := s.checkAuthor(ctx, authorID); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByTitle(ctx, req.Title, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.ErrDuplicateTitle
	}

	return s.repo.Create(ctx, &model.Book{
		Title:           req.Title,
		PublicationYear: *req.PublicationYear,
		AuthorID:        authorID,
	})
}

func (s *BookService) Get(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *BookService) List(ctx context.Context, params url.Values, page query.Page) ([]model.Book, int, error) {
	return s.repo.List(ctx, params, page)
}

func (s *BookService) Update(
	ctx context.Context,
	actor permission.Identity,
	id uuid.UUID,
	req model.UpdateBookRequest,
	partial bool,
) (*model.Book, error) {
	if err := permission.Authorize(actor, writeRule, uuid.Nil); err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := utils.SanitizeText(*req.Title, model.MaxTitleLength)
		req.Title = &title
	}
	if err := req.Validate(s.currentYear(), partial); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil && *req.Title != current.Title {
		exists, err := s.repo.ExistsByTitle(ctx, *req.Title, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, model.ErrDuplicateTitle
		}
		current.Title = *req.Title
	}
	if req.PublicationYear != nil {
		current.PublicationYear = *req.PublicationYear
	}
	if req.AuthorID != nil {
		authorID := uuid.MustParse(*req.AuthorID)
		if authorID != current.AuthorID {
			if err := s.checkAuthor(ctx, authorID); err != nil {
				return nil, err
			}
			current.AuthorID = authorID
		}
	}

	return s.repo.Update(ctx, current)
}

func (s *BookService) Delete(ctx context.Context, actor permission.Identity, id uuid.UUID) error {
	if err := permission.Authorize(actor, writeRule, uuid.Nil); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// checkAuthor trả về field-keyed validation error khi author không tồn tại
func (s *BookService) checkAuthor(ctx context.Context, authorID uuid.UUID) error {
	ok, err := s.repo.AuthorExists(ctx, authorID)
	if err != nil {
		return err
	}
	if !ok {
		return model.AuthorFieldError()
	}
	return nil
}

// ════════════════════════════════════════════════════════════════
// EXPORT
// ════════════════════════════════════════════════════════════════

func (s *BookService) Export(ctx context.Context, actor permission.Identity, params url.Values) (*excelize.File, error) {
	if err := permission.Authorize(actor, permission.LoggedIn, uuid.Nil); err != nil {
		return nil, err
	}

	books, _, err := s.repo.List(ctx, params, query.Page{Page: 1, Limit: MaxExportRows})
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	f, err := buildBooksExcelFile(books)
	if err != nil {
		return nil, fmt.Errorf("failed to build excel file: %w", err)
	}
	return f, nil
}

const exportSheet = "Books"

var exportHeaders = []string{"ID", "Title", "Publication Year", "Author", "Created At"}

func buildBooksExcelFile(books []model.Book) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	for colIdx, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return nil, err
		}
	}

	if headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
		_ = f.SetCellStyle(exportSheet, "A1", lastCol+"1", headerStyle)
	}

	// Data rows bắt đầu từ row 2
	for i, b := range books {
		values := []interface{}{
			b.ID.String(),
			b.Title,
			b.PublicationYear,
			b.AuthorName,
			b.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	return f, nil
}
