package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	authorModel "bookshelf-api/internal/domains/author/model"
	"bookshelf-api/internal/domains/book/model"
	"bookshelf-api/internal/observability"
	"bookshelf-api/internal/shared/query"
	"bookshelf-api/pkg/cache"
	"bookshelf-api/pkg/logger"
)

type RepositoryInterface interface {
	Create(ctx context.Context, b *model.Book) (*model.Book, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	List(ctx context.Context, params url.Values, page query.Page) ([]model.Book, int, error)
	Update(ctx context.Context, b *model.Book) (*model.Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ExistsByTitle bỏ qua book excludeID (uuid.Nil khi create)
	ExistsByTitle(ctx context.Context, title string, excludeID uuid.UUID) (bool, error)
	AuthorExists(ctx context.Context, authorID uuid.UUID) (bool, error)
}

// ListSpec whitelist filter/search/ordering cho GET /books
var ListSpec = query.Spec{
	Filters: []query.Filter{
		{Param: "title", Column: "b.title", Match: query.Contains},
		{Param: "author", Column: "a.name", Match: query.Contains},
		{Param: "publication_year", Column: "b.publication_year", Match: query.Int},
	},
	SearchParam:   "search",
	SearchColumns: []string{"b.title", "a.name"},
	OrderParam:    "ordering",
	Orderable: map[string]string{
		"title":            "b.title",
		"publication_year": "b.publication_year",
		"author":           "a.name",
	},
	DefaultOrder: "title",
	TieBreaker:   "b.id",
}

const (
	detailCacheTTL      = 15 * time.Minute
	pgUniqueViolation   = "23505"
	pgForeignKeyViolate = "23503"
)

// bookColumns yêu cầu alias b (books) và a (authors), dùng chung cho select và RETURNING CTE
const bookColumns = `b.id, b.title, b.publication_year, b.author_id, a.name, b.created_at, b.updated_at`

type postgresRepository struct {
	pool    *pgxpool.Pool
	cache   cache.Cache
	dialect goqu.DialectWrapper
}

func NewPostgresRepository(pool *pgxpool.Pool, cache cache.Cache) RepositoryInterface {
	return &postgresRepository{
		pool:    pool,
		cache:   cache,
		dialect: goqu.Dialect(query.Dialect),
	}
}

func scanBook(row pgx.Row) (*model.Book, error) {
	var b model.Book
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.PublicationYear,
		&b.AuthorID,
		&b.AuthorName,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// mapWriteError chuyển constraint violations của books sang domain errors
func mapWriteError(err error, action string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return model.ErrDuplicateTitle
		case pgForeignKeyViolate:
			// author bị xóa giữa lúc check và lúc ghi
			return model.AuthorFieldError()
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrBookNotFound
	}
	return fmt.Errorf("failed to %s book: %w", action, err)
}

func (r *postgresRepository) Create(ctx context.Context, b *model.Book) (*model.Book, error) {
	defer observability.TrackQuery("insert", "books")()

	q := `
        WITH b AS (
            INSERT INTO books (title, publication_year, author_id)
            VALUES ($1, $2, $3)
            RETURNING *
        )
        SELECT ` + bookColumns + `
        FROM b JOIN authors a ON a.id = b.author_id
    `

	created, err := scanBook(r.pool.QueryRow(ctx, q, b.Title, b.PublicationYear, b.AuthorID))
	if err != nil {
		return nil, mapWriteError(err, "create")
	}

	r.invalidateAuthor(ctx, created.AuthorID)
	return created, nil
}

// GetByID cache-aside: Redis trước, miss thì query DB rồi set lại cache
func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	cacheKey := model.DetailCacheKey(id)

	var cached model.Book
	if found, err := r.cache.Get(ctx, cacheKey, &cached); err == nil && found {
		return &cached, nil
	}

	defer observability.TrackQuery("select", "books")()

	q := `SELECT ` + bookColumns + ` FROM books b JOIN authors a ON a.id = b.author_id WHERE b.id = $1`

	b, err := scanBook(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book by id: %w", err)
	}

	if err := r.cache.Set(ctx, cacheKey, b, detailCacheTTL); err != nil {
		logger.Error("failed to cache book detail", err)
	}
	return b, nil
}

func (r *postgresRepository) List(ctx context.Context, params url.Values, page query.Page) ([]model.Book, int, error) {
	defer observability.TrackQuery("list", "books")()

	resolved := ListSpec.Resolve(params)
	base := r.dialect.
		From(goqu.T("books").As("b")).
		Join(goqu.T("authors").As("a"), goqu.On(goqu.I("a.id").Eq(goqu.I("b.author_id"))))

	countSQL, countArgs, err := resolved.ApplyFilters(base.Select(goqu.COUNT("*"))).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build book count query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	ds := base.Select("b.id", "b.title", "b.publication_year", "b.author_id", "a.name", "b.created_at", "b.updated_at")
	listSQL, args, err := page.Apply(resolved.Apply(ds)).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build book list query: %w", err)
	}

	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books := []model.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate books: %w", err)
	}
	return books, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, b *model.Book) (*model.Book, error) {
	defer observability.TrackQuery("update", "books")()

	// old CTE giữ author_id cũ để invalidate cả author cũ lẫn mới
	q := `
        WITH old AS (
            SELECT author_id FROM books WHERE id = $1
        ), b AS (
            UPDATE books
            SET title = $2, publication_year = $3, author_id = $4, updated_at = NOW()
            WHERE id = $1
            RETURNING *
        )
        SELECT ` + bookColumns + `, old.author_id
        FROM b JOIN authors a ON a.id = b.author_id, old
    `

	var (
		updated     model.Book
		oldAuthorID uuid.UUID
	)
	err := r.pool.QueryRow(ctx, q, b.ID, b.Title, b.PublicationYear, b.AuthorID).Scan(
		&updated.ID,
		&updated.Title,
		&updated.PublicationYear,
		&updated.AuthorID,
		&updated.AuthorName,
		&updated.CreatedAt,
		&updated.UpdatedAt,
		&oldAuthorID,
	)
	if err != nil {
		return nil, mapWriteError(err, "update")
	}

	r.invalidateBook(ctx, updated.ID)
	r.invalidateAuthor(ctx, updated.AuthorID)
	if oldAuthorID != updated.AuthorID {
		r.invalidateAuthor(ctx, oldAuthorID)
	}
	return &updated, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer observability.TrackQuery("delete", "books")()

	var authorID uuid.UUID
	err := r.pool.QueryRow(ctx, `DELETE FROM books WHERE id = $1 RETURNING author_id`, id).Scan(&authorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrBookNotFound
		}
		return fmt.Errorf("failed to delete book: %w", err)
	}

	r.invalidateBook(ctx, id)
	r.invalidateAuthor(ctx, authorID)
	return nil
}

func (r *postgresRepository) ExistsByTitle(ctx context.Context, title string, excludeID uuid.UUID) (bool, error) {
	defer observability.TrackQuery("exists", "books")()

	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM books WHERE title = $1 AND id <> $2)`,
		title, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check book title: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) AuthorExists(ctx context.Context, authorID uuid.UUID) (bool, error) {
	defer observability.TrackQuery("exists", "authors")()

	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM authors WHERE id = $1)`, authorID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check author: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) invalidateBook(ctx context.Context, id uuid.UUID) {
	if err := r.cache.Delete(ctx, model.DetailCacheKey(id)); err != nil {
		logger.Error("failed to invalidate book cache", err)
	}
}

// author detail nest books nên mọi book write đều invalidate author tương ứng
func (r *postgresRepository) invalidateAuthor(ctx context.Context, authorID uuid.UUID) {
	if err := r.cache.Delete(ctx, authorModel.DetailCacheKey(authorID)); err != nil {
		logger.Error("failed to invalidate author cache", err)
	}
}
