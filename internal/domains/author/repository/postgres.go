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
	"github.com/jackc/pgx/v5/pgxpool"

	"bookshelf-api/internal/domains/author/model"
	"bookshelf-api/internal/observability"
	"bookshelf-api/internal/shared/query"
	"bookshelf-api/pkg/cache"
	"bookshelf-api/pkg/logger"
)

type RepositoryInterface interface {
	Create(ctx context.Context, a *model.Author) (*model.Author, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Author, error)
	// GetDetail trả về author kèm books, cache-aside qua Redis
	GetDetail(ctx context.Context, id uuid.UUID) (*model.AuthorDetail, error)
	List(ctx context.Context, params url.Values, page query.Page) ([]model.Author, int, error)
	Update(ctx context.Context, a *model.Author) (*model.Author, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ListSpec whitelist filter/search/ordering cho GET /authors
var ListSpec = query.Spec{
	Filters: []query.Filter{
		{Param: "name", Column: "a.name", Match: query.Contains},
	},
	SearchParam:   "search",
	SearchColumns: []string{"a.name"},
	OrderParam:    "ordering",
	Orderable: map[string]string{
		"name":       "a.name",
		"created_at": "a.created_at",
	},
	DefaultOrder: "name",
	TieBreaker:   "a.id",
}

const detailCacheTTL = 15 * time.Minute

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

func (r *postgresRepository) Create(ctx context.Context, a *model.Author) (*model.Author, error) {
	defer observability.TrackQuery("insert", "authors")()

	const q = `
        INSERT INTO authors (name)
        VALUES ($1)
        RETURNING id, name, created_at, updated_at
    `

	var created model.Author
	if err := r.pool.QueryRow(ctx, q, a.Name).Scan(
		&created.ID,
		&created.Name,
		&created.CreatedAt,
		&created.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to create author: %w", err)
	}
	return &created, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Author, error) {
	defer observability.TrackQuery("select", "authors")()

	const q = `SELECT id, name, created_at, updated_at FROM authors WHERE id = $1`

	var a model.Author
	err := r.pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAuthorNotFound
		}
		return nil, fmt.Errorf("failed to get author by id: %w", err)
	}
	return &a, nil
}

func (r *postgresRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.AuthorDetail, error) {
	cacheKey := model.DetailCacheKey(id)

	var cached model.AuthorDetail
	if found, err := r.cache.Get(ctx, cacheKey, &cached); err == nil && found {
		return &cached, nil
	}

	a, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	books, err := r.booksOf(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &model.AuthorDetail{Author: *a, Books: books}
	if err := r.cache.Set(ctx, cacheKey, detail, detailCacheTTL); err != nil {
		logger.Error("failed to cache author detail", err)
	}
	return detail, nil
}

func (r *postgresRepository) booksOf(ctx context.Context, authorID uuid.UUID) ([]model.AuthorBook, error) {
	defer observability.TrackQuery("select", "books")()

	const q = `
        SELECT id, title, publication_year
        FROM books
        WHERE author_id = $1
        ORDER BY title, id
    `

	rows, err := r.pool.Query(ctx, q, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list author books: %w", err)
	}
	defer rows.Close()

	books := []model.AuthorBook{}
	for rows.Next() {
		var b model.AuthorBook
		if err := rows.Scan(&b.ID, &b.Title, &b.PublicationYear); err != nil {
			return nil, fmt.Errorf("failed to scan author book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (r *postgresRepository) List(ctx context.Context, params url.Values, page query.Page) ([]model.Author, int, error) {
	defer observability.TrackQuery("list", "authors")()

	resolved := ListSpec.Resolve(params)
	base := r.dialect.From(goqu.T("authors").As("a"))

	countSQL, countArgs, err := resolved.ApplyFilters(base.Select(goqu.COUNT("*"))).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build author count query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count authors: %w", err)
	}

	ds := base.Select("a.id", "a.name", "a.created_at", "a.updated_at")
	listSQL, args, err := page.Apply(resolved.Apply(ds)).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build author list query: %w", err)
	}

	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list authors: %w", err)
	}
	defer rows.Close()

	authors := []model.Author{}
	for rows.Next() {
		var a model.Author
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan author: %w", err)
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate authors: %w", err)
	}
	return authors, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, a *model.Author) (*model.Author, error) {
	defer observability.TrackQuery("update", "authors")()

	const q = `
        UPDATE authors
        SET name = $2, updated_at = NOW()
        WHERE id = $1
        RETURNING id, name, created_at, updated_at
    `

	var updated model.Author
	err := r.pool.QueryRow(ctx, q, a.ID, a.Name).Scan(
		&updated.ID,
		&updated.Name,
		&updated.CreatedAt,
		&updated.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAuthorNotFound
		}
		return nil, fmt.Errorf("failed to update author: %w", err)
	}

	r.invalidate(ctx, a.ID)
	return &updated, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer observability.TrackQuery("delete", "authors")()

	tag, err := r.pool.Exec(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete author: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAuthorNotFound
	}

	r.invalidate(ctx, id)
	return nil
}

// invalidate xoá author detail và mọi book detail (book detail chứa author name,
// delete còn cascade xoá books)
func (r *postgresRepository) invalidate(ctx context.Context, id uuid.UUID) {
	if err := r.cache.Delete(ctx, model.DetailCacheKey(id)); err != nil {
		logger.Error("failed to invalidate author cache", err)
	}
	if err := r.cache.DeletePattern(ctx, "book:detail:*"); err != nil {
		logger.Error("failed to invalidate book cache", err)
	}
}
