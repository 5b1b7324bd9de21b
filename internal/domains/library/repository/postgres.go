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

	"bookshelf-api/internal/domains/library/model"
	"bookshelf-api/internal/observability"
	"bookshelf-api/internal/shared/query"
	"bookshelf-api/pkg/database"
)

type postgresRepository struct {
	pool    *pgxpool.Pool
	dialect goqu.DialectWrapper
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{
		pool:    pool,
		dialect: goqu.Dialect(query.Dialect),
	}
}

// libraryColumns yêu cầu alias l (libraries) và lib (librarians, LEFT JOIN)
const libraryColumns = `
    l.id, l.name, l.created_at,
    (SELECT COUNT(*) FROM library_books lb WHERE lb.library_id = l.id) AS book_count,
    lib.id, lib.name, lib.created_at`

func scanLibrary(row pgx.Row) (*model.Library, error) {
	var (
		l          model.Library
		libID      *uuid.UUID
		libName    *string
		libCreated *time.Time
	)
	if err := row.Scan(&l.ID, &l.Name, &l.CreatedAt, &l.BookCount, &libID, &libName, &libCreated); err != nil {
		return nil, err
	}
	if libID != nil {
		l.Librarian = &model.Librarian{ID: *libID, Name: *libName, LibraryID: l.ID}
		if libCreated != nil {
			l.Librarian.CreatedAt = *libCreated
		}
	}
	return &l, nil
}

func (r *postgresRepository) Create(ctx context.Context, name string) (*model.Library, error) {
	defer observability.TrackQuery("insert", "libraries")()

	var l model.Library
	err := r.pool.QueryRow(ctx,
		`INSERT INTO libraries (name) VALUES ($1) RETURNING id, name, created_at`, name,
	).Scan(&l.ID, &l.Name, &l.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create library: %w", err)
	}
	return &l, nil
}

func (r *postgresRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.LibraryDetail, error) {
	defer observability.TrackQuery("select", "libraries")()

	q := `SELECT ` + libraryColumns + `
        FROM libraries l LEFT JOIN librarians lib ON lib.library_id = l.id
        WHERE l.id = $1`

	l, err := scanLibrary(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrLibraryNotFound
		}
		return nil, fmt.Errorf("failed to get library: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
        SELECT b.id, b.title, b.publication_year, a.name, lb.added_at
        FROM library_books lb
        JOIN books b ON b.id = lb.book_id
        JOIN authors a ON a.id = b.author_id
        WHERE lb.library_id = $1
        ORDER BY b.title, b.id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list library books: %w", err)
	}
	defer rows.Close()

	detail := &model.LibraryDetail{Library: *l, Books: []model.LibraryBook{}}
	for rows.Next() {
		var b model.LibraryBook
		if err := rows.Scan(&b.ID, &b.Title, &b.PublicationYear, &b.AuthorName, &b.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan library book: %w", err)
		}
		detail.Books = append(detail.Books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate library books: %w", err)
	}
	return detail, nil
}

func (r *postgresRepository) List(ctx context.Context, params url.Values, page query.Page) ([]model.Library, int, error) {
	defer observability.TrackQuery("list", "libraries")()

	resolved := ListSpec.Resolve(params)
	base := r.dialect.
		From(goqu.T("libraries").As("l")).
		LeftJoin(goqu.T("librarians").As("lib"), goqu.On(goqu.I("lib.library_id").Eq(goqu.I("l.id"))))

	countSQL, countArgs, err := resolved.ApplyFilters(base.Select(goqu.COUNT("*"))).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build library count query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count libraries: %w", err)
	}

	listSQL, args, err := page.Apply(resolved.Apply(base.Select(goqu.L(libraryColumns)))).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build library list query: %w", err)
	}

	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list libraries: %w", err)
	}
	defer rows.Close()

	libraries := []model.Library{}
	for rows.Next() {
		l, err := scanLibrary(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan library: %w", err)
		}
		libraries = append(libraries, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate libraries: %w", err)
	}
	return libraries, total, nil
}

// Delete - hard delete, library_books và librarian bị xoá theo ON DELETE CASCADE
func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer observability.TrackQuery("delete", "libraries")()

	tag, err := r.pool.Exec(ctx, `DELETE FROM libraries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete library: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrLibraryNotFound
	}
	return nil
}

func (r *postgresRepository) UpsertLibrarian(ctx context.Context, libraryID uuid.UUID, name string) (*model.Librarian, error) {
	defer observability.TrackQuery("upsert", "librarians")()

	return database.WithTransactionResult(ctx, r.pool, func(tx pgx.Tx) (*model.Librarian, error) {
		if err := lockLibrary(ctx, tx, libraryID); err != nil {
			return nil, err
		}

		lib := model.Librarian{LibraryID: libraryID}
		err := tx.QueryRow(ctx, `
            INSERT INTO librarians (name, library_id) VALUES ($1, $2)
            ON CONFLICT (library_id) DO UPDATE SET name = EXCLUDED.name
            RETURNING id, name, created_at`,
			name, libraryID,
		).Scan(&lib.ID, &lib.Name, &lib.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert librarian: %w", err)
		}
		return &lib, nil
	})
}

func (r *postgresRepository) AddBooks(ctx context.Context, libraryID uuid.UUID, bookIDs []uuid.UUID) error {
	defer observability.TrackQuery("insert", "library_books")()

	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockLibrary(ctx, tx, libraryID); err != nil {
			return err
		}

		var found int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM books WHERE id = ANY($1)`, bookIDs).Scan(&found); err != nil {
			return fmt.Errorf("failed to check books: %w", err)
		}
		if found != len(bookIDs) {
			return model.ErrBookNotFound
		}

		_, err := tx.Exec(ctx, `
            INSERT INTO library_books (library_id, book_id)
            SELECT $1, unnest($2::uuid[])
            ON CONFLICT (library_id, book_id) DO NOTHING`,
			libraryID, bookIDs,
		)
		if err != nil {
			return fmt.Errorf("failed to add library books: %w", err)
		}
		return nil
	})
}

func (r *postgresRepository) RemoveBook(ctx context.Context, libraryID, bookID uuid.UUID) error {
	defer observability.TrackQuery("delete", "library_books")()

	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockLibrary(ctx, tx, libraryID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM library_books WHERE library_id = $1 AND book_id = $2`, libraryID, bookID)
		if err != nil {
			return fmt.Errorf("failed to remove library book: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrBookNotInLibrary
		}
		return nil
	})
}

// lockLibrary SELECT ... FOR UPDATE, phân biệt library không tồn tại với book không thuộc library
func lockLibrary(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var locked uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM libraries WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrLibraryNotFound
		}
		return fmt.Errorf("failed to lock library: %w", err)
	}
	return nil
}
