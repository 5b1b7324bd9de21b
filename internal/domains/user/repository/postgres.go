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

	"bookshelf-api/internal/domains/user/model"
	"bookshelf-api/internal/observability"
	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/query"
	"bookshelf-api/pkg/cache"
	"bookshelf-api/pkg/logger"
)

const (
	pgUniqueViolation = "23505"

	// Constraint names từ migration 000001
	emailConstraint    = "idx_users_email_lower"
	usernameConstraint = "users_username_key"

	userCacheTTL = 10 * time.Minute
)

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

const userColumns = `id, username, email, first_name, last_name, password_hash, role, date_of_birth, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&role,
		&u.DateOfBirth,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Role = permission.Role(role)
	return &u, nil
}

func cacheKey(id uuid.UUID) string {
	return "user:" + id.String()
}

// mapWriteError chuyển unique violations sang domain errors theo constraint name
func mapWriteError(err error, action string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case emailConstraint:
			return model.ErrEmailAlreadyExists
		case usernameConstraint:
			return model.ErrUsernameTaken
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrUserNotFound
	}
	return fmt.Errorf("failed to %s user: %w", action, err)
}

// ========================================
// CREATE / READ
// ========================================

func (r *postgresRepository) Create(ctx context.Context, u *model.User) (*model.User, error) {
	defer observability.TrackQuery("insert", "users")()

	q := `
        INSERT INTO users (username, email, first_name, last_name, password_hash, role, date_of_birth)
        VALUES ($1, LOWER($2), $3, $4, $5, $6, $7)
        RETURNING ` + userColumns

	created, err := scanUser(r.pool.QueryRow(ctx, q,
		u.Username,
		u.Email,
		u.FirstName,
		u.LastName,
		u.PasswordHash,
		string(u.Role),
		u.DateOfBirth,
	))
	if err != nil {
		return nil, mapWriteError(err, "create")
	}
	return created, nil
}

// GetByID - Cache-Aside: cache hit trả về ngay, miss thì query DB và set cache
func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	key := cacheKey(id)

	var cached model.User
	if found, err := r.cache.Get(ctx, key, &cached); err == nil && found {
		return &cached, nil
	}

	u, err := r.getOne(ctx, "id", id)
	if err != nil {
		return nil, err
	}

	// PasswordHash có json:"-" nên không bao giờ nằm trong cache
	if err := r.cache.Set(ctx, key, u, userCacheTTL); err != nil {
		logger.Warn("failed to cache user", map[string]interface{}{"user_id": id.String(), "error": err.Error()})
	}
	return u, nil
}

func (r *postgresRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, "username", username)
}

func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "LOWER(email)", goqu.L("LOWER(?)", email))
}

func (r *postgresRepository) getOne(ctx context.Context, column string, value interface{}) (*model.User, error) {
	defer observability.TrackQuery("select", "users")()

	sqlStr, args, err := r.dialect.
		From("users").
		Select(goqu.L(userColumns)).
		Where(goqu.L(column+" = ?", value)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build user query: %w", err)
	}

	u, err := scanUser(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *postgresRepository) List(ctx context.Context, params url.Values, page query.Page) ([]model.User, int, error) {
	defer observability.TrackQuery("list", "users")()

	resolved := ListSpec.Resolve(params)
	base := r.dialect.From("users")

	countSQL, countArgs, err := resolved.ApplyFilters(base.Select(goqu.COUNT("*"))).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build user count query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	listSQL, args, err := page.Apply(resolved.Apply(base.Select(goqu.L(userColumns)))).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build user list query: %w", err)
	}

	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, total, nil
}

// ========================================
// EXISTENCE CHECKS
// ========================================

func (r *postgresRepository) ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	defer observability.TrackQuery("exists", "users")()

	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND id <> $2)`,
		email, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	defer observability.TrackQuery("exists", "users")()

	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// ========================================
// UPDATES (invalidate cache sau khi ghi)
// ========================================

func (r *postgresRepository) UpdateProfile(ctx context.Context, u *model.User) (*model.User, error) {
	defer observability.TrackQuery("update", "users")()

	q := `
        UPDATE users
        SET email = LOWER($2), first_name = $3, last_name = $4, date_of_birth = $5, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + userColumns

	updated, err := scanUser(r.pool.QueryRow(ctx, q, u.ID, u.Email, u.FirstName, u.LastName, u.DateOfBirth))
	if err != nil {
		return nil, mapWriteError(err, "update")
	}

	r.invalidate(ctx, u.ID)
	return updated, nil
}

func (r *postgresRepository) UpdateRole(ctx context.Context, id uuid.UUID, role permission.Role) (*model.User, error) {
	defer observability.TrackQuery("update", "users")()

	q := `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns

	updated, err := scanUser(r.pool.QueryRow(ctx, q, id, string(role)))
	if err != nil {
		return nil, mapWriteError(err, "update role of")
	}

	r.invalidate(ctx, id)
	return updated, nil
}

func (r *postgresRepository) invalidate(ctx context.Context, id uuid.UUID) {
	if err := r.cache.Delete(ctx, cacheKey(id)); err != nil {
		logger.Warn("failed to invalidate user cache", map[string]interface{}{"user_id": id.String(), "error": err.Error()})
	}
}
