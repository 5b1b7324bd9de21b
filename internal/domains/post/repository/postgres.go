package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookshelf-api/internal/domains/post/model"
	"bookshelf-api/internal/observability"
	"bookshelf-api/internal/shared/query"
)

type postgresRepository struct {
	pool    *pgxpool.Pool
	dialect goqu.DialectWrapper
}

func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{
		pool:    pool,
		dialect: goqu.Dialect(query.Dialect),
	}
}

// postColumns yêu cầu alias p (posts) và u (users)
const postColumns = `p.id, p.title, p.content, p.author_id, u.username, p.published_date, p.created_at, p.updated_at`

const commentColumns = `c.id, c.post_id, c.author_id, u.username, c.content, c.created_at, c.updated_at`

func scanPost(row pgx.Row) (*model.Post, error) {
	var p model.Post
	if err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Content,
		&p.AuthorID,
		&p.AuthorUsername,
		&p.PublishedDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanComment(row pgx.Row) (*model.Comment, error) {
	var c model.Comment
	if err := row.Scan(
		&c.ID,
		&c.PostID,
		&c.AuthorID,
		&c.AuthorUsername,
		&c.Content,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

// =====================================================
// POSTS
// =====================================================

func (r *postgresRepository) Create(ctx context.Context, p *model.Post) (*model.Post, error) {
	defer observability.TrackQuery("insert", "posts")()

	q := `
        WITH p AS (
            INSERT INTO posts (title, content, author_id, published_date)
            VALUES ($1, $2, $3, $4)
            RETURNING *
        )
        SELECT ` + postColumns + `
        FROM p JOIN users u ON u.id = p.author_id
    `

	created, err := scanPost(r.pool.QueryRow(ctx, q, p.Title, p.Content, p.AuthorID, p.PublishedDate))
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return created, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	defer observability.TrackQuery("select", "posts")()

	q := `SELECT ` + postColumns + ` FROM posts p JOIN users u ON u.id = p.author_id WHERE p.id = $1`

	p, err := scanPost(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return p, nil
}

func (r *postgresRepository) List(ctx context.Context, params url.Values, page query.Page) ([]model.Post, int, error) {
	defer observability.TrackQuery("list", "posts")()

	resolved := ListSpec.Resolve(params)
	base := r.dialect.
		From(goqu.T("posts").As("p")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("p.author_id"))))

	countSQL, countArgs, err := resolved.ApplyFilters(base.Select(goqu.COUNT("*"))).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build post count query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	ds := base.Select("p.id", "p.title", "p.content", "p.author_id", "u.username", "p.published_date", "p.created_at", "p.updated_at")
	listSQL, args, err := page.Apply(resolved.Apply(ds)).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build post list query: %w", err)
	}

	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return posts, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, p *model.Post) (*model.Post, error) {
	defer observability.TrackQuery("update", "posts")()

	q := `
        WITH p AS (
            UPDATE posts
            SET title = $2, content = $3, published_date = $4, updated_at = NOW()
            WHERE id = $1
            RETURNING *
        )
        SELECT ` + postColumns + `
        FROM p JOIN users u ON u.id = p.author_id
    `

	updated, err := scanPost(r.pool.QueryRow(ctx, q, p.ID, p.Title, p.Content, p.PublishedDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	return updated, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer observability.TrackQuery("delete", "posts")()

	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPostNotFound
	}
	return nil
}

// =====================================================
// COMMENTS
// =====================================================

func (r *postgresRepository) CreateComment(ctx context.Context, c *model.Comment) (*model.Comment, error) {
	defer observability.TrackQuery("insert", "comments")()

	q := `
        WITH c AS (
            INSERT INTO comments (post_id, author_id, content)
            VALUES ($1, $2, $3)
            RETURNING *
        )
        SELECT ` + commentColumns + `
        FROM c JOIN users u ON u.id = c.author_id
    `

	created, err := scanComment(r.pool.QueryRow(ctx, q, c.PostID, c.AuthorID, c.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return created, nil
}

func (r *postgresRepository) GetComment(ctx context.Context, postID, commentID uuid.UUID) (*model.Comment, error) {
	defer observability.TrackQuery("select", "comments")()

	q := `
        SELECT ` + commentColumns + `
        FROM comments c JOIN users u ON u.id = c.author_id
        WHERE c.post_id = $1 AND c.id = $2
    `

	c, err := scanComment(r.pool.QueryRow(ctx, q, postID, commentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return c, nil
}

// ListComments theo thứ tự thời gian (cũ → mới)
func (r *postgresRepository) ListComments(ctx context.Context, postID uuid.UUID, page query.Page) ([]model.Comment, int, error) {
	defer observability.TrackQuery("list", "comments")()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	q := `
        SELECT ` + commentColumns + `
        FROM comments c JOIN users u ON u.id = c.author_id
        WHERE c.post_id = $1
        ORDER BY c.created_at, c.id
        LIMIT $2 OFFSET $3
    `

	rows, err := r.pool.Query(ctx, q, postID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, total, nil
}

func (r *postgresRepository) UpdateComment(ctx context.Context, c *model.Comment) (*model.Comment, error) {
	defer observability.TrackQuery("update", "comments")()

	q := `
        WITH c AS (
            UPDATE comments
            SET content = $3, updated_at = NOW()
            WHERE post_id = $1 AND id = $2
            RETURNING *
        )
        SELECT ` + commentColumns + `
        FROM c JOIN users u ON u.id = c.author_id
    `

	updated, err := scanComment(r.pool.QueryRow(ctx, q, c.PostID, c.ID, c.Content))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return updated, nil
}

func (r *postgresRepository) DeleteComment(ctx context.Context, postID, commentID uuid.UUID) error {
	defer observability.TrackQuery("delete", "comments")()

	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE post_id = $1 AND id = $2`, postID, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCommentNotFound
	}
	return nil
}
