package repository

import (
	"context"
	"net/url"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf-api/internal/domains/user/model"
	"bookshelf-api/internal/infrastructure/cache"
	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/query"
	"bookshelf-api/internal/shared/testutil"
)

func setup(t *testing.T) (RepositoryInterface, *cache.RedisCache) {
	t.Helper()
	pool := testutil.Postgres(t)
	mr := miniredis.RunT(t)
	c := cache.NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return NewPostgresRepository(pool, c), c
}

func create(t *testing.T, repo RepositoryInterface, username, email string) *model.User {
	t.Helper()
	u, err := repo.Create(context.Background(), &model.User{
		Username: username, Email: email, PasswordHash: "hash", Role: permission.RoleMember,
	})
	require.NoError(t, err)
	return u
}

func TestCreate_LowercasesEmailAndMapsConflicts(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()

	u := create(t, repo, "alice", "Alice@Example.com")
	assert.Equal(t, "alice@example.com", u.Email)

	_, err := repo.Create(ctx, &model.User{Username: "alice2", Email: "ALICE@example.com", PasswordHash: "h", Role: permission.RoleMember})
	assert.ErrorIs(t, err, model.ErrEmailAlreadyExists)

	_, err = repo.Create(ctx, &model.User{Username: "alice", Email: "new@example.com", PasswordHash: "h", Role: permission.RoleMember})
	assert.ErrorIs(t, err, model.ErrUsernameTaken)
}

func TestExistsByEmail_ExcludesSelf(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()
	u := create(t, repo, "alice", "alice@example.com")

	exists, err := repo.ExistsByEmail(ctx, "ALICE@EXAMPLE.COM", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "alice@example.com", u.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGetByEmail_CaseInsensitive(t *testing.T) {
	repo, _ := setup(t)
	u := create(t, repo, "alice", "alice@example.com")

	got, err := repo.GetByEmail(context.Background(), "ALICE@example.COM")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)
}

func TestUpdateRole_InvalidatesCache(t *testing.T) {
	repo, c := setup(t)
	ctx := context.Background()
	u := create(t, repo, "alice", "alice@example.com")

	_, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	cached, err := c.Exists(ctx, cacheKey(u.ID))
	require.NoError(t, err)
	require.True(t, cached)

	_, err = repo.UpdateRole(ctx, u.ID, permission.RoleLibrarian)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, permission.RoleLibrarian, got.Role)

	_, err = repo.UpdateRole(ctx, uuid.New(), permission.RoleAdmin)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestList_FilterByRole(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()
	create(t, repo, "alice", "alice@example.com")
	bob := create(t, repo, "bob", "bob@example.com")
	_, err := repo.UpdateRole(ctx, bob.ID, permission.RoleLibrarian)
	require.NoError(t, err)

	params := url.Values{"role": {"librarian"}}
	users, total, err := repo.List(ctx, params, query.ParsePage(params))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)
}
