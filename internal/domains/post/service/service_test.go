package service

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf-api/internal/domains/post/model"
	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/query"
)

type stubRepo struct {
	posts    map[uuid.UUID]*model.Post
	comments map[uuid.UUID]*model.Comment
}

func newStubRepo() *stubRepo {
	return &stubRepo{posts: map[uuid.UUID]*model.Post{}, comments: map[uuid.UUID]*model.Comment{}}
}

func (r *stubRepo) Create(_ context.Context, p *model.Post) (*model.Post, error) {
	cp := *p
	cp.ID = uuid.New()
	r.posts[cp.ID] = &cp
	return &cp, nil
}

func (r *stubRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Post, error) {
	p, ok := r.posts[id]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubRepo) List(context.Context, url.Values, query.Page) ([]model.Post, int, error) {
	out := make([]model.Post, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *stubRepo) Update(_ context.Context, p *model.Post) (*model.Post, error) {
	cp := *p
	r.posts[p.ID] = &cp
	return &cp, nil
}

func (r *stubRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.posts[id]; !ok {
		return model.ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *stubRepo) CreateComment(_ context.Context, c *model.Comment) (*model.Comment, error) {
	cp := *c
	cp.ID = uuid.New()
	r.comments[cp.ID] = &cp
	return &cp, nil
}

func (r *stubRepo) GetComment(_ context.Context, postID, commentID uuid.UUID) (*model.Comment, error) {
	c, ok := r.comments[commentID]
	if !ok || c.PostID != postID {
		return nil, model.ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubRepo) ListComments(_ context.Context, postID uuid.UUID, _ query.Page) ([]model.Comment, int, error) {
	var out []model.Comment
	for _, c := range r.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (r *stubRepo) UpdateComment(_ context.Context, c *model.Comment) (*model.Comment, error) {
	cp := *c
	r.comments[c.ID] = &cp
	return &cp, nil
}

func (r *stubRepo) DeleteComment(_ context.Context, postID, commentID uuid.UUID) error {
	if _, err := r.GetComment(context.Background(), postID, commentID); err != nil {
		return err
	}
	delete(r.comments, commentID)
	return nil
}

var (
	alice    = permission.Identity{UserID: uuid.New(), Username: "alice", Role: permission.RoleMember}
	bob      = permission.Identity{UserID: uuid.New(), Username: "bob", Role: permission.RoleMember}
	lib      = permission.Identity{UserID: uuid.New(), Username: "lib", Role: permission.RoleLibrarian}
	admin    = permission.Identity{UserID: uuid.New(), Username: "root", Role: permission.RoleAdmin}
	fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
)

func strPtr(v string) *string { return &v }

func setup(t *testing.T) (*PostService, *stubRepo, *model.Post) {
	t.Helper()
	repo := newStubRepo()
	svc := NewPostServiceWithClock(repo, func() time.Time { return fixedNow })

	post, err := svc.CreatePost(context.Background(), alice, model.CreatePostRequest{
		Title:   "Reading list",
		Content: "Dune\nEarthsea",
	})
	require.NoError(t, err)
	return svc, repo, post
}

func TestCreatePost_AuthorIsActor(t *testing.T) {
	_, _, post := setup(t)

	assert.Equal(t, alice.UserID, post.AuthorID)
	assert.Equal(t, fixedNow, post.PublishedDate)
	assert.Equal(t, "Dune\nEarthsea", post.Content)
}

func TestCreatePost_ExplicitPublishedDate(t *testing.T) {
	svc, _, _ := setup(t)
	when := time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC)

	post, err := svc.CreatePost(context.Background(), bob, model.CreatePostRequest{
		Title: "Old", Content: "x", PublishedDate: &when,
	})

	require.NoError(t, err)
	assert.Equal(t, when, post.PublishedDate)
}

func TestCreatePost_Anonymous(t *testing.T) {
	svc, repo, _ := setup(t)

	_, err := svc.CreatePost(context.Background(), permission.Anonymous, model.CreatePostRequest{})

	assert.ErrorIs(t, err, permission.ErrUnauthenticated)
	assert.Len(t, repo.posts, 1)
}

func TestCreatePost_Validation(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.CreatePost(context.Background(), bob, model.CreatePostRequest{
		Title:   strings.Repeat("a", model.MaxTitleLength+50),
		Content: "   ",
	})

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "content")
	assert.NotContains(t, verrs, "title")
}

func TestUpdatePost_Permissions(t *testing.T) {
	cases := []struct {
		name  string
		actor permission.Identity
		want  error
	}{
		{"owner", alice, nil},
		{"admin", admin, nil},
		{"other member", bob, permission.ErrForbidden},
		{"librarian", lib, permission.ErrForbidden},
		{"anonymous", permission.Anonymous, permission.ErrUnauthenticated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, post := setup(t)

			_, err := svc.UpdatePost(context.Background(), tc.actor, post.ID,
				model.UpdatePostRequest{Title: strPtr("Updated")}, true)

			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestUpdatePost_ForbiddenBeforeValidation(t *testing.T) {
	svc, _, post := setup(t)

	_, err := svc.UpdatePost(context.Background(), bob, post.ID, model.UpdatePostRequest{}, false)

	assert.ErrorIs(t, err, permission.ErrForbidden)
}

func TestUpdatePost_AuthorNeverChanges(t *testing.T) {
	svc, repo, post := setup(t)

	updated, err := svc.UpdatePost(context.Background(), admin, post.ID, model.UpdatePostRequest{
		Title:   strPtr("By admin"),
		Content: strPtr("new body"),
	}, false)

	require.NoError(t, err)
	assert.Equal(t, alice.UserID, updated.AuthorID)
	assert.Equal(t, "By admin", repo.posts[post.ID].Title)
}

func TestUpdatePost_PutRequiresContent(t *testing.T) {
	svc, _, post := setup(t)

	_, err := svc.UpdatePost(context.Background(), alice, post.ID, model.UpdatePostRequest{Title: strPtr("x")}, false)

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "content")
}

func TestDeletePost(t *testing.T) {
	svc, repo, post := setup(t)

	assert.ErrorIs(t, svc.DeletePost(context.Background(), bob, post.ID), permission.ErrForbidden)
	require.NoError(t, svc.DeletePost(context.Background(), alice, post.ID))
	assert.Empty(t, repo.posts)
	assert.ErrorIs(t, svc.DeletePost(context.Background(), alice, post.ID), model.ErrPostNotFound)
}

func TestComments_Lifecycle(t *testing.T) {
	svc, _, post := setup(t)
	ctx := context.Background()

	c, err := svc.CreateComment(ctx, bob, post.ID, model.CommentRequest{Content: "  great list  "})
	require.NoError(t, err)
	assert.Equal(t, "great list", c.Content)
	assert.Equal(t, bob.UserID, c.AuthorID)

	_, err = svc.UpdateComment(ctx, alice, post.ID, c.ID, model.CommentRequest{Content: "edited"})
	assert.ErrorIs(t, err, permission.ErrForbidden)

	updated, err := svc.UpdateComment(ctx, bob, post.ID, c.ID, model.CommentRequest{Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	comments, total, err := svc.ListComments(ctx, post.ID, query.ParsePage(nil))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, comments, 1)

	require.NoError(t, svc.DeleteComment(ctx, admin, post.ID, c.ID))
}

func TestComments_ScopedToPost(t *testing.T) {
	svc, _, post := setup(t)
	ctx := context.Background()

	other, err := svc.CreatePost(ctx, bob, model.CreatePostRequest{Title: "Other", Content: "x"})
	require.NoError(t, err)
	c, err := svc.CreateComment(ctx, bob, post.ID, model.CommentRequest{Content: "hi"})
	require.NoError(t, err)

	err = svc.DeleteComment(ctx, bob, other.ID, c.ID)
	assert.ErrorIs(t, err, model.ErrCommentNotFound)
}

func TestCreateComment_UnknownPost(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.CreateComment(context.Background(), bob, uuid.New(), model.CommentRequest{Content: "hi"})

	assert.ErrorIs(t, err, model.ErrPostNotFound)
}
