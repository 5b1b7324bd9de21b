package service

import (
	"context"
	"net/url"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf-api/internal/domains/book/model"
	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/query"
)

// stubRepo - in-memory repository với function hooks tối thiểu
type stubRepo struct {
	books        map[uuid.UUID]*model.Book
	authors      map[uuid.UUID]string
	listPage     query.Page
	existsCalled bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{books: map[uuid.UUID]*model.Book{}, authors: map[uuid.UUID]string{}}
}

func (r *stubRepo) Create(_ context.Context, b *model.Book) (*model.Book, error) {
	cp := *b
	cp.ID = uuid.New()
	cp.AuthorName = r.authors[b.AuthorID]
	r.books[cp.ID] = &cp
	return &cp, nil
}

func (r *stubRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Book, error) {
	b, ok := r.books[id]
	if !ok {
		return nil, model.ErrBookNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *stubRepo) List(_ context.Context, _ url.Values, page query.Page) ([]model.Book, int, error) {
	r.listPage = page
	out := make([]model.Book, 0, len(r.books))
	for _, b := range r.books {
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (r *stubRepo) Update(_ context.Context, b *model.Book) (*model.Book, error) {
	cp := *b
	r.books[b.ID] = &cp
	return &cp, nil
}

func (r *stubRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.books[id]; !ok {
		return model.ErrBookNotFound
	}
	delete(r.books, id)
	return nil
}

func (r *stubRepo) ExistsByTitle(_ context.Context, title string, excludeID uuid.UUID) (bool, error) {
	r.existsCalled = true
	for id, b := range r.books {
		if b.Title == title && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRepo) AuthorExists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.authors[id]
	return ok, nil
}

var (
	reader   = permission.Identity{UserID: uuid.New(), Username: "reader", Role: permission.RoleMember}
	fixedNow = func() time.Time { return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC) }
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func setup() (*BookService, *stubRepo, uuid.UUID) {
	repo := newStubRepo()
	authorID := uuid.New()
	repo.authors[authorID] = "Ursula K. Le Guin"
	return NewBookServiceWithClock(repo, fixedNow), repo, authorID
}

func TestCreate_PublicationYearBoundary(t *testing.T) {
	cases := []struct {
		year    int
		wantErr bool
	}{
		{2025, true},
		{2024, false},
		{1969, false},
		{-500, false},
	}

	for _, tc := range cases {
		svc, _, authorID := setup()

		_, err := svc.Create(context.Background(), reader, model.CreateBookRequest{
			Title:           "The Left Hand of Darkness",
			PublicationYear: intPtr(tc.year),
			AuthorID:        authorID.String(),
		})

		if tc.wantErr {
			var verrs validation.Errors
			require.ErrorAs(t, err, &verrs, "year %d", tc.year)
			require.Contains(t, verrs, "publication_year")
			assert.Equal(t, model.MsgFutureYear, verrs["publication_year"].Error())
		} else {
			assert.NoError(t, err, "year %d", tc.year)
		}
	}
}

func TestCreate_RequiresAuthentication(t *testing.T) {
	svc, repo, authorID := setup()

	_, err := svc.Create(context.Background(), permission.Anonymous, model.CreateBookRequest{
		Title: "x", PublicationYear: intPtr(2000), AuthorID: authorID.String(),
	})

	assert.ErrorIs(t, err, permission.ErrUnauthenticated)
	assert.Empty(t, repo.books)
}

func TestCreate_PermissionCheckedBeforeValidation(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.Create(context.Background(), permission.Anonymous, model.CreateBookRequest{})

	assert.ErrorIs(t, err, permission.ErrUnauthenticated)
}

func TestCreate_DuplicateTitle(t *testing.T) {
	svc, _, authorID := setup()
	req := model.CreateBookRequest{Title: "Dune", PublicationYear: intPtr(1965), AuthorID: authorID.String()}

	_, err := svc.Create(context.Background(), reader, req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), reader, req)
	assert.ErrorIs(t, err, model.ErrDuplicateTitle)
}

func TestCreate_UnknownAuthorIsFieldError(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.Create(context.Background(), reader, model.CreateBookRequest{
		Title: "Orphan", PublicationYear: intPtr(2000), AuthorID: uuid.NewString(),
	})

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "author_id")
}

func TestUpdate_PatchOnlyTouchesGivenFields(t *testing.T) {
	svc, _, authorID := setup()
	created, err := svc.Create(context.Background(), reader, model.CreateBookRequest{
		Title: "Earthsea", PublicationYear: intPtr(1968), AuthorID: authorID.String(),
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), reader, created.ID, model.UpdateBookRequest{
		PublicationYear: intPtr(1970),
	}, true)

	require.NoError(t, err)
	assert.Equal(t, "Earthsea", updated.Title)
	assert.Equal(t, 1970, updated.PublicationYear)
}

func TestUpdate_FutureYearRejected(t *testing.T) {
	svc, repo, authorID := setup()
	created, err := svc.Create(context.Background(), reader, model.CreateBookRequest{
		Title: "Earthsea", PublicationYear: intPtr(1968), AuthorID: authorID.String(),
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), reader, created.ID, model.UpdateBookRequest{
		PublicationYear: intPtr(2030),
	}, true)

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, 1968, repo.books[created.ID].PublicationYear)
}

func TestUpdate_PutRequiresAllFields(t *testing.T) {
	svc, _, authorID := setup()
	created, err := svc.Create(context.Background(), reader, model.CreateBookRequest{
		Title: "Earthsea", PublicationYear: intPtr(1968), AuthorID: authorID.String(),
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), reader, created.ID, model.UpdateBookRequest{Title: strPtr("New")}, false)

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "publication_year")
	assert.Contains(t, verrs, "author_id")
}

func TestUpdate_SameTitleSkipsUniquenessCheck(t *testing.T) {
	svc, repo, authorID := setup()
	created, err := svc.Create(context.Background(), reader, model.CreateBookRequest{
		Title: "Earthsea", PublicationYear: intPtr(1968), AuthorID: authorID.String(),
	})
	require.NoError(t, err)
	repo.existsCalled = false

	_, err = svc.Update(context.Background(), reader, created.ID, model.UpdateBookRequest{Title: strPtr("Earthsea")}, true)

	require.NoError(t, err)
	assert.False(t, repo.existsCalled)
}

func TestDelete_NotFound(t *testing.T) {
	svc, _, _ := setup()

	err := svc.Delete(context.Background(), reader, uuid.New())

	assert.ErrorIs(t, err, model.ErrBookNotFound)
}

func TestExport_BuildsSheet(t *testing.T) {
	svc, repo, authorID := setup()
	_, err := svc.Create(context.Background(), reader, model.CreateBookRequest{
		Title: "Earthsea", PublicationYear: intPtr(1968), AuthorID: authorID.String(),
	})
	require.NoError(t, err)

	f, err := svc.Export(context.Background(), reader, url.Values{})
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, query.Page{Page: 1, Limit: MaxExportRows}, repo.listPage)

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, "Earthsea", rows[1][1])
	assert.Equal(t, "1968", rows[1][2])
	assert.Equal(t, "Ursula K. Le Guin", rows[1][3])
}

func TestExport_RequiresAuthentication(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.Export(context.Background(), permission.Anonymous, url.Values{})

	assert.ErrorIs(t, err, permission.ErrUnauthenticated)
}
