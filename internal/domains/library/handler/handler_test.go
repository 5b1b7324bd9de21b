package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf-api/internal/domains/library/model"
	"bookshelf-api/internal/domains/library/service"
	"bookshelf-api/internal/shared/middleware"
	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/query"
)

// memRepo - repository in-memory để test handler + service thật
type memRepo struct {
	libraries map[uuid.UUID]*model.LibraryDetail
	books     map[uuid.UUID]bool
}

func (r *memRepo) Create(_ context.Context, name string) (*model.Library, error) {
	l := model.Library{ID: uuid.New(), Name: name}
	r.libraries[l.ID] = &model.LibraryDetail{Library: l, Books: []model.LibraryBook{}}
	return &l, nil
}

func (r *memRepo) GetDetail(_ context.Context, id uuid.UUID) (*model.LibraryDetail, error) {
	d, ok := r.libraries[id]
	if !ok {
		return nil, model.ErrLibraryNotFound
	}
	return d, nil
}

func (r *memRepo) List(context.Context, url.Values, query.Page) ([]model.Library, int, error) {
	out := []model.Library{}
	for _, d := range r.libraries {
		out = append(out, d.Library)
	}
	return out, len(out), nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.libraries[id]; !ok {
		return model.ErrLibraryNotFound
	}
	delete(r.libraries, id)
	return nil
}

func (r *memRepo) UpsertLibrarian(_ context.Context, id uuid.UUID, name string) (*model.Librarian, error) {
	d, ok := r.libraries[id]
	if !ok {
		return nil, model.ErrLibraryNotFound
	}
	d.Librarian = &model.Librarian{ID: uuid.New(), Name: name, LibraryID: id}
	return d.Librarian, nil
}

func (r *memRepo) AddBooks(_ context.Context, id uuid.UUID, bookIDs []uuid.UUID) error {
	d, ok := r.libraries[id]
	if !ok {
		return model.ErrLibraryNotFound
	}
	for _, b := range bookIDs {
		if !r.books[b] {
			return model.ErrBookNotFound
		}
	}
	for _, b := range bookIDs {
		d.Books = append(d.Books, model.LibraryBook{ID: b})
	}
	return nil
}

func (r *memRepo) RemoveBook(_ context.Context, id, bookID uuid.UUID) error {
	d, ok := r.libraries[id]
	if !ok {
		return model.ErrLibraryNotFound
	}
	for i, b := range d.Books {
		if b.ID == bookID {
			d.Books = append(d.Books[:i], d.Books[i+1:]...)
			return nil
		}
	}
	return model.ErrBookNotInLibrary
}

var (
	member    = permission.Identity{UserID: uuid.New(), Username: "alice", Role: permission.RoleMember}
	librarian = permission.Identity{UserID: uuid.New(), Username: "lib", Role: permission.RoleLibrarian}
	admin     = permission.Identity{UserID: uuid.New(), Username: "root", Role: permission.RoleAdmin}
)

func setup() (*memRepo, func(permission.Identity) *gin.Engine) {
	gin.SetMode(gin.TestMode)
	repo := &memRepo{libraries: map[uuid.UUID]*model.LibraryDetail{}, books: map[uuid.UUID]bool{}}
	h := NewHandler(service.NewService(repo))

	return repo, func(actor permission.Identity) *gin.Engine {
		r := gin.New()
		r.Use(middleware.SetIdentity(actor))
		r.GET("/libraries", h.ListLibraries)
		r.POST("/libraries", h.CreateLibrary)
		r.GET("/libraries/:id", h.GetLibrary)
		r.DELETE("/libraries/:id", h.DeleteLibrary)
		r.PUT("/libraries/:id/librarian", h.AssignLibrarian)
		r.POST("/libraries/:id/books", h.AddBooks)
		r.DELETE("/libraries/:id/books/:bookID", h.RemoveBook)
		return r
	}
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLibraryLifecycle(t *testing.T) {
	repo, router := setup()

	assert.Equal(t, http.StatusForbidden, serve(router(librarian), http.MethodPost, "/libraries", `{"name":"Central"}`).Code)

	w := serve(router(admin), http.MethodPost, "/libraries", `{"name":"Central"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.libraries, 1)

	var id uuid.UUID
	for k := range repo.libraries {
		id = k
	}
	base := "/libraries/" + id.String()

	w = serve(router(admin), http.MethodPut, base+"/librarian", `{"name":"Ann"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ann", repo.libraries[id].Librarian.Name)

	bookID := uuid.New()
	repo.books[bookID] = true
	body := `{"book_ids":["` + bookID.String() + `"]}`

	assert.Equal(t, http.StatusForbidden, serve(router(member), http.MethodPost, base+"/books", body).Code)
	assert.Equal(t, http.StatusNoContent, serve(router(librarian), http.MethodPost, base+"/books", body).Code)

	w = serve(router(member), http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), bookID.String())

	assert.Equal(t, http.StatusNoContent, serve(router(librarian), http.MethodDelete, base+"/books/"+bookID.String(), "").Code)
	w = serve(router(librarian), http.MethodDelete, base+"/books/"+bookID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "BOOK_NOT_IN_LIBRARY")

	assert.Equal(t, http.StatusNoContent, serve(router(admin), http.MethodDelete, base, "").Code)
	assert.Empty(t, repo.libraries)
}

func TestAddBooks_UnknownBook(t *testing.T) {
	repo, router := setup()
	lib, _ := repo.Create(context.Background(), "Central")

	w := serve(router(librarian), http.MethodPost, "/libraries/"+lib.ID.String()+"/books", `{"book_ids":["`+uuid.NewString()+`"]}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "BOOK_NOT_FOUND")
}

func TestReads(t *testing.T) {
	_, router := setup()

	assert.Equal(t, http.StatusUnauthorized, serve(router(permission.Anonymous), http.MethodGet, "/libraries", "").Code)
	assert.Equal(t, http.StatusOK, serve(router(member), http.MethodGet, "/libraries", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(router(member), http.MethodGet, "/libraries/"+uuid.NewString(), "").Code)
	assert.Equal(t, http.StatusNotFound, serve(router(member), http.MethodGet, "/libraries/xyz", "").Code)
}
