package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf-api/internal/domains/user/model"
	"bookshelf-api/internal/shared/middleware"
	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/query"
	"bookshelf-api/internal/shared/response"
)

type stubService struct {
	loginErr  error
	gotIP     string
	gotRole   string
	member    model.User
	profileIn model.UpdateProfileRequest
}

func (s *stubService) Register(_ context.Context, req model.RegisterRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Email == "taken@example.com" {
		return nil, model.ErrEmailAlreadyExists
	}
	return &model.User{ID: uuid.New(), Username: req.Username, Email: req.Email, Role: permission.RoleMember}, nil
}

func (s *stubService) Login(_ context.Context, _ model.LoginRequest, clientIP string) (*model.TokenResponse, error) {
	s.gotIP = clientIP
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &model.TokenResponse{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", ExpiresAt: time.Now()}, nil
}

func (s *stubService) Refresh(context.Context, model.RefreshRequest) (*model.TokenResponse, error) {
	return nil, model.ErrInvalidToken
}

func (s *stubService) GetProfile(_ context.Context, actor permission.Identity) (*model.User, error) {
	if err := permission.Authorize(actor, permission.LoggedIn, uuid.Nil); err != nil {
		return nil, err
	}
	u := s.member
	return &u, nil
}

func (s *stubService) UpdateProfile(_ context.Context, _ permission.Identity, req model.UpdateProfileRequest) (*model.User, error) {
	s.profileIn = req
	u := s.member
	return &u, nil
}

func (s *stubService) ListUsers(_ context.Context, actor permission.Identity, _ url.Values, _ query.Page) ([]model.User, int, error) {
	if err := permission.Authorize(actor, permission.RoleIn(permission.RoleAdmin), uuid.Nil); err != nil {
		return nil, 0, err
	}
	return []model.User{s.member}, 1, nil
}

func (s *stubService) UpdateRole(_ context.Context, _ permission.Identity, id uuid.UUID, req model.UpdateRoleRequest) (*model.User, error) {
	s.gotRole = req.Role
	return &model.User{ID: id, Role: permission.Role(req.Role)}, nil
}

var (
	member = permission.Identity{UserID: uuid.New(), Username: "alice", Role: permission.RoleMember}
	admin  = permission.Identity{UserID: uuid.New(), Username: "root", Role: permission.RoleAdmin}
)

func newRouter(svc *stubService, actor permission.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewUserHandler(svc)

	r := gin.New()
	r.Use(middleware.ClientIPMiddleware(), middleware.SetIdentity(actor))
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)
	r.GET("/users/me", h.GetMe)
	r.PATCH("/users/me", h.UpdateMe)
	r.GET("/admin/users", h.ListUsers)
	r.PATCH("/admin/users/:id/role", h.UpdateUserRole)
	return r
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestRegister(t *testing.T) {
	body := `{"username":"alice","email":"alice@example.com","password":"passw0rd!","password_confirm":"passw0rd!"}`
	w := serve(newRouter(&stubService{}, permission.Anonymous), http.MethodPost, "/auth/register", body)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRegister_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
		code string
	}{
		{"mismatched confirmation", `{"username":"a","email":"a@example.com","password":"passw0rd!","password_confirm":"nope"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"duplicate email", `{"username":"a","email":"taken@example.com","password":"passw0rd!","password_confirm":"passw0rd!"}`, http.StatusConflict, "EMAIL_EXISTS"},
		{"malformed json", `{"username":`, http.StatusBadRequest, "BAD_REQUEST"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(newRouter(&stubService{}, permission.Anonymous), http.MethodPost, "/auth/register", tc.body)
			assert.Equal(t, tc.want, w.Code)
			assert.Equal(t, tc.code, errorCode(t, w))
		})
	}
}

func TestLogin_PassesClientIP(t *testing.T) {
	svc := &stubService{}
	w := serve(newRouter(svc, permission.Anonymous), http.MethodPost, "/auth/login", `{"username":"alice","password":"x"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "203.0.113.7", svc.gotIP)
}

func TestLogin_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
		code string
	}{
		{model.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{model.ErrTooManyAttempts, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS"},
	}

	for _, tc := range cases {
		w := serve(newRouter(&stubService{loginErr: tc.err}, permission.Anonymous), http.MethodPost, "/auth/login", `{"username":"a","password":"b"}`)
		assert.Equal(t, tc.want, w.Code)
		assert.Equal(t, tc.code, errorCode(t, w))
	}
}

func TestLogin_LockedSetsRetryAfter(t *testing.T) {
	svc := &stubService{loginErr: &model.LockedError{RetryAfter: 90*time.Second + 200*time.Millisecond}}

	w := serve(newRouter(svc, permission.Anonymous), http.MethodPost, "/auth/login", `{"username":"a","password":"b"}`)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "TOO_MANY_ATTEMPTS", errorCode(t, w))
	assert.Equal(t, "91", w.Header().Get("Retry-After"))
}

func TestRefresh_InvalidToken(t *testing.T) {
	w := serve(newRouter(&stubService{}, permission.Anonymous), http.MethodPost, "/auth/refresh", `{"refresh_token":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, w))
}

func TestGetMe(t *testing.T) {
	svc := &stubService{member: model.User{ID: member.UserID, Username: "alice", Role: permission.RoleLibrarian}}

	w := serve(newRouter(svc, permission.Anonymous), http.MethodGet, "/users/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(newRouter(svc, member), http.MethodGet, "/users/me", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data model.UserResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Data.Permissions, permission.LibraryChange)
	assert.NotContains(t, resp.Data.Permissions, permission.UserManage)
}

func TestUpdateMe(t *testing.T) {
	svc := &stubService{}

	w := serve(newRouter(svc, permission.Anonymous), http.MethodPatch, "/users/me", `{"first_name":"A"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(newRouter(svc, member), http.MethodPatch, "/users/me", `{"first_name":"A"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.profileIn.FirstName)
	assert.Nil(t, svc.profileIn.Email)
}

func TestAdminUsers(t *testing.T) {
	svc := &stubService{}

	assert.Equal(t, http.StatusForbidden, serve(newRouter(svc, member), http.MethodGet, "/admin/users", "").Code)
	assert.Equal(t, http.StatusOK, serve(newRouter(svc, admin), http.MethodGet, "/admin/users", "").Code)

	w := serve(newRouter(svc, admin), http.MethodPatch, "/admin/users/"+uuid.NewString()+"/role", `{"role":"librarian"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "librarian", svc.gotRole)

	w = serve(newRouter(svc, admin), http.MethodPatch, "/admin/users/nope/role", `{"role":"librarian"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
