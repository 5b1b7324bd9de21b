package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/response"
	"bookshelf-api/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// ===================================
// AUTH
// ===================================

func authRouter(manager *jwt.Manager, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Authenticate(manager))
	handlers := append(extra, func(c *gin.Context) {
		id := CurrentIdentity(c)
		c.JSON(http.StatusOK, gin.H{
			"authenticated": id.IsAuthenticated(),
			"username":      id.Username,
			"role":          string(id.Role),
		})
	})
	r.GET("/whoami", handlers...)
	return r
}

func TestAuthenticate_NoHeaderIsAnonymous(t *testing.T) {
	r := authRouter(jwt.NewManager("secret", time.Minute, time.Hour))

	w := perform(r, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":false,"username":"","role":""}`, w.Body.String())
}

func TestAuthenticate_ValidToken(t *testing.T) {
	manager := jwt.NewManager("secret", time.Minute, time.Hour)
	token, err := manager.GenerateAccessToken(uuid.NewString(), "alice", "librarian")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := perform(authRouter(manager), req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":true,"username":"alice","role":"librarian"}`, w.Body.String())
}

func TestAuthenticate_RejectsBadCredentials(t *testing.T) {
	manager := jwt.NewManager("secret", time.Minute, time.Hour)
	refresh, err := manager.GenerateRefreshToken(uuid.NewString())
	require.NoError(t, err)
	foreign, err := jwt.NewManager("other", time.Minute, time.Hour).GenerateAccessToken(uuid.NewString(), "bob", "admin")
	require.NoError(t, err)

	cases := map[string]string{
		"malformed header":        "Token abc",
		"missing token":           "Bearer ",
		"refresh token as access": "Bearer " + refresh,
		"wrong signature":         "Bearer " + foreign,
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			req.Header.Set("Authorization", header)
			w := perform(authRouter(manager), req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			body := decode(t, w)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	manager := jwt.NewManager("secret", time.Minute, time.Hour)
	r := authRouter(manager, RequireAuth())

	w := perform(r, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := manager.GenerateAccessToken(uuid.NewString(), "alice", "member")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, perform(r, req).Code)
}

func TestAuthenticated(t *testing.T) {
	member := permission.Identity{UserID: uuid.New(), Username: "alice", Role: permission.RoleMember}
	reached := false
	handler := func(c *gin.Context) {
		actor, ok := Authenticated(c)
		if !ok {
			return
		}
		reached = true
		c.String(http.StatusOK, actor.Username)
	}

	r := gin.New()
	r.POST("/anon", SetIdentity(permission.Anonymous), handler)
	r.POST("/member", SetIdentity(member), handler)

	w := perform(r, httptest.NewRequest(http.MethodPost, "/anon", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, w).Error.Code)
	assert.False(t, reached)

	w = perform(r, httptest.NewRequest(http.MethodPost, "/member", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())
	assert.True(t, reached)
}

func TestRequireRole(t *testing.T) {
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }

	cases := []struct {
		name string
		id   permission.Identity
		want int
	}{
		{"anonymous", permission.Anonymous, http.StatusUnauthorized},
		{"member", permission.Identity{UserID: uuid.New(), Username: "m", Role: permission.RoleMember}, http.StatusForbidden},
		{"librarian", permission.Identity{UserID: uuid.New(), Username: "l", Role: permission.RoleLibrarian}, http.StatusNoContent},
		{"admin", permission.Identity{UserID: uuid.New(), Username: "a", Role: permission.RoleAdmin}, http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/staff", SetIdentity(tc.id), RequireRole(permission.RoleLibrarian), ok)

			w := perform(r, httptest.NewRequest(http.MethodGet, "/staff", nil))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

// ===================================
// REQUEST PLUMBING
// ===================================

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	w := perform(r, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	w = perform(r, req)
	assert.Equal(t, "trace-123", w.Header().Get(RequestIDHeader))
}

func TestRecovery_ReturnsEnvelope(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := perform(r, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	require.NotNil(t, body.Error)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body.Error.Code)
	assert.NotContains(t, w.Body.String(), "kaboom")
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, ContentSecurityPolicy, w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := perform(r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = perform(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestClientIP_TrustsProxyHeadersOnlyFromPrivateRemote(t *testing.T) {
	r := gin.New()
	r.Use(ClientIPMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, ClientIP(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:4321"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.5")
	assert.Equal(t, "203.0.113.7", perform(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.9:4321"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, "198.51.100.9", perform(r, req).Body.String())
}
