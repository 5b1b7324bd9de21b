package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/response"
	"bookshelf-api/pkg/jwt"
)

const identityKey = "identity"

// TokenValidator là phần của jwt.Manager mà middleware cần
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// Authenticate dựng permission.Identity từ "Authorization: Bearer <token>".
// Không có header → anonymous identity (route quyết định có cho phép hay không).
// Header sai format hoặc token invalid → 401 ngay
func Authenticate(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(identityKey, permission.Anonymous)
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			response.Unauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := tokens.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			response.Unauthorized(c, "invalid user ID in token")
			return
		}

		// role lấy từ claims, không query DB: đổi role chỉ có hiệu lực khi
		// access token hết hạn (JWT_ACCESS_EXPIRY) hoặc sau lần refresh kế tiếp
		role, ok := permission.ParseRole(claims.Role)
		if !ok {
			role = permission.RoleMember
		}

		c.Set(identityKey, permission.Identity{
			UserID:   userID,
			Username: claims.Username,
			Role:     role,
		})
		c.Next()
	}
}

// RequireAuth chặn anonymous identity với 401
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentIdentity(c).IsAuthenticated() {
			response.Unauthorized(c, permission.ErrUnauthenticated.Error())
			return
		}
		c.Next()
	}
}

// CurrentIdentity trả về identity do Authenticate set, anonymous nếu chưa có
func CurrentIdentity(c *gin.Context) permission.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(permission.Identity); ok {
			return id
		}
	}
	return permission.Anonymous
}

// SetIdentity dùng trong handler tests để bỏ qua bước JWT
func SetIdentity(id permission.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(identityKey, id)
		c.Next()
	}
}

// Authenticated dùng trong write handlers trước khi bind body:
// anonymous → 401 ngay, payload sai không được ưu tiên hơn lỗi quyền
func Authenticated(c *gin.Context) (permission.Identity, bool) {
	actor := CurrentIdentity(c)
	if !actor.IsAuthenticated() {
		response.Unauthorized(c, permission.ErrUnauthenticated.Error())
		return actor, false
	}
	return actor, true
}
