package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/response"
)

// RequireRole gate cả route group theo role (ví dụ /admin).
// Anonymous → 401, sai role → 403. Admin luôn pass
func RequireRole(roles ...permission.Role) gin.HandlerFunc {
	rule := permission.RoleIn(roles...)

	return func(c *gin.Context) {
		err := permission.Authorize(CurrentIdentity(c), rule, uuid.Nil)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, permission.ErrUnauthenticated):
			response.Unauthorized(c, err.Error())
		default:
			response.Forbidden(c, err.Error())
		}
	}
}
