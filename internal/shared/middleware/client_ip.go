package middleware

import (
	"github.com/gin-gonic/gin"

	"bookshelf-api/internal/shared/utils"
)

const clientIPKey = "client_ip"

// ClientIPMiddleware resolve IP của client một lần cho cả chain.
// Auth handler dùng IP này làm một phần của login throttle key
func ClientIPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(clientIPKey, utils.ExtractClientIP(c))
		c.Next()
	}
}

// ClientIP lấy IP đã resolve, fallback sang ExtractClientIP nếu middleware chưa chạy
func ClientIP(c *gin.Context) string {
	if ip := c.GetString(clientIPKey); ip != "" {
		return ip
	}
	return utils.ExtractClientIP(c)
}
