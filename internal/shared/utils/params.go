package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ParseUUIDParam đọc path param dạng UUID. ok=false khi param không phải UUID hợp lệ,
// handler trả về not found của domain tương ứng (id sai format không thể match record nào)
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
