package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/pkg/logger"
)

// ErrorSpec map một domain sentinel error sang HTTP status + error code
type ErrorSpec struct {
	Status int
	Code   string
}

// ErrorMap được mỗi domain khai báo trong model/errors.go
type ErrorMap map[error]ErrorSpec

// HandleError map err sang response theo thứ tự:
// validation.Errors → 400, permission errors → 401/403, domain errors theo known, còn lại → 500
func HandleError(c *gin.Context, err error, known ErrorMap) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", FieldErrors(verrs))
		return
	}

	switch {
	case errors.Is(err, permission.ErrUnauthenticated):
		ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
		return
	case errors.Is(err, permission.ErrForbidden):
		ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", err.Error())
		return
	}

	for sentinel, spec := range known {
		if errors.Is(err, sentinel) {
			ErrorResponse(c, spec.Status, spec.Code, sentinel.Error())
			return
		}
	}

	// Không expose details của lỗi không xác định cho client
	logger.Error("unhandled error on "+c.Request.Method+" "+c.FullPath(), err)
	InternalServerError(c, "Internal server error")
}

// FieldErrors flatten validation.Errors thành map field → message
func FieldErrors(verrs validation.Errors) map[string]string {
	out := make(map[string]string, len(verrs))
	for field, fe := range verrs {
		if fe == nil {
			continue
		}
		out[field] = fe.Error()
	}
	return out
}
