package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookshelf-api/internal/domains/library/model"
	"bookshelf-api/internal/domains/library/service"
	"bookshelf-api/internal/shared/middleware"
	"bookshelf-api/internal/shared/query"
	"bookshelf-api/internal/shared/response"
	"bookshelf-api/internal/shared/utils"
)

type Handler struct {
	svc service.Service
}

func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

func libraryID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		response.HandleError(c, model.ErrLibraryNotFound, model.ErrorMap)
	}
	return id, ok
}

// ==================== READ ====================

// ListLibraries - GET /libraries
func (h *Handler) ListLibraries(c *gin.Context) {
	params := c.Request.URL.Query()
	page := query.ParsePage(params)

	libraries, total, err := h.svc.ListLibraries(c.Request.Context(), middleware.CurrentIdentity(c), params, page)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, "Libraries retrieved successfully", libraries, &response.Meta{
		Page:  page.Page,
		Limit: page.Limit,
		Total: total,
	})
}

// GetLibrary - GET /libraries/:id (kèm books + librarian)
func (h *Handler) GetLibrary(c *gin.Context) {
	id, ok := libraryID(c)
	if !ok {
		return
	}

	detail, err := h.svc.GetLibrary(c.Request.Context(), middleware.CurrentIdentity(c), id)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.Success(c, http.StatusOK, "Library retrieved successfully", detail)
}

// ==================== ADMIN ====================

// CreateLibrary - POST /libraries (admin only)
func (h *Handler) CreateLibrary(c *gin.Context) {
	var req model.CreateLibraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorMessage(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	library, err := h.svc.CreateLibrary(c.Request.Context(), middleware.CurrentIdentity(c), req)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	c.Header("Location", "/api/v1/libraries/"+library.ID.String())
	response.Success(c, http.StatusCreated, "Library created successfully", library)
}

// DeleteLibrary - DELETE /libraries/:id (admin only)
func (h *Handler) DeleteLibrary(c *gin.Context) {
	id, ok := libraryID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteLibrary(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.NoContent(c)
}

// AssignLibrarian - PUT /libraries/:id/librarian (admin only)
func (h *Handler) AssignLibrarian(c *gin.Context) {
	id, ok := libraryID(c)
	if !ok {
		return
	}

	var req model.AssignLibrarianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorMessage(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	librarian, err := h.svc.AssignLibrarian(c.Request.Context(), middleware.CurrentIdentity(c), id, req)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.Success(c, http.StatusOK, "Librarian assigned successfully", librarian)
}

// ==================== MEMBERSHIP ====================

// AddBooks - POST /libraries/:id/books {"book_ids": [...]}
func (h *Handler) AddBooks(c *gin.Context) {
	id, ok := libraryID(c)
	if !ok {
		return
	}

	var req model.AddBooksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorMessage(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.svc.AddBooks(c.Request.Context(), middleware.CurrentIdentity(c), id, req); err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.NoContent(c)
}

// RemoveBook - DELETE /libraries/:id/books/:bookID
func (h *Handler) RemoveBook(c *gin.Context) {
	id, ok := libraryID(c)
	if !ok {
		return
	}
	bookID, ok := utils.ParseUUIDParam(c, "bookID")
	if !ok {
		response.HandleError(c, model.ErrBookNotInLibrary, model.ErrorMap)
		return
	}

	if err := h.svc.RemoveBook(c.Request.Context(), middleware.CurrentIdentity(c), id, bookID); err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.NoContent(c)
}
