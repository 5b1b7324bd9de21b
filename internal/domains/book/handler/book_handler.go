package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookshelf-api/internal/domains/book/model"
	"bookshelf-api/internal/domains/book/service"
	"bookshelf-api/internal/shared/middleware"
	"bookshelf-api/internal/shared/query"
	"bookshelf-api/internal/shared/response"
	"bookshelf-api/internal/shared/utils"
	"bookshelf-api/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler - HTTP Handler cho /v1/books
type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// ListBooks - GET /v1/books
// Query params: title, author, publication_year, search, ordering, page, limit
func (h *Handler) ListBooks(c *gin.Context) {
	params := c.Request.URL.Query()
	page := query.ParsePage(params)

	books, total, err := h.service.List(c.Request.Context(), params, page)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, "Books retrieved successfully", model.ToResponseList(books), &response.Meta{
		Page:  page.Page,
		Limit: page.Limit,
		Total: total,
	})
}

// ExportBooks - GET /v1/books/export (same params as ListBooks, trả về xlsx)
func (h *Handler) ExportBooks(c *gin.Context) {
	f, err := h.service.Export(c.Request.Context(), middleware.CurrentIdentity(c), c.Request.URL.Query())
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("books_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	if err := f.Write(c.Writer); err != nil {
		logger.Error("failed to write books export", err)
	}
}

// GetBook - GET /v1/books/:id
func (h *Handler) GetBook(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		response.HandleError(c, model.ErrBookNotFound, model.ErrorMap)
		return
	}

	book, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.Success(c, http.StatusOK, "Book retrieved successfully", book.ToResponse())
}

// CreateBook - POST /v1/books
func (h *Handler) CreateBook(c *gin.Context) {
	actor, ok := middleware.Authenticated(c)
	if !ok {
		return
	}

	var req model.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorMessage(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	book, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	c.Header("Location", "/api/v1/books/"+book.ID.String())
	response.Success(c, http.StatusCreated, "Book created successfully", book.ToResponse())
}

// ReplaceBook - PUT /v1/books/:id
func (h *Handler) ReplaceBook(c *gin.Context) { h.updateBook(c, false) }

// PatchBook - PATCH /v1/books/:id
func (h *Handler) PatchBook(c *gin.Context) { h.updateBook(c, true) }

func (h *Handler) updateBook(c *gin.Context, partial bool) {
	actor, ok := middleware.Authenticated(c)
	if !ok {
		return
	}

	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		response.HandleError(c, model.ErrBookNotFound, model.ErrorMap)
		return
	}

	var req model.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorMessage(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	book, err := h.service.Update(c.Request.Context(), actor, id, req, partial)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.Success(c, http.StatusOK, "Book updated successfully", book.ToResponse())
}

// DeleteBook - DELETE /v1/books/:id
func (h *Handler) DeleteBook(c *gin.Context) {
	actor, ok := middleware.Authenticated(c)
	if !ok {
		return
	}

	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		response.HandleError(c, model.ErrBookNotFound, model.ErrorMap)
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.NoContent(c)
}
