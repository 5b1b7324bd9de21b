package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookshelf-api/internal/domains/author/model"
	"bookshelf-api/internal/domains/author/service"
	"bookshelf-api/internal/shared/middleware"
	"bookshelf-api/internal/shared/query"
	"bookshelf-api/internal/shared/response"
	"bookshelf-api/internal/shared/utils"
)

type AuthorHandler struct {
	service service.ServiceInterface
}

func NewAuthorHandler(svc service.ServiceInterface) *AuthorHandler {
	return &AuthorHandler{service: svc}
}

// ════════════════════════════════════════════════════════════════
// LIST: GET /v1/authors?name=&search=&ordering=&page=&limit=
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) List(c *gin.Context) {
	params := c.Request.URL.Query()
	page := query.ParsePage(params)

	authors, total, err := h.service.List(c.Request.Context(), params, page)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, "Authors retrieved successfully", model.ToResponseList(authors), &response.Meta{
		Page:  page.Page,
		Limit: page.Limit,
		Total: total,
	})
}

// ════════════════════════════════════════════════════════════════
// DETAIL: GET /v1/authors/:id (nested books)
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) Get(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		response.HandleError(c, model.ErrAuthorNotFound, model.ErrorMap)
		return
	}

	detail, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.Success(c, http.StatusOK, "Author retrieved successfully", detail.ToResponse())
}

// ════════════════════════════════════════════════════════════════
// CREATE: POST /v1/authors
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) Create(c *gin.Context) {
	actor, ok := middleware.Authenticated(c)
	if !ok {
		return
	}

	var req model.CreateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorMessage(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	created, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.Success(c, http.StatusCreated, "Author created successfully", created.ToResponse())
}

// ════════════════════════════════════════════════════════════════
// UPDATE: PUT (full) / PATCH (partial) /v1/authors/:id
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) Replace(c *gin.Context) { h.update(c, false) }

func (h *AuthorHandler) Patch(c *gin.Context) { h.update(c, true) }

func (h *AuthorHandler) update(c *gin.Context, partial bool) {
	actor, ok := middleware.Authenticated(c)
	if !ok {
		return
	}

	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		response.HandleError(c, model.ErrAuthorNotFound, model.ErrorMap)
		return
	}

	var req model.UpdateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorMessage(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	updated, err := h.service.Update(c.Request.Context(), actor, id, req, partial)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.Success(c, http.StatusOK, "Author updated successfully", updated.ToResponse())
}

// ════════════════════════════════════════════════════════════════
// DELETE: DELETE /v1/authors/:id
// ════════════════════════════════════════════════════════════════

func (h *AuthorHandler) Delete(c *gin.Context) {
	actor, ok := middleware.Authenticated(c)
	if !ok {
		return
	}

	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		response.HandleError(c, model.ErrAuthorNotFound, model.ErrorMap)
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.NoContent(c)
}
