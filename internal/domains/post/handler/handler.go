package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookshelf-api/internal/domains/post/model"
	"bookshelf-api/internal/domains/post/service"
	"bookshelf-api/internal/shared/middleware"
	"bookshelf-api/internal/shared/query"
	"bookshelf-api/internal/shared/response"
	"bookshelf-api/internal/shared/utils"
)

// =====================================================
// POST HANDLER
// =====================================================

type PostHandler struct {
	postService service.ServiceInterface
}

func NewPostHandler(postService service.ServiceInterface) *PostHandler {
	return &PostHandler{postService: postService}
}

// postID parse :id, false nếu đã trả 404
func postID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		response.HandleError(c, model.ErrPostNotFound, model.ErrorMap)
	}
	return id, ok
}

// commentIDs parse :id + :commentID
func commentIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	pid, ok := postID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	cid, ok := utils.ParseUUIDParam(c, "commentID")
	if !ok {
		response.HandleError(c, model.ErrCommentNotFound, model.ErrorMap)
		return uuid.Nil, uuid.Nil, false
	}
	return pid, cid, true
}

// =====================================================
// POST ENDPOINTS
// =====================================================

// ListPosts - GET /api/v1/posts
// Query: author, title, search, ordering, page, limit
func (h *PostHandler) ListPosts(c *gin.Context) {
	params := c.Request.URL.Query()
	page := query.ParsePage(params)

	posts, total, err := h.postService.ListPosts(c.Request.Context(), params, page)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, "Posts retrieved successfully", model.ToPostResponses(posts), &response.Meta{
		Page:  page.Page,
		Limit: page.Limit,
		Total: total,
	})
}

// GetPost - GET /api/v1/posts/:id
func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	post, err := h.postService.GetPost(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.Success(c, http.StatusOK, "Post retrieved successfully", post.ToResponse())
}

// CreatePost - POST /api/v1/posts (author = user hiện tại)
func (h *PostHandler) CreatePost(c *gin.Context) {
	actor := middleware.CurrentIdentity(c)
	if !actor.IsAuthenticated() {
		response.Unauthorized(c, "Authentication credentials were not provided")
		return
	}

	var req model.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorMessage(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	post, err := h.postService.CreatePost(c.Request.Context(), actor, req)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	c.Header("Location", "/api/v1/posts/"+post.ID.String())
	response.Success(c, http.StatusCreated, "Post created successfully", post.ToResponse())
}

// ReplacePost - PUT /api/v1/posts/:id
func (h *PostHandler) ReplacePost(c *gin.Context) { h.updatePost(c, false) }

// PatchPost - PATCH /api/v1/posts/:id
func (h *PostHandler) PatchPost(c *gin.Context) { h.updatePost(c, true) }

func (h *PostHandler) updatePost(c *gin.Context, partial bool) {
	id, ok := postID(c)
	if !ok {
		return
	}
	actor := middleware.CurrentIdentity(c)

	// Check quyền trước khi đọc body: non-owner → 403 dù payload sai
	if _, err := h.postService.AuthorizePostWrite(c.Request.Context(), actor, id); err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	var req model.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorMessage(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	post, err := h.postService.UpdatePost(c.Request.Context(), actor, id, req, partial)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.Success(c, http.StatusOK, "Post updated successfully", post.ToResponse())
}

// DeletePost - DELETE /api/v1/posts/:id
func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	if err := h.postService.DeletePost(c.Request.Context(), middleware.CurrentIdentity(c), id); err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.NoContent(c)
}

// =====================================================
// COMMENT ENDPOINTS
// =====================================================

// ListComments - GET /api/v1/posts/:id/comments
func (h *PostHandler) ListComments(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	page := query.ParsePage(c.Request.URL.Query())

	comments, total, err := h.postService.ListComments(c.Request.Context(), id, page)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, "Comments retrieved successfully", model.ToCommentResponses(comments), &response.Meta{
		Page:  page.Page,
		Limit: page.Limit,
		Total: total,
	})
}

// CreateComment - POST /api/v1/posts/:id/comments
func (h *PostHandler) CreateComment(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	actor := middleware.CurrentIdentity(c)
	if !actor.IsAuthenticated() {
		response.Unauthorized(c, "Authentication credentials were not provided")
		return
	}

	var req model.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorMessage(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	comment, err := h.postService.CreateComment(c.Request.Context(), actor, id, req)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.Success(c, http.StatusCreated, "Comment created successfully", comment.ToResponse())
}

// UpdateComment - PUT/PATCH /api/v1/posts/:id/comments/:commentID
func (h *PostHandler) UpdateComment(c *gin.Context) {
	pid, cid, ok := commentIDs(c)
	if !ok {
		return
	}
	actor := middleware.CurrentIdentity(c)

	if _, err := h.postService.AuthorizeCommentWrite(c.Request.Context(), actor, pid, cid); err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	var req model.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorMessage(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	comment, err := h.postService.UpdateComment(c.Request.Context(), actor, pid, cid, req)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.Success(c, http.StatusOK, "Comment updated successfully", comment.ToResponse())
}

// DeleteComment - DELETE /api/v1/posts/:id/comments/:commentID
func (h *PostHandler) DeleteComment(c *gin.Context) {
	pid, cid, ok := commentIDs(c)
	if !ok {
		return
	}

	if err := h.postService.DeleteComment(c.Request.Context(), middleware.CurrentIdentity(c), pid, cid); err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.NoContent(c)
}
