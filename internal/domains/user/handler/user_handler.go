package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bookshelf-api/internal/domains/user/model"
	"bookshelf-api/internal/domains/user/service"
	"bookshelf-api/internal/shared/middleware"
	"bookshelf-api/internal/shared/query"
	"bookshelf-api/internal/shared/response"
	"bookshelf-api/internal/shared/utils"
)

// UserHandler xử lý HTTP requests cho auth, profile và admin user management
type UserHandler struct {
	service service.ServiceInterface
}

func NewUserHandler(service service.ServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// ========================================
// AUTHENTICATION ENDPOINTS
// ========================================

// Register xử lý POST /auth/register
// @Summary      Register new user
// @Tags         Authentication
// @Router       /auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorMessage(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	u, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	c.Header("Location", "/api/v1/users/me")
	response.Success(c, http.StatusCreated, "User registered successfully", u.ToResponse())
}

// Login xử lý POST /auth/login
// @Summary      Login with username (or email) and password
// @Tags         Authentication
// @Router       /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorMessage(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tokens, err := h.service.Login(c.Request.Context(), req, middleware.ClientIP(c))
	if err != nil {
		var locked *model.LockedError
		if errors.As(err, &locked) {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(locked.RetryAfter.Seconds()))))
		}
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.Success(c, http.StatusOK, "Login successful", tokens)
}

// Refresh xử lý POST /auth/refresh
// @Summary      Exchange refresh token for a new token pair
// @Tags         Authentication
// @Router       /auth/refresh [post]
func (h *UserHandler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorMessage(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tokens, err := h.service.Refresh(c.Request.Context(), req)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.Success(c, http.StatusOK, "Token refreshed successfully", tokens)
}

// ========================================
// PROFILE ENDPOINTS
// ========================================

// GetMe xử lý GET /users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	u, err := h.service.GetProfile(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.Success(c, http.StatusOK, "Profile retrieved successfully", u.ToProfileResponse())
}

// UpdateMe xử lý PATCH /users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	actor := middleware.CurrentIdentity(c)
	if !actor.IsAuthenticated() {
		response.Unauthorized(c, "Authentication credentials were not provided")
		return
	}

	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorMessage(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	u, err := h.service.UpdateProfile(c.Request.Context(), actor, req)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.Success(c, http.StatusOK, "Profile updated successfully", u.ToProfileResponse())
}

// ========================================
// ADMIN ENDPOINTS
// ========================================

// ListUsers xử lý GET /admin/users
// Query: username, email, role, search, ordering, page, limit
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := c.Request.URL.Query()
	page := query.ParsePage(params)

	users, total, err := h.service.ListUsers(c.Request.Context(), middleware.CurrentIdentity(c), params, page)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, "Users retrieved successfully", model.ToResponseList(users), &response.Meta{
		Page:  page.Page,
		Limit: page.Limit,
		Total: total,
	})
}

// UpdateUserRole xử lý PATCH /admin/users/:id/role
func (h *UserHandler) UpdateUserRole(c *gin.Context) {
	id, ok := utils.ParseUUIDParam(c, "id")
	if !ok {
		response.HandleError(c, model.ErrUserNotFound, model.ErrorMap)
		return
	}

	var req model.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorMessage(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	u, err := h.service.UpdateRole(c.Request.Context(), middleware.CurrentIdentity(c), id, req)
	if err != nil {
		response.HandleError(c, err, model.ErrorMap)
		return
	}

	response.Success(c, http.StatusOK, "User role updated successfully", u.ToResponse())
}
