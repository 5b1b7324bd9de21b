package service

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"

	"bookshelf-api/internal/domains/user/model"
	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/query"
	"bookshelf-api/pkg/jwt"
)

type ServiceInterface interface {
	// ========================================
	// AUTHENTICATION
	// ========================================

	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	// Login bị throttle theo (clientIP, username)
	Login(ctx context.Context, req model.LoginRequest, clientIP string) (*model.TokenResponse, error)
	Refresh(ctx context.Context, req model.RefreshRequest) (*model.TokenResponse, error)

	// ========================================
	// PROFILE
	// ========================================

	GetProfile(ctx context.Context, actor permission.Identity) (*model.User, error)
	UpdateProfile(ctx context.Context, actor permission.Identity, req model.UpdateProfileRequest) (*model.User, error)

	// ========================================
	// ADMIN
	// ========================================

	ListUsers(ctx context.Context, actor permission.Identity, params url.Values, page query.Page) ([]model.User, int, error)
	UpdateRole(ctx context.Context, actor permission.Identity, id uuid.UUID, req model.UpdateRoleRequest) (*model.User, error)
}

// TokenIssuer là phần của jwt.Manager mà user service cần
type TokenIssuer interface {
	GenerateAccessToken(userID, username, role string) (string, error)
	GenerateRefreshToken(userID string) (string, error)
	ValidateRefreshToken(token string) (*jwt.Claims, error)
	AccessExpiry() time.Duration
}

// Config cho password hashing và login throttling
type Config struct {
	BcryptCost       int
	MaxLoginAttempts int
	LoginLockout     time.Duration
}
