package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bookshelf-api/internal/domains/user/model"
	"bookshelf-api/internal/domains/user/repository"
	"bookshelf-api/internal/observability"
	"bookshelf-api/internal/shared/permission"
	"bookshelf-api/internal/shared/query"
	"bookshelf-api/pkg/cache"
	"bookshelf-api/pkg/logger"
)

// DefaultBcryptCost: cost = 12, balance giữa security và performance
const DefaultBcryptCost = 12

var adminRule = permission.RoleIn(permission.RoleAdmin)

type userService struct {
	repo   repository.RepositoryInterface
	cache  cache.Cache
	tokens TokenIssuer
	cfg    Config
	now    func() time.Time
}

func NewUserService(repo repository.RepositoryInterface, cache cache.Cache, tokens TokenIssuer, cfg Config) ServiceInterface {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultBcryptCost
	}
	return &userService{
		repo:   repo,
		cache:  cache,
		tokens: tokens,
		cfg:    cfg,
		now:    time.Now,
	}
}

// normalizeEmail: email luôn được so sánh và lưu dạng lowercase
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ========================================
// AUTHENTICATION
// ========================================

// Register tạo user mới với role member
func (s *userService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	// 1. NORMALIZE + VALIDATE INPUT
	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. BUSINESS RULE: username + email unique (email case-insensitive)
	taken, err := s.repo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username exists: %w", err)
	}
	if taken {
		return nil, model.ErrUsernameTaken
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, model.ErrEmailAlreadyExists
	}

	dob, err := model.ParseDate(req.DateOfBirth)
	if err != nil {
		return nil, fmt.Errorf("parse date_of_birth: %w", err)
	}

	// 3. HASH PASSWORD
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// 4. PERSIST (unique index vẫn bắt race giữa check và insert)
	return s.repo.Create(ctx, &model.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
		Role:         permission.RoleMember,
		DateOfBirth:  dob,
	})
}

// Login xác thực username (hoặc email) + password và trả về token pair
func (s *userService) Login(ctx context.Context, req model.LoginRequest, clientIP string) (*model.TokenResponse, error) {
	// 1. VALIDATE INPUT
	req.Username = strings.TrimSpace(req.Username)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. CHECK LOCKOUT
	key := attemptsKey(clientIP, req.Username)
	lock := lockKey(clientIP, req.Username)
	if remaining := s.lockedFor(ctx, lock); remaining > 0 {
		observability.LoginFailures.WithLabelValues("locked").Inc()
		return nil, &model.LockedError{RetryAfter: remaining}
	}

	// 3. FIND USER
	u, err := s.findByLogin(ctx, req.Username)
	if err != nil {
		return nil, err
	}

	// 4. VERIFY PASSWORD
	// Không phân biệt "user not found" và "wrong password"
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		observability.LoginFailures.WithLabelValues("invalid_credentials").Inc()
		return nil, s.recordFailure(ctx, key, lock)
	}

	// 5. RESET COUNTER + ISSUE TOKENS
	if err := s.cache.Delete(ctx, key); err != nil {
		logger.Warn("failed to reset login attempts", map[string]interface{}{"error": err.Error()})
	}

	resp, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}
	profile := u.ToResponse()
	resp.User = &profile

	logger.Info("user logged in", map[string]interface{}{"user_id": u.ID.String(), "client_ip": clientIP})
	return resp, nil
}

// findByLogin tìm theo email khi login có "@", không thấy thì thử username
// (username được phép chứa "@"). Không tìm thấy → (nil, nil)
func (s *userService) findByLogin(ctx context.Context, login string) (*model.User, error) {
	if strings.Contains(login, "@") {
		u, err := s.repo.GetByEmail(ctx, normalizeEmail(login))
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
	}

	u, err := s.repo.GetByUsername(ctx, login)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// Refresh đổi refresh token lấy token pair mới (rotation)
func (s *userService) Refresh(ctx context.Context, req model.RefreshRequest) (*model.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	claims, err := s.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, model.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, model.ErrInvalidToken
	}

	// Role có thể đã đổi từ lúc login, nên luôn load lại user
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrInvalidToken
		}
		return nil, err
	}

	return s.issueTokens(u)
}

// issueTokens: access token mang đúng identity mà auth middleware sẽ dựng lại
func (s *userService) issueTokens(u *model.User) (*model.TokenResponse, error) {
	id := u.Identity()
	access, err := s.tokens.GenerateAccessToken(id.UserID.String(), id.Username, string(id.Role))
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refresh, err := s.tokens.GenerateRefreshToken(id.UserID.String())
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    s.now().Add(s.tokens.AccessExpiry()),
	}, nil
}

// ========================================
// LOGIN THROTTLING
// ========================================

func attemptsKey(clientIP, login string) string {
	return "login_attempts:" + clientIP + ":" + strings.ToLower(login)
}

func lockKey(clientIP, login string) string {
	return "login_locked:" + clientIP + ":" + strings.ToLower(login)
}

// lockedFor trả về thời gian lock còn lại, 0 nếu không bị lock.
// Lỗi cache → cho qua (fail open), chỉ log warning
func (s *userService) lockedFor(ctx context.Context, key string) time.Duration {
	locked, err := s.cache.Exists(ctx, key)
	if err != nil {
		logger.Warn("failed to read login lock", map[string]interface{}{"error": err.Error()})
		return 0
	}
	if !locked {
		return 0
	}

	ttl, err := s.cache.TTL(ctx, key)
	if err != nil || ttl <= 0 {
		return s.cfg.LoginLockout
	}
	return ttl
}

// recordFailure tăng counter; lần fail thứ MaxLoginAttempts set lock key và trả về LockedError
func (s *userService) recordFailure(ctx context.Context, counterKey, lock string) error {
	attempts, err := s.cache.Increment(ctx, counterKey)
	if err != nil {
		logger.Warn("failed to record login attempt", map[string]interface{}{"error": err.Error()})
		return model.ErrInvalidCredentials
	}

	// Window bắt đầu từ lần fail đầu tiên
	if attempts == 1 {
		if err := s.cache.Expire(ctx, counterKey, s.cfg.LoginLockout); err != nil {
			logger.Warn("failed to set login attempts ttl", map[string]interface{}{"error": err.Error()})
		}
	}

	if attempts >= int64(s.cfg.MaxLoginAttempts) {
		// Lock tính từ lần fail cuối; counter bắt đầu lại sau khi lock hết hạn
		if err := s.cache.Set(ctx, lock, attempts, s.cfg.LoginLockout); err != nil {
			logger.Warn("failed to set login lockout", map[string]interface{}{"error": err.Error()})
		}
		if err := s.cache.Delete(ctx, counterKey); err != nil {
			logger.Warn("failed to reset login attempts", map[string]interface{}{"error": err.Error()})
		}
		logger.Warn("login locked after repeated failures", map[string]interface{}{"key": lock, "attempts": attempts})
		return &model.LockedError{RetryAfter: s.cfg.LoginLockout}
	}
	return model.ErrInvalidCredentials
}

// ========================================
// PROFILE
// ========================================

func (s *userService) GetProfile(ctx context.Context, actor permission.Identity) (*model.User, error) {
	if err := permission.Authorize(actor, permission.LoggedIn, uuid.Nil); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, actor.UserID)
}

func (s *userService) UpdateProfile(ctx context.Context, actor permission.Identity, req model.UpdateProfileRequest) (*model.User, error) {
	if err := permission.Authorize(actor, permission.LoggedIn, uuid.Nil); err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != u.Email {
		// Uniqueness loại trừ chính user đang update
		exists, err := s.repo.ExistsByEmail(ctx, *req.Email, u.ID)
		if err != nil {
			return nil, fmt.Errorf("check email exists: %w", err)
		}
		if exists {
			return nil, model.ErrEmailAlreadyExists
		}
		u.Email = *req.Email
	}
	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.DateOfBirth != nil {
		dob, err := model.ParseDate(*req.DateOfBirth)
		if err != nil {
			return nil, fmt.Errorf("parse date_of_birth: %w", err)
		}
		u.DateOfBirth = dob
	}

	return s.repo.UpdateProfile(ctx, u)
}

// ========================================
// ADMIN
// ========================================

func (s *userService) ListUsers(ctx context.Context, actor permission.Identity, params url.Values, page query.Page) ([]model.User, int, error) {
	if err := permission.Authorize(actor, adminRule, uuid.Nil); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, params, page)
}

func (s *userService) UpdateRole(ctx context.Context, actor permission.Identity, id uuid.UUID, req model.UpdateRoleRequest) (*model.User, error) {
	if err := permission.Authorize(actor, adminRule, uuid.Nil); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.UpdateRole(ctx, id, permission.Role(req.Role))
	if err != nil {
		return nil, err
	}

	logger.Info("user role changed", map[string]interface{}{
		"user_id":  u.ID.String(),
		"role":     string(u.Role),
		"actor_id": actor.UserID.String(),
	})
	return u, nil
}
