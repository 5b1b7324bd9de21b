package model

import (
	"errors"
	"net/http"
	"time"

	"bookshelf-api/internal/shared/response"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("a user with this email already exists")
	ErrUsernameTaken      = errors.New("a user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrTooManyAttempts    = errors.New("too many failed login attempts, try again later")
)

var ErrorMap = response.ErrorMap{
	ErrUserNotFound:       {Status: http.StatusNotFound, Code: "USER_NOT_FOUND"},
	ErrEmailAlreadyExists: {Status: http.StatusConflict, Code: "EMAIL_EXISTS"},
	ErrUsernameTaken:      {Status: http.StatusConflict, Code: "USERNAME_EXISTS"},
	ErrInvalidCredentials: {Status: http.StatusUnauthorized, Code: "INVALID_CREDENTIALS"},
	ErrInvalidToken:       {Status: http.StatusUnauthorized, Code: "INVALID_TOKEN"},
	ErrTooManyAttempts:    {Status: http.StatusTooManyRequests, Code: "TOO_MANY_ATTEMPTS"},
}

// LockedError là ErrTooManyAttempts kèm thời gian còn lại của lockout (Retry-After)
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string { return ErrTooManyAttempts.Error() }

func (e *LockedError) Unwrap() error { return ErrTooManyAttempts }
