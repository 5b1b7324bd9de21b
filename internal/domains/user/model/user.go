package model

import (
	"time"

	"github.com/google/uuid"

	"bookshelf-api/internal/shared/permission"
)

const (
	MaxUsernameLength = 150
	MaxEmailLength    = 254
	MaxNameLength     = 150
	MinPasswordLength = 8
	MaxPasswordLength = 128

	// DateLayout cho date_of_birth (ISO date, không có time)
	DateLayout = "2006-01-02"
)

// User - profile + credentials. Email luôn được lưu lowercase
type User struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Username     string          `json:"username" db:"username"`
	Email        string          `json:"email" db:"email"`
	FirstName    string          `json:"first_name" db:"first_name"`
	LastName     string          `json:"last_name" db:"last_name"`
	PasswordHash string          `json:"-" db:"password_hash"` // Never expose in JSON
	Role         permission.Role `json:"role" db:"role"`
	DateOfBirth  *time.Time      `json:"date_of_birth,omitempty" db:"date_of_birth"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// Identity dựng acting identity từ user đã load
func (u *User) Identity() permission.Identity {
	return permission.Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}
