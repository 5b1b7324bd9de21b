package model

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"bookshelf-api/internal/shared/permission"
)

// usernamePattern: chữ, số và @ . + - _
var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// ========================================
// AUTH REQUESTS
// ========================================

// RegisterRequest - POST /v1/auth/register
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	DateOfBirth     string `json:"date_of_birth,omitempty"` // YYYY-MM-DD
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username,
			validation.Required.Error("username is required"),
			validation.RuneLength(1, MaxUsernameLength),
			validation.Match(usernamePattern).Error("username may contain only letters, digits and @/./+/-/_"),
		),
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			validation.RuneLength(1, MaxEmailLength),
			is.EmailFormat.Error("invalid email format"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			validation.RuneLength(MinPasswordLength, MaxPasswordLength).Error("password must be 8-128 characters"),
		),
		validation.Field(&r.PasswordConfirm,
			validation.Required.Error("password confirmation is required"),
			validation.In(r.Password).Error("passwords do not match"),
		),
		validation.Field(&r.FirstName, validation.RuneLength(0, MaxNameLength)),
		validation.Field(&r.LastName, validation.RuneLength(0, MaxNameLength)),
		validation.Field(&r.DateOfBirth, dateOfBirthRule()),
	)
}

// LoginRequest - username field nhận username hoặc email
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required.Error("username is required")),
		validation.Field(&r.Password, validation.Required.Error("password is required")),
	)
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required.Error("refresh_token is required")),
	)
}

// ========================================
// PROFILE / ADMIN REQUESTS
// ========================================

// UpdateProfileRequest - PATCH /v1/users/me, chỉ field được gửi mới bị đổi.
// date_of_birth = "" xoá giá trị hiện tại
type UpdateProfileRequest struct {
	Email       *string `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	DateOfBirth *string `json:"date_of_birth"`
}

func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.When(r.Email != nil,
				validation.Required.Error("email cannot be empty"),
				validation.RuneLength(1, MaxEmailLength),
				is.EmailFormat.Error("invalid email format"),
			),
		),
		validation.Field(&r.FirstName, validation.RuneLength(0, MaxNameLength)),
		validation.Field(&r.LastName, validation.RuneLength(0, MaxNameLength)),
		validation.Field(&r.DateOfBirth, dateOfBirthRule()),
	)
}

// UpdateRoleRequest - PATCH /v1/admin/users/:id/role
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

func (r UpdateRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role,
			validation.Required.Error("role is required"),
			validation.In(
				string(permission.RoleAdmin),
				string(permission.RoleLibrarian),
				string(permission.RoleMember),
			).Error("role must be one of admin, librarian, member"),
		),
	)
}

func dateOfBirthRule() validation.Rule {
	return validation.Date(DateLayout).
		Max(time.Now()).
		Error("date_of_birth must be a past date in YYYY-MM-DD format").
		RangeError("date_of_birth cannot be in the future")
}

// ParseDate parse date_of_birth đã validate; "" → nil
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ========================================
// RESPONSES
// ========================================

type UserResponse struct {
	ID          uuid.UUID               `json:"id"`
	Username    string                  `json:"username"`
	Email       string                  `json:"email"`
	FirstName   string                  `json:"first_name"`
	LastName    string                  `json:"last_name"`
	Role        permission.Role         `json:"role"`
	DateOfBirth *string                 `json:"date_of_birth"`
	Permissions []permission.Permission `json:"permissions,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// TokenResponse trả về sau login/refresh
type TokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresAt    time.Time     `json:"expires_at"`
	User         *UserResponse `json:"user,omitempty"`
}

func (u *User) ToResponse() UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.DateOfBirth != nil {
		dob := u.DateOfBirth.Format(DateLayout)
		resp.DateOfBirth = &dob
	}
	return resp
}

// ToProfileResponse kèm danh sách permissions của role (GET /users/me)
func (u *User) ToProfileResponse() UserResponse {
	resp := u.ToResponse()
	resp.Permissions = permission.PermissionsFor(u.Role)
	return resp
}

func ToResponseList(users []User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToResponse())
	}
	return out
}
