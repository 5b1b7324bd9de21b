package permission

import "github.com/google/uuid"

// Role của user, lưu trong cột users.role và trong JWT claims
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleLibrarian Role = "librarian"
	RoleMember    Role = "member"
)

// ParseRole trả về Role hợp lệ, ok=false nếu không nhận ra
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleAdmin, RoleLibrarian, RoleMember:
		return r, true
	}
	return "", false
}

// Identity là acting identity của một request.
// Được middleware dựng từ access token và truyền by value từ handler xuống service.
// Zero value là anonymous
type Identity struct {
	UserID   uuid.UUID
	Username string
	Role     Role
}

// Anonymous identity cho request không có Authorization header
var Anonymous = Identity{}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != uuid.Nil
}

// IsSuperuser: admin thỏa mọi rule
func (i Identity) IsSuperuser() bool {
	return i.IsAuthenticated() && i.Role == RoleAdmin
}
