package permission

import (
	"errors"
	"slices"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated = errors.New("authentication credentials were not provided")
	ErrForbidden       = errors.New("you do not have permission to perform this action")
)

// Level là mức policy của một operation
type Level int

const (
	AllowAny Level = iota
	Authenticated
	OwnerOrRole
	RoleRequired
	PermissionRequired
)

// Rule mô tả policy của một operation
type Rule struct {
	Level      Level
	Roles      []Role
	Permission Permission
}

// Rule presets và constructors
var (
	Public   = Rule{Level: AllowAny}
	LoggedIn = Rule{Level: Authenticated}
)

func OwnerOr(roles ...Role) Rule {
	return Rule{Level: OwnerOrRole, Roles: roles}
}

func RoleIn(roles ...Role) Rule {
	return Rule{Level: RoleRequired, Roles: roles}
}

func Requires(p Permission) Rule {
	return Rule{Level: PermissionRequired, Permission: p}
}

// Authorize là authorization predicate evaluate trước mỗi operation.
// owner là user sở hữu target record, uuid.Nil khi operation không có target.
// Trả về nil, ErrUnauthenticated hoặc ErrForbidden
func Authorize(id Identity, rule Rule, owner uuid.UUID) error {
	if rule.Level == AllowAny {
		return nil
	}
	if !id.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if id.IsSuperuser() {
		return nil
	}

	switch rule.Level {
	case Authenticated:
		return nil
	case OwnerOrRole:
		if owner != uuid.Nil && id.UserID == owner {
			return nil
		}
		if slices.Contains(rule.Roles, id.Role) {
			return nil
		}
	case RoleRequired:
		if slices.Contains(rule.Roles, id.Role) {
			return nil
		}
	case PermissionRequired:
		if HasPermission(id.Role, rule.Permission) {
			return nil
		}
	}
	return ErrForbidden
}
