package permission

import "slices"

// Permission là tên quyền theo dạng "<resource>.<action>", mỗi action đúng một tên
type Permission string

const (
	BookView   Permission = "book.view"
	BookCreate Permission = "book.create"
	BookChange Permission = "book.change"
	BookDelete Permission = "book.delete"

	LibraryChange   Permission = "library.change"
	LibrarianManage Permission = "librarian.manage"
	UserManage      Permission = "user.manage"
)

var grants = map[Role][]Permission{
	RoleAdmin: {
		BookView, BookCreate, BookChange, BookDelete,
		LibraryChange, LibrarianManage, UserManage,
	},
	RoleLibrarian: {
		BookView, BookCreate, BookChange, BookDelete,
		LibraryChange,
	},
	RoleMember: {
		BookView,
	},
}

// HasPermission tra grant table theo role
func HasPermission(role Role, p Permission) bool {
	return slices.Contains(grants[role], p)
}

// PermissionsFor trả về bản copy danh sách quyền của role (dùng cho /users/me)
func PermissionsFor(role Role) []Permission {
	return slices.Clone(grants[role])
}
