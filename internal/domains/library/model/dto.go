package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

// MaxBooksPerRequest giới hạn số book_ids trong một lần add
const MaxBooksPerRequest = 100

type CreateLibraryRequest struct {
	Name string `json:"name"`
}

func (r CreateLibraryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.RuneLength(1, MaxNameLength),
		),
	)
}

// AssignLibrarianRequest - PUT /libraries/:id/librarian (tạo mới hoặc đổi tên librarian)
type AssignLibrarianRequest struct {
	Name string `json:"name"`
}

func (r AssignLibrarianRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.RuneLength(1, MaxNameLength),
		),
	)
}

// AddBooksRequest - POST /libraries/:id/books
type AddBooksRequest struct {
	BookIDs []string `json:"book_ids"`
}

func (r AddBooksRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BookIDs,
			validation.Required.Error("book_ids is required"),
			validation.Length(1, MaxBooksPerRequest),
			validation.Each(is.UUID.Error("must be a valid UUID")),
		),
	)
}

// ParsedBookIDs - gọi sau Validate, bỏ trùng lặp và giữ thứ tự
func (r AddBooksRequest) ParsedBookIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(r.BookIDs))
	out := make([]uuid.UUID, 0, len(r.BookIDs))
	for _, raw := range r.BookIDs {
		id := uuid.MustParse(raw)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
