package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// CreateAuthorRequest - POST /v1/authors
type CreateAuthorRequest struct {
	Name string `json:"name"`
}

func (r CreateAuthorRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.RuneLength(1, MaxNameLength),
		),
	)
}

// UpdateAuthorRequest - PUT (full) / PATCH (partial) /v1/authors/:id
type UpdateAuthorRequest struct {
	Name *string `json:"name"`
}

// Validate: partial=false (PUT) yêu cầu đủ fields
func (r UpdateAuthorRequest) Validate(partial bool) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.When(!partial, validation.NotNil.Error("name is required")),
			validation.When(r.Name != nil,
				validation.Required.Error("name cannot be empty"),
				validation.RuneLength(1, MaxNameLength),
			),
		),
	)
}

type AuthorResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AuthorDetailResponse struct {
	AuthorResponse
	Books []AuthorBook `json:"books"`
}

func (a *Author) ToResponse() AuthorResponse {
	return AuthorResponse{
		ID:        a.ID,
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (d *AuthorDetail) ToResponse() AuthorDetailResponse {
	books := d.Books
	if books == nil {
		books = []AuthorBook{}
	}
	return AuthorDetailResponse{
		AuthorResponse: d.Author.ToResponse(),
		Books:          books,
	}
}

func ToResponseList(authors []Author) []AuthorResponse {
	out := make([]AuthorResponse, 0, len(authors))
	for i := range authors {
		out = append(out, authors[i].ToResponse())
	}
	return out
}
