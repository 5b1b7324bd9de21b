package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

// publication_year không có lower bound, chỉ chặn năm lớn hơn năm hiện tại (tại thời điểm write)
const MsgFutureYear = "publication year cannot be in the future"

func publicationYearRules(currentYear int) []validation.Rule {
	return []validation.Rule{
		validation.Max(currentYear).Error(MsgFutureYear),
	}
}

// CreateBookRequest - POST /v1/books
type CreateBookRequest struct {
	Title           string `json:"title"`
	PublicationYear *int   `json:"publication_year"`
	AuthorID        string `json:"author_id"`
}

func (r CreateBookRequest) Validate(currentYear int) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error("title is required"),
			validation.RuneLength(1, MaxTitleLength),
		),
		validation.Field(&r.PublicationYear,
			append([]validation.Rule{validation.NotNil.Error("publication year is required")},
				publicationYearRules(currentYear)...)...,
		),
		validation.Field(&r.AuthorID,
			validation.Required.Error("author is required"),
			is.UUID.Error("author must be a valid id"),
		),
	)
}

// UpdateBookRequest - PUT (mọi field bắt buộc) / PATCH (field nào có thì update)
type UpdateBookRequest struct {
	Title           *string `json:"title"`
	PublicationYear *int    `json:"publication_year"`
	AuthorID        *string `json:"author_id"`
}

func (r UpdateBookRequest) Validate(currentYear int, partial bool) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.When(!partial, validation.NotNil.Error("title is required")),
			validation.When(r.Title != nil,
				validation.Required.Error("title cannot be empty"),
				validation.RuneLength(1, MaxTitleLength),
			),
		),
		validation.Field(&r.PublicationYear,
			append([]validation.Rule{validation.When(!partial, validation.NotNil.Error("publication year is required"))},
				publicationYearRules(currentYear)...)...,
		),
		validation.Field(&r.AuthorID,
			validation.When(!partial, validation.NotNil.Error("author is required")),
			validation.When(r.AuthorID != nil,
				validation.Required.Error("author cannot be empty"),
				is.UUID.Error("author must be a valid id"),
			),
		),
	)
}

type BookResponse struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	PublicationYear int        `json:"publication_year"`
	Author          BookAuthor `json:"author"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type BookAuthor struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func (b *Book) ToResponse() BookResponse {
	return BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		PublicationYear: b.PublicationYear,
		Author:          BookAuthor{ID: b.AuthorID, Name: b.AuthorName},
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func ToResponseList(books []Book) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for i := range books {
		out = append(out, books[i].ToResponse())
	}
	return out
}
