package model

import (
	"time"

	"github.com/google/uuid"
)

const MaxTitleLength = 200

type Book struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	PublicationYear int       `json:"publication_year" db:"publication_year"`
	AuthorID        uuid.UUID `json:"author_id" db:"author_id"`
	AuthorName      string    `json:"author_name" db:"author_name"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

func DetailCacheKey(id uuid.UUID) string {
	return "book:detail:" + id.String()
}
