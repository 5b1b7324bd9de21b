package model

import (
	"time"

	"github.com/google/uuid"
)

const MaxNameLength = 200

type Author struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AuthorBook là book rút gọn nested trong author detail
type AuthorBook struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	PublicationYear int       `json:"publication_year"`
}

// AuthorDetail = author + books của author (order theo title)
type AuthorDetail struct {
	Author
	Books []AuthorBook `json:"books"`
}

// DetailCacheKey được dùng chung với book repository để invalidate khi books thay đổi
func DetailCacheKey(id uuid.UUID) string {
	return "author:detail:" + id.String()
}
