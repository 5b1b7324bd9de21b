package model

import (
	"time"

	"github.com/google/uuid"
)

const MaxNameLength = 200

// Library - thư viện, M2M với books qua library_books
type Library struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	BookCount int        `json:"book_count"`
	Librarian *Librarian `json:"librarian,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Librarian - mỗi library có tối đa một librarian (1:1)
type Librarian struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	LibraryID uuid.UUID `json:"library_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LibraryBook - book thuộc library, kèm thời điểm được thêm vào
type LibraryBook struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	PublicationYear int       `json:"publication_year"`
	AuthorName      string    `json:"author_name"`
	AddedAt         time.Time `json:"added_at"`
}

// LibraryDetail - GET /libraries/:id
type LibraryDetail struct {
	Library
	Books []LibraryBook `json:"books"`
}
