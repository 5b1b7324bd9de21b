package model

import (
	"time"

	"github.com/google/uuid"
)

// =====================================================
// POST ENTITY
// =====================================================

// Post - author được set từ identity lúc create và không đổi sau đó
type Post struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	Content        string    `json:"content" db:"content"`
	AuthorID       uuid.UUID `json:"author_id" db:"author_id"`
	AuthorUsername string    `json:"author_username" db:"author_username"`
	PublishedDate  time.Time `json:"published_date" db:"published_date"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// =====================================================
// COMMENT ENTITY (nested dưới post)
// =====================================================

type Comment struct {
	ID             uuid.UUID `json:"id" db:"id"`
	PostID         uuid.UUID `json:"post_id" db:"post_id"`
	AuthorID       uuid.UUID `json:"author_id" db:"author_id"`
	AuthorUsername string    `json:"author_username" db:"author_username"`
	Content        string    `json:"content" db:"content"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
