package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// ========================================
// POST REQUESTS
// ========================================

// CreatePostRequest - POST /v1/posts. published_date mặc định là thời điểm create
type CreatePostRequest struct {
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
}

func (r CreatePostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error("title is required"),
			validation.RuneLength(1, MaxTitleLength),
		),
		validation.Field(&r.Content,
			validation.Required.Error("content is required"),
			validation.RuneLength(1, MaxContentLength),
		),
	)
}

// UpdatePostRequest - PUT (title + content bắt buộc) / PATCH
type UpdatePostRequest struct {
	Title         *string    `json:"title"`
	Content       *string    `json:"content"`
	PublishedDate *time.Time `json:"published_date"`
}

func (r UpdatePostRequest) Validate(partial bool) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.When(!partial, validation.NotNil.Error("title is required")),
			validation.When(r.Title != nil,
				validation.Required.Error("title cannot be empty"),
				validation.RuneLength(1, MaxTitleLength),
			),
		),
		validation.Field(&r.Content,
			validation.When(!partial, validation.NotNil.Error("content is required")),
			validation.When(r.Content != nil,
				validation.Required.Error("content cannot be empty"),
				validation.RuneLength(1, MaxContentLength),
			),
		),
	)
}

// ========================================
// COMMENT REQUESTS
// ========================================

type CommentRequest struct {
	Content string `json:"content"`
}

func (r CommentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content,
			validation.Required.Error("content is required"),
			validation.RuneLength(1, MaxCommentLength),
		),
	)
}

// ========================================
// RESPONSES
// ========================================

type UserInfo struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

type PostResponse struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Author        UserInfo  `json:"author"`
	PublishedDate time.Time `json:"published_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type CommentResponse struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	Author    UserInfo  `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Post) ToResponse() PostResponse {
	return PostResponse{
		ID:            p.ID,
		Title:         p.Title,
		Content:       p.Content,
		Author:        UserInfo{ID: p.AuthorID, Username: p.AuthorUsername},
		PublishedDate: p.PublishedDate,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (c *Comment) ToResponse() CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		Author:    UserInfo{ID: c.AuthorID, Username: c.AuthorUsername},
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func ToPostResponses(posts []Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, posts[i].ToResponse())
	}
	return out
}

func ToCommentResponses(comments []Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, comments[i].ToResponse())
	}
	return out
}
