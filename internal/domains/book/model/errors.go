package model

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"bookshelf-api/internal/shared/response"
)

var (
	ErrBookNotFound   = errors.New("book not found")
	ErrDuplicateTitle = errors.New("a book with this title already exists")
	ErrAuthorNotFound = errors.New("author does not exist")
)

var ErrorMap = response.ErrorMap{
	ErrBookNotFound:   {Status: http.StatusNotFound, Code: "BOOK_NOT_FOUND"},
	ErrDuplicateTitle: {Status: http.StatusConflict, Code: "DUPLICATE_TITLE"},
}

// AuthorFieldError: author không tồn tại là lỗi của field author_id (400), không phải 404
func AuthorFieldError() error {
	return validation.Errors{"author_id": ErrAuthorNotFound}
}
