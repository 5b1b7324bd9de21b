package model

import (
	"errors"
	"net/http"

	"bookshelf-api/internal/shared/response"
)

var (
	ErrAuthorNotFound = errors.New("author not found")
)

var ErrorMap = response.ErrorMap{
	ErrAuthorNotFound: {Status: http.StatusNotFound, Code: "AUTHOR_NOT_FOUND"},
}
