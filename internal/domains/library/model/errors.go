package model

import (
	"errors"
	"net/http"

	"bookshelf-api/internal/shared/response"
)

var (
	ErrLibraryNotFound  = errors.New("library not found")
	ErrBookNotFound     = errors.New("one or more books not found")
	ErrBookNotInLibrary = errors.New("book is not in this library")
)

var ErrorMap = response.ErrorMap{
	ErrLibraryNotFound:  {Status: http.StatusNotFound, Code: "LIBRARY_NOT_FOUND"},
	ErrBookNotFound:     {Status: http.StatusNotFound, Code: "BOOK_NOT_FOUND"},
	ErrBookNotInLibrary: {Status: http.StatusNotFound, Code: "BOOK_NOT_IN_LIBRARY"},
}
