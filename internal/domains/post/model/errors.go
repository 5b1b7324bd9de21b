package model

import (
	"errors"
	"net/http"

	"bookshelf-api/internal/shared/response"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
)

var ErrorMap = response.ErrorMap{
	ErrPostNotFound:    {Status: http.StatusNotFound, Code: "POST_NOT_FOUND"},
	ErrCommentNotFound: {Status: http.StatusNotFound, Code: "COMMENT_NOT_FOUND"},
}
