package model

import "bookshelf-api/internal/shared/utils"

const (
	MaxTitleLength   = utils.MaxQueryLength
	MaxContentLength = 20000
	MaxCommentLength = 2000
)
