package model

import (
	"errors"
	"time"
)

// Post is a saved content draft. Posts are immutable once created; there is
// no update operation, only create, list, and delete.
type Post struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Platform  string    `db:"platform" json:"platform"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Well-known platform identifiers. Platform is deliberately an open string:
// call sites may pass anything (e.g. "Blog") and it is stored verbatim.
const (
	PlatformTwitter   = "twitter"
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
	PlatformLinkedIn  = "linkedin"
)

// CreatePostRequest is the request body for POST /api/posts.
type CreatePostRequest struct {
	Platform string `json:"platform"`
	Content  string `json:"content"`
}

// PostResponse wraps a single created post.
type PostResponse struct {
	Post *Post `json:"post"`
}

// PostListResponse wraps the owner-scoped post list, newest first.
type PostListResponse struct {
	Posts []Post `json:"posts"`
}

// Post errors
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrMissingPlatform = errors.New("platform is required")
	ErrMissingContent  = errors.New("content is required")
)
