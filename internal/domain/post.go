package domain

import (
	"errors"
	"time"
)

var (
	// ErrPostNotFound is returned when looking up a non-existent post.
	ErrPostNotFound = errors.New("post not found")
	// ErrForbidden is returned when a user modifies a post written by someone else.
	ErrForbidden = errors.New("forbidden")
)

// Post is a blog entry.
type Post struct {
	ID             int64
	AuthorID       int64
	AuthorUsername string // filled by reads that join the author
	Title          string
	Body           string
	CreatedAt      time.Time
}

// IsAuthoredBy reports whether u wrote the post.
func (p *Post) IsAuthoredBy(u *User) bool {
	return u != nil && p.AuthorID == u.ID
}
