package post

import (
	"context"

	"github.com/mkrupp/homecase-blog/internal/domain"
)

// Repository defines the interface for blog post persistence.
// Reads fill Post.AuthorUsername. Writes to a missing post return ErrPostNotFound.
type Repository interface {
	ListPosts(ctx context.Context) ([]domain.Post, error)
	GetPost(ctx context.Context, id int64) (*domain.Post, error)
	CreatePost(ctx context.Context, p *domain.Post) error
	UpdatePost(ctx context.Context, id int64, title, body string) error
	DeletePost(ctx context.Context, id int64) error
}
