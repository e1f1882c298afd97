package blogsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrupp/homecase-blog/internal/domain"
	"github.com/mkrupp/homecase-blog/internal/infra/logging"
	"github.com/mkrupp/homecase-blog/internal/repo/post"
)

// ErrTitleRequired is returned when a post is submitted without a title.
var ErrTitleRequired = errors.New("title required")

// PostForm is the submitted create or update form.
type PostForm struct {
	ID    int64
	Title string
	Body  string
}

// Validate returns ErrTitleRequired for an empty title.
func (f PostForm) Validate() error {
	if f.Title == "" {
		return ErrTitleRequired
	}

	return nil
}

// isRequestError reports whether err was caused by the request itself: an
// invalid form, a missing post or another author's post.
func isRequestError(err error) bool {
	return errors.Is(err, ErrTitleRequired) ||
		errors.Is(err, domain.ErrForbidden) ||
		errors.Is(err, domain.ErrPostNotFound)
}

func logResult(ctx context.Context, log logging.Logger, err error, failed, succeeded string) {
	switch {
	case err == nil:
		log.DebugContext(ctx, succeeded)
	case isRequestError(err):
		log.InfoContext(ctx, failed, "reason", err)
	default:
		log.ErrorContext(ctx, failed, "error", err)
	}
}

// BlogService manages posts on behalf of logged in users.
type BlogService struct {
	PostRepo post.Repository
	Log      logging.Logger
}

// NewBlogService creates a new BlogService on top of postRepo.
func NewBlogService(postRepo post.Repository) *BlogService {
	return &BlogService{
		PostRepo: postRepo,
		Log:      logging.GetLogger("svc.blogsvc.blog_service"),
	}
}

// ListPosts returns all posts, newest first.
func (s *BlogService) ListPosts(ctx context.Context) ([]domain.Post, error) {
	posts, err := s.PostRepo.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	return posts, nil
}

// GetPost returns post id. If author is not nil the post must have been
// written by author, otherwise domain.ErrForbidden is returned.
func (s *BlogService) GetPost(ctx context.Context, id int64, author *domain.User) (*domain.Post, error) {
	p, err := s.PostRepo.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	if author != nil && !p.IsAuthoredBy(author) {
		return nil, domain.ErrForbidden
	}

	return p, nil
}

// CreatePost stores a new post by author.
func (s *BlogService) CreatePost(ctx context.Context, author *domain.User, form PostForm) (_ *domain.Post, err error) {
	log := s.Log.With(logging.Group("post", "author_id", author.ID))

	defer func() {
		logResult(ctx, log, err, "create post failed", "post created")
	}()

	if err := form.Validate(); err != nil {
		return nil, err
	}

	p := &domain.Post{
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Title:          form.Title,
		Body:           form.Body,
	}

	if err := s.PostRepo.CreatePost(ctx, p); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	return p, nil
}

// UpdatePost changes title and body of a post written by author.
func (s *BlogService) UpdatePost(ctx context.Context, author *domain.User, form PostForm) (err error) {
	log := s.Log.With(logging.Group("post", "id", form.ID, "author_id", author.ID))

	defer func() {
		logResult(ctx, log, err, "update post failed", "post updated")
	}()

	if _, err := s.GetPost(ctx, form.ID, author); err != nil {
		return err
	}

	if err := form.Validate(); err != nil {
		return err
	}

	if err := s.PostRepo.UpdatePost(ctx, form.ID, form.Title, form.Body); err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	return nil
}

// DeletePost removes a post written by author.
func (s *BlogService) DeletePost(ctx context.Context, author *domain.User, id int64) (err error) {
	log := s.Log.With(logging.Group("post", "id", id, "author_id", author.ID))

	defer func() {
		logResult(ctx, log, err, "delete post failed", "post deleted")
	}()

	if _, err := s.GetPost(ctx, id, author); err != nil {
		return err
	}

	if err := s.PostRepo.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	return nil
}
