package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkrupp/homecase-blog/internal/domain"
	"github.com/mkrupp/homecase-blog/internal/infra/database"
	"github.com/mkrupp/homecase-blog/internal/infra/logging"
)

const selectPosts = `
	SELECT p.id, p.author_id, u.username, p.title, p.body, p.created
	FROM post p JOIN "user" u ON p.author_id = u.id`

// SQLPostRepository implements Repository on the post table.
type SQLPostRepository struct {
	db  *database.DB
	log logging.Logger
	now func() time.Time
}

var _ Repository = (*SQLPostRepository)(nil)

// NewSQLPostRepository returns a repository backed by db.
func NewSQLPostRepository(db *database.DB) *SQLPostRepository {
	return &SQLPostRepository{
		db:  db,
		log: logging.GetLogger("repo.post.sql_post_repository"),
		now: time.Now,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (domain.Post, error) {
	var p domain.Post

	err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorUsername, &p.Title, &p.Body, &p.CreatedAt)

	//nolint:wrapcheck
	return p, err
}

// ListPosts implements Repository.ListPosts, newest first.
func (r *SQLPostRepository) ListPosts(ctx context.Context) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, selectPosts+` ORDER BY p.created DESC, p.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post

	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}

		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}

// GetPost implements Repository.GetPost.
func (r *SQLPostRepository) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, r.db.Rebind(selectPosts+` WHERE p.id = ?`), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrPostNotFound, err)
		}

		return nil, fmt.Errorf("query post: %w", err)
	}

	return &p, nil
}

// CreatePost implements Repository.CreatePost and sets p.ID.
func (r *SQLPostRepository) CreatePost(ctx context.Context, p *domain.Post) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.now().UTC()
	}

	err := r.db.QueryRowContext(ctx,
		r.db.Rebind(`INSERT INTO post (author_id, title, body, created) VALUES (?, ?, ?, ?) RETURNING id`),
		p.AuthorID,
		p.Title,
		p.Body,
		p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	r.log.DebugContext(ctx, "post inserted", logging.Group("post", "id", p.ID, "author_id", p.AuthorID))

	return nil
}

// UpdatePost implements Repository.UpdatePost.
func (r *SQLPostRepository) UpdatePost(ctx context.Context, id int64, title, body string) error {
	res, err := r.db.ExecContext(ctx,
		r.db.Rebind(`UPDATE post SET title = ?, body = ? WHERE id = ?`),
		title, body, id,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	return expectAffected(res)
}

// DeletePost implements Repository.DeletePost.
func (r *SQLPostRepository) DeletePost(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM post WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return domain.ErrPostNotFound
	}

	return nil
}
