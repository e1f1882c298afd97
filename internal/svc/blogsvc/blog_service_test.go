package blogsvc_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-blog/internal/domain"
	"github.com/mkrupp/homecase-blog/internal/infra/logging"
	"github.com/mkrupp/homecase-blog/internal/svc/blogsvc"
)

// mockPostRepository implements post.Repository for testing.
type mockPostRepository struct {
	posts  map[int64]*domain.Post
	nextID int64
	err    error
	m      sync.Mutex
}

func newMockPostRepo() *mockPostRepository {
	return &mockPostRepository{posts: make(map[int64]*domain.Post)}
}

func (m *mockPostRepository) ListPosts(_ context.Context) ([]domain.Post, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	posts := make([]domain.Post, 0, len(m.posts))
	for _, p := range m.posts {
		posts = append(posts, *p)
	}

	sort.Slice(posts, func(i, j int) bool { return posts[i].ID > posts[j].ID })

	return posts, nil
}

func (m *mockPostRepository) GetPost(_ context.Context, id int64) (*domain.Post, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	p, ok := m.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}

	cp := *p

	return &cp, nil
}

func (m *mockPostRepository) CreatePost(_ context.Context, p *domain.Post) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}

	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.posts[p.ID] = &cp

	return nil
}

func (m *mockPostRepository) UpdatePost(_ context.Context, id int64, title, body string) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}

	p, ok := m.posts[id]
	if !ok {
		return domain.ErrPostNotFound
	}

	p.Title, p.Body = title, body

	return nil
}

func (m *mockPostRepository) DeletePost(_ context.Context, id int64) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}

	if _, ok := m.posts[id]; !ok {
		return domain.ErrPostNotFound
	}

	delete(m.posts, id)

	return nil
}

var ErrRepoError = errors.New("repository error")

var (
	alice = &domain.User{ID: 1, Username: "alice"}
	bob   = &domain.User{ID: 2, Username: "bob"}
)

func setupTestService(t *testing.T) (*blogsvc.BlogService, *mockPostRepository) {
	t.Helper()

	repo := newMockPostRepo()

	return &blogsvc.BlogService{
		PostRepo: repo,
		Log:      logging.NewNopLogger(),
	}, repo
}

func TestPostForm_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, blogsvc.PostForm{Title: "t"}.Validate())
	assert.ErrorIs(t, blogsvc.PostForm{Body: "b"}.Validate(), blogsvc.ErrTitleRequired)
}

func TestBlogService_CreatePost(t *testing.T) {
	t.Parallel()

	svc, repo := setupTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePost(ctx, alice, blogsvc.PostForm{Title: "created", Body: "text"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, alice.ID, p.AuthorID)
	assert.Equal(t, "alice", p.AuthorUsername)

	_, err = svc.CreatePost(ctx, alice, blogsvc.PostForm{Body: "text"})
	require.ErrorIs(t, err, blogsvc.ErrTitleRequired)

	repo.m.Lock()
	repo.err = ErrRepoError
	repo.m.Unlock()

	_, err = svc.CreatePost(ctx, alice, blogsvc.PostForm{Title: "t"})
	require.ErrorIs(t, err, ErrRepoError)

	repo.m.Lock()
	assert.Len(t, repo.posts, 1)
	repo.m.Unlock()
}

func TestBlogService_ListPosts(t *testing.T) {
	t.Parallel()

	svc, repo := setupTestService(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second"} {
		_, err := svc.CreatePost(ctx, alice, blogsvc.PostForm{Title: title})
		require.NoError(t, err)
	}

	posts, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "second", posts[0].Title)

	repo.err = ErrRepoError

	_, err = svc.ListPosts(ctx)
	require.ErrorIs(t, err, ErrRepoError)
}

func TestBlogService_GetPost(t *testing.T) {
	t.Parallel()

	svc, _ := setupTestService(t)
	ctx := context.Background()

	created, err := svc.CreatePost(ctx, alice, blogsvc.PostForm{Title: "mine"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		id      int64
		author  *domain.User
		wantErr error
	}{
		{"any reader", created.ID, nil, nil},
		{"author", created.ID, alice, nil},
		{"other user", created.ID, bob, domain.ErrForbidden},
		{"missing", 99, alice, domain.ErrPostNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := svc.GetPost(ctx, tt.id, tt.author)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "mine", p.Title)
		})
	}
}

func TestBlogService_UpdatePost(t *testing.T) {
	t.Parallel()

	svc, repo := setupTestService(t)
	ctx := context.Background()

	created, err := svc.CreatePost(ctx, alice, blogsvc.PostForm{Title: "before"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		author  *domain.User
		form    blogsvc.PostForm
		wantErr error
	}{
		{"missing post wins over empty title", alice, blogsvc.PostForm{ID: 99}, domain.ErrPostNotFound},
		{"forbidden wins over empty title", bob, blogsvc.PostForm{ID: created.ID}, domain.ErrForbidden},
		{"empty title", alice, blogsvc.PostForm{ID: created.ID}, blogsvc.ErrTitleRequired},
		{"updated", alice, blogsvc.PostForm{ID: created.ID, Title: "after", Body: "new"}, nil},
	}

	//nolint:paralleltest
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.UpdatePost(ctx, tt.author, tt.form)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
		})
	}

	repo.m.Lock()
	defer repo.m.Unlock()

	assert.Equal(t, "after", repo.posts[created.ID].Title)
	assert.Equal(t, "new", repo.posts[created.ID].Body)
}

func TestBlogService_DeletePost(t *testing.T) {
	t.Parallel()

	svc, repo := setupTestService(t)
	ctx := context.Background()

	created, err := svc.CreatePost(ctx, alice, blogsvc.PostForm{Title: "doomed"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeletePost(ctx, bob, created.ID), domain.ErrForbidden)
	require.ErrorIs(t, svc.DeletePost(ctx, alice, 99), domain.ErrPostNotFound)
	require.NoError(t, svc.DeletePost(ctx, alice, created.ID))

	repo.m.Lock()
	assert.Empty(t, repo.posts)
	repo.m.Unlock()

	require.ErrorIs(t, svc.DeletePost(ctx, alice, created.ID), domain.ErrPostNotFound)
}

func TestBlogService_LogLevels(t *testing.T) {
	t.Parallel()

	svc, repo := setupTestService(t)
	ctx := context.Background()

	var buf bytes.Buffer

	//nolint:exhaustruct
	svc.Log = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	created, err := svc.CreatePost(ctx, alice, blogsvc.PostForm{Title: "mine"})
	require.NoError(t, err)

	lastLevel := func() string {
		t.Helper()

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))

		var rec struct {
			Level string `json:"level"`
			Msg   string `json:"msg"`
		}
		require.NoError(t, json.Unmarshal(lines[len(lines)-1], &rec))

		return rec.Level + " " + rec.Msg
	}

	assert.Equal(t, "DEBUG post created", lastLevel())

	_ = svc.UpdatePost(ctx, bob, blogsvc.PostForm{ID: created.ID, Title: "x"})
	assert.Equal(t, "INFO update post failed", lastLevel())

	_ = svc.DeletePost(ctx, alice, 99)
	assert.Equal(t, "INFO delete post failed", lastLevel())

	_, _ = svc.CreatePost(ctx, alice, blogsvc.PostForm{})
	assert.Equal(t, "INFO create post failed", lastLevel())

	repo.m.Lock()
	repo.err = ErrRepoError
	repo.m.Unlock()

	_ = svc.DeletePost(ctx, alice, created.ID)
	assert.Equal(t, "ERROR delete post failed", lastLevel())
}
