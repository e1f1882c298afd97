package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/homecase-blog/internal/domain"
	"github.com/mkrupp/homecase-blog/internal/infra/database"
	"github.com/mkrupp/homecase-blog/internal/infra/logging"
)

const pgUniqueViolation = "23505"

// SQLUserRepository implements Repository on the "user" table.
type SQLUserRepository struct {
	db  *database.DB
	log logging.Logger
	now func() time.Time
}

var _ Repository = (*SQLUserRepository)(nil)

// NewSQLUserRepository returns a repository backed by db. The schema must
// already be migrated.
func NewSQLUserRepository(db *database.DB) *SQLUserRepository {
	return &SQLUserRepository{
		db:  db,
		log: logging.GetLogger("repo.user.sql_user_repository"),
		now: time.Now,
	}
}

// CreateUser implements Repository.CreateUser.
func (r *SQLUserRepository) CreateUser(ctx context.Context, u *domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.now().UTC()
	}

	err := r.db.QueryRowContext(ctx,
		r.db.Rebind(`INSERT INTO "user" (username, password, email, created) VALUES (?, ?, ?, ?) RETURNING id`),
		u.Username,
		u.PasswordHash,
		u.Email,
		u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			err = errors.Join(domain.ErrUserAlreadyExists, err)
		}

		return fmt.Errorf("insert user: %w", err)
	}

	r.log.DebugContext(ctx, "user inserted", logging.Group("user", "id", u.ID, "username", u.Username))

	return nil
}

// GetUserByUsername implements Repository.GetUserByUsername.
func (r *SQLUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	return r.getUser(ctx, `username = ?`, username)
}

// GetUserByID implements Repository.GetUserByID.
func (r *SQLUserRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, bool, error) {
	return r.getUser(ctx, `id = ?`, id)
}

func (r *SQLUserRepository) getUser(ctx context.Context, where string, arg any) (*domain.User, bool, error) {
	var u domain.User

	err := r.db.QueryRowContext(ctx,
		r.db.Rebind(`SELECT id, username, password, email, created FROM "user" WHERE `+where),
		arg,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query user: %w", err)
	}

	return &u, true, nil
}

func isUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	return false
}
