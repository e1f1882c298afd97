package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Supported values of Config.Backend.
const (
	BackendCookie = "cookie"
	BackendRedis  = "redis"
)

var (
	// ErrUnsupportedBackend is returned by NewStore for an unknown Config.Backend.
	ErrUnsupportedBackend = errors.New("unsupported session backend")
	// ErrNoSecretKey is returned when the cookie store has nothing to sign with.
	ErrNoSecretKey = errors.New("session secret key not set")
)

// Config configures the session cookie and its backend.
type Config struct {
	// Backend is "cookie" or "redis"
	Backend    string        `env:"BACKEND" default:"cookie"`
	CookieName string        `env:"COOKIE_NAME" default:"session"`
	SecretKey  string        `env:"SECRET_KEY" default:"dev"`
	MaxAge     time.Duration `env:"MAX_AGE" default:"744h"`
	// Secure restricts the cookie to HTTPS
	Secure bool `env:"SECURE" default:"false"`

	Redis RedisConfig `envPrefix:"REDIS_"`
}

// RedisConfig locates the redis server of the redis backend.
type RedisConfig struct {
	Addr      string `env:"ADDR" default:"localhost:6379"`
	Password  string `env:"PASSWORD" default:""`
	DB        int    `env:"DB" default:"0"`
	KeyPrefix string `env:"KEY_PREFIX" default:"session:"`
}

// Store loads and persists sessions.
type Store interface {
	// Load returns the session of the request. Missing, expired or forged
	// cookies yield a new empty session, not an error.
	Load(ctx context.Context, r *http.Request) (*Session, error)

	// Save persists s if it was modified and sets the cookie on w.
	// It must be called before the response header is written.
	Save(ctx context.Context, w http.ResponseWriter, s *Session) error

	Close() error
}

// NewStore builds the configured backend.
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendCookie:
		store, err := NewCookieStore(cfg)
		if err != nil {
			return nil, err
		}

		return store, nil
	case BackendRedis:
		//nolint:exhaustruct
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()

		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("ping redis: %w", err)
		}

		return NewRedisStore(client, cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, cfg.Backend)
	}
}

func (cfg Config) cookie(value string, maxAge time.Duration) *http.Cookie {
	//nolint:exhaustruct
	c := &http.Cookie{
		Name:     cfg.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	if maxAge > 0 {
		c.MaxAge = int(maxAge / time.Second)
		c.Expires = time.Now().Add(maxAge)
	} else {
		c.MaxAge = -1
	}

	return c
}
