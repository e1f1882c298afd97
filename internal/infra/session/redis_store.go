package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mkrupp/homecase-blog/internal/infra/logging"
)

// RedisStore keeps session values in redis. The cookie only carries a
// random session ID; values expire together with the cookie.
type RedisStore struct {
	client *redis.Client
	cfg    Config
	log    logging.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore returns a store on client. The store owns the client.
func NewRedisStore(client *redis.Client, cfg Config) *RedisStore {
	return &RedisStore{
		client: client,
		cfg:    cfg,
		log:    logging.GetLogger("infra.session.redis_store"),
	}
}

func (s *RedisStore) key(id string) string {
	return s.cfg.Redis.KeyPrefix + id
}

// Load implements Store.Load.
func (s *RedisStore) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(s.cfg.CookieName)
	if err != nil {
		return New(), nil //nolint:nilerr
	}

	if _, err := uuid.Parse(cookie.Value); err != nil {
		s.log.DebugContext(ctx, "malformed session id", "error", err)

		return New(), nil
	}

	payload, err := s.client.Get(ctx, s.key(cookie.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(), nil
		}

		return nil, fmt.Errorf("get session: %w", err)
	}

	sess := &Session{id: cookie.Value}

	if err := json.Unmarshal(payload, &sess.data); err != nil {
		s.log.WarnContext(ctx, "corrupt session dropped", "error", err)

		return New(), nil
	}

	return sess, nil
}

// Save implements Store.Save. Cleared sessions get a new ID and empty
// sessions are removed from redis.
func (s *RedisStore) Save(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if !sess.Modified() {
		return nil
	}

	id := sess.ID()

	if id != "" && (sess.renew || sess.IsEmpty()) {
		if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}

		id = ""
	}

	if sess.IsEmpty() {
		http.SetCookie(w, s.cfg.cookie("", 0))
		sess.saved("")

		return nil
	}

	if id == "" {
		id = uuid.NewString()
	}

	payload, err := json.Marshal(sess.data)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.key(id), payload, s.cfg.MaxAge).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}

	http.SetCookie(w, s.cfg.cookie(id, s.cfg.MaxAge))
	sess.saved(id)

	return nil
}

// Close implements Store.Close.
func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}

	return nil
}
