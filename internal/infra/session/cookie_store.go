package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkrupp/homecase-blog/internal/infra/logging"
)

type cookieClaims struct {
	jwt.RegisteredClaims
	data
}

// CookieStore keeps the whole session in an HS256-signed JWT cookie.
// The client can read the values but cannot change them.
type CookieStore struct {
	cfg Config
	key []byte
	log logging.Logger
	now func() time.Time
}

var _ Store = (*CookieStore)(nil)

// NewCookieStore returns a store signing with cfg.SecretKey.
func NewCookieStore(cfg Config) (*CookieStore, error) {
	if cfg.SecretKey == "" {
		return nil, ErrNoSecretKey
	}

	return &CookieStore{
		cfg: cfg,
		key: []byte(cfg.SecretKey),
		log: logging.GetLogger("infra.session.cookie_store"),
		now: time.Now,
	}, nil
}

// Load implements Store.Load.
func (s *CookieStore) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(s.cfg.CookieName)
	if err != nil {
		return New(), nil //nolint:nilerr
	}

	var claims cookieClaims

	_, err = jwt.ParseWithClaims(cookie.Value, &claims,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		s.log.DebugContext(ctx, "session cookie rejected", "error", err)

		return New(), nil
	}

	return &Session{data: claims.data}, nil
}

// Save implements Store.Save. An empty session expires the cookie.
func (s *CookieStore) Save(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if !sess.Modified() {
		return nil
	}

	if sess.IsEmpty() {
		http.SetCookie(w, s.cfg.cookie("", 0))
		sess.saved("")

		return nil
	}

	now := s.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.MaxAge)),
		},
		data: sess.data,
	})

	signed, err := token.SignedString(s.key)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	http.SetCookie(w, s.cfg.cookie(signed, s.cfg.MaxAge))
	sess.saved("")

	return nil
}

// Close implements Store.Close.
func (s *CookieStore) Close() error {
	return nil
}
