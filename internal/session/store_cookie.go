package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/schooldir/internal/observability/logger"
)

// CookieStore es el backend sin estado en servidor: la sesión completa viaja
// en el cookie como JWT HS256. Cada Save emite un token nuevo, así que la
// rotación es implícita; Destroy no puede invalidar tokens ya emitidos antes
// de su exp.
type CookieStore struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewCookieStore crea el store. key debe tener al menos 32 bytes.
func NewCookieStore(key []byte, ttl time.Duration) (*CookieStore, error) {
	if len(key) < 32 {
		return nil, errors.New("session: cookie store key must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &CookieStore{key: append([]byte(nil), key...), ttl: ttl, now: time.Now}, nil
}

type cookieClaims struct {
	Session json.RawMessage `json:"sess"`
	jwt.RegisteredClaims
}

// Load implements Store.
func (st *CookieStore) Load(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return New(), nil
	}

	var claims cookieClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return st.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(st.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		logger.From(ctx).Debug("session cookie rejected", logger.Component("session.cookie"), logger.Err(err))
		return New(), nil
	}

	s := New()
	if err := json.Unmarshal(claims.Session, s); err != nil {
		logger.From(ctx).Warn("discarding malformed session", logger.Component("session.cookie"), logger.Err(err))
		return New(), nil
	}
	return s, nil
}

// Save implements Store.
func (st *CookieStore) Save(_ context.Context, _ string, s *Session) (string, error) {
	if s.State() == StateAnonymous {
		return "", nil
	}
	body, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	now := st.now()
	claims := cookieClaims{
		Session: body,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(st.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(st.key)
}

// Destroy implements Store. El handler borra el cookie.
func (st *CookieStore) Destroy(context.Context, string) error { return nil }
