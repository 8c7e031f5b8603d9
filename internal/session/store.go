package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dropDatabas3/schooldir/internal/cache"
	"github.com/dropDatabas3/schooldir/internal/observability/logger"
	tokens "github.com/dropDatabas3/schooldir/internal/security/token"
)

// Store persiste sesiones detrás de un token que viaja en el cookie.
type Store interface {
	// Load nunca devuelve una sesión inválida: token vacío, desconocido,
	// expirado o corrupto resulta en una sesión Anonymous.
	Load(ctx context.Context, token string) (*Session, error)

	// Save persiste s y retorna el token a setear en el cookie. Si el estado
	// cambió respecto de lo guardado bajo token, el token se rota. Una sesión
	// Anonymous no se guarda y retorna "".
	Save(ctx context.Context, token string, s *Session) (string, error)

	// Destroy elimina la sesión. No falla si no existe.
	Destroy(ctx context.Context, token string) error
}

// CacheStore guarda el registro JSON en un cache.Client (memoria o Redis)
// bajo sess:<sha256(token)>.
type CacheStore struct {
	c   cache.Client
	ttl time.Duration
}

// NewCacheStore crea el store. ttl <= 0 usa 12h.
func NewCacheStore(c cache.Client, ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &CacheStore{c: c, ttl: ttl}
}

func cacheKey(token string) string {
	return "sess:" + tokens.SHA256Base64URL(token)
}

// Load implements Store.
func (st *CacheStore) Load(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return New(), nil
	}
	raw, err := st.c.Get(ctx, cacheKey(token))
	if cache.IsNotFound(err) {
		return New(), nil
	}
	if err != nil {
		return nil, err
	}

	s := New()
	if err := json.Unmarshal([]byte(raw), s); err != nil {
		logger.From(ctx).Warn("discarding malformed session", logger.Component("session.store"), logger.Err(err))
		_ = st.c.Delete(ctx, cacheKey(token))
		return New(), nil
	}
	return s, nil
}

// Save implements Store.
func (st *CacheStore) Save(ctx context.Context, token string, s *Session) (string, error) {
	if s.State() == StateAnonymous {
		if token != "" {
			return "", st.Destroy(ctx, token)
		}
		return "", nil
	}

	next := token
	if token == "" || st.rotationNeeded(ctx, token, s) {
		t, err := tokens.GenerateOpaqueToken(tokens.SessionTokenBytes)
		if err != nil {
			return "", err
		}
		next = t
	}

	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	if err := st.c.Set(ctx, cacheKey(next), string(b), st.ttl); err != nil {
		return "", err
	}
	if next != token && token != "" {
		if err := st.c.Delete(ctx, cacheKey(token)); err != nil {
			logger.From(ctx).Warn("old session not destroyed", logger.Component("session.store"), logger.Err(err))
		}
	}
	return next, nil
}

// rotationNeeded: cambió el estado o el usuario respecto de lo guardado.
func (st *CacheStore) rotationNeeded(ctx context.Context, token string, s *Session) bool {
	prev, err := st.Load(ctx, token)
	if err != nil {
		return true
	}
	return prev.State() != s.State() ||
		prev.UserID() != s.UserID() ||
		prev.PendingUserID() != s.PendingUserID()
}

// Destroy implements Store.
func (st *CacheStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := st.c.Delete(ctx, cacheKey(token)); err != nil && !errors.Is(err, cache.ErrNotFound) {
		return err
	}
	return nil
}
