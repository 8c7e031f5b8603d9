package helpers

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/schooldir/internal/http/errors"
	"github.com/dropDatabas3/schooldir/internal/observability/logger"
	"github.com/dropDatabas3/schooldir/internal/session"
)

// Sessions une el session.Store con la cookie: cada request carga la sesión
// del token de la cookie y, si la sesión cambió, la persiste y reescribe la
// cookie con el token (posiblemente rotado) que devolvió el store.
type Sessions struct {
	Store  session.Store
	Cookie CookieConfig
}

// Load nunca falla hacia el handler: sin cookie, token inválido o error del
// backend resultan en una sesión Anonymous.
func (s *Sessions) Load(r *http.Request) (*session.Session, string) {
	ck, err := r.Cookie(s.Cookie.Name)
	if err != nil || ck.Value == "" {
		return session.New(), ""
	}
	sess, err := s.Store.Load(r.Context(), ck.Value)
	if err != nil {
		logger.From(r.Context()).Warn("session load failed", logger.Component("session"), logger.Err(err))
		return session.New(), ck.Value
	}
	return sess, ck.Value
}

// Commit persiste sess. Una sesión Anonymous borra la cookie.
func (s *Sessions) Commit(w http.ResponseWriter, r *http.Request, token string, sess *session.Session) error {
	newToken, err := s.Store.Save(r.Context(), token, sess)
	if err != nil {
		return err
	}
	if newToken == "" {
		if token != "" {
			http.SetCookie(w, s.Cookie.DeletionCookie())
		}
		return nil
	}
	if newToken != token {
		http.SetCookie(w, s.Cookie.Cookie(newToken))
	}
	return nil
}

// Destroy elimina la sesión del backend y borra la cookie.
func (s *Sessions) Destroy(w http.ResponseWriter, r *http.Request, token string) {
	if token != "" {
		if err := s.Store.Destroy(r.Context(), token); err != nil {
			logger.From(r.Context()).Warn("session destroy failed", logger.Component("session"), logger.Err(err))
		}
	}
	http.SetCookie(w, s.Cookie.DeletionCookie())
}

// Reject escribe el error de un guard o transición. Si la cuenta está
// desactivada o el provider revocó la sesión, la sesión guardada se destruye
// y la cookie se borra.
func (s *Sessions) Reject(w http.ResponseWriter, r *http.Request, token string, err error) {
	appErr := httperrors.FromSession(err)
	if errors.Is(err, session.ErrSessionRevoked) {
		s.Destroy(w, r, token)
	}
	switch session.KindOf(err) {
	case session.ErrAccountDeactivated:
		s.Destroy(w, r, token)
	case session.ErrProviderError, nil:
		logger.From(r.Context()).Error("request failed", logger.Err(err))
	}
	httperrors.WriteError(w, appErr)
}
