package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/schooldir/internal/http/dto/auth"
	"github.com/dropDatabas3/schooldir/internal/http/helpers"
	"github.com/dropDatabas3/schooldir/internal/session"
)

// SessionController maneja GET /v1/auth/session y GET /v1/me.
type SessionController struct {
	machine  *session.Machine
	sessions *helpers.Sessions
}

// State informa el estado de la sesión. Una sesión autenticada pasa por el
// guard, así que un usuario baneado recibe ACCOUNT_DEACTIVATED.
func (c *SessionController) State(w http.ResponseWriter, r *http.Request) {
	sess, token := c.sessions.Load(r)

	resp := dto.SessionResponse{State: sess.State().String()}
	if sess.State() == session.StateAuthenticated {
		p, err := c.machine.RequireSession(r.Context(), sess)
		if err != nil {
			c.sessions.Reject(w, r, token, err)
			return
		}
		resp.User = dto.NewUserResponse(p)
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Me retorna el usuario autenticado.
func (c *SessionController) Me(w http.ResponseWriter, r *http.Request) {
	sess, token := c.sessions.Load(r)
	p, err := c.machine.RequireSession(r.Context(), sess)
	if err != nil {
		c.sessions.Reject(w, r, token, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewUserResponse(p))
}
