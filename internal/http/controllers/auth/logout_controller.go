package auth

import (
	"net/http"

	"github.com/dropDatabas3/schooldir/internal/http/helpers"
	"github.com/dropDatabas3/schooldir/internal/session"
)

// LogoutController maneja POST /v1/auth/logout.
type LogoutController struct {
	machine  *session.Machine
	sessions *helpers.Sessions
}

// Logout borra la sesión local siempre. Si el provider falla se responde
// PROVIDER_ERROR igual con la cookie ya borrada.
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	sess, token := c.sessions.Load(r)

	err := c.machine.Logout(r.Context(), sess)
	c.sessions.Destroy(w, r, token)
	if err != nil {
		c.sessions.Reject(w, r, "", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
