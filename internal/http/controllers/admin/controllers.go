// Package admin contiene los controllers de /v1/admin. Cada handler corre
// RequireAdminSession antes de hacer nada.
package admin

import (
	"net/http"

	"github.com/dropDatabas3/schooldir/internal/accounts"
	"github.com/dropDatabas3/schooldir/internal/http/helpers"
	"github.com/dropDatabas3/schooldir/internal/schools"
	"github.com/dropDatabas3/schooldir/internal/session"
)

// Controllers agrupa los controllers admin.
type Controllers struct {
	Users   *UsersController
	Schools *SchoolsController
}

func NewControllers(acc *accounts.Service, sch *schools.Service, m *session.Machine, s *helpers.Sessions) *Controllers {
	g := guard{machine: m, sessions: s}
	return &Controllers{
		Users:   &UsersController{guard: g, service: acc},
		Schools: &SchoolsController{guard: g, service: sch},
	}
}

type guard struct {
	machine  *session.Machine
	sessions *helpers.Sessions
}

// requireAdmin corre el guard de admin; si falla ya escribió la respuesta.
func (g guard) requireAdmin(w http.ResponseWriter, r *http.Request) (session.Principal, bool) {
	sess, token := g.sessions.Load(r)
	p, err := g.machine.RequireAdminSession(r.Context(), sess)
	if err != nil {
		g.sessions.Reject(w, r, token, err)
		return session.Principal{}, false
	}
	return p, true
}
