// Package auth contiene los controllers de sesión: login, segundo factor,
// logout, registro y el perfil propio (/v1/me).
package auth

import (
	"github.com/dropDatabas3/schooldir/internal/http/helpers"
	"github.com/dropDatabas3/schooldir/internal/session"
)

// Controllers agrupa los controllers del dominio auth.
type Controllers struct {
	Login    *LoginController
	Logout   *LogoutController
	Session  *SessionController
	Register *RegisterController
	Profile  *ProfileController
}

func NewControllers(m *session.Machine, s *helpers.Sessions) *Controllers {
	return &Controllers{
		Login:    &LoginController{machine: m, sessions: s},
		Logout:   &LogoutController{machine: m, sessions: s},
		Session:  &SessionController{machine: m, sessions: s},
		Register: &RegisterController{machine: m, sessions: s},
		Profile:  &ProfileController{machine: m, sessions: s},
	}
}
