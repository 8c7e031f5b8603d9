// Package router arma el chi.Router con todas las rutas de la API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	adminctrl "github.com/dropDatabas3/schooldir/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/schooldir/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/schooldir/internal/http/controllers/health"
	schoolsctrl "github.com/dropDatabas3/schooldir/internal/http/controllers/schools"
	httperrors "github.com/dropDatabas3/schooldir/internal/http/errors"
	"github.com/dropDatabas3/schooldir/internal/http/helpers"
	mw "github.com/dropDatabas3/schooldir/internal/http/middlewares"
	"github.com/dropDatabas3/schooldir/internal/identity"
	"github.com/dropDatabas3/schooldir/internal/metrics"
	"github.com/dropDatabas3/schooldir/internal/rate"
)

// Limits son los rate limiters por endpoint sensible. nil = sin límite.
type Limits struct {
	Login        rate.Limiter
	SecondFactor rate.Limiter
	Register     rate.Limiter
}

// Deps contiene todo lo que necesita el router.
type Deps struct {
	Auth    *authctrl.Controllers
	Schools *schoolsctrl.Controller
	Admin   *adminctrl.Controllers
	Health  *healthctrl.Controller

	Metrics *metrics.Metrics // opcional
	Limits  Limits

	// Sessions resuelve el usuario pendiente para el límite de segundo factor.
	Sessions *helpers.Sessions
	// TrustedProxies decide cuándo vale X-Forwarded-For.
	TrustedProxies mw.TrustedProxies
}

// New registra las rutas.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRecover(), mw.WithRequestID(), mw.WithClientIP(d.TrustedProxies), mw.WithLogging(), mw.WithSecurityHeaders())
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	r.Get("/healthz", d.Health.Healthz)
	r.Get("/readyz", d.Health.Readyz)

	r.Route("/v1", func(r chi.Router) {
		// todo bajo /v1 depende de la sesión
		r.Use(mw.WithNoStore())

		registerAuthRoutes(r, d)
		registerSchoolRoutes(r, d)
		registerAdminRoutes(r, d)
	})

	return r
}

func registerAuthRoutes(r chi.Router, d Deps) {
	c := d.Auth

	r.With(mw.WithRateLimit(d.Limits.Register, "register")).Post("/auth/register", c.Register.Register)
	// login cuenta por IP y por email: rotar IPs no multiplica los intentos
	// sobre una cuenta
	r.With(mw.WithRateLimit(d.Limits.Login, "login",
		mw.ByClientIP, mw.ByJSONField("email", identity.NormalizeEmail),
	)).Post("/auth/login", c.Login.Login)
	r.With(mw.WithRateLimit(d.Limits.SecondFactor, "second_factor",
		mw.ByClientIP, pendingUser(d.Sessions),
	)).Post("/auth/second-factor", c.Login.SecondFactor)
	r.Post("/auth/logout", c.Logout.Logout)
	r.Get("/auth/session", c.Session.State)

	r.Get("/me", c.Session.Me)
	r.Patch("/me", c.Profile.Update)
}

// pendingUser cuenta los intentos de código contra el usuario pendiente, no
// contra el token: un login nuevo no reinicia el contador.
func pendingUser(s *helpers.Sessions) mw.KeyFunc {
	return func(r *http.Request) string {
		if s == nil {
			return ""
		}
		sess, _ := s.Load(r)
		if id := sess.PendingUserID(); id != "" {
			return "user:" + id
		}
		return ""
	}
}

func registerSchoolRoutes(r chi.Router, d Deps) {
	c := d.Schools

	r.Get("/schools", c.List)
	r.Get("/schools/{id}", c.Get)
	r.Put("/schools/{id}/favorite", c.AddFavorite)
	r.Delete("/schools/{id}/favorite", c.RemoveFavorite)
	r.Get("/me/favorites", c.Favorites)
}

func registerAdminRoutes(r chi.Router, d Deps) {
	u, s := d.Admin.Users, d.Admin.Schools

	r.Route("/admin", func(r chi.Router) {
		r.Get("/users", u.List)
		r.Post("/users", u.Create)
		r.Post("/users/{id}/ban", u.Ban)
		r.Post("/users/{id}/unban", u.Unban)

		r.Post("/schools", s.Create)
		r.Put("/schools/{id}", s.Update)
		r.Delete("/schools/{id}", s.Delete)
	})
}
