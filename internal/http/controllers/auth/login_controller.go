package auth

import (
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/schooldir/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/schooldir/internal/http/errors"
	"github.com/dropDatabas3/schooldir/internal/http/helpers"
	"github.com/dropDatabas3/schooldir/internal/observability/logger"
	"github.com/dropDatabas3/schooldir/internal/session"
)

// LoginController maneja POST /v1/auth/login y POST /v1/auth/second-factor.
type LoginController struct {
	machine  *session.Machine
	sessions *helpers.Sessions
}

// Login verifica credenciales. Usuarios quedan autenticados; administradores
// quedan pendientes del código enviado por email.
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	sess, token := c.sessions.Load(r)

	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email and password are required"))
		return
	}

	res, err := c.machine.Login(ctx, sess, req.Email, req.Password)
	if err != nil {
		c.sessions.Reject(w, r, token, err)
		return
	}
	if err := c.sessions.Commit(w, r, token, sess); err != nil {
		log.Error("session save failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	resp := dto.LoginResponse{
		State:           res.State.String(),
		DeliveryWarning: res.DeliveryWarning(),
	}
	if res.Principal != nil {
		resp.User = dto.NewUserResponse(*res.Principal)
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// SecondFactor confirma el código. Un código incorrecto deja la sesión
// pendiente y se puede reintentar.
func (c *LoginController) SecondFactor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.SecondFactor"))

	sess, token := c.sessions.Load(r)

	var req dto.SecondFactorRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	p, err := c.machine.SubmitSecondFactor(ctx, sess, strings.TrimSpace(req.Code))
	if err != nil {
		c.sessions.Reject(w, r, token, err)
		return
	}
	if err := c.sessions.Commit(w, r, token, sess); err != nil {
		log.Error("session save failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.SessionResponse{
		State: session.StateAuthenticated.String(),
		User:  dto.NewUserResponse(*p),
	})
}
