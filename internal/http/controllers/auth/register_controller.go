package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/schooldir/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/schooldir/internal/http/errors"
	"github.com/dropDatabas3/schooldir/internal/http/helpers"
	"github.com/dropDatabas3/schooldir/internal/observability/logger"
	"github.com/dropDatabas3/schooldir/internal/session"
)

// RegisterController maneja POST /v1/auth/register.
type RegisterController struct {
	machine  *session.Machine
	sessions *helpers.Sessions
}

// Register da de alta al usuario y lo deja logueado.
func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RegisterController.Register"))

	sess, token := c.sessions.Load(r)

	var req dto.RegisterRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	p, err := c.machine.Register(ctx, sess, session.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		c.sessions.Reject(w, r, token, err)
		return
	}
	if err := c.sessions.Commit(w, r, token, sess); err != nil {
		log.Error("session save failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, dto.SessionResponse{
		State: session.StateAuthenticated.String(),
		User:  dto.NewUserResponse(*p),
	})
}
