package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/schooldir/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/schooldir/internal/http/errors"
	"github.com/dropDatabas3/schooldir/internal/http/helpers"
	"github.com/dropDatabas3/schooldir/internal/observability/logger"
	"github.com/dropDatabas3/schooldir/internal/session"
)

// ProfileController maneja PATCH /v1/me.
type ProfileController struct {
	machine  *session.Machine
	sessions *helpers.Sessions
}

// Update cambia nombre y/o password. UpdateProfile corre el guard de sesión
// antes de tocar nada. Si el nombre se aplicó y el password falló, la sesión
// se guarda con el nombre nuevo y se responde PASSWORD_UPDATE_FAILED.
func (c *ProfileController) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ProfileController.Update"))

	sess, token := c.sessions.Load(r)

	var req dto.UpdateProfileRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	res, err := c.machine.UpdateProfile(ctx, sess, session.ProfileUpdate{
		Name:            req.Name,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if res != nil && res.NameUpdated {
		if cerr := c.sessions.Commit(w, r, token, sess); cerr != nil {
			log.Error("session save failed", logger.Err(cerr))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
			return
		}
	}
	if err != nil {
		c.sessions.Reject(w, r, token, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.UpdateProfileResponse{
		User:            *dto.NewUserResponse(res.Principal),
		NameUpdated:     res.NameUpdated,
		PasswordUpdated: res.PasswordUpdated,
	})
}
