package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/schooldir/internal/http/dto/schools"
	httperrors "github.com/dropDatabas3/schooldir/internal/http/errors"
	"github.com/dropDatabas3/schooldir/internal/http/helpers"
	"github.com/dropDatabas3/schooldir/internal/observability/logger"
	"github.com/dropDatabas3/schooldir/internal/schools"
)

// SchoolsController maneja /v1/admin/schools.
type SchoolsController struct {
	guard
	service *schools.Service
}

func (c *SchoolsController) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	appErr := httperrors.FromDomain(err)
	if appErr.HTTPStatus >= 500 {
		logger.From(r.Context()).Error("admin schools operation failed", logger.Op(op), logger.Err(err))
	}
	httperrors.WriteError(w, appErr)
}

// Create maneja POST /v1/admin/schools
func (c *SchoolsController) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.requireAdmin(w, r)
	if !ok {
		return
	}
	var req dto.SchoolRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	sc, err := c.service.Create(r.Context(), actor.UserID, req.Input())
	if err != nil {
		c.fail(w, r, "Create", err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, sc)
}

// Update maneja PUT /v1/admin/schools/{id}
func (c *SchoolsController) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.requireAdmin(w, r)
	if !ok {
		return
	}
	var req dto.SchoolRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	sc, err := c.service.Update(r.Context(), actor.UserID, chi.URLParam(r, "id"), req.Input())
	if err != nil {
		c.fail(w, r, "Update", err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, sc)
}

// Delete maneja DELETE /v1/admin/schools/{id}
func (c *SchoolsController) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.requireAdmin(w, r)
	if !ok {
		return
	}
	if err := c.service.Delete(r.Context(), actor.UserID, chi.URLParam(r, "id")); err != nil {
		c.fail(w, r, "Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
