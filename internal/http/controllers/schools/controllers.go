// Package schools contiene los controllers del directorio (lectura y
// favoritos). Todas las rutas exigen una sesión autenticada.
package schools

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/schooldir/internal/domain/repository"
	dto "github.com/dropDatabas3/schooldir/internal/http/dto/schools"
	httperrors "github.com/dropDatabas3/schooldir/internal/http/errors"
	"github.com/dropDatabas3/schooldir/internal/http/helpers"
	"github.com/dropDatabas3/schooldir/internal/observability/logger"
	svc "github.com/dropDatabas3/schooldir/internal/schools"
	"github.com/dropDatabas3/schooldir/internal/session"
)

type Controller struct {
	service  *svc.Service
	machine  *session.Machine
	sessions *helpers.Sessions
}

func NewController(s *svc.Service, m *session.Machine, sessions *helpers.Sessions) *Controller {
	return &Controller{service: s, machine: m, sessions: sessions}
}

// guard corre RequireSession; si falla ya escribió la respuesta.
func (c *Controller) guard(w http.ResponseWriter, r *http.Request) (session.Principal, bool) {
	sess, token := c.sessions.Load(r)
	p, err := c.machine.RequireSession(r.Context(), sess)
	if err != nil {
		c.sessions.Reject(w, r, token, err)
		return session.Principal{}, false
	}
	return p, true
}

func (c *Controller) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	appErr := httperrors.FromDomain(err)
	if appErr.HTTPStatus >= 500 {
		logger.From(r.Context()).Error("schools operation failed", logger.Op(op), logger.Err(err))
	}
	httperrors.WriteError(w, appErr)
}

// List maneja GET /v1/schools?q=&region=&limit=&offset=
func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := c.guard(w, r); !ok {
		return
	}
	limit, ok1 := helpers.QueryInt(r, "limit", 50)
	offset, ok2 := helpers.QueryInt(r, "offset", 0)
	if !ok1 || !ok2 {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("limit and offset must be non-negative integers"))
		return
	}

	filter := repository.ListSchoolsFilter{
		Limit:  limit,
		Offset: offset,
		Search: r.URL.Query().Get("q"),
		Region: r.URL.Query().Get("region"),
	}.Normalize()
	items, err := c.service.List(r.Context(), filter)
	if err != nil {
		c.fail(w, r, "List", err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ListResponse{Items: items, Limit: filter.Limit, Offset: filter.Offset})
}

// Get maneja GET /v1/schools/{id}
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := c.guard(w, r); !ok {
		return
	}
	sc, err := c.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.fail(w, r, "Get", err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, sc)
}

// AddFavorite maneja PUT /v1/schools/{id}/favorite
func (c *Controller) AddFavorite(w http.ResponseWriter, r *http.Request) {
	p, ok := c.guard(w, r)
	if !ok {
		return
	}
	if err := c.service.AddFavorite(r.Context(), p.UserID, strings.TrimSpace(chi.URLParam(r, "id"))); err != nil {
		c.fail(w, r, "AddFavorite", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveFavorite maneja DELETE /v1/schools/{id}/favorite
func (c *Controller) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	p, ok := c.guard(w, r)
	if !ok {
		return
	}
	if err := c.service.RemoveFavorite(r.Context(), p.UserID, strings.TrimSpace(chi.URLParam(r, "id"))); err != nil {
		c.fail(w, r, "RemoveFavorite", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Favorites maneja GET /v1/me/favorites
func (c *Controller) Favorites(w http.ResponseWriter, r *http.Request) {
	p, ok := c.guard(w, r)
	if !ok {
		return
	}
	items, err := c.service.ListFavorites(r.Context(), p.UserID)
	if err != nil {
		c.fail(w, r, "Favorites", err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.FavoritesResponse{Items: items})
}
