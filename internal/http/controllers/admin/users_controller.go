package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/schooldir/internal/accounts"
	"github.com/dropDatabas3/schooldir/internal/domain/repository"
	dto "github.com/dropDatabas3/schooldir/internal/http/dto/admin"
	httperrors "github.com/dropDatabas3/schooldir/internal/http/errors"
	"github.com/dropDatabas3/schooldir/internal/http/helpers"
	"github.com/dropDatabas3/schooldir/internal/observability/logger"
)

// UsersController maneja /v1/admin/users.
type UsersController struct {
	guard
	service *accounts.Service
}

func (c *UsersController) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	appErr := httperrors.FromDomain(err)
	if appErr.HTTPStatus >= 500 {
		logger.From(r.Context()).Error("admin users operation failed", logger.Op(op), logger.Err(err))
	}
	httperrors.WriteError(w, appErr)
}

// List maneja GET /v1/admin/users?q=&limit=&offset=
func (c *UsersController) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := c.requireAdmin(w, r); !ok {
		return
	}
	limit, ok1 := helpers.QueryInt(r, "limit", 50)
	offset, ok2 := helpers.QueryInt(r, "offset", 0)
	if !ok1 || !ok2 {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("limit and offset must be non-negative integers"))
		return
	}
	filter := repository.ListProfilesFilter{Limit: limit, Offset: offset, Search: r.URL.Query().Get("q")}.Normalize()

	items, err := c.service.ListUsers(r.Context(), filter)
	if err != nil {
		c.fail(w, r, "ListUsers", err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ListUsersResponse{Items: items, Limit: filter.Limit, Offset: filter.Offset})
}

// Create maneja POST /v1/admin/users
func (c *UsersController) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := c.requireAdmin(w, r)
	if !ok {
		return
	}
	var req dto.CreateUserRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	p, err := c.service.CreateUser(r.Context(), actor.UserID, accounts.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		c.fail(w, r, "CreateUser", err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, p)
}

// Ban maneja POST /v1/admin/users/{id}/ban
func (c *UsersController) Ban(w http.ResponseWriter, r *http.Request) {
	c.setActive(w, r, false)
}

// Unban maneja POST /v1/admin/users/{id}/unban
func (c *UsersController) Unban(w http.ResponseWriter, r *http.Request) {
	c.setActive(w, r, true)
}

func (c *UsersController) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	actor, ok := c.requireAdmin(w, r)
	if !ok {
		return
	}
	p, err := c.service.SetActive(r.Context(), actor.UserID, chi.URLParam(r, "id"), active)
	if err != nil {
		c.fail(w, r, "SetActive", err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, p)
}
