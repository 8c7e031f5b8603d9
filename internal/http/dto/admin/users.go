// Package admin contiene los DTOs de /v1/admin.
package admin

import "github.com/dropDatabas3/schooldir/internal/domain/repository"

// CreateUserRequest es el body de POST /v1/admin/users.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

type ListUsersResponse struct {
	Items  []repository.Profile `json:"items"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}
