// Package auth contiene los DTOs de /v1/auth y /v1/me.
package auth

import "github.com/dropDatabas3/schooldir/internal/session"

// LoginRequest es el body de POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse: state es "authenticated" o "pending_second_factor".
// DeliveryWarning indica que el código quizás no llegó por email.
type LoginResponse struct {
	State           string        `json:"state"`
	DeliveryWarning bool          `json:"delivery_warning,omitempty"`
	User            *UserResponse `json:"user,omitempty"`
}

// SecondFactorRequest es el body de POST /v1/auth/second-factor.
type SecondFactorRequest struct {
	Code string `json:"code"`
}

// SessionResponse es la respuesta de GET /v1/auth/session.
type SessionResponse struct {
	State string        `json:"state"`
	User  *UserResponse `json:"user,omitempty"`
}

// RegisterRequest es el body de POST /v1/auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest es el body de PATCH /v1/me. name ausente = no tocar.
type UpdateProfileRequest struct {
	Name            *string `json:"name,omitempty"`
	Password        string  `json:"password,omitempty"`
	PasswordConfirm string  `json:"password_confirm,omitempty"`
}

type UpdateProfileResponse struct {
	User            UserResponse `json:"user"`
	NameUpdated     bool         `json:"name_updated"`
	PasswordUpdated bool         `json:"password_updated"`
}

// UserResponse es el usuario de la sesión.
type UserResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

func NewUserResponse(p session.Principal) *UserResponse {
	return &UserResponse{ID: p.UserID, Name: p.DisplayName, Email: p.Email, IsAdmin: p.IsAdmin}
}
