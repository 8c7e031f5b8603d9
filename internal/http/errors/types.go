// Package errors define el formato de error de la API ({code,message,detail})
// y el mapeo desde los errores de dominio.
package errors

import (
	"fmt"
	"net/http"
)

// AppError es el error que viaja hasta WriteError.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // causa, solo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// WithDetail devuelve una copia con detail.
func (e *AppError) WithDetail(detail string) *AppError {
	c := *e
	c.Detail = detail
	return &c
}

// WithMessage devuelve una copia con otro mensaje.
func (e *AppError) WithMessage(msg string) *AppError {
	c := *e
	c.Message = msg
	return &c
}

// WithCause devuelve una copia con la causa.
func (e *AppError) WithCause(err error) *AppError {
	c := *e
	c.Err = err
	return &c
}

// =================================================================================
// ERRORES PREDEFINIDOS
// =================================================================================

var (
	ErrBadRequest       = New(http.StatusBadRequest, "BAD_REQUEST", "The request is invalid.")
	ErrInvalidJSON      = New(http.StatusBadRequest, "INVALID_JSON", "The request body is not valid JSON.")
	ErrMissingFields    = New(http.StatusBadRequest, "MISSING_FIELDS", "Required fields are missing.")
	ErrInvalidParameter = New(http.StatusBadRequest, "INVALID_PARAMETER", "A query or path parameter is invalid.")
	ErrBodyTooLarge     = New(http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "The request body is too large.")

	ErrUnauthorized         = New(http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "Please log in to continue.")
	ErrInvalidCredentials   = New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid login credentials.")
	ErrInvalidSecondFactor  = New(http.StatusUnauthorized, "INVALID_SECOND_FACTOR_CODE", "Invalid verification code.")
	ErrForbidden            = New(http.StatusForbidden, "FORBIDDEN", "Administrator access required.")
	ErrAccountDeactivated   = New(http.StatusForbidden, "ACCOUNT_DEACTIVATED", "Your account has been deactivated.")
	ErrSelfDeactivation     = New(http.StatusBadRequest, "SELF_DEACTIVATION", "You cannot deactivate your own account.")
	ErrPasswordUpdateFailed = New(http.StatusBadRequest, "PASSWORD_UPDATE_FAILED", "Could not update the password.")
	ErrNotFound             = New(http.StatusNotFound, "NOT_FOUND", "The requested resource does not exist.")
	ErrRouteNotFound        = New(http.StatusNotFound, "ROUTE_NOT_FOUND", "Route not found.")
	ErrMethodNotAllowed     = New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed.")
	ErrEmailAlreadyInUse    = New(http.StatusConflict, "EMAIL_ALREADY_IN_USE", "Email already registered.")
	ErrRateLimitExceeded    = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests, try again later.")
	ErrInternalServerError  = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Something went wrong, please try again.")
	ErrProvider             = New(http.StatusBadGateway, "PROVIDER_ERROR", "Something went wrong, please try again.")
	ErrServiceUnavailable   = New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service unavailable.")
)
