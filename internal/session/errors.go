package session

import (
	"errors"
	"fmt"
)

// Taxonomía de errores que el Machine devuelve a los handlers. Ningún error de
// un colaborador sale crudo: siempre viene envuelto en *Error con uno de estos
// como Kind.
var (
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrAccountDeactivated      = errors.New("account deactivated")
	ErrInvalidSecondFactorCode = errors.New("invalid second factor code")
	ErrAuthenticationRequired  = errors.New("authentication required")
	ErrAuthorizationDenied     = errors.New("authorization denied")
	ErrPasswordUpdateFailed    = errors.New("password update failed")
	ErrProviderError           = errors.New("provider error")

	// Registro / validación de entrada.
	ErrInvalidInput = errors.New("invalid input")
	ErrEmailTaken   = errors.New("email already registered")
)

// Error transporta el Kind de la taxonomía, un mensaje apto para mostrar al
// usuario y la causa original (solo para logs).
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

// Unwrap permite errors.Is tanto contra el Kind como contra la causa.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// Mensajes por defecto de cara al usuario.
const (
	msgDeactivated      = "Your account has been deactivated. Contact an administrator."
	msgInvalidCode      = "Invalid verification code."
	msgLoginRequired    = "Please log in to continue."
	msgInvalidEmail     = "A valid email address is required."
	msgAdminRequired    = "Administrator access required."
	msgPasswordFailed   = "Could not update the password."
	msgPasswordMismatch = "Passwords do not match."
	msgProvider         = "Something went wrong, please try again."
	msgWeakPassword     = "Password is too weak: use at least 8 characters and avoid common passwords."
)

// ErrSessionRevoked es la causa de un AuthenticationRequired cuando el provider
// revocó la sesión (logout en otro lado, token copiado). El caller debe
// descartar la sesión guardada.
var ErrSessionRevoked = errors.New("session revoked by identity provider")

// Causas internas, útiles en logs.
var (
	errNotPending       = errors.New("no pending second factor")
	errNotAuthenticated = errors.New("session is not authenticated")
)

func providerError(op string, cause error) *Error {
	return newError(ErrProviderError, msgProvider, fmt.Errorf("%s: %w", op, cause))
}

// KindOf retorna el Kind de la taxonomía, o nil si err no viene del Machine.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
