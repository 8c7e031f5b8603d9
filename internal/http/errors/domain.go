package errors

import (
	stderrors "errors"

	"github.com/dropDatabas3/schooldir/internal/accounts"
	"github.com/dropDatabas3/schooldir/internal/domain/repository"
	"github.com/dropDatabas3/schooldir/internal/schools"
	"github.com/dropDatabas3/schooldir/internal/session"
)

// FromSession mapea la taxonomía del session.Machine. El mensaje de cara al
// usuario es el que armó el Machine.
func FromSession(err error) *AppError {
	var se *session.Error
	if !stderrors.As(err, &se) {
		return FromError(err)
	}

	var base *AppError
	switch se.Kind {
	case session.ErrInvalidCredentials:
		base = ErrInvalidCredentials
	case session.ErrAccountDeactivated:
		base = ErrAccountDeactivated
	case session.ErrInvalidSecondFactorCode:
		base = ErrInvalidSecondFactor
	case session.ErrAuthenticationRequired:
		base = ErrUnauthorized
	case session.ErrAuthorizationDenied:
		base = ErrForbidden
	case session.ErrPasswordUpdateFailed:
		base = ErrPasswordUpdateFailed
	case session.ErrInvalidInput:
		base = ErrBadRequest
	case session.ErrEmailTaken:
		base = ErrEmailAlreadyInUse
	case session.ErrProviderError:
		base = ErrProvider
	default:
		base = ErrInternalServerError
	}
	out := base.WithCause(err)
	if se.Message != "" {
		out.Message = se.Message
	}
	return out
}

// FromDomain mapea errores de accounts, schools y los repositorios.
func FromDomain(err error) *AppError {
	switch {
	case stderrors.Is(err, accounts.ErrSelfBan):
		return ErrSelfDeactivation.WithCause(err)
	case stderrors.Is(err, accounts.ErrEmailTaken):
		return ErrEmailAlreadyInUse.WithCause(err)
	case stderrors.Is(err, accounts.ErrInvalidInput), stderrors.Is(err, schools.ErrInvalidInput):
		return ErrBadRequest.WithDetail(err.Error()).WithCause(err)
	case repository.IsNotFound(err):
		return ErrNotFound.WithCause(err)
	case repository.IsConflict(err):
		return ErrEmailAlreadyInUse.WithCause(err)
	}
	return FromError(err)
}
