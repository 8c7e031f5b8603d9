// Package identity define el contrato con el identity provider que verifica
// credenciales. La app nunca guarda ni compara passwords fuera de este límite.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/schooldir/internal/security/password"
)

var (
	// ErrInvalidCredentials: email o password incorrectos. El provider puede
	// adjuntar su propio mensaje via *CredentialError.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")

	// ErrEmailExists: ya existe una identidad con ese email.
	ErrEmailExists = errors.New("identity: email already registered")

	// ErrUserNotFound: no existe la identidad referida.
	ErrUserNotFound = errors.New("identity: user not found")

	// ErrWeakPassword: el provider rechazó el password.
	ErrWeakPassword = errors.New("identity: password rejected by provider")
)

// Identity es lo que el provider devuelve tras verificar credenciales.
type Identity struct {
	UserID string
	Email  string
}

// CredentialError transporta el mensaje del provider tal cual lo emitió.
type CredentialError struct {
	Message string
}

func (e *CredentialError) Error() string { return e.Message }

// Is permite errors.Is(err, ErrInvalidCredentials).
func (e *CredentialError) Is(target error) bool { return target == ErrInvalidCredentials }

// Provider es el Credential Verifier.
type Provider interface {
	// SignIn verifica email+password y retorna el identificador estable.
	SignIn(ctx context.Context, email, password string) (*Identity, error)

	// SignOut revoca las sesiones del usuario en el provider.
	SignOut(ctx context.Context, userID string) error

	// SignUp registra una nueva identidad. ErrEmailExists si el email ya existe.
	SignUp(ctx context.Context, email, password string) (*Identity, error)

	// AdminUpdatePassword cambia el password con privilegios de servicio.
	AdminUpdatePassword(ctx context.Context, userID, newPassword string) error

	// SessionValid indica si una sesión autenticada en issuedAt sigue vigente,
	// es decir, si no hubo un SignOut posterior. ErrUserNotFound si la
	// identidad ya no existe.
	SessionValid(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// NormalizeEmail baja a minúsculas y recorta espacios.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail exige una sola @ con algo de cada lado y sin espacios. Recibe el
// email ya normalizado.
func ValidEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at == strings.LastIndexByte(email, '@') && at < len(email)-1 &&
		!strings.ContainsAny(email, " \t\r\n")
}

// CheckPassword aplica password.Default. El error envuelve ErrWeakPassword con
// las razones.
func CheckPassword(pwd string) error {
	if ok, reasons := password.Default.Validate(pwd); !ok {
		return fmt.Errorf("%w: %s", ErrWeakPassword, strings.Join(reasons, ", "))
	}
	return nil
}
