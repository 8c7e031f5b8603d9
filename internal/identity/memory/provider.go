// Package memory implementa identity.Provider en memoria. Pensado para tests y
// desarrollo local: el estado vive en la instancia y se pierde al reiniciar.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/schooldir/internal/identity"
)

type record struct {
	userID string
	email  string
	hash   []byte
}

// Provider es un identity provider en memoria con hashes bcrypt.
type Provider struct {
	mu       sync.RWMutex
	byEmail  map[string]*record
	byID     map[string]*record
	signOuts map[string]time.Time
	cost     int

	// FailNext, si no es nil, se devuelve en la próxima llamada a SignIn,
	// SignOut, SignUp o AdminUpdatePassword (una vez).
	FailNext error

	// SessionErr, si no es nil, lo devuelve SessionValid mientras esté seteado.
	SessionErr error
}

// New crea un provider vacío. bcrypt.MinCost para que los tests sean rápidos.
func New() *Provider {
	return &Provider{
		byEmail:  make(map[string]*record),
		byID:     make(map[string]*record),
		signOuts: make(map[string]time.Time),
		cost:     bcrypt.MinCost,
	}
}

func (p *Provider) takeFailure() error {
	if err := p.FailNext; err != nil {
		p.FailNext = nil
		return err
	}
	return nil
}

// SignIn implements identity.Provider.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	p.mu.Lock()
	if err := p.takeFailure(); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	rec, ok := p.byEmail[identity.NormalizeEmail(email)]
	p.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(rec.hash, []byte(password)) != nil {
		return nil, &identity.CredentialError{Message: "Invalid login credentials"}
	}
	return &identity.Identity{UserID: rec.userID, Email: rec.email}, nil
}

// SignOut implements identity.Provider.
func (p *Provider) SignOut(ctx context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.takeFailure(); err != nil {
		return err
	}
	if _, ok := p.byID[userID]; !ok {
		return identity.ErrUserNotFound
	}
	p.signOuts[userID] = time.Now()
	return nil
}

// SignUp implements identity.Provider.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*identity.Identity, error) {
	email = identity.NormalizeEmail(email)
	if err := identity.CheckPassword(password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.takeFailure(); err != nil {
		return nil, err
	}
	if _, ok := p.byEmail[email]; ok {
		return nil, identity.ErrEmailExists
	}
	rec := &record{userID: uuid.NewString(), email: email, hash: hash}
	p.byEmail[email] = rec
	p.byID[rec.userID] = rec
	return &identity.Identity{UserID: rec.userID, Email: email}, nil
}

// AdminUpdatePassword implements identity.Provider.
func (p *Provider) AdminUpdatePassword(ctx context.Context, userID, newPassword string) error {
	if err := identity.CheckPassword(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), p.cost)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.takeFailure(); err != nil {
		return err
	}
	rec, ok := p.byID[userID]
	if !ok {
		return identity.ErrUserNotFound
	}
	rec.hash = hash
	return nil
}

// SessionValid implements identity.Provider.
func (p *Provider) SessionValid(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.SessionErr != nil {
		return false, p.SessionErr
	}
	if _, ok := p.byID[userID]; !ok {
		return false, identity.ErrUserNotFound
	}
	at, ok := p.signOuts[userID]
	return !ok || !at.After(issuedAt), nil
}

// SignedOut indica si el usuario fue deslogueado en el provider (tests).
func (p *Provider) SignedOut(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.signOuts[userID]
	return ok
}
