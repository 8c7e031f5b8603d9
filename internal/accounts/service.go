// Package accounts implementa la administración de usuarios: listado, alta
// con flag de administrador y ban/unban. Los handlers HTTP la invocan después
// de RequireAdminSession; el CLI la usa directamente.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/schooldir/internal/audit"
	"github.com/dropDatabas3/schooldir/internal/domain/repository"
	"github.com/dropDatabas3/schooldir/internal/identity"
	"github.com/dropDatabas3/schooldir/internal/observability/logger"
	"github.com/dropDatabas3/schooldir/internal/security/password"
)

var (
	ErrInvalidInput = errors.New("accounts: invalid input")
	ErrEmailTaken   = errors.New("accounts: email already registered")
	ErrSelfBan      = errors.New("accounts: administrators cannot deactivate themselves")
	ErrNotFound     = repository.ErrNotFound
)

// ActorCLI identifica acciones ejecutadas desde schooldirctl.
const ActorCLI = "cli"

// NewUser son los datos de alta de un usuario por un administrador.
type NewUser struct {
	Name     string
	Email    string
	Password string
	IsAdmin  bool
}

type Service struct {
	idp      identity.Provider
	profiles repository.ProfileRepository
}

func NewService(idp identity.Provider, profiles repository.ProfileRepository) *Service {
	return &Service{idp: idp, profiles: profiles}
}

// ListUsers lista profiles, más nuevos primero.
func (s *Service) ListUsers(ctx context.Context, filter repository.ListProfilesFilter) ([]repository.Profile, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.profiles.List(ctx, filter.Normalize())
}

// GetUser busca por ID.
func (s *Service) GetUser(ctx context.Context, userID string) (*repository.Profile, error) {
	return s.profiles.Get(ctx, userID)
}

// CreateUser registra la identidad en el provider y crea el profile con el
// flag de admin pedido.
func (s *Service) CreateUser(ctx context.Context, actorID string, in NewUser) (*repository.Profile, error) {
	name := strings.TrimSpace(in.Name)
	email := identity.NormalizeEmail(in.Email)
	log := logger.From(ctx).With(logger.Layer("accounts"), logger.Op("CreateUser"), logger.Email(email))

	if name == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}
	if !identity.ValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}

	if _, err := s.profiles.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("get profile by email: %w", err)
	}

	ident, err := s.idp.SignUp(ctx, email, in.Password)
	switch {
	case errors.Is(err, identity.ErrEmailExists):
		return nil, ErrEmailTaken
	case errors.Is(err, identity.ErrWeakPassword):
		return nil, fmt.Errorf("%w: password must have at least %d characters and not be a common one", ErrInvalidInput, password.Default.MinLength)
	case err != nil:
		return nil, fmt.Errorf("sign up: %w", err)
	}

	p := repository.NewDefaultProfile(ident.UserID, email, name)
	p.IsAdmin = in.IsAdmin
	if err := s.profiles.Insert(ctx, p); err != nil {
		log.Error("insert profile failed", logger.UserID(ident.UserID), logger.Err(err))
		if repository.IsConflict(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert profile: %w", err)
	}

	audit.Log(ctx, audit.EventUserCreated, actorID, ident.UserID,
		logger.Email(email), logger.Bool("is_admin", in.IsAdmin))
	return &p, nil
}

// SetActive banea (active=false) o rehabilita a un usuario. Un administrador no
// puede banearse a sí mismo. Banear revoca además la sesión en el provider;
// las sesiones locales caen en el próximo guard.
func (s *Service) SetActive(ctx context.Context, actorID, userID string, active bool) (*repository.Profile, error) {
	log := logger.From(ctx).With(logger.Layer("accounts"), logger.Op("SetActive"), logger.UserID(userID))

	if !active && actorID == userID {
		return nil, ErrSelfBan
	}
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.profiles.Update(ctx, userID, repository.ProfileUpdate{IsActive: &active}); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	event := audit.EventUserUnbanned
	if !active {
		event = audit.EventUserBanned
		if err := s.idp.SignOut(ctx, userID); err != nil {
			log.Warn("forced sign out failed", logger.Err(err))
		}
	}
	audit.Log(ctx, event, actorID, userID)

	return s.profiles.Get(ctx, userID)
}

// SetActiveByEmail es SetActive buscando por email (CLI).
func (s *Service) SetActiveByEmail(ctx context.Context, actorID, email string, active bool) (*repository.Profile, error) {
	p, err := s.profiles.GetByEmail(ctx, identity.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return s.SetActive(ctx, actorID, p.UserID, active)
}
