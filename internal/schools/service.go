// Package schools implementa el directorio de escuelas y los favoritos de cada
// usuario. Las altas, ediciones y bajas son solo para administradores; el
// guard corre en el handler antes de llegar acá.
package schools

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dropDatabas3/schooldir/internal/audit"
	"github.com/dropDatabas3/schooldir/internal/domain/repository"
	"github.com/dropDatabas3/schooldir/internal/observability/logger"
)

var (
	ErrInvalidInput = errors.New("schools: invalid input")
	ErrNotFound     = repository.ErrNotFound
)

type Service struct {
	schools   repository.SchoolRepository
	favorites repository.FavoriteRepository
}

func NewService(schools repository.SchoolRepository, favorites repository.FavoriteRepository) *Service {
	return &Service{schools: schools, favorites: favorites}
}

func (s *Service) List(ctx context.Context, filter repository.ListSchoolsFilter) ([]repository.School, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Region = strings.TrimSpace(filter.Region)
	return s.schools.List(ctx, filter.Normalize())
}

func (s *Service) Get(ctx context.Context, id string) (*repository.School, error) {
	return s.schools.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, actorID string, in repository.SchoolInput) (*repository.School, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	sc, err := s.schools.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create school: %w", err)
	}
	audit.Log(ctx, audit.EventSchoolCreated, actorID, sc.ID, logger.String("name", sc.Name))
	return sc, nil
}

func (s *Service) Update(ctx context.Context, actorID, id string, in repository.SchoolInput) (*repository.School, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	sc, err := s.schools.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	audit.Log(ctx, audit.EventSchoolUpdated, actorID, sc.ID)
	return sc, nil
}

// Delete borra la escuela y los favoritos que la referencian.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if err := s.schools.Delete(ctx, id); err != nil {
		return err
	}
	audit.Log(ctx, audit.EventSchoolDeleted, actorID, id)
	return nil
}

// AddFavorite es idempotente. ErrNotFound si la escuela no existe.
func (s *Service) AddFavorite(ctx context.Context, userID, schoolID string) error {
	return s.favorites.Add(ctx, userID, schoolID)
}

func (s *Service) RemoveFavorite(ctx context.Context, userID, schoolID string) error {
	return s.favorites.Remove(ctx, userID, schoolID)
}

// ListFavorites retorna las favoritas del usuario, más recientes primero.
func (s *Service) ListFavorites(ctx context.Context, userID string) ([]repository.School, error) {
	return s.favorites.List(ctx, userID)
}

func normalize(in repository.SchoolInput) (repository.SchoolInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.City = strings.TrimSpace(in.City)
	in.Region = strings.TrimSpace(in.Region)
	in.Kind = strings.ToLower(strings.TrimSpace(in.Kind))
	in.Website = strings.TrimSpace(in.Website)
	in.Description = strings.TrimSpace(in.Description)

	if in.Name == "" {
		return in, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Website != "" && !validWebsite(in.Website) {
		return in, fmt.Errorf("%w: website must be an absolute http(s) URL", ErrInvalidInput)
	}
	return in, nil
}

func validWebsite(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
