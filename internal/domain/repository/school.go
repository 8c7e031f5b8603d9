package repository

import (
	"context"
	"time"
)

// School es una entrada del directorio.
type School struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	City        string    `json:"city" yaml:"city"`
	Region      string    `json:"region" yaml:"region"`
	Kind        string    `json:"kind" yaml:"kind"` // public | private | charter | ...
	Website     string    `json:"website,omitempty" yaml:"website"`
	Description string    `json:"description,omitempty" yaml:"description"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"-"`
}

// SchoolInput contiene los campos editables de una escuela.
type SchoolInput struct {
	Name        string
	City        string
	Region      string
	Kind        string
	Website     string
	Description string
}

// ListSchoolsFilter opciones para listar escuelas.
type ListSchoolsFilter struct {
	Limit  int
	Offset int
	Search string // nombre o ciudad
	Region string
}

// Normalize aplica defaults y límites.
func (f ListSchoolsFilter) Normalize() ListSchoolsFilter {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// SchoolRepository persiste escuelas.
type SchoolRepository interface {
	List(ctx context.Context, filter ListSchoolsFilter) ([]School, error)
	Get(ctx context.Context, id string) (*School, error)
	Create(ctx context.Context, in SchoolInput) (*School, error)
	Update(ctx context.Context, id string, in SchoolInput) (*School, error)
	// Delete elimina la escuela y sus favoritos. ErrNotFound si no existe.
	Delete(ctx context.Context, id string) error
}

// FavoriteRepository persiste favoritos (user, school).
type FavoriteRepository interface {
	// Add es idempotente.
	Add(ctx context.Context, userID, schoolID string) error
	// Remove es idempotente.
	Remove(ctx context.Context, userID, schoolID string) error
	// List retorna las escuelas favoritas del usuario, más recientes primero.
	List(ctx context.Context, userID string) ([]School, error)
}
