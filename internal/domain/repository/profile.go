package repository

import (
	"context"
	"time"
)

// Profile es la fila local de un usuario, keyed por el ID del identity provider.
// IsAdmin nunca es modificable por el propio usuario; IsActive=false es un ban.
type Profile struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"is_admin"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDefaultProfile arma el profile por defecto (registro o legacy repair):
// no admin, activo.
func NewDefaultProfile(userID, email, name string) Profile {
	now := time.Now().UTC()
	return Profile{
		UserID:    userID,
		Email:     email,
		Name:      name,
		IsAdmin:   false,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ProfileUpdate contiene los campos actualizables. nil = no tocar.
type ProfileUpdate struct {
	Name     *string
	IsAdmin  *bool
	IsActive *bool
}

// Empty indica si no hay nada para actualizar.
func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.IsAdmin == nil && u.IsActive == nil
}

// ListProfilesFilter opciones para listar profiles.
type ListProfilesFilter struct {
	Limit  int    // Default 50, max 200
	Offset int    // Default 0
	Search string // Opcional: búsqueda por email o nombre
}

// Normalize aplica defaults y límites.
func (f ListProfilesFilter) Normalize() ListProfilesFilter {
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

// ProfileRepository es el Profile Store remoto.
type ProfileRepository interface {
	// Get busca por user ID. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, userID string) (*Profile, error)

	// GetByEmail busca por email (único). Retorna ErrNotFound si no existe.
	GetByEmail(ctx context.Context, email string) (*Profile, error)

	// Insert crea el profile. Retorna ErrConflict si el user ID o el email ya existen.
	Insert(ctx context.Context, p Profile) error

	// Update aplica los campos no-nil. Retorna ErrNotFound si no existe.
	Update(ctx context.Context, userID string, in ProfileUpdate) error

	// List lista profiles, más nuevos primero.
	List(ctx context.Context, filter ListProfilesFilter) ([]Profile, error)
}
