// Package memory implementa los repositorios en memoria. Se usa en dev y tests;
// no persiste nada entre reinicios.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/schooldir/internal/domain/repository"
)

type favorite struct {
	schoolID string
	at       time.Time
}

// Store guarda profiles, escuelas y favoritos bajo un mismo lock para poder
// emular las cascadas del esquema SQL.
type Store struct {
	mu        sync.RWMutex
	profiles  map[string]repository.Profile // user_id -> profile
	schools   map[string]repository.School
	favorites map[string][]favorite // user_id -> favoritos
	now       func() time.Time
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		profiles:  make(map[string]repository.Profile),
		schools:   make(map[string]repository.School),
		favorites: make(map[string][]favorite),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Profiles() repository.ProfileRepository   { return (*profileRepo)(s) }
func (s *Store) Schools() repository.SchoolRepository     { return (*schoolRepo)(s) }
func (s *Store) Favorites() repository.FavoriteRepository { return (*favoriteRepo)(s) }

// Ping siempre ok.
func (s *Store) Ping(context.Context) error { return nil }

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ─── profiles ───

type profileRepo Store

func (r *profileRepo) Get(_ context.Context, userID string) (*repository.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *profileRepo) GetByEmail(_ context.Context, email string) (*repository.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.profiles {
		if p.Email == email {
			p := p
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *profileRepo) Insert(_ context.Context, p repository.Profile) error {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.UserID]; ok {
		return repository.ErrConflict
	}
	for _, existing := range r.profiles {
		if existing.Email == p.Email {
			return repository.ErrConflict
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.now()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	r.profiles[p.UserID] = p
	return nil
}

func (r *profileRepo) Update(_ context.Context, userID string, in repository.ProfileUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if in.Empty() {
		return nil
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.IsAdmin != nil {
		p.IsAdmin = *in.IsAdmin
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	p.UpdatedAt = r.now()
	r.profiles[userID] = p
	return nil
}

func (r *profileRepo) List(_ context.Context, filter repository.ListProfilesFilter) ([]repository.Profile, error) {
	filter = filter.Normalize()
	term := strings.ToLower(strings.TrimSpace(filter.Search))

	r.mu.RLock()
	out := make([]repository.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		if term != "" && !contains(p.Email, term) && !contains(p.Name, term) {
			continue
		}
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Email < out[j].Email
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, filter.Limit, filter.Offset), nil
}

// ─── schools ───

type schoolRepo Store

func (r *schoolRepo) List(_ context.Context, filter repository.ListSchoolsFilter) ([]repository.School, error) {
	filter = filter.Normalize()
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	region := strings.TrimSpace(filter.Region)

	r.mu.RLock()
	out := make([]repository.School, 0, len(r.schools))
	for _, s := range r.schools {
		if term != "" && !contains(s.Name, term) && !contains(s.City, term) {
			continue
		}
		if region != "" && s.Region != region {
			continue
		}
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *schoolRepo) Get(_ context.Context, id string) (*repository.School, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schools[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *schoolRepo) Create(_ context.Context, in repository.SchoolInput) (*repository.School, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	s := repository.School{
		ID:          uuid.NewString(),
		Name:        in.Name,
		City:        in.City,
		Region:      in.Region,
		Kind:        in.Kind,
		Website:     in.Website,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.schools[s.ID] = s
	return &s, nil
}

func (r *schoolRepo) Update(_ context.Context, id string, in repository.SchoolInput) (*repository.School, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schools[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s.Name = in.Name
	s.City = in.City
	s.Region = in.Region
	s.Kind = in.Kind
	s.Website = in.Website
	s.Description = in.Description
	s.UpdatedAt = r.now()
	r.schools[id] = s
	return &s, nil
}

func (r *schoolRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schools[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.schools, id)
	// cascade
	for userID, favs := range r.favorites {
		kept := favs[:0]
		for _, f := range favs {
			if f.schoolID != id {
				kept = append(kept, f)
			}
		}
		r.favorites[userID] = kept
	}
	return nil
}

// ─── favorites ───

type favoriteRepo Store

func (r *favoriteRepo) Add(_ context.Context, userID, schoolID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schools[schoolID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.profiles[userID]; !ok {
		return repository.ErrNotFound
	}
	for _, f := range r.favorites[userID] {
		if f.schoolID == schoolID {
			return nil
		}
	}
	r.favorites[userID] = append(r.favorites[userID], favorite{schoolID: schoolID, at: r.now()})
	return nil
}

func (r *favoriteRepo) Remove(_ context.Context, userID, schoolID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	favs := r.favorites[userID]
	for i, f := range favs {
		if f.schoolID == schoolID {
			r.favorites[userID] = append(favs[:i], favs[i+1:]...)
			break
		}
	}
	return nil
}

func (r *favoriteRepo) List(_ context.Context, userID string) ([]repository.School, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	favs := r.favorites[userID]
	out := make([]repository.School, 0, len(favs))
	// más recientes primero
	for i := len(favs) - 1; i >= 0; i-- {
		if s, ok := r.schools[favs[i].schoolID]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}
