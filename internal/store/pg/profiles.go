package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/schooldir/internal/domain/repository"
)

type profileRepo struct {
	pool *pgxpool.Pool
}

const profileColumns = `user_id, email, name, is_admin, is_active, created_at, updated_at`

func scanProfile(row pgx.Row) (*repository.Profile, error) {
	var p repository.Profile
	if err := row.Scan(&p.UserID, &p.Email, &p.Name, &p.IsAdmin, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) Get(ctx context.Context, userID string) (*repository.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profile WHERE user_id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get profile: %w", err)
	}
	return p, nil
}

func (r *profileRepo) GetByEmail(ctx context.Context, email string) (*repository.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profile WHERE email = $1`, strings.ToLower(strings.TrimSpace(email))))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get profile by email: %w", err)
	}
	return p, nil
}

func (r *profileRepo) Insert(ctx context.Context, p repository.Profile) error {
	const q = `
		INSERT INTO profile (user_id, email, name, is_admin, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, q, p.UserID, strings.ToLower(p.Email), p.Name, p.IsAdmin, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("pg: insert profile: %w", err)
	}
	return nil
}

func (r *profileRepo) Update(ctx context.Context, userID string, in repository.ProfileUpdate) error {
	if in.Empty() {
		return nil
	}

	setClauses := []string{"updated_at = NOW()"}
	args := []any{userID}
	add := func(col string, v any) {
		args = append(args, v)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if in.Name != nil {
		add("name", *in.Name)
	}
	if in.IsAdmin != nil {
		add("is_admin", *in.IsAdmin)
	}
	if in.IsActive != nil {
		add("is_active", *in.IsActive)
	}

	q := `UPDATE profile SET ` + strings.Join(setClauses, ", ") + ` WHERE user_id = $1`
	tag, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("pg: update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *profileRepo) List(ctx context.Context, filter repository.ListProfilesFilter) ([]repository.Profile, error) {
	filter = filter.Normalize()

	q := `SELECT ` + profileColumns + ` FROM profile`
	args := []any{}
	if strings.TrimSpace(filter.Search) != "" {
		args = append(args, likePattern(filter.Search))
		q += ` WHERE LOWER(email) LIKE $1 OR LOWER(name) LIKE $1`
	}
	args = append(args, filter.Limit, filter.Offset)
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("pg: list profiles: %w", err)
	}
	defer rows.Close()

	out := []repository.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("pg: scan profile: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
