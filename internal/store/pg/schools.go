package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/schooldir/internal/domain/repository"
)

type schoolRepo struct {
	pool *pgxpool.Pool
}

const schoolColumns = `s.id, s.name, s.city, s.region, s.kind, s.website, s.description, s.created_at, s.updated_at`

func scanSchool(row pgx.Row) (*repository.School, error) {
	var s repository.School
	err := row.Scan(&s.ID, &s.Name, &s.City, &s.Region, &s.Kind, &s.Website, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSchools(rows pgx.Rows) ([]repository.School, error) {
	defer rows.Close()
	out := []repository.School{}
	for rows.Next() {
		s, err := scanSchool(rows)
		if err != nil {
			return nil, fmt.Errorf("pg: scan school: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *schoolRepo) List(ctx context.Context, filter repository.ListSchoolsFilter) ([]repository.School, error) {
	filter = filter.Normalize()

	where := []string{}
	args := []any{}
	if strings.TrimSpace(filter.Search) != "" {
		args = append(args, likePattern(filter.Search))
		where = append(where, fmt.Sprintf("(LOWER(s.name) LIKE $%d OR LOWER(s.city) LIKE $%d)", len(args), len(args)))
	}
	if strings.TrimSpace(filter.Region) != "" {
		args = append(args, strings.TrimSpace(filter.Region))
		where = append(where, fmt.Sprintf("s.region = $%d", len(args)))
	}

	q := `SELECT ` + schoolColumns + ` FROM school s`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	q += fmt.Sprintf(` ORDER BY s.name ASC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("pg: list schools: %w", err)
	}
	return collectSchools(rows)
}

func (r *schoolRepo) Get(ctx context.Context, id string) (*repository.School, error) {
	s, err := scanSchool(r.pool.QueryRow(ctx, `SELECT `+schoolColumns+` FROM school s WHERE s.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get school: %w", err)
	}
	return s, nil
}

func (r *schoolRepo) Create(ctx context.Context, in repository.SchoolInput) (*repository.School, error) {
	now := time.Now().UTC()
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
	const q = `
		INSERT INTO school (id, name, city, region, kind, website, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := r.pool.Exec(ctx, q, s.ID, s.Name, s.City, s.Region, s.Kind, s.Website, s.Description, s.CreatedAt, s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("pg: create school: %w", err)
	}
	return &s, nil
}

func (r *schoolRepo) Update(ctx context.Context, id string, in repository.SchoolInput) (*repository.School, error) {
	const q = `
		UPDATE school s SET name = $2, city = $3, region = $4, kind = $5, website = $6, description = $7, updated_at = NOW()
		WHERE s.id = $1
		RETURNING ` + schoolColumns
	s, err := scanSchool(r.pool.QueryRow(ctx, q, id, in.Name, in.City, in.Region, in.Kind, in.Website, in.Description))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: update school: %w", err)
	}
	return s, nil
}

func (r *schoolRepo) Delete(ctx context.Context, id string) error {
	// favorite tiene ON DELETE CASCADE
	tag, err := r.pool.Exec(ctx, `DELETE FROM school WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pg: delete school: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type favoriteRepo struct {
	pool *pgxpool.Pool
}

func (r *favoriteRepo) Add(ctx context.Context, userID, schoolID string) error {
	const q = `INSERT INTO favorite (user_id, school_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := r.pool.Exec(ctx, q, userID, schoolID)
	if isForeignKeyViolation(err) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("pg: add favorite: %w", err)
	}
	return nil
}

func (r *favoriteRepo) Remove(ctx context.Context, userID, schoolID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM favorite WHERE user_id = $1 AND school_id = $2`, userID, schoolID); err != nil {
		return fmt.Errorf("pg: remove favorite: %w", err)
	}
	return nil
}

func (r *favoriteRepo) List(ctx context.Context, userID string) ([]repository.School, error) {
	const q = `
		SELECT ` + schoolColumns + `
		FROM favorite f JOIN school s ON s.id = f.school_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("pg: list favorites: %w", err)
	}
	return collectSchools(rows)
}
