// Package pg implementa identity.Provider sobre la tabla identity de PostgreSQL.
// Los hashes son bcrypt; la comparación nunca sale de este paquete.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/schooldir/internal/identity"
)

// uniqueViolation es el SQLSTATE de unique_violation.
const uniqueViolation = "23505"

// Provider es el Credential Verifier respaldado por Postgres.
type Provider struct {
	pool *pgxpool.Pool
	cost int
}

// New crea el provider. cost <= 0 usa bcrypt.DefaultCost.
func New(pool *pgxpool.Pool, cost int) *Provider {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &Provider{pool: pool, cost: cost}
}

// SignIn implements identity.Provider.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	const q = `SELECT id, email, password_hash FROM identity WHERE email = $1`

	var (
		id   string
		mail string
		hash string
	)
	err := p.pool.QueryRow(ctx, q, identity.NormalizeEmail(email)).Scan(&id, &mail, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &identity.CredentialError{Message: "Invalid login credentials"}
	}
	if err != nil {
		return nil, fmt.Errorf("pg identity: sign in: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, &identity.CredentialError{Message: "Invalid login credentials"}
	}
	return &identity.Identity{UserID: id, Email: mail}, nil
}

// SignOut implements identity.Provider. Marca signed_out_at; los tokens emitidos
// antes de esa marca se consideran revocados por el provider.
func (p *Provider) SignOut(ctx context.Context, userID string) error {
	// reloj de la app, el mismo que sella AuthenticatedAt
	tag, err := p.pool.Exec(ctx, `UPDATE identity SET signed_out_at = $2 WHERE id = $1`, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("pg identity: sign out: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// SessionValid implements identity.Provider. signed_out_at tiene precisión de
// microsegundos, issuedAt se trunca igual antes de comparar.
func (p *Provider) SessionValid(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	var signedOut *time.Time
	err := p.pool.QueryRow(ctx, `SELECT signed_out_at FROM identity WHERE id = $1`, userID).Scan(&signedOut)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, identity.ErrUserNotFound
	}
	if err != nil {
		return false, fmt.Errorf("pg identity: session valid: %w", err)
	}
	if signedOut == nil {
		return true, nil
	}
	return !signedOut.After(issuedAt.Truncate(time.Microsecond)), nil
}

// SignUp implements identity.Provider.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*identity.Identity, error) {
	if err := identity.CheckPassword(password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("pg identity: hash: %w", err)
	}

	id := uuid.NewString()
	email = identity.NormalizeEmail(email)
	const q = `INSERT INTO identity (id, email, password_hash, created_at, updated_at) VALUES ($1, $2, $3, NOW(), NOW())`
	if _, err := p.pool.Exec(ctx, q, id, email, string(hash)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, identity.ErrEmailExists
		}
		return nil, fmt.Errorf("pg identity: sign up: %w", err)
	}
	return &identity.Identity{UserID: id, Email: email}, nil
}

// AdminUpdatePassword implements identity.Provider.
func (p *Provider) AdminUpdatePassword(ctx context.Context, userID, newPassword string) error {
	if err := identity.CheckPassword(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), p.cost)
	if err != nil {
		return fmt.Errorf("pg identity: hash: %w", err)
	}
	tag, err := p.pool.Exec(ctx, `UPDATE identity SET password_hash = $2, updated_at = NOW() WHERE id = $1`, userID, string(hash))
	if err != nil {
		return fmt.Errorf("pg identity: update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}
