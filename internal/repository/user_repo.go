package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitness-tracker/internal/model"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// UserRepository is the PostgreSQL credential store.
type UserRepository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewUserRepository(pool *pgxpool.Pool, timeout time.Duration) *UserRepository {
	return &UserRepository{pool: pool, timeout: timeout}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.Credential, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var c model.Credential
	err := r.pool.QueryRow(ctx,
		`SELECT email, password_hash, is_premium, created_at, updated_at
		 FROM users WHERE email = lower($1)`, strings.TrimSpace(email)).
		Scan(&c.Email, &c.PasswordHash, &c.IsPremium, &c.CreatedAt, &c.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Credential{}, fmt.Errorf("find credential: %w", model.ErrNotFound)
	}
	if err != nil {
		return model.Credential{}, upstream("find credential", err)
	}
	return c, nil
}

func (r *UserRepository) Exists(ctx context.Context, email string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = lower($1))`,
		strings.TrimSpace(email)).Scan(&exists)
	if err != nil {
		return false, upstream("check credential exists", err)
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, c model.Credential) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (email, password_hash, is_premium, created_at, updated_at)
		 VALUES (lower($1), $2, $3, $4, $5)`,
		c.Email, c.PasswordHash, c.IsPremium, c.CreatedAt, c.UpdatedAt)
	if pgErrorCode(err) == pgUniqueViolation {
		return fmt.Errorf("create credential: %w", model.ErrAlreadyExists)
	}
	if err != nil {
		return upstream("create credential", err)
	}
	return nil
}

func (r *UserRepository) SetPremium(ctx context.Context, email string, premium bool) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_premium = $2, updated_at = $3 WHERE email = lower($1)`,
		strings.TrimSpace(email), premium, time.Now().UTC())
	if err != nil {
		return upstream("set premium", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set premium: %w", model.ErrNotFound)
	}
	return nil
}
