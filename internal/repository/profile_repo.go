package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitness-tracker/internal/model"
)

type ProfileRepository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewProfileRepository(pool *pgxpool.Pool, timeout time.Duration) *ProfileRepository {
	return &ProfileRepository{pool: pool, timeout: timeout}
}

func (r *ProfileRepository) Get(ctx context.Context, email string) (model.UserProfile, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var p model.UserProfile
	err := r.pool.QueryRow(ctx,
		`SELECT email, name, age, height, weight, fitness_goals, profile_picture_url, updated_at
		 FROM user_profiles WHERE email = $1`, email).
		Scan(&p.Email, &p.Name, &p.Age, &p.Height, &p.Weight, &p.FitnessGoals, &p.ProfilePictureURL, &p.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.UserProfile{}, fmt.Errorf("find profile: %w", model.ErrNotFound)
	}
	if err != nil {
		return model.UserProfile{}, upstream("find profile", err)
	}
	return p, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, p model.UserProfile) (model.UserProfile, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := r.pool.QueryRow(ctx,
		`INSERT INTO user_profiles (email, name, age, height, weight, fitness_goals, profile_picture_url, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		 ON CONFLICT (email) DO UPDATE SET
		   name = EXCLUDED.name,
		   age = EXCLUDED.age,
		   height = EXCLUDED.height,
		   weight = EXCLUDED.weight,
		   fitness_goals = EXCLUDED.fitness_goals,
		   profile_picture_url = EXCLUDED.profile_picture_url,
		   updated_at = EXCLUDED.updated_at
		 RETURNING updated_at`,
		p.Email, p.Name, p.Age, p.Height, p.Weight, p.FitnessGoals, p.ProfilePictureURL).
		Scan(&p.UpdatedAt)
	if pgErrorCode(err) == pgForeignKeyViolation {
		return model.UserProfile{}, fmt.Errorf("upsert profile: %w", model.ErrUnauthenticated)
	}
	if err != nil {
		return model.UserProfile{}, upstream("upsert profile", err)
	}
	return p, nil
}
