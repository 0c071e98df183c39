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

// TemplateRepository stores workout templates and their exercise rows. Exercises are
// removed with their template by ON DELETE CASCADE.
type TemplateRepository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewTemplateRepository(pool *pgxpool.Pool, timeout time.Duration) *TemplateRepository {
	return &TemplateRepository{pool: pool, timeout: timeout}
}

func (r *TemplateRepository) Create(ctx context.Context, tpl model.WorkoutTemplate, exercises []model.TemplateExercise) (model.WorkoutTemplate, []model.TemplateExercise, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var saved []model.TemplateExercise
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO workout_templates (owner, name, description, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			tpl.Owner, tpl.Name, tpl.Description, tpl.CreatedAt, tpl.UpdatedAt).Scan(&tpl.ID); err != nil {
			return err
		}

		var err error
		saved, err = insertExercises(ctx, tx, tpl.ID, exercises)
		return err
	})
	if pgErrorCode(err) == pgForeignKeyViolation {
		return model.WorkoutTemplate{}, nil, fmt.Errorf("create template: %w", model.ErrUnauthenticated)
	}
	if err != nil {
		return model.WorkoutTemplate{}, nil, upstream("create template", err)
	}
	return tpl, saved, nil
}

func insertExercises(ctx context.Context, tx pgx.Tx, templateID int64, exercises []model.TemplateExercise) ([]model.TemplateExercise, error) {
	saved := make([]model.TemplateExercise, 0, len(exercises))
	for i, ex := range exercises {
		ex.TemplateID = templateID
		ex.Position = i
		if err := tx.QueryRow(ctx,
			`INSERT INTO template_exercises (template_id, position, exercise_id, exercise_name, sets, reps, weight)
			 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			ex.TemplateID, ex.Position, ex.ExerciseID, ex.ExerciseName, ex.Sets, ex.Reps, ex.Weight).Scan(&ex.ID); err != nil {
			return nil, fmt.Errorf("insert template exercise: %w", err)
		}
		saved = append(saved, ex)
	}
	return saved, nil
}

func (r *TemplateRepository) FindByID(ctx context.Context, id int64) (model.WorkoutTemplate, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var t model.WorkoutTemplate
	err := r.pool.QueryRow(ctx,
		`SELECT id, owner, name, description, created_at, updated_at
		 FROM workout_templates WHERE id = $1`, id).
		Scan(&t.ID, &t.Owner, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.WorkoutTemplate{}, fmt.Errorf("find template %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.WorkoutTemplate{}, upstream("find template", err)
	}
	return t, nil
}

func (r *TemplateRepository) Exercises(ctx context.Context, templateID int64) ([]model.TemplateExercise, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT id, template_id, position, exercise_id, exercise_name, sets, reps, weight
		 FROM template_exercises WHERE template_id = $1 ORDER BY position`, templateID)
	if err != nil {
		return nil, upstream("list template exercises", err)
	}
	defer rows.Close()

	exercises := make([]model.TemplateExercise, 0)
	for rows.Next() {
		var e model.TemplateExercise
		if err := rows.Scan(&e.ID, &e.TemplateID, &e.Position, &e.ExerciseID, &e.ExerciseName, &e.Sets, &e.Reps, &e.Weight); err != nil {
			return nil, upstream("scan template exercise", err)
		}
		exercises = append(exercises, e)
	}
	if err := rows.Err(); err != nil {
		return nil, upstream("list template exercises", err)
	}
	return exercises, nil
}

func (r *TemplateRepository) ListByOwner(ctx context.Context, owner string) ([]model.WorkoutTemplate, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT id, owner, name, description, created_at, updated_at
		 FROM workout_templates WHERE owner = $1 ORDER BY id`, owner)
	if err != nil {
		return nil, upstream("list templates", err)
	}
	defer rows.Close()

	templates := make([]model.WorkoutTemplate, 0)
	for rows.Next() {
		var t model.WorkoutTemplate
		if err := rows.Scan(&t.ID, &t.Owner, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, upstream("scan template", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, upstream("list templates", err)
	}
	return templates, nil
}

// Update rewrites the template row and replaces its exercise list in one transaction.
func (r *TemplateRepository) Update(ctx context.Context, tpl model.WorkoutTemplate, exercises []model.TemplateExercise) (model.WorkoutTemplate, []model.TemplateExercise, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var saved []model.TemplateExercise
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE workout_templates SET name = $2, description = $3, updated_at = $4 WHERE id = $1`,
			tpl.ID, tpl.Name, tpl.Description, tpl.UpdatedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return model.ErrNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM template_exercises WHERE template_id = $1`, tpl.ID); err != nil {
			return err
		}

		saved, err = insertExercises(ctx, tx, tpl.ID, exercises)
		return err
	})
	if errors.Is(err, model.ErrNotFound) {
		return model.WorkoutTemplate{}, nil, fmt.Errorf("update template %d: %w", tpl.ID, model.ErrNotFound)
	}
	if err != nil {
		return model.WorkoutTemplate{}, nil, upstream("update template", err)
	}
	return tpl, saved, nil
}

func (r *TemplateRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM workout_templates WHERE id = $1`, id)
	if err != nil {
		return upstream("delete template", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete template %d: %w", id, model.ErrNotFound)
	}
	return nil
}
