package repository

import (
	"context"
	"fmt"
	"time"

	"fitness-tracker/internal/model"
)

// Document is an owned record held by a DocumentStore.
type Document interface {
	RecordID() string
	RecordOwner() string
	RecordDate() string
}

// DocumentStore is the record-store capability shared by the PostgreSQL, MongoDB and
// in-memory backends. A store built for a dated family rejects a second record for the
// same (owner, date) with model.ErrConflict, atomically with the insert.
type DocumentStore[T Document] interface {
	Insert(ctx context.Context, doc T) error
	FindByID(ctx context.Context, id string) (T, error)
	FindByOwner(ctx context.Context, owner string, window model.DateRange) ([]T, error)
	FindByOwnerAndDate(ctx context.Context, owner string, date string) (T, error)
	Replace(ctx context.Context, doc T) error
	Delete(ctx context.Context, id string) error
	ExistsForOwnerAndDate(ctx context.Context, owner string, date string) (bool, error)
}

type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (model.Credential, error)
	Exists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, cred model.Credential) error
	SetPremium(ctx context.Context, email string, premium bool) error
}

type ProfileStore interface {
	Get(ctx context.Context, email string) (model.UserProfile, error)
	Upsert(ctx context.Context, profile model.UserProfile) (model.UserProfile, error)
}

type TemplateStore interface {
	Create(ctx context.Context, tpl model.WorkoutTemplate, exercises []model.TemplateExercise) (model.WorkoutTemplate, []model.TemplateExercise, error)
	FindByID(ctx context.Context, id int64) (model.WorkoutTemplate, error)
	Exercises(ctx context.Context, templateID int64) ([]model.TemplateExercise, error)
	ListByOwner(ctx context.Context, owner string) ([]model.WorkoutTemplate, error)
	Update(ctx context.Context, tpl model.WorkoutTemplate, exercises []model.TemplateExercise) (model.WorkoutTemplate, []model.TemplateExercise, error)
	Delete(ctx context.Context, id int64) error
}

type AuditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}

// Collection names shared by every backend.
const (
	CollectionDiary     = "diary_entries"
	CollectionNutrition = "nutrition_logs"
	CollectionWorkouts  = "workout_sessions"
)

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// upstream marks a backend failure so handlers surface it without detail.
func upstream(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrUpstream, err)
}

func normalizePage(page int, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	return page, limit
}

func pageMeta(page int, limit int, total int) model.Meta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return model.Meta{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}
