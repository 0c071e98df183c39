//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitness-tracker/internal/model"
	"fitness-tracker/internal/repository"
)

func TestUserRepository(t *testing.T) {
	db := newPostgres(t)
	users := repository.NewUserRepository(db.Pool, storeTimeout)
	ctx := context.Background()

	email := seedUser(t, users)

	err := users.Create(ctx, model.Credential{Email: email, PasswordHash: "x"})
	require.ErrorIs(t, err, model.ErrAlreadyExists)

	exists, err := users.Exists(ctx, email)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, users.SetPremium(ctx, email, true))
	cred, err := users.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.True(t, cred.IsPremium)

	_, err = users.FindByEmail(ctx, "missing-"+uuid.NewString()+"@x.com")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestProfileRepository(t *testing.T) {
	db := newPostgres(t)
	email := seedUser(t, repository.NewUserRepository(db.Pool, storeTimeout))
	profiles := repository.NewProfileRepository(db.Pool, storeTimeout)
	ctx := context.Background()

	_, err := profiles.Get(ctx, email)
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = profiles.Upsert(ctx, model.UserProfile{Email: email, Name: "Ana", Age: 30})
	require.NoError(t, err)
	_, err = profiles.Upsert(ctx, model.UserProfile{Email: email, Name: "Ana", Age: 31})
	require.NoError(t, err)

	got, err := profiles.Get(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, 31, got.Age)
}

func TestTemplateRepository(t *testing.T) {
	db := newPostgres(t)
	email := seedUser(t, repository.NewUserRepository(db.Pool, storeTimeout))
	templates := repository.NewTemplateRepository(db.Pool, storeTimeout)
	ctx := context.Background()

	tpl, exercises, err := templates.Create(ctx, model.WorkoutTemplate{Owner: email, Name: "Legs"}, []model.TemplateExercise{
		{Position: 0, ExerciseID: "squat", ExerciseName: "Squat", Sets: 5, Reps: 5},
		{Position: 1, ExerciseID: "lunge", ExerciseName: "Lunge", Sets: 3, Reps: 10},
	})
	require.NoError(t, err)
	require.Len(t, exercises, 2)

	tpl.Name = "Leg day"
	_, exercises, err = templates.Update(ctx, tpl, []model.TemplateExercise{{Position: 0, ExerciseID: "squat", ExerciseName: "Squat", Sets: 3, Reps: 8}})
	require.NoError(t, err)
	require.Len(t, exercises, 1)

	list, err := templates.ListByOwner(ctx, email)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Leg day", list[0].Name)

	require.NoError(t, templates.Delete(ctx, tpl.ID))
	remaining, err := templates.Exercises(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	_, err = templates.FindByID(ctx, tpl.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPostgresDocumentStore_UniquePerDate(t *testing.T) {
	db := newPostgres(t)
	owner := seedUser(t, repository.NewUserRepository(db.Pool, storeTimeout))
	store := repository.NewPostgresDocumentStore[model.DiaryEntry](db.Pool, repository.CollectionDiary, true, storeTimeout)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.Insert(ctx, model.DiaryEntry{ID: uuid.NewString(), Owner: owner, Date: "2024-03-01"})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, model.ErrConflict)
	}
	assert.Equal(t, 1, ok)

	entry, err := store.FindByOwnerAndDate(ctx, owner, "2024-03-01")
	require.NoError(t, err)

	entry.Notes = "updated"
	entry.UpdatedAt = time.Now().UTC()
	require.NoError(t, store.Replace(ctx, entry))

	list, err := store.FindByOwner(ctx, owner, model.DateRange{From: "2024-01-01", To: "2024-12-31"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "updated", list[0].Notes)

	require.NoError(t, store.Delete(ctx, entry.ID))
	_, err = store.FindByID(ctx, entry.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAuditRepository(t *testing.T) {
	db := newPostgres(t)
	audit := repository.NewAuditRepository(db.Pool, storeTimeout)
	ctx := context.Background()
	actor := "audit-" + uuid.NewString()[:8] + "@x.com"

	for _, action := range []string{"auth.login", "record.created", "record.created"} {
		require.NoError(t, audit.Log(ctx, model.AuditEntry{
			Action:     action,
			OccurredAt: time.Now().UTC(),
			Actor:      actor,
			IP:         "203.0.113.9",
			Status:     "success",
			Detail:     map[string]any{"id": "x"},
		}))
	}

	items, meta, err := audit.Query(ctx, model.AuditQuery{Actor: actor, Action: "record.created", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, meta.Total)
	assert.Equal(t, "203.0.113.9", items[0].IP)
}
