package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitness-tracker/internal/model"
)

func diary(id string, owner string, date string) model.DiaryEntry {
	return model.DiaryEntry{ID: id, Owner: owner, Date: date}
}

func TestMemoryDocumentStore_UniquePerDate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocumentStore[model.DiaryEntry](CollectionDiary, true)

	require.NoError(t, store.Insert(ctx, diary("1", "a@x.com", "2024-03-01")))

	err := store.Insert(ctx, diary("2", "a@x.com", "2024-03-01"))
	assert.ErrorIs(t, err, model.ErrConflict)

	assert.NoError(t, store.Insert(ctx, diary("3", "a@x.com", "2024-03-02")))
	assert.NoError(t, store.Insert(ctx, diary("4", "b@x.com", "2024-03-01")))

	exists, err := store.ExistsForOwnerAndDate(ctx, "a@x.com", "2024-03-01")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, "1"))
	assert.NoError(t, store.Insert(ctx, diary("5", "a@x.com", "2024-03-01")), "date is free again after delete")
}

func TestMemoryDocumentStore_ConcurrentDuplicateInserts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocumentStore[model.DiaryEntry](CollectionDiary, true)

	const workers = 32
	var succeeded, conflicted atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			err := store.Insert(ctx, diary(fmt.Sprintf("d%d", i), "a@x.com", "2024-03-01"))
			switch {
			case err == nil:
				succeeded.Add(1)
			case assert.ErrorIs(t, err, model.ErrConflict):
				conflicted.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, succeeded.Load())
	assert.EqualValues(t, workers-1, conflicted.Load())
}

func TestMemoryDocumentStore_NonUniqueAllowsSameDate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocumentStore[model.WorkoutSession](CollectionWorkouts, false)

	require.NoError(t, store.Insert(ctx, model.WorkoutSession{ID: "w1", Owner: "a@x.com", Date: "2024-03-01"}))
	require.NoError(t, store.Insert(ctx, model.WorkoutSession{ID: "w2", Owner: "a@x.com", Date: "2024-03-01"}))

	docs, err := store.FindByOwner(ctx, "a@x.com", model.DateRange{})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestMemoryDocumentStore_FindAndReplace(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocumentStore[model.DiaryEntry](CollectionDiary, true)

	for _, d := range []model.DiaryEntry{
		diary("c", "a@x.com", "2024-03-03"),
		diary("a", "a@x.com", "2024-03-01"),
		diary("b", "a@x.com", "2024-03-02"),
		diary("z", "b@x.com", "2024-03-02"),
	} {
		require.NoError(t, store.Insert(ctx, d))
	}

	t.Run("range is inclusive and ordered by date", func(t *testing.T) {
		docs, err := store.FindByOwner(ctx, "a@x.com", model.DateRange{From: "2024-03-02", To: "2024-03-03"})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "b", docs[0].ID)
		assert.Equal(t, "c", docs[1].ID)
	})

	t.Run("by owner and date", func(t *testing.T) {
		doc, err := store.FindByOwnerAndDate(ctx, "b@x.com", "2024-03-02")
		require.NoError(t, err)
		assert.Equal(t, "z", doc.ID)

		_, err = store.FindByOwnerAndDate(ctx, "b@x.com", "2024-03-09")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("replace onto a taken date conflicts", func(t *testing.T) {
		err := store.Replace(ctx, diary("a", "a@x.com", "2024-03-02"))
		assert.ErrorIs(t, err, model.ErrConflict)
	})

	t.Run("replace unknown id", func(t *testing.T) {
		err := store.Replace(ctx, diary("missing", "a@x.com", "2024-04-01"))
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("replace keeps the record", func(t *testing.T) {
		updated := diary("a", "a@x.com", "2024-03-01")
		updated.Notes = "legs"
		require.NoError(t, store.Replace(ctx, updated))

		doc, err := store.FindByID(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "legs", doc.Notes)
	})

	t.Run("delete unknown id", func(t *testing.T) {
		assert.ErrorIs(t, store.Delete(ctx, "missing"), model.ErrNotFound)
	})
}

func TestMemoryCredentialStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCredentialStore()

	require.NoError(t, store.Create(ctx, model.Credential{Email: "a@x.com", PasswordHash: "h"}))
	assert.ErrorIs(t, store.Create(ctx, model.Credential{Email: "A@x.com"}), model.ErrAlreadyExists)

	require.NoError(t, store.SetPremium(ctx, "a@x.com", true))
	cred, err := store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, cred.IsPremium)

	assert.ErrorIs(t, store.SetPremium(ctx, "nobody@x.com", true), model.ErrNotFound)
	_, err = store.FindByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemoryTemplateStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTemplateStore()

	tpl, exercises, err := store.Create(ctx, model.WorkoutTemplate{Owner: "a@x.com", Name: "Push"},
		[]model.TemplateExercise{{ExerciseName: "Bench"}, {ExerciseName: "Dips"}})
	require.NoError(t, err)
	assert.NotZero(t, tpl.ID)
	require.Len(t, exercises, 2)
	assert.Equal(t, tpl.ID, exercises[1].TemplateID)
	assert.Equal(t, 1, exercises[1].Position)

	_, replaced, err := store.Update(ctx, tpl, []model.TemplateExercise{{ExerciseName: "Press"}})
	require.NoError(t, err)
	require.Len(t, replaced, 1)

	stored, err := store.Exercises(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Press", stored[0].ExerciseName)

	require.NoError(t, store.Delete(ctx, tpl.ID))
	stored, err = store.Exercises(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Empty(t, stored, "exercises go with their template")
	_, err = store.FindByID(ctx, tpl.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemoryAuditStore_QueryPagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAuditStore()

	for _, action := range []string{"auth.login", "record.created", "record.updated"} {
		require.NoError(t, store.Log(ctx, model.AuditEntry{Action: action, Actor: "a@x.com"}))
	}
	require.NoError(t, store.Log(ctx, model.AuditEntry{Action: "auth.login", Actor: "b@x.com"}))

	items, meta, err := store.Query(ctx, model.AuditQuery{Actor: "a@x.com", Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "record.updated", items[0].Action)
	assert.Equal(t, 3, meta.Total)
	assert.Equal(t, 2, meta.TotalPages)

	items, _, err = store.Query(ctx, model.AuditQuery{Actor: "a@x.com", Action: "AUTH.LOGIN"})
	require.NoError(t, err)
	require.Len(t, items, 1)
}
