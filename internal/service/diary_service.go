package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fitness-tracker/internal/event"
	"fitness-tracker/internal/model"
	"fitness-tracker/internal/repository"
	"fitness-tracker/internal/util"
)

// DiaryService manages diary entries and their link to a workout session.
//
// Linkage rules: an entry without a performed workout carries no link; a supplied
// workout id must belong to the caller; otherwise the stored link is kept while it
// still resolves, or a placeholder session is created first. The placeholder is not rolled back when the
// diary write fails.
type DiaryService struct {
	entries       repository.DocumentStore[model.DiaryEntry]
	workouts      repository.DocumentStore[model.WorkoutSession]
	events        recordEvents
	workoutEvents recordEvents
	now           func() time.Time
}

func NewDiaryService(entries repository.DocumentStore[model.DiaryEntry], workouts repository.DocumentStore[model.WorkoutSession], bus event.Bus) *DiaryService {
	return &DiaryService{
		entries:       entries,
		workouts:      workouts,
		events:        recordEvents{bus: bus, resource: model.ResourceDiary},
		workoutEvents: recordEvents{bus: bus, resource: model.ResourceWorkout},
		now:           time.Now,
	}
}

func (s *DiaryService) Create(ctx context.Context, p model.Principal, req model.DiaryEntryRequest) (model.DiaryEntry, error) {
	date, err := model.NormalizeDate(req.Date)
	if err != nil {
		return model.DiaryEntry{}, err
	}

	// Fail early so the common duplicate case never creates a placeholder.
	// The store still enforces uniqueness on insert.
	exists, err := s.entries.ExistsForOwnerAndDate(ctx, p.Subject, date)
	if err != nil {
		return model.DiaryEntry{}, err
	}
	if exists {
		return model.DiaryEntry{}, s.events.conflict(fmt.Errorf("diary entry for %s: %w", date, model.ErrConflict))
	}

	now := s.now().UTC()
	entry := model.DiaryEntry{
		ID:                uuid.NewString(),
		Owner:             p.Subject,
		Date:              date,
		Feeling:           util.CleanName(req.Feeling),
		Notes:             util.CleanText(req.Notes, util.MaxTextRunes),
		WorkoutPerformed:  req.WorkoutPerformed,
		SpotifyTrackID:    req.SpotifyTrackID,
		SpotifyTrackName:  req.SpotifyTrackName,
		SpotifyArtistName: req.SpotifyArtistName,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	placeholder, err := s.link(ctx, p, &entry, req.WorkoutSessionID, "")
	if err != nil {
		return model.DiaryEntry{}, err
	}

	if err := s.entries.Insert(ctx, entry); err != nil {
		s.orphaned(ctx, placeholder, entry, err)
		return model.DiaryEntry{}, s.events.conflict(err)
	}

	s.events.publish(ctx, event.TypeRecordCreated, p.Subject, entry.ID, map[string]any{"date": entry.Date})
	return entry, nil
}

func (s *DiaryService) List(ctx context.Context, p model.Principal, window model.DateRange) ([]model.DiaryEntry, error) {
	return s.entries.FindByOwner(ctx, p.Subject, window)
}

func (s *DiaryService) Range(ctx context.Context, p model.Principal, start string, end string) ([]model.DiaryEntry, error) {
	window, err := parseWindow(start, end)
	if err != nil {
		return nil, err
	}
	return s.entries.FindByOwner(ctx, p.Subject, window)
}

func (s *DiaryService) ByDate(ctx context.Context, p model.Principal, raw string) (model.DiaryEntry, error) {
	date, err := model.NormalizeDate(raw)
	if err != nil {
		return model.DiaryEntry{}, err
	}
	return s.entries.FindByOwnerAndDate(ctx, p.Subject, date)
}

func (s *DiaryService) Get(ctx context.Context, p model.Principal, id string) (model.DiaryEntry, error) {
	return loadOwned(ctx, s.entries, s.events, p, id)
}

// Update replaces the editable fields. Owner, date and creation time always come from the
// stored entry.
func (s *DiaryService) Update(ctx context.Context, p model.Principal, id string, req model.DiaryEntryRequest) (model.DiaryEntry, error) {
	existing, err := loadOwned(ctx, s.entries, s.events, p, id)
	if err != nil {
		return model.DiaryEntry{}, err
	}

	entry := model.DiaryEntry{
		ID:                existing.ID,
		Owner:             existing.Owner,
		Date:              existing.Date,
		Feeling:           util.CleanName(req.Feeling),
		Notes:             util.CleanText(req.Notes, util.MaxTextRunes),
		WorkoutPerformed:  req.WorkoutPerformed,
		SpotifyTrackID:    req.SpotifyTrackID,
		SpotifyTrackName:  req.SpotifyTrackName,
		SpotifyArtistName: req.SpotifyArtistName,
		CreatedAt:         existing.CreatedAt,
		UpdatedAt:         s.now().UTC(),
	}

	placeholder, err := s.link(ctx, p, &entry, req.WorkoutSessionID, existing.WorkoutSessionID)
	if err != nil {
		return model.DiaryEntry{}, err
	}

	if err := s.entries.Replace(ctx, entry); err != nil {
		s.orphaned(ctx, placeholder, entry, err)
		return model.DiaryEntry{}, err
	}

	s.events.publish(ctx, event.TypeRecordUpdated, p.Subject, entry.ID, nil)
	return entry, nil
}

func (s *DiaryService) Delete(ctx context.Context, p model.Principal, id string) error {
	if _, err := loadOwned(ctx, s.entries, s.events, p, id); err != nil {
		return err
	}
	if err := s.entries.Delete(ctx, id); err != nil {
		return err
	}

	s.events.publish(ctx, event.TypeRecordDeleted, p.Subject, id, nil)
	return nil
}

// link sets entry.WorkoutSessionID and returns the placeholder it had to create, if any.
func (s *DiaryService) link(ctx context.Context, p model.Principal, entry *model.DiaryEntry, requested string, stored string) (*model.WorkoutSession, error) {
	entry.WorkoutSessionID = ""
	if !entry.WorkoutPerformed {
		return nil, nil
	}

	if requested != "" {
		workout, err := loadOwned(ctx, s.workouts, s.workoutEvents, p, requested)
		if err != nil {
			return nil, fmt.Errorf("linked workout: %w", err)
		}
		entry.WorkoutSessionID = workout.ID
		return nil, nil
	}

	if stored != "" {
		_, err := s.workouts.FindByID(ctx, stored)
		switch {
		case err == nil:
			entry.WorkoutSessionID = stored
			return nil, nil
		case !errors.Is(err, model.ErrNotFound):
			return nil, fmt.Errorf("linked workout: %w", err)
		}
		slog.Debug("stored workout link no longer resolves", "entry_id", entry.ID, "workout_id", stored)
	}

	start := s.now().UTC()
	placeholder := model.WorkoutSession{
		ID:        uuid.NewString(),
		Owner:     p.Subject,
		Date:      dateOf(start),
		StartTime: start,
		Name:      "Workout on " + entry.Date,
		Exercises: []model.ExerciseLog{},
		CreatedAt: start,
		UpdatedAt: start,
	}
	if err := s.workouts.Insert(ctx, placeholder); err != nil {
		return nil, fmt.Errorf("create placeholder workout: %w", err)
	}

	s.workoutEvents.publish(ctx, event.TypeRecordCreated, p.Subject, placeholder.ID, map[string]any{"placeholder": true})
	entry.WorkoutSessionID = placeholder.ID
	return &placeholder, nil
}

func (s *DiaryService) orphaned(ctx context.Context, placeholder *model.WorkoutSession, entry model.DiaryEntry, cause error) {
	if placeholder == nil {
		return
	}

	slog.Warn("placeholder workout left without diary entry",
		"owner", entry.Owner,
		"date", entry.Date,
		"workout_id", placeholder.ID,
		"error", cause,
	)
	s.workoutEvents.publish(ctx, event.TypeRecordOrphaned, entry.Owner, placeholder.ID, map[string]any{
		"date": entry.Date,
	})
}
