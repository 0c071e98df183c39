package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fitness-tracker/internal/authz"
	"fitness-tracker/internal/event"
	"fitness-tracker/internal/model"
	"fitness-tracker/internal/repository"
	"fitness-tracker/internal/util"
)

// WorkoutService manages workout sessions. Sessions are not unique per date; their
// date is the calendar day of the start time.
type WorkoutService struct {
	sessions    repository.DocumentStore[model.WorkoutSession]
	diary       repository.DocumentStore[model.DiaryEntry]
	templates   repository.TemplateStore
	events      recordEvents
	diaryEvents recordEvents
	now         func() time.Time
}

func NewWorkoutService(sessions repository.DocumentStore[model.WorkoutSession], diary repository.DocumentStore[model.DiaryEntry], templates repository.TemplateStore, bus event.Bus) *WorkoutService {
	return &WorkoutService{
		sessions:    sessions,
		diary:       diary,
		templates:   templates,
		events:      recordEvents{bus: bus, resource: model.ResourceWorkout},
		diaryEvents: recordEvents{bus: bus, resource: model.ResourceDiary},
		now:         time.Now,
	}
}

func (s *WorkoutService) Create(ctx context.Context, p model.Principal, req model.WorkoutSessionRequest) (model.WorkoutSession, error) {
	now := s.now().UTC()
	start := now
	if req.StartTime != nil && !req.StartTime.IsZero() {
		start = req.StartTime.UTC()
	}

	if req.EndTime != nil && req.EndTime.Before(start) {
		return model.WorkoutSession{}, fmt.Errorf("end_time before start_time: %w", model.ErrInvalidInput)
	}

	if req.TemplateID != nil {
		if err := s.checkTemplate(ctx, p, *req.TemplateID); err != nil {
			return model.WorkoutSession{}, err
		}
	}

	name := util.CleanName(req.Name)
	if name == "" {
		name = "Workout on " + dateOf(start)
	}

	session := model.WorkoutSession{
		ID:         uuid.NewString(),
		Owner:      p.Subject,
		Date:       dateOf(start),
		StartTime:  start,
		EndTime:    utcPtr(req.EndTime),
		TemplateID: req.TemplateID,
		Name:       name,
		Exercises:  exercisesOrEmpty(req.Exercises),
		Notes:      util.CleanText(req.Notes, util.MaxTextRunes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.sessions.Insert(ctx, session); err != nil {
		return model.WorkoutSession{}, err
	}

	s.events.publish(ctx, event.TypeRecordCreated, p.Subject, session.ID, map[string]any{"date": session.Date})
	return session, nil
}

func (s *WorkoutService) List(ctx context.Context, p model.Principal) ([]model.WorkoutSession, error) {
	return s.sessions.FindByOwner(ctx, p.Subject, model.DateRange{})
}

// Range lists sessions whose start date falls in [start, end].
func (s *WorkoutService) Range(ctx context.Context, p model.Principal, start string, end string) ([]model.WorkoutSession, error) {
	window, err := parseWindow(start, end)
	if err != nil {
		return nil, err
	}
	return s.sessions.FindByOwner(ctx, p.Subject, window)
}

func (s *WorkoutService) ByTemplate(ctx context.Context, p model.Principal, templateID int64) ([]model.WorkoutSession, error) {
	all, err := s.sessions.FindByOwner(ctx, p.Subject, model.DateRange{})
	if err != nil {
		return nil, err
	}

	out := make([]model.WorkoutSession, 0, len(all))
	for _, session := range all {
		if session.TemplateID != nil && *session.TemplateID == templateID {
			out = append(out, session)
		}
	}
	return out, nil
}

func (s *WorkoutService) Get(ctx context.Context, p model.Principal, id string) (model.WorkoutSession, error) {
	return loadOwned(ctx, s.sessions, s.events, p, id)
}

// Update accepts end time, exercises and notes. Owner, start time, date, template and
// name are kept from the stored session.
func (s *WorkoutService) Update(ctx context.Context, p model.Principal, id string, req model.WorkoutSessionRequest) (model.WorkoutSession, error) {
	existing, err := loadOwned(ctx, s.sessions, s.events, p, id)
	if err != nil {
		return model.WorkoutSession{}, err
	}

	if req.EndTime != nil && req.EndTime.Before(existing.StartTime) {
		return model.WorkoutSession{}, fmt.Errorf("end_time before start_time: %w", model.ErrInvalidInput)
	}

	session := existing
	session.EndTime = utcPtr(req.EndTime)
	session.Exercises = exercisesOrEmpty(req.Exercises)
	session.Notes = util.CleanText(req.Notes, util.MaxTextRunes)
	session.UpdatedAt = s.now().UTC()

	if err := s.sessions.Replace(ctx, session); err != nil {
		return model.WorkoutSession{}, err
	}

	s.events.publish(ctx, event.TypeRecordUpdated, p.Subject, session.ID, nil)
	return session, nil
}

// Delete removes a session after clearing every diary link to it, so no entry is left
// pointing at a missing workout.
func (s *WorkoutService) Delete(ctx context.Context, p model.Principal, id string) error {
	if _, err := loadOwned(ctx, s.sessions, s.events, p, id); err != nil {
		return err
	}
	if err := s.unlinkDiary(ctx, p.Subject, id); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}

	s.events.publish(ctx, event.TypeRecordDeleted, p.Subject, id, nil)
	return nil
}

func (s *WorkoutService) unlinkDiary(ctx context.Context, owner string, workoutID string) error {
	if s.diary == nil {
		return nil
	}

	entries, err := s.diary.FindByOwner(ctx, owner, model.DateRange{})
	if err != nil {
		return fmt.Errorf("diary links to workout %s: %w", workoutID, err)
	}

	for _, entry := range entries {
		if entry.WorkoutSessionID != workoutID {
			continue
		}
		entry.WorkoutSessionID = ""
		entry.UpdatedAt = s.now().UTC()
		if err := s.diary.Replace(ctx, entry); err != nil {
			return fmt.Errorf("unlink diary entry %s: %w", entry.ID, err)
		}
		s.diaryEvents.publish(ctx, event.TypeRecordUpdated, owner, entry.ID, map[string]any{"unlinked_workout": workoutID})
	}
	return nil
}

func (s *WorkoutService) checkTemplate(ctx context.Context, p model.Principal, templateID int64) error {
	tpl, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return fmt.Errorf("workout template: %w", err)
	}
	if err := authz.CheckOwner(p, tpl.Owner); err != nil {
		s.events.denied(ctx, p.Subject, fmt.Sprintf("template:%d", templateID))
		return err
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}

func exercisesOrEmpty(in []model.ExerciseLog) []model.ExerciseLog {
	if in == nil {
		return []model.ExerciseLog{}
	}
	return in
}
