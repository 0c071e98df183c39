package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fitness-tracker/internal/authz"
	"fitness-tracker/internal/event"
	"fitness-tracker/internal/model"
	"fitness-tracker/internal/repository"
	"fitness-tracker/internal/util"
)

type TemplateService struct {
	templates repository.TemplateStore
	events    recordEvents
	now       func() time.Time
}

func NewTemplateService(templates repository.TemplateStore, bus event.Bus) *TemplateService {
	return &TemplateService{
		templates: templates,
		events:    recordEvents{bus: bus, resource: model.ResourceTemplate},
		now:       time.Now,
	}
}

func (s *TemplateService) Create(ctx context.Context, p model.Principal, req model.TemplateRequest) (model.TemplateData, error) {
	exercises, err := templateExercises(req)
	if err != nil {
		return model.TemplateData{}, err
	}

	now := s.now().UTC()
	tpl, stored, err := s.templates.Create(ctx, model.WorkoutTemplate{
		Owner:       p.Subject,
		Name:        util.CleanName(req.Name),
		Description: util.CleanText(req.Description, util.MaxTextRunes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, exercises)
	if err != nil {
		return model.TemplateData{}, err
	}

	s.events.publish(ctx, event.TypeRecordCreated, p.Subject, strconv.FormatInt(tpl.ID, 10), nil)
	return model.TemplateData{Template: tpl, Exercises: stored}, nil
}

func (s *TemplateService) List(ctx context.Context, p model.Principal) ([]model.WorkoutTemplate, error) {
	return s.templates.ListByOwner(ctx, p.Subject)
}

func (s *TemplateService) Get(ctx context.Context, p model.Principal, id int64) (model.TemplateData, error) {
	tpl, err := s.owned(ctx, p, id)
	if err != nil {
		return model.TemplateData{}, err
	}

	exercises, err := s.templates.Exercises(ctx, id)
	if err != nil {
		return model.TemplateData{}, err
	}
	return model.TemplateData{Template: tpl, Exercises: exercises}, nil
}

// Update replaces name, description and the whole exercise list.
func (s *TemplateService) Update(ctx context.Context, p model.Principal, id int64, req model.TemplateRequest) (model.TemplateData, error) {
	existing, err := s.owned(ctx, p, id)
	if err != nil {
		return model.TemplateData{}, err
	}

	exercises, err := templateExercises(req)
	if err != nil {
		return model.TemplateData{}, err
	}

	existing.Name = util.CleanName(req.Name)
	existing.Description = util.CleanText(req.Description, util.MaxTextRunes)
	existing.UpdatedAt = s.now().UTC()

	tpl, stored, err := s.templates.Update(ctx, existing, exercises)
	if err != nil {
		return model.TemplateData{}, err
	}

	s.events.publish(ctx, event.TypeRecordUpdated, p.Subject, strconv.FormatInt(tpl.ID, 10), nil)
	return model.TemplateData{Template: tpl, Exercises: stored}, nil
}

func (s *TemplateService) Delete(ctx context.Context, p model.Principal, id int64) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	if err := s.templates.Delete(ctx, id); err != nil {
		return err
	}

	s.events.publish(ctx, event.TypeRecordDeleted, p.Subject, strconv.FormatInt(id, 10), nil)
	return nil
}

func (s *TemplateService) owned(ctx context.Context, p model.Principal, id int64) (model.WorkoutTemplate, error) {
	tpl, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return model.WorkoutTemplate{}, err
	}
	if err := authz.CheckOwner(p, tpl.Owner); err != nil {
		s.events.denied(ctx, p.Subject, strconv.FormatInt(id, 10))
		return model.WorkoutTemplate{}, err
	}
	return tpl, nil
}

func templateExercises(req model.TemplateRequest) ([]model.TemplateExercise, error) {
	if util.CleanName(req.Name) == "" {
		return nil, fmt.Errorf("template name is required: %w", model.ErrInvalidInput)
	}

	out := make([]model.TemplateExercise, 0, len(req.Exercises))
	for i, ex := range req.Exercises {
		if strings.TrimSpace(ex.ExerciseID) == "" {
			return nil, fmt.Errorf("exercise %d has no exercise_id: %w", i, model.ErrInvalidInput)
		}
		if ex.Sets < 0 || ex.Reps < 0 || ex.Weight < 0 {
			return nil, fmt.Errorf("exercise %d has negative values: %w", i, model.ErrInvalidInput)
		}
		out = append(out, model.TemplateExercise{
			Position:     i,
			ExerciseID:   ex.ExerciseID,
			ExerciseName: util.CleanName(ex.ExerciseName),
			Sets:         ex.Sets,
			Reps:         ex.Reps,
			Weight:       ex.Weight,
		})
	}
	return out, nil
}
