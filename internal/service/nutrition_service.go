package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fitness-tracker/internal/event"
	"fitness-tracker/internal/model"
	"fitness-tracker/internal/repository"
)

type NutritionService struct {
	logs   repository.DocumentStore[model.NutritionLog]
	events recordEvents
	now    func() time.Time
}

func NewNutritionService(logs repository.DocumentStore[model.NutritionLog], bus event.Bus) *NutritionService {
	return &NutritionService{
		logs:   logs,
		events: recordEvents{bus: bus, resource: model.ResourceNutrition},
		now:    time.Now,
	}
}

func (s *NutritionService) Create(ctx context.Context, p model.Principal, req model.NutritionLogRequest) (model.NutritionLog, error) {
	date, err := model.NormalizeDate(req.Date)
	if err != nil {
		return model.NutritionLog{}, err
	}

	now := s.now().UTC()
	log := model.NutritionLog{
		ID:        uuid.NewString(),
		Owner:     p.Subject,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyNutrition(&log, req)

	if err := s.logs.Insert(ctx, log); err != nil {
		return model.NutritionLog{}, s.events.conflict(err)
	}

	s.events.publish(ctx, event.TypeRecordCreated, p.Subject, log.ID, map[string]any{"date": log.Date})
	return log, nil
}

func (s *NutritionService) List(ctx context.Context, p model.Principal, window model.DateRange) ([]model.NutritionLog, error) {
	return s.logs.FindByOwner(ctx, p.Subject, window)
}

func (s *NutritionService) Range(ctx context.Context, p model.Principal, start string, end string) ([]model.NutritionLog, error) {
	window, err := parseWindow(start, end)
	if err != nil {
		return nil, err
	}
	return s.logs.FindByOwner(ctx, p.Subject, window)
}

func (s *NutritionService) ByDate(ctx context.Context, p model.Principal, raw string) (model.NutritionLog, error) {
	date, err := model.NormalizeDate(raw)
	if err != nil {
		return model.NutritionLog{}, err
	}
	return s.logs.FindByOwnerAndDate(ctx, p.Subject, date)
}

func (s *NutritionService) Get(ctx context.Context, p model.Principal, id string) (model.NutritionLog, error) {
	return loadOwned(ctx, s.logs, s.events, p, id)
}

// Update keeps the stored owner and date.
func (s *NutritionService) Update(ctx context.Context, p model.Principal, id string, req model.NutritionLogRequest) (model.NutritionLog, error) {
	existing, err := loadOwned(ctx, s.logs, s.events, p, id)
	if err != nil {
		return model.NutritionLog{}, err
	}

	log := model.NutritionLog{
		ID:        existing.ID,
		Owner:     existing.Owner,
		Date:      existing.Date,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: s.now().UTC(),
	}
	applyNutrition(&log, req)

	if err := s.logs.Replace(ctx, log); err != nil {
		return model.NutritionLog{}, err
	}

	s.events.publish(ctx, event.TypeRecordUpdated, p.Subject, log.ID, nil)
	return log, nil
}

func (s *NutritionService) Delete(ctx context.Context, p model.Principal, id string) error {
	if _, err := loadOwned(ctx, s.logs, s.events, p, id); err != nil {
		return err
	}
	if err := s.logs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete nutrition log: %w", err)
	}

	s.events.publish(ctx, event.TypeRecordDeleted, p.Subject, id, nil)
	return nil
}

func applyNutrition(log *model.NutritionLog, req model.NutritionLogRequest) {
	log.TotalCalories = req.TotalCalories
	log.TotalProtein = req.TotalProtein
	log.TotalCarbs = req.TotalCarbs
	log.TotalFat = req.TotalFat
	log.Meals = req.Meals
	if log.Meals == nil {
		log.Meals = []model.Meal{}
	}
}
