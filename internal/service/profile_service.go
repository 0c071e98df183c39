package service

import (
	"context"
	"fmt"

	"fitness-tracker/internal/event"
	"fitness-tracker/internal/model"
	"fitness-tracker/internal/repository"
	"fitness-tracker/internal/util"
)

// ProfileService reads and writes the caller's own profile. The key is always the
// principal's subject.
type ProfileService struct {
	profiles repository.ProfileStore
	events   recordEvents
}

func NewProfileService(profiles repository.ProfileStore, bus event.Bus) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		events:   recordEvents{bus: bus, resource: model.ResourceProfile},
	}
}

func (s *ProfileService) Get(ctx context.Context, p model.Principal) (model.UserProfile, error) {
	return s.profiles.Get(ctx, p.Subject)
}

func (s *ProfileService) Upsert(ctx context.Context, p model.Principal, req model.ProfileRequest) (model.UserProfile, error) {
	if req.Age < 0 || req.Height < 0 || req.Weight < 0 {
		return model.UserProfile{}, fmt.Errorf("age, height and weight must not be negative: %w", model.ErrInvalidInput)
	}

	profile, err := s.profiles.Upsert(ctx, model.UserProfile{
		Email:             p.Subject,
		Name:              util.CleanName(req.Name),
		Age:               req.Age,
		Height:            req.Height,
		Weight:            req.Weight,
		FitnessGoals:      util.CleanText(req.FitnessGoals, util.MaxTextRunes),
		ProfilePictureURL: req.ProfilePictureURL,
	})
	if err != nil {
		return model.UserProfile{}, err
	}

	s.events.publish(ctx, event.TypeRecordUpdated, p.Subject, p.Subject, nil)
	return profile, nil
}
