package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fitness-tracker/internal/authz"
	"fitness-tracker/internal/event"
	"fitness-tracker/internal/metrics"
	"fitness-tracker/internal/model"
	"fitness-tracker/internal/repository"
)

// recordEvents publishes lifecycle and denial events for one resource family.
type recordEvents struct {
	bus      event.Bus
	resource model.ResourceType
}

func (r recordEvents) publish(ctx context.Context, typ event.Type, actor string, id string, payload map[string]any) {
	if r.bus == nil {
		return
	}
	if payload == nil {
		payload = map[string]any{}
	}
	payload["id"] = id
	r.bus.Publish(event.New(typ, actor, string(r.resource), payload).FromRequest(ctx))
}

func (r recordEvents) denied(ctx context.Context, actor string, id string) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(event.New(event.TypeAccessDenied, actor, string(r.resource), map[string]any{
		"id": id,
	}).FromRequest(ctx).Failed())
}

// conflict counts and returns a store conflict for a dated record.
func (r recordEvents) conflict(err error) error {
	if errors.Is(err, model.ErrConflict) {
		metrics.RecordDateConflict(string(r.resource))
	}
	return err
}

func loadOwned[T repository.Document](ctx context.Context, store repository.DocumentStore[T], events recordEvents, p model.Principal, id string) (T, error) {
	doc, err := authz.LoadOwned(ctx, store, p, id)
	if errors.Is(err, model.ErrForbidden) {
		events.denied(ctx, p.Subject, id)
	}
	return doc, err
}

// parseWindow validates an inclusive date range. Either bound may be empty.
func parseWindow(start string, end string) (model.DateRange, error) {
	var window model.DateRange
	var err error

	if strings.TrimSpace(start) != "" {
		if window.From, err = model.NormalizeDate(start); err != nil {
			return model.DateRange{}, err
		}
	}
	if strings.TrimSpace(end) != "" {
		if window.To, err = model.NormalizeDate(end); err != nil {
			return model.DateRange{}, err
		}
	}
	if window.From != "" && window.To != "" && window.From > window.To {
		return model.DateRange{}, fmt.Errorf("start %s is after end %s: %w", window.From, window.To, model.ErrInvalidInput)
	}
	return window, nil
}

func dateOf(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
