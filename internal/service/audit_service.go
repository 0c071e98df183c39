package service

import (
	"context"
	"log/slog"
	"strings"

	"fitness-tracker/internal/event"
	"fitness-tracker/internal/model"
	"fitness-tracker/internal/repository"
)

// AuditService persists bus events as audit entries and serves each user their own trail.
type AuditService struct {
	store repository.AuditStore
}

func NewAuditService(store repository.AuditStore) *AuditService {
	return &AuditService{store: store}
}

// Run drains the bus until ctx is cancelled.
// Run persists events until ctx is done or events is closed. Subscribe before any
// publisher starts so nothing is missed.
func (s *AuditService) Run(ctx context.Context, events <-chan event.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			s.Record(context.WithoutCancel(ctx), e)
		}
	}
}

func (s *AuditService) Record(ctx context.Context, e event.Event) {
	if s == nil {
		return
	}

	entry := model.AuditEntry{
		Action:     string(e.Type),
		OccurredAt: e.Timestamp,
		Actor:      e.Actor,
		IP:         e.IP,
		Status:     e.Status,
		Resource:   e.Resource,
		Detail:     e.Payload,
	}

	if err := s.store.Log(ctx, entry); err != nil {
		slog.Error("failed to write audit entry", "action", entry.Action, "actor", entry.Actor, "error", err)
	}
}

// Query pages the principal's own entries. Any actor in the query is overridden.
func (s *AuditService) Query(ctx context.Context, p model.Principal, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	query.Actor = p.Subject
	query.Action = strings.ToLower(strings.TrimSpace(query.Action))
	return s.store.Query(ctx, query)
}
