package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fitness-tracker/internal/event"
	"fitness-tracker/internal/model"
	"fitness-tracker/internal/repository"
)

func TestAuditService_RunPersistsBusEvents(t *testing.T) {
	store := repository.NewMemoryAuditStore()
	svc := NewAuditService(store)
	bus := event.NewBus()

	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	// published before the consumer goroutine is scheduled
	bus.Publish(event.New(event.TypeLogin, alice.Subject, "account", nil))
	bus.Publish(event.New(event.TypeRecordCreated, alice.Subject, "diary", map[string]any{"id": "d1"}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, events)
		close(done)
	}()

	require.Eventually(t, func() bool {
		entries, _, _ := store.Query(context.Background(), model.AuditQuery{Actor: alice.Subject})
		return len(entries) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestAuditService_RunStopsWhenBusCloses(t *testing.T) {
	bus := event.NewBus()
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		NewAuditService(repository.NewMemoryAuditStore()).Run(context.Background(), events)
		close(done)
	}()

	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the bus closed")
	}
}

func TestAuditService_QueryIsScopedToPrincipal(t *testing.T) {
	ctx := context.Background()
	store := new(repository.MockAuditStore)
	svc := NewAuditService(store)

	store.On("Query", mock.Anything, model.AuditQuery{Actor: alice.Subject, Action: "auth.login", Page: 1, Limit: 10}).
		Return([]model.AuditEntry{{Action: "auth.login", Actor: alice.Subject}}, model.Meta{Page: 1, Limit: 10, Total: 1, TotalPages: 1}, nil)

	entries, meta, err := svc.Query(ctx, alice, model.AuditQuery{Actor: bob.Subject, Action: " AUTH.LOGIN ", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 1, meta.Total)
	store.AssertExpectations(t)
}

func TestAuditService_RecordMapsEvent(t *testing.T) {
	store := new(repository.MockAuditStore)
	svc := NewAuditService(store)

	ctx := event.WithClientIP(context.Background(), "10.1.1.1")
	e := event.New(event.TypeAccessDenied, bob.Subject, "diary", map[string]any{"id": "d1"}).FromRequest(ctx).Failed()

	store.On("Log", mock.Anything, mock.MatchedBy(func(entry model.AuditEntry) bool {
		return entry.Action == "access.denied" &&
			entry.Actor == bob.Subject &&
			entry.IP == "10.1.1.1" &&
			entry.Status == "failure" &&
			entry.Detail["id"] == "d1"
	})).Return(nil)

	svc.Record(ctx, e)
	store.AssertExpectations(t)
}
