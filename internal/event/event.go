package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeRegistered      Type = "auth.registered"
	TypeLogin           Type = "auth.login"
	TypeLoginFailed     Type = "auth.login_failed"
	TypePremiumUpgraded Type = "account.premium_upgraded"
	TypeAccessDenied    Type = "access.denied"
	TypeRecordCreated   Type = "record.created"
	TypeRecordUpdated   Type = "record.updated"
	TypeRecordDeleted   Type = "record.deleted"
	TypeRecordOrphaned  Type = "record.orphaned"
)

type Event struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Actor     string         `json:"actor,omitempty"`
	IP        string         `json:"ip,omitempty"`
	Resource  string         `json:"resource,omitempty"`
	Status    string         `json:"status,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func New(typ Type, actor string, resource string, payload map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Actor:     actor,
		Resource:  resource,
		Status:    "success",
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// FromRequest stamps the client address carried by ctx.
func (e Event) FromRequest(ctx context.Context) Event {
	e.IP = ClientIP(ctx)
	return e
}

// Failed marks the event as describing a rejected action.
func (e Event) Failed() Event {
	e.Status = "failure"
	return e
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}

type ipKey struct{}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipKey{}, ip)
}

func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(ipKey{}).(string)
	return ip
}
