package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"fitness-tracker/internal/metrics"
	"fitness-tracker/internal/model"
	"fitness-tracker/internal/repository"
)

const (
	SignatureHeader = "Stripe-Signature"

	checkoutCompleted stripe.EventType = "checkout.session.completed"
)

type WebhookResult string

const (
	WebhookProcessed WebhookResult = "processed"
	WebhookIgnored   WebhookResult = "ignored"
	WebhookDuplicate WebhookResult = "duplicate"
)

type premiumUpgrader interface {
	UpgradePremium(ctx context.Context, email string) error
}

// PaymentService applies payment confirmations. Every delivery must carry a valid
// Stripe signature; without a configured secret nothing is accepted.
type PaymentService struct {
	upgrader  premiumUpgrader
	processed repository.ProcessedEventStore
	secret    string
	tolerance time.Duration
}

func NewPaymentService(upgrader premiumUpgrader, processed repository.ProcessedEventStore, secret string, tolerance time.Duration) *PaymentService {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &PaymentService{
		upgrader:  upgrader,
		processed: processed,
		secret:    secret,
		tolerance: tolerance,
	}
}

func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (WebhookResult, error) {
	evt, err := s.Verify(payload, signature)
	if err != nil {
		metrics.RecordWebhook("rejected")
		return "", err
	}
	if evt.ID == "" {
		metrics.RecordWebhook("malformed")
		return "", fmt.Errorf("webhook event without id: %w", model.ErrInvalidInput)
	}

	if evt.Type != checkoutCompleted {
		slog.Debug("webhook event ignored", "event_id", evt.ID, "type", evt.Type)
		metrics.RecordWebhook(string(WebhookIgnored))
		return WebhookIgnored, nil
	}

	email, err := checkoutEmail(evt)
	if err != nil {
		metrics.RecordWebhook("malformed")
		return "", err
	}

	first, err := s.processed.MarkProcessed(ctx, evt.ID)
	if err != nil {
		return "", err
	}
	if !first {
		slog.Info("webhook event replayed", "event_id", evt.ID)
		metrics.RecordWebhook(string(WebhookDuplicate))
		return WebhookDuplicate, nil
	}

	if err := s.upgrader.UpgradePremium(ctx, email); err != nil {
		// A paid checkout for an unknown account will not resolve on retry.
		if errors.Is(err, model.ErrNotFound) {
			slog.Warn("paid checkout for unknown account", "event_id", evt.ID, "email", email)
			metrics.RecordWebhook(string(WebhookIgnored))
			return WebhookIgnored, nil
		}

		// Let the provider's retry apply it.
		if forgetErr := s.processed.Forget(ctx, evt.ID); forgetErr != nil {
			slog.Error("failed to release webhook event", "event_id", evt.ID, "error", forgetErr)
		}
		metrics.RecordWebhook("failed")
		return "", err
	}

	metrics.RecordWebhook(string(WebhookProcessed))
	return WebhookProcessed, nil
}

// Verify checks the Stripe-Signature header against the payload and decodes the event.
// Events from other API versions are accepted; only the session fields below are read.
func (s *PaymentService) Verify(payload []byte, header string) (stripe.Event, error) {
	if s.secret == "" {
		return stripe.Event{}, fmt.Errorf("webhook secret not configured: %w", model.ErrInvalidSignature)
	}

	evt, err := webhook.ConstructEventWithOptions(payload, header, s.secret, webhook.ConstructEventOptions{
		Tolerance:                s.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("verify webhook: %w: %w", model.ErrInvalidSignature, err)
	}
	return evt, nil
}

func checkoutEmail(evt stripe.Event) (string, error) {
	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return "", fmt.Errorf("checkout event %s has no session: %w", evt.ID, model.ErrInvalidInput)
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
		return "", fmt.Errorf("checkout event %s session: %w", evt.ID, model.ErrInvalidInput)
	}

	var details string
	if session.CustomerDetails != nil {
		details = session.CustomerDetails.Email
	}

	email := firstNonEmpty(session.CustomerEmail, details, session.ClientReferenceID)
	if email == "" {
		return "", fmt.Errorf("checkout session %s has no customer email: %w", evt.ID, model.ErrInvalidInput)
	}
	return email, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
