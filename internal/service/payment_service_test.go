package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
	"golang.org/x/crypto/bcrypt"

	"fitness-tracker/internal/model"
	"fitness-tracker/internal/repository"
)

const webhookSecret = "whsec_test"

func signedHeader(secret string, at time.Time, payload []byte) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	}).Header
}

func checkoutPayload(id string, email string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session","customer_email":%q}}}`, id, email))
}

func TestPaymentService_Verify(t *testing.T) {
	now := time.Now()
	payload := checkoutPayload("evt_1", "a@x.com")

	svc := NewPaymentService(nil, repository.NewMemoryProcessedEvents(time.Hour), webhookSecret, 5*time.Minute)

	tests := []struct {
		name   string
		header string
		body   []byte
		valid  bool
	}{
		{name: "valid", header: signedHeader(webhookSecret, now, payload), body: payload, valid: true},
		{name: "valid among several v1", header: signedHeader(webhookSecret, now, payload) + ",v1=deadbeef", body: payload, valid: true},
		{name: "wrong secret", header: signedHeader("other", now, payload), body: payload},
		{name: "tampered body", header: signedHeader(webhookSecret, now, payload), body: checkoutPayload("evt_1", "evil@x.com")},
		{name: "stale timestamp", header: signedHeader(webhookSecret, now.Add(-10*time.Minute), payload), body: payload},
		{name: "missing header", header: "", body: payload},
		{name: "no signature", header: fmt.Sprintf("t=%d", now.Unix()), body: payload},
		{name: "bad timestamp", header: "t=abc,v1=00", body: payload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt, err := svc.Verify(tt.body, tt.header)
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, "evt_1", evt.ID)
				assert.Equal(t, checkoutCompleted, evt.Type)
				return
			}
			assert.ErrorIs(t, err, model.ErrInvalidSignature)
		})
	}

	t.Run("no secret rejects everything", func(t *testing.T) {
		open := NewPaymentService(nil, repository.NewMemoryProcessedEvents(time.Hour), "", time.Minute)
		_, err := open.Verify(payload, signedHeader("", time.Now(), payload))
		assert.ErrorIs(t, err, model.ErrInvalidSignature)
	})
}

type upgraderMock struct {
	mock.Mock
}

func (m *upgraderMock) UpgradePremium(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("upgrades once per event id", func(t *testing.T) {
		upgrader := new(upgraderMock)
		upgrader.On("UpgradePremium", mock.Anything, "a@x.com").Return(nil).Once()

		svc := NewPaymentService(upgrader, repository.NewMemoryProcessedEvents(time.Hour), webhookSecret, time.Minute)
		payload := checkoutPayload("evt_1", "a@x.com")

		result, err := svc.HandleWebhook(ctx, payload, signedHeader(webhookSecret, time.Now(), payload))
		require.NoError(t, err)
		assert.Equal(t, WebhookProcessed, result)

		result, err = svc.HandleWebhook(ctx, payload, signedHeader(webhookSecret, time.Now(), payload))
		require.NoError(t, err)
		assert.Equal(t, WebhookDuplicate, result)

		upgrader.AssertExpectations(t)
	})

	t.Run("other event types are ignored", func(t *testing.T) {
		upgrader := new(upgraderMock)
		svc := NewPaymentService(upgrader, repository.NewMemoryProcessedEvents(time.Hour), webhookSecret, time.Minute)
		payload := []byte(`{"id":"evt_2","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","object":"invoice"}}}`)

		result, err := svc.HandleWebhook(ctx, payload, signedHeader(webhookSecret, time.Now(), payload))
		require.NoError(t, err)
		assert.Equal(t, WebhookIgnored, result)
		upgrader.AssertNotCalled(t, "UpgradePremium", mock.Anything, mock.Anything)
	})

	t.Run("unsigned delivery never upgrades", func(t *testing.T) {
		upgrader := new(upgraderMock)
		svc := NewPaymentService(upgrader, repository.NewMemoryProcessedEvents(time.Hour), webhookSecret, time.Minute)

		_, err := svc.HandleWebhook(ctx, checkoutPayload("evt_3", "a@x.com"), "t=1,v1=00")
		assert.ErrorIs(t, err, model.ErrInvalidSignature)
		upgrader.AssertNotCalled(t, "UpgradePremium", mock.Anything, mock.Anything)
	})

	t.Run("client reference id is the fallback", func(t *testing.T) {
		upgrader := new(upgraderMock)
		upgrader.On("UpgradePremium", mock.Anything, "b@x.com").Return(nil)
		svc := NewPaymentService(upgrader, repository.NewMemoryProcessedEvents(time.Hour), webhookSecret, time.Minute)
		payload := []byte(`{"id":"evt_4","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_4","object":"checkout.session","client_reference_id":"b@x.com"}}}`)

		_, err := svc.HandleWebhook(ctx, payload, signedHeader(webhookSecret, time.Now(), payload))
		require.NoError(t, err)
		upgrader.AssertExpectations(t)
	})

	t.Run("failed upgrade can be retried", func(t *testing.T) {
		upgrader := new(upgraderMock)
		upgrader.On("UpgradePremium", mock.Anything, "a@x.com").Return(model.ErrUpstream).Once()
		upgrader.On("UpgradePremium", mock.Anything, "a@x.com").Return(nil).Once()
		svc := NewPaymentService(upgrader, repository.NewMemoryProcessedEvents(time.Hour), webhookSecret, time.Minute)
		payload := checkoutPayload("evt_5", "a@x.com")

		_, err := svc.HandleWebhook(ctx, payload, signedHeader(webhookSecret, time.Now(), payload))
		assert.ErrorIs(t, err, model.ErrUpstream)

		result, err := svc.HandleWebhook(ctx, payload, signedHeader(webhookSecret, time.Now(), payload))
		require.NoError(t, err)
		assert.Equal(t, WebhookProcessed, result)
	})

	t.Run("unknown account is acknowledged without retry", func(t *testing.T) {
		upgrader := new(upgraderMock)
		upgrader.On("UpgradePremium", mock.Anything, "ghost@x.com").
			Return(fmt.Errorf("upgrade ghost@x.com: %w", model.ErrNotFound)).Once()
		svc := NewPaymentService(upgrader, repository.NewMemoryProcessedEvents(time.Hour), webhookSecret, time.Minute)
		payload := checkoutPayload("evt_6", "ghost@x.com")

		result, err := svc.HandleWebhook(ctx, payload, signedHeader(webhookSecret, time.Now(), payload))
		require.NoError(t, err)
		assert.Equal(t, WebhookIgnored, result)

		result, err = svc.HandleWebhook(ctx, payload, signedHeader(webhookSecret, time.Now(), payload))
		require.NoError(t, err)
		assert.Equal(t, WebhookDuplicate, result, "event id stays recorded")
		upgrader.AssertExpectations(t)
	})

	t.Run("session details email is used", func(t *testing.T) {
		upgrader := new(upgraderMock)
		upgrader.On("UpgradePremium", mock.Anything, "c@x.com").Return(nil).Once()
		svc := NewPaymentService(upgrader, repository.NewMemoryProcessedEvents(time.Hour), webhookSecret, time.Minute)
		payload := []byte(`{"id":"evt_7","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_7","object":"checkout.session","customer_details":{"email":"c@x.com"}}}}`)

		_, err := svc.HandleWebhook(ctx, payload, signedHeader(webhookSecret, time.Now(), payload))
		require.NoError(t, err)
		upgrader.AssertExpectations(t)
	})

	t.Run("session without email is rejected", func(t *testing.T) {
		upgrader := new(upgraderMock)
		svc := NewPaymentService(upgrader, repository.NewMemoryProcessedEvents(time.Hour), webhookSecret, time.Minute)
		payload := []byte(`{"id":"evt_8","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_8","object":"checkout.session"}}}`)

		_, err := svc.HandleWebhook(ctx, payload, signedHeader(webhookSecret, time.Now(), payload))
		assert.ErrorIs(t, err, model.ErrInvalidInput)
		upgrader.AssertNotCalled(t, "UpgradePremium", mock.Anything, mock.Anything)
	})
}

func TestPaymentService_UpgradesRealCredential(t *testing.T) {
	ctx := context.Background()
	creds := repository.NewMemoryCredentialStore()
	authSvc := NewAuthService(creds, newTestCodec(t), nil, bcrypt.MinCost)
	_, err := authSvc.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	svc := NewPaymentService(authSvc, repository.NewMemoryProcessedEvents(time.Hour), webhookSecret, time.Minute)
	payload := checkoutPayload("evt_9", "A@x.com")
	_, err = svc.HandleWebhook(ctx, payload, signedHeader(webhookSecret, time.Now(), payload))
	require.NoError(t, err)

	cred, err := creds.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, cred.IsPremium)
}
