package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fitness-tracker/internal/auth"
	"fitness-tracker/internal/event"
	"fitness-tracker/internal/metrics"
	"fitness-tracker/internal/model"
	"fitness-tracker/internal/repository"
)

type FailureReason string

const (
	FailureNotFound       FailureReason = "not_found"
	FailureBadCredentials FailureReason = "bad_credentials"
	FailureAlreadyExists  FailureReason = "already_exists"
)

// AuthFailure keeps the internal reason a login or registration was refused.
// Both login reasons unwrap to model.ErrBadCredentials so callers cannot tell them apart.
type AuthFailure struct {
	Reason FailureReason
}

func (e *AuthFailure) Error() string {
	return "authentication failed: " + string(e.Reason)
}

func (e *AuthFailure) Unwrap() error {
	if e.Reason == FailureAlreadyExists {
		return model.ErrAlreadyExists
	}
	return model.ErrBadCredentials
}

type AuthService struct {
	users repository.CredentialStore
	codec *auth.Codec
	bus   event.Bus
	cost  int
	now   func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(users repository.CredentialStore, codec *auth.Codec, bus event.Bus, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users: users,
		codec: codec,
		bus:   bus,
		cost:  bcryptCost,
		now:   time.Now,
	}
}

// Issue verifies email and password and mints a token carrying the roles stored right now.
// The credential store is only read.
func (s *AuthService) Issue(ctx context.Context, email string, password string) (string, error) {
	email = normalizeEmail(email)

	cred, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		// Spend the same bcrypt time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return "", s.loginFailed(ctx, email, FailureNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return "", s.loginFailed(ctx, email, FailureBadCredentials)
	}

	token, err := s.codec.Encode(cred.Email, cred.Roles(), s.now())
	if err != nil {
		return "", err
	}

	metrics.RecordTokenIssued(cred.IsPremium)
	s.publish(event.New(event.TypeLogin, cred.Email, string(model.ResourceAccount), map[string]any{
		"roles": cred.Roles(),
	}).FromRequest(ctx))

	return token, nil
}

func (s *AuthService) loginFailed(ctx context.Context, email string, reason FailureReason) error {
	slog.Debug("login rejected", "email", email, "reason", reason)
	s.publish(event.New(event.TypeLoginFailed, email, string(model.ResourceAccount), map[string]any{
		"reason": string(reason),
	}).FromRequest(ctx).Failed())
	return &AuthFailure{Reason: reason}
}

// Register stores a new non-premium credential.
func (s *AuthService) Register(ctx context.Context, email string, password string) (model.Credential, error) {
	email = normalizeEmail(email)
	if err := validateRegistration(email, password); err != nil {
		return model.Credential{}, err
	}

	exists, err := s.users.Exists(ctx, email)
	if err != nil {
		return model.Credential{}, fmt.Errorf("check credential: %w", err)
	}
	if exists {
		return model.Credential{}, &AuthFailure{Reason: FailureAlreadyExists}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return model.Credential{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	cred := model.Credential{
		Email:        email,
		PasswordHash: string(hash),
		IsPremium:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// A concurrent registration can still win between Exists and Create.
	if err := s.users.Create(ctx, cred); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return model.Credential{}, &AuthFailure{Reason: FailureAlreadyExists}
		}
		return model.Credential{}, fmt.Errorf("create credential: %w", err)
	}

	s.publish(event.New(event.TypeRegistered, email, string(model.ResourceAccount), nil).FromRequest(ctx))
	return cred, nil
}

// UpgradePremium flips the stored premium flag. Tokens already issued keep their roles.
func (s *AuthService) UpgradePremium(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := s.users.SetPremium(ctx, email, true); err != nil {
		return fmt.Errorf("upgrade %s: %w", email, err)
	}

	slog.Info("account upgraded to premium", "email", email)
	s.publish(event.New(event.TypePremiumUpgraded, email, string(model.ResourceAccount), nil).FromRequest(ctx))
	return nil
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	})
	return s.dummyHash
}

func (s *AuthService) publish(e event.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(email string, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required: %w", model.ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("email %q is not a valid address: %w", email, model.ErrInvalidInput)
	}
	if len(password) > 72 {
		return fmt.Errorf("password longer than 72 bytes: %w", model.ErrInvalidInput)
	}
	return nil
}
