package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fitness-tracker/internal/auth"
	"fitness-tracker/internal/authz"
	"fitness-tracker/internal/event"
	"fitness-tracker/internal/metrics"
	"fitness-tracker/internal/model"
)

// GateState is the per-request authentication state.
type GateState string

const (
	StateUnauthenticated GateState = "unauthenticated"
	StatePending         GateState = "pending"
	StateAuthenticated   GateState = "authenticated"
	StateRejected        GateState = "rejected"
)

type tokenDecoder interface {
	Decode(token string) (auth.Claims, error)
}

type subjectResolver interface {
	Exists(ctx context.Context, email string) (bool, error)
}

type contextKey string

const principalContextKey contextKey = "principal"

// AuthGate turns a bearer token into a Principal. Public routes never reach it.
type AuthGate struct {
	decoder  tokenDecoder
	subjects subjectResolver
	roles    *authz.Gate
	bus      event.Bus
	now      func() time.Time
}

func NewAuthGate(decoder tokenDecoder, subjects subjectResolver, roles *authz.Gate, bus event.Bus) *AuthGate {
	return &AuthGate{
		decoder:  decoder,
		subjects: subjects,
		roles:    roles,
		bus:      bus,
		now:      time.Now,
	}
}

// Evaluate runs the gate for one request. It ends in StateAuthenticated with a principal,
// in StateRejected, or stays StatePending when the credential store could not answer.
func (g *AuthGate) Evaluate(r *http.Request) (GateState, model.Principal, string, error) {
	token, ok := bearerToken(r)
	if !ok {
		return StateRejected, model.Principal{}, "missing_token", model.ErrUnauthenticated
	}

	// Pending: a token is present.
	claims, err := g.decoder.Decode(token)
	if err != nil {
		return StateRejected, model.Principal{}, "invalid_token", err
	}
	if auth.IsExpired(claims, g.now()) {
		return StateRejected, model.Principal{}, "expired", model.ErrInvalidToken
	}

	exists, err := g.subjects.Exists(r.Context(), claims.Subject)
	if err != nil {
		return StatePending, model.Principal{}, "store_unavailable", err
	}
	if !exists {
		return StateRejected, model.Principal{}, "unknown_subject", model.ErrUnauthenticated
	}

	return StateAuthenticated, model.Principal{Subject: claims.Subject, Roles: claims.Roles}, "", nil
}

func (g *AuthGate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state, principal, reason, err := g.Evaluate(r)
		metrics.RecordGateOutcome(string(state), reason)

		switch state {
		case StateAuthenticated:
			if info := infoFrom(r.Context()); info != nil {
				info.setSubject(principal.Subject)
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		case StatePending:
			slog.Error("authentication gate could not resolve subject", "error", err)
			writeEnvelope(w, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Upstream service unavailable")
		default:
			slog.Debug("request rejected by authentication gate", "reason", reason, "path", r.URL.Path)
			message := "missing or invalid authorization header"
			if errors.Is(err, model.ErrInvalidToken) {
				message = "invalid or expired token"
			}
			writeEnvelope(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
		}
	})
}

// RequireRole checks the token's roles against the requirement for resource.
// The credential store is not consulted.
func (g *AuthGate) RequireRole(resource model.ResourceType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeEnvelope(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
				return
			}

			if err := g.roles.CheckRole(principal, resource); err != nil {
				if g.bus != nil {
					g.bus.Publish(event.New(event.TypeAccessDenied, principal.Subject, string(resource), map[string]any{
						"reason": "role",
						"path":   r.URL.Path,
					}).FromRequest(r.Context()).Failed())
				}
				writeEnvelope(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(model.Principal)
	return p, ok && p.Subject != ""
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}

	token := strings.TrimSpace(header[7:])
	return token, token != ""
}
