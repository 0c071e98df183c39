package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitness-tracker/internal/middleware"
	"fitness-tracker/internal/model"
	"fitness-tracker/internal/service"
	"fitness-tracker/pkg/apierror"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
		details string
	}{
		{name: "api error", err: apierror.BadRequest("bad id", "id"), status: 400, code: "BAD_REQUEST", message: "bad id", details: "id"},
		{name: "upstream", err: fmt.Errorf("find: %w", model.ErrUpstream), status: 503, code: "UPSTREAM_UNAVAILABLE", message: "Upstream service unavailable"},
		{name: "deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), status: 503, code: "UPSTREAM_UNAVAILABLE", message: "Upstream service unavailable"},
		{name: "already exists", err: &service.AuthFailure{Reason: service.FailureAlreadyExists}, status: 409, code: "ALREADY_EXISTS", message: "User already exists"},
		{name: "not found login", err: &service.AuthFailure{Reason: service.FailureNotFound}, status: 401, code: "UNAUTHORIZED", message: "Invalid email or password"},
		{name: "forbidden", err: fmt.Errorf("owner: %w", model.ErrForbidden), status: 403, code: "FORBIDDEN", message: "Access denied"},
		{name: "not found", err: fmt.Errorf("find: %w", model.ErrNotFound), status: 404, code: "NOT_FOUND", message: "Resource not found"},
		{name: "conflict", err: fmt.Errorf("insert: %w", model.ErrConflict), status: 409, code: "CONFLICT", message: "Record already exists for this date"},
		{name: "signature", err: fmt.Errorf("verify: %w", model.ErrInvalidSignature), status: 400, code: "INVALID_SIGNATURE", message: "Webhook signature verification failed"},
		{name: "input", err: fmt.Errorf("start after end: %w", model.ErrInvalidInput), status: 400, code: "BAD_REQUEST", message: "Invalid input", details: "start after end"},
		{name: "unknown", err: errors.New("pq: password authentication failed"), status: 500, code: "INTERNAL_ERROR", message: "Unexpected server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)

			var resp model.APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Message)
			assert.Equal(t, tt.details, resp.Error.Details)
			assert.NotContains(t, rec.Body.String(), "pq:")
		})
	}
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]HealthCheck
		status int
	}{
		{name: "no stores", checks: map[string]HealthCheck{}, status: http.StatusOK},
		{
			name:   "all up",
			checks: map[string]HealthCheck{"postgres": func(context.Context) error { return nil }},
			status: http.StatusOK,
		},
		{
			name: "one down",
			checks: map[string]HealthCheck{
				"postgres": func(context.Context) error { return nil },
				"mongo":    func(context.Context) error { return errors.New("no reachable servers") },
			},
			status: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tt.checks, 0).Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "no reachable servers")
		})
	}
}

func TestAccountMeUsesTokenRoles(t *testing.T) {
	h := NewAccountHandler(nil, nil)
	p := model.Principal{Subject: "a@x.com", Roles: []string{model.RoleUser, model.RolePremium}}

	req := httptest.NewRequest(http.MethodGet, "/api/account/me", nil)
	req = req.WithContext(middleware.WithPrincipal(req.Context(), p))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"email":"a@x.com","roles":["USER","PREMIUM"]}}`, rec.Body.String())
}

func TestHandlersRequirePrincipal(t *testing.T) {
	rec := httptest.NewRecorder()
	NewAccountHandler(nil, nil).Me(rec, httptest.NewRequest(http.MethodGet, "/api/account/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
