package router

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitness-tracker/internal/authz"
	"fitness-tracker/internal/handler"
	"fitness-tracker/internal/model"
)

var noop = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

func testHandlers() Handlers {
	return Handlers{
		Auth:      &handler.AuthHandler{},
		Diary:     &handler.DatedHandler[model.DiaryEntry, model.DiaryEntryRequest]{},
		Nutrition: &handler.DatedHandler[model.NutritionLog, model.NutritionLogRequest]{},
		Workout:   &handler.WorkoutHandler{},
		Template:  &handler.TemplateHandler{},
		Account:   &handler.AccountHandler{},
		Payment:   &handler.PaymentHandler{},
		Health:    &handler.HealthHandler{},
		Static:    noop,
	}
}

func TestRoutesTableIsValid(t *testing.T) {
	roles := authz.NewGate(authz.DefaultRequirements())
	routes := Routes(testHandlers())

	require.NoError(t, Validate(routes, roles))

	public := map[string]bool{}
	for _, rt := range routes {
		if rt.Access == Public {
			public[rt.Method+" "+rt.Pattern] = true
		}
	}

	assert.Equal(t, map[string]bool{
		"POST /api/auth/login":      true,
		"POST /api/auth/register":   true,
		"POST /api/payment/webhook": true,
		"GET /payment/success":      true,
		"GET /payment/cancel":       true,
		"GET /health":               true,
		"GET /metrics":              true,
		"GET /assets/*":             true,
		"GET /":                     true,
	}, public)
}

func TestRoutesPremiumFamilies(t *testing.T) {
	roles := authz.NewGate(authz.DefaultRequirements())

	for _, rt := range Routes(testHandlers()) {
		if rt.Access != Authenticated {
			continue
		}
		role, ok := roles.RequiredRole(rt.Resource)
		require.True(t, ok, rt.Pattern)

		premium := rt.Resource == model.ResourceNutrition || rt.Resource == model.ResourceTemplate
		if premium {
			assert.Equal(t, model.RolePremium, role, rt.Pattern)
		} else {
			assert.Equal(t, model.RoleUser, role, rt.Pattern)
		}
	}
}

func TestValidate(t *testing.T) {
	roles := authz.NewGate(authz.DefaultRequirements())

	tests := []struct {
		name   string
		routes []Route
		errMsg string
	}{
		{
			name:   "unset access",
			routes: []Route{{Method: http.MethodGet, Pattern: "/x", Handler: noop}},
			errMsg: "access unset",
		},
		{
			name: "duplicate",
			routes: []Route{
				{Method: http.MethodGet, Pattern: "/x", Access: Public, Handler: noop},
				{Method: http.MethodGet, Pattern: "/x", Access: Public, Handler: noop},
			},
			errMsg: "duplicate route GET /x",
		},
		{
			name:   "public with resource",
			routes: []Route{{Method: http.MethodGet, Pattern: "/x", Access: Public, Resource: model.ResourceDiary, Handler: noop}},
			errMsg: "must not name resource",
		},
		{
			name:   "protected without requirement",
			routes: []Route{{Method: http.MethodGet, Pattern: "/x", Access: Authenticated, Resource: "music", Handler: noop}},
			errMsg: "no role requirement",
		},
		{
			name:   "missing handler",
			routes: []Route{{Method: http.MethodGet, Pattern: "/x", Access: Public}},
			errMsg: "no handler",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.routes, roles)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
