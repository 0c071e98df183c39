package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fitness-tracker/internal/authz"
	"fitness-tracker/internal/config"
	"fitness-tracker/internal/handler"
	"fitness-tracker/internal/metrics"
	"fitness-tracker/internal/middleware"
	"fitness-tracker/internal/model"
)

// Access says whether a route passes through the authentication gate.
type Access int

const (
	AccessUnset Access = iota
	Public
	Authenticated
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	default:
		return "unset"
	}
}

// Route is one row of the route-policy table.
type Route struct {
	Method   string
	Pattern  string
	Access   Access
	Resource model.ResourceType
	Handler  http.Handler
}

type Handlers struct {
	Auth      *handler.AuthHandler
	Diary     *handler.DatedHandler[model.DiaryEntry, model.DiaryEntryRequest]
	Nutrition *handler.DatedHandler[model.NutritionLog, model.NutritionLogRequest]
	Workout   *handler.WorkoutHandler
	Template  *handler.TemplateHandler
	Account   *handler.AccountHandler
	Payment   *handler.PaymentHandler
	Health    *handler.HealthHandler
	Static    http.Handler
}

func public(method string, pattern string, h http.HandlerFunc) Route {
	return Route{Method: method, Pattern: pattern, Access: Public, Handler: h}
}

func protected(resource model.ResourceType, method string, pattern string, h http.HandlerFunc) Route {
	return Route{Method: method, Pattern: pattern, Access: Authenticated, Resource: resource, Handler: h}
}

// datedRoutes is shared by the diary and nutrition families.
func datedRoutes[T any, R any](resource model.ResourceType, prefix string, h *handler.DatedHandler[T, R]) []Route {
	return []Route{
		protected(resource, http.MethodPost, prefix, h.Create),
		protected(resource, http.MethodGet, prefix, h.List),
		protected(resource, http.MethodGet, prefix+"/range", h.Range),
		protected(resource, http.MethodGet, prefix+"/date/{date}", h.ByDate),
		protected(resource, http.MethodGet, prefix+"/{id}", h.Get),
		protected(resource, http.MethodPut, prefix+"/{id}", h.Update),
		protected(resource, http.MethodDelete, prefix+"/{id}", h.Delete),
	}
}

// Routes returns the full route-policy table. Every route states its access explicitly.
func Routes(h Handlers) []Route {
	routes := []Route{
		public(http.MethodPost, "/api/auth/login", h.Auth.Login),
		public(http.MethodPost, "/api/auth/register", h.Auth.Register),
		public(http.MethodPost, "/api/payment/webhook", h.Payment.Webhook),
		public(http.MethodGet, "/payment/success", h.Payment.Success),
		public(http.MethodGet, "/payment/cancel", h.Payment.Cancel),
		public(http.MethodGet, "/health", h.Health.Health),
		{Method: http.MethodGet, Pattern: "/metrics", Access: Public, Handler: metrics.Handler()},
	}

	if h.Static != nil {
		routes = append(routes,
			Route{Method: http.MethodGet, Pattern: "/assets/*", Access: Public, Handler: h.Static},
			Route{Method: http.MethodGet, Pattern: "/", Access: Public, Handler: h.Static},
		)
	}

	routes = append(routes, datedRoutes(model.ResourceDiary, "/api/diary", h.Diary)...)
	routes = append(routes, datedRoutes(model.ResourceNutrition, "/api/nutrition", h.Nutrition)...)

	routes = append(routes,
		protected(model.ResourceWorkout, http.MethodPost, "/api/workouts", h.Workout.Create),
		protected(model.ResourceWorkout, http.MethodGet, "/api/workouts", h.Workout.List),
		protected(model.ResourceWorkout, http.MethodGet, "/api/workouts/range", h.Workout.Range),
		protected(model.ResourceWorkout, http.MethodGet, "/api/workouts/template/{templateId}", h.Workout.ByTemplate),
		protected(model.ResourceWorkout, http.MethodGet, "/api/workouts/{id}", h.Workout.Get),
		protected(model.ResourceWorkout, http.MethodPut, "/api/workouts/{id}", h.Workout.Update),
		protected(model.ResourceWorkout, http.MethodDelete, "/api/workouts/{id}", h.Workout.Delete),

		protected(model.ResourceTemplate, http.MethodPost, "/api/templates", h.Template.Create),
		protected(model.ResourceTemplate, http.MethodGet, "/api/templates", h.Template.List),
		protected(model.ResourceTemplate, http.MethodGet, "/api/templates/{id}", h.Template.Get),
		protected(model.ResourceTemplate, http.MethodPut, "/api/templates/{id}", h.Template.Update),
		protected(model.ResourceTemplate, http.MethodDelete, "/api/templates/{id}", h.Template.Delete),

		protected(model.ResourceProfile, http.MethodGet, "/api/profile", h.Account.Profile),
		protected(model.ResourceProfile, http.MethodPut, "/api/profile", h.Account.SaveProfile),

		protected(model.ResourceAccount, http.MethodGet, "/api/account/me", h.Account.Me),
		protected(model.ResourceAccount, http.MethodGet, "/api/account/activity", h.Account.Activity),
	)

	return routes
}

// Validate rejects a table with an unset access level, a duplicate method and pattern,
// a public route carrying a resource, or a protected route without a known role requirement.
func Validate(routes []Route, roles *authz.Gate) error {
	seen := make(map[string]struct{}, len(routes))
	for _, rt := range routes {
		key := rt.Method + " " + rt.Pattern
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate route %s", key)
		}
		seen[key] = struct{}{}

		if rt.Handler == nil {
			return fmt.Errorf("route %s has no handler", key)
		}

		switch rt.Access {
		case Public:
			if rt.Resource != "" {
				return fmt.Errorf("public route %s must not name resource %q", key, rt.Resource)
			}
		case Authenticated:
			if _, ok := roles.RequiredRole(rt.Resource); !ok {
				return fmt.Errorf("route %s names resource %q with no role requirement", key, rt.Resource)
			}
		default:
			return fmt.Errorf("route %s has access %s", key, rt.Access)
		}
	}
	return nil
}

func New(cfg *config.Config, gate *middleware.AuthGate, roles *authz.Gate, h Handlers) (http.Handler, error) {
	routes := Routes(h)
	if err := Validate(routes, roles); err != nil {
		return nil, fmt.Errorf("invalid route table: %w", err)
	}

	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)
	timeout := middleware.Timeout(cfg.RequestTimeout)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(metrics.Instrument)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	for _, rt := range routes {
		var chain []func(http.Handler) http.Handler
		if strings.HasPrefix(rt.Pattern, "/api/") {
			chain = append(chain, timeout)
		}
		if rt.Access == Authenticated {
			chain = append(chain, gate.RequireAuth, gate.RequireRole(rt.Resource))
		}
		r.With(chain...).Method(rt.Method, rt.Pattern, rt.Handler)
	}

	return r, nil
}
