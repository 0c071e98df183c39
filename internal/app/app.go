package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitness-tracker/internal/auth"
	"fitness-tracker/internal/authz"
	"fitness-tracker/internal/config"
	"fitness-tracker/internal/event"
	"fitness-tracker/internal/handler"
	"fitness-tracker/internal/middleware"
	"fitness-tracker/internal/router"
	"fitness-tracker/internal/service"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	bus := event.NewBus()
	appRouter, audit, err := buildHandler(cfg, st, bus)
	if err != nil {
		st.close()
		return nil, err
	}

	auditEvents, unsubscribe := bus.Subscribe()
	auditCtx, auditCancel := context.WithCancel(ctx)
	go audit.Run(auditCtx, auditEvents)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		cleanupFuncs: []func(){
			unsubscribe,
			bus.Close,
			auditCancel,
			st.close,
		},
	}, nil
}

// buildHandler wires services, handlers and the route table over st.
func buildHandler(cfg *config.Config, st *stores, bus event.Bus) (http.Handler, *service.AuditService, error) {
	codec, err := auth.NewCodec(cfg.JWTSecret)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	roles := authz.NewGate(authz.DefaultRequirements())

	authService := service.NewAuthService(st.users, codec, bus, cfg.BcryptCost)
	auditService := service.NewAuditService(st.audit)
	paymentService := service.NewPaymentService(authService, st.processed, cfg.PaymentWebhookSecret, cfg.PaymentWebhookTolerance)
	if cfg.PaymentWebhookSecret == "" {
		slog.Warn("PAYMENT_WEBHOOK_SECRET is empty; all payment webhooks will be rejected")
	}

	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Diary:     handler.NewDiaryHandler(service.NewDiaryService(st.diary, st.workouts, bus)),
		Nutrition: handler.NewNutritionHandler(service.NewNutritionService(st.nutrition, bus)),
		Workout:   handler.NewWorkoutHandler(service.NewWorkoutService(st.workouts, st.diary, st.templates, bus)),
		Template:  handler.NewTemplateHandler(service.NewTemplateService(st.templates, bus)),
		Account:   handler.NewAccountHandler(service.NewProfileService(st.profiles, bus), auditService),
		Payment:   handler.NewPaymentHandler(paymentService),
		Health:    handler.NewHealthHandler(st.checks, cfg.StoreTimeout),
	}
	if cfg.StaticRoot != "" {
		handlers.Static = http.FileServer(http.Dir(cfg.StaticRoot))
	}

	gate := middleware.NewAuthGate(codec, st.users, roles, bus)
	appRouter, err := router.New(cfg, gate, roles, handlers)
	if err != nil {
		return nil, nil, err
	}

	return appRouter, auditService, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
