package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fitness-tracker/internal/config"
	"fitness-tracker/internal/database"
	"fitness-tracker/internal/handler"
	"fitness-tracker/internal/metrics"
	"fitness-tracker/internal/model"
	"fitness-tracker/internal/repository"
)

// processedEventTTL outlives the provider's webhook retry window.
const processedEventTTL = 48 * time.Hour

type stores struct {
	users     repository.CredentialStore
	profiles  repository.ProfileStore
	templates repository.TemplateStore
	audit     repository.AuditStore
	diary     repository.DocumentStore[model.DiaryEntry]
	nutrition repository.DocumentStore[model.NutritionLog]
	workouts  repository.DocumentStore[model.WorkoutSession]
	processed repository.ProcessedEventStore

	checks  map[string]handler.HealthCheck
	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func memoryStores() *stores {
	return &stores{
		users:     repository.NewMemoryCredentialStore(),
		profiles:  repository.NewMemoryProfileStore(),
		templates: repository.NewMemoryTemplateStore(),
		audit:     repository.NewMemoryAuditStore(),
		diary:     repository.NewMemoryDocumentStore[model.DiaryEntry](repository.CollectionDiary, true),
		nutrition: repository.NewMemoryDocumentStore[model.NutritionLog](repository.CollectionNutrition, true),
		workouts:  repository.NewMemoryDocumentStore[model.WorkoutSession](repository.CollectionWorkouts, false),
		processed: repository.NewMemoryProcessedEvents(processedEventTTL),
		checks:    map[string]handler.HealthCheck{},
	}
}

// openStores connects the backends selected by STORAGE_MODE.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.StorageMode == config.StorageModeMemory {
		slog.Warn("using in-memory stores; data is lost on restart")
		st := memoryStores()
		if err := attachRedis(ctx, cfg, st); err != nil {
			return nil, err
		}
		return st, nil
	}

	st := &stores{checks: map[string]handler.HealthCheck{}}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	st.closers = append(st.closers, db.Close)
	st.checks["postgres"] = db.Health

	if err := db.Migrate(ctx); err != nil {
		st.close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := db.RegisterMetrics(metrics.Registry); err != nil {
		slog.Warn("database pool metrics disabled", "error", err)
	}

	pool, timeout := db.Pool, cfg.StoreTimeout
	st.users = repository.NewUserRepository(pool, timeout)
	st.profiles = repository.NewProfileRepository(pool, timeout)
	st.templates = repository.NewTemplateRepository(pool, timeout)
	st.audit = repository.NewAuditRepository(pool, timeout)

	switch cfg.StorageMode {
	case config.StorageModeSplit:
		if err := attachMongo(ctx, cfg, st); err != nil {
			st.close()
			return nil, err
		}
	default:
		st.diary = repository.NewPostgresDocumentStore[model.DiaryEntry](pool, repository.CollectionDiary, true, timeout)
		st.nutrition = repository.NewPostgresDocumentStore[model.NutritionLog](pool, repository.CollectionNutrition, true, timeout)
		st.workouts = repository.NewPostgresDocumentStore[model.WorkoutSession](pool, repository.CollectionWorkouts, false, timeout)
	}
	slog.Info("stores ready", "mode", cfg.StorageMode)

	st.processed = repository.NewMemoryProcessedEvents(processedEventTTL)
	if err := attachRedis(ctx, cfg, st); err != nil {
		st.close()
		return nil, err
	}

	return st, nil
}

func attachMongo(ctx context.Context, cfg *config.Config, st *stores) error {
	mdb, err := database.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return fmt.Errorf("failed to connect to mongo: %w", err)
	}
	st.closers = append(st.closers, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mdb.Close(closeCtx); err != nil {
			slog.Warn("mongo disconnect failed", "error", err)
		}
	})
	st.checks["mongo"] = mdb.Health

	diary := repository.NewMongoDocumentStore[model.DiaryEntry](mdb.Database, repository.CollectionDiary, true, cfg.StoreTimeout)
	nutrition := repository.NewMongoDocumentStore[model.NutritionLog](mdb.Database, repository.CollectionNutrition, true, cfg.StoreTimeout)
	workouts := repository.NewMongoDocumentStore[model.WorkoutSession](mdb.Database, repository.CollectionWorkouts, false, cfg.StoreTimeout)

	for _, ensure := range []func(context.Context) error{diary.EnsureIndexes, nutrition.EnsureIndexes, workouts.EnsureIndexes} {
		if err := ensure(ctx); err != nil {
			return fmt.Errorf("failed to ensure mongo indexes: %w", err)
		}
	}

	st.diary, st.nutrition, st.workouts = diary, nutrition, workouts
	return nil
}

// attachRedis swaps in the shared processed-event log when REDIS_URL is set.
func attachRedis(ctx context.Context, cfg *config.Config, st *stores) error {
	if cfg.RedisURL == "" {
		return nil
	}

	client, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	st.closers = append(st.closers, func() { _ = client.Close() })
	st.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	st.processed = repository.NewRedisProcessedEvents(client, processedEventTTL)
	return nil
}
