// cmd/worker-manager/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gradabroad-workers/internal/common/auth"
	"gradabroad-workers/internal/common/camunda"
	"gradabroad-workers/internal/common/config"
	"gradabroad-workers/internal/common/database"
	apphttp "gradabroad-workers/internal/common/http"
	"gradabroad-workers/internal/common/logger"
	"gradabroad-workers/internal/common/observability"
	"gradabroad-workers/internal/common/storage"
	"gradabroad-workers/internal/common/validation"
	"gradabroad-workers/internal/documents"
	"gradabroad-workers/internal/matching"
	"gradabroad-workers/internal/readiness"
	"gradabroad-workers/internal/submission"
	"gradabroad-workers/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// services is everything the handlers are built from. Optional backends
// are nil when their config section is empty.
type services struct {
	cfg          *config.Config
	zeebe        *camunda.Client
	validator    *validation.InputValidator
	obs          *observability.Observability
	backend      *apphttp.Client
	tokens       *auth.TokenChecker
	documents    *documents.Accessor
	programmes   *readiness.ProgrammeLoader
	aggregator   *readiness.Aggregator
	orchestrator *submission.Orchestrator
	audit        *submission.AuditStore
	guard        *submission.Guard
	store        storage.Store
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	obs := observability.New("gradabroad-workers", log)
	defer obs.Shutdown(context.Background())

	svc := &services{cfg: cfg, obs: obs}

	reg, err := loadRegistry(cfg.RegistryPath)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	svc.validator, err = validation.NewInputValidator(reg)
	if err != nil {
		zapLog.Fatal("input validator init failed", zap.Error(err))
	}

	// --- Zeebe ---
	err = retryWithBackoff(func() error {
		var err error
		svc.zeebe, err = camunda.NewClientFromConfig(cfg.Camunda)
		return err
	}, 5, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL (submission audit log) ---
	if cfg.Database.Postgres.Enabled() {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("postgres schema setup failed", zap.Error(err))
		}
		svc.audit = submission.NewAuditStore(pg.GetDB(), log)
		zapLog.Info("PostgreSQL connected successfully")
	} else {
		zapLog.Info("postgres not configured, submission audit log disabled")
	}

	// --- Redis (document cache, submission guard) ---
	var rdb *database.RedisClient
	if cfg.Database.Redis.Enabled() {
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		svc.guard = submission.NewGuard(rdb.GetClient(), time.Duration(cfg.Database.Redis.GuardTTL)*time.Second)
		zapLog.Info("Redis connected successfully")
	} else {
		zapLog.Info("redis not configured, document cache and submission guard disabled")
	}

	// --- Object storage (staged uploads) ---
	if cfg.Storage.Enabled() {
		svc.store, err = storage.NewMinIO(ctx, cfg.Storage)
		if err != nil {
			zapLog.Fatal("object storage init failed", zap.Error(err))
		}
		zapLog.Info("Object storage connected", zap.String("bucket", cfg.Storage.Bucket))
	}

	// --- Backend and domain services ---
	svc.backend = apphttp.NewClient(cfg.Backend.BaseURL, config.GetDuration(cfg.Backend.Timeout))
	svc.tokens = auth.NewTokenChecker(config.GetDuration(cfg.Backend.TokenLeeway))

	var docOpts []documents.Option
	if rdb != nil && cfg.Documents.TTL() > 0 {
		docOpts = append(docOpts, documents.WithCache(documents.NewCache(rdb.GetClient(), cfg.Documents.TTL(), log)))
	}
	svc.documents = documents.NewAccessor(svc.backend, log, docOpts...)

	matcher, err := matching.New(cfg.Matching.Strategy)
	if err != nil {
		zapLog.Fatal("invalid matching strategy", zap.Error(err))
	}
	svc.aggregator = readiness.NewAggregator(matcher)
	svc.programmes = readiness.NewProgrammeLoader(svc.backend)

	orchOpts := []submission.Option{submission.WithObservability(obs)}
	if svc.audit != nil {
		orchOpts = append(orchOpts, submission.WithRecorder(svc.audit))
	}
	svc.orchestrator = submission.NewOrchestrator(svc.backend, log, orchOpts...)

	workers, err := registerWorkers(ctx, svc, log)
	if err != nil {
		zapLog.Fatal("worker registration failed", zap.Error(err))
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	srv := startServer(cfg.Server.Address, svc.zeebe, zapLog)

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := svc.zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func loadRegistry(path string) (*registry.ActivityRegistry, error) {
	if path == "" {
		return registry.Default()
	}
	return registry.LoadRegistry(path)
}
