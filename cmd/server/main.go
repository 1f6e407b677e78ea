package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditapp "github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/audit"
	catalogapp "github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/catalog"
	identityapp "github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/identity"
	ledgerapp "github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/ledger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/reconcile"
	subscriptionapp "github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/subscription"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/auth"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/billing"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/cache"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/config"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/lock"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/logger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/scheduler"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/tax"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/telemetry"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/interfaces/http/handler"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/interfaces/http/middleware"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Bootstrap logger until the OTLP core exists
	bootLog, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	tel, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	log := bootLog
	if tel.IsEnabled() {
		log, err = logger.New(
			logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output},
			telemetry.NewZapCore(tel, logger.ParseLevel(cfg.Log.Level)),
		)
		if err != nil {
			bootLog.Fatal("Failed to initialize logger", zap.Error(err))
		}
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting billing engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		DBName:     cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	var rdb *redis.Client
	if cfg.Lock.Backend == config.BackendRedis || cfg.Idempotency.Backend == config.BackendRedis {
		rdb, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	locker, err := lock.New(cfg.Lock, redisOrNil(rdb), log)
	if err != nil {
		log.Fatal("Failed to create locker", zap.Error(err))
	}
	store, err := cache.NewIdempotencyStore(cfg.Idempotency, redisOrNil(rdb), log)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	metrics, err := telemetry.NewBillingMetrics(tel.Meter("billing"))
	if err != nil {
		log.Fatal("Failed to create billing metrics", zap.Error(err))
	}
	calc, err := tax.NewFlatRateCalculator(nil)
	if err != nil {
		log.Fatal("Failed to create tax calculator", zap.Error(err))
	}

	scope := persistence.NewGormTransactionScope(db.DB)
	repos := persistence.NewRepositories(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)
	recorder := auditapp.NewRecorder(auditRepo, cfg.Audit.StrictMode, metrics, log)

	charger, err := newCharger(cfg.Billing, repos.Tenants(), log)
	if err != nil {
		log.Fatal("Failed to create renewal charger", zap.Error(err))
	}

	identitySvc := identityapp.NewService(scope, repos, auth.NewJWTService(cfg.JWT), recorder, log)
	ledgerSvc := ledgerapp.NewService(scope, repos, locker, calc, recorder, metrics, ledgerapp.Config{
		StrictOverpayment:  cfg.Ledger.StrictOverpayment,
		MaxConflictRetries: cfg.Ledger.MaxConflictRetries,
		NumberPrefix:       cfg.Ledger.InvoiceNumberPrefix,
	})
	subscriptionSvc := subscriptionapp.NewService(scope, repos, locker, charger, recorder, metrics, cfg.Ledger.MaxConflictRetries)
	limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst)

	jobs := scheduler.New(log)
	if cfg.Scheduler.ExpirySweepEnabled {
		mustRegister(log, jobs, scheduler.ExpirySweepJob(subscriptionSvc, cfg.Scheduler.ExpirySweepInterval, cfg.Scheduler.ExpirySweepBatchSize))
	}
	mustRegister(log, jobs, scheduler.SessionPurgeJob(identitySvc, cfg.Scheduler.SessionPurgeInterval))
	mustRegister(log, jobs, scheduler.LimiterPruneJob(limiter, 5*time.Minute))

	checks := []handler.Check{{Name: "database", Probe: func(context.Context) error { return db.Ping() }}}
	if rdb != nil {
		checks = append(checks, handler.Check{Name: "redis", Probe: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	deps := router.Deps{
		Config:       cfg.HTTP,
		ServiceName:  cfg.Telemetry.ServiceName,
		Logger:       log,
		Tracing:      tel.IsEnabled(),
		Limiter:      limiter,
		WebhookKey:   cfg.Webhook.Secret,
		Identity:     identitySvc,
		Catalog:      catalogapp.NewService(scope, repos),
		Ledger:       ledgerSvc,
		Webhooks:     ledgerapp.NewWebhookProcessor(ledgerSvc, store, cfg.Idempotency.TTL, metrics),
		Subscription: subscriptionSvc,
		Reconcile:    reconcile.NewService(scope, repos, locker, metrics, cfg.Ledger.MaxConflictRetries),
		Audit:        auditapp.NewQueryService(auditRepo),
		Jobs:         jobs,
		Checks:       checks,
	}
	if tel.IsEnabled() {
		deps.Meter = tel.Meter("http")
	}
	engine, err := router.New(deps)
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	if err := jobs.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Error("Scheduler did not stop cleanly", zap.Error(err))
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Error("Telemetry flush failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newCharger selects how renewal periods are paid for
func newCharger(cfg config.BillingConfig, tenants billing.TenantFinder, log *zap.Logger) (subscriptionapp.RenewalCharger, error) {
	switch cfg.Charger {
	case config.ChargerStripe:
		log.Info("Renewals are charged through Stripe", zap.Bool("test_mode", cfg.StripeTestMode))
		return billing.NewStripeCharger(&billing.StripeConfig{
			SecretKey:           cfg.StripeSecretKey,
			IsTestMode:          cfg.StripeTestMode,
			StatementDescriptor: cfg.StripeStatementDescriptor,
		}, tenants, log)
	default:
		log.Warn("Renewal charges are only logged", zap.String("charger", cfg.Charger))
		return subscriptionapp.LogCharger{}, nil
	}
}

// redisOrNil avoids handing the factories a typed-nil interface
func redisOrNil(c *redis.Client) redis.UniversalClient {
	if c == nil {
		return nil
	}
	return c
}

func mustRegister(log *zap.Logger, s *scheduler.Scheduler, job scheduler.Job) {
	if err := s.Register(job); err != nil {
		log.Fatal("Failed to register job", zap.String("job", job.Name), zap.Error(err))
	}
}
