package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/clinic-booking/cmd/mainconfig"
	"github.com/wolfman30/clinic-booking/internal/api/router"
	"github.com/wolfman30/clinic-booking/internal/app/bootstrap"
	"github.com/wolfman30/clinic-booking/internal/appointments"
	"github.com/wolfman30/clinic-booking/internal/availability"
	appconfig "github.com/wolfman30/clinic-booking/internal/config"
	"github.com/wolfman30/clinic-booking/internal/dashboard"
	httpmiddleware "github.com/wolfman30/clinic-booking/internal/http/middleware"
	"github.com/wolfman30/clinic-booking/internal/notify"
	"github.com/wolfman30/clinic-booking/internal/observability/metrics"
	"github.com/wolfman30/clinic-booking/internal/schedules"
	"github.com/wolfman30/clinic-booking/internal/staff"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.close()

	if app.worker != nil {
		app.worker.Start(ctx)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// Let queued notifications drain before stopping the inline worker.
	app.dispatcher.Wait()
	cancel()
	if app.worker != nil {
		app.worker.Wait()
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

type application struct {
	handler    http.Handler
	dispatcher *notify.Dispatcher
	worker     *notify.Worker
	closers    []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp wires every component from cfg. Without DATABASE_URL all stores
// are in memory, which is only meant for local development.
func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*application, error) {
	app := &application{}

	loc, err := cfg.ClinicLocation()
	if err != nil {
		return nil, err
	}

	registry, metricsHandler := setupMetrics()
	bookingMetrics := metrics.NewBookingMetrics(registry)
	checks := map[string]router.HealthCheck{}

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		app.closers = append(app.closers, pool.Close)
		checks["postgres"] = pool.Ping
	}
	sqlDB := openSQLDB(cfg.DatabaseURL, logger)
	if sqlDB != nil {
		app.closers = append(app.closers, func() { _ = sqlDB.Close() })
	}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	var awsCfg *aws.Config
	if needsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg = &loaded
	}

	if pool == nil && cfg.SequenceBackend == "postgres" {
		logger.Warn("DATABASE_URL not set; falling back to in-memory appointment numbers")
		cfg.SequenceBackend = "memory"
	}
	deps := bootstrap.AllocatorDeps{Pool: pool, Redis: redisClient}
	if cfg.SequenceBackend == "dynamodb" && awsCfg != nil {
		deps.Dynamo = dynamodb.NewFromConfig(*awsCfg)
	}
	allocator, err := bootstrap.BuildAllocator(cfg, deps, bookingMetrics, logger)
	if err != nil {
		return nil, err
	}

	var sqsClient *sqs.Client
	if !cfg.UseMemoryQueue && awsCfg != nil {
		sqsClient = sqs.NewFromConfig(*awsCfg)
	}
	queue, inMemory, err := bootstrap.BuildNotificationQueue(cfg, sqsClient)
	if err != nil {
		return nil, err
	}
	app.dispatcher = notify.NewDispatcher(queue, logger, bookingMetrics)

	var (
		apptRepo      appointments.Repository
		scheduleStore schedules.Store
		availRepo     availability.Repository
		staffRepo     staff.Repository
		dashboardH    *dashboard.Handler
	)
	if pool != nil {
		apptRepo = appointments.NewPostgresRepository(pool)
		scheduleStore = schedules.NewPostgresStore(pool)
		availRepo = availability.NewPostgresRepository(pool)
	} else {
		apptRepo = appointments.NewInMemoryRepository()
		scheduleStore = schedules.NewMemoryStore()
		availRepo = availability.NewInMemoryRepository()
	}
	if sqlDB != nil {
		staffRepo = staff.NewSQLRepository(sqlDB)
		dashboardH = dashboard.NewHandler(dashboard.NewService(sqlDB), logger)
	} else {
		staffRepo = staff.NewMemoryRepository()
	}
	if redisClient != nil {
		scheduleStore = schedules.NewCachedStore(scheduleStore, redisClient, cfg.ScheduleCacheTTL, logger)
	}

	if inMemory {
		app.worker = buildWorker(cfg, awsCfg, queue, apptRepo, loc, bookingMetrics, logger)
	}

	service := appointments.NewService(apptRepo, allocator, app.dispatcher, logger,
		appointments.WithLocation(loc),
		appointments.WithMetrics(bookingMetrics),
	)

	if strings.TrimSpace(cfg.StaffJWTSecret) == "" {
		logger.Warn("STAFF_JWT_SECRET not set; staff endpoints will reject every request")
	}
	auth := staff.NewAuthService(staffRepo, cfg.StaffJWTSecret, cfg.StaffTokenTTL, logger)
	users := staff.NewUserService(staffRepo, logger)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := users.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Error("failed to ensure bootstrap admin", "error", err)
		}
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	app.closers = append(app.closers, limiter.Stop)

	app.handler = router.New(&router.Config{
		Logger:             logger,
		Appointments:       appointments.NewHandler(service, logger),
		Schedules:          schedules.NewHandler(scheduleStore, logger),
		Availability:       availability.NewHandler(availRepo, logger),
		Staff:              staff.NewHandler(auth, users, logger),
		Dashboard:          dashboardH,
		Authenticator:      auth,
		RateLimiter:        limiter,
		MetricsHandler:     metricsHandler,
		HealthChecks:       checks,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	return app, nil
}

func buildWorker(cfg *appconfig.Config, awsCfg *aws.Config, queue notify.Queue, recorder notify.SlipRecorder, loc *time.Location, m *metrics.BookingMetrics, logger *logging.Logger) *notify.Worker {
	var sesClient *sesv2.Client
	if cfg.EmailProvider == "ses" && awsCfg != nil {
		sesClient = sesv2.NewFromConfig(*awsCfg)
	}
	opts := []notify.WorkerOption{
		notify.WithWorkerCount(cfg.WorkerCount),
		notify.WithWorkerMetrics(m),
	}
	if cfg.SlipBucket != "" && awsCfg != nil {
		s3Client := s3.NewFromConfig(*awsCfg, func(o *s3.Options) {
			o.UsePathStyle = mainconfig.UsesEndpointOverride(cfg)
		})
		opts = append(opts, notify.WithSlipArchive(notify.NewS3SlipStore(s3Client, cfg.SlipBucket), recorder))
	}
	return notify.NewWorker(queue, bootstrap.BuildEmailSender(cfg, sesClient, logger), notify.NewSlipRenderer(cfg.ClinicName, loc), logger, opts...)
}

func needsAWS(cfg *appconfig.Config) bool {
	return cfg.SequenceBackend == "dynamodb" ||
		!cfg.UseMemoryQueue ||
		cfg.EmailProvider == "ses" ||
		cfg.SlipBucket != ""
}

func setupMetrics() (*prometheus.Registry, http.Handler) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres not reachable", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// openSQLDB opens the database/sql handle used by the staff and dashboard
// stores. Connections are established lazily.
func openSQLDB(databaseURL string, logger *logging.Logger) *sql.DB {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		logger.Error("failed to open sql db", "error", err)
		return nil
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db
}
