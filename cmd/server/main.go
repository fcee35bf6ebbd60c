package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	mirrorapp "github.com/storemirror/backend/internal/application/mirror"
	"github.com/storemirror/backend/internal/infrastructure/cache"
	"github.com/storemirror/backend/internal/infrastructure/config"
	"github.com/storemirror/backend/internal/infrastructure/logger"
	"github.com/storemirror/backend/internal/infrastructure/migration"
	"github.com/storemirror/backend/internal/infrastructure/persistence"
	"github.com/storemirror/backend/internal/infrastructure/scheduler"
	"github.com/storemirror/backend/internal/infrastructure/telemetry"
	"github.com/storemirror/backend/internal/infrastructure/woocommerce"
	"github.com/storemirror/backend/internal/interfaces/http/handler"
	"github.com/storemirror/backend/internal/interfaces/http/middleware"
	"github.com/storemirror/backend/internal/interfaces/http/router"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.FromLogConfig(cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()

	// Telemetry providers; all of them degrade to no-ops when disabled
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if loggerProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(cfg.Telemetry.ServiceName, loggerProvider, logger.ParseLevel(cfg.Log.Level))
		log = telemetry.BridgeLogger(log, otelCore)
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		ProfileTypes:      cfg.Profiling.ProfileTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Profiling.SpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}

	log.Info("Starting store mirror",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Apply pending migrations before the pool opens
	if cfg.Database.AutoMigrate {
		if err := migration.Apply(cfg.Database.DSN(), cfg.Database.MigrationsPath, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel),
		logger.WithSlowThreshold(cfg.Database.SlowQuery),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.DefaultDBTracingConfig()
		dbTracing.SlowQueryThresh = cfg.Database.SlowQuery
		if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
			log.Warn("Database tracing disabled", zap.Error(err))
		}
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}
	if meterProvider.IsEnabled() {
		poolMetrics, err := telemetry.NewDBPoolMetrics(meterProvider.Meter("storemirror.db"), sqlDB, cfg.Telemetry.ExportInterval/4, log)
		if err != nil {
			log.Warn("Database pool metrics disabled", zap.Error(err))
		} else {
			poolMetrics.Start(ctx)
			defer poolMetrics.Stop()
		}
	}

	// Remote store
	remote, err := woocommerce.NewClient(&woocommerce.Config{
		BaseURL:         cfg.WooCommerce.BaseURL,
		ConsumerKey:     cfg.WooCommerce.ConsumerKey,
		ConsumerSecret:  cfg.WooCommerce.ConsumerSecret,
		APIVersion:      cfg.WooCommerce.APIVersion,
		PerPage:         cfg.WooCommerce.PerPage,
		MaxPages:        cfg.WooCommerce.MaxPages,
		TimeoutSeconds:  cfg.WooCommerce.TimeoutSeconds,
		QueryStringAuth: cfg.WooCommerce.QueryStringAuth,
	}, woocommerce.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create WooCommerce client", zap.Error(err))
	}

	// Repositories and services
	productRepo := persistence.NewGormProductRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	resolver := mirrorapp.NewProductResolver(productRepo, remote, log)
	syncService := mirrorapp.NewSyncService(orderRepo, remote, resolver, log,
		mirrorapp.WithSyncWindow(cfg.Sync.Window),
	)
	cleanupService := mirrorapp.NewCleanupService(orderRepo, productRepo, log,
		mirrorapp.WithRetentionMonths(cfg.Cleanup.RetentionMonths),
	)
	orderQueries := mirrorapp.NewOrderQueryService(orderRepo)
	productQueries := mirrorapp.NewProductQueryService(productRepo)

	// Job lock: Redis when available, in-memory otherwise
	jobLock, err := cache.NewJobLockFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.Redis.AllowInMemoryFallback),
	).CreateLock()
	if err != nil {
		log.Fatal("Failed to create job lock", zap.Error(err))
	}
	if closer, ok := jobLock.(interface{ Close() error }); ok {
		defer func() {
			_ = closer.Close()
		}()
	}

	var runnerOpts []scheduler.JobRunnerOption
	mirrorMetrics, err := telemetry.NewMirrorMetrics(meterProvider.Meter("storemirror"), log)
	if err != nil {
		log.Warn("Mirror metrics disabled", zap.Error(err))
	} else {
		runnerOpts = append(runnerOpts, scheduler.WithOutcomeRecorder(mirrorMetrics))
	}

	runner := scheduler.NewJobRunner(scheduler.JobRunnerConfig{
		LockTTL:     cfg.Scheduler.LockTTL,
		JobTimeout:  cfg.Scheduler.JobTimeout,
		HistorySize: cfg.Scheduler.HistorySize,
	}, syncService, cleanupService, jobLock, log, runnerOpts...)

	// Daily triggers
	var triggers []*scheduler.CronTrigger
	if cfg.Scheduler.Enabled {
		jobs := []struct {
			job     scheduler.JobName
			enabled bool
			expr    string
		}{
			{scheduler.JobSync, cfg.Sync.Enabled, cfg.Sync.CronSchedule},
			{scheduler.JobCleanup, cfg.Cleanup.Enabled, cfg.Cleanup.CronSchedule},
		}
		for _, j := range jobs {
			if !j.enabled {
				continue
			}
			schedule, err := scheduler.ParseDailySchedule(j.expr)
			if err != nil {
				log.Fatal("Invalid job schedule", zap.String("job", string(j.job)), zap.Error(err))
			}
			trigger := scheduler.NewCronTrigger(scheduler.CronTriggerConfig{
				Name:          string(j.job),
				Schedule:      schedule,
				CheckInterval: cfg.Scheduler.CheckInterval,
			}, runner.ScheduledJob(j.job), log)
			if err := trigger.Start(ctx); err != nil {
				log.Fatal("Failed to start job trigger", zap.String("job", string(j.job)), zap.Error(err))
			}
			triggers = append(triggers, trigger)
			log.Info("Job scheduled",
				zap.String("job", string(j.job)),
				zap.String("schedule", schedule.String()),
			)
		}
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	var httpMeter metric.Meter
	if meterProvider.IsEnabled() {
		httpMeter = meterProvider.Meter("http.server")
	}

	engine := router.NewEngine(router.EngineConfig{
		Logger:         log,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS:           corsConfig,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled && cfg.Telemetry.HTTPTraceEnabled,
		},
		Meter: httpMeter,
	}, router.Handlers{
		Orders:   handler.NewOrderHandler(orderQueries),
		Products: handler.NewProductHandler(productQueries),
		Jobs:     handler.NewJobHandler(runner),
		Health:   handler.NewHealthHandler(sqlDB),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	for _, trigger := range triggers {
		if err := trigger.Stop(shutdownCtx); err != nil {
			log.Warn("Failed to stop job trigger", zap.Error(err))
		}
	}
	if err := runner.Wait(shutdownCtx); err != nil {
		log.Warn("Jobs still running at shutdown", zap.Error(err))
	}

	if err := profiler.Stop(); err != nil {
		log.Warn("Failed to stop profiler", zap.Error(err))
	}

	telemetryCtx, telemetryCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer telemetryCancel()
	if err := meterProvider.Shutdown(telemetryCtx); err != nil {
		log.Warn("Failed to shut down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(telemetryCtx); err != nil {
		log.Warn("Failed to shut down tracer provider", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(telemetryCtx); err != nil {
		log.Warn("Failed to shut down logger provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
