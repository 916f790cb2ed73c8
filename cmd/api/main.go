package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"

	"github.com/dunebase/casugen/config"
	"github.com/dunebase/casugen/internal/catalog"
	"github.com/dunebase/casugen/internal/dispatch"
	"github.com/dunebase/casugen/internal/engine"
	"github.com/dunebase/casugen/internal/handlers"
	"github.com/dunebase/casugen/internal/middleware"
	"github.com/dunebase/casugen/internal/notification"
	"github.com/dunebase/casugen/internal/repository"
	"github.com/dunebase/casugen/internal/scenario"
	"github.com/dunebase/casugen/internal/services/download"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTelemetry := setupTelemetry(cfg.Debug)
	defer shutdownTelemetry(context.Background())

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		log.Printf("Warning: Database ping failed: %v", err)
	}

	// Redis backs both the alert queue and the job/catalog cache; it is
	// always connected since ops alerting needs it regardless of
	// CACHE_ENABLED. CACHE_ENABLED only controls whether JobCache reads
	// through to it.
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: Failed to parse Redis URL: %v, using defaults", err)
		redisOpts = &redis.Options{Addr: "localhost:6379", DB: 0}
	}
	redisClient := redis.NewClient(redisOpts)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Printf("Warning: Redis ping failed: %v", err)
	}
	defer redisClient.Close()

	cat, err := catalog.Load(cfg.CatalogOverridePath)
	if err != nil {
		log.Fatalf("Failed to load reference catalog: %v", err)
	}
	resolver := scenario.New(cat, cfg.MaxPatientsPerJob)

	jobRepo := repository.NewJobRepository(db)
	jobStore := repository.NewBreakerStore(jobRepo)
	cacheRedis := redisClient
	if !cfg.CacheEnabled {
		cacheRedis = nil
	}
	jobCache := repository.NewJobCache(cacheRedis, jobRepo)

	var metrics *engine.Metrics
	if cfg.MetricsEnabled {
		metrics, err = engine.NewMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			log.Printf("Warning: Failed to initialize metrics: %v", err)
			metrics = nil
		}
	}

	slackClient := notification.NewSlackClient(&notification.SlackConfig{
		BotToken: cfg.SlackBotToken,
		Channel:  cfg.SlackChannel,
	})
	smsClient := notification.NewSMSClient(&notification.SMSConfig{
		AccountSID:      cfg.TwilioAccountSID,
		AuthToken:       cfg.TwilioAuthToken,
		FromPhoneNumber: cfg.TwilioFromPhoneNumber,
		ToPhoneNumbers:  cfg.TwilioToPhoneNumbers,
	})
	alertQueue := notification.NewAlertQueueWorker(redisClient, slackClient, smsClient)
	opsNotifier := notification.NewOpsNotifier(alertQueue)

	engineCfg := engine.Config{
		DefaultParallelism: cfg.DefaultParallelism,
		MaxParallelism:     cfg.MaxParallelism,
		OutputDirectory:    cfg.OutputDirectory,
		JobTimeout:         time.Duration(cfg.JobTimeoutSeconds) * time.Second,
	}
	gen := engine.New(cat, resolver, jobStore, opsNotifier, engineCfg)
	gen.SetMetrics(metrics)

	jobDispatcher := dispatch.NewJobDispatcher(jobStore, gen, cfg.DispatcherPollInterval, cfg.DispatcherBatchSize)

	tokenService, err := download.NewTokenService(cfg.DownloadTokenSecret, cfg.DownloadTokenDuration)
	if err != nil {
		log.Fatalf("Failed to initialize download token service: %v", err)
	}

	handlers.SetGlobalEngine(gen)
	handlers.SetGlobalDispatcher(jobDispatcher)
	handlers.SetGlobalAlertQueue(alertQueue)
	handlers.SetGlobalJobCache(jobCache)
	handlers.SetGlobalJobLister(jobStore)
	handlers.SetGlobalTokenService(tokenService)

	ctx, cancelBackground := context.WithCancel(context.Background())

	if err := jobDispatcher.Start(ctx); err != nil {
		log.Printf("Warning: Failed to start job dispatcher: %v", err)
	}
	if err := alertQueue.Start(ctx); err != nil {
		log.Printf("Warning: Failed to start alert queue worker: %v", err)
	}

	router := gin.Default()
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())

	router.GET("/api/v1/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.APIKeyRequired(cfg.APIKey))
	{
		generation := v1.Group("/generation")
		{
			generation.POST("/", handlers.SubmitGeneration)
		}

		jobs := v1.Group("/jobs")
		{
			jobs.GET("/", handlers.ListJobs)
			jobs.GET("/:job_id", handlers.GetJobStatus)
		}

		downloads := v1.Group("/downloads")
		{
			downloads.GET("/:job_id", handlers.DownloadOutputs)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // archive downloads can stream for a while
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("casugen API server starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	cancelBackground()
	jobDispatcher.Stop()
	alertQueue.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}

// setupTelemetry wires global OTel tracer/meter providers. In debug mode it
// exports to stdout so a developer can see job-phase spans and counters
// without standing up a collector; otherwise it keeps the no-op defaults
// (NewMetrics still registers Prometheus collectors regardless).
func setupTelemetry(debug bool) func(context.Context) error {
	if !debug {
		return func(context.Context) error { return nil }
	}

	traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		log.Printf("Warning: failed to create trace exporter: %v", err)
		return func(context.Context) error { return nil }
	}
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExporter))
	otel.SetTracerProvider(tracerProvider)

	metricExporter, err := stdoutmetric.New()
	if err != nil {
		log.Printf("Warning: failed to create metric exporter: %v", err)
		return func(ctx context.Context) error { return tracerProvider.Shutdown(ctx) }
	}
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(30*time.Second))))
	otel.SetMeterProvider(meterProvider)

	return func(ctx context.Context) error {
		_ = tracerProvider.Shutdown(ctx)
		return meterProvider.Shutdown(ctx)
	}
}
