package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"fadetogo/config"
	"fadetogo/cron"
	"fadetogo/database"
	providerRepo "fadetogo/database/repository/provider"
	schedulerRepo "fadetogo/database/repository/scheduler"
	"fadetogo/handlers"
	"fadetogo/routes"
	"fadetogo/services/booking"
	"fadetogo/services/distance"
	"fadetogo/services/notification"
	"fadetogo/services/provider"
	"fadetogo/services/tasks"
	"fadetogo/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// stores bundles the repositories for the configured STORE_DRIVER plus the
// health checks and shutdown hooks they bring along.
type stores struct {
	bookings schedulerRepo.SchedulerRepository
	settings providerRepo.ProviderRepository
	checks   map[string]utils.Pinger
	close    func(context.Context)
}

func openStores(ctx context.Context, logger *zap.Logger) stores {
	switch config.AppConfig.StoreDriver {
	case "postgres":
		if err := database.InitPostgres(ctx); err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		return stores{
			bookings: schedulerRepo.NewPostgresSchedulerRepo(database.PostgresPool),
			settings: providerRepo.NewPostgresProviderRepo(database.PostgresPool),
			checks:   map[string]utils.Pinger{"postgres": database.PostgresPool.Ping},
			close:    func(context.Context) { database.ClosePostgres() },
		}

	case "memory":
		logger.Warn("Using in-memory store, bookings are lost on restart")
		return stores{
			bookings: schedulerRepo.NewMemorySchedulerRepo(),
			settings: providerRepo.NewMemoryProviderRepo(),
			checks:   map[string]utils.Pinger{},
			close:    func(context.Context) {},
		}

	default:
		if err := database.InitDB(); err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		db := database.MongoDatabase()
		bookings, err := schedulerRepo.NewMongoSchedulerRepo(db)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to prepare bookings collection: %v", err)
		}
		settings, err := providerRepo.NewMongoProviderRepo(db)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to prepare provider settings collection: %v", err)
		}
		return stores{
			bookings: bookings,
			settings: settings,
			checks: map[string]utils.Pinger{
				"mongo": func(ctx context.Context) error { return database.MongoClient.Ping(ctx, nil) },
			},
			close: func(ctx context.Context) { _ = database.CloseDB(ctx) },
		}
	}
}

// distanceProvider prefers the Distance Matrix API and falls back to a
// straight-line estimate without a key. Results are cached when Redis is up.
func distanceProvider(logger *zap.Logger, checks map[string]utils.Pinger) distance.Provider {
	var dist distance.Provider = distance.Haversine{AverageSpeedMPH: config.AppConfig.AverageSpeedMPH}
	if key := config.AppConfig.GoogleAPIKey; key != "" {
		dist = distance.NewGoogleMatrix(key)
	} else {
		logger.Warn("GOOGLE_API_KEY not set, using straight-line distances")
	}

	cache := utils.GetCacheClient()
	if cache == nil {
		return dist
	}
	checks["redis"] = func(ctx context.Context) error { return cache.Ping(ctx).Err() }
	return distance.NewCached(dist, cache, config.AppConfig.DistanceCacheTTL)
}

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := utils.SetupTracing(ctx)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to set up tracing: %v", err)
	}

	st := openStores(ctx, logger)
	dist := distanceProvider(logger, st.checks)

	// Booking events.
	var publisher tasks.Publisher = tasks.NoopPublisher{}
	var worker *asynq.Server
	var queue *asynq.Client
	if config.AppConfig.EventsEnabled {
		queue = asynq.NewClient(cron.RedisOpt())
		publisher = tasks.NewAsynqPublisher(queue, config.AppConfig.ReminderLead())
		worker = cron.InitBookingWorker(notification.LogNotificationService{})
	}

	// services.
	settingsService := provider.NewSettingsService(st.settings)
	scheduler := booking.NewScheduler(st.bookings, config.AppConfig.SchedulerMaxAttempts)
	bookingService := booking.NewBookingService(scheduler, settingsService, dist, publisher)

	utils.StartHealthMonitor(ctx, 30*time.Second, st.checks)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	handlerBundle := handlers.NewHandlerBundle(bookingService, settingsService)
	handlerBundle.AuthEnabled = config.AppConfig.AuthEnabled
	handlerBundle.MaxRequestsPerMin = config.AppConfig.MaxRequestsPerMin
	routes.RegisterRoutes(router, handlerBundle)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           otelhttp.NewHandler(router, "fadetogo"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Errorf("main: server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if worker != nil {
		worker.Shutdown()
	}
	if queue != nil {
		_ = queue.Close()
	}
	utils.CloseCache()
	st.close(shutdownCtx)
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Tracing shutdown failed", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
