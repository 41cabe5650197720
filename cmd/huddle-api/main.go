package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/huddle-api/internal/handler"
	"github.com/noah-isme/huddle-api/internal/repository"
	"github.com/noah-isme/huddle-api/internal/service"
	"github.com/noah-isme/huddle-api/pkg/cache"
	"github.com/noah-isme/huddle-api/pkg/clock"
	"github.com/noah-isme/huddle-api/pkg/config"
	"github.com/noah-isme/huddle-api/pkg/database"
	"github.com/noah-isme/huddle-api/pkg/jobs"
	"github.com/noah-isme/huddle-api/pkg/logger"
	"github.com/noah-isme/huddle-api/pkg/middleware/ratelimit"
	"github.com/noah-isme/huddle-api/pkg/storage"
)

// @title Huddle API
// @version 1.0.0
// @description Meeting coordination: propose windows, collect availability, confirm the overlap.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close() //nolint:errcheck
	}

	scheduler := cron.New()
	deps, err := buildDependencies(ctx, cfg, db, redisClient, scheduler, logr)
	if err != nil {
		return err
	}
	if deps.exportQueue != nil {
		defer deps.exportQueue.Stop()
	}

	scheduler.Start()
	defer func() {
		<-scheduler.Stop().Done()
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, deps, logr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type dependencies struct {
	db          *sqlx.DB
	metrics     *service.MetricsService
	auth        *service.AuthService
	limiter     *ratelimit.Limiter
	exportQueue *jobs.Queue[service.ExportTask]

	authHandler         *handler.AuthHandler
	clockHandler        *handler.ClockHandler
	meetingHandler      *handler.MeetingHandler
	availabilityHandler *handler.AvailabilityHandler
	locationHandler     *handler.LocationHandler
	calendarHandler     *handler.CalendarHandler
	exportHandler       *handler.ExportHandler
	metricsHandler      *handler.MetricsHandler
}

func buildDependencies(ctx context.Context, cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, scheduler *cron.Cron, logr *zap.Logger) (*dependencies, error) {
	validate := service.NewValidator()
	metrics := service.NewMetricsService()

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	meetings := repository.NewMeetingRepository(db)
	windows := repository.NewWindowRepository(db)
	invitees := repository.NewInviteeRepository(db)
	responses := repository.NewResponseRepository(db)
	locations := repository.NewLocationRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.OverlapTTL, logr, cfg.Cache.Enabled)

	dayStart, err := clock.Parse(cfg.Clock.DayStart)
	if err != nil {
		return nil, fmt.Errorf("CLOCK_DAY_START: %w", err)
	}
	dayEnd, err := clock.Parse(cfg.Clock.DayEnd)
	if err != nil {
		return nil, fmt.Errorf("CLOCK_DAY_END: %w", err)
	}

	authSvc := service.NewAuthService(users, sessions, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		AccessTTL:  cfg.JWT.Expiration,
		SessionTTL: cfg.JWT.RefreshExpiration,
		Issuer:     cfg.JWT.Issuer,
	})
	if _, err := scheduler.AddFunc("@daily", func() {
		if _, err := authSvc.PurgeSessions(ctx); err != nil {
			logr.Warn("session purge failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule session purge: %w", err)
	}
	meetingSvc := service.NewMeetingService(meetings, windows, invitees, responses, locations, cacheSvc, validate, logr, service.MeetingServiceConfig{
		DayStart: dayStart,
		DayEnd:   dayEnd,
	})
	availabilitySvc := service.NewAvailabilityService(meetings, windows, invitees, responses, cacheSvc, metrics, validate, logr)
	locationSvc := service.NewLocationService(meetings, locations, validate, logr)
	calendarSvc := service.NewCalendarService(meetings, responses, invitees, locations, users, "", logr)
	clockSvc := service.NewClockService(metrics, validate)

	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
		Logger:            logr,
	})
	if _, err := scheduler.AddFunc("@every 5m", func() {
		if dropped := limiter.Sweep(); dropped > 0 {
			logr.Debug("rate limiter swept", zap.Int("clients", dropped))
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule limiter sweep: %w", err)
	}

	deps := &dependencies{
		db:                  db,
		metrics:             metrics,
		auth:                authSvc,
		limiter:             limiter,
		authHandler:         handler.NewAuthHandler(authSvc),
		clockHandler:        handler.NewClockHandler(clockSvc),
		meetingHandler:      handler.NewMeetingHandler(meetingSvc),
		availabilityHandler: handler.NewAvailabilityHandler(meetingSvc, availabilitySvc),
		locationHandler:     handler.NewLocationHandler(locationSvc),
		calendarHandler:     handler.NewCalendarHandler(calendarSvc),
		metricsHandler:      handler.NewMetricsHandler(metrics, db),
	}

	if cfg.Exports.Enabled {
		if err := wireExports(ctx, cfg, deps, meetings, windows, responses, validate, scheduler, logr); err != nil {
			return nil, err
		}
	}
	return deps, nil
}

func wireExports(ctx context.Context, cfg *config.Config, deps *dependencies, meetings *repository.MeetingRepository, windows *repository.WindowRepository, responses *repository.ResponseRepository, validate *validator.Validate, scheduler *cron.Cron, logr *zap.Logger) error {
	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return fmt.Errorf("init export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportRepo := repository.NewExportJobRepository(deps.db)
	exporter := service.NewExportService(meetings, windows, responses, store, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr)

	worker := service.NewExportWorker(exportRepo, exporter, deps.metrics, cfg.Exports.WorkerRetries, logr)
	queue := jobs.NewQueue[service.ExportTask]("exports", worker.Handle, jobs.Config{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	queue.Start(ctx)
	deps.exportQueue = queue

	exportSvc := service.NewExportJobService(exportRepo, meetings, queue, exporter, validate, logr, service.ExportJobServiceConfig{
		ResultTTL:  cfg.Exports.SignedURLTTL,
		MaxRetries: cfg.Exports.WorkerRetries,
	})
	exportSvc.RecoverPendingJobs(ctx)
	if _, err := exportSvc.ScheduleCleanup(ctx, scheduler, cfg.Exports.CleanupSchedule); err != nil {
		return fmt.Errorf("schedule export cleanup: %w", err)
	}
	deps.exportHandler = handler.NewExportHandler(exportSvc)
	return nil
}
