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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/hifz-progress-api/api/swagger"
	"github.com/noah-isme/hifz-progress-api/internal/catalog"
	"github.com/noah-isme/hifz-progress-api/internal/handler"
	"github.com/noah-isme/hifz-progress-api/internal/middleware"
	"github.com/noah-isme/hifz-progress-api/internal/repository"
	"github.com/noah-isme/hifz-progress-api/internal/service"
	"github.com/noah-isme/hifz-progress-api/pkg/cache"
	"github.com/noah-isme/hifz-progress-api/pkg/config"
	"github.com/noah-isme/hifz-progress-api/pkg/database"
	appErrors "github.com/noah-isme/hifz-progress-api/pkg/errors"
	"github.com/noah-isme/hifz-progress-api/pkg/jobs"
	"github.com/noah-isme/hifz-progress-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/hifz-progress-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/hifz-progress-api/pkg/middleware/requestid"
	"github.com/noah-isme/hifz-progress-api/pkg/scheduler"
)

// @title Hifz Progress API
// @version 1.0.0
// @description Memorization progress aggregation and study recommendations
// @BasePath /api/v1
// @schemes http

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
		logr.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	chapters, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("load chapter catalog: %w", err)
	}

	db, err := database.NewPostgres(ctx, cfg.Database, logr)
	if err != nil {
		return err
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, progress cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	memorizationRepo := repository.NewMemorizationRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	snapshotRepo := repository.NewProgressRepository(db)

	levels := levelThresholds(cfg.Levels)
	progressSvc := service.NewProgressService(service.ProgressServiceParams{
		Catalog:      chapters,
		Memorization: memorizationRepo,
		Students:     studentRepo,
		Snapshots:    snapshotRepo,
		Cache:        cacheSvc,
		Metrics:      metricsSvc,
		Logger:       logr,
		Config: service.ProgressServiceConfig{
			Levels:           levels,
			Location:         cfg.Location(),
			CacheTTL:         cfg.Cache.TTL,
			BatchConcurrency: cfg.Batch.Concurrency,
			BatchMaxRetries:  cfg.Batch.MaxRetries,
			BatchRetryDelay:  cfg.Batch.RetryDelay,
		},
	})
	recommendationSvc := service.NewRecommendationService(service.RecommendationServiceParams{
		Catalog:   chapters,
		Records:   memorizationRepo,
		Students:  studentRepo,
		Snapshots: snapshotRepo,
		Cache:     cacheSvc,
		Metrics:   metricsSvc,
		Logger:    logr,
		Config: service.RecommendationServiceConfig{
			Weights:      scoringWeights(cfg.Recommendation),
			Levels:       levels,
			DefaultLimit: cfg.Recommendation.DefaultLimit,
			RecentWindow: cfg.Recommendation.RecentWindow,
			CacheTTL:     cfg.Recommendation.CacheTTL,
		},
	})
	exportSvc := service.NewExportService(progressSvc, nil, nil, logr)

	queue := jobs.NewQueue("progress-recompute", progressSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Queue.Workers,
		MaxRetries: cfg.Queue.MaxRetries,
		RetryDelay: cfg.Queue.RetryDelay,
		Retryable:  appErrors.IsRetryable,
		OnOutcome:  func(_ jobs.Job, outcome string) { metricsSvc.ObserveJob(outcome) },
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()
	progressSvc.AttachQueue(queue)

	if cfg.Nightly.Enabled {
		sched := scheduler.New(cfg.Location(), logr)
		if err := sched.Daily("nightly-recompute", cfg.Nightly.At, progressSvc.RecomputeAll); err != nil {
			return err
		}
		sched.Start(ctx)
		defer sched.Stop()
	}

	validate := validator.New()
	progressHandler := handler.NewProgressHandler(progressSvc, exportSvc, validate)
	recommendationHandler := handler.NewRecommendationHandler(recommendationSvc, validate)
	catalogHandler := handler.NewCatalogHandler(chapters, validate)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.Pinger{
		"postgres": db,
		"redis":    cacheRepo,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/system/metrics", metricsHandler.System)
	api.GET("/catalog/chapters", catalogHandler.Chapters)
	api.POST("/progress/recompute", progressHandler.RecomputeBatch)

	students := api.Group("/students/:id")
	students.GET("/progress", progressHandler.Snapshot)
	students.POST("/progress/recompute", progressHandler.Recompute)
	students.POST("/progress/refresh", progressHandler.Refresh)
	students.GET("/progress/chapters", progressHandler.Chapters)
	students.GET("/progress/report", progressHandler.Report)
	students.GET("/coverage/:chapter", progressHandler.Coverage)
	students.GET("/streak", progressHandler.Streak)
	students.GET("/recommendations", recommendationHandler.List)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
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
