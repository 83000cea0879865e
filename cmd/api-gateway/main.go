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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/reuniteapp/reunite-api/api/swagger"
	"github.com/reuniteapp/reunite-api/internal/handler"
	"github.com/reuniteapp/reunite-api/internal/matching"
	"github.com/reuniteapp/reunite-api/internal/middleware"
	"github.com/reuniteapp/reunite-api/internal/models"
	"github.com/reuniteapp/reunite-api/internal/repository"
	"github.com/reuniteapp/reunite-api/internal/service"
	"github.com/reuniteapp/reunite-api/pkg/cache"
	"github.com/reuniteapp/reunite-api/pkg/config"
	"github.com/reuniteapp/reunite-api/pkg/database"
	"github.com/reuniteapp/reunite-api/pkg/export"
	"github.com/reuniteapp/reunite-api/pkg/jobs"
	"github.com/reuniteapp/reunite-api/pkg/logger"
	corsmiddleware "github.com/reuniteapp/reunite-api/pkg/middleware/cors"
	reqidmiddleware "github.com/reuniteapp/reunite-api/pkg/middleware/requestid"
	"github.com/reuniteapp/reunite-api/pkg/storage"
)

// @title Reunite API
// @version 1.0.0
// @description Lost and found reports with automatic match discovery
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Matching.PoolCacheTTL, logr, cfg.Matching.CacheEnabled)
	}

	validate := validator.New()

	itemRepo := repository.NewItemRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)

	extractor := matching.NewExtractor(nil, cfg.Matching.KeywordLimit)
	scorer := matching.NewScorer(matching.Weights{
		Category: cfg.Matching.CategoryWeight,
		Location: cfg.Matching.LocationWeight,
		Keywords: cfg.Matching.KeywordWeight,
	}, extractor)
	finder := matching.NewFinder(scorer, cfg.Matching.MinScore, cfg.Matching.MaxMatches)

	matcherSvc := service.NewMatcherService(itemRepo, matchRepo, notificationRepo, finder, extractor, cacheSvc, metricsSvc, logr, service.MatcherServiceConfig{
		PoolCacheTTL: cfg.Matching.PoolCacheTTL,
	})
	matchWorker := service.NewMatchWorker(matcherSvc, logr)
	matchQueue := jobs.NewQueue("matching", matchWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Matching.WorkerConcurrency,
		MaxRetries: cfg.Matching.WorkerRetries,
		Logger:     logr,
	})
	matchQueue.Start(ctx)
	defer matchQueue.Stop()

	itemSvc := service.NewItemService(itemRepo, matchQueue, cacheSvc, validate, logr, service.ItemServiceConfig{
		DefaultTTL: cfg.Items.DefaultTTL,
	})
	notificationSvc := service.NewNotificationService(notificationRepo, cacheSvc, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	sweepSvc := service.NewSweepService(itemRepo, cacheSvc, metricsSvc, logr, service.SweepConfig{
		Interval:  cfg.Sweep.Interval,
		BatchSize: cfg.Sweep.BatchSize,
	})
	if cfg.Sweep.Enabled {
		sweepSvc.Start(ctx)
	}

	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(itemRepo, store, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.ResultTTL,
		PageSize:  cfg.Exports.PageSize,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter())

	var exportHandler *handler.ExportHandler
	if cfg.Exports.Enabled {
		exportJobRepo := repository.NewExportJobRepository(db)
		exportWorker := service.NewExportWorker(exportJobRepo, exportSvc, cfg.Exports.WorkerRetries, logr)
		exportQueue := jobs.NewQueue("exports", exportWorker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exportQueue.Start(ctx)
		defer exportQueue.Stop()

		exportJobSvc := service.NewExportJobService(exportJobRepo, exportQueue, exportSvc, logr, service.ExportJobServiceConfig{
			ResultTTL:       cfg.Exports.ResultTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
			MaxRetries:      cfg.Exports.WorkerRetries,
		})
		exportJobSvc.RecoverPendingJobs(ctx)
		exportJobSvc.StartCleanup(ctx)
		exportHandler = handler.NewExportHandler(exportJobSvc, logr)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	itemHandler := handler.NewItemHandler(itemSvc, matcherSvc, exportSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, cacheSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/healthz", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Docs.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	items := api.Group("/items")
	items.GET("", middleware.OptionalJWT(authSvc), itemHandler.List)
	items.POST("", middleware.JWT(authSvc), itemHandler.Create)
	items.GET("/:id", itemHandler.Get)
	items.POST("/:id/resolve", middleware.JWT(authSvc), itemHandler.Resolve)
	items.POST("/:id/match", middleware.JWT(authSvc), itemHandler.Match)
	items.GET("/:id/matches", itemHandler.ListMatches)
	items.GET("/:id/matches/preview", itemHandler.PreviewMatches)
	items.GET("/:id/poster", middleware.JWT(authSvc), itemHandler.Poster)

	notifications := api.Group("/notifications", middleware.JWT(authSvc))
	notifications.GET("", notificationHandler.List)
	notifications.GET("/unread-count", notificationHandler.UnreadCount)
	notifications.POST("/:id/read", notificationHandler.MarkRead)
	notifications.POST("/read-all", notificationHandler.MarkAllRead)

	if exportHandler != nil {
		exports := api.Group("/exports")
		exports.POST("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), exportHandler.Create)
		exports.GET("/:id", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), exportHandler.Status)
		exports.GET("/download/:token", exportHandler.Download)
	}

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/stats", metricsHandler.Stats)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
