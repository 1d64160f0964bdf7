package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academic-record-api/api/swagger"
	"github.com/noah-isme/academic-record-api/internal/handler"
	internalmiddleware "github.com/noah-isme/academic-record-api/internal/middleware"
	"github.com/noah-isme/academic-record-api/internal/repository"
	"github.com/noah-isme/academic-record-api/internal/service"
	"github.com/noah-isme/academic-record-api/pkg/cache"
	"github.com/noah-isme/academic-record-api/pkg/config"
	"github.com/noah-isme/academic-record-api/pkg/database"
	"github.com/noah-isme/academic-record-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-record-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-record-api/pkg/middleware/requestid"
)

// @title Academic Record API
// @version 1.0.0
// @description Student record lifecycle: subjects, grades, semesters and GPA.
// @BasePath /api/v1
// @schemes http https
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	store, db, err := openRecordStore(cfg, metrics, logr)
	if err != nil {
		logr.Fatal("failed to open record store", zap.Error(err))
	}
	if db != nil {
		defer db.Close()
		checks["record_store"] = db.PingContext
	}

	var cacheRepo *repository.CacheRepository
	if cfg.Summary.CacheEnabled || cfg.Advisor.FeedEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching and advisor snapshots disabled", zap.Error(err))
		} else {
			defer client.Close()
			cacheRepo = repository.NewCacheRepository(client)
			checks["redis"] = cacheRepo.Ping
		}
	}

	validate := validator.New()
	var cacheSvc *service.CacheService
	var snapshots service.CacheRepository
	if cacheRepo != nil {
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Summary.CacheTTL, logr, cfg.Summary.CacheEnabled)
		if cfg.Advisor.FeedEnabled {
			snapshots = cacheRepo
		}
	}

	semesters := service.NewSemesterService(store, service.SemesterOptions{
		ConflictRetries: cfg.Records.ConflictRetries,
		Metrics:         metrics,
		Logger:          logr,
	})
	if cacheSvc.Enabled() {
		semesters.Subscribe(cacheSvc)
	}
	advisorFeed := service.NewAdvisorFeedService(store, snapshots, service.AdvisorFeedOptions{
		Workers: cfg.Advisor.Workers,
		Retries: cfg.Advisor.Retries,
		TTL:     cfg.Advisor.ContextTTL,
		Metrics: metrics,
		Logger:  logr,
	})
	if snapshots != nil {
		semesters.Subscribe(advisorFeed)
	}
	advisorFeed.Start(ctx)
	defer advisorFeed.Stop()

	handlers := handler.Handlers{
		Students:  handler.NewStudentHandler(service.NewStudentService(store, cacheSvc, cfg.Summary.CacheTTL, logr), advisorFeed),
		Subjects:  handler.NewSubjectHandler(service.NewSubjectService(semesters, validate)),
		Semesters: handler.NewSemesterHandler(semesters),
	}
	if cfg.Transcripts.Enabled {
		handlers.Transcript = handler.NewTranscriptHandler(service.NewTranscriptService(store, logr, nil, nil))
	}

	tokens := service.NewTokenVerifier(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	if cfg.JWT.Secret == "" {
		logr.Warn("JWT_SECRET is empty; every request will be rejected")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix,
		internalmiddleware.WithResponseMeta(),
		internalmiddleware.JWT(tokens),
		internalmiddleware.ReadOnlyForAdvisors(),
	)
	handler.RegisterRecordRoutes(api, handlers)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("record_store", cfg.Records.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openRecordStore(cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (service.RecordStore, *sqlx.DB, error) {
	if cfg.Records.Store == config.StoreMemory {
		logr.Warn("using in-memory record store; records are lost on restart")
		return repository.NewMemoryRecordRepository(), nil, nil
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return repository.NewRecordRepository(db, metrics), db, nil
}
