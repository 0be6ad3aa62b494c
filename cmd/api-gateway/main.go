package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/edu-insight-api/api/swagger"
	"github.com/noah-isme/edu-insight-api/internal/handler"
	"github.com/noah-isme/edu-insight-api/internal/middleware"
	"github.com/noah-isme/edu-insight-api/internal/models"
	"github.com/noah-isme/edu-insight-api/internal/repository"
	"github.com/noah-isme/edu-insight-api/internal/service"
	"github.com/noah-isme/edu-insight-api/pkg/cache"
	"github.com/noah-isme/edu-insight-api/pkg/config"
	"github.com/noah-isme/edu-insight-api/pkg/database"
	"github.com/noah-isme/edu-insight-api/pkg/jobs"
	"github.com/noah-isme/edu-insight-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edu-insight-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edu-insight-api/pkg/middleware/requestid"
	"github.com/noah-isme/edu-insight-api/pkg/storage"
)

// @title Edu Insight API
// @version 1.0.0
// @description Weekly behavior analytics, risk classification, and intervention tracking
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories.
	eventRepo := repository.NewEventRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	interventionRepo := repository.NewInterventionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	reportRepo := repository.NewReportRepository(db)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(cfg.JWT)
	aggregatorSvc := service.NewAggregatorService(eventRepo, logr)
	academicSvc := service.NewAcademicService(assignmentRepo, gradeRepo, attendanceRepo, logr)
	batchSvc := service.NewBatchService(aggregatorSvc, academicSvc, snapshotRepo, studentRepo, cacheRepo, metricsSvc, logr, cfg.Batch)
	atRiskSvc := service.NewAtRiskService(snapshotRepo, interventionRepo, cacheRepo, metricsSvc, logr, cfg.AtRisk)
	trendSvc := service.NewTrendService(snapshotRepo, cacheRepo, logr, cfg.AtRisk)
	interventionSvc := service.NewInterventionService(interventionRepo, studentRepo, auditRepo, logr)
	digestSvc := service.NewDigestService(atRiskSvc, service.LogMailer{Logger: logr}, logr, cfg.Digest)

	// Background loops.
	batchSvc.StartWeekly(ctx)
	digestSvc.Start(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))

	staffRoles := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher, models.RoleCounselor)
	adminRoles := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

	atRiskHandler := handler.NewAtRiskHandler(atRiskSvc)
	api.GET("/at-risk", staffRoles, atRiskHandler.List)

	trendHandler := handler.NewTrendHandler(trendSvc)
	api.GET("/students/:id/trends", staffRoles, trendHandler.StudentTrends)

	batchHandler := handler.NewBatchHandler(batchSvc, cfg.Batch)
	api.POST("/snapshots/recompute", adminRoles,
		middleware.Audit(auditRepo, models.AuditActionBatchRecompute, "snapshots"),
		batchHandler.Recompute)

	interventionHandler := handler.NewInterventionHandler(interventionSvc)
	api.POST("/interventions", staffRoles, interventionHandler.Create)
	api.GET("/interventions", staffRoles, interventionHandler.List)
	api.GET("/interventions/:id", staffRoles, interventionHandler.Get)
	api.PATCH("/interventions/:id", staffRoles, interventionHandler.Update)
	api.DELETE("/interventions/:id", adminRoles, interventionHandler.Delete)

	if cfg.Reports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(snapshotRepo, interventionRepo, fileStore, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, nil, nil)

		reportWorker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
		reportQueue := jobs.NewQueue("reports", reportWorker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportQueue.Start(ctx)
		defer reportQueue.Stop()

		reportSvc := service.NewReportService(reportRepo, reportQueue, exportSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)

		reportHandler := handler.NewReportHandler(reportSvc, logr)
		api.POST("/reports/generate", staffRoles, reportHandler.GenerateReport)
		api.GET("/reports/status/:id", staffRoles, reportHandler.ReportStatus)
		// Download is token-authenticated, outside the JWT group.
		r.GET(cfg.APIPrefix+"/export/:token", reportHandler.DownloadReport)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}
