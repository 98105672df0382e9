package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/orefleet/opstrack-api/api/swagger"
	"github.com/orefleet/opstrack-api/internal/handler"
	"github.com/orefleet/opstrack-api/internal/middleware"
	"github.com/orefleet/opstrack-api/internal/models"
	"github.com/orefleet/opstrack-api/internal/repository"
	"github.com/orefleet/opstrack-api/internal/service"
	"github.com/orefleet/opstrack-api/pkg/cache"
	"github.com/orefleet/opstrack-api/pkg/config"
	"github.com/orefleet/opstrack-api/pkg/database"
	"github.com/orefleet/opstrack-api/pkg/logger"
	corsmiddleware "github.com/orefleet/opstrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/orefleet/opstrack-api/pkg/middleware/requestid"
)

// @title OpsTrack API
// @version 1.0.0
// @description Fleet operations tracking for mining equipment
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

	validate := validator.New()
	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Reports.CacheTTL, logr, true)
		defer cacheRepo.Close() //nolint:errcheck
	}

	operationRepo := repository.NewOperationRepository(db)
	userRepo := repository.NewUserRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	auditService := service.NewAuditService(userRepo, logr, cfg.Audit.Workers, cfg.Audit.BufferSize)
	auditService.Start(context.Background())
	defer auditService.Stop()

	authService := service.NewAuthService(userRepo, validate, logr, auditService, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "opstrack-api",
	})
	operationService := service.NewOperationService(operationRepo, userRepo, validate, logr, auditService)
	monitorService := service.NewMonitorService(operationRepo, userRepo, metricsService, logr, service.MonitorServiceConfig{
		DefaultThreshold: cfg.Monitor.InactivityThreshold,
		BusyThreshold:    cfg.Monitor.OperatorBusyThreshold,
		Location:         cfg.Location(),
	})
	reportService := service.NewReportService(operationRepo, cacheService, logr, service.ReportServiceConfig{
		CacheTTL:      cfg.Reports.CacheTTL,
		ExportMaxRows: cfg.Reports.ExportMaxRows,
		Location:      cfg.Location(),
	})
	catalogService := service.NewCatalogService(equipmentRepo, materialRepo, activityRepo, validate, logr)
	userService := service.NewUserService(userRepo, equipmentRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authService)
	operationHandler := handler.NewOperationHandler(operationService)
	adminHandler := handler.NewAdminHandler(monitorService, operationService)
	reportHandler := handler.NewReportHandler(reportService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	userHandler := handler.NewUserHandler(userService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.GET("/auth/me", authHandler.Me)

	authed.POST("/operations/start", operationHandler.Start)
	authed.GET("/operations/current", operationHandler.Current)
	authed.GET("/operations", operationHandler.List)
	authed.GET("/operations/:id", operationHandler.Get)
	authed.PUT("/operations/:id", operationHandler.Update)
	authed.POST("/operations/:id/stop", operationHandler.Stop)

	authed.GET("/equipment", catalogHandler.ListEquipment)
	authed.GET("/equipment/:id", catalogHandler.GetEquipment)
	authed.GET("/materials", catalogHandler.ListMaterials)
	authed.GET("/activities", catalogHandler.ListActivities)
	authed.GET("/activities/:id", catalogHandler.GetActivity)
	authed.POST("/activities/:id/custom-reasons", catalogHandler.AppendCustomReason)

	admin := authed.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdministrator))

	admin.GET("/admin/alerts", adminHandler.InactivityAlerts)
	admin.GET("/admin/operators/status", adminHandler.OperatorsStatus)
	admin.GET("/admin/dashboard", adminHandler.Dashboard)
	admin.GET("/admin/operations", adminHandler.ListOperations)
	admin.POST("/admin/activities", catalogHandler.CreateActivity)
	admin.GET("/admin/users", userHandler.List)
	admin.GET("/admin/users/:id", userHandler.Get)
	admin.PUT("/admin/users/:id/equipment", userHandler.AssignEquipment)
	admin.GET("/reports/daily", reportHandler.Daily)
	admin.GET("/reports/performance", reportHandler.Performance)
	admin.GET("/reports/export", reportHandler.Export)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
