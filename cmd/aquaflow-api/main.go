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

	_ "github.com/aquaflow/aquaflow-api/api/swagger"
	"github.com/aquaflow/aquaflow-api/internal/handler"
	"github.com/aquaflow/aquaflow-api/internal/maps"
	"github.com/aquaflow/aquaflow-api/internal/middleware"
	"github.com/aquaflow/aquaflow-api/internal/models"
	"github.com/aquaflow/aquaflow-api/internal/repository"
	"github.com/aquaflow/aquaflow-api/internal/service"
	"github.com/aquaflow/aquaflow-api/pkg/cache"
	"github.com/aquaflow/aquaflow-api/pkg/config"
	"github.com/aquaflow/aquaflow-api/pkg/database"
	"github.com/aquaflow/aquaflow-api/pkg/export"
	"github.com/aquaflow/aquaflow-api/pkg/logger"
	corsmiddleware "github.com/aquaflow/aquaflow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/aquaflow/aquaflow-api/pkg/middleware/requestid"
)

// @title AquaFlow API
// @version 1.0.0
// @description Water leak reporting and plumber dispatch platform
// @BasePath /
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("postgres connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and events disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	leakRepo := repository.NewLeakRepository(db)
	plumberRepo := repository.NewPlumberRepository(db)
	requestRepo := repository.NewServiceRequestRepository(db)
	sensorRepo := repository.NewSensorRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Matching.CacheTTL, logr, redisClient != nil)
	mapsClient := maps.NewClient(cfg.Maps, logr)

	notificationSvc := service.NewNotificationService(cacheRepo, cfg.Notifications, logr)

	authSvc := service.NewAuthService(userRepo, plumberRepo, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	}, validate, logr)
	leakSvc := service.NewLeakService(leakRepo, validate, logr)
	plumberSvc := service.NewPlumberService(plumberRepo, validate, logr)
	matchingSvc := service.NewMatchingService(plumberRepo, mapsClient, cacheSvc, cfg.Matching, validate, logr).WithMetrics(metricsSvc)
	lifecycleSvc := service.NewLifecycleService(requestRepo, plumberRepo, leakRepo, matchingSvc, notificationSvc, validate, logr).WithMetrics(metricsSvc)
	paymentSvc := service.NewPaymentService(requestRepo, validate, logr)
	sensorSvc := service.NewSensorService(sensorRepo, leakRepo, requestRepo, validate, logr).WithMetrics(metricsSvc)
	invoiceSvc := service.NewInvoiceService(requestRepo, leakRepo, plumberRepo, export.NewInvoiceRenderer(), cfg.Payments.Currency, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	leakHandler := handler.NewLeakHandler(leakSvc)
	plumberHandler := handler.NewPlumberHandler(plumberSvc)
	serviceHandler := handler.NewServiceHandler(lifecycleSvc, invoiceSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	sensorHandler := handler.NewSensorHandler(sensorSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
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
	auth.POST("/staff/login", authHandler.LoginStaff)
	auth.POST("/plumbers/login", authHandler.LoginPlumber)
	auth.POST("/staff/register", middleware.JWT(authSvc), middleware.RequireAdmin(), authHandler.RegisterStaff)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	sensors := api.Group("/sensors")
	sensors.POST("/readings", middleware.APIKey(cfg.IoT.APIKey), sensorHandler.Ingest)
	sensors.GET("/readings", middleware.JWT(authSvc), middleware.RequireActor(models.ActorStaff), sensorHandler.List)
	sensors.GET("/latest", middleware.JWT(authSvc), middleware.RequireActor(models.ActorStaff), sensorHandler.Latest)

	leaks := api.Group("/leaks", middleware.JWT(authSvc))
	leaks.GET("", leakHandler.List)
	leaks.GET("/stats", middleware.RequireActor(models.ActorStaff), leakHandler.Stats)
	leaks.GET("/:id", leakHandler.Get)
	leaks.POST("", middleware.RequireActor(models.ActorStaff), leakHandler.Report)
	leaks.PUT("/:id", middleware.RequireActor(models.ActorStaff), leakHandler.Update)
	leaks.DELETE("/:id", middleware.RequireAdmin(), leakHandler.Delete)

	plumbers := api.Group("/plumbers")
	plumbers.POST("", plumberHandler.Register)
	plumbers.GET("", middleware.JWT(authSvc), plumberHandler.List)
	plumbers.GET("/nearby", middleware.JWT(authSvc), middleware.RequireActor(models.ActorStaff), plumberHandler.Nearby)
	plumbers.GET("/:id", middleware.JWT(authSvc), plumberHandler.Get)
	plumbers.GET("/:id/stats", middleware.JWT(authSvc), plumberHandler.Stats)
	plumbers.PUT("/:id", middleware.JWT(authSvc), plumberHandler.Update)
	plumbers.PUT("/:id/availability", middleware.JWT(authSvc), middleware.RequireActor(models.ActorPlumber), plumberHandler.SetAvailability)
	plumbers.PUT("/:id/verify", middleware.JWT(authSvc), middleware.RequireAdmin(), plumberHandler.Verify)

	services := api.Group("/services", middleware.JWT(authSvc))
	services.GET("", serviceHandler.List)
	services.GET("/stats", middleware.RequireActor(models.ActorStaff), serviceHandler.Stats)
	services.GET("/:id", serviceHandler.Get)
	services.POST("", middleware.RequireActor(models.ActorStaff), serviceHandler.Create)
	services.GET("/:id/candidates", middleware.RequireActor(models.ActorStaff), serviceHandler.FindCandidates)
	services.PUT("/:id/assign", middleware.RequireActor(models.ActorStaff), serviceHandler.Assign)
	services.PUT("/:id/accept", middleware.RequireActor(models.ActorPlumber), serviceHandler.Accept)
	services.PUT("/:id/progress", middleware.RequireActor(models.ActorPlumber), serviceHandler.Progress)
	services.PUT("/:id/complete", middleware.RequireActor(models.ActorPlumber), serviceHandler.CompleteWork)
	services.PUT("/:id/verify", middleware.RequireActor(models.ActorStaff), serviceHandler.Verify)
	services.PUT("/:id/close", middleware.RequireActor(models.ActorStaff), serviceHandler.Close)
	services.PUT("/:id/cancel", serviceHandler.Cancel)
	services.POST("/:id/messages", serviceHandler.AddMessage)
	services.GET("/:id/invoice", serviceHandler.Invoice)
	services.POST("/:id/payment", middleware.RequireActor(models.ActorStaff), paymentHandler.Record)
	services.POST("/:id/payment/refund", middleware.RequireActor(models.ActorStaff), paymentHandler.Refund)

	api.GET("/metrics/summary", middleware.JWT(authSvc), middleware.RequireAdmin(), metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
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
