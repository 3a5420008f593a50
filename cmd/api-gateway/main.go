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

	_ "github.com/unilibrary/bagdesk-api/api/swagger"
	"github.com/unilibrary/bagdesk-api/internal/events"
	"github.com/unilibrary/bagdesk-api/internal/handler"
	"github.com/unilibrary/bagdesk-api/internal/middleware"
	"github.com/unilibrary/bagdesk-api/internal/notifier"
	"github.com/unilibrary/bagdesk-api/internal/repository"
	"github.com/unilibrary/bagdesk-api/internal/service"
	"github.com/unilibrary/bagdesk-api/pkg/cache"
	"github.com/unilibrary/bagdesk-api/pkg/config"
	"github.com/unilibrary/bagdesk-api/pkg/database"
	"github.com/unilibrary/bagdesk-api/pkg/export"
	"github.com/unilibrary/bagdesk-api/pkg/jobs"
	"github.com/unilibrary/bagdesk-api/pkg/logger"
	corsmiddleware "github.com/unilibrary/bagdesk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/unilibrary/bagdesk-api/pkg/middleware/requestid"
)

// @title UniLibrary BagDesk API
// @version 1.0.0
// @description Library bag check-in and check-out desk service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories.
	studentRepo := repository.NewStudentRepository(db)
	checkinRepo := repository.NewCheckinRepository(db)
	librarianRepo := repository.NewLibrarianRepository(db)
	activeCache := repository.NewActiveListCache(redisClient, cfg.Dashboard.CacheTTL)

	metricsSvc := service.NewMetricsService()

	// Notification outbox. Falls back to console delivery when no Resend key
	// is configured, so local desks still log what would have been sent.
	var sender notifier.Notifier
	if cfg.Notifications.Enabled && cfg.Notifications.ResendAPIKey != "" {
		sender = notifier.NewResend(notifier.ResendConfig{
			APIKey:      cfg.Notifications.ResendAPIKey,
			BaseURL:     cfg.Notifications.ResendBaseURL,
			FromAddress: cfg.Notifications.FromAddress,
			ReplyTo:     cfg.Notifications.ReplyTo,
		})
	} else {
		sender = notifier.NewConsole(logr)
	}

	noticeSvc := service.NewNotificationService(sender, checkinRepo, metricsSvc, logr, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	noticeSvc.Start(ctx)
	defer noticeSvc.Stop()

	publisher := events.NewPublisher(redisClient, cfg.Dashboard.EventChannel, logr)

	checkinSvc := service.NewCheckinService(
		checkinRepo,
		studentRepo,
		service.NewTagGenerator(cfg.Checkin.TagPrefix),
		noticeSvc,
		activeCache,
		publisher,
		metricsSvc,
		nil,
		logr,
		service.CheckinServiceConfig{
			MaxTagAttempts: cfg.Checkin.MaxTagAttempts,
			StreakHistory:  cfg.Checkin.StreakHistory,
		},
	)
	studentSvc := service.NewStudentService(studentRepo, nil, logr)
	authSvc := service.NewAuthService(librarianRepo, nil, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	checkinHandler := handler.NewCheckinHandler(checkinSvc, publisher, export.NewSlipRenderer("UniLibrary"))

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/students/:studentId", studentHandler.Lookup)
		protected.POST("/students", studentHandler.Register)

		protected.POST("/bags/checkin", checkinHandler.CheckIn)
		protected.POST("/bags/checkout", checkinHandler.CheckOut)
		protected.POST("/bags/checkout/scan", checkinHandler.CheckOutScan)
		protected.GET("/bags/active", checkinHandler.ListActive)
		protected.GET("/bags/active/stream", checkinHandler.Stream)
		protected.GET("/bags/:id/slip", checkinHandler.TagSlip)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
