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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campuslink-ng/campus-api/api/swagger"
	"github.com/campuslink-ng/campus-api/internal/handler"
	"github.com/campuslink-ng/campus-api/internal/middleware"
	"github.com/campuslink-ng/campus-api/internal/models"
	"github.com/campuslink-ng/campus-api/internal/repository"
	"github.com/campuslink-ng/campus-api/internal/service"
	"github.com/campuslink-ng/campus-api/pkg/cache"
	"github.com/campuslink-ng/campus-api/pkg/config"
	"github.com/campuslink-ng/campus-api/pkg/database"
	"github.com/campuslink-ng/campus-api/pkg/logger"
	corsmiddleware "github.com/campuslink-ng/campus-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campuslink-ng/campus-api/pkg/middleware/requestid"
	"github.com/campuslink-ng/campus-api/pkg/storage"
)

// @title CampusLink API
// @version 1.0.0
// @description Campus management platform API
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

	db, err := database.NewPostgres(cfg.Database, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	// Repositories.
	readRetry := database.RetryConfig{
		Attempts:  cfg.Database.ConnectRetries,
		BaseDelay: cfg.Database.RetryBaseDelay,
		Logger:    logr,
	}
	userRepo := repository.NewUserRepository(db)
	gigRepo := repository.NewGigRepository(db, readRetry)
	proposalRepo := repository.NewProposalRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	examRepo := repository.NewExamRepository(db)
	poolRepo := repository.NewPoolRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Marketplace.CacheTTL, logr, cfg.Marketplace.CacheEnabled)

	jobSvc := service.NewJobService(cfg.Jobs, examRepo, userRepo, logr)
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	jobSvc.Start(rootCtx)
	defer jobSvc.Stop()

	authSvc := service.NewAuthService(userRepo, jobSvc, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "campus-api",
		Audience:           []string{"campus-api"},
	})
	gigSvc := service.NewGigService(gigRepo, cacheSvc, cfg.Marketplace.MaxPageSize, nil, logr)
	proposalSvc := service.NewProposalService(proposalRepo, gigRepo, nil, logr)
	sessionSvc := service.NewSessionService(sessionRepo, nil, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, courseRepo, store, signer, nil, logr)
	examSvc := service.NewExamService(examRepo, userRepo, courseRepo, jobSvc, nil, logr)
	poolSvc := service.NewPoolService(poolRepo, nil, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	gigHandler := handler.NewGigHandler(gigSvc)
	proposalHandler := handler.NewProposalHandler(proposalSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	examHandler := handler.NewExamHandler(examSvc)
	regNumberHandler := handler.NewPoolHandler(poolSvc, models.PoolRegistration, cfg.Pool)
	staffIDHandler := handler.NewPoolHandler(poolSvc, models.PoolStaff, cfg.Pool)
	reportHandler := handler.NewReportHandler(store, signer, logr)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
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

	auth := middleware.JWT(authSvc)
	admin := middleware.RBAC(string(models.RoleAdmin))
	lecturer := middleware.RBAC(string(models.RoleLecturer))
	lecturerOrAdmin := middleware.RBAC(string(models.RoleLecturer), string(models.RoleAdmin))
	student := middleware.RBAC(string(models.RoleStudent))
	self := middleware.RBAC("SELF")

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login", authHandler.Login)
		v1.POST("/auth/refresh", authHandler.Refresh)
		v1.POST("/auth/logout", auth, authHandler.Logout)
		v1.GET("/auth/me", auth, authHandler.Me)

		v1.GET("/gigs", middleware.OptionalJWT(authSvc), gigHandler.List)
		v1.GET("/gigs/:id", gigHandler.Get)
		v1.POST("/gigs", auth, gigHandler.Create)
		v1.PATCH("/gigs/:id", auth, gigHandler.Update)
		v1.POST("/gigs/:id/proposals", auth, proposalHandler.Create)
		v1.GET("/gigs/:id/proposals", auth, proposalHandler.ListByGig)
		v1.POST("/proposals/:id/accept", auth, proposalHandler.Accept)

		v1.GET("/sessions", sessionHandler.List)
		v1.POST("/students/:id/session", auth, student, self, sessionHandler.Register)

		adminSessions := v1.Group("/admin/sessions", auth, admin)
		{
			adminSessions.GET("", sessionHandler.ListAll)
			adminSessions.POST("", sessionHandler.Create)
			adminSessions.PUT("/:id", sessionHandler.Update)
			adminSessions.DELETE("/:id", sessionHandler.Delete)
		}

		v1.POST("/attendance/sessions", auth, lecturer, attendanceHandler.CreateSession)
		v1.POST("/attendance/sessions/:id/check-in", auth, student, attendanceHandler.CheckIn)
		v1.GET("/attendance/sessions/:id/records", auth, lecturerOrAdmin, attendanceHandler.ListRecords)
		v1.GET("/attendance/sessions/:id/export", auth, lecturerOrAdmin, attendanceHandler.Export)
		v1.GET("/reports/download/:token", reportHandler.Download)

		v1.POST("/exams", auth, lecturer, examHandler.Create)
		v1.PATCH("/exams/:id/status", auth, admin, examHandler.UpdateStatus)
		v1.POST("/exams/:id/attempts", auth, student, examHandler.CreateAttempt)
		v1.GET("/exams/notifications", auth, examHandler.ListNotifications)

		registerPoolRoutes(v1.Group("/registration-numbers", auth, admin), regNumberHandler)
		registerPoolRoutes(v1.Group("/staff-ids", auth, admin), staffIDHandler)

		v1.GET("/admin/metrics", auth, admin, metricsHandler.Snapshot)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

func registerPoolRoutes(g *gin.RouterGroup, h *handler.PoolHandler) {
	g.GET("/available", h.ListAvailable)
	g.POST("/initialize", h.Initialize)
	g.POST("/mark-used", h.MarkUsed)
	g.POST("/auto-generate", h.AutoGenerate)
	g.POST("/reset", h.Reset)
}
