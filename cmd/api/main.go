package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/aims-campus/aims-api/api/swagger"
	"github.com/aims-campus/aims-api/internal/handler"
	"github.com/aims-campus/aims-api/internal/middleware"
	"github.com/aims-campus/aims-api/internal/models"
	"github.com/aims-campus/aims-api/internal/repository"
	"github.com/aims-campus/aims-api/internal/service"
	"github.com/aims-campus/aims-api/pkg/cache"
	"github.com/aims-campus/aims-api/pkg/config"
	"github.com/aims-campus/aims-api/pkg/database"
	"github.com/aims-campus/aims-api/pkg/logger"
	"github.com/aims-campus/aims-api/pkg/mailer"
	corsmiddleware "github.com/aims-campus/aims-api/pkg/middleware/cors"
	reqidmiddleware "github.com/aims-campus/aims-api/pkg/middleware/requestid"
)

// @title AIMS API
// @version 1.0.0
// @description Academic information management: courses, enrollments and the two-stage approval workflow
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		logr.Sugar().Fatalw("failed to ensure schema", "error", err)
	}
	cancel()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	advisorRepo := repository.NewAdvisorRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr, cfg.Stats.CacheEnabled && redisClient != nil)

	mailSender := mailer.NewSMTPSender(cfg.SMTP, logr)
	authSvc := service.NewAuthService(userRepo, otpRepo, auditRepo, mailSender, validate, logr, cfg.JWT, cfg.OTP)
	userSvc := service.NewUserService(userRepo, advisorRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	ledger := service.NewEnrollmentService(enrollmentRepo, courseRepo, logr)
	gateway := service.NewApprovalGateway(ledger, courseRepo, advisorRepo, auditRepo, metricsSvc, logr)
	statsSvc := service.NewStatsService(statsRepo, ledger, cacheSvc, cfg.Stats.CacheTTL, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	courseHandler := handler.NewCourseHandler(courseSvc, statsSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(gateway)
	instructorHandler := handler.NewInstructorHandler(gateway)
	advisorHandler := handler.NewAdvisorHandler(gateway)
	adminHandler := handler.NewAdminHandler(gateway, userSvc, courseSvc, statsSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/verify-otp", authHandler.VerifyOTP)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	courses := api.Group("/courses", middleware.JWT(authSvc))
	{
		courses.GET("", courseHandler.List)
		courses.GET("/departments", courseHandler.Departments)
		courses.POST("", middleware.RequireRoles(models.RoleInstructor), courseHandler.Create)
	}

	student := api.Group("/student", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStudent))
	{
		student.GET("/enrollments", enrollmentHandler.List)
		student.POST("/enrollments", enrollmentHandler.Create)
		student.DELETE("/enrollments/:id", enrollmentHandler.Drop)
	}

	instructor := api.Group("/instructor", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleInstructor))
	{
		instructor.GET("/enrollments", instructorHandler.Queue)
		instructor.GET("/courses/:id/enrollments", instructorHandler.CourseEnrollments)
		instructor.PUT("/enrollments/:id/decision", instructorHandler.Decide)
		instructor.POST("/enrollments/bulk-decision", instructorHandler.BulkDecide)
	}

	advisor := api.Group("/advisor", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdvisor))
	{
		advisor.GET("/students", advisorHandler.Students)
		advisor.GET("/enrollments", advisorHandler.Queue)
		advisor.PUT("/enrollments/:id/decision", advisorHandler.Decide)
	}

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.POST("/users", adminHandler.CreateUser)
		admin.POST("/advisor-assignments", adminHandler.AssignAdvisor)
		admin.GET("/courses", adminHandler.ListCourses)
		admin.GET("/enrollments", adminHandler.ListEnrollments)
		admin.GET("/enrollments/export", adminHandler.ExportEnrollments)
		admin.GET("/stats", adminHandler.Stats)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
