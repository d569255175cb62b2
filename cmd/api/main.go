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

	_ "github.com/edu-platform/edu-mgmt-api/api/swagger"
	"github.com/edu-platform/edu-mgmt-api/internal/handler"
	"github.com/edu-platform/edu-mgmt-api/internal/middleware"
	"github.com/edu-platform/edu-mgmt-api/internal/models"
	"github.com/edu-platform/edu-mgmt-api/internal/repository"
	"github.com/edu-platform/edu-mgmt-api/internal/seed"
	"github.com/edu-platform/edu-mgmt-api/internal/service"
	"github.com/edu-platform/edu-mgmt-api/pkg/cache"
	"github.com/edu-platform/edu-mgmt-api/pkg/config"
	"github.com/edu-platform/edu-mgmt-api/pkg/database"
	"github.com/edu-platform/edu-mgmt-api/pkg/logger"
	corsmiddleware "github.com/edu-platform/edu-mgmt-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edu-platform/edu-mgmt-api/pkg/middleware/requestid"
)

// @title Education Management API
// @version 1.0.0
// @description Students, teachers, courses, enrollments, and grading
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	adminRepo := repository.NewAdminRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient)

	if cfg.Seed.Admins {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := seed.Admins(ctx, adminRepo, logr); err != nil {
			cancel()
			logr.Sugar().Fatalw("failed to seed admins", "error", err)
		}
		cancel()
	}

	authService := service.NewAuthService(adminRepo, teacherRepo, studentRepo, sessionRepo, validate, logr, service.AuthConfig{
		Secret:             cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
	})
	studentService := service.NewStudentService(studentRepo, enrollmentRepo, validate, logr)
	teacherService := service.NewTeacherService(teacherRepo, courseRepo, validate, logr)
	courseService := service.NewCourseService(courseRepo, studentRepo, enrollmentRepo, validate, logr)
	metricsService := service.NewMetricsService()
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, metricsService, validate, logr)
	reportService := service.NewReportService(courseRepo, enrollmentRepo, logr)

	authHandler := handler.NewAuthHandler(authService)
	studentHandler := handler.NewStudentHandler(studentService)
	teacherHandler := handler.NewTeacherHandler(teacherService)
	courseHandler := handler.NewCourseHandler(courseService)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService, metricsService)
	reportHandler := handler.NewReportHandler(reportService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unreachable"})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
		auth.PUT("/password", middleware.JWT(authService), authHandler.ChangePassword)
	}

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	students := api.Group("/students", middleware.JWT(authService))
	{
		students.GET("", staff, studentHandler.List)
		students.POST("", adminOnly, studentHandler.Register)
		students.GET("/:id", middleware.RolesOrSelf(models.RoleStudent, models.RoleAdmin, models.RoleTeacher), studentHandler.Get)
		students.PUT("/:id", adminOnly, studentHandler.Update)
		students.DELETE("/:id", adminOnly, studentHandler.Delete)
		students.GET("/:id/enrollments", middleware.RolesOrSelf(models.RoleStudent, models.RoleAdmin, models.RoleTeacher), studentHandler.Enrollments)
	}

	teachers := api.Group("/teachers", middleware.JWT(authService))
	{
		teachers.GET("", staff, teacherHandler.List)
		teachers.POST("", adminOnly, teacherHandler.Register)
		teachers.GET("/:id", middleware.RolesOrSelf(models.RoleTeacher, models.RoleAdmin), teacherHandler.Get)
		teachers.PUT("/:id", adminOnly, teacherHandler.Update)
		teachers.DELETE("/:id", adminOnly, teacherHandler.Delete)
		teachers.GET("/:id/courses", middleware.RolesOrSelf(models.RoleTeacher, models.RoleAdmin), teacherHandler.Courses)
	}

	courses := api.Group("/courses", middleware.JWT(authService))
	{
		courses.GET("", courseHandler.List)
		courses.GET("/available", courseHandler.Available)
		courses.POST("", adminOnly, courseHandler.Create)
		courses.GET("/:id", courseHandler.Get)
		courses.PUT("/:id", adminOnly, courseHandler.Update)
		courses.DELETE("/:id", adminOnly, courseHandler.Delete)
		courses.PUT("/:id/teacher", adminOnly, courseHandler.AssignTeacher)
		courses.GET("/:id/students", staff, courseHandler.Students)
		courses.GET("/:id/enrollments", staff, courseHandler.Enrollments)
		courses.POST("/:id/grades", staff, enrollmentHandler.RecordGrades)
		if cfg.Reports.Enabled {
			courses.GET("/:id/report", staff, reportHandler.GradeReport)
		}
	}

	enrollments := api.Group("/enrollments", middleware.JWT(authService))
	{
		enrollments.GET("", staff, enrollmentHandler.List)
		enrollments.GET("/lookup", staff, enrollmentHandler.Lookup)
		enrollments.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleStudent), enrollmentHandler.Enroll)
		enrollments.GET("/:id", staff, enrollmentHandler.Get)
		enrollments.DELETE("/:id", adminOnly, enrollmentHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
