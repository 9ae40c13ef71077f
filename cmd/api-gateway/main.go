package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/acadhub/timetable-api/internal/handler"
	"github.com/acadhub/timetable-api/internal/middleware"
	"github.com/acadhub/timetable-api/internal/models"
	"github.com/acadhub/timetable-api/internal/repository"
	"github.com/acadhub/timetable-api/internal/service"
	"github.com/acadhub/timetable-api/pkg/cache"
	"github.com/acadhub/timetable-api/pkg/config"
	"github.com/acadhub/timetable-api/pkg/database"
	"github.com/acadhub/timetable-api/pkg/export"
	"github.com/acadhub/timetable-api/pkg/logger"
	corsmiddleware "github.com/acadhub/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/acadhub/timetable-api/pkg/middleware/requestid"
)

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

	departmentRepo := repository.NewDepartmentRepository(db)
	programRepo := repository.NewProgramRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	workloadRepo := repository.NewWorkloadRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()
	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:      cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      "timetable-api",
	})
	departmentService := service.NewDepartmentService(departmentRepo, validate, logr)
	programService := service.NewProgramService(programRepo, departmentRepo, validate, logr)
	batchService := service.NewBatchService(batchRepo, programRepo, validate, logr)
	sectionService := service.NewSectionService(sectionRepo, batchRepo, validate, logr)
	courseService := service.NewCourseService(courseRepo, departmentRepo, validate, logr)
	teacherService := service.NewTeacherService(teacherRepo, departmentRepo, courseRepo, validate, logr)
	roomService := service.NewRoomService(roomRepo, validate, logr)
	workloadService := service.NewWorkloadService(workloadRepo, teacherRepo, courseRepo, sectionRepo, validate, logr)
	timetableService := service.NewTimetableService(
		departmentRepo,
		programRepo,
		batchRepo,
		sectionRepo,
		workloadRepo,
		teacherRepo,
		courseRepo,
		roomRepo,
		timetableRepo,
		cacheRepo,
		db,
		metricsService,
		validate,
		logr,
		service.TimetableConfig{
			CacheEnabled: cfg.Scheduler.CacheEnabled && redisClient != nil,
			CacheTTL:     cfg.Scheduler.TimetableTTL,
		},
	)
	exportService := service.NewExportService(timetableService, departmentRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	authHandler := handler.NewAuthHandler(authService)
	departmentHandler := handler.NewDepartmentHandler(departmentService)
	programHandler := handler.NewProgramHandler(programService)
	batchHandler := handler.NewBatchHandler(batchService)
	sectionHandler := handler.NewSectionHandler(sectionService, workloadService)
	courseHandler := handler.NewCourseHandler(courseService)
	teacherHandler := handler.NewTeacherHandler(teacherService, workloadService)
	roomHandler := handler.NewRoomHandler(roomService)
	workloadHandler := handler.NewWorkloadHandler(workloadService)
	schedulingHandler := handler.NewSchedulingHandler(timetableService, exportService)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	api := r.Group(cfg.APIPrefix)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))
	mutate := middleware.RequireRoles(models.RoleAdmin, models.RoleScheduler)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	departments := protected.Group("/departments")
	{
		departments.GET("", departmentHandler.List)
		departments.GET("/:id", departmentHandler.Get)
		departments.POST("", mutate, departmentHandler.Create)
	}

	programs := protected.Group("/programs")
	{
		programs.GET("", programHandler.List)
		programs.GET("/:id", programHandler.Get)
		programs.POST("", mutate, programHandler.Create)
	}

	batches := protected.Group("/batches")
	{
		batches.GET("", batchHandler.List)
		batches.GET("/:id", batchHandler.Get)
		batches.POST("", mutate, batchHandler.Create)
	}

	sections := protected.Group("/sections")
	{
		sections.GET("", sectionHandler.List)
		sections.GET("/:id", sectionHandler.Get)
		sections.GET("/:id/workloads", sectionHandler.ListWorkloads)
		sections.POST("", mutate, sectionHandler.Create)
	}

	courses := protected.Group("/courses")
	{
		courses.GET("", courseHandler.List)
		courses.GET("/:id", courseHandler.Get)
		courses.POST("", mutate, courseHandler.Create)
	}

	teachers := protected.Group("/teachers")
	{
		teachers.GET("", teacherHandler.List)
		teachers.GET("/:id", teacherHandler.Get)
		teachers.GET("/:id/workloads", teacherHandler.ListWorkloads)
		teachers.POST("", mutate, teacherHandler.Create)
		teachers.POST("/:id/departments", mutate, teacherHandler.AddDepartment)
		teachers.POST("/:id/qualifications", mutate, teacherHandler.AddQualification)
	}

	rooms := protected.Group("/rooms")
	{
		rooms.GET("", roomHandler.List)
		rooms.GET("/:id", roomHandler.Get)
		rooms.POST("", mutate, roomHandler.Create)
		rooms.DELETE("/:id", adminOnly, roomHandler.Delete)
	}

	workloads := protected.Group("/workloads")
	{
		workloads.GET("", workloadHandler.List)
		workloads.POST("", mutate, workloadHandler.Create)
	}

	if cfg.Scheduler.Enabled {
		scheduling := protected.Group("/scheduling")
		{
			scheduling.POST("/generate", mutate, schedulingHandler.Generate)
			scheduling.POST("/validate-slot", schedulingHandler.ValidateSlot)
			scheduling.GET("/timetable/:departmentId", schedulingHandler.GetTimetable)
			if cfg.Exports.Enabled {
				scheduling.GET("/timetable/:departmentId/export", schedulingHandler.Export)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
