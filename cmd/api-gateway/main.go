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

	_ "github.com/emma-hr/emma-api/api/swagger"
	"github.com/emma-hr/emma-api/internal/authz"
	"github.com/emma-hr/emma-api/internal/handler"
	"github.com/emma-hr/emma-api/internal/middleware"
	"github.com/emma-hr/emma-api/internal/models"
	"github.com/emma-hr/emma-api/internal/repository"
	"github.com/emma-hr/emma-api/internal/service"
	"github.com/emma-hr/emma-api/pkg/cache"
	"github.com/emma-hr/emma-api/pkg/config"
	"github.com/emma-hr/emma-api/pkg/database"
	"github.com/emma-hr/emma-api/pkg/logger"
	corsmiddleware "github.com/emma-hr/emma-api/pkg/middleware/cors"
	reqidmiddleware "github.com/emma-hr/emma-api/pkg/middleware/requestid"
	"github.com/emma-hr/emma-api/pkg/storage"
)

// @title EMMA API
// @version 1.0.0
// @description Backend for the EMMA HR marketing and onboarding site
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

	uploadStorage, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload storage", "error", err)
	}
	certificateStorage, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare certificate storage", "error", err)
	}
	certificateSigner := storage.NewSignedURLSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL)

	validate := validator.New()
	metricsService := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	blogRepo := repository.NewBlogRepository(db)
	slideRepo := repository.NewSlideRepository(db)
	testimonialRepo := repository.NewTestimonialRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	recruitmentRepo := repository.NewRecruitmentRepository(db)
	contactRepo := repository.NewContactRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	fileRepo := repository.NewFileRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "emma-api",
		Audience:           []string{"emma-site"},
	})

	fileService := service.NewFileService(fileRepo, uploadStorage, logr, service.FileServiceConfig{
		PublicBasePath:   cfg.Uploads.PublicBasePath,
		MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Uploads.AllowedMIMEs,
	})

	blogService := service.NewBlogService(blogRepo, validate, logr)
	slideService := service.NewSlideService(slideRepo, fileService, validate, logr)
	testimonialService := service.NewTestimonialService(testimonialRepo, fileService, validate, logr)
	positionService := service.NewPositionService(positionRepo, validate, logr)
	recruitmentService := service.NewRecruitmentService(recruitmentRepo, positionRepo, fileService, userRepo, validate, logr)
	contactService := service.NewContactService(contactRepo, validate, logr)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, validate, logr)
	userService := service.NewUserService(userRepo, validate, logr)
	courseService := service.NewCourseService(courseRepo, validate, logr)

	certificateService := service.NewCertificateService(certificateRepo, certificateStorage, certificateSigner, userRepo, logr, service.CertificateConfig{
		IssuerName: cfg.Certificates.IssuerName,
	})
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, userRepo, certificateService, validate, logr)

	notificationService := service.NewNotificationService(notificationRepo, subscriptionRepo, nil, validate, logr, service.NotificationConfig{
		Workers:    cfg.Notify.Workers,
		BufferSize: cfg.Notify.BufferSize,
		MaxRetries: cfg.Notify.MaxRetries,
		RetryDelay: cfg.Notify.RetryDelay,
	})
	notificationService.Start(context.Background())
	defer notificationService.Stop()

	handlers := routeHandlers{
		auth:          handler.NewAuthHandler(authService),
		blogs:         handler.NewBlogHandler(blogService),
		slides:        handler.NewSlideHandler(slideService),
		testimonials:  handler.NewTestimonialHandler(testimonialService),
		positions:     handler.NewPositionHandler(positionService),
		recruitments:  handler.NewRecruitmentHandler(recruitmentService),
		contacts:      handler.NewContactHandler(contactService),
		subscriptions: handler.NewSubscriptionHandler(subscriptionService),
		notifications: handler.NewNotificationHandler(notificationService),
		users:         handler.NewUserHandler(userService),
		courses:       handler.NewCourseHandler(courseService),
		assignments:   handler.NewAssignmentHandler(assignmentService),
		certificates:  handler.NewCertificateHandler(certificateService),
		files:         handler.NewFileHandler(fileService),
		metrics:       handler.NewMetricsHandler(metricsService),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))
	r.Use(middleware.OptionalJWT(authService))
	r.Use(middleware.RoutePolicy(authz.Default()))

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
	r.GET("/metrics", handlers.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, handlers, authService, cacheService, userRepo)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

type routeHandlers struct {
	auth          *handler.AuthHandler
	blogs         *handler.BlogHandler
	slides        *handler.SlideHandler
	testimonials  *handler.TestimonialHandler
	positions     *handler.PositionHandler
	recruitments  *handler.RecruitmentHandler
	contacts      *handler.ContactHandler
	subscriptions *handler.SubscriptionHandler
	notifications *handler.NotificationHandler
	users         *handler.UserHandler
	courses       *handler.CourseHandler
	assignments   *handler.AssignmentHandler
	certificates  *handler.CertificateHandler
	files         *handler.FileHandler
	metrics       *handler.MetricsHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, h routeHandlers, authService *service.AuthService, cacheService *service.CacheService, userRepo *repository.UserRepository) {
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleEditor)
	anyStaff := middleware.RequireRoles(models.RoleAdmin, models.RoleEditor, models.RoleReader)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	authed := middleware.JWT(authService)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.auth.Login)
		auth.POST("/refresh", h.auth.Refresh)
		auth.POST("/logout", authed, h.auth.Logout)
		auth.POST("/change-password", authed, h.auth.ChangePassword)
		auth.GET("/me", authed, h.auth.Me)
	}

	// Public site content, served from the read cache when Redis is up.
	public := api.Group("")
	public.Use(middleware.CacheResponse(cacheService, "public", cfg.Cache.TTL))
	{
		public.GET("/slides", h.slides.ListActive)
		public.GET("/testimonials", h.testimonials.ListActive)
		public.GET("/blogs", h.blogs.ListPublished)
		public.GET("/blogs/slug/:slug", h.blogs.GetBySlug)
		public.GET("/positions", h.positions.ListOpen)
	}

	api.POST("/recruitments", h.recruitments.Apply)
	api.POST("/contacts", h.contacts.Submit)
	api.POST("/subscriptions", h.subscriptions.Subscribe)
	api.POST("/subscriptions/unsubscribe", h.subscriptions.Unsubscribe)
	api.GET("/certificates/download", h.certificates.Download)

	// Authenticated trainee surface.
	my := api.Group("", authed)
	{
		my.GET("/my/assignments", h.assignments.ListMine)
		my.PATCH("/assignments/:id/progress", h.assignments.UpdateProgress)
		my.GET("/my/certificates", h.certificates.ListMine)
		my.GET("/certificates/:id", h.certificates.Get)
		my.POST("/certificates/:id/signed-download", h.certificates.SignedDownload)

		my.GET("/files", h.files.GetCurrent)
	}

	// Reading the current attachment is open to any authenticated user,
	// but mutating attachments is a content management action and cleanup
	// walks the whole upload store.
	api.POST("/files", authed, staff, h.files.Upload)
	api.DELETE("/files", authed, staff, h.files.Delete)
	api.POST("/files/cleanup", authed, adminOnly, h.files.Cleanup)

	admin := api.Group("/admin", authed, anyStaff)
	{
		admin.GET("/metrics", h.metrics.Snapshot)

		admin.GET("/blogs", h.blogs.List)
		admin.GET("/blogs/:id", h.blogs.Get)
		admin.GET("/slides", h.slides.List)
		admin.GET("/slides/:id", h.slides.Get)
		admin.GET("/testimonials", h.testimonials.List)
		admin.GET("/testimonials/:id", h.testimonials.Get)
		admin.GET("/positions", h.positions.List)
		admin.GET("/positions/:id", h.positions.Get)
		admin.GET("/recruitments", h.recruitments.List)
		admin.GET("/recruitments/:id", h.recruitments.Get)
		admin.GET("/contacts", h.contacts.List)
		admin.GET("/contacts/:id", h.contacts.Get)
		admin.GET("/subscriptions", h.subscriptions.List)
		admin.GET("/subscriptions/export", h.subscriptions.ExportCSV)
		admin.GET("/notifications", h.notifications.List)
		admin.GET("/notifications/:id", h.notifications.Get)
		admin.GET("/courses", h.courses.List)
		admin.GET("/courses/:id", h.courses.Get)
		admin.GET("/assignments", h.assignments.List)
		admin.GET("/assignments/:id", h.assignments.Get)
	}

	write := api.Group("/admin", authed, staff)
	{
		write.POST("/blogs", h.blogs.Create)
		write.PUT("/blogs/:id", h.blogs.Update)
		write.DELETE("/blogs/:id", h.blogs.Delete)

		write.POST("/slides", h.slides.Create)
		write.PUT("/slides/:id", h.slides.Update)
		write.DELETE("/slides/:id", h.slides.Delete)
		write.POST("/slides/:id/image", h.slides.UploadImage)

		write.POST("/testimonials", h.testimonials.Create)
		write.PUT("/testimonials/:id", h.testimonials.Update)
		write.DELETE("/testimonials/:id", h.testimonials.Delete)
		write.POST("/testimonials/:id/image", h.testimonials.UploadImage)

		write.POST("/positions", h.positions.Create)
		write.PUT("/positions/:id", h.positions.Update)
		write.DELETE("/positions/:id", h.positions.Delete)

		write.PATCH("/recruitments/:id/status", h.recruitments.UpdateStatus)
		write.POST("/recruitments/:id/cv", h.recruitments.UploadCV)
		write.DELETE("/recruitments/:id", h.recruitments.Delete)

		write.POST("/contacts/:id/notes", h.contacts.AddNote)
		write.PATCH("/contacts/:id/handled", h.contacts.SetHandled)
		write.DELETE("/contacts/:id", h.contacts.Delete)

		write.POST("/notifications", h.notifications.Create)
		write.POST("/notifications/:id/send", h.notifications.Send)

		write.POST("/courses", h.courses.Create)
		write.PUT("/courses/:id", h.courses.Update)
		write.DELETE("/courses/:id", h.courses.Delete)

		write.POST("/assignments", h.assignments.Assign)
		write.DELETE("/assignments/:id", h.assignments.Delete)
	}

	users := api.Group("/admin/users", authed, adminOnly)
	{
		users.GET("", h.users.List)
		users.GET("/:id", h.users.Get)
		users.POST("", middleware.Audit(userRepo, models.AuditActionUserCreate, "user"), h.users.Create)
		users.PUT("/:id", middleware.Audit(userRepo, models.AuditActionUserUpdate, "user"), h.users.Update)
		users.DELETE("/:id", middleware.Audit(userRepo, models.AuditActionUserDelete, "user"), h.users.Delete)
	}
}
