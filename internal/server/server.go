// Package server contains the HTTP handlers and router for the Wanderlust API.
package server

import (
	"context"
	"log/slog"
	"time"

	_ "wanderlust/docs" // swagger docs
	"wanderlust/internal/auth"
	"wanderlust/internal/cache"
	"wanderlust/internal/cloudinary"
	"wanderlust/internal/config"
	"wanderlust/internal/featureflags"
	"wanderlust/internal/middleware"
	"wanderlust/internal/models"
	"wanderlust/internal/notifications"
	"wanderlust/internal/repository"
	"wanderlust/internal/service"
	"wanderlust/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
	reviewRepo  repository.ReviewRepository

	tokens         *auth.TokenManager
	codes          *cache.TokenStore
	notifier       *notifications.Notifier
	authn          *middleware.Authenticator
	limiter        *middleware.RateLimiter
	sessions       *session.Manager
	sessionStorage fiber.Storage
	signer         *cloudinary.Signer
	imageHost      service.ImageHost
	featureFlags   *featureflags.Manager

	listingService *service.ListingService
	reviewService  *service.ReviewService
	userService    *service.UserService
	uploadService  *service.UploadService
}

// Option customizes a Server built by NewServerWithDeps.
type Option func(*Server)

// WithSessionStorage persists legacy cookie sessions in storage instead of memory.
func WithSessionStorage(storage fiber.Storage) Option {
	return func(s *Server) { s.sessionStorage = storage }
}

// WithImageHost replaces the Cloudinary upload client.
func WithImageHost(host service.ImageHost) Option {
	return func(s *Server) { s.imageHost = host }
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; Redis-backed features then degrade.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, opts ...Option) (*Server, error) {
	creds := cloudinary.Credentials{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("wanderlust-api"),
		userRepo:       repository.NewUserRepository(db),
		listingRepo:    repository.NewListingRepository(db),
		reviewRepo:     repository.NewReviewRepository(db),
		tokens:         auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL(), middleware.Logger),
		codes:          cache.NewTokenStore(redisClient),
		notifier:       notifications.NewNotifier(redisClient),
		limiter:        middleware.NewRateLimiter(redisClient, cfg.Env),
		signer:         cloudinary.NewSigner(creds),
		imageHost:      cloudinary.NewClient(creds, cfg.CloudinaryBaseURL, nil),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.authn = middleware.NewAuthenticator(s.tokens, s.userRepo, s.codes)
	s.sessions = session.NewManager(s.sessionStorage, cfg.SessionTTL(), cfg.IsProduction())
	s.listingService = service.NewListingService(s.listingRepo, s.userRepo)
	s.reviewService = service.NewReviewService(s.reviewRepo, s.listingRepo)
	s.userService = service.NewUserService(s.userRepo, s.listingRepo, s.tokens, s.codes, s.notifier)
	s.uploadService = service.NewUploadService(s.imageHost, cfg)

	return s, nil
}

// ErrorHandler converts errors that escape handlers into the response envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		msg := fe.Message
		if fe.Code == fiber.StatusNotFound {
			msg = "Route not found"
		}
		return models.RespondWithError(c, fe.Code, &models.AppError{Code: codeForStatus(fe.Code), Message: msg})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

func codeForStatus(status int) string {
	switch {
	case status == fiber.StatusNotFound:
		return models.CodeNotFound
	case status == fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	case status == fiber.StatusForbidden:
		return models.CodeForbidden
	case status < fiber.StatusInternalServerError:
		return models.CodeValidation
	default:
		return models.CodeInternal
	}
}

// NewApp builds the fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Wanderlust API",
		ErrorHandler: ErrorHandler,
		BodyLimit:    int(s.uploadService.MaxUploadBytes()) + 1024*1024,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				&models.AppError{Code: "RATE_LIMITED", Message: "Too many requests, please try again later."})
		},
	}))
}

// SetupRoutes mounts the API under /api and again at the root for older clients.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/", s.ReadinessCheck)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Wanderlust API Metrics",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	s.registerRoutes(api)
	s.registerRoutes(app)

	app.Use(func(c *fiber.Ctx) error {
		return models.RespondWithError(c, fiber.StatusNotFound, &models.AppError{
			Code:    models.CodeNotFound,
			Message: "Route not found",
		})
	})
}

func (s *Server) registerRoutes(r fiber.Router) {
	required := s.authn.Required()
	ownsListing := middleware.RequireOwner("listing", "id", s.listingService.OwnerOf)
	ownsReview := middleware.RequireOwner("review", "reviewId", s.reviewService.OwnerOf)

	// Auth
	r.Post("/signup", s.limiter.Limit("signup", 5, 10*time.Minute), s.Signup)
	r.Post("/login", s.limiter.Limit("login", 10, 5*time.Minute), s.Login)
	r.Post("/logout", required, s.Logout)
	r.Get("/islogin", s.authn.Optional(), s.IsLogin)

	// Listings. Static segments are registered before /:id.
	r.Get("/listings", s.GetListings)
	r.Get("/listings/search", s.SearchListings)
	r.Post("/listings", required, s.CreateListing)
	r.Get("/listings/:id/reviews", s.GetReviews)
	r.Post("/listings/:id/reviews", required, s.CreateReview)
	r.Delete("/listings/:id/reviews/:reviewId", required, ownsReview, s.DeleteReview)
	r.Get("/listings/:id", s.GetListing)
	r.Put("/listings/:id", required, ownsListing, s.UpdateListing)
	r.Delete("/listings/:id", required, ownsListing, s.DeleteListing)

	// Account
	r.Get("/profile", required, s.GetProfile)
	r.Put("/profile", required, s.UpdateProfile)
	r.Put("/profile/name", required, s.UpdateName)
	r.Post("/change-password", required, s.limiter.Limit("change_password", 5, 15*time.Minute), s.ChangePassword)
	r.Post("/forgot-password", s.limiter.LimitWithPolicy("forgot_password", 3, 15*time.Minute, middleware.FailClosed), s.ForgotPassword)
	r.Post("/reset-password", s.ResetPassword)
	r.Post("/verify-email/request", required, s.RequestEmailVerification)
	r.Post("/verify-email/confirm", required, s.ConfirmEmailVerification)

	// Bookmarks
	r.Get("/bookmarks", required, s.GetBookmarks)
	r.Post("/bookmarks/:listingId", required, s.AddBookmark)
	r.Delete("/bookmarks/:listingId", required, s.RemoveBookmark)

	// Uploads
	r.Post("/upload", required, s.UploadImage)
	r.Get("/upload/config", required, s.UploadConfig)
	r.Get("/cloudinary-signature", required, s.CloudinarySignature)

	// Admin
	r.Get("/admin/feature-flags", required, s.AdminRequired(), s.GetFeatureFlags)
}

// AdminRequired rejects callers without the admin role. It must follow
// authentication so the identity is present.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.IdentityFrom(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("No token provided"))
		}
		if !id.IsAdmin() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

type pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessCheck reports the database, Redis and session store state. Redis
// and Mongo are optional; they only fail readiness when configured and down.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	sessionStatus := "memory"
	if p, ok := s.sessionStorage.(pinger); ok {
		sessionStatus = "healthy"
		if err := p.Ping(ctx); err != nil {
			sessionStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" || sessionStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "Wanderlust API",
		"version": "1.0.0",
		"status":  overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"sessions": sessionStatus,
		},
		"time": time.Now(),
	})
}

// Start runs the HTTP server and the notification outbox until Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.redis != nil {
		if err := s.notifier.StartOutboxSubscriber(s.shutdownCtx, notifications.LogDelivery); err != nil {
			middleware.Logger.Warn("failed to start notification outbox", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests and cancels background work. Connections
// are owned by the caller's runtime and closed there.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
			return err
		}
	}
	middleware.Logger.Info("Server shutdown complete")
	return nil
}
