// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "roommatch/docs" // swagger docs
	"roommatch/internal/cache"
	"roommatch/internal/config"
	"roommatch/internal/database"
	"roommatch/internal/middleware"
	"roommatch/internal/models"
	"roommatch/internal/notifications"
	"roommatch/internal/repository"
	"roommatch/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Service identity reported by / and attached to traces.
const (
	ServiceName    = "roommatch-api"
	ServiceVersion = "1.0.0"
)

// Repositories groups the persistence dependencies of the server.
// Tests replace individual members with mocks.
type Repositories struct {
	Users       repository.UserRepository
	Resets      repository.PasswordResetRepository
	Profiles    repository.ProfileRepository
	Connections repository.ConnectionRepository
	Messages    repository.MessageRepository
	Saved       repository.SavedProfileRepository
	Feedback    repository.FeedbackRepository
}

// NewRepositories builds the GORM-backed repositories for db.
func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:       repository.NewUserRepository(db),
		Resets:      repository.NewPasswordResetRepository(db),
		Profiles:    repository.NewProfileRepository(db),
		Connections: repository.NewConnectionRepository(db),
		Messages:    repository.NewMessageRepository(db),
		Saved:       repository.NewSavedProfileRepository(db),
		Feedback:    repository.NewFeedbackRepository(db),
	}
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	startedAt      time.Time
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	tokens      *middleware.TokenManager
	rateLimiter *middleware.RateLimiter
	registry    *notifications.Registry
	notifier    *notifications.Notifier

	userRepo       repository.UserRepository
	connectionRepo repository.ConnectionRepository

	authService       *service.AuthService
	profileService    *service.ProfileService
	connectionService *service.ConnectionService
	messageService    *service.MessageService
	savedService      *service.SavedProfileService
	feedbackService   *service.FeedbackService
	photoService      *service.PhotoService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if db == nil {
		return nil, errors.New("database is required")
	}
	return newServer(cfg, db, redisClient, NewRepositories(db)), nil
}

func newServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, repos Repositories) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(ServiceName),
		startedAt:      time.Now(),
		shutdownCtx:    ctx,
		shutdownFn:     cancel,
		tokens:         middleware.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL()),
		rateLimiter:    middleware.NewRateLimiter(redisClient, cfg.Env),
		registry:       notifications.NewRegistry(),
		userRepo:       repos.Users,
		connectionRepo: repos.Connections,
	}
	s.notifier = notifications.NewNotifier(redisClient, s.registry)

	s.authService = service.NewAuthService(repos.Users, repos.Resets, s.tokens, cfg.BcryptCost)
	s.profileService = service.NewProfileService(repos.Profiles)
	s.connectionService = service.NewConnectionService(repos.Connections, repos.Users)
	s.messageService = service.NewMessageService(repos.Messages, repos.Connections, repos.Users, s.notifier)
	s.savedService = service.NewSavedProfileService(repos.Saved, repos.Profiles)
	s.feedbackService = service.NewFeedbackService(repos.Feedback, repos.Users)
	s.photoService = service.NewPhotoService(cfg)

	go s.registry.Run(ctx)

	return s
}

// App returns the configured Fiber application, building it on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:   "Roommatch API",
		BodyLimit: int(s.photoService.MaxUploadSizeBytes()) + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.Envelope{Error: fe.Message})
			}
			return s.respondError(c, err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Uploaded photos are embedded by other origins, so helmet's
	// same-origin resource policy must not apply to them.
	app.Use(helmet.New(helmet.Config{
		Next: func(c *fiber.Ctx) bool {
			return isUploadPath(c.Path())
		},
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.Envelope{
				Error: "Too many requests, please try again later",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", s.Root)
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Use("/uploads", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		c.Set("Cross-Origin-Resource-Policy", "cross-origin")
		return c.Next()
	})
	app.Static("/uploads", s.photoService.UploadDir())

	api := app.Group("/api")
	api.Get("/health", s.HealthCheck)
	api.Get("/health/db", s.DatabaseHealthCheck)
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/register", s.rateLimiter.Limit(5, 15*time.Minute, "register"), s.Register)
	auth.Post("/login", s.rateLimiter.Limit(10, 5*time.Minute, "login"), s.Login)
	auth.Post("/reset-password", s.rateLimiter.Limit(5, 15*time.Minute, "reset_password"), s.RequestPasswordReset)
	auth.Post("/reset-password/confirm", s.ConfirmPasswordReset)
	auth.Get("/me", s.AuthRequired(), s.Me)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// Registered before the protected group, whose middleware covers all of /api.
	api.Get("/ws", s.wsAuthRequired(), s.WebSocketHandler())

	protected := api.Group("", s.AuthRequired())

	profile := protected.Group("/profile")
	profile.Post("/", s.CreateProfile)
	profile.Get("/", s.GetMyProfile)
	profile.Put("/", s.UpdateProfile)
	profile.Post("/upload-photo", s.rateLimiter.Limit(10, time.Hour, "upload_photo"), s.UploadPhoto)
	// Specific routes before generic /:id
	profile.Get("/all", s.DiscoverProfiles)
	profile.Get("/:id", s.GetProfileByUserID)

	connections := protected.Group("/connections")
	connections.Post("/request", s.rateLimiter.Limit(20, time.Hour, "connection_request"), s.RequestConnection)
	connections.Get("/sent", s.GetSentConnections)
	connections.Get("/received", s.GetReceivedConnections)
	connections.Put("/accept/:id", s.AcceptConnection)
	connections.Put("/reject/:id", s.RejectConnection)
	connections.Get("/status/:targetUserId", s.GetConnectionStatus)
	// Generic /:connectionId route must be last
	connections.Delete("/:connectionId", s.DeleteConnection)

	messaging := protected.Group("/messaging")
	messaging.Post("/send", s.rateLimiter.Limit(30, time.Minute, "send_message"), s.SendMessage)
	messaging.Get("/messages/:userId", s.GetConversation)
	messaging.Get("/chat-rooms", s.GetChatRooms)

	saved := protected.Group("/saved-profiles")
	saved.Get("/", s.GetSavedProfiles)
	saved.Post("/save", s.SaveProfile)
	saved.Delete("/unsave/:profileId", s.UnsaveProfile)
	saved.Get("/check/:profileId", s.CheckSavedProfile)

	feedback := protected.Group("/feedback")
	feedback.Get("/user/:userId", s.GetUserFeedback)
	feedback.Get("/given", s.GetGivenFeedback)
	feedback.Post("/create", s.CreateFeedback)
	feedback.Put("/update/:feedbackId", s.UpdateFeedback)
	feedback.Get("/check/:toUserId", s.CheckFeedback)
	feedback.Delete("/:feedbackId", s.DeleteFeedback)

}

// AuthRequired returns the bearer-token middleware for HTTP routes.
func (s *Server) AuthRequired() fiber.Handler {
	return middleware.AuthRequired(s.authOptions(false))
}

// wsAuthRequired also accepts ?token= since browsers cannot set headers on upgrades.
func (s *Server) wsAuthRequired() fiber.Handler {
	return middleware.AuthRequired(s.authOptions(true))
}

func (s *Server) authOptions(allowQuery bool) middleware.AuthOptions {
	return middleware.AuthOptions{
		Tokens:          s.tokens,
		IsRevoked:       cache.IsTokenRevoked,
		UserExists:      s.userRepo.Exists,
		AllowQueryToken: allowQuery,
	}
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()

	if s.notifier.Relayed() {
		if err := s.notifier.StartRelay(s.shutdownCtx); err != nil {
			middleware.Logger.Warn("realtime relay unavailable, delivering locally",
				slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Stops the registry, which closes every client's send buffer.
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
