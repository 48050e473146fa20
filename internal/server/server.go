// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "socialnet/docs" // swagger docs
	"socialnet/internal/bootstrap"
	"socialnet/internal/config"
	"socialnet/internal/featureflags"
	"socialnet/internal/middleware"
	"socialnet/internal/models"
	"socialnet/internal/notifications"
	"socialnet/internal/repository"
	"socialnet/internal/service"

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

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager
	// shutdownTracing is set when NewServer started the tracer.
	shutdownTracing func(context.Context) error

	userService         *service.UserService
	relationshipService *service.RelationshipService
	postService         *service.PostService
	commentService      *service.CommentService
	messageService      *service.MessageService
	notificationService *service.NotificationService
	feedService         *service.FeedService
}

// NewServer creates a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{
		ApplySchema: true,
		SeedDemo:    cfg.SeedDemoData,
	})
	if err != nil {
		return nil, err
	}

	s, err := NewServerWithDeps(cfg, rt.DB, rt.Redis)
	if err != nil {
		return nil, err
	}
	s.shutdownTracing = rt.ShutdownTracing
	return s, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
// redisClient may be nil; realtime push is then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires config and database")
	}
	middleware.InitMiddleware(cfg)

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("socialnet-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	var publisher service.Publisher
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		s.hub = notifications.NewHub()
		publisher = s.notifier
	}

	s.notificationService = service.NewNotificationService(notificationRepo, publisher, s.featureFlags)
	s.userService = service.NewUserService(userRepo, followRepo)
	s.relationshipService = service.NewRelationshipService(followRepo, userRepo, s.notificationService)
	s.postService = service.NewPostService(postRepo, userRepo, s.notificationService)
	s.commentService = service.NewCommentService(commentRepo, postRepo, userRepo, s.notificationService)
	s.messageService = service.NewMessageService(messageRepo, userRepo, postRepo, s.notificationService,
		cfg.MessageRateLimit, cfg.MessageWindow())
	s.feedService = service.NewFeedService(postRepo)

	return s, nil
}

// NewApp builds the fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Social Network API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler funnels errors returned by handlers and fiber itself through
// the standard error body.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return models.RespondWithError(c, fe.Code, &models.AppError{
			Code:    codeForStatus(fe.Code),
			Message: fe.Message,
		})
	}
	return models.RespondWithAppError(c, err)
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return models.CodeNotFound
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	case fiber.StatusForbidden:
		return models.CodeForbidden
	case fiber.StatusTooManyRequests:
		return models.CodeRateLimited
	case fiber.StatusConflict:
		return models.CodeConflict
	default:
		if status >= fiber.StatusInternalServerError {
			return models.CodeInternal
		}
		return models.CodeValidation
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
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
				models.NewRateLimitError("Too many requests, please try again later."))
		},
	}))

	app.Use(middleware.Timeout(s.config.RequestTimeout()))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Accounts. Specific routes are registered before /users/:username.
	users := api.Group("/users")
	users.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	users.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	users.Post("/token/refresh", s.Refresh)
	users.Post("/logout", middleware.AuthRequired, s.Logout)

	users.Get("/me/profile", middleware.AuthRequired, s.GetMyProfile)
	users.Put("/me/profile", middleware.AuthRequired, s.UpdateMyProfile)
	users.Delete("/me", middleware.AuthRequired, s.DeleteMyAccount)
	users.Get("/search", middleware.OptionalAuth, s.SearchUsers)

	users.Post("/follow/:username", middleware.AuthRequired,
		middleware.RateLimit(s.redis, 30, time.Minute, "follow"), s.FollowUser)
	users.Delete("/unfollow/:username", middleware.AuthRequired, s.UnfollowUser)

	users.Get("/:username/followers/count", s.CountFollowers)
	users.Get("/:username/following/count", s.CountFollowing)
	users.Get("/:username/followers", s.ListFollowers)
	users.Get("/:username/following", s.ListFollowing)
	users.Get("/:username/posts", middleware.OptionalAuth, s.GetUserPosts)
	users.Get("/:username", middleware.OptionalAuth, s.GetUserProfile)

	// Posts. /feed and the like routes precede the generic /:id routes.
	posts := api.Group("/posts")
	posts.Get("/feed", middleware.AuthRequired, s.GetFeed)
	posts.Post("/like/:postId", middleware.AuthRequired, s.LikePost)
	posts.Delete("/unlike/:postId", middleware.AuthRequired, s.UnlikePost)
	posts.Post("/", middleware.AuthRequired, s.CreatePost)
	posts.Get("/", middleware.OptionalAuth, s.GetPosts)
	posts.Post("/:postId/comment", middleware.AuthRequired, s.CreateComment)
	posts.Get("/:postId/comments", s.GetComments)
	posts.Put("/:postId/comments/:commentId", middleware.AuthRequired, s.UpdateComment)
	posts.Delete("/:postId/comments/:commentId", middleware.AuthRequired, s.DeleteComment)
	posts.Get("/:id", middleware.OptionalAuth, s.GetPost)
	posts.Put("/:id", middleware.AuthRequired, s.UpdatePost)
	posts.Delete("/:id", middleware.AuthRequired, s.DeletePost)

	notificationRoutes := api.Group("/notifications", middleware.AuthRequired)
	notificationRoutes.Get("/", s.GetNotifications)
	notificationRoutes.Post("/read-all", s.MarkAllNotificationsRead)
	notificationRoutes.Post("/:id/read", s.MarkNotificationRead)

	messages := api.Group("/messages", middleware.AuthRequired)
	messages.Post("/send", s.SendMessage)
	messages.Get("/inbox", s.GetInbox)
	messages.Get("/sent", s.GetSent)
	messages.Get("/unread-count", s.GetUnreadCount)
	messages.Get("/:id/detail", s.GetMessageDetail)
	messages.Post("/:id/read", s.MarkMessageRead)
	messages.Delete("/:id/delete", s.DeleteMessage)

	api.Get("/feature-flags", middleware.OptionalAuth, s.GetFeatureFlags)

	api.Get("/ws", middleware.WebSocketAuthRequired, s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				slog.Error("failed to start hub wiring", "hub", s.hub.Name(), "error", err)
			}
		}()
	}

	slog.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the subscriber goroutine
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			slog.Error("error shutting down HTTP server", "error", err)
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			slog.Error("error shutting down hub", "hub", s.hub.Name(), "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			slog.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			slog.Error("error closing redis", "error", rerr)
		}
	}

	if s.shutdownTracing != nil {
		if terr := s.shutdownTracing(ctx); terr != nil {
			slog.Error("error flushing traces", "error", terr)
		}
	}

	slog.Info("server shutdown complete")
	return nil
}
