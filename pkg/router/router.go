package router

import (
	"context"
	"time"

	"memory-keeper/backend/internal/api"
	"memory-keeper/backend/pkg/config"
	"memory-keeper/backend/pkg/di"
	"memory-keeper/backend/pkg/errors"
	"memory-keeper/backend/pkg/health"
	"memory-keeper/backend/pkg/logger"
	"memory-keeper/backend/pkg/middleware"
	"memory-keeper/backend/pkg/observability"
	"memory-keeper/backend/pkg/validator"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
	Health    *health.Checker
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)
	cfg := container.Config

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	limiterOpts := middleware.DefaultRateLimiterOptions()
	limiterOpts.Limit = rate.Limit(cfg.Security.RateLimit)
	limiterOpts.Burst = cfg.Security.RateLimitBurst
	rateLimiter := middleware.NewRateLimiter(container.Logger, limiterOpts)
	engine.Use(rateLimiter.Middleware())

	checker := health.NewChecker(container.Logger, 30*time.Second)
	checker.RegisterCheck("database", func() (health.Status, string, error) {
		if err := config.TestConnection(container.DB); err != nil {
			return health.StatusDown, "Database unreachable", err
		}
		return health.StatusUp, "Database connection is healthy", nil
	})
	if container.Cache != nil {
		checker.RegisterCheck("cache", func() (health.Status, string, error) {
			if err := container.Cache.Ping(context.Background()); err != nil {
				return health.StatusDegraded, "Redis unreachable, serving uncached", err
			}
			return health.StatusUp, "Redis connection is healthy", nil
		})
	}
	checker.Start()

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
		Health:    checker,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.Use(corsMiddleware(r.Config.Security.AllowedOrigins))

	jwtAuth := middleware.JWTAuthMiddleware(r.Container.JWTService, r.Logger)

	authHandler := api.NewAuthHandler(r.Container.UserService, r.Logger)
	chatController := api.NewChatController(r.Container.Responder, r.Container.ChatService, r.Logger)
	memoryController := api.NewMemoryController(
		r.Container.Compiler,
		r.Container.MemoryService,
		r.Container.ExportService,
		r.Logger,
	)

	// Operational endpoints
	r.Engine.GET("/health", r.Health.Handler())
	r.Engine.GET("/metrics", observability.MetricsHandler())

	// API version 1 routes
	v1 := r.Engine.Group("/api/v1")

	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/signup", authHandler.Signup)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.GET("/me", jwtAuth, authHandler.Me)
		authRoutes.PUT("/profile", jwtAuth, authHandler.UpdateProfile)
	}

	protected := v1.Group("/")
	protected.Use(jwtAuth)
	{
		chatRoutes := protected.Group("/chat")
		{
			chatRoutes.POST("/sessions", chatController.StartSession)
			chatRoutes.POST("/respond", chatController.GenerateResponse)
			chatRoutes.GET("/session/:sessionId", chatController.GetSessionMessages)
			chatRoutes.GET("/history", chatController.GetHistory)
		}

		memoryRoutes := protected.Group("/memories")
		{
			memoryRoutes.GET("", memoryController.ListMemories)
			memoryRoutes.GET("/:id", memoryController.GetMemory)
			memoryRoutes.POST("/compile", memoryController.GenerateBlog)
			memoryRoutes.POST("/export", memoryController.ExportPDF)
			memoryRoutes.POST("/share", memoryController.CreateShareLink)
		}
	}

	// Original client paths, kept for compatibility with the web UI
	r.Engine.POST("/generate-ai-response", jwtAuth, chatController.GenerateResponse)
	r.Engine.POST("/generate-memory-blog", jwtAuth, memoryController.GenerateBlog)
	r.Engine.POST("/export-memory-pdf", jwtAuth, memoryController.ExportPDF)
	r.Engine.POST("/create-shareable-link", jwtAuth, memoryController.CreateShareLink)

	// Public share links: the token is the capability
	r.Engine.GET("/shared/:token", memoryController.GetSharedMemory)
}

// AddOpenAPIValidation wires schema validation when a schema file is configured
func (r *Router) AddOpenAPIValidation(schemaPath string) {
	v, err := validator.NewOpenAPIValidator(schemaPath)
	if err != nil {
		r.Logger.LogError(err, "Failed to load OpenAPI schema, validation disabled", "path", schemaPath)
		return
	}
	r.Engine.Use(v.Middleware())
}

// corsMiddleware allows browser calls from the configured web UI origins
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" || allowAll {
			if origin == "" {
				origin = "*"
			}
		} else if _, ok := allowed[origin]; !ok {
			c.Next()
			return
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, Authorization, Origin, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
