package di

import (
	"context"
	"fmt"

	"memory-keeper/backend/ai"
	"memory-keeper/backend/internal/service"
	"memory-keeper/backend/internal/session"
	"memory-keeper/backend/pkg/cache"
	"memory-keeper/backend/pkg/config"
	"memory-keeper/backend/pkg/jwt"
	"memory-keeper/backend/pkg/logger"
	"memory-keeper/backend/pkg/secrets"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB            *gorm.DB
	Config        *config.Config
	Logger        *logger.Logger
	JWTService    *jwt.Service
	SessionStore  *session.Store
	Cache         *cache.Cache
	Completer     ai.Completer
	UserService   *service.UserService
	ChatService   *service.ChatService
	MemoryService *service.MemoryService
	Responder     *service.Responder
	Compiler      *service.Compiler
	ExportService *service.ExportService
}

// New creates a new dependency injection container
func New(db *gorm.DB, cfg *config.Config, log *logger.Logger) (*Container, error) {
	// Secrets may live in Vault; fall back to the environment-backed config
	if err := secrets.Init(log); err != nil {
		return nil, fmt.Errorf("failed to initialize secrets manager: %w", err)
	}

	ctx := context.Background()
	jwtSecret := secrets.GetSecretWithDefault(ctx, "JWT_SECRET", cfg.JWT.Secret)
	openAIKey := secrets.GetSecretWithDefault(ctx, "OPENAI_API_KEY", cfg.OpenAI.APIKey)

	jwtService := jwt.NewService(jwtSecret, cfg.JWT.Expiry)

	completer, err := ai.NewClient(openAIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}
	if cfg.OpenAI.BaseURL != "" {
		completer.WithBaseURL(cfg.OpenAI.BaseURL)
	}
	completer.WithTimeout(cfg.OpenAI.Timeout)

	var listCache *cache.Cache
	if cfg.Cache.Enabled {
		listCache = cache.New(cfg.Cache.RedisURL, cfg.Cache.TTL)
	}

	sessionStore := session.NewStore(cfg.Features.MaxMessagesPerSession, cfg.Features.SessionTTL)

	userService := service.NewUserService(db, jwtService)
	chatService := service.NewChatService(db, sessionStore)
	memoryService := service.NewMemoryService(db, listCache, log, cfg.Server.BaseURL)
	responder := service.NewResponder(completer, chatService, log)
	compiler := service.NewCompiler(completer, chatService, memoryService, log)

	var renderer service.Renderer
	if cfg.Services.ExportServiceURL != "" {
		renderer = service.NewHTTPRenderer(cfg.Services.ExportServiceURL)
	}
	exportService := service.NewExportService(renderer, memoryService, log)

	return &Container{
		DB:            db,
		Config:        cfg,
		Logger:        log,
		JWTService:    jwtService,
		SessionStore:  sessionStore,
		Cache:         listCache,
		Completer:     completer,
		UserService:   userService,
		ChatService:   chatService,
		MemoryService: memoryService,
		Responder:     responder,
		Compiler:      compiler,
		ExportService: exportService,
	}, nil
}
