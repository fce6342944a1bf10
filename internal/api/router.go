package api

import (
	"net/http"

	"github.com/GulovM/ToDo-Master/internal/ai"
	"github.com/GulovM/ToDo-Master/internal/ai/gemini"
	"github.com/GulovM/ToDo-Master/internal/ai/openai"
	"github.com/GulovM/ToDo-Master/internal/api/handler"
	customMiddleware "github.com/GulovM/ToDo-Master/internal/api/middleware"
	"github.com/GulovM/ToDo-Master/internal/config"
	"github.com/GulovM/ToDo-Master/internal/repository/postgres"
	"github.com/GulovM/ToDo-Master/internal/repository/redis"
	"github.com/GulovM/ToDo-Master/internal/security"
	"github.com/GulovM/ToDo-Master/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	taskRepo := postgres.NewTaskRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	messageRepo := postgres.NewMessageRepository(db)

	rateLimiter := redis.NewRateLimiter(
		redisClient,
		cfg.Security.RateLimit.RequestsPerMinute,
		cfg.Security.RateLimit.Burst,
	)
	statsCache := redis.NewStatsCache(redisClient)

	// AI providers
	aiRouter := ai.NewRouter(cfg.AI.DefaultProvider)
	log.Info().Msgf("Initializing AI providers. Default: %s", cfg.AI.DefaultProvider)

	if cfg.AI.OpenAI.APIKey != "" {
		aiRouter.RegisterProvider(openai.NewProvider(cfg.AI.OpenAI, cfg.AI.Timeout, cfg.AI.Referer, cfg.AI.Title))
	}
	if cfg.AI.Gemini.APIKey != "" {
		aiRouter.RegisterProvider(gemini.NewProvider(cfg.AI.Gemini))
	} else {
		log.Debug().Msg("Gemini API key is empty, skipping registration")
	}

	planner := ai.NewPlanner(aiRouter)

	// Services
	authService := service.NewAuthService(userRepo, jwtManager)
	categoryService := service.NewCategoryService(categoryRepo, taskRepo)
	taskService := service.NewTaskService(taskRepo, categoryRepo, statsCache)
	executor := service.NewExecutor(taskRepo, categoryRepo, statsCache)
	assistantService := service.NewAssistantService(
		sessionRepo,
		messageRepo,
		taskRepo,
		categoryRepo,
		aiRouter,
		planner,
		executor,
		cfg.AI,
	)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	taskHandler := handler.NewTaskHandler(taskService)
	assistantHandler := handler.NewAssistantHandler(assistantService, cfg.AI.Debug)

	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(rateLimiter)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db, redisClient))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(rateLimitMiddleware.Limit)

			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/change-password", authHandler.ChangePassword)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", categoryHandler.List)
				r.Post("/", categoryHandler.Create)
				r.Patch("/{categoryID}", categoryHandler.Update)
				r.Delete("/{categoryID}", categoryHandler.Delete)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)
				r.Post("/bulk", taskHandler.Bulk)
				r.Get("/upcoming", taskHandler.Upcoming)
				r.Get("/stats", taskHandler.Stats)

				r.Route("/{taskID}", func(r chi.Router) {
					r.Get("/", taskHandler.Get)
					r.Patch("/", taskHandler.Update)
					r.Post("/status", taskHandler.SetStatus)
					r.Delete("/", taskHandler.Delete)
				})
			})

			r.Route("/ai", func(r chi.Router) {
				r.Post("/assist", assistantHandler.Assist)
				r.Get("/chats", assistantHandler.ListChats)
				r.Get("/chats/{chatID}/messages", assistantHandler.ChatMessages)
			})
		})
	})

	return r
}
