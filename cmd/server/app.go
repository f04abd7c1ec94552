// File: cmd/server/app.go
package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/iyunix/go-yasmin/internal/config"
	"github.com/iyunix/go-yasmin/internal/database"
	"github.com/iyunix/go-yasmin/internal/handlers"
	"github.com/iyunix/go-yasmin/internal/metrics"
	"github.com/iyunix/go-yasmin/internal/middleware"
	"github.com/iyunix/go-yasmin/internal/ratelimit"
	"github.com/iyunix/go-yasmin/internal/render"
	"github.com/iyunix/go-yasmin/internal/repository"
	"github.com/iyunix/go-yasmin/internal/services"
	chatservice "github.com/iyunix/go-yasmin/internal/services/chat"
)

// Application aggregates all services and handlers
type Application struct {
	Config       *config.Config
	Logger       services.Logger
	DB           *gorm.DB
	Store        *repository.Store
	Metrics      *metrics.Metrics
	AIService    *services.AIService
	ChatService  *services.ChatService
	ChatHandler  *handlers.ChatHandler
	AdminHandler *handlers.AdminHandler
	LogHandler   *handlers.LogHandler
	ChatLimiter  *ratelimit.MemoryRateLimiter
}

// Provider functions

func ProvideDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ProvideChatConfig(cfg *config.Config) *chatservice.Config {
	c := chatservice.DefaultConfig()
	c.HistoryLimit = cfg.HistoryLimit
	c.DefaultTemperature = cfg.DefaultTemperature
	c.DefaultMaxTokens = cfg.DefaultMaxTokens
	if cfg.SystemPrompt != "" {
		c.SystemPrompt = cfg.SystemPrompt
	}
	return c
}

func ProvideOfflineReplies(cfg *config.Config) (*chatservice.OfflineReplies, error) {
	if cfg.OfflineRepliesFile == "" {
		return chatservice.DefaultOfflineReplies(), nil
	}
	return chatservice.LoadOfflineReplies(cfg.OfflineRepliesFile)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.MemoryRateLimiter {
	rl := ratelimit.DefaultChatConfig()
	rl.RPS = cfg.RateLimitRPS
	rl.Burst = cfg.RateLimitBurst
	return ratelimit.NewMemoryRateLimiter(rl)
}

// NewApplication wires every component from configuration.
func NewApplication(cfg *config.Config, logger services.Logger) (*Application, error) {
	db, err := ProvideDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	store := repository.NewStore(db)

	aiService, err := services.NewAIService(cfg)
	if err != nil {
		return nil, err
	}

	offline, err := ProvideOfflineReplies(cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	chatService, err := services.NewChatService(store, aiService, ProvideChatConfig(cfg), offline, m, logger)
	if err != nil {
		return nil, fmt.Errorf("chat service: %w", err)
	}

	chatHandler, err := handlers.NewChatHandler(chatService, render.NewMarkdown())
	if err != nil {
		return nil, err
	}

	return &Application{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		Store:        store,
		Metrics:      m,
		AIService:    aiService,
		ChatService:  chatService,
		ChatHandler:  chatHandler,
		AdminHandler: handlers.NewAdminHandler(chatService),
		LogHandler:   handlers.NewLogHandler(logger),
		ChatLimiter:  ProvideRateLimiter(cfg),
	}, nil
}

// Close releases background goroutines and the database pool.
func (a *Application) Close() {
	a.ChatLimiter.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

// NewRouter builds the HTTP routes.
func NewRouter(app *Application) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.CORS(app.Config.AllowedOrigins))
	r.Use(middleware.RecoverPanic)
	r.Use(middleware.LoggingMiddleware(app.Logger))

	// --- Public Routes ---
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")
	r.Handle("/metrics", app.Metrics.Handler()).Methods("GET")

	limit := middleware.RateLimitMiddleware(app.ChatLimiter, "chat", app.Metrics.RateLimited)

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/chat", limit(http.HandlerFunc(app.ChatHandler.Chat))).Methods("POST", "OPTIONS")
	api.Handle("/regenerate", limit(http.HandlerFunc(app.ChatHandler.Regenerate))).Methods("POST", "OPTIONS")
	api.HandleFunc("/conversations", app.ChatHandler.ListConversations).Methods("GET")
	api.HandleFunc("/conversations/{id}", app.ChatHandler.GetConversation).Methods("GET")
	api.HandleFunc("/conversations/{id}", app.ChatHandler.DeleteConversation).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/status", app.ChatHandler.Status).Methods("GET")
	api.HandleFunc("/log", app.LogHandler.LogFrontendEvent).Methods("POST", "OPTIONS")

	// --- Operator Routes ---
	if app.Config.AdminTokenSecret != "" {
		adminAPI := api.PathPrefix("/admin").Subrouter()
		adminAPI.Use(middleware.RequireOperator([]byte(app.Config.AdminTokenSecret)))
		adminAPI.HandleFunc("/errors", app.AdminHandler.RecentErrors).Methods("GET")
	} else {
		app.Logger.Warn("ADMIN_TOKEN_SECRET not set, operator routes disabled")
	}

	// --- Custom Error Handlers ---
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Not found"}`))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(`{"error":"Method not allowed"}`))
	})

	return r
}
