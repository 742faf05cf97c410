package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/auth"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/config"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/observ"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/scheduler"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/service"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/store"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/transport/http/handlers"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/transport/http/middleware"
	"github.com/JohnieCar15/UNSW-Streams-sub000/internal/transport/ws"
	"github.com/JohnieCar15/UNSW-Streams-sub000/pkg/validator"
)

func main() {
	cfg := config.Load()

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	persister, err := newPersister(cfg)
	if err != nil {
		logger.Fatal("Snapshot backend unavailable", zap.Error(err))
	}
	logger.Info("Snapshot backend ready", zap.String("backend", cfg.SnapshotBackend))

	st := store.New(logger, persister)
	if err := st.Load(context.Background()); err != nil {
		logger.Fatal("Failed to load workspace snapshot", zap.Error(err))
	}

	sched := scheduler.New(logger)
	defer sched.Stop()

	val := validator.New()
	tokens := auth.NewTokenManager(cfg.JWTSecret)

	// Services
	authService := service.NewAuthService(st, tokens, logger)
	userService := service.NewUserService(st, logger)
	channelService := service.NewChannelService(st, logger)
	dmService := service.NewDMService(st, logger)
	messageService := service.NewMessageService(st, sched, logger)
	notificationService := service.NewNotificationService(st, logger)
	standupService := service.NewStandupService(st, sched, logger)

	// WebSocket hub
	hub := ws.NewHub(logger)
	go hub.Run()
	notifier := ws.NewHubNotifier(hub, logger)
	channelService.SetNotifier(notifier)
	dmService.SetNotifier(notifier)
	messageService.SetNotifier(notifier)
	standupService.SetNotifier(notifier)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, val, logger)
	userHandler := handlers.NewUserHandler(userService, logger)
	channelHandler := handlers.NewChannelHandler(channelService, messageService, val, logger)
	dmHandler := handlers.NewDMHandler(dmService, messageService, val, logger)
	messageHandler := handlers.NewMessageHandler(messageService, logger)
	notificationHandler := handlers.NewNotificationHandler(notificationService, logger)
	standupHandler := handlers.NewStandupHandler(standupService, logger)
	workspaceHandler := handlers.NewWorkspaceHandler(st, logger)

	// Auth middleware
	authMW := middleware.Auth(authService)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/passwordreset/request", authHandler.PasswordResetRequest)
	mux.HandleFunc("POST /api/v1/auth/passwordreset/reset", authHandler.PasswordReset)
	mux.HandleFunc("DELETE /api/v1/clear", workspaceHandler.Clear)
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, authService, logger))

	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authMW(h))
	}

	// Protected - Auth
	protected("POST /api/v1/auth/logout", authHandler.Logout)

	// Protected - Users
	protected("GET /api/v1/users", userHandler.ListAll)
	protected("GET /api/v1/users/stats", userHandler.WorkspaceStats)
	protected("GET /api/v1/users/{id}", userHandler.Profile)
	protected("GET /api/v1/users/{id}/stats", userHandler.Stats)
	protected("PUT /api/v1/user/name", userHandler.SetName)
	protected("PUT /api/v1/user/email", userHandler.SetEmail)
	protected("PUT /api/v1/user/handle", userHandler.SetHandle)

	// Protected - Admin
	protected("POST /api/v1/admin/users/{id}/permission", userHandler.ChangePermission)
	protected("DELETE /api/v1/admin/users/{id}", userHandler.Remove)

	// Protected - Channels
	protected("POST /api/v1/channels", channelHandler.Create)
	protected("GET /api/v1/channels", channelHandler.ListJoined)
	protected("GET /api/v1/channels/all", channelHandler.ListAll)
	protected("GET /api/v1/channels/{id}", channelHandler.Details)
	protected("POST /api/v1/channels/{id}/join", channelHandler.Join)
	protected("POST /api/v1/channels/{id}/invite", channelHandler.Invite)
	protected("POST /api/v1/channels/{id}/leave", channelHandler.Leave)
	protected("POST /api/v1/channels/{id}/addowner", channelHandler.AddOwner)
	protected("POST /api/v1/channels/{id}/removeowner", channelHandler.RemoveOwner)
	protected("GET /api/v1/channels/{id}/messages", channelHandler.Messages)
	protected("POST /api/v1/channels/{id}/messages", channelHandler.Send)
	protected("POST /api/v1/channels/{id}/messages/sendlater", channelHandler.SendLater)

	// Protected - Standups
	protected("POST /api/v1/channels/{id}/standup/start", standupHandler.Start)
	protected("GET /api/v1/channels/{id}/standup/active", standupHandler.Active)
	protected("POST /api/v1/channels/{id}/standup/send", standupHandler.Send)

	// Protected - DMs
	protected("POST /api/v1/dms", dmHandler.Create)
	protected("GET /api/v1/dms", dmHandler.List)
	protected("GET /api/v1/dms/{id}", dmHandler.Details)
	protected("POST /api/v1/dms/{id}/leave", dmHandler.Leave)
	protected("DELETE /api/v1/dms/{id}", dmHandler.Remove)
	protected("GET /api/v1/dms/{id}/messages", dmHandler.Messages)
	protected("POST /api/v1/dms/{id}/messages", dmHandler.Send)
	protected("POST /api/v1/dms/{id}/messages/sendlater", dmHandler.SendLater)

	// Protected - Messages
	protected("PUT /api/v1/messages/{id}", messageHandler.Edit)
	protected("DELETE /api/v1/messages/{id}", messageHandler.Delete)
	protected("POST /api/v1/messages/{id}/react", messageHandler.React)
	protected("POST /api/v1/messages/{id}/unreact", messageHandler.Unreact)
	protected("POST /api/v1/messages/{id}/pin", messageHandler.Pin)
	protected("POST /api/v1/messages/{id}/unpin", messageHandler.Unpin)
	protected("POST /api/v1/messages/{id}/share", messageHandler.Share)
	protected("GET /api/v1/search", messageHandler.Search)

	// Protected - Notifications
	protected("GET /api/v1/notifications", notificationHandler.Get)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	logger.Info("Starting server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, middleware.CORS(mux)); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func newPersister(cfg *config.Config) (store.Persister, error) {
	switch cfg.SnapshotBackend {
	case "redis":
		return store.NewRedisPersister(cfg.RedisAddr)
	case "postgres":
		return store.NewPostgresPersister(context.Background(), cfg.PostgresDSN)
	default:
		return store.NewFilePersister(cfg.SnapshotPath), nil
	}
}
