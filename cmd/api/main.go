package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"eventcraft/internal/adapter/api"
	"eventcraft/internal/adapter/api/handler"
	apimiddleware "eventcraft/internal/adapter/api/middleware"
	"eventcraft/internal/adapter/api/router"
	"eventcraft/internal/adapter/repository"
	domainrepo "eventcraft/internal/domain/repository"
	"eventcraft/internal/infrastructure/firebase"
	"eventcraft/internal/infrastructure/ratelimit"
	"eventcraft/internal/usecase"
	"eventcraft/pkg/config"
	"eventcraft/pkg/logger"
)

type repositories struct {
	chats   domainrepo.ChatRepository
	users   domainrepo.UserRepository
	vendors domainrepo.VendorRepository
	storage handler.Pinger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}
	logger.Configure(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var clients *firebase.Clients
	if cfg.StorageDriver == config.StorageFirestore || cfg.AuthEnabled {
		clients, err = firebase.NewClients(ctx, cfg)
		if err != nil {
			logger.Fatal("Failed to initialize Firebase: %v", err)
		}
		defer clients.Close()
	}

	var repos repositories
	switch cfg.StorageDriver {
	case config.StorageFirestore:
		repos = repositories{
			chats:   repository.NewFirestoreChatRepository(clients.Firestore),
			users:   repository.NewFirestoreUserRepository(clients.Firestore),
			vendors: repository.NewFirestoreVendorRepository(clients.Firestore),
			storage: repository.NewFirestorePinger(clients.Firestore),
		}
	case config.StorageMemory:
		store := repository.NewMemoryStore()
		repos = repositories{
			chats:   store.Chats(),
			users:   store.Users(),
			vendors: store.Vendors(),
			storage: store,
		}
	default:
		logger.Fatal("Unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	logger.Info("Using %s storage", cfg.StorageDriver)

	rateLimiter := ratelimit.NewRateLimiter(cfg.SendRatePerMinute)
	rateLimiter.StartCleanupRoutine(ctx, 10*time.Minute)

	chatUseCase := usecase.NewChatUseCase(repos.chats, repos.users, repos.vendors, rateLimiter)
	userUseCase := usecase.NewUserUseCase(repos.users)
	vendorUseCase := usecase.NewVendorUseCase(repos.vendors, repos.users)

	handlers := handler.Setup(chatUseCase, userUseCase, vendorUseCase, repos.storage, cfg.StorageDriver)

	e := echo.New()
	e.HideBanner = true

	e.Use(apimiddleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(apimiddleware.RateLimit(rateLimiter))

	e.Validator = api.NewValidator()

	opts := router.Options{MetricsEnabled: cfg.MetricsEnabled}
	if cfg.AuthEnabled {
		opts.Auth = apimiddleware.NewAuthMiddleware(clients.Auth)
		opts.Admin = apimiddleware.NewAdminMiddleware(repos.users)
	}
	router.Setup(e, handlers, opts)

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}
