package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/encorebot/support-desk/internal/api/http"
	"github.com/encorebot/support-desk/internal/api/http/handlers"
	"github.com/encorebot/support-desk/internal/auth"
	"github.com/encorebot/support-desk/internal/config"
	"github.com/encorebot/support-desk/internal/email"
	"github.com/encorebot/support-desk/internal/events"
	"github.com/encorebot/support-desk/internal/observability"
	"github.com/encorebot/support-desk/internal/persistence"
	"github.com/encorebot/support-desk/internal/service"
	"github.com/encorebot/support-desk/internal/storage"
	"github.com/encorebot/support-desk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to init storage", zap.Error(err))
	}
	defer store.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	mailer := email.NewMailer(cfg.Email, logger)
	sessions := auth.NewSessionManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL(), cfg.App.Production())

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Store:      store,
		Mailer:     mailer,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	ticketService := service.NewTicketService(store, dispatcher)
	adminService := service.NewAdminService(store, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	if err := adminService.EnsureDefaultEmail(ctx, cfg.Admin.DefaultEmail); err != nil {
		logger.Error("failed to seed default admin email", zap.Error(err))
	}

	authMiddleware := auth.NewMiddleware(sessions, store)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(store),
		Auth:           handlers.NewAuthHandler(authService, sessions),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AdminEmails:    handlers.NewAdminEmailsHandler(adminService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func newStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		return storage.NewPostgresStore(pg.Pool), nil
	case config.DriverRedis:
		client, err := persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		return storage.NewRedisStore(client), nil
	default:
		logger.Info("using in-memory storage; data will not survive restarts")
		return storage.NewMemoryStore(), nil
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
