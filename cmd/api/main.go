package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/portal-core/internal/api/http"
	"github.com/spec-kit/portal-core/internal/api/http/handlers"
	"github.com/spec-kit/portal-core/internal/auth"
	"github.com/spec-kit/portal-core/internal/catalog"
	"github.com/spec-kit/portal-core/internal/config"
	"github.com/spec-kit/portal-core/internal/events"
	"github.com/spec-kit/portal-core/internal/observability"
	"github.com/spec-kit/portal-core/internal/persistence"
	"github.com/spec-kit/portal-core/internal/repository"
	"github.com/spec-kit/portal-core/internal/service"
	"github.com/spec-kit/portal-core/internal/worker"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	catalogStore := catalog.NewStore(cfg.Plans)

	pool := pg.PoolHandle()
	accountRepo := repository.NewAccountRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	usageRepo := repository.NewUsageRepository(redis.Client)

	resolver := service.NewRoleResolver(cfg.Auth.OperatorEmail)
	permissionService := service.NewPermissionService(catalogStore)
	subscriptionService := service.NewSubscriptionService(accountRepo, dispatcher, cfg.Subscription.TrialDays)
	accountService := service.NewAccountService(service.AccountDependencies{
		AccountRepo:  accountRepo,
		Permissions:  permissionService,
		Subscription: subscriptionService,
		Dispatcher:   dispatcher,
		BcryptCost:   cfg.Auth.BcryptCost,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		AccountRepo:       accountRepo,
		PasswordResetRepo: resetRepo,
		Subscription:      subscriptionService,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		Resolver:    resolver,
		Dispatcher:  dispatcher,
	})

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification, redis.Client)
	worker.StartNotificationWorker(logger, notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), accountRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(pg, redis),
		Accounts:       handlers.NewAccountsHandler(accountService, authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, accountService, cfg.Auth.OperatorLabel),
		Subscriptions:  handlers.NewSubscriptionsHandler(subscriptionService, permissionService, accountService, usageRepo),
		Admin:          handlers.NewAdminHandler(catalogStore, subscriptionService, accountService, metrics),
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

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
