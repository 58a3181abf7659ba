package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/andomingos87/garageinn-helpdesk/internal/api/http"
	"github.com/andomingos87/garageinn-helpdesk/internal/api/http/handlers"
	"github.com/andomingos87/garageinn-helpdesk/internal/auth"
	"github.com/andomingos87/garageinn-helpdesk/internal/config"
	"github.com/andomingos87/garageinn-helpdesk/internal/events"
	"github.com/andomingos87/garageinn-helpdesk/internal/observability"
	"github.com/andomingos87/garageinn-helpdesk/internal/persistence"
	"github.com/andomingos87/garageinn-helpdesk/internal/repository"
	"github.com/andomingos87/garageinn-helpdesk/internal/service"
	"github.com/andomingos87/garageinn-helpdesk/internal/worker"
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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	approvalRepo := repository.NewApprovalRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	unitRepo := repository.NewUnitRepository(pool)
	membershipRepo := repository.NewMembershipRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, userRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		ApprovalRepo:   approvalRepo,
		DepartmentRepo: departmentRepo,
		UnitRepo:       unitRepo,
		HistoryRepo:    historyRepo,
		AttachmentRepo: attachmentRepo,
		Roles:          membershipRepo,
		Dispatcher:     dispatcher,
	})
	approvalService := service.NewApprovalService(service.ApprovalDependencies{
		TicketRepo:     ticketRepo,
		ApprovalRepo:   approvalRepo,
		DepartmentRepo: departmentRepo,
		Roles:          membershipRepo,
		Dispatcher:     dispatcher,
	})
	triageService := service.NewTriageService(ticketService, ticketRepo, membershipRepo, dispatcher)
	commentService := service.NewCommentService(commentRepo, ticketRepo, historyRepo, membershipRepo, redis, dispatcher, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, time.Duration(cfg.App.RequestTimeoutSeconds)*time.Second)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, triageService, commentService),
		Approvals:      handlers.NewApprovalsHandler(approvalService, ticketService),
		Comments:       handlers.NewCommentsHandler(commentService),
		Org:            handlers.NewOrgHandler(departmentRepo, unitRepo, membershipRepo),
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
