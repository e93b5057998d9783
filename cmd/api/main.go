package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/chat"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/mail"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/registry"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
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

	rds := persistence.NewRedis(cfg.Redis, logger)
	defer rds.Close()

	pool := pg.PoolHandle()
	adminRepo := repository.NewAdminRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	breakRepo := repository.NewBreakRepository(pool)
	settingsRepo := repository.NewBreakSettingsRepository(pool)
	codeRepo := repository.NewVerificationRepository(pool)

	if err := settingsRepo.Seed(ctx, domain.BreakSettings{
		DurationMinutes: cfg.Breaks.DefaultDurationMinutes,
		DailyFrequency:  cfg.Breaks.DefaultDailyFrequency,
	}); err != nil {
		logger.Fatal("failed to seed break settings", zap.Error(err))
	}

	reg := registry.New()
	if err := reg.Load(ctx, registry.Sources{
		Admins:    adminRepo,
		Agents:    agentRepo,
		Customers: customerRepo,
		Tickets:   ticketRepo,
		Tasks:     taskRepo,
	}); err != nil {
		logger.Fatal("failed to load registry", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	mailer := mail.NewDispatcher(cfg.Mail, logger)

	notificationWorker := worker.NewNotificationWorker(mailer, logger)
	notificationWorker.Register(dispatcher)

	chatKey, err := cfg.Chat.Key()
	if err != nil {
		logger.Fatal("invalid chat key", zap.Error(err))
	}
	chatIV, err := cfg.Chat.IV()
	if err != nil {
		logger.Fatal("invalid chat iv", zap.Error(err))
	}
	cipher, err := chat.NewCipher(chatKey, chatIV)
	if err != nil {
		logger.Fatal("failed to init chat cipher", zap.Error(err))
	}

	hub := chat.NewHub(logger)
	var broadcaster chat.Broadcaster
	if rds.Ping(ctx) == nil {
		broadcaster = &chat.RedisBroadcaster{Client: rds.Client}
		go chat.RunRelay(ctx, rds.Client, hub, logger)
	} else {
		logger.Warn("redis unreachable; chat fan-out is single-instance only")
		broadcaster = &chat.LocalBroadcaster{Hub: hub}
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		AdminRepo:    adminRepo,
		AgentRepo:    agentRepo,
		CustomerRepo: customerRepo,
		Registry:     reg,
	})
	verificationService := service.NewVerificationService(service.VerificationDependencies{
		CodeRepo:     codeRepo,
		AdminRepo:    adminRepo,
		AgentRepo:    agentRepo,
		CustomerRepo: customerRepo,
		Registry:     reg,
		Mailer:       mailer,
		Dispatcher:   dispatcher,
	})
	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		Registry:     reg,
		TicketRepo:   ticketRepo,
		AgentRepo:    agentRepo,
		CustomerRepo: customerRepo,
		Dispatcher:   dispatcher,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		Registry:     reg,
		TicketRepo:   ticketRepo,
		AgentRepo:    agentRepo,
		BreakRepo:    breakRepo,
		SettingsRepo: settingsRepo,
		Dispatcher:   dispatcher,
	})
	chatService := service.NewChatService(service.ChatDependencies{
		Registry:    reg,
		MessageRepo: messageRepo,
		Hub:         hub,
		Broadcaster: broadcaster,
		Cipher:      cipher,
		Dispatcher:  dispatcher,
		MaxBytes:    cfg.Chat.MaxMessageBytes,
	})
	taskService := service.NewTaskService(service.TaskDependencies{
		Registry: reg,
		TaskRepo: taskRepo,
	})

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), reg)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rds, metrics),
		Auth:           handlers.NewAuthHandler(authService, verificationService),
		Tickets:        handlers.NewTicketsHandler(lifecycleService),
		AgentTickets:   handlers.NewAgentTicketsHandler(lifecycleService, assignmentService),
		Breaks:         handlers.NewBreaksHandler(assignmentService),
		Chat:           handlers.NewChatHandler(chatService, logger),
		Tasks:          handlers.NewTasksHandler(taskService),
		Admin:          handlers.NewAdminHandler(authService, assignmentService, lifecycleService),
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
