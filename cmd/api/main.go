package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/finalapps/orbit/internal/api/http"
	"github.com/finalapps/orbit/internal/api/http/handlers"
	"github.com/finalapps/orbit/internal/auth"
	"github.com/finalapps/orbit/internal/config"
	"github.com/finalapps/orbit/internal/events"
	"github.com/finalapps/orbit/internal/observability"
	"github.com/finalapps/orbit/internal/persistence"
	"github.com/finalapps/orbit/internal/repository"
	"github.com/finalapps/orbit/internal/service"
	"github.com/finalapps/orbit/internal/worker"
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

	pool := pg.PoolHandle()
	inquiryRepo := repository.NewInquiryRepository(pool)
	operatorRepo := repository.NewOperatorRepository(pool)
	replyRepo := repository.NewReplyRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		InquiryRepo:  inquiryRepo,
		OperatorRepo: operatorRepo,
		ActivityRepo: activityRepo,
		Dispatcher:   dispatcher,
	})
	ingestionService := service.NewIngestionService(service.IngestionDependencies{
		InquiryRepo:  inquiryRepo,
		ActivityRepo: activityRepo,
		Assignment:   assignmentService,
		Dispatcher:   dispatcher,
		Pipeline:     cfg.Pipeline,
		Logger:       logger,
	})
	scoringService := service.NewScoringService(service.ScoringDependencies{
		InquiryRepo:  inquiryRepo,
		OperatorRepo: operatorRepo,
		ReplyRepo:    replyRepo,
		ActivityRepo: activityRepo,
		Dispatcher:   dispatcher,
		Scoring:      cfg.Scoring,
		Logger:       logger,
	})
	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		InquiryRepo:  inquiryRepo,
		OperatorRepo: operatorRepo,
		ActivityRepo: activityRepo,
		Assignment:   assignmentService,
		Dispatcher:   dispatcher,
		Pipeline:     cfg.Pipeline,
		Logger:       logger,
	})
	inquiryService := service.NewInquiryService(inquiryRepo, replyRepo, activityRepo)
	operatorService := service.NewOperatorService(operatorRepo)
	notificationService := service.NewNotificationService(redis, cfg.Events, logger)

	worker.StartNotificationWorker(notificationService, dispatcher)

	sweepWorker := worker.NewSweepWorker(lifecycleService, metrics, cfg.Pipeline.SweepInterval(), logger)
	sweepWorker.Start(ctx)
	defer sweepWorker.Stop()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Ingestion:      handlers.NewIngestionHandler(ingestionService),
		Inquiries:      handlers.NewInquiriesHandler(inquiryService, assignmentService),
		Replies:        handlers.NewRepliesHandler(scoringService),
		Operators:      handlers.NewOperatorsHandler(operatorService, scoringService),
		Sweep:          handlers.NewSweepHandler(lifecycleService),
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
