package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/sometime-community/forum-auth/internal/api/http"
	"github.com/sometime-community/forum-auth/internal/api/http/handlers"
	"github.com/sometime-community/forum-auth/internal/auth"
	"github.com/sometime-community/forum-auth/internal/config"
	"github.com/sometime-community/forum-auth/internal/events"
	"github.com/sometime-community/forum-auth/internal/mail"
	"github.com/sometime-community/forum-auth/internal/observability"
	"github.com/sometime-community/forum-auth/internal/persistence"
	"github.com/sometime-community/forum-auth/internal/repository"
	"github.com/sometime-community/forum-auth/internal/service"
	"github.com/sometime-community/forum-auth/internal/worker"
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

	deps := map[string]handlers.Pinger{}
	if pg.Enabled() {
		deps["postgres"] = pg
	}

	var redis *persistence.Redis
	if cfg.Ledger.Backend == config.LedgerRedis {
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		deps["redis"] = redis
	}

	var users repository.UserRepository
	if pg.Enabled() {
		users = repository.NewUserRepository(pg.PoolHandle())
	} else {
		users = repository.NewMemoryUserRepository()
	}

	refreshLedger, codeLedger, err := buildLedgers(cfg, pg, redis)
	if err != nil {
		logger.Fatal("failed to build ledgers", zap.Error(err))
	}
	logger.Info("ledgers ready", zap.String("backend", cfg.Ledger.Backend))

	sender, err := buildSender(ctx, cfg.Mail, logger)
	if err != nil {
		logger.Fatal("failed to build mail sender", zap.Error(err))
	}

	tokens, err := auth.NewTokenCodec(auth.CodecConfig{
		Secret: []byte(cfg.Auth.JWTSecret),
		Issuer: cfg.Auth.Issuer,
	}, time.Now)
	if err != nil {
		logger.Fatal("failed to build token codec", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, metrics, logger))

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Users:      users,
		Ledger:     refreshLedger,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	verificationService := service.NewVerificationService(cfg.Verification, cfg.Mail.Subject, service.VerificationDependencies{
		Ledger:     codeLedger,
		Sender:     sender,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	authMiddleware := auth.NewAuthMiddleware(tokens, users)

	compactor := worker.NewLedgerCompactor(refreshLedger, codeLedger, cfg.Verification.CompactionInterval, cfg.Verification.Retention, logger)
	go compactor.Run(ctx)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, deps),
		Auth:           handlers.NewAuthHandler(authService),
		Mail:           handlers.NewMailHandler(verificationService),
		Users:          handlers.NewUsersHandler(),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func buildLedgers(cfg *config.Config, pg *persistence.Postgres, redis *persistence.Redis) (repository.RefreshTokenLedger, repository.VerificationCodeLedger, error) {
	switch cfg.Ledger.Backend {
	case config.LedgerRedis:
		return repository.NewRedisRefreshLedger(redis.Client, time.Now),
			repository.NewRedisVerificationLedger(redis.Client, cfg.Verification.Retention, time.Now),
			nil
	case config.LedgerPostgres:
		if !pg.Enabled() {
			return nil, nil, fmt.Errorf("ledger backend %q requires a postgres connection", cfg.Ledger.Backend)
		}
		return repository.NewRefreshTokenRepository(pg.PoolHandle()),
			repository.NewVerificationCodeRepository(pg.PoolHandle()),
			nil
	case config.LedgerMemory:
		return repository.NewMemoryRefreshLedger(), repository.NewMemoryVerificationLedger(), nil
	default:
		return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
}

func buildSender(ctx context.Context, cfg config.MailConfig, logger *zap.Logger) (mail.Sender, error) {
	switch cfg.Provider {
	case config.MailProviderSES:
		sender, err := mail.NewSESSender(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return sender, nil
	default:
		return mail.NewLogSender(cfg.From, logger), nil
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
