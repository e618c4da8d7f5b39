package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"finance-ledger/internal/cache"
	"finance-ledger/internal/config"
	"finance-ledger/internal/database"
	"finance-ledger/internal/events"
	"finance-ledger/internal/handlers"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/middleware"
	"finance-ledger/internal/repositories"
	"finance-ledger/internal/server"
	"finance-ledger/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const tokenCleanupInterval = time.Hour

func main() {
	cfg := config.Load()
	log := logging.New(cfg.Logging, cfg.Server.Environment)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped with error")
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	passwordService := services.NewPasswordService(cfg.Security)
	if err := seedAdmin(cfg, db, passwordService, log); err != nil {
		return err
	}

	ledgerCache, closeCache := newCache(ctx, cfg, log)
	defer closeCache()

	publisher, amqpClient := newPublisher(cfg, log)
	defer publisher.Close()

	metrics := services.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	auditLogger := services.NewAuditLogger(log)

	userRepo := repositories.NewUserRepository(db.DB)
	accountRepo := repositories.NewAccountRepository(db.DB)
	categoryRepo := repositories.NewCategoryRepository(db.DB)
	transactionRepo := repositories.NewTransactionRepository(db.DB)
	auditRepo := repositories.NewAuditLogRepository(db.DB)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db.DB)
	blacklistedTokenRepo := repositories.NewBlacklistedTokenRepository(db.DB)

	tokenService := services.NewTokenService(&cfg.JWT)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, auditRepo, blacklistedTokenRepo,
		passwordService, tokenService, metrics, cfg.Security, log)
	userService := services.NewUserService(userRepo)
	accountService := services.NewAccountService(accountRepo, userRepo, auditRepo, ledgerCache,
		cfg.Redis.BalanceTTL, auditLogger, metrics, log)
	categoryService := services.NewCategoryService(categoryRepo, auditRepo, log)
	transactionService := services.NewTransactionService(transactionRepo, accountRepo, categoryRepo,
		ledgerCache, publisher, auditLogger, metrics, log)
	reportService := services.NewReportService(transactionRepo, ledgerCache, cfg.Redis.RankingTTL,
		auditLogger, metrics, log)

	rateLimiter := middleware.NewRateLimiter(cfg.Security.RateLimitPerSecond, cfg.Security.RateLimitBurst)

	e := server.NewRouter(server.Dependencies{
		Config:          cfg,
		Logger:          log,
		TokenService:    tokenService,
		BlacklistedRepo: blacklistedTokenRepo,
		Metrics:         metrics,
		MetricsHandler:  promhttp.Handler(),
		RateLimiter:     rateLimiter,
	}, server.Handlers{
		Auth:        handlers.NewAuthHandler(authService, log),
		User:        handlers.NewUserHandler(userService, log),
		Account:     handlers.NewAccountHandler(accountService, log),
		Category:    handlers.NewCategoryHandler(categoryService, log),
		Report:      handlers.NewReportHandler(reportService, log),
		Transaction: handlers.NewTransactionHandler(transactionService, log),
		Health:      handlers.NewHealthCheckHandler(db, ledgerCache),
	})

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", httpServer.Addr).Info("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down http server")
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return rateLimiter.Run(gctx)
	})

	g.Go(func() error {
		return cleanupTokens(gctx, db, log)
	})

	if amqpClient != nil && cfg.AMQP.ConsumeAudit {
		consumer := events.NewConsumer(auditRepo, log)
		g.Go(func() error {
			return consumer.Run(gctx, amqpClient)
		})
	}

	return g.Wait()
}

func seedAdmin(cfg *config.Config, db *database.DB, passwordService services.PasswordServiceInterface, log logrus.FieldLogger) error {
	if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
		return nil
	}

	hash, err := passwordService.HashPassword(cfg.Admin.Password)
	if err != nil {
		return err
	}

	admin, err := db.SeedAdminUser(cfg.Admin.Email, hash, cfg.Admin.Name)
	if err != nil {
		return err
	}

	log.WithField("email", admin.Email).Info("admin user ready")
	return nil
}

// newCache connects to Redis when enabled. An unreachable Redis downgrades to
// the no-op cache instead of stopping the server.
func newCache(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (cache.Cache, func()) {
	if !cfg.Redis.Enabled {
		return cache.NewNoop(), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).WithField("addr", cfg.Redis.Addr).Warn("redis unavailable, caching disabled")
		_ = rdb.Close()
		return cache.NewNoop(), func() {}
	}

	log.WithField("addr", cfg.Redis.Addr).Info("redis cache enabled")
	breaker := cache.NewBreaker(cache.DefaultBreakerConfig())
	return cache.WithBreaker(cache.NewRedisCache(rdb), breaker), func() { _ = rdb.Close() }
}

// newPublisher dials the broker when AMQP is enabled. The returned client is
// nil when events go to the no-op publisher.
func newPublisher(cfg *config.Config, log logrus.FieldLogger) (events.Publisher, *events.Client) {
	if !cfg.AMQP.Enabled {
		return events.NoopPublisher{}, nil
	}

	client, err := events.NewClient(cfg.AMQP, log)
	if err != nil {
		log.WithError(err).Warn("amqp unavailable, transaction events disabled")
		return events.NoopPublisher{}, nil
	}

	return client, client
}

func cleanupTokens(ctx context.Context, db *database.DB, log logrus.FieldLogger) error {
	ticker := time.NewTicker(tokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed, err := db.CleanupExpiredTokens()
			if err != nil {
				log.WithError(err).Warn("token cleanup failed")
				continue
			}
			if removed > 0 {
				log.WithField("removed", removed).Info("expired tokens removed")
			}
		}
	}
}

