package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradenHooton/admingate/internal/auth"
	"github.com/BradenHooton/admingate/internal/background"
	"github.com/BradenHooton/admingate/internal/config"
	"github.com/BradenHooton/admingate/internal/database"
	"github.com/BradenHooton/admingate/internal/handlers"
	"github.com/BradenHooton/admingate/internal/metrics"
	middlewareCustom "github.com/BradenHooton/admingate/internal/middleware"
	"github.com/BradenHooton/admingate/internal/repositories"
	"github.com/BradenHooton/admingate/internal/routes"
	"github.com/BradenHooton/admingate/internal/services"
	pkghttp "github.com/BradenHooton/admingate/pkg/http"
	pkglogger "github.com/BradenHooton/admingate/pkg/logger"
	"github.com/filecoin-project/go-clock"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Bootstrap logger until the configured one is available
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger, logCloser := pkglogger.New(pkglogger.Options{Level: cfg.Server.LogLevel, File: cfg.Server.LogFile})
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("ledger_backend", cfg.Ledger.Backend),
		slog.String("block_policy", cfg.Auth.BlockPolicy))

	stores, err := openStores(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize stores", slog.Any("error", err))
		os.Exit(1)
	}
	defer stores.Close()

	clk := clock.New()
	m := metrics.New()
	auditLogger := pkglogger.NewAuditLogger(logger, cfg.Server.Env)
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}

	// Attempt ledger
	ledger := services.NewAttemptLedger(stores.attempts, services.AttemptLedgerConfig{
		MaxFailedAttempts: cfg.Auth.MaxFailedAttempts,
		Window:            cfg.Auth.AttemptWindow,
	}, clk, logger, m)

	// Sessions
	tokenManager := auth.NewSessionTokenManager(cfg.Auth.SessionSigningKey, cfg.Auth.SessionLifetime, clk)
	sessionService := services.NewSessionService(tokenManager, ledger, stores.revocations, services.SessionConfig{
		Production:        cfg.Server.IsProduction(),
		StrictFingerprint: cfg.Auth.StrictFingerprint,
	}, clk, logger, m)

	// Credentials
	credentialVerifier := services.NewCredentialVerifier(services.CredentialVerifierConfig{
		Secret:            cfg.Auth.AdminSecret,
		SecretHash:        cfg.Auth.AdminSecretHash,
		DevFallbackSecret: cfg.Auth.DevFallbackSecret,
		AllowDevFallback:  !cfg.Server.IsProduction(),
	}, auth.NewTOTPVerifier(cfg.Auth.TOTPSecret, clk), logger)

	notifier, err := newLockoutNotifier(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize lockout notifier", slog.Any("error", err))
		os.Exit(1)
	}

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	adminAuthService := services.NewAdminAuthService(ledger, credentialVerifier, sessionService, notifier,
		timingDelay, auditLogger, services.AdminAuthConfig{BlockPolicy: cfg.Auth.BlockPolicy}, logger, m)
	statusService := services.NewStatusService(ledger, sessionService, cfg.Ledger.Backend, clk)

	// Handlers
	adminHandler := handlers.NewAdminAuthHandler(adminAuthService, sessionService, statusService, handlers.AdminAuthHandlerConfig{
		IPConfig:        ipConfig,
		CookieConfig:    auth.DefaultCookieConfig(cfg.Server.Env, cfg.Auth.CookieDomain),
		SessionLifetime: cfg.Auth.SessionLifetime,
		Production:      cfg.Server.IsProduction(),
		Clock:           clk,
	}, logger)
	healthHandler := handlers.NewHealthHandler(ledger, logger)

	// Cleanup of stale ledger records and expired revocations
	cleanupManager := background.NewCleanupManager([]background.CleanupTask{
		{Name: "attempts", Run: ledger.PurgeStale},
		{Name: "revocations", Run: sessionService.PurgeExpiredRevocations},
	}, logger, m, cfg.Auth.CleanupInterval)

	// Router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	routes.RegisterRoutes(router, routes.Dependencies{
		AdminHandler:   adminHandler,
		HealthHandler:  healthHandler,
		Verifier:       sessionService,
		Metrics:        m,
		IPConfig:       ipConfig,
		LoginRateLimit: middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Auth.LoginRequestsPerMinute, IPConfig: ipConfig},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	adminAuthService.WaitForNotifications()
	logger.Info("server stopped gracefully")
}

// stores holds the selected ledger and revocation backends
type stores struct {
	attempts    services.AttemptStore
	revocations services.RevocationStore
	closers     []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores connects the backend named by LEDGER_BACKEND
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.Ledger.Backend {
	case config.LedgerBackendPostgres:
		db, err := database.Open(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := db.Migrate(migrateCtx); err != nil {
			db.Close()
			return nil, err
		}

		return &stores{
			attempts:    repositories.NewPostgresAttemptRepository(db),
			revocations: repositories.NewPostgresRevocationRepository(db),
			closers:     []func(){db.Close},
		}, nil

	case config.LedgerBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("redis connection established", slog.String("addr", cfg.Redis.Addr))

		return &stores{
			attempts:    repositories.NewRedisAttemptRepository(client, cfg.Redis.KeyPrefix),
			revocations: repositories.NewRedisRevocationRepository(client, cfg.Redis.KeyPrefix),
			closers:     []func(){func() { _ = client.Close() }},
		}, nil

	default:
		if cfg.Server.IsProduction() {
			logger.Warn("memory ledger backend in production: failure counts are per process and lost on restart")
		}
		return &stores{
			attempts:    repositories.NewMemoryAttemptRepository(),
			revocations: repositories.NewMemoryRevocationRepository(),
		}, nil
	}
}

// newLockoutNotifier uses SES when alerting is configured and logs otherwise
func newLockoutNotifier(cfg *config.Config, logger *slog.Logger) (services.LockoutNotifier, error) {
	if !cfg.Email.Enabled() {
		return services.NewLogLockoutNotifier(logger), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notifier, err := services.NewSESLockoutNotifier(ctx, cfg.Email.AWSRegion, cfg.Email.FromAddress, cfg.Email.AlertRecipient, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("lockout alerts enabled", slog.String("recipient", pkglogger.MaskEmail(cfg.Email.AlertRecipient)))
	return notifier, nil
}
