// Package main is the entrypoint for the notifier API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/aiinterface/notifier/internal/auth"
	"github.com/aiinterface/notifier/internal/cache"
	"github.com/aiinterface/notifier/internal/config"
	"github.com/aiinterface/notifier/internal/dispatch"
	"github.com/aiinterface/notifier/internal/email"
	"github.com/aiinterface/notifier/internal/handler"
	"github.com/aiinterface/notifier/internal/metrics"
	"github.com/aiinterface/notifier/internal/middleware"
	"github.com/aiinterface/notifier/internal/repository"
	"github.com/aiinterface/notifier/internal/scheduler"
	"github.com/aiinterface/notifier/internal/server"
	"github.com/aiinterface/notifier/internal/service"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize cache. Redis is optional: without it runs are not leased
	// and /email/send is not rate limited.
	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			repo.Close()
			os.Exit(1)
		}
		logger.Info("connected to Redis")
	} else {
		logger.Warn("REDIS_URL not set, run lease and rate limiting disabled")
	}

	// Initialize services
	metricsRecorder := metrics.NewInMemory()

	dispatcher := service.NewDispatcher(service.DispatcherConfig{
		Provider: newEmailProvider(cfg, logger),
		From:     cfg.FromEmail,
		Logger:   logger,
		Metrics:  metricsRecorder,
	})

	scannerCfg := service.BalanceScannerConfig{
		Store:       repo,
		Notifier:    newScannerNotifier(cfg, dispatcher),
		BaseURL:     cfg.AppBaseURL,
		DedupWindow: cfg.AlertDedupWindow,
		LeaseTTL:    cfg.RunLeaseTTL,
		Logger:      logger,
		Metrics:     metricsRecorder,
	}
	if cacheClient != nil {
		scannerCfg.Locker = cacheClient
	}
	scanner := service.NewBalanceScanner(scannerCfg)

	// Setup router
	deps := routerDeps{
		health:     handler.NewHealthHandler(repo, nil),
		metrics:    handler.NewMetricsHandler(metricsRecorder),
		cron:       handler.NewCronHandler(scanner, cfg.RunLeaseTTL, logger),
		email:      handler.NewEmailHandler(dispatcher, logger),
		cronAuth:   auth.NewSecretChecker(cfg.CronSecret),
		emailAuth:  auth.NewSecretChecker(cfg.EmailAPISecret),
		rateLimits: middleware.RateLimitConfig{
			Logger:  logger,
			Enabled: cfg.RateLimitEmailEnabled,
			RPS:     cfg.RateLimitEmailRPS,
			Burst:   cfg.RateLimitEmailBurst,
		},
	}
	if cacheClient != nil {
		deps.health = handler.NewHealthHandler(repo, cacheClient)
		deps.rateLimits.Limiter = cacheClient
	}
	if !deps.cronAuth.Enabled() {
		logger.Warn("CRON_SECRET not set, /cron/check-balance is unauthenticated")
	}
	if !deps.emailAuth.Enabled() {
		logger.Warn("EMAIL_API_SECRET not set, /email/send is unauthenticated")
	}

	r := setupRouter(handler.New(version), deps, cfg, logger)

	// Create and run server
	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("database", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(ctx context.Context) error {
			return cacheClient.Close()
		})
	}

	if cfg.SchedulerEnabled() {
		worker := scheduler.NewWorker(scanner, cfg.BalanceCheckInterval, logger)
		srv.Go("scheduler", worker.Run)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"version", version,
		"env", cfg.AppEnv,
		"email_provider", cfg.EmailProvider,
		"dispatcher_url", redactURL(cfg.RemoteDispatcherURL()),
		"balance_check_interval", cfg.BalanceCheckInterval,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newScannerNotifier returns the in-process dispatcher unless DISPATCHER_URL
// points the scanner at a separate deployment.
func newScannerNotifier(cfg *config.Config, dispatcher *service.Dispatcher) service.Notifier {
	remote := cfg.RemoteDispatcherURL()
	if remote == "" {
		return dispatcher
	}
	return dispatch.NewClient(dispatch.Config{
		BaseURL:     remote,
		EmailSecret: cfg.EmailAPISecret,
	})
}

// newEmailProvider picks the transport for outgoing mail. Development
// without a Resend key logs emails instead of failing every send.
func newEmailProvider(cfg *config.Config, logger *slog.Logger) email.Provider {
	if cfg.EmailProvider == config.EmailProviderLog {
		return email.NewLogProvider(logger)
	}
	if cfg.ResendAPIKey == "" {
		logger.Warn("RESEND_API_KEY not set, logging emails instead of sending")
		return email.NewLogProvider(logger)
	}
	return email.NewResendProvider(cfg.ResendAPIKey)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// routerDeps are the handlers and guards mounted by setupRouter.
type routerDeps struct {
	health     *handler.HealthHandler
	metrics    *handler.MetricsHandler
	cron       *handler.CronHandler
	email      *handler.EmailHandler
	cronAuth   *auth.SecretChecker
	emailAuth  *auth.SecretChecker
	rateLimits middleware.RateLimitConfig
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(h *handler.Handler, deps routerDeps, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Health and metrics endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)
	r.Get("/metrics", deps.metrics.Metrics)

	// Root info endpoint
	r.Get("/", h.Hello)

	// Scheduler trigger
	r.With(middleware.RequireBearer(deps.cronAuth, logger)).
		Post("/cron/check-balance", deps.cron.CheckBalance)

	// Email dispatcher. Callers holding the secret are not rate limited;
	// everyone else is, before the secret is checked.
	emailLimits := deps.rateLimits
	if deps.emailAuth.Enabled() {
		emailLimits.Exempt = deps.emailAuth.AllowRequest
	}
	r.With(
		middleware.RateLimitIP(emailLimits),
		middleware.RequireBearer(deps.emailAuth, logger),
	).Post("/email/send", deps.email.Send)

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
