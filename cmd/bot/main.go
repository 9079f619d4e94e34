package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kpp-all/drip-bot/internal/bot"
	"github.com/kpp-all/drip-bot/internal/bot/keyboard"
	"github.com/kpp-all/drip-bot/internal/catalog"
	"github.com/kpp-all/drip-bot/internal/delivery"
	apperrors "github.com/kpp-all/drip-bot/internal/errors"
	"github.com/kpp-all/drip-bot/internal/health"
	"github.com/kpp-all/drip-bot/internal/i18n"
	"github.com/kpp-all/drip-bot/internal/idempotency"
	"github.com/kpp-all/drip-bot/internal/jobs"
	jobhandlers "github.com/kpp-all/drip-bot/internal/jobs/handlers"
	"github.com/kpp-all/drip-bot/internal/lifecycle"
	"github.com/kpp-all/drip-bot/internal/middleware"
	"github.com/kpp-all/drip-bot/internal/progression"
	"github.com/kpp-all/drip-bot/internal/ratelimit"
	"github.com/kpp-all/drip-bot/internal/repository"
	"github.com/kpp-all/drip-bot/internal/store"
	"github.com/kpp-all/drip-bot/pkg/config"
	"github.com/kpp-all/drip-bot/pkg/graceful"
	"github.com/kpp-all/drip-bot/pkg/logger"
	appredis "github.com/kpp-all/drip-bot/pkg/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)

	log.Info("starting drip course bot",
		slog.String("env", cfg.AppEnv),
		slog.String("mode", cfg.Bot.Mode),
		slog.String("http_port", cfg.Server.Port),
	)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			log.Error("failed to initialize sentry", slog.Any("error", err))
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	config.Watch(v, log)

	var redisClient *appredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = appredis.NewFromAppConfig(ctx, cfg.Redis)
		if err != nil {
			log.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
	}

	sheets, err := store.NewSheetsClient(cfg.Sheets, log)
	if err != nil {
		log.Error("failed to initialize sheets store", slog.Any("error", err))
		os.Exit(1)
	}

	enrollments := repository.NewEnrollmentRepository(sheets, cfg.Sheets.UsersSheet, log)
	contentCatalog := catalog.New(sheets, cfg.Sheets.ContentSheet, log)
	engine := progression.NewEngine(enrollments, contentCatalog, log)

	var locker progression.Locker
	if redisClient != nil {
		locker = progression.NewRedisLocker(redisClient.Client, log)
	} else {
		locker = progression.NewMemoryLocker()
	}

	i18nManager, err := i18n.Load("ru")
	if err != nil {
		log.Error("failed to load translations", slog.Any("error", err))
		os.Exit(1)
	}
	translator := i18nManager.Translator("ru")

	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)

	tb, err := bot.NewTelebot(*cfg)
	if err != nil {
		log.Error("failed to initialize telegram bot", slog.Any("error", err))
		os.Exit(1)
	}

	transport := delivery.NewTelegramTransport(tb, cfg.Bot.ChannelID, keyboard.NewBuilder(log), log)
	controller := delivery.NewController(
		enrollments, engine, locker, transport, translator, errHandler, cfg.Bot.AdminContact, log,
	)

	var idempotencyStore idempotency.Store
	if redisClient != nil {
		idempotencyStore = idempotency.NewRedisStore(redisClient.Client, log)
	} else {
		memStore := idempotency.NewMemoryStore()
		idempotencyStore = memStore
		go idempotency.NewCleaner(memStore, log, time.Hour).Run(ctx)
	}
	idempotencyManager := idempotency.NewManager(idempotencyStore, log)

	var rateLimitMw *middleware.RateLimitMiddleware
	if cfg.RateLimit.Enabled {
		var limiter ratelimit.Limiter
		memLimiter := ratelimit.NewMemoryLimiter(log)
		go ratelimit.NewCleaner(memLimiter, log, 10*time.Minute, time.Hour).Run(ctx)
		if redisClient != nil {
			limiter = ratelimit.NewFallbackLimiter(ratelimit.NewRedisLimiter(redisClient.Client, log), memLimiter, log)
		} else {
			limiter = memLimiter
		}
		rateLimitMw = middleware.NewRateLimitMiddleware(limiter, ratelimit.NewRules(cfg.RateLimit), log)
	}

	app, err := bot.New(*cfg, log, tb, controller, translator, errHandler, idempotencyManager, rateLimitMw)
	if err != nil {
		log.Error("failed to assemble bot", slog.Any("error", err))
		os.Exit(1)
	}

	checker := health.NewChecker(log)
	checker.AddCheck("store", sheets)
	checker.AddCheck("telegram", health.NewTelegramChecker(app.Telebot()))
	if redisClient != nil {
		checker.AddCheck("redis", health.NewRedisChecker(redisClient.Client))
	}

	shutdown := lifecycle.NewShutdown(log)

	if cfg.Jobs.Enabled {
		if redisClient == nil {
			log.Error("background jobs require redis to be enabled")
			os.Exit(1)
		}

		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}

		reminder := jobhandlers.NewDailyReminderHandler(enrollments, contentCatalog, transport, translator, log)

		worker := jobs.NewWorker(redisOpt, map[string]int{jobs.QueueDefault: 3, jobs.QueueLow: 1}, log)
		worker.RegisterHandler(jobs.TaskTypeDailyReminder, reminder)
		go func() {
			if err := worker.Run(); err != nil {
				log.Error("jobs worker stopped", slog.Any("error", err))
			}
		}()

		scheduler := jobs.NewScheduler(redisOpt, log)
		if err := scheduler.RegisterTasks(cfg.Jobs.ReminderCron); err != nil {
			log.Error("failed to register scheduled tasks", slog.Any("error", err))
			os.Exit(1)
		}
		scheduler.Run()

		shutdown.Register("jobs", func(ctx context.Context) error {
			scheduler.Shutdown()
			worker.Shutdown()
			return nil
		})
	}

	server := newOpsServer(*cfg, log, checker)
	go func() {
		if err := server.ListenAndServe(ctx); err != nil {
			log.Error("ops server stopped", slog.Any("error", err))
		}
	}()

	go app.Start()

	shutdown.Register("telegram-bot", func(ctx context.Context) error {
		app.Stop()
		return nil
	})
	if redisClient != nil {
		shutdown.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
	}

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("drip course bot stopped")
}

func newOpsServer(cfg config.Config, log *slog.Logger, checker *health.Checker) *graceful.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		report := checker.Check(r.Context())

		status := http.StatusOK
		if !report.Healthy() {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
	})

	handler := logger.Middleware(middleware.New(log)(mux))

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return graceful.NewServer(log, srv, cfg.Server.ShutdownTimeout)
}
