package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"repairguide/internal/adapter/external/gemini"
	"repairguide/internal/adapter/scheduler"
	"repairguide/internal/adapter/telegram"
	"repairguide/internal/adapter/telegram/handlers"
	"repairguide/internal/adapter/telegram/middleware"
	"repairguide/internal/adapter/web"
	"repairguide/internal/config"
	"repairguide/internal/platform/httpclient"
	"repairguide/internal/platform/logger"
	"repairguide/internal/platform/ratelimit"
	"repairguide/internal/repair"
)

const (
	pruneEvery      = time.Minute
	pruneIdle       = 10 * time.Minute
	shutdownTimeout = 5 * time.Second
	botWorkers      = 8
)

// App wires application components.
type App struct {
	cfg     config.Config
	log     *slog.Logger
	svc     *repair.Service
	limiter *ratelimit.Limiter
	sched   *scheduler.Scheduler
	router  *gin.Engine
}

// New creates a new App instance and loads configuration.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{
		Env:          cfg.Env,
		ConsoleLevel: cfg.Log.ConsoleLevel,
		FileLevel:    cfg.Log.FileLevel,
		File:         cfg.Log.File,
		App:          "repairguide",
	})
	return build(cfg, log)
}

func build(cfg config.Config, log *slog.Logger) (*App, error) {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	client := httpclient.New(
		httpclient.WithLogger(log),
		httpclient.WithTimeout(cfg.Gemini.Timeout),
	)
	gen := gemini.NewClient(client, cfg.Gemini.BaseURL, cfg.Gemini.Model, cfg.Gemini.APIKey, cfg.Gemini.MaxAttempts)
	svc := repair.NewService(gen, log)
	limiter := ratelimit.New(cfg.HTTP.RateLimitInterval)

	sched := scheduler.New(scheduler.Config{Logger: log.With("component", "scheduler")})
	if _, err := sched.Add(scheduler.Job{
		Name:     "prune rate limiters",
		Schedule: scheduler.Every(pruneEvery),
		Timeout:  pruneEvery,
		Run:      pruneJob(limiter, pruneIdle, log),
	}); err != nil {
		return nil, err
	}

	router, err := web.NewRouter(web.NewHandler(svc, log, web.WithGuard(limiter)), log, cfg.HTTP.TrustedProxies...)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	return &App{
		cfg:     cfg,
		log:     log,
		svc:     svc,
		limiter: limiter,
		sched:   sched,
		router:  router,
	}, nil
}

// Handler exposes the HTTP router.
func (a *App) Handler() http.Handler { return a.router }

// Run starts the application and blocks until SIGINT/SIGTERM or a server failure.
func (a *App) Run() error {
	defer func() { _ = logger.Close(a.log) }()
	a.log.Info("starting", slog.String("addr", a.cfg.HTTP.Addr), slog.String("model", a.cfg.Gemini.Model))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.sched.Start()

	srv := &http.Server{Addr: a.cfg.HTTP.Addr, Handler: a.router, ReadHeaderTimeout: 10 * time.Second}
	srvErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	var disp *telegram.Dispatcher
	if a.cfg.Telegram.Token != "" {
		b, d, err := a.startBot()
		if err != nil {
			a.log.Error("telegram bot disabled", slog.Any("error", err))
		} else {
			disp = d
			go b.Start(ctx)
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-srvErr:
		runErr = err
		a.log.Error("server", slog.Any("error", err))
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("server shutdown", slog.Any("error", err))
	}
	if disp != nil {
		disp.Close()
	}
	if err := a.sched.Stop(shutdownCtx); err != nil {
		a.log.Warn("scheduler shutdown", slog.Any("error", err))
	}
	a.log.Info("stopped")
	return runErr
}

func (a *App) startBot() (*bot.Bot, *telegram.Dispatcher, error) {
	log := a.log.With("component", "telegram")
	h := handlers.New(a.svc, log)
	acl := middleware.NewACL(a.cfg.Telegram.AllowedIDs)
	rate := middleware.NewRateLimiter(a.limiter, handlers.Guarded)
	handler := middleware.Chain(h.Handle, middleware.Logging(log), acl.Middleware, rate.Middleware)

	var disp *telegram.Dispatcher
	b, err := bot.New(a.cfg.Telegram.Token,
		bot.WithDefaultHandler(func(ctx context.Context, _ *bot.Bot, upd *models.Update) {
			disp.Dispatch(ctx, upd)
		}),
		bot.WithAllowedUpdates([]string{"message"}),
	)
	if err != nil {
		return nil, nil, err
	}
	disp = telegram.NewDispatcher(b, botWorkers, handler)
	a.log.Info("telegram bot started", slog.Int("allowed_ids", len(a.cfg.Telegram.AllowedIDs)))
	return b, disp, nil
}

// pruneJob drops rate-limit state for clients idle longer than idle.
func pruneJob(l *ratelimit.Limiter, idle time.Duration, log *slog.Logger) scheduler.JobFunc {
	return func(ctx context.Context) error {
		if n := l.Prune(idle); n > 0 {
			log.DebugContext(ctx, "rate limiter pruned", slog.Int("removed", n), slog.Int("left", l.Len()))
		}
		return nil
	}
}
