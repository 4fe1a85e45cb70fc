package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"advocata/internal/cache"
	"advocata/internal/config"
	"advocata/internal/domain"
	"advocata/internal/service/appointments"
	"advocata/internal/service/users"
	"advocata/internal/store/postgres"
	transport "advocata/internal/transport/http"
)

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "advocata-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "advocata-server"),
	)
	slog.SetDefault(log)

	log.Info("starting",
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("log_level", cfg.LogLevel),
		slog.String("timezone", cfg.Timezone.String()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	var invalidator cache.Invalidator = cache.Noop{}
	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cfg.RedisAddr)
		if err := rc.Ping(ctx); err != nil {
			log.Error("redis connection failed", slog.Any("err", err), slog.String("redis_addr", cfg.RedisAddr))
			os.Exit(1)
		}
		defer func() {
			if err := rc.Close(); err != nil {
				log.Warn("redis close failed", slog.Any("err", err))
			}
		}()
		invalidator = rc
		log.Info("cache invalidation enabled", slog.String("redis_addr", cfg.RedisAddr))
	}

	hours := domain.BusinessHours{
		OpeningHour:  cfg.OpeningHour,
		ClosingHour:  cfg.ClosingHour,
		SlotDuration: cfg.SlotDuration,
	}
	if err := hours.Validate(); err != nil {
		log.Error("invalid business hours", slog.Any("err", err))
		os.Exit(1)
	}

	apptRepo := postgres.NewAppointmentRepo(db)
	userRepo := postgres.NewUserRepo(db)

	apptSvc := appointments.NewService(apptRepo, userRepo, invalidator, hours, cfg.Timezone, log)
	userSvc := users.NewService(userRepo, invalidator, log)

	router := transport.NewRouter(transport.RouterConfig{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, log,
		transport.NewAppointmentsHandler(apptSvc, log),
		transport.NewUsersHandler(userSvc, log),
	)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down", slog.Duration("timeout", cfg.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown incomplete", slog.Any("err", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http serve failed", slog.Any("err", err))
			os.Exit(1)
		}
	}

	log.Info("stopped")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// databaseLogArgs redacts credentials before the URL reaches the log.
func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("database", "unparsable-url")}
	}
	if u.User != nil {
		u.User = url.User(u.User.Username())
	}
	return []any{slog.String("database", u.Redacted())}
}
