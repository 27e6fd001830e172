package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/activity"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	appHTTP "github.com/cmlabs-hris/attendance-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-backend-go/internal/messaging/kafka"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/catalogue"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/lock"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
	activityService "github.com/cmlabs-hris/attendance-backend-go/internal/service/activity"
	attendanceService "github.com/cmlabs-hris/attendance-backend-go/internal/service/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/file"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/location"
	"github.com/cmlabs-hris/attendance-backend-go/internal/service/timing"
	"github.com/go-chi/httplog/v3"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func main() {
	if err := run(); err != nil {
		slog.Error("attendance api stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.App.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-backend"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Attendance.Location()
	if err != nil {
		return err
	}

	refs, err := catalogue.Load(cfg.Attendance.CataloguePath, catalogue.Defaults())
	if err != nil {
		return fmt.Errorf("failed to load reference catalogue: %w", err)
	}
	slog.Info("reference catalogue loaded",
		"path", cfg.Attendance.CataloguePath,
		"departments", len(refs.Departments.Timings),
		"offices", len(refs.Offices),
	)

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	userRepo := postgresql.NewUserRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)

	guard, closeGuard, err := newCheckInGuard(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeGuard()

	sink, closeSink := newActivitySink(cfg, db, logger)
	defer closeSink()

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize local storage: %w", err)
	}
	photoService := file.NewPhotoService(fileStorage)

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		return err
	}

	svc := attendanceService.NewAttendanceService(
		attendanceRepo,
		userRepo,
		guard,
		timing.NewResolver(refs.Departments),
		location.NewValidator(refs.Offices),
		photoService,
		sink,
		attendanceService.Options{
			Location:           loc,
			PhotoUploadTimeout: cfg.Attendance.PhotoUploadTimeout,
			ActivityTimeout:    cfg.Attendance.ActivityTimeout,
		},
	)

	limiter := middleware.NewKeyedRateLimiter(rate.Limit(cfg.Attendance.RateLimitPerMinute/60), cfg.Attendance.RateLimitBurst)

	scheduler := cron.NewScheduler()
	if err := scheduler.AddJob("sweep_rate_limiter", time.Minute, func(context.Context) error {
		limiter.Sweep()
		return nil
	}); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	router := appHTTP.NewRouter(JWTService, appHTTP.NewAttendanceHandler(svc), appHTTP.RouterOptions{
		AllowedOrigins: cfg.App.AllowedOrigins,
		Logger:         logger,
		RequestLevel:   slog.LevelInfo,
		RateLimiter:    limiter,
		UploadsDir:     cfg.Storage.BasePath,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server running", "addr", server.Addr, "timezone", loc.String(), "activity_sink", cfg.Attendance.ActivitySink)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server exited gracefully")
	return nil
}

// newCheckInGuard uses redis when configured so the guard holds across replicas.
func newCheckInGuard(ctx context.Context, cfg *config.Config) (attendance.CheckInGuard, func(), error) {
	if !cfg.Redis.Enabled() {
		slog.Info("REDIS_ADDR not set, using in-process check-in guard")
		return lock.NewMemoryGuard(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	closeFn := func() {
		if err := rdb.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
	return lock.NewRedisGuard(rdb, cfg.Attendance.CheckInLockTTL), closeFn, nil
}

func newActivitySink(cfg *config.Config, db *database.DB, logger *slog.Logger) (activity.Sink, func()) {
	logSink := activityService.NewLogSink(logger)

	switch cfg.Attendance.ActivitySink {
	case config.ActivitySinkKafka:
		writer := kafka.NewWriter(cfg.Kafka.Brokers)
		publisher := kafka.NewActivityPublisher(writer, cfg.Kafka.ActivityTopic)
		closeFn := func() {
			if err := writer.Close(); err != nil {
				slog.Warn("failed to close kafka writer", "error", err)
			}
		}
		return activityService.MultiSink{logSink, publisher}, closeFn
	case config.ActivitySinkLog:
		return logSink, func() {}
	default:
		return postgresql.NewActivityLogRepository(db), func() {}
	}
}
