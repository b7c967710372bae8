package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/avelazquez/courierdesk-backend/internal/activity"
	"github.com/avelazquez/courierdesk-backend/internal/assignments"
	"github.com/avelazquez/courierdesk-backend/internal/drivers"
	"github.com/avelazquez/courierdesk-backend/internal/notifications"
	"github.com/avelazquez/courierdesk-backend/internal/orders"
	"github.com/avelazquez/courierdesk-backend/internal/schedules"
	"github.com/avelazquez/courierdesk-backend/internal/sweep"
	"github.com/avelazquez/courierdesk-backend/pkg/config"
	"github.com/avelazquez/courierdesk-backend/pkg/db"
	"github.com/avelazquez/courierdesk-backend/pkg/logger"
	"github.com/avelazquez/courierdesk-backend/pkg/metrics"
	"github.com/avelazquez/courierdesk-backend/pkg/migrate"
	"github.com/avelazquez/courierdesk-backend/pkg/redis"
)

const lockKeyFormat = "cd:sweep-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "sweep-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "sweep-worker"

	logg = logger.New(logger.Options{
		ServiceName: "sweep-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()
	driverRepo := drivers.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	ledgerRepo := assignments.NewRepository(conn)
	scheduleRepo := schedules.NewRepository(conn)
	recorder := activity.NewRecorder(activity.NewRepository(conn))
	outbox := notifications.NewOutbox(notifications.NewRepository(conn))

	assignmentsSvc, err := assignments.NewService(orderRepo, driverRepo, ledgerRepo, scheduleRepo, dbClient, recorder, outbox, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create assignments service", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewSweepJobMetrics(prometheus.DefaultRegisterer)

	executionJob, err := sweep.NewScheduleExecutionJob(sweep.ScheduleExecutionJobParams{
		Logger:    logg,
		DB:        dbClient,
		Queue:     scheduleRepo,
		Orders:    orderRepo,
		Assigner:  assignmentsSvc,
		Recorder:  recorder,
		Outbox:    outbox,
		Metrics:   metricsCollector,
		BatchSize: cfg.Sweep.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create schedule execution job", err)
		os.Exit(1)
	}

	lock, err := sweep.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Sweep.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep lock", err)
		os.Exit(1)
	}

	service, err := sweep.NewService(sweep.ServiceParams{
		Logger:   logg,
		Registry: sweep.NewRegistry(executionJob),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Sweep.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    cfg.Sweep.Interval.String(),
	})
	logg.Info(ctx, "starting sweep worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sweep worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sweep worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
