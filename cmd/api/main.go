package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/avelazquez/courierdesk-backend/api/controllers"
	"github.com/avelazquez/courierdesk-backend/api/routes"
	"github.com/avelazquez/courierdesk-backend/internal/activity"
	"github.com/avelazquez/courierdesk-backend/internal/assignments"
	"github.com/avelazquez/courierdesk-backend/internal/drivers"
	"github.com/avelazquez/courierdesk-backend/internal/notifications"
	"github.com/avelazquez/courierdesk-backend/internal/orders"
	"github.com/avelazquez/courierdesk-backend/internal/schedules"
	"github.com/avelazquez/courierdesk-backend/pkg/config"
	"github.com/avelazquez/courierdesk-backend/pkg/db"
	"github.com/avelazquez/courierdesk-backend/pkg/logger"
	"github.com/avelazquez/courierdesk-backend/pkg/migrate"
	"github.com/avelazquez/courierdesk-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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
	activityRepo := activity.NewRepository(conn)
	notificationRepo := notifications.NewRepository(conn)

	recorder := activity.NewRecorder(activityRepo)
	outbox := notifications.NewOutbox(notificationRepo)

	driversSvc, err := drivers.NewService(driverRepo, dbClient, recorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create drivers service", err)
		os.Exit(1)
	}
	ordersSvc, err := orders.NewService(orderRepo, dbClient, recorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	assignmentsSvc, err := assignments.NewService(orderRepo, driverRepo, ledgerRepo, scheduleRepo, dbClient, recorder, outbox, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create assignments service", err)
		os.Exit(1)
	}
	schedulesSvc, err := schedules.NewService(scheduleRepo, orderRepo, driverRepo, dbClient, recorder, outbox)
	if err != nil {
		logg.Error(context.Background(), "failed to create schedules service", err)
		os.Exit(1)
	}
	activitySvc, err := activity.NewService(activityRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create activity service", err)
		os.Exit(1)
	}
	notificationsSvc, err := notifications.NewService(notificationRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg,
			map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			routes.Services{
				Drivers:       driversSvc,
				Orders:        ordersSvc,
				Assignments:   assignmentsSvc,
				Schedules:     schedulesSvc,
				Activity:      activitySvc,
				Notifications: notificationsSvc,
			}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
