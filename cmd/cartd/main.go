package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/cartengine/pkg/config"
	"github.com/angelmondragon/cartengine/pkg/env"
	"github.com/angelmondragon/cartengine/pkg/instance"
	"github.com/angelmondragon/cartengine/pkg/logger"
)

const serviceName = "cartd"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + env.First(cfg.App.Port, "PORT")
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
	})

	application, err := buildApp(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to wire cart engine", err)
		os.Exit(1)
	}
	logg.Info(logg.WithField(ctx, "products", application.catalog.Len()), "cart engine ready")

	runErr := application.run(ctx, addr)
	if closeErr := application.close(); closeErr != nil {
		logg.Error(ctx, "error closing dependencies", closeErr)
	}
	if runErr != nil {
		logg.Error(ctx, "cart engine stopped unexpectedly", runErr)
		os.Exit(1)
	}
	logg.Info(ctx, "cart engine shut down gracefully")
}
