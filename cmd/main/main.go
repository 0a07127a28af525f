package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"stock-dashboard/src/config"
	"stock-dashboard/src/logger"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file, .env and environment
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger.Configure(cfg.MConfig)
	appLogger := logger.NewLogger(cfg.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := setupApplication(ctx, cfg.MConfig, appLogger)
	if err != nil {
		appLogger.Critical("Setup failed: %v", err)
	}
	defer app.Close()

	appLogger.Info("Starting %s (api :%d, ws :%d, grpc :%d)", cfg.Name, cfg.HTTPPort, cfg.WSPort, cfg.GrpcPort)
	if err := runServers(ctx, app, appLogger); err != nil {
		appLogger.Error("Shutdown with error: %v", err)
		app.Close()
		os.Exit(1)
	}
	appLogger.Info("Shutdown complete")
}
